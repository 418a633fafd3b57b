package resolve

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/reqsolve/pkg/cache"
	"github.com/matzehuels/reqsolve/pkg/httputil"
	"github.com/matzehuels/reqsolve/pkg/index"
	"github.com/matzehuels/reqsolve/pkg/index/pypi"
	"github.com/matzehuels/reqsolve/pkg/req"
)

// Orchestrator builds and drives one resolution run.
//
// A run separates two phases. Begin constructs the long-lived pieces
// that requirement parsing already needs: the network session and the
// finder, which requirement-file option lines mutate. Resolve then
// scopes the per-resolution resources (tracker, build directory) so
// they are released on every exit path, success or failure; only the
// session outlives Resolve, until Close.
type Orchestrator struct {
	opts *Options
}

// NewOrchestrator creates an orchestrator for one run's options.
func NewOrchestrator(opts *Options) *Orchestrator {
	return &Orchestrator{opts: opts}
}

// Run holds the live resources of one resolution run.
type Run struct {
	Session *httputil.Session
	Finder  *index.Finder

	opts     *Options
	logger   *log.Logger
	registry *pypi.Client
}

// Begin opens the run: session first, then the candidate finder wired
// to the configured index and find-links locations.
func (o *Orchestrator) Begin(ctx context.Context) (*Run, error) {
	session := httputil.NewSession(o.opts.Version, o.opts.Headers)

	// Wheel tag filtering belongs to the derived policy; Resolve sets
	// it on the finder before the first lookup.
	finder := index.NewFinder(index.FinderOptions{
		IgnoreRequiresPython: o.opts.IgnoreRequiresPython,
		PythonVersion:        o.opts.PythonVersion,
	})
	indexURL := o.opts.IndexURL
	if indexURL == "" {
		indexURL = pypi.DefaultBaseURL
	}
	finder.SetIndexURL(indexURL)
	for _, loc := range o.opts.FindLinks {
		finder.AddFindLinks(loc)
	}
	if o.opts.NoIndex {
		finder.SetNoIndex(true)
	}

	run := &Run{
		Session: session,
		Finder:  finder,
		opts:    o.opts,
		logger:  o.opts.logger(),
	}
	// The fetcher is built lazily: requirement-file lines may still
	// change the index URL between Begin and the first lookup.
	finder.NewFetcher = func(indexURL string) index.Fetcher {
		return run.registryClient(indexURL)
	}
	return run, nil
}

// LineParser returns a requirement-file parser bound to the run's
// finder and session, so option lines configure this run and includes
// can be fetched over its network identity.
func (r *Run) LineParser() *req.LineParser {
	return &req.LineParser{
		Finder:  r.Finder,
		Session: r.Session,
		Logger:  r.logger,
	}
}

// Resolve pins the aggregated requirements under policy.
//
// The tracker and build directory live exactly as long as this call;
// both are released before it returns no matter how resolution ends.
// Resolver failures propagate unchanged so callers see the resolver's
// own error code.
func (r *Run) Resolve(ctx context.Context, reqs []req.Requirement, policy Policy) (*ResolvedSet, error) {
	r.Finder.SetCheckSupportedWheels(policy.CheckSupportedWheels)

	tracker, err := NewTracker()
	if err != nil {
		return nil, err
	}
	defer tracker.Close()
	r.logger.Debug("run started", "id", tracker.ID())

	build, err := NewBuildDir(r.opts.NoClean)
	if err != nil {
		return nil, err
	}
	defer func() {
		if build.Kept() {
			r.logger.Info("keeping build directory", "path", build.Path())
			return
		}
		if err := build.Close(); err != nil {
			r.logger.Warn("failed to remove build directory", "path", build.Path(), "err", err)
		}
	}()

	resolver := &RegistryResolver{
		Finder: r.Finder,
		Preparer: &FilePreparer{
			Session: r.Session,
			Build:   build,
			Tracker: tracker,
			Logger:  r.logger,
		},
		Deps:   r.dependencyProvider(),
		Policy: policy,
		Logger: r.logger,
	}
	return resolver.Resolve(ctx, reqs)
}

// Close releases the run's session.
func (r *Run) Close() {
	r.Session.Close()
}

func (r *Run) registryClient(indexURL string) *pypi.Client {
	if r.registry == nil {
		backend := r.opts.Cache
		if backend == nil {
			backend = cache.NewNullCache()
		}
		r.registry = pypi.NewClient(r.Session, backend, indexURL)
		r.registry.Refresh = r.opts.Refresh
	}
	return r.registry
}

// dependencyProvider returns the transitive-dependency source, or nil
// when the registry index is disabled and no release metadata exists.
// The finder holds the effective no-index state: a --no-index option
// line inside a requirement file lands there, not in the run options.
func (r *Run) dependencyProvider() DependencyProvider {
	if r.Finder.NoIndex() {
		return nil
	}
	return releaseDeps{run: r}
}

type releaseDeps struct {
	run *Run
}

func (d releaseDeps) Dependencies(ctx context.Context, name, version string) ([]string, error) {
	rel, err := d.run.registryClient(d.run.Finder.IndexURL()).FetchRelease(ctx, name, version)
	if err != nil {
		return nil, err
	}
	return rel.Requires, nil
}
