// Package resolve turns aggregated requirements into a concrete set of
// pinned distribution files.
//
// An Orchestrator owns the run-scoped resources (network session,
// candidate finder, build directory, requirement tracker) and drives
// the resolver over them. The resolver itself is pluggable; the default
// RegistryResolver walks requirements breadth-first and pins the best
// candidate the finder offers, first requirement wins per name.
package resolve

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/reqsolve/pkg/cache"
	"github.com/matzehuels/reqsolve/pkg/index"
	"github.com/matzehuels/reqsolve/pkg/req"
)

// Finder locates the best installable candidate for a requirement.
type Finder interface {
	FindBest(ctx context.Context, name, specifier string) (index.Candidate, error)
}

// DependencyProvider reports the runtime dependency declarations of a
// pinned release as raw specifier strings.
type DependencyProvider interface {
	Dependencies(ctx context.Context, name, version string) ([]string, error)
}

// Preparer readies a chosen candidate for installation: it fetches the
// distribution file into the run's build area and verifies any declared
// hashes.
type Preparer interface {
	Prepare(ctx context.Context, r req.Requirement, c index.Candidate) error
}

// Resolver maps an ordered requirement list to a resolved set.
type Resolver interface {
	Resolve(ctx context.Context, reqs []req.Requirement) (*ResolvedSet, error)
}

// Options carry the per-run flags that shape resolution.
type Options struct {
	// Version identifies the tool in the session's User-Agent.
	Version string

	// IndexURL overrides the registry index; empty selects PyPI.
	IndexURL string

	// FindLinks lists additional distribution locations.
	FindLinks []string

	// NoIndex disables the registry index entirely.
	NoIndex bool

	// RequireHashes switches the run into hash-checking mode even when
	// no requirement carries hash options.
	RequireHashes bool

	// Upgrade enables upgrades; UpgradeStrategy selects how far they
	// cascade ("to-satisfy-only" or "eager").
	Upgrade         bool
	UpgradeStrategy string

	IgnoreRequiresPython bool
	IgnoreInstalled      bool
	ForceReinstall       bool
	UsePEP517            bool
	Isolated             bool

	// PythonVersion is the interpreter version used for requires-python
	// checks; empty selects the finder default.
	PythonVersion string

	// Target is a foreign installation directory; when set, wheel tag
	// checks against the running machine are skipped.
	Target string

	// NoClean keeps the temporary build directory after the run.
	NoClean bool

	// Refresh bypasses cached index responses.
	Refresh bool

	// Cache is the metadata cache backend; nil disables caching.
	Cache cache.Cache

	// Headers are extra request headers, e.g. index auth.
	Headers map[string]string

	Logger *log.Logger
}

func (o *Options) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.Default()
}
