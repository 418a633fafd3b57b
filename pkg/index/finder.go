package index

import (
	"context"
	"sort"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/matzehuels/reqsolve/pkg/errors"
	"github.com/matzehuels/reqsolve/pkg/req"
)

// DefaultPythonVersion is the interpreter version candidates are
// checked against when none is configured.
const DefaultPythonVersion = "3.12"

// memoSize bounds the per-run candidate memo. Lookups repeat heavily
// during transitive walks, so even a small window removes most
// re-filtering work.
const memoSize = 512

// FinderOptions configure candidate filtering.
type FinderOptions struct {
	// IgnoreRequiresPython disables interpreter-compatibility filtering.
	IgnoreRequiresPython bool

	// CheckSupportedWheels drops wheels whose tags cannot run on this
	// machine. Disabled when resolving for a foreign target directory.
	CheckSupportedWheels bool

	// PythonVersion is the interpreter version used for requires-python
	// checks; defaults to DefaultPythonVersion.
	PythonVersion string
}

// Finder locates candidate distribution files for named requirements.
//
// It combines a registry index with find-links locations. Requirement
// file parsing mutates the finder through SetIndexURL, AddFindLinks,
// and SetNoIndex, so the registry fetcher is constructed lazily on
// first use, after all option lines have been applied.
type Finder struct {
	// NewFetcher builds the registry client for the configured index
	// URL. Left nil in tests that set Fetcher directly.
	NewFetcher func(indexURL string) Fetcher

	// Fetcher is the registry client; built lazily via NewFetcher.
	Fetcher Fetcher

	opts      FinderOptions
	indexURL  string
	findLinks []string
	noIndex   bool

	mu   sync.Mutex
	memo *lru.Cache[string, []Candidate]
}

// NewFinder creates a Finder with the given filtering options.
func NewFinder(opts FinderOptions) *Finder {
	if opts.PythonVersion == "" {
		opts.PythonVersion = DefaultPythonVersion
	}
	memo, _ := lru.New[string, []Candidate](memoSize)
	return &Finder{opts: opts, memo: memo}
}

// SetIndexURL replaces the registry index URL.
func (f *Finder) SetIndexURL(u string) { f.indexURL = u }

// AddFindLinks registers an additional find-links location.
func (f *Finder) AddFindLinks(loc string) { f.findLinks = append(f.findLinks, loc) }

// SetNoIndex disables the registry index, leaving only find-links.
func (f *Finder) SetNoIndex(noIndex bool) { f.noIndex = noIndex }

// SetCheckSupportedWheels toggles wheel tag filtering against the
// running machine. The derived run policy sets this before resolution.
func (f *Finder) SetCheckSupportedWheels(check bool) { f.opts.CheckSupportedWheels = check }

// NoIndex reports whether the registry index is disabled.
func (f *Finder) NoIndex() bool { return f.noIndex }

// IndexURL returns the configured registry index URL.
func (f *Finder) IndexURL() string { return f.indexURL }

// FindLinksLocations returns the configured find-links locations.
func (f *Finder) FindLinksLocations() []string { return f.findLinks }

// Find returns the candidates for name that satisfy specifier, best
// first (highest version, wheels before source distributions).
//
// Prerelease versions are excluded unless the specifier itself names a
// prerelease. Yanked files are excluded unless the specifier pins an
// exact version.
func (f *Finder) Find(ctx context.Context, name, specifier string) ([]Candidate, error) {
	name = req.NormalizeName(name)
	key := name + "\x00" + specifier

	f.mu.Lock()
	cached, ok := f.memo.Get(key)
	f.mu.Unlock()
	if ok {
		return cached, nil
	}

	var pool []Candidate
	for _, loc := range f.findLinks {
		found, err := scanFindLinks(loc, name)
		if err != nil {
			return nil, err
		}
		pool = append(pool, found...)
	}

	if !f.noIndex {
		found, err := f.findOnIndex(ctx, name)
		if err != nil {
			if len(pool) == 0 || !errors.Is(err, errors.ErrCodePackageNotFound) {
				return nil, err
			}
		}
		pool = append(pool, found...)
	}

	matched, err := f.filter(pool, specifier)
	if err != nil {
		return nil, err
	}
	sortCandidates(matched)

	f.mu.Lock()
	f.memo.Add(key, matched)
	f.mu.Unlock()
	return matched, nil
}

// FindBest returns the single best candidate for name under specifier,
// or a PACKAGE_NOT_FOUND error when nothing qualifies.
func (f *Finder) FindBest(ctx context.Context, name, specifier string) (Candidate, error) {
	found, err := f.Find(ctx, name, specifier)
	if err != nil {
		return Candidate{}, err
	}
	if len(found) == 0 {
		return Candidate{}, errors.New(errors.ErrCodePackageNotFound,
			"no matching distribution found for %s%s", name, specifier)
	}
	return found[0], nil
}

func (f *Finder) findOnIndex(ctx context.Context, name string) ([]Candidate, error) {
	fetcher := f.fetcher()
	if fetcher == nil {
		return nil, errors.New(errors.ErrCodeInvalidCfg, "no registry index configured")
	}
	project, err := fetcher.FetchProject(ctx, name)
	if err != nil {
		return nil, err
	}

	var found []Candidate
	for version, files := range project.Releases {
		v, err := req.ParseVersion(version)
		if err != nil {
			continue // non-PEP-440 legacy uploads are unusable
		}
		for _, file := range files {
			link := NewLink(file.URL, f.indexURL)
			link.RequiresPython = file.RequiresPython
			link.SHA256 = file.SHA256
			link.Yanked = file.Yanked
			found = append(found, Candidate{Name: name, Version: v, Link: link})
		}
	}
	return found, nil
}

func (f *Finder) fetcher() Fetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Fetcher == nil && f.NewFetcher != nil {
		f.Fetcher = f.NewFetcher(f.indexURL)
	}
	return f.Fetcher
}

func (f *Finder) filter(pool []Candidate, specifier string) ([]Candidate, error) {
	allowPre := req.SpecifierHasPrerelease(specifier)
	exactPin := isExactPin(specifier)

	var matched []Candidate
	for _, c := range pool {
		ok, err := req.MatchSpecifier(specifier, c.Version.String())
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if c.Version.IsPrerelease() && !allowPre {
			continue
		}
		if c.Link.Yanked && !exactPin {
			continue
		}
		if !f.opts.IgnoreRequiresPython && c.Link.RequiresPython != "" {
			ok, err := req.MatchSpecifier(c.Link.RequiresPython, f.opts.PythonVersion)
			if err != nil || !ok {
				continue // malformed requires-python is treated as incompatible
			}
		}
		if f.opts.CheckSupportedWheels && c.Link.IsWheel() {
			w, err := ParseWheelName(c.Link.Filename)
			if err != nil || !w.Supported() {
				continue
			}
		}
		matched = append(matched, c)
	}
	return matched, nil
}

// sortCandidates orders best-first: highest version, and within a
// version wheels before source distributions.
func sortCandidates(found []Candidate) {
	sort.SliceStable(found, func(i, j int) bool {
		if c := found[i].Version.Compare(found[j].Version); c != 0 {
			return c > 0
		}
		return found[i].Link.IsWheel() && !found[j].Link.IsWheel()
	})
}

// isExactPin reports whether the specifier is a single == or === clause
// pinning one concrete version (no .* prefix form).
func isExactPin(specifier string) bool {
	specifier = strings.TrimSpace(specifier)
	if !strings.HasPrefix(specifier, "==") {
		return false
	}
	return !strings.Contains(specifier, ",") && !strings.HasSuffix(specifier, ".*")
}
