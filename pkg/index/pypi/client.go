// Package pypi implements the PyPI JSON API client used to discover
// project releases and per-release dependency metadata.
package pypi

import (
	"context"
	"fmt"
	"regexp"

	"github.com/matzehuels/reqsolve/pkg/cache"
	"github.com/matzehuels/reqsolve/pkg/errors"
	"github.com/matzehuels/reqsolve/pkg/httputil"
	"github.com/matzehuels/reqsolve/pkg/index"
	"github.com/matzehuels/reqsolve/pkg/req"
)

// DefaultBaseURL is the public PyPI JSON API root.
const DefaultBaseURL = "https://pypi.org/pypi"

var (
	markerRE = regexp.MustCompile(`;\s*(.+)`)
	skipRE   = regexp.MustCompile(`extra\s*==|\bdev\b|\btest\b`)
)

// ReleaseInfo holds the metadata of one concrete release.
type ReleaseInfo struct {
	Name    string
	Version string

	// Requires lists the release's runtime dependency declarations as
	// raw specifier strings; entries guarded by extra, dev, or test
	// markers are excluded.
	Requires []string
}

// Client provides access to the PyPI JSON API with caching and
// automatic retries. All methods are safe for concurrent use.
type Client struct {
	*index.Client
	baseURL string
}

// NewClient creates a PyPI client over the run's session. Responses are
// cached for cache.TTLProject; pass cache.NewNullCache() to disable
// caching.
func NewClient(session *httputil.Session, backend cache.Cache, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		Client:  index.NewClient(session, backend, "pypi:", cache.TTLProject),
		baseURL: baseURL,
	}
}

// FetchProject retrieves the release listing for a project. The name is
// normalized before the lookup. Returns a PACKAGE_NOT_FOUND error when
// the registry has no such project.
func (c *Client) FetchProject(ctx context.Context, name string) (*index.Project, error) {
	name = req.NormalizeName(name)

	var info index.Project
	err := c.Cached(ctx, name, &info, func() error {
		return c.fetchProject(ctx, name, &info)
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) fetchProject(ctx context.Context, name string, info *index.Project) error {
	var data apiResponse
	if err := c.GetJSON(ctx, fmt.Sprintf("%s/%s/json", c.baseURL, name), &data); err != nil {
		if errors.Is(err, errors.ErrCodeNotFound) {
			return errors.New(errors.ErrCodePackageNotFound, "no project named %q on the index", name)
		}
		return err
	}

	releases := make(map[string][]index.File, len(data.Releases))
	for version, files := range data.Releases {
		converted := make([]index.File, 0, len(files))
		for _, f := range files {
			converted = append(converted, index.File{
				Filename:       f.Filename,
				URL:            f.URL,
				RequiresPython: f.RequiresPython,
				SHA256:         f.Digests.SHA256,
				Yanked:         f.Yanked,
			})
		}
		releases[version] = converted
	}

	*info = index.Project{
		Name:           req.NormalizeName(data.Info.Name),
		LatestVersion:  data.Info.Version,
		RequiresPython: data.Info.RequiresPython,
		Summary:        data.Info.Summary,
		Releases:       releases,
	}
	return nil
}

// FetchRelease retrieves the metadata of one release, including its
// runtime dependency declarations.
func (c *Client) FetchRelease(ctx context.Context, name, version string) (*ReleaseInfo, error) {
	name = req.NormalizeName(name)
	key := name + "==" + version

	var info ReleaseInfo
	err := c.Cached(ctx, key, &info, func() error {
		return c.fetchRelease(ctx, name, version, &info)
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) fetchRelease(ctx context.Context, name, version string, info *ReleaseInfo) error {
	var data apiResponse
	if err := c.GetJSON(ctx, fmt.Sprintf("%s/%s/%s/json", c.baseURL, name, version), &data); err != nil {
		if errors.Is(err, errors.ErrCodeNotFound) {
			return errors.New(errors.ErrCodePackageNotFound, "no release %s==%s on the index", name, version)
		}
		return err
	}
	*info = ReleaseInfo{
		Name:     req.NormalizeName(data.Info.Name),
		Version:  data.Info.Version,
		Requires: runtimeRequires(data.Info.RequiresDist),
	}
	return nil
}

// runtimeRequires filters a requires_dist listing down to unconditional
// runtime dependencies, dropping entries guarded by extra, dev, or test
// environment markers.
func runtimeRequires(requires []string) []string {
	var deps []string
	for _, entry := range requires {
		if m := markerRE.FindStringSubmatch(entry); len(m) > 1 && skipRE.MatchString(m[1]) {
			continue
		}
		deps = append(deps, entry)
	}
	return deps
}

type apiResponse struct {
	Info     apiInfo              `json:"info"`
	Releases map[string][]apiFile `json:"releases"`
}

type apiInfo struct {
	Name           string   `json:"name"`
	Version        string   `json:"version"`
	Summary        string   `json:"summary"`
	RequiresDist   []string `json:"requires_dist"`
	RequiresPython string   `json:"requires_python"`
}

type apiFile struct {
	Filename       string `json:"filename"`
	URL            string `json:"url"`
	RequiresPython string `json:"requires_python"`
	Yanked         bool   `json:"yanked"`
	Digests        struct {
		SHA256 string `json:"sha256"`
	} `json:"digests"`
}
