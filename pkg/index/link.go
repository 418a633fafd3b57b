// Package index locates installable distribution files for Python
// package requirements. A Finder combines a registry index (the PyPI
// JSON API) with local or remote find-links locations and filters the
// discovered files down to candidates that satisfy a version specifier
// and the run's interpreter policy.
package index

import (
	"path"
	"strings"

	"github.com/matzehuels/reqsolve/pkg/req"
)

// Link is one downloadable distribution file discovered on an index or
// a find-links location.
type Link struct {
	// URL locates the file; for find-links directories it is a file:// URL.
	URL string

	// Filename is the last URL path segment.
	Filename string

	// ComesFrom names the index page or find-links location the link
	// was discovered on.
	ComesFrom string

	// RequiresPython carries the file's declared interpreter specifier,
	// empty when the index does not publish one.
	RequiresPython string

	// SHA256 is the registry-published digest, empty for find-links files.
	SHA256 string

	// Yanked marks releases withdrawn by their publisher; yanked files
	// are only usable when a requirement pins their exact version.
	Yanked bool
}

// NewLink builds a Link from a URL, deriving the filename and dropping
// any URL fragment.
func NewLink(url, comesFrom string) Link {
	clean := url
	if i := strings.Index(clean, "#"); i >= 0 {
		clean = clean[:i]
	}
	return Link{
		URL:       clean,
		Filename:  path.Base(clean),
		ComesFrom: comesFrom,
	}
}

// IsWheel reports whether the link points at a built wheel rather than
// a source distribution.
func (l Link) IsWheel() bool {
	return strings.HasSuffix(l.Filename, ".whl")
}

// Ext returns the distribution file extension, keeping compound
// archive suffixes (.tar.gz, .tar.bz2) whole.
func (l Link) Ext() string {
	for _, ext := range []string{".tar.gz", ".tar.bz2", ".tar.xz"} {
		if strings.HasSuffix(l.Filename, ext) {
			return ext
		}
	}
	return path.Ext(l.Filename)
}

// Candidate pairs a concrete release version with the distribution file
// chosen to provide it.
type Candidate struct {
	Name    string // normalized project name
	Version req.Version
	Link    Link
}
