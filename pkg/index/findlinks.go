package index

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/reqsolve/pkg/req"
)

var sdistExts = []string{".tar.gz", ".tgz", ".zip", ".tar.bz2"}

// scanFindLinks collects distribution files for a project from a local
// find-links directory. Files whose names do not parse as a wheel or
// source distribution of the project are skipped silently, matching the
// tolerant treatment of mixed wheel directories.
func scanFindLinks(dir, name string) ([]Candidate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil // missing or unreadable locations contribute nothing
	}

	var found []Candidate
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		c, ok := parseDistFilename(e.Name(), name)
		if !ok {
			continue
		}
		abs, err := filepath.Abs(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		c.Link = Link{
			URL:       "file://" + abs,
			Filename:  e.Name(),
			ComesFrom: dir,
		}
		found = append(found, c)
	}
	return found, nil
}

// parseDistFilename extracts the project name and version from a
// distribution filename and reports whether it belongs to project name.
func parseDistFilename(filename, name string) (Candidate, bool) {
	if strings.HasSuffix(filename, ".whl") {
		w, err := ParseWheelName(filename)
		if err != nil {
			return Candidate{}, false
		}
		if req.NormalizeName(w.Name) != name {
			return Candidate{}, false
		}
		v, err := req.ParseVersion(w.Version)
		if err != nil {
			return Candidate{}, false
		}
		return Candidate{Name: name, Version: v}, true
	}

	for _, ext := range sdistExts {
		stem, ok := strings.CutSuffix(filename, ext)
		if !ok {
			continue
		}
		// Source distributions are named <name>-<version>; the version
		// starts after the last hyphen.
		i := strings.LastIndex(stem, "-")
		if i <= 0 {
			return Candidate{}, false
		}
		if req.NormalizeName(stem[:i]) != name {
			return Candidate{}, false
		}
		v, err := req.ParseVersion(stem[i+1:])
		if err != nil {
			return Candidate{}, false
		}
		return Candidate{Name: name, Version: v}, true
	}
	return Candidate{}, false
}
