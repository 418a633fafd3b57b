// Package req collects heterogeneous requirement inputs (command-line
// specifiers, constraint files, editable source trees, requirement files)
// into a single ordered requirement set ready for resolution.
package req

import (
	"sort"
	"strings"
)

// Requirement is the normalized unit produced from one requirement source.
//
// A constraint-only requirement limits acceptable versions without
// triggering installation itself; it is never user-supplied. An editable
// requirement installs from a local source tree and is never
// constraint-only. Construct requirements through the From* constructors,
// which enforce both invariants.
type Requirement struct {
	// Name is the normalized project name. It may be empty for editables
	// whose source tree does not declare one; resolution fills it in.
	Name string

	// Extras are requested extras, e.g. requests[socks].
	Extras []string

	// Specifier is the version constraint expression, e.g. ">=2.0,<3".
	Specifier string

	// URL is a direct reference (name @ url) or the file:// URL of an
	// editable source tree.
	URL string

	// Path is the local source tree of an editable requirement.
	Path string

	// Marker is the raw environment marker text, carried for reporting.
	Marker string

	Editable       bool
	ConstraintOnly bool
	UserSupplied   bool

	// Hashes maps hash algorithm to allowed hex digests, collected from
	// --hash options on requirement-file lines.
	Hashes map[string][]string

	// BuildIsolation reports whether PEP 517 build isolation applies when
	// building this requirement from source.
	BuildIsolation bool

	// Source describes where the requirement came from, for logging and
	// error messages (e.g. "-r requirements.txt (line 4)").
	Source string
}

// HasHashOptions reports whether the requirement carries any --hash
// constraints. One requirement with hash options places the whole run
// into hash-checking mode.
func (r Requirement) HasHashOptions() bool {
	return len(r.Hashes) > 0
}

// String renders the requirement the way a user would write it.
func (r Requirement) String() string {
	var b strings.Builder
	if r.Editable {
		b.WriteString("-e ")
	}
	switch {
	case r.Path != "":
		b.WriteString(r.Path)
	case r.Name != "":
		b.WriteString(r.Name)
		if len(r.Extras) > 0 {
			b.WriteString("[" + strings.Join(r.Extras, ",") + "]")
		}
		if r.URL != "" {
			b.WriteString(" @ " + r.URL)
		} else {
			b.WriteString(r.Specifier)
		}
	case r.URL != "":
		b.WriteString(r.URL)
	}
	return b.String()
}

// HashAlgorithms returns the algorithms for which digests are pinned,
// sorted for stable output.
func (r Requirement) HashAlgorithms() []string {
	algs := make([]string, 0, len(r.Hashes))
	for alg := range r.Hashes {
		algs = append(algs, alg)
	}
	sort.Strings(algs)
	return algs
}

// NormalizeName lowercases a project name and collapses runs of
// ".", "-", and "_" to a single hyphen (PEP 503).
func NormalizeName(name string) string {
	var b strings.Builder
	prevSep := false
	for _, r := range strings.ToLower(name) {
		if r == '.' || r == '-' || r == '_' {
			prevSep = true
			continue
		}
		if prevSep && b.Len() > 0 {
			b.WriteByte('-')
		}
		prevSep = false
		b.WriteRune(r)
	}
	return b.String()
}
