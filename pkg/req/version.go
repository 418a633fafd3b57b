package req

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/matzehuels/reqsolve/pkg/errors"
)

// versionRE captures the release segment and any pre/post/dev suffix of a
// PEP 440 version. Epoch and local segments are handled separately.
var versionRE = regexp.MustCompile(`^(\d+(?:\.\d+)*)[-._]?(a|b|c|rc|alpha|beta|pre|preview|dev|post|r|rev)?[-._]?(\d*)$`)

// suffixRank orders release phases: dev < alpha < beta < rc < final < post.
var suffixRank = map[string]int{
	"dev": -4,
	"a":   -3, "alpha": -3,
	"b": -2, "beta": -2,
	"c": -1, "rc": -1, "pre": -1, "preview": -1,
	"":     0,
	"post": 1, "r": 1, "rev": 1,
}

// Version is a parsed package version, ordered per a practical subset of
// PEP 440: epoch, dot-separated numeric release segments, and a single
// pre/post/dev suffix. Local version labels (+local) are ignored for
// ordering.
type Version struct {
	original string
	epoch    int
	release  []int
	suffix   int // suffixRank value
	suffixN  int // numeric part of the suffix (rc1 vs rc2)
}

// ParseVersion parses a version string.
func ParseVersion(s string) (Version, error) {
	v := Version{original: s}
	s = strings.TrimSpace(strings.TrimPrefix(s, "v"))

	// Local version label is irrelevant for ordering.
	if i := strings.IndexByte(s, '+'); i >= 0 {
		s = s[:i]
	}

	// Epoch (N!version).
	if i := strings.IndexByte(s, '!'); i >= 0 {
		epoch, err := strconv.Atoi(s[:i])
		if err != nil {
			return v, errors.New(errors.ErrCodeParse, "invalid version epoch in %q", v.original)
		}
		v.epoch = epoch
		s = s[i+1:]
	}

	m := versionRE.FindStringSubmatch(strings.ToLower(s))
	if m == nil {
		return v, errors.New(errors.ErrCodeParse, "invalid version: %q", v.original)
	}

	for _, part := range strings.Split(m[1], ".") {
		n, err := strconv.Atoi(part)
		if err != nil {
			return v, errors.New(errors.ErrCodeParse, "invalid version: %q", v.original)
		}
		v.release = append(v.release, n)
	}

	v.suffix = suffixRank[m[2]]
	if m[3] != "" {
		v.suffixN, _ = strconv.Atoi(m[3])
	}
	return v, nil
}

// String returns the original version string.
func (v Version) String() string { return v.original }

// Compare returns -1, 0, or 1 ordering v against other.
// Release segments compare numerically with zero-padding, so 1.2 == 1.2.0.
func (v Version) Compare(other Version) int {
	if v.epoch != other.epoch {
		return cmp(v.epoch, other.epoch)
	}

	n := max(len(v.release), len(other.release))
	for i := range n {
		a, b := 0, 0
		if i < len(v.release) {
			a = v.release[i]
		}
		if i < len(other.release) {
			b = other.release[i]
		}
		if a != b {
			return cmp(a, b)
		}
	}

	if v.suffix != other.suffix {
		return cmp(v.suffix, other.suffix)
	}
	return cmp(v.suffixN, other.suffixN)
}

// IsPrerelease reports whether the version is a dev, alpha, beta, or rc
// release.
func (v Version) IsPrerelease() bool { return v.suffix < 0 }

func cmp(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// clauseRE matches one specifier clause: an operator and a version.
var clauseRE = regexp.MustCompile(`^(===|==|!=|<=|>=|~=|<|>)\s*(\S+)$`)

// splitClause splits one specifier clause into its operator and version
// operand. The regex alone would accept degenerate clauses like ">=" by
// reading the trailing "=" as the operand, so operands starting with a
// comparison character are rejected here.
func splitClause(clause string) (op, version string, err error) {
	m := clauseRE.FindStringSubmatch(clause)
	if m == nil || strings.ContainsAny(m[2][:1], "=<>~!") {
		return "", "", errors.New(errors.ErrCodeParse, "invalid specifier clause: %q", clause)
	}
	return m[1], m[2], nil
}

// MatchSpecifier reports whether version satisfies the comma-separated
// specifier expression (e.g. ">=2.0,<3,!=2.4.1"). An empty specifier
// matches every version.
func MatchSpecifier(specifier, version string) (bool, error) {
	v, err := ParseVersion(version)
	if err != nil {
		return false, err
	}

	specifier = strings.TrimSpace(specifier)
	if specifier == "" {
		return true, nil
	}

	for _, clause := range strings.Split(specifier, ",") {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		ok, err := matchClause(clause, v, version)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// SpecifierHasPrerelease reports whether any clause of the specifier
// names a prerelease version. Such a specifier opts the requirement in
// to prerelease candidates.
func SpecifierHasPrerelease(specifier string) bool {
	for _, clause := range strings.Split(specifier, ",") {
		_, want, err := splitClause(strings.TrimSpace(clause))
		if err != nil {
			continue
		}
		if v, err := ParseVersion(strings.TrimSuffix(want, ".*")); err == nil && v.IsPrerelease() {
			return true
		}
	}
	return false
}

func matchClause(clause string, v Version, raw string) (bool, error) {
	op, want, err := splitClause(clause)
	if err != nil {
		return false, err
	}

	// Prefix match: ==2.1.* matches any 2.1.x release.
	if strings.HasSuffix(want, ".*") && (op == "==" || op == "!=") {
		prefix := strings.TrimSuffix(want, ".*")
		matched := raw == prefix || strings.HasPrefix(raw, prefix+".")
		if op == "!=" {
			matched = !matched
		}
		return matched, nil
	}

	// Arbitrary equality compares strings verbatim.
	if op == "===" {
		return raw == want, nil
	}

	w, err := ParseVersion(want)
	if err != nil {
		return false, err
	}

	switch op {
	case "==":
		return v.Compare(w) == 0, nil
	case "!=":
		return v.Compare(w) != 0, nil
	case "<=":
		return v.Compare(w) <= 0, nil
	case ">=":
		return v.Compare(w) >= 0, nil
	case "<":
		return v.Compare(w) < 0, nil
	case ">":
		return v.Compare(w) > 0, nil
	case "~=":
		// Compatible release: ~=2.2 means >=2.2, ==2.*
		if v.Compare(w) < 0 {
			return false, nil
		}
		if len(w.release) < 2 {
			return false, errors.New(errors.ErrCodeParse, "~= requires at least two release segments: %q", clause)
		}
		for i := range len(w.release) - 1 {
			seg := 0
			if i < len(v.release) {
				seg = v.release[i]
			}
			if seg != w.release[i] {
				return false, nil
			}
		}
		return true, nil
	}
	return false, errors.New(errors.ErrCodeParse, "unsupported operator: %q", op)
}

// ValidateSpecifier checks that every clause of a specifier expression is
// well-formed without evaluating it against a version.
func ValidateSpecifier(specifier string) error {
	specifier = strings.TrimSpace(specifier)
	if specifier == "" {
		return nil
	}
	for _, clause := range strings.Split(specifier, ",") {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		op, want, err := splitClause(clause)
		if err != nil {
			return err
		}
		if op == "===" {
			continue // arbitrary equality takes any operand
		}
		if strings.HasSuffix(want, ".*") {
			if op != "==" && op != "!=" {
				return errors.New(errors.ErrCodeParse, "prefix match needs == or !=: %q", clause)
			}
			want = strings.TrimSuffix(want, ".*")
		}
		if _, err := ParseVersion(want); err != nil {
			return errors.New(errors.ErrCodeParse, "invalid specifier clause: %q", clause)
		}
	}
	return nil
}
