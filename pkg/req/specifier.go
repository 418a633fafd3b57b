package req

import (
	"regexp"
	"strings"

	"github.com/matzehuels/reqsolve/pkg/errors"
)

// parsedSpec is the decomposition of one PEP 508-style requirement string.
type parsedSpec struct {
	Name      string
	Extras    []string
	Specifier string
	URL       string
	Marker    string
}

var (
	specNameRE   = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]*)`)
	specExtrasRE = regexp.MustCompile(`^\[([^\]]*)\]`)
)

// parseSpecifier parses strings like:
//
//	requests
//	requests[socks]>=2.0,<3
//	pip @ https://github.com/pypa/pip/archive/22.0.zip
//	urllib3>=1.26 ; python_version >= "3.7"
func parseSpecifier(s string) (parsedSpec, error) {
	var p parsedSpec
	orig := s
	s = strings.TrimSpace(s)
	if s == "" {
		return p, errors.New(errors.ErrCodeParse, "empty requirement specifier")
	}

	// Environment marker after ";". Kept verbatim; evaluation happens at
	// install time, not during collection.
	if i := strings.Index(s, ";"); i >= 0 {
		p.Marker = strings.TrimSpace(s[i+1:])
		s = strings.TrimSpace(s[:i])
	}

	// Direct reference: name [extras] @ url
	if i := strings.Index(s, "@"); i >= 0 && !strings.ContainsAny(s[:i], "<>=!~") {
		p.URL = strings.TrimSpace(s[i+1:])
		if strings.ContainsAny(p.URL, " \t") {
			return p, errors.New(errors.ErrCodeParse, "invalid direct reference in %q", orig)
		}
		if err := errors.ValidateURL(p.URL); err != nil && !strings.HasPrefix(p.URL, "file://") {
			return p, errors.New(errors.ErrCodeParse, "invalid direct reference in %q", orig)
		}
		s = strings.TrimSpace(s[:i])
	}

	m := specNameRE.FindString(s)
	if m == "" {
		return p, errors.New(errors.ErrCodeParse, "invalid requirement specifier: %q", orig)
	}
	if err := errors.ValidatePythonPackageName(m); err != nil {
		return p, err
	}
	p.Name = NormalizeName(m)
	s = strings.TrimSpace(s[len(m):])

	if em := specExtrasRE.FindStringSubmatch(s); em != nil {
		for _, e := range strings.Split(em[1], ",") {
			if e = strings.TrimSpace(e); e != "" {
				p.Extras = append(p.Extras, NormalizeName(e))
			}
		}
		s = strings.TrimSpace(s[len(em[0]):])
	}

	if p.URL != "" {
		if s != "" {
			return p, errors.New(errors.ErrCodeParse, "version specifier not allowed with direct reference: %q", orig)
		}
		return p, nil
	}

	// Remainder is the version constraint expression. Parenthesized
	// specifiers ("requests (>=2.0)") are accepted per PEP 508.
	s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	s = strings.TrimSpace(s)
	if s != "" {
		if err := ValidateSpecifier(s); err != nil {
			return p, errors.Wrap(errors.ErrCodeParse, err, "in requirement %q", orig)
		}
		p.Specifier = stripSpaces(s)
	}
	return p, nil
}

// stripSpaces removes whitespace inside a specifier expression so
// ">= 2.0, < 3" renders canonically as ">=2.0,<3".
func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, s)
}
