package req

import (
	"fmt"

	"github.com/matzehuels/reqsolve/pkg/errors"
)

// ParseContext carries the cross-cutting parsing flags shared by every
// requirement source of one run.
type ParseContext struct {
	// Isolated disables per-user configuration influence during parsing.
	Isolated bool

	// UsePEP517 forces PEP 517 build isolation for source builds.
	UsePEP517 bool
}

// FromSpecifier parses a raw command-line specifier into a user-supplied
// requirement.
func FromSpecifier(spec string, ctx ParseContext) (Requirement, error) {
	p, err := parseSpecifier(spec)
	if err != nil {
		return Requirement{}, err
	}
	return Requirement{
		Name:           p.Name,
		Extras:         p.Extras,
		Specifier:      p.Specifier,
		URL:            p.URL,
		Marker:         p.Marker,
		UserSupplied:   true,
		BuildIsolation: ctx.UsePEP517,
		Source:         "command line",
	}, nil
}

// FromEditable parses an editable specifier (a local source tree path,
// optionally with an #egg= name) into a user-supplied requirement.
// Editable requirements are never constraint-only.
func FromEditable(spec string, ctx ParseContext) (Requirement, error) {
	path, name, err := parseEditablePath(spec)
	if err != nil {
		return Requirement{}, err
	}
	if name == "" {
		name = projectNameFromTree(path)
	}
	return Requirement{
		Name:           name,
		Path:           path,
		URL:            "file://" + path,
		Editable:       true,
		UserSupplied:   true,
		BuildIsolation: ctx.UsePEP517,
		Source:         "command line",
	}, nil
}

// FromLine converts a requirement-file line into a user-supplied
// requirement, carrying the line's hash options.
func FromLine(line ParsedLine, ctx ParseContext) (Requirement, error) {
	if line.Editable {
		r, err := FromEditable(line.Requirement, ctx)
		if err != nil {
			return Requirement{}, wrapLineErr(line, err)
		}
		r.Source = line.origin()
		return r, nil
	}

	p, err := parseSpecifier(line.Requirement)
	if err != nil {
		return Requirement{}, wrapLineErr(line, err)
	}
	return Requirement{
		Name:           p.Name,
		Extras:         p.Extras,
		Specifier:      p.Specifier,
		URL:            p.URL,
		Marker:         p.Marker,
		UserSupplied:   true,
		Hashes:         line.Hashes,
		BuildIsolation: ctx.UsePEP517,
		Source:         line.origin(),
	}, nil
}

// FromDependency parses a dependency declaration discovered during
// resolution (a requires entry of an already-chosen release). The result
// is neither user-supplied nor constraint-only; parent names the
// requirement that declared it.
func FromDependency(spec, parent string) (Requirement, error) {
	p, err := parseSpecifier(spec)
	if err != nil {
		return Requirement{}, err
	}
	return Requirement{
		Name:      p.Name,
		Extras:    p.Extras,
		Specifier: p.Specifier,
		URL:       p.URL,
		Marker:    p.Marker,
		Source:    parent,
	}, nil
}

// FromConstraintLine converts a constraint-file line into a
// constraint-only requirement. Constraints limit acceptable versions
// without triggering installation, so they are never user-supplied, and
// they must name a project rather than point at a tree or URL.
func FromConstraintLine(line ParsedLine, ctx ParseContext) (Requirement, error) {
	if line.Editable {
		return Requirement{}, wrapLineErr(line,
			errors.New(errors.ErrCodeParse, "editable requirements are not allowed as constraints"))
	}

	p, err := parseSpecifier(line.Requirement)
	if err != nil {
		return Requirement{}, wrapLineErr(line, err)
	}
	if len(p.Extras) > 0 {
		return Requirement{}, wrapLineErr(line,
			errors.New(errors.ErrCodeParse, "constraints cannot have extras"))
	}
	return Requirement{
		Name:           p.Name,
		Specifier:      p.Specifier,
		URL:            p.URL,
		Marker:         p.Marker,
		ConstraintOnly: true,
		Hashes:         line.Hashes,
		BuildIsolation: ctx.UsePEP517,
		Source:         line.origin(),
	}, nil
}

func wrapLineErr(line ParsedLine, err error) error {
	if e, ok := err.(*errors.Error); ok {
		return errors.New(e.Code, "%s: %s", line.origin(), e.Message)
	}
	return errors.Wrap(errors.ErrCodeParse, err, "%s", line.origin())
}

func (l ParsedLine) origin() string {
	return fmt.Sprintf("%s (line %d)", l.Filename, l.LineNo)
}
