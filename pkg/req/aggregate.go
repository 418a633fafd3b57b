package req

import (
	"strings"

	"github.com/matzehuels/reqsolve/pkg/errors"
)

// Inputs are the raw requirement sources of one run, exactly as given on
// the command line.
type Inputs struct {
	Args             []string // positional requirement specifiers
	ConstraintFiles  []string // --constraint paths
	Editables        []string // --editable specifiers
	RequirementFiles []string // --requirement paths
}

// Aggregator turns the four requirement source kinds into one ordered
// requirement list.
//
// Aggregation order is fixed: constraint files first, then positional
// specifiers, then editables, then requirement files; within a file,
// line order. Resolvers may apply first-wins or last-wins policies on
// duplicate names, so the order is part of the contract and is never
// reshuffled here.
type Aggregator struct {
	Parser  *LineParser
	Context ParseContext

	// Command is the subcommand name used in empty-input messages.
	Command string

	// FindLinks mirrors the run's find-links configuration; when the user
	// supplied locations but no requirements, the error suggests passing
	// the locations as requirements instead.
	FindLinks []string
}

// Aggregate parses every source into requirement records, preserving
// source order.
//
// It fails with an EMPTY_INPUT error when no positional specifiers, no
// editables, and no requirement files were supplied. Constraint files
// alone never make a run actionable: constraints limit versions but do
// not request anything, so a constraints-only invocation is still empty
// input regardless of what the files contain.
func (a *Aggregator) Aggregate(in Inputs) ([]Requirement, error) {
	var reqs []Requirement

	for _, path := range in.ConstraintFiles {
		lines, err := a.Parser.Parse(path, true)
		if err != nil {
			return nil, err
		}
		for _, line := range lines {
			r, err := FromConstraintLine(line, a.Context)
			if err != nil {
				return nil, err
			}
			reqs = append(reqs, r)
		}
	}

	for _, spec := range in.Args {
		r, err := FromSpecifier(spec, a.Context)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, r)
	}

	for _, spec := range in.Editables {
		r, err := FromEditable(spec, a.Context)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, r)
	}

	for _, path := range in.RequirementFiles {
		lines, err := a.Parser.Parse(path, false)
		if err != nil {
			return nil, err
		}
		for _, line := range lines {
			r, err := FromLine(line, a.Context)
			if err != nil {
				return nil, err
			}
			reqs = append(reqs, r)
		}
	}

	if len(in.Args) == 0 && len(in.Editables) == 0 && len(in.RequirementFiles) == 0 {
		return nil, a.emptyInputError()
	}
	return reqs, nil
}

// emptyInputError builds the two-variant empty-input failure. With
// find-links configured, the likely mistake is passing locations via
// --find-links instead of as requirements, so the message suggests the
// direct form; otherwise it points at the command help.
func (a *Aggregator) emptyInputError() error {
	name := a.Command
	if name == "" {
		name = "resolve"
	}
	if len(a.FindLinks) > 0 {
		return errors.New(errors.ErrCodeEmptyInput,
			"You must give at least one requirement to %s (maybe you meant \"reqsolve %s %s\"?)",
			name, name, strings.Join(a.FindLinks, " "))
	}
	return errors.New(errors.ErrCodeEmptyInput,
		"You must give at least one requirement to %s (see \"reqsolve help %s\")", name, name)
}
