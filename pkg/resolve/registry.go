package resolve

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/reqsolve/pkg/errors"
	"github.com/matzehuels/reqsolve/pkg/req"
)

// RegistryResolver resolves requirements against a candidate finder,
// breadth-first, first requirement per name wins.
//
// Constraint-only requirements never produce entries; their specifiers
// and hash options are merged into the matching named requirement when
// it is resolved. Dependencies discovered through the provider are
// appended to the walk with their parent recorded as provenance.
type RegistryResolver struct {
	Finder   Finder
	Preparer Preparer

	// Deps is optional; without it the walk stays shallow and only the
	// aggregated requirements themselves are pinned.
	Deps DependencyProvider

	Policy Policy
	Logger *log.Logger
}

type workItem struct {
	req      req.Requirement
	cameFrom string
}

// Resolve pins every requirement and, when a dependency provider is
// configured, every transitive runtime dependency.
func (r *RegistryResolver) Resolve(ctx context.Context, reqs []req.Requirement) (*ResolvedSet, error) {
	constraints := make(map[string]req.Requirement)
	var queue []workItem
	for _, rq := range reqs {
		if rq.ConstraintOnly {
			mergeConstraint(constraints, rq)
			continue
		}
		queue = append(queue, workItem{req: rq})
	}

	set := NewResolvedSet()
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		w := queue[0]
		queue = queue[1:]

		name := req.NormalizeName(w.req.Name)
		if name == "" {
			return nil, errors.New(errors.ErrCodeResolution, "requirement from %s has no project name", w.req.Source)
		}
		if set.Has(name) {
			continue
		}

		rq := w.req
		if c, ok := constraints[name]; ok {
			rq.Specifier = mergeSpecifiers(rq.Specifier, c.Specifier)
			if !rq.HasHashOptions() {
				rq.Hashes = c.Hashes
			}
		}

		if r.Policy.RequireHashes && !rq.HasHashOptions() {
			return nil, errors.New(errors.ErrCodeHashMissing,
				"hashes are required in hash-checking mode, but they are missing from %s (from %s)",
				rq.Name, rq.Source)
		}

		candidate, err := r.Finder.FindBest(ctx, name, rq.Specifier)
		if err != nil {
			return nil, err
		}
		if r.Preparer != nil {
			if err := r.Preparer.Prepare(ctx, rq, candidate); err != nil {
				return nil, err
			}
		}

		rq.Name = name
		set.Add(ResolvedEntry{
			Requirement: rq,
			Version:     candidate.Version,
			Link:        candidate.Link,
			CameFrom:    w.cameFrom,
		})
		if r.Logger != nil {
			r.Logger.Debug("pinned requirement", "name", name, "version", candidate.Version.String(), "file", candidate.Link.Filename)
		}

		if r.Deps == nil {
			continue
		}
		deps, err := r.Deps.Dependencies(ctx, name, candidate.Version.String())
		if err != nil {
			return nil, err
		}
		for _, spec := range deps {
			dep, err := req.FromDependency(spec, name)
			if err != nil {
				// Registries carry the occasional malformed requires
				// entry; skip it rather than failing the whole run.
				if r.Logger != nil {
					r.Logger.Warn("skipping unparsable dependency", "of", name, "entry", spec, "err", err)
				}
				continue
			}
			queue = append(queue, workItem{req: dep, cameFrom: name})
		}
	}
	return set, nil
}

// mergeConstraint folds rq into the per-name constraint table,
// concatenating specifiers and uniting hash options.
func mergeConstraint(constraints map[string]req.Requirement, rq req.Requirement) {
	name := req.NormalizeName(rq.Name)
	c, ok := constraints[name]
	if !ok {
		constraints[name] = rq
		return
	}
	c.Specifier = mergeSpecifiers(c.Specifier, rq.Specifier)
	if c.Hashes == nil {
		c.Hashes = rq.Hashes
	} else {
		for alg, digests := range rq.Hashes {
			c.Hashes[alg] = append(c.Hashes[alg], digests...)
		}
	}
	constraints[name] = c
}

func mergeSpecifiers(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + "," + b
	}
}
