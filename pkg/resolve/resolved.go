package resolve

import (
	"github.com/matzehuels/reqsolve/pkg/index"
	"github.com/matzehuels/reqsolve/pkg/req"
)

// ResolvedEntry is one pinned requirement: the requirement record, the
// release version chosen for it, and the distribution file providing
// that release.
type ResolvedEntry struct {
	Requirement req.Requirement
	Version     req.Version
	Link        index.Link

	// CameFrom names the resolved requirement that declared this one as
	// a dependency; empty for user-supplied roots. It is a name, not a
	// pointer: provenance lookups go through the owning set, so entries
	// stay plain values.
	CameFrom string
}

// ResolvedSet is the ordered outcome of a resolution. Entries keep the
// order they were pinned in; one entry per normalized name.
type ResolvedSet struct {
	order  []string
	byName map[string]*ResolvedEntry
}

// NewResolvedSet creates an empty set.
func NewResolvedSet() *ResolvedSet {
	return &ResolvedSet{byName: make(map[string]*ResolvedEntry)}
}

// Add pins e under its requirement name. Adding a name twice is a
// no-op; the first pin wins.
func (s *ResolvedSet) Add(e ResolvedEntry) {
	name := req.NormalizeName(e.Requirement.Name)
	if _, ok := s.byName[name]; ok {
		return
	}
	s.byName[name] = &e
	s.order = append(s.order, name)
}

// Has reports whether name is already pinned.
func (s *ResolvedSet) Has(name string) bool {
	_, ok := s.byName[req.NormalizeName(name)]
	return ok
}

// Get returns the entry pinned under name, or nil.
func (s *ResolvedSet) Get(name string) *ResolvedEntry {
	return s.byName[req.NormalizeName(name)]
}

// All returns the entries in pin order.
func (s *ResolvedSet) All() []*ResolvedEntry {
	out := make([]*ResolvedEntry, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.byName[name])
	}
	return out
}

// Len returns the number of pinned entries.
func (s *ResolvedSet) Len() int { return len(s.order) }
