package resolve

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/matzehuels/reqsolve/pkg/errors"
	"github.com/matzehuels/reqsolve/pkg/req"
)

// Tracker guards against build cycles within one run. Every requirement
// being prepared is entered first; entering a requirement that is
// already in flight means its build recursed back into itself.
//
// Each tracker owns a scratch directory keyed by a fresh run ID, with
// one marker file per in-flight requirement, so concurrent runs never
// observe each other.
type Tracker struct {
	id       string
	dir      string
	inFlight map[string]bool
}

// NewTracker creates a tracker with a unique run ID and scratch
// directory.
func NewTracker() (*Tracker, error) {
	id := uuid.NewString()
	dir, err := os.MkdirTemp("", "reqsolve-track-"+id[:8]+"-")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResource, err, "create tracker directory")
	}
	return &Tracker{id: id, dir: dir, inFlight: make(map[string]bool)}, nil
}

// ID returns the run's unique identifier.
func (t *Tracker) ID() string { return t.id }

// Enter marks name as in flight. Returns a RESOLUTION_ERROR when the
// name is already being prepared.
func (t *Tracker) Enter(name string) error {
	name = req.NormalizeName(name)
	if t.inFlight[name] {
		return errors.New(errors.ErrCodeResolution, "build cycle detected while preparing %s", name)
	}
	t.inFlight[name] = true
	_ = os.WriteFile(filepath.Join(t.dir, name), nil, 0644)
	return nil
}

// Exit clears the in-flight mark for name.
func (t *Tracker) Exit(name string) {
	name = req.NormalizeName(name)
	delete(t.inFlight, name)
	_ = os.Remove(filepath.Join(t.dir, name))
}

// Close removes the tracker's scratch directory.
func (t *Tracker) Close() error {
	return os.RemoveAll(t.dir)
}
