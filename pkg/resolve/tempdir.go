package resolve

import (
	"os"

	"github.com/matzehuels/reqsolve/pkg/errors"
)

// BuildDir is the run's temporary build area. It is removed when the
// run ends unless the run was started with --no-clean.
type BuildDir struct {
	path string
	keep bool
}

// NewBuildDir creates a fresh build directory. With keep set, Close
// leaves the directory in place for inspection.
func NewBuildDir(keep bool) (*BuildDir, error) {
	path, err := os.MkdirTemp("", "reqsolve-build-")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResource, err, "create build directory")
	}
	return &BuildDir{path: path, keep: keep}, nil
}

// Path returns the build directory location.
func (b *BuildDir) Path() string { return b.path }

// Kept reports whether the directory survives Close.
func (b *BuildDir) Kept() bool { return b.keep }

// Close removes the directory unless it is kept.
func (b *BuildDir) Close() error {
	if b.keep {
		return nil
	}
	return os.RemoveAll(b.path)
}
