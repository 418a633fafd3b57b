package resolve

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/reqsolve/pkg/errors"
	"github.com/matzehuels/reqsolve/pkg/req"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

// wheelDir builds a find-links directory with one requests wheel and
// returns the directory and the wheel's sha256 digest.
func wheelDir(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	content := []byte("not a real wheel")
	if err := os.WriteFile(filepath.Join(dir, "requests-2.31.0-py3-none-any.whl"), content, 0644); err != nil {
		t.Fatal(err)
	}
	sum := sha256.Sum256(content)
	return dir, hex.EncodeToString(sum[:])
}

func TestRunResolvesFromFindLinks(t *testing.T) {
	dir, _ := wheelDir(t)
	opts := &Options{
		Version:   "test",
		NoIndex:   true,
		FindLinks: []string{dir},
		Logger:    quietLogger(),
	}

	run, err := NewOrchestrator(opts).Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer run.Close()

	reqs := []req.Requirement{mustReq(t, "requests>=2.0")}
	set, err := run.Resolve(context.Background(), reqs, DerivePolicy(reqs, opts))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if set.Len() != 1 {
		t.Fatalf("Len = %d, want 1", set.Len())
	}
	entry := set.Get("requests")
	if entry == nil || entry.Version.String() != "2.31.0" {
		t.Fatalf("entry = %+v", entry)
	}
	if entry.Link.ComesFrom != dir {
		t.Errorf("ComesFrom = %q, want %q", entry.Link.ComesFrom, dir)
	}
}

func TestRunVerifiesHashes(t *testing.T) {
	dir, digest := wheelDir(t)
	opts := &Options{
		Version:   "test",
		NoIndex:   true,
		FindLinks: []string{dir},
		Logger:    quietLogger(),
	}

	run, err := NewOrchestrator(opts).Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer run.Close()

	good := mustReq(t, "requests==2.31.0")
	good.Hashes = map[string][]string{"sha256": {digest}}
	reqs := []req.Requirement{good}
	if _, err := run.Resolve(context.Background(), reqs, DerivePolicy(reqs, opts)); err != nil {
		t.Fatalf("Resolve with matching hash: %v", err)
	}

	bad := mustReq(t, "requests==2.31.0")
	bad.Hashes = map[string][]string{"sha256": {"0000000000000000000000000000000000000000000000000000000000000000"}}
	reqs = []req.Requirement{bad}
	_, err = run.Resolve(context.Background(), reqs, DerivePolicy(reqs, opts))
	if !errors.Is(err, errors.ErrCodeHashMismatch) {
		t.Errorf("Resolve with wrong hash = %v, want HASH_MISMATCH", err)
	}
}

func TestRunTargetSkipsWheelTagChecks(t *testing.T) {
	// A cp27 wheel is unsupported on any machine this runs on; only a
	// --target resolution, which skips tag checks, can pick it.
	dir := t.TempDir()
	wheel := "legacy-1.0-cp27-cp27m-manylinux1_x86_64.whl"
	if err := os.WriteFile(filepath.Join(dir, wheel), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	run := func(target string) error {
		opts := &Options{
			Version:   "test",
			NoIndex:   true,
			FindLinks: []string{dir},
			Target:    target,
			Logger:    quietLogger(),
		}
		r, err := NewOrchestrator(opts).Begin(context.Background())
		if err != nil {
			t.Fatalf("Begin: %v", err)
		}
		defer r.Close()
		reqs := []req.Requirement{mustReq(t, "legacy")}
		_, err = r.Resolve(context.Background(), reqs, DerivePolicy(reqs, opts))
		return err
	}

	if err := run(""); !errors.Is(err, errors.ErrCodePackageNotFound) {
		t.Errorf("resolve for this machine = %v, want PACKAGE_NOT_FOUND", err)
	}
	if err := run(t.TempDir()); err != nil {
		t.Errorf("resolve for --target: %v", err)
	}
}

func TestDependencyProviderFollowsFinderNoIndex(t *testing.T) {
	opts := &Options{Version: "test", Logger: quietLogger()}
	run, err := NewOrchestrator(opts).Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer run.Close()

	if run.dependencyProvider() == nil {
		t.Fatal("provider should exist while the index is enabled")
	}

	// An option line inside a requirement file disables the index on
	// the finder after Begin; the provider must follow.
	run.Finder.SetNoIndex(true)
	if run.dependencyProvider() != nil {
		t.Error("provider should be nil once the finder goes no-index")
	}
}

func TestRunResolveFailurePropagates(t *testing.T) {
	opts := &Options{
		Version:   "test",
		NoIndex:   true,
		FindLinks: []string{t.TempDir()},
		Logger:    quietLogger(),
	}

	run, err := NewOrchestrator(opts).Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer run.Close()

	reqs := []req.Requirement{mustReq(t, "absent-pkg")}
	_, err = run.Resolve(context.Background(), reqs, DerivePolicy(reqs, opts))
	if !errors.Is(err, errors.ErrCodePackageNotFound) {
		t.Errorf("Resolve = %v, want PACKAGE_NOT_FOUND", err)
	}
}

func TestTrackerCycleDetection(t *testing.T) {
	tr, err := NewTracker()
	if err != nil {
		t.Fatal(err)
	}
	defer tr.Close()

	if tr.ID() == "" {
		t.Error("tracker has no run ID")
	}
	if err := tr.Enter("flask"); err != nil {
		t.Fatalf("first Enter: %v", err)
	}
	if err := tr.Enter("Flask"); !errors.Is(err, errors.ErrCodeResolution) {
		t.Errorf("re-Enter = %v, want RESOLUTION_ERROR", err)
	}
	tr.Exit("flask")
	if err := tr.Enter("flask"); err != nil {
		t.Errorf("Enter after Exit: %v", err)
	}
}

func TestBuildDirLifecycle(t *testing.T) {
	b, err := NewBuildDir(false)
	if err != nil {
		t.Fatal(err)
	}
	path := b.Path()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("build dir missing: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("build dir should be removed on Close")
	}

	kept, err := NewBuildDir(true)
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(kept.Path())
	if err := kept.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(kept.Path()); err != nil {
		t.Error("kept build dir should survive Close")
	}
}

func mustReq(t *testing.T, spec string) req.Requirement {
	t.Helper()
	r, err := req.FromSpecifier(spec, req.ParseContext{})
	if err != nil {
		t.Fatal(err)
	}
	return r
}
