package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/reqsolve/pkg/errors"
)

func testCLI() *CLI {
	c := New(io.Discard, LogInfo)
	c.Config = &Config{Cache: CacheConfig{Backend: "null"}}
	return c
}

func TestRootCommandStructure(t *testing.T) {
	root := testCLI().RootCommand()

	if root.Use != "reqsolve" {
		t.Errorf("Use = %q", root.Use)
	}
	want := map[string]bool{"resolve": false, "graph": false, "cache": false, "completion": false}
	for _, cmd := range root.Commands() {
		name := strings.Fields(cmd.Use)[0]
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestResolveCommandOffline(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "requests-2.31.0-py3-none-any.whl"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(t.TempDir(), "resolved.txt")

	root := testCLI().RootCommand()
	root.SetArgs([]string{"resolve", "--no-index", "-f", dir, "-o", out, "requests"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	if err := root.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)
	if !strings.Contains(got, "--- RESOLVED-BEGIN ---") || !strings.Contains(got, "--- RESOLVED-END ---") {
		t.Fatalf("missing sentinels:\n%s", got)
	}
	if !strings.Contains(got, "name: requests") {
		t.Errorf("missing entry:\n%s", got)
	}
	if !strings.Contains(got, "link.filename: requests-2.31.0-py3-none-any.whl") {
		t.Errorf("missing filename line:\n%s", got)
	}
}

func TestResolveCommandEmptyInput(t *testing.T) {
	root := testCLI().RootCommand()
	root.SetArgs([]string{"resolve"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	err := root.Execute()
	if err == nil {
		t.Fatal("expected an error for empty input")
	}
	if !strings.Contains(err.Error(), "at least one requirement") {
		t.Errorf("error = %v", err)
	}
}

func TestGraphCommandOffline(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "requests-2.31.0-py3-none-any.whl"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(t.TempDir(), "deps.dot")

	root := testCLI().RootCommand()
	root.SetArgs([]string{"graph", "--no-index", "-f", dir, "--format", "dot", "-o", out, "requests"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	if err := root.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "digraph resolved {") {
		t.Errorf("unexpected DOT output:\n%s", data)
	}
}

func TestPrintErrorRendersUserMessage(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	old := os.Stderr
	os.Stderr = w
	defer func() { os.Stderr = old }()

	PrintError(errors.New(errors.ErrCodeParse, "invalid specifier clause: %q", ">="))
	w.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), `invalid specifier clause: ">="`) {
		t.Errorf("stderr = %q, want the user message", out)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := LoadConfig()
	if cfg.Cache.Backend != "file" {
		t.Errorf("default backend = %q, want file", cfg.Cache.Backend)
	}
}
