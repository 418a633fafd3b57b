package req

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/reqsolve/pkg/errors"
)

func newAggregator() *Aggregator {
	return &Aggregator{Parser: &LineParser{}, Command: "resolve"}
}

func TestAggregatePreservesSourceOrder(t *testing.T) {
	dir := t.TempDir()
	constraints := writeFile(t, dir, "constraints.txt", "urllib3<2\ncertifi>=2022\n")
	reqfile := writeFile(t, dir, "requirements.txt", "flask==2.0\njinja2\n")

	tree := filepath.Join(dir, "local-pkg")
	if err := os.MkdirAll(tree, 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, tree, "pyproject.toml", "[project]\nname = \"local-pkg\"\n")

	a := newAggregator()
	reqs, err := a.Aggregate(Inputs{
		Args:             []string{"requests>=2.0", "click"},
		ConstraintFiles:  []string{constraints},
		Editables:        []string{tree},
		RequirementFiles: []string{reqfile},
	})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	var names []string
	for _, r := range reqs {
		names = append(names, r.Name)
	}
	want := []string{"urllib3", "certifi", "requests", "click", "local-pkg", "flask", "jinja2"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("order = %v, want %v", names, want)
	}

	// Constraint records are constraint-only and never user-supplied.
	for _, r := range reqs[:2] {
		if !r.ConstraintOnly || r.UserSupplied {
			t.Errorf("%s: ConstraintOnly=%v UserSupplied=%v, want true/false", r.Name, r.ConstraintOnly, r.UserSupplied)
		}
	}
	// Everything else is user-supplied and not constraint-only.
	for _, r := range reqs[2:] {
		if r.ConstraintOnly || !r.UserSupplied {
			t.Errorf("%s: ConstraintOnly=%v UserSupplied=%v, want false/true", r.Name, r.ConstraintOnly, r.UserSupplied)
		}
	}
	// The editable record is editable and not constraint-only.
	if !reqs[4].Editable || reqs[4].ConstraintOnly {
		t.Errorf("editable record = %+v", reqs[4])
	}
}

func TestAggregateConstraintsAloneAreEmptyInput(t *testing.T) {
	dir := t.TempDir()
	constraints := writeFile(t, dir, "constraints.txt", "urllib3<2\n")

	a := newAggregator()
	_, err := a.Aggregate(Inputs{ConstraintFiles: []string{constraints}})
	if !errors.Is(err, errors.ErrCodeEmptyInput) {
		t.Fatalf("Aggregate = %v, want EMPTY_INPUT", err)
	}
}

func TestAggregateEmptyRequirementFileIsNotEmptyInput(t *testing.T) {
	dir := t.TempDir()
	reqfile := writeFile(t, dir, "requirements.txt", "# nothing yet\n")

	a := newAggregator()
	reqs, err := a.Aggregate(Inputs{RequirementFiles: []string{reqfile}})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(reqs) != 0 {
		t.Errorf("len(reqs) = %d, want 0", len(reqs))
	}
}

func TestEmptyInputMessageVariants(t *testing.T) {
	t.Run("with find-links", func(t *testing.T) {
		a := newAggregator()
		a.FindLinks = []string{"./wheels", "https://wheels.example"}

		_, err := a.Aggregate(Inputs{})
		if !errors.Is(err, errors.ErrCodeEmptyInput) {
			t.Fatalf("Aggregate = %v, want EMPTY_INPUT", err)
		}
		msg := errors.UserMessage(err)
		want := `maybe you meant "reqsolve resolve ./wheels https://wheels.example"?`
		if !strings.Contains(msg, want) {
			t.Errorf("message %q should contain %q", msg, want)
		}
	})

	t.Run("without find-links", func(t *testing.T) {
		a := newAggregator()

		_, err := a.Aggregate(Inputs{})
		if !errors.Is(err, errors.ErrCodeEmptyInput) {
			t.Fatalf("Aggregate = %v, want EMPTY_INPUT", err)
		}
		msg := errors.UserMessage(err)
		if !strings.Contains(msg, `see "reqsolve help resolve"`) {
			t.Errorf("message %q should point at command help", msg)
		}
	})
}

func TestAggregateParseErrorAborts(t *testing.T) {
	dir := t.TempDir()
	reqfile := writeFile(t, dir, "requirements.txt", "flask==2.0\n===broken===\nrequests\n")

	a := newAggregator()
	_, err := a.Aggregate(Inputs{RequirementFiles: []string{reqfile}})
	if !errors.Is(err, errors.ErrCodeParse) {
		t.Fatalf("Aggregate = %v, want PARSE_ERROR", err)
	}
	if !strings.Contains(errors.UserMessage(err), "line 2") {
		t.Errorf("error %q should name the offending line", errors.UserMessage(err))
	}
}

func TestFromConstraintLineRejectsEditableAndExtras(t *testing.T) {
	if _, err := FromConstraintLine(ParsedLine{
		Filename: "c.txt", LineNo: 1, Requirement: "./tree", Editable: true,
	}, ParseContext{}); !errors.Is(err, errors.ErrCodeParse) {
		t.Errorf("editable constraint = %v, want PARSE_ERROR", err)
	}

	if _, err := FromConstraintLine(ParsedLine{
		Filename: "c.txt", LineNo: 2, Requirement: "requests[socks]",
	}, ParseContext{}); !errors.Is(err, errors.ErrCodeParse) {
		t.Errorf("constraint with extras = %v, want PARSE_ERROR", err)
	}
}

func TestFromSpecifierBuildIsolation(t *testing.T) {
	r, err := FromSpecifier("requests", ParseContext{UsePEP517: true})
	if err != nil {
		t.Fatalf("FromSpecifier: %v", err)
	}
	if !r.BuildIsolation {
		t.Error("BuildIsolation should follow the PEP 517 flag")
	}
}

func TestFromEditableReadsProjectName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pyproject.toml", "[tool.poetry]\nname = \"My_Tool\"\n")

	r, err := FromEditable(dir, ParseContext{})
	if err != nil {
		t.Fatalf("FromEditable: %v", err)
	}
	if r.Name != "my-tool" {
		t.Errorf("Name = %q, want %q", r.Name, "my-tool")
	}
	if !r.Editable || r.ConstraintOnly {
		t.Errorf("flags = editable:%v constraintOnly:%v", r.Editable, r.ConstraintOnly)
	}
}

func TestFromEditableEggFragment(t *testing.T) {
	dir := t.TempDir()

	r, err := FromEditable(dir+"#egg=My_Pkg", ParseContext{})
	if err != nil {
		t.Fatalf("FromEditable: %v", err)
	}
	if r.Name != "my-pkg" {
		t.Errorf("Name = %q, want %q", r.Name, "my-pkg")
	}
}

func TestFromEditableRejectsMissingTree(t *testing.T) {
	if _, err := FromEditable(filepath.Join(t.TempDir(), "nope"), ParseContext{}); !errors.Is(err, errors.ErrCodeParse) {
		t.Errorf("FromEditable = %v, want PARSE_ERROR", err)
	}
}
