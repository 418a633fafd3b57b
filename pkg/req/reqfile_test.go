package req

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/matzehuels/reqsolve/pkg/errors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLineParserBasics(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "requirements.txt", `
# toolchain
requests==2.28.1
urllib3>=1.26,<2  # pinned below 2

-e ./vendor/local-pkg
flask \
    >=2.0
`)

	p := &LineParser{}
	lines, err := p.Parse(path, false)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	var got []string
	for _, l := range lines {
		got = append(got, l.Requirement)
	}
	want := []string{"requests==2.28.1", "urllib3>=1.26,<2", "./vendor/local-pkg", "flask >=2.0"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("requirements = %v, want %v", got, want)
	}

	if !lines[2].Editable {
		t.Error("line 3 should be editable")
	}
	if lines[0].LineNo != 3 {
		t.Errorf("first requirement LineNo = %d, want 3", lines[0].LineNo)
	}
}

func TestLineParserTrailingContinuation(t *testing.T) {
	dir := t.TempDir()
	// No newline after the backslash: the accumulated text must still
	// come through instead of being dropped at EOF.
	path := writeFile(t, dir, "requirements.txt", "requests\\")

	p := &LineParser{}
	lines, err := p.Parse(path, false)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(lines) != 1 || lines[0].Requirement != "requests" {
		t.Errorf("lines = %+v, want single requests entry", lines)
	}
}

func TestLineParserHashOptions(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "requirements.txt",
		"requests==2.28.1 --hash=sha256:abc123 --hash=sha256:def456 --hash=sha512:0099\n")

	p := &LineParser{}
	lines, err := p.Parse(path, false)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("len(lines) = %d, want 1", len(lines))
	}

	want := map[string][]string{
		"sha256": {"abc123", "def456"},
		"sha512": {"0099"},
	}
	if !reflect.DeepEqual(lines[0].Hashes, want) {
		t.Errorf("Hashes = %v, want %v", lines[0].Hashes, want)
	}
}

func TestLineParserRejectsMalformedHash(t *testing.T) {
	dir := t.TempDir()

	for name, content := range map[string]string{
		"missing digest":  "requests --hash=sha256\n",
		"unsupported alg": "requests --hash=md5:abc\n",
	} {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, dir, "r.txt", content)
			_, err := (&LineParser{}).Parse(path, false)
			if !errors.Is(err, errors.ErrCodeParse) {
				t.Errorf("Parse = %v, want PARSE_ERROR", err)
			}
		})
	}
}

func TestLineParserNestedIncludes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.txt", "flask==2.0\n")
	writeFile(t, dir, "constraints.txt", "werkzeug<3\n")
	path := writeFile(t, dir, "requirements.txt", "-r base.txt\n-c constraints.txt\nrequests\n")

	lines, err := (&LineParser{}).Parse(path, false)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if len(lines) != 3 {
		t.Fatalf("len(lines) = %d, want 3", len(lines))
	}
	if lines[0].Requirement != "flask==2.0" || lines[0].Constraint {
		t.Errorf("line 0 = %+v, want non-constraint flask==2.0", lines[0])
	}
	if lines[1].Requirement != "werkzeug<3" || !lines[1].Constraint {
		t.Errorf("line 1 = %+v, want constraint werkzeug<3", lines[1])
	}
}

func TestLineParserCircularInclude(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	writeFile(t, dir, "a.txt", "-r b.txt\n")
	writeFile(t, dir, "b.txt", "-r a.txt\n")

	_, err := (&LineParser{}).Parse(a, false)
	if !errors.Is(err, errors.ErrCodeParse) {
		t.Errorf("Parse = %v, want PARSE_ERROR for circular include", err)
	}
}

func TestLineParserMissingFile(t *testing.T) {
	_, err := (&LineParser{}).Parse(filepath.Join(t.TempDir(), "nope.txt"), false)
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Parse = %v, want FILE_NOT_FOUND", err)
	}
}

func TestLineParserEnvExpansion(t *testing.T) {
	t.Setenv("REQ_VERSION", "2.28.1")
	dir := t.TempDir()
	path := writeFile(t, dir, "r.txt", "requests==${REQ_VERSION}\n")

	lines, err := (&LineParser{}).Parse(path, false)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if lines[0].Requirement != "requests==2.28.1" {
		t.Errorf("Requirement = %q, want expanded version", lines[0].Requirement)
	}
}

// indexOptionsRecorder records index options applied by the parser.
type indexOptionsRecorder struct {
	indexURL  string
	findLinks []string
	noIndex   bool
}

func (r *indexOptionsRecorder) SetIndexURL(u string)    { r.indexURL = u }
func (r *indexOptionsRecorder) AddFindLinks(l string)   { r.findLinks = append(r.findLinks, l) }
func (r *indexOptionsRecorder) SetNoIndex(noIndex bool) { r.noIndex = noIndex }

func TestLineParserAppliesIndexOptions(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "r.txt", `
--index-url https://mirror.example/simple
-f ./wheels
--no-index
requests
`)

	rec := &indexOptionsRecorder{}
	lines, err := (&LineParser{Finder: rec}).Parse(path, false)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("len(lines) = %d, want 1", len(lines))
	}
	if rec.indexURL != "https://mirror.example/simple" {
		t.Errorf("indexURL = %q", rec.indexURL)
	}
	if !reflect.DeepEqual(rec.findLinks, []string{"./wheels"}) {
		t.Errorf("findLinks = %v", rec.findLinks)
	}
	if !rec.noIndex {
		t.Error("noIndex not applied")
	}
}
