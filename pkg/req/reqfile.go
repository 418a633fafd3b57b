package req

import (
	"bufio"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/reqsolve/pkg/errors"
	"github.com/matzehuels/reqsolve/pkg/httputil"
)

// ParsedLine is one actionable line of a requirement or constraint file.
type ParsedLine struct {
	Filename    string
	LineNo      int
	Requirement string
	Editable    bool
	Constraint  bool

	// Hashes collects the line's --hash options (algorithm -> digests).
	Hashes map[string][]string
}

// IndexOptions receives index configuration found inside requirement
// files (--index-url, --find-links, --no-index lines). The package finder
// implements this; a nil receiver makes the parser log and skip them.
type IndexOptions interface {
	SetIndexURL(url string)
	AddFindLinks(location string)
	SetNoIndex(noIndex bool)
}

// LineParser parses requirement and constraint files into ParsedLines.
//
// The parser is bound to the run's package finder and network session:
// index options found in files are applied to the finder, and requirement
// files referenced by URL are fetched through the session.
type LineParser struct {
	Finder  IndexOptions      // may be nil; index option lines are then skipped
	Session *httputil.Session // may be nil; remote files then fail
	Logger  *log.Logger
}

// Parse reads the requirement file at path (a local path or an http(s)
// URL) and returns its lines in file order. Nested -r/-c includes are
// expanded in place, relative to the including file. A constraint file's
// lines are marked Constraint.
func (p *LineParser) Parse(path string, constraint bool) ([]ParsedLine, error) {
	return p.parse(path, constraint, map[string]bool{})
}

func (p *LineParser) parse(path string, constraint bool, seen map[string]bool) ([]ParsedLine, error) {
	if seen[path] {
		return nil, errors.New(errors.ErrCodeParse, "circular include of %s", path)
	}
	seen[path] = true
	defer delete(seen, path)

	body, err := p.open(path)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var lines []ParsedLine
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	startNo := 0
	pending := ""

	flush := func(text string, no int) error {
		line := strings.TrimSpace(stripComment(text))
		if line == "" {
			return nil
		}
		parsed, include, err := p.handleLine(expandEnv(line), ParsedLine{
			Filename:   path,
			LineNo:     no,
			Constraint: constraint,
		})
		if err != nil {
			return err
		}
		if include != nil {
			nested, err := p.parse(resolveInclude(path, include.path), include.constraint, seen)
			if err != nil {
				return err
			}
			lines = append(lines, nested...)
			return nil
		}
		if parsed != nil {
			lines = append(lines, *parsed)
		}
		return nil
	}

	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		if pending == "" {
			startNo = lineNo
		}

		// Backslash continuation joins physical lines before any other
		// processing.
		if strings.HasSuffix(raw, "\\") {
			pending += strings.TrimSuffix(raw, "\\")
			continue
		}
		if err := flush(pending+raw, startNo); err != nil {
			return nil, err
		}
		pending = ""
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "reading %s", path)
	}
	// A continuation on the file's last line has nothing to join; the
	// accumulated text still counts.
	if pending != "" {
		if err := flush(pending, startNo); err != nil {
			return nil, err
		}
	}
	return lines, nil
}

// include describes a nested -r/-c reference found while parsing.
type include struct {
	path       string
	constraint bool
}

func (p *LineParser) handleLine(line string, out ParsedLine) (*ParsedLine, *include, error) {
	fields := strings.Fields(line)
	opt, arg := splitOption(fields[0])

	switch opt {
	case "-r", "--requirement":
		path, err := optionValue(opt, arg, fields, out)
		if err != nil {
			return nil, nil, err
		}
		return nil, &include{path: path, constraint: out.Constraint}, nil

	case "-c", "--constraint":
		path, err := optionValue(opt, arg, fields, out)
		if err != nil {
			return nil, nil, err
		}
		return nil, &include{path: path, constraint: true}, nil

	case "-e", "--editable":
		spec, err := optionValue(opt, arg, fields, out)
		if err != nil {
			return nil, nil, err
		}
		out.Editable = true
		out.Requirement = spec
		return &out, nil, nil

	case "-i", "--index-url":
		u, err := optionValue(opt, arg, fields, out)
		if err != nil {
			return nil, nil, err
		}
		if p.Finder != nil {
			p.Finder.SetIndexURL(u)
		}
		return nil, nil, nil

	case "-f", "--find-links":
		loc, err := optionValue(opt, arg, fields, out)
		if err != nil {
			return nil, nil, err
		}
		if p.Finder != nil {
			p.Finder.AddFindLinks(loc)
		}
		return nil, nil, nil

	case "--no-index":
		if p.Finder != nil {
			p.Finder.SetNoIndex(true)
		}
		return nil, nil, nil
	}

	if strings.HasPrefix(opt, "-") {
		// Options this tool does not act on (--pre, --no-binary, ...)
		// are skipped rather than rejected, so shared requirement files
		// keep working.
		if p.Logger != nil {
			p.Logger.Debugf("%s (line %d): ignoring option %s", out.Filename, out.LineNo, opt)
		}
		return nil, nil, nil
	}

	// A requirement line: specifier text followed by per-line options.
	reqEnd := len(fields)
	for i, f := range fields {
		if strings.HasPrefix(f, "--") {
			reqEnd = i
			break
		}
	}
	out.Requirement = strings.Join(fields[:reqEnd], " ")

	for _, f := range fields[reqEnd:] {
		name, value := splitOption(f)
		if name != "--hash" {
			if p.Logger != nil {
				p.Logger.Debugf("%s (line %d): ignoring option %s", out.Filename, out.LineNo, name)
			}
			continue
		}
		alg, digest, err := parseHashOption(value, out)
		if err != nil {
			return nil, nil, err
		}
		if out.Hashes == nil {
			out.Hashes = map[string][]string{}
		}
		out.Hashes[alg] = append(out.Hashes[alg], digest)
	}
	return &out, nil, nil
}

var supportedHashAlgs = map[string]bool{"sha256": true, "sha384": true, "sha512": true}

func parseHashOption(value string, line ParsedLine) (alg, digest string, err error) {
	alg, digest, ok := strings.Cut(value, ":")
	if !ok || digest == "" {
		return "", "", errors.New(errors.ErrCodeParse,
			"%s (line %d): --hash must take the form --hash=alg:digest", line.Filename, line.LineNo)
	}
	if !supportedHashAlgs[alg] {
		return "", "", errors.New(errors.ErrCodeParse,
			"%s (line %d): unsupported hash algorithm %q (use sha256, sha384, or sha512)",
			line.Filename, line.LineNo, alg)
	}
	return alg, strings.ToLower(digest), nil
}

// open returns a reader for a local path or http(s) URL.
func (p *LineParser) open(path string) (io.ReadCloser, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		if p.Session == nil {
			return nil, errors.New(errors.ErrCodeFileNotFound, "cannot fetch %s without a network session", path)
		}
		req, err := http.NewRequest(http.MethodGet, path, nil)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeParse, err, "requirement file URL %s", path)
		}
		return p.Session.Get(req)
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeFileNotFound, "could not open requirements file: %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeResource, err, "open %s", path)
	}
	return f, nil
}

// resolveInclude joins a nested -r/-c path against the including file.
func resolveInclude(parent, ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	if strings.HasPrefix(parent, "http://") || strings.HasPrefix(parent, "https://") {
		base, err := url.Parse(parent)
		if err != nil {
			return ref
		}
		joined, err := base.Parse(ref)
		if err != nil {
			return ref
		}
		return joined.String()
	}
	if filepath.IsAbs(ref) {
		return ref
	}
	return filepath.Join(filepath.Dir(parent), ref)
}

// splitOption splits "--opt=value" into its parts; a bare token returns
// itself with an empty value.
func splitOption(field string) (name, value string) {
	name, value, _ = strings.Cut(field, "=")
	return name, value
}

// optionValue returns the option's value from either "--opt=value" or
// "--opt value" form.
func optionValue(opt, inline string, fields []string, line ParsedLine) (string, error) {
	if inline != "" {
		return inline, nil
	}
	if len(fields) >= 2 {
		return fields[1], nil
	}
	return "", errors.New(errors.ErrCodeParse, "%s (line %d): %s needs a value", line.Filename, line.LineNo, opt)
}

// commentRE matches a # that starts a comment: at line start or preceded
// by whitespace. A # inside a URL fragment is left alone.
var commentRE = regexp.MustCompile(`(^|\s)#.*$`)

func stripComment(line string) string {
	return commentRE.ReplaceAllString(line, "")
}

// envRE matches ${VAR} references; only the braced form is expanded so
// valid requirement characters are never misread as variables.
var envRE = regexp.MustCompile(`\$\{([A-Z0-9_]+)\}`)

func expandEnv(line string) string {
	return envRE.ReplaceAllStringFunc(line, func(m string) string {
		if v, ok := os.LookupEnv(envRE.FindStringSubmatch(m)[1]); ok {
			return v
		}
		return m
	})
}
