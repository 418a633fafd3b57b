package req

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/reqsolve/pkg/errors"
)

// parseEditablePath splits an editable specifier into its source tree path
// and an optional project name from an #egg= fragment.
func parseEditablePath(spec string) (path, name string, err error) {
	path = spec
	if i := strings.Index(spec, "#egg="); i >= 0 {
		name = NormalizeName(spec[i+len("#egg="):])
		path = spec[:i]
	}
	path = strings.TrimPrefix(path, "file://")

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", "", errors.Wrap(errors.ErrCodeParse, err, "editable path %q", path)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", "", errors.New(errors.ErrCodeParse,
			"%q is not a local directory (editable requirements install from a source tree)", path)
	}
	return abs, name, nil
}

// projectNameFromTree reads the project name declared by a source tree's
// pyproject.toml, checking [project] first and [tool.poetry] second.
// Returns "" when neither is present; the name then stays unresolved
// until the resolver prepares the tree.
func projectNameFromTree(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, "pyproject.toml"))
	if err != nil {
		return ""
	}
	var pyproject struct {
		Project struct {
			Name string `toml:"name"`
		} `toml:"project"`
		Tool struct {
			Poetry struct {
				Name string `toml:"name"`
			} `toml:"poetry"`
		} `toml:"tool"`
	}
	if err := toml.Unmarshal(data, &pyproject); err != nil {
		return ""
	}
	if pyproject.Project.Name != "" {
		return NormalizeName(pyproject.Project.Name)
	}
	if pyproject.Tool.Poetry.Name != "" {
		return NormalizeName(pyproject.Tool.Poetry.Name)
	}
	return ""
}
