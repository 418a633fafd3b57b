package index

import (
	"runtime"
	"strings"

	"github.com/matzehuels/reqsolve/pkg/errors"
)

// WheelName is the parsed form of a wheel filename
// (name-version[-build]-python-abi-platform.whl).
type WheelName struct {
	Name     string
	Version  string
	Python   []string // python tags, e.g. py3, cp311
	Platform []string // platform tags, e.g. any, manylinux2014_x86_64
}

// ParseWheelName splits a wheel filename into its tag components.
func ParseWheelName(filename string) (WheelName, error) {
	stem, ok := strings.CutSuffix(filename, ".whl")
	if !ok {
		return WheelName{}, errors.New(errors.ErrCodeParse, "%q is not a wheel filename", filename)
	}
	parts := strings.Split(stem, "-")
	if len(parts) < 5 || len(parts) > 6 {
		return WheelName{}, errors.New(errors.ErrCodeParse, "wheel filename %q has %d segments, want 5 or 6", filename, len(parts))
	}
	return WheelName{
		Name:     parts[0],
		Version:  parts[1],
		Python:   strings.Split(parts[len(parts)-3], "."),
		Platform: strings.Split(parts[len(parts)-1], "."),
	}, nil
}

// Supported reports whether the wheel can run on the current machine
// under a Python 3 interpreter. Pure wheels (platform any) pass when
// their python tag covers Python 3; binary wheels additionally need a
// platform tag matching the running OS and architecture.
func (w WheelName) Supported() bool {
	if !pythonTagMatches(w.Python) {
		return false
	}
	for _, p := range w.Platform {
		if p == "any" || platformTagMatches(p) {
			return true
		}
	}
	return false
}

func pythonTagMatches(tags []string) bool {
	for _, t := range tags {
		switch {
		case t == "py3" || t == "py2.py3":
			return true
		case strings.HasPrefix(t, "cp3") || strings.HasPrefix(t, "pp3"):
			return true
		}
	}
	return false
}

func platformTagMatches(tag string) bool {
	var osOK bool
	switch runtime.GOOS {
	case "linux":
		osOK = strings.HasPrefix(tag, "manylinux") || strings.HasPrefix(tag, "musllinux") || strings.HasPrefix(tag, "linux")
	case "darwin":
		osOK = strings.HasPrefix(tag, "macosx")
	case "windows":
		osOK = strings.HasPrefix(tag, "win")
	}
	if !osOK {
		return false
	}
	switch runtime.GOARCH {
	case "amd64":
		return strings.Contains(tag, "x86_64") || strings.Contains(tag, "amd64") || tag == "win32"
	case "arm64":
		return strings.Contains(tag, "aarch64") || strings.Contains(tag, "arm64")
	default:
		return false
	}
}
