package req

import (
	"reflect"
	"testing"

	"github.com/matzehuels/reqsolve/pkg/errors"
)

func TestParseSpecifier(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want parsedSpec
	}{
		{"bare name", "requests", parsedSpec{Name: "requests"}},
		{"normalized name", "Flask_Login", parsedSpec{Name: "flask-login"}},
		{"pinned", "requests==2.28.1", parsedSpec{Name: "requests", Specifier: "==2.28.1"}},
		{"range with spaces", "urllib3 >= 1.26, < 2", parsedSpec{Name: "urllib3", Specifier: ">=1.26,<2"}},
		{"extras", "requests[socks,security]>=2.0", parsedSpec{
			Name: "requests", Extras: []string{"socks", "security"}, Specifier: ">=2.0"}},
		{"parenthesized", "requests (>=2.0)", parsedSpec{Name: "requests", Specifier: ">=2.0"}},
		{"direct reference", "pip @ https://example.com/pip-22.0.zip", parsedSpec{
			Name: "pip", URL: "https://example.com/pip-22.0.zip"}},
		{"marker", `urllib3>=1.26 ; python_version >= "3.7"`, parsedSpec{
			Name: "urllib3", Specifier: ">=1.26", Marker: `python_version >= "3.7"`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSpecifier(tt.in)
			if err != nil {
				t.Fatalf("parseSpecifier(%q): %v", tt.in, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseSpecifier(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseSpecifierErrors(t *testing.T) {
	tests := []string{
		"",
		"   ",
		"==2.0",
		"requests==",
		"requests >= ",
		"pip @ ftp://example.com/pip.zip",
		"pip @ https://example.com/pip.zip ==2.0",
	}

	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			_, err := parseSpecifier(in)
			if err == nil {
				t.Fatalf("parseSpecifier(%q): want error", in)
			}
			if !errors.Is(err, errors.ErrCodeParse) && !errors.Is(err, errors.ErrCodeInvalidReq) {
				t.Errorf("parseSpecifier(%q) code = %v, want parse-class error", in, errors.GetCode(err))
			}
		})
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Requests", "requests"},
		{"Flask_Login", "flask-login"},
		{"zope.interface", "zope-interface"},
		{"ruamel.yaml", "ruamel-yaml"},
		{"a--b__c", "a-b-c"},
	}

	for _, tt := range tests {
		if got := NormalizeName(tt.in); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
