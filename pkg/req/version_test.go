package req

import "testing"

func TestVersionCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0", "1.0", 0},
		{"1.0", "1.0.0", 0},
		{"1.2", "1.10", -1},
		{"2.0", "1.9.9", 1},
		{"1.0rc1", "1.0", -1},
		{"1.0a1", "1.0b1", -1},
		{"1.0rc1", "1.0rc2", -1},
		{"1.0.post1", "1.0", 1},
		{"1.0.dev1", "1.0a1", -1},
		{"1!1.0", "2.0", 1},
	}

	for _, tt := range tests {
		t.Run(tt.a+" vs "+tt.b, func(t *testing.T) {
			a, err := ParseVersion(tt.a)
			if err != nil {
				t.Fatalf("ParseVersion(%q): %v", tt.a, err)
			}
			b, err := ParseVersion(tt.b)
			if err != nil {
				t.Fatalf("ParseVersion(%q): %v", tt.b, err)
			}
			if got := a.Compare(b); got != tt.want {
				t.Errorf("Compare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestParseVersionRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "abc", "1.x.2", "=1.0"} {
		if _, err := ParseVersion(s); err == nil {
			t.Errorf("ParseVersion(%q): want error", s)
		}
	}
}

func TestMatchSpecifier(t *testing.T) {
	tests := []struct {
		spec    string
		version string
		want    bool
	}{
		{"", "1.0", true},
		{"==2.0", "2.0", true},
		{"==2.0", "2.0.0", true},
		{"==2.0", "2.1", false},
		{">=2.0,<3", "2.5", true},
		{">=2.0,<3", "3.0", false},
		{"!=2.4.1", "2.4.1", false},
		{"!=2.4.1", "2.4.2", true},
		{"~=2.2", "2.9", true},
		{"~=2.2", "3.0", false},
		{"~=2.2.1", "2.2.5", true},
		{"~=2.2.1", "2.3.0", false},
		{"==2.1.*", "2.1.7", true},
		{"==2.1.*", "2.2.0", false},
		{"===1.0+local", "1.0+local", true},
		{">1.0", "1.0rc1", false},
	}

	for _, tt := range tests {
		t.Run(tt.spec+"/"+tt.version, func(t *testing.T) {
			got, err := MatchSpecifier(tt.spec, tt.version)
			if err != nil {
				t.Fatalf("MatchSpecifier: %v", err)
			}
			if got != tt.want {
				t.Errorf("MatchSpecifier(%q, %q) = %v, want %v", tt.spec, tt.version, got, tt.want)
			}
		})
	}
}

func TestValidateSpecifier(t *testing.T) {
	for _, s := range []string{"", ">=1.0", ">=1.0,<2", "==1.0.*", "~=1.4.2", "===1.0+local"} {
		if err := ValidateSpecifier(s); err != nil {
			t.Errorf("ValidateSpecifier(%q) = %v, want nil", s, err)
		}
	}
	for _, s := range []string{">=", "==", "<", ">==2.0", "1.0", "=>2.0", ">=1.0 <2.0", ">=abc", ">=1.*", ">=1.0,<"} {
		if err := ValidateSpecifier(s); err == nil {
			t.Errorf("ValidateSpecifier(%q): want error", s)
		}
	}
}

func TestMatchSpecifierRejectsDegenerateClause(t *testing.T) {
	for _, s := range []string{">=", ">=1.0,<"} {
		if _, err := MatchSpecifier(s, "1.0"); err == nil {
			t.Errorf("MatchSpecifier(%q, \"1.0\"): want error", s)
		}
	}
}
