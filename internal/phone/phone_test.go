package phone

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"digits only", "5215551234567", "5215551234567"},
		{"plus prefix", "+52 1 555 123 4567", "5215551234567"},
		{"dashes and parens", "(555) 123-4567", "5551234567"},
		{"letters stripped", "call555me1234", "5551234"},
		{"empty", "", ""},
		{"no digits", "+- ()", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"+52 1 555 123 4567", "555-1234", "", "abc", "0001"}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name       string
		candidate  string
		configured string
		want       bool
	}{
		{"exact", "5551234567", "5551234567", true},
		{"candidate has country code", "525551234567", "5551234567", true},
		{"configured has country code", "5551234567", "525551234567", true},
		{"formatted candidate", "+52 555 123 4567", "5551234567", true},
		{"unrelated", "5551234567", "5559876543", false},
		{"empty candidate", "", "5551234567", false},
		{"empty configured", "5551234567", "", false},
		{"both empty", "", "", false},
		{"no digit candidate", "++--", "5551234567", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.candidate, tt.configured); got != tt.want {
				t.Errorf("Matches(%q, %q) = %v, want %v", tt.candidate, tt.configured, got, tt.want)
			}
		})
	}
}

func TestMatchesSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"5551234567", "525551234567"},
		{"5551234567", "5551234567"},
		{"1234", "5551234"},
	}
	for _, p := range pairs {
		if Matches(p[0], p[1]) != Matches(p[1], p[0]) {
			t.Errorf("Matches not symmetric for %q and %q", p[0], p[1])
		}
	}
}
