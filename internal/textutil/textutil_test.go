package textutil

import "testing"

// TestNormalize tests NFC normalization of decomposed input
func TestNormalize(t *testing.T) {
	// "é" as e + combining acute accent
	decomposed := "café"
	composed := "café"

	if got := Normalize(decomposed); got != composed {
		t.Errorf("Normalize(%q) = %q, want %q", decomposed, got, composed)
	}

	// Already-composed input passes through unchanged.
	if got := Normalize(composed); got != composed {
		t.Errorf("Normalize(%q) = %q, want %q", composed, got, composed)
	}
}

// TestDisplayWidth tests column measurement across script classes
func TestDisplayWidth(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"empty", "", 0},
		{"ascii", "hello", 5},
		{"cjk wide", "中文", 4},
		{"fullwidth digits", "１２", 4},
		{"mixed", "a中b", 4},
		{"combining mark is zero width", "é", 1},
		{"halfwidth katakana", "ｶﾅ", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayWidth(tt.in); got != tt.want {
				t.Errorf("DisplayWidth(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

// TestPadRight tests space padding to a target display width
func TestPadRight(t *testing.T) {
	if got := PadRight("ab", 5); got != "ab   " {
		t.Errorf("PadRight(%q, 5) = %q, want %q", "ab", got, "ab   ")
	}

	// Wide characters count double, so two columns of padding remain.
	if got := PadRight("中文", 6); got != "中文  " {
		t.Errorf("PadRight(wide, 6) = %q, want two trailing spaces", got)
	}

	// Already wide enough: unchanged.
	if got := PadRight("abcdef", 4); got != "abcdef" {
		t.Errorf("PadRight(%q, 4) = %q, want unchanged", "abcdef", got)
	}
}

// TestCollapseSpaces tests whitespace run collapsing
func TestCollapseSpaces(t *testing.T) {
	if got := CollapseSpaces("  a \t b\n c  "); got != "a b c" {
		t.Errorf("CollapseSpaces() = %q, want %q", got, "a b c")
	}
	if got := CollapseSpaces(""); got != "" {
		t.Errorf("CollapseSpaces(\"\") = %q, want empty", got)
	}
}
