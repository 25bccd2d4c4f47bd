package sanitizer

import "testing"

func TestNameKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"already clean", "ming", "ming"},
		{"mixed case", "Ming", "ming"},
		{"surrounding spaces", "  Ming  ", "ming"},
		{"inner whitespace collapsed", "Ming \t Li", "ming li"},
		{"punctuation kept", "O'Neil-Smith Jr.", "o'neil-smith jr."},
		{"symbols dropped", "Ming!!", "ming"},
		{"unicode letters", "Ségolène", "ségolène"},
		{"empty", "", ""},
		{"only symbols", "@#$", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NameKey(tt.input); got != tt.expected {
				t.Errorf("NameKey(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("  Ming   Li "); got != "Ming Li" {
		t.Errorf("DisplayName() = %q, want %q", got, "Ming Li")
	}
}

func TestTag(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"3", "3"},
		{" 17 ", "17"},
		{"tag-A_1", "tag-A_1"},
		{"tag #9", "tag9"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Tag(tt.input); got != tt.expected {
				t.Errorf("Tag(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestEmail(t *testing.T) {
	if got := Email("  Ming@Example.COM "); got != "ming@example.com" {
		t.Errorf("Email() = %q", got)
	}
}

func TestPipeline_AppliesInOrder(t *testing.T) {
	p := Pipeline{
		func(s string) string { return s + "a" },
		func(s string) string { return s + "b" },
	}
	if got := p.Apply("x"); got != "xab" {
		t.Errorf("Apply() = %q, want xab", got)
	}
}
