package cli

import (
	"strings"
	"testing"
)

func TestPreview(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"single line", "hello world", "hello world"},
		{"first line only", "first\nsecond\nthird", "first"},
		{"trims whitespace", "  padded  \nrest", "padded"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := preview(tc.in); got != tc.want {
				t.Errorf("preview(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestPreviewTruncatesLongLines(t *testing.T) {
	long := strings.Repeat("a", 500)
	got := preview(long)
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("preview of long line should be truncated, got %q", got)
	}
	if len([]rune(got)) != 123 {
		t.Fatalf("preview length = %d runes, want 123", len([]rune(got)))
	}
}
