package htmlsanitize_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/htmlsanitize"
)

func TestPreview(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{"empty", "", 0, ""},
		{"plain", "Hello, World!", 0, "Hello, World!"},
		{"strips tags", "<b>ship</b> it", 0, "ship it"},
		{"drops script", "hi<script>alert('x')</script>", 0, "hi"},
		{"keeps ampersand", "R&D sync", 0, "R&D sync"},
		{"collapses whitespace", "a \n\n  b\t c", 0, "a b c"},
		{"exact fit", "abcde", 5, "abcde"},
		{"truncates", "abcdefgh", 5, "abcd…"},
		{"truncates runes", "héllo wörld", 6, "héllo…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := htmlsanitize.Preview(tt.input, tt.max); got != tt.want {
				t.Errorf("Preview(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
			}
		})
	}
}

func TestPreview_DefaultLength(t *testing.T) {
	got := htmlsanitize.Preview(strings.Repeat("x", 500), 0)
	if n := utf8.RuneCountInString(got); n != htmlsanitize.PreviewLength {
		t.Errorf("preview has %d runes, want %d", n, htmlsanitize.PreviewLength)
	}
}

func TestSnippet(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"<mark>deploy</mark> friday", "<mark>deploy</mark> friday"},
		{"<mark>x</mark><script>alert(1)</script>", "<mark>x</mark>"},
		{`<a href="javascript:alert(1)">x</a>`, "x"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := htmlsanitize.Snippet(tt.input); got != tt.want {
				t.Errorf("Snippet(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
