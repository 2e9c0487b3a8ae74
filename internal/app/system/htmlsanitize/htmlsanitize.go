// Package htmlsanitize cleans user-derived text before it is echoed back in
// notification previews and search snippets.
package htmlsanitize

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strict  = bluemonday.StrictPolicy()
	snippet = func() *bluemonday.Policy {
		p := bluemonday.NewPolicy()
		p.AllowElements("mark")
		return p
	}()
)

// PreviewLength is the default rune budget of a notification preview.
const PreviewLength = 140

// Preview strips all markup from s, collapses whitespace and truncates to
// max runes, marking truncation with an ellipsis. The result is plain text.
func Preview(s string, max int) string {
	if max <= 0 {
		max = PreviewLength
	}
	s = html.UnescapeString(strict.Sanitize(s))
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:max-1])) + "…"
}

// Snippet keeps only <mark> highlight tags from a search engine snippet.
func Snippet(s string) string {
	return snippet.Sanitize(s)
}
