// Package normalize canonicalizes user-supplied names and codes before they
// are stored or compared.
package normalize

import (
	"strings"
	"unicode"
)

// Name trims surrounding whitespace and preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// ChannelName trims s, replaces every run of whitespace with a single hyphen
// and lowercases the result. It is idempotent.
func ChannelName(s string) string {
	return strings.ToLower(strings.Join(strings.FieldsFunc(s, unicode.IsSpace), "-"))
}

// JoinCode folds a supplied join code to its canonical stored form.
// Only case is folded; surrounding whitespace makes the code not match.
func JoinCode(s string) string {
	return strings.ToLower(s)
}
