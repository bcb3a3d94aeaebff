package extraction

import "strings"

// Normalize concatenates page texts in order and collapses every whitespace
// run, line breaks included, into a single space.
func Normalize(pages []string) string {
	return NormalizeText(strings.Join(pages, "\n"))
}

// NormalizeText collapses whitespace runs to one space and trims the result.
// It is idempotent.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
