// Package textnorm cleans display text coming out of messy source
// files: symbols are spelled out, leftover junk characters removed and
// whitespace collapsed.
package textnorm

import (
	"strings"
	"unicode"
)

// replacer spells out symbols that frequently break rendering of titles
// imported from legacy catalog exports.
var replacer = strings.NewReplacer(
	"&", " and ",
	"@", " at ",
	"#", " number ",
	"%", " percent ",
	"$", " dollar ",
	"©", " copyright ",
	"®", " registered ",
	"™", " trademark ",
)

// Clean normalizes a piece of text for storage or display. Symbols are
// replaced with words, any remaining character outside letters, digits,
// whitespace and basic punctuation is dropped, and whitespace runs
// collapse to single spaces. Clean is idempotent and returns empty
// input unchanged.
func Clean(text string) string {
	if text == "" {
		return text
	}

	text = replacer.Replace(text)

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		case isKeptPunct(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// CleanRow applies Clean to every cell of a raw row.
func CleanRow(row map[string]string) map[string]string {
	cleaned := make(map[string]string, len(row))
	for key, value := range row {
		cleaned[key] = Clean(value)
	}
	return cleaned
}

func isKeptPunct(r rune) bool {
	switch r {
	case '-', '.', ',', '!', '?', ':', ';', '(', ')':
		return true
	}
	return false
}
