// Package isbn parses identifier fields from source rows and converts
// between ISBN-10 and ISBN-13 forms.
package isbn

import (
	"strconv"
	"strings"
)

// Missing is the sentinel identifier stored when a row carries no ISBN.
const Missing = "missing"

// Parse splits a raw identifier field into its codes. Whitespace is
// stripped before splitting on commas and empty parts are dropped. An
// empty result yields the single-element missing sentinel.
func Parse(raw string) []string {
	var parts []string
	for _, p := range strings.Split(removeWhitespace(raw), ",") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return []string{Missing}
	}
	return parts
}

// Expand returns the identifier list with the convertible alternate form
// of each plain ISBN appended, so a lookup by either form matches. The
// missing sentinel and non-ISBN codes pass through untouched.
func Expand(ids []string) []string {
	out := append([]string(nil), ids...)
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	for _, id := range ids {
		var alt string
		switch len(id) {
		case 10:
			alt = To13(id)
		case 13:
			alt = To10(id)
		}
		if alt == "" {
			continue
		}
		if _, ok := seen[alt]; !ok {
			seen[alt] = struct{}{}
			out = append(out, alt)
		}
	}
	return out
}

// To13 converts an ISBN-10 to ISBN-13 by prepending 978 and computing the check digit.
// Returns an empty string if the input is not a valid ISBN-10.
func To13(isbn10 string) string {
	if len(isbn10) != 10 {
		return ""
	}
	base := "978" + isbn10[:9]
	sum := 0
	for i, c := range base {
		d, err := strconv.Atoi(string(c))
		if err != nil {
			return ""
		}
		if i%2 == 0 {
			sum += d
		} else {
			sum += d * 3
		}
	}
	check := (10 - sum%10) % 10
	return base + strconv.Itoa(check)
}

// To10 converts a 978-prefixed ISBN-13 to ISBN-10.
// Returns an empty string if the input is not a convertible ISBN-13.
func To10(isbn13 string) string {
	if len(isbn13) != 13 || !strings.HasPrefix(isbn13, "978") {
		return ""
	}
	base := isbn13[3:12]
	sum := 0
	for i, c := range base {
		d, err := strconv.Atoi(string(c))
		if err != nil {
			return ""
		}
		sum += d * (10 - i)
	}
	check := (11 - sum%11) % 11
	if check == 10 {
		return base + "X"
	}
	return base + strconv.Itoa(check)
}

func removeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), "")
}
