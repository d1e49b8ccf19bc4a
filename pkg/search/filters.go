package search

import (
	"strings"

	"github.com/comicbase/comics-api/pkg/catalog"
)

// FilterFunc narrows a working result set by one parameter value. Every
// filter treats a blank value as a no-op and returns its input
// unchanged.
type FilterFunc func(results []catalog.Record, value string) []catalog.Record

type namedFilter struct {
	name  string
	apply FilterFunc
}

// defaultFilters returns the filter chain in its fixed application
// order. The order is part of the search contract: it decides which
// filter gets to empty the result set first and what the logged query
// text looks like.
func defaultFilters() []namedFilter {
	return []namedFilter{
		{"genre", FilterGenre},
		{"author", FilterAuthor},
		{"year", FilterYear},
		{"title", FilterTitle},
		{"languages", FilterLanguages},
		{"edition", FilterEdition},
		{"name_type", FilterNameType},
	}
}

// FilterGenre keeps records whose genre list contains the value,
// case-insensitive substring.
func FilterGenre(results []catalog.Record, value string) []catalog.Record {
	return filterByList(results, value, func(r *catalog.Record) []string { return r.Genres })
}

// FilterAuthor keeps records whose author list contains the value.
func FilterAuthor(results []catalog.Record, value string) []catalog.Record {
	return filterByList(results, value, func(r *catalog.Record) []string { return r.Authors })
}

// FilterYear keeps records whose publication years contain the value.
func FilterYear(results []catalog.Record, value string) []catalog.Record {
	return filterByList(results, value, func(r *catalog.Record) []string { return r.PublicationYears })
}

// FilterTitle keeps records whose canonical title or any variant title
// contains the value, case-insensitive.
func FilterTitle(results []catalog.Record, value string) []catalog.Record {
	value = strings.TrimSpace(value)
	if value == "" {
		return results
	}
	needle := strings.ToLower(value)
	out := results[:0:0]
	for _, r := range results {
		if strings.Contains(strings.ToLower(r.Title), needle) ||
			containsFold(r.VariantTitles, needle) {
			out = append(out, r)
		}
	}
	return out
}

// FilterLanguages accepts a comma-separated token list; a record matches
// when its languages contain any of the tokens.
func FilterLanguages(results []catalog.Record, value string) []catalog.Record {
	var tokens []string
	for _, tok := range strings.Split(value, ",") {
		if tok = strings.TrimSpace(tok); tok != "" {
			tokens = append(tokens, strings.ToLower(tok))
		}
	}
	if len(tokens) == 0 {
		return results
	}
	out := results[:0:0]
	for _, r := range results {
		haystack := strings.ToLower(serializeList(r.Languages))
		for _, tok := range tokens {
			if strings.Contains(haystack, tok) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// FilterEdition matches against the serialized extra fields, where
// edition information lives.
func FilterEdition(results []catalog.Record, value string) []catalog.Record {
	return filterByExtraFields(results, value)
}

// FilterNameType matches against the serialized extra fields.
func FilterNameType(results []catalog.Record, value string) []catalog.Record {
	return filterByExtraFields(results, value)
}

func filterByList(results []catalog.Record, value string, field func(*catalog.Record) []string) []catalog.Record {
	value = strings.TrimSpace(value)
	if value == "" {
		return results
	}
	needle := strings.ToLower(value)
	out := results[:0:0]
	for _, r := range results {
		if strings.Contains(strings.ToLower(serializeList(field(&r))), needle) {
			out = append(out, r)
		}
	}
	return out
}

func filterByExtraFields(results []catalog.Record, value string) []catalog.Record {
	value = strings.TrimSpace(value)
	if value == "" {
		return results
	}
	needle := strings.ToLower(value)
	out := results[:0:0]
	for _, r := range results {
		if strings.Contains(strings.ToLower(serializeExtraFields(&r)), needle) {
			out = append(out, r)
		}
	}
	return out
}

func containsFold(values []string, lowerNeedle string) bool {
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), lowerNeedle) {
			return true
		}
	}
	return false
}

// serializeList renders a multi-valued field as the text the containment
// test runs against.
func serializeList(values []string) string {
	return strings.Join(values, ";")
}

func serializeExtraFields(r *catalog.Record) string {
	var b strings.Builder
	for key, v := range r.ExtraFields {
		b.WriteString(key)
		b.WriteString("=")
		b.WriteString(strings.Join(v.Values(), ";"))
		b.WriteString("\n")
	}
	return b.String()
}
