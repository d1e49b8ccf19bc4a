// Package catalog defines the canonical record model shared by the
// ingestion pipeline, the record stores and the search service.
package catalog

import (
	"strings"
	"time"
)

// MissingIdentifier is the sentinel stored when a record has no known
// identifier. It never coexists with a real identifier value.
const MissingIdentifier = "missing"

// Record is one cataloged item, keyed by its external record ID.
// The external ID is opaque text and may carry leading zeros.
type Record struct {
	ExternalID       string                `json:"external_id"`
	Title            string                `json:"title"`
	VariantTitles    []string              `json:"variant_titles"`
	Authors          []string              `json:"authors"`
	PublicationYears []string              `json:"publication_years"`
	Genres           []string              `json:"genres"`
	Languages        []string              `json:"languages"`
	Identifiers      []string              `json:"identifiers"`
	ExtraFields      map[string]FieldValue `json:"extra_fields"`
	CreatedAt        time.Time             `json:"created_at"`
}

// ParsedRecord is the output of parsing one raw source row. Multi-valued
// fields are already split and trimmed; Identifiers defaults to the
// missing sentinel when the row carried none.
type ParsedRecord struct {
	ExternalID       string
	Title            string
	VariantTitles    []string
	Authors          []string
	PublicationYears []string
	Genres           []string
	Languages        []string
	Identifiers      []string
	ExtraFields      map[string]FieldValue
}

// NewRecord builds a fresh Record from a parsed row. Multi-valued fields
// are taken as-is (minus blank values), identifiers default to the
// missing sentinel.
func NewRecord(parsed ParsedRecord, now time.Time) *Record {
	rec := &Record{
		ExternalID:       parsed.ExternalID,
		Title:            parsed.Title,
		VariantTitles:    dropBlank(parsed.VariantTitles),
		Authors:          dropBlank(parsed.Authors),
		PublicationYears: dropBlank(parsed.PublicationYears),
		Genres:           dropBlank(parsed.Genres),
		Languages:        dropBlank(parsed.Languages),
		Identifiers:      identifiersOrMissing(parsed.Identifiers),
		ExtraFields:      map[string]FieldValue{},
		CreatedAt:        now,
	}
	for k, v := range parsed.ExtraFields {
		rec.ExtraFields[k] = v
	}
	return rec
}

// Merge folds a later import of the same external ID into the record.
// Multi-valued fields grow by set union, the title is replaced only when
// the incoming one is non-empty, and the identifier list is overwritten
// wholesale. Extra fields merge shallowly, new keys winning. CreatedAt
// is never touched.
func (r *Record) Merge(parsed ParsedRecord) {
	if strings.TrimSpace(parsed.Title) != "" {
		r.Title = parsed.Title
	}
	r.VariantTitles = Union(r.VariantTitles, parsed.VariantTitles)
	r.Authors = Union(r.Authors, parsed.Authors)
	r.PublicationYears = Union(r.PublicationYears, parsed.PublicationYears)
	r.Genres = Union(r.Genres, parsed.Genres)
	r.Languages = Union(r.Languages, parsed.Languages)
	r.Identifiers = identifiersOrMissing(parsed.Identifiers)
	if r.ExtraFields == nil {
		r.ExtraFields = map[string]FieldValue{}
	}
	for k, v := range parsed.ExtraFields {
		r.ExtraFields[k] = v
	}
}

// Clone returns a deep copy so store callers can mutate results freely.
func (r *Record) Clone() *Record {
	cp := *r
	cp.VariantTitles = append([]string(nil), r.VariantTitles...)
	cp.Authors = append([]string(nil), r.Authors...)
	cp.PublicationYears = append([]string(nil), r.PublicationYears...)
	cp.Genres = append([]string(nil), r.Genres...)
	cp.Languages = append([]string(nil), r.Languages...)
	cp.Identifiers = append([]string(nil), r.Identifiers...)
	cp.ExtraFields = make(map[string]FieldValue, len(r.ExtraFields))
	for k, v := range r.ExtraFields {
		cp.ExtraFields[k] = v.clone()
	}
	return &cp
}

// IdentifiersOrMissing returns the identifier list, substituting the
// missing sentinel when the list is empty or holds a lone blank value.
func (r *Record) IdentifiersOrMissing() []string {
	return identifiersOrMissing(r.Identifiers)
}

// HasMissingIdentifier reports whether the record carries no real
// identifier.
func (r *Record) HasMissingIdentifier() bool {
	ids := r.IdentifiersOrMissing()
	return len(ids) == 1 && ids[0] == MissingIdentifier
}

// MultiValueFields returns the extra fields as lists for display,
// splitting scalar values that still carry an internal semicolon and
// dropping empty fields.
func (r *Record) MultiValueFields() map[string][]string {
	out := map[string][]string{}
	for key, v := range r.ExtraFields {
		switch {
		case v.IsList():
			out[key] = append([]string(nil), v.List...)
		case strings.Contains(v.Scalar, ";"):
			var parts []string
			for _, p := range strings.Split(v.Scalar, ";") {
				if p = strings.TrimSpace(p); p != "" {
					parts = append(parts, p)
				}
			}
			out[key] = parts
		case strings.TrimSpace(v.Scalar) != "":
			out[key] = []string{v.Scalar}
		}
	}
	return out
}

// Union merges two value lists into their set union. Existing order is
// kept, unseen incoming values append in input order, and blank values
// never enter the result.
func Union(existing, incoming []string) []string {
	out := make([]string, 0, len(existing)+len(incoming))
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	for _, lst := range [][]string{existing, incoming} {
		for _, v := range lst {
			if strings.TrimSpace(v) == "" {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

func dropBlank(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func identifiersOrMissing(ids []string) []string {
	cleaned := dropBlank(ids)
	// a real identifier supersedes the sentinel if both slipped in
	if len(cleaned) > 1 {
		real := cleaned[:0]
		for _, id := range cleaned {
			if id != MissingIdentifier {
				real = append(real, id)
			}
		}
		cleaned = real
	}
	if len(cleaned) == 0 {
		return []string{MissingIdentifier}
	}
	return cleaned
}
