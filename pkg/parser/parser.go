// Package parser turns one raw source row into a canonical parsed
// record: scalar fields trimmed, multi-valued fields split on
// semicolons and the identifier field parsed with its missing sentinel.
package parser

import (
	"strings"

	"github.com/comicbase/comics-api/pkg/catalog"
	"github.com/comicbase/comics-api/pkg/isbn"
)

// Header aliases tried in order per logical field. Legacy exports ship
// the same column under slightly different labels, most often with a
// trailing space.
var (
	externalIDAliases    = []string{"BL record ID", "BL record ID ", "BL record id"}
	titleAliases         = []string{"Title", "Title "}
	variantTitleAliases  = []string{"Variant titles", "Variant titles "}
	authorAliases        = []string{"Name", "Name "}
	yearAliases          = []string{"Date of publication", "Date of publication "}
	genreAliases         = []string{"Genre", "Genre "}
	languageAliases      = []string{"Languages", "Languages "}
	identifierAliases    = []string{"ISBN", "ISBN "}
	auxiliaryColumnNames = []string{"Publisher", "Place of publication", "Topics", "Physical description", "Notes"}
)

// ParseRow parses a raw row (column label to raw text) into a
// ParsedRecord. An empty external ID is not an error here; callers must
// skip such rows before upserting.
func ParseRow(row map[string]string) catalog.ParsedRecord {
	rec := catalog.ParsedRecord{
		ExternalID:       strings.TrimSpace(lookup(row, externalIDAliases)),
		Title:            strings.TrimSpace(lookup(row, titleAliases)),
		VariantTitles:    SplitMultiValue(lookup(row, variantTitleAliases)),
		Authors:          SplitMultiValue(lookup(row, authorAliases)),
		PublicationYears: SplitMultiValue(lookup(row, yearAliases)),
		Genres:           SplitMultiValue(lookup(row, genreAliases)),
		Languages:        SplitMultiValue(lookup(row, languageAliases)),
		Identifiers:      isbn.Parse(lookup(row, identifierAliases)),
		ExtraFields:      map[string]catalog.FieldValue{},
	}

	for _, column := range auxiliaryColumnNames {
		raw, ok := row[column]
		if !ok {
			continue
		}
		key := NormalizeFieldName(column)
		if strings.Contains(raw, ";") {
			rec.ExtraFields[key] = catalog.ListField(SplitMultiValue(raw))
		} else {
			rec.ExtraFields[key] = catalog.ScalarField(strings.TrimSpace(raw))
		}
	}

	return rec
}

// SplitMultiValue splits a semicolon-delimited field into trimmed
// parts, dropping empty ones. Blank input yields an empty list, not a
// sentinel.
func SplitMultiValue(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var parts []string
	for _, p := range strings.Split(raw, ";") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// NormalizeFieldName lowers a column label and replaces spaces with
// underscores for use as an extra-field key.
func NormalizeFieldName(column string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(column)), " ", "_")
}

func lookup(row map[string]string, aliases []string) string {
	for _, alias := range aliases {
		if v, ok := row[alias]; ok && v != "" {
			return v
		}
	}
	return ""
}
