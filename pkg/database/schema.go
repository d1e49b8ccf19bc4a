package database

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/comicbase/comics-api/pkg/catalog"
	"github.com/lib/pq"
)

type Model struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Record is the stored form of a catalog record. Multi-valued fields
// live in text[] columns, extra fields in a jsonb document.
type Record struct {
	Model

	ExternalID       string          `json:"external_id" gorm:"primaryKey"`
	Title            string          `json:"title" gorm:"index:idx_record_title"`
	VariantTitles    pq.StringArray  `json:"variant_titles" gorm:"type:text[]"`
	Authors          pq.StringArray  `json:"authors" gorm:"type:text[]"`
	PublicationYears pq.StringArray  `json:"publication_years" gorm:"type:text[]"`
	Genres           pq.StringArray  `json:"genres" gorm:"type:text[]"`
	Languages        pq.StringArray  `json:"languages" gorm:"type:text[]"`
	Identifiers      pq.StringArray  `json:"identifiers" gorm:"type:text[]"`
	ExtraFields      ExtraFieldsJSON `json:"extra_fields" gorm:"type:jsonb"`
}

// SearchLog is one append-only query-log row.
type SearchLog struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	QueryText   string         `json:"query_text" gorm:"index:idx_search_log_query"`
	Timestamp   time.Time      `json:"timestamp" gorm:"type:timestamptz"`
	ResultIDs   pq.StringArray `json:"result_ids" gorm:"type:text[]"`
	ResultCount int            `json:"result_count"`
}

// ImportRun records one completed import batch.
type ImportRun struct {
	Date     time.Time `gorm:"primaryKey;type:timestamptz"`
	Files    int
	Imported int
	Errors   int
	Complete bool
}

// ExtraFieldsJSON stores the extra-fields map as a jsonb column.
type ExtraFieldsJSON map[string]catalog.FieldValue

func (e ExtraFieldsJSON) Value() (driver.Value, error) {
	if e == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(e)
}

func (e *ExtraFieldsJSON) Scan(value interface{}) error {
	if value == nil {
		*e = ExtraFieldsJSON{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported extra_fields column type %T", value)
	}
	return json.Unmarshal(data, e)
}

func toDomain(row *Record) *catalog.Record {
	return &catalog.Record{
		ExternalID:       row.ExternalID,
		Title:            row.Title,
		VariantTitles:    append([]string(nil), row.VariantTitles...),
		Authors:          append([]string(nil), row.Authors...),
		PublicationYears: append([]string(nil), row.PublicationYears...),
		Genres:           append([]string(nil), row.Genres...),
		Languages:        append([]string(nil), row.Languages...),
		Identifiers:      append([]string(nil), row.Identifiers...),
		ExtraFields:      map[string]catalog.FieldValue(row.ExtraFields),
		CreatedAt:        row.CreatedAt,
	}
}

func fromDomain(rec *catalog.Record) Record {
	return Record{
		Model:            Model{CreatedAt: rec.CreatedAt},
		ExternalID:       rec.ExternalID,
		Title:            rec.Title,
		VariantTitles:    pq.StringArray(rec.VariantTitles),
		Authors:          pq.StringArray(rec.Authors),
		PublicationYears: pq.StringArray(rec.PublicationYears),
		Genres:           pq.StringArray(rec.Genres),
		Languages:        pq.StringArray(rec.Languages),
		Identifiers:      pq.StringArray(rec.Identifiers),
		ExtraFields:      ExtraFieldsJSON(rec.ExtraFields),
	}
}
