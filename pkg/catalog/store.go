package catalog

import (
	"context"
	"errors"
	"time"
)

// MaxSearchResults caps the number of records a single search returns.
const MaxSearchResults = 10000

// EmptySearchQuery is logged as the query text of an unfiltered search.
const EmptySearchQuery = "empty_search"

// UnknownGroup is the bucket for records with no value in the grouped
// field.
const UnknownGroup = "Unknown"

// Session keys the search service reads and writes. The session storage
// mechanism itself is owned by the caller.
const (
	SessionKeySearchList        = "search_list"
	SessionKeyLastSearchResults = "last_search_results"
)

// ErrNotFound is returned by store lookups that match no record.
var ErrNotFound = errors.New("record not found")

// SearchLog is an append-only audit entry for one executed search.
type SearchLog struct {
	QueryText   string    `json:"query_text"`
	Timestamp   time.Time `json:"timestamp"`
	ResultIDs   []string  `json:"result_ids"`
	ResultCount int       `json:"result_count"`
}

// ImportRun records one completed import batch.
type ImportRun struct {
	Date     time.Time `json:"date"`
	Files    int       `json:"files"`
	Imported int       `json:"imported"`
	Errors   int       `json:"errors"`
	Complete bool      `json:"complete"`
}

// Store is the record store the ingestion pipeline writes to and the
// search service reads from. Upsert must behave as a per-external-ID
// critical section: concurrent imports of the same ID may not lose
// either side's union merge.
type Store interface {
	// Upsert creates the record or merges the parsed row into the
	// existing one, returning the stored state.
	Upsert(ctx context.Context, parsed ParsedRecord) (*Record, error)

	// GetByExternalID returns the record with the given external ID or
	// ErrNotFound.
	GetByExternalID(ctx context.Context, id string) (*Record, error)

	// GetByExternalIDs returns the records matching any of the given
	// IDs. Unknown IDs are skipped, not errors.
	GetByExternalIDs(ctx context.Context, ids []string) ([]Record, error)

	// All returns every record in the store.
	All(ctx context.Context) ([]Record, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int64, error)

	// AppendSearchLog appends one query-log entry.
	AppendSearchLog(ctx context.Context, entry SearchLog) error

	// SearchLogs returns all query-log entries.
	SearchLogs(ctx context.Context) ([]SearchLog, error)

	// RecordImportRun stores bookkeeping for a finished import batch.
	RecordImportRun(ctx context.Context, run ImportRun) error

	// LastImportRun returns the most recent import run or ErrNotFound.
	LastImportRun(ctx context.Context) (*ImportRun, error)
}

// SessionStore is the opaque per-user key-value bag the search service
// keeps its search list and last results in.
type SessionStore interface {
	GetList(key string) []string
	SetList(key string, values []string)
}
