// Package memstore is an in-memory catalog.Store with the same upsert
// semantics as the Postgres store. It backs tests and dry-run imports.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/comicbase/comics-api/pkg/catalog"
)

// Store holds records, search logs and import runs behind one mutex, so
// upserts are trivially serialized per external ID.
type Store struct {
	mu      sync.RWMutex
	records map[string]*catalog.Record
	logs    []catalog.SearchLog
	runs    []catalog.ImportRun
	now     func() time.Time
}

var _ catalog.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		records: map[string]*catalog.Record{},
		now:     time.Now,
	}
}

// SetClock overrides the creation-timestamp source, for tests.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) Upsert(ctx context.Context, parsed catalog.ParsedRecord) (*catalog.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.records[parsed.ExternalID]
	if !ok {
		rec := catalog.NewRecord(parsed, s.now())
		s.records[parsed.ExternalID] = rec
		return rec.Clone(), nil
	}
	existing.Merge(parsed)
	return existing.Clone(), nil
}

func (s *Store) GetByExternalID(ctx context.Context, id string) (*catalog.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *Store) GetByExternalIDs(ctx context.Context, ids []string) ([]catalog.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]catalog.Record, 0, len(ids))
	for _, id := range ids {
		if rec, ok := s.records[id]; ok {
			out = append(out, *rec.Clone())
		}
	}
	return out, nil
}

func (s *Store) All(ctx context.Context) ([]catalog.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]catalog.Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, *rec.Clone())
	}
	// deterministic order for callers that iterate before sorting
	sort.Slice(out, func(i, j int) bool { return out[i].ExternalID < out[j].ExternalID })
	return out, nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.records)), nil
}

func (s *Store) AppendSearchLog(ctx context.Context, entry catalog.SearchLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ResultIDs = append([]string(nil), entry.ResultIDs...)
	s.logs = append(s.logs, entry)
	return nil
}

func (s *Store) SearchLogs(ctx context.Context) ([]catalog.SearchLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]catalog.SearchLog(nil), s.logs...), nil
}

func (s *Store) RecordImportRun(ctx context.Context, run catalog.ImportRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, run)
	return nil
}

func (s *Store) LastImportRun(ctx context.Context) (*catalog.ImportRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.runs) == 0 {
		return nil, catalog.ErrNotFound
	}
	run := s.runs[len(s.runs)-1]
	return &run, nil
}
