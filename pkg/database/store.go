package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/comicbase/comics-api/pkg/catalog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ catalog.Store = (*DB)(nil)

// Upsert creates or merges a record. The read-merge-write runs inside a
// transaction with a row lock, and a process-local per-ID mutex keeps
// concurrent imports of the same ID from interleaving, so neither
// side's union is lost.
func (d *DB) Upsert(ctx context.Context, parsed catalog.ParsedRecord) (*catalog.Record, error) {
	parsed = sanitizeParsed(parsed)

	unlock := d.upsertLocks.lock(parsed.ExternalID)
	defer unlock()

	var out *catalog.Record
	err := d.gorm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row Record
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("external_id = ?", parsed.ExternalID).
			First(&row).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			rec := catalog.NewRecord(parsed, time.Now())
			row = fromDomain(rec)
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("create record: %w", err)
			}
			out = rec
			return nil
		}
		if err != nil {
			return fmt.Errorf("load record: %w", err)
		}

		rec := toDomain(&row)
		rec.Merge(parsed)
		updated := fromDomain(rec)
		updated.Model = row.Model
		if err := tx.Save(&updated).Error; err != nil {
			return fmt.Errorf("update record: %w", err)
		}
		out = rec
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert record %s: %w", parsed.ExternalID, err)
	}
	return out, nil
}

func (d *DB) GetByExternalID(ctx context.Context, id string) (*catalog.Record, error) {
	var row Record
	err := d.gorm.WithContext(ctx).Where("external_id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toDomain(&row), nil
}

func (d *DB) GetByExternalIDs(ctx context.Context, ids []string) ([]catalog.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []Record
	if err := d.gorm.WithContext(ctx).Where("external_id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	// keep the caller's order, skipping unknown IDs
	byID := make(map[string]*Record, len(rows))
	for i := range rows {
		byID[rows[i].ExternalID] = &rows[i]
	}
	out := make([]catalog.Record, 0, len(rows))
	for _, id := range ids {
		if row, ok := byID[id]; ok {
			out = append(out, *toDomain(row))
		}
	}
	return out, nil
}

func (d *DB) All(ctx context.Context) ([]catalog.Record, error) {
	var rows []Record
	if err := d.gorm.WithContext(ctx).Order("external_id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]catalog.Record, len(rows))
	for i := range rows {
		out[i] = *toDomain(&rows[i])
	}
	return out, nil
}

func (d *DB) Count(ctx context.Context) (int64, error) {
	var count int64
	err := d.gorm.WithContext(ctx).Model(&Record{}).Count(&count).Error
	return count, err
}

func (d *DB) AppendSearchLog(ctx context.Context, entry catalog.SearchLog) error {
	row := SearchLog{
		QueryText:   sanitizeString(entry.QueryText),
		Timestamp:   entry.Timestamp,
		ResultIDs:   entry.ResultIDs,
		ResultCount: entry.ResultCount,
	}
	if err := d.gorm.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("append search log: %w", err)
	}
	return nil
}

func (d *DB) SearchLogs(ctx context.Context) ([]catalog.SearchLog, error) {
	var rows []SearchLog
	if err := d.gorm.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]catalog.SearchLog, len(rows))
	for i, row := range rows {
		out[i] = catalog.SearchLog{
			QueryText:   row.QueryText,
			Timestamp:   row.Timestamp,
			ResultIDs:   append([]string(nil), row.ResultIDs...),
			ResultCount: row.ResultCount,
		}
	}
	return out, nil
}

func (d *DB) RecordImportRun(ctx context.Context, run catalog.ImportRun) error {
	row := ImportRun{
		Date:     run.Date,
		Files:    run.Files,
		Imported: run.Imported,
		Errors:   run.Errors,
		Complete: run.Complete,
	}
	if err := d.gorm.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("record import run: %w", err)
	}
	return nil
}

func (d *DB) LastImportRun(ctx context.Context) (*catalog.ImportRun, error) {
	var row ImportRun
	err := d.gorm.WithContext(ctx).Order("date DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &catalog.ImportRun{
		Date:     row.Date,
		Files:    row.Files,
		Imported: row.Imported,
		Errors:   row.Errors,
		Complete: row.Complete,
	}, nil
}

func sanitizeParsed(parsed catalog.ParsedRecord) catalog.ParsedRecord {
	parsed.ExternalID = sanitizeString(parsed.ExternalID)
	parsed.Title = sanitizeString(parsed.Title)
	parsed.VariantTitles = sanitizeAll(parsed.VariantTitles)
	parsed.Authors = sanitizeAll(parsed.Authors)
	parsed.PublicationYears = sanitizeAll(parsed.PublicationYears)
	parsed.Genres = sanitizeAll(parsed.Genres)
	parsed.Languages = sanitizeAll(parsed.Languages)
	parsed.Identifiers = sanitizeAll(parsed.Identifiers)
	return parsed
}

// keyedMutex hands out one mutex per key, with refcounting so idle
// entries do not pile up.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = map[string]*lockEntry{}
	}
	entry, ok := k.locks[key]
	if !ok {
		entry = &lockEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
