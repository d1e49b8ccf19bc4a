package database

import (
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// ValueCount represents a count for one distinct field value
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// CachedStats holds the cached dataset statistics
type CachedStats struct {
	LastImport         string       `json:"lastImport"`
	RecordCount        int          `json:"recordCount"`
	MissingIdentifiers int          `json:"missingIdentifiers"`
	Genres             []ValueCount `json:"genres"`
	Languages          []ValueCount `json:"languages"`
	Authors            []ValueCount `json:"authors"`
}

type statsCache struct {
	mu    sync.RWMutex
	group singleflight.Group
	stats *CachedStats
}

var cache = &statsCache{}

// GetCachedStats returns the cached stats if available, nil otherwise
func GetCachedStats() *CachedStats {
	if !cache.mu.TryRLock() {
		return nil
	}
	defer cache.mu.RUnlock()

	return cache.stats
}

// InvalidateStatsCache marks the cache as invalid so it will be recomputed on next access
func InvalidateStatsCache() {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.stats = nil
}

// HasCachedStats returns whether stats are currently cached
func HasCachedStats() bool {
	cache.mu.RLock()
	defer cache.mu.RUnlock()
	return cache.stats != nil
}

// ComputeAndCacheStats computes the stats from the database and stores
// them in cache. Concurrent callers share a single computation.
func (d *DB) ComputeAndCacheStats() *CachedStats {
	result, _, _ := cache.group.Do("stats", func() (interface{}, error) {
		stats := d.computeStats()
		if stats != nil {
			cache.mu.Lock()
			cache.stats = stats
			cache.mu.Unlock()
		}
		return stats, nil
	})
	stats, _ := result.(*CachedStats)
	return stats
}

func (d *DB) computeStats() *CachedStats {
	stats := &CachedStats{}

	var lastRun ImportRun
	err := d.gorm.Where("complete = ?", true).Order("date DESC").First(&lastRun).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// never imported, cannot compute stats
		return nil
	}
	if err == nil {
		stats.LastImport = lastRun.Date.Format(time.RFC3339)
	}

	var recordCount int64
	d.gorm.Model(&Record{}).Count(&recordCount)
	stats.RecordCount = int(recordCount)

	var missing int64
	d.gorm.Model(&Record{}).Where("? = ANY(identifiers)", "missing").Count(&missing)
	stats.MissingIdentifiers = int(missing)

	stats.Genres = d.topValues("genres")
	stats.Languages = d.topValues("languages")
	stats.Authors = d.topValues("authors")

	return stats
}

// topValues unnests a text[] column and counts its distinct values.
func (d *DB) topValues(column string) []ValueCount {
	var out []ValueCount
	d.gorm.Raw(
		"SELECT unnest(" + column + ") AS value, COUNT(*) AS count FROM comics_records GROUP BY value ORDER BY count DESC, value LIMIT 10",
	).Scan(&out)
	return out
}
