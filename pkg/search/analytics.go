package search

import (
	"context"
	"fmt"
	"sort"

	"github.com/comicbase/comics-api/pkg/catalog"
)

// QueryCount is one row of the top-queries report.
type QueryCount struct {
	QueryText string `json:"query_text"`
	Count     int    `json:"count"`
}

// RecordCount is one row of the top-results report.
type RecordCount struct {
	Record catalog.Record `json:"record"`
	Count  int            `json:"count"`
}

// TitleCount is one row of the high-frequency report.
type TitleCount struct {
	Title string `json:"title"`
	Count int    `json:"count"`
}

// TopQueries counts the distinct query texts across the whole query log
// and returns the top limit by descending count. Ties break on the
// query text so the order is stable.
func (s *Service) TopQueries(ctx context.Context, limit int) ([]QueryCount, error) {
	logs, err := s.store.SearchLogs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load search logs: %w", err)
	}

	counts := map[string]int{}
	for _, l := range logs {
		counts[l.QueryText]++
	}

	out := make([]QueryCount, 0, len(counts))
	for q, c := range counts {
		out = append(out, QueryCount{QueryText: q, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].QueryText < out[j].QueryText
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// TopResults counts how often each external ID appears across all
// logged result lists and returns the top limit with their resolved
// records. IDs that no longer resolve are skipped.
func (s *Service) TopResults(ctx context.Context, limit int) ([]RecordCount, error) {
	counts, err := s.resultCounts(ctx)
	if err != nil {
		return nil, err
	}

	type idCount struct {
		id    string
		count int
	}
	ranked := make([]idCount, 0, len(counts))
	for id, c := range counts {
		ranked = append(ranked, idCount{id, c})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].id < ranked[j].id
	})

	var out []RecordCount
	for _, rc := range ranked {
		if limit > 0 && len(out) >= limit {
			break
		}
		rec, err := s.store.GetByExternalID(ctx, rc.id)
		if err != nil {
			// deleted or otherwise unresolved, skip
			continue
		}
		out = append(out, RecordCount{Record: *rec, Count: rc.count})
	}
	return out, nil
}

// NamesAboveThreshold returns (title, count) pairs for records that
// appeared in strictly more than n logged results.
func (s *Service) NamesAboveThreshold(ctx context.Context, n int) ([]TitleCount, error) {
	counts, err := s.resultCounts(ctx)
	if err != nil {
		return nil, err
	}

	var out []TitleCount
	for id, c := range counts {
		if c <= n {
			continue
		}
		rec, err := s.store.GetByExternalID(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, TitleCount{Title: rec.Title, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Title < out[j].Title
	})
	return out, nil
}

func (s *Service) resultCounts(ctx context.Context) (map[string]int, error) {
	logs, err := s.store.SearchLogs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load search logs: %w", err)
	}
	counts := map[string]int{}
	for _, l := range logs {
		for _, id := range l.ResultIDs {
			counts[id]++
		}
	}
	return counts, nil
}
