// Package search orchestrates parameterized queries over the record
// store: filter chain, sort and group strategies, usage logging and the
// reports built from it.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/comicbase/comics-api/pkg/catalog"
	"github.com/comicbase/comics-api/pkg/isbn"
)

// ErrNoCriteria is returned by the structured search path when every
// parameter is absent, instead of running an unfiltered scan.
var ErrNoCriteria = errors.New("no search criteria supplied")

// Params are the recognized query options. Blank strings and empty
// lists are treated as absent.
type Params struct {
	TitleQuery string
	Genre      string
	Author     string
	Year       string
	Edition    string
	NameType   string
	Languages  []string
}

// Service runs searches over an injected record store. Construct it
// explicitly and pass it to whatever boundary needs it; there is no
// process-global instance.
type Service struct {
	store   catalog.Store
	filters []namedFilter
	logger  *slog.Logger
	now     func() time.Time
}

// New builds a search service around the given store.
func New(store catalog.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:   store,
		filters: defaultFilters(),
		logger:  logger,
		now:     time.Now,
	}
}

// Search applies the configured filters in their fixed order over the
// full record set, short-circuiting once the working set is empty. The
// outcome is title-sorted, capped, and logged to the query log on a
// best-effort basis.
func (s *Service) Search(ctx context.Context, params Params) ([]catalog.Record, error) {
	params = cleanParams(params)

	results, err := s.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}

	var applied []string
	for _, f := range s.filters {
		value := params.value(f.name)
		if value == "" {
			continue
		}
		results = f.apply(results, value)
		applied = append(applied, f.name+"="+value)
		if len(results) == 0 {
			break
		}
	}

	sortByTitle(results, false)
	if len(results) > catalog.MaxSearchResults {
		results = results[:catalog.MaxSearchResults]
	}

	queryText := catalog.EmptySearchQuery
	if len(applied) > 0 {
		queryText = strings.Join(applied, " AND ")
	}
	s.logQuery(ctx, queryText, results)

	return results, nil
}

// SearchStructured is the advanced-search path: it refuses to run with
// no criteria rather than scanning the whole corpus.
func (s *Service) SearchStructured(ctx context.Context, params Params) ([]catalog.Record, error) {
	cleaned := cleanParams(params)
	if cleaned.empty() {
		return nil, ErrNoCriteria
	}
	return s.Search(ctx, params)
}

// SearchByIdentifier finds records carrying the given identifier code,
// matching the alternate ISBN form as well.
func (s *Service) SearchByIdentifier(ctx context.Context, code string) ([]catalog.Record, error) {
	code = strings.Join(strings.Fields(code), "")
	if code == "" {
		return nil, nil
	}
	wanted := map[string]struct{}{}
	for _, c := range isbn.Expand([]string{code}) {
		wanted[c] = struct{}{}
	}

	records, err := s.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	var out []catalog.Record
	for _, r := range records {
		for _, id := range isbn.Expand(r.Identifiers) {
			if _, ok := wanted[id]; ok {
				out = append(out, r)
				break
			}
		}
	}
	sortByTitle(out, false)
	return out, nil
}

// Sort orders results by title, case-insensitive. Order is "asc" or
// "desc"; anything else returns the input unchanged.
func (s *Service) Sort(results []catalog.Record, order string) []catalog.Record {
	switch order {
	case "asc":
		sortByTitle(results, false)
	case "desc":
		sortByTitle(results, true)
	}
	return results
}

// Group buckets results by each distinct value of the grouped field. A
// record with N values appears in N buckets; records with none fall
// into the Unknown bucket. Unsupported keys yield an empty map.
func (s *Service) Group(results []catalog.Record, by string) map[string][]catalog.Record {
	var field func(*catalog.Record) []string
	switch by {
	case "author":
		field = func(r *catalog.Record) []string { return r.Authors }
	case "year":
		field = func(r *catalog.Record) []string { return r.PublicationYears }
	default:
		return map[string][]catalog.Record{}
	}

	groups := map[string][]catalog.Record{}
	for _, rec := range results {
		values := field(&rec)
		if len(values) == 0 {
			values = []string{catalog.UnknownGroup}
		}
		for _, v := range values {
			groups[v] = append(groups[v], rec)
		}
	}
	return groups
}

// logQuery appends the audit entry for one executed search. Failures
// are logged and swallowed; they never affect the search result.
func (s *Service) logQuery(ctx context.Context, queryText string, results []catalog.Record) {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.ExternalID
	}
	entry := catalog.SearchLog{
		QueryText:   queryText,
		Timestamp:   s.now(),
		ResultIDs:   ids,
		ResultCount: len(ids),
	}
	if err := s.store.AppendSearchLog(ctx, entry); err != nil {
		s.logger.Warn("failed to append search log", "query", queryText, "error", err)
	}
}

func (p Params) value(name string) string {
	switch name {
	case "genre":
		return p.Genre
	case "author":
		return p.Author
	case "year":
		return p.Year
	case "title":
		return p.TitleQuery
	case "languages":
		return strings.Join(p.Languages, ",")
	case "edition":
		return p.Edition
	case "name_type":
		return p.NameType
	}
	return ""
}

func (p Params) empty() bool {
	return p.TitleQuery == "" && p.Genre == "" && p.Author == "" && p.Year == "" &&
		p.Edition == "" && p.NameType == "" && len(p.Languages) == 0
}

func cleanParams(p Params) Params {
	p.TitleQuery = strings.TrimSpace(p.TitleQuery)
	p.Genre = strings.TrimSpace(p.Genre)
	p.Author = strings.TrimSpace(p.Author)
	p.Year = strings.TrimSpace(p.Year)
	p.Edition = strings.TrimSpace(p.Edition)
	p.NameType = strings.TrimSpace(p.NameType)

	var langs []string
	for _, l := range p.Languages {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}
	p.Languages = langs
	return p
}

func sortByTitle(results []catalog.Record, desc bool) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := strings.ToLower(results[i].Title), strings.ToLower(results[j].Title)
		if desc {
			return a > b
		}
		return a < b
	})
}
