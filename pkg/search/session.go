package search

import (
	"context"
	"fmt"

	"github.com/comicbase/comics-api/pkg/catalog"
)

// Session helpers. The search list and last-results list live in an
// opaque per-user key-value bag the caller owns; the service only reads
// and writes the two documented keys.

// AddToSearchList appends a record ID to the session's search list if
// it is not already there.
func (s *Service) AddToSearchList(session catalog.SessionStore, externalID string) {
	if externalID == "" {
		return
	}
	list := session.GetList(catalog.SessionKeySearchList)
	for _, id := range list {
		if id == externalID {
			return
		}
	}
	session.SetList(catalog.SessionKeySearchList, append(list, externalID))
}

// RemoveFromSearchList drops a record ID from the session's search list.
func (s *Service) RemoveFromSearchList(session catalog.SessionStore, externalID string) {
	list := session.GetList(catalog.SessionKeySearchList)
	out := list[:0:0]
	for _, id := range list {
		if id != externalID {
			out = append(out, id)
		}
	}
	session.SetList(catalog.SessionKeySearchList, out)
}

// ClearSearchList empties the session's search list.
func (s *Service) ClearSearchList(session catalog.SessionStore) {
	session.SetList(catalog.SessionKeySearchList, nil)
}

// SearchList resolves the session's saved record IDs to records.
func (s *Service) SearchList(ctx context.Context, session catalog.SessionStore) ([]catalog.Record, error) {
	ids := session.GetList(catalog.SessionKeySearchList)
	records, err := s.store.GetByExternalIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve search list: %w", err)
	}
	return records, nil
}

// RememberLastResults stores the IDs of the latest search results in the
// session.
func (s *Service) RememberLastResults(session catalog.SessionStore, results []catalog.Record) {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.ExternalID
	}
	session.SetList(catalog.SessionKeyLastSearchResults, ids)
}

// ClearLastResults drops the remembered result IDs.
func (s *Service) ClearLastResults(session catalog.SessionStore) {
	session.SetList(catalog.SessionKeyLastSearchResults, nil)
}
