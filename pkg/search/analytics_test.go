package search

import (
	"context"
	"testing"

	"github.com/comicbase/comics-api/pkg/catalog"
	"github.com/comicbase/comics-api/pkg/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopQueries(t *testing.T) {
	svc, _ := seededService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Search(ctx, Params{Genre: "Drama"})
		require.NoError(t, err)
	}
	_, err := svc.Search(ctx, Params{TitleQuery: "Watchmen"})
	require.NoError(t, err)

	top, err := svc.TopQueries(ctx, 10)
	require.NoError(t, err)
	require.NotEmpty(t, top)
	assert.Equal(t, "genre=Drama", top[0].QueryText)
	assert.Equal(t, 3, top[0].Count)
}

func TestTopQueriesLimit(t *testing.T) {
	svc, _ := seededService(t)
	ctx := context.Background()

	_, err := svc.Search(ctx, Params{Genre: "Drama"})
	require.NoError(t, err)
	_, err = svc.Search(ctx, Params{Genre: "Fantasy"})
	require.NoError(t, err)
	_, err = svc.Search(ctx, Params{Genre: "Horror"})
	require.NoError(t, err)

	top, err := svc.TopQueries(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, top, 2)
}

func TestTopResults(t *testing.T) {
	svc, _ := seededService(t)
	ctx := context.Background()

	// 003 shows up in both searches, 002 only in the second
	_, err := svc.Search(ctx, Params{Genre: "Science fiction"})
	require.NoError(t, err)
	_, err = svc.Search(ctx, Params{Genre: "Drama"})
	require.NoError(t, err)

	top, err := svc.TopResults(ctx, 10)
	require.NoError(t, err)
	require.NotEmpty(t, top)
	assert.Equal(t, "003", top[0].Record.ExternalID)
	assert.Equal(t, 2, top[0].Count)
}

func TestTopResultsSkipsUnresolvedIDs(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	_, err := store.Upsert(ctx, catalog.ParsedRecord{ExternalID: "live", Title: "Live"})
	require.NoError(t, err)
	require.NoError(t, store.AppendSearchLog(ctx, catalog.SearchLog{
		QueryText:   "genre=Gone",
		ResultIDs:   []string{"live", "deleted"},
		ResultCount: 2,
	}))
	svc := New(store, nil)

	top, err := svc.TopResults(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "live", top[0].Record.ExternalID)
}

func TestNamesAboveThreshold(t *testing.T) {
	svc, _ := seededService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Search(ctx, Params{TitleQuery: "Watchmen"})
		require.NoError(t, err)
	}
	_, err := svc.Search(ctx, Params{Genre: "Fantasy"})
	require.NoError(t, err)

	names, err := svc.NamesAboveThreshold(ctx, 2)
	require.NoError(t, err)
	require.Len(t, names, 1)
	assert.Equal(t, "Watchmen", names[0].Title)
	assert.Equal(t, 3, names[0].Count)

	// threshold is strict
	names, err = svc.NamesAboveThreshold(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestSearchListSession(t *testing.T) {
	svc, _ := seededService(t)
	ctx := context.Background()
	session := newFakeSession()

	svc.AddToSearchList(session, "001")
	svc.AddToSearchList(session, "001")
	svc.AddToSearchList(session, "003")
	assert.Equal(t, []string{"001", "003"}, session.GetList(catalog.SessionKeySearchList))

	records, err := svc.SearchList(ctx, session)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	svc.RemoveFromSearchList(session, "001")
	assert.Equal(t, []string{"003"}, session.GetList(catalog.SessionKeySearchList))

	svc.ClearSearchList(session)
	assert.Empty(t, session.GetList(catalog.SessionKeySearchList))
}

func TestRememberLastResults(t *testing.T) {
	svc, _ := seededService(t)
	ctx := context.Background()
	session := newFakeSession()

	results, err := svc.Search(ctx, Params{Genre: "Drama"})
	require.NoError(t, err)
	svc.RememberLastResults(session, results)
	assert.Equal(t, []string{"002", "003"}, session.GetList(catalog.SessionKeyLastSearchResults))

	svc.ClearLastResults(session)
	assert.Empty(t, session.GetList(catalog.SessionKeyLastSearchResults))
}

type fakeSession struct {
	lists map[string][]string
}

func newFakeSession() *fakeSession {
	return &fakeSession{lists: map[string][]string{}}
}

func (f *fakeSession) GetList(key string) []string {
	return f.lists[key]
}

func (f *fakeSession) SetList(key string, values []string) {
	f.lists[key] = values
}
