package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/comicbase/comics-api/pkg/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestImportFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "records.csv",
		"BL record ID,Title,Name,Genre,ISBN\n"+
			"001,Watchmen,Alan Moore; Dave Gibbons,Science fiction;Drama,978-1401245252\n"+
			"002,Maus,Art Spiegelman,History,\n")

	store := memstore.New()
	im := New(store, nil, Options{})

	summary, err := im.ImportFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Imported)
	assert.Equal(t, 0, summary.Errors)
	assert.NotEmpty(t, summary.Encoding)

	rec, err := store.GetByExternalID(context.Background(), "001")
	require.NoError(t, err)
	assert.Equal(t, "Watchmen", rec.Title)
	assert.Equal(t, []string{"Alan Moore", "Dave Gibbons"}, rec.Authors)

	rec, err = store.GetByExternalID(context.Background(), "002")
	require.NoError(t, err)
	assert.Equal(t, []string{"missing"}, rec.Identifiers)
}

func TestImportFileSkipsRowsWithoutID(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "records.csv",
		"BL record ID,Title\n"+
			",No ID Here\n"+
			"003,Kept\n")

	store := memstore.New()
	im := New(store, nil, Options{})

	summary, err := im.ImportFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Imported)
	assert.Equal(t, 1, summary.Errors)

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestImportFilesMergesAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	first := writeFile(t, dir, "names.csv",
		"BL record ID,Title,Name\n001,Spider-Man,Stan Lee\n")
	second := writeFile(t, dir, "titles.csv",
		"BL record ID,Title,Name\n001,Spider-Man,Jack Kirby\n")

	store := memstore.New()
	im := New(store, nil, Options{})

	summary, err := im.ImportFiles(context.Background(), []string{first, second})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Imported)

	rec, err := store.GetByExternalID(context.Background(), "001")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Stan Lee", "Jack Kirby"}, rec.Authors)

	run, err := store.LastImportRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, run.Files)
	assert.Equal(t, 2, run.Imported)
	assert.True(t, run.Complete)
}

func TestImportFilesSkipsMissingFile(t *testing.T) {
	dir := t.TempDir()
	present := writeFile(t, dir, "records.csv",
		"BL record ID,Title\n001,Here\n")

	store := memstore.New()
	im := New(store, nil, Options{})

	summary, err := im.ImportFiles(context.Background(), []string{
		filepath.Join(dir, "nope.csv"),
		present,
	})
	require.NoError(t, err)
	require.Len(t, summary.Files, 2)
	assert.True(t, summary.Files[0].Skipped)
	assert.False(t, summary.Files[1].Skipped)
	assert.Equal(t, 1, summary.Imported)
}

func TestImportFileCleanSpecialChars(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "records.csv",
		"BL record ID,Title\n001,Spider-Man & The X-Men\n")

	store := memstore.New()
	im := New(store, nil, Options{CleanSpecialChars: true})

	_, err := im.ImportFile(context.Background(), path)
	require.NoError(t, err)

	rec, err := store.GetByExternalID(context.Background(), "001")
	require.NoError(t, err)
	assert.Equal(t, "Spider-Man and The X-Men", rec.Title)
}

func TestImportFileLatin1Bytes(t *testing.T) {
	dir := t.TempDir()
	// "café" with a latin-1 é byte; the import must not abort
	content := append([]byte("BL record ID,Title\n001,caf"), 0xe9, '\n')
	path := filepath.Join(dir, "latin.csv")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	store := memstore.New()
	im := New(store, nil, Options{})

	summary, err := im.ImportFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Imported)

	rec, err := store.GetByExternalID(context.Background(), "001")
	require.NoError(t, err)
	assert.Contains(t, rec.Title, "caf")
}

func TestImportIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "records.csv",
		"BL record ID,Title,Name,Genre\n001,Watchmen,Alan Moore,Drama\n")

	store := memstore.New()
	im := New(store, nil, Options{})
	ctx := context.Background()

	_, err := im.ImportFile(ctx, path)
	require.NoError(t, err)
	first, err := store.GetByExternalID(ctx, "001")
	require.NoError(t, err)

	_, err = im.ImportFile(ctx, path)
	require.NoError(t, err)
	second, err := store.GetByExternalID(ctx, "001")
	require.NoError(t, err)

	assert.Equal(t, first.Authors, second.Authors)
	assert.Equal(t, first.Genres, second.Genres)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
}

func TestProgressSnapshot(t *testing.T) {
	p := &Progress{}
	p.start([]string{"a.csv"})
	p.updateFile("a.csv", 50)

	snap := p.Snapshot()
	assert.True(t, snap.IsRunning)
	require.Len(t, snap.Files, 1)
	assert.Equal(t, 50.0, snap.Files[0].Processed)

	p.end()
	assert.False(t, p.Snapshot().IsRunning)
}
