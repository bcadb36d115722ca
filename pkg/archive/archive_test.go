package archive

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, SetupSchema(db))
	// A second call must not fail on an existing schema.
	require.NoError(t, SetupSchema(db))

	store, err := NewStore(db)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store
}

func TestFileName(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{input: "", expected: "default.txt"},
		{input: "story", expected: "story.txt"},
		{input: "story.txt", expected: "story.txt"},
		{input: "a.txt.txt", expected: "a.txt.txt"},
		{input: "notes.md", expected: "notes.md.txt"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, FileName(tc.input), "FileName(%q)", tc.input)
	}
}

func TestWriteText(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	path, err := WriteText(dir, "story", "Hello world.")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "story.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Hello world.", string(data))

	// Saving under the same name replaces the file.
	_, err = WriteText(dir, "story.txt", "Hello there.")
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Hello there.", string(data))
}

func TestStoreInsertAndGet(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	entry := &Entry{Name: "story", Path: "out/story.txt", Text: "Hello world.", Order: 2, MinLength: 100, Source: "corpus.txt"}
	require.NoError(t, store.Insert(ctx, entry))

	_, err := uuid.Parse(entry.ID)
	require.NoError(t, err, "expected a UUID to be assigned")
	assert.False(t, entry.CreatedAt.IsZero())

	got, err := store.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.Name, got.Name)
	assert.Equal(t, entry.Path, got.Path)
	assert.Equal(t, entry.Text, got.Text)
	assert.Equal(t, entry.Order, got.Order)
	assert.Equal(t, entry.MinLength, got.MinLength)
	assert.Equal(t, entry.Source, got.Source)
	assert.True(t, entry.CreatedAt.Equal(got.CreatedAt))

	_, err = store.Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestStoreList(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, name := range []string{"first", "second", "third"} {
		entry := &Entry{Name: name, Path: name + ".txt", Text: name, Order: 1, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, store.Insert(ctx, entry))
	}

	entries, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "third", entries[0].Name)
	assert.Equal(t, "second", entries[1].Name)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestStoreListEmpty(t *testing.T) {
	store := setupStore(t)

	entries, err := store.List(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestArchiveSave(t *testing.T) {
	store := setupStore(t)
	dir := t.TempDir()
	a := New(dir, store)
	ctx := context.Background()

	entry, err := a.Save(ctx, SaveRequest{Text: "Hello there.", Order: 1, MinLength: 0, Source: "hello.txt"})
	require.NoError(t, err)
	assert.Equal(t, DefaultName, entry.Name)
	assert.Equal(t, filepath.Join(dir, "default.txt"), entry.Path)
	assert.FileExists(t, entry.Path)

	got, err := a.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello there.", got.Text)

	entries, err := a.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestArchiveWithoutStore(t *testing.T) {
	dir := t.TempDir()
	a := New(dir, nil)
	ctx := context.Background()

	assert.False(t, a.HasHistory())
	entry, err := a.Save(ctx, SaveRequest{Name: "plain", Text: "Hi."})
	require.NoError(t, err)
	assert.Empty(t, entry.ID)
	assert.FileExists(t, filepath.Join(dir, "plain.txt"))

	_, err = a.List(ctx, 10)
	assert.ErrorIs(t, err, ErrNoStore)
	_, err = a.Get(ctx, "anything")
	assert.ErrorIs(t, err, ErrNoStore)
}
