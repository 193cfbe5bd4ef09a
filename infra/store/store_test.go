package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/rota/core/model"
	"github.com/kilianp07/rota/core/workspace"
)

func snapshot(id string, edited bool) workspace.Snapshot {
	return workspace.Snapshot{
		ID:         id,
		Sessions:   []string{"mon", "tue"},
		Members:    []string{"aoi", "ren"},
		Cells:      [][]string{{"available", "tentative"}, {"unavailable", "available"}},
		Roster:     []model.RosterEntry{{Name: "ren", Rank: 1, Group: "senior"}},
		Settings:   model.Settings{Sessions: []model.SessionSettings{{Label: "mon", Min: 0, Max: 2}, {Label: "tue", Min: 0, Max: 2}}},
		Assignment: [][]string{{"aoi"}, {"ren"}},
		Edited:     edited,
		SavedAt:    time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC),
	}
}

func exerciseStore(t *testing.T, s workspace.Store) {
	ctx := context.Background()

	_, err := s.Load(ctx, "missing")
	require.ErrorIs(t, err, workspace.ErrNotFound)

	require.NoError(t, s.Save(ctx, snapshot("b", false)))
	require.NoError(t, s.Save(ctx, snapshot("a", false)))
	require.NoError(t, s.Save(ctx, snapshot("a", true)))

	got, err := s.Load(ctx, "a")
	require.NoError(t, err)
	assert.True(t, got.Edited)
	assert.Equal(t, snapshot("a", true), got)

	ids, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	require.NoError(t, s.Delete(ctx, "b"))
	assert.ErrorIs(t, s.Delete(ctx, "b"), workspace.ErrNotFound)
	ids, err = s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids)
}

func TestJSONLStore(t *testing.T) {
	exerciseStore(t, NewJSONLStore(filepath.Join(t.TempDir(), "rota.jsonl")))
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "rota.db"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	exerciseStore(t, s)
}

func TestJSONLCompactKeepsLatest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rota.jsonl")
	s := NewJSONLStore(path)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, snapshot("a", false)))
	require.NoError(t, s.Save(ctx, snapshot("a", true)))
	require.NoError(t, s.Save(ctx, snapshot("b", false)))
	require.NoError(t, s.Delete(ctx, "b"))
	require.NoError(t, s.Compact())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, countLines(data))
	got, err := s.Load(ctx, "a")
	require.NoError(t, err)
	assert.True(t, got.Edited)
}

func TestOpenJSONLCompactsOnClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rota.jsonl")
	st, closeFn, err := Open(Config{Backend: "jsonl", Path: path})
	require.NoError(t, err)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, st.Save(ctx, snapshot("a", i%2 == 1)))
	}
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, countLines(data))

	require.NoError(t, closeFn())
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, countLines(data))

	_, closeFn, err = Open(Config{Backend: "jsonl", Path: filepath.Join(t.TempDir(), "unused.jsonl")})
	require.NoError(t, err)
	require.NoError(t, closeFn())
}

func TestJSONLCorruptLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rota.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{not json\n"), 0o644))
	_, err := NewJSONLStore(path).List(context.Background())
	assert.Error(t, err)
}

func TestManagerResumesFromSQLite(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "rota.db"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, snapshot("ws1", true)))

	mgr := workspace.NewManager(s, workspace.Options{})
	w, err := mgr.Get(ctx, "ws1")
	require.NoError(t, err)
	assert.True(t, w.Edited())
	rows, err := w.Rows()
	require.NoError(t, err)
	assert.Equal(t, []string{"aoi"}, rows[0].Members)
	assert.Equal(t, "ren", w.Roster().Entries[0].Name)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	s, closeFn, err := Open(Config{Backend: "sqlite", Path: filepath.Join(dir, "x.db")})
	require.NoError(t, err)
	_, ok := s.(*SQLiteStore)
	assert.True(t, ok)
	require.NoError(t, closeFn())

	s, _, err = Open(Config{Backend: "none"})
	require.NoError(t, err)
	assert.Nil(t, s)

	_, _, err = Open(Config{Backend: "redis"})
	assert.Error(t, err)

	cfg := Config{}
	cfg.SetDefaults()
	assert.Equal(t, "jsonl", cfg.Backend)
	assert.Equal(t, "rota.jsonl", cfg.Path)
}

func countLines(data []byte) int {
	n := 0
	for _, b := range data {
		if b == '\n' {
			n++
		}
	}
	return n
}
