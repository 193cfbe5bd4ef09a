package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/kilianp07/rota/core/workspace"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists workspace snapshots in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS workspaces (
        id TEXT PRIMARY KEY,
        saved_at INTEGER,
        snapshot TEXT NOT NULL
    );`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Save inserts or replaces the snapshot.
func (s *SQLiteStore) Save(ctx context.Context, snap workspace.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO workspaces (id, saved_at, snapshot)
        VALUES (?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            saved_at = excluded.saved_at,
            snapshot = excluded.snapshot`,
		snap.ID, snap.SavedAt.UnixNano(), string(data))
	return err
}

// Load returns the snapshot with id.
func (s *SQLiteStore) Load(ctx context.Context, id string) (workspace.Snapshot, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT snapshot FROM workspaces WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return workspace.Snapshot{}, workspace.ErrNotFound
	}
	if err != nil {
		return workspace.Snapshot{}, err
	}
	var snap workspace.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return workspace.Snapshot{}, err
	}
	return snap, nil
}

// List returns the stored ids, sorted.
func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM workspaces ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		res = append(res, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Delete removes the snapshot with id.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM workspaces WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return workspace.ErrNotFound
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
