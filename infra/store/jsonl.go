package store

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/kilianp07/rota/core/workspace"
)

// record is one line of the log. Deleted marks a tombstone.
type record struct {
	Deleted  bool                `json:"deleted,omitempty"`
	ID       string              `json:"id"`
	Snapshot *workspace.Snapshot `json:"snapshot,omitempty"`
}

// JSONLStore is an append-only log of snapshots. When an id appears more
// than once the last record wins.
type JSONLStore struct {
	mu   sync.Mutex
	path string
}

// NewJSONLStore returns a store writing to path. The file is created on
// the first save.
func NewJSONLStore(path string) *JSONLStore {
	return &JSONLStore{path: path}
}

func (s *JSONLStore) append(rec record) error {
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = f.Write(append(data, '\n'))
	return err
}

// replay reads the log and returns the latest snapshot per live id.
func (s *JSONLStore) replay() (map[string]workspace.Snapshot, error) {
	out := map[string]workspace.Snapshot{}
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	r := bufio.NewReader(f)
	for line := 1; ; line++ {
		data, err := r.ReadBytes('\n')
		if len(data) > 0 && !(len(data) == 1 && data[0] == '\n') {
			var rec record
			if jerr := json.Unmarshal(data, &rec); jerr != nil {
				return nil, fmt.Errorf("%s:%d: %w", s.path, line, jerr)
			}
			switch {
			case rec.Deleted:
				delete(out, rec.ID)
			case rec.Snapshot != nil:
				out[rec.ID] = *rec.Snapshot
			}
		}
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// Save appends the snapshot.
func (s *JSONLStore) Save(_ context.Context, snap workspace.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.append(record{ID: snap.ID, Snapshot: &snap})
}

// Load returns the latest snapshot with id.
func (s *JSONLStore) Load(_ context.Context, id string) (workspace.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.replay()
	if err != nil {
		return workspace.Snapshot{}, err
	}
	snap, ok := all[id]
	if !ok {
		return workspace.Snapshot{}, workspace.ErrNotFound
	}
	return snap, nil
}

// List returns the live ids, sorted.
func (s *JSONLStore) List(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.replay()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Delete appends a tombstone for id.
func (s *JSONLStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.replay()
	if err != nil {
		return err
	}
	if _, ok := all[id]; !ok {
		return workspace.ErrNotFound
	}
	return s.append(record{ID: id, Deleted: true})
}

// Compact rewrites the log keeping only the latest record per id. A missing
// log is left alone.
func (s *JSONLStore) Compact() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	all, err := s.replay()
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	enc := json.NewEncoder(f)
	for _, id := range ids {
		snap := all[id]
		if err := enc.Encode(record{ID: id, Snapshot: &snap}); err != nil {
			_ = f.Close()
			return err
		}
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
