package workspace

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/kilianp07/rota/core/model"
)

// Manager keys independent workspaces by id and optionally persists them.
type Manager struct {
	mu    sync.RWMutex
	items map[string]*Workspace
	store Store
	opts  Options
}

// NewManager returns a manager. store may be nil.
func NewManager(store Store, opts Options) *Manager {
	return &Manager{items: make(map[string]*Workspace), store: store, opts: opts}
}

// Options returns the options shared by managed workspaces.
func (m *Manager) Options() Options { return m.opts }

// Create registers a new workspace.
func (m *Manager) Create(mx *model.Matrix, r *model.Roster, s model.Settings) *Workspace {
	w := New(mx, r, s, m.opts)
	m.mu.Lock()
	m.items[w.ID()] = w
	m.mu.Unlock()
	return w
}

// Get returns the workspace with id, resuming it from the store when it is
// not loaded.
func (m *Manager) Get(ctx context.Context, id string) (*Workspace, error) {
	m.mu.RLock()
	w, ok := m.items[id]
	m.mu.RUnlock()
	if ok {
		return w, nil
	}
	if m.store == nil {
		return nil, ErrNotFound
	}
	snap, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	w, err = Restore(snap, m.opts)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	if existing, ok := m.items[id]; ok {
		w = existing
	} else {
		m.items[id] = w
	}
	m.mu.Unlock()
	w.publish(ReasonRestored, nil)
	return w, nil
}

// List returns the ids of loaded and stored workspaces, sorted.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	m.mu.RLock()
	for id := range m.items {
		seen[id] = true
	}
	m.mu.RUnlock()
	if m.store != nil {
		ids, err := m.store.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			seen[id] = true
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// Save persists the workspace with id. It is a no-op without a store.
func (m *Manager) Save(ctx context.Context, id string) error {
	if m.store == nil {
		return nil
	}
	m.mu.RLock()
	w, ok := m.items[id]
	m.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	if err := m.store.Save(ctx, w.Snapshot()); err != nil {
		return fmt.Errorf("save %s: %w", id, err)
	}
	return nil
}

// Delete forgets the workspace and removes it from the store.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	_, ok := m.items[id]
	delete(m.items, id)
	m.mu.Unlock()
	if m.store == nil {
		if !ok {
			return ErrNotFound
		}
		return nil
	}
	err := m.store.Delete(ctx, id)
	if errors.Is(err, ErrNotFound) && ok {
		return nil
	}
	return err
}

// AutoSave persists a workspace after every generate, edit or settings
// change published on the bus, until ctx is done. The returned channel is
// closed when the listener stops.
func (m *Manager) AutoSave(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	if m.opts.Bus == nil || m.store == nil {
		close(done)
		return done
	}
	log := m.opts.Log
	return m.opts.Bus.Listen(ctx, func(ev Event) {
		if ev.Reason == ReasonRestored {
			return
		}
		if err := m.Save(ctx, ev.WorkspaceID); err != nil && log != nil {
			log.Errorf("autosave %s: %v", ev.WorkspaceID, err)
		}
	})
}
