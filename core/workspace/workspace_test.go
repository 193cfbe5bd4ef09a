package workspace

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/rota/core/editor"
	"github.com/kilianp07/rota/core/metrics"
	"github.com/kilianp07/rota/core/model"
	"github.com/kilianp07/rota/core/solver"
	"github.com/kilianp07/rota/internal/eventbus"
)

type memStore struct {
	mu    sync.Mutex
	snaps map[string]Snapshot
}

func newMemStore() *memStore { return &memStore{snaps: map[string]Snapshot{}} }

func (s *memStore) Save(_ context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps[snap.ID] = snap
	return nil
}

func (s *memStore) Load(_ context.Context, id string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snaps[id]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	return snap, nil
}

func (s *memStore) List(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for id := range s.snaps {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *memStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.snaps[id]; !ok {
		return ErrNotFound
	}
	delete(s.snaps, id)
	return nil
}

type solveSink struct{ events []metrics.SolveEvent }

func (s *solveSink) RecordSolve(ev metrics.SolveEvent) error {
	s.events = append(s.events, ev)
	return nil
}

func grid(t *testing.T) *model.Matrix {
	t.Helper()
	A, U := model.Available, model.Unavailable
	m, err := model.NewMatrix(
		[]string{"mon", "tue"},
		[]string{"aoi", "ren", "sho"},
		[][]model.Status{
			{A, A, U},
			{A, A, A},
		})
	require.NoError(t, err)
	return m
}

func bounds(m *model.Matrix, lo, hi int) model.Settings {
	s := model.DefaultSettings(m)
	s.ApplyBulk(lo, hi)
	return s
}

func TestGenerateAndEdit(t *testing.T) {
	bus := eventbus.New[Event]()
	sub := bus.Subscribe()
	sink := &solveSink{}
	m := grid(t)
	w := New(m, nil, bounds(m, 1, 2), Options{Bus: bus, Sink: sink})
	assert.NotEmpty(t, w.ID())

	_, err := w.PickSession("mon")
	assert.ErrorIs(t, err, ErrNotGenerated)

	res, err := w.Generate(false)
	require.NoError(t, err)
	assert.Equal(t, 6.0, res.Objective)
	ev := <-sub
	assert.Equal(t, ReasonGenerated, ev.Reason)
	assert.Len(t, ev.Rows, 2)
	require.Len(t, sink.events, 1)
	assert.Equal(t, "optimal", sink.events[0].Outcome)
	assert.Equal(t, 3, sink.events[0].Assigned)

	// sho is only available on tue.
	rows, err := w.Rows()
	require.NoError(t, err)
	assert.Contains(t, rows[1].Members, "sho")

	name := rows[0].Members[0]
	_, err = w.PickMember(name, "mon")
	require.NoError(t, err)
	out, err := w.PickSession("tue")
	require.NoError(t, err)
	require.Equal(t, editor.Moved, out.Result)
	assert.True(t, w.Edited())
	ev = <-sub
	assert.Equal(t, ReasonEdited, ev.Reason)

	_, err = w.Generate(false)
	assert.ErrorIs(t, err, ErrConfirmRequired)
	assert.True(t, w.Edited())

	_, err = w.Generate(true)
	require.NoError(t, err)
	assert.False(t, w.Edited())
}

func TestFailedGenerateKeepsAssignment(t *testing.T) {
	m := grid(t)
	w := New(m, nil, bounds(m, 1, 2), Options{})
	_, err := w.Generate(false)
	require.NoError(t, err)
	before, err := w.Assignment()
	require.NoError(t, err)

	require.NoError(t, w.UpdateSettings(bounds(m, 3, 3)))
	var cerr *solver.ConfigurationError
	assert.ErrorAs(t, w.Check(), &cerr)
	_, err = w.Generate(true)
	assert.ErrorAs(t, err, &cerr)

	after, err := w.Assignment()
	require.NoError(t, err)
	assert.True(t, before.Equal(after))

	assert.Error(t, w.UpdateSettings(model.Settings{}))
}

func TestDefaultSettingsApplied(t *testing.T) {
	m := grid(t)
	w := New(m, nil, model.Settings{Targets: map[string]int{"aoi": 1}}, Options{})
	s := w.Settings()
	require.Len(t, s.Sessions, 2)
	assert.Equal(t, "mon", s.Sessions[0].Label)
	assert.Equal(t, 1, s.Targets["aoi"])
}

func TestSnapshotRestore(t *testing.T) {
	m := grid(t)
	r := model.NewRoster([]model.RosterEntry{{Name: "sho", Rank: 1, Group: "g"}})
	w := New(m, r, bounds(m, 1, 2), Options{})
	_, err := w.Generate(false)
	require.NoError(t, err)
	_, err = w.PickSession("mon")
	require.NoError(t, err)

	snap := w.Snapshot()
	assert.Equal(t, w.ID(), snap.ID)
	assert.Equal(t, "unavailable", snap.Cells[0][2])

	back, err := Restore(snap, Options{})
	require.NoError(t, err)
	assert.Equal(t, w.ID(), back.ID())
	a1, _ := w.Assignment()
	a2, _ := back.Assignment()
	assert.True(t, a1.Equal(a2))
	v, err := back.View()
	require.NoError(t, err)
	assert.Equal(t, editor.Idle, v.State.Kind)
	assert.Equal(t, "g", back.Roster().Group("sho"))
}

func TestManagerResumeAndDelete(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	mgr := NewManager(store, Options{})
	m := grid(t)
	w := mgr.Create(m, nil, bounds(m, 1, 2))
	_, err := w.Generate(false)
	require.NoError(t, err)
	require.NoError(t, mgr.Save(ctx, w.ID()))

	other := NewManager(store, Options{})
	got, err := other.Get(ctx, w.ID())
	require.NoError(t, err)
	rows, err := got.Rows()
	require.NoError(t, err)
	want, _ := w.Rows()
	assert.Equal(t, want, rows)

	ids, err := other.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{w.ID()}, ids)

	require.NoError(t, other.Delete(ctx, w.ID()))
	_, err = other.Get(ctx, w.ID())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, NewManager(nil, Options{}).Delete(ctx, "nope"), ErrNotFound)
}

func TestManagerAutoSave(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := newMemStore()
	bus := eventbus.New[Event]()
	mgr := NewManager(store, Options{Bus: bus})
	done := mgr.AutoSave(ctx)

	m := grid(t)
	w := mgr.Create(m, nil, bounds(m, 1, 2))
	_, err := w.Generate(false)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, err := store.Load(ctx, w.ID())
		return err == nil
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("autosave did not stop")
	}
}
