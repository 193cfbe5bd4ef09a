// Package workspace holds the per-operator unit of work: an availability
// matrix, its roster and settings, the current assignment and the edit
// engine working on it.
package workspace

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/rota/core/editor"
	"github.com/kilianp07/rota/core/logger"
	"github.com/kilianp07/rota/core/metrics"
	"github.com/kilianp07/rota/core/model"
	"github.com/kilianp07/rota/core/solver"
	"github.com/kilianp07/rota/internal/eventbus"
)

var (
	// ErrConfirmRequired is returned when regenerating would discard edits.
	ErrConfirmRequired = errors.New("regenerating discards manual edits; confirmation required")
	// ErrNotFound is returned for unknown workspace ids.
	ErrNotFound = errors.New("workspace not found")
	// ErrNotGenerated is returned by edit operations before the first solve.
	ErrNotGenerated = errors.New("no assignment generated yet")
)

// Reasons carried by Event.
const (
	ReasonGenerated = "generated"
	ReasonEdited    = "edited"
	ReasonRestored  = "restored"
	ReasonSettings  = "settings"
)

// Event is published after every change a subscriber may want to mirror.
type Event struct {
	WorkspaceID string      `json:"workspace_id"`
	Reason      string      `json:"reason"`
	Rows        []model.Row `json:"rows,omitempty"`
	Time        time.Time   `json:"time"`
}

// Options carries the collaborators shared by workspaces.
type Options struct {
	Solver solver.Config
	Log    logger.Logger
	Sink   metrics.MetricsSink
	Edits  metrics.EditRecorder
	Bus    *eventbus.Bus[Event]
}

// Workspace is safe for concurrent use; actions are applied one at a time.
type Workspace struct {
	mu       sync.Mutex
	id       string
	matrix   *model.Matrix
	roster   *model.Roster
	settings model.Settings
	engine   *editor.Engine
	edited   bool
	last     solver.Result
	opts     Options
}

// New creates a workspace with a fresh id. A zero settings value is
// replaced by model.DefaultSettings.
func New(m *model.Matrix, r *model.Roster, s model.Settings, opts Options) *Workspace {
	return newWorkspace(uuid.NewString(), m, r, s, opts)
}

func newWorkspace(id string, m *model.Matrix, r *model.Roster, s model.Settings, opts Options) *Workspace {
	if s.Sessions == nil {
		def := model.DefaultSettings(m)
		def.Subgroup, def.Targets = s.Subgroup, s.Targets
		s = def
	}
	opts.Log = logger.OrNop(opts.Log)
	if opts.Sink == nil {
		opts.Sink = metrics.NopSink{}
	}
	if opts.Edits == nil {
		opts.Edits = metrics.NopSink{}
	}
	return &Workspace{id: id, matrix: m, roster: r, settings: s.Clone(), opts: opts}
}

func (w *Workspace) attach(a *model.Assignment) {
	if w.engine == nil {
		w.engine = editor.NewEngine(w.id, a, w.opts.Log, w.opts.Edits)
		return
	}
	w.engine.Reset(a)
}

// ID returns the workspace id.
func (w *Workspace) ID() string { return w.id }

// Matrix returns the immutable availability grid.
func (w *Workspace) Matrix() *model.Matrix { return w.matrix }

// Roster returns the roster, possibly nil.
func (w *Workspace) Roster() *model.Roster { return w.roster }

// Settings returns a copy of the current settings.
func (w *Workspace) Settings() model.Settings {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.settings.Clone()
}

// Edited reports whether the current assignment has manual edits.
func (w *Workspace) Edited() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.edited
}

// LastResult returns the statistics of the last successful solve.
func (w *Workspace) LastResult() solver.Result {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

// UpdateSettings replaces the settings. The shape must match the matrix;
// consistency of the bounds is checked by Check and by Generate.
func (w *Workspace) UpdateSettings(s model.Settings) error {
	if len(s.Sessions) != w.matrix.NumSessions() {
		return fmt.Errorf("settings cover %d sessions, matrix has %d", len(s.Sessions), w.matrix.NumSessions())
	}
	w.mu.Lock()
	w.settings = s.Clone()
	w.mu.Unlock()
	w.publish(ReasonSettings, nil)
	return nil
}

// Check validates the current settings without solving. A non-nil result
// is a *solver.ConfigurationError.
func (w *Workspace) Check() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return solver.Validate(w.input())
}

func (w *Workspace) input() solver.Input {
	return solver.Input{Matrix: w.matrix, Roster: w.roster, Settings: w.settings}
}

// Generate solves and replaces the current assignment. It refuses with
// ErrConfirmRequired when that would discard manual edits and confirm is
// false. On failure the previous assignment is kept.
func (w *Workspace) Generate(confirm bool) (solver.Result, error) {
	w.mu.Lock()
	if w.edited && !confirm {
		w.mu.Unlock()
		return solver.Result{}, ErrConfirmRequired
	}
	in := w.input()
	a, res, err := solver.Solve(w.opts.Solver, w.opts.Log, in)
	w.record(res, a, err)
	if err != nil {
		w.mu.Unlock()
		return res, err
	}
	w.attach(a)
	w.edited = false
	w.last = res
	rows := a.Rows()
	w.mu.Unlock()

	w.opts.Log.Infof("workspace %s generated: objective %.1f in %s", w.id, res.Objective, res.Duration)
	w.publish(ReasonGenerated, rows)
	return res, nil
}

func (w *Workspace) record(res solver.Result, a *model.Assignment, err error) {
	ev := metrics.SolveEvent{
		WorkspaceID: w.id,
		Outcome:     solver.Outcome(err),
		Sessions:    w.matrix.NumSessions(),
		Members:     w.matrix.NumMembers(),
		Objective:   res.Objective,
		Penalty:     res.Penalty,
		Nodes:       res.Nodes,
		Duration:    res.Duration,
		Time:        time.Now(),
	}
	if a != nil {
		ev.Assigned = a.Total()
	}
	if rerr := w.opts.Sink.RecordSolve(ev); rerr != nil {
		w.opts.Log.Errorf("solve metrics error: %v", rerr)
	}
}

// PickMember forwards a placement pick to the edit engine.
func (w *Workspace) PickMember(name, session string) (editor.Outcome, error) {
	return w.apply(func(e *editor.Engine) (editor.Outcome, error) { return e.PickMember(name, session) })
}

// PickSession forwards a header pick to the edit engine.
func (w *Workspace) PickSession(session string) (editor.Outcome, error) {
	return w.apply(func(e *editor.Engine) (editor.Outcome, error) { return e.PickSession(session) })
}

// Cancel returns the edit engine to Idle.
func (w *Workspace) Cancel() (editor.Outcome, error) {
	return w.apply(func(e *editor.Engine) (editor.Outcome, error) { return e.Cancel(), nil })
}

func (w *Workspace) apply(fn func(*editor.Engine) (editor.Outcome, error)) (editor.Outcome, error) {
	w.mu.Lock()
	if w.engine == nil {
		w.mu.Unlock()
		return editor.Outcome{}, ErrNotGenerated
	}
	out, err := fn(w.engine)
	var rows []model.Row
	if err == nil && out.Applied() {
		w.edited = true
		rows = w.engine.Assignment().Rows()
	}
	w.mu.Unlock()
	if rows != nil {
		w.publish(ReasonEdited, rows)
	}
	return out, err
}

// View returns the board for the current edit state.
func (w *Workspace) View() (editor.View, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.engine == nil {
		return editor.View{}, ErrNotGenerated
	}
	return w.engine.View(w.settings), nil
}

// Rows returns the exported rows of the current assignment.
func (w *Workspace) Rows() ([]model.Row, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.engine == nil {
		return nil, ErrNotGenerated
	}
	return w.engine.Assignment().Rows(), nil
}

// Assignment returns a copy of the current assignment.
func (w *Workspace) Assignment() (*model.Assignment, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.engine == nil {
		return nil, ErrNotGenerated
	}
	return w.engine.Assignment().Clone(), nil
}

// Snapshot captures the persistent state.
func (w *Workspace) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	snap := Snapshot{
		ID:       w.id,
		Sessions: w.matrix.Sessions(),
		Members:  w.matrix.Members(),
		Cells:    snapshotCells(w.matrix),
		Settings: w.settings.Clone(),
		Edited:   w.edited,
		SavedAt:  time.Now().UTC(),
	}
	if w.roster != nil {
		snap.Roster = append([]model.RosterEntry(nil), w.roster.Entries...)
	}
	if w.engine != nil {
		snap.Assignment = w.engine.Assignment().NameSlots()
	}
	return snap
}

func (w *Workspace) publish(reason string, rows []model.Row) {
	if w.opts.Bus == nil {
		return
	}
	w.opts.Bus.Publish(Event{WorkspaceID: w.id, Reason: reason, Rows: rows, Time: time.Now()})
}
