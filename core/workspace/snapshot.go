package workspace

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/rota/core/model"
)

// Snapshot is the persisted form of a workspace. Edit state is not kept; a
// restored workspace starts Idle.
type Snapshot struct {
	ID         string              `json:"id"`
	Sessions   []string            `json:"sessions"`
	Members    []string            `json:"members"`
	Cells      [][]string          `json:"cells"`
	Roster     []model.RosterEntry `json:"roster,omitempty"`
	Settings   model.Settings      `json:"settings"`
	Assignment [][]string          `json:"assignment,omitempty"`
	Edited     bool                `json:"edited"`
	SavedAt    time.Time           `json:"saved_at"`
}

// Store persists snapshots. Load returns ErrNotFound for unknown ids.
type Store interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context, id string) (Snapshot, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, id string) error
}

// Matrix rebuilds the availability grid.
func (s Snapshot) Matrix() (*model.Matrix, error) {
	cells := make([][]model.Status, len(s.Cells))
	for i, row := range s.Cells {
		cells[i] = make([]model.Status, len(row))
		for j, raw := range row {
			cells[i][j] = model.ParseStatus(raw)
		}
	}
	return model.NewMatrix(s.Sessions, s.Members, cells)
}

func snapshotCells(m *model.Matrix) [][]string {
	out := make([][]string, m.NumSessions())
	for s := range out {
		out[s] = make([]string, m.NumMembers())
		for i := range out[s] {
			out[s][i] = m.Status(s, i).String()
		}
	}
	return out
}

// Restore rebuilds a workspace from snap, keeping its id.
func Restore(snap Snapshot, opts Options) (*Workspace, error) {
	m, err := snap.Matrix()
	if err != nil {
		return nil, fmt.Errorf("restore %s: %w", snap.ID, err)
	}
	var r *model.Roster
	if len(snap.Roster) > 0 {
		r = model.NewRoster(snap.Roster)
	}
	w := newWorkspace(snap.ID, m, r, snap.Settings, opts)
	if snap.Assignment != nil {
		a, err := model.AssignmentFromNames(m, r, snap.Assignment)
		if err != nil {
			return nil, fmt.Errorf("restore %s: %w", snap.ID, err)
		}
		w.attach(a)
		w.edited = snap.Edited
	}
	return w, nil
}
