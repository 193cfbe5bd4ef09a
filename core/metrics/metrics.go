package metrics

import "time"

// SolveEvent describes one solver run.
type SolveEvent struct {
	WorkspaceID string
	Outcome     string
	Sessions    int
	Members     int
	Assigned    int
	Objective   float64
	Penalty     float64
	Nodes       int
	Duration    time.Duration
	Time        time.Time
}

// MetricsSink records solver runs for observability purposes.
type MetricsSink interface {
	RecordSolve(ev SolveEvent) error
}

// EditEvent describes one operator action on the board.
type EditEvent struct {
	WorkspaceID string
	// Kind is "move", "swap", "select", "cancel" or "rejected".
	Kind    string
	Member  string
	From    string
	To      string
	Applied bool
	Time    time.Time
}

// EditRecorder records operator actions.
type EditRecorder interface {
	RecordEdit(ev EditEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordSolve(SolveEvent) error { return nil }
func (NopSink) RecordEdit(EditEvent) error   { return nil }

// SessionFill is the staffing of one session after a change.
type SessionFill struct {
	Session  string
	Assigned int
}

// AssignmentEvent is the state of a workspace assignment after a change.
type AssignmentEvent struct {
	WorkspaceID string
	Reason      string
	Sessions    []SessionFill
	Time        time.Time
}

// AssignmentRecorder records assignment snapshots.
type AssignmentRecorder interface {
	RecordAssignment(ev AssignmentEvent) error
}

func (NopSink) RecordAssignment(AssignmentEvent) error { return nil }
