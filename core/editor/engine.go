package editor

import (
	"fmt"
	"time"

	"github.com/kilianp07/rota/core/logger"
	"github.com/kilianp07/rota/core/metrics"
	"github.com/kilianp07/rota/core/model"
)

// Engine drives Step against a current assignment and reports applied and
// rejected actions. It is not safe for concurrent use.
type Engine struct {
	id       string
	state    State
	a        *model.Assignment
	log      logger.Logger
	recorder metrics.EditRecorder
}

// NewEngine returns an idle engine editing a. id labels log and metric records.
func NewEngine(id string, a *model.Assignment, log logger.Logger, rec metrics.EditRecorder) *Engine {
	if rec == nil {
		rec = metrics.NopSink{}
	}
	return &Engine{id: id, state: IdleState(), a: a, log: logger.OrNop(log), recorder: rec}
}

// State returns the current edit state.
func (e *Engine) State() State { return e.state }

// Assignment returns the assignment being edited.
func (e *Engine) Assignment() *model.Assignment { return e.a }

// Reset replaces the assignment and returns to Idle.
func (e *Engine) Reset(a *model.Assignment) {
	e.a = a
	e.state = IdleState()
}

// PickMember picks the placement of member name on session label.
func (e *Engine) PickMember(name, session string) (Outcome, error) {
	m := e.a.Matrix()
	i, ok := m.MemberIndex(name)
	if !ok {
		return rejected(), fmt.Errorf("%w: member %q", model.ErrUnknownIndex, name)
	}
	s, ok := m.SessionIndex(session)
	if !ok {
		return rejected(), fmt.Errorf("%w: session %q", model.ErrUnknownIndex, session)
	}
	return e.Apply(Action{Kind: PickMember, Member: i, Session: s}), nil
}

// PickSession picks the header of session label.
func (e *Engine) PickSession(session string) (Outcome, error) {
	s, ok := e.a.Matrix().SessionIndex(session)
	if !ok {
		return rejected(), fmt.Errorf("%w: session %q", model.ErrUnknownIndex, session)
	}
	return e.Apply(Action{Kind: PickSession, Session: s}), nil
}

// Cancel returns to Idle without touching the assignment.
func (e *Engine) Cancel() Outcome { return e.Apply(Action{Kind: Cancel}) }

// Apply runs one action through Step.
func (e *Engine) Apply(action Action) Outcome {
	next, out := Step(e.state, action, e.a)
	e.state = next
	e.report(out)
	return out
}

// View builds the board for the current state.
func (e *Engine) View(settings model.Settings) View {
	return BuildView(e.state, e.a, settings)
}

func (e *Engine) report(out Outcome) {
	m := e.a.Matrix()
	ev := metrics.EditEvent{WorkspaceID: e.id, Applied: out.Applied(), Time: time.Now()}
	switch out.Result {
	case Moved, Swapped:
		ev.Kind = "move"
		if out.Result == Swapped {
			ev.Kind = "swap"
		}
		ev.Member, ev.From, ev.To = m.Member(out.Member), m.Session(out.From), m.Session(out.To)
		e.log.Debugw("edit applied", map[string]any{
			"workspace": e.id, "kind": ev.Kind, "member": ev.Member, "from": ev.From, "to": ev.To,
		})
	case Rejected:
		ev.Kind = "rejected"
		e.log.Debugw("edit rejected", map[string]any{"workspace": e.id, "state": e.state.Kind.String()})
	case Cancelled:
		ev.Kind = "cancel"
	default:
		ev.Kind = "select"
	}
	if err := e.recorder.RecordEdit(ev); err != nil {
		e.log.Errorf("edit metrics error: %v", err)
	}
}
