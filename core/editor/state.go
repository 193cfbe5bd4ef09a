// Package editor implements the operator edit engine: a three-state machine
// that turns picks on the board into Move and Swap mutations of an
// assignment.
package editor

import (
	"encoding/json"
	"fmt"

	"github.com/kilianp07/rota/core/model"
)

// Kind tags the active edit state.
type Kind int

const (
	Idle Kind = iota
	MemberSelected
	SessionSelected
)

func (k Kind) String() string {
	switch k {
	case MemberSelected:
		return "member_selected"
	case SessionSelected:
		return "session_selected"
	default:
		return "idle"
	}
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "idle", "":
		*k = Idle
	case "member_selected":
		*k = MemberSelected
	case "session_selected":
		*k = SessionSelected
	default:
		return fmt.Errorf("unknown edit state %q", b)
	}
	return nil
}

// State is the edit state. Member and Session are indexes into the matrix
// and are -1 when unused by Kind.
type State struct {
	Kind    Kind `json:"kind"`
	Member  int  `json:"member"`
	Session int  `json:"session"`
}

// IdleState returns the initial state.
func IdleState() State { return State{Kind: Idle, Member: -1, Session: -1} }

func memberSelected(member, session int) State {
	return State{Kind: MemberSelected, Member: member, Session: session}
}

func sessionSelected(session int) State {
	return State{Kind: SessionSelected, Member: -1, Session: session}
}

// Describe renders the state with names from m.
func (s State) Describe(m *model.Matrix) string {
	switch s.Kind {
	case MemberSelected:
		return fmt.Sprintf("%s on %s selected", m.Member(s.Member), m.Session(s.Session))
	case SessionSelected:
		return fmt.Sprintf("%s selected", m.Session(s.Session))
	}
	return "idle"
}

// ActionKind tags an operator action.
type ActionKind int

const (
	PickMember ActionKind = iota
	PickSession
	Cancel
)

// Action is one operator input. PickMember uses Member and Session,
// PickSession uses Session.
type Action struct {
	Kind    ActionKind
	Member  int
	Session int
}

// Result classifies what an action did.
type Result int

const (
	Rejected Result = iota
	Selected
	Deselected
	Moved
	Swapped
	Cancelled
)

func (r Result) String() string {
	switch r {
	case Selected:
		return "selected"
	case Deselected:
		return "deselected"
	case Moved:
		return "moved"
	case Swapped:
		return "swapped"
	case Cancelled:
		return "cancelled"
	default:
		return "rejected"
	}
}

// MarshalJSON encodes the result by name.
func (r Result) MarshalJSON() ([]byte, error) { return json.Marshal(r.String()) }

// Outcome reports the effect of one Step. For Moved, Member went From -> To.
// For Swapped, Member went From -> To and Other went To -> From.
type Outcome struct {
	Result Result
	Member int
	Other  int
	From   int
	To     int
}

// Applied reports whether the assignment changed.
func (o Outcome) Applied() bool { return o.Result == Moved || o.Result == Swapped }

func rejected() Outcome { return Outcome{Result: Rejected, Member: -1, Other: -1, From: -1, To: -1} }

func plain(r Result) Outcome {
	o := rejected()
	o.Result = r
	return o
}

// Step applies action to state. Move and Swap mutate a in place as a
// single transaction; a rejected action leaves both state and a unchanged.
func Step(state State, action Action, a *model.Assignment) (State, Outcome) {
	if action.Kind == Cancel {
		return IdleState(), plain(Cancelled)
	}
	m := a.Matrix()
	if action.Session < 0 || action.Session >= m.NumSessions() {
		return state, rejected()
	}
	if action.Kind == PickMember && (action.Member < 0 || action.Member >= m.NumMembers()) {
		return state, rejected()
	}

	switch state.Kind {
	case Idle:
		switch action.Kind {
		case PickMember:
			if !a.Contains(action.Session, action.Member) {
				return state, rejected()
			}
			return memberSelected(action.Member, action.Session), plain(Selected)
		case PickSession:
			return sessionSelected(action.Session), plain(Selected)
		}

	case MemberSelected:
		mA, sA := state.Member, state.Session
		switch action.Kind {
		case PickMember:
			mB, sB := action.Member, action.Session
			if mB == mA && sB == sA {
				return IdleState(), plain(Deselected)
			}
			if !a.CanSwap(mA, sA, mB, sB) || a.Swap(mA, sA, mB, sB) != nil {
				return state, rejected()
			}
			return IdleState(), Outcome{Result: Swapped, Member: mA, Other: mB, From: sA, To: sB}
		case PickSession:
			sT := action.Session
			if !a.CanMove(mA, sA, sT) || a.Move(mA, sA, sT) != nil {
				return state, rejected()
			}
			return IdleState(), Outcome{Result: Moved, Member: mA, Other: -1, From: sA, To: sT}
		}

	case SessionSelected:
		sT := state.Session
		switch action.Kind {
		case PickSession:
			if action.Session == sT {
				return IdleState(), plain(Deselected)
			}
			return state, rejected()
		case PickMember:
			mB, sB := action.Member, action.Session
			if !a.CanMove(mB, sB, sT) || a.Move(mB, sB, sT) != nil {
				return state, rejected()
			}
			return IdleState(), Outcome{Result: Moved, Member: mB, Other: -1, From: sB, To: sT}
		}
	}
	return state, rejected()
}
