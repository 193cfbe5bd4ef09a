package editor

import (
	"github.com/kilianp07/rota/core/classify"
	"github.com/kilianp07/rota/core/model"
)

// Header is the renderable state of one session column.
type Header struct {
	Session     string               `json:"session"`
	Index       int                  `json:"index"`
	Count       int                  `json:"count"`
	Min         int                  `json:"min"`
	Max         int                  `json:"max"`
	Enabled     bool                 `json:"enabled"`
	OutOfBounds bool                 `json:"out_of_bounds"`
	Highlight   model.HighlightState `json:"highlight"`
	Interactive bool                 `json:"interactive"`
}

// Cell is the renderable state of one placement.
type Cell struct {
	Member      string               `json:"member"`
	MemberIndex int                  `json:"member_index"`
	Session     int                  `json:"session"`
	Occurrence  int                  `json:"occurrence,omitempty"`
	Status      string               `json:"status"`
	Locked      bool                 `json:"locked"`
	Highlight   model.HighlightState `json:"highlight"`
	Interactive bool                 `json:"interactive"`
}

// Column is one session with its placements in display order.
type Column struct {
	Header Header `json:"header"`
	Cells  []Cell `json:"cells"`
}

// View is everything a renderer needs to draw the board.
type View struct {
	State     State    `json:"state"`
	Selection string   `json:"selection"`
	Columns   []Column `json:"columns"`
}

// BuildView derives highlights and interactivity from state. A header or
// cell is interactive exactly when picking it would not be rejected by Step,
// except that locked placements are not offered while idle even though Step
// still accepts them. settings may be empty, in which case bounds are not
// reported.
func BuildView(state State, a *model.Assignment, settings model.Settings) View {
	m := a.Matrix()
	v := View{State: state, Selection: state.Describe(m), Columns: make([]Column, m.NumSessions())}
	withBounds := len(settings.Sessions) == m.NumSessions()

	for s := 0; s < m.NumSessions(); s++ {
		h := Header{Session: m.Session(s), Index: s, Count: a.Count(s), Enabled: true}
		if withBounds {
			ss := settings.Sessions[s]
			h.Enabled = ss.IsEnabled()
			h.Min, h.Max = ss.Bounds()
			h.OutOfBounds = h.Count < h.Min || h.Count > h.Max
		}
		h.Highlight, h.Interactive = headerState(state, a, s)

		col := Column{Header: h}
		for _, i := range a.Members(s) {
			c := Cell{
				Member:      m.Member(i),
				MemberIndex: i,
				Session:     s,
				Occurrence:  a.Occurrence(s, i),
				Status:      m.Status(s, i).String(),
				Locked:      classify.IsLocked(m, i, a.SessionsOf(i)),
			}
			c.Highlight, c.Interactive = cellState(state, a, i, s, c.Locked)
			col.Cells = append(col.Cells, c)
		}
		v.Columns[s] = col
	}
	return v
}

func headerState(state State, a *model.Assignment, s int) (model.HighlightState, bool) {
	m := a.Matrix()
	switch state.Kind {
	case MemberSelected:
		if a.CanMove(state.Member, state.Session, s) {
			return model.MovableHighlight(m.Status(s, state.Member)), true
		}
		return model.Normal, false
	case SessionSelected:
		if s == state.Session {
			return model.Selected, true
		}
		return model.Normal, false
	}
	return model.Normal, true
}

func cellState(state State, a *model.Assignment, member, s int, locked bool) (model.HighlightState, bool) {
	m := a.Matrix()
	rest := model.Normal
	if locked {
		rest = model.Locked
	}
	switch state.Kind {
	case MemberSelected:
		if member == state.Member && s == state.Session {
			return model.Selected, true
		}
		if a.CanSwap(state.Member, state.Session, member, s) {
			return model.MovableHighlight(m.Status(state.Session, member)), true
		}
		return rest, false
	case SessionSelected:
		if a.CanMove(member, s, state.Session) {
			return model.MovableHighlight(m.Status(state.Session, member)), true
		}
		return rest, false
	}
	return rest, !locked
}
