package model

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateSession is returned when two sessions share a label.
	ErrDuplicateSession = errors.New("duplicate session label")
	// ErrDuplicateMember is returned when two members share a name.
	ErrDuplicateMember = errors.New("duplicate member name")
	// ErrShape is returned when the status grid does not match the labels.
	ErrShape = errors.New("matrix shape mismatch")
)

// Matrix is the immutable availability grid: one row per session, one
// column per member. Sessions keep the order they were given in.
type Matrix struct {
	sessions   []string
	members    []string
	cells      [][]Status
	sessionIdx map[string]int
	memberIdx  map[string]int
}

// NewMatrix builds a Matrix. cells is indexed [session][member].
func NewMatrix(sessions, members []string, cells [][]Status) (*Matrix, error) {
	if len(cells) != len(sessions) {
		return nil, fmt.Errorf("%w: %d rows for %d sessions", ErrShape, len(cells), len(sessions))
	}
	m := &Matrix{
		sessions:   append([]string(nil), sessions...),
		members:    append([]string(nil), members...),
		cells:      make([][]Status, len(sessions)),
		sessionIdx: make(map[string]int, len(sessions)),
		memberIdx:  make(map[string]int, len(members)),
	}
	for i, s := range sessions {
		if _, ok := m.sessionIdx[s]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateSession, s)
		}
		m.sessionIdx[s] = i
	}
	for i, name := range members {
		if _, ok := m.memberIdx[name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateMember, name)
		}
		m.memberIdx[name] = i
	}
	for i, row := range cells {
		if len(row) != len(members) {
			return nil, fmt.Errorf("%w: session %q has %d cells for %d members", ErrShape, sessions[i], len(row), len(members))
		}
		m.cells[i] = append([]Status(nil), row...)
	}
	return m, nil
}

// NumSessions returns the number of sessions.
func (m *Matrix) NumSessions() int { return len(m.sessions) }

// NumMembers returns the number of members.
func (m *Matrix) NumMembers() int { return len(m.members) }

// Sessions returns a copy of the session labels in schedule order.
func (m *Matrix) Sessions() []string { return append([]string(nil), m.sessions...) }

// Members returns a copy of the member names in sheet order.
func (m *Matrix) Members() []string { return append([]string(nil), m.members...) }

// Session returns the label of session s.
func (m *Matrix) Session(s int) string { return m.sessions[s] }

// Member returns the name of member i.
func (m *Matrix) Member(i int) string { return m.members[i] }

// SessionIndex looks up a session by label.
func (m *Matrix) SessionIndex(label string) (int, bool) {
	i, ok := m.sessionIdx[label]
	return i, ok
}

// MemberIndex looks up a member by name.
func (m *Matrix) MemberIndex(name string) (int, bool) {
	i, ok := m.memberIdx[name]
	return i, ok
}

// Status returns the availability of member for session s.
func (m *Matrix) Status(s, member int) Status { return m.cells[s][member] }

// StatusOf returns the availability by label and name. Unknown labels or
// names are Unavailable.
func (m *Matrix) StatusOf(session, member string) Status {
	s, ok := m.sessionIdx[session]
	if !ok {
		return Unavailable
	}
	i, ok := m.memberIdx[member]
	if !ok {
		return Unavailable
	}
	return m.cells[s][i]
}

// Cells returns a copy of the grid.
func (m *Matrix) Cells() [][]Status {
	out := make([][]Status, len(m.cells))
	for i, row := range m.cells {
		out[i] = append([]Status(nil), row...)
	}
	return out
}
