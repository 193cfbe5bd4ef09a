package model

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrEditConflict is returned when a move or swap would duplicate a
	// member in a session or place it where it is unavailable.
	ErrEditConflict = errors.New("edit conflict")
	// ErrNotAssigned is returned when a member is not placed on the session.
	ErrNotAssigned = errors.New("member not assigned to session")
	// ErrUnknownIndex is returned for out of range session or member indexes.
	ErrUnknownIndex = errors.New("unknown session or member")
)

// Entry is one placement in an exported row.
type Entry struct {
	Name string `json:"name"`
	// Occurrence is the 1-based index of this placement among the member's
	// placements in schedule order, or 0 when the member is placed once.
	Occurrence int `json:"occurrence,omitempty"`
}

// Row is the exported view of one session.
type Row struct {
	Session string   `json:"session"`
	Members []string `json:"members"`
	Entries []Entry  `json:"entries"`
	Count   int      `json:"count"`
}

// Assignment maps each session to the ordered list of members placed on it.
type Assignment struct {
	matrix *Matrix
	roster *Roster
	slots  [][]int
}

// NewAssignment builds an Assignment from member indexes per session. It
// rejects duplicates and placements on unavailable sessions.
func NewAssignment(m *Matrix, r *Roster, slots [][]int) (*Assignment, error) {
	if len(slots) != m.NumSessions() {
		return nil, fmt.Errorf("%w: %d slots for %d sessions", ErrShape, len(slots), m.NumSessions())
	}
	a := &Assignment{matrix: m, roster: r, slots: make([][]int, len(slots))}
	for s, members := range slots {
		seen := make(map[int]bool, len(members))
		for _, i := range members {
			if i < 0 || i >= m.NumMembers() {
				return nil, fmt.Errorf("%w: member %d", ErrUnknownIndex, i)
			}
			if seen[i] {
				return nil, fmt.Errorf("%w: %q twice on %q", ErrEditConflict, m.Member(i), m.Session(s))
			}
			if !m.Status(s, i).Movable() {
				return nil, fmt.Errorf("%w: %q unavailable on %q", ErrEditConflict, m.Member(i), m.Session(s))
			}
			seen[i] = true
		}
		a.slots[s] = append([]int(nil), members...)
		a.sortSlot(s)
	}
	return a, nil
}

// AssignmentFromNames builds an Assignment from member names per session.
func AssignmentFromNames(m *Matrix, r *Roster, names [][]string) (*Assignment, error) {
	slots := make([][]int, len(names))
	for s, list := range names {
		for _, n := range list {
			i, ok := m.MemberIndex(n)
			if !ok {
				return nil, fmt.Errorf("%w: member %q", ErrUnknownIndex, n)
			}
			slots[s] = append(slots[s], i)
		}
	}
	return NewAssignment(m, r, slots)
}

// Matrix returns the availability grid the assignment refers to.
func (a *Assignment) Matrix() *Matrix { return a.matrix }

// Roster returns the ordering policy, possibly nil.
func (a *Assignment) Roster() *Roster { return a.roster }

// Members returns a copy of the member indexes on session s.
func (a *Assignment) Members(s int) []int { return append([]int(nil), a.slots[s]...) }

// Names returns the member names on session s in display order.
func (a *Assignment) Names(s int) []string {
	out := make([]string, len(a.slots[s]))
	for k, i := range a.slots[s] {
		out[k] = a.matrix.Member(i)
	}
	return out
}

// Count returns the number of members on session s.
func (a *Assignment) Count(s int) int { return len(a.slots[s]) }

// Total returns the number of placements over all sessions.
func (a *Assignment) Total() int {
	n := 0
	for _, sl := range a.slots {
		n += len(sl)
	}
	return n
}

// Contains reports whether member is placed on session s.
func (a *Assignment) Contains(s, member int) bool {
	for _, i := range a.slots[s] {
		if i == member {
			return true
		}
	}
	return false
}

// SessionsOf returns the sessions member is placed on, in schedule order.
func (a *Assignment) SessionsOf(member int) []int {
	var out []int
	for s := range a.slots {
		if a.Contains(s, member) {
			out = append(out, s)
		}
	}
	return out
}

// CountOf returns the number of sessions member is placed on.
func (a *Assignment) CountOf(member int) int { return len(a.SessionsOf(member)) }

// Occurrence returns the 1-based position of session s among the sessions
// of member when the member is placed more than once, 0 otherwise.
func (a *Assignment) Occurrence(s, member int) int {
	sessions := a.SessionsOf(member)
	if len(sessions) < 2 {
		return 0
	}
	for k, v := range sessions {
		if v == s {
			return k + 1
		}
	}
	return 0
}

// Rows returns the exported view of every session in schedule order.
func (a *Assignment) Rows() []Row {
	rows := make([]Row, len(a.slots))
	for s := range a.slots {
		names := a.Names(s)
		entries := make([]Entry, len(names))
		for k, i := range a.slots[s] {
			entries[k] = Entry{Name: names[k], Occurrence: a.Occurrence(s, i)}
		}
		rows[s] = Row{Session: a.matrix.Session(s), Members: names, Entries: entries, Count: len(names)}
	}
	return rows
}

// NameSlots returns the member names per session, suitable for persistence.
func (a *Assignment) NameSlots() [][]string {
	out := make([][]string, len(a.slots))
	for s := range a.slots {
		out[s] = a.Names(s)
	}
	return out
}

// Clone returns an independent copy sharing the immutable matrix and roster.
func (a *Assignment) Clone() *Assignment {
	c := &Assignment{matrix: a.matrix, roster: a.roster, slots: make([][]int, len(a.slots))}
	for s, sl := range a.slots {
		c.slots[s] = append([]int(nil), sl...)
	}
	return c
}

// Equal compares per-session member sets, ignoring order.
func (a *Assignment) Equal(b *Assignment) bool {
	if len(a.slots) != len(b.slots) {
		return false
	}
	for s := range a.slots {
		if len(a.slots[s]) != len(b.slots[s]) {
			return false
		}
		for _, i := range a.slots[s] {
			if !b.Contains(s, i) {
				return false
			}
		}
	}
	return true
}

func (a *Assignment) valid(s, member int) bool {
	return s >= 0 && s < len(a.slots) && member >= 0 && member < a.matrix.NumMembers()
}

// CanMove reports whether member may be moved from one session to another.
func (a *Assignment) CanMove(member, from, to int) bool {
	if !a.valid(from, member) || !a.valid(to, member) || from == to {
		return false
	}
	return a.Contains(from, member) &&
		!a.Contains(to, member) &&
		a.matrix.Status(to, member).Movable()
}

// CanSwap reports whether mA on sA and mB on sB may exchange sessions.
func (a *Assignment) CanSwap(mA, sA, mB, sB int) bool {
	if !a.valid(sA, mA) || !a.valid(sB, mB) || mA == mB || sA == sB {
		return false
	}
	return a.Contains(sA, mA) && a.Contains(sB, mB) &&
		!a.Contains(sB, mA) && !a.Contains(sA, mB) &&
		a.matrix.Status(sB, mA).Movable() &&
		a.matrix.Status(sA, mB).Movable()
}

// Move relocates member from one session to another. Nothing changes when
// an error is returned.
func (a *Assignment) Move(member, from, to int) error {
	if !a.valid(from, member) || !a.valid(to, member) {
		return ErrUnknownIndex
	}
	if !a.Contains(from, member) {
		return ErrNotAssigned
	}
	if !a.CanMove(member, from, to) {
		return ErrEditConflict
	}
	a.remove(from, member)
	a.add(to, member)
	return nil
}

// Swap exchanges mA on sA with mB on sB as one transaction. Nothing changes
// when an error is returned.
func (a *Assignment) Swap(mA, sA, mB, sB int) error {
	if !a.valid(sA, mA) || !a.valid(sB, mB) {
		return ErrUnknownIndex
	}
	if !a.Contains(sA, mA) || !a.Contains(sB, mB) {
		return ErrNotAssigned
	}
	if !a.CanSwap(mA, sA, mB, sB) {
		return ErrEditConflict
	}
	a.remove(sA, mA)
	a.remove(sB, mB)
	a.add(sB, mA)
	a.add(sA, mB)
	return nil
}

func (a *Assignment) remove(s, member int) {
	sl := a.slots[s]
	for k, i := range sl {
		if i == member {
			a.slots[s] = append(sl[:k:k], sl[k+1:]...)
			return
		}
	}
}

func (a *Assignment) add(s, member int) {
	a.slots[s] = append(a.slots[s], member)
	a.sortSlot(s)
}

func (a *Assignment) sortSlot(s int) {
	sl := a.slots[s]
	sort.SliceStable(sl, func(i, j int) bool {
		return a.roster.Less(a.matrix.Member(sl[i]), a.matrix.Member(sl[j]))
	})
}
