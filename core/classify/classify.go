// Package classify derives per-member activity and lock status from an
// availability matrix.
package classify

import "github.com/kilianp07/rota/core/model"

// IsActive reports whether member has at least one Available or Tentative session.
func IsActive(m *model.Matrix, member int) bool {
	for s := 0; s < m.NumSessions(); s++ {
		if m.Status(s, member).Movable() {
			return true
		}
	}
	return false
}

// Active returns the activity flag of every member, in sheet order.
func Active(m *model.Matrix) []bool {
	out := make([]bool, m.NumMembers())
	for i := range out {
		out[i] = IsActive(m, i)
	}
	return out
}

// ActiveNames returns the names of the active members in sheet order.
func ActiveNames(m *model.Matrix) []string {
	var out []string
	for i := 0; i < m.NumMembers(); i++ {
		if IsActive(m, i) {
			out = append(out, m.Member(i))
		}
	}
	return out
}

// MovableSessions returns the sessions member may be placed on.
func MovableSessions(m *model.Matrix, member int) []int {
	var out []int
	for s := 0; s < m.NumSessions(); s++ {
		if m.Status(s, member).Movable() {
			out = append(out, s)
		}
	}
	return out
}

// IsLocked reports whether member has no movable session outside current.
func IsLocked(m *model.Matrix, member int, current []int) bool {
	in := make(map[int]bool, len(current))
	for _, s := range current {
		in[s] = true
	}
	for _, s := range MovableSessions(m, member) {
		if !in[s] {
			return false
		}
	}
	return true
}
