package model

import "sort"

// RosterEntry describes one member in the roster policy.
type RosterEntry struct {
	Name  string `json:"name" yaml:"name"`
	Rank  int    `json:"rank" yaml:"rank"`
	Group string `json:"group,omitempty" yaml:"group,omitempty"`
}

// Roster provides display ordering and grouping for members. A nil Roster
// is valid and orders names alphabetically without groups.
type Roster struct {
	Entries []RosterEntry `json:"members" yaml:"members"`

	rank  map[string]int
	group map[string]string
}

// NewRoster indexes the given entries. Later duplicates override earlier ones.
func NewRoster(entries []RosterEntry) *Roster {
	r := &Roster{Entries: append([]RosterEntry(nil), entries...)}
	r.index()
	return r
}

func (r *Roster) index() {
	r.rank = make(map[string]int, len(r.Entries))
	r.group = make(map[string]string, len(r.Entries))
	for _, e := range r.Entries {
		r.rank[e.Name] = e.Rank
		if e.Group != "" {
			r.group[e.Name] = e.Group
		}
	}
}

func (r *Roster) ensure() {
	if r.rank == nil {
		r.index()
	}
}

// Rank returns the ordering rank of name.
func (r *Roster) Rank(name string) (int, bool) {
	if r == nil {
		return 0, false
	}
	r.ensure()
	v, ok := r.rank[name]
	return v, ok
}

// Group returns the group label of name, or "" when ungrouped.
func (r *Roster) Group(name string) string {
	if r == nil {
		return ""
	}
	r.ensure()
	return r.group[name]
}

// HasGroups reports whether any member carries a group label.
func (r *Roster) HasGroups() bool {
	if r == nil {
		return false
	}
	r.ensure()
	return len(r.group) > 0
}

// Less orders members by rank, ranked members first, then by name.
func (r *Roster) Less(a, b string) bool {
	ra, okA := r.Rank(a)
	rb, okB := r.Rank(b)
	switch {
	case okA && okB && ra != rb:
		return ra < rb
	case okA != okB:
		return okA
	}
	return a < b
}

// SortNames sorts names in place using Less. Solver output and edits share
// this routine so both paths produce the same ordering.
func (r *Roster) SortNames(names []string) {
	sort.SliceStable(names, func(i, j int) bool { return r.Less(names[i], names[j]) })
}
