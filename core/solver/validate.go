package solver

import "github.com/kilianp07/rota/core/classify"

// Validate checks in before solving and returns a *ConfigurationError
// listing every issue found, or nil.
func Validate(in Input) error {
	cerr := &ConfigurationError{}
	m := in.Matrix
	if m == nil {
		cerr.add("", "", "no availability matrix")
		return cerr
	}
	if len(in.Settings.Sessions) != m.NumSessions() {
		cerr.add("", "", "settings cover %d sessions, matrix has %d", len(in.Settings.Sessions), m.NumSessions())
		return cerr
	}

	sumMin, sumMax := 0, 0
	for s, ss := range in.Settings.Sessions {
		label := m.Session(s)
		if ss.Label != "" && ss.Label != label {
			cerr.add(label, "", "settings label %q does not match", ss.Label)
		}
		if ss.Min < 0 || ss.Max < 0 {
			cerr.add(label, "", "negative bound")
		}
		if ss.SubMin != nil && *ss.SubMin < 0 || ss.SubMax != nil && *ss.SubMax < 0 {
			cerr.add(label, "", "negative subgroup bound")
		}
		if !ss.IsEnabled() {
			continue
		}
		if ss.Min > ss.Max {
			cerr.add(label, "", "min %d exceeds max %d", ss.Min, ss.Max)
		}
		if ss.SubMin != nil && ss.SubMax != nil && *ss.SubMin > *ss.SubMax {
			cerr.add(label, "", "subgroup min %d exceeds subgroup max %d", *ss.SubMin, *ss.SubMax)
		}
		if ss.SubMin != nil && *ss.SubMin > ss.Max {
			cerr.add(label, "", "subgroup min %d exceeds max %d", *ss.SubMin, ss.Max)
		}
		sumMin += ss.Min
		sumMax += ss.Max
	}

	for name, t := range in.Settings.Targets {
		if _, ok := m.MemberIndex(name); !ok {
			cerr.add("", name, "target set for unknown member")
		}
		if t < 0 {
			cerr.add("", name, "negative target %d", t)
		}
	}

	if sg := in.Settings.Subgroup; sg != "" && in.Roster.HasGroups() && anySubQuota(in.Settings) {
		found := false
		for i := 0; i < m.NumMembers() && !found; i++ {
			found = in.Roster.Group(m.Member(i)) == sg
		}
		if !found {
			cerr.add("", "", "subgroup %q has no roster members", sg)
		}
	}

	units := 0
	for i, active := range classify.Active(m) {
		if !active {
			continue
		}
		name := m.Member(i)
		t := in.Settings.Target(name)
		units += t
		open := 0
		for _, s := range classify.MovableSessions(m, i) {
			if in.Settings.Sessions[s].IsEnabled() {
				open++
			}
		}
		if t > open {
			cerr.add("", name, "target %d exceeds %d available sessions", t, open)
		}
	}
	if sumMin > units {
		cerr.add("", "", "session minimums add up to %d but only %d placements are available", sumMin, units)
	}
	if sumMax < units {
		cerr.add("", "", "session maximums add up to %d but %d placements are required", sumMax, units)
	}

	if len(cerr.Issues) > 0 {
		return cerr
	}
	return nil
}
