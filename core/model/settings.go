package model

// SessionSettings holds the staffing bounds of one session.
type SessionSettings struct {
	Label   string `json:"label" yaml:"label"`
	Enabled *bool  `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Min     int    `json:"min" yaml:"min"`
	Max     int    `json:"max" yaml:"max"`
	SubMin  *int   `json:"sub_min,omitempty" yaml:"sub_min,omitempty"`
	SubMax  *int   `json:"sub_max,omitempty" yaml:"sub_max,omitempty"`
}

// IsEnabled reports whether the session takes part in solving. Sessions are
// enabled unless explicitly switched off.
func (s SessionSettings) IsEnabled() bool { return s.Enabled == nil || *s.Enabled }

// Bounds returns the effective bounds; disabled sessions are pinned to 0.
func (s SessionSettings) Bounds() (lo, hi int) {
	if !s.IsEnabled() {
		return 0, 0
	}
	return s.Min, s.Max
}

// HasSubQuota reports whether a subgroup bound is set.
func (s SessionSettings) HasSubQuota() bool { return s.SubMin != nil || s.SubMax != nil }

// Settings configures a solve.
type Settings struct {
	Sessions []SessionSettings `json:"sessions" yaml:"sessions"`
	// Subgroup is the roster group the per-session sub-quota applies to.
	Subgroup string `json:"subgroup,omitempty" yaml:"subgroup,omitempty"`
	// Targets overrides the number of sessions per member (default 1).
	Targets map[string]int `json:"targets,omitempty" yaml:"targets,omitempty"`
}

// Target returns the number of sessions name must be assigned to.
func (s Settings) Target(name string) int {
	if t, ok := s.Targets[name]; ok {
		return t
	}
	return 1
}

// ApplyBulk sets the same bounds on every session.
func (s *Settings) ApplyBulk(lo, hi int) {
	for i := range s.Sessions {
		s.Sessions[i].Min = lo
		s.Sessions[i].Max = hi
	}
}

// Clone returns a deep copy.
func (s Settings) Clone() Settings {
	out := Settings{Subgroup: s.Subgroup, Sessions: make([]SessionSettings, len(s.Sessions))}
	for i, ss := range s.Sessions {
		c := ss
		if ss.Enabled != nil {
			v := *ss.Enabled
			c.Enabled = &v
		}
		if ss.SubMin != nil {
			v := *ss.SubMin
			c.SubMin = &v
		}
		if ss.SubMax != nil {
			v := *ss.SubMax
			c.SubMax = &v
		}
		out.Sessions[i] = c
	}
	if s.Targets != nil {
		out.Targets = make(map[string]int, len(s.Targets))
		for k, v := range s.Targets {
			out.Targets[k] = v
		}
	}
	return out
}

// DefaultSettings derives bounds from the matrix: max is the number of
// active members spread over the sessions plus one, min is two below that.
func DefaultSettings(m *Matrix) Settings {
	sessions := m.NumSessions()
	members := m.NumMembers()
	active := 0
	for i := 0; i < members; i++ {
		for s := 0; s < sessions; s++ {
			if m.Status(s, i).Movable() {
				active++
				break
			}
		}
	}
	hi, lo := 1, 0
	if sessions > 0 && active > 0 {
		hi = active/sessions + 1
		lo = max(0, hi-2)
	}
	ceiling := max(members, 1)
	hi = min(hi, ceiling)
	lo = min(lo, ceiling)

	out := Settings{Sessions: make([]SessionSettings, sessions)}
	for s := 0; s < sessions; s++ {
		out.Sessions[s] = SessionSettings{Label: m.Session(s), Min: lo, Max: hi}
	}
	return out
}
