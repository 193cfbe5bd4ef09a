package solver

import "github.com/kilianp07/rota/core/model"

// Module adds an optional constraint or penalty to the base model.
type Module interface {
	Name() string
	apply(p *problem, in Input)
}

// GroupBalance penalises members of the same roster group sharing a session.
type GroupBalance struct {
	Weight float64
}

// Name implements Module.
func (GroupBalance) Name() string { return "group_balance" }

func (g GroupBalance) apply(p *problem, _ Input) {
	if len(p.groups) > 0 {
		p.groupWeight = g.Weight
	}
}

// SubQuota bounds how many members of Group each session receives.
type SubQuota struct {
	Group string
}

// Name implements Module.
func (SubQuota) Name() string { return "sub_quota" }

func (q SubQuota) apply(p *problem, in Input) {
	k := p.groupIndex(q.Group)
	if k < 0 {
		// An empty group still carries its bounds, so a positive minimum is
		// infeasible rather than ignored.
		k = len(p.groups)
		p.groups = append(p.groups, q.Group)
	}
	p.subgroup = k
	for s, ss := range in.Settings.Sessions {
		if !ss.HasSubQuota() || !ss.IsEnabled() {
			continue
		}
		p.hasSub[s] = true
		p.subHi[s] = p.units
		if ss.SubMin != nil {
			p.subLo[s] = *ss.SubMin
		}
		if ss.SubMax != nil {
			p.subHi[s] = *ss.SubMax
		}
	}
}

// Spacing penalises placing a multi-session member on nearby sessions.
type Spacing struct {
	Weight float64
}

// Name implements Module.
func (Spacing) Name() string { return "spacing" }

func (sp Spacing) apply(p *problem, _ Input) {
	if sp.Weight <= 0 {
		return
	}
	for i := 0; i < p.nM; i++ {
		if p.target[i] < 2 {
			continue
		}
		for s1 := 0; s1 < p.nS; s1++ {
			if !p.allow[s1][i] {
				continue
			}
			for d := 1; d <= 2 && s1+d < p.nS; d++ {
				if !p.allow[s1+d][i] {
					continue
				}
				w := sp.Weight
				if d == 2 {
					w *= 0.5
				}
				p.pairs = append(p.pairs, pair{member: i, s1: s1, s2: s1 + d, weight: w})
			}
		}
	}
}

// DefaultModules selects the modules that apply to in: group balance and
// the sub-quota need a roster, spacing needs a member with several sessions.
func DefaultModules(cfg Config, in Input) []Module {
	var mods []Module
	if in.Roster.HasGroups() {
		mods = append(mods, GroupBalance{Weight: cfg.GroupPenalty})
		if in.Settings.Subgroup != "" && anySubQuota(in.Settings) {
			mods = append(mods, SubQuota{Group: in.Settings.Subgroup})
		}
	}
	for _, t := range in.Settings.Targets {
		if t > 1 {
			mods = append(mods, Spacing{Weight: cfg.SpacingPenalty})
			break
		}
	}
	return mods
}

func anySubQuota(s model.Settings) bool {
	for _, ss := range s.Sessions {
		if ss.HasSubQuota() {
			return true
		}
	}
	return false
}
