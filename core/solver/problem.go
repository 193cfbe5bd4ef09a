package solver

import (
	"github.com/kilianp07/rota/core/classify"
	"github.com/kilianp07/rota/core/model"
)

// Input is everything a solve needs.
type Input struct {
	Matrix   *model.Matrix
	Roster   *model.Roster
	Settings model.Settings
}

// pair is a spacing penalty term for one member.
type pair struct {
	member, s1, s2 int
	weight         float64
}

// problem is the index-addressed form of an Input with modules applied.
type problem struct {
	nS, nM int
	pref   [][]float64 // [session][member]
	allow  [][]bool
	target []int
	lo, hi []int

	groups []string
	group  []int // -1 when ungrouped

	groupWeight float64

	subgroup     int // -1 when no sub-quota applies
	hasSub       []bool
	subLo, subHi []int

	pairs []pair
	units int
}

func newProblem(in Input) *problem {
	m := in.Matrix
	p := &problem{
		nS:       m.NumSessions(),
		nM:       m.NumMembers(),
		target:   make([]int, m.NumMembers()),
		lo:       make([]int, m.NumSessions()),
		hi:       make([]int, m.NumSessions()),
		group:    make([]int, m.NumMembers()),
		subgroup: -1,
		hasSub:   make([]bool, m.NumSessions()),
		subLo:    make([]int, m.NumSessions()),
		subHi:    make([]int, m.NumSessions()),
	}
	active := classify.Active(m)
	for i := range p.target {
		if active[i] {
			p.target[i] = in.Settings.Target(m.Member(i))
			p.units += p.target[i]
		}
	}
	for s := range p.lo {
		p.lo[s], p.hi[s] = in.Settings.Sessions[s].Bounds()
	}
	p.pref = make([][]float64, p.nS)
	p.allow = make([][]bool, p.nS)
	for s := 0; s < p.nS; s++ {
		p.pref[s] = make([]float64, p.nM)
		p.allow[s] = make([]bool, p.nM)
		for i := 0; i < p.nM; i++ {
			st := m.Status(s, i)
			p.pref[s][i] = st.Weight()
			p.allow[s][i] = st.Movable() && p.hi[s] > 0 && p.target[i] > 0
		}
	}
	idx := map[string]int{}
	for i := range p.group {
		p.group[i] = -1
		g := in.Roster.Group(m.Member(i))
		if g == "" {
			continue
		}
		k, ok := idx[g]
		if !ok {
			k = len(p.groups)
			idx[g] = k
			p.groups = append(p.groups, g)
		}
		p.group[i] = k
	}
	return p
}

func (p *problem) groupIndex(name string) int {
	for k, g := range p.groups {
		if g == name {
			return k
		}
	}
	return -1
}

// objective scores a complete 0/1 placement.
func (p *problem) objective(x [][]bool) (pref, penalty float64) {
	for s := 0; s < p.nS; s++ {
		counts := make([]int, len(p.groups))
		for i := 0; i < p.nM; i++ {
			if !x[s][i] {
				continue
			}
			pref += p.pref[s][i]
			if g := p.group[i]; g >= 0 {
				counts[g]++
			}
		}
		if p.groupWeight > 0 {
			for _, c := range counts {
				if c > 1 {
					penalty += p.groupWeight * float64(c-1)
				}
			}
		}
	}
	for _, pr := range p.pairs {
		if x[pr.s1][pr.member] && x[pr.s2][pr.member] {
			penalty += pr.weight
		}
	}
	return pref, penalty
}
