package solver

// fixing pins decision variables during branch and bound.
type fixing int8

const (
	free fixing = iota
	fixedOne
	fixedZero
)

// relaxation is the optimum of the model without spacing penalties.
type relaxation struct {
	feasible bool
	x        [][]bool
}

// relax solves the spacing-free model exactly as a min-cost flow. Members
// send their target through member/session arcs; session and sub-quota
// minimums and pinned placements are forced arcs; group excess is routed
// through a penalised bypass.
func (p *problem) relax(fix []fixing) (relaxation, error) {
	big := (2+p.groupWeight)*float64(p.units) + 1
	n := newNetwork(big)

	members := make([]int, p.nM)
	for i := range members {
		members[i] = n.addNode()
		if p.target[i] > 0 {
			n.addArc(source, members[i], p.target[i], 0, true)
		}
	}
	sessions := make([]int, p.nS)
	for s := range sessions {
		sessions[s] = n.addNode()
		if p.lo[s] > 0 {
			n.addArc(sessions[s], sink, p.lo[s], 0, true)
		}
		if p.hi[s] > p.lo[s] {
			x := n.addNode()
			n.addArc(sessions[s], x, p.hi[s]-p.lo[s], 0, false)
			n.addArc(x, sink, p.hi[s]-p.lo[s], 0, false)
		}
	}

	entries := make(map[[2]int]int)
	entry := func(s, g int) int {
		if v, ok := entries[[2]int{s, g}]; ok {
			return v
		}
		d := n.addNode()
		entries[[2]int{s, g}] = d
		cur := d
		if g == p.subgroup && p.hasSub[s] {
			b := n.addNode()
			if p.subLo[s] > 0 {
				n.addArc(d, b, p.subLo[s], 0, true)
			}
			if p.subHi[s] > p.subLo[s] {
				c := n.addNode()
				n.addArc(d, c, p.subHi[s]-p.subLo[s], 0, false)
				n.addArc(c, b, p.subHi[s]-p.subLo[s], 0, false)
			}
			cur = b
		}
		if p.groupWeight > 0 {
			n.addArc(cur, sessions[s], 1, 0, false)
			excess := n.addNode()
			n.addArc(cur, excess, p.units, p.groupWeight, false)
			n.addArc(excess, sessions[s], p.units, 0, false)
		} else {
			n.addArc(cur, sessions[s], p.units, 0, false)
		}
		return d
	}
	// Sub-quota lower bounds must exist even when no member can reach them.
	if p.subgroup >= 0 {
		for s := 0; s < p.nS; s++ {
			if p.hasSub[s] && p.hi[s] > 0 {
				entry(s, p.subgroup)
			}
		}
	}

	place := make([][]int, p.nS)
	for s := 0; s < p.nS; s++ {
		place[s] = make([]int, p.nM)
		for i := 0; i < p.nM; i++ {
			place[s][i] = -1
			f := fix[s*p.nM+i]
			if !p.allow[s][i] || f == fixedZero {
				continue
			}
			to := sessions[s]
			if g := p.group[i]; g >= 0 && (p.groupWeight > 0 || (g == p.subgroup && p.hasSub[s])) {
				to = entry(s, g)
			}
			place[s][i] = n.addArc(members[i], to, 1, -p.pref[s][i], f == fixedOne)
		}
	}
	// A pinned placement that is not allowed can never be satisfied.
	for s := 0; s < p.nS; s++ {
		for i := 0; i < p.nM; i++ {
			if fix[s*p.nM+i] == fixedOne && place[s][i] < 0 {
				return relaxation{}, nil
			}
		}
	}

	if err := n.minCostFlow(); err != nil {
		return relaxation{}, err
	}
	if !n.saturated() {
		return relaxation{}, nil
	}
	x := make([][]bool, p.nS)
	for s := range x {
		x[s] = make([]bool, p.nM)
		for i, id := range place[s] {
			x[s][i] = id >= 0 && n.arcs[id].flow == 1
		}
	}
	return relaxation{feasible: true, x: x}, nil
}
