// Package solver computes an optimal assignment of members to sessions.
//
// The model maximises availability preference minus soft penalties for
// group clustering and tight spacing of repeated placements. Group balance
// and the subgroup quota are solved exactly as a min-cost flow; spacing is
// handled by branch and bound on top of that relaxation.
package solver

import (
	"fmt"
	"math"
	"time"

	"github.com/kilianp07/rota/core/logger"
	"github.com/kilianp07/rota/core/model"
)

// Result describes a finished solve.
type Result struct {
	Objective  float64       `json:"objective"`
	Preference float64       `json:"preference"`
	Penalty    float64       `json:"penalty"`
	Nodes      int           `json:"nodes"`
	Duration   time.Duration `json:"duration"`
	Modules    []string      `json:"modules,omitempty"`
}

// Solver is a parameterised scheduler. The zero modules list solves the
// preference-only model.
type Solver struct {
	cfg     Config
	modules []Module
	log     logger.Logger

	now func() time.Time
}

// New returns a solver using cfg and the given optional modules.
func New(cfg Config, log logger.Logger, modules ...Module) *Solver {
	cfg.SetDefaults()
	return &Solver{cfg: cfg, modules: modules, log: logger.OrNop(log), now: time.Now}
}

// Solve builds a solver with the modules DefaultModules selects for in and
// runs it.
func Solve(cfg Config, log logger.Logger, in Input) (*model.Assignment, Result, error) {
	cfg.SetDefaults()
	return New(cfg, log, DefaultModules(cfg, in)...).Solve(in)
}

type node struct {
	fix   []fixing
	bound float64
}

// Solve returns an optimal assignment for in. It returns a
// *ConfigurationError when the input is inconsistent, ErrInfeasible when
// the hard constraints cannot be met and ErrTimeout when the search budget
// runs out. No assignment is returned alongside an error.
func (s *Solver) Solve(in Input) (*model.Assignment, Result, error) {
	start := s.now()
	res := Result{}
	for _, m := range s.modules {
		res.Modules = append(res.Modules, m.Name())
	}
	a, err := s.solve(in, start, &res)
	res.Duration = s.now().Sub(start)
	observe(res, err)
	if err != nil {
		s.log.Warnf("solve failed after %d nodes: %v", res.Nodes, err)
		return nil, res, err
	}
	s.log.Debugw("solve finished", map[string]any{
		"objective": res.Objective,
		"penalty":   res.Penalty,
		"nodes":     res.Nodes,
		"duration":  res.Duration.String(),
	})
	return a, res, nil
}

func (s *Solver) solve(in Input, start time.Time, res *Result) (*model.Assignment, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	p := newProblem(in)
	for _, m := range s.modules {
		m.apply(p, in)
	}
	s.log.Debugf("solving %d sessions x %d members, %d units, %d spacing pairs", p.nS, p.nM, p.units, len(p.pairs))

	var (
		best      [][]bool
		bestScore float64
		bestPref  float64
		bestPen   float64
	)
	limit := s.cfg.TimeLimit()
	stack := []node{{fix: make([]fixing, p.nS*p.nM), bound: math.Inf(1)}}
	for len(stack) > 0 {
		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if best != nil && nd.bound <= bestScore+eps {
			continue
		}
		if res.Nodes >= s.cfg.MaxNodes || (limit > 0 && s.now().Sub(start) > limit) {
			return nil, ErrTimeout
		}
		res.Nodes++

		r, err := p.relax(nd.fix)
		if err != nil {
			return nil, fmt.Errorf("relaxation: %w", err)
		}
		if !r.feasible {
			continue
		}
		pref, pen := p.objective(r.x)
		score := pref - pen
		if best == nil || score > bestScore+eps {
			best, bestScore, bestPref, bestPen = r.x, score, pref, pen
		}

		bound := p.relaxedScore(r.x) - p.pinnedSpacing(nd.fix)
		if bound <= bestScore+eps {
			continue
		}
		v, ok := p.branchVar(r.x, nd.fix)
		if !ok {
			continue
		}
		one := append([]fixing(nil), nd.fix...)
		one[v] = fixedOne
		zero := append([]fixing(nil), nd.fix...)
		zero[v] = fixedZero
		stack = append(stack, node{fix: one, bound: bound}, node{fix: zero, bound: bound})
	}
	if best == nil {
		return nil, ErrInfeasible
	}
	res.Objective, res.Preference, res.Penalty = bestScore, bestPref, bestPen

	slots := make([][]int, p.nS)
	for sIdx := range best {
		for i, on := range best[sIdx] {
			if on {
				slots[sIdx] = append(slots[sIdx], i)
			}
		}
	}
	return model.NewAssignment(in.Matrix, in.Roster, slots)
}

// relaxedScore is the objective without spacing penalties.
func (p *problem) relaxedScore(x [][]bool) float64 {
	pairs := p.pairs
	p.pairs = nil
	pref, pen := p.objective(x)
	p.pairs = pairs
	return pref - pen
}

// pinnedSpacing is the spacing penalty every solution below fix must pay.
func (p *problem) pinnedSpacing(fix []fixing) float64 {
	var total float64
	for _, pr := range p.pairs {
		if fix[pr.s1*p.nM+pr.member] == fixedOne && fix[pr.s2*p.nM+pr.member] == fixedOne {
			total += pr.weight
		}
	}
	return total
}

// branchVar picks a free variable of the first penalised pair in x.
func (p *problem) branchVar(x [][]bool, fix []fixing) (int, bool) {
	for _, pr := range p.pairs {
		if !x[pr.s1][pr.member] || !x[pr.s2][pr.member] {
			continue
		}
		if v := pr.s1*p.nM + pr.member; fix[v] == free {
			return v, true
		}
		if v := pr.s2*p.nM + pr.member; fix[v] == free {
			return v, true
		}
	}
	return 0, false
}
