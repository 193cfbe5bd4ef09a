package solver

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/rota/core/classify"
	"github.com/kilianp07/rota/core/model"
)

const (
	U = model.Unavailable
	A = model.Available
	T = model.Tentative
)

func matrix(t *testing.T, sessions, members []string, cells [][]model.Status) *model.Matrix {
	t.Helper()
	m, err := model.NewMatrix(sessions, members, cells)
	require.NoError(t, err)
	return m
}

func uniform(m *model.Matrix, lo, hi int) model.Settings {
	s := model.DefaultSettings(m)
	s.ApplyBulk(lo, hi)
	return s
}

// checkInvariants verifies the hard constraints of a solved assignment.
func checkInvariants(t *testing.T, in Input, a *model.Assignment) {
	t.Helper()
	m := in.Matrix
	for s := 0; s < m.NumSessions(); s++ {
		lo, hi := in.Settings.Sessions[s].Bounds()
		assert.GreaterOrEqual(t, a.Count(s), lo, "session %s below min", m.Session(s))
		assert.LessOrEqual(t, a.Count(s), hi, "session %s above max", m.Session(s))
		seen := map[int]bool{}
		for _, i := range a.Members(s) {
			assert.False(t, seen[i], "duplicate on %s", m.Session(s))
			seen[i] = true
			assert.True(t, m.Status(s, i).Movable(), "%s placed while unavailable", m.Member(i))
		}
	}
	active := classify.Active(m)
	for i := 0; i < m.NumMembers(); i++ {
		want := 0
		if active[i] {
			want = in.Settings.Target(m.Member(i))
		}
		assert.Equal(t, want, a.CountOf(i), "member %s", m.Member(i))
	}
}

func TestScenarioAllAvailable(t *testing.T) {
	m := matrix(t, []string{"S1", "S2", "S3"}, []string{"a", "b", "c", "d"}, [][]model.Status{
		{A, A, A, A},
		{A, A, A, A},
		{A, A, A, A},
	})
	in := Input{Matrix: m, Settings: uniform(m, 1, 2)}
	a, res, err := Solve(Config{}, nil, in)
	require.NoError(t, err)
	assert.Equal(t, 4, a.Total())
	assert.Equal(t, 8.0, res.Objective)
	checkInvariants(t, in, a)
}

func TestScenarioSingleAvailability(t *testing.T) {
	m := matrix(t, []string{"S1", "S2", "S3"}, []string{"x", "y", "z"}, [][]model.Status{
		{U, A, A},
		{A, A, A},
		{U, A, A},
	})
	in := Input{Matrix: m, Settings: uniform(m, 0, 2)}
	a, _, err := Solve(Config{}, nil, in)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, a.SessionsOf(0))
	assert.True(t, classify.IsLocked(m, 0, a.SessionsOf(0)))
	checkInvariants(t, in, a)
}

func TestScenarioMinimumsExceedMembers(t *testing.T) {
	m := matrix(t, []string{"S1", "S2"}, []string{"a", "b", "c"}, [][]model.Status{
		{A, A, U},
		{A, A, U},
	})
	in := Input{Matrix: m, Settings: uniform(m, 2, 3)}
	_, _, err := Solve(Config{}, nil, in)
	var cerr *ConfigurationError
	require.True(t, errors.As(err, &cerr), "got %v", err)
	assert.NotEmpty(t, cerr.Issues)
	assert.Contains(t, cerr.Error(), "minimums")
}

func TestValidateCollectsEveryIssue(t *testing.T) {
	m := matrix(t, []string{"S1", "S2"}, []string{"a", "b"}, [][]model.Status{
		{A, U},
		{A, U},
	})
	sub := 3
	s := uniform(m, 0, 2)
	s.Sessions[0].Min, s.Sessions[0].Max = 2, 1
	s.Sessions[1].SubMin = &sub
	s.Targets = map[string]int{"a": 3, "ghost": 1}
	err := Validate(Input{Matrix: m, Settings: s})
	var cerr *ConfigurationError
	require.ErrorAs(t, err, &cerr)

	var sessions, members []string
	for _, is := range cerr.Issues {
		if is.Session != "" {
			sessions = append(sessions, is.Session)
		}
		if is.Member != "" {
			members = append(members, is.Member)
		}
	}
	assert.ElementsMatch(t, []string{"S1", "S2"}, sessions)
	assert.ElementsMatch(t, []string{"ghost", "a"}, members)

	err = Validate(Input{Matrix: m, Settings: model.Settings{}})
	require.ErrorAs(t, err, &cerr)
	assert.Len(t, cerr.Issues, 1)
}

func TestInfeasible(t *testing.T) {
	m := matrix(t, []string{"S1", "S2"}, []string{"a", "b"}, [][]model.Status{
		{A, U},
		{U, A},
	})
	s := uniform(m, 0, 2)
	s.Sessions[0].Min = 2
	a, _, err := Solve(Config{}, nil, Input{Matrix: m, Settings: s})
	assert.ErrorIs(t, err, ErrInfeasible)
	assert.Nil(t, a)
}

func TestPrefersAvailableOverTentative(t *testing.T) {
	m := matrix(t, []string{"S1", "S2"}, []string{"a", "b"}, [][]model.Status{
		{T, A},
		{A, T},
	})
	a, res, err := Solve(Config{}, nil, Input{Matrix: m, Settings: uniform(m, 1, 1)})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, a.Names(0))
	assert.Equal(t, []string{"a"}, a.Names(1))
	assert.Equal(t, 4.0, res.Preference)
}

func TestDisabledSessionStaysEmpty(t *testing.T) {
	m := matrix(t, []string{"S1", "S2", "S3"}, []string{"a", "b", "c"}, [][]model.Status{
		{A, A, A},
		{A, A, A},
		{A, A, A},
	})
	s := uniform(m, 0, 3)
	off := false
	s.Sessions[1].Enabled = &off
	in := Input{Matrix: m, Settings: s}
	a, _, err := Solve(Config{}, nil, in)
	require.NoError(t, err)
	assert.Equal(t, 0, a.Count(1))
	checkInvariants(t, in, a)
}

func TestGroupBalanceSpreadsGroups(t *testing.T) {
	m := matrix(t, []string{"S1", "S2"}, []string{"a", "b", "c", "d"}, [][]model.Status{
		{A, A, A, A},
		{A, A, A, A},
	})
	r := model.NewRoster([]model.RosterEntry{
		{Name: "a", Rank: 1, Group: "senior"},
		{Name: "b", Rank: 2, Group: "senior"},
		{Name: "c", Rank: 3, Group: "junior"},
		{Name: "d", Rank: 4, Group: "junior"},
	})
	in := Input{Matrix: m, Roster: r, Settings: uniform(m, 2, 2)}
	a, res, err := Solve(Config{}, nil, in)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Penalty)
	for s := 0; s < 2; s++ {
		names := a.Names(s)
		require.Len(t, names, 2)
		assert.NotEqual(t, r.Group(names[0]), r.Group(names[1]))
		// roster order: seniors first
		assert.Equal(t, "senior", r.Group(names[0]))
	}
	checkInvariants(t, in, a)
}

func TestSubQuota(t *testing.T) {
	m := matrix(t, []string{"S1", "S2"}, []string{"a", "b", "c", "d"}, [][]model.Status{
		{A, A, A, A},
		{T, T, A, A},
	})
	r := model.NewRoster([]model.RosterEntry{
		{Name: "a", Group: "senior"},
		{Name: "b", Group: "senior"},
	})
	s := uniform(m, 2, 2)
	one := 1
	for i := range s.Sessions {
		s.Sessions[i].SubMin = &one
		s.Sessions[i].SubMax = &one
	}
	s.Subgroup = "senior"
	in := Input{Matrix: m, Roster: r, Settings: s}

	// Preference alone puts both seniors on S1.
	a, res, err := New(Config{}, nil).Solve(in)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, a.Names(0))
	assert.Equal(t, 8.0, res.Objective)

	a, res, err = New(Config{}, nil, SubQuota{Group: "senior"}).Solve(in)
	require.NoError(t, err)
	assert.Equal(t, 7.0, res.Objective)
	for sIdx := 0; sIdx < 2; sIdx++ {
		seniors := 0
		for _, n := range a.Names(sIdx) {
			if r.Group(n) == "senior" {
				seniors++
			}
		}
		assert.Equal(t, 1, seniors, "session %d", sIdx)
	}
	checkInvariants(t, in, a)
}

func TestSubQuotaUnknownGroupIsRejected(t *testing.T) {
	m := matrix(t, []string{"S1", "S2"}, []string{"a", "b"}, [][]model.Status{
		{A, A},
		{A, A},
	})
	one, two := 1, 2
	s := uniform(m, 1, 2)
	s.Sessions[0].SubMin, s.Sessions[0].SubMax = &one, &two
	s.Subgroup = "g1"

	for name, r := range map[string]*model.Roster{
		"no such group":       model.NewRoster([]model.RosterEntry{{Name: "a", Group: "g2"}, {Name: "b", Group: "g2"}}),
		"members not on grid": model.NewRoster([]model.RosterEntry{{Name: "zed", Group: "g1"}, {Name: "a", Group: "g2"}}),
	} {
		t.Run(name, func(t *testing.T) {
			a, _, err := Solve(Config{}, nil, Input{Matrix: m, Roster: r, Settings: s})
			var cerr *ConfigurationError
			require.ErrorAs(t, err, &cerr)
			assert.Nil(t, a)
			assert.Contains(t, cerr.Error(), `subgroup "g1" has no roster members`)
		})
	}
}

func TestSubQuotaEmptyGroupForcesMinimum(t *testing.T) {
	m := matrix(t, []string{"S1", "S2"}, []string{"a", "b"}, [][]model.Status{
		{A, A},
		{A, A},
	})
	one := 1
	s := uniform(m, 1, 2)
	s.Sessions[0].SubMin = &one
	s.Subgroup = "g1"
	in := Input{Matrix: m, Roster: model.NewRoster([]model.RosterEntry{{Name: "a", Group: "g2"}}), Settings: s}

	p := newProblem(in)
	SubQuota{Group: "g1"}.apply(p, in)
	require.GreaterOrEqual(t, p.subgroup, 0)
	assert.Equal(t, "g1", p.groups[p.subgroup])
	assert.True(t, p.hasSub[0])
	assert.Equal(t, 1, p.subLo[0])
}

func TestSpacingSeparatesRepeatedPlacements(t *testing.T) {
	m := matrix(t, []string{"d1", "d2", "d3", "d4"}, []string{"a", "b", "c"}, [][]model.Status{
		{A, A, A},
		{A, A, A},
		{A, A, A},
		{A, A, A},
	})
	s := uniform(m, 1, 1)
	s.Targets = map[string]int{"a": 2}
	in := Input{Matrix: m, Settings: s}
	a, res, err := Solve(Config{}, nil, in)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3}, a.SessionsOf(0))
	assert.Equal(t, 0.0, res.Penalty)
	assert.Contains(t, res.Modules, "spacing")
	assert.Equal(t, 1, a.Occurrence(0, 0))
	assert.Equal(t, 2, a.Occurrence(3, 0))
	checkInvariants(t, in, a)
}

func TestSpacingHalfPenaltyAtDistanceTwo(t *testing.T) {
	m := matrix(t, []string{"d1", "d2", "d3"}, []string{"a", "b"}, [][]model.Status{
		{A, A},
		{A, A},
		{A, A},
	})
	s := uniform(m, 1, 1)
	s.Targets = map[string]int{"a": 2}
	a, res, err := Solve(Config{}, nil, Input{Matrix: m, Settings: s})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, a.SessionsOf(0))
	assert.Equal(t, 25.0, res.Penalty)
}

func TestSolveIsDeterministic(t *testing.T) {
	m := matrix(t, []string{"S1", "S2", "S3"}, []string{"a", "b", "c", "d", "e", "f"}, [][]model.Status{
		{A, T, A, A, U, A},
		{A, A, T, A, A, A},
		{T, A, A, U, A, A},
	})
	r := model.NewRoster([]model.RosterEntry{{Name: "a", Group: "g1"}, {Name: "c", Group: "g1"}, {Name: "e", Group: "g2"}})
	s := uniform(m, 1, 3)
	s.Targets = map[string]int{"b": 2}
	in := Input{Matrix: m, Roster: r, Settings: s}
	first, _, err := Solve(Config{}, nil, in)
	require.NoError(t, err)
	for k := 0; k < 5; k++ {
		again, _, err := Solve(Config{}, nil, in)
		require.NoError(t, err)
		assert.Equal(t, first.NameSlots(), again.NameSlots())
	}
	checkInvariants(t, in, first)
}

func TestNodeLimitTimesOut(t *testing.T) {
	m := matrix(t, []string{"d1", "d2"}, []string{"a"}, [][]model.Status{
		{A},
		{A},
	})
	s := uniform(m, 0, 1)
	s.Targets = map[string]int{"a": 2}
	_, res, err := Solve(Config{MaxNodes: 1}, nil, Input{Matrix: m, Settings: s})
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, 1, res.Nodes)
}

func TestTimeLimit(t *testing.T) {
	m := matrix(t, []string{"S1"}, []string{"a"}, [][]model.Status{{A}})
	in := Input{Matrix: m, Settings: uniform(m, 0, 1)}
	sv := New(Config{TimeLimitSeconds: 1}, nil)
	clock := time.Unix(0, 0)
	sv.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	_, _, err := sv.Solve(in)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, "timeout", Outcome(err))
}

func TestSolveMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	ResetMetrics(reg)
	defer ResetMetrics(nil)

	m := matrix(t, []string{"S1"}, []string{"a"}, [][]model.Status{{A}})
	_, _, err := Solve(Config{}, nil, Input{Matrix: m, Settings: uniform(m, 1, 1)})
	require.NoError(t, err)
	_, _, err = Solve(Config{}, nil, Input{Matrix: m, Settings: uniform(m, 2, 2)})
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(solveTotal.WithLabelValues("optimal")))
	assert.Equal(t, 1.0, testutil.ToFloat64(solveTotal.WithLabelValues("invalid")))
}

func TestEmptyMatrix(t *testing.T) {
	m := matrix(t, nil, nil, nil)
	a, _, err := Solve(Config{}, nil, Input{Matrix: m, Settings: model.Settings{}})
	require.NoError(t, err)
	assert.Equal(t, 0, a.Total())
}
