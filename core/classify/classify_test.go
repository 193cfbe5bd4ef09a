package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/rota/core/model"
)

// Scenario: three sessions, member "a" only available on S2.
func scenario(t *testing.T) *model.Matrix {
	t.Helper()
	U, A, T := model.Unavailable, model.Available, model.Tentative
	m, err := model.NewMatrix(
		[]string{"S1", "S2", "S3"},
		[]string{"a", "b", "c"},
		[][]model.Status{
			{U, A, U},
			{A, T, U},
			{U, A, U},
		})
	require.NoError(t, err)
	return m
}

func TestActive(t *testing.T) {
	m := scenario(t)
	assert.Equal(t, []bool{true, true, false}, Active(m))
	assert.Equal(t, []string{"a", "b"}, ActiveNames(m))
	assert.False(t, IsActive(m, 2))
}

func TestMovableSessions(t *testing.T) {
	m := scenario(t)
	assert.Equal(t, []int{1}, MovableSessions(m, 0))
	assert.Equal(t, []int{0, 1, 2}, MovableSessions(m, 1))
	assert.Empty(t, MovableSessions(m, 2))
}

func TestIsLocked(t *testing.T) {
	m := scenario(t)
	assert.True(t, IsLocked(m, 0, []int{1}))
	assert.False(t, IsLocked(m, 1, []int{1}))
	assert.True(t, IsLocked(m, 1, []int{0, 1, 2}))
	// inactive members have nowhere to go
	assert.True(t, IsLocked(m, 2, nil))
}

// With one placement, a member is locked exactly when its movable sessions
// minus the current one are empty.
func TestIsLockedSinglePlacement(t *testing.T) {
	m := scenario(t)
	for i := 0; i < m.NumMembers(); i++ {
		for s := 0; s < m.NumSessions(); s++ {
			others := 0
			for _, v := range MovableSessions(m, i) {
				if v != s {
					others++
				}
			}
			assert.Equal(t, others == 0, IsLocked(m, i, []int{s}), "member %d on session %d", i, s)
		}
	}
	// two placements covering every movable session lock the member even
	// though each placement alone leaves another session open
	m2, err := model.NewMatrix([]string{"S1", "S2"}, []string{"a"}, [][]model.Status{{model.Available}, {model.Available}})
	require.NoError(t, err)
	assert.False(t, IsLocked(m2, 0, []int{0}))
	assert.True(t, IsLocked(m2, 0, []int{0, 1}))
}
