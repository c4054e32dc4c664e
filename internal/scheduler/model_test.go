package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaysNeededRespectsExplicitRequest(t *testing.T) {
	assert.Equal(t, 10, daysNeeded(100, 10))
}

func TestDaysNeededDerivesFromModuleCount(t *testing.T) {
	assert.Equal(t, 1, daysNeeded(1, 0))
	assert.Equal(t, 1, daysNeeded(4, 0))
	assert.Equal(t, 2, daysNeeded(5, 0))
	assert.Equal(t, 3, daysNeeded(9, 0))
}

func TestBuildModelPostsHardConstraints(t *testing.T) {
	input := smallInput()
	input.ModulesOfStudent = map[string][]int{"s0": {0, 1}}

	model, err := BuildModel(input, 0, DefaultLimits())
	require.NoError(t, err)

	assert.Len(t, model.AllowedRooms, 3)
	assert.Equal(t, []ModulePair{{ModuleA: 0, ModuleB: 1}}, model.StudentPairs)
	assert.NotEmpty(t, model.RoomPairs)
	assert.False(t, model.H2Truncated)
}

func TestBuildModelPropagatesCapacityInfeasible(t *testing.T) {
	input := smallInput()
	input.SizeOf[0] = 10_000

	_, err := BuildModel(input, 0, DefaultLimits())
	require.Error(t, err)
}
