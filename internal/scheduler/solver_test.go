package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func biggerInput(numModules, numRooms, numProctors int) *InputModel {
	moduleIDs := make([]string, numModules)
	sizeOf := make([]int, numModules)
	for i := range moduleIDs {
		moduleIDs[i] = "m" + string(rune('0'+i))
		sizeOf[i] = 10
	}
	roomIDs := make([]string, numRooms)
	roomCapacity := make([]int, numRooms)
	roomIsAmphi := make([]bool, numRooms)
	for i := range roomIDs {
		roomIDs[i] = "r" + string(rune('0'+i))
		roomCapacity[i] = 50
	}
	proctorIDs := make([]string, numProctors)
	proctorMaxPerDay := make([]int, numProctors)
	for i := range proctorIDs {
		proctorIDs[i] = "p" + string(rune('0'+i))
		proctorMaxPerDay[i] = 10
	}
	return &InputModel{
		ModuleIDs:        moduleIDs,
		SizeOf:           sizeOf,
		RoomIDs:          roomIDs,
		RoomCapacity:     roomCapacity,
		RoomIsAmphi:      roomIsAmphi,
		ProctorIDs:       proctorIDs,
		ProctorMaxPerDay: proctorMaxPerDay,
		ModulesOfStudent: map[string][]int{},
	}
}

func TestConstructPlacesAllModulesWhenResourcesAbound(t *testing.T) {
	input := biggerInput(6, 3, 2)
	model, err := BuildModel(input, 4, DefaultLimits())
	require.NoError(t, err)

	state := newSolverState(model, 1)
	state.construct()

	assert.Empty(t, state.unplacedModules())
}

func TestCanPlaceRejectsRoomClash(t *testing.T) {
	input := biggerInput(2, 1, 1)
	model, err := BuildModel(input, 1, DefaultLimits())
	require.NoError(t, err)

	state := newSolverState(model, 1)
	state.place(0, 0, 0, 0, 0)

	assert.False(t, state.canPlace(1, 0, 0, 0, 0))
}

func TestCanPlaceRejectsProctorOverDailyCap(t *testing.T) {
	input := biggerInput(2, 2, 1)
	input.ProctorMaxPerDay[0] = 1
	model, err := BuildModel(input, 1, DefaultLimits())
	require.NoError(t, err)

	state := newSolverState(model, 1)
	state.place(0, 0, 0, 0, 0)

	assert.False(t, state.canPlace(1, 0, 1, 1, 0))
}

func TestUnplaceFreesOccupancy(t *testing.T) {
	input := biggerInput(2, 1, 1)
	model, err := BuildModel(input, 1, DefaultLimits())
	require.NoError(t, err)

	state := newSolverState(model, 1)
	state.place(0, 0, 0, 0, 0)
	state.unplace(0)

	assert.True(t, state.canPlace(1, 0, 0, 0, 0))
	assert.Equal(t, -1, state.placedDay(0))
}

func TestCountStudentCollisionsDetectsSameDayPair(t *testing.T) {
	model := &SolverModel{
		Input:        &InputModel{},
		StudentPairs: []ModulePair{{ModuleA: 0, ModuleB: 1}},
	}
	assignments := []Assignment{{Day: 2}, {Day: 2}}
	assert.Equal(t, 1, CountStudentCollisions(model, assignments))

	assignments[1].Day = 3
	assert.Equal(t, 0, CountStudentCollisions(model, assignments))
}

func TestSolveProducesFeasibleScheduleForSmallInstance(t *testing.T) {
	input := biggerInput(5, 2, 2)
	model, err := BuildModel(input, 3, DefaultLimits())
	require.NoError(t, err)

	budget := Budget{MaxSeconds: 1, Workers: 2}
	outcome := Solve(context.Background(), model, budget, nil)

	assert.NotEqual(t, StatusInfeasible, outcome.Status)
	assert.Len(t, outcome.Assignments, 5)
	for _, a := range outcome.Assignments {
		assert.GreaterOrEqual(t, a.Day, 0)
	}
}

func TestSolveRespectsCancellation(t *testing.T) {
	input := biggerInput(5, 2, 2)
	model, err := BuildModel(input, 3, DefaultLimits())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := Solve(ctx, model, Budget{MaxSeconds: 5, Workers: 1}, nil)
	assert.Equal(t, StatusCancelled, outcome.Status)
}

func TestRepairWarmStartsFromPriorAssignments(t *testing.T) {
	input := biggerInput(5, 2, 2)
	model, err := BuildModel(input, 3, DefaultLimits())
	require.NoError(t, err)

	first := Solve(context.Background(), model, Budget{MaxSeconds: 1, Workers: 1}, nil)
	require.NotEqual(t, StatusInfeasible, first.Status)

	repaired := Repair(context.Background(), model, first.Assignments, Budget{MaxSeconds: 1, Workers: 1}, nil)
	assert.Len(t, repaired.Assignments, 5)
}
