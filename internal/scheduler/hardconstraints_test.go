package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallInput() *InputModel {
	return &InputModel{
		ModuleIDs:        []string{"m0", "m1", "m2"},
		SizeOf:           []int{20, 60, 10},
		RoomIDs:          []string{"r0", "r1"},
		RoomCapacity:     []int{30, 100},
		RoomIsAmphi:      []bool{false, true},
		ProctorIDs:       []string{"p0", "p1"},
		ProctorMaxPerDay: []int{3, 3},
		ModulesOfStudent: map[string][]int{},
	}
}

func TestBuildRoomDomainsPrunesByCapacity(t *testing.T) {
	input := smallInput()
	domains, err := buildRoomDomains(input)
	require.NoError(t, err)
	require.Len(t, domains, 3)

	assert.ElementsMatch(t, []int{0, 1}, domains[0]) // 20 students fit both rooms
	assert.Equal(t, RoomDomain{1}, domains[1])       // 60 students only fit the amphi
	assert.ElementsMatch(t, []int{0, 1}, domains[2])
}

func TestBuildRoomDomainsInfeasibleModule(t *testing.T) {
	input := smallInput()
	input.SizeOf[1] = 500 // exceeds every room

	_, err := buildRoomDomains(input)
	require.Error(t, err)
}

func TestBuildStudentPairsDeduplicatesBelowCap(t *testing.T) {
	input := smallInput()
	input.ModulesOfStudent = map[string][]int{
		"s0": {0, 1},
		"s1": {0, 1},
		"s2": {1, 2},
	}

	pairs, truncated := buildStudentPairs(input, Limits{StudentConstraintLimit: 10, MaxStudentsForH2: 10})
	assert.False(t, truncated)
	assert.ElementsMatch(t, []ModulePair{{ModuleA: 0, ModuleB: 1}, {ModuleA: 1, ModuleB: 2}}, pairs)
}

func TestBuildStudentPairsTruncatesAtLimit(t *testing.T) {
	input := smallInput()
	input.ModuleIDs = []string{"m0", "m1", "m2", "m3"}
	input.SizeOf = []int{1, 1, 1, 1}
	input.ModulesOfStudent = map[string][]int{
		"s0": {0, 1, 2, 3},
	}

	_, truncated := buildStudentPairs(input, Limits{StudentConstraintLimit: 2, MaxStudentsForH2: 10})
	assert.True(t, truncated)
}

func TestAmphiBonusModules(t *testing.T) {
	input := smallInput()
	input.SizeOf = []int{10, 51, 100}

	bonus := amphiBonusModules(input)
	assert.ElementsMatch(t, []int{1, 2}, bonus)
}

func TestNormalizedPairOrdering(t *testing.T) {
	assert.Equal(t, ModulePair{ModuleA: 1, ModuleB: 2}, normalizedPair(2, 1))
	assert.Equal(t, ModulePair{ModuleA: 1, ModuleB: 2}, normalizedPair(1, 2))
}
