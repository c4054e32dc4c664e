package scheduler

import (
	"fmt"
	"sort"

	"github.com/gitrdm/gokanlogic/pkg/minikanren"

	appErrors "github.com/campus-exams/exam-scheduler-api/pkg/errors"
)

// AmphiBonusThreshold is the enrolment size above which placing a module in
// an amphitheatre earns the O2 amphitheatre bonus.
const AmphiBonusThreshold = 50

// buildRoomDomains posts H1 (room capacity): for each module, the set of
// rooms whose exam-mode capacity can hold its enrolment. Domains are pruned
// with a minikanren.BitSet rather than a nested loop per pair, the one
// narrow use this package makes of gokanlogic's finite-domain primitives. A
// module left with an empty domain means no room anywhere can seat it:
// reported as ErrCapacityInfeasible rather than left to fail deep inside the
// solver.
func buildRoomDomains(input *InputModel) ([]RoomDomain, error) {
	numRooms := input.NumRooms()
	domains := make([]RoomDomain, input.NumModules())

	for m := 0; m < input.NumModules(); m++ {
		full := minikanren.NewBitSet(numRooms)
		for r := 0; r < numRooms; r++ {
			if input.RoomCapacity[r] < input.SizeOf[m] {
				full = full.RemoveValue(r + 1) // BitSet values are 1-based.
			}
		}
		if full.Count() == 0 {
			return nil, appErrors.Clone(appErrors.ErrCapacityInfeasible,
				fmt.Sprintf("module %s (%d students) fits no available room", input.ModuleIDs[m], input.SizeOf[m]))
		}
		domain := make(RoomDomain, 0, full.Count())
		full.IterateValues(func(v int) {
			domain = append(domain, v-1) // back to 0-based room index.
		})
		domains[m] = domain
	}
	return domains, nil
}

// buildStudentPairs posts H2 (no student sits two exams the same day): every
// pair of modules shared by a student becomes a forbidden same-day pair.
// Enumerating all students is O(students * modules^2) in the worst case, so
// only the top MaxStudentsForH2 students by module count are considered, and
// the resulting pair set is capped at StudentConstraintLimit. Both caps are reported back via H2Truncated, which the Façade
// logs as a warning.
func buildStudentPairs(input *InputModel, limits Limits) ([]ModulePair, bool) {
	type studentDegree struct {
		id      string
		modules []int
	}
	students := make([]studentDegree, 0, len(input.ModulesOfStudent))
	for id, modules := range input.ModulesOfStudent {
		if len(modules) < 2 {
			continue
		}
		students = append(students, studentDegree{id: id, modules: modules})
	}
	sort.Slice(students, func(i, j int) bool {
		return len(students[i].modules) > len(students[j].modules)
	})

	truncated := len(students) > limits.MaxStudentsForH2
	if truncated {
		students = students[:limits.MaxStudentsForH2]
	}

	seen := make(map[ModulePair]struct{})
	var pairs []ModulePair
	for _, s := range students {
		for i := 0; i < len(s.modules); i++ {
			for j := i + 1; j < len(s.modules); j++ {
				pair := normalizedPair(s.modules[i], s.modules[j])
				if _, ok := seen[pair]; ok {
					continue
				}
				seen[pair] = struct{}{}
				pairs = append(pairs, pair)
				if len(pairs) >= limits.StudentConstraintLimit {
					return pairs, true
				}
			}
		}
	}
	return pairs, truncated
}

// buildRoomPairs enumerates H3 (no two exams share a room+day+slot) module
// pairs for SolverModel.RoomPairs. The solver does not read this list: its
// occupancy map enforces H3 exactly for every placement, in both Solve and
// Repair. Rather than the full n^2 set, only modules within
// PairNeighbourhood of each other in size-sorted order are paired, since
// same-sized modules are the ones competing for the same scarce room tier.
func buildRoomPairs(input *InputModel, limits Limits) ([]ModulePair, bool) {
	n := input.NumModules()
	truncated := n > limits.PairNeighbourhood
	var pairs []ModulePair
	for i := 0; i < n; i++ {
		upper := i + limits.PairNeighbourhood
		if upper >= n {
			upper = n - 1
		}
		for j := i + 1; j <= upper; j++ {
			pairs = append(pairs, normalizedPair(i, j))
		}
	}
	return pairs, truncated
}

func normalizedPair(a, b int) ModulePair {
	if a > b {
		a, b = b, a
	}
	return ModulePair{ModuleA: a, ModuleB: b}
}

// amphiBonusModules lists modules large enough to earn the O2 objective
// bonus when seated in an amphitheatre.
func amphiBonusModules(input *InputModel) []int {
	var bonus []int
	for m := 0; m < input.NumModules(); m++ {
		if input.SizeOf[m] > AmphiBonusThreshold {
			bonus = append(bonus, m)
		}
	}
	return bonus
}
