// Package scheduler implements the constraint-based examination timetable
// optimiser: Loader -> Model Builder -> Solver Driver -> Solution Extractor
// -> Conflict Detector, orchestrated by the Façade.
package scheduler

import "time"

// TimeSlots is the fixed four-element daily slot enumeration.
// Any change to this list is a schema migration, not a configuration knob.
var TimeSlots = [4]string{"08:00", "10:00", "14:00", "16:00"}

// ExamDurationMinutes is the fixed exam duration.
const ExamDurationMinutes = 90

// InputModel is the Loader's output: dense, 0-based, contiguous-index
// tables plus the mapping back to persistent identifiers.
type InputModel struct {
	SessionID string
	StartDate time.Time

	// ModuleIDs[m] is the persistent module id for index m.
	ModuleIDs []string
	// SizeOf[m] is the enrolment count for module index m.
	SizeOf []int
	// ModuleFormationID[m] is the owning formation, used for department scoping.
	ModuleFormationID []string

	RoomIDs       []string
	RoomCapacity  []int
	RoomIsAmphi   []bool

	ProctorIDs       []string
	ProctorDeptID    []string
	ProctorMaxPerDay []int

	// ModulesOfStudent maps a persistent student id to the module indices
	// they are enrolled in, restricted to the retained module set.
	ModulesOfStudent map[string][]int

	// TruncatedModules reports whether the moduleLimit cap actually cut
	// the input.
	TruncatedModules bool
}

// NumModules, NumRooms and NumProctors are convenience accessors mirroring
// the dense index spaces the Model Builder allocates decision variables over.
func (m *InputModel) NumModules() int  { return len(m.ModuleIDs) }
func (m *InputModel) NumRooms() int    { return len(m.RoomIDs) }
func (m *InputModel) NumProctors() int { return len(m.ProctorIDs) }

// Assignment is the 4-tuple decision the Model Builder allocates one of per
// module index: day, slot, room and proctor, each as a dense index into the
// corresponding InputModel table.
type Assignment struct {
	Day     int
	Slot    int
	Room    int
	Proctor int
}

// SolverModel is the posted constraint problem: decision variables plus the
// hard-constraint domains and pairwise forbidden-assignment sets the
// Solver Driver searches over. It is opaque to callers outside this
// package.
type SolverModel struct {
	Input   *InputModel
	NbDays  int

	// AllowedRooms[m] is the bitset-pruned set of room indices satisfying H1
	// for module m (room.examCapacity >= sizeOf[m]).
	AllowedRooms []RoomDomain

	// StudentPairs are the H2 module-index pairs drawn from the top-K
	// students by degree, truncated at the configured constraint cap.
	StudentPairs []ModulePair

	// RoomPairs are the H3 module-index pairs compared within the
	// configured neighbourhood window.
	RoomPairs []ModulePair

	// AmphiBonusModules lists module indices with sizeOf > 50, for O2.
	AmphiBonusModules []int

	// H2Truncated / H3Truncated record whether the respective caps bit.
	H2Truncated bool
	H3Truncated bool
}

// ModulePair is an (m1, m2) module-index pair drawn from H2/H3 enumeration.
type ModulePair struct {
	ModuleA int
	ModuleB int
}

// RoomDomain is the pruned, ordered set of room indices a module may use.
type RoomDomain []int

// SolveStatus mirrors the four CP-SAT-class termination outcomes.
type SolveStatus int

// Possible solve outcomes.
const (
	StatusOptimal SolveStatus = iota
	StatusFeasible
	StatusInfeasible
	StatusUnknown
	StatusCancelled
)

func (s SolveStatus) String() string {
	switch s {
	case StatusOptimal:
		return "OPTIMAL"
	case StatusFeasible:
		return "FEASIBLE"
	case StatusInfeasible:
		return "INFEASIBLE"
	case StatusUnknown:
		return "UNKNOWN"
	case StatusCancelled:
		return "CANCELLED"
	default:
		return "UNSPECIFIED"
	}
}

// SolveOutcome is the Solver Driver's return value.
type SolveOutcome struct {
	Status      SolveStatus
	Assignments []Assignment // indexed by module index; valid unless Infeasible/Unknown/Cancelled
	Elapsed     time.Duration
	Objective   float64
}

// Budget configures the Solver Driver.
type Budget struct {
	MaxSeconds  int
	Workers     int
	LogProgress bool
}

// DefaultBudget returns the documented production defaults.
func DefaultBudget() Budget {
	return Budget{MaxSeconds: 25, Workers: 4, LogProgress: false}
}

// Limits configures the Loader/Model Builder truncation policies.
type Limits struct {
	ModuleLimit            int
	StudentConstraintLimit int
	PairNeighbourhood      int
	MaxStudentsForH2       int
}

// DefaultLimits returns the documented production defaults.
func DefaultLimits() Limits {
	return Limits{
		ModuleLimit:            500,
		StudentConstraintLimit: 3000,
		PairNeighbourhood:      30,
		MaxStudentsForH2:       1000,
	}
}
