package scheduler

import "math"

// daysNeeded returns requestedDays when it is positive; otherwise it picks
// the smallest day count that gives every module a slot across the fixed
// four-slot day (ceil(numModules/4), at least 1), with no extra days added
// for resolving H2 student collisions. O1 then pulls modules back onto the
// earliest of those days wherever a collision doesn't force otherwise.
func daysNeeded(numModules, requestedDays int) int {
	if requestedDays > 0 {
		return requestedDays
	}
	minDays := int(math.Ceil(float64(numModules) / float64(len(TimeSlots))))
	if minDays < 1 {
		minDays = 1
	}
	return minDays
}

// BuildModel posts H1-H3 over input and returns the SolverModel the Solver
// Driver searches. H4 (per-day proctor cap) is not posted as
// a pairwise constraint here: the Solver Driver enforces it directly by
// tracking a running per-(day,proctor) count against InputModel.ProctorMaxPerDay,
// since proctor capacity is a resource count, not a pairwise exclusion.
func BuildModel(input *InputModel, nbDays int, limits Limits) (*SolverModel, error) {
	roomDomains, err := buildRoomDomains(input)
	if err != nil {
		return nil, err
	}

	studentPairs, h2Truncated := buildStudentPairs(input, limits)
	roomPairs, h3Truncated := buildRoomPairs(input, limits)

	return &SolverModel{
		Input:             input,
		NbDays:            daysNeeded(input.NumModules(), nbDays),
		AllowedRooms:      roomDomains,
		StudentPairs:      studentPairs,
		RoomPairs:         roomPairs,
		AmphiBonusModules: amphiBonusModules(input),
		H2Truncated:       h2Truncated,
		H3Truncated:       h3Truncated,
	}, nil
}
