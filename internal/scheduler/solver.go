package scheduler

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// solverState is the mutable placement the Solver Driver searches over: one
// goroutine's view of the occupancy grid plus the running per-(day,proctor)
// count H4 is checked against (generalised from the weekly-timetable
// scheduler's teacherAvailability/schedulerState shape to the exam domain's
// four decision variables: day, slot, room and proctor).
type solverState struct {
	model *SolverModel

	assignments []Assignment // indexed by module index, -1 day means unplaced

	roomBusy    map[[3]int]int // (day, slot, room) -> module index
	proctorBusy map[[3]int]int // (day, slot, proctor) -> module index
	proctorLoad map[[2]int]int // (day, proctor) -> count

	rng *rand.Rand
}

func newSolverState(model *SolverModel, seed int64) *solverState {
	n := model.Input.NumModules()
	assignments := make([]Assignment, n)
	for i := range assignments {
		assignments[i] = Assignment{Day: -1}
	}
	return &solverState{
		model:       model,
		assignments: assignments,
		roomBusy:    make(map[[3]int]int),
		proctorBusy: make(map[[3]int]int),
		proctorLoad: make(map[[2]int]int),
		rng:         rand.New(rand.NewSource(seed)),
	}
}

// newSolverStateFromAssignments seeds a state from a previously computed
// placement instead of running construct(), so the repair pass can
// warm-start its annealing from the original solve's result rather than
// rebuilding from scratch.
func newSolverStateFromAssignments(model *SolverModel, seed int64, assignments []Assignment) *solverState {
	s := newSolverState(model, seed)
	for module, a := range assignments {
		if a.Day < 0 {
			continue
		}
		s.place(module, a.Day, a.Slot, a.Room, a.Proctor)
	}
	return s
}

// CountStudentCollisions reports how many H2 pairs in model.StudentPairs are
// still violated by assignments, independent of any running solverState.
// Used by the Façade to decide whether the bounded repair pass is worth
// spending remaining budget on.
func CountStudentCollisions(model *SolverModel, assignments []Assignment) int {
	count := 0
	for _, pair := range model.StudentPairs {
		da, db := assignments[pair.ModuleA].Day, assignments[pair.ModuleB].Day
		if da >= 0 && da == db {
			count++
		}
	}
	return count
}

// placedDay returns the day a module is currently placed on, or -1.
func (s *solverState) placedDay(module int) int {
	return s.assignments[module].Day
}

// studentConflict reports whether placing module on day would collide with
// any already-placed module it shares a student with (H2).
func (s *solverState) studentConflict(module, day int) bool {
	for _, pair := range s.model.StudentPairs {
		var other int
		switch module {
		case pair.ModuleA:
			other = pair.ModuleB
		case pair.ModuleB:
			other = pair.ModuleA
		default:
			continue
		}
		if s.placedDay(other) == day {
			return true
		}
	}
	return false
}

// canPlace checks H1 (room already pruned into candidates), H3 (room+day+slot
// exclusivity) and H4 (proctor day cap), plus proctor single-booking at a
// given day+slot.
func (s *solverState) canPlace(module, day, slot, room, proctor int) bool {
	if _, busy := s.roomBusy[[3]int{day, slot, room}]; busy {
		return false
	}
	if _, busy := s.proctorBusy[[3]int{day, slot, proctor}]; busy {
		return false
	}
	cap := s.model.Input.ProctorMaxPerDay[proctor]
	load := s.proctorLoad[[2]int{day, proctor}]
	if load >= cap {
		return false
	}
	return true
}

func (s *solverState) place(module, day, slot, room, proctor int) {
	s.assignments[module] = Assignment{Day: day, Slot: slot, Room: room, Proctor: proctor}
	s.roomBusy[[3]int{day, slot, room}] = module
	s.proctorBusy[[3]int{day, slot, proctor}] = module
	s.proctorLoad[[2]int{day, proctor}]++
}

func (s *solverState) unplace(module int) {
	a := s.assignments[module]
	if a.Day < 0 {
		return
	}
	delete(s.roomBusy, [3]int{a.Day, a.Slot, a.Room})
	delete(s.proctorBusy, [3]int{a.Day, a.Slot, a.Proctor})
	s.proctorLoad[[2]int{a.Day, a.Proctor}]--
	s.assignments[module] = Assignment{Day: -1}
}

// candidateRooms orders a module's allowed rooms by tightest-fit first (bin
// packing heuristic: leave large rooms free for large modules), with amphi
// rooms pulled first when the module qualifies for the O2 bonus.
func (s *solverState) candidateRooms(module int) []int {
	domain := s.model.AllowedRooms[module]
	candidates := make([]int, len(domain))
	copy(candidates, domain)
	wantsAmphi := false
	for _, m := range s.model.AmphiBonusModules {
		if m == module {
			wantsAmphi = true
			break
		}
	}
	input := s.model.Input
	sort.Slice(candidates, func(i, j int) bool {
		ri, rj := candidates[i], candidates[j]
		if wantsAmphi && input.RoomIsAmphi[ri] != input.RoomIsAmphi[rj] {
			return input.RoomIsAmphi[ri]
		}
		return input.RoomCapacity[ri] < input.RoomCapacity[rj]
	})
	return candidates
}

// leastLoadedProctor picks, among proctors not yet at their day cap, the one
// with the fewest assignments so far that day (spreads H4 load evenly rather
// than saturating the first proctor in index order).
func (s *solverState) leastLoadedProctor(day int) (int, bool) {
	best := -1
	bestLoad := math.MaxInt32
	for p := 0; p < s.model.Input.NumProctors(); p++ {
		cap := s.model.Input.ProctorMaxPerDay[p]
		load := s.proctorLoad[[2]int{day, p}]
		if load >= cap {
			continue
		}
		if load < bestLoad {
			bestLoad = load
			best = p
		}
	}
	return best, best >= 0
}

// construct greedily places every module, processing the largest (hardest
// to seat) modules first, trying days in ascending day index so the seed
// schedule already packs onto the earliest days (O1 compactness); annealing
// only needs to resolve the H2 collisions construct() can't see, not undo a
// spread-out seed.
// Modules that cannot be placed without an H2 collision anywhere in the
// budgeted day/slot/room/proctor space are left unplaced. anneal() may seat
// them later (its moves do not check H2, so a collision then counts as a
// violation); a module still unplaced when the run ends makes runWorkers
// report StatusInfeasible.
func (s *solverState) construct() {
	order := make([]int, s.model.Input.NumModules())
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		return s.model.Input.SizeOf[order[i]] > s.model.Input.SizeOf[order[j]]
	})

	days := make([]int, s.model.NbDays)
	for d := range days {
		days[d] = d
	}

	for _, module := range order {
		rooms := s.candidateRooms(module)
		placed := false
		for _, day := range days {
			if s.studentConflict(module, day) {
				continue
			}
			for slot := range TimeSlots {
				for _, room := range rooms {
					proctor, ok := s.leastLoadedProctor(day)
					if !ok {
						continue
					}
					if !s.canPlace(module, day, slot, room, proctor) {
						continue
					}
					s.place(module, day, slot, room, proctor)
					placed = true
					break
				}
				if placed {
					break
				}
			}
			if placed {
				break
			}
		}
	}
}

// unplacedModules returns module indices construct() could not seat.
func (s *solverState) unplacedModules() []int {
	var unplaced []int
	for m, a := range s.assignments {
		if a.Day < 0 {
			unplaced = append(unplaced, m)
		}
	}
	return unplaced
}

// violationCount sums H2 collisions still present in the current placement
// plus a large penalty per unplaced module; it is the local search's primary
// minimisation target and the workers' best-of selection key. The Façade's
// residualCollisionsBeforeRepair statistic comes from CountStudentCollisions
// instead.
func (s *solverState) violationCount() int {
	count := 0
	for _, pair := range s.model.StudentPairs {
		da, db := s.placedDay(pair.ModuleA), s.placedDay(pair.ModuleB)
		if da >= 0 && da == db {
			count++
		}
	}
	const unplacedPenalty = 1_000_000 // unplaced modules must always dominate the score
	count += len(s.unplacedModules()) * unplacedPenalty
	return count
}

// objective scores the soft criteria: O1 favours earlier days (each placed
// module contributes -day to the score, so packing onto the lowest day
// indices maximises it), O2 rewards amphi-bonus modules actually landing in
// an amphitheatre. Weights (1 for O1, 2 for O2) mirror
// original_source/src/optimizer.py's `objective_terms.append(-vars_dict['jour'])`
// / `objective_terms.append(b * 2)`.
func (s *solverState) objective() float64 {
	dayPenalty := 0.0
	for _, a := range s.assignments {
		if a.Day >= 0 {
			dayPenalty += float64(a.Day)
		}
	}

	amphiScore := 0.0
	for _, m := range s.model.AmphiBonusModules {
		a := s.assignments[m]
		if a.Day >= 0 && s.model.Input.RoomIsAmphi[a.Room] {
			amphiScore++
		}
	}

	return amphiScore*2 - dayPenalty
}

// anneal runs a simulated-annealing local search over move operations
// (relocate a module to a different day/slot/room/proctor) to drive
// violationCount toward zero and maximise objective, polling ctx between
// iterations so a cancelled run exits promptly (grounded on the queue
// worker pool's ctx.Done() polling loop).
func (s *solverState) anneal(ctx context.Context, deadline time.Time, logger *zap.Logger) {
	if s.model.Input.NumModules() == 0 {
		return
	}
	temperature := 2.0
	const coolingRate = 0.995
	iteration := 0

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return
		default:
		}

		module := s.rng.Intn(s.model.Input.NumModules())
		prior := s.assignments[module]
		priorViolations := s.violationCount()
		priorObjective := s.objective()

		s.unplace(module)
		day := s.rng.Intn(s.model.NbDays)
		slot := s.rng.Intn(len(TimeSlots))
		rooms := s.model.AllowedRooms[module]
		if len(rooms) == 0 {
			s.restorePrior(module, prior)
			continue
		}
		room := rooms[s.rng.Intn(len(rooms))]
		proctor, ok := s.leastLoadedProctor(day)
		if !ok || !s.canPlace(module, day, slot, room, proctor) {
			s.restorePrior(module, prior)
			iteration++
			continue
		}
		s.place(module, day, slot, room, proctor)

		newViolations := s.violationCount()
		newObjective := s.objective()
		accept := newViolations < priorViolations ||
			(newViolations == priorViolations && newObjective >= priorObjective)
		if !accept {
			delta := priorObjective - newObjective
			if s.rng.Float64() >= math.Exp(-delta/temperature) {
				s.unplace(module)
				s.restorePrior(module, prior)
			}
		}

		temperature *= coolingRate
		iteration++
		if logger != nil && iteration%2000 == 0 {
			logger.Debug("annealing progress",
				zap.Int("iteration", iteration),
				zap.Int("violations", s.violationCount()),
				zap.Float64("temperature", temperature),
			)
		}
	}
}

func (s *solverState) restorePrior(module int, prior Assignment) {
	if prior.Day < 0 {
		s.assignments[module] = Assignment{Day: -1}
		return
	}
	s.place(module, prior.Day, prior.Slot, prior.Room, prior.Proctor)
}

// Solve runs the Solver Driver: parallel construct+anneal restarts under a
// shared time budget, keeping the best-scoring feasible-or-closest result.
// Workers are independent random restarts, not a shared search tree, so no
// locking is needed between them; only the final best-of selection
// synchronises.
func Solve(ctx context.Context, model *SolverModel, budget Budget, logger *zap.Logger) SolveOutcome {
	return runWorkers(ctx, model, budget, logger, func(seed int64) *solverState {
		state := newSolverState(model, seed)
		state.construct()
		return state
	})
}

// Repair re-anneals from a previously extracted placement instead of
// constructing fresh, giving the bounded iterative-deepening pass a warm
// start rather than a second from-scratch solve.
func Repair(ctx context.Context, model *SolverModel, assignments []Assignment, budget Budget, logger *zap.Logger) SolveOutcome {
	return runWorkers(ctx, model, budget, logger, func(seed int64) *solverState {
		return newSolverStateFromAssignments(model, seed, assignments)
	})
}

func runWorkers(ctx context.Context, model *SolverModel, budget Budget, logger *zap.Logger, seedState func(seed int64) *solverState) SolveOutcome {
	if logger == nil {
		logger = zap.NewNop()
	}
	start := time.Now()
	runCtx, cancel := context.WithTimeout(ctx, time.Duration(budget.MaxSeconds)*time.Second)
	defer cancel()
	deadline := start.Add(time.Duration(budget.MaxSeconds) * time.Second)

	workers := budget.Workers
	if workers <= 0 {
		workers = 1
	}

	states := make([]*solverState, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			state := seedState(int64(idx*7919 + 1))
			state.anneal(runCtx, deadline, logger)
			states[idx] = state
		}(w)
	}
	wg.Wait()

	if ctx.Err() == context.Canceled {
		return SolveOutcome{Status: StatusCancelled, Elapsed: time.Since(start)}
	}

	best := states[0]
	for _, state := range states[1:] {
		if state.violationCount() < best.violationCount() ||
			(state.violationCount() == best.violationCount() && state.objective() > best.objective()) {
			best = state
		}
	}

	unplaced := best.unplacedModules()
	violations := best.violationCount()
	elapsed := time.Since(start)

	status := StatusOptimal
	switch {
	case len(unplaced) > 0:
		status = StatusInfeasible
	case violations > 0:
		status = StatusFeasible
	case runCtx.Err() == context.DeadlineExceeded:
		status = StatusFeasible
	}

	logger.Info("solver run complete",
		zap.String("status", status.String()),
		zap.Int("unplaced", len(unplaced)),
		zap.Int("residualViolations", violations),
		zap.Duration("elapsed", elapsed),
	)

	return SolveOutcome{
		Status:      status,
		Assignments: best.assignments,
		Elapsed:     elapsed,
		Objective:   best.objective(),
	}
}
