package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campus-exams/exam-scheduler-api/internal/dto"
	"github.com/campus-exams/exam-scheduler-api/internal/models"
	appErrors "github.com/campus-exams/exam-scheduler-api/pkg/errors"
)

// ExamWriter is the persistence surface the Façade commits a solved
// schedule through.
type ExamWriter interface {
	ReplaceSessionExams(ctx context.Context, sessionID string, exams []models.Exam) error
}

// MetricsRecorder is the Prometheus surface the Façade reports run duration
// and conflict counts to. Optional: a nil recorder is a no-op, keeping this
// package free of a direct dependency on the service package's metrics type.
type MetricsRecorder interface {
	ObserveExamSchedulerRun(duration time.Duration)
	RecordExamConflicts(kind string, count int)
}

// Facade orchestrates Loader -> Model Builder -> Solver Driver -> Solution
// Extractor -> persistence -> Conflict Detector for a single optimisation
// run, including the bounded repair pass.
type Facade struct {
	loader   *Loader
	writer   ExamWriter
	detector *Detector
	metrics  MetricsRecorder
	limits   Limits
	budget   Budget
	logger   *zap.Logger
}

// NewFacade wires a Façade from its collaborators. metrics may be nil.
func NewFacade(loader *Loader, writer ExamWriter, detector *Detector, metrics MetricsRecorder, limits Limits, budget Budget, logger *zap.Logger) *Facade {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Facade{loader: loader, writer: writer, detector: detector, metrics: metrics, limits: limits, budget: budget, logger: logger}
}

// OptimizeSchedule runs one end-to-end scheduling pass for a session: it
// loads the input, posts constraints, solves, and on a usable result
// persists it and runs the Detector. If residual student collisions remain
// and budget allows, it runs exactly one additional warm-started repair
// solve before persisting.
func (f *Facade) OptimizeSchedule(ctx context.Context, req dto.OptimizeScheduleRequest) (*dto.OptimizeScheduleResult, error) {
	start := time.Now()

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, appErrors.Wrap(err, "VALIDATION_ERROR", 400, "startDate must be YYYY-MM-DD")
	}

	input, err := f.loader.Load(ctx, req.SessionID, startDate, f.limits.ModuleLimit)
	if err != nil {
		if result := reifyFailure(err); result != nil {
			return result, nil
		}
		return nil, err
	}

	model, err := BuildModel(input, req.NbDays, f.limits)
	if err != nil {
		if result := reifyFailure(err); result != nil {
			return result, nil
		}
		return nil, err
	}
	if model.H2Truncated || model.H3Truncated {
		f.logger.Warn("model builder truncated pairwise constraints",
			zap.String("sessionId", req.SessionID),
			zap.Bool("h2Truncated", model.H2Truncated),
			zap.Bool("h3Truncated", model.H3Truncated),
		)
	}

	outcome := Solve(ctx, model, f.budget, f.logger)
	if err := f.classifyOutcome(outcome); err != nil {
		if result := reifyFailure(err); result != nil {
			return result, nil
		}
		return nil, err
	}

	residualBeforeRepair := CountStudentCollisions(model, outcome.Assignments)
	repairRan := false

	if residualBeforeRepair > 0 {
		remaining := f.budget
		remaining.MaxSeconds = remainingSeconds(f.budget.MaxSeconds, outcome.Elapsed)
		if remaining.MaxSeconds > 0 {
			f.logger.Info("residual student collisions detected, running bounded repair pass",
				zap.String("sessionId", req.SessionID),
				zap.Int("residualCollisions", residualBeforeRepair),
			)
			repaired := Repair(ctx, model, outcome.Assignments, remaining, f.logger)
			if err := f.classifyOutcome(repaired); err == nil {
				outcome = repaired
				repairRan = true
			}
		}
	}

	exams := Extract(input, outcome)
	if err := f.writer.ReplaceSessionExams(ctx, req.SessionID, exams); err != nil {
		return nil, appErrors.Wrap(err, "DATABASE_UNAVAILABLE", 503, "failed to persist schedule")
	}

	conflictCounts, err := f.detector.Run(ctx, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("post-persist conflict detection: %w", err)
	}
	totalConflicts := 0
	for _, c := range conflictCounts {
		totalConflicts += c
	}

	rooms := usedRooms(outcome)
	proctors := usedProctors(outcome)
	days := usedDays(outcome)

	if f.metrics != nil {
		f.metrics.ObserveExamSchedulerRun(time.Since(start))
		for kind, count := range conflictCounts {
			f.metrics.RecordExamConflicts(string(kind), count)
		}
	}

	return &dto.OptimizeScheduleResult{
		Success:        true,
		ElapsedSeconds: time.Since(start).Seconds(),
		NbExams:        len(exams),
		Stats: dto.ScheduleRunStats{
			DaysUsed:                       days,
			RoomsUsed:                      rooms,
			ProctorsUsed:                   proctors,
			RepairPassRun:                  repairRan,
			ResidualCollisionsBeforeRepair: residualBeforeRepair,
		},
		Message: fmt.Sprintf("scheduled %d exams, %d conflicts logged", len(exams), totalConflicts),
	}, nil
}

// reifyFailure turns the scheduler's recoverable-by-the-user error kinds
// (empty input, no room fits a module, no feasible schedule, cancellation)
// into a {success=false, message} Result instead of an HTTP error, naming the
// stage at which the run stopped and the corrective action. Database
// failures and validation errors are not recognised here and fall through
// to nil, so the caller propagates them as real errors.
func reifyFailure(err error) *dto.OptimizeScheduleResult {
	appErr := appErrors.FromError(err)
	if appErr == nil {
		return nil
	}

	var message string
	switch appErr.Code {
	case appErrors.ErrInputEmpty.Code:
		message = "no modules"
	case appErrors.ErrCapacityInfeasible.Code:
		message = appErr.Message
	case appErrors.ErrSolverInfeasible.Code, appErrors.ErrSolverTimeout.Code:
		message = "increase nb_days"
	case appErrors.ErrSchedulerCancelled.Code:
		message = "cancelled"
	default:
		return nil
	}

	return &dto.OptimizeScheduleResult{Success: false, Message: message}
}

func (f *Facade) classifyOutcome(outcome SolveOutcome) error {
	switch outcome.Status {
	case StatusCancelled:
		return appErrors.ErrSchedulerCancelled
	case StatusInfeasible:
		return appErrors.ErrSolverInfeasible
	default:
		return nil
	}
}

func remainingSeconds(total int, elapsed time.Duration) int {
	remaining := total - int(elapsed.Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}

func usedRooms(outcome SolveOutcome) int {
	seen := make(map[int]struct{})
	for _, a := range outcome.Assignments {
		if a.Day >= 0 {
			seen[a.Room] = struct{}{}
		}
	}
	return len(seen)
}

func usedProctors(outcome SolveOutcome) int {
	seen := make(map[int]struct{})
	for _, a := range outcome.Assignments {
		if a.Day >= 0 {
			seen[a.Proctor] = struct{}{}
		}
	}
	return len(seen)
}

func usedDays(outcome SolveOutcome) int {
	seen := make(map[int]struct{})
	for _, a := range outcome.Assignments {
		if a.Day >= 0 {
			seen[a.Day] = struct{}{}
		}
	}
	return len(seen)
}
