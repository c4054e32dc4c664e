package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-exams/exam-scheduler-api/internal/dto"
	"github.com/campus-exams/exam-scheduler-api/internal/models"
	"github.com/campus-exams/exam-scheduler-api/internal/repository"
	appErrors "github.com/campus-exams/exam-scheduler-api/pkg/errors"
)

type fakeExamWriter struct {
	sessionID string
	exams     []models.Exam
	err       error
}

func (f *fakeExamWriter) ReplaceSessionExams(ctx context.Context, sessionID string, exams []models.Exam) error {
	if f.err != nil {
		return f.err
	}
	f.sessionID = sessionID
	f.exams = exams
	return nil
}

type fakeMetricsRecorder struct {
	runsObserved    int
	recordedKinds   map[string]int
}

func (f *fakeMetricsRecorder) ObserveExamSchedulerRun(duration time.Duration) {
	f.runsObserved++
}

func (f *fakeMetricsRecorder) RecordExamConflicts(kind string, count int) {
	if f.recordedKinds == nil {
		f.recordedKinds = make(map[string]int)
	}
	f.recordedKinds[kind] = count
}

func newFacadeFixture(t *testing.T, numModules, numRooms, numProctors int) (*Facade, *fakeExamWriter, *fakeMetricsRecorder) {
	t.Helper()

	modules := make([]repository.ModuleWithCount, numModules)
	for i := range modules {
		modules[i] = repository.ModuleWithCount{
			ID:            "mod-" + string(rune('0'+i)),
			Code:          "CODE",
			FormationID:   "f1",
			EnrolledCount: 10,
		}
	}
	rooms := make([]models.Room, numRooms)
	for i := range rooms {
		rooms[i] = models.Room{ID: "room-" + string(rune('0'+i)), ExamCapacity: 50}
	}
	proctors := make([]models.Proctor, numProctors)
	for i := range proctors {
		proctors[i] = models.Proctor{ID: "proc-" + string(rune('0'+i)), MaxSurveillancePerDay: 10}
	}

	catalog := &fakeCatalogReader{modules: modules}
	resources := &fakeResourceReader{rooms: rooms, proctors: proctors}
	loader := NewLoader(catalog, resources, nil)

	source := &fakeConflictSource{}
	detector := NewDetector(source, nil)

	writer := &fakeExamWriter{}
	metrics := &fakeMetricsRecorder{}

	facade := NewFacade(loader, writer, detector, metrics, DefaultLimits(), Budget{MaxSeconds: 2, Workers: 2}, nil)
	return facade, writer, metrics
}

func TestOptimizeScheduleEndToEndPersistsAndDetects(t *testing.T) {
	facade, writer, metrics := newFacadeFixture(t, 5, 2, 2)

	req := dto.OptimizeScheduleRequest{
		SessionID: "session-1",
		StartDate: "2026-06-01",
		NbDays:    5,
	}

	result, err := facade.OptimizeSchedule(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 5, result.NbExams)
	assert.Equal(t, "session-1", writer.sessionID)
	assert.Len(t, writer.exams, 5)
	assert.Equal(t, 1, metrics.runsObserved)
}

func TestOptimizeScheduleRejectsMalformedStartDate(t *testing.T) {
	facade, _, _ := newFacadeFixture(t, 3, 1, 1)

	req := dto.OptimizeScheduleRequest{
		SessionID: "session-1",
		StartDate: "not-a-date",
		NbDays:    5,
	}

	_, err := facade.OptimizeSchedule(context.Background(), req)
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.Status)
}

func TestOptimizeScheduleReifiesEmptyInputAsFailure(t *testing.T) {
	catalog := &fakeCatalogReader{}
	resources := &fakeResourceReader{}
	loader := NewLoader(catalog, resources, nil)
	detector := NewDetector(&fakeConflictSource{}, nil)
	writer := &fakeExamWriter{}

	facade := NewFacade(loader, writer, detector, nil, DefaultLimits(), Budget{MaxSeconds: 1, Workers: 1}, nil)

	req := dto.OptimizeScheduleRequest{SessionID: "session-1", StartDate: "2026-06-01", NbDays: 5}
	result, err := facade.OptimizeSchedule(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "no modules", result.Message)
	assert.Empty(t, writer.exams)
}

func TestOptimizeSchedulePropagatesLoaderDatabaseFailure(t *testing.T) {
	catalog := &fakeCatalogReader{err: assert.AnError}
	resources := &fakeResourceReader{}
	loader := NewLoader(catalog, resources, nil)
	detector := NewDetector(&fakeConflictSource{}, nil)
	writer := &fakeExamWriter{}

	facade := NewFacade(loader, writer, detector, nil, DefaultLimits(), Budget{MaxSeconds: 1, Workers: 1}, nil)

	req := dto.OptimizeScheduleRequest{SessionID: "session-1", StartDate: "2026-06-01", NbDays: 5}
	_, err := facade.OptimizeSchedule(context.Background(), req)
	require.Error(t, err)
	assert.Empty(t, writer.exams)
}

func TestClassifyOutcomeMapsCancelledAndInfeasible(t *testing.T) {
	facade, _, _ := newFacadeFixture(t, 1, 1, 1)

	assert.ErrorIs(t, facade.classifyOutcome(SolveOutcome{Status: StatusCancelled}), appErrors.ErrSchedulerCancelled)
	assert.ErrorIs(t, facade.classifyOutcome(SolveOutcome{Status: StatusInfeasible}), appErrors.ErrSolverInfeasible)
	assert.NoError(t, facade.classifyOutcome(SolveOutcome{Status: StatusFeasible}))
}

func TestReifyFailureMapsKnownErrorKinds(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		message string
	}{
		{"input empty", appErrors.Clone(appErrors.ErrInputEmpty, "no modules with enrolments found for this session"), "no modules"},
		{"capacity infeasible keeps offending-module message", appErrors.Clone(appErrors.ErrCapacityInfeasible, "module m1 (80 students) fits no available room"), "module m1 (80 students) fits no available room"},
		{"solver infeasible", appErrors.ErrSolverInfeasible, "increase nb_days"},
		{"solver timeout", appErrors.ErrSolverTimeout, "increase nb_days"},
		{"cancelled", appErrors.ErrSchedulerCancelled, "cancelled"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := reifyFailure(tc.err)
			require.NotNil(t, result)
			assert.False(t, result.Success)
			assert.Equal(t, tc.message, result.Message)
		})
	}
}

func TestReifyFailureLeavesDatabaseAndValidationErrorsUnreified(t *testing.T) {
	assert.Nil(t, reifyFailure(appErrors.Wrap(assert.AnError, "DATABASE_UNAVAILABLE", 503, "failed to persist schedule")))
	assert.Nil(t, reifyFailure(appErrors.Wrap(assert.AnError, "VALIDATION_ERROR", 400, "startDate must be YYYY-MM-DD")))
}

func TestRemainingSecondsNeverGoesNegative(t *testing.T) {
	assert.Equal(t, 0, remainingSeconds(5, 9*time.Second))
	assert.Equal(t, 2, remainingSeconds(5, 3*time.Second))
}

func TestUsedRoomsProctorsDaysCountDistinctPlacedOnly(t *testing.T) {
	outcome := SolveOutcome{
		Assignments: []Assignment{
			{Day: 0, Room: 0, Proctor: 0},
			{Day: 0, Room: 1, Proctor: 0},
			{Day: -1, Room: 5, Proctor: 5},
		},
	}

	assert.Equal(t, 2, usedRooms(outcome))
	assert.Equal(t, 1, usedProctors(outcome))
	assert.Equal(t, 1, usedDays(outcome))
}
