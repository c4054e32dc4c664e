package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-exams/exam-scheduler-api/internal/dto"
	"github.com/campus-exams/exam-scheduler-api/internal/models"
	appErrors "github.com/campus-exams/exam-scheduler-api/pkg/errors"
)

type stubExamOptimizer struct {
	result *dto.OptimizeScheduleResult
	err    error
	called dto.OptimizeScheduleRequest
}

func (s *stubExamOptimizer) OptimizeSchedule(ctx context.Context, req dto.OptimizeScheduleRequest) (*dto.OptimizeScheduleResult, error) {
	s.called = req
	return s.result, s.err
}

type stubExamListRepo struct {
	bySession    []models.Exam
	byDepartment []models.Exam
	conflicts    []models.ExamConflict
	gotSessionID string
	gotDeptID    string
	gotUnresolvedOnly bool
}

func (s *stubExamListRepo) ListBySession(ctx context.Context, sessionID string) ([]models.Exam, error) {
	s.gotSessionID = sessionID
	return s.bySession, nil
}

func (s *stubExamListRepo) ListByDepartment(ctx context.Context, sessionID, departmentID string) ([]models.Exam, error) {
	s.gotSessionID = sessionID
	s.gotDeptID = departmentID
	return s.byDepartment, nil
}

func (s *stubExamListRepo) ListConflicts(ctx context.Context, sessionID, departmentID string, onlyUnresolved bool) ([]models.ExamConflict, error) {
	s.gotSessionID = sessionID
	s.gotDeptID = departmentID
	s.gotUnresolvedOnly = onlyUnresolved
	return s.conflicts, nil
}

func TestOptimizeScheduleRejectsInvalidRequest(t *testing.T) {
	svc := NewExamSchedulerService(&stubExamOptimizer{}, &stubExamListRepo{}, nil, nil)

	_, err := svc.OptimizeSchedule(context.Background(), dto.OptimizeScheduleRequest{})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestOptimizeScheduleDelegatesToOptimizer(t *testing.T) {
	optimizer := &stubExamOptimizer{result: &dto.OptimizeScheduleResult{Success: true, NbExams: 3}}
	svc := NewExamSchedulerService(optimizer, &stubExamListRepo{}, nil, nil)

	req := dto.OptimizeScheduleRequest{SessionID: "session-1", StartDate: "2026-06-01", NbDays: 10}
	result, err := svc.OptimizeSchedule(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, 3, result.NbExams)
	assert.Equal(t, "session-1", optimizer.called.SessionID)
}

func TestOptimizeSchedulePropagatesOptimizerError(t *testing.T) {
	optimizer := &stubExamOptimizer{err: appErrors.ErrSolverInfeasible}
	svc := NewExamSchedulerService(optimizer, &stubExamListRepo{}, nil, nil)

	req := dto.OptimizeScheduleRequest{SessionID: "session-1", StartDate: "2026-06-01", NbDays: 10}
	_, err := svc.OptimizeSchedule(context.Background(), req)

	assert.ErrorIs(t, err, appErrors.ErrSolverInfeasible)
}

func TestListExamsRequiresSessionID(t *testing.T) {
	svc := NewExamSchedulerService(&stubExamOptimizer{}, &stubExamListRepo{}, nil, nil)

	_, err := svc.ListExams(context.Background(), "", "")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestListExamsScopesToDepartmentWhenProvided(t *testing.T) {
	repo := &stubExamListRepo{byDepartment: []models.Exam{{ID: "e1"}}}
	svc := NewExamSchedulerService(&stubExamOptimizer{}, repo, nil, nil)

	exams, err := svc.ListExams(context.Background(), "session-1", "dept-1")
	require.NoError(t, err)

	assert.Equal(t, repo.byDepartment, exams)
	assert.Equal(t, "dept-1", repo.gotDeptID)
}

func TestListExamsFallsBackToSessionWideListing(t *testing.T) {
	repo := &stubExamListRepo{bySession: []models.Exam{{ID: "e1"}, {ID: "e2"}}}
	svc := NewExamSchedulerService(&stubExamOptimizer{}, repo, nil, nil)

	exams, err := svc.ListExams(context.Background(), "session-1", "")
	require.NoError(t, err)

	assert.Len(t, exams, 2)
}

func TestListConflictsValidatesQuery(t *testing.T) {
	svc := NewExamSchedulerService(&stubExamOptimizer{}, &stubExamListRepo{}, nil, nil)

	_, err := svc.ListConflicts(context.Background(), dto.ConflictReportQuery{})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestListConflictsDelegatesWithFilters(t *testing.T) {
	repo := &stubExamListRepo{conflicts: []models.ExamConflict{{ID: "c1"}}}
	svc := NewExamSchedulerService(&stubExamOptimizer{}, repo, nil, nil)

	query := dto.ConflictReportQuery{SessionID: "session-1", DepartmentID: "dept-1", OnlyUnresolved: true}
	conflicts, err := svc.ListConflicts(context.Background(), query)

	require.NoError(t, err)
	assert.Len(t, conflicts, 1)
	assert.Equal(t, "dept-1", repo.gotDeptID)
	assert.True(t, repo.gotUnresolvedOnly)
}
