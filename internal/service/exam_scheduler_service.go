package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campus-exams/exam-scheduler-api/internal/dto"
	"github.com/campus-exams/exam-scheduler-api/internal/models"
	appErrors "github.com/campus-exams/exam-scheduler-api/pkg/errors"
)

// examScheduleOptimizer is the Façade surface the service delegates the
// actual solve to.
type examScheduleOptimizer interface {
	OptimizeSchedule(ctx context.Context, req dto.OptimizeScheduleRequest) (*dto.OptimizeScheduleResult, error)
}

// examListRepository backs the read endpoints the service exposes.
type examListRepository interface {
	ListBySession(ctx context.Context, sessionID string) ([]models.Exam, error)
	ListByDepartment(ctx context.Context, sessionID, departmentID string) ([]models.Exam, error)
	ListConflicts(ctx context.Context, sessionID, departmentID string, onlyUnresolved bool) ([]models.ExamConflict, error)
}

// ExamSchedulerService validates requests and exposes the scheduler and its
// read surface to handlers.
type ExamSchedulerService struct {
	optimizer examScheduleOptimizer
	exams     examListRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExamSchedulerService instantiates ExamSchedulerService.
func NewExamSchedulerService(optimizer examScheduleOptimizer, exams examListRepository, validate *validator.Validate, logger *zap.Logger) *ExamSchedulerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExamSchedulerService{optimizer: optimizer, exams: exams, validator: validate, logger: logger}
}

// OptimizeSchedule validates req and delegates to the Façade.
func (s *ExamSchedulerService) OptimizeSchedule(ctx context.Context, req dto.OptimizeScheduleRequest) (*dto.OptimizeScheduleResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule optimisation request")
	}
	result, err := s.optimizer.OptimizeSchedule(ctx, req)
	if err != nil {
		return nil, err
	}
	s.logger.Info("schedule optimisation completed",
		zap.String("sessionId", req.SessionID),
		zap.Int("nbExams", result.NbExams),
	)
	return result, nil
}

// ListExams returns the persisted schedule for a session, optionally scoped
// to a department (vice-dean/department-head read surface).
func (s *ExamSchedulerService) ListExams(ctx context.Context, sessionID, departmentID string) ([]models.Exam, error) {
	if sessionID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "sessionId is required")
	}
	if departmentID != "" {
		return s.exams.ListByDepartment(ctx, sessionID, departmentID)
	}
	return s.exams.ListBySession(ctx, sessionID)
}

// ListConflicts returns the conflict log for a session, per ConflictReportQuery.
func (s *ExamSchedulerService) ListConflicts(ctx context.Context, query dto.ConflictReportQuery) ([]models.ExamConflict, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid conflict report query")
	}
	return s.exams.ListConflicts(ctx, query.SessionID, query.DepartmentID, query.OnlyUnresolved)
}
