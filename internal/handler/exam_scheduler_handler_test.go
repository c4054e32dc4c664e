package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campus-exams/exam-scheduler-api/internal/dto"
	"github.com/campus-exams/exam-scheduler-api/internal/models"
	appErrors "github.com/campus-exams/exam-scheduler-api/pkg/errors"
)

type stubExamSchedulerService struct {
	optimizeResult *dto.OptimizeScheduleResult
	optimizeErr    error
	exams          []models.Exam
	examsErr       error
	conflicts      []models.ExamConflict
	conflictsErr   error
}

func (s *stubExamSchedulerService) OptimizeSchedule(ctx context.Context, req dto.OptimizeScheduleRequest) (*dto.OptimizeScheduleResult, error) {
	return s.optimizeResult, s.optimizeErr
}

func (s *stubExamSchedulerService) ListExams(ctx context.Context, sessionID, departmentID string) ([]models.Exam, error) {
	return s.exams, s.examsErr
}

func (s *stubExamSchedulerService) ListConflicts(ctx context.Context, query dto.ConflictReportQuery) ([]models.ExamConflict, error) {
	return s.conflicts, s.conflictsErr
}

func newTestExamSchedulerHandler(svc examScheduler) *ExamSchedulerHandler {
	return &ExamSchedulerHandler{service: svc}
}

func TestExamSchedulerHandlerOptimizeSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTestExamSchedulerHandler(&stubExamSchedulerService{
		optimizeResult: &dto.OptimizeScheduleResult{Success: true, NbExams: 4},
	})

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	body := `{"startDate":"2026-06-01","nbDays":10}`
	c.Request = httptest.NewRequest(http.MethodPost, "/exam-sessions/session-1/schedule", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "session-1"}}

	handler.Optimize(c)

	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d, body: %s", recorder.Code, recorder.Body.String())
	}
}

func TestExamSchedulerHandlerOptimizeRejectsBadJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTestExamSchedulerHandler(&stubExamSchedulerService{})

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodPost, "/exam-sessions/session-1/schedule", strings.NewReader("{not json"))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "session-1"}}

	handler.Optimize(c)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}

func TestExamSchedulerHandlerOptimizePropagatesServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dbErr := appErrors.Wrap(appErrors.ErrInternal, "DATABASE_UNAVAILABLE", http.StatusServiceUnavailable, "failed to persist schedule")
	handler := newTestExamSchedulerHandler(&stubExamSchedulerService{optimizeErr: dbErr})

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	body := `{"startDate":"2026-06-01","nbDays":10}`
	c.Request = httptest.NewRequest(http.MethodPost, "/exam-sessions/session-1/schedule", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "session-1"}}

	handler.Optimize(c)

	if recorder.Code != http.StatusServiceUnavailable {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}

// Reified scheduler failures (solver infeasible, empty input, cancellation)
// never reach the handler as an error: the Façade/service turn them into a
// Success:false Result, which is still a 200 response.
func TestExamSchedulerHandlerOptimizeReturnsOKForReifiedFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTestExamSchedulerHandler(&stubExamSchedulerService{
		optimizeResult: &dto.OptimizeScheduleResult{Success: false, Message: "increase nb_days"},
	})

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	body := `{"startDate":"2026-06-01","nbDays":10}`
	c.Request = httptest.NewRequest(http.MethodPost, "/exam-sessions/session-1/schedule", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "session-1"}}

	handler.Optimize(c)

	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), `"success":false`) || !strings.Contains(recorder.Body.String(), `"increase nb_days"`) {
		t.Fatalf("expected reified failure body, got: %s", recorder.Body.String())
	}
}

func TestExamSchedulerHandlerListExams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTestExamSchedulerHandler(&stubExamSchedulerService{
		exams: []models.Exam{{ID: "e1"}, {ID: "e2"}},
	})

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, "/exam-sessions/session-1/exams", nil)
	c.Params = gin.Params{{Key: "id", Value: "session-1"}}

	handler.ListExams(c)

	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}

func TestExamSchedulerHandlerListConflicts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTestExamSchedulerHandler(&stubExamSchedulerService{
		conflicts: []models.ExamConflict{{ID: "c1", DetectedAt: time.Now()}},
	})

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, "/exam-sessions/session-1/conflicts?onlyUnresolved=true", nil)
	c.Params = gin.Params{{Key: "id", Value: "session-1"}}

	handler.ListConflicts(c)

	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}

func TestExamSchedulerHandlerExportConflictsCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTestExamSchedulerHandler(&stubExamSchedulerService{
		conflicts: []models.ExamConflict{{ID: "c1", Kind: models.ConflictKindStudentCollision, DetectedAt: time.Now()}},
	})

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, "/exam-sessions/session-1/conflicts/export?format=csv", nil)
	c.Params = gin.Params{{Key: "id", Value: "session-1"}}

	handler.ExportConflicts(c)

	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	if recorder.Header().Get("Content-Type") != "text/csv" {
		t.Fatalf("unexpected content type: %s", recorder.Header().Get("Content-Type"))
	}
}

func TestExamSchedulerHandlerExportConflictsPDFByDefault(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTestExamSchedulerHandler(&stubExamSchedulerService{
		conflicts: []models.ExamConflict{{ID: "c1", Kind: models.ConflictKindProctorOverload, DetectedAt: time.Now()}},
	})

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, "/exam-sessions/session-1/conflicts/export", nil)
	c.Params = gin.Params{{Key: "id", Value: "session-1"}}

	handler.ExportConflicts(c)

	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	if recorder.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("unexpected content type: %s", recorder.Header().Get("Content-Type"))
	}
}
