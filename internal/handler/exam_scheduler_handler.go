package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-exams/exam-scheduler-api/internal/dto"
	"github.com/campus-exams/exam-scheduler-api/internal/models"
	"github.com/campus-exams/exam-scheduler-api/internal/service"
	"github.com/campus-exams/exam-scheduler-api/pkg/export"
	appErrors "github.com/campus-exams/exam-scheduler-api/pkg/errors"
	"github.com/campus-exams/exam-scheduler-api/pkg/response"
)

type examScheduler interface {
	OptimizeSchedule(ctx context.Context, req dto.OptimizeScheduleRequest) (*dto.OptimizeScheduleResult, error)
	ListExams(ctx context.Context, sessionID, departmentID string) ([]models.Exam, error)
	ListConflicts(ctx context.Context, query dto.ConflictReportQuery) ([]models.ExamConflict, error)
}

// ExamSchedulerHandler exposes the exam scheduling endpoints.
type ExamSchedulerHandler struct {
	service examScheduler
}

// NewExamSchedulerHandler constructs the handler.
func NewExamSchedulerHandler(svc *service.ExamSchedulerService) *ExamSchedulerHandler {
	return &ExamSchedulerHandler{service: svc}
}

// Optimize godoc
// @Summary Run the examination timetable optimiser for a session
// @Tags ExamScheduler
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.OptimizeScheduleRequest true "Optimisation request"
// @Success 200 {object} response.Envelope
// @Router /exam-sessions/{id}/schedule [post]
func (h *ExamSchedulerHandler) Optimize(c *gin.Context) {
	var req dto.OptimizeScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid optimisation payload"))
		return
	}
	req.SessionID = c.Param("id")

	result, err := h.service.OptimizeSchedule(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ListExams godoc
// @Summary List the persisted exam timetable for a session
// @Tags ExamScheduler
// @Produce json
// @Param id path string true "Session ID"
// @Param departmentId query string false "Filter by department"
// @Success 200 {object} response.Envelope
// @Router /exam-sessions/{id}/exams [get]
func (h *ExamSchedulerHandler) ListExams(c *gin.Context) {
	exams, err := h.service.ListExams(c.Request.Context(), c.Param("id"), c.Query("departmentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exams, nil)
}

// ListConflicts godoc
// @Summary List detected conflicts for a session
// @Tags ExamScheduler
// @Produce json
// @Param id path string true "Session ID"
// @Param departmentId query string false "Filter by department"
// @Param onlyUnresolved query bool false "Only unresolved conflicts"
// @Success 200 {object} response.Envelope
// @Router /exam-sessions/{id}/conflicts [get]
func (h *ExamSchedulerHandler) ListConflicts(c *gin.Context) {
	query := dto.ConflictReportQuery{
		SessionID:      c.Param("id"),
		DepartmentID:   c.Query("departmentId"),
		OnlyUnresolved: c.Query("onlyUnresolved") == "true",
	}
	conflicts, err := h.service.ListConflicts(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, conflicts, nil)
}

// ExportConflicts godoc
// @Summary Export detected conflicts for a session as PDF or CSV
// @Tags ExamScheduler
// @Produce application/pdf
// @Produce text/csv
// @Param id path string true "Session ID"
// @Param departmentId query string false "Filter by department"
// @Param onlyUnresolved query bool false "Only unresolved conflicts"
// @Param format query string false "pdf or csv" default(pdf)
// @Success 200 {file} file
// @Router /exam-sessions/{id}/conflicts/export [get]
func (h *ExamSchedulerHandler) ExportConflicts(c *gin.Context) {
	query := dto.ConflictReportQuery{
		SessionID:      c.Param("id"),
		DepartmentID:   c.Query("departmentId"),
		OnlyUnresolved: c.Query("onlyUnresolved") == "true",
	}
	conflicts, err := h.service.ListConflicts(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}

	rows := make([]dto.ConflictReportRow, 0, len(conflicts))
	for _, conflict := range conflicts {
		rows = append(rows, dto.ConflictReportRow{
			ConflictID:  conflict.ID,
			ExamID:      conflict.ExamID,
			Kind:        string(conflict.Kind),
			Description: conflict.Description,
			Severity:    conflict.Severity,
			Resolved:    conflict.Resolved,
			DetectedAt:  conflict.DetectedAt,
		})
	}

	if c.Query("format") == "csv" {
		data, err := export.ConflictsToCSV(rows)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export conflicts as csv"))
			return
		}
		c.Header("Content-Disposition", "attachment; filename=conflicts.csv")
		c.Data(http.StatusOK, "text/csv", data)
		return
	}

	data, err := export.ConflictsToPDF(rows)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export conflicts as pdf"))
		return
	}
	c.Header("Content-Disposition", "attachment; filename=conflicts.pdf")
	c.Data(http.StatusOK, "application/pdf", data)
}
