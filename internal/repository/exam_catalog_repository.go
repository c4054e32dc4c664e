package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/campus-exams/exam-scheduler-api/internal/models"
)

// ExamCatalogRepository reads the reference data the Loader shapes into a
// solver-ready model: sessions, departments, formations, examinable
// modules, students and their enrolments.
type ExamCatalogRepository struct {
	db *sqlx.DB
}

// NewExamCatalogRepository builds a catalog repository over db.
func NewExamCatalogRepository(db *sqlx.DB) *ExamCatalogRepository {
	return &ExamCatalogRepository{db: db}
}

// FindSession loads a session by id.
func (r *ExamCatalogRepository) FindSession(ctx context.Context, sessionID string) (*models.ExamSession, error) {
	const query = `SELECT id, label, academic_year, start_date, end_date, status FROM sessions WHERE id = $1`
	var session models.ExamSession
	if err := r.db.GetContext(ctx, &session, query, sessionID); err != nil {
		return nil, fmt.Errorf("find exam session: %w", err)
	}
	return &session, nil
}

// ExaminableModulesWithCounts returns modules with at least one enrolment in
// the session, ordered by enrolment count descending, limited to the top
// `limit` modules. It returns the modules alongside their
// enrolment counts so the Loader does not need a second round-trip.
func (r *ExamCatalogRepository) ExaminableModulesWithCounts(ctx context.Context, sessionID string, limit int) ([]ModuleWithCount, error) {
	const query = `
		SELECT m.id, m.code, m.name, m.formation_id, COUNT(e.student_id) AS enrolled_count
		FROM modules m
		JOIN enrolments e ON e.module_id = m.id AND e.session_id = $1 AND e.status = 'ACTIVE'
		GROUP BY m.id, m.code, m.name, m.formation_id
		ORDER BY enrolled_count DESC
		LIMIT $2`
	var rows []ModuleWithCount
	if err := r.db.SelectContext(ctx, &rows, query, sessionID, limit); err != nil {
		return nil, fmt.Errorf("list examinable modules: %w", err)
	}
	return rows, nil
}

// EnrolmentsForModules returns the (student, module) enrolment edges
// restricted to the retained module set.
func (r *ExamCatalogRepository) EnrolmentsForModules(ctx context.Context, sessionID string, moduleIDs []string) ([]models.Enrolment, error) {
	if len(moduleIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`
		SELECT student_id, module_id, session_id, academic_year, status
		FROM enrolments
		WHERE session_id = ? AND module_id IN (?) AND status = 'ACTIVE'`, sessionID, moduleIDs)
	if err != nil {
		return nil, fmt.Errorf("build enrolments query: %w", err)
	}
	query = r.db.Rebind(query)
	var enrolments []models.Enrolment
	if err := r.db.SelectContext(ctx, &enrolments, query, args...); err != nil {
		return nil, fmt.Errorf("list enrolments for modules: %w", err)
	}
	return enrolments, nil
}

// ModuleWithCount pairs a module with its effective size for a session.
type ModuleWithCount struct {
	ID            string `db:"id"`
	Code          string `db:"code"`
	Name          string `db:"name"`
	FormationID   string `db:"formation_id"`
	EnrolledCount int    `db:"enrolled_count"`
}

// ListModulesByDepartment is the department-head read path: modules scoped
// to the formations owned by a department.
func (r *ExamCatalogRepository) ListModulesByDepartment(ctx context.Context, departmentID string) ([]models.ExamModule, error) {
	const query = `
		SELECT m.id, m.code, m.name, m.formation_id
		FROM modules m
		JOIN formations f ON f.id = m.formation_id
		WHERE f.dept_id = $1
		ORDER BY m.code`
	var modules []models.ExamModule
	if err := r.db.SelectContext(ctx, &modules, query, departmentID); err != nil {
		return nil, fmt.Errorf("list modules by department: %w", err)
	}
	return modules, nil
}
