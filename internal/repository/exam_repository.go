package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campus-exams/exam-scheduler-api/internal/models"
)

// ExamRepository owns the exams and conflicts tables: the Extractor's sole
// writer, and the Detector's read surface.
type ExamRepository struct {
	db *sqlx.DB
}

// NewExamRepository builds an exam repository over db.
func NewExamRepository(db *sqlx.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

// ReplaceSessionExams deletes every exam row for sessionID and inserts the
// replacement set in one transaction.
// No partial persistence is permitted: a failure at any step rolls back and
// leaves the prior schedule untouched.
func (r *ExamRepository) ReplaceSessionExams(ctx context.Context, sessionID string, exams []models.Exam) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace session exams: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM exams WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("delete prior session exams: %w", err)
	}

	for i := range exams {
		exam := exams[i]
		if exam.ID == "" {
			exam.ID = uuid.NewString()
		}
		const insert = `
			INSERT INTO exams
				(id, module_id, session_id, date, start_time, duration_minutes, room_id, proctor_id, enrolled_count, status)
			VALUES
				(:id, :module_id, :session_id, :date, :start_time, :duration_minutes, :room_id, :proctor_id, :enrolled_count, :status)`
		if _, err = sqlx.NamedExecContext(ctx, tx, insert, &exam); err != nil {
			return fmt.Errorf("insert exam for module %s: %w", exam.ModuleID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace session exams: %w", err)
	}
	return nil
}

// ListBySession returns every exam row for a session.
func (r *ExamRepository) ListBySession(ctx context.Context, sessionID string) ([]models.Exam, error) {
	const query = `
		SELECT id, module_id, session_id, date, start_time, duration_minutes, room_id, proctor_id, enrolled_count, status
		FROM exams WHERE session_id = $1 ORDER BY date, start_time`
	var exams []models.Exam
	if err := r.db.SelectContext(ctx, &exams, query, sessionID); err != nil {
		return nil, fmt.Errorf("list exams by session: %w", err)
	}
	return exams, nil
}

// ListByDepartment is the vice-dean/department-head read path: exams scoped
// through their module's formation/department.
func (r *ExamRepository) ListByDepartment(ctx context.Context, sessionID, departmentID string) ([]models.Exam, error) {
	const query = `
		SELECT ex.id, ex.module_id, ex.session_id, ex.date, ex.start_time, ex.duration_minutes,
		       ex.room_id, ex.proctor_id, ex.enrolled_count, ex.status
		FROM exams ex
		JOIN modules m ON m.id = ex.module_id
		JOIN formations f ON f.id = m.formation_id
		WHERE ex.session_id = $1 AND f.dept_id = $2
		ORDER BY ex.date, ex.start_time`
	var exams []models.Exam
	if err := r.db.SelectContext(ctx, &exams, query, sessionID, departmentID); err != nil {
		return nil, fmt.Errorf("list exams by department: %w", err)
	}
	return exams, nil
}

// StudentCollisions recomputes students with >=2 exams on the same day
// directly from the persisted schedule.
func (r *ExamRepository) StudentCollisions(ctx context.Context, sessionID string) ([]models.StudentCollisionRow, error) {
	const query = `
		SELECT e.student_id AS student_id, ex.date AS date, COUNT(*) AS count,
		       array_agg(DISTINCT ex.module_id) AS module_ids,
		       array_agg(DISTINCT ex.id) AS exam_ids
		FROM exams ex
		JOIN enrolments e ON e.module_id = ex.module_id AND e.session_id = ex.session_id AND e.status = 'ACTIVE'
		WHERE ex.session_id = $1
		GROUP BY e.student_id, ex.date
		HAVING COUNT(*) >= 2
		ORDER BY count DESC, ex.date`
	rows, err := r.db.QueryxContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("student collisions: %w", err)
	}
	defer rows.Close()

	var results []models.StudentCollisionRow
	for rows.Next() {
		var studentID string
		var date time.Time
		var count int
		var moduleIDs pq.StringArray
		var examIDs pq.StringArray
		if err := rows.Scan(&studentID, &date, &count, &moduleIDs, &examIDs); err != nil {
			return nil, fmt.Errorf("scan student collision row: %w", err)
		}
		results = append(results, models.StudentCollisionRow{
			StudentID: studentID,
			Date:      date,
			Count:     count,
			ModuleIDs: []string(moduleIDs),
			ExamIDs:   []string(examIDs),
		})
	}
	return results, rows.Err()
}

// ProctorOverloads recomputes proctors whose per-day assignment count
// exceeds their configured cap, directly from the persisted schedule.
func (r *ExamRepository) ProctorOverloads(ctx context.Context, sessionID string) ([]models.ProctorOverloadRow, error) {
	const query = `
		SELECT ex.proctor_id AS proctor_id, ex.date AS date, COUNT(*) AS count,
		       array_agg(ex.id) AS exam_ids
		FROM exams ex
		JOIN proctors p ON p.id = ex.proctor_id
		WHERE ex.session_id = $1
		GROUP BY ex.proctor_id, ex.date, p.max_surveillance_per_day
		HAVING COUNT(*) > p.max_surveillance_per_day
		ORDER BY count DESC, ex.date`
	rawRows, err := r.db.QueryxContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("proctor overloads: %w", err)
	}
	defer rawRows.Close()

	var results []models.ProctorOverloadRow
	for rawRows.Next() {
		var proctorID string
		var date time.Time
		var count int
		var examIDs pq.StringArray
		if err := rawRows.Scan(&proctorID, &date, &count, &examIDs); err != nil {
			return nil, fmt.Errorf("scan proctor overload row: %w", err)
		}
		results = append(results, models.ProctorOverloadRow{
			ProctorID: proctorID,
			Date:      date,
			Count:     count,
			ExamIDs:   []string(examIDs),
		})
	}
	return results, rawRows.Err()
}

// CapacityOverflows recomputes exams whose enrolled count exceeds the
// assigned room's exam-mode capacity.
func (r *ExamRepository) CapacityOverflows(ctx context.Context, sessionID string) ([]models.CapacityOverflowRow, error) {
	const query = `
		SELECT ex.id AS exam_id, ex.module_id AS module_id, ex.room_id AS room_id,
		       ex.enrolled_count AS enrolled_count, r.exam_capacity AS exam_capacity
		FROM exams ex
		JOIN rooms r ON r.id = ex.room_id
		WHERE ex.session_id = $1 AND ex.enrolled_count > r.exam_capacity`
	var rows []models.CapacityOverflowRow
	if err := r.db.SelectContext(ctx, &rows, query, sessionID); err != nil {
		return nil, fmt.Errorf("capacity overflows: %w", err)
	}
	return rows, nil
}

// DeleteConflictsForSession removes every unresolved conflict row tied to
// sessionID's exams, run immediately before InsertConflicts so the
// Detector's unresolved rows reflect only the latest detection pass rather
// than accumulating duplicates across repeated runs. Rows already marked
// resolved are kept.
func (r *ExamRepository) DeleteConflictsForSession(ctx context.Context, sessionID string) error {
	const query = `DELETE FROM conflicts WHERE resolved = FALSE AND exam_id IN (SELECT id FROM exams WHERE session_id = $1)`
	if _, err := r.db.ExecContext(ctx, query, sessionID); err != nil {
		return fmt.Errorf("delete conflicts for session %s: %w", sessionID, err)
	}
	return nil
}

// InsertConflicts writes detected violations into the conflicts log.
// Resolution (marking a row resolved) is a separate, explicit workflow and
// is not affected by DeleteConflictsForSession, which only clears unresolved
// rows ahead of the next detection pass.
func (r *ExamRepository) InsertConflicts(ctx context.Context, conflicts []models.ExamConflict) error {
	if len(conflicts) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range conflicts {
		c := conflicts[i]
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if c.DetectedAt.IsZero() {
			c.DetectedAt = now
		}
		const insert = `
			INSERT INTO conflicts (id, exam_id, kind, description, severity, resolved, detected_at)
			VALUES (:id, :exam_id, :kind, :description, :severity, :resolved, :detected_at)`
		if _, err := sqlx.NamedExecContext(ctx, r.db, insert, &c); err != nil {
			return fmt.Errorf("insert conflict for exam %s: %w", c.ExamID, err)
		}
	}
	return nil
}

// ListConflicts returns conflict rows for a session, optionally scoped to a
// department and/or restricted to unresolved rows.
func (r *ExamRepository) ListConflicts(ctx context.Context, sessionID, departmentID string, onlyUnresolved bool) ([]models.ExamConflict, error) {
	query := `
		SELECT c.id, c.exam_id, c.kind, c.description, c.severity, c.resolved, c.detected_at
		FROM conflicts c
		JOIN exams ex ON ex.id = c.exam_id
		JOIN modules m ON m.id = ex.module_id
		JOIN formations f ON f.id = m.formation_id
		WHERE ex.session_id = $1`
	args := []interface{}{sessionID}
	if departmentID != "" {
		args = append(args, departmentID)
		query += fmt.Sprintf(" AND f.dept_id = $%d", len(args))
	}
	if onlyUnresolved {
		query += " AND c.resolved = FALSE"
	}
	query += " ORDER BY c.severity DESC, c.detected_at DESC"

	var conflicts []models.ExamConflict
	if err := r.db.SelectContext(ctx, &conflicts, query, args...); err != nil {
		return nil, fmt.Errorf("list conflicts: %w", err)
	}
	return conflicts, nil
}

// MarkResolved flips the resolved flag on a conflict row; part of the
// operator acknowledgement workflow the conflicts log exists for.
func (r *ExamRepository) MarkResolved(ctx context.Context, conflictID string, resolved bool) error {
	const query = `UPDATE conflicts SET resolved = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, conflictID, resolved); err != nil {
		return fmt.Errorf("mark conflict resolved: %w", err)
	}
	return nil
}
