package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/campus-exams/exam-scheduler-api/internal/models"
)

// ExamResourceRepository reads the rooms and proctors the Model Builder
// draws decision-variable domains from.
type ExamResourceRepository struct {
	db *sqlx.DB
}

// NewExamResourceRepository builds a resource repository over db.
func NewExamResourceRepository(db *sqlx.DB) *ExamResourceRepository {
	return &ExamResourceRepository{db: db}
}

// AvailableRooms returns rooms with availability = true, ordered by
// exam-mode capacity descending.
func (r *ExamResourceRepository) AvailableRooms(ctx context.Context) ([]models.Room, error) {
	const query = `
		SELECT id, name, type, capacity, exam_capacity, available
		FROM rooms
		WHERE available = TRUE
		ORDER BY exam_capacity DESC`
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query); err != nil {
		return nil, fmt.Errorf("list available rooms: %w", err)
	}
	return rooms, nil
}

// AllProctors returns every proctor, ordered by department.
func (r *ExamResourceRepository) AllProctors(ctx context.Context) ([]models.Proctor, error) {
	const query = `
		SELECT id, dept_id, max_surveillance_per_day
		FROM proctors
		ORDER BY dept_id`
	var proctors []models.Proctor
	if err := r.db.SelectContext(ctx, &proctors, query); err != nil {
		return nil, fmt.Errorf("list proctors: %w", err)
	}
	return proctors, nil
}
