package scheduler

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/campus-exams/exam-scheduler-api/internal/models"
)

// ConflictSource is the read surface the Detector recomputes conflicts from,
// directly against the persisted schedule rather than the solver's in-memory
// state, so the conflicts log reflects what was actually committed.
type ConflictSource interface {
	StudentCollisions(ctx context.Context, sessionID string) ([]models.StudentCollisionRow, error)
	ProctorOverloads(ctx context.Context, sessionID string) ([]models.ProctorOverloadRow, error)
	CapacityOverflows(ctx context.Context, sessionID string) ([]models.CapacityOverflowRow, error)
	DeleteConflictsForSession(ctx context.Context, sessionID string) error
	InsertConflicts(ctx context.Context, conflicts []models.ExamConflict) error
}

// Detector independently recomputes student-collision, proctor-overload and
// capacity-overflow violations and writes them to the conflicts log in place
// of the session's prior unresolved rows. It
// runs after every persisted schedule, including after the solver reports
// zero violations, acting as a drift-tolerant oracle rather than trusting
// the solver's own bookkeeping.
type Detector struct {
	source ConflictSource
	logger *zap.Logger
}

// NewDetector builds a Detector over source.
func NewDetector(source ConflictSource, logger *zap.Logger) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{source: source, logger: logger}
}

// Run recomputes all three conflict kinds for sessionID, maps each row to an
// ExamConflict with its fixed severity (models.ConflictSeverity), replaces
// the session's prior unresolved conflicts with the freshly computed set
// so repeated runs don't accumulate duplicate rows, and returns the count by
// kind.
func (d *Detector) Run(ctx context.Context, sessionID string) (map[models.ConflictKind]int, error) {
	counts := make(map[models.ConflictKind]int)
	var conflicts []models.ExamConflict

	collisions, err := d.source.StudentCollisions(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("detect student collisions: %w", err)
	}
	for _, c := range collisions {
		conflicts = append(conflicts, models.ExamConflict{
			ExamID:      firstOrEmpty(c.ExamIDs),
			Kind:        models.ConflictKindStudentCollision,
			Description: fmt.Sprintf("student %s has %d exams on %s across modules %v", c.StudentID, c.Count, c.Date.Format("2006-01-02"), c.ModuleIDs),
			Severity:    models.ConflictSeverity[models.ConflictKindStudentCollision],
		})
		counts[models.ConflictKindStudentCollision]++
	}

	overloads, err := d.source.ProctorOverloads(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("detect proctor overloads: %w", err)
	}
	for _, o := range overloads {
		conflicts = append(conflicts, models.ExamConflict{
			ExamID:      firstOrEmpty(o.ExamIDs),
			Kind:        models.ConflictKindProctorOverload,
			Description: fmt.Sprintf("proctor %s assigned %d exams on %s, exceeding their daily cap", o.ProctorID, o.Count, o.Date.Format("2006-01-02")),
			Severity:    models.ConflictSeverity[models.ConflictKindProctorOverload],
		})
		counts[models.ConflictKindProctorOverload]++
	}

	overflows, err := d.source.CapacityOverflows(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("detect capacity overflows: %w", err)
	}
	for _, o := range overflows {
		conflicts = append(conflicts, models.ExamConflict{
			ExamID:      o.ExamID,
			Kind:        models.ConflictKindCapacityOverflow,
			Description: fmt.Sprintf("module %s has %d enrolled students but room holds %d", o.ModuleID, o.EnrolledCount, o.ExamCapacity),
			Severity:    models.ConflictSeverity[models.ConflictKindCapacityOverflow],
		})
		counts[models.ConflictKindCapacityOverflow]++
	}

	if err := d.source.DeleteConflictsForSession(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("clear prior detected conflicts: %w", err)
	}
	if err := d.source.InsertConflicts(ctx, conflicts); err != nil {
		return nil, fmt.Errorf("persist detected conflicts: %w", err)
	}

	d.logger.Info("conflict detection complete",
		zap.String("sessionId", sessionID),
		zap.Int("studentCollisions", counts[models.ConflictKindStudentCollision]),
		zap.Int("proctorOverloads", counts[models.ConflictKindProctorOverload]),
		zap.Int("capacityOverflows", counts[models.ConflictKindCapacityOverflow]),
	)
	return counts, nil
}

func firstOrEmpty(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}
