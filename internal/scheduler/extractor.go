package scheduler

import (
	"github.com/google/uuid"

	"github.com/campus-exams/exam-scheduler-api/internal/models"
)

// Extract turns a SolveOutcome's dense assignments back into persistable
// Exam rows, using InputModel's index tables to recover persistent ids and
// TimeSlots/ExamDurationMinutes to recover wall-clock scheduling fields.
func Extract(input *InputModel, outcome SolveOutcome) []models.Exam {
	exams := make([]models.Exam, 0, len(outcome.Assignments))
	for module, a := range outcome.Assignments {
		if a.Day < 0 {
			continue
		}
		date := input.StartDate.AddDate(0, 0, a.Day)
		exams = append(exams, models.Exam{
			ID:              uuid.NewString(),
			ModuleID:        input.ModuleIDs[module],
			SessionID:       input.SessionID,
			Date:            date,
			StartTime:       TimeSlots[a.Slot],
			DurationMinutes: ExamDurationMinutes,
			RoomID:          input.RoomIDs[a.Room],
			ProctorID:       input.ProctorIDs[a.Proctor],
			EnrolledCount:   input.SizeOf[module],
			Status:          models.ExamStatusPlanned,
		})
	}
	return exams
}
