package dto

import "time"

// OptimizeScheduleRequest is the scheduler invocation contract.
type OptimizeScheduleRequest struct {
	SessionID string `json:"sessionId" validate:"required"`
	StartDate string `json:"startDate" validate:"required,datetime=2006-01-02"`
	NbDays    int    `json:"nbDays" validate:"required,min=5,max=30"`
}

// ScheduleRunStats summarises the variable values of a completed run.
type ScheduleRunStats struct {
	DaysUsed                   int  `json:"daysUsed"`
	RoomsUsed                   int  `json:"roomsUsed"`
	ProctorsUsed                int  `json:"proctorsUsed"`
	RepairPassRun               bool `json:"repairPassRun"`
	ResidualCollisionsBeforeRepair int `json:"residualCollisionsBeforeRepair"`
}

// OptimizeScheduleResult is the façade's output.
type OptimizeScheduleResult struct {
	Success        bool             `json:"success"`
	ElapsedSeconds float64          `json:"elapsedSeconds"`
	NbExams        int              `json:"nbExams"`
	Stats          ScheduleRunStats `json:"stats"`
	Message        string           `json:"message"`
}

// ExamAssignmentView is the read-model row served to the three consumer
// roles: vice-dean, exam admin, department head.
type ExamAssignmentView struct {
	ExamID          string    `json:"examId"`
	ModuleID        string    `json:"moduleId"`
	ModuleCode      string    `json:"moduleCode"`
	ModuleName      string    `json:"moduleName"`
	DepartmentID    string    `json:"departmentId"`
	Date            time.Time `json:"date"`
	StartTime       string    `json:"startTime"`
	DurationMinutes int       `json:"durationMinutes"`
	RoomName        string    `json:"roomName"`
	ProctorID       string    `json:"proctorId"`
	EnrolledCount   int       `json:"enrolledCount"`
	Status          string    `json:"status"`
}

// ConflictReportRow is one row of the conflict report surfaced to clients
// and to the PDF/CSV exporters.
type ConflictReportRow struct {
	ConflictID  string    `json:"conflictId"`
	ExamID      string    `json:"examId"`
	ModuleCode  string    `json:"moduleCode"`
	Kind        string    `json:"kind"`
	Description string    `json:"description"`
	Severity    int       `json:"severity"`
	Resolved    bool      `json:"resolved"`
	DetectedAt  time.Time `json:"detectedAt"`
}

// ConflictReportQuery filters a conflict listing by session and department.
type ConflictReportQuery struct {
	SessionID    string `form:"sessionId" json:"sessionId" validate:"required"`
	DepartmentID string `form:"departmentId" json:"departmentId"`
	OnlyUnresolved bool `form:"onlyUnresolved" json:"onlyUnresolved"`
}
