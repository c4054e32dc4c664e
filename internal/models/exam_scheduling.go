package models

import "time"

// ExamSessionStatus mirrors the lifecycle of an examination period.
type ExamSessionStatus string

// Possible exam session statuses.
const (
	ExamSessionStatusFuture    ExamSessionStatus = "FUTURE"
	ExamSessionStatusPlanning  ExamSessionStatus = "PLANNING"
	ExamSessionStatusPublished ExamSessionStatus = "PUBLISHED"
)

// ExamSession is a named examination period; the scheduler operates on
// exactly one session per invocation.
type ExamSession struct {
	ID            string            `db:"id" json:"id"`
	Label         string            `db:"label" json:"label"`
	AcademicYear  string            `db:"academic_year" json:"academic_year"`
	StartDate     time.Time         `db:"start_date" json:"start_date"`
	EndDate       time.Time         `db:"end_date" json:"end_date"`
	Status        ExamSessionStatus `db:"status" json:"status"`
}

// Department is the organisational unit owning formations.
type Department struct {
	ID   string `db:"id" json:"id"`
	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
}

// Formation is a cohort-level programme (level x speciality) under a department.
type Formation struct {
	ID                  string `db:"id" json:"id"`
	DepartmentID        string `db:"dept_id" json:"dept_id"`
	Name                string `db:"name" json:"name"`
	Level               string `db:"level" json:"level"`
	DeclaredModuleCount int    `db:"declared_module_count" json:"declared_module_count"`
}

// ExamModule is an examinable course attached to one formation; the
// scheduler places exactly one exam per module per session.
type ExamModule struct {
	ID          string `db:"id" json:"id"`
	Code        string `db:"code" json:"code"`
	Name        string `db:"name" json:"name"`
	FormationID string `db:"formation_id" json:"formation_id"`
}

// ExamStudent participates in the scheduling problem only through
// Enrolments; it carries a matricule and a formation reference only.
type ExamStudent struct {
	ID          string `db:"id" json:"id"`
	Matricule   string `db:"matricule" json:"matricule"`
	FormationID string `db:"formation_id" json:"formation_id"`
}

// EnrolmentStatus tracks whether an enrolment is still active for the session.
type EnrolmentStatus string

// Possible enrolment statuses.
const (
	ExamEnrolmentStatusActive    EnrolmentStatus = "ACTIVE"
	ExamEnrolmentStatusWithdrawn EnrolmentStatus = "WITHDRAWN"
)

// Enrolment is a (student, module, session) triple: "this student must sit
// this module's exam". The set of enrolments defines the student-conflict
// graph the scheduler's H2 constraint operates on.
type Enrolment struct {
	StudentID    string          `db:"student_id" json:"student_id"`
	ModuleID     string          `db:"module_id" json:"module_id"`
	SessionID    string          `db:"session_id" json:"session_id"`
	AcademicYear string          `db:"academic_year" json:"academic_year"`
	Status       EnrolmentStatus `db:"status" json:"status"`
}

// Proctor is an instructor eligible to surveil an exam.
type Proctor struct {
	ID                    string `db:"id" json:"id"`
	DepartmentID          string `db:"dept_id" json:"dept_id"`
	MaxSurveillancePerDay int    `db:"max_surveillance_per_day" json:"max_surveillance_per_day"`
}

// RoomType enumerates the kinds of invigilation space.
type RoomType string

// Possible room types.
const (
	RoomTypeAmphi RoomType = "amphi"
	RoomTypeSalle RoomType = "salle"
	RoomTypeLabo  RoomType = "labo"
)

// Room is an examination space with a nominal and an exam-mode capacity.
// The exam-mode capacity is the only capacity the scheduler uses.
type Room struct {
	ID           string   `db:"id" json:"id"`
	Name         string   `db:"name" json:"name"`
	Type         RoomType `db:"type" json:"type"`
	Capacity     int      `db:"capacity" json:"capacity"`
	ExamCapacity int      `db:"exam_capacity" json:"exam_capacity"`
	Available    bool     `db:"available" json:"available"`
}

// ExamStatus tracks the lifecycle of a persisted exam row.
type ExamStatus string

// Possible exam statuses.
const (
	ExamStatusPlanned   ExamStatus = "planifie"
	ExamStatusCancelled ExamStatus = "annule"
)

// Exam is the scheduler's output entity: one per (module, session).
type Exam struct {
	ID              string     `db:"id" json:"id"`
	ModuleID        string     `db:"module_id" json:"module_id"`
	SessionID       string     `db:"session_id" json:"session_id"`
	Date            time.Time  `db:"date" json:"date"`
	StartTime       string     `db:"start_time" json:"start_time"`
	DurationMinutes int        `db:"duration_minutes" json:"duration_minutes"`
	RoomID          string     `db:"room_id" json:"room_id"`
	ProctorID       string     `db:"proctor_id" json:"proctor_id"`
	EnrolledCount   int        `db:"enrolled_count" json:"enrolled_count"`
	Status          ExamStatus `db:"status" json:"status"`
}

// ConflictKind enumerates the three predicates the Detector checks.
type ConflictKind string

// Possible conflict kinds, with their fixed severities.
const (
	ConflictKindStudentCollision ConflictKind = "student-collision"
	ConflictKindProctorOverload  ConflictKind = "proctor-overload"
	ConflictKindCapacityOverflow ConflictKind = "capacity-overflow"
)

// ConflictSeverity maps a conflict kind to its fixed severity value.
var ConflictSeverity = map[ConflictKind]int{
	ConflictKindStudentCollision: 4,
	ConflictKindProctorOverload:  3,
	ConflictKindCapacityOverflow: 5,
}

// ExamConflict is a detected violation of a scheduling predicate; produced
// by the Detector, mutated only by the resolution/marking workflow.
type ExamConflict struct {
	ID          string       `db:"id" json:"id"`
	ExamID      string       `db:"exam_id" json:"exam_id"`
	Kind        ConflictKind `db:"kind" json:"kind"`
	Description string       `db:"description" json:"description"`
	Severity    int          `db:"severity" json:"severity"`
	Resolved    bool         `db:"resolved" json:"resolved"`
	DetectedAt  time.Time    `db:"detected_at" json:"detected_at"`
}

// StudentCollisionRow is one row of the student-collision aggregation.
type StudentCollisionRow struct {
	StudentID string    `db:"student_id" json:"student_id"`
	Date      time.Time `db:"date" json:"date"`
	Count     int       `db:"count" json:"count"`
	ModuleIDs []string  `json:"module_ids"`
	ExamIDs   []string  `json:"exam_ids"`
}

// ProctorOverloadRow is one row of the proctor-overload aggregation.
type ProctorOverloadRow struct {
	ProctorID string    `db:"proctor_id" json:"proctor_id"`
	Date      time.Time `db:"date" json:"date"`
	Count     int       `db:"count" json:"count"`
	ExamIDs   []string  `json:"exam_ids"`
}

// CapacityOverflowRow is one row of the capacity-overflow aggregation.
type CapacityOverflowRow struct {
	ExamID        string `db:"exam_id" json:"exam_id"`
	ModuleID      string `db:"module_id" json:"module_id"`
	RoomID        string `db:"room_id" json:"room_id"`
	EnrolledCount int    `db:"enrolled_count" json:"enrolled_count"`
	ExamCapacity  int    `db:"exam_capacity" json:"exam_capacity"`
}
