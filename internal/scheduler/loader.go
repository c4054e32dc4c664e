package scheduler

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/campus-exams/exam-scheduler-api/internal/models"
	"github.com/campus-exams/exam-scheduler-api/internal/repository"
	appErrors "github.com/campus-exams/exam-scheduler-api/pkg/errors"
)

// CatalogReader is the read surface the Loader needs from the catalog
// repository. Defined here, not in the repository package, so tests can
// substitute an in-memory fake.
type CatalogReader interface {
	FindSession(ctx context.Context, sessionID string) (*models.ExamSession, error)
	ExaminableModulesWithCounts(ctx context.Context, sessionID string, limit int) ([]repository.ModuleWithCount, error)
	EnrolmentsForModules(ctx context.Context, sessionID string, moduleIDs []string) ([]models.Enrolment, error)
}

// ResourceReader is the read surface the Loader needs for rooms and proctors.
type ResourceReader interface {
	AvailableRooms(ctx context.Context) ([]models.Room, error)
	AllProctors(ctx context.Context) ([]models.Proctor, error)
}

// Loader shapes raw relational data into a solver-ready InputModel.
type Loader struct {
	catalog   CatalogReader
	resources ResourceReader
	logger    *zap.Logger
}

// NewLoader constructs a Loader.
func NewLoader(catalog CatalogReader, resources ResourceReader, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{catalog: catalog, resources: resources, logger: logger}
}

// Load reads, for sessionID, the examinable modules (at least 1 enrolment),
// their enrolment edges, the available rooms and all proctors, and emits a
// dense InputModel. It fails with ErrInputEmpty when no modules remain
// after filtering.
func (l *Loader) Load(ctx context.Context, sessionID string, startDate time.Time, moduleLimit int) (*InputModel, error) {
	if moduleLimit <= 0 {
		moduleLimit = DefaultLimits().ModuleLimit
	}

	modules, err := l.catalog.ExaminableModulesWithCounts(ctx, sessionID, moduleLimit+1)
	if err != nil {
		return nil, appErrors.Wrap(err, "DATABASE_UNAVAILABLE", 503, "failed to load examinable modules")
	}
	if len(modules) == 0 {
		return nil, appErrors.Clone(appErrors.ErrInputEmpty, "no modules with enrolments found for this session")
	}

	truncated := false
	if len(modules) > moduleLimit {
		modules = modules[:moduleLimit]
		truncated = true
		l.logger.Warn("loader truncated module set",
			zap.String("sessionId", sessionID),
			zap.Int("moduleLimit", moduleLimit),
		)
	}

	moduleIDs := make([]string, len(modules))
	sizeOf := make([]int, len(modules))
	formationIDs := make([]string, len(modules))
	for i, m := range modules {
		moduleIDs[i] = m.ID
		sizeOf[i] = m.EnrolledCount
		formationIDs[i] = m.FormationID
	}

	enrolments, err := l.catalog.EnrolmentsForModules(ctx, sessionID, moduleIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, "DATABASE_UNAVAILABLE", 503, "failed to load enrolments")
	}

	moduleIndex := make(map[string]int, len(moduleIDs))
	for i, id := range moduleIDs {
		moduleIndex[id] = i
	}
	modulesOfStudent := make(map[string][]int)
	for _, e := range enrolments {
		idx, ok := moduleIndex[e.ModuleID]
		if !ok {
			continue
		}
		modulesOfStudent[e.StudentID] = append(modulesOfStudent[e.StudentID], idx)
	}
	for student := range modulesOfStudent {
		sort.Ints(modulesOfStudent[student])
	}

	rooms, err := l.resources.AvailableRooms(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, "DATABASE_UNAVAILABLE", 503, "failed to load rooms")
	}
	if len(rooms) == 0 {
		return nil, appErrors.Clone(appErrors.ErrInputEmpty, "no available rooms found")
	}
	roomIDs := make([]string, len(rooms))
	roomCapacity := make([]int, len(rooms))
	roomIsAmphi := make([]bool, len(rooms))
	for i, r := range rooms {
		roomIDs[i] = r.ID
		roomCapacity[i] = r.ExamCapacity
		roomIsAmphi[i] = r.Type == models.RoomTypeAmphi
	}

	proctors, err := l.resources.AllProctors(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, "DATABASE_UNAVAILABLE", 503, "failed to load proctors")
	}
	if len(proctors) == 0 {
		return nil, appErrors.Clone(appErrors.ErrInputEmpty, "no proctors found")
	}
	proctorIDs := make([]string, len(proctors))
	proctorDeptID := make([]string, len(proctors))
	proctorMaxPerDay := make([]int, len(proctors))
	for i, p := range proctors {
		proctorIDs[i] = p.ID
		proctorDeptID[i] = p.DepartmentID
		max := p.MaxSurveillancePerDay
		if max <= 0 {
			max = 3
		}
		proctorMaxPerDay[i] = max
	}

	l.logger.Info("loader completed",
		zap.String("sessionId", sessionID),
		zap.Int("modules", len(moduleIDs)),
		zap.Int("rooms", len(roomIDs)),
		zap.Int("proctors", len(proctorIDs)),
		zap.Int("enrolments", len(enrolments)),
		zap.Bool("truncated", truncated),
	)

	return &InputModel{
		SessionID:         sessionID,
		StartDate:         startDate,
		ModuleIDs:         moduleIDs,
		SizeOf:            sizeOf,
		ModuleFormationID: formationIDs,
		RoomIDs:           roomIDs,
		RoomCapacity:      roomCapacity,
		RoomIsAmphi:       roomIsAmphi,
		ProctorIDs:        proctorIDs,
		ProctorDeptID:     proctorDeptID,
		ProctorMaxPerDay:  proctorMaxPerDay,
		ModulesOfStudent:  modulesOfStudent,
		TruncatedModules:  truncated,
	}, nil
}
