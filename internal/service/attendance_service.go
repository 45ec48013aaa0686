package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/uniops/academic-records-api/internal/engine"
	"github.com/uniops/academic-records-api/internal/models"
	appErrors "github.com/uniops/academic-records-api/pkg/errors"
	"github.com/uniops/academic-records-api/pkg/recompute"
)

type attendanceRepo interface {
	FindSession(ctx context.Context, id string) (*models.AttendanceSession, error)
	ListSessions(ctx context.Context, unitID, semesterID string) ([]models.AttendanceSession, error)
	CreateSession(ctx context.Context, session *models.AttendanceSession) error
	ListRecords(ctx context.Context, studentID, unitID, semesterID string) ([]models.AttendanceRecord, error)
	UpsertRecord(ctx context.Context, record *models.AttendanceRecord) error
	GetStat(ctx context.Context, studentID, unitID, semesterID string) (*models.AttendanceStat, error)
	UpsertStat(ctx context.Context, stat *models.AttendanceStat) (bool, error)
	NextStatVersion(ctx context.Context, studentID, unitID, semesterID string) (int64, error)
	ListLowAttendance(ctx context.Context, unitID, semesterID string, thresholdPct float64) ([]models.LowAttendanceRow, error)
	ListEnrolledStudents(ctx context.Context, unitID, semesterID string) ([]string, error)
}

type sessionWeightsReader interface {
	FindSessionWeights(ctx context.Context, unitID, semesterID string) (models.SessionWeights, error)
}

// CreateSessionRequest registers one held class meeting.
type CreateSessionRequest struct {
	UnitID      string             `json:"unit_id" validate:"required"`
	SemesterID  string             `json:"semester_id" validate:"required"`
	WeekNumber  int                `json:"week_number" validate:"required,gte=1"`
	SessionType models.SessionType `json:"session_type" validate:"required"`
	Date        time.Time          `json:"date" validate:"required"`
}

// MarkAttendanceRequest marks one student for one session.
type MarkAttendanceRequest struct {
	SessionID string `json:"session_id" validate:"required"`
	StudentID string `json:"student_id" validate:"required"`
	Present   *bool  `json:"present" validate:"required"`
	MarkedBy  string `json:"marked_by,omitempty"`
}

// AttendanceService orchestrates session registration, marking and
// rate reads.
type AttendanceService struct {
	attendance   attendanceRepo
	weights      sessionWeightsReader
	queue        taskQueue
	thresholdPct float64
	metrics      *MetricsService
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewAttendanceService constructs AttendanceService. ThresholdPct is
// the low-attendance reporting cutoff.
func NewAttendanceService(attendance attendanceRepo, weights sessionWeightsReader, queue taskQueue, thresholdPct float64, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		attendance:   attendance,
		weights:      weights,
		queue:        queue,
		thresholdPct: thresholdPct,
		metrics:      metrics,
		validator:    validate,
		logger:       logger,
	}
}

// CreateSession registers a held session and queues a rate recompute
// for every enrolled student, since one more session in the
// denominator moves everyone's rate.
func (s *AttendanceService) CreateSession(ctx context.Context, req CreateSessionRequest) (*models.AttendanceSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	if !req.SessionType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown session type")
	}

	session := &models.AttendanceSession{
		UnitID:      req.UnitID,
		SemesterID:  req.SemesterID,
		WeekNumber:  req.WeekNumber,
		SessionType: req.SessionType,
		Date:        req.Date,
	}
	if err := s.attendance.CreateSession(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}

	if err := s.queueUnitRecompute(ctx, req.UnitID, req.SemesterID); err != nil {
		s.logger.Sugar().Warnw("attendance fan-out incomplete", "unit_id", req.UnitID, "error", err)
	}
	return session, nil
}

// MarkAttendance records one check-in and recomputes the student's
// rate for the session's unit before returning.
func (s *AttendanceService) MarkAttendance(ctx context.Context, req MarkAttendanceRequest) (*models.AttendanceStat, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	session, err := s.attendance.FindSession(ctx, req.SessionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}

	record := &models.AttendanceRecord{
		SessionID: req.SessionID,
		StudentID: req.StudentID,
		Present:   *req.Present,
	}
	if req.MarkedBy != "" {
		record.MarkedBy = &req.MarkedBy
	}
	if err := s.attendance.UpsertRecord(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store attendance record")
	}

	return s.RecomputeRate(ctx, req.StudentID, session.UnitID, session.SemesterID)
}

// RecomputeRate rebuilds the attendance stat for one
// (student, unit, semester) as of now and persists it with a new
// version stamp.
func (s *AttendanceService) RecomputeRate(ctx context.Context, studentID, unitID, semesterID string) (*models.AttendanceStat, error) {
	start := time.Now()
	stat, err := s.recomputeRate(ctx, studentID, unitID, semesterID)
	s.metrics.ObserveRecompute(TaskAttendance, err, time.Since(start))
	return stat, err
}

func (s *AttendanceService) recomputeRate(ctx context.Context, studentID, unitID, semesterID string) (*models.AttendanceStat, error) {
	stat, err := s.computeRate(ctx, studentID, unitID, semesterID, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	version, err := s.attendance.NextStatVersion(ctx, studentID, unitID, semesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reserve stat version")
	}
	stat.Version = version
	stat.ComputedAt = time.Now().UTC()

	written, err := s.attendance.UpsertStat(ctx, stat)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store attendance stat")
	}
	if !written {
		s.logger.Sugar().Debugw("stale attendance recompute dropped",
			"student_id", studentID, "unit_id", unitID, "semester_id", semesterID, "version", version)
	}
	return stat, nil
}

// GetRate returns the attendance stat. A nil asOf serves the stored
// current stat, computing it on first read; a set asOf computes a
// point-in-time view without persisting it.
func (s *AttendanceService) GetRate(ctx context.Context, studentID, unitID, semesterID string, asOf *time.Time) (*models.AttendanceStat, error) {
	if asOf != nil {
		return s.computeRate(ctx, studentID, unitID, semesterID, *asOf)
	}
	stat, err := s.attendance.GetStat(ctx, studentID, unitID, semesterID)
	if err != nil {
		if err == sql.ErrNoRows {
			return s.RecomputeRate(ctx, studentID, unitID, semesterID)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance stat")
	}
	return stat, nil
}

// LowAttendance lists students under the reporting threshold for a
// unit/semester.
func (s *AttendanceService) LowAttendance(ctx context.Context, unitID, semesterID string) ([]models.LowAttendanceRow, error) {
	rows, err := s.attendance.ListLowAttendance(ctx, unitID, semesterID, s.thresholdPct)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list low attendance")
	}
	return rows, nil
}

// ProcessTask executes one queued attendance recompute.
func (s *AttendanceService) ProcessTask(ctx context.Context, task recompute.Task) error {
	studentID, unitID, semesterID, err := splitTaskKey(task.Key)
	if err != nil {
		return err
	}
	_, err = s.RecomputeRate(ctx, studentID, unitID, semesterID)
	return err
}

func (s *AttendanceService) computeRate(ctx context.Context, studentID, unitID, semesterID string, asOf time.Time) (*models.AttendanceStat, error) {
	sessions, err := s.attendance.ListSessions(ctx, unitID, semesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sessions")
	}
	records, err := s.attendance.ListRecords(ctx, studentID, unitID, semesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance records")
	}
	weights, err := s.weights.FindSessionWeights(ctx, unitID, semesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session weights")
	}

	stat, err := engine.ComputeRate(engine.RateInput{
		StudentID:  studentID,
		UnitID:     unitID,
		SemesterID: semesterID,
		Sessions:   sessions,
		Records:    records,
		Weights:    weights,
		AsOf:       asOf,
	})
	if err != nil {
		return nil, err
	}
	return &stat, nil
}

func (s *AttendanceService) queueUnitRecompute(ctx context.Context, unitID, semesterID string) error {
	students, err := s.attendance.ListEnrolledStudents(ctx, unitID, semesterID)
	if err != nil {
		return err
	}
	for _, studentID := range students {
		if s.queue == nil {
			if _, err := s.RecomputeRate(ctx, studentID, unitID, semesterID); err != nil {
				s.logger.Sugar().Warnw("attendance recompute failed", "student_id", studentID, "error", err)
			}
			continue
		}
		task := recompute.Task{Type: TaskAttendance, Key: taskKey(studentID, unitID, semesterID)}
		if err := s.queue.Enqueue(task); err != nil {
			return err
		}
	}
	return nil
}
