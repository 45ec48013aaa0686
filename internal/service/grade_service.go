package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/uniops/academic-records-api/internal/engine"
	"github.com/uniops/academic-records-api/internal/models"
	appErrors "github.com/uniops/academic-records-api/pkg/errors"
	"github.com/uniops/academic-records-api/pkg/recompute"
)

// Task types routed through the recompute dispatcher.
const (
	TaskComposite  = "composite"
	TaskAttendance = "attendance"
	TaskBalance    = "balance"
)

type assessmentRepo interface {
	ListTypes(ctx context.Context, unitID, semesterID string) ([]models.AssessmentType, error)
	ListRecords(ctx context.Context, studentID, unitID, semesterID string) ([]models.AssessmentRecord, error)
	Insert(ctx context.Context, record *models.AssessmentRecord) error
	Supersede(ctx context.Context, oldID string, record *models.AssessmentRecord) error
	FindRecord(ctx context.Context, id string) (*models.AssessmentRecord, error)
}

type compositeStore interface {
	Get(ctx context.Context, studentID, unitID, semesterID string) (*models.CompositeScore, error)
	Upsert(ctx context.Context, score *models.CompositeScore) (bool, error)
	NextVersion(ctx context.Context, studentID, unitID, semesterID string) (int64, error)
	ListSemesterResults(ctx context.Context, studentID, semesterID string) ([]models.UnitResult, error)
	ListAllResults(ctx context.Context, studentID string) ([]models.UnitResult, error)
}

type unitReader interface {
	FindUnit(ctx context.Context, id string) (*models.Unit, error)
}

type gradeScaleReader interface {
	FindGradeScale(ctx context.Context, courseID, semesterID string) (*models.GradeScale, error)
}

type rosterReader interface {
	ListEnrolledStudents(ctx context.Context, unitID, semesterID string) ([]string, error)
}

type taskQueue interface {
	Enqueue(task recompute.Task) error
}

// RecordAssessmentRequest is a single marking event payload. Setting
// Supersedes appends a correction replacing an earlier record.
type RecordAssessmentRequest struct {
	StudentID  string  `json:"student_id" validate:"required"`
	UnitID     string  `json:"unit_id" validate:"required"`
	SemesterID string  `json:"semester_id" validate:"required"`
	TypeName   string  `json:"type_name" validate:"required"`
	RawScore   float64 `json:"raw_score" validate:"gte=0"`
	MaxScore   float64 `json:"max_score" validate:"required,gt=0"`
	Supersedes string  `json:"supersedes,omitempty"`
	RecordedBy string  `json:"recorded_by,omitempty"`
}

// RecordAssessmentResult pairs the stored record with the composite
// score derived from it.
type RecordAssessmentResult struct {
	Record    models.AssessmentRecord `json:"record"`
	Composite models.CompositeScore   `json:"composite"`
}

// GradeService orchestrates assessment entry, composite scoring and
// GPA reads.
type GradeService struct {
	records    assessmentRepo
	composites compositeStore
	units      unitReader
	scales     gradeScaleReader
	roster     rosterReader
	queue      taskQueue
	cache      *redis.Client
	cacheTTL   time.Duration
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewGradeService constructs GradeService. Cache and queue may be nil;
// reads then always hit storage and fan-out recomputes run inline.
func NewGradeService(records assessmentRepo, composites compositeStore, units unitReader, scales gradeScaleReader, roster rosterReader, queue taskQueue, cache *redis.Client, cacheTTL time.Duration, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{
		records:    records,
		composites: composites,
		units:      units,
		scales:     scales,
		roster:     roster,
		queue:      queue,
		cache:      cache,
		cacheTTL:   cacheTTL,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
	}
}

// RecordAssessment stores one marking event and recomputes the
// affected composite score before returning, so the caller reads its
// own write.
func (s *GradeService) RecordAssessment(ctx context.Context, req RecordAssessmentRequest) (*RecordAssessmentResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assessment payload")
	}
	if req.RawScore > req.MaxScore {
		return nil, appErrors.Clone(appErrors.ErrValidation, "raw_score exceeds max_score")
	}

	record := &models.AssessmentRecord{
		StudentID:  req.StudentID,
		UnitID:     req.UnitID,
		SemesterID: req.SemesterID,
		TypeName:   req.TypeName,
		RawScore:   req.RawScore,
		MaxScore:   req.MaxScore,
	}
	if req.RecordedBy != "" {
		record.RecordedBy = &req.RecordedBy
	}

	if req.Supersedes != "" {
		old, err := s.records.FindRecord(ctx, req.Supersedes)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "superseded record not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load superseded record")
		}
		if old.StudentID != req.StudentID || old.UnitID != req.UnitID || old.SemesterID != req.SemesterID {
			return nil, appErrors.Clone(appErrors.ErrValidation, "superseded record belongs to a different student, unit or semester")
		}
		if old.Superseded {
			return nil, appErrors.Clone(appErrors.ErrConflict, "record already superseded")
		}
		if err := s.records.Supersede(ctx, req.Supersedes, record); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to supersede assessment record")
		}
	} else {
		if err := s.records.Insert(ctx, record); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store assessment record")
		}
	}

	score, err := s.RecomputeComposite(ctx, req.StudentID, req.UnitID, req.SemesterID)
	if err != nil {
		return nil, err
	}
	return &RecordAssessmentResult{Record: *record, Composite: *score}, nil
}

// RecomputeComposite rebuilds the composite score for one
// (student, unit, semester) from a fresh snapshot and persists it with
// a new version stamp.
func (s *GradeService) RecomputeComposite(ctx context.Context, studentID, unitID, semesterID string) (*models.CompositeScore, error) {
	start := time.Now()
	score, err := s.recomputeComposite(ctx, studentID, unitID, semesterID)
	s.metrics.ObserveRecompute(TaskComposite, err, time.Since(start))
	return score, err
}

func (s *GradeService) recomputeComposite(ctx context.Context, studentID, unitID, semesterID string) (*models.CompositeScore, error) {
	types, err := s.records.ListTypes(ctx, unitID, semesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment types")
	}
	weights, err := engine.ResolveWeights(types)
	if err != nil {
		return nil, err
	}

	unit, err := s.units.FindUnit(ctx, unitID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "unit not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load unit")
	}
	scale, err := s.scales.FindGradeScale(ctx, unit.CourseID, semesterID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrConfiguration, "no grade scale configured")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade scale")
	}

	records, err := s.records.ListRecords(ctx, studentID, unitID, semesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment records")
	}

	score, err := engine.ComputeComposite(engine.CompositeInput{
		StudentID:  studentID,
		UnitID:     unitID,
		SemesterID: semesterID,
		Weights:    weights,
		Scale:      *scale,
		Records:    records,
	})
	if err != nil {
		return nil, err
	}

	version, err := s.composites.NextVersion(ctx, studentID, unitID, semesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reserve composite version")
	}
	score.Version = version
	score.ComputedAt = time.Now().UTC()

	written, err := s.composites.Upsert(ctx, &score)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store composite score")
	}
	if !written {
		s.logger.Sugar().Debugw("stale composite recompute dropped",
			"student_id", studentID, "unit_id", unitID, "semester_id", semesterID, "version", version)
	}
	s.invalidateComposite(ctx, studentID, unitID, semesterID)
	return &score, nil
}

// GetComposite returns the composite score, from cache when warm,
// computing and persisting it on first read.
func (s *GradeService) GetComposite(ctx context.Context, studentID, unitID, semesterID string) (*models.CompositeScore, error) {
	key := compositeCacheKey(studentID, unitID, semesterID)
	if s.cache != nil {
		start := time.Now()
		payload, err := s.cache.Get(ctx, key).Bytes()
		s.metrics.RecordCacheOperation(err == nil, time.Since(start))
		if err == nil {
			var cached models.CompositeScore
			if unmarshalErr := json.Unmarshal(payload, &cached); unmarshalErr == nil {
				return &cached, nil
			}
		}
	}

	score, err := s.composites.Get(ctx, studentID, unitID, semesterID)
	if err != nil {
		if err == sql.ErrNoRows {
			return s.RecomputeComposite(ctx, studentID, unitID, semesterID)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load composite score")
	}
	s.cacheComposite(ctx, key, score)
	return score, nil
}

// SemesterGPA aggregates a student's composite scores for one semester
// into a credit-weighted GPA.
func (s *GradeService) SemesterGPA(ctx context.Context, studentID, semesterID string) (*models.GPASummary, error) {
	units, err := s.composites.ListSemesterResults(ctx, studentID, semesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester results")
	}
	return s.summarise(studentID, semesterID, units)
}

// CumulativeGPA aggregates every composite score a student has, across
// semesters.
func (s *GradeService) CumulativeGPA(ctx context.Context, studentID string) (*models.GPASummary, error) {
	units, err := s.composites.ListAllResults(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load transcript results")
	}
	return s.summarise(studentID, "", units)
}

// Transcript returns the full per-unit record set with the cumulative
// GPA attached.
func (s *GradeService) Transcript(ctx context.Context, studentID string) (*models.GPASummary, error) {
	summary, err := s.CumulativeGPA(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// ReapplyGradeScale queues a composite recompute for every student
// enrolled in the unit, used after the grade scale or the marking
// scheme for the unit changes. Returns the number of queued students.
func (s *GradeService) ReapplyGradeScale(ctx context.Context, unitID, semesterID string) (int, error) {
	students, err := s.roster.ListEnrolledStudents(ctx, unitID, semesterID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load unit roster")
	}
	queued := 0
	for _, studentID := range students {
		if s.queue == nil {
			if _, err := s.RecomputeComposite(ctx, studentID, unitID, semesterID); err != nil {
				s.logger.Sugar().Warnw("composite recompute failed", "student_id", studentID, "error", err)
				continue
			}
			queued++
			continue
		}
		task := recompute.Task{Type: TaskComposite, Key: taskKey(studentID, unitID, semesterID)}
		if err := s.queue.Enqueue(task); err != nil {
			return queued, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue composite recompute")
		}
		queued++
	}
	return queued, nil
}

// ProcessTask executes one queued composite recompute.
func (s *GradeService) ProcessTask(ctx context.Context, task recompute.Task) error {
	studentID, unitID, semesterID, err := splitTaskKey(task.Key)
	if err != nil {
		return err
	}
	_, err = s.RecomputeComposite(ctx, studentID, unitID, semesterID)
	return err
}

func (s *GradeService) summarise(studentID, semesterID string, units []models.UnitResult) (*models.GPASummary, error) {
	gpa, credits, incomplete, err := engine.GradePointAverage(units)
	if err != nil {
		return nil, err
	}
	return &models.GPASummary{
		StudentID:        studentID,
		SemesterID:       semesterID,
		GPA:              gpa,
		TotalCreditHours: credits,
		Incomplete:       incomplete,
		Units:            units,
		ComputedAt:       time.Now().UTC(),
	}, nil
}

func (s *GradeService) cacheComposite(ctx context.Context, key string, score *models.CompositeScore) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(score)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Sugar().Debugw("composite cache write failed", "key", key, "error", err)
	}
}

func (s *GradeService) invalidateComposite(ctx context.Context, studentID, unitID, semesterID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, compositeCacheKey(studentID, unitID, semesterID)).Err(); err != nil {
		s.logger.Sugar().Debugw("composite cache invalidation failed", "error", err)
	}
}

func compositeCacheKey(studentID, unitID, semesterID string) string {
	return fmt.Sprintf("composite:%s:%s:%s", studentID, unitID, semesterID)
}

func taskKey(parts ...string) string {
	return strings.Join(parts, "|")
}

func splitTaskKey(key string) (string, string, string, error) {
	parts, err := splitTaskKeyN(key, 3)
	if err != nil {
		return "", "", "", err
	}
	return parts[0], parts[1], parts[2], nil
}

func splitTaskKeyN(key string, n int) ([]string, error) {
	parts := strings.Split(key, "|")
	if len(parts) != n {
		return nil, fmt.Errorf("malformed task key %q", key)
	}
	return parts, nil
}
