package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/uniops/academic-records-api/internal/models"
)

// AssessmentRepository handles assessment type configuration and raw
// marking records.
type AssessmentRepository struct {
	db *sqlx.DB
}

// NewAssessmentRepository creates a new assessment repository.
func NewAssessmentRepository(db *sqlx.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// ListTypes returns the latest-version assessment type configuration
// for a unit/semester.
func (r *AssessmentRepository) ListTypes(ctx context.Context, unitID, semesterID string) ([]models.AssessmentType, error) {
	const query = `SELECT id, unit_id, semester_id, name, weight_fraction, version, created_at
        FROM assessment_types
        WHERE unit_id = $1 AND semester_id = $2
          AND version = (SELECT MAX(version) FROM assessment_types WHERE unit_id = $1 AND semester_id = $2)
        ORDER BY name`
	var types []models.AssessmentType
	if err := r.db.SelectContext(ctx, &types, query, unitID, semesterID); err != nil {
		return nil, fmt.Errorf("list assessment types: %w", err)
	}
	return types, nil
}

// ListRecords returns the live (non-superseded) marking records for a
// student/unit/semester in one snapshot read.
func (r *AssessmentRepository) ListRecords(ctx context.Context, studentID, unitID, semesterID string) ([]models.AssessmentRecord, error) {
	const query = `SELECT id, student_id, unit_id, semester_id, type_name, raw_score, max_score, recorded_at, superseded, supersedes, recorded_by, deleted_at
        FROM assessment_records
        WHERE student_id = $1 AND unit_id = $2 AND semester_id = $3 AND superseded = FALSE AND deleted_at IS NULL
        ORDER BY recorded_at, id`
	var records []models.AssessmentRecord
	if err := r.db.SelectContext(ctx, &records, query, studentID, unitID, semesterID); err != nil {
		return nil, fmt.Errorf("list assessment records: %w", err)
	}
	return records, nil
}

// Insert appends a new marking record.
func (r *AssessmentRepository) Insert(ctx context.Context, record *models.AssessmentRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.RecordedAt.IsZero() {
		record.RecordedAt = time.Now().UTC()
	}
	const query = `INSERT INTO assessment_records (id, student_id, unit_id, semester_id, type_name, raw_score, max_score, recorded_at, superseded, supersedes, recorded_by)
        VALUES (:id, :student_id, :unit_id, :semester_id, :type_name, :raw_score, :max_score, :recorded_at, FALSE, :supersedes, :recorded_by)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("insert assessment record: %w", err)
	}
	return nil
}

// Supersede appends a corrected record and retires the old one in one
// transaction. History is retained for audit; nothing is overwritten.
func (r *AssessmentRepository) Supersede(ctx context.Context, oldID string, record *models.AssessmentRecord) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `UPDATE assessment_records SET superseded = TRUE WHERE id = $1 AND superseded = FALSE`, oldID)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("retire assessment record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if affected == 0 {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("retire assessment record: %s not found or already superseded", oldID)
	}

	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.RecordedAt.IsZero() {
		record.RecordedAt = time.Now().UTC()
	}
	record.Supersedes = &oldID
	const insert = `INSERT INTO assessment_records (id, student_id, unit_id, semester_id, type_name, raw_score, max_score, recorded_at, superseded, supersedes, recorded_by)
        VALUES (:id, :student_id, :unit_id, :semester_id, :type_name, :raw_score, :max_score, :recorded_at, FALSE, :supersedes, :recorded_by)`
	if _, err := tx.NamedExecContext(ctx, insert, record); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("insert superseding record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit supersede: %w", err)
	}
	return nil
}

// FindRecord loads one marking record by ID.
func (r *AssessmentRepository) FindRecord(ctx context.Context, id string) (*models.AssessmentRecord, error) {
	const query = `SELECT id, student_id, unit_id, semester_id, type_name, raw_score, max_score, recorded_at, superseded, supersedes, recorded_by, deleted_at
        FROM assessment_records WHERE id = $1`
	var record models.AssessmentRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}
