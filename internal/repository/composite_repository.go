package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/uniops/academic-records-api/internal/models"
)

// CompositeRepository persists derived composite scores. Writes carry a
// version stamp so a recompute racing a newer one cannot clobber it.
type CompositeRepository struct {
	db *sqlx.DB
}

// NewCompositeRepository creates a new composite score repository.
func NewCompositeRepository(db *sqlx.DB) *CompositeRepository {
	return &CompositeRepository{db: db}
}

// Get returns the stored composite score for one (student, unit, semester).
func (r *CompositeRepository) Get(ctx context.Context, studentID, unitID, semesterID string) (*models.CompositeScore, error) {
	const query = `SELECT student_id, unit_id, semester_id, weighted_pct, letter, grade_points, incomplete, computed_at, version
        FROM composite_scores
        WHERE student_id = $1 AND unit_id = $2 AND semester_id = $3`
	var score models.CompositeScore
	if err := r.db.GetContext(ctx, &score, query, studentID, unitID, semesterID); err != nil {
		return nil, err
	}
	return &score, nil
}

// Upsert writes a composite score. The row only changes when the
// incoming version is newer, so a stale recompute result is dropped
// instead of overwriting fresher data. Returns true when the row was
// written.
func (r *CompositeRepository) Upsert(ctx context.Context, score *models.CompositeScore) (bool, error) {
	const query = `INSERT INTO composite_scores (student_id, unit_id, semester_id, weighted_pct, letter, grade_points, incomplete, computed_at, version)
        VALUES (:student_id, :unit_id, :semester_id, :weighted_pct, :letter, :grade_points, :incomplete, :computed_at, :version)
        ON CONFLICT (student_id, unit_id, semester_id) DO UPDATE SET
            weighted_pct = EXCLUDED.weighted_pct,
            letter = EXCLUDED.letter,
            grade_points = EXCLUDED.grade_points,
            incomplete = EXCLUDED.incomplete,
            computed_at = EXCLUDED.computed_at,
            version = EXCLUDED.version
        WHERE composite_scores.version < EXCLUDED.version`
	res, err := r.db.NamedExecContext(ctx, query, score)
	if err != nil {
		return false, fmt.Errorf("upsert composite score: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// NextVersion reserves a monotonic version stamp for one
// (student, unit, semester) recompute.
func (r *CompositeRepository) NextVersion(ctx context.Context, studentID, unitID, semesterID string) (int64, error) {
	const query = `SELECT COALESCE(MAX(version), 0) + 1 FROM composite_scores
        WHERE student_id = $1 AND unit_id = $2 AND semester_id = $3`
	var version int64
	if err := r.db.GetContext(ctx, &version, query, studentID, unitID, semesterID); err != nil {
		return 0, fmt.Errorf("next composite version: %w", err)
	}
	return version, nil
}

// ListSemesterResults returns a student's composite scores for one
// semester joined with unit credit hours, ordered by unit code.
func (r *CompositeRepository) ListSemesterResults(ctx context.Context, studentID, semesterID string) ([]models.UnitResult, error) {
	const query = `SELECT cs.unit_id, u.code AS unit_code, cs.semester_id, u.credit_hours, cs.weighted_pct, cs.letter, cs.grade_points, cs.incomplete
        FROM composite_scores cs
        JOIN units u ON u.id = cs.unit_id
        WHERE cs.student_id = $1 AND cs.semester_id = $2
        ORDER BY u.code`
	var results []models.UnitResult
	if err := r.db.SelectContext(ctx, &results, query, studentID, semesterID); err != nil {
		return nil, fmt.Errorf("list semester results: %w", err)
	}
	return results, nil
}

// ListAllResults returns every composite score a student has, across
// semesters, ordered by semester sequence then unit code. Used for the
// cumulative GPA and the transcript.
func (r *CompositeRepository) ListAllResults(ctx context.Context, studentID string) ([]models.UnitResult, error) {
	const query = `SELECT cs.unit_id, u.code AS unit_code, cs.semester_id, u.credit_hours, cs.weighted_pct, cs.letter, cs.grade_points, cs.incomplete
        FROM composite_scores cs
        JOIN units u ON u.id = cs.unit_id
        JOIN semesters s ON s.id = cs.semester_id
        WHERE cs.student_id = $1
        ORDER BY s.sequence, u.code`
	var results []models.UnitResult
	if err := r.db.SelectContext(ctx, &results, query, studentID); err != nil {
		return nil, fmt.Errorf("list transcript results: %w", err)
	}
	return results, nil
}
