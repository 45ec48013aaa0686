package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/uniops/academic-records-api/internal/models"
)

// PolicyRepository loads versioned configuration: grade scales, session
// weight maps and fine policies. Lookups fall back from the specific
// key to the institutional default.
type PolicyRepository struct {
	db *sqlx.DB
}

// NewPolicyRepository creates a new policy repository.
func NewPolicyRepository(db *sqlx.DB) *PolicyRepository {
	return &PolicyRepository{db: db}
}

// FindGradeScale resolves the grade scale for a course/semester. When
// no scale is pinned to that pair it falls back to the global default
// (NULL course and semester). The latest version wins.
func (r *PolicyRepository) FindGradeScale(ctx context.Context, courseID, semesterID string) (*models.GradeScale, error) {
	const scoped = `SELECT id, course_id, semester_id, version
        FROM grade_scales
        WHERE course_id = $1 AND semester_id = $2
        ORDER BY version DESC LIMIT 1`
	var scale models.GradeScale
	err := r.db.GetContext(ctx, &scale, scoped, courseID, semesterID)
	if errors.Is(err, sql.ErrNoRows) {
		const global = `SELECT id, course_id, semester_id, version
            FROM grade_scales
            WHERE course_id IS NULL AND semester_id IS NULL
            ORDER BY version DESC LIMIT 1`
		err = r.db.GetContext(ctx, &scale, global)
	}
	if err != nil {
		return nil, err
	}

	const bands = `SELECT lower_bound, upper_bound, letter, grade_points
        FROM grade_bands
        WHERE scale_id = $1
        ORDER BY lower_bound`
	if err := r.db.SelectContext(ctx, &scale.Bands, bands, scale.ID); err != nil {
		return nil, fmt.Errorf("load grade bands: %w", err)
	}
	return &scale, nil
}

// FindSessionWeights returns the session type weight map for a
// unit/semester. No rows means raw counts; the engine treats a nil map
// as weight 1 everywhere.
func (r *PolicyRepository) FindSessionWeights(ctx context.Context, unitID, semesterID string) (models.SessionWeights, error) {
	const query = `SELECT session_type, weight FROM session_weights
        WHERE unit_id = $1 AND semester_id = $2`
	rows, err := r.db.QueryxContext(ctx, query, unitID, semesterID)
	if err != nil {
		return nil, fmt.Errorf("load session weights: %w", err)
	}
	defer rows.Close()

	var weights models.SessionWeights
	for rows.Next() {
		var row struct {
			SessionType models.SessionType `db:"session_type"`
			Weight      float64            `db:"weight"`
		}
		if err := rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("scan session weight: %w", err)
		}
		if weights == nil {
			weights = models.SessionWeights{}
		}
		weights[row.SessionType] = row.Weight
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load session weights: %w", err)
	}
	return weights, nil
}

// FindFinePolicy resolves the active fine policy, preferring the
// library-specific policy over the institutional default. The latest
// version wins. sql.ErrNoRows means nothing is configured and the
// caller falls back to configured defaults.
func (r *PolicyRepository) FindFinePolicy(ctx context.Context, libraryID *string) (*models.FinePolicy, error) {
	var policy models.FinePolicy
	if libraryID != nil {
		const scoped = `SELECT id, library_id, daily_rate, grace_days, max_fine, version
            FROM fine_policies
            WHERE library_id = $1
            ORDER BY version DESC LIMIT 1`
		err := r.db.GetContext(ctx, &policy, scoped, *libraryID)
		if err == nil {
			return &policy, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}
	const global = `SELECT id, library_id, daily_rate, grace_days, max_fine, version
        FROM fine_policies
        WHERE library_id IS NULL
        ORDER BY version DESC LIMIT 1`
	if err := r.db.GetContext(ctx, &policy, global); err != nil {
		return nil, err
	}
	return &policy, nil
}
