package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/uniops/academic-records-api/internal/models"
)

// AcademicRepository resolves reference entities: units and semesters.
type AcademicRepository struct {
	db *sqlx.DB
}

// NewAcademicRepository creates a new academic repository.
func NewAcademicRepository(db *sqlx.DB) *AcademicRepository {
	return &AcademicRepository{db: db}
}

// FindUnit loads one unit by ID.
func (r *AcademicRepository) FindUnit(ctx context.Context, id string) (*models.Unit, error) {
	const query = `SELECT id, code, name, course_id, credit_hours FROM units WHERE id = $1`
	var unit models.Unit
	if err := r.db.GetContext(ctx, &unit, query, id); err != nil {
		return nil, err
	}
	return &unit, nil
}

// FindSemester loads one semester by ID.
func (r *AcademicRepository) FindSemester(ctx context.Context, id string) (*models.Semester, error) {
	const query = `SELECT id, academic_year, number, sequence, start_date, end_date FROM semesters WHERE id = $1`
	var semester models.Semester
	if err := r.db.GetContext(ctx, &semester, query, id); err != nil {
		return nil, err
	}
	return &semester, nil
}
