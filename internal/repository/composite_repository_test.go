package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniops/academic-records-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func TestCompositeRepositoryGet(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCompositeRepository(db)
	rows := sqlmock.NewRows([]string{"student_id", "unit_id", "semester_id", "weighted_pct", "letter", "grade_points", "incomplete", "computed_at", "version"}).
		AddRow("stu1", "unit1", "sem1", 72.0, "B", 3.0, false, time.Now(), int64(3))
	mock.ExpectQuery("SELECT student_id, unit_id, semester_id").
		WithArgs("stu1", "unit1", "sem1").
		WillReturnRows(rows)

	score, err := repo.Get(context.Background(), "stu1", "unit1", "sem1")
	require.NoError(t, err)
	assert.Equal(t, 72.0, score.WeightedPct)
	assert.Equal(t, "B", score.Letter)
	assert.Equal(t, int64(3), score.Version)
}

func TestCompositeRepositoryUpsertWritesNewerVersion(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCompositeRepository(db)
	mock.ExpectExec("INSERT INTO composite_scores").
		WithArgs("stu1", "unit1", "sem1", 72.0, "B", 3.0, false, sqlmock.AnyArg(), int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	written, err := repo.Upsert(context.Background(), &models.CompositeScore{
		StudentID: "stu1", UnitID: "unit1", SemesterID: "sem1",
		WeightedPct: 72.0, Letter: "B", GradePoints: 3.0,
		ComputedAt: time.Now(), Version: 4,
	})
	require.NoError(t, err)
	assert.True(t, written)
}

func TestCompositeRepositoryUpsertDropsStaleVersion(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCompositeRepository(db)
	mock.ExpectExec("INSERT INTO composite_scores").
		WithArgs("stu1", "unit1", "sem1", 65.0, "C", 2.0, false, sqlmock.AnyArg(), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	written, err := repo.Upsert(context.Background(), &models.CompositeScore{
		StudentID: "stu1", UnitID: "unit1", SemesterID: "sem1",
		WeightedPct: 65.0, Letter: "C", GradePoints: 2.0,
		ComputedAt: time.Now(), Version: 2,
	})
	require.NoError(t, err)
	assert.False(t, written)
}

func TestCompositeRepositoryListSemesterResults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCompositeRepository(db)
	rows := sqlmock.NewRows([]string{"unit_id", "unit_code", "semester_id", "credit_hours", "weighted_pct", "letter", "grade_points", "incomplete"}).
		AddRow("unit1", "CSC101", "sem1", 3, 72.0, "B", 3.0, false).
		AddRow("unit2", "CSC102", "sem1", 4, 61.5, "C", 2.0, true)
	mock.ExpectQuery("SELECT cs.unit_id, u.code AS unit_code").
		WithArgs("stu1", "sem1").
		WillReturnRows(rows)

	results, err := repo.ListSemesterResults(context.Background(), "stu1", "sem1")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "CSC101", results[0].UnitCode)
	assert.Equal(t, 4, results[1].CreditHours)
	assert.True(t, results[1].Incomplete)
}
