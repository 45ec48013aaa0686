package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/uniops/academic-records-api/internal/models"
)

// LoanRepository handles book loans and the derived overdue fines.
type LoanRepository struct {
	db *sqlx.DB
}

// NewLoanRepository creates a new loan repository.
func NewLoanRepository(db *sqlx.DB) *LoanRepository {
	return &LoanRepository{db: db}
}

// Find loads one loan by ID.
func (r *LoanRepository) Find(ctx context.Context, id string) (*models.Loan, error) {
	const query = `SELECT id, book_id, student_id, borrowed_date, due_date, returned_date
        FROM loans WHERE id = $1`
	var loan models.Loan
	if err := r.db.GetContext(ctx, &loan, query, id); err != nil {
		return nil, err
	}
	return &loan, nil
}

// Insert records a new loan.
func (r *LoanRepository) Insert(ctx context.Context, loan *models.Loan) error {
	if loan.ID == "" {
		loan.ID = uuid.NewString()
	}
	const query = `INSERT INTO loans (id, book_id, student_id, borrowed_date, due_date)
        VALUES (:id, :book_id, :student_id, :borrowed_date, :due_date)`
	if _, err := r.db.NamedExecContext(ctx, query, loan); err != nil {
		return fmt.Errorf("insert loan: %w", err)
	}
	return nil
}

// MarkReturned sets the return date on an open loan. Returns true when
// the row changed; false means the loan was already returned or absent.
func (r *LoanRepository) MarkReturned(ctx context.Context, loanID string, returnedAt time.Time) (bool, error) {
	const query = `UPDATE loans SET returned_date = $2
        WHERE id = $1 AND returned_date IS NULL`
	res, err := r.db.ExecContext(ctx, query, loanID, returnedAt)
	if err != nil {
		return false, fmt.Errorf("mark loan returned: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ListOpenByStudent returns a student's unreturned loans, oldest due
// first.
func (r *LoanRepository) ListOpenByStudent(ctx context.Context, studentID string) ([]models.Loan, error) {
	const query = `SELECT id, book_id, student_id, borrowed_date, due_date, returned_date
        FROM loans
        WHERE student_id = $1 AND returned_date IS NULL
        ORDER BY due_date, id`
	var loans []models.Loan
	if err := r.db.SelectContext(ctx, &loans, query, studentID); err != nil {
		return nil, fmt.Errorf("list open loans: %w", err)
	}
	return loans, nil
}

// ListOverdue returns every unreturned loan past its due date as of the
// given time, most overdue first.
func (r *LoanRepository) ListOverdue(ctx context.Context, asOf time.Time) ([]models.Loan, error) {
	const query = `SELECT id, book_id, student_id, borrowed_date, due_date, returned_date
        FROM loans
        WHERE returned_date IS NULL AND due_date < $1
        ORDER BY due_date, id`
	var loans []models.Loan
	if err := r.db.SelectContext(ctx, &loans, query, asOf); err != nil {
		return nil, fmt.Errorf("list overdue loans: %w", err)
	}
	return loans, nil
}

// GetFine returns the stored fine for one loan.
func (r *LoanRepository) GetFine(ctx context.Context, loanID string) (*models.Fine, error) {
	const query = `SELECT loan_id, student_id, overdue_days, amount, frozen, as_of, computed_at
        FROM fines WHERE loan_id = $1`
	var fine models.Fine
	if err := r.db.GetContext(ctx, &fine, query, loanID); err != nil {
		return nil, err
	}
	return &fine, nil
}

// UpsertFine writes a derived fine. A frozen fine is final; later
// projections never replace it.
func (r *LoanRepository) UpsertFine(ctx context.Context, fine *models.Fine) error {
	const query = `INSERT INTO fines (loan_id, student_id, overdue_days, amount, frozen, as_of, computed_at)
        VALUES (:loan_id, :student_id, :overdue_days, :amount, :frozen, :as_of, :computed_at)
        ON CONFLICT (loan_id) DO UPDATE SET
            overdue_days = EXCLUDED.overdue_days,
            amount = EXCLUDED.amount,
            frozen = EXCLUDED.frozen,
            as_of = EXCLUDED.as_of,
            computed_at = EXCLUDED.computed_at
        WHERE fines.frozen = FALSE`
	if _, err := r.db.NamedExecContext(ctx, query, fine); err != nil {
		return fmt.Errorf("upsert fine: %w", err)
	}
	return nil
}
