package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/uniops/academic-records-api/internal/models"
)

// FinanceRepository handles fee structures, payments and the derived
// student balances.
type FinanceRepository struct {
	db *sqlx.DB
}

// NewFinanceRepository creates a new finance repository.
func NewFinanceRepository(db *sqlx.DB) *FinanceRepository {
	return &FinanceRepository{db: db}
}

// FindStudentCourse returns the course a student is registered on.
func (r *FinanceRepository) FindStudentCourse(ctx context.Context, studentID string) (string, error) {
	const query = `SELECT course_id FROM students WHERE id = $1`
	var courseID string
	if err := r.db.GetContext(ctx, &courseID, query, studentID); err != nil {
		return "", err
	}
	return courseID, nil
}

// ListDuesUpTo returns a course's fee structure grouped per semester,
// for every semester up to and including the given one in sequence
// order. The ledger applies payments to the oldest group first.
func (r *FinanceRepository) ListDuesUpTo(ctx context.Context, courseID, semesterID string) ([]models.SemesterDue, error) {
	const query = `SELECT fi.id, fi.course_id, fi.semester_id, fi.item_name, fi.amount, fi.position, s.sequence
        FROM fee_items fi
        JOIN semesters s ON s.id = fi.semester_id
        WHERE fi.course_id = $1
          AND s.sequence <= (SELECT sequence FROM semesters WHERE id = $2)
        ORDER BY s.sequence, fi.position`
	rows, err := r.db.QueryxContext(ctx, query, courseID, semesterID)
	if err != nil {
		return nil, fmt.Errorf("list semester dues: %w", err)
	}
	defer rows.Close()

	var dues []models.SemesterDue
	index := map[string]int{}
	for rows.Next() {
		var item struct {
			models.FeeItem
			Sequence int `db:"sequence"`
		}
		if err := rows.StructScan(&item); err != nil {
			return nil, fmt.Errorf("scan fee item: %w", err)
		}
		i, ok := index[item.SemesterID]
		if !ok {
			dues = append(dues, models.SemesterDue{SemesterID: item.SemesterID, Sequence: item.Sequence})
			i = len(dues) - 1
			index[item.SemesterID] = i
		}
		dues[i].Items = append(dues[i].Items, item.FeeItem)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list semester dues: %w", err)
	}
	return dues, nil
}

// ListPayments returns every payment a student has made, verified or
// not, oldest first.
func (r *FinanceRepository) ListPayments(ctx context.Context, studentID string) ([]models.Payment, error) {
	const query = `SELECT id, student_id, amount, date, verified, method, reference, verified_by, verified_at
        FROM payments
        WHERE student_id = $1
        ORDER BY date, id`
	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, query, studentID); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

// InsertPayment records a new, unverified payment.
func (r *FinanceRepository) InsertPayment(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.Date.IsZero() {
		payment.Date = time.Now().UTC()
	}
	const query = `INSERT INTO payments (id, student_id, amount, date, verified, method, reference)
        VALUES (:id, :student_id, :amount, :date, FALSE, :method, :reference)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// FindPayment loads one payment by ID.
func (r *FinanceRepository) FindPayment(ctx context.Context, id string) (*models.Payment, error) {
	const query = `SELECT id, student_id, amount, date, verified, method, reference, verified_by, verified_at
        FROM payments WHERE id = $1`
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, id); err != nil {
		return nil, err
	}
	return &payment, nil
}

// SetVerified flips a payment to verified. Returns true when the row
// changed; false means it was already verified or absent.
func (r *FinanceRepository) SetVerified(ctx context.Context, paymentID, verifiedBy string) (bool, error) {
	const query = `UPDATE payments
        SET verified = TRUE, verified_by = $2, verified_at = $3
        WHERE id = $1 AND verified = FALSE`
	res, err := r.db.ExecContext(ctx, query, paymentID, verifiedBy, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("verify payment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// GetBalance returns the stored balance for one (student, semester).
func (r *FinanceRepository) GetBalance(ctx context.Context, studentID, semesterID string) (*models.Balance, error) {
	const query = `SELECT student_id, semester_id, total_due, applied, true_signed, display, unverified_total, computed_at, version
        FROM balances
        WHERE student_id = $1 AND semester_id = $2`
	var balance models.Balance
	if err := r.db.GetContext(ctx, &balance, query, studentID, semesterID); err != nil {
		return nil, err
	}
	return &balance, nil
}

// UpsertBalance writes a derived balance, dropping stale versions.
func (r *FinanceRepository) UpsertBalance(ctx context.Context, balance *models.Balance) (bool, error) {
	const query = `INSERT INTO balances (student_id, semester_id, total_due, applied, true_signed, display, unverified_total, computed_at, version)
        VALUES (:student_id, :semester_id, :total_due, :applied, :true_signed, :display, :unverified_total, :computed_at, :version)
        ON CONFLICT (student_id, semester_id) DO UPDATE SET
            total_due = EXCLUDED.total_due,
            applied = EXCLUDED.applied,
            true_signed = EXCLUDED.true_signed,
            display = EXCLUDED.display,
            unverified_total = EXCLUDED.unverified_total,
            computed_at = EXCLUDED.computed_at,
            version = EXCLUDED.version
        WHERE balances.version < EXCLUDED.version`
	res, err := r.db.NamedExecContext(ctx, query, balance)
	if err != nil {
		return false, fmt.Errorf("upsert balance: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ListBalanceSemesters returns the semesters a student has a stored
// balance for. Verifying a payment recomputes each of them.
func (r *FinanceRepository) ListBalanceSemesters(ctx context.Context, studentID string) ([]string, error) {
	const query = `SELECT semester_id FROM balances WHERE student_id = $1 ORDER BY semester_id`
	var semesters []string
	if err := r.db.SelectContext(ctx, &semesters, query, studentID); err != nil {
		return nil, fmt.Errorf("list balance semesters: %w", err)
	}
	return semesters, nil
}

// NextBalanceVersion reserves a monotonic version stamp for one balance row.
func (r *FinanceRepository) NextBalanceVersion(ctx context.Context, studentID, semesterID string) (int64, error) {
	const query = `SELECT COALESCE(MAX(version), 0) + 1 FROM balances
        WHERE student_id = $1 AND semester_id = $2`
	var version int64
	if err := r.db.GetContext(ctx, &version, query, studentID, semesterID); err != nil {
		return 0, fmt.Errorf("next balance version: %w", err)
	}
	return version, nil
}
