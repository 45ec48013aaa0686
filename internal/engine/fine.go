package engine

import (
	"fmt"
	"time"

	"github.com/uniops/academic-records-api/internal/models"
	appErrors "github.com/uniops/academic-records-api/pkg/errors"
)

// ComputeFine derives the overdue charge for one loan. The effective
// return date is the loan's returned date when set, otherwise asOf —
// which doubles as a "fine if returned today" projection for books
// still out. A returned loan's fine is therefore frozen at return
// time: recomputing it later uses the recorded return date, never the
// current clock, so fines stop growing the moment the book comes back.
//
// overdue_days = max(0, days(due_date → effective_return) − grace_days)
// amount       = min(max_fine, overdue_days × daily_rate)
//
// A MaxFine of zero or less means the policy is uncapped. Days are
// calendar days; partial days do not accrue.
func ComputeFine(loan models.Loan, policy models.FinePolicy, asOf time.Time) (models.Fine, error) {
	if loan.DueDate.IsZero() {
		return models.Fine{}, appErrors.Clone(appErrors.ErrData, fmt.Sprintf("loan %s: missing due date", loan.ID))
	}
	if loan.BorrowedDate.After(loan.DueDate) {
		return models.Fine{}, appErrors.Clone(appErrors.ErrData, fmt.Sprintf("loan %s: borrowed after due date", loan.ID))
	}
	if policy.DailyRate < 0 || policy.GraceDays < 0 {
		return models.Fine{}, appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("fine policy %s: negative rate or grace period", policy.ID))
	}

	effective := asOf
	frozen := false
	if loan.ReturnedDate != nil {
		effective = *loan.ReturnedDate
		frozen = true
	}

	overdue := daysBetween(loan.DueDate, effective) - policy.GraceDays
	if overdue < 0 {
		overdue = 0
	}

	amount := float64(overdue) * policy.DailyRate
	if policy.MaxFine > 0 && amount > policy.MaxFine {
		amount = policy.MaxFine
	}

	return models.Fine{
		LoanID:      loan.ID,
		StudentID:   loan.StudentID,
		OverdueDays: overdue,
		Amount:      amount,
		Frozen:      frozen,
		AsOf:        effective,
	}, nil
}

// daysBetween counts whole calendar days from a to b, normalising both
// to UTC midnight first. Returns 0 when b is not after a.
func daysBetween(a, b time.Time) int {
	a = time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	b = time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	if !b.After(a) {
		return 0
	}
	return int(b.Sub(a) / (24 * time.Hour))
}
