package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniops/academic-records-api/internal/models"
	appErrors "github.com/uniops/academic-records-api/pkg/errors"
)

func loanDate(month time.Month, d int) time.Time {
	return time.Date(2026, month, d, 0, 0, 0, 0, time.UTC)
}

func testPolicy() models.FinePolicy {
	return models.FinePolicy{ID: "pol1", DailyRate: 10, GraceDays: 2, MaxFine: 100}
}

func TestComputeFineCappedAtMax(t *testing.T) {
	loan := models.Loan{
		ID: "loan1", StudentID: "stu1",
		BorrowedDate: loanDate(time.January, 1),
		DueDate:      loanDate(time.January, 15),
	}
	// 15 days overdue, 2 grace -> 13 chargeable days -> 130, capped at 100.
	fine, err := ComputeFine(loan, testPolicy(), loanDate(time.January, 30))
	require.NoError(t, err)
	assert.Equal(t, 13, fine.OverdueDays)
	assert.Equal(t, 100.0, fine.Amount)
	assert.False(t, fine.Frozen)
}

func TestComputeFineWithinGrace(t *testing.T) {
	loan := models.Loan{
		ID: "loan1", StudentID: "stu1",
		BorrowedDate: loanDate(time.January, 1),
		DueDate:      loanDate(time.January, 15),
	}
	fine, err := ComputeFine(loan, testPolicy(), loanDate(time.January, 17))
	require.NoError(t, err)
	assert.Zero(t, fine.OverdueDays)
	assert.Zero(t, fine.Amount)
}

func TestComputeFineFrozenAtReturn(t *testing.T) {
	returned := loanDate(time.January, 20)
	loan := models.Loan{
		ID: "loan1", StudentID: "stu1",
		BorrowedDate: loanDate(time.January, 1),
		DueDate:      loanDate(time.January, 15),
		ReturnedDate: &returned,
	}

	onReturnDay, err := ComputeFine(loan, testPolicy(), returned)
	require.NoError(t, err)
	thirtyDaysLater, err := ComputeFine(loan, testPolicy(), returned.AddDate(0, 0, 30))
	require.NoError(t, err)

	assert.Equal(t, onReturnDay, thirtyDaysLater)
	assert.True(t, onReturnDay.Frozen)
	// 5 days late, 2 grace -> 3 chargeable days.
	assert.Equal(t, 3, onReturnDay.OverdueDays)
	assert.Equal(t, 30.0, onReturnDay.Amount)
}

func TestComputeFineProjectionForUnreturnedLoan(t *testing.T) {
	loan := models.Loan{
		ID: "loan1", StudentID: "stu1",
		BorrowedDate: loanDate(time.January, 1),
		DueDate:      loanDate(time.January, 15),
	}
	fine, err := ComputeFine(loan, testPolicy(), loanDate(time.January, 22))
	require.NoError(t, err)
	assert.False(t, fine.Frozen)
	assert.Equal(t, 5, fine.OverdueDays)
	assert.Equal(t, 50.0, fine.Amount)
	assert.Equal(t, loanDate(time.January, 22), fine.AsOf)
}

func TestComputeFineReturnedOnTime(t *testing.T) {
	returned := loanDate(time.January, 14)
	loan := models.Loan{
		ID: "loan1", StudentID: "stu1",
		BorrowedDate: loanDate(time.January, 1),
		DueDate:      loanDate(time.January, 15),
		ReturnedDate: &returned,
	}
	fine, err := ComputeFine(loan, testPolicy(), loanDate(time.June, 1))
	require.NoError(t, err)
	assert.Zero(t, fine.Amount)
	assert.True(t, fine.Frozen)
}

func TestComputeFineMissingDueDate(t *testing.T) {
	loan := models.Loan{ID: "loan-bad", StudentID: "stu1", BorrowedDate: loanDate(time.January, 1)}
	_, err := ComputeFine(loan, testPolicy(), loanDate(time.January, 30))
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrData))
	assert.Contains(t, err.Error(), "loan-bad")
}

func TestComputeFineBorrowedAfterDue(t *testing.T) {
	loan := models.Loan{
		ID: "loan-bad", StudentID: "stu1",
		BorrowedDate: loanDate(time.February, 1),
		DueDate:      loanDate(time.January, 15),
	}
	_, err := ComputeFine(loan, testPolicy(), loanDate(time.February, 2))
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrData))
}

func TestComputeFineUncappedPolicy(t *testing.T) {
	loan := models.Loan{
		ID: "loan1", StudentID: "stu1",
		BorrowedDate: loanDate(time.January, 1),
		DueDate:      loanDate(time.January, 15),
	}
	policy := models.FinePolicy{ID: "pol2", DailyRate: 10, GraceDays: 0, MaxFine: 0}
	fine, err := ComputeFine(loan, policy, loanDate(time.March, 1))
	require.NoError(t, err)
	assert.Equal(t, 45, fine.OverdueDays)
	assert.Equal(t, 450.0, fine.Amount)
}
