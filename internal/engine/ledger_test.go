package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniops/academic-records-api/internal/models"
	appErrors "github.com/uniops/academic-records-api/pkg/errors"
)

func feeDate(month time.Month, d int) time.Time {
	return time.Date(2026, month, d, 0, 0, 0, 0, time.UTC)
}

func semesterDue(semID string, seq int, amounts ...float64) models.SemesterDue {
	due := models.SemesterDue{SemesterID: semID, Sequence: seq}
	for i, amount := range amounts {
		due.Items = append(due.Items, models.FeeItem{ID: semID + "-item", SemesterID: semID, Amount: amount, Position: i})
	}
	return due
}

func TestComputeBalanceVerifiedOnly(t *testing.T) {
	balance, err := ComputeBalance(BalanceInput{
		StudentID:  "stu1",
		SemesterID: "sem1",
		Dues:       []models.SemesterDue{semesterDue("sem1", 1, 30000, 15000, 5000)},
		Payments: []models.Payment{
			{ID: "p1", StudentID: "stu1", Amount: 20000, Date: feeDate(time.January, 10), Verified: true},
			{ID: "p2", StudentID: "stu1", Amount: 15000, Date: feeDate(time.February, 1), Verified: true},
			{ID: "p3", StudentID: "stu1", Amount: 15000, Date: feeDate(time.February, 20), Verified: false},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 50000.0, balance.TotalDue)
	assert.Equal(t, 35000.0, balance.Applied)
	assert.Equal(t, 15000.0, balance.TrueSigned)
	assert.Equal(t, 15000.0, balance.Display)
	assert.Equal(t, 15000.0, balance.UnverifiedTotal)
}

func TestComputeBalanceFIFOAcrossSemesters(t *testing.T) {
	balance, err := ComputeBalance(BalanceInput{
		StudentID:  "stu1",
		SemesterID: "sem2",
		Dues: []models.SemesterDue{
			semesterDue("sem2", 2, 40000),
			semesterDue("sem1", 1, 10000),
		},
		Payments: []models.Payment{
			{ID: "p1", StudentID: "stu1", Amount: 25000, Date: feeDate(time.January, 5), Verified: true},
		},
	})
	require.NoError(t, err)
	// Oldest debt first: 10000 clears sem1, 15000 lands on sem2.
	assert.Equal(t, 40000.0, balance.TotalDue)
	assert.Equal(t, 15000.0, balance.Applied)
	assert.Equal(t, 25000.0, balance.TrueSigned)
	require.Len(t, balance.Allocations, 2)
	assert.Equal(t, "sem1", balance.Allocations[0].SemesterID)
	assert.Equal(t, 10000.0, balance.Allocations[0].Amount)
	assert.Equal(t, "sem2", balance.Allocations[1].SemesterID)
	assert.Equal(t, 15000.0, balance.Allocations[1].Amount)
}

func TestComputeBalanceOverpaymentIsCredit(t *testing.T) {
	balance, err := ComputeBalance(BalanceInput{
		StudentID:  "stu1",
		SemesterID: "sem1",
		Dues:       []models.SemesterDue{semesterDue("sem1", 1, 50000)},
		Payments: []models.Payment{
			{ID: "p1", StudentID: "stu1", Amount: 60000, Date: feeDate(time.January, 5), Verified: true},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, -10000.0, balance.TrueSigned)
	assert.Equal(t, 0.0, balance.Display)
}

func TestComputeBalancePaymentOrderIsByDate(t *testing.T) {
	balance, err := ComputeBalance(BalanceInput{
		StudentID:  "stu1",
		SemesterID: "sem1",
		Dues:       []models.SemesterDue{semesterDue("sem1", 1, 10000)},
		Payments: []models.Payment{
			{ID: "p-late", StudentID: "stu1", Amount: 8000, Date: feeDate(time.March, 1), Verified: true},
			{ID: "p-early", StudentID: "stu1", Amount: 8000, Date: feeDate(time.January, 1), Verified: true},
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, balance.Allocations)
	assert.Equal(t, "p-early", balance.Allocations[0].PaymentID)
	assert.Equal(t, 8000.0, balance.Allocations[0].Amount)
	assert.Equal(t, "p-late", balance.Allocations[1].PaymentID)
	assert.Equal(t, 2000.0, balance.Allocations[1].Amount)
}

func TestComputeBalanceForeignPaymentIsDataError(t *testing.T) {
	_, err := ComputeBalance(BalanceInput{
		StudentID:  "stu1",
		SemesterID: "sem1",
		Payments: []models.Payment{
			{ID: "p-x", StudentID: "stu2", Amount: 100, Verified: true},
		},
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrData))
	assert.Contains(t, err.Error(), "p-x")
}

func TestComputeBalanceIdempotent(t *testing.T) {
	input := BalanceInput{
		StudentID:  "stu1",
		SemesterID: "sem1",
		Dues:       []models.SemesterDue{semesterDue("sem1", 1, 42000)},
		Payments: []models.Payment{
			{ID: "p1", StudentID: "stu1", Amount: 17000, Date: feeDate(time.January, 5), Verified: true},
		},
	}
	first, err := ComputeBalance(input)
	require.NoError(t, err)
	second, err := ComputeBalance(input)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
