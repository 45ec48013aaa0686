package engine

import (
	"fmt"
	"sort"

	"github.com/uniops/academic-records-api/internal/models"
	appErrors "github.com/uniops/academic-records-api/pkg/errors"
)

// BalanceInput is the snapshot needed to derive one balance. Dues
// covers every semester the student owes for up to and including the
// requested one; Payments is the student's full payment history.
type BalanceInput struct {
	StudentID  string
	SemesterID string
	Dues       []models.SemesterDue
	Payments   []models.Payment
}

// ComputeBalance derives the financial position for one
// student/semester. Verified payments are applied FIFO by payment date
// across semesters ordered oldest first, so carried-forward debt is
// satisfied before the current semester's. Money left over once every
// due is covered becomes credit on the requested semester, driving
// its true signed balance negative while the display balance floors
// at zero. Unverified payments are totalled but never applied.
func ComputeBalance(in BalanceInput) (models.Balance, error) {
	dues := make([]models.SemesterDue, len(in.Dues))
	copy(dues, in.Dues)
	sort.Slice(dues, func(i, j int) bool { return dues[i].Sequence < dues[j].Sequence })

	totalDue := 0.0
	remaining := make([]float64, len(dues))
	requestedIdx := -1
	for i, due := range dues {
		for _, item := range due.Items {
			if item.Amount < 0 {
				return models.Balance{}, appErrors.Clone(appErrors.ErrData, fmt.Sprintf("fee item %s: negative amount", item.ID))
			}
			remaining[i] += item.Amount
		}
		if due.SemesterID == in.SemesterID {
			requestedIdx = i
			totalDue = remaining[i]
		}
	}

	verified := make([]models.Payment, 0, len(in.Payments))
	unverifiedTotal := 0.0
	for _, p := range in.Payments {
		if p.StudentID != in.StudentID {
			return models.Balance{}, appErrors.Clone(appErrors.ErrData, fmt.Sprintf("payment %s: belongs to student %s", p.ID, p.StudentID))
		}
		if p.Amount < 0 {
			return models.Balance{}, appErrors.Clone(appErrors.ErrData, fmt.Sprintf("payment %s: negative amount", p.ID))
		}
		if !p.Verified {
			unverifiedTotal += p.Amount
			continue
		}
		verified = append(verified, p)
	}
	sort.SliceStable(verified, func(i, j int) bool {
		if verified[i].Date.Equal(verified[j].Date) {
			return verified[i].ID < verified[j].ID
		}
		return verified[i].Date.Before(verified[j].Date)
	})

	var allocations []models.PaymentAllocation
	appliedToRequested := 0.0
	surplus := 0.0
	for _, p := range verified {
		left := p.Amount
		for i := range dues {
			if left <= 0 {
				break
			}
			if remaining[i] <= 0 {
				continue
			}
			applied := left
			if applied > remaining[i] {
				applied = remaining[i]
			}
			remaining[i] -= applied
			left -= applied
			allocations = append(allocations, models.PaymentAllocation{
				PaymentID:  p.ID,
				SemesterID: dues[i].SemesterID,
				Amount:     applied,
			})
			if i == requestedIdx {
				appliedToRequested += applied
			}
		}
		surplus += left
	}

	applied := appliedToRequested + surplus
	trueSigned := totalDue - applied
	display := trueSigned
	if display < 0 {
		display = 0
	}

	return models.Balance{
		StudentID:       in.StudentID,
		SemesterID:      in.SemesterID,
		TotalDue:        totalDue,
		Applied:         applied,
		TrueSigned:      trueSigned,
		Display:         display,
		UnverifiedTotal: unverifiedTotal,
		Allocations:     allocations,
	}, nil
}
