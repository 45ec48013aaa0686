package engine

import (
	"fmt"

	"github.com/uniops/academic-records-api/internal/models"
	appErrors "github.com/uniops/academic-records-api/pkg/errors"
)

// GradePointAverage computes the credit-hour-weighted mean of grade
// points over a set of unit results. The same formula serves semester
// GPA (results for one semester) and cumulative GPA (the full
// cross-semester record set):
//
//	GPA = Σ(grade_points × credit_hours) / Σ(credit_hours)
//
// A result set with zero total credit hours yields 0, not NaN. The
// returned incomplete flag is set when any contributing composite was
// computed from partial coursework.
func GradePointAverage(units []models.UnitResult) (float64, int, bool, error) {
	totalPoints := 0.0
	totalCredits := 0
	incomplete := false
	for _, u := range units {
		if u.CreditHours <= 0 {
			return 0, 0, false, appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("unit %s has non-positive credit hours", u.UnitID))
		}
		totalPoints += u.GradePoints * float64(u.CreditHours)
		totalCredits += u.CreditHours
		if u.Incomplete {
			incomplete = true
		}
	}
	if totalCredits == 0 {
		return 0, 0, false, nil
	}
	return round2(totalPoints / float64(totalCredits)), totalCredits, incomplete, nil
}
