package engine

import (
	"fmt"
	"math"
	"sort"

	"github.com/uniops/academic-records-api/internal/models"
	appErrors "github.com/uniops/academic-records-api/pkg/errors"
)

// CompositeInput is the snapshot needed to derive one composite score.
type CompositeInput struct {
	StudentID  string
	UnitID     string
	SemesterID string
	Weights    models.WeightTable
	Scale      models.GradeScale
	Records    []models.AssessmentRecord
}

// ComputeComposite converts a student's raw assessment records for one
// unit/semester into a weighted percentage, letter and grade points.
//
// Records sharing a type slot (two CATs averaged into one slot) are
// averaged on percentage. A required type with no record contributes
// zero and flags the result incomplete; excluding it instead would
// inflate the GPA. Superseded records are ignored.
func ComputeComposite(in CompositeInput) (models.CompositeScore, error) {
	if len(in.Weights) == 0 {
		return models.CompositeScore{}, appErrors.Clone(appErrors.ErrConfiguration, "empty weight table")
	}
	if err := validateScale(in.Scale); err != nil {
		return models.CompositeScore{}, err
	}

	sums := make(map[string]float64, len(in.Weights))
	counts := make(map[string]int, len(in.Weights))
	for _, rec := range in.Records {
		if rec.Superseded {
			continue
		}
		if rec.MaxScore <= 0 {
			return models.CompositeScore{}, appErrors.Clone(appErrors.ErrData, fmt.Sprintf("assessment record %s: max_score must be positive", rec.ID))
		}
		if rec.RawScore < 0 || rec.RawScore > rec.MaxScore {
			return models.CompositeScore{}, appErrors.Clone(appErrors.ErrData, fmt.Sprintf("assessment record %s: raw_score %v outside [0,%v]", rec.ID, rec.RawScore, rec.MaxScore))
		}
		if _, ok := in.Weights[rec.TypeName]; !ok {
			return models.CompositeScore{}, appErrors.Clone(appErrors.ErrData, fmt.Sprintf("assessment record %s: type %q not in weight table", rec.ID, rec.TypeName))
		}
		sums[rec.TypeName] += rec.RawScore / rec.MaxScore * 100
		counts[rec.TypeName]++
	}

	weighted := 0.0
	incomplete := false
	for typeName, weight := range in.Weights {
		n := counts[typeName]
		if n == 0 {
			incomplete = true
			continue
		}
		weighted += sums[typeName] / float64(n) * weight
	}
	weighted = round2(weighted)

	band, err := resolveBand(in.Scale, weighted)
	if err != nil {
		return models.CompositeScore{}, err
	}

	return models.CompositeScore{
		StudentID:   in.StudentID,
		UnitID:      in.UnitID,
		SemesterID:  in.SemesterID,
		WeightedPct: weighted,
		Letter:      band.Letter,
		GradePoints: band.GradePoints,
		Incomplete:  incomplete,
	}, nil
}

// validateScale checks the bracket table is non-overlapping,
// contiguous and covers [0,100].
func validateScale(scale models.GradeScale) error {
	if len(scale.Bands) == 0 {
		return appErrors.Clone(appErrors.ErrConfiguration, "grade scale has no bands")
	}
	bands := make([]models.GradeBand, len(scale.Bands))
	copy(bands, scale.Bands)
	sort.Slice(bands, func(i, j int) bool { return bands[i].LowerBound < bands[j].LowerBound })

	if bands[0].LowerBound != 0 {
		return appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("grade scale starts at %v, want 0", bands[0].LowerBound))
	}
	for i, band := range bands {
		if band.UpperBound <= band.LowerBound {
			return appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("grade band %q is empty or inverted", band.Letter))
		}
		if i > 0 && math.Abs(band.LowerBound-bands[i-1].UpperBound) > WeightEpsilon {
			return appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("grade scale gap or overlap between %q and %q", bands[i-1].Letter, band.Letter))
		}
	}
	if bands[len(bands)-1].UpperBound != 100 {
		return appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("grade scale ends at %v, want 100", bands[len(bands)-1].UpperBound))
	}
	return nil
}

// resolveBand finds the bracket containing pct. Lower bounds are
// inclusive, so a value exactly on a boundary resolves to the higher
// bracket; the top band also includes its upper bound so 100.0 maps to
// the best letter.
func resolveBand(scale models.GradeScale, pct float64) (models.GradeBand, error) {
	var best *models.GradeBand
	for i := range scale.Bands {
		band := &scale.Bands[i]
		if pct >= band.LowerBound && pct < band.UpperBound {
			if best == nil || band.LowerBound > best.LowerBound {
				best = band
			}
		}
		if band.UpperBound == 100 && pct == 100 {
			return *band, nil
		}
	}
	if best == nil {
		return models.GradeBand{}, appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("grade scale does not cover %v", pct))
	}
	return *best, nil
}

func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}
