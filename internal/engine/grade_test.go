package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniops/academic-records-api/internal/models"
	appErrors "github.com/uniops/academic-records-api/pkg/errors"
)

func standardScale() models.GradeScale {
	return models.GradeScale{
		ID: "scale-default",
		Bands: []models.GradeBand{
			{LowerBound: 0, UpperBound: 50, Letter: "F", GradePoints: 0.0},
			{LowerBound: 50, UpperBound: 60, Letter: "D", GradePoints: 1.0},
			{LowerBound: 60, UpperBound: 70, Letter: "C", GradePoints: 2.0},
			{LowerBound: 70, UpperBound: 80, Letter: "B", GradePoints: 3.0},
			{LowerBound: 80, UpperBound: 100, Letter: "A", GradePoints: 4.0},
		},
	}
}

func standardWeights() models.WeightTable {
	return models.WeightTable{"CAT": 0.3, "Assignment": 0.2, "Exam": 0.5}
}

func TestComputeCompositeWeighted(t *testing.T) {
	score, err := ComputeComposite(CompositeInput{
		StudentID:  "stu1",
		UnitID:     "unit1",
		SemesterID: "sem1",
		Weights:    standardWeights(),
		Scale:      standardScale(),
		Records: []models.AssessmentRecord{
			{ID: "r1", TypeName: "CAT", RawScore: 24, MaxScore: 30},
			{ID: "r2", TypeName: "Assignment", RawScore: 18, MaxScore: 20},
			{ID: "r3", TypeName: "Exam", RawScore: 42, MaxScore: 70},
		},
	})
	require.NoError(t, err)
	// 80*0.3 + 90*0.2 + 60*0.5 = 72
	assert.Equal(t, 72.0, score.WeightedPct)
	assert.Equal(t, "B", score.Letter)
	assert.Equal(t, 3.0, score.GradePoints)
	assert.False(t, score.Incomplete)
}

func TestComputeCompositeAveragesSameTypeSlot(t *testing.T) {
	score, err := ComputeComposite(CompositeInput{
		StudentID: "stu1", UnitID: "unit1", SemesterID: "sem1",
		Weights: models.WeightTable{"CAT": 1.0},
		Scale:   standardScale(),
		Records: []models.AssessmentRecord{
			{ID: "r1", TypeName: "CAT", RawScore: 10, MaxScore: 20},
			{ID: "r2", TypeName: "CAT", RawScore: 30, MaxScore: 30},
		},
	})
	require.NoError(t, err)
	// (50 + 100) / 2 = 75
	assert.Equal(t, 75.0, score.WeightedPct)
	assert.Equal(t, "B", score.Letter)
}

func TestComputeCompositeMissingTypeScoresZero(t *testing.T) {
	score, err := ComputeComposite(CompositeInput{
		StudentID: "stu1", UnitID: "unit1", SemesterID: "sem1",
		Weights: standardWeights(),
		Scale:   standardScale(),
		Records: []models.AssessmentRecord{
			{ID: "r1", TypeName: "CAT", RawScore: 30, MaxScore: 30},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 30.0, score.WeightedPct)
	assert.True(t, score.Incomplete)
	assert.Equal(t, "F", score.Letter)
}

func TestComputeCompositeBoundaryResolvesHigher(t *testing.T) {
	score, err := ComputeComposite(CompositeInput{
		StudentID: "stu1", UnitID: "unit1", SemesterID: "sem1",
		Weights: models.WeightTable{"Exam": 1.0},
		Scale:   standardScale(),
		Records: []models.AssessmentRecord{
			{ID: "r1", TypeName: "Exam", RawScore: 70, MaxScore: 100},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 70.0, score.WeightedPct)
	assert.Equal(t, "B", score.Letter)
}

func TestComputeCompositeFullMarksHitsTopBand(t *testing.T) {
	score, err := ComputeComposite(CompositeInput{
		StudentID: "stu1", UnitID: "unit1", SemesterID: "sem1",
		Weights: models.WeightTable{"Exam": 1.0},
		Scale:   standardScale(),
		Records: []models.AssessmentRecord{
			{ID: "r1", TypeName: "Exam", RawScore: 100, MaxScore: 100},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "A", score.Letter)
	assert.Equal(t, 4.0, score.GradePoints)
}

func TestComputeCompositeIdempotent(t *testing.T) {
	input := CompositeInput{
		StudentID: "stu1", UnitID: "unit1", SemesterID: "sem1",
		Weights: standardWeights(),
		Scale:   standardScale(),
		Records: []models.AssessmentRecord{
			{ID: "r1", TypeName: "CAT", RawScore: 24, MaxScore: 30},
			{ID: "r2", TypeName: "Assignment", RawScore: 13, MaxScore: 20},
			{ID: "r3", TypeName: "Exam", RawScore: 55.5, MaxScore: 70},
		},
	}
	first, err := ComputeComposite(input)
	require.NoError(t, err)
	second, err := ComputeComposite(input)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestComputeCompositeScoreExceedsMax(t *testing.T) {
	_, err := ComputeComposite(CompositeInput{
		StudentID: "stu1", UnitID: "unit1", SemesterID: "sem1",
		Weights: models.WeightTable{"CAT": 1.0},
		Scale:   standardScale(),
		Records: []models.AssessmentRecord{
			{ID: "r-bad", TypeName: "CAT", RawScore: 31, MaxScore: 30},
		},
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrData))
	assert.Contains(t, err.Error(), "r-bad")
}

func TestComputeCompositeSkipsSupersededRecords(t *testing.T) {
	score, err := ComputeComposite(CompositeInput{
		StudentID: "stu1", UnitID: "unit1", SemesterID: "sem1",
		Weights: models.WeightTable{"CAT": 1.0},
		Scale:   standardScale(),
		Records: []models.AssessmentRecord{
			{ID: "r1", TypeName: "CAT", RawScore: 10, MaxScore: 30, Superseded: true},
			{ID: "r2", TypeName: "CAT", RawScore: 27, MaxScore: 30},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 90.0, score.WeightedPct)
}

func TestComputeCompositeMalformedScale(t *testing.T) {
	scale := models.GradeScale{Bands: []models.GradeBand{
		{LowerBound: 0, UpperBound: 50, Letter: "F"},
		{LowerBound: 55, UpperBound: 100, Letter: "A"},
	}}
	_, err := ComputeComposite(CompositeInput{
		StudentID: "stu1", UnitID: "unit1", SemesterID: "sem1",
		Weights: models.WeightTable{"Exam": 1.0},
		Scale:   scale,
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConfiguration))
}

func TestGradePointAverage(t *testing.T) {
	gpa, credits, incomplete, err := GradePointAverage([]models.UnitResult{
		{UnitID: "u1", GradePoints: 3.0, CreditHours: 3},
		{UnitID: "u2", GradePoints: 2.0, CreditHours: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, 7, credits)
	assert.False(t, incomplete)
	// (3*3 + 2*4) / 7 = 17/7 ≈ 2.43
	assert.Equal(t, 2.43, gpa)
}

func TestGradePointAverageEmpty(t *testing.T) {
	gpa, credits, incomplete, err := GradePointAverage(nil)
	require.NoError(t, err)
	assert.Zero(t, gpa)
	assert.Zero(t, credits)
	assert.False(t, incomplete)
}

func TestGradePointAveragePropagatesIncomplete(t *testing.T) {
	gpa, _, incomplete, err := GradePointAverage([]models.UnitResult{
		{UnitID: "u1", GradePoints: 4.0, CreditHours: 3, Incomplete: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 4.0, gpa)
	assert.True(t, incomplete)
}
