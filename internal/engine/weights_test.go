package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniops/academic-records-api/internal/models"
	appErrors "github.com/uniops/academic-records-api/pkg/errors"
)

func TestResolveWeightsValid(t *testing.T) {
	table, err := ResolveWeights([]models.AssessmentType{
		{ID: "t1", Name: "CAT", WeightFraction: 0.3},
		{ID: "t2", Name: "Assignment", WeightFraction: 0.2},
		{ID: "t3", Name: "Exam", WeightFraction: 0.5},
	})
	require.NoError(t, err)
	assert.Equal(t, models.WeightTable{"CAT": 0.3, "Assignment": 0.2, "Exam": 0.5}, table)
}

func TestResolveWeightsToleratesEpsilonDrift(t *testing.T) {
	_, err := ResolveWeights([]models.AssessmentType{
		{ID: "t1", Name: "CAT", WeightFraction: 0.3000000004},
		{ID: "t2", Name: "Exam", WeightFraction: 0.6999999999},
	})
	require.NoError(t, err)
}

func TestResolveWeightsBadSum(t *testing.T) {
	_, err := ResolveWeights([]models.AssessmentType{
		{ID: "t1", Name: "CAT", WeightFraction: 0.3},
		{ID: "t2", Name: "Exam", WeightFraction: 0.6},
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConfiguration))
}

func TestResolveWeightsDuplicateType(t *testing.T) {
	_, err := ResolveWeights([]models.AssessmentType{
		{ID: "t1", Name: "CAT", WeightFraction: 0.5},
		{ID: "t2", Name: "CAT", WeightFraction: 0.5},
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConfiguration))
}

func TestResolveWeightsEmpty(t *testing.T) {
	_, err := ResolveWeights(nil)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConfiguration))
}
