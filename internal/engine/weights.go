// Package engine holds the pure computations that turn raw academic
// records into derived, policy-governed figures: composite scores and
// GPA, attendance rates, fee balances and library fines. Every
// function is deterministic and stateless: it operates on an immutable
// snapshot handed in by the caller, never touches storage or the
// clock, and recomputation over an unchanged snapshot yields an
// identical result.
package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/uniops/academic-records-api/internal/models"
	appErrors "github.com/uniops/academic-records-api/pkg/errors"
)

// WeightEpsilon is the tolerance applied when checking that the weight
// fractions of a unit's assessment types sum to 1.0.
const WeightEpsilon = 1e-6

// ResolveWeights validates a unit/semester's assessment type
// configuration and closes it into a type→weight table. The weight
// fractions must sum to exactly 1.0 within WeightEpsilon; rounding
// drift, a missing type or a duplicate type all fail with a
// configuration error rather than being silently normalised.
func ResolveWeights(types []models.AssessmentType) (models.WeightTable, error) {
	if len(types) == 0 {
		return nil, appErrors.Clone(appErrors.ErrConfiguration, "no assessment types configured")
	}

	table := make(models.WeightTable, len(types))
	sum := 0.0
	for _, t := range types {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return nil, appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("assessment type %s has an empty name", t.ID))
		}
		if _, ok := table[name]; ok {
			return nil, appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("duplicate assessment type %q", name))
		}
		if t.WeightFraction < 0 || t.WeightFraction > 1 {
			return nil, appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("assessment type %q weight %v outside [0,1]", name, t.WeightFraction))
		}
		table[name] = t.WeightFraction
		sum += t.WeightFraction
	}

	if math.Abs(sum-1.0) > WeightEpsilon {
		return nil, appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("assessment weights sum to %v, want 1.0", sum))
	}

	return table, nil
}
