// Package scoring converts violations into confidence-weighted risk
// components and aggregates them deterministically.
package scoring

import (
	"fmt"

	"github.com/phiguard/phiguard/internal/model"
)

// WeightTable maps every severity to a weight. The mapping is total:
// an unknown severity is a programming error, not a scoring input.
type WeightTable map[model.Severity]float64

// AdditiveWeights feeds the additive decision policy. Weights are
// calibrated so one critical outweighs two majors and a major
// outweighs four minors.
var AdditiveWeights = WeightTable{
	model.SeverityCritical: 5.0,
	model.SeverityMajor:    2.0,
	model.SeverityMinor:    0.5,
}

// TriageWeights feeds the triage policy, which compares the single
// worst finding against normalized thresholds.
var TriageWeights = WeightTable{
	model.SeverityCritical: 1.0,
	model.SeverityMajor:    0.7,
	model.SeverityMinor:    0.2,
}

// WeightFor returns the weight for a severity.
func (t WeightTable) WeightFor(s model.Severity) (float64, error) {
	w, ok := t[s]
	if !ok {
		return 0, fmt.Errorf("scoring: no weight defined for severity %q", s)
	}
	return w, nil
}
