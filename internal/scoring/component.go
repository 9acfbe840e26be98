package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/phiguard/phiguard/internal/model"
)

// round2 rounds to two decimals, the precision every reported score
// carries.
func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// Component builds the risk contribution of one violation. Rule-based
// findings carry full severity weight regardless of any confidence
// value; probabilistic findings are scaled by confidence, defaulting
// to 1.0 when the detector reported none.
func Component(v model.Violation, table WeightTable) (model.RiskComponent, error) {
	weight, err := table.WeightFor(v.Severity)
	if err != nil {
		return model.RiskComponent{}, err
	}

	confidence := 1.0
	weighted := weight
	if v.Probabilistic() {
		confidence = v.ConfidenceOr(1.0)
		weighted = round2(weight * confidence)
	}
	if weighted < 0 {
		// Weights and confidences are non-negative by construction; a
		// negative contribution means corrupted inputs, and clamping
		// would hide it.
		panic(fmt.Sprintf("scoring: negative weighted score %v for %s", weighted, v.Type))
	}

	return model.RiskComponent{
		ViolationType:   v.Type,
		Regulation:      v.Regulation,
		Severity:        v.Severity,
		SeverityWeight:  weight,
		Confidence:      confidence,
		WeightedScore:   weighted,
		DetectionMethod: v.DetectionMethod,
		Explanation:     fmt.Sprintf("%s violation (%s) at %s", v.Regulation, v.Citation, v.FieldPath),
	}, nil
}

// Components scores a violation list in order.
func Components(violations []model.Violation, table WeightTable) ([]model.RiskComponent, error) {
	out := make([]model.RiskComponent, 0, len(violations))
	for _, v := range violations {
		c, err := Component(v, table)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Total sums component contributions to a two-decimal total, with the
// breakdown sorted by (regulation, violation_type) so identical inputs
// always serialize identically.
func Total(components []model.RiskComponent) (float64, []model.RiskComponent) {
	sorted := append([]model.RiskComponent(nil), components...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Regulation != sorted[j].Regulation {
			return sorted[i].Regulation < sorted[j].Regulation
		}
		return sorted[i].ViolationType < sorted[j].ViolationType
	})

	var total float64
	for _, c := range sorted {
		total += c.WeightedScore
	}
	return round2(total), sorted
}

// Max returns the largest single contribution, zero for no components.
func Max(components []model.RiskComponent) float64 {
	var max float64
	for _, c := range components {
		if c.WeightedScore > max {
			max = c.WeightedScore
		}
	}
	return round2(max)
}
