package decision

import (
	"fmt"

	"github.com/phiguard/phiguard/internal/model"
	"github.com/phiguard/phiguard/internal/scoring"
)

// AdditiveThresholds gate the summed risk total.
type AdditiveThresholds struct {
	LowRiskMax    float64 `yaml:"low_risk_max"`
	MediumRiskMax float64 `yaml:"medium_risk_max"`
}

// DefaultAdditiveThresholds returns the reviewed policy-gate
// constants.
func DefaultAdditiveThresholds() AdditiveThresholds {
	return AdditiveThresholds{LowRiskMax: 3.0, MediumRiskMax: 8.0}
}

// AdditivePolicy sums every violation's weighted contribution and
// gates the total: at or under LowRiskMax approves outright, at or
// under MediumRiskMax approves with redactions, above rejects.
type AdditivePolicy struct {
	thresholds AdditiveThresholds
	weights    scoring.WeightTable
}

// NewAdditivePolicy builds the additive strategy.
func NewAdditivePolicy(t AdditiveThresholds) *AdditivePolicy {
	return &AdditivePolicy{thresholds: t, weights: scoring.AdditiveWeights}
}

func (p *AdditivePolicy) Name() string { return PolicyAdditive }

// Decide implements Policy.
func (p *AdditivePolicy) Decide(violations []model.Violation) (model.ComplianceDecision, error) {
	comps, err := scoring.Components(violations, p.weights)
	if err != nil {
		return model.ComplianceDecision{}, fmt.Errorf("decision: additive scoring: %w", err)
	}
	total, breakdown := scoring.Total(comps)

	var outcome model.Outcome
	var rationale string
	switch {
	case total <= p.thresholds.LowRiskMax:
		outcome = model.OutcomeApproved
		rationale = fmt.Sprintf("total risk %.2f within low-risk bound %.2f", total, p.thresholds.LowRiskMax)
	case total <= p.thresholds.MediumRiskMax:
		outcome = model.OutcomeApprovedRedactions
		rationale = fmt.Sprintf("total risk %.2f requires redaction (bound %.2f)", total, p.thresholds.MediumRiskMax)
	default:
		outcome = model.OutcomeRejected
		rationale = fmt.Sprintf("total risk %.2f exceeds medium-risk bound %.2f", total, p.thresholds.MediumRiskMax)
	}

	return model.ComplianceDecision{
		Outcome:    outcome,
		RiskScore:  total,
		ScoreBasis: "total",
		Policy:     p.Name(),
		Components: breakdown,
		Rationale:  rationale,
	}, nil
}
