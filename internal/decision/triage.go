package decision

import (
	"fmt"

	"github.com/phiguard/phiguard/internal/model"
	"github.com/phiguard/phiguard/internal/scoring"
)

// TriageThresholds gate the single worst normalized finding.
type TriageThresholds struct {
	Review float64 `yaml:"review"`
	Block  float64 `yaml:"block"`
}

// DefaultTriageThresholds returns the reviewed triage gates.
func DefaultTriageThresholds() TriageThresholds {
	return TriageThresholds{Review: 0.30, Block: 0.65}
}

// TriagePolicy routes on the highest per-violation risk rather than a
// sum: one confident critical blocks no matter how clean the rest of
// the record is, while many low-grade findings never accumulate into a
// block.
type TriagePolicy struct {
	thresholds TriageThresholds
	weights    scoring.WeightTable
}

// NewTriagePolicy builds the triage strategy.
func NewTriagePolicy(t TriageThresholds) *TriagePolicy {
	return &TriagePolicy{thresholds: t, weights: scoring.TriageWeights}
}

func (p *TriagePolicy) Name() string { return PolicyTriage }

// Decide implements Policy.
func (p *TriagePolicy) Decide(violations []model.Violation) (model.ComplianceDecision, error) {
	if len(violations) == 0 {
		return model.ComplianceDecision{
			Outcome:    model.OutcomeApproved,
			RiskScore:  0,
			ScoreBasis: "max",
			Policy:     p.Name(),
			Rationale:  "no violations detected",
		}, nil
	}

	comps, err := scoring.Components(violations, p.weights)
	if err != nil {
		return model.ComplianceDecision{}, fmt.Errorf("decision: triage scoring: %w", err)
	}
	max := scoring.Max(comps)
	_, breakdown := scoring.Total(comps)

	var outcome model.Outcome
	var rationale string
	switch {
	case max >= p.thresholds.Block:
		outcome = model.OutcomeRejected
		rationale = fmt.Sprintf("worst finding %.2f at or above block threshold %.2f", max, p.thresholds.Block)
	case max >= p.thresholds.Review:
		outcome = model.OutcomeNeedsReview
		rationale = fmt.Sprintf("worst finding %.2f at or above review threshold %.2f", max, p.thresholds.Review)
	default:
		outcome = model.OutcomeApprovedWarnings
		rationale = fmt.Sprintf("worst finding %.2f below review threshold %.2f", max, p.thresholds.Review)
	}

	return model.ComplianceDecision{
		Outcome:    outcome,
		RiskScore:  max,
		ScoreBasis: "max",
		Policy:     p.Name(),
		Components: breakdown,
		Rationale:  rationale,
	}, nil
}
