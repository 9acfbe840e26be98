package model

// Outcome is a terminal pipeline decision.
type Outcome string

const (
	OutcomeApproved           Outcome = "APPROVED"
	OutcomeApprovedRedactions Outcome = "APPROVED_WITH_REDACTIONS"
	OutcomeApprovedWarnings   Outcome = "APPROVED_WITH_WARNINGS"
	OutcomeNeedsReview        Outcome = "NEEDS_REVIEW"
	OutcomeRejected           Outcome = "REJECTED"
)

// RiskComponent is one violation's contribution to the risk score.
// Explanation ties the contribution back to its regulation, citation,
// and location so each component stands on its own.
type RiskComponent struct {
	ViolationType   string   `json:"violation_type"`
	Regulation      string   `json:"regulation"`
	Severity        Severity `json:"severity"`
	SeverityWeight  float64  `json:"severity_weight"`
	Confidence      float64  `json:"confidence"`
	WeightedScore   float64  `json:"weighted_score"`
	DetectionMethod string   `json:"detection_method"`
	Explanation     string   `json:"explanation"`
}

// ComplianceDecision is the outcome of a decision policy applied to a
// fused, cleaned violation list. ScoreBasis records whether RiskScore
// is an additive total or a triage maximum — the two are never
// comparable.
type ComplianceDecision struct {
	Outcome    Outcome         `json:"outcome"`
	RiskScore  float64         `json:"risk_score"`
	ScoreBasis string          `json:"score_basis"` // "total" or "max"
	Policy     string          `json:"policy"`
	Components []RiskComponent `json:"components,omitempty"`
	Rationale  string          `json:"rationale"`
}
