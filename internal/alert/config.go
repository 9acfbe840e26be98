package alert

// AlertConfig defines a webhook alert destination.
type AlertConfig struct {
	URL     string            `yaml:"url"     json:"url"`
	Format  string            `yaml:"format"  json:"format"` // "generic", "slack", "pagerduty"
	Events  []string          `yaml:"events"  json:"events"` // outcomes: ["REJECTED", "NEEDS_REVIEW", ...]
	Headers map[string]string `yaml:"headers" json:"headers"`
}

// AlertEvent is the payload sent to webhook endpoints when a transfer
// decision warrants attention.
type AlertEvent struct {
	Timestamp           string  `json:"timestamp"`
	AuditID             string  `json:"audit_id"`
	DatasetFingerprint  string  `json:"dataset_fingerprint"`
	Outcome             string  `json:"outcome"`
	RiskScore           float64 `json:"risk_score"`
	ScoreBasis          string  `json:"score_basis"`
	Policy              string  `json:"policy"`
	GoverningRegulation string  `json:"governing_regulation,omitempty"`
	Rationale           string  `json:"rationale"`
}
