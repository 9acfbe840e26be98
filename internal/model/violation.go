package model

import "fmt"

// Severity classifies how serious a detected violation is.
// The set is closed — scoring treats severity as a total function.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityMajor    Severity = "MAJOR"
	SeverityMinor    Severity = "MINOR"
)

// Valid reports whether s is one of the known severity levels.
func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityMajor, SeverityMinor:
		return true
	}
	return false
}

// Detection methods. Rule-based findings are deterministic and carry
// full weight; everything else is probabilistic and is scaled by its
// reported confidence.
const (
	MethodRuleBased   = "rule-based"
	MethodMLPrimary   = "ml-primary"
	MethodMLAugmented = "ml-augmented"
)

// Violation is a single compliance finding against a health record.
// Confidence is nil for detectors that do not report one; scoring
// treats a missing confidence as 1.0.
type Violation struct {
	Type            string   `json:"violation_type"`
	Severity        Severity `json:"severity"`
	Regulation      string   `json:"regulation"`
	Citation        string   `json:"citation,omitempty"`
	FieldPath       string   `json:"field_path"`
	Description     string   `json:"description"`
	DetectionMethod string   `json:"detection_method"`
	Confidence      *float64 `json:"confidence,omitempty"`
	Span            string   `json:"span,omitempty"`
	RuleID          string   `json:"rule_id,omitempty"`
}

// ConfidenceOr returns the reported confidence, or def when the
// detector did not report one.
func (v Violation) ConfidenceOr(def float64) float64 {
	if v.Confidence == nil {
		return def
	}
	return *v.Confidence
}

// Probabilistic reports whether the finding came from a probabilistic
// detector. Rule-based findings ignore confidence entirely.
func (v Violation) Probabilistic() bool {
	return v.DetectionMethod != MethodRuleBased
}

// FusionKey identifies a finding for rule-dominant fusion: a rule
// finding and an ML finding with the same key describe the same issue.
func (v Violation) FusionKey() string {
	return fmt.Sprintf("%s|%s|%s", v.Regulation, v.FieldPath, v.Type)
}

// ScanKey identifies a finding for intra-scan dedup. Two rules may
// legitimately flag the same field for different reasons, so the key
// includes the rule that fired and the matched span.
func (v Violation) ScanKey() string {
	return fmt.Sprintf("%s|%s|%s", v.Type, v.Span, v.RuleID)
}

// Conf is a convenience for building literal confidences in tests and
// detector adapters.
func Conf(c float64) *float64 { return &c }
