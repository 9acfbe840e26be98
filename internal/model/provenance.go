package model

import "time"

// InputProvenance pins everything needed to re-create a pipeline run:
// where the input came from, how it was converted, and the exact
// engine configuration in force.
type InputProvenance struct {
	SourceSystem     string `json:"source_system"`
	OriginalFormat   string `json:"original_format"` // "FHIR" or "HL7v2"
	ConverterVersion string `json:"converter_version,omitempty"`
	SystemConfigHash string `json:"system_config_hash"`
	PolicyConfigHash string `json:"policy_config_hash,omitempty"`
}

// HumanDecision records the accountable reviewer sign-off attached to
// every audit record. Audit construction refuses records without one.
type HumanDecision struct {
	ReviewerID string    `json:"reviewer_id"`
	Decision   string    `json:"decision"`
	Rationale  string    `json:"rationale"`
	DecidedAt  time.Time `json:"decided_at"`
}
