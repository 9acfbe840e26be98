// Package audit builds, hashes, and replays tamper-evident compliance
// records.
package audit

import (
	"errors"
	"fmt"
	"time"

	"github.com/phiguard/phiguard/internal/model"
)

// Error taxonomy for audit verification.
var (
	// ErrIntegrity marks hash or chain mismatches: the record and the
	// world no longer agree.
	ErrIntegrity = errors.New("audit: integrity violation")

	// ErrUnknownVersion marks a record pinned to a component version
	// missing from the registries: the environment cannot faithfully
	// re-execute it.
	ErrUnknownVersion = errors.New("audit: unknown pinned version")

	// ErrHumanDecision marks a record built without accountable human
	// sign-off.
	ErrHumanDecision = errors.New("audit: invalid human decision")
)

// AuditRecord is one complete, replayable account of a pipeline run.
// RecordHash covers every field except the two hash fields themselves;
// PreviousRecordHash is empty only at the head of a chain.
type AuditRecord struct {
	AuditID            string    `json:"audit_id"`
	Timestamp          time.Time `json:"timestamp"`
	DatasetFingerprint string    `json:"dataset_fingerprint"`
	InputFingerprint   string    `json:"input_fingerprint"`
	RecordHash         string    `json:"record_hash"`
	PreviousRecordHash string    `json:"previous_record_hash,omitempty"`

	EngineVersion         string `json:"engine_version"`
	PolicySnapshotVersion string `json:"policy_snapshot_version"`
	Purpose               string `json:"purpose"`

	InputProvenance     model.InputProvenance        `json:"input_provenance"`
	JurisdictionContext model.JurisdictionContext    `json:"jurisdiction_context"`
	Resolution          model.JurisdictionResolution `json:"jurisdiction_resolution"`
	Decision            model.ComplianceDecision     `json:"compliance_decision"`
	Detections          []model.Violation            `json:"detections"`
	DetectionMethods    []string                     `json:"detection_methods_used"`
	NegativeAssertions  []model.NegativeAssertion    `json:"negative_assertions"`
	HumanDecision       model.HumanDecision          `json:"human_decision"`
}

// minRationaleLen is the shortest acceptable reviewer rationale.
// One-word sign-offs defeat the accountability requirement.
const minRationaleLen = 20

// ValidateHumanDecision enforces the accountability gate.
func ValidateHumanDecision(h model.HumanDecision) error {
	if h.ReviewerID == "" {
		return fmt.Errorf("%w: reviewer_id is required", ErrHumanDecision)
	}
	if h.Decision == "" {
		return fmt.Errorf("%w: decision is required", ErrHumanDecision)
	}
	if len(h.Rationale) < minRationaleLen {
		return fmt.Errorf("%w: rationale must be at least %d characters", ErrHumanDecision, minRationaleLen)
	}
	return nil
}
