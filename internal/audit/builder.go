package audit

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phiguard/phiguard/internal/model"
)

// BuildParams carries everything an audit record captures. AuditID and
// Timestamp are explicit so replay can rebuild a byte-identical
// record; NewBuildParams fills them for fresh runs.
type BuildParams struct {
	AuditID               string
	Timestamp             time.Time
	RawInput              []byte
	Purpose               string
	EngineVersion         string
	PolicySnapshotVersion string
	Provenance            model.InputProvenance
	Context               model.JurisdictionContext
	Resolution            model.JurisdictionResolution
	Decision              model.ComplianceDecision
	Detections            []model.Violation
	DetectionMethods      []string
	NegativeAssertions    []model.NegativeAssertion
	Human                 model.HumanDecision
	PreviousRecordHash    string

	// DatasetFingerprint groups records into one chain. Defaults to
	// the input fingerprint for single-record runs.
	DatasetFingerprint string
}

// NewBuildParams stamps a fresh audit identity onto the params.
func NewBuildParams() BuildParams {
	return BuildParams{
		AuditID:       uuid.NewString(),
		Timestamp:     time.Now().UTC(),
		EngineVersion: EngineVersion,
	}
}

// Build assembles and seals an audit record. It refuses to produce a
// record without a valid human decision: the engine recommends, a
// person remains accountable.
func Build(p BuildParams) (AuditRecord, error) {
	if err := ValidateHumanDecision(p.Human); err != nil {
		return AuditRecord{}, err
	}
	if p.AuditID == "" {
		return AuditRecord{}, fmt.Errorf("audit: build: missing audit_id")
	}
	if p.Timestamp.IsZero() {
		return AuditRecord{}, fmt.Errorf("audit: build: missing timestamp")
	}

	fp := Fingerprint(p.RawInput)
	dataset := p.DatasetFingerprint
	if dataset == "" {
		dataset = fp
	}
	rec := AuditRecord{
		AuditID:               p.AuditID,
		Timestamp:             p.Timestamp,
		DatasetFingerprint:    dataset,
		InputFingerprint:      fp,
		PreviousRecordHash:    p.PreviousRecordHash,
		EngineVersion:         p.EngineVersion,
		PolicySnapshotVersion: p.PolicySnapshotVersion,
		Purpose:               p.Purpose,
		InputProvenance:       p.Provenance,
		JurisdictionContext:   p.Context,
		Resolution:            p.Resolution,
		Decision:              p.Decision,
		Detections:            p.Detections,
		DetectionMethods:      p.DetectionMethods,
		NegativeAssertions:    p.NegativeAssertions,
		HumanDecision:         p.Human,
	}
	if err := Seal(&rec); err != nil {
		return AuditRecord{}, err
	}
	return rec, nil
}
