package audit

import (
	"fmt"
)

// Rebuilder re-executes the pipeline deterministically for a stored
// record, reusing its identity, timestamps, and human decision so the
// rebuilt record can be compared hash for hash.
type Rebuilder interface {
	Rebuild(original AuditRecord, input []byte) (AuditRecord, error)
}

// ReplayResult reports a completed replay. Artifact is the rebuilt
// record with previous_record_hash cleared: replay proves one
// record's integrity, not its position in a chain.
type ReplayResult struct {
	Verified bool        `json:"verified"`
	Steps    []string    `json:"steps"`
	Artifact AuditRecord `json:"artifact"`
}

// Verifier replays stored records against the current environment.
type Verifier struct {
	Versions  *VersionRegistry
	Rebuilder Rebuilder
}

// NewVerifier builds a replay verifier.
func NewVerifier(versions *VersionRegistry, rb Rebuilder) *Verifier {
	return &Verifier{Versions: versions, Rebuilder: rb}
}

// Replay runs the four-step verification protocol. Steps abort on
// first failure: a later success cannot compensate for an earlier
// mismatch.
//
//  1. The current system configuration hash must equal the pinned one.
//  2. The supplied input must hash to the recorded input fingerprint.
//  3. Every pinned component version must resolve in the registries.
//  4. A deterministic rebuild must reproduce the record hash exactly.
func (v *Verifier) Replay(rec AuditRecord, input []byte) (ReplayResult, error) {
	res := ReplayResult{}

	current, err := SystemConfigHash()
	if err != nil {
		return res, err
	}
	if current != rec.InputProvenance.SystemConfigHash {
		return res, fmt.Errorf("%w: system config drift: pinned %s, current %s",
			ErrIntegrity, rec.InputProvenance.SystemConfigHash, current)
	}
	res.Steps = append(res.Steps, "system config hash verified")

	if fp := Fingerprint(input); fp != rec.InputFingerprint {
		return res, fmt.Errorf("%w: input fingerprint mismatch: recorded %s, provided %s",
			ErrIntegrity, rec.InputFingerprint, fp)
	}
	res.Steps = append(res.Steps, "input fingerprint verified")

	if err := v.Versions.CheckRecord(rec); err != nil {
		return res, err
	}
	res.Steps = append(res.Steps, "component versions resolved")

	rebuilt, err := v.Rebuilder.Rebuild(rec, input)
	if err != nil {
		return res, fmt.Errorf("audit: replay rebuild: %w", err)
	}
	if rebuilt.RecordHash != rec.RecordHash {
		return res, fmt.Errorf("%w: rebuild hash mismatch: recorded %s, rebuilt %s",
			ErrIntegrity, rec.RecordHash, rebuilt.RecordHash)
	}
	res.Steps = append(res.Steps, "deterministic rebuild verified")

	// The artifact stands alone: chain linkage is the ledger's claim,
	// not the replay's.
	rebuilt.PreviousRecordHash = ""
	res.Verified = true
	res.Artifact = rebuilt
	return res, nil
}
