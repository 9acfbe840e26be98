package audit

import (
	"errors"
	"testing"
)

// echoRebuilder rebuilds by re-sealing a copy of the original record,
// optionally after mutation — enough to exercise the protocol without
// a full pipeline.
type echoRebuilder struct {
	mutate func(*AuditRecord)
}

func (r echoRebuilder) Rebuild(original AuditRecord, input []byte) (AuditRecord, error) {
	rebuilt := original
	if r.mutate != nil {
		r.mutate(&rebuilt)
	}
	if err := Seal(&rebuilt); err != nil {
		return AuditRecord{}, err
	}
	return rebuilt, nil
}

func replayFixture(t *testing.T) AuditRecord {
	t.Helper()
	t.Setenv("ENGINE_VERSION", "phiguard-0.9.3")
	t.Setenv("POLICY_SNAPSHOT_VERSION", "2025.1")
	t.Setenv("RISK_THRESHOLD", "3.0")

	p := testParams()
	sysHash, err := SystemConfigHash()
	if err != nil {
		t.Fatal(err)
	}
	p.Provenance.SystemConfigHash = sysHash
	p.PreviousRecordHash = "sha256:1111"
	rec, err := Build(p)
	if err != nil {
		t.Fatal(err)
	}
	return rec
}

func TestReplayVerifies(t *testing.T) {
	rec := replayFixture(t)
	v := NewVerifier(DefaultVersionRegistry(), echoRebuilder{})

	res, err := v.Replay(rec, []byte(`{"resourceType":"Patient"}`))
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if !res.Verified {
		t.Error("replay not marked verified")
	}
	if len(res.Steps) != 4 {
		t.Errorf("steps = %d, want 4", len(res.Steps))
	}
	if res.Artifact.PreviousRecordHash != "" {
		t.Error("artifact must have previous_record_hash cleared")
	}
	if res.Artifact.RecordHash != rec.RecordHash {
		t.Error("artifact hash must match the original record")
	}
}

func TestReplayConfigDrift(t *testing.T) {
	rec := replayFixture(t)
	t.Setenv("RISK_THRESHOLD", "99.0")

	v := NewVerifier(DefaultVersionRegistry(), echoRebuilder{})
	_, err := v.Replay(rec, []byte(`{"resourceType":"Patient"}`))
	if !errors.Is(err, ErrIntegrity) {
		t.Errorf("config drift must fail with ErrIntegrity, got %v", err)
	}
}

func TestReplayWrongInput(t *testing.T) {
	rec := replayFixture(t)
	v := NewVerifier(DefaultVersionRegistry(), echoRebuilder{})

	_, err := v.Replay(rec, []byte(`{"resourceType":"Observation"}`))
	if !errors.Is(err, ErrIntegrity) {
		t.Errorf("wrong input must fail with ErrIntegrity, got %v", err)
	}
}

func TestReplayUnknownVersion(t *testing.T) {
	rec := replayFixture(t)
	rec.PolicySnapshotVersion = "1999.9"
	// Reseal so the version check, not the hash check, is exercised.
	if err := Seal(&rec); err != nil {
		t.Fatal(err)
	}

	v := NewVerifier(DefaultVersionRegistry(), echoRebuilder{})
	_, err := v.Replay(rec, []byte(`{"resourceType":"Patient"}`))
	if !errors.Is(err, ErrUnknownVersion) {
		t.Errorf("unknown version must fail with ErrUnknownVersion, got %v", err)
	}
}

func TestReplayNondeterministicRebuild(t *testing.T) {
	rec := replayFixture(t)
	v := NewVerifier(DefaultVersionRegistry(), echoRebuilder{
		mutate: func(r *AuditRecord) { r.Purpose = "changed" },
	})

	_, err := v.Replay(rec, []byte(`{"resourceType":"Patient"}`))
	if !errors.Is(err, ErrIntegrity) {
		t.Errorf("divergent rebuild must fail with ErrIntegrity, got %v", err)
	}
}
