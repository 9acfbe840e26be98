package audit

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/phiguard/phiguard/internal/model"
)

func validHuman() model.HumanDecision {
	return model.HumanDecision{
		ReviewerID: "reviewer-17",
		Decision:   "approve",
		Rationale:  "reviewed detections and redaction plan in full",
		DecidedAt:  time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
}

func testParams() BuildParams {
	return BuildParams{
		AuditID:               "a2b6c8e0-0000-4000-8000-000000000001",
		Timestamp:             time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		RawInput:              []byte(`{"resourceType":"Patient"}`),
		Purpose:               "treatment",
		EngineVersion:         "phiguard-0.9.3",
		PolicySnapshotVersion: "2025.1",
		Provenance: model.InputProvenance{
			SourceSystem:     "epic-prod",
			OriginalFormat:   "FHIR",
			SystemConfigHash: "sha256:feed",
		},
		Context: model.JurisdictionContext{
			SourceCountry:        "US",
			DestinationCountries: []string{"DE"},
			PatientResidency:     "DE",
		},
		Decision: model.ComplianceDecision{
			Outcome:    model.OutcomeApproved,
			ScoreBasis: "total",
			Policy:     "additive",
			Rationale:  "total risk 0.00 within low-risk bound 3.00",
		},
		DetectionMethods: []string{model.MethodRuleBased},
		Human:            validHuman(),
	}
}

func TestBuildSealsRecord(t *testing.T) {
	rec, err := Build(testParams())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.HasPrefix(rec.RecordHash, "sha256:") {
		t.Errorf("record hash %q missing prefix", rec.RecordHash)
	}
	if rec.InputFingerprint != Fingerprint([]byte(`{"resourceType":"Patient"}`)) {
		t.Error("input fingerprint not derived from raw input")
	}
	if rec.DatasetFingerprint != rec.InputFingerprint {
		t.Error("dataset fingerprint should default to input fingerprint")
	}
	if err := VerifyRecordHash(rec); err != nil {
		t.Errorf("fresh record fails verification: %v", err)
	}
}

func TestBuildDeterministic(t *testing.T) {
	a, err := Build(testParams())
	if err != nil {
		t.Fatal(err)
	}
	b, err := Build(testParams())
	if err != nil {
		t.Fatal(err)
	}
	if a.RecordHash != b.RecordHash {
		t.Errorf("identical params produced different hashes: %s vs %s", a.RecordHash, b.RecordHash)
	}
}

func TestRecordHashExcludesChainFields(t *testing.T) {
	rec, err := Build(testParams())
	if err != nil {
		t.Fatal(err)
	}
	chained := rec
	chained.PreviousRecordHash = "sha256:abcd"
	h, err := RecordHash(chained)
	if err != nil {
		t.Fatal(err)
	}
	if h != rec.RecordHash {
		t.Error("previous_record_hash must not influence the record hash")
	}
}

func TestRecordHashCoversContent(t *testing.T) {
	rec, err := Build(testParams())
	if err != nil {
		t.Fatal(err)
	}
	tampered := rec
	tampered.Purpose = "research"
	if err := VerifyRecordHash(tampered); !errors.Is(err, ErrIntegrity) {
		t.Errorf("tampered record must fail with ErrIntegrity, got %v", err)
	}
}

func TestHumanDecisionGate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.HumanDecision)
	}{
		{"missing_reviewer", func(h *model.HumanDecision) { h.ReviewerID = "" }},
		{"missing_decision", func(h *model.HumanDecision) { h.Decision = "" }},
		{"short_rationale", func(h *model.HumanDecision) { h.Rationale = "looks fine" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParams()
			tt.mutate(&p.Human)
			if _, err := Build(p); !errors.Is(err, ErrHumanDecision) {
				t.Errorf("expected ErrHumanDecision, got %v", err)
			}
		})
	}
}

func TestCanonicalJSONSortsKeys(t *testing.T) {
	type sample struct {
		Zulu  string `json:"zulu"`
		Alpha string `json:"alpha"`
	}
	got, err := CanonicalJSON(sample{Zulu: "z", Alpha: "a"})
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"alpha":"a","zulu":"z"}` {
		t.Errorf("canonical form = %s", got)
	}
}

func TestSystemConfigHash(t *testing.T) {
	t.Setenv("ENGINE_VERSION", "phiguard-0.9.3")
	t.Setenv("POLICY_SNAPSHOT_VERSION", "2025.1")
	t.Setenv("RISK_THRESHOLD", "3.0")

	a, err := SystemConfigHash()
	if err != nil {
		t.Fatal(err)
	}
	b, err := SystemConfigHash()
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("system config hash not stable")
	}

	t.Setenv("RISK_THRESHOLD", "8.0")
	c, err := SystemConfigHash()
	if err != nil {
		t.Fatal(err)
	}
	if c == a {
		t.Error("changed threshold must change the hash")
	}
}

func TestVersionRegistryCheckRecord(t *testing.T) {
	reg := DefaultVersionRegistry()

	rec, err := Build(testParams())
	if err != nil {
		t.Fatal(err)
	}
	if err := reg.CheckRecord(rec); err != nil {
		t.Fatalf("known versions rejected: %v", err)
	}

	unknown := rec
	unknown.EngineVersion = "phiguard-0.0.0"
	if err := reg.CheckRecord(unknown); !errors.Is(err, ErrUnknownVersion) {
		t.Errorf("unknown engine version: got %v", err)
	}

	conv := rec
	conv.InputProvenance.ConverterVersion = "fhir-converter-9.9.9"
	if err := reg.CheckRecord(conv); !errors.Is(err, ErrUnknownVersion) {
		t.Errorf("unknown converter version: got %v", err)
	}

	noConv := rec
	noConv.InputProvenance.ConverterVersion = ""
	if err := reg.CheckRecord(noConv); err != nil {
		t.Errorf("absent converter must not be checked: %v", err)
	}
}
