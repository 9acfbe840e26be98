package jurisdiction

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/phiguard/phiguard/internal/model"
)

func TestResolveGoverningOrder(t *testing.T) {
	r := NewResolver(DefaultSnapshot())

	tests := []struct {
		name       string
		ctx        model.JurisdictionContext
		applicable []string
		governing  string
	}{
		{
			name: "us_to_sg_indian_transit_hipaa_governs",
			ctx: model.JurisdictionContext{
				SourceCountry:        "US",
				DestinationCountries: []string{"SG"},
				PatientResidency:     "US",
				Intermediaries:       []string{"IN"},
			},
			applicable: []string{"HIPAA", "DPDP"},
			governing:  "HIPAA",
		},
		{
			name: "eu_subject_outranks_hipaa",
			ctx: model.JurisdictionContext{
				SourceCountry:        "US",
				DestinationCountries: []string{"SG"},
				PatientResidency:     "DE",
				Intermediaries:       []string{"IN"},
			},
			applicable: []string{"GDPR", "HIPAA", "DPDP"},
			governing:  "GDPR",
		},
		{
			name: "eu_alias_residency",
			ctx: model.JurisdictionContext{
				SourceCountry:        "CH",
				DestinationCountries: []string{"CH"},
				PatientResidency:     "EU",
			},
			applicable: []string{"GDPR"},
			governing:  "GDPR",
		},
		{
			name: "uk_subject_is_uk_gdpr_not_gdpr",
			ctx: model.JurisdictionContext{
				SourceCountry:        "US",
				DestinationCountries: []string{"US"},
				PatientResidency:     "GB",
			},
			applicable: []string{"UK_GDPR", "HIPAA"},
			governing:  "UK_GDPR",
		},
		{
			name: "canadian_destination_triggers_pipeda",
			ctx: model.JurisdictionContext{
				SourceCountry:        "SG",
				DestinationCountries: []string{"CA"},
				PatientResidency:     "SG",
			},
			applicable: []string{"PIPEDA"},
			governing:  "PIPEDA",
		},
		{
			name: "unregulated_transfer",
			ctx: model.JurisdictionContext{
				SourceCountry:        "SG",
				DestinationCountries: []string{"SG"},
				PatientResidency:     "SG",
			},
			applicable: nil,
			governing:  "",
		},
		{
			name: "unknown_codes_match_nothing",
			ctx: model.JurisdictionContext{
				SourceCountry:        "XX",
				DestinationCountries: []string{"YY"},
				PatientResidency:     "ZZ",
			},
			applicable: nil,
			governing:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := r.Resolve(tt.ctx)
			if !reflect.DeepEqual(res.ApplicableRegulations, tt.applicable) {
				t.Errorf("applicable = %v, want %v", res.ApplicableRegulations, tt.applicable)
			}
			if res.GoverningRegulation != tt.governing {
				t.Errorf("governing = %q, want %q", res.GoverningRegulation, tt.governing)
			}
			if res.SnapshotVersion == "" {
				t.Error("resolution missing snapshot version")
			}
			if res.Reasoning["governing"] == "" {
				t.Error("resolution missing governing reasoning")
			}
		})
	}
}

func TestResolveReasoningPerRegulation(t *testing.T) {
	r := NewResolver(DefaultSnapshot())
	res := r.Resolve(model.JurisdictionContext{
		SourceCountry:        "IN",
		DestinationCountries: []string{"BR"},
		PatientResidency:     "BR",
	})
	if res.GoverningRegulation != "LGPD" {
		t.Fatalf("governing = %q, want LGPD", res.GoverningRegulation)
	}
	for _, code := range res.ApplicableRegulations {
		if res.Reasoning[code] == "" {
			t.Errorf("no reasoning recorded for %s", code)
		}
	}
}

func TestResolveDeterministic(t *testing.T) {
	r := NewResolver(DefaultSnapshot())
	ctx := model.JurisdictionContext{
		SourceCountry:        "US",
		DestinationCountries: []string{"IN", "CA"},
		PatientResidency:     "FR",
	}
	first := r.Resolve(ctx)
	for i := 0; i < 50; i++ {
		got := r.Resolve(ctx)
		if !reflect.DeepEqual(got.ApplicableRegulations, first.ApplicableRegulations) {
			t.Fatalf("iteration %d: applicable %v != %v", i, got.ApplicableRegulations, first.ApplicableRegulations)
		}
		if got.GoverningRegulation != first.GoverningRegulation {
			t.Fatalf("iteration %d: governing drifted", i)
		}
	}
}

func TestLoadSnapshot(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid", func(t *testing.T) {
		path := filepath.Join(dir, "snap.json")
		body := `{"snapshot_version":"2025.2","regulations":{"HIPAA":{"countries":["US"]}}}`
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		snap, err := LoadSnapshot(path)
		if err != nil {
			t.Fatalf("LoadSnapshot: %v", err)
		}
		if snap.Version != "2025.2" {
			t.Errorf("version = %q", snap.Version)
		}
		if !snap.Covers("HIPAA", "US") {
			t.Error("HIPAA should cover US")
		}
	})

	t.Run("missing_file", func(t *testing.T) {
		if _, err := LoadSnapshot(filepath.Join(dir, "nope.json")); err == nil {
			t.Fatal("expected error for missing snapshot")
		}
	})

	t.Run("malformed", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadSnapshot(path); err == nil {
			t.Fatal("expected error for malformed snapshot")
		}
	})

	t.Run("empty_regulation", func(t *testing.T) {
		path := filepath.Join(dir, "empty.json")
		body := `{"snapshot_version":"x","regulations":{"HIPAA":{"countries":[]}}}`
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadSnapshot(path); err == nil {
			t.Fatal("expected error for regulation with no countries")
		}
	})
}
