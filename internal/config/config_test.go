package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Policy != "additive" {
		t.Errorf("default policy = %q", cfg.Policy)
	}
	if cfg.AdditiveThresholds.LowRiskMax != 3.0 || cfg.AdditiveThresholds.MediumRiskMax != 8.0 {
		t.Errorf("additive thresholds = %+v", cfg.AdditiveThresholds)
	}
	if cfg.TriageThresholds.Review != 0.30 || cfg.TriageThresholds.Block != 0.65 {
		t.Errorf("triage thresholds = %+v", cfg.TriageThresholds)
	}
}

func TestDefaultConfigYAMLLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(DefaultConfigYAML()), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, _, err := LoadWithHash(path)
	if err != nil {
		t.Fatalf("starter config must load cleanly: %v", err)
	}
	want := DefaultConfig()
	if cfg.Policy != want.Policy {
		t.Errorf("policy = %q, want %q", cfg.Policy, want.Policy)
	}
	if cfg.AdditiveThresholds != want.AdditiveThresholds {
		t.Errorf("additive thresholds = %+v, want %+v", cfg.AdditiveThresholds, want.AdditiveThresholds)
	}
	if cfg.Ledger != want.Ledger {
		t.Errorf("ledger = %+v, want %+v", cfg.Ledger, want.Ledger)
	}
}

func TestLoadWithHashOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phiguard.yaml")
	body := `
policy: triage
triage_thresholds:
  review: 0.25
  block: 0.60
ledger:
  backend: sqlite
  path: audit.db
alerts:
  - url: https://hooks.example.com/x
    format: slack
    events: ["REJECTED"]
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, hash, err := LoadWithHash(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Policy != "triage" {
		t.Errorf("policy = %q", cfg.Policy)
	}
	if cfg.TriageThresholds.Review != 0.25 || cfg.TriageThresholds.Block != 0.60 {
		t.Errorf("thresholds = %+v", cfg.TriageThresholds)
	}
	if cfg.Ledger.Backend != "sqlite" || cfg.Ledger.Path != "audit.db" {
		t.Errorf("ledger = %+v", cfg.Ledger)
	}
	if len(cfg.Alerts) != 1 || cfg.Alerts[0].Format != "slack" {
		t.Errorf("alerts = %+v", cfg.Alerts)
	}
	// Overrides merge over defaults; untouched sections keep theirs.
	if cfg.AdditiveThresholds.MediumRiskMax != 8.0 {
		t.Errorf("defaults lost under partial override: %+v", cfg.AdditiveThresholds)
	}
	if !strings.HasPrefix(hash, "sha256:") {
		t.Errorf("config hash = %q", hash)
	}
}

func TestLoadWithHashStable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phiguard.yaml")
	if err := os.WriteFile(path, []byte("policy: additive\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, a, err := LoadWithHash(path)
	if err != nil {
		t.Fatal(err)
	}
	_, b, err := LoadWithHash(path)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("hash of unchanged file drifted")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, hash, err := LoadWithHash(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Policy != "additive" || hash != "" {
		t.Errorf("missing file: policy=%q hash=%q", cfg.Policy, hash)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		body string
	}{
		{"unknown_policy", "policy: hybrid\n"},
		{"unknown_backend", "ledger:\n  backend: dynamo\n"},
		{"inverted_additive", "additive_thresholds:\n  low_risk_max: 9\n  medium_risk_max: 2\n"},
		{"inverted_triage", "triage_thresholds:\n  review: 0.9\n  block: 0.1\n"},
		{"bad_yaml", "policy: [unclosed\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			if err := os.WriteFile(path, []byte(tt.body), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, _, err := LoadWithHash(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}
