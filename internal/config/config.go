// Package config loads engine configuration with hash pinning for
// audit provenance.
package config

import (
	"crypto/sha256"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/phiguard/phiguard/internal/alert"
	"github.com/phiguard/phiguard/internal/decision"
)

// LedgerConfig selects the audit store backend.
type LedgerConfig struct {
	Backend string `yaml:"backend"` // "file", "sqlite", "memory"
	Path    string `yaml:"path"`
}

// DaemonConfig configures the inbox evaluation daemon.
type DaemonConfig struct {
	Inbox  string `yaml:"inbox"`
	Outbox string `yaml:"outbox"`
	// Poll switches to directory polling where fsnotify cannot watch
	// (NFS mounts).
	Poll bool `yaml:"poll"`
}

// Config is the complete engine configuration.
type Config struct {
	Policy                string                      `yaml:"policy"`
	AdditiveThresholds    decision.AdditiveThresholds `yaml:"additive_thresholds"`
	TriageThresholds      decision.TriageThresholds   `yaml:"triage_thresholds"`
	SnapshotPath          string                      `yaml:"snapshot_path"`
	PolicySnapshotVersion string                      `yaml:"policy_snapshot_version"`
	AllowlistTerms        []string                    `yaml:"allowlist_terms"`
	Ledger                LedgerConfig                `yaml:"ledger"`
	Alerts                []alert.AlertConfig         `yaml:"alerts"`
	Daemon                DaemonConfig                `yaml:"daemon"`
}

// DefaultConfig returns the baseline configuration. A missing config
// file is not an error; a present but unreadable one is.
func DefaultConfig() Config {
	return Config{
		Policy:                decision.PolicyAdditive,
		AdditiveThresholds:    decision.DefaultAdditiveThresholds(),
		TriageThresholds:      decision.DefaultTriageThresholds(),
		PolicySnapshotVersion: "2025.1-builtin",
		Ledger: LedgerConfig{
			Backend: "file",
			Path:    "phiguard-audit.jsonl",
		},
		Daemon: DaemonConfig{
			Inbox:  "inbox",
			Outbox: "outbox",
		},
	}
}

// DefaultConfigYAML renders a commented starter config file.
func DefaultConfigYAML() string {
	return `# phiguard engine configuration.
#
# policy: "additive" (severity-weighted sum) or "triage"
# (confidence-weighted max component).
policy: additive

additive_thresholds:
  low_risk_max: 3.0
  medium_risk_max: 8.0

triage_thresholds:
  review: 0.30
  block: 0.65

# Path to a regulation snapshot JSON. Empty uses the built-in snapshot.
snapshot_path: ""
policy_snapshot_version: "2025.1-builtin"

# Terms that mark a detection as a known safe usage.
allowlist_terms: []

ledger:
  backend: file # file, sqlite, memory
  path: phiguard-audit.jsonl

# Webhook alerts on decision outcomes.
# alerts:
#   - url: https://hooks.example.com/phiguard
#     format: generic # generic, slack, pagerduty
#     events: ["REJECTED", "NEEDS_REVIEW"]

daemon:
  inbox: inbox
  outbox: outbox
  poll: false
`
}

// Load reads the config file at path over the defaults.
func Load(path string) (Config, error) {
	cfg, _, err := LoadWithHash(path)
	return cfg, err
}

// LoadWithHash reads the config file and returns the digest of its
// raw bytes, pinned into audit records so replay can detect config
// drift. Loading defaults (no file) yields an empty hash.
func LoadWithHash(path string) (Config, string, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, "", nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, "", nil
		}
		return cfg, "", fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, "", fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := validate(cfg); err != nil {
		return cfg, "", err
	}
	sum := sha256.Sum256(raw)
	return cfg, fmt.Sprintf("sha256:%x", sum), nil
}

func validate(cfg Config) error {
	if _, ok := decision.ByName(cfg.Policy); !ok {
		return fmt.Errorf("config: unknown policy %q", cfg.Policy)
	}
	switch cfg.Ledger.Backend {
	case "file", "sqlite", "memory", "":
	default:
		return fmt.Errorf("config: unknown ledger backend %q", cfg.Ledger.Backend)
	}
	if cfg.AdditiveThresholds.LowRiskMax > cfg.AdditiveThresholds.MediumRiskMax {
		return fmt.Errorf("config: low_risk_max %v exceeds medium_risk_max %v",
			cfg.AdditiveThresholds.LowRiskMax, cfg.AdditiveThresholds.MediumRiskMax)
	}
	if cfg.TriageThresholds.Review > cfg.TriageThresholds.Block {
		return fmt.Errorf("config: review threshold %v exceeds block threshold %v",
			cfg.TriageThresholds.Review, cfg.TriageThresholds.Block)
	}
	return nil
}
