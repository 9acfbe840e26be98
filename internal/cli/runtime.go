package cli

import (
	"fmt"

	"github.com/phiguard/phiguard/internal/config"
	"github.com/phiguard/phiguard/internal/controls"
	"github.com/phiguard/phiguard/internal/decision"
	"github.com/phiguard/phiguard/internal/jurisdiction"
	"github.com/phiguard/phiguard/internal/ledger"
	"github.com/phiguard/phiguard/internal/pipeline"
)

// loadEngine builds a pipeline engine from the config file (or the
// defaults when none is given). The config file hash is pinned into
// every record the engine produces.
func loadEngine() (config.Config, *pipeline.Engine, error) {
	cfg, hash, err := config.LoadWithHash(cfgPath)
	if err != nil {
		return cfg, nil, err
	}

	var snapshot *jurisdiction.Snapshot
	if cfg.SnapshotPath != "" {
		snapshot, err = jurisdiction.LoadSnapshot(cfg.SnapshotPath)
		if err != nil {
			return cfg, nil, err
		}
	}

	policy, err := policyFor(cfg)
	if err != nil {
		return cfg, nil, err
	}

	engine, err := pipeline.New(pipeline.Options{
		Snapshot:              snapshot,
		Suppressor:            controls.NewSuppressor(controls.NewAllowlist(cfg.AllowlistTerms), controls.DefaultPredicates()),
		Policy:                policy,
		PolicySnapshotVersion: cfg.PolicySnapshotVersion,
		PolicyConfigHash:      hash,
	})
	if err != nil {
		return cfg, nil, err
	}
	return cfg, engine, nil
}

// policyFor instantiates the configured decision policy with the
// configured thresholds, not the built-in defaults.
func policyFor(cfg config.Config) (decision.Policy, error) {
	switch cfg.Policy {
	case decision.PolicyAdditive, "":
		return decision.NewAdditivePolicy(cfg.AdditiveThresholds), nil
	case decision.PolicyTriage:
		return decision.NewTriagePolicy(cfg.TriageThresholds), nil
	}
	return nil, fmt.Errorf("cli: unknown policy %q", cfg.Policy)
}

// openLedger opens the configured audit store backend.
func openLedger(cfg config.Config) (ledger.Ledger, error) {
	switch cfg.Ledger.Backend {
	case "file", "":
		return ledger.OpenFile(cfg.Ledger.Path)
	case "sqlite":
		return ledger.OpenSQLite(cfg.Ledger.Path)
	case "memory":
		return ledger.NewMemory(), nil
	}
	return nil, fmt.Errorf("cli: unknown ledger backend %q", cfg.Ledger.Backend)
}
