package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/phiguard/phiguard/internal/audit"
)

var (
	replayRecord  string
	replayAuditID string
	replayInput   string
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a stored audit record against the current engine",
	Long: `Replay re-executes the pipeline for a committed decision and verifies
that the rebuilt record reproduces the stored record hash. The record
comes from --record, or from the configured ledger via --audit-id; the
original resource is supplied with --input.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, engine, err := loadEngine()
		if err != nil {
			return err
		}

		var rec audit.AuditRecord
		switch {
		case replayRecord != "":
			raw, err := os.ReadFile(replayRecord)
			if err != nil {
				return fmt.Errorf("read record: %w", err)
			}
			if err := json.Unmarshal(raw, &rec); err != nil {
				return fmt.Errorf("parse record: %w", err)
			}
		case replayAuditID != "":
			store, err := openLedger(cfg)
			if err != nil {
				return err
			}
			found, err := store.Find(cmd.Context(), replayAuditID)
			_ = store.Close()
			if err != nil {
				return err
			}
			if found == nil {
				return fmt.Errorf("audit record %s not found in the %s ledger", replayAuditID, cfg.Ledger.Backend)
			}
			rec = *found
		default:
			return fmt.Errorf("one of --record or --audit-id is required")
		}

		input, err := os.ReadFile(replayInput)
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		var resource map[string]any
		if err := json.Unmarshal(input, &resource); err != nil {
			return fmt.Errorf("parse input: %w", err)
		}
		// Canonicalize so byte-level formatting of the supplied file
		// cannot fail the fingerprint check.
		canonical, err := audit.CanonicalJSON(resource)
		if err != nil {
			return err
		}

		verifier := audit.NewVerifier(audit.DefaultVersionRegistry(), engine)
		result, err := verifier.Replay(rec, canonical)
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayRecord, "record", "", "path to a stored audit record JSON")
	replayCmd.Flags().StringVar(&replayAuditID, "audit-id", "", "audit id to load from the configured ledger")
	replayCmd.Flags().StringVar(&replayInput, "input", "", "path to the original resource JSON")
	_ = replayCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(replayCmd)
}
