package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/phiguard/phiguard/internal/audit"
	"github.com/phiguard/phiguard/internal/daemon"
	"github.com/phiguard/phiguard/internal/pipeline"
)

var evaluateDryRun bool

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <request.json>",
	Short: "Evaluate one transfer request and commit the decision",
	Long: `Evaluate reads a transfer request file, runs the full pipeline, appends
the audit record to the configured ledger, and prints the sealed record.
With --dry-run the ledger is left untouched and the record is unchained.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, engine, err := loadEngine()
		if err != nil {
			return err
		}

		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read request: %w", err)
		}
		var req daemon.TransferRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return fmt.Errorf("parse request: %w", err)
		}

		input, err := audit.CanonicalJSON(req.Resource)
		if err != nil {
			return fmt.Errorf("serialize resource: %w", err)
		}
		dataset := audit.Fingerprint(input)

		ctx := cmd.Context()
		preq := pipeline.Request{
			Context:            req.Context,
			Resource:           req.Resource,
			RawInput:           input,
			DetectorFindings:   req.DetectorFindings,
			DetectorMethods:    req.DetectorMethods,
			Purpose:            req.Purpose,
			Provenance:         req.Provenance,
			Human:              req.Human,
			DatasetFingerprint: dataset,
		}

		if evaluateDryRun {
			res, err := engine.Evaluate(ctx, preq)
			if err != nil {
				return err
			}
			return printRecord(res.Record)
		}

		store, err := openLedger(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		tail, err := store.Tail(ctx, dataset)
		if err != nil {
			return err
		}
		if tail != nil {
			preq.PreviousRecordHash = tail.RecordHash
		}

		res, err := engine.Evaluate(ctx, preq)
		if err != nil {
			return err
		}
		// Fail closed: a decision that cannot be committed is void.
		if err := store.Append(ctx, res.Record); err != nil {
			return err
		}
		return printRecord(res.Record)
	},
}

func printRecord(rec audit.AuditRecord) error {
	out, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func init() {
	evaluateCmd.Flags().BoolVar(&evaluateDryRun, "dry-run", false, "evaluate without committing to the ledger")
	rootCmd.AddCommand(evaluateCmd)
}
