package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phiguard/phiguard/internal/audit"
	"github.com/phiguard/phiguard/internal/ledger"
)

var verifyDataset string

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the hash chains of the audit ledger",
	Long: `Verify walks the configured ledger and checks every record's hash and
every chain's linkage. With --dataset only that dataset's chain is
checked; the sqlite backend requires --dataset.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadEngine()
		if err != nil {
			return err
		}

		if verifyDataset != "" {
			store, err := openLedger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			chain, err := store.Chain(cmd.Context(), verifyDataset)
			if err != nil {
				return err
			}
			if len(chain) == 0 {
				return fmt.Errorf("no records for dataset %s", verifyDataset)
			}
			if idx, err := ledger.VerifyChain(chain); err != nil {
				return fmt.Errorf("dataset %s: record %d: %w", verifyDataset, idx, err)
			}
			fmt.Printf("dataset %s: %d records verified\n", verifyDataset, len(chain))
			return nil
		}

		if cfg.Ledger.Backend != "file" && cfg.Ledger.Backend != "" {
			return fmt.Errorf("--dataset is required for the %s backend", cfg.Ledger.Backend)
		}
		records, err := ledger.ReadAll(cfg.Ledger.Path)
		if err != nil {
			return err
		}

		chains := make(map[string][]audit.AuditRecord)
		var order []string
		for _, rec := range records {
			if _, seen := chains[rec.DatasetFingerprint]; !seen {
				order = append(order, rec.DatasetFingerprint)
			}
			chains[rec.DatasetFingerprint] = append(chains[rec.DatasetFingerprint], rec)
		}

		for _, dataset := range order {
			chain := chains[dataset]
			if idx, err := ledger.VerifyChain(chain); err != nil {
				return fmt.Errorf("dataset %s: record %d: %w", dataset, idx, err)
			}
			fmt.Printf("dataset %s: %d records verified\n", dataset, len(chain))
		}
		fmt.Printf("%d records across %d datasets: ledger intact\n", len(records), len(order))
		return nil
	},
}

func init() {
	verifyCmd.Flags().StringVar(&verifyDataset, "dataset", "", "verify a single dataset chain")
	rootCmd.AddCommand(verifyCmd)
}
