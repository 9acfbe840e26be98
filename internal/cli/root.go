// Package cli implements the phiguard command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/phiguard/phiguard/internal/integrity"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "phiguard",
	Short: "Cross-border health data transfer governance engine",
	Long: `phiguard evaluates health record transfers against the data protection
regulations of every jurisdiction they touch, scores the residual risk,
and commits each decision to a hash-chained, replayable audit ledger.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := integrity.Verify(); err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
			os.Exit(78) // EX_CONFIG
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config YAML (defaults apply when absent)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
