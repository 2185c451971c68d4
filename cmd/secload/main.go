package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hippocampus-io/secload/cmd/secload/commands"
	"github.com/hippocampus-io/secload/logger"
)

var (
	jsonFlag    bool
	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "secload",
	Short: "secload - bulk load SEC EDGAR JSON archives into a SQLite data lake",
	Long: `secload - bulk load SEC EDGAR JSON archives into a SQLite data lake.

secload ingests the companyfacts and submissions bulk archives: it scans a
source directory, skips entities already loaded, merges multi-part
submission documents, and writes large idempotent upsert batches while
sampling throughput and resource metrics into a per-run HTML report.

Available commands:
  run          - Load company facts, then submissions, then render reports
  facts        - Load only the company facts archive
  submissions  - Load only the submissions archive
  db           - Data lake statistics and diagnostics
  version      - Show build information

Examples:
  secload run                        # Full end-to-end load
  secload facts --report=false       # Facts only, skip the report
  secload db stats                   # Row counts per lake table`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.Initialize(jsonFlag); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		if verboseFlag && !jsonFlag {
			return logger.SetVerbose()
		}
		return nil
	},
}

func main() {
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "Emit JSON log lines")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(commands.RunCmd)
	rootCmd.AddCommand(commands.FactsCmd)
	rootCmd.AddCommand(commands.SubmissionsCmd)
	rootCmd.AddCommand(commands.DbCmd)
	rootCmd.AddCommand(commands.VersionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
