package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hippocampus-io/secload/store"
)

// DbCmd groups data-lake database operations.
var DbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the data lake database",
	Long: `Manage data lake database operations.

Examples:
  secload db stats    # Row counts and update bounds per lake table`,
}

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show row counts and update-timestamp bounds per lake table",
	RunE:  runDbStats,
}

func init() {
	DbCmd.AddCommand(dbStatsCmd)
}

func runDbStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := openLake(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Printf("Data Lake Statistics\n")
	fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")
	fmt.Printf("Database Path: %s\n\n", cfg.Database.Path)

	for _, table := range []string{store.FactTable, store.SubmissionTable} {
		lake := store.NewDataLake(db, table, nil)
		stats, err := lake.TableStats(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("%s:\n", stats.Table)
		fmt.Printf("  Rows:         %d\n", stats.Rows)
		if stats.FirstUpdate.Valid {
			fmt.Printf("  First Update: %s\n", stats.FirstUpdate.String)
			fmt.Printf("  Last Update:  %s\n", stats.LastUpdate.String)
		}
		fmt.Println()
	}

	return nil
}
