package cmd

import (
	"bufio"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/streed/smart-notes/internal/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database migration management",
	Long: `Inspect and manage the database schema migrations.

Migrations run automatically when any note command opens the database, so
'migrate run' is only needed after a rollback.`,
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status of database migrations",
	RunE:  showMigrationStatus,
}

var migrateRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run pending database migrations",
	RunE:  runMigrations,
}

var migrateRollbackCmd = &cobra.Command{
	Use:   "rollback [migration ID]",
	Short: "Revert one applied migration",
	Long: `Revert one applied migration. This drops the tables it created,
together with their data.`,
	Args: cobra.ExactArgs(1),
	RunE: rollbackMigration,
}

var forceRollback bool

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
	migrateCmd.AddCommand(migrateRunCmd)
	migrateCmd.AddCommand(migrateRollbackCmd)
	migrateRollbackCmd.Flags().BoolVarP(&forceRollback, "force", "f", false, "Skip confirmation prompt")
}

func showMigrationStatus(cmd *cobra.Command, args []string) error {
	defer db.Close()

	status, err := migrations.NewMigrationRunner(db.Conn()).GetMigrationStatus()
	if err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "MIGRATION ID\tSTATUS\tDESCRIPTION\n")
	fmt.Fprintf(w, "------------\t------\t-----------\n")

	appliedCount := 0
	for _, m := range status {
		statusText := "PENDING"
		if m.Applied {
			statusText = "APPLIED"
			appliedCount++
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", m.ID, statusText, m.Description)
	}
	w.Flush()

	fmt.Printf("\nTotal migrations: %d\n", len(status))
	fmt.Printf("Applied: %d\n", appliedCount)
	fmt.Printf("Pending: %d\n", len(status)-appliedCount)
	fmt.Printf("sqlite-vec: %s\n", db.VecVersion())
	return nil
}

func runMigrations(cmd *cobra.Command, args []string) error {
	defer db.Close()

	if err := migrations.NewMigrationRunner(db.Conn()).RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	fmt.Println("Migration run completed successfully!")
	return nil
}

func rollbackMigration(cmd *cobra.Command, args []string) error {
	defer db.Close()

	if !forceRollback {
		fmt.Printf("Rolling back %s drops its tables and their data. Continue? (y/N): ", args[0])
		response, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if !isYes(response) {
			fmt.Println("Rollback cancelled.")
			return nil
		}
	}

	if err := migrations.NewMigrationRunner(db.Conn()).RollbackMigration(args[0]); err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}

	fmt.Printf("Rolled back %s. Run 'smart-notes migrate run' to apply it again.\n", args[0])
	return nil
}
