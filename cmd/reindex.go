package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Recompute the embedding of every note",
	Long: `Recompute every note's embedding from its content, summary and file summaries
using the configured provider and embedding model.

Run this after changing the provider or the embedding model: vectors from
different models are not comparable, so semantic search skips notes whose
embedding length does not match the query.`,
	RunE: runReindex,
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}

func runReindex(cmd *cobra.Command, args []string) error {
	defer db.Close()

	fmt.Printf("Reindexing notes with:\n")
	fmt.Printf("  Provider: %s\n", appConfig.Provider)
	fmt.Printf("  Model:    %s\n", appConfig.EmbeddingModel)
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	embedded, failed, err := svc.Notes.Reindex(ctx)
	if err != nil {
		return fmt.Errorf("reindex stopped after %d notes: %w", embedded+failed, err)
	}

	if embedded+failed == 0 {
		fmt.Println("No notes to reindex.")
		return nil
	}

	fmt.Printf("Reindexing complete: %d/%d notes embedded.\n", embedded, embedded+failed)
	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d notes have no embedding; check that the provider is reachable and run reindex again.\n", failed)
	}
	return nil
}
