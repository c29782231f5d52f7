package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/streed/smart-notes/internal/models"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search notes",
	Long: `Search notes by keyword or by meaning.

Keyword search matches the query against content, summaries and tags.
Semantic search (--semantic) embeds the query and returns the five notes
closest in meaning, each with its cosine similarity.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

var (
	searchLimit    int
	searchSemantic bool
	searchShort    bool
)

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", 10, "Maximum number of keyword results (0 for all)")
	searchCmd.Flags().BoolVarP(&searchSemantic, "semantic", "v", false, "Rank notes by embedding similarity")
	searchCmd.Flags().BoolVarP(&searchShort, "short", "s", false, "Show only ID and preview")
}

func runSearch(_ *cobra.Command, args []string) error {
	defer db.Close()

	query := strings.Join(args, " ")
	if searchSemantic {
		return semanticSearch(query)
	}

	fmt.Printf("Performing keyword search for: %s\n\n", query)
	notes, err := svc.Search.Keyword(query)
	if err != nil {
		return fmt.Errorf("keyword search failed: %w", err)
	}
	if searchLimit > 0 && len(notes) > searchLimit {
		notes = notes[:searchLimit]
	}

	if len(notes) == 0 {
		fmt.Println("No matching notes found.")
		return nil
	}
	if len(notes) == 1 {
		fmt.Println("Found 1 matching note:")
	} else {
		fmt.Printf("Found %d matching notes:\n", len(notes))
	}
	fmt.Println()

	for _, note := range notes {
		printSearchHit(note, "")
	}
	return nil
}

func semanticSearch(query string) error {
	fmt.Printf("Performing semantic search for: %s\n\n", query)
	results, err := svc.Search.Semantic(context.Background(), query)
	if err != nil {
		return fmt.Errorf("semantic search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No notes with embeddings found.")
		return nil
	}
	fmt.Printf("Top %d notes by similarity:\n\n", len(results))

	for i, r := range results {
		if !searchShort {
			fmt.Printf("Match %d:\n", i+1)
		}
		printSearchHit(r.Note, r.Similarity)
	}
	return nil
}

func printSearchHit(note *models.Note, similarity string) {
	if searchShort {
		if similarity != "" {
			fmt.Printf("[%d] (%s) %s\n", note.ID, similarity, note.Preview(60))
		} else {
			fmt.Printf("[%d] %s\n", note.ID, note.Preview(60))
		}
		return
	}
	if similarity != "" {
		fmt.Printf("Similarity: %s\n", similarity)
	}
	printNoteSummary(note)
}
