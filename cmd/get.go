package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	interrors "github.com/streed/smart-notes/internal/errors"
	"github.com/streed/smart-notes/internal/models"
)

var getCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Get a note by ID",
	Long:  `Display the full content of a note with its summary, tags, links and files.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
}

func parseNoteID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s", interrors.ErrInvalidNoteID, arg)
	}
	return id, nil
}

func runGet(_ *cobra.Command, args []string) error {
	defer db.Close()

	id, err := parseNoteID(args[0])
	if err != nil {
		return err
	}

	note, err := svc.Notes.Get(id)
	if err != nil {
		return fmt.Errorf("failed to get note: %w", err)
	}

	printNote(note)
	return nil
}

func printNote(note *models.Note) {
	rule := strings.Repeat("=", 80)
	fmt.Println(rule)
	fmt.Printf("ID: %d%s\n", note.ID, favoriteMark(note))
	fmt.Printf("Created: %s\n", note.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Updated: %s\n", note.UpdatedAt.Format("2006-01-02 15:04:05"))
	if len(note.Tags) > 0 {
		fmt.Printf("Tags: %s\n", strings.Join(note.Tags, ", "))
	}
	fmt.Println(rule)

	if summary := note.SummaryText(); summary != "" {
		fmt.Println("Summary:")
		fmt.Println(summary)
		fmt.Println(strings.Repeat("-", 80))
	}

	fmt.Println(note.Content)
	fmt.Println()

	if len(note.Links) > 0 {
		fmt.Println("Links:")
		for _, l := range note.Links {
			fmt.Printf("  - %s <%s>\n", l.Title, l.URL)
			if l.Description != "" {
				fmt.Printf("    %s\n", l.Description)
			}
		}
		fmt.Println()
	}

	if len(note.Attachments) > 0 {
		fmt.Println("Files:")
		for _, a := range note.Attachments {
			fmt.Printf("  - %s (%s, %d bytes) %s\n", a.OriginalName, a.MimeType, a.Size, a.Path)
			if a.Summary != "" {
				fmt.Printf("    %s\n", a.Summary)
			}
		}
		fmt.Println()
	}
}
