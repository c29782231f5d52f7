package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/streed/smart-notes/internal/constants"
	"github.com/streed/smart-notes/internal/models"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes",
	Long:  `List notes newest first with their ID, tags, creation date and a preview.`,
	RunE:  runList,
}

var (
	listLimit     int
	listOffset    int
	listShort     bool
	listFavorites bool
)

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().IntVarP(&listLimit, "limit", "l", constants.DefaultListLimit, "Maximum number of notes to display (0 for all)")
	listCmd.Flags().IntVarP(&listOffset, "offset", "o", 0, "Number of notes to skip")
	listCmd.Flags().BoolVarP(&listShort, "short", "s", false, "Show only ID and preview")
	listCmd.Flags().BoolVar(&listFavorites, "favorites", false, "Show only favorite notes")
}

func runList(cmd *cobra.Command, args []string) error {
	defer db.Close()

	notes, err := svc.Notes.List(listLimit, listOffset)
	if err != nil {
		return fmt.Errorf("failed to list notes: %w", err)
	}

	if listFavorites {
		notes = favoritesOnly(notes)
	}

	if len(notes) == 0 {
		fmt.Println("No notes found.")
		return nil
	}

	fmt.Printf("Found %d notes:\n\n", len(notes))
	for _, note := range notes {
		if listShort {
			fmt.Printf("[%d]%s %s\n", note.ID, favoriteMark(note), note.Preview(60))
			continue
		}
		printNoteSummary(note)
	}

	return nil
}

func favoritesOnly(notes []*models.Note) []*models.Note {
	out := notes[:0]
	for _, n := range notes {
		if n.Favorite {
			out = append(out, n)
		}
	}
	return out
}

func favoriteMark(note *models.Note) string {
	if note.Favorite {
		return " *"
	}
	return ""
}

// printNoteSummary prints the block used by list and search.
func printNoteSummary(note *models.Note) {
	fmt.Printf("ID: %d%s\n", note.ID, favoriteMark(note))
	fmt.Printf("Created: %s\n", formatTime(note.CreatedAt))
	if len(note.Tags) > 0 {
		fmt.Printf("Tags: %s\n", strings.Join(note.Tags, ", "))
	}
	preview := strings.ReplaceAll(note.Preview(constants.PreviewLength), "\n", " ")
	fmt.Printf("Preview: %s\n", preview)
	if len(note.Attachments) > 0 || len(note.Links) > 0 {
		fmt.Printf("Files: %d  Links: %d\n", len(note.Attachments), len(note.Links))
	}
	fmt.Println(strings.Repeat("-", 60))
}

func formatTime(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		minutes := int(diff.Minutes())
		if minutes == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", minutes)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("2006-01-02 15:04")
	}
}
