package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var favoriteCmd = &cobra.Command{
	Use:     "favorite [id]",
	Short:   "Toggle the favorite flag of a note",
	Aliases: []string{"fav"},
	Args:    cobra.ExactArgs(1),
	RunE:    runFavorite,
}

func init() {
	rootCmd.AddCommand(favoriteCmd)
}

func runFavorite(_ *cobra.Command, args []string) error {
	defer db.Close()

	id, err := parseNoteID(args[0])
	if err != nil {
		return err
	}

	note, err := svc.Notes.ToggleFavorite(id)
	if err != nil {
		return fmt.Errorf("failed to toggle favorite: %w", err)
	}

	if note.Favorite {
		fmt.Printf("Note %d is now a favorite.\n", note.ID)
	} else {
		fmt.Printf("Note %d is no longer a favorite.\n", note.ID)
	}
	return nil
}
