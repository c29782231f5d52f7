package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/streed/smart-notes/internal/logger"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [note IDs...]",
	Short: "Delete one or more notes",
	Long: `Delete notes by their IDs together with their uploaded files.

By default, you will be prompted for confirmation before deletion.
Use --force to skip the confirmation prompt.
Use --all to delete all notes (no IDs required).`,
	Args:    validateDeleteArgs,
	Aliases: []string{"rm", "remove"},
	RunE:    runDelete,
}

var (
	forceDelete bool
	deleteAll   bool
)

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().BoolVarP(&forceDelete, "force", "f", false, "Skip confirmation prompt")
	deleteCmd.Flags().BoolVar(&deleteAll, "all", false, "Delete all notes (use with caution!)")
}

func validateDeleteArgs(cmd *cobra.Command, args []string) error {
	allFlag, _ := cmd.Flags().GetBool("all")

	if allFlag {
		if len(args) > 0 {
			return fmt.Errorf("cannot specify note IDs when using --all flag")
		}
		return nil
	}

	if len(args) < 1 {
		return fmt.Errorf("requires at least one note ID (or use --all to delete all notes)")
	}
	return nil
}

func runDelete(_ *cobra.Command, args []string) error {
	defer db.Close()

	if deleteAll {
		return deleteAllNotes()
	}

	noteIDs := make([]int, 0, len(args))
	for _, arg := range args {
		id, err := parseNoteID(arg)
		if err != nil {
			return err
		}
		noteIDs = append(noteIDs, id)
	}

	fmt.Println("Notes to be deleted:")
	fmt.Println(strings.Repeat("-", 60))
	var existing []int
	for _, id := range noteIDs {
		note, err := svc.Notes.Get(id)
		if err != nil {
			fmt.Printf("  [%d] Not found\n", id)
			continue
		}
		fmt.Printf("  [%d] %s\n", note.ID, note.Preview(50))
		existing = append(existing, id)
	}
	fmt.Println(strings.Repeat("-", 60))

	if len(existing) == 0 {
		fmt.Println("No valid notes to delete.")
		return nil
	}

	if !forceDelete && !confirmDeletion(len(existing)) {
		fmt.Println("Deletion cancelled.")
		return nil
	}

	successCount, failCount := deleteNotes(existing)
	if failCount == 0 {
		if successCount == 1 {
			fmt.Println("Successfully deleted 1 note.")
		} else {
			fmt.Printf("Successfully deleted %d notes.\n", successCount)
		}
	} else {
		fmt.Printf("Deleted %d notes, failed to delete %d notes.\n", successCount, failCount)
	}
	return nil
}

func deleteNotes(ids []int) (successCount, failCount int) {
	for _, id := range ids {
		if err := svc.Notes.Delete(id); err != nil {
			logger.Error("Failed to delete note %d: %v", id, err)
			failCount++
			continue
		}
		successCount++
	}
	return successCount, failCount
}

func deleteAllNotes() error {
	allNotes, err := svc.Notes.ListAll()
	if err != nil {
		return fmt.Errorf("failed to get notes: %w", err)
	}

	noteCount := len(allNotes)
	if noteCount == 0 {
		fmt.Println("No notes to delete.")
		return nil
	}

	fmt.Printf("WARNING: This will delete ALL %d notes and their files!\n", noteCount)
	fmt.Println("This action cannot be undone.")
	fmt.Println(strings.Repeat("=", 60))

	if !forceDelete {
		fmt.Printf("Type 'DELETE ALL %d NOTES' to confirm: ", noteCount)
		reader := bufio.NewReader(os.Stdin)
		response, _ := reader.ReadString('\n')
		if strings.TrimSpace(response) != fmt.Sprintf("DELETE ALL %d NOTES", noteCount) {
			fmt.Println("Confirmation text did not match. Deletion cancelled.")
			return nil
		}
	} else if !confirmDeletion(noteCount) {
		// --force still asks once for --all
		fmt.Println("Deletion cancelled.")
		return nil
	}

	ids := make([]int, 0, noteCount)
	for _, n := range allNotes {
		ids = append(ids, n.ID)
	}
	successCount, failCount := deleteNotes(ids)

	fmt.Println(strings.Repeat("=", 60))
	if failCount == 0 {
		fmt.Printf("Successfully deleted all %d notes.\n", successCount)
	} else {
		fmt.Printf("Deleted %d notes, failed to delete %d notes.\n", successCount, failCount)
	}
	return nil
}

func confirmDeletion(count int) bool {
	prompt := fmt.Sprintf("Are you sure you want to delete %d notes? (y/N): ", count)
	if count == 1 {
		prompt = "Are you sure you want to delete this note? (y/N): "
	}

	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	response, _ := reader.ReadString('\n')
	return isYes(response)
}

func isYes(response string) bool {
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
