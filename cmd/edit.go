package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/streed/smart-notes/internal/models"
	"github.com/streed/smart-notes/internal/services"
)

var editCmd = &cobra.Command{
	Use:   "edit [id]",
	Short: "Edit a note",
	Long: `Edit a note's content, links or files. The note is re-embedded afterwards.

Without --content, --file, --link, --clear-links or --drop-file the content is
opened in your editor. Changing the content regenerates the summary and tags.

Examples:
  smart-notes edit 3                          # Edit the content in $EDITOR
  smart-notes edit 3 -c "New content"         # Replace the content
  smart-notes edit 3 --file notes.pdf         # Attach another file
  smart-notes edit 3 --drop-file notes.pdf    # Remove an attached file
  smart-notes edit 3 --link https://go.dev    # Replace the links`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

var (
	editContent    string
	editFiles      []string
	editLinks      []string
	editDropFiles  []string
	editClearLinks bool
)

func init() {
	rootCmd.AddCommand(editCmd)
	editCmd.Flags().StringVarP(&editContent, "content", "c", "", "New note content")
	editCmd.Flags().StringArrayVarP(&editFiles, "file", "f", nil, "File to attach (repeatable)")
	editCmd.Flags().StringArrayVarP(&editLinks, "link", "l", nil, "Replace the links with URL or Title=URL (repeatable)")
	editCmd.Flags().StringArrayVar(&editDropFiles, "drop-file", nil, "Attached file to remove, by original or stored name (repeatable)")
	editCmd.Flags().BoolVar(&editClearLinks, "clear-links", false, "Remove all links")
	editCmd.Flags().StringVar(&editorName, "editor-cmd", "", "Specify editor to use (overrides $EDITOR)")
}

func runEdit(cmd *cobra.Command, args []string) error {
	defer db.Close()

	id, err := parseNoteID(args[0])
	if err != nil {
		return err
	}

	note, err := svc.Notes.Get(id)
	if err != nil {
		return fmt.Errorf("failed to get note: %w", err)
	}

	var in services.UpdateInput

	switch {
	case cmd.Flags().Changed("content"):
		in.Content = &editContent
	case len(editFiles) == 0 && len(editLinks) == 0 && len(editDropFiles) == 0 && !editClearLinks:
		edited, err := editInEditor(note.Content)
		if err != nil {
			return err
		}
		if edited == note.Content {
			fmt.Println("No changes made.")
			return nil
		}
		in.Content = &edited
	}

	if editClearLinks || len(editLinks) > 0 {
		links := parseLinks(editLinks)
		in.Links = &links
	}

	if len(editDropFiles) > 0 {
		keep, err := keptFilenames(note.Attachments, editDropFiles)
		if err != nil {
			return err
		}
		in.KeepFiles = &keep
	}

	uploads, closeAll, err := openUploads(editFiles)
	if err != nil {
		return err
	}
	defer closeAll()
	in.Files = uploads

	res, err := svc.Notes.Update(context.Background(), id, in)
	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}

	fmt.Printf("Note %d updated successfully!\n", res.Note.ID)
	if in.Content != nil {
		if summary := res.Note.SummaryText(); summary != "" {
			fmt.Printf("Summary: %s\n", summary)
		}
		if len(res.Note.Tags) > 0 {
			fmt.Printf("Tags: %s\n", strings.Join(res.Note.Tags, ", "))
		}
	}
	fmt.Printf("Files: %d  Links: %d\n", len(res.Note.Attachments), len(res.Note.Links))
	printDegraded(res.Degraded)
	return nil
}

// keptFilenames returns the stored names of the attachments not named in drop.
func keptFilenames(attachments []models.Attachment, drop []string) ([]string, error) {
	dropped := make(map[string]bool, len(drop))
	for _, name := range drop {
		found := false
		for _, a := range attachments {
			if a.Filename == name || a.OriginalName == name {
				dropped[a.Filename] = true
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("note has no attached file named %q", name)
		}
	}

	keep := make([]string, 0, len(attachments))
	for _, a := range attachments {
		if !dropped[a.Filename] {
			keep = append(keep, a.Filename)
		}
	}
	return keep, nil
}

func editInEditor(current string) (string, error) {
	tempFile, err := os.CreateTemp("", "smart-notes-edit-*.md")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tempFile.Name())

	if _, err := tempFile.WriteString(current); err != nil {
		tempFile.Close()
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	tempFile.Close()

	if err := openEditor(tempFile.Name()); err != nil {
		return "", err
	}

	edited, err := os.ReadFile(tempFile.Name())
	if err != nil {
		return "", fmt.Errorf("failed to read edited file: %w", err)
	}
	return strings.TrimSpace(string(edited)), nil
}
