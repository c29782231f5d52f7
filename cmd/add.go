package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	interrors "github.com/streed/smart-notes/internal/errors"
	"github.com/streed/smart-notes/internal/logger"
	"github.com/streed/smart-notes/internal/models"
	"github.com/streed/smart-notes/internal/services"
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new note",
	Long: `Add a new note. A summary, tags and an embedding are generated for it.

Content can be provided in several ways:
1. Via --content flag: smart-notes add -c "Content"
2. Via stdin: echo "Content" | smart-notes add
3. Via editor (default when a terminal is available): smart-notes add

Attach files with --file (repeatable) and links with --link, either a bare URL
or "Title=URL":
  smart-notes add -c "Trip plan" --file itinerary.pdf --link "Hotel=https://hotel.example.com"`,
	RunE: runAdd,
}

var (
	content    string
	useEditor  bool
	editorName string
	addFiles   []string
	addLinks   []string
)

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVarP(&content, "content", "c", "", "Note content")
	addCmd.Flags().StringArrayVarP(&addFiles, "file", "f", nil, "File to attach (repeatable)")
	addCmd.Flags().StringArrayVarP(&addLinks, "link", "l", nil, "Link to attach as URL or Title=URL (repeatable)")
	addCmd.Flags().BoolVarP(&useEditor, "editor", "e", false, "Use editor for content input")
	addCmd.Flags().StringVar(&editorName, "editor-cmd", "", "Specify editor to use (overrides $EDITOR)")
}

func runAdd(cmd *cobra.Command, args []string) error {
	defer db.Close()

	if content == "" {
		var err error
		content, err = readContent()
		if err != nil {
			return err
		}
	}
	if strings.TrimSpace(content) == "" {
		return interrors.ErrEmptyContent
	}

	uploads, closeAll, err := openUploads(addFiles)
	if err != nil {
		return err
	}
	defer closeAll()

	res, err := svc.Notes.Create(context.Background(), services.CreateInput{
		Content: content,
		Links:   parseLinks(addLinks),
		Files:   uploads,
	})
	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}

	note := res.Note
	fmt.Printf("Note created successfully!\n")
	fmt.Printf("ID: %d\n", note.ID)
	if summary := note.SummaryText(); summary != "" {
		fmt.Printf("Summary: %s\n", summary)
	}
	if len(note.Tags) > 0 {
		fmt.Printf("Tags: %s\n", strings.Join(note.Tags, ", "))
	}
	if len(note.Attachments) > 0 {
		fmt.Printf("Files: %d\n", len(note.Attachments))
	}
	fmt.Printf("Created: %s\n", note.CreatedAt.Format("2006-01-02 15:04:05"))
	printDegraded(res.Degraded)

	return nil
}

func printDegraded(steps []string) {
	if len(steps) > 0 {
		fmt.Printf("Warning: AI enrichment fell back for: %s\n", strings.Join(steps, ", "))
	}
}

// readContent takes the note body from stdin when piped, otherwise from an
// editor or an interactive prompt.
func readContent() (string, error) {
	stat, err := os.Stdin.Stat()
	isPiped := err == nil && (stat.Mode()&os.ModeCharDevice) == 0

	if isPiped {
		return readLines(), nil
	}

	if useEditor || isTerminalAvailable() {
		text, err := getContentFromEditor()
		if err == nil {
			return text, nil
		}
		if useEditor {
			return "", fmt.Errorf("failed to get content from editor: %w", err)
		}
		logger.Debug("Editor failed, falling back to stdin input: %v", err)
	}

	fmt.Println("Enter note content (press Ctrl+D when finished):")
	return readLines(), nil
}

func readLines() string {
	scanner := bufio.NewScanner(os.Stdin)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return strings.Join(lines, "\n")
}

// parseLinks turns "URL" or "Title=URL" flags into links.
func parseLinks(raw []string) []models.Link {
	links := make([]models.Link, 0, len(raw))
	for _, r := range raw {
		title, url, found := strings.Cut(r, "=")
		if !found || !strings.Contains(url, "://") {
			title, url = "", r
		}
		links = append(links, models.Link{Title: strings.TrimSpace(title), URL: strings.TrimSpace(url)})
	}
	return links
}

// openUploads opens each path for upload. The returned func closes them.
func openUploads(paths []string) ([]services.FileUpload, func(), error) {
	var opened []*os.File
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}

	uploads := make([]services.FileUpload, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("failed to open %s: %w", p, err)
		}
		opened = append(opened, f)

		mimeType, err := detectMimeType(f)
		if err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("failed to read %s: %w", p, err)
		}
		uploads = append(uploads, services.FileUpload{
			Name:     filepath.Base(p),
			MimeType: mimeType,
			Reader:   f,
		})
	}
	return uploads, closeAll, nil
}

// detectMimeType uses the extension and falls back to sniffing the first
// bytes. The file is rewound afterwards.
func detectMimeType(f *os.File) (string, error) {
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(f.Name()))); byExt != "" {
		return byExt, nil
	}

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(buf[:n]), nil
}

// getContentFromEditor opens an editor for the user to input content
func getContentFromEditor() (string, error) {
	tempFile, err := os.CreateTemp("", "smart-notes-new-*.md")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tempFile.Name())

	template := `[Write your note content here]

<!--
  Save and close the editor when done.
  To cancel, exit without saving.
-->`

	if _, err := tempFile.WriteString(template); err != nil {
		tempFile.Close()
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	tempFile.Close()

	if err := openEditor(tempFile.Name()); err != nil {
		return "", err
	}

	editedBytes, err := os.ReadFile(tempFile.Name())
	if err != nil {
		return "", fmt.Errorf("failed to read edited file: %w", err)
	}

	editedContent := string(editedBytes)
	if strings.Contains(editedContent, "[Write your note content here]") {
		return "", fmt.Errorf("no content provided (template unchanged)")
	}

	var contentLines []string
	inComment := false
	for _, line := range strings.Split(editedContent, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "<!--"):
			inComment = true
		case strings.HasPrefix(trimmed, "-->"):
			inComment = false
		case !inComment:
			contentLines = append(contentLines, line)
		}
	}

	return strings.TrimSpace(strings.Join(contentLines, "\n")), nil
}

// openEditor opens a file in the user's preferred editor
func openEditor(filename string) error {
	// --editor-cmd, then $EDITOR, then $VISUAL, then whatever is installed
	editorCmd := editorName
	if editorCmd == "" {
		editorCmd = os.Getenv("EDITOR")
	}
	if editorCmd == "" {
		editorCmd = os.Getenv("VISUAL")
	}
	if editorCmd == "" {
		for _, e := range []string{"vim", "vi", "nano", "emacs", "code", "subl"} {
			if _, err := exec.LookPath(e); err == nil {
				editorCmd = e
				break
			}
		}
	}
	if editorCmd == "" {
		return fmt.Errorf("no editor found. Set $EDITOR or use the --editor-cmd flag")
	}

	logger.Debug("Opening file in editor: %s %s", editorCmd, filename)

	// Handle editors that might have arguments (e.g., "code --wait")
	parts := strings.Fields(editorCmd)
	cmd := exec.Command(parts[0], append(parts[1:], filename)...)

	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to run editor %s: %w", editorCmd, err)
	}

	return nil
}

// isTerminalAvailable checks if we're running in an interactive terminal
func isTerminalAvailable() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}
