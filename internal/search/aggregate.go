package search

import (
	"strings"

	"github.com/streed/smart-notes/internal/models"
)

// CombineText builds the text that is embedded for a note: the content,
// then the summary, then each file summary in attachment order, joined by
// newlines. Empty parts are skipped. Nothing is deduplicated or truncated.
func CombineText(content string, summary *string, fileSummaries []string) string {
	var b strings.Builder
	b.WriteString(content)
	if summary != nil && *summary != "" {
		b.WriteString("\n")
		b.WriteString(*summary)
	}
	for _, fs := range fileSummaries {
		if fs == "" {
			continue
		}
		b.WriteString("\n")
		b.WriteString(fs)
	}
	return b.String()
}

// SearchableText returns CombineText for a stored note.
func SearchableText(note *models.Note) string {
	return CombineText(note.Content, note.Summary, note.FileSummaries())
}
