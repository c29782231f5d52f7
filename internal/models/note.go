package models

import (
	"strings"
	"time"
)

// Note is a user note together with its AI enrichment.
type Note struct {
	ID          int          `json:"id"`
	Content     string       `json:"content"`
	Summary     *string      `json:"summary"`
	Tags        []string     `json:"tags"`
	Links       []Link       `json:"links"`
	Attachments []Attachment `json:"files"`
	Favorite    bool         `json:"favorite"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`

	// Embedding is nil when no vector was produced. It is replaced as a
	// whole whenever the searchable text changes.
	Embedding []float64 `json:"-"`
	// EmbeddingErr is set when the stored vector could not be decoded.
	EmbeddingErr error `json:"-"`
}

// Attachment is an uploaded file belonging to a note.
type Attachment struct {
	ID           int    `json:"id,omitempty"`
	OriginalName string `json:"originalName"`
	Filename     string `json:"filename"`
	MimeType     string `json:"mimetype"`
	Size         int64  `json:"size"`
	Path         string `json:"path"`
	// Summary is empty for images and for files that could not be summarised.
	Summary string `json:"summary,omitempty"`
}

// Link is a URL attached to a note.
type Link struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// SearchResult is a note scored against a query.
type SearchResult struct {
	*Note
	Score      float64 `json:"-"`
	Similarity string  `json:"similarity"`
}

// SummaryText returns the summary or "" when none was produced.
func (n *Note) SummaryText() string {
	if n.Summary == nil {
		return ""
	}
	return *n.Summary
}

// FileSummaries returns the attachment summaries in attachment order.
func (n *Note) FileSummaries() []string {
	out := make([]string, 0, len(n.Attachments))
	for _, a := range n.Attachments {
		out = append(out, a.Summary)
	}
	return out
}

func (n *Note) HasEmbedding() bool {
	return len(n.Embedding) > 0
}

// contains reports whether lowerQuery occurs in the content, summary or a
// tag, compared case-insensitively. lowerQuery must already be lower case.
func (n *Note) contains(lowerQuery string) bool {
	if strings.Contains(strings.ToLower(n.Content), lowerQuery) ||
		strings.Contains(strings.ToLower(n.SummaryText()), lowerQuery) {
		return true
	}
	for _, tag := range n.Tags {
		if strings.Contains(strings.ToLower(tag), lowerQuery) {
			return true
		}
	}
	return false
}

// Preview returns the first line of the content, cut to maxLen runes.
func (n *Note) Preview(maxLen int) string {
	line := strings.TrimSpace(n.Content)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	runes := []rune(line)
	if len(runes) > maxLen {
		return string(runes[:maxLen]) + "..."
	}
	return line
}

// StringPtr returns nil for the empty string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
