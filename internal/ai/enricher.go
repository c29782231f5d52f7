package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/streed/smart-notes/internal/constants"
	interrors "github.com/streed/smart-notes/internal/errors"
	"github.com/streed/smart-notes/internal/logger"
)

// Fallback text stored when the provider cannot produce a summary.
const (
	SummaryUnavailable = "Summary could not be generated."
	SummaryFailed      = "An error occurred while generating the summary."
)

const (
	summarySystem  = "You summarise text concisely. Summarise the key points in 2-3 sentences, in the same language as the text."
	fileSystem     = "Briefly summarise the content of the file. Explain only the key point in one sentence."
	linkSystem     = "Given a URL, describe in one sentence what the linked page is likely about."
	linkNoDescribe = "Could not describe this link."
)

var tagsSystem = fmt.Sprintf("Extract the key topics of the text as %d-%d short tags. Reply with the tags only, separated by commas, in the same language as the text.",
	constants.MinTags, constants.MaxTags)

// Enricher applies the enrichment policies on top of a Provider. Every
// method returns an Outcome and never an error, so a failing provider
// never blocks a note from being saved.
type Enricher struct {
	provider Provider
}

func NewEnricher(p Provider) *Enricher {
	return &Enricher{provider: p}
}

func (e *Enricher) ProviderName() string {
	return e.provider.Name()
}

// Summarize returns a 2-3 sentence summary of the content.
func (e *Enricher) Summarize(ctx context.Context, content string) Outcome[string] {
	text, err := e.provider.Generate(ctx, Prompt{
		System:      summarySystem,
		User:        "Summarise the following:\n\n" + content,
		MaxTokens:   constants.SummaryMaxTokens,
		Temperature: constants.Temperature,
	})
	if err != nil {
		logger.Warn("Summary generation failed: %v", err)
		return degraded(SummaryFailed, err)
	}
	if text == "" {
		return degraded(SummaryUnavailable, interrors.ErrEmptyCompletion)
	}
	return ok(text)
}

// Tags returns up to five tags for the content, or none on failure.
func (e *Enricher) Tags(ctx context.Context, content string) Outcome[[]string] {
	text, err := e.provider.Generate(ctx, Prompt{
		System:      tagsSystem,
		User:        "Extract tags from the following:\n\n" + content,
		MaxTokens:   constants.TagsMaxTokens,
		Temperature: constants.Temperature,
	})
	if err != nil {
		logger.Warn("Tag generation failed: %v", err)
		return degraded([]string{}, err)
	}
	return ok(ParseTags(text))
}

// FileSummary summarises extracted file text. Files with no text get a
// generic description naming the file.
func (e *Enricher) FileSummary(ctx context.Context, name, text string) Outcome[string] {
	fallback := FileFallback(name)
	if strings.TrimSpace(text) == "" {
		return ok(fallback)
	}

	summary, err := e.provider.Generate(ctx, Prompt{
		System:      fileSystem,
		User:        fmt.Sprintf("File name: %s\n\nContent:\n%s", name, Truncate(text, constants.FileSummaryInputLimit)),
		MaxTokens:   constants.FileSummaryMaxTokens,
		Temperature: constants.Temperature,
	})
	if err != nil {
		logger.Warn("File summary for %s failed: %v", name, err)
		return degraded(fallback, err)
	}
	if summary == "" {
		return degraded(fallback, interrors.ErrEmptyCompletion)
	}
	return ok(summary)
}

// DescribeLink returns a one sentence guess at what a URL points to.
func (e *Enricher) DescribeLink(ctx context.Context, url string) Outcome[string] {
	text, err := e.provider.Generate(ctx, Prompt{
		System:      linkSystem,
		User:        "Describe this link: " + url,
		MaxTokens:   constants.LinkMaxTokens,
		Temperature: constants.Temperature,
	})
	if err != nil {
		logger.Warn("Link description for %s failed: %v", url, err)
		return degraded("", err)
	}
	if text == "" {
		return degraded(linkNoDescribe, interrors.ErrEmptyCompletion)
	}
	return ok(text)
}

// Embed returns the embedding of text, or a nil vector when the provider
// fails or returns nothing.
func (e *Enricher) Embed(ctx context.Context, text string) Outcome[[]float64] {
	v, err := e.provider.Embed(ctx, text)
	if err != nil {
		logger.Warn("Embedding failed: %v", err)
		return degraded[[]float64](nil, err)
	}
	if len(v) == 0 {
		return degraded[[]float64](nil, interrors.ErrEmptyCompletion)
	}
	return ok(v)
}

// FileFallback is the description used for files that cannot be summarised.
func FileFallback(name string) string {
	return name + " file."
}

// ParseTags splits a comma separated answer into trimmed, unique tags and
// keeps at most MaxTags of them.
func ParseTags(answer string) []string {
	answer = strings.ReplaceAll(answer, "\n", ",")
	seen := make(map[string]bool)
	tags := []string{}
	for _, raw := range strings.Split(answer, ",") {
		tag := strings.Trim(strings.TrimSpace(raw), `"'#*-•`)
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[strings.ToLower(tag)] {
			continue
		}
		seen[strings.ToLower(tag)] = true
		tags = append(tags, tag)
		if len(tags) == constants.MaxTags {
			break
		}
	}
	return tags
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
