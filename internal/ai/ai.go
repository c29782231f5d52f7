// Package ai wraps the language-model providers used to enrich notes.
//
// A Provider knows how to embed text and how to complete a prompt. The
// Enricher on top of it turns those primitives into note summaries, tags,
// file and link descriptions, applying the fallback rules for each one.
package ai

import (
	"context"
	"fmt"

	"github.com/streed/smart-notes/internal/config"
	interrors "github.com/streed/smart-notes/internal/errors"
	"github.com/streed/smart-notes/internal/logger"
)

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Prompt is a single-turn completion request.
type Prompt struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Generator completes prompts.
type Generator interface {
	Generate(ctx context.Context, p Prompt) (string, error)
}

type Provider interface {
	Embedder
	Generator
	Name() string
}

// Outcome is the result of an enrichment step. When the provider failed,
// Degraded is true, Err holds the cause and Value holds the fallback.
type Outcome[T any] struct {
	Value    T
	Degraded bool
	Err      error
}

func ok[T any](v T) Outcome[T] {
	return Outcome[T]{Value: v}
}

func degraded[T any](fallback T, err error) Outcome[T] {
	return Outcome[T]{Value: fallback, Degraded: true, Err: err}
}

// NewProvider builds the provider selected in the config.
func NewProvider(ctx context.Context, cfg *config.Config) (Provider, error) {
	logger.Debug("Using %s provider (embedding=%s, chat=%s)", cfg.Provider, cfg.EmbeddingModel, cfg.ChatModel)

	switch cfg.Provider {
	case config.ProviderOllama, "":
		return NewOllama(cfg), nil
	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is not set: %w", interrors.ErrProviderUnavailable)
		}
		return NewOpenAI(cfg)
	case config.ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is not set: %w", interrors.ErrProviderUnavailable)
		}
		return NewGemini(ctx, cfg)
	default:
		return nil, fmt.Errorf("%w: %s", interrors.ErrUnknownProvider, cfg.Provider)
	}
}
