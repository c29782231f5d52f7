package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/streed/smart-notes/internal/config"
	"github.com/streed/smart-notes/internal/vector"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAI uses the OpenAI chat and embedding endpoints through langchaingo.
type OpenAI struct {
	llm *openai.LLM
}

func NewOpenAI(cfg *config.Config) (*OpenAI, error) {
	llm, err := openai.New(
		openai.WithToken(cfg.OpenAIAPIKey),
		openai.WithModel(cfg.ChatModel),
		openai.WithEmbeddingModel(cfg.EmbeddingModel),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}
	return &OpenAI{llm: llm}, nil
}

func (o *OpenAI) Name() string { return config.ProviderOpenAI }

func (o *OpenAI) Embed(ctx context.Context, text string) ([]float64, error) {
	vectors, err := o.llm.CreateEmbedding(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("openai embedding failed: %w", err)
	}
	if len(vectors) == 0 {
		return nil, nil
	}
	return vector.FromFloat32(vectors[0]), nil
}

func (o *OpenAI) Generate(ctx context.Context, p Prompt) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, p.System),
		llms.TextParts(llms.ChatMessageTypeHuman, p.User),
	}
	resp, err := o.llm.GenerateContent(ctx, messages,
		llms.WithMaxTokens(p.MaxTokens),
		llms.WithTemperature(p.Temperature),
	)
	if err != nil {
		return "", fmt.Errorf("openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}
