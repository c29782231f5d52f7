package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/streed/smart-notes/internal/config"
	"github.com/streed/smart-notes/internal/vector"
	"google.golang.org/genai"
)

// Gemini uses the Google Gen AI SDK against the Gemini API backend.
type Gemini struct {
	client         *genai.Client
	chatModel      string
	embeddingModel string
}

func NewGemini(ctx context.Context, cfg *config.Config) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Gemini{
		client:         client,
		chatModel:      cfg.ChatModel,
		embeddingModel: cfg.EmbeddingModel,
	}, nil
}

func (g *Gemini) Name() string { return config.ProviderGemini }

func (g *Gemini) Embed(ctx context.Context, text string) ([]float64, error) {
	resp, err := g.client.Models.EmbedContent(ctx, g.embeddingModel, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("gemini embedding failed: %w", err)
	}
	if len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, nil
	}
	return vector.FromFloat32(resp.Embeddings[0].Values), nil
}

func (g *Gemini) Generate(ctx context.Context, p Prompt) (string, error) {
	temperature := float32(p.Temperature)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(p.System, genai.RoleUser),
		MaxOutputTokens:   int32(p.MaxTokens),
		Temperature:       &temperature,
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.chatModel, genai.Text(p.User), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini completion failed: %w", err)
	}
	return strings.TrimSpace(resp.Text()), nil
}
