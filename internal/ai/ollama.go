package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/streed/smart-notes/internal/config"
	"github.com/streed/smart-notes/internal/logger"
)

// Ollama talks to a local Ollama server over its HTTP API.
type Ollama struct {
	cfg        *config.Config
	httpClient *http.Client
}

func NewOllama(cfg *config.Config) *Ollama {
	return &Ollama{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (o *Ollama) Name() string { return config.ProviderOllama }

func (o *Ollama) Embed(ctx context.Context, text string) ([]float64, error) {
	var result struct {
		Embedding []float64 `json:"embedding"`
	}
	payload := map[string]interface{}{
		"model":  o.cfg.EmbeddingModel,
		"prompt": text,
	}
	if err := o.post(ctx, "embeddings", payload, &result); err != nil {
		return nil, err
	}

	logger.Debug("Got embedding with %d dimensions", len(result.Embedding))
	return result.Embedding, nil
}

func (o *Ollama) Generate(ctx context.Context, p Prompt) (string, error) {
	var result struct {
		Response string `json:"response"`
		Done     bool   `json:"done"`
	}
	payload := map[string]interface{}{
		"model":  o.cfg.ChatModel,
		"system": p.System,
		"prompt": p.User,
		"stream": false,
		"options": map[string]interface{}{
			"num_predict": p.MaxTokens,
			"temperature": p.Temperature,
		},
	}
	if err := o.post(ctx, "generate", payload, &result); err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Response), nil
}

func (o *Ollama) post(ctx context.Context, endpoint string, payload interface{}, out interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	apiURL := o.cfg.GetOllamaAPIURL(endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to Ollama: %w", err)
	}
	defer resp.Body.Close()

	logger.Debug("Ollama %s status: %d, time: %v", endpoint, resp.StatusCode, time.Since(start))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Ollama API returned %d: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
