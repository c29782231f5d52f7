package cmd

import (
	"errors"
	"testing"

	"github.com/streed/smart-notes/internal/config"
	interrors "github.com/streed/smart-notes/internal/errors"
)

func TestParseBool(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
		wantErr  bool
	}{
		{"true", true, false},
		{"YES", true, false},
		{"1", true, false},
		{"false", false, false},
		{"no", false, false},
		{"0", false, false},
		{"maybe", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseBool(tt.input)
			if tt.wantErr {
				if !errors.Is(err, interrors.ErrInvalidBoolean) {
					t.Errorf("Expected ErrInvalidBoolean, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("parseBool(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSetAndGetConfigValue(t *testing.T) {
	tests := []struct {
		key      string
		value    string
		expected string
	}{
		{"ollama-endpoint", "http://gpu:11434", "http://gpu:11434"},
		{"chat-model", "llama3.1", "llama3.1"},
		{"vector-dimensions", "1536", "1536"},
		{"server-port", "8080", "8080"},
		{"frontend-url", "https://notes.example.com/", "https://notes.example.com"},
		{"environment", "Production", "production"},
		{"debug", "yes", "true"},
		{"openai-api-key", "sk-test", "sk-test"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			cfg := &config.Config{}
			if err := setConfigValue(cfg, tt.key, tt.value); err != nil {
				t.Fatalf("setConfigValue failed: %v", err)
			}
			got, err := configValue(cfg, tt.key)
			if err != nil {
				t.Fatalf("configValue failed: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestSetConfigValueProviderResetsModels(t *testing.T) {
	cfg := &config.Config{Provider: config.ProviderOllama, EmbeddingModel: "nomic-embed-text"}

	if err := setConfigValue(cfg, "provider", "gemini"); err != nil {
		t.Fatal(err)
	}
	if cfg.Provider != config.ProviderGemini || cfg.EmbeddingModel != "text-embedding-004" {
		t.Errorf("Unexpected provider config: %s %s", cfg.Provider, cfg.EmbeddingModel)
	}
}

func TestSetConfigValueDataDirClearsDerivedPaths(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{DatabasePath: "/old/notes.db", UploadsDirectory: "/old/uploads"}

	if err := setConfigValue(cfg, "data-dir", dir); err != nil {
		t.Fatal(err)
	}
	if cfg.DataDirectory != dir || cfg.DatabasePath != "" || cfg.UploadsDirectory != "" {
		t.Errorf("Unexpected paths: %+v", cfg)
	}
}

func TestSetConfigValueErrors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		want  error
	}{
		{"unknown key", "editor", "vim", interrors.ErrUnknownConfigKey},
		{"bad bool", "debug", "sometimes", interrors.ErrInvalidBoolean},
		{"bad provider", "provider", "claude", interrors.ErrUnknownProvider},
		{"bad port", "server-port", "-1", nil},
		{"bad dimensions", "vector-dimensions", "many", nil},
		{"bad environment", "environment", "staging", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := setConfigValue(&config.Config{}, tt.key, tt.value)
			if err == nil {
				t.Fatal("Expected an error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}

	if _, err := configValue(&config.Config{}, "editor"); !errors.Is(err, interrors.ErrUnknownConfigKey) {
		t.Errorf("Expected ErrUnknownConfigKey, got %v", err)
	}
}

func TestConfigKeysAreReadable(t *testing.T) {
	cfg := &config.Config{}
	for _, key := range configKeys {
		if _, err := configValue(cfg, key); err != nil {
			t.Errorf("configValue(%q) failed: %v", key, err)
		}
	}
}

func TestMaskSecret(t *testing.T) {
	tests := map[string]string{
		"":                    "(not set)",
		"short":               "********",
		"sk-1234567890abcdef": "sk-1...cdef",
	}
	for in, want := range tests {
		if got := maskSecret(in); got != want {
			t.Errorf("maskSecret(%q) = %q, want %q", in, got, want)
		}
	}
}
