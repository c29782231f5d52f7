package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/streed/smart-notes/internal/constants"
	interrors "github.com/streed/smart-notes/internal/errors"
	"github.com/streed/smart-notes/internal/logger"
)

const appName = "smart-notes"

// Supported AI providers
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Runtime environments
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	DataDirectory    string `json:"data_directory,omitempty"`
	DatabasePath     string `json:"database_path,omitempty"`
	UploadsDirectory string `json:"uploads_directory,omitempty"`

	// HTTP server
	ServerHost     string   `json:"server_host"`
	ServerPort     int      `json:"server_port"`
	Environment    string   `json:"environment"`
	FrontendURL    string   `json:"frontend_url,omitempty"`
	AllowedOrigins []string `json:"allowed_origins,omitempty"`

	// AI provider
	Provider         string `json:"provider"`
	OllamaEndpoint   string `json:"ollama_endpoint"`
	OpenAIAPIKey     string `json:"openai_api_key,omitempty"`
	GeminiAPIKey     string `json:"gemini_api_key,omitempty"`
	EmbeddingModel   string `json:"embedding_model"`
	ChatModel        string `json:"chat_model"`
	VectorDimensions int    `json:"vector_dimensions"`

	// UnidocLicenseKey enables PDF text extraction
	UnidocLicenseKey string `json:"unidoc_license_key,omitempty"`

	Debug bool `json:"debug"`
}

// modelDefaults holds the embedding and chat model used when a provider is
// selected without explicit models.
var modelDefaults = map[string][2]string{
	ProviderOllama: {"nomic-embed-text", "llama3.2:latest"},
	ProviderOpenAI: {"text-embedding-3-small", "gpt-4o-mini"},
	ProviderGemini: {"text-embedding-004", "gemini-2.5-flash"},
}

// getDefaultConfig returns a fresh copy of the default configuration
func getDefaultConfig() Config {
	return Config{
		ServerHost:       "localhost",
		ServerPort:       3001,
		Environment:      EnvDevelopment,
		Provider:         ProviderOllama,
		OllamaEndpoint:   "http://localhost:11434",
		EmbeddingModel:   modelDefaults[ProviderOllama][0],
		ChatModel:        modelDefaults[ProviderOllama][1],
		VectorDimensions: 768,
		Debug:            false,
	}
}

func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(configDir, appName, "config.json"), nil
}

func GetDefaultDataDirectory() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".", "."+appName)
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}
	return filepath.Join(dataDir, appName)
}

// Load reads the config file, falling back to defaults when it does not
// exist, and then applies environment overrides.
func Load() (*Config, error) {
	cfg, err := readFile()
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	cfg.fillDefaults()
	return &cfg, nil
}

// LoadFile is Load without environment overrides. Use it when the result
// will be saved back, so secrets from the environment stay out of the file.
func LoadFile() (*Config, error) {
	cfg, err := readFile()
	if err != nil {
		return nil, err
	}
	cfg.fillDefaults()
	return &cfg, nil
}

func readFile() (Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return Config{}, err
	}

	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
		logger.Debug("No config file at %s, using defaults", configPath)
		return getDefaultConfig(), nil
	case err != nil:
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

func (c *Config) fillDefaults() {
	defaults := getDefaultConfig()

	if c.DataDirectory == "" {
		c.DataDirectory = GetDefaultDataDirectory()
	}
	if c.DatabasePath == "" {
		c.DatabasePath = filepath.Join(c.DataDirectory, "notes.db")
	}
	if c.UploadsDirectory == "" {
		c.UploadsDirectory = filepath.Join(c.DataDirectory, "uploads")
	}
	if c.ServerHost == "" {
		c.ServerHost = defaults.ServerHost
	}
	if c.ServerPort == 0 {
		c.ServerPort = defaults.ServerPort
	}
	if c.Environment == "" {
		c.Environment = defaults.Environment
	}
	if c.Provider == "" {
		c.Provider = defaults.Provider
	}
	if c.OllamaEndpoint == "" {
		c.OllamaEndpoint = defaults.OllamaEndpoint
	}
	if models, ok := modelDefaults[c.Provider]; ok {
		if c.EmbeddingModel == "" {
			c.EmbeddingModel = models[0]
		}
		if c.ChatModel == "" {
			c.ChatModel = models[1]
		}
	}
	if c.VectorDimensions == 0 {
		c.VectorDimensions = defaults.VectorDimensions
	}
}

// LoadEnv loads a .env file from the working directory if one exists.
func LoadEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			logger.Warn("Failed to load %s: %v", p, err)
			continue
		}
		logger.Debug("Loaded environment from %s", p)
	}
}

// ApplyEnv overrides config values from the process environment.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAIAPIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.GeminiAPIKey = v
	}
	if v := os.Getenv("UNIDOC_LICENSE_KEY"); v != "" {
		c.UnidocLicenseKey = v
	}
	if v := os.Getenv("AI_PROVIDER"); v != "" {
		c.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("OLLAMA_ENDPOINT"); v != "" {
		c.OllamaEndpoint = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		c.DataDirectory = v
	}
	if v := os.Getenv("UPLOADS_DIR"); v != "" {
		c.UploadsDirectory = v
	}
	if v := os.Getenv("FRONTEND_URL"); v != "" {
		c.FrontendURL = v
	}
	if v := os.Getenv("APP_ENV"); v != "" {
		c.Environment = strings.ToLower(v)
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.ServerPort = port
	}
	return nil
}

func Save(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), constants.DirMode); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if cfg.DataDirectory != "" {
		if err := os.MkdirAll(cfg.DataDirectory, constants.DirMode); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// API keys may be stored here
	if err := os.WriteFile(configPath, data, constants.ConfigFileMode); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func InitializeConfig(dataDir, provider string) (*Config, error) {
	cfg := getDefaultConfig()

	if dataDir != "" {
		cfg.DataDirectory = dataDir
	} else {
		cfg.DataDirectory = GetDefaultDataDirectory()
	}

	if provider != "" {
		if _, ok := modelDefaults[provider]; !ok {
			return nil, fmt.Errorf("unknown provider %q", provider)
		}
		cfg.Provider = provider
		cfg.EmbeddingModel = ""
		cfg.ChatModel = ""
	}
	cfg.fillDefaults()

	if err := Save(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SetProvider switches the AI provider and resets the models to that
// provider's defaults.
func (c *Config) SetProvider(provider string) error {
	provider = strings.ToLower(strings.TrimSpace(provider))
	models, ok := modelDefaults[provider]
	if !ok {
		return fmt.Errorf("%w: %s", interrors.ErrUnknownProvider, provider)
	}
	c.Provider = provider
	c.EmbeddingModel = models[0]
	c.ChatModel = models[1]
	return nil
}

func (c *Config) GetDatabasePath() string {
	if c.DatabasePath != "" {
		return c.DatabasePath
	}
	return filepath.Join(c.DataDirectory, "notes.db")
}

func (c *Config) GetUploadsDirectory() string {
	if c.UploadsDirectory != "" {
		return c.UploadsDirectory
	}
	return filepath.Join(c.DataDirectory, "uploads")
}

func (c *Config) GetOllamaAPIURL(endpoint string) string {
	return fmt.Sprintf("%s/api/%s", strings.TrimRight(c.OllamaEndpoint, "/"), endpoint)
}

func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetAllowedOrigins returns the exact origins accepted by CORS. Development
// adds the local frontend ports.
func (c *Config) GetAllowedOrigins() []string {
	var origins []string
	if c.FrontendURL != "" {
		origins = append(origins, strings.TrimRight(c.FrontendURL, "/"))
	}
	origins = append(origins, c.AllowedOrigins...)
	if !c.IsProduction() {
		origins = append(origins, "http://localhost:5173", "http://localhost:3000")
	}
	return origins
}

// Address returns host:port for the HTTP server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}
