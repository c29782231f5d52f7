package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/streed/smart-notes/internal/config"
	"github.com/streed/smart-notes/internal/constants"
	interrors "github.com/streed/smart-notes/internal/errors"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage smart-notes configuration",
	Long:  `View and manage smart-notes configuration settings.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the configuration with environment overrides applied. API keys are masked.`,
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	RunE:  runConfigPath,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print a single configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Set a specific configuration value in the configuration file.

Available keys:
  - data-dir: Data directory for the database and uploads
  - uploads-dir: Directory for uploaded files
  - provider: AI provider (ollama, openai, gemini); resets the models
  - ollama-endpoint: Ollama API endpoint
  - openai-api-key: OpenAI API key
  - gemini-api-key: Gemini API key
  - embedding-model: Embedding model name
  - chat-model: Model used for summaries, tags and descriptions
  - vector-dimensions: Expected embedding length
  - server-host: Host for 'serve'
  - server-port: Port for 'serve'
  - frontend-url: Origin of the web frontend allowed by CORS
  - environment: development or production
  - unidoc-license-key: License key for PDF text extraction
  - debug: Enable/disable debug logging (true/false)`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

// configKeys lists the keys accepted by get and set, in display order.
var configKeys = []string{
	"data-dir", "uploads-dir", "provider", "ollama-endpoint", "openai-api-key", "gemini-api-key",
	"embedding-model", "chat-model", "vector-dimensions", "server-host", "server-port",
	"frontend-url", "environment", "unidoc-license-key", "debug",
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	configPath, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	fmt.Println("=== Smart Notes Configuration ===")
	fmt.Printf("%-22s %s\n", "Config file:", configPath)
	fmt.Printf("%-22s %s\n", "Database path:", cfg.GetDatabasePath())
	for _, key := range configKeys {
		value, _ := configValue(cfg, key)
		if isSecretKey(key) {
			value = maskSecret(value)
		}
		fmt.Printf("%-22s %s\n", key+":", value)
	}
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	configPath, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	fmt.Println(configPath)
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	value, err := configValue(cfg, args[0])
	if err != nil {
		return err
	}
	fmt.Println(value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	cfg, err := config.LoadFile()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	oldProvider, oldModel := cfg.Provider, cfg.EmbeddingModel
	if err := setConfigValue(cfg, key, value); err != nil {
		return err
	}

	if cfg.Provider != oldProvider || cfg.EmbeddingModel != oldModel {
		fmt.Println("\nWarning: The embedding model has changed.")
		fmt.Println("Run 'smart-notes reindex' to update all note embeddings.")
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	if isSecretKey(key) {
		value = maskSecret(value)
	}
	fmt.Printf("Configuration updated: %s = %s\n", key, value)
	return nil
}

func configValue(cfg *config.Config, key string) (string, error) {
	switch key {
	case "data-dir":
		return cfg.DataDirectory, nil
	case "uploads-dir":
		return cfg.GetUploadsDirectory(), nil
	case "provider":
		return cfg.Provider, nil
	case "ollama-endpoint":
		return cfg.OllamaEndpoint, nil
	case "openai-api-key":
		return cfg.OpenAIAPIKey, nil
	case "gemini-api-key":
		return cfg.GeminiAPIKey, nil
	case "embedding-model":
		return cfg.EmbeddingModel, nil
	case "chat-model":
		return cfg.ChatModel, nil
	case "vector-dimensions":
		return strconv.Itoa(cfg.VectorDimensions), nil
	case "server-host":
		return cfg.ServerHost, nil
	case "server-port":
		return strconv.Itoa(cfg.ServerPort), nil
	case "frontend-url":
		return cfg.FrontendURL, nil
	case "environment":
		return cfg.Environment, nil
	case "unidoc-license-key":
		return cfg.UnidocLicenseKey, nil
	case "debug":
		return strconv.FormatBool(cfg.Debug), nil
	default:
		return "", fmt.Errorf("%w: %s", interrors.ErrUnknownConfigKey, key)
	}
}

func setConfigValue(cfg *config.Config, key, value string) error {
	switch key {
	case "data-dir":
		cfg.DataDirectory = expandPath(value)
		// derived from data-dir on the next load
		cfg.DatabasePath = ""
		cfg.UploadsDirectory = ""
	case "uploads-dir":
		cfg.UploadsDirectory = expandPath(value)
	case "provider":
		return cfg.SetProvider(value)
	case "ollama-endpoint":
		cfg.OllamaEndpoint = value
	case "openai-api-key":
		cfg.OpenAIAPIKey = value
	case "gemini-api-key":
		cfg.GeminiAPIKey = value
	case "embedding-model":
		cfg.EmbeddingModel = value
	case "chat-model":
		cfg.ChatModel = value
	case "vector-dimensions":
		dims, err := parsePositiveInt(key, value)
		if err != nil {
			return err
		}
		cfg.VectorDimensions = dims
	case "server-host":
		cfg.ServerHost = value
	case "server-port":
		port, err := parsePositiveInt(key, value)
		if err != nil {
			return err
		}
		cfg.ServerPort = port
	case "frontend-url":
		cfg.FrontendURL = strings.TrimRight(value, "/")
	case "environment":
		env := strings.ToLower(value)
		if env != config.EnvDevelopment && env != config.EnvProduction {
			return fmt.Errorf("environment must be %s or %s, got %q", config.EnvDevelopment, config.EnvProduction, value)
		}
		cfg.Environment = env
	case "unidoc-license-key":
		cfg.UnidocLicenseKey = value
	case "debug":
		debug, err := parseBool(value)
		if err != nil {
			return err
		}
		cfg.Debug = debug
	default:
		return fmt.Errorf("%w: %s", interrors.ErrUnknownConfigKey, key)
	}
	return nil
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(value) {
	case constants.BoolTrue, constants.BoolOne, constants.BoolYes:
		return true, nil
	case constants.BoolFalse, constants.BoolZero, constants.BoolNo:
		return false, nil
	default:
		return false, fmt.Errorf("%w: %s", interrors.ErrInvalidBoolean, value)
	}
}

func parsePositiveInt(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, value)
	}
	return n, nil
}

func isSecretKey(key string) bool {
	return strings.HasSuffix(key, "-api-key") || key == "unidoc-license-key"
}

func maskSecret(s string) string {
	switch {
	case s == "":
		return "(not set)"
	case len(s) <= 8:
		return "********"
	default:
		return s[:4] + "..." + s[len(s)-4:]
	}
}
