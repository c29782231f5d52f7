package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/streed/smart-notes/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize smart-notes configuration",
	Long: `Initialize smart-notes configuration interactively or with flags.
This command writes the configuration file and creates the data directory.`,
	RunE: runInit,
}

var (
	initDataDir     string
	initProvider    string
	initInteractive bool
)

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVar(&initDataDir, "data-dir", "", "Data directory for the notes database and uploads")
	initCmd.Flags().StringVar(&initProvider, "provider", "", "AI provider: ollama, openai or gemini")
	initCmd.Flags().BoolVarP(&initInteractive, "interactive", "i", false, "Run interactive setup")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	reader := bufio.NewReader(os.Stdin)

	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Configuration already exists at: %s\n", configPath)
		fmt.Print("Do you want to overwrite it? (y/N): ")
		response, _ := reader.ReadString('\n')
		if !isYes(response) {
			fmt.Println("Configuration initialization cancelled.")
			return nil
		}
	}

	var apiKey string
	if initInteractive || (initDataDir == "" && initProvider == "") {
		fmt.Println("=== Smart Notes Configuration Setup ===")
		fmt.Println()

		defaultDataDir := config.GetDefaultDataDirectory()
		initDataDir = prompt(reader, "Data directory", defaultDataDir)
		if initDataDir != defaultDataDir {
			initDataDir = expandPath(initDataDir)
		}

		initProvider = strings.ToLower(prompt(reader, "AI provider (ollama, openai, gemini)", config.ProviderOllama))
		if initProvider == config.ProviderOpenAI || initProvider == config.ProviderGemini {
			fmt.Println("Leave the API key empty to read it from the environment.")
			apiKey = prompt(reader, strings.ToUpper(initProvider)+" API key", "")
		}
	} else if initDataDir != "" {
		initDataDir = expandPath(initDataDir)
	}

	cfg, err := config.InitializeConfig(initDataDir, initProvider)
	if err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	if apiKey != "" {
		switch cfg.Provider {
		case config.ProviderOpenAI:
			cfg.OpenAIAPIKey = apiKey
		case config.ProviderGemini:
			cfg.GeminiAPIKey = apiKey
		}
		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("failed to save configuration: %w", err)
		}
	}

	fmt.Println("\n=== Configuration Summary ===")
	fmt.Printf("Config file:        %s\n", configPath)
	fmt.Printf("Data directory:     %s\n", cfg.DataDirectory)
	fmt.Printf("Database path:      %s\n", cfg.GetDatabasePath())
	fmt.Printf("Uploads directory:  %s\n", cfg.GetUploadsDirectory())
	fmt.Printf("Provider:           %s\n", cfg.Provider)
	fmt.Printf("Embedding model:    %s\n", cfg.EmbeddingModel)
	fmt.Printf("Chat model:         %s\n", cfg.ChatModel)
	fmt.Println("SQLite-vec:         Built-in (via Go bindings)")

	fmt.Println("\nConfiguration initialized successfully!")

	switch cfg.Provider {
	case config.ProviderOllama:
		fmt.Printf("\nMake sure Ollama is running at %s with the models installed:\n", cfg.OllamaEndpoint)
		fmt.Printf("  ollama pull %s  # For embeddings\n", cfg.EmbeddingModel)
		fmt.Printf("  ollama pull %s  # For summaries and tags\n", cfg.ChatModel)
	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			fmt.Println("\nSet OPENAI_API_KEY in the environment or a .env file before adding notes.")
		}
	case config.ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			fmt.Println("\nSet GEMINI_API_KEY in the environment or a .env file before adding notes.")
		}
	}

	return nil
}

// prompt reads one line, returning def when the answer is empty.
func prompt(reader *bufio.Reader, label, def string) string {
	if def != "" {
		fmt.Printf("%s [%s]: ", label, def)
	} else {
		fmt.Printf("%s: ", label)
	}
	input, _ := reader.ReadString('\n')
	if input = strings.TrimSpace(input); input != "" {
		return input
	}
	return def
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(homeDir, path[2:])
		}
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}
