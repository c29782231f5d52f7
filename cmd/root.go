package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/streed/smart-notes/internal/ai"
	"github.com/streed/smart-notes/internal/config"
	"github.com/streed/smart-notes/internal/database"
	"github.com/streed/smart-notes/internal/extract"
	"github.com/streed/smart-notes/internal/logger"
	"github.com/streed/smart-notes/internal/models"
	"github.com/streed/smart-notes/internal/services"
	"github.com/streed/smart-notes/internal/storage"
)

var (
	db        *database.DB
	noteRepo  *models.NoteRepository
	svc       *services.Services
	appConfig *config.Config
	debugFlag bool
	Version   = "dev" // Version is set from main.go
)

var rootCmd = &cobra.Command{
	Use:     "smart-notes",
	Short:   "Notes with AI summaries, tags and semantic search",
	Version: Version,
	Long: `smart-notes stores notes with links and file attachments, enriches every
note with an AI summary, tags and an embedding, and finds notes by keyword or
by meaning.

First time users should run 'smart-notes init' to set up the configuration.`,
	SilenceUsage: true,
}

func Execute() error {
	rootCmd.Version = Version
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initAppConfig)
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")
}

// needsStore reports whether the invoked command works on notes.
func needsStore() bool {
	if len(os.Args) < 2 {
		return false
	}
	switch os.Args[1] {
	case "init", "config", "version", "help", "completion", "--help", "-h", "--version", "-v":
		return false
	}
	return true
}

func initAppConfig() {
	config.LoadEnv()
	if debugFlag {
		logger.SetDebugMode(true)
	}

	if !needsStore() {
		return
	}

	var err error
	appConfig, err = config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		fmt.Fprintf(os.Stderr, "Please run 'smart-notes init' to set up the configuration.\n")
		os.Exit(1)
	}

	if appConfig.Debug {
		logger.SetDebugMode(true)
	}
	if logger.IsDebugMode() {
		logger.Debug("Configuration loaded from: %s", func() string {
			path, _ := config.GetConfigPath()
			return path
		}())
		logger.Debug("Data directory: %s", appConfig.DataDirectory)
		logger.Debug("Uploads directory: %s", appConfig.GetUploadsDirectory())
		logger.Debug("Provider: %s", appConfig.Provider)
		logger.Debug("Embedding model: %s", appConfig.EmbeddingModel)
		logger.Debug("Chat model: %s", appConfig.ChatModel)
	}

	extract.SetLicense(appConfig.UnidocLicenseKey)

	db, err = database.New(appConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing database: %v\n", err)
		os.Exit(1)
	}

	files, err := storage.New(appConfig.GetUploadsDirectory())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing uploads: %v\n", err)
		os.Exit(1)
	}

	provider, err := ai.NewProvider(context.Background(), appConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing AI provider: %v\n", err)
		fmt.Fprintf(os.Stderr, "Set the provider's API key or run 'smart-notes config set provider ollama'.\n")
		os.Exit(1)
	}

	noteRepo = models.NewNoteRepository(db.Conn())
	svc = services.NewServices(appConfig, noteRepo, files, provider)
}
