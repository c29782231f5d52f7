package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/streed/smart-notes/internal/api"
	"github.com/streed/smart-notes/internal/logger"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP API server",
	Long: `Start the HTTP API server used by the web frontend.

The server provides endpoints for:

- Notes CRUD with multipart file uploads
- Keyword search and semantic search
- Toggling favorites
- Serving uploaded files under /uploads/

Examples:
  smart-notes serve                            # Start on the configured host and port (default localhost:3001)
  smart-notes serve --host 0.0.0.0 --port 8080 # Start on all interfaces, port 8080`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind the server to (default from config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to bind the server to (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger.Info("Initializing HTTP API server...")
	defer db.Close()

	if serveHost != "" {
		appConfig.ServerHost = serveHost
	}
	if servePort != 0 {
		appConfig.ServerPort = servePort
	}

	apiServer := api.NewAPIServer(appConfig, db, svc)

	// Set up graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- apiServer.Start()
	}()

	base := fmt.Sprintf("http://%s", appConfig.Address())
	fmt.Printf("\nSmart Notes HTTP API Server\n")
	fmt.Printf("-------------------------------------------------\n")
	fmt.Printf("Server URL:  %s\n", base)
	fmt.Printf("Health:      %s/api/health\n", base)
	fmt.Printf("Environment: %s\n", appConfig.Environment)
	fmt.Printf("Provider:    %s\n", appConfig.Provider)
	fmt.Printf("\nExample API calls:\n")
	fmt.Printf("   curl %s/api/notes\n", base)
	fmt.Printf("   curl -F content='Buy milk' -F files=@list.txt %s/api/notes\n", base)
	fmt.Printf("   curl -H 'Content-Type: application/json' -d '{\"query\":\"groceries\"}' %s/api/notes/search\n", base)
	fmt.Printf("\nPress Ctrl+C to stop the server\n")
	fmt.Printf("-------------------------------------------------\n\n")

	select {
	case sig := <-sigChan:
		logger.Info("Received signal %v, shutting down gracefully...", sig)
		if err := apiServer.Stop(); err != nil {
			logger.Error("Error during server shutdown: %v", err)
			return err
		}
		logger.Info("Server stopped successfully")
		return nil
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error: %v", err)
			return err
		}
		return nil
	}
}
