package cmd

import (
	"github.com/spf13/cobra"

	"github.com/streed/smart-notes/internal/logger"
	"github.com/streed/smart-notes/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server for LLM integration",
	Long: `Start a Model Context Protocol (MCP) server that allows LLMs to work with your notes.

Tools:
- add_note: Create a note (summary, tags and embedding are generated)
- update_note: Replace the content of a note
- get_note: Retrieve a note by ID
- list_notes: List notes with pagination
- delete_note: Remove a note and its files
- toggle_favorite: Mark or unmark a favorite
- search_notes: Keyword search over content, summary and tags
- semantic_search: The five notes closest in meaning to a query

Resources:
- notes://recent: Most recently created notes
- notes://config: Provider and model configuration

To use with Claude Desktop, add this to your claude_desktop_config.json:
{
  "mcpServers": {
    "smart-notes": {
      "command": "smart-notes",
      "args": ["mcp"]
    }
  }
}`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	logger.Info("Starting MCP server...")
	defer db.Close()

	notesServer := mcp.NewNotesServer(appConfig, svc)

	logger.Info("MCP server ready. Listening on stdio...")
	if err := notesServer.Serve(); err != nil {
		if err.Error() != "EOF" {
			logger.Error("MCP server error: %v", err)
			return err
		}
	}

	logger.Info("MCP server shutting down")
	return nil
}
