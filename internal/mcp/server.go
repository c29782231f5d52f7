package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/streed/smart-notes/internal/config"
	"github.com/streed/smart-notes/internal/constants"
	"github.com/streed/smart-notes/internal/logger"
	"github.com/streed/smart-notes/internal/models"
	"github.com/streed/smart-notes/internal/services"
)

const recentLimit = 10

type NotesServer struct {
	cfg       *config.Config
	services  *services.Services
	mcpServer *server.MCPServer
}

func NewNotesServer(cfg *config.Config, svc *services.Services) *NotesServer {
	ns := &NotesServer{
		cfg:      cfg,
		services: svc,
	}

	ns.mcpServer = server.NewMCPServer(
		"smart-notes",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	ns.registerTools()
	ns.registerResources()
	ns.registerPrompts()

	return ns
}

func (s *NotesServer) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

// Serve runs the server over stdio until the client disconnects.
func (s *NotesServer) Serve() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *NotesServer) registerTools() {
	addNoteTool := mcp.NewTool("add_note",
		mcp.WithDescription("Add a new note. A summary, tags and an embedding are generated automatically."),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The content of the note"),
		),
	)
	s.mcpServer.AddTool(addNoteTool, s.handleAddNote)

	updateNoteTool := mcp.NewTool("update_note",
		mcp.WithDescription("Replace the content of a note and regenerate its summary, tags and embedding"),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("The ID of the note to update"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("New content for the note"),
		),
	)
	s.mcpServer.AddTool(updateNoteTool, s.handleUpdateNote)

	getNoteTool := mcp.NewTool("get_note",
		mcp.WithDescription("Get a specific note by ID"),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("The ID of the note to retrieve"),
		),
	)
	s.mcpServer.AddTool(getNoteTool, s.handleGetNote)

	listNotesTool := mcp.NewTool("list_notes",
		mcp.WithDescription("List notes, newest first"),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of notes to return (default: 20)"),
		),
		mcp.WithNumber("offset",
			mcp.Description("Number of notes to skip"),
		),
	)
	s.mcpServer.AddTool(listNotesTool, s.handleListNotes)

	deleteNoteTool := mcp.NewTool("delete_note",
		mcp.WithDescription("Delete a note and its uploaded files"),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("The ID of the note to delete"),
		),
	)
	s.mcpServer.AddTool(deleteNoteTool, s.handleDeleteNote)

	favoriteTool := mcp.NewTool("toggle_favorite",
		mcp.WithDescription("Mark or unmark a note as favorite"),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("The ID of the note"),
		),
	)
	s.mcpServer.AddTool(favoriteTool, s.handleToggleFavorite)

	searchTool := mcp.NewTool("search_notes",
		mcp.WithDescription("Find notes whose content, summary or tags contain the query text"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Text to look for (case-insensitive)"),
		),
	)
	s.mcpServer.AddTool(searchTool, s.handleSearchNotes)

	semanticTool := mcp.NewTool("semantic_search",
		mcp.WithDescription("Find the five notes most similar in meaning to the query"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language query"),
		),
	)
	s.mcpServer.AddTool(semanticTool, s.handleSemanticSearch)
}

func (s *NotesServer) registerResources() {
	recentResource := mcp.NewResource("notes://recent",
		"Recent Notes",
		mcp.WithResourceDescription("Get the most recently created notes"),
		mcp.WithMIMEType("text/plain"),
	)
	s.mcpServer.AddResource(recentResource, s.handleRecentNotes)

	configResource := mcp.NewResource("notes://config",
		"Configuration",
		mcp.WithResourceDescription("Get the current smart-notes configuration"),
		mcp.WithMIMEType("text/plain"),
	)
	s.mcpServer.AddResource(configResource, s.handleConfig)
}

func (s *NotesServer) registerPrompts() {
	searchPrompt := mcp.NewPrompt("search_notes",
		mcp.WithPromptDescription("Search for notes by meaning"),
		mcp.WithArgument("query",
			mcp.ArgumentDescription("Search query string"),
		),
	)
	s.mcpServer.AddPrompt(searchPrompt, s.handleSearchPrompt)
}

// Tool handlers
func (s *NotesServer) handleAddNote(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: add_note")

	content, err := request.RequireString("content")
	if err != nil {
		return nil, fmt.Errorf("missing required parameter 'content': %w", err)
	}

	res, err := s.services.Notes.Create(ctx, services.CreateInput{Content: content})
	if err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}

	return mcp.NewToolResultText(savedText("Note created", res)), nil
}

func (s *NotesServer) handleUpdateNote(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: update_note")

	id, err := request.RequireInt("id")
	if err != nil {
		return nil, fmt.Errorf("missing required parameter 'id': %w", err)
	}
	content, err := request.RequireString("content")
	if err != nil {
		return nil, fmt.Errorf("missing required parameter 'content': %w", err)
	}

	res, err := s.services.Notes.Update(ctx, id, services.UpdateInput{Content: &content})
	if err != nil {
		return nil, fmt.Errorf("failed to update note: %w", err)
	}

	return mcp.NewToolResultText(savedText("Note updated", res)), nil
}

func (s *NotesServer) handleGetNote(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: get_note")

	id, err := request.RequireInt("id")
	if err != nil {
		return nil, fmt.Errorf("missing required parameter 'id': %w", err)
	}

	note, err := s.services.Notes.Get(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get note: %w", err)
	}

	return mcp.NewToolResultText(formatNote(note)), nil
}

func (s *NotesServer) handleListNotes(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: list_notes")

	limit := request.GetInt("limit", constants.DefaultListLimit)
	offset := request.GetInt("offset", 0)

	notes, err := s.services.Notes.List(limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	if len(notes) == 0 {
		return mcp.NewToolResultText("No notes found."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Listing %d notes (offset: %d):\n\n", len(notes), offset)
	for i, note := range notes {
		fmt.Fprintf(&b, "%d. %s (Created: %s)\n   %s\n\n",
			i+1+offset, noteHeader(note),
			note.CreatedAt.Format("2006-01-02"),
			note.Preview(80))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *NotesServer) handleDeleteNote(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: delete_note")

	id, err := request.RequireInt("id")
	if err != nil {
		return nil, fmt.Errorf("missing required parameter 'id': %w", err)
	}

	if err := s.services.Notes.Delete(id); err != nil {
		return nil, fmt.Errorf("failed to delete note: %w", err)
	}

	return mcp.NewToolResultText(fmt.Sprintf("Successfully deleted note %d", id)), nil
}

func (s *NotesServer) handleToggleFavorite(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: toggle_favorite")

	id, err := request.RequireInt("id")
	if err != nil {
		return nil, fmt.Errorf("missing required parameter 'id': %w", err)
	}

	note, err := s.services.Notes.ToggleFavorite(id)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle favorite: %w", err)
	}

	state := "no longer a favorite"
	if note.Favorite {
		state = "now a favorite"
	}
	return mcp.NewToolResultText(fmt.Sprintf("Note %d is %s", id, state)), nil
}

func (s *NotesServer) handleSearchNotes(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: search_notes")

	query, err := request.RequireString("query")
	if err != nil {
		return nil, fmt.Errorf("missing required parameter 'query': %w", err)
	}

	notes, err := s.services.Search.Keyword(query)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	if len(notes) == 0 {
		return mcp.NewToolResultText("No notes found matching your query."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d notes:\n\n", len(notes))
	for i, note := range notes {
		fmt.Fprintf(&b, "%d. %s\n   %s\n\n", i+1, noteHeader(note), note.Preview(constants.PreviewLength))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *NotesServer) handleSemanticSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: semantic_search")

	query, err := request.RequireString("query")
	if err != nil {
		return nil, fmt.Errorf("missing required parameter 'query': %w", err)
	}

	results, err := s.services.Search.Semantic(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("semantic search failed: %w", err)
	}

	if len(results) == 0 {
		return mcp.NewToolResultText("No notes found matching your query."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Top %d notes by similarity:\n\n", len(results))
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s (similarity %s)\n   %s\n\n",
			i+1, noteHeader(r.Note), r.Similarity, r.Preview(constants.PreviewLength))
	}
	return mcp.NewToolResultText(b.String()), nil
}

// Resource handlers
func (s *NotesServer) handleRecentNotes(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	logger.Debug("MCP resource read: notes://recent")

	notes, err := s.services.Notes.List(recentLimit, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent notes: %w", err)
	}

	var b strings.Builder
	b.WriteString("Recent Notes:\n\n")
	for i, note := range notes {
		fmt.Fprintf(&b, "%d. %s\n   Created: %s\n   %s\n\n",
			i+1, noteHeader(note),
			note.CreatedAt.Format("2006-01-02 15:04:05"),
			note.Preview(150))
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "text/plain",
			Text:     b.String(),
		},
	}, nil
}

func (s *NotesServer) handleConfig(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	logger.Debug("MCP resource read: notes://config")

	content := fmt.Sprintf(`Smart Notes Configuration:
- Debug Mode: %v
- Data Directory: %s
- Provider: %s
- Embedding Model: %s
- Chat Model: %s`,
		s.cfg.Debug,
		s.cfg.DataDirectory,
		s.cfg.Provider,
		s.cfg.EmbeddingModel,
		s.cfg.ChatModel)

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "text/plain",
			Text:     content,
		},
	}, nil
}

// Prompt handlers
func (s *NotesServer) handleSearchPrompt(_ context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	query := request.Params.Arguments["query"]

	prompt := fmt.Sprintf("Use the semantic_search tool to find notes about: %s\n\nThen answer using only what those notes say.", query)
	return &mcp.GetPromptResult{
		Description: "Search prompt for notes",
		Messages: []mcp.PromptMessage{
			{
				Role:    mcp.RoleUser,
				Content: mcp.NewTextContent(prompt),
			},
		},
	}, nil
}

func noteHeader(note *models.Note) string {
	header := fmt.Sprintf("[ID: %d]", note.ID)
	if note.Favorite {
		header += " *"
	}
	if len(note.Tags) > 0 {
		header += fmt.Sprintf(" [Tags: %s]", strings.Join(note.Tags, ", "))
	}
	return header
}

func formatNote(note *models.Note) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Note ID: %d\n", note.ID)
	if len(note.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(note.Tags, ", "))
	}
	fmt.Fprintf(&b, "Favorite: %v\nCreated: %s\nUpdated: %s\n",
		note.Favorite,
		note.CreatedAt.Format("2006-01-02 15:04:05"),
		note.UpdatedAt.Format("2006-01-02 15:04:05"))
	if summary := note.SummaryText(); summary != "" {
		fmt.Fprintf(&b, "\nSummary:\n%s\n", summary)
	}
	fmt.Fprintf(&b, "\nContent:\n%s\n", note.Content)

	for _, l := range note.Links {
		fmt.Fprintf(&b, "\nLink: %s (%s)", l.Title, l.URL)
		if l.Description != "" {
			fmt.Fprintf(&b, "\n  %s", l.Description)
		}
	}
	for _, a := range note.Attachments {
		fmt.Fprintf(&b, "\nFile: %s (%s, %d bytes)", a.OriginalName, a.MimeType, a.Size)
		if a.Summary != "" {
			fmt.Fprintf(&b, "\n  %s", a.Summary)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func savedText(verb string, res *services.Result) string {
	text := fmt.Sprintf("%s with ID: %d", verb, res.Note.ID)
	if len(res.Note.Tags) > 0 {
		text += fmt.Sprintf("\nTags: %s", strings.Join(res.Note.Tags, ", "))
	}
	if len(res.Degraded) > 0 {
		text += fmt.Sprintf("\nAI enrichment fell back for: %s", strings.Join(res.Degraded, ", "))
	}
	return text
}
