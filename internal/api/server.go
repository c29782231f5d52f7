package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/streed/smart-notes/internal/config"
	"github.com/streed/smart-notes/internal/constants"
	interrors "github.com/streed/smart-notes/internal/errors"
	"github.com/streed/smart-notes/internal/logger"
	"github.com/streed/smart-notes/internal/services"
)

// HealthChecker reports on the database behind the API. *database.DB
// implements it.
type HealthChecker interface {
	Ping(ctx context.Context) error
	VecVersion() string
}

type APIServer struct {
	cfg      *config.Config
	db       HealthChecker
	services *services.Services
	server   *http.Server
}

type APIResponse struct {
	Success  bool        `json:"success"`
	Data     interface{} `json:"data,omitempty"`
	Error    string      `json:"error,omitempty"`
	Warnings []string    `json:"warnings,omitempty"`
}

type SearchRequest struct {
	Query string `json:"query"`
}

type CreateNoteRequest struct {
	Content string        `json:"content"`
	Links   []linkRequest `json:"links"`
}

type UpdateNoteRequest struct {
	Content   *string        `json:"content,omitempty"`
	Links     *[]linkRequest `json:"links,omitempty"`
	KeepFiles *[]string      `json:"keep_files,omitempty"`
}

type linkRequest struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

func NewAPIServer(cfg *config.Config, db HealthChecker, svc *services.Services) *APIServer {
	return &APIServer{
		cfg:      cfg,
		db:       db,
		services: svc,
	}
}

// Handler builds the router with CORS and request logging applied.
func (s *APIServer) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(requestLogger)

	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Notes endpoints
	api.HandleFunc("/notes", s.handleListNotes).Methods("GET")
	api.HandleFunc("/notes", s.handleCreateNote).Methods("POST")
	api.HandleFunc("/notes/search", s.handleSemanticSearch).Methods("POST")
	api.HandleFunc("/notes/search/{query}", s.handleKeywordSearch).Methods("GET")
	api.HandleFunc("/notes/{id:[0-9]+}", s.handleGetNote).Methods("GET")
	api.HandleFunc("/notes/{id:[0-9]+}", s.handleUpdateNote).Methods("PUT")
	api.HandleFunc("/notes/{id:[0-9]+}", s.handleDeleteNote).Methods("DELETE")
	api.HandleFunc("/notes/{id:[0-9]+}/favorite", s.handleToggleFavorite).Methods("PATCH")

	uploads := http.FileServer(http.Dir(s.cfg.GetUploadsDirectory()))
	router.PathPrefix(constants.UploadsURLPath).Handler(http.StripPrefix(constants.UploadsURLPath, uploads))

	c := cors.New(cors.Options{
		AllowOriginFunc:  s.allowOrigin,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	})

	return c.Handler(router)
}

// allowOrigin accepts the configured origins and any Vercel preview
// deployment. Requests without an Origin header never reach it.
func (s *APIServer) allowOrigin(origin string) bool {
	for _, allowed := range s.cfg.GetAllowedOrigins() {
		if origin == allowed {
			return true
		}
	}

	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Scheme == "https" && strings.HasSuffix(u.Hostname(), ".vercel.app") {
		return true
	}

	logger.Warn("CORS blocked origin %s", origin)
	return false
}

func (s *APIServer) Start() error {
	addr := s.cfg.Address()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Logger().Info("Starting HTTP API server",
		"addr", addr,
		"environment", s.cfg.Environment,
		"provider", s.services.Notes.ProviderName(),
		"origins", s.cfg.GetAllowedOrigins())
	return s.server.ListenAndServe()
}

func (s *APIServer) Stop() error {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *APIServer) writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	s.writeResponse(w, statusCode, APIResponse{Success: statusCode < 400, Data: data})
}

func (s *APIServer) writeResult(w http.ResponseWriter, statusCode int, res *services.Result) {
	s.writeResponse(w, statusCode, APIResponse{Success: true, Data: res.Note, Warnings: res.Degraded})
}

func (s *APIServer) writeError(w http.ResponseWriter, statusCode int, err error) {
	s.writeResponse(w, statusCode, APIResponse{Success: false, Error: err.Error()})
}

func (s *APIServer) writeResponse(w http.ResponseWriter, statusCode int, response APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error("Failed to encode JSON response: %v", err)
	}
}

// writeServiceError maps service errors to HTTP status codes.
func (s *APIServer) writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, interrors.ErrNoteNotFound):
		status = http.StatusNotFound
	case errors.Is(err, interrors.ErrFileTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, interrors.ErrEmptyContent),
		errors.Is(err, interrors.ErrEmptyQuery),
		errors.Is(err, interrors.ErrInvalidNoteID),
		errors.Is(err, interrors.ErrInvalidLinks),
		errors.Is(err, interrors.ErrUnsupportedFileType),
		errors.Is(err, interrors.ErrTooManyFiles):
		status = http.StatusBadRequest
	}

	if status >= 500 {
		logger.Error("Request failed: %v", err)
	}
	s.writeError(w, status, err)
}
