package errors

import "errors"

// Common errors used throughout the application
var (
	// Database errors
	ErrNoteNotFound  = errors.New("note not found")
	ErrDatabaseQuery = errors.New("database query failed")

	// Validation errors
	ErrEmptyContent     = errors.New("content cannot be empty")
	ErrEmptyQuery       = errors.New("search query cannot be empty")
	ErrInvalidBoolean   = errors.New("invalid boolean value (use true/false)")
	ErrUnknownConfigKey = errors.New("unknown configuration key")
	ErrInvalidNoteID    = errors.New("invalid note ID")
	ErrInvalidLinks     = errors.New("links must be a JSON array of {title, url}")

	// Upload errors
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum upload size")
	ErrTooManyFiles        = errors.New("too many files in one request")

	// Embedding errors
	ErrQueryEmbedding         = errors.New("failed to generate query embedding")
	ErrInvalidEmbeddingLength = errors.New("invalid embedding data length")

	// Provider errors
	ErrProviderUnavailable = errors.New("ai provider unavailable")
	ErrUnknownProvider     = errors.New("unknown ai provider")
	ErrEmptyCompletion     = errors.New("provider returned an empty completion")
)
