package services

import (
	"io"

	"github.com/streed/smart-notes/internal/ai"
	"github.com/streed/smart-notes/internal/config"
	"github.com/streed/smart-notes/internal/models"
)

// NoteStore is the persistence the services need. *models.NoteRepository
// implements it.
type NoteStore interface {
	Create(note *models.Note) error
	GetByID(id int) (*models.Note, error)
	List(limit, offset int) ([]*models.Note, error)
	ListAll() ([]*models.Note, error)
	Search(query string) ([]*models.Note, error)
	Update(note *models.Note) error
	UpdateEmbedding(id int, embedding []float64) error
	ToggleFavorite(id int) (*models.Note, error)
	Delete(id int) error
}

// FileStore keeps uploaded files. *storage.Store implements it.
type FileStore interface {
	Save(originalName, mimeType string, r io.Reader) (*models.Attachment, error)
	Path(filename string) string
	Remove(filename string) error
}

// Services contains all the service dependencies
type Services struct {
	Config *config.Config
	Notes  *NotesService
	Search *SearchService
}

func NewServices(cfg *config.Config, store NoteStore, files FileStore, provider ai.Provider) *Services {
	return &Services{
		Config: cfg,
		Notes:  NewNotesService(store, files, ai.NewEnricher(provider)),
		Search: NewSearchService(store, provider),
	}
}
