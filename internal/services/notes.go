package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/streed/smart-notes/internal/ai"
	"github.com/streed/smart-notes/internal/constants"
	interrors "github.com/streed/smart-notes/internal/errors"
	"github.com/streed/smart-notes/internal/extract"
	"github.com/streed/smart-notes/internal/logger"
	"github.com/streed/smart-notes/internal/models"
	"github.com/streed/smart-notes/internal/search"
)

// FileUpload is a file submitted with a note.
type FileUpload struct {
	Name     string
	MimeType string
	Reader   io.Reader
}

type CreateInput struct {
	Content string
	Links   []models.Link
	Files   []FileUpload
}

// UpdateInput describes an edit. Nil fields are left as they are. KeepFiles
// lists the stored filenames of the existing attachments to keep; nil keeps
// all of them.
type UpdateInput struct {
	Content   *string
	Links     *[]models.Link
	KeepFiles *[]string
	Files     []FileUpload
}

// Result is a saved note and the enrichment steps that fell back.
type Result struct {
	Note     *models.Note
	Degraded []string
}

// NotesService handles the note lifecycle and its enrichment
type NotesService struct {
	store    NoteStore
	files    FileStore
	enricher *ai.Enricher
}

func NewNotesService(store NoteStore, files FileStore, enricher *ai.Enricher) *NotesService {
	return &NotesService{store: store, files: files, enricher: enricher}
}

func (s *NotesService) Get(id int) (*models.Note, error) {
	return s.store.GetByID(id)
}

func (s *NotesService) List(limit, offset int) ([]*models.Note, error) {
	return s.store.List(limit, offset)
}

func (s *NotesService) ListAll() ([]*models.Note, error) {
	return s.store.ListAll()
}

func (s *NotesService) ToggleFavorite(id int) (*models.Note, error) {
	return s.store.ToggleFavorite(id)
}

// Create enriches and stores a new note. Provider failures degrade the
// enrichment but never fail the write.
func (s *NotesService) Create(ctx context.Context, in CreateInput) (*Result, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, interrors.ErrEmptyContent
	}
	if err := validateUploads(in.Files); err != nil {
		return nil, err
	}

	rec := &recorder{}
	note := &models.Note{Content: content}

	summary := s.enricher.Summarize(ctx, content)
	rec.add("summary", summary.Degraded)
	note.Summary = models.StringPtr(summary.Value)

	tags := s.enricher.Tags(ctx, content)
	rec.add("tags", tags.Degraded)
	note.Tags = tags.Value

	note.Links = s.describeLinks(ctx, in.Links, rec)

	attachments, err := s.storeUploads(ctx, in.Files, rec)
	if err != nil {
		return nil, err
	}
	note.Attachments = attachments

	s.embed(ctx, note, rec)

	if err := s.store.Create(note); err != nil {
		s.removeFiles(attachments)
		return nil, err
	}

	logger.Info("Created note %d (%d files, degraded: %v)", note.ID, len(note.Attachments), rec.steps)
	return &Result{Note: note, Degraded: rec.steps}, nil
}

// Update applies an edit and always recomputes the embedding from the
// resulting text.
func (s *NotesService) Update(ctx context.Context, id int, in UpdateInput) (*Result, error) {
	note, err := s.store.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := validateUploads(in.Files); err != nil {
		return nil, err
	}

	rec := &recorder{}

	if in.Content != nil {
		content := strings.TrimSpace(*in.Content)
		if content == "" {
			return nil, interrors.ErrEmptyContent
		}
		note.Content = content

		summary := s.enricher.Summarize(ctx, content)
		rec.add("summary", summary.Degraded)
		note.Summary = models.StringPtr(summary.Value)

		tags := s.enricher.Tags(ctx, content)
		rec.add("tags", tags.Degraded)
		note.Tags = tags.Value
	}

	if in.Links != nil {
		note.Links = s.describeLinks(ctx, *in.Links, rec)
	}

	kept, removed := splitAttachments(note.Attachments, in.KeepFiles)
	if len(kept)+len(in.Files) > constants.MaxUploadFiles {
		return nil, interrors.ErrTooManyFiles
	}
	added, err := s.storeUploads(ctx, in.Files, rec)
	if err != nil {
		return nil, err
	}
	note.Attachments = append(kept, added...)

	s.embed(ctx, note, rec)

	if err := s.store.Update(note); err != nil {
		s.removeFiles(added)
		return nil, err
	}
	s.removeFiles(removed)

	logger.Info("Updated note %d (degraded: %v)", note.ID, rec.steps)
	return &Result{Note: note, Degraded: rec.steps}, nil
}

// Delete removes the note and then its uploaded files. File removal is
// best effort.
func (s *NotesService) Delete(id int) error {
	note, err := s.store.GetByID(id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(id); err != nil {
		return err
	}
	s.removeFiles(note.Attachments)
	logger.Info("Deleted note %d", id)
	return nil
}

// Reindex recomputes every stored embedding. It returns how many notes were
// embedded and how many were left without a vector.
func (s *NotesService) Reindex(ctx context.Context) (embedded, failed int, err error) {
	notes, err := s.store.ListAll()
	if err != nil {
		return 0, 0, err
	}

	for _, note := range notes {
		if err := ctx.Err(); err != nil {
			return embedded, failed, err
		}
		out := s.enricher.Embed(ctx, search.SearchableText(note))
		if err := s.store.UpdateEmbedding(note.ID, out.Value); err != nil {
			return embedded, failed, fmt.Errorf("failed to store embedding for note %d: %w", note.ID, err)
		}
		if out.Degraded {
			failed++
			continue
		}
		embedded++
	}

	logger.Info("Reindexed %d notes (%d without embedding)", embedded, failed)
	return embedded, failed, nil
}

func (s *NotesService) embed(ctx context.Context, note *models.Note, rec *recorder) {
	out := s.enricher.Embed(ctx, search.SearchableText(note))
	rec.add("embedding", out.Degraded)
	note.Embedding = out.Value
}

// describeLinks drops links without a URL and asks the provider to describe
// the ones that have no description.
func (s *NotesService) describeLinks(ctx context.Context, links []models.Link, rec *recorder) []models.Link {
	out := make([]models.Link, 0, len(links))
	for _, l := range links {
		l.URL = strings.TrimSpace(l.URL)
		if l.URL == "" {
			continue
		}
		if l.Title == "" {
			l.Title = l.URL
		}
		if l.Description == "" {
			desc := s.enricher.DescribeLink(ctx, l.URL)
			rec.add("link:"+l.URL, desc.Degraded)
			l.Description = desc.Value
		}
		out = append(out, l)
	}
	return out
}

// storeUploads saves each upload and summarises the documents among them.
// On failure every file saved so far is removed.
func (s *NotesService) storeUploads(ctx context.Context, uploads []FileUpload, rec *recorder) ([]models.Attachment, error) {
	attachments := make([]models.Attachment, 0, len(uploads))
	for _, up := range uploads {
		att, err := s.files.Save(up.Name, up.MimeType, up.Reader)
		if err != nil {
			s.removeFiles(attachments)
			return nil, err
		}

		if extract.IsDocument(up.MimeType) {
			text := extract.Text(s.files.Path(att.Filename), up.MimeType)
			summary := s.enricher.FileSummary(ctx, up.Name, text)
			rec.add("file:"+up.Name, summary.Degraded)
			att.Summary = summary.Value
		}
		attachments = append(attachments, *att)
	}
	return attachments, nil
}

func (s *NotesService) removeFiles(attachments []models.Attachment) {
	for _, a := range attachments {
		if err := s.files.Remove(a.Filename); err != nil {
			logger.Warn("Failed to remove %s: %v", a.Filename, err)
		}
	}
}

func validateUploads(uploads []FileUpload) error {
	if len(uploads) > constants.MaxUploadFiles {
		return interrors.ErrTooManyFiles
	}
	for _, up := range uploads {
		if !extract.Allowed(up.MimeType) {
			return fmt.Errorf("%s (%s): %w", up.Name, up.MimeType, interrors.ErrUnsupportedFileType)
		}
	}
	return nil
}

// splitAttachments partitions existing attachments into those listed in keep
// and the rest. A nil keep list keeps everything.
func splitAttachments(existing []models.Attachment, keep *[]string) (kept, removed []models.Attachment) {
	if keep == nil {
		return existing, nil
	}
	names := make(map[string]bool, len(*keep))
	for _, n := range *keep {
		names[n] = true
	}
	for _, a := range existing {
		if names[a.Filename] {
			kept = append(kept, a)
		} else {
			removed = append(removed, a)
		}
	}
	return kept, removed
}

type recorder struct {
	steps []string
}

func (r *recorder) add(step string, degraded bool) {
	if degraded {
		r.steps = append(r.steps, step)
	}
}

func (s *NotesService) ProviderName() string {
	return s.enricher.ProviderName()
}
