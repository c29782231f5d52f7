package api

import (
	"encoding/json"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/streed/smart-notes/internal/constants"
	interrors "github.com/streed/smart-notes/internal/errors"
	"github.com/streed/smart-notes/internal/models"
	"github.com/streed/smart-notes/internal/services"
)

// maxRequestBytes bounds a multipart body: every file at its limit plus
// room for the form fields.
const maxRequestBytes = constants.MaxUploadFiles*constants.MaxUploadBytes + 1<<20

const multipartMemory = 32 << 20

func (s *APIServer) parseIntParam(r *http.Request, param string) (int, error) {
	str, exists := mux.Vars(r)[param]
	if !exists {
		return 0, fmt.Errorf("missing parameter: %s", param)
	}
	id, err := strconv.Atoi(str)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s", interrors.ErrInvalidNoteID, str)
	}
	return id, nil
}

func parseNonNegative(r *http.Request, name string) (int, error) {
	str := r.URL.Query().Get(name)
	if str == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(str)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, str)
	}
	return n, nil
}

func toLinks(in []linkRequest) []models.Link {
	links := make([]models.Link, 0, len(in))
	for _, l := range in {
		links = append(links, models.Link{Title: l.Title, URL: l.URL, Description: l.Description})
	}
	return links
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// Handlers

func (s *APIServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":     "ok",
		"timestamp":  time.Now().Format(time.RFC3339),
		"sqlite_vec": s.db.VecVersion(),
		"provider":   s.services.Notes.ProviderName(),
	}

	if err := s.db.Ping(r.Context()); err != nil {
		health["status"] = "unhealthy"
		health["database_error"] = err.Error()
		s.writeJSON(w, http.StatusServiceUnavailable, health)
		return
	}

	s.writeJSON(w, http.StatusOK, health)
}

// handleListNotes returns every note newest first unless limit is given.
func (s *APIServer) handleListNotes(w http.ResponseWriter, r *http.Request) {
	limit, err := parseNonNegative(r, "limit")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	offset, err := parseNonNegative(r, "offset")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	notes, err := s.services.Notes.List(limit, offset)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, notes)
}

func (s *APIServer) handleGetNote(w http.ResponseWriter, r *http.Request) {
	id, err := s.parseIntParam(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	note, err := s.services.Notes.Get(id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, note)
}

// handleCreateNote accepts either a multipart form (content, links as a
// JSON array, files) or a JSON body without files.
func (s *APIServer) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var (
		input services.CreateInput
		form  *multipart.Form
	)

	if isMultipart(r) {
		var err error
		form, err = s.parseForm(w, r)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		defer form.RemoveAll()

		input.Content = formValue(form, "content")
		links, err := formLinks(form)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		if links != nil {
			input.Links = *links
		}
		uploads, closeAll, err := formUploads(form)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		defer closeAll()
		input.Files = uploads
	} else {
		var req CreateNoteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
			return
		}
		input.Content = req.Content
		input.Links = toLinks(req.Links)
	}

	res, err := s.services.Notes.Create(r.Context(), input)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeResult(w, http.StatusCreated, res)
}

// handleUpdateNote takes the same shapes as create. In a multipart form
// existingFiles lists the stored attachments to keep; fields that are absent
// are left unchanged.
func (s *APIServer) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	id, err := s.parseIntParam(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	var input services.UpdateInput

	if isMultipart(r) {
		form, err := s.parseForm(w, r)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		defer form.RemoveAll()

		if _, ok := form.Value["content"]; ok {
			content := formValue(form, "content")
			input.Content = &content
		}
		if input.Links, err = formLinks(form); err != nil {
			s.writeServiceError(w, err)
			return
		}
		if input.KeepFiles, err = formKeepFiles(form); err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		uploads, closeAll, err := formUploads(form)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		defer closeAll()
		input.Files = uploads
	} else {
		var req UpdateNoteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
			return
		}
		input.Content = req.Content
		input.KeepFiles = req.KeepFiles
		if req.Links != nil {
			links := toLinks(*req.Links)
			input.Links = &links
		}
	}

	res, err := s.services.Notes.Update(r.Context(), id, input)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeResult(w, http.StatusOK, res)
}

func (s *APIServer) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	id, err := s.parseIntParam(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.services.Notes.Delete(id); err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Note deleted successfully"})
}

func (s *APIServer) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := s.parseIntParam(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	note, err := s.services.Notes.ToggleFavorite(id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, note)
}

func (s *APIServer) handleKeywordSearch(w http.ResponseWriter, r *http.Request) {
	notes, err := s.services.Search.Keyword(mux.Vars(r)["query"])
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, notes)
}

// handleSemanticSearch answers 200 with an empty list when nothing matches
// and 500 when the query itself could not be embedded.
func (s *APIServer) handleSemanticSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}

	results, err := s.services.Search.Semantic(r.Context(), req.Query)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, results)
}

// Multipart helpers

func (s *APIServer) parseForm(w http.ResponseWriter, r *http.Request) (*multipart.Form, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, fmt.Errorf("invalid multipart form: %w", err)
	}
	return r.MultipartForm, nil
}

func formValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// formLinks decodes the links field. A missing field returns nil.
func formLinks(form *multipart.Form) (*[]models.Link, error) {
	raw, ok := form.Value["links"]
	if !ok || strings.TrimSpace(raw[0]) == "" {
		return nil, nil
	}
	var req []linkRequest
	if err := json.Unmarshal([]byte(raw[0]), &req); err != nil {
		return nil, fmt.Errorf("%w: %v", interrors.ErrInvalidLinks, err)
	}
	links := toLinks(req)
	return &links, nil
}

// formKeepFiles reads existingFiles, a JSON array of either stored
// filenames or attachment objects. A missing field keeps every file.
func formKeepFiles(form *multipart.Form) (*[]string, error) {
	raw, ok := form.Value["existingFiles"]
	if !ok {
		return nil, nil
	}
	keep := []string{}
	if strings.TrimSpace(raw[0]) == "" {
		return &keep, nil
	}

	if err := json.Unmarshal([]byte(raw[0]), &keep); err == nil {
		return &keep, nil
	}
	var attachments []models.Attachment
	if err := json.Unmarshal([]byte(raw[0]), &attachments); err != nil {
		return nil, fmt.Errorf("invalid existingFiles: %w", err)
	}
	keep = keep[:0]
	for _, a := range attachments {
		keep = append(keep, a.Filename)
	}
	return &keep, nil
}

// formUploads opens every file in the files field. The returned func closes
// them.
func formUploads(form *multipart.Form) ([]services.FileUpload, func(), error) {
	var headers []*multipart.FileHeader
	headers = append(headers, form.File["files"]...)
	headers = append(headers, form.File["files[]"]...)
	if len(headers) > constants.MaxUploadFiles {
		return nil, func() {}, interrors.ErrTooManyFiles
	}

	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}

	uploads := make([]services.FileUpload, 0, len(headers))
	for _, h := range headers {
		if h.Size > constants.MaxUploadBytes {
			closeAll()
			return nil, func() {}, fmt.Errorf("%s: %w", h.Filename, interrors.ErrFileTooLarge)
		}
		f, err := h.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("failed to open upload %s: %w", h.Filename, err)
		}
		opened = append(opened, f)
		uploads = append(uploads, services.FileUpload{
			Name:     h.Filename,
			MimeType: uploadMimeType(h),
			Reader:   f,
		})
	}
	return uploads, closeAll, nil
}

// uploadMimeType prefers the part's declared type and falls back to the
// file extension.
func uploadMimeType(h *multipart.FileHeader) string {
	ct := h.Header.Get("Content-Type")
	if ct != "" && ct != "application/octet-stream" {
		return ct
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(h.Filename))); byExt != "" {
		return byExt
	}
	return ct
}
