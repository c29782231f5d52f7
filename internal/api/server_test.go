package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/streed/smart-notes/internal/ai"
	"github.com/streed/smart-notes/internal/config"
	"github.com/streed/smart-notes/internal/database"
	"github.com/streed/smart-notes/internal/models"
	"github.com/streed/smart-notes/internal/services"
	"github.com/streed/smart-notes/internal/storage"
)

type fakeProvider struct {
	embedErr error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Generate(_ context.Context, _ ai.Prompt) (string, error) {
	return "groceries", nil
}

// Embed counts "milk" and "bread" in the text.
func (f *fakeProvider) Embed(_ context.Context, text string) ([]float64, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	lower := strings.ToLower(text)
	return []float64{
		float64(strings.Count(lower, "milk")),
		float64(strings.Count(lower, "bread")),
	}, nil
}

type envelope struct {
	Success  bool            `json:"success"`
	Data     json.RawMessage `json:"data"`
	Error    string          `json:"error"`
	Warnings []string        `json:"warnings"`
}

func setupTestServer(t *testing.T, provider *fakeProvider) http.Handler {
	t.Helper()
	tempDir := t.TempDir()
	cfg := &config.Config{
		DataDirectory:    tempDir,
		DatabasePath:     filepath.Join(tempDir, "test.db"),
		UploadsDirectory: filepath.Join(tempDir, "uploads"),
		Environment:      config.EnvDevelopment,
	}

	db, err := database.New(cfg)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	files, err := storage.New(cfg.GetUploadsDirectory())
	if err != nil {
		t.Fatalf("Failed to create upload store: %v", err)
	}

	svc := services.NewServices(cfg, models.NewNoteRepository(db.Conn()), files, provider)
	return NewAPIServer(cfg, db, svc).Handler()
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, decode(t, rec)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
		}
	}
	return env
}

func createNote(t *testing.T, h http.Handler, content string) models.Note {
	t.Helper()
	rec, env := do(t, h, "POST", "/api/notes", map[string]string{"content": content})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, env.Error)
	}
	var note models.Note
	if err := json.Unmarshal(env.Data, &note); err != nil {
		t.Fatal(err)
	}
	return note
}

func TestHealth(t *testing.T) {
	h := setupTestServer(t, &fakeProvider{})

	rec, env := do(t, h, "GET", "/api/health", nil)
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("Expected healthy response, got %d", rec.Code)
	}

	var health map[string]interface{}
	if err := json.Unmarshal(env.Data, &health); err != nil {
		t.Fatal(err)
	}
	if health["status"] != "ok" || health["provider"] != "fake" {
		t.Errorf("Unexpected health %v", health)
	}
	if v, _ := health["sqlite_vec"].(string); v == "" {
		t.Error("Expected sqlite-vec version in health")
	}
}

func TestNoteLifecycle(t *testing.T) {
	h := setupTestServer(t, &fakeProvider{})

	note := createNote(t, h, "Buy milk")
	if note.ID == 0 || note.SummaryText() != "groceries" {
		t.Fatalf("Unexpected created note %+v", note)
	}

	rec, env := do(t, h, "GET", "/api/notes", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("List failed with %d", rec.Code)
	}
	var notes []models.Note
	if err := json.Unmarshal(env.Data, &notes); err != nil {
		t.Fatal(err)
	}
	if len(notes) != 1 {
		t.Fatalf("Expected 1 note, got %d", len(notes))
	}

	path := "/api/notes/" + strconv.Itoa(note.ID)
	rec, env = do(t, h, "PUT", path, map[string]string{"content": "Buy bread"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Update failed with %d: %s", rec.Code, env.Error)
	}
	var updated models.Note
	if err := json.Unmarshal(env.Data, &updated); err != nil {
		t.Fatal(err)
	}
	if updated.Content != "Buy bread" {
		t.Errorf("Expected updated content, got %q", updated.Content)
	}

	rec, env = do(t, h, "PATCH", path+"/favorite", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Favorite failed with %d", rec.Code)
	}
	var fav models.Note
	if err := json.Unmarshal(env.Data, &fav); err != nil {
		t.Fatal(err)
	}
	if !fav.Favorite {
		t.Error("Expected note to be favorite")
	}

	if rec, _ = do(t, h, "DELETE", path, nil); rec.Code != http.StatusOK {
		t.Fatalf("Delete failed with %d", rec.Code)
	}
	if rec, _ = do(t, h, "GET", path, nil); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", rec.Code)
	}
}

func TestCreateNoteErrors(t *testing.T) {
	h := setupTestServer(t, &fakeProvider{})

	rec, env := do(t, h, "POST", "/api/notes", map[string]string{"content": "  "})
	if rec.Code != http.StatusBadRequest || env.Success {
		t.Errorf("Expected 400 for empty content, got %d", rec.Code)
	}

	req := httptest.NewRequest("POST", "/api/notes", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	bad := httptest.NewRecorder()
	h.ServeHTTP(bad, req)
	if bad.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid JSON, got %d", bad.Code)
	}
}

type formFile struct {
	name, mimeType, body string
}

func multipartRequest(t *testing.T, method, path string, fields map[string]string, files []formFile) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	for _, f := range files {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", `form-data; name="files"; filename="`+f.name+`"`)
		hdr.Set("Content-Type", f.mimeType)
		part, err := mw.CreatePart(hdr)
		if err != nil {
			t.Fatal(err)
		}
		part.Write([]byte(f.body))
	}
	mw.Close()

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestCreateNoteMultipart(t *testing.T) {
	h := setupTestServer(t, &fakeProvider{})

	req := multipartRequest(t, "POST", "/api/notes",
		map[string]string{
			"content": "Shopping list",
			"links":   `[{"title":"Shop","url":"https://shop.example.com","description":"A shop"}]`,
		},
		[]formFile{{"list.txt", "text/plain", "milk and bread"}},
	)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	env := decode(t, rec)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, env.Error)
	}

	var note models.Note
	if err := json.Unmarshal(env.Data, &note); err != nil {
		t.Fatal(err)
	}
	if len(note.Links) != 1 || note.Links[0].Description != "A shop" {
		t.Errorf("Unexpected links %v", note.Links)
	}
	if len(note.Attachments) != 1 {
		t.Fatalf("Expected 1 attachment, got %d", len(note.Attachments))
	}
	att := note.Attachments[0]
	if att.OriginalName != "list.txt" || att.Summary != "groceries" {
		t.Errorf("Unexpected attachment %+v", att)
	}

	get := httptest.NewRecorder()
	h.ServeHTTP(get, httptest.NewRequest("GET", att.Path, nil))
	if get.Code != http.StatusOK || get.Body.String() != "milk and bread" {
		t.Errorf("Expected uploaded file to be served, got %d %q", get.Code, get.Body.String())
	}
}

func TestCreateNoteMultipartErrors(t *testing.T) {
	h := setupTestServer(t, &fakeProvider{})

	tests := []struct {
		name   string
		fields map[string]string
		files  []formFile
	}{
		{"unsupported file", map[string]string{"content": "x"}, []formFile{{"a.zip", "application/zip", "zip"}}},
		{"invalid links", map[string]string{"content": "x", "links": "not json"}, nil},
		{"missing content", map[string]string{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, multipartRequest(t, "POST", "/api/notes", tt.fields, tt.files))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestUpdateNoteMultipartDropsFiles(t *testing.T) {
	h := setupTestServer(t, &fakeProvider{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, multipartRequest(t, "POST", "/api/notes",
		map[string]string{"content": "with file"},
		[]formFile{{"a.txt", "text/plain", "a"}},
	))
	var created models.Note
	if err := json.Unmarshal(decode(t, rec).Data, &created); err != nil {
		t.Fatal(err)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, multipartRequest(t, "PUT", "/api/notes/"+strconv.Itoa(created.ID),
		map[string]string{"existingFiles": "[]"},
		[]formFile{{"b.md", "text/markdown", "b"}},
	))
	env := decode(t, rec)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, env.Error)
	}
	var updated models.Note
	if err := json.Unmarshal(env.Data, &updated); err != nil {
		t.Fatal(err)
	}
	if updated.Content != "with file" {
		t.Errorf("Content should be unchanged, got %q", updated.Content)
	}
	if len(updated.Attachments) != 1 || updated.Attachments[0].OriginalName != "b.md" {
		t.Errorf("Expected only the new attachment, got %+v", updated.Attachments)
	}

	old := httptest.NewRecorder()
	h.ServeHTTP(old, httptest.NewRequest("GET", created.Attachments[0].Path, nil))
	if old.Code != http.StatusNotFound {
		t.Errorf("Dropped file should no longer be served, got %d", old.Code)
	}
}

type searchHit struct {
	ID         int    `json:"id"`
	Content    string `json:"content"`
	Similarity string `json:"similarity"`
}

func TestSemanticSearch(t *testing.T) {
	h := setupTestServer(t, &fakeProvider{})
	createNote(t, h, "Buy milk")
	createNote(t, h, "Buy bread")

	rec, env := do(t, h, "POST", "/api/notes/search", SearchRequest{Query: "milk"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, env.Error)
	}
	var hits []searchHit
	if err := json.Unmarshal(env.Data, &hits); err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Fatalf("Expected 2 hits, got %d", len(hits))
	}
	if hits[0].Content != "Buy milk" || hits[0].Similarity != "1.0000" {
		t.Errorf("Unexpected first hit %+v", hits[0])
	}
	if hits[1].Content != "Buy bread" || hits[1].Similarity != "0.0000" {
		t.Errorf("Unexpected second hit %+v", hits[1])
	}
}

func TestSemanticSearchStatusCodes(t *testing.T) {
	tests := []struct {
		name     string
		provider *fakeProvider
		query    string
		want     int
	}{
		{"empty query", &fakeProvider{}, "   ", http.StatusBadRequest},
		{"embedding failure", &fakeProvider{embedErr: errors.New("down")}, "milk", http.StatusInternalServerError},
		{"no notes", &fakeProvider{}, "milk", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := setupTestServer(t, tt.provider)
			rec, env := do(t, h, "POST", "/api/notes/search", SearchRequest{Query: tt.query})
			if rec.Code != tt.want {
				t.Fatalf("Expected %d, got %d", tt.want, rec.Code)
			}
			if tt.want == http.StatusOK {
				if string(env.Data) != "[]" {
					t.Errorf("Expected an empty list, got %s", env.Data)
				}
			} else if env.Error == "" {
				t.Error("Expected an error message")
			}
		})
	}
}

func TestKeywordSearch(t *testing.T) {
	h := setupTestServer(t, &fakeProvider{})
	createNote(t, h, "Buy milk")
	createNote(t, h, "Walk the dog")

	rec, env := do(t, h, "GET", "/api/notes/search/MILK", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var notes []models.Note
	if err := json.Unmarshal(env.Data, &notes); err != nil {
		t.Fatal(err)
	}
	if len(notes) != 1 || notes[0].Content != "Buy milk" {
		t.Errorf("Unexpected results %+v", notes)
	}
}

func TestCORS(t *testing.T) {
	h := setupTestServer(t, &fakeProvider{})

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"http://localhost:5173", true},
		{"http://localhost:3000", true},
		{"https://smart-notes-preview.vercel.app", true},
		{"http://smart-notes-preview.vercel.app", false},
		{"https://vercel.app.evil.example.com", false},
		{"https://evil.example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/health", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			got := rec.Header().Get("Access-Control-Allow-Origin")
			if tt.allowed && got != tt.origin {
				t.Errorf("Expected origin to be allowed, got %q", got)
			}
			if !tt.allowed && got != "" {
				t.Errorf("Expected origin to be blocked, got %q", got)
			}
		})
	}
}
