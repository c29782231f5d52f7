package models

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	interrors "github.com/streed/smart-notes/internal/errors"
	"github.com/streed/smart-notes/internal/migrations"
)

func setupTestDB(t *testing.T) (*sql.DB, func()) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "test.db")

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := migrations.NewMigrationRunner(db).RunMigrations(); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	cleanup := func() {
		db.Close()
	}

	return db, cleanup
}

func createNote(t *testing.T, repo *NoteRepository, note *Note) *Note {
	t.Helper()
	if err := repo.Create(note); err != nil {
		t.Fatalf("Failed to create note: %v", err)
	}
	return note
}

func TestNewNoteRepository(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewNoteRepository(db)
	if repo == nil {
		t.Fatal("Expected non-nil repository")
	}
	if repo.db != db {
		t.Error("Repository should store database connection")
	}
}

func TestNoteRepositoryCreate(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewNoteRepository(db)
	note := createNote(t, repo, &Note{
		Content:   "Meeting notes",
		Summary:   StringPtr("A meeting."),
		Tags:      []string{"work", "meeting"},
		Links:     []Link{{Title: "Agenda", URL: "https://example.com/agenda", Description: "The agenda"}},
		Embedding: []float64{0.1, 0.2, 0.3},
		Attachments: []Attachment{
			{OriginalName: "a.pdf", Filename: "1-a.pdf", MimeType: "application/pdf", Size: 10, Path: "/uploads/1-a.pdf", Summary: "PDF summary"},
			{OriginalName: "b.png", Filename: "2-b.png", MimeType: "image/png", Size: 20, Path: "/uploads/2-b.png"},
		},
	})

	if note.ID == 0 {
		t.Error("Note should have a valid ID")
	}
	if note.CreatedAt.IsZero() || note.UpdatedAt.IsZero() {
		t.Error("Timestamps should be set")
	}
	if note.SummaryText() != "A meeting." {
		t.Errorf("Unexpected summary %q", note.SummaryText())
	}
	if len(note.Tags) != 2 || note.Tags[0] != "work" || note.Tags[1] != "meeting" {
		t.Errorf("Tags should keep their order, got %v", note.Tags)
	}
	if len(note.Links) != 1 || note.Links[0].URL != "https://example.com/agenda" {
		t.Errorf("Unexpected links %v", note.Links)
	}
	if len(note.Attachments) != 2 {
		t.Fatalf("Expected 2 attachments, got %d", len(note.Attachments))
	}
	if note.Attachments[0].Summary != "PDF summary" || note.Attachments[1].Summary != "" {
		t.Errorf("Attachment summaries not preserved: %+v", note.Attachments)
	}
	if len(note.Embedding) != 3 || note.Embedding[2] != 0.3 {
		t.Errorf("Embedding not preserved: %v", note.Embedding)
	}
}

func TestNoteRepositoryCreateWithoutEnrichment(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewNoteRepository(db)
	note := createNote(t, repo, &Note{Content: "bare"})

	if note.Summary != nil {
		t.Errorf("Summary should be absent, got %q", *note.Summary)
	}
	if note.Embedding != nil {
		t.Errorf("Embedding should be absent, got %v", note.Embedding)
	}
	if note.Tags == nil || note.Links == nil || note.Attachments == nil {
		t.Error("Collections should be empty, not nil")
	}
}

func TestNoteRepositoryGetByID_NotFound(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewNoteRepository(db)
	_, err := repo.GetByID(9999)
	if !errors.Is(err, interrors.ErrNoteNotFound) {
		t.Errorf("Expected ErrNoteNotFound, got %v", err)
	}
}

func TestNoteRepositoryListOrder(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewNoteRepository(db)
	for _, content := range []string{"first", "second", "third"} {
		createNote(t, repo, &Note{Content: content})
	}
	// Push the first note into the past so created_at decides the order
	if _, err := db.Exec("UPDATE notes SET created_at = '2020-01-01 00:00:00' WHERE content = 'first'"); err != nil {
		t.Fatal(err)
	}

	notes, err := repo.ListAll()
	if err != nil {
		t.Fatalf("Failed to list notes: %v", err)
	}

	want := []string{"third", "second", "first"}
	if len(notes) != len(want) {
		t.Fatalf("Expected %d notes, got %d", len(want), len(notes))
	}
	for i, content := range want {
		if notes[i].Content != content {
			t.Errorf("Position %d: expected %s, got %s", i, content, notes[i].Content)
		}
	}
}

func TestNoteRepositoryList(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewNoteRepository(db)
	for i := 0; i < 5; i++ {
		createNote(t, repo, &Note{Content: "Content", Tags: []string{"shared"}})
	}

	tests := []struct {
		name          string
		limit, offset int
		expected      int
	}{
		{"all", 0, 0, 5},
		{"limit", 3, 0, 3},
		{"limit and offset", 2, 4, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notes, err := repo.List(tt.limit, tt.offset)
			if err != nil {
				t.Fatalf("Failed to list notes: %v", err)
			}
			if len(notes) != tt.expected {
				t.Errorf("Expected %d notes, got %d", tt.expected, len(notes))
			}
			for _, n := range notes {
				if len(n.Tags) != 1 || n.Tags[0] != "shared" {
					t.Errorf("Note %d: tags not loaded, got %v", n.ID, n.Tags)
				}
			}
		})
	}
}

func TestNoteRepositoryUpdate(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewNoteRepository(db)
	note := createNote(t, repo, &Note{
		Content:     "Original",
		Tags:        []string{"old"},
		Embedding:   []float64{1, 0},
		Attachments: []Attachment{{OriginalName: "a.txt", Filename: "a.txt", MimeType: "text/plain", Path: "/uploads/a.txt"}},
	})

	note.Content = "Updated"
	note.Summary = StringPtr("New summary")
	note.Tags = []string{"new", "fresh"}
	note.Embedding = []float64{0, 1}
	note.Attachments = nil
	if err := repo.Update(note); err != nil {
		t.Fatalf("Failed to update note: %v", err)
	}

	reloaded, err := repo.GetByID(note.ID)
	if err != nil {
		t.Fatalf("Failed to reload note: %v", err)
	}
	if reloaded.Content != "Updated" || reloaded.SummaryText() != "New summary" {
		t.Errorf("Fields not updated: %+v", reloaded)
	}
	if len(reloaded.Tags) != 2 || reloaded.Tags[0] != "new" {
		t.Errorf("Tags should be replaced, got %v", reloaded.Tags)
	}
	if len(reloaded.Attachments) != 0 {
		t.Errorf("Attachments should be replaced, got %v", reloaded.Attachments)
	}
	if reloaded.Embedding[0] != 0 || reloaded.Embedding[1] != 1 {
		t.Errorf("Embedding should be replaced, got %v", reloaded.Embedding)
	}
}

func TestNoteRepositoryUpdateNotFound(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewNoteRepository(db)
	err := repo.Update(&Note{ID: 42, Content: "ghost"})
	if !errors.Is(err, interrors.ErrNoteNotFound) {
		t.Errorf("Expected ErrNoteNotFound, got %v", err)
	}
}

func TestNoteRepositoryUpdateEmbedding(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewNoteRepository(db)
	note := createNote(t, repo, &Note{Content: "x", Embedding: []float64{1, 2}})

	if err := repo.UpdateEmbedding(note.ID, nil); err != nil {
		t.Fatalf("Failed to clear embedding: %v", err)
	}
	reloaded, _ := repo.GetByID(note.ID)
	if reloaded.Embedding != nil {
		t.Errorf("Embedding should be cleared, got %v", reloaded.Embedding)
	}

	if err := repo.UpdateEmbedding(9999, []float64{1}); !errors.Is(err, interrors.ErrNoteNotFound) {
		t.Errorf("Expected ErrNoteNotFound, got %v", err)
	}
}

func TestNoteRepositoryMalformedEmbedding(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewNoteRepository(db)
	note := createNote(t, repo, &Note{Content: "broken"})
	if _, err := db.Exec("UPDATE notes SET embedding = 'not-json' WHERE id = ?", note.ID); err != nil {
		t.Fatal(err)
	}

	notes, err := repo.ListAll()
	if err != nil {
		t.Fatalf("Listing must not fail on a malformed embedding: %v", err)
	}
	if len(notes) != 1 {
		t.Fatalf("Expected 1 note, got %d", len(notes))
	}
	if notes[0].Embedding != nil {
		t.Error("Malformed embedding should decode to nil")
	}
	if notes[0].EmbeddingErr == nil {
		t.Error("Malformed embedding should be flagged")
	}
}

func TestNoteRepositoryToggleFavorite(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewNoteRepository(db)
	note := createNote(t, repo, &Note{Content: "fav"})

	toggled, err := repo.ToggleFavorite(note.ID)
	if err != nil {
		t.Fatalf("Failed to toggle favorite: %v", err)
	}
	if !toggled.Favorite {
		t.Error("Note should be favorite after first toggle")
	}

	toggled, err = repo.ToggleFavorite(note.ID)
	if err != nil {
		t.Fatalf("Failed to toggle favorite: %v", err)
	}
	if toggled.Favorite {
		t.Error("Note should not be favorite after second toggle")
	}

	if _, err := repo.ToggleFavorite(9999); !errors.Is(err, interrors.ErrNoteNotFound) {
		t.Errorf("Expected ErrNoteNotFound, got %v", err)
	}
}

func TestNoteRepositoryDelete(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewNoteRepository(db)
	note := createNote(t, repo, &Note{
		Content:     "to delete",
		Tags:        []string{"gone"},
		Links:       []Link{{URL: "https://example.com"}},
		Attachments: []Attachment{{OriginalName: "a.txt", Filename: "a.txt", MimeType: "text/plain", Path: "/uploads/a.txt"}},
	})

	if err := repo.Delete(note.ID); err != nil {
		t.Fatalf("Failed to delete note: %v", err)
	}

	if _, err := repo.GetByID(note.ID); !errors.Is(err, interrors.ErrNoteNotFound) {
		t.Errorf("Expected ErrNoteNotFound after delete, got %v", err)
	}

	for _, table := range []string{"note_tags", "note_links", "note_attachments"} {
		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
			t.Fatal(err)
		}
		if count != 0 {
			t.Errorf("%s should be empty after cascade delete, got %d rows", table, count)
		}
	}

	if err := repo.Delete(note.ID); !errors.Is(err, interrors.ErrNoteNotFound) {
		t.Errorf("Expected ErrNoteNotFound on second delete, got %v", err)
	}
}

func TestNoteRepositorySearch(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewNoteRepository(db)
	createNote(t, repo, &Note{Content: "Buy milk and eggs"})
	createNote(t, repo, &Note{Content: "Quarterly report", Summary: StringPtr("Finance numbers for Q3")})
	createNote(t, repo, &Note{Content: "Weekend plans", Tags: []string{"Hiking"}})
	createNote(t, repo, &Note{Content: "Grade: 100% done"})
	createNote(t, repo, &Note{Content: "Café ÉCOLE notes", Tags: []string{"Straße"}})

	tests := []struct {
		query    string
		expected []string
	}{
		{"milk", []string{"Buy milk and eggs"}},
		{"MILK", []string{"Buy milk and eggs"}},
		{"finance", []string{"Quarterly report"}},
		{"hiking", []string{"Weekend plans"}},
		{"nothing-matches", nil},
		{"%", []string{"Grade: 100% done"}},
		{"100%", []string{"Grade: 100% done"}},
		{"_", nil},
		{"m_lk", nil},
		{"école", []string{"Café ÉCOLE notes"}},
		{"CAFÉ", []string{"Café ÉCOLE notes"}},
		{"STRASSE", nil},
		{"straße", []string{"Café ÉCOLE notes"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			notes, err := repo.Search(tt.query)
			if err != nil {
				t.Fatalf("Search failed: %v", err)
			}
			if len(notes) != len(tt.expected) {
				t.Fatalf("Expected %d results, got %d", len(tt.expected), len(notes))
			}
			for i, content := range tt.expected {
				if notes[i].Content != content {
					t.Errorf("Result %d: expected %q, got %q", i, content, notes[i].Content)
				}
			}
		})
	}
}

func TestNoteRepositoryQueryError(t *testing.T) {
	db, cleanup := setupTestDB(t)
	repo := NewNoteRepository(db)
	cleanup()

	if _, err := repo.Search("milk"); !errors.Is(err, interrors.ErrDatabaseQuery) {
		t.Errorf("Expected ErrDatabaseQuery on a closed database, got %v", err)
	}
	if _, err := repo.List(10, 0); !errors.Is(err, interrors.ErrDatabaseQuery) {
		t.Errorf("Expected ErrDatabaseQuery from List, got %v", err)
	}
}

func TestNoteRepositoryCount(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewNoteRepository(db)
	for i := 0; i < 3; i++ {
		createNote(t, repo, &Note{Content: "n"})
	}
	count, err := repo.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3, got %d", count)
	}
}
