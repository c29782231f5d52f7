package models

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	interrors "github.com/streed/smart-notes/internal/errors"
	"github.com/streed/smart-notes/internal/logger"
	"github.com/streed/smart-notes/internal/vector"
)

const noteColumns = "id, content, summary, embedding, favorite, created_at, updated_at"

// NoteRepository persists notes and their tags, links and attachments.
type NoteRepository struct {
	db *sql.DB
}

func NewNoteRepository(db *sql.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanNote(row rowScanner) (*Note, error) {
	var (
		note      Note
		summary   sql.NullString
		embedding sql.NullString
	)
	if err := row.Scan(&note.ID, &note.Content, &summary, &embedding, &note.Favorite, &note.CreatedAt, &note.UpdatedAt); err != nil {
		return nil, err
	}
	if summary.Valid {
		note.Summary = StringPtr(summary.String)
	}
	if embedding.Valid {
		v, err := vector.Decode(embedding.String)
		if err != nil {
			logger.Warn("Note %d has a malformed stored embedding: %v", note.ID, err)
			note.EmbeddingErr = err
		}
		note.Embedding = v
	}
	note.Tags = []string{}
	note.Links = []Link{}
	note.Attachments = []Attachment{}
	return &note, nil
}

func nullString(s *string) interface{} {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

func encodeEmbedding(v []float64) (interface{}, error) {
	encoded, err := vector.Encode(v)
	if err != nil {
		return nil, err
	}
	if encoded == "" {
		return nil, nil
	}
	return encoded, nil
}

// Create inserts the note with its children and reloads it.
func (r *NoteRepository) Create(note *Note) error {
	embedding, err := encodeEmbedding(note.Embedding)
	if err != nil {
		return err
	}

	err = r.inTx(func(tx *sql.Tx) error {
		result, err := tx.Exec(
			"INSERT INTO notes (content, summary, embedding, favorite) VALUES (?, ?, ?, ?)",
			note.Content, nullString(note.Summary), embedding, note.Favorite,
		)
		if err != nil {
			return fmt.Errorf("failed to create note: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get insert id: %w", err)
		}
		note.ID = int(id)
		return writeChildren(tx, note)
	})
	if err != nil {
		return err
	}

	return r.refresh(note)
}

func (r *NoteRepository) GetByID(id int) (*Note, error) {
	note, err := scanNote(r.db.QueryRow("SELECT "+noteColumns+" FROM notes WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, interrors.ErrNoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get note: %w", err)
	}

	if err := r.loadChildren([]*Note{note}); err != nil {
		return nil, err
	}
	return note, nil
}

// ListAll returns every note, newest first. Notes created in the same
// second are ordered by descending id.
func (r *NoteRepository) ListAll() ([]*Note, error) {
	return r.List(0, 0)
}

func (r *NoteRepository) List(limit, offset int) ([]*Note, error) {
	query := "SELECT " + noteColumns + " FROM notes ORDER BY created_at DESC, id DESC"
	args := []interface{}{}

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
		if offset > 0 {
			query += " OFFSET ?"
			args = append(args, offset)
		}
	}

	return r.queryNotes(query, args...)
}

// Search returns the notes whose content, summary or tag names contain the
// query as a literal substring, ignoring case. Newest first.
//
// Matching runs in Go: SQLite's LOWER only folds ASCII and LIKE would treat
// % and _ in the query as wildcards.
func (r *NoteRepository) Search(query string) ([]*Note, error) {
	notes, err := r.ListAll()
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	matches := []*Note{}
	for _, note := range notes {
		if note.contains(needle) {
			matches = append(matches, note)
		}
	}
	return matches, nil
}

// Update rewrites the note row and replaces its children.
func (r *NoteRepository) Update(note *Note) error {
	embedding, err := encodeEmbedding(note.Embedding)
	if err != nil {
		return err
	}

	err = r.inTx(func(tx *sql.Tx) error {
		result, err := tx.Exec(
			`UPDATE notes SET content = ?, summary = ?, embedding = ?, favorite = ?,
			 updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			note.Content, nullString(note.Summary), embedding, note.Favorite, note.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update note: %w", err)
		}
		if err := requireAffected(result); err != nil {
			return err
		}
		for _, table := range []string{"note_tags", "note_links", "note_attachments"} {
			if _, err := tx.Exec("DELETE FROM "+table+" WHERE note_id = ?", note.ID); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		return writeChildren(tx, note)
	})
	if err != nil {
		return err
	}

	return r.refresh(note)
}

// UpdateEmbedding replaces the stored vector. A nil vector clears it.
func (r *NoteRepository) UpdateEmbedding(id int, embedding []float64) error {
	encoded, err := encodeEmbedding(embedding)
	if err != nil {
		return err
	}
	result, err := r.db.Exec("UPDATE notes SET embedding = ? WHERE id = ?", encoded, id)
	if err != nil {
		return fmt.Errorf("failed to update embedding: %w", err)
	}
	return requireAffected(result)
}

// ToggleFavorite flips the favorite flag and returns the updated note.
func (r *NoteRepository) ToggleFavorite(id int) (*Note, error) {
	result, err := r.db.Exec(
		"UPDATE notes SET favorite = NOT favorite, updated_at = CURRENT_TIMESTAMP WHERE id = ?", id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle favorite: %w", err)
	}
	if err := requireAffected(result); err != nil {
		return nil, err
	}
	return r.GetByID(id)
}

// Delete removes the note. Tags, links, attachments and the embedding go with it.
func (r *NoteRepository) Delete(id int) error {
	result, err := r.db.Exec("DELETE FROM notes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	return requireAffected(result)
}

func (r *NoteRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM notes").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count notes: %w", err)
	}
	return count, nil
}

func (r *NoteRepository) refresh(note *Note) error {
	updated, err := r.GetByID(note.ID)
	if err != nil {
		return err
	}
	*note = *updated
	return nil
}

func (r *NoteRepository) queryNotes(query string, args ...interface{}) ([]*Note, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", interrors.ErrDatabaseQuery, err)
	}

	notes := []*Note{}
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	rows.Close()

	if err := r.loadChildren(notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// loadChildren fills tags, links and attachments for the given notes with
// one query per child table.
func (r *NoteRepository) loadChildren(notes []*Note) error {
	if len(notes) == 0 {
		return nil
	}

	byID := make(map[int]*Note, len(notes))
	ids := make([]interface{}, 0, len(notes))
	for _, n := range notes {
		byID[n.ID] = n
		ids = append(ids, n.ID)
	}
	in := "(" + strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",") + ")"

	err := r.eachRow(`
		SELECT nt.note_id, t.name FROM note_tags nt
		JOIN tags t ON t.id = nt.tag_id
		WHERE nt.note_id IN `+in+` ORDER BY nt.note_id, nt.position`, ids,
		func(rows *sql.Rows) error {
			var noteID int
			var name string
			if err := rows.Scan(&noteID, &name); err != nil {
				return err
			}
			byID[noteID].Tags = append(byID[noteID].Tags, name)
			return nil
		})
	if err != nil {
		return fmt.Errorf("failed to load tags: %w", err)
	}

	err = r.eachRow(`
		SELECT note_id, title, url, description FROM note_links
		WHERE note_id IN `+in+` ORDER BY note_id, position`, ids,
		func(rows *sql.Rows) error {
			var noteID int
			var link Link
			if err := rows.Scan(&noteID, &link.Title, &link.URL, &link.Description); err != nil {
				return err
			}
			byID[noteID].Links = append(byID[noteID].Links, link)
			return nil
		})
	if err != nil {
		return fmt.Errorf("failed to load links: %w", err)
	}

	err = r.eachRow(`
		SELECT note_id, id, original_name, filename, mime_type, file_size, file_path, summary
		FROM note_attachments WHERE note_id IN `+in+` ORDER BY note_id, position`, ids,
		func(rows *sql.Rows) error {
			var noteID int
			var a Attachment
			if err := rows.Scan(&noteID, &a.ID, &a.OriginalName, &a.Filename, &a.MimeType, &a.Size, &a.Path, &a.Summary); err != nil {
				return err
			}
			byID[noteID].Attachments = append(byID[noteID].Attachments, a)
			return nil
		})
	if err != nil {
		return fmt.Errorf("failed to load attachments: %w", err)
	}

	return nil
}

func (r *NoteRepository) eachRow(query string, args []interface{}, fn func(*sql.Rows) error) error {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (r *NoteRepository) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("Failed to rollback transaction: %v", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func writeChildren(tx *sql.Tx, note *Note) error {
	for pos, name := range note.Tags {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, err := tx.Exec("INSERT OR IGNORE INTO tags (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("failed to create tag: %w", err)
		}
		_, err := tx.Exec(
			`INSERT OR IGNORE INTO note_tags (note_id, tag_id, position)
			 SELECT ?, id, ? FROM tags WHERE name = ?`,
			note.ID, pos, name,
		)
		if err != nil {
			return fmt.Errorf("failed to tag note: %w", err)
		}
	}

	for pos, link := range note.Links {
		_, err := tx.Exec(
			"INSERT INTO note_links (note_id, position, title, url, description) VALUES (?, ?, ?, ?, ?)",
			note.ID, pos, link.Title, link.URL, link.Description,
		)
		if err != nil {
			return fmt.Errorf("failed to add link: %w", err)
		}
	}

	for pos, a := range note.Attachments {
		_, err := tx.Exec(
			`INSERT INTO note_attachments
			 (note_id, position, filename, original_name, mime_type, file_size, file_path, summary)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			note.ID, pos, a.Filename, a.OriginalName, a.MimeType, a.Size, a.Path, a.Summary,
		)
		if err != nil {
			return fmt.Errorf("failed to add attachment: %w", err)
		}
	}

	return nil
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return interrors.ErrNoteNotFound
	}
	return nil
}
