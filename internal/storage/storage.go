// Package storage keeps uploaded files on local disk.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/streed/smart-notes/internal/constants"
	interrors "github.com/streed/smart-notes/internal/errors"
	"github.com/streed/smart-notes/internal/logger"
	"github.com/streed/smart-notes/internal/models"
)

// Store writes uploads under a single directory that is served at /uploads/.
type Store struct {
	dir      string
	maxBytes int64
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, constants.DirMode); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}
	return &Store{dir: dir, maxBytes: constants.MaxUploadBytes}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// Save copies r to a new uniquely named file and returns the attachment
// describing it. Files over the size limit are removed and rejected.
func (s *Store) Save(originalName, mimeType string, r io.Reader) (*models.Attachment, error) {
	filename := uniqueName(originalName)
	dst := filepath.Join(s.dir, filename)

	f, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, constants.UploadFileMode)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && n > s.maxBytes {
		err = fmt.Errorf("%s: %w", originalName, interrors.ErrFileTooLarge)
	}
	if err != nil {
		os.Remove(dst)
		return nil, err
	}

	logger.Debug("Stored upload %s (%d bytes) as %s", originalName, n, filename)
	return &models.Attachment{
		OriginalName: originalName,
		Filename:     filename,
		MimeType:     mimeType,
		Size:         n,
		Path:         constants.UploadsURLPath + filename,
	}, nil
}

// Path returns the on-disk location of a stored file.
func (s *Store) Path(filename string) string {
	return filepath.Join(s.dir, filepath.Base(filename))
}

// Remove deletes a stored file. Missing files are not an error.
func (s *Store) Remove(filename string) error {
	err := os.Remove(s.Path(filename))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove upload %s: %w", filename, err)
	}
	return nil
}

// uniqueName prefixes the sanitised original name with a timestamp and a
// random id.
func uniqueName(original string) string {
	base := filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "file"
	}
	return fmt.Sprintf("%d-%s-%s", time.Now().UnixMilli(), uuid.NewString()[:8], base)
}
