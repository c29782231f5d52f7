package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	interrors "github.com/streed/smart-notes/internal/errors"
	"github.com/streed/smart-notes/internal/models"
)

func TestParseLinks(t *testing.T) {
	got := parseLinks([]string{
		"https://go.dev",
		"Docs=https://pkg.go.dev/net/http",
		"https://example.com/?q=a=b",
	})
	want := []models.Link{
		{URL: "https://go.dev"},
		{Title: "Docs", URL: "https://pkg.go.dev/net/http"},
		{URL: "https://example.com/?q=a=b"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseLinks() = %+v, want %+v", got, want)
	}
}

func TestParseNoteID(t *testing.T) {
	if id, err := parseNoteID("42"); err != nil || id != 42 {
		t.Errorf("parseNoteID(42) = %d, %v", id, err)
	}
	for _, bad := range []string{"abc", "0", "-3"} {
		if _, err := parseNoteID(bad); !errors.Is(err, interrors.ErrInvalidNoteID) {
			t.Errorf("parseNoteID(%q): expected ErrInvalidNoteID, got %v", bad, err)
		}
	}
}

func TestKeptFilenames(t *testing.T) {
	attachments := []models.Attachment{
		{OriginalName: "a.pdf", Filename: "1-x-a.pdf"},
		{OriginalName: "b.txt", Filename: "2-y-b.txt"},
		{OriginalName: "c.png", Filename: "3-z-c.png"},
	}

	keep, err := keptFilenames(attachments, []string{"b.txt", "3-z-c.png"})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(keep, []string{"1-x-a.pdf"}) {
		t.Errorf("Unexpected kept files %v", keep)
	}

	if _, err := keptFilenames(attachments, []string{"missing.doc"}); err == nil {
		t.Error("Expected an error for an unknown file")
	}
}

func TestOpenUploadsDetectsMimeType(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "list.txt")
	noExt := filepath.Join(dir, "README")
	if err := os.WriteFile(txt, []byte("milk"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(noExt, []byte("plain words"), 0644); err != nil {
		t.Fatal(err)
	}

	uploads, closeAll, err := openUploads([]string{txt, noExt})
	if err != nil {
		t.Fatal(err)
	}
	defer closeAll()

	if len(uploads) != 2 {
		t.Fatalf("Expected 2 uploads, got %d", len(uploads))
	}
	if uploads[0].Name != "list.txt" || uploads[0].MimeType != "text/plain; charset=utf-8" {
		t.Errorf("Unexpected upload %+v", uploads[0])
	}
	if uploads[1].MimeType != "text/plain; charset=utf-8" {
		t.Errorf("Expected sniffed text/plain, got %q", uploads[1].MimeType)
	}

	// the sniffed file is rewound
	buf := make([]byte, 5)
	if n, _ := uploads[1].Reader.Read(buf); string(buf[:n]) != "plain" {
		t.Errorf("Expected reader at start, read %q", buf[:n])
	}

	if _, _, err := openUploads([]string{filepath.Join(dir, "nope.txt")}); err == nil {
		t.Error("Expected an error for a missing file")
	}
}
