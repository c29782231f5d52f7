// Package extract pulls plain text out of uploaded files so it can be
// summarised.
package extract

import (
	"os"
	"strings"
	"sync"

	"github.com/unidoc/unipdf/v3/common/license"

	"github.com/streed/smart-notes/internal/constants"
	"github.com/streed/smart-notes/internal/logger"
)

const (
	MimePDF  = "application/pdf"
	MimeDOC  = "application/msword"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeXLS  = "application/vnd.ms-excel"
	MimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MimePPT  = "application/vnd.ms-powerpoint"
	MimePPTX = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	MimeText = "text/plain"
	MimeMD   = "text/markdown"
)

// PresentationText is returned for slide decks, which are not parsed.
const PresentationText = "PowerPoint presentation file."

var allowed = map[string]bool{
	MimePDF: true, MimeDOC: true, MimeDOCX: true,
	MimeXLS: true, MimeXLSX: true,
	MimePPT: true, MimePPTX: true,
	MimeText: true, MimeMD: true,
}

var documents = map[string]bool{
	MimePDF: true, MimeDOCX: true, MimeXLSX: true, MimePPTX: true,
	MimeText: true, MimeMD: true,
}

// Allowed reports whether an upload of this type is accepted.
func Allowed(mime string) bool {
	mime = normalize(mime)
	return allowed[mime] || IsImage(mime)
}

// IsDocument reports whether text can be extracted and summarised.
func IsDocument(mime string) bool {
	return documents[normalize(mime)]
}

func IsImage(mime string) bool {
	return strings.HasPrefix(normalize(mime), "image/")
}

func normalize(mime string) string {
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return strings.ToLower(strings.TrimSpace(mime))
}

var licenseOnce sync.Once

// SetLicense registers a UniDoc metered key for PDF extraction. Without a
// key PDF extraction fails and yields no text.
func SetLicense(key string) {
	if key == "" {
		return
	}
	licenseOnce.Do(func() {
		if err := license.SetMeteredKey(key); err != nil {
			logger.Warn("Failed to set UniDoc license key: %v", err)
		}
	})
}

// Text returns up to ExtractLimit characters of text from the file at path.
// Unsupported types and parse failures return "".
func Text(path, mime string) string {
	var (
		text string
		err  error
	)

	switch normalize(mime) {
	case MimePDF:
		text, err = pdfText(path)
	case MimeDOCX:
		text, err = docxText(path)
	case MimeXLSX:
		text, err = xlsxText(path)
	case MimePPTX:
		return PresentationText
	case MimeText, MimeMD:
		var data []byte
		data, err = os.ReadFile(path)
		text = string(data)
	default:
		return ""
	}

	if err != nil {
		logger.Warn("Failed to extract text from %s: %v", path, err)
		return ""
	}
	return truncate(text, constants.ExtractLimit)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
