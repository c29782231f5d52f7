package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"
)

// docxText returns the text runs of word/document.xml, one paragraph per line.
func docxText(p string) (string, error) {
	return zipText(p, func(name string) bool { return name == "word/document.xml" }, "t", "p")
}

// zipText walks the matching XML parts of an OOXML archive and collects the
// character data of textElem elements. A newline is written after every
// breakElem.
func zipText(p string, match func(string) bool, textElem, breakElem string) (string, error) {
	r, err := zip.OpenReader(p)
	if err != nil {
		return "", fmt.Errorf("failed to open archive: %w", err)
	}
	defer r.Close()

	files := make([]*zip.File, 0, len(r.File))
	for _, f := range r.File {
		if match(f.Name) {
			files = append(files, f)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	var sb strings.Builder
	for _, f := range files {
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("failed to open %s: %w", f.Name, err)
		}
		err = collectText(rc, &sb, textElem, breakElem)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("failed to parse %s: %w", f.Name, err)
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

func collectText(r io.Reader, sb *strings.Builder, textElem, breakElem string) error {
	dec := xml.NewDecoder(r)
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == textElem {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case textElem:
				inText = false
			case breakElem:
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
}
