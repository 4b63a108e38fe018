package preview

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/aliveriver/ConvertAgent/internal/models"
)

// docxPreview extracts the paragraph text of a Word document. A .docx is
// a zip; the body lives in word/document.xml with runs of <w:t> text
// inside <w:p> paragraphs.
func docxPreview(path string) (*models.PreviewResult, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open docx: %w", err)
	}
	defer r.Close()

	var body io.ReadCloser
	for _, f := range r.File {
		if f.Name == "word/document.xml" {
			body, err = f.Open()
			if err != nil {
				return nil, fmt.Errorf("failed to open document body: %w", err)
			}
			break
		}
	}
	if body == nil {
		return nil, fmt.Errorf("not a Word document: missing document body")
	}
	defer body.Close()

	paragraphs, err := extractParagraphs(body)
	if err != nil {
		return nil, err
	}

	text := strings.Join(paragraphs, "\n\n")
	if len(text) > maxTextPreview {
		text = text[:maxTextPreview]
	}
	return &models.PreviewResult{Type: "docx", Content: html.EscapeString(text)}, nil
}

// extractParagraphs walks the XML token stream, collecting the character
// data of each <w:t> run and flushing a paragraph on each </w:p>.
func extractParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var paragraphs []string
	var current strings.Builder
	inText := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse document body: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if s := strings.TrimSpace(current.String()); s != "" {
					paragraphs = append(paragraphs, s)
				}
				current.Reset()
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}
	return paragraphs, nil
}
