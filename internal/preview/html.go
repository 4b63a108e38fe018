package preview

import (
	"fmt"
	"html"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/aliveriver/ConvertAgent/internal/models"
)

// htmlPreview extracts the title and readable text from an HTML file
// rather than rendering untrusted markup into the page.
func htmlPreview(path string) (*models.PreviewResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style").Remove()

	var b strings.Builder
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		b.WriteString(title)
		b.WriteString("\n\n")
	}

	doc.Find("h1, h2, h3, h4, h5, h6, p, li").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text != "" {
			b.WriteString(text)
			b.WriteString("\n")
		}
	})

	text := b.String()
	if len(text) > maxTextPreview {
		text = text[:maxTextPreview]
	}
	return &models.PreviewResult{Type: "html", Content: html.EscapeString(text)}, nil
}
