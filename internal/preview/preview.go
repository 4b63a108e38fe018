// Client-side file preview: quick renderings of uploaded files so the
// user can confirm they picked the right template and content before
// submitting. Real document conversion stays on the backend; everything
// here is best-effort display.

package preview

import (
	"context"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	"github.com/aliveriver/ConvertAgent/internal/markdown"
	"github.com/aliveriver/ConvertAgent/internal/models"
	"github.com/aliveriver/ConvertAgent/internal/uploads"
)

// Previews larger than this are cut off; the pane shows the head of the
// document, not the whole thing.
const maxTextPreview = 64 * 1024

// Generate renders a preview for one stored upload, dispatching on its
// file extension.
func Generate(ctx context.Context, file *models.UploadedFile) (*models.PreviewResult, error) {
	switch strings.ToLower(filepath.Ext(file.Name)) {
	case ".md", ".markdown":
		return markdownPreview(file.Path)
	case ".txt", ".text", ".log":
		return textPreview(file.Path)
	case ".html", ".htm":
		return htmlPreview(file.Path)
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
		return imagePreview(file.Path)
	case ".pdf":
		return pdfPreview(file.Path)
	case ".docx":
		return docxPreview(file.Path)
	case ".zip":
		return bundlePreview(ctx, file.Path)
	default:
		return nil, fmt.Errorf("no preview available for %s", file.Name)
	}
}

func readHead(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) > maxTextPreview {
		data = data[:maxTextPreview]
	}
	return string(data), nil
}

func markdownPreview(path string) (*models.PreviewResult, error) {
	src, err := readHead(path)
	if err != nil {
		return nil, err
	}
	return &models.PreviewResult{Type: "markdown", Content: markdown.Render(src)}, nil
}

func textPreview(path string) (*models.PreviewResult, error) {
	src, err := readHead(path)
	if err != nil {
		return nil, err
	}
	return &models.PreviewResult{Type: "text", Content: html.EscapeString(src)}, nil
}

func bundlePreview(ctx context.Context, path string) (*models.PreviewResult, error) {
	names, err := uploads.BundleFiles(ctx, path)
	if err != nil {
		return nil, err
	}
	return &models.PreviewResult{Type: "bundle", Files: names}, nil
}
