package preview

import (
	"archive/zip"
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aliveriver/ConvertAgent/internal/models"
)

func uploadFixture(t *testing.T, name, content string) *models.UploadedFile {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	return &models.UploadedFile{ID: "test", Name: name, Path: path}
}

func TestMarkdownPreview(t *testing.T) {
	file := uploadFixture(t, "doc.md", "# Title\n\nSome **bold** text")

	result, err := Generate(context.Background(), file)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result.Type != "markdown" {
		t.Errorf("Expected type markdown, got %s", result.Type)
	}
	if !strings.Contains(result.Content, "<h1>Title</h1>") {
		t.Errorf("Expected rendered heading, got %q", result.Content)
	}
}

func TestTextPreview(t *testing.T) {
	file := uploadFixture(t, "notes.txt", "plain <text> here")

	result, err := Generate(context.Background(), file)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result.Type != "text" {
		t.Errorf("Expected type text, got %s", result.Type)
	}
	if strings.Contains(result.Content, "<text>") {
		t.Errorf("Text preview must escape markup, got %q", result.Content)
	}
}

func TestHTMLPreview(t *testing.T) {
	src := `<html><head><title>Quarterly Report</title><script>evil()</script></head>
<body><h1>Summary</h1><p>Revenue grew.</p></body></html>`
	file := uploadFixture(t, "page.html", src)

	result, err := Generate(context.Background(), file)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result.Type != "html" {
		t.Errorf("Expected type html, got %s", result.Type)
	}
	for _, want := range []string{"Quarterly Report", "Summary", "Revenue grew."} {
		if !strings.Contains(result.Content, want) {
			t.Errorf("Expected extracted text %q in %q", want, result.Content)
		}
	}
	if strings.Contains(result.Content, "evil()") {
		t.Errorf("Script content must be stripped, got %q", result.Content)
	}
}

func TestImagePreview(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode fixture image: %v", err)
	}
	file := uploadFixture(t, "pic.png", buf.String())

	result, err := Generate(context.Background(), file)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result.Type != "image" {
		t.Errorf("Expected type image, got %s", result.Type)
	}
	if !strings.HasPrefix(result.Content, "data:image/jpeg;base64,") {
		t.Errorf("Expected a data URI, got %q", result.Content[:min(40, len(result.Content))])
	}
}

func TestDocxPreview(t *testing.T) {
	documentXML := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
    <w:p></w:p>
  </w:body>
</w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, _ := zw.Create("word/document.xml")
	f.Write([]byte(documentXML))
	zw.Close()

	path := filepath.Join(t.TempDir(), "report.docx")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("Failed to write docx fixture: %v", err)
	}

	result, err := Generate(context.Background(), &models.UploadedFile{Name: "report.docx", Path: path})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result.Type != "docx" {
		t.Errorf("Expected type docx, got %s", result.Type)
	}
	if result.Content != "First paragraph.\n\nSecond paragraph." {
		t.Errorf("Unexpected extracted text: %q", result.Content)
	}
}

func TestBundlePreview(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range []string{"content.md", "images/a.png"} {
		f, _ := zw.Create(name)
		f.Write([]byte("x"))
	}
	zw.Close()

	path := filepath.Join(t.TempDir(), "bundle.zip")
	os.WriteFile(path, buf.Bytes(), 0644)

	result, err := Generate(context.Background(), &models.UploadedFile{Name: "bundle.zip", Path: path})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result.Type != "bundle" || len(result.Files) != 2 {
		t.Errorf("Unexpected bundle preview: %+v", result)
	}
}

func TestUnsupportedPreview(t *testing.T) {
	file := uploadFixture(t, "binary.exe", "MZ")
	if _, err := Generate(context.Background(), file); err == nil {
		t.Error("Expected an error for an unsupported type")
	}
}
