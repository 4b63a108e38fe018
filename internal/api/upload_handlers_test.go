package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aliveriver/ConvertAgent/internal/models"
	"github.com/aliveriver/ConvertAgent/internal/testutil"
	"github.com/aliveriver/ConvertAgent/internal/uploads"
)

func TestHandleUpload(t *testing.T) {
	server, _, _ := testutil.SetupTestServer(t)
	router := server.Router()

	t.Run("Success", func(t *testing.T) {
		req := newMultipartRequest(t, "/api/uploads",
			map[string]string{"role": uploads.RoleTemplate},
			map[string][2]string{"file": {"report template.docx", "template bytes"}})
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if status := rr.Code; status != http.StatusCreated {
			t.Fatalf("handler returned wrong status code: got %v want %v, body: %s", status, http.StatusCreated, rr.Body.String())
		}

		var rec models.UploadedFile
		if err := json.Unmarshal(rr.Body.Bytes(), &rec); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if rec.ID == "" {
			t.Error("Expected an upload ID")
		}
		if rec.Role != uploads.RoleTemplate {
			t.Errorf("Expected role %q, got %q", uploads.RoleTemplate, rec.Role)
		}
	})

	t.Run("Missing File Part", func(t *testing.T) {
		req := newMultipartRequest(t, "/api/uploads", map[string]string{"role": "file"}, nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if status := rr.Code; status != http.StatusBadRequest {
			t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
		}
	})
}

func TestHandleListUploads(t *testing.T) {
	server, app, _ := testutil.SetupTestServer(t)
	router := server.Router()

	t.Run("Empty", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/api/uploads", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if status := rr.Code; status != http.StatusOK {
			t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
		}
		if body := strings.TrimSpace(rr.Body.String()); body != "[]" {
			t.Errorf("Expected an empty JSON array, got %s", body)
		}
	})

	t.Run("With Files", func(t *testing.T) {
		if _, err := app.Uploads().Save(uploads.RoleContent, "notes.md", strings.NewReader("# hi")); err != nil {
			t.Fatalf("Failed to seed upload: %v", err)
		}

		req, _ := http.NewRequest("GET", "/api/uploads", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		var files []*models.UploadedFile
		if err := json.Unmarshal(rr.Body.Bytes(), &files); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if len(files) != 1 {
			t.Fatalf("Expected 1 upload, got %d", len(files))
		}
		if files[0].Name != "notes.md" {
			t.Errorf("Expected file name 'notes.md', got %q", files[0].Name)
		}
	})
}

func TestHandlePreview(t *testing.T) {
	server, app, _ := testutil.SetupTestServer(t)
	router := server.Router()

	t.Run("Markdown", func(t *testing.T) {
		rec, err := app.Uploads().Save(uploads.RoleContent, "notes.md", strings.NewReader("# Title\n\nBody text."))
		if err != nil {
			t.Fatalf("Failed to seed upload: %v", err)
		}

		req, _ := http.NewRequest("GET", "/api/preview/"+rec.ID, nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if status := rr.Code; status != http.StatusOK {
			t.Fatalf("handler returned wrong status code: got %v want %v, body: %s", status, http.StatusOK, rr.Body.String())
		}

		var result models.PreviewResult
		if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if result.Type != "markdown" {
			t.Errorf("Expected preview type 'markdown', got %q", result.Type)
		}
		if !strings.Contains(result.Content, "<h1>Title</h1>") {
			t.Errorf("Expected rendered heading, got %q", result.Content)
		}
	})

	t.Run("Not Found", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/api/preview/no-such-id", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if status := rr.Code; status != http.StatusNotFound {
			t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusNotFound)
		}
	})
}
