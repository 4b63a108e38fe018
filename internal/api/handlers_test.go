package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aliveriver/ConvertAgent/internal/store"
	"github.com/aliveriver/ConvertAgent/internal/testutil"
)

// newMultipartRequest builds a multipart POST with the given form fields
// and in-memory file parts (field name -> file name -> content).
func newMultipartRequest(t *testing.T, url string, fields map[string]string, files map[string][2]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatalf("Failed to write field %s: %v", name, err)
		}
	}
	for field, file := range files {
		part, err := writer.CreateFormFile(field, file[0])
		if err != nil {
			t.Fatalf("Failed to create file part %s: %v", field, err)
		}
		if _, err := io.WriteString(part, file[1]); err != nil {
			t.Fatalf("Failed to write file part %s: %v", field, err)
		}
	}
	writer.Close()

	req, _ := http.NewRequest("POST", url, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestHandleGetVersion(t *testing.T) {
	server, _, _ := testutil.SetupTestServer(t)
	router := server.Router()

	req, _ := http.NewRequest("GET", "/api/version", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if resp["version"] != "test" {
		t.Errorf("Expected version 'test', got %q", resp["version"])
	}
}

func TestHandleGetConfig(t *testing.T) {
	server, app, _ := testutil.SetupTestServer(t)
	router := server.Router()

	t.Run("Defaults", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/api/config", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if status := rr.Code; status != http.StatusOK {
			t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
		}

		var resp struct {
			BackendOrigin string   `json:"backend_origin"`
			OutputFormats []string `json:"output_formats"`
			Provider      string   `json:"provider"`
			DefaultFormat string   `json:"default_format"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if resp.BackendOrigin != app.Config().Backend.Origin {
			t.Errorf("Expected backend origin %q, got %q", app.Config().Backend.Origin, resp.BackendOrigin)
		}
		if len(resp.OutputFormats) == 0 {
			t.Error("Expected output formats to be listed")
		}
		if resp.Provider != "" || resp.DefaultFormat != "" {
			t.Errorf("Expected empty settings on a fresh database, got provider=%q format=%q", resp.Provider, resp.DefaultFormat)
		}
	})

	t.Run("Persisted Settings", func(t *testing.T) {
		if err := app.Store().SetSetting(store.SettingProvider, "openai"); err != nil {
			t.Fatalf("Failed to seed setting: %v", err)
		}
		if err := app.Store().SetSetting(store.SettingDefaultFormat, "markdown"); err != nil {
			t.Fatalf("Failed to seed setting: %v", err)
		}

		req, _ := http.NewRequest("GET", "/api/config", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		var resp map[string]any
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if resp["provider"] != "openai" {
			t.Errorf("Expected provider 'openai', got %v", resp["provider"])
		}
		if resp["default_format"] != "markdown" {
			t.Errorf("Expected default format 'markdown', got %v", resp["default_format"])
		}
	})
}

func TestHandleHealth(t *testing.T) {
	server, _, _ := testutil.SetupTestServer(t)
	router := server.Router()

	req, _ := http.NewRequest("GET", "/api/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}
}

func TestServeIndex(t *testing.T) {
	server, _, _ := testutil.SetupTestServer(t)
	router := server.Router()

	req, _ := http.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}
	if !bytes.Contains(rr.Body.Bytes(), []byte("<html")) {
		t.Error("Expected index page to contain HTML")
	}
}
