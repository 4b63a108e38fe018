// A fake agent backend for tests: canned envelope responses plus a real
// event-stream endpoint tests can push frames into.

package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// FakeBackend stands in for the remote conversion service.
type FakeBackend struct {
	Server *httptest.Server

	mu       sync.Mutex
	frames   chan string
	InitErr  bool // when set, /api/init answers with a failure envelope
	LastInit struct {
		Provider string
		APIKey   string
	}
}

// NewFakeBackend starts a fake backend and registers its shutdown with t.
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()

	fb := &FakeBackend{frames: make(chan string, 64)}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"status":"ok","message":"ConvertAgent Backend is running","version":"1.2.0"}`)
	})
	mux.HandleFunc("/api/init", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		fb.mu.Lock()
		fb.LastInit.Provider = r.FormValue("provider")
		fb.LastInit.APIKey = r.FormValue("api_key")
		initErr := fb.InitErr
		fb.mu.Unlock()
		if initErr {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"success":false,"error":"invalid api key"}`)
			return
		}
		fmt.Fprint(w, `{"success":true,"message":"agent ready"}`)
	})
	mux.HandleFunc("/api/providers", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":"openai","name":"OpenAI","default":true},{"id":"deepseek","name":"DeepSeek"}]`)
	})
	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"initialized":true,"ready":true}`)
	})
	mux.HandleFunc("/api/process-with-template", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"success":false,"error":"expected multipart form"}`)
			return
		}
		fmt.Fprint(w, `{"success":true,"message":"conversion finished","result":{"output_path":"/files/out.docx","summary":"converted"}}`)
	})
	mux.HandleFunc("/api/analyze-template", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":true,"message":"analyzed","result":{"structure":{"headings":2}}}`)
	})
	mux.HandleFunc("/api/process-structured", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":true,"message":"structured conversion finished","result":{"output_path":"/files/out.md"}}`)
	})
	mux.HandleFunc("/api/progress", func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, ": ok\n\n")
		flusher.Flush()
		for {
			select {
			case <-r.Context().Done():
				return
			case frame := <-fb.frames:
				fmt.Fprintf(w, "data: %s\n\n", frame)
				flusher.Flush()
			}
		}
	})

	fb.Server = httptest.NewServer(mux)
	t.Cleanup(fb.Server.Close)
	return fb
}

// URL returns the fake backend's origin.
func (fb *FakeBackend) URL() string {
	return fb.Server.URL
}

// PushFrame sends one raw frame to every connected progress-stream client.
func (fb *FakeBackend) PushFrame(frame string) {
	fb.frames <- frame
}
