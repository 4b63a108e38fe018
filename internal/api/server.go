// It defines the API server, sets up the routes (endpoints)
// using chi, and links them to the handler functions.

package api

import (
	"io"
	"io/fs"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aliveriver/ConvertAgent/internal/assets"
	"github.com/aliveriver/ConvertAgent/internal/core"
	"github.com/aliveriver/ConvertAgent/internal/store"
)

// Server holds the dependencies for our API.
type Server struct {
	app   *core.App
	store *store.Store
}

// NewServer creates a new Server instance.
func NewServer(app *core.App) *Server {
	return &Server{
		app:   app,
		store: app.Store(),
	}
}

// Router sets up and returns the main router for the application.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)    // Logs requests to the console
	r.Use(middleware.Recoverer) // Recovers from panics
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/api", func(r chi.Router) {
		r.Get("/version", s.handleGetVersion)
		r.Get("/config", s.handleGetConfig)

		// Agent backend passthrough
		r.Post("/agent/init", s.handleAgentInit)
		r.Get("/agent/providers", s.handleAgentProviders)
		r.Get("/agent/status", s.handleAgentStatus)

		// Conversion
		r.Post("/convert", s.handleConvert)
		r.Post("/convert/structured", s.handleConvertStructured)
		r.Post("/analyze", s.handleAnalyzeTemplate)

		// Progress
		r.Get("/progress/state", s.handleGetProgressState)
		r.Post("/progress/reset", s.handleResetProgress)

		// Uploads & preview
		r.Get("/uploads", s.handleListUploads)
		r.Post("/uploads", s.handleUpload)
		r.Get("/preview/{fileID}", s.handlePreview)

		// History
		r.Get("/history", s.handleListHistory)
		r.Delete("/history/{jobID}", s.handleDeleteHistory)

		// Background job triggers
		r.Get("/jobs/status", s.handleGetJobsStatus)
		r.Post("/jobs/run", s.handleRunJob)
	})

	// WebSocket route
	r.Get("/ws/progress", func(w http.ResponseWriter, r *http.Request) {
		s.app.WsHub().ServeWs(w, r)
	})

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		if err := s.app.DB().Ping(); err != nil {
			RespondWithError(w, http.StatusServiceUnavailable, "Database connection failed")
			return
		}
		RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Frontend Routes
	webSubFS, err := fs.Sub(assets.WebFS, "web")
	if err != nil {
		log.Fatalf("Failed to create web sub-filesystem: %v", err)
	}

	staticFS, err := fs.Sub(webSubFS, "static")
	if err != nil {
		log.Fatalf("Failed to create static sub-filesystem: %v", err)
	}

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	// This handler serves a specific HTML file from the embedded FS.
	serveHTML := func(fileName string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			file, err := webSubFS.Open(fileName)
			if err != nil {
				http.NotFound(w, r)
				log.Printf("Error serving embedded file %s: %v", fileName, err)
				return
			}
			http.ServeContent(w, r, fileName, time.Time{}, file.(io.ReadSeeker))
		}
	}

	r.Get("/", serveHTML("index.html"))

	return r
}

func (s *Server) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string]string{"version": s.app.Version()})
}

// handleGetConfig exposes the values the single-page UI needs at startup.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	provider, err := s.store.GetSetting(store.SettingProvider)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to read settings")
		return
	}
	format, err := s.store.GetSetting(store.SettingDefaultFormat)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to read settings")
		return
	}

	RespondWithJSON(w, http.StatusOK, map[string]any{
		"backend_origin": s.app.Config().Backend.Origin,
		"output_formats": []string{"word", "markdown", "latex"},
		"provider":       provider,
		"default_format": format,
	})
}
