// Handlers for the local uploads list and file previews.

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aliveriver/ConvertAgent/internal/models"
	"github.com/aliveriver/ConvertAgent/internal/preview"
	"github.com/aliveriver/ConvertAgent/internal/uploads"
)

func (s *Server) handleListUploads(w http.ResponseWriter, r *http.Request) {
	files, err := s.app.Uploads().List()
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to list uploads")
		return
	}
	if files == nil {
		files = []*models.UploadedFile{}
	}
	RespondWithJSON(w, http.StatusOK, files)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	role := r.FormValue("role")
	if role == "" {
		role = uploads.RoleFile
	}

	rec, err := s.saveFormFile(r, "file", role)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "A file part is required")
		return
	}
	RespondWithJSON(w, http.StatusCreated, rec)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")

	file, err := s.app.Uploads().Resolve(fileID)
	if err != nil {
		RespondWithError(w, http.StatusNotFound, "Upload not found")
		return
	}

	result, err := preview.Generate(r.Context(), file)
	if err != nil {
		RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	RespondWithJSON(w, http.StatusOK, result)
}
