// Handlers for the conversion history list.

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/aliveriver/ConvertAgent/internal/models"
	"github.com/aliveriver/ConvertAgent/internal/store"
)

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	jobs, err := s.store.ListJobs(limit)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to list history")
		return
	}
	if jobs == nil {
		jobs = []*models.JobRecord{}
	}
	RespondWithJSON(w, http.StatusOK, jobs)
}

func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	err := s.store.DeleteJob(jobID)
	if errors.Is(err, store.ErrJobNotFound) {
		RespondWithError(w, http.StatusNotFound, "Job not found")
		return
	}
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to delete job")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Job deleted"})
}
