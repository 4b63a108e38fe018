// Handlers for submitting conversions. Files are saved locally first so
// previews and history survive the browser tab, then forwarded to the
// backend; the outcome lands in the history store while live progress
// flows through the event stream relay.

package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/aliveriver/ConvertAgent/internal/agent"
	"github.com/aliveriver/ConvertAgent/internal/models"
	"github.com/aliveriver/ConvertAgent/internal/store"
	"github.com/aliveriver/ConvertAgent/internal/uploads"
)

const maxUploadMemory = 64 << 20 // 64 MB before spilling to disk

// saveFormFile stores one multipart file part in the uploads directory.
func (s *Server) saveFormFile(r *http.Request, field, role string) (*models.UploadedFile, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return s.app.Uploads().Save(role, header.Filename, file)
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	outputFormat := r.FormValue("output_format")
	if outputFormat == "" {
		RespondWithError(w, http.StatusBadRequest, "output_format is required")
		return
	}

	template, err := s.saveFormFile(r, "template_file", uploads.RoleTemplate)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "A template file is required")
		return
	}
	content, err := s.saveFormFile(r, "content_file", uploads.RoleContent)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "A content file is required")
		return
	}

	job := &models.JobRecord{
		ID:           uuid.New().String(),
		TemplateName: template.Name,
		ContentName:  content.Name,
		OutputFormat: outputFormat,
		Instruction:  r.FormValue("additional_instruction"),
	}
	if err := s.store.CreateJob(job); err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to record job")
		return
	}

	if err := s.store.SetSetting(store.SettingDefaultFormat, outputFormat); err != nil {
		log.Printf("Failed to persist default format: %v", err)
	}

	// Open the progress stream before the work starts so no events are
	// missed; this is also the reconnect point after a transport fault.
	if err := s.app.Progress().EnsureRunning(context.Background()); err != nil {
		log.Printf("Progress stream unavailable: %v", err)
	}

	go s.runConversion(job.ID, agent.ProcessRequest{
		TemplatePath: template.Path,
		ContentPath:  content.Path,
		OutputFormat: outputFormat,
		Instruction:  job.Instruction,
	})

	RespondWithJSON(w, http.StatusAccepted, job)
}

// runConversion drives one submission against the backend and records the
// outcome. It runs detached from the HTTP request that started it.
func (s *Server) runConversion(jobID string, req agent.ProcessRequest) {
	if err := s.store.MarkJobRunning(jobID); err != nil {
		log.Printf("Failed to mark job %s running: %v", jobID, err)
	}

	result, err := s.app.Agent().ProcessWithTemplate(context.Background(), req)
	if err != nil {
		log.Printf("Conversion %s failed: %v", jobID, err)
		if err := s.store.FinishJob(jobID, models.JobStatusFailed, err.Error(), ""); err != nil {
			log.Printf("Failed to record job %s failure: %v", jobID, err)
		}
		return
	}

	if err := s.store.FinishJob(jobID, models.JobStatusCompleted, result.Summary, result.OutputPath); err != nil {
		log.Printf("Failed to record job %s result: %v", jobID, err)
	}
}

func (s *Server) handleAnalyzeTemplate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	template, err := s.saveFormFile(r, "template_file", uploads.RoleTemplate)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "A template file is required")
		return
	}

	result, err := s.app.Agent().AnalyzeTemplate(r.Context(), template.Path)
	if err != nil {
		RespondWithError(w, http.StatusBadGateway, err.Error())
		return
	}
	RespondWithJSON(w, http.StatusOK, result)
}

func (s *Server) handleConvertStructured(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	outputFormat := r.FormValue("output_format")
	rawStructure := r.FormValue("structure")
	if outputFormat == "" || rawStructure == "" {
		RespondWithError(w, http.StatusBadRequest, "output_format and structure are required")
		return
	}

	var structure any
	if err := json.Unmarshal([]byte(rawStructure), &structure); err != nil {
		RespondWithError(w, http.StatusBadRequest, "structure must be valid JSON")
		return
	}

	content, err := s.saveFormFile(r, "content_file", uploads.RoleContent)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "A content file is required")
		return
	}

	if err := s.app.Progress().EnsureRunning(context.Background()); err != nil {
		log.Printf("Progress stream unavailable: %v", err)
	}

	result, err := s.app.Agent().ProcessStructured(r.Context(), agent.StructuredRequest{
		ContentPath:  content.Path,
		OutputFormat: outputFormat,
		Structure:    structure,
		Instruction:  r.FormValue("additional_instruction"),
	})
	if err != nil {
		RespondWithError(w, http.StatusBadGateway, err.Error())
		return
	}
	RespondWithJSON(w, http.StatusOK, result)
}
