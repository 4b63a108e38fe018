package models

import "time"

// Job statuses recorded in the history store.
const (
	JobStatusQueued    = "queued"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// JobRecord is one conversion request as persisted in history.
type JobRecord struct {
	ID             string     `json:"id"`
	TemplateName   string     `json:"template_name"`
	ContentName    string     `json:"content_name"`
	OutputFormat   string     `json:"output_format"`
	Instruction    string     `json:"instruction,omitempty"`
	Status         string     `json:"status"`
	ResultMessage  string     `json:"result_message,omitempty"`
	ResultFileLink string     `json:"result_file_link,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
}

// UploadedFile describes one file saved into the local uploads directory.
type UploadedFile struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`      // original filename
	Role       string    `json:"role"`      // "template", "content" or "file"
	Path       string    `json:"path"`      // path on disk
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}
