package models

// ProviderInfo identifies one AI provider offered by the agent backend.
type ProviderInfo struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Models  []string `json:"models,omitempty"`
	Default bool     `json:"default,omitempty"`
}

// BackendStatus mirrors the backend's /api/status payload.
type BackendStatus struct {
	Initialized bool `json:"initialized"`
	Ready       bool `json:"ready"`
}

// ProcessResult is the `result` object the backend returns for a
// completed conversion or template analysis.
type ProcessResult struct {
	OutputPath string `json:"output_path,omitempty"`
	Summary    string `json:"summary,omitempty"`
	Structure  any    `json:"structure,omitempty"`
}

// PreviewResult is what the preview service hands to the UI for one file.
type PreviewResult struct {
	Type    string   `json:"type"`              // "markdown", "text", "html", "image", "pdf", "docx", "bundle"
	Content string   `json:"content,omitempty"` // rendered HTML, extracted text, or data URI
	Files   []string `json:"files,omitempty"`   // bundle listing
}
