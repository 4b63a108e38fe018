// HTTP client for the agent backend. The backend does the actual AI
// document work; this client only moves requests and files to it and
// decodes its response envelope.

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aliveriver/ConvertAgent/internal/models"
)

// Client talks to one agent backend instance.
type Client struct {
	client *http.Client
	origin string
}

// New creates a client for the backend at the given origin.
func New(origin string) *Client {
	return &Client{
		// Conversions can run for minutes; the timeout covers hangs, not work.
		client: &http.Client{Timeout: 10 * time.Minute},
		origin: strings.TrimRight(origin, "/"),
	}
}

// Origin returns the backend origin this client is bound to.
func (c *Client) Origin() string {
	return c.origin
}

// envelope is the backend's uniform response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Result  json.RawMessage `json:"result"`
}

// Init hands the chosen provider and API key to the backend so it can set
// up its agent. Keys are sent, never stored here.
func (c *Client) Init(ctx context.Context, provider, apiKey string) error {
	form := url.Values{}
	form.Set("api_key", apiKey)
	if provider != "" {
		form.Set("provider", provider)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.origin+"/api/init", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	_, err = c.do(req)
	return err
}

// Providers lists the AI providers the backend supports.
func (c *Client) Providers(ctx context.Context) ([]models.ProviderInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.origin+"/api/providers", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("backend returned status %s", resp.Status)
	}

	var providers []models.ProviderInfo
	if err := json.NewDecoder(resp.Body).Decode(&providers); err != nil {
		return nil, fmt.Errorf("failed to decode provider list: %w", err)
	}
	return providers, nil
}

// Status reports whether the backend agent is initialized and ready.
func (c *Client) Status(ctx context.Context) (*models.BackendStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.origin+"/api/status", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var status models.BackendStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode backend status: %w", err)
	}
	return &status, nil
}

// ProcessRequest carries one template conversion submission.
type ProcessRequest struct {
	TemplatePath string
	ContentPath  string
	OutputFormat string
	Instruction  string
}

// ProcessWithTemplate submits a template + content pair for conversion.
// Progress arrives on the backend's event stream, not on this call; the
// response only confirms the final outcome.
func (c *Client) ProcessWithTemplate(ctx context.Context, r ProcessRequest) (*models.ProcessResult, error) {
	fields := map[string]string{
		"output_format":          r.OutputFormat,
		"additional_instruction": r.Instruction,
	}
	files := map[string]string{
		"template_file": r.TemplatePath,
		"content_file":  r.ContentPath,
	}
	return c.postMultipart(ctx, "/api/process-with-template", fields, files)
}

// AnalyzeTemplate asks the backend to describe a template's structure.
func (c *Client) AnalyzeTemplate(ctx context.Context, templatePath string) (*models.ProcessResult, error) {
	return c.postMultipart(ctx, "/api/analyze-template", nil, map[string]string{
		"template_file": templatePath,
	})
}

// StructuredRequest carries a structured-generation submission: content
// plus an already-analyzed template structure.
type StructuredRequest struct {
	ContentPath  string
	OutputFormat string
	Structure    any
	Instruction  string
}

// ProcessStructured submits content against a previously analyzed
// template structure.
func (c *Client) ProcessStructured(ctx context.Context, r StructuredRequest) (*models.ProcessResult, error) {
	structure, err := json.Marshal(r.Structure)
	if err != nil {
		return nil, fmt.Errorf("failed to encode template structure: %w", err)
	}
	fields := map[string]string{
		"output_format":          r.OutputFormat,
		"structure":              string(structure),
		"additional_instruction": r.Instruction,
	}
	return c.postMultipart(ctx, "/api/process-structured", fields, map[string]string{
		"content_file": r.ContentPath,
	})
}

// postMultipart builds a multipart form of fields plus file parts and
// posts it to the backend.
func (c *Client) postMultipart(ctx context.Context, path string, fields map[string]string, files map[string]string) (*models.ProcessResult, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeMultipart(mw, fields, files)
		mw.Close()
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.origin+path, pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	env, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var result models.ProcessResult
	if len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, &result); err != nil {
			// Older backends return the result as a bare string.
			var s string
			if err2 := json.Unmarshal(env.Result, &s); err2 != nil {
				return nil, fmt.Errorf("failed to decode result: %w", err)
			}
			result.Summary = s
		}
	}
	if result.Summary == "" {
		result.Summary = env.Message
	}
	return &result, nil
}

func writeMultipart(mw *multipart.Writer, fields map[string]string, files map[string]string) error {
	for name, value := range fields {
		if value == "" {
			continue
		}
		if err := mw.WriteField(name, value); err != nil {
			return err
		}
	}
	for name, path := range files {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		part, err := mw.CreateFormFile(name, filepath.Base(path))
		if err != nil {
			f.Close()
			return err
		}
		_, err = io.Copy(part, f)
		f.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// do executes a request and unwraps the backend envelope, turning
// unsuccessful responses into errors carrying the backend's message.
func (c *Client) do(req *http.Request) (*envelope, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("backend returned status %s with unreadable body", resp.Status)
	}

	if resp.StatusCode >= 400 || !env.Success {
		msg := env.Error
		if msg == "" {
			msg = env.Message
		}
		if msg == "" {
			msg = resp.Status
		}
		return nil, fmt.Errorf("backend error: %s", msg)
	}
	return &env, nil
}
