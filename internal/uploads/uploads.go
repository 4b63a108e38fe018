// Local storage for files the user uploads through the UI. Files are kept
// on disk so previews and resubmissions don't depend on the browser still
// holding the original, and pruned on a retention schedule.

package uploads

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aliveriver/ConvertAgent/internal/models"
)

// Roles a stored file can have, mirroring the form fields the backend
// expects.
const (
	RoleTemplate = "template"
	RoleContent  = "content"
	RoleFile     = "file"
)

// Service stores uploads under a single directory. Stored names are
// "<id>_<role>_<original name>" so the directory itself is the index.
type Service struct {
	dir string
}

// New creates the uploads directory if needed and returns a service for it.
func New(dir string) (*Service, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}
	return &Service{dir: dir}, nil
}

// Dir returns the directory uploads are stored in.
func (s *Service) Dir() string {
	return s.dir
}

// Save writes one uploaded file to disk and returns its record.
func (s *Service) Save(role, filename string, r io.Reader) (*models.UploadedFile, error) {
	switch role {
	case RoleTemplate, RoleContent, RoleFile:
	default:
		return nil, fmt.Errorf("unknown upload role %q", role)
	}

	id := uuid.New().String()
	name := sanitizeName(filename)
	path := filepath.Join(s.dir, fmt.Sprintf("%s_%s_%s", id, role, name))

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload file: %w", err)
	}
	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	return &models.UploadedFile{
		ID:         id,
		Name:       name,
		Role:       role,
		Path:       path,
		Size:       size,
		UploadedAt: time.Now(),
	}, nil
}

// Resolve finds a stored upload by its ID.
func (s *Service) Resolve(id string) (*models.UploadedFile, error) {
	files, err := s.List()
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if f.ID == id {
			return f, nil
		}
	}
	return nil, fmt.Errorf("upload %s not found", id)
}

// List returns all stored uploads, newest first.
func (s *Service) List() ([]*models.UploadedFile, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read uploads directory: %w", err)
	}

	var files []*models.UploadedFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		rec, ok := parseStoredName(entry.Name())
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		rec.Path = filepath.Join(s.dir, entry.Name())
		rec.Size = info.Size()
		rec.UploadedAt = info.ModTime()
		files = append(files, rec)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].UploadedAt.After(files[j].UploadedAt)
	})
	return files, nil
}

// CleanupOlderThan removes uploads whose files have not been touched for
// the given duration. Returns the number of files removed.
func (s *Service) CleanupOlderThan(maxAge time.Duration) (int, error) {
	files, err := s.List()
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, f := range files {
		if f.UploadedAt.After(cutoff) {
			continue
		}
		if err := os.Remove(f.Path); err != nil {
			log.Printf("Failed to remove expired upload %s: %v", f.Path, err)
			continue
		}
		removed++
	}
	return removed, nil
}

// sanitizeName strips path components and characters that would break the
// stored-name encoding.
func sanitizeName(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = strings.ReplaceAll(name, "_", "-")
	if name == "" || name == "." || name == "/" {
		name = "upload"
	}
	return name
}

// parseStoredName splits "<id>_<role>_<name>" back into a record.
func parseStoredName(stored string) (*models.UploadedFile, bool) {
	parts := strings.SplitN(stored, "_", 3)
	if len(parts) != 3 {
		return nil, false
	}
	if _, err := uuid.Parse(parts[0]); err != nil {
		return nil, false
	}
	return &models.UploadedFile{ID: parts[0], Role: parts[1], Name: parts[2]}, true
}
