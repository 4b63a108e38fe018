package testutil

import (
	"path/filepath"
	"testing"

	"github.com/aliveriver/ConvertAgent/internal/api"
	"github.com/aliveriver/ConvertAgent/internal/config"
	"github.com/aliveriver/ConvertAgent/internal/core"
)

// SetupTestApp wires a full App against a temp database, a temp uploads
// directory, and the given backend origin. Cleanup runs through t.
func SetupTestApp(t *testing.T, backendOrigin string) *core.App {
	t.Helper()

	cfg := &config.Config{Port: 0}
	cfg.Backend.Origin = backendOrigin
	cfg.Backend.MinVersion = "1.0.0"
	cfg.Database.Path = filepath.Join(t.TempDir(), "test.db")
	cfg.Uploads.Path = t.TempDir()
	cfg.Uploads.RetentionDays = 7
	cfg.Uploads.CleanupHours = 6

	app, err := core.NewWithConfig(cfg, "test")
	if err != nil {
		t.Fatalf("Failed to set up test app: %v", err)
	}
	t.Cleanup(app.Close)
	return app
}

// SetupTestServer wires an API server against a fake backend. It returns
// the server, the underlying app, and the backend for canned responses
// and pushed progress frames.
func SetupTestServer(t *testing.T) (*api.Server, *core.App, *FakeBackend) {
	t.Helper()

	backend := NewFakeBackend(t)
	app := SetupTestApp(t, backend.URL())
	return api.NewServer(app), app, backend
}
