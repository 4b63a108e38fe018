package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Health mirrors the backend's root health payload.
type Health struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Version string `json:"version"`
}

// Health checks that the backend is reachable and returns its health
// payload.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.origin+"/", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend unreachable at %s: %w", c.origin, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("backend health check returned status %s", resp.Status)
	}

	var h Health
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return nil, fmt.Errorf("failed to decode health payload: %w", err)
	}
	return &h, nil
}

// CheckCompatibility verifies the backend version against a minimum
// semver. Backends that do not report a version pass the check; the API
// surface predates version reporting.
func (c *Client) CheckCompatibility(ctx context.Context, minVersion string) error {
	h, err := c.Health(ctx)
	if err != nil {
		return err
	}
	if h.Version == "" || minVersion == "" {
		return nil
	}

	got, err := semver.NewVersion(strings.TrimPrefix(h.Version, "v"))
	if err != nil {
		return fmt.Errorf("backend reported invalid version %q: %w", h.Version, err)
	}
	min, err := semver.NewVersion(strings.TrimPrefix(minVersion, "v"))
	if err != nil {
		return fmt.Errorf("invalid minimum version %q: %w", minVersion, err)
	}

	if got.LessThan(min) {
		return fmt.Errorf("backend version %s is older than required %s", h.Version, minVersion)
	}
	return nil
}
