package presetgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/gatekeeper/internal/domain/preset"
	"github.com/okian/gatekeeper/internal/domain/types"
	"github.com/okian/gatekeeper/pkg/logger"
)

// HTTPClient wraps http.Client with timeout.
type HTTPClient struct {
	client *http.Client
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{Timeout: timeout},
	}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with a JSON body.
func (c *HTTPClient) Post(ctx context.Context, url string, body any) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()
	return io.ReadAll(resp.Body)
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	resp, err := client.Get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if _, err := readResponseBody(resp); err != nil {
		return fmt.Errorf("failed to read health response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// submitPreset posts the preset and returns the resulting build report.
func submitPreset(ctx context.Context, config *Config, p preset.Preset) (types.BuildReport, error) {
	client := newHTTPClient(config.Timeout)

	resp, err := client.Post(ctx, config.BaseURL+"/profiles", map[string]any{"preset": p})
	if err != nil {
		return types.BuildReport{}, fmt.Errorf("failed to submit preset: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return types.BuildReport{}, fmt.Errorf("failed to read build response: %w", err)
	}
	if resp.StatusCode != http.StatusCreated {
		return types.BuildReport{}, fmt.Errorf("profile build failed with status %d: %s", resp.StatusCode, string(body))
	}

	var report types.BuildReport
	if err := json.Unmarshal(body, &report); err != nil {
		return types.BuildReport{}, fmt.Errorf("failed to parse build response: %w", err)
	}
	return report, nil
}

// evaluateHoldout scores one held-out fingerprint against the profile.
func evaluateHoldout(ctx context.Context, config *Config, profileID string, holdout preset.Entry) (float64, error) {
	client := newHTTPClient(config.Timeout)

	url := config.BaseURL + "/profiles/" + profileID + "/evaluate"
	resp, err := client.Post(ctx, url, map[string]any{
		"track": map[string]any{"label": holdout.Source, "fingerprint": holdout},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to submit candidate: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return 0, fmt.Errorf("failed to read evaluation response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("evaluation failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		MatchScore float64 `json:"match_score"`
		Narrative  string  `json:"narrative"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return 0, fmt.Errorf("failed to parse evaluation response: %w", err)
	}

	if config.Verbose && result.Narrative != "" {
		logger.Get().Info(ctx, "evaluation narrative", logger.String("narrative", result.Narrative))
	}
	return result.MatchScore, nil
}
