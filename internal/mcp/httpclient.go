package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ggfincke/swimmate/internal/models"
	"github.com/ggfincke/swimmate/internal/storage"
	"github.com/google/uuid"
)

// HTTPClient implements DataSource by calling the SwimMate REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	return body, nil
}

func timeParams(start, end time.Time) url.Values {
	v := url.Values{}
	v.Set("start", start.Format(time.RFC3339))
	v.Set("end", end.Format(time.RFC3339))
	return v
}

func (c *HTTPClient) QuerySwims(ctx context.Context, start, end time.Time) ([]storage.SwimSummary, error) {
	body, err := c.get(ctx, "/api/v1/swims", timeParams(start, end))
	if err != nil {
		return nil, err
	}

	var swims []storage.SwimSummary
	if err := json.Unmarshal(body, &swims); err != nil {
		return nil, fmt.Errorf("httpclient: decode swims: %w", err)
	}
	return swims, nil
}

func (c *HTTPClient) GetSwim(ctx context.Context, id uuid.UUID) (*models.Swim, error) {
	body, err := c.get(ctx, "/api/v1/swims/"+id.String(), nil)
	if err != nil {
		return nil, err
	}

	var swim models.Swim
	if err := json.Unmarshal(body, &swim); err != nil {
		return nil, fmt.Errorf("httpclient: decode swim: %w", err)
	}
	return &swim, nil
}

func (c *HTTPClient) GetSwimStats(ctx context.Context, start, end time.Time) (*storage.SwimStats, error) {
	body, err := c.get(ctx, "/api/v1/stats", timeParams(start, end))
	if err != nil {
		return nil, err
	}

	var stats storage.SwimStats
	if err := json.Unmarshal(body, &stats); err != nil {
		return nil, fmt.Errorf("httpclient: decode stats: %w", err)
	}
	return &stats, nil
}

func (c *HTTPClient) QuerySetTemplates(ctx context.Context) ([]models.SetMessage, error) {
	body, err := c.get(ctx, "/api/v1/sets", nil)
	if err != nil {
		return nil, err
	}

	var templates []models.SetMessage
	if err := json.Unmarshal(body, &templates); err != nil {
		return nil, fmt.Errorf("httpclient: decode set templates: %w", err)
	}
	return templates, nil
}
