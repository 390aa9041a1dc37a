// Package consumption fetches Neon consumption history and aggregates it into
// daily usage records.
package consumption

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/j-veylop/neon-usage-tui/internal/logger"
	"github.com/j-veylop/neon-usage-tui/internal/models"
)

const (
	// DefaultBaseURL is the public Neon API v2 root.
	DefaultBaseURL = "https://console.neon.tech/api/v2"

	consumptionPath = "/consumption_history/v2/projects"
	projectsPath    = "/projects"

	// projectListLimit is the page size requested from the project list endpoint.
	projectListLimit = 400

	// maxResponseBytes bounds how much of an upstream body is read.
	maxResponseBytes = 32 << 20

	defaultTimeout = 30 * time.Second
)

// ClientConfig holds what the client needs to reach the billing API.
type ClientConfig struct {
	BaseURL   string
	APIKey    string
	UserAgent string
	Timeout   time.Duration
}

// APIError is returned when the billing API answers with a non-success status.
type APIError struct {
	Status     string
	Body       string
	StatusCode int
}

func (e *APIError) Error() string {
	status := e.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return "Neon API error: " + status
}

// Client talks to the Neon billing API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	userAgent  string
}

// NewClient creates a client. A nil httpClient gets one with cfg.Timeout.
func NewClient(cfg ClientConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		userAgent:  cfg.UserAgent,
	}
}

// ConsumptionQuery builds the query string of a consumption history request.
// Project ids are sorted so equal filters produce equal queries.
func ConsumptionQuery(orgID string, rng models.DateRange, projectIDs []string) url.Values {
	metrics := lo.Map(models.AllMetrics, func(m models.MetricName, _ int) string { return string(m) })

	params := url.Values{}
	params.Set("from", rng.FromParam())
	params.Set("to", rng.ToParam())
	params.Set("granularity", "daily")
	params.Set("org_id", orgID)
	params.Set("metrics", strings.Join(metrics, ","))

	ids := lo.Uniq(lo.Compact(projectIDs))
	if len(ids) > 0 {
		slices.Sort(ids)
		params.Set("project_ids", strings.Join(ids, ","))
	}
	return params
}

// ProjectsQuery builds the query string of a project list request.
func ProjectsQuery(orgID string) url.Values {
	params := url.Values{}
	params.Set("org_id", orgID)
	params.Set("limit", strconv.Itoa(projectListLimit))
	return params
}

// FetchConsumption retrieves the raw daily consumption history of the
// organization, optionally restricted to projectIDs.
func (c *Client) FetchConsumption(
	ctx context.Context, orgID string, rng models.DateRange, projectIDs []string,
) ([]byte, error) {
	return c.get(ctx, consumptionPath, ConsumptionQuery(orgID, rng, projectIDs))
}

type projectEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type projectsResponse struct {
	Projects []projectEntry `json:"projects"`
}

// FetchProjects lists the organization's projects, keeping only id and name.
func (c *Client) FetchProjects(ctx context.Context, orgID string) ([]models.Project, error) {
	body, err := c.get(ctx, projectsPath, ProjectsQuery(orgID))
	if err != nil {
		return nil, err
	}
	return ParseProjects(body)
}

// ParseProjects decodes a project list body.
func ParseProjects(body []byte) ([]models.Project, error) {
	var resp projectsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse projects response: %w", err)
	}

	projects := lo.Map(resp.Projects, func(p projectEntry, _ int) models.Project {
		return models.Project{ID: p.ID, Name: p.Name}
	})
	return projects, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	endpoint := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	return body, nil
}
