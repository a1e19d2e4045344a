package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/storage"
)

// HTTPClient implements DataSource by calling the LiftLog REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale). The server
// derives the user from the connection, so userID arguments are ignored.
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

// bucketToAgg maps MCP bucket values to REST API agg parameter values.
func bucketToAgg(bucket string) string {
	switch bucket {
	case "1 week":
		return "weekly"
	default:
		return "monthly"
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func timeParams(start, end time.Time) url.Values {
	v := url.Values{}
	v.Set("start", start.Format(time.RFC3339))
	v.Set("end", end.Format(time.RFC3339))
	return v
}

func (c *HTTPClient) QueryRecentSets(ctx context.Context, _ int, exerciseID string, limit int) ([]models.Set, error) {
	params := url.Values{}
	params.Set("exercise", exerciseID)
	params.Set("limit", strconv.Itoa(limit))

	var sets []models.Set
	if err := c.get(ctx, "/api/v1/sets/recent", params, &sets); err != nil {
		return nil, err
	}
	return sets, nil
}

func (c *HTTPClient) QueryWorkoutSets(ctx context.Context, start, end time.Time, _ int, exerciseID string) ([]models.Set, error) {
	params := timeParams(start, end)
	if exerciseID != "" {
		params.Set("exercise", exerciseID)
	}

	var sets []models.Set
	if err := c.get(ctx, "/api/v1/sets", params, &sets); err != nil {
		return nil, err
	}
	return sets, nil
}

func (c *HTTPClient) QueryWorkouts(ctx context.Context, start, end time.Time, _ int) ([]models.Workout, error) {
	var workouts []models.Workout
	if err := c.get(ctx, "/api/v1/workouts", timeParams(start, end), &workouts); err != nil {
		return nil, err
	}
	return workouts, nil
}

func (c *HTTPClient) GetTrainingSummary(ctx context.Context, start, end time.Time, bucket string, _ int) ([]storage.TrainingSummaryPeriod, error) {
	params := timeParams(start, end)
	params.Set("agg", bucketToAgg(bucket))

	var periods []storage.TrainingSummaryPeriod
	if err := c.get(ctx, "/api/v1/training/summary", params, &periods); err != nil {
		return nil, err
	}
	return periods, nil
}

func (c *HTTPClient) GetTrainingIntensity(ctx context.Context, start, end time.Time, _ int, exerciseID string) (*storage.TrainingIntensityResult, error) {
	params := timeParams(start, end)
	if exerciseID != "" {
		params.Set("exercise", exerciseID)
	}

	var result storage.TrainingIntensityResult
	if err := c.get(ctx, "/api/v1/training/intensity", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
