package geomaps

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/eventshow/eventshow/config"
)

// Distancer resolves travel distances between a user's location and
// event locations.
type Distancer interface {
	Distances(ctx context.Context, origin string, destinations []string) ([]int64, error)
}

// Unreachable marks destinations the maps API could not route to.
const Unreachable = int64(1<<62 - 1)

// Client talks to the distance-matrix API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg *config.MapsConfig) *Client {
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type matrixResponse struct {
	Status string `json:"status"`
	Rows   []struct {
		Elements []struct {
			Status   string `json:"status"`
			Distance struct {
				Value int64 `json:"value"`
			} `json:"distance"`
		} `json:"elements"`
	} `json:"rows"`
}

// Distances returns meters from origin to each destination, in order.
// Destinations that cannot be routed come back as Unreachable.
func (c *Client) Distances(ctx context.Context, origin string, destinations []string) ([]int64, error) {
	if len(destinations) == 0 {
		return nil, nil
	}

	params := url.Values{}
	params.Set("origins", origin)
	params.Set("destinations", strings.Join(destinations, "|"))
	params.Set("key", c.apiKey)

	endpoint := c.baseURL + "/distancematrix/json?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("maps API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("maps API error: %s", resp.Status)
	}

	var matrix matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&matrix); err != nil {
		return nil, fmt.Errorf("maps API returned invalid response: %w", err)
	}

	if matrix.Status != "OK" || len(matrix.Rows) == 0 {
		return nil, fmt.Errorf("maps API status: %s", matrix.Status)
	}

	elements := matrix.Rows[0].Elements
	distances := make([]int64, len(destinations))
	for i := range distances {
		if i >= len(elements) || elements[i].Status != "OK" {
			distances[i] = Unreachable
			continue
		}
		distances[i] = elements[i].Distance.Value
	}

	return distances, nil
}

// NoopDistancer reports every destination as unreachable, used when the
// maps integration is disabled. Callers fall back to unranked results.
type NoopDistancer struct{}

func (NoopDistancer) Distances(ctx context.Context, origin string, destinations []string) ([]int64, error) {
	distances := make([]int64, len(destinations))
	for i := range distances {
		distances[i] = Unreachable
	}
	return distances, nil
}
