package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://sheets.googleapis.com"

// Client is a Google Sheets values API client. It implements Fetcher.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API root. Used by tests to point at a fake server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Sheets client authenticating with the given OAuth
// bearer token.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		token:   token,
		baseURL: defaultBaseURL,
		// The upstream contract does not guarantee bounded latency.
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchRange retrieves a named range via spreadsheets.values.get.
// Cell values are returned as strings; numeric cells keep their sheet
// formatting.
func (c *Client) FetchRange(ctx context.Context, spreadsheetID string, rangeName string) ([][]string, error) {
	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s",
		c.baseURL, url.PathEscape(spreadsheetID), url.PathEscape(rangeName))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch range %s: %w", rangeName, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheets response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("sheets api status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	// values.get returns cells as heterogeneous JSON values; everything is
	// normalized to its string form.
	var payload struct {
		Values [][]any `json:"values"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode sheets response: %w", err)
	}

	grid := make([][]string, len(payload.Values))
	for r, row := range payload.Values {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = fmt.Sprintf("%v", cell)
		}
		grid[r] = cells
	}
	return grid, nil
}
