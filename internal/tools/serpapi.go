package tools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
)

const defaultSerpAPIBaseURL = "https://serpapi.com/search"

// ErrMissingAPIKey is returned when a search is attempted without a key.
var ErrMissingAPIKey = errors.New("SERPAPI_API_KEY not found in environment variables")

// SearchConfig configures the SerpAPI client.
type SearchConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// SearchClient queries SerpAPI's Google Flights and Google Hotels engines.
type SearchClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewSearchClient creates a new SerpAPI client.
func NewSearchClient(cfg SearchConfig) *SearchClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultSerpAPIBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &SearchClient{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Configured reports whether an API key is set.
func (c *SearchClient) Configured() bool {
	return c.apiKey != ""
}

// Search runs one query against the given engine and returns the parsed body.
func (c *SearchClient) Search(ctx context.Context, engine string, params url.Values) (gjson.Result, error) {
	if !c.Configured() {
		return gjson.Result{}, ErrMissingAPIKey
	}

	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("engine", engine)
	q.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return gjson.Result{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("read search response: %w", err)
	}

	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("search returned invalid JSON (status %d)", resp.StatusCode)
	}
	result := gjson.ParseBytes(body)

	if resp.StatusCode >= http.StatusBadRequest {
		if msg := result.Get("error").String(); msg != "" {
			return gjson.Result{}, fmt.Errorf("search failed with status %d: %s", resp.StatusCode, msg)
		}
		return gjson.Result{}, fmt.Errorf("search failed with status %d", resp.StatusCode)
	}

	return result, nil
}

// field returns the string at path, or def when absent or empty.
func field(r gjson.Result, path, def string) string {
	v := r.Get(path)
	if !v.Exists() || v.String() == "" {
		return def
	}
	return v.String()
}
