package poi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.poi.example.com/v1"
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 20
)

// ErrUnexpectedShape is returned when the response is not an object with an
// items or results array.
var ErrUnexpectedShape = errors.New("unexpected response shape")

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(apiKey string, baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("poi API request", "path", path, "query", query.Encode())

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("poi API transport error", "path", path, "error", err, "elapsed", time.Since(requestStart))
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	c.logger.Debug("poi API response", "path", path, "status", resp.StatusCode, "bytes", len(respBody), "elapsed", time.Since(requestStart))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("poi API request failed", "path", path, "status", resp.StatusCode, "response", truncate(string(respBody), 200))
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	return respBody, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// Nearby lists places around a coordinate, at most limit of them.
func (c *Client) Nearby(ctx context.Context, lat, lon float64, limit int) ([]Place, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("poi API key is empty: set [poi] api_key in config or KALENDR_POI_API_KEY")
	}
	query := url.Values{
		"latitude":  {strconv.FormatFloat(lat, 'f', -1, 64)},
		"longitude": {strconv.FormatFloat(lon, 'f', -1, 64)},
		"limit":     {strconv.Itoa(limit)},
	}
	data, err := c.doRequest(ctx, "/places", query)
	if err != nil {
		return nil, fmt.Errorf("getting places: %w", err)
	}

	places, err := decodePlaces(data)
	if err != nil {
		c.logger.Error("failed to parse places", "error", err, "raw", truncate(string(data), 500))
		return nil, fmt.Errorf("parsing places response: %w", err)
	}
	if limit > 0 && len(places) > limit {
		places = places[:limit]
	}
	return places, nil
}

func decodePlaces(data []byte) ([]Place, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
	}

	raw, ok := envelope["items"]
	if !ok {
		raw, ok = envelope["results"]
	}
	if !ok {
		return nil, ErrUnexpectedShape
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: items is not an array", ErrUnexpectedShape)
	}

	places := make([]Place, 0, len(items))
	for _, item := range items {
		var fields map[string]any
		if err := json.Unmarshal(item, &fields); err != nil {
			// non-object entries carry nothing we can show
			continue
		}
		places = append(places, placeFromFields(fields))
	}
	return places, nil
}
