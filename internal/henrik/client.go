// Package henrik is a client for the Henrik Valorant stats API.
package henrik

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/ratelimit"

	"tracker/internal/metrics"
)

// DefaultBaseURL is the public provider endpoint.
const DefaultBaseURL = "https://api.henrikdev.xyz"

var (
	ErrNotFound    = errors.New("not found")
	ErrRateLimited = errors.New("rate limited")
	ErrMissingKey  = errors.New("API key not configured")
)

// APIError is a non-200 status reported by the provider, either in the
// response envelope or as the HTTP status.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("henrik api %d: %s", e.Status, e.Message)
}

// Is lets errors.Is match ErrNotFound and ErrRateLimited.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrRateLimited:
		return e.Status == http.StatusTooManyRequests
	}
	return false
}

// notFoundMessages overrides the 404 message per endpoint.
var notFoundMessages = map[string]string{
	"match": "Match not found",
}

func newAPIError(endpoint string, status int, errs []apiMessage) *APIError {
	if len(errs) > 0 && errs[0].Message != "" {
		return &APIError{Status: status, Message: errs[0].Message}
	}
	switch status {
	case http.StatusTooManyRequests:
		return &APIError{Status: status, Message: "Rate limit reached. Please try again in a minute."}
	case http.StatusNotFound:
		if msg, ok := notFoundMessages[endpoint]; ok {
			return &APIError{Status: status, Message: msg}
		}
		return &APIError{Status: status, Message: "Player not found. Check the Riot ID format (Name#Tag)."}
	default:
		return &APIError{Status: status, Message: fmt.Sprintf("API Error: %d", status)}
	}
}

// Client calls the provider through a shared rate limiter.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter ratelimit.Limiter
	metrics *metrics.Collector
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default 30s-timeout client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLimiter replaces the per-minute limiter.
func WithLimiter(l ratelimit.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithMetrics counts every request by endpoint and status.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient builds a client for baseURL allowing perMinute requests per
// minute. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL, apiKey string, perMinute int, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if perMinute <= 0 {
		perMinute = 30
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: ratelimit.New(perMinute, ratelimit.Per(time.Minute)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HasKey reports whether an API key is configured.
func (c *Client) HasKey() bool {
	return c.apiKey != ""
}

// Account looks up a Riot ID.
func (c *Client) Account(ctx context.Context, name, tag string) (*Account, error) {
	data, err := c.get(ctx, "account", "/valorant/v2/account/"+seg(name)+"/"+seg(tag), nil)
	if err != nil {
		return nil, err
	}
	var account Account
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, fmt.Errorf("decode account: %w", err)
	}
	return &account, nil
}

// MMR returns the player's rank in region.
func (c *Client) MMR(ctx context.Context, region, name, tag string) (*MMR, error) {
	path := fmt.Sprintf("/valorant/v3/mmr/%s/pc/%s/%s", seg(region), seg(name), seg(tag))
	data, err := c.get(ctx, "mmr", path, nil)
	if err != nil {
		return nil, err
	}
	var mmr MMR
	if err := json.Unmarshal(data, &mmr); err != nil {
		return nil, fmt.Errorf("decode mmr: %w", err)
	}
	return &mmr, nil
}

// Matches returns up to size raw competitive match documents starting at
// offset start, newest first.
func (c *Client) Matches(ctx context.Context, region, name, tag string, start, size int) ([]json.RawMessage, error) {
	path := fmt.Sprintf("/valorant/v4/matches/%s/pc/%s/%s", seg(region), seg(name), seg(tag))
	query := url.Values{}
	query.Set("mode", "competitive")
	query.Set("size", strconv.Itoa(size))
	query.Set("start", strconv.Itoa(start))

	data, err := c.get(ctx, "matches", path, query)
	if err != nil {
		return nil, err
	}
	var docs []json.RawMessage
	if len(data) > 0 && string(data) != "null" {
		if err := json.Unmarshal(data, &docs); err != nil {
			return nil, fmt.Errorf("decode matches: %w", err)
		}
	}
	if docs == nil {
		docs = []json.RawMessage{}
	}
	return docs, nil
}

// Match returns one raw match document. The provider sends it either as
// an object or as a one-element array.
func (c *Client) Match(ctx context.Context, region, matchID string) (json.RawMessage, error) {
	path := fmt.Sprintf("/valorant/v4/match/%s/%s", seg(region), seg(matchID))
	data, err := c.get(ctx, "match", path, nil)
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var docs []json.RawMessage
		if err := json.Unmarshal(data, &docs); err != nil {
			return nil, fmt.Errorf("decode match: %w", err)
		}
		if len(docs) == 0 {
			return nil, &APIError{Status: http.StatusNotFound, Message: "Match not found"}
		}
		return docs[0], nil
	}
	if trimmed == "" || trimmed == "null" {
		return nil, &APIError{Status: http.StatusNotFound, Message: "Match not found"}
	}
	return data, nil
}

func seg(s string) string {
	return url.PathEscape(s)
}

// get sends an authenticated GET and returns the envelope's data.
func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values) (json.RawMessage, error) {
	if c.apiKey == "" {
		return nil, ErrMissingKey
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Accept", "application/json")

	c.limiter.Take()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s read body: %w", endpoint, err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		c.metrics.Upstream(endpoint, resp.StatusCode)
		if resp.StatusCode != http.StatusOK {
			return nil, newAPIError(endpoint, resp.StatusCode, nil)
		}
		return nil, fmt.Errorf("%s decode response: %w", endpoint, err)
	}

	status := env.Status
	if status == 0 {
		status = resp.StatusCode
	}
	c.metrics.Upstream(endpoint, status)
	if status != http.StatusOK {
		return nil, newAPIError(endpoint, status, env.Errors)
	}
	return env.Data, nil
}
