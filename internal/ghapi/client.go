// Package ghapi provides a rate-limited client for the GitHub REST API,
// used to collect repository metadata and workflow status for the site.
package ghapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// BaseURL is the GitHub REST API base URL.
	BaseURL = "https://api.github.com"

	// RateLimit keeps well under the authenticated secondary limits.
	RateLimit = 5.0

	// acceptHeader includes the preview type needed for repo topics.
	acceptHeader = "application/vnd.github.mercy-preview+json"
)

// Errors.
var (
	ErrInvalidURL   = errors.New("invalid GitHub URL format")
	ErrNotFound     = errors.New("resource not found (404)")
	ErrRateLimited  = errors.New("GitHub API rate limit exceeded")
	ErrUnauthorized = errors.New("GitHub API authentication failed")
	ErrAPIError     = errors.New("GitHub API error")
	ErrNoToken      = errors.New("GITHUB_TOKEN environment variable is not set")
)

// Cache is an optional response cache consulted before the network.
type Cache interface {
	Get(url string, maxAge time.Duration) ([]byte, bool)
	Put(url string, body []byte) error
}

// Client is a rate-limited GitHub API client.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	token      string
	baseURL    string
	cache      Cache
	cacheTTL   time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the API token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(url, "/") }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithCache attaches a response cache with the given TTL.
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = cache
		c.cacheTTL = ttl
	}
}

// NewClient creates a GitHub API client. GITHUB_TOKEN is read from the
// environment unless WithToken overrides it.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		token:      os.Getenv("GITHUB_TOKEN"),
		baseURL:    BaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RequireToken returns ErrNoToken when no token is configured.
func (c *Client) RequireToken() error {
	if c.token == "" {
		return ErrNoToken
	}
	return nil
}

// getJSON performs a rate-limited GET and decodes the JSON response
// into out. Responses are served from the cache when fresh enough.
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	if c.cache != nil {
		if body, ok := c.cache.Get(url, c.cacheTTL); ok {
			return json.Unmarshal(body, out)
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAPIError, err)
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("User-Agent", "handbook-tools")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAPIError, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		if resp.Header.Get("X-RateLimit-Remaining") == "0" {
			return ErrRateLimited
		}
		return ErrUnauthorized
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return fmt.Errorf("%w: status %d for %s", ErrAPIError, resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", ErrAPIError, err)
	}
	if c.cache != nil {
		// Best effort; a cold cache next run is not an error.
		_ = c.cache.Put(url, body)
	}
	return json.Unmarshal(body, out)
}

// urlPatterns for parsing GitHub repository URLs.
var (
	fullURLPattern   = regexp.MustCompile(`^(?:https?://)?github\.com/([a-zA-Z0-9_.-]+)/([a-zA-Z0-9_.-]+?)(?:\.git)?(?:/.*)?$`)
	shorthandPattern = regexp.MustCompile(`^([a-zA-Z0-9_.-]+)/([a-zA-Z0-9_.-]+)$`)
)

// ParseRepoURL parses a GitHub URL or owner/repo shorthand.
func ParseRepoURL(input string) (owner, repo string, err error) {
	input = strings.TrimSpace(input)

	if matches := fullURLPattern.FindStringSubmatch(input); matches != nil {
		return matches[1], matches[2], nil
	}
	if matches := shorthandPattern.FindStringSubmatch(input); matches != nil {
		return matches[1], matches[2], nil
	}
	return "", "", ErrInvalidURL
}
