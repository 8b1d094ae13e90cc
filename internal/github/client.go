// Package github wraps the handful of GitHub REST endpoints the service needs and
// normalises their answers into typed outcomes. Calls are never retried.
package github

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gh "github.com/google/go-github/v66/github"
	"go.uber.org/zap"

	"github.com/charlesng35/gitteams/pkg/logger"
	"github.com/charlesng35/gitteams/pkg/metrics"
)

const (
	// DefaultBaseURL is the public GitHub REST endpoint.
	DefaultBaseURL   = "https://api.github.com"
	DefaultUserAgent = "gitteams"
	DefaultTimeout   = 15 * time.Second
)

// Config configures a Client.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	HTTPCache bool
	Transport http.RoundTripper
	Clock     func() time.Time
}

// Client talks to the GitHub REST API on behalf of a project owner.
type Client struct {
	baseURL   *url.URL
	userAgent string
	timeout   time.Duration
	shared    http.RoundTripper
	now       func() time.Time
	log       *zap.Logger
}

// NewClient validates cfg and builds a Client.
func NewClient(cfg Config) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		raw = DefaultBaseURL
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("github: parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("github: base url %q must be absolute", raw)
	}
	// go-github resolves endpoint paths against a base that ends in a slash
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	now := time.Now
	if cfg.Clock != nil {
		now = cfg.Clock
	}

	return &Client{
		baseURL:   base,
		userAgent: userAgent,
		timeout:   timeout,
		shared:    newSharedTransport(cfg.Transport, userAgent, cfg.HTTPCache),
		now:       now,
		log:       logger.WithModule("github"),
	}, nil
}

// api returns a go-github client authenticated as token. Clients are cheap and
// never shared, so the rate state go-github tracks stays per call.
func (c *Client) api(token string) (*gh.Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrInvalidToken
	}

	client := gh.NewClient(&http.Client{
		Timeout:   c.timeout,
		Transport: tokenTransport(c.shared, token),
	})
	base := *c.baseURL
	client.BaseURL = &base
	client.UserAgent = c.userAgent
	return client, nil
}

// limitPolicy decides whether an error status without exhausted quota headers
// still means the call was rate limited.
type limitPolicy func(status int) bool

func forbiddenOrTooMany(status int) bool {
	return status == http.StatusForbidden || status == http.StatusTooManyRequests
}

func tooManyRequests(status int) bool {
	return status == http.StatusTooManyRequests
}

func quotaOnly(int) bool { return false }

// observe records the outcome of a go-github call and maps its error onto the
// package's error types.
func (c *Client) observe(operation string, resp *gh.Response, err error, limited limitPolicy) error {
	var httpResp *http.Response
	if resp != nil {
		httpResp = resp.Response
	}

	if httpResp == nil {
		metrics.GitHubRequests.WithLabelValues(operation, "error").Inc()
	} else {
		metrics.GitHubRequests.WithLabelValues(operation, strconv.Itoa(httpResp.StatusCode)).Inc()
		c.log.Debug("github request",
			zap.String("operation", operation),
			zap.Int("status", httpResp.StatusCode),
			zap.Bool("cached", httpResp.Header.Get("X-From-Cache") == "1"),
		)
	}

	if err == nil {
		return nil
	}

	var (
		rateErr  *gh.RateLimitError
		abuseErr *gh.AbuseRateLimitError
		respErr  *gh.ErrorResponse
	)
	switch {
	case errors.As(err, &rateErr) && rateErr.Response != nil:
		return c.rateLimitError(rateErr.Response)
	case errors.As(err, &abuseErr) && abuseErr.Response != nil:
		return c.rateLimitError(abuseErr.Response)
	case errors.As(err, &respErr) && respErr.Response != nil:
		status := respErr.Response.StatusCode
		exhausted := forbiddenOrTooMany(status) && respErr.Response.Header.Get("X-RateLimit-Remaining") == "0"
		if exhausted || limited(status) {
			return c.rateLimitError(respErr.Response)
		}
		return newAPIError(operation, respErr)
	case httpResp != nil && httpResp.StatusCode < 300:
		return fmt.Errorf("github: %s: decode response: %w", operation, err)
	default:
		c.log.Warn("github request failed", zap.String("operation", operation), zap.Error(err))
		return fmt.Errorf("%w: %s: %w", ErrUnavailable, operation, err)
	}
}

func newAPIError(operation string, resp *gh.ErrorResponse) *APIError {
	apiErr := &APIError{
		Operation: operation,
		Status:    resp.Response.StatusCode,
		Message:   resp.Message,
	}
	for _, item := range resp.Errors {
		switch {
		case item.Message != "":
			apiErr.Errors = append(apiErr.Errors, item.Message)
		case item.Code != "":
			apiErr.Errors = append(apiErr.Errors, item.Code)
		}
	}
	return apiErr
}

// rateLimitError prefers the X-RateLimit-Reset epoch and falls back to Retry-After.
func (c *Client) rateLimitError(resp *http.Response) *RateLimitError {
	rl := &RateLimitError{Status: resp.StatusCode}
	if reset := strings.TrimSpace(resp.Header.Get("X-RateLimit-Reset")); reset != "" {
		if epoch, err := strconv.ParseInt(reset, 10, 64); err == nil {
			rl.ResetAt = time.Unix(epoch, 0).UTC()
			return rl
		}
	}
	if retry := strings.TrimSpace(resp.Header.Get("Retry-After")); retry != "" {
		if seconds, err := strconv.Atoi(retry); err == nil {
			rl.ResetAt = c.now().Add(time.Duration(seconds) * time.Second).UTC()
		}
	}
	return rl
}

var errEmptyArgument = errors.New("github: required argument is empty")
