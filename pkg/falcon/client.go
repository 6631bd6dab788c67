// Package falcon provides the core CrowdStrike Falcon HTTP client with
// OAuth2 authentication, rate limiting, and error handling.
package falcon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/hur/caracara/pkg/ratelimit"
)

// CloudUS1 is the default Falcon API base URL.
const CloudUS1 = "https://api.crowdstrike.com"

// Prometheus metrics for Falcon client operations.
var (
	falconRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "falcon_requests_total",
		Help: "Total Falcon API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	falconRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "falcon_request_duration_seconds",
		Help:    "Falcon API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	falconErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "falcon_errors_total",
		Help: "Total Falcon API errors by class",
	}, []string{"class"})
)

// ErrorClass represents a classification of HTTP errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 rate limit errors.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// Client is the Falcon API client.
type Client struct {
	httpClient *http.Client
	auth       *authenticator
	limiter    *rate.Limiter
	tracker    *ratelimit.Tracker
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// ClientID and ClientSecret are the OAuth2 API credentials.
	ClientID     string
	ClientSecret string

	// Cloud is the API base URL (default: CloudUS1).
	Cloud string

	// UserAgent sent with every request.
	UserAgent string

	// RequestsPerSecond paces outgoing requests client-side.
	RequestsPerSecond int

	// RateLimitStore holds the X-Ratelimit header state. Defaults to an
	// in-process store; pass a ratelimit.RedisStore to share state across
	// client instances.
	RateLimitStore ratelimit.Store

	// Timeout per HTTP request.
	Timeout time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(clientID, clientSecret string) Config {
	return Config{
		ClientID:          clientID,
		ClientSecret:      clientSecret,
		Cloud:             CloudUS1,
		UserAgent:         "caracara-go/0.1.0",
		RequestsPerSecond: 10,
		Timeout:           30 * time.Second,
	}
}

// New creates a new Falcon client.
func New(cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("client_id and client_secret are required")
	}
	if cfg.Cloud == "" {
		cfg.Cloud = CloudUS1
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "caracara-go/0.1.0"
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RateLimitStore == nil {
		cfg.RateLimitStore = ratelimit.NewMemoryStore()
	}

	logger := log.With().Str("component", "falcon-client").Logger()

	httpClient := &http.Client{Timeout: cfg.Timeout}

	return &Client{
		httpClient: httpClient,
		auth:       newAuthenticator(httpClient, cfg, logger),
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.RequestsPerSecond),
		tracker:    ratelimit.NewTracker(cfg.RateLimitStore, logger),
		config:     cfg,
		logger:     logger,
	}, nil
}

// Do performs an API request with pacing, rate limit gating, authentication
// and retry on transient failures, and decodes the reply body.
//
// HTTP error statuses that carry a Falcon error body are returned as a
// Response whose Errors field is populated, not as a Go error; the envelope
// adapter turns those into query failures. A Go error means the request
// never produced a usable reply (network failure, auth failure, retry
// exhaustion, rate limit block).
func (c *Client) Do(ctx context.Context, method, endpoint string, query url.Values, payload any) (*Response, error) {
	startTime := time.Now()
	defer func() {
		falconRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	// Client-side pacing.
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	// Header-driven gating.
	allowed, err := c.tracker.ShouldAllowRequest(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("Rate limit check failed")
		return nil, fmt.Errorf("rate limit check: %w", err)
	}
	if !allowed {
		c.logger.Warn().
			Str("endpoint", endpoint).
			Msg("Request blocked by rate limiter")
		falconRequestsTotal.WithLabelValues(endpoint, "rate_limited").Inc()
		return nil, fmt.Errorf("request blocked: rate limit critical")
	}

	var bodyBytes []byte
	if payload != nil {
		bodyBytes, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request payload: %w", err)
		}
	}

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("method", method).
		Msg("Executing Falcon request")

	var resp *Response
	retryErr := retryWithBackoff(ctx, c.logger, func() (ErrorClass, error) {
		token, err := c.auth.bearer(ctx)
		if err != nil {
			falconErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			return ErrorClassNetwork, fmt.Errorf("authenticate: %w", err)
		}

		req, err := c.newRequest(ctx, method, endpoint, query, bodyBytes, token)
		if err != nil {
			return "", err
		}

		httpResp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
			falconErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			falconRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			return ErrorClassNetwork, err
		}
		defer httpResp.Body.Close()

		if err := c.tracker.UpdateFromHeaders(ctx, httpResp.Header); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to update rate limit from headers")
		}

		data, err := io.ReadAll(httpResp.Body)
		if err != nil {
			falconErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			return ErrorClassNetwork, fmt.Errorf("read response body: %w", err)
		}

		falconRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(httpResp.StatusCode)).Inc()

		if httpResp.StatusCode == http.StatusUnauthorized {
			// Token may have been revoked; force re-auth on the next call.
			c.auth.invalidate()
		}

		if httpResp.StatusCode >= 400 {
			class := classifyStatus(httpResp.StatusCode)
			falconErrorsTotal.WithLabelValues(string(class)).Inc()

			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("status", httpResp.StatusCode).
				Str("error_class", string(class)).
				Msg("Falcon request error")

			if shouldRetry(class) {
				return class, &RequestError{
					StatusCode: httpResp.StatusCode,
					ErrorClass: class,
					Message:    httpResp.Status,
				}
			}
			// Client errors are not retried: decode the error body and let
			// the caller deal with the reported errors.
		}

		decoded, err := decodeResponse(httpResp.StatusCode, data)
		if err != nil {
			return "", err
		}
		resp = decoded
		return "", nil
	})
	if retryErr != nil {
		return nil, retryErr
	}

	return resp, nil
}

// newRequest builds one HTTP request against the configured cloud.
func (c *Client) newRequest(ctx context.Context, method, endpoint string, query url.Values, body []byte, token string) (*http.Request, error) {
	u := c.config.Cloud + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// Get performs a GET request against a Falcon endpoint.
func (c *Client) Get(ctx context.Context, endpoint string, query url.Values) (*Response, error) {
	return c.Do(ctx, http.MethodGet, endpoint, query, nil)
}

// Post performs a POST request with a JSON payload.
func (c *Client) Post(ctx context.Context, endpoint string, query url.Values, payload any) (*Response, error) {
	return c.Do(ctx, http.MethodPost, endpoint, query, payload)
}

// Patch performs a PATCH request with a JSON payload.
func (c *Client) Patch(ctx context.Context, endpoint string, query url.Values, payload any) (*Response, error) {
	return c.Do(ctx, http.MethodPatch, endpoint, query, payload)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, endpoint string, query url.Values) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, endpoint, query, nil)
}

// classifyStatus categorizes an HTTP error status for observability and
// retry decisions.
func classifyStatus(statusCode int) ErrorClass {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case statusCode >= 400 && statusCode < 500:
		return ErrorClassClient
	case statusCode >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
	c.auth.httpClient = client
}
