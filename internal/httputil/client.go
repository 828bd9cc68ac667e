// Package httputil provides the authenticated JSON transport shared by all
// storefront service wrappers.
package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/feirahub/storefront-go/apierror"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultMaxBodySize = 1 << 20 // 1MiB
)

// TokenSource supplies the bearer token for authenticated calls. An empty
// token means the request goes out unauthenticated. Invalidate is called
// once when the backend rejects the token with 401.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate(ctx context.Context) error
}

// Config configures the transport.
type Config struct {
	// BaseURL is the backend base URL (e.g. https://api.feirahub.com).
	BaseURL string
	// HTTPClient is used to execute requests. When nil, a default client
	// with a conservative timeout is used.
	HTTPClient *http.Client
	// Tokens supplies bearer tokens. May be nil for a purely anonymous
	// client.
	Tokens TokenSource
	// Limiter optionally gates outgoing requests client-side.
	Limiter *rate.Limiter
	// Logger receives debug-level request logs. Nil discards them.
	Logger *logrus.Logger
	// MaxBodyBytes caps response bodies to prevent memory exhaustion.
	MaxBodyBytes int64
	// UserAgent overrides the default User-Agent header.
	UserAgent string
}

// Client executes JSON requests against the storefront backend and
// normalizes every failure into one of the apierror variants. It never
// retries: a failed call is terminal until the caller re-issues it.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	tokens       TokenSource
	limiter      *rate.Limiter
	log          *logrus.Logger
	maxBodyBytes int64
	userAgent    string
}

// New creates a transport from cfg.
func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("httputil: BaseURL is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("httputil: BaseURL must be a valid URL")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("httputil: BaseURL scheme must be http or https")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	maxBodyBytes := cfg.MaxBodyBytes
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodySize
	}

	log := cfg.Logger
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "storefront-go"
	}

	return &Client{
		baseURL:      baseURL,
		httpClient:   httpClient,
		tokens:       cfg.Tokens,
		limiter:      cfg.Limiter,
		log:          log,
		maxBodyBytes: maxBodyBytes,
		userAgent:    userAgent,
	}, nil
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// RequestOption mutates the outgoing request before it is sent.
type RequestOption func(*http.Request)

// WithHeader sets an extra request header.
func WithHeader(key, value string) RequestOption {
	return func(req *http.Request) { req.Header.Set(key, value) }
}

// Do executes a JSON request. body is marshalled when non-nil; the response
// body is decoded into out when out is non-nil and the call succeeded.
func (c *Client) Do(ctx context.Context, method, path string, body, out any, opts ...RequestOption) error {
	op := method + " " + path

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &apierror.NetworkError{Op: op, Err: err}
		}
	}

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("httputil: marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("httputil: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	authenticated := false
	if c.tokens != nil {
		token, tokenErr := c.tokens.Token(ctx)
		if tokenErr != nil {
			return fmt.Errorf("httputil: read session token: %w", tokenErr)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
			authenticated = true
		}
	}

	for _, opt := range opts {
		opt(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &apierror.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.log.WithFields(logrus.Fields{
		"method": method,
		"path":   path,
		"status": resp.StatusCode,
	}).Debug("request completed")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.errorFromResponse(ctx, resp, authenticated)
	}

	if out == nil {
		if _, err := io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBodyBytes)); err != nil {
			return fmt.Errorf("httputil: discard response body: %w", err)
		}
		return nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes))
	if err != nil {
		return &apierror.NetworkError{Op: op, Err: err}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("httputil: decode response: %w", err)
	}
	return nil
}

// errorFromResponse maps a non-2xx response to an apierror variant. A 401
// on an authenticated call clears the session and is never retried here.
func (c *Client) errorFromResponse(ctx context.Context, resp *http.Response, authenticated bool) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes))

	message := ""
	if msg := gjson.GetBytes(data, "message"); msg.Exists() {
		message = strings.TrimSpace(msg.String())
	}

	apiErr := &apierror.APIError{Status: resp.StatusCode, Message: message}

	if resp.StatusCode == http.StatusUnauthorized && authenticated {
		if c.tokens != nil {
			if err := c.tokens.Invalidate(ctx); err != nil {
				c.log.WithField("error", err).Warn("failed to clear expired session")
			}
		}
		return &apierror.AuthExpiredError{Err: apiErr}
	}

	if resp.StatusCode == http.StatusBadRequest {
		if fields := gjson.GetBytes(data, "fields"); fields.IsObject() {
			ve := &apierror.ValidationError{Fields: map[string]string{}}
			fields.ForEach(func(key, value gjson.Result) bool {
				ve.Fields[key.String()] = value.String()
				return true
			})
			return ve
		}
	}

	return apiErr
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodGet, path, nil, out, opts...)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPost, path, body, out, opts...)
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPut, path, body, out, opts...)
}

// Patch performs a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPatch, path, body, out, opts...)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out, opts...)
}
