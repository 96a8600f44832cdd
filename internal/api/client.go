// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Configuration constants for the directory API.
const (
	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize caps how much of a response body is read.
	MaxResponseSize = 4 * 1024 * 1024

	// TokenHeader carries the session token on authenticated requests.
	TokenHeader = "x-auth-token"

	// RequestIDHeader correlates client log lines with server logs.
	RequestIDHeader = "X-Request-ID"

	userAgent = "bcard/1.0"
)

// Client talks to the card directory REST API. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger

	// onSessionRejected runs when an authenticated call is refused with
	// 401, or 403 because the account was blocked.
	onSessionRejected func(err error)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout. Zero leaves the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRateLimit caps outgoing requests at rps with the given burst.
// A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger.Named("api")
		}
	}
}

// WithUnauthorizedHandler registers fn to run whenever an authenticated
// request is rejected because the session is no longer valid.
func WithUnauthorizedHandler(fn func(err error)) Option {
	return func(c *Client) {
		c.onSessionRejected = fn
	}
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// response is a fully read HTTP response.
type response struct {
	status int
	body   []byte
}

func (r response) ok() bool {
	return r.status >= 200 && r.status < 300
}

// do performs one request. A non-empty token is sent in the auth header.
// Only transport failures return an error; HTTP statuses are left to callers.
func (c *Client) do(ctx context.Context, method, path, token string, in any) (response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return response{}, &NetworkError{Op: method + " " + path, Err: err}
		}
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return response{}, fmt.Errorf("encode %s body: %w", path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return response{}, fmt.Errorf("build request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(RequestIDHeader, requestID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(TokenHeader, token)
	}

	// Never log headers or bodies: they carry tokens and passwords.
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return response{}, &NetworkError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return response{}, &NetworkError{Op: "read " + path, Err: err}
	}

	c.logger.Debug("request done",
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)
	return response{status: resp.StatusCode, body: data}, nil
}

// call performs an authenticated or anonymous request and decodes a 2xx body
// into out (when out is non-nil). Non-2xx responses become *APIError and, for
// authenticated calls, may trigger the session-rejected handler.
func (c *Client) call(ctx context.Context, method, path, token string, in, out any) error {
	resp, err := c.do(ctx, method, path, token, in)
	if err != nil {
		return err
	}
	if !resp.ok() {
		apiErr := &APIError{Status: resp.status, Message: extractMessage(resp.body)}
		if token != "" && IsSessionRejected(apiErr) && c.onSessionRejected != nil {
			c.logger.Info("session rejected by server",
				zap.String("path", path),
				zap.Int("status", resp.status),
			)
			c.onSessionRejected(apiErr)
		}
		return apiErr
	}
	if out == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// extractMessage pulls a human-readable message out of an error body.
// The server has used {"error":{"message"}}, {"message"}, {"error":"..."},
// a bare JSON string and plain text at various points.
func extractMessage(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}

	switch body[0] {
	case '{':
		var obj struct {
			Message string          `json:"message"`
			Error   json.RawMessage `json:"error"`
		}
		if err := json.Unmarshal(body, &obj); err == nil {
			if len(obj.Error) > 0 {
				var nested struct {
					Message string `json:"message"`
				}
				if json.Unmarshal(obj.Error, &nested) == nil && nested.Message != "" {
					return nested.Message
				}
				var s string
				if json.Unmarshal(obj.Error, &s) == nil && s != "" {
					return s
				}
			}
			return obj.Message
		}
	case '"':
		var s string
		if err := json.Unmarshal(body, &s); err == nil {
			return s
		}
	}
	return string(body)
}

// isContextError reports whether err came from ctx cancellation.
func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
