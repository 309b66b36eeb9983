package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/threadlane/storefront-go/pkg/errors"
	"github.com/threadlane/storefront-go/pkg/logger"
	"github.com/threadlane/storefront-go/pkg/metrics"
)

const errorBodyReadLimit int64 = 4096

// TokenSource supplies the persisted bearer token. It is consulted on every
// call rather than cached, so a logout between calls takes effect immediately.
type TokenSource interface {
	Token() (string, bool)
}

// RawBody is a non-JSON request payload (multipart uploads and the like). It
// is streamed as-is under its own content type.
type RawBody struct {
	ContentType string
	Reader      io.Reader
}

// Client is the single chokepoint for platform API calls: it owns the base
// URL, the auth header convention, and error normalization.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	tokens         TokenSource
	onUnauthorized func()
	logg           *logger.Logger
	metrics        *metrics.RequestMetrics
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTokenSource sets where bearer tokens are read from.
func WithTokenSource(tokens TokenSource) Option {
	return func(c *Client) {
		c.tokens = tokens
	}
}

// WithUnauthorizedHook registers a callback fired whenever the platform
// answers 401. The session store uses it to clear persisted credentials in
// one place instead of per call site.
func WithUnauthorizedHook(hook func()) Option {
	return func(c *Client) {
		c.onUnauthorized = hook
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) {
		c.logg = logg
	}
}

// WithMetrics attaches request metrics.
func WithMetrics(m *metrics.RequestMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient builds a client for the given API base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, fmt.Errorf("api base url is required")
	}

	client := &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return client, nil
}

// RequestOption mutates a single outgoing request before it is sent.
type RequestOption func(*http.Request)

// WithHeader sets one header on the outgoing request.
func WithHeader(key, value string) RequestOption {
	return func(r *http.Request) {
		r.Header.Set(key, value)
	}
}

// Get issues a GET and decodes the JSON response into out (nil discards it).
func (c *Client) Get(ctx context.Context, path string, requiresAuth bool, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodGet, path, nil, requiresAuth, out, opts...)
}

// Post issues a POST with the given body.
func (c *Client) Post(ctx context.Context, path string, body any, requiresAuth bool, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodPost, path, body, requiresAuth, out, opts...)
}

// Put issues a PUT with the given body.
func (c *Client) Put(ctx context.Context, path string, body any, requiresAuth bool, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodPut, path, body, requiresAuth, out, opts...)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string, requiresAuth bool, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodDelete, path, nil, requiresAuth, out, opts...)
}

func (c *Client) do(ctx context.Context, method, path string, body any, requiresAuth bool, out any, opts ...RequestOption) error {
	started := time.Now()
	if c.logg != nil {
		ctx = c.logg.WithRequest(ctx, method, path)
	}

	reader, contentType, err := encodeBody(body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode request body")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path), reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if requiresAuth && c.tokens != nil {
		if token, ok := c.tokens.Token(); ok && token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	for _, opt := range opts {
		if opt != nil {
			opt(req)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.finish(ctx, method, "transport_error", started)
		return pkgerrors.Wrap(pkgerrors.CodeTransport, err, pkgerrors.MetadataFor(pkgerrors.CodeTransport).PublicMessage)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.finish(ctx, method, "api_error", started)
		return c.normalizeError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		c.finish(ctx, method, "ok", started)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.finish(ctx, method, "malformed", started)
		return pkgerrors.Wrap(pkgerrors.CodeMalformedResponse, err, "decode response body")
	}
	c.finish(ctx, method, "ok", started)
	return nil
}

// normalizeError turns a non-2xx response into the module's single error
// shape: the server's message field when parseable, a generic one otherwise.
func (c *Client) normalizeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))

	message := "request failed"
	var parsed struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &parsed); err == nil && strings.TrimSpace(parsed.Message) != "" {
		message = parsed.Message
	}

	code := pkgerrors.CodeAPI
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		code = pkgerrors.CodeUnauthorized
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
	case http.StatusNotFound:
		code = pkgerrors.CodeNotFound
	}

	return pkgerrors.New(code, message).WithDetails(map[string]any{"status": resp.StatusCode})
}

func (c *Client) finish(ctx context.Context, method, outcome string, started time.Time) {
	elapsed := time.Since(started)
	c.metrics.IncRequest(method, outcome)
	c.metrics.ObserveDuration(method, elapsed)
	if c.logg != nil {
		c.logg.Debug(c.logg.WithField(ctx, "outcome", outcome), "api request finished")
	}
}

func (c *Client) buildURL(path string) string {
	if path == "" {
		return c.baseURL
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case RawBody:
		return b.Reader, b.ContentType, nil
	case *RawBody:
		if b == nil {
			return nil, "", nil
		}
		return b.Reader, b.ContentType, nil
	default:
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(payload), "application/json", nil
	}
}
