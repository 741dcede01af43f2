package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/nsgifts/client-go/internal/apierrors"
)

// Defaults for the executor.
const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "nsgifts-go"
)

// maxResponseSize bounds how much of a response body is read.
const maxResponseSize = 10 << 20

// Request describes one API call.
type Request struct {
	Method       string
	Path         string
	Query        url.Values
	Body         any
	RequiresAuth bool
	// Idempotent marks calls that are safe to repeat without duplicate side effects.
	Idempotent bool
	// DedupKey is a caller-supplied key the server uses to collapse duplicate
	// non-idempotent requests. It is sent as the Idempotency-Key header.
	DedupKey string
}

// Retryable reports whether the request may be repeated after an ambiguous failure.
func (r *Request) Retryable() bool {
	return r.Idempotent || r.DedupKey != ""
}

// Validator is implemented by result types that check their own shape after decoding.
type Validator interface {
	Validate() error
}

// Client is the HTTP request executor. It performs exactly one network
// attempt per Execute call and knows nothing about tokens or retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	logger     zerolog.Logger
}

// Option configures the API client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-attempt deadline. Zero disables it.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a new API client.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Transport: newTransport()},
		timeout:    DefaultTimeout,
		userAgent:  DefaultUserAgent,
		logger:     zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// newTransport returns a connection pool private to one Client.
func newTransport() http.RoundTripper {
	if t, ok := http.DefaultTransport.(*http.Transport); ok {
		return t.Clone()
	}
	return &http.Transport{Proxy: http.ProxyFromEnvironment}
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Close releases idle connections held by the transport.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// Execute sends one HTTP request and decodes a 2xx body into result.
// Every failure is returned as an *apierrors.Error.
func (c *Client) Execute(ctx context.Context, req *Request, token string, result any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	httpReq, err := c.newRequest(ctx, req, token)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return transportError(req, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return transportError(req, err)
	}

	c.logger.Debug().
		Str("method", req.Method).
		Str("path", req.Path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("http response")

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return decodeResult(req, resp.StatusCode, body, result)
	}
	return statusError(req, resp.StatusCode, body)
}

func (c *Client) newRequest(ctx context.Context, req *Request, token string) (*http.Request, error) {
	if req.RequiresAuth && token == "" {
		return nil, requestError(req, apierrors.KindAuthentication, "missing bearer token", nil)
	}

	u := c.baseURL + req.Path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}

	var bodyReader io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, requestError(req, apierrors.KindClient, "failed to marshal request body", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, bodyReader)
	if err != nil {
		return nil, requestError(req, apierrors.KindClient, "failed to create request", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	if bodyReader != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	if req.RequiresAuth {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	if req.DedupKey != "" {
		httpReq.Header.Set("Idempotency-Key", req.DedupKey)
	}

	return httpReq, nil
}

func requestError(req *Request, kind apierrors.Kind, msg string, err error) *apierrors.Error {
	return &apierrors.Error{
		Kind:    kind,
		Message: msg,
		Method:  req.Method,
		Path:    req.Path,
		Err:     err,
	}
}

// transportError classifies a failure that produced no usable response.
func transportError(req *Request, err error) *apierrors.Error {
	if isTimeout(err) {
		return requestError(req, apierrors.KindTimeout, "request timed out", err)
	}
	return requestError(req, apierrors.KindConnection, "request failed", err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func statusError(req *Request, status int, body []byte) *apierrors.Error {
	var kind apierrors.Kind
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = apierrors.KindAuthentication
	case status >= 400 && status < 500:
		kind = apierrors.KindClient
	case status >= 500 && status < 600:
		kind = apierrors.KindServer
	default:
		kind = apierrors.KindProtocol
	}

	msg := errorMessage(body)
	if msg == "" {
		msg = http.StatusText(status)
	}

	return &apierrors.Error{
		Kind:       kind,
		Message:    msg,
		StatusCode: status,
		Body:       apierrors.Snippet(body),
		Method:     req.Method,
		Path:       req.Path,
	}
}

// errorMessage extracts a human-readable message from a JSON error body.
func errorMessage(body []byte) string {
	var errResp map[string]any
	if err := json.Unmarshal(body, &errResp); err != nil {
		return strings.TrimSpace(apierrors.Snippet(body))
	}

	for _, key := range []string{"detail", "message", "error"} {
		switch v := errResp[key].(type) {
		case nil:
			continue
		case string:
			if v != "" {
				return v
			}
		default:
			// Validation errors arrive as structured detail lists.
			if data, err := json.Marshal(v); err == nil {
				return apierrors.Snippet(data)
			}
		}
	}
	return ""
}

func decodeResult(req *Request, status int, body []byte, result any) error {
	if result == nil {
		return nil
	}

	protocolErr := func(msg string, err error) error {
		return &apierrors.Error{
			Kind:       apierrors.KindProtocol,
			Message:    msg,
			StatusCode: status,
			Body:       apierrors.Snippet(body),
			Method:     req.Method,
			Path:       req.Path,
			Err:        err,
		}
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return protocolErr("empty response body", nil)
	}
	if err := json.Unmarshal(body, result); err != nil {
		return protocolErr("failed to decode response", err)
	}
	if v, ok := result.(Validator); ok {
		if err := v.Validate(); err != nil {
			return protocolErr("unexpected response shape: "+err.Error(), err)
		}
	}
	return nil
}
