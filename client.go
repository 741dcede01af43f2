package nsgifts

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/nsgifts/client-go/internal/api"
	"github.com/nsgifts/client-go/internal/apierrors"
	"github.com/nsgifts/client-go/internal/session"
)

// Request describes one logical API call. Method and Path are required.
// Set Idempotent for reads; non-idempotent requests are retried only when
// DedupKey is set, and the key is sent as the Idempotency-Key header.
type Request = api.Request

// TokenResponse is the body returned by login and signup.
type TokenResponse = session.TokenResponse

// Client is the NS Gifts API client. It is safe for concurrent use.
type Client struct {
	api     *api.Client
	session *session.Controller
	logger  zerolog.Logger

	mu     sync.RWMutex
	closed bool
	// ownsTransport is false when the caller supplied the http.Client.
	ownsTransport bool
}

// buildAPIClient creates and configures the request executor from cfg.
func buildAPIClient(cfg *clientConfig) (*api.Client, error) {
	apiOpts := []api.Option{
		api.WithTimeout(cfg.timeout),
		api.WithUserAgent(cfg.userAgent),
		api.WithLogger(cfg.logger),
	}
	if cfg.httpClient != nil {
		apiOpts = append(apiOpts, api.WithHTTPClient(cfg.httpClient))
	}
	return api.New(cfg.baseURL, apiOpts...)
}

// New creates a client. No network traffic happens until the first call.
func New(opts ...Option) (*Client, error) {
	cfg := defaultClientConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	apiClient, err := buildAPIClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	logger := cfg.logger
	ctrl := session.NewController(apiClient, session.Config{
		Retry: &api.RetryConfig{
			MaxAttempts: cfg.maxAttempts,
			BaseDelay:   cfg.baseDelay,
			MaxDelay:    cfg.maxDelay,
			Jitter:      cfg.jitter,
		},
		SafetyMargin:        cfg.safetyMargin,
		ServerErrorCooldown: cfg.serverErrorCooldown,
		Logger:              &logger,
		Sleep:               cfg.sleep,
	})
	if cfg.credentials != nil {
		ctrl.Tokens().SetCredentials(*cfg.credentials)
	}

	return &Client{
		api:           apiClient,
		session:       ctrl,
		logger:        logger,
		ownsTransport: cfg.httpClient == nil,
	}, nil
}

// BaseURL returns the configured API base URL.
func (c *Client) BaseURL() string {
	return c.api.BaseURL()
}

func (c *Client) checkOpen() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return apierrors.Wrap(apierrors.KindClient, ErrClientClosed, "client is closed")
	}
	return nil
}

// Call executes req and decodes the response body into result, which may be
// nil. Tokens are obtained and refreshed as needed, and transient failures
// are retried with exponential backoff. Every failure is an *Error.
func (c *Client) Call(ctx context.Context, req *Request, result any) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	if req == nil || req.Method == "" || req.Path == "" {
		return invalidParams("request method and path are required")
	}
	return c.session.Call(ctx, req, result)
}

// Login authenticates with an e-mail or nickname and password. The
// credentials are kept so expired tokens can be renewed automatically.
func (c *Client) Login(ctx context.Context, login, password string) (*TokenResponse, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	if login == "" || password == "" {
		return nil, invalidParams("login and password are required")
	}
	return c.session.Login(ctx, session.Credentials{Login: login, Password: password})
}

// Signup registers a new account and stores the returned token. Signup
// sets no password, so renewal after expiry needs a later Login.
// bybitDeposit defaults to "0" when empty.
func (c *Client) Signup(ctx context.Context, email, role, bybitDeposit string) (*TokenResponse, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	if email == "" || role == "" {
		return nil, invalidParams("email and role are required")
	}
	if bybitDeposit == "" {
		bybitDeposit = "0"
	}
	return c.session.Exchange(ctx, &Request{
		Method: http.MethodPost,
		Path:   PathSignup,
		Body:   signupRequest{Email: email, Role: role, BybitDeposit: bybitDeposit},
	})
}

// TokenSource exposes the held access token as an oauth2.TokenSource,
// logging in or refreshing through the client when needed. ctx bounds each
// refresh.
func (c *Client) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, client: c}
}

type tokenSource struct {
	ctx    context.Context
	client *Client
}

func (ts *tokenSource) Token() (*oauth2.Token, error) {
	if err := ts.client.checkOpen(); err != nil {
		return nil, err
	}
	tok, err := ts.client.session.Tokens().Ensure(ts.ctx)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{
		AccessToken: tok.Value,
		TokenType:   "Bearer",
		Expiry:      tok.Expiry,
	}, nil
}

// IsServerErrorDetected reports whether the server error cooldown is active.
// It is always false unless WithServerErrorCooldown is set.
func (c *Client) IsServerErrorDetected() bool {
	return c.session.ServerErrorDetected()
}

// ResetServerErrorState ends any active server error cooldown.
func (c *Client) ResetServerErrorState() {
	c.session.ResetServerError()
}

// Close releases the client's own idle connections and drops the held token.
// Calls made after Close fail with ErrClientClosed. Close is idempotent.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if c.ownsTransport {
		c.api.Close()
	}
	c.session.Tokens().Close()
	c.logger.Debug().Msg("client closed")
	return nil
}
