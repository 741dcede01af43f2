package nsgifts

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/nsgifts/client-go/internal/api"
	"github.com/nsgifts/client-go/internal/session"
)

const (
	defaultBaseURL      = "https://api.ns.gifts"
	defaultTimeout      = api.DefaultTimeout
	defaultMaxAttempts  = api.DefaultMaxAttempts
	defaultBaseDelay    = api.DefaultBaseDelay
	defaultMaxDelay     = api.DefaultMaxDelay
	defaultJitter       = api.DefaultJitter
	defaultSafetyMargin = session.DefaultSafetyMargin
)

// clientConfig holds configuration for the client.
type clientConfig struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	logger     zerolog.Logger

	// Retry configuration
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	jitter      float64

	// Session configuration
	safetyMargin        time.Duration
	serverErrorCooldown time.Duration
	credentials         *session.Credentials

	// sleep replaces the backoff wait in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func defaultClientConfig() *clientConfig {
	return &clientConfig{
		baseURL:      defaultBaseURL,
		timeout:      defaultTimeout,
		userAgent:    api.DefaultUserAgent,
		logger:       zerolog.Nop(),
		maxAttempts:  defaultMaxAttempts,
		baseDelay:    defaultBaseDelay,
		maxDelay:     defaultMaxDelay,
		jitter:       defaultJitter,
		safetyMargin: defaultSafetyMargin,
	}
}

// Option configures the client.
type Option func(*clientConfig)

// WithBaseURL sets the API base URL.
// Default: https://api.ns.gifts
func WithBaseURL(url string) Option {
	return func(c *clientConfig) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client. The client keeps ownership of its
// transport; Close does not release its connections.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithTimeout sets the deadline for each request attempt.
// Default: 30 seconds
func WithTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = timeout
	}
}

// WithMaxAttempts sets the total number of attempts for retryable failures,
// including the first one.
// Default: 3
func WithMaxAttempts(n int) Option {
	return func(c *clientConfig) {
		c.maxAttempts = n
	}
}

// WithBackoff sets the base delay and the cap for exponential backoff.
// Default: 1 second, capped at 30 seconds
func WithBackoff(base, max time.Duration) Option {
	return func(c *clientConfig) {
		c.baseDelay = base
		c.maxDelay = max
	}
}

// WithJitter sets the randomization factor applied to backoff delays.
// Default: 0.2 (±20%)
func WithJitter(factor float64) Option {
	return func(c *clientConfig) {
		c.jitter = factor
	}
}

// WithTokenSafetyMargin sets how long before its expiry a token is refreshed.
// Default: 5 minutes
func WithTokenSafetyMargin(margin time.Duration) Option {
	return func(c *clientConfig) {
		c.safetyMargin = margin
	}
}

// WithServerErrorCooldown makes the client fail fast with a server error for
// the given period after a call surfaces one. Zero disables the cooldown.
// Default: disabled
func WithServerErrorCooldown(period time.Duration) Option {
	return func(c *clientConfig) {
		c.serverErrorCooldown = period
	}
}

// WithCredentials sets the login (e-mail or nickname) and password used to
// obtain tokens on demand, so no explicit Login call is needed.
func WithCredentials(login, password string) Option {
	return func(c *clientConfig) {
		c.credentials = &session.Credentials{Login: login, Password: password}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *clientConfig) {
		c.userAgent = ua
	}
}

// WithLogger sets the logger. The client logs nothing by default.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// WithConfig applies the non-zero fields of cfg.
func WithConfig(cfg *Config) Option {
	return func(c *clientConfig) {
		if cfg == nil {
			return
		}
		cfg.apply(c)
	}
}
