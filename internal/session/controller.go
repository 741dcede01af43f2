package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/nsgifts/client-go/internal/api"
	"github.com/nsgifts/client-go/internal/apierrors"
)

// DefaultLoginPath is the token endpoint.
const DefaultLoginPath = "/api/v1/get_token"

// Executor performs a single request attempt.
// *api.Client implements this.
type Executor interface {
	Execute(ctx context.Context, req *api.Request, token string, result any) error
}

// Config configures a Controller. Zero values select defaults.
type Config struct {
	Retry               *api.RetryConfig
	SafetyMargin        time.Duration
	ServerErrorCooldown time.Duration
	LoginPath           string
	Logger              *zerolog.Logger

	// Sleep suspends between attempts. Tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
	// Now returns the current time. Tests replace it.
	Now func() time.Time
}

// Controller wraps an Executor with token refresh and retry with backoff.
// It is safe for concurrent use.
type Controller struct {
	exec      Executor
	tokens    *TokenStore
	retry     *api.RetryConfig
	cooldown  *cooldown
	loginPath string
	logger    zerolog.Logger
	sleep     func(ctx context.Context, d time.Duration) error
	now       func() time.Time
}

// NewController creates a Controller around exec.
func NewController(exec Executor, cfg Config) *Controller {
	c := &Controller{
		exec:      exec,
		retry:     cfg.Retry,
		loginPath: cfg.LoginPath,
		logger:    zerolog.Nop(),
		sleep:     cfg.Sleep,
		now:       cfg.Now,
	}
	if c.retry == nil {
		c.retry = api.DefaultRetryConfig()
	}
	if c.loginPath == "" {
		c.loginPath = DefaultLoginPath
	}
	if cfg.Logger != nil {
		c.logger = *cfg.Logger
	}
	if c.sleep == nil {
		c.sleep = api.Sleep
	}
	if c.now == nil {
		c.now = time.Now
	}

	c.tokens = NewTokenStore(c.refreshLogin, cfg.SafetyMargin)
	c.tokens.now = c.now
	c.cooldown = newCooldown(cfg.ServerErrorCooldown, c.now)
	return c
}

// Tokens returns the controller's token store.
func (c *Controller) Tokens() *TokenStore {
	return c.tokens
}

// ServerErrorDetected reports whether the server error cooldown is active.
func (c *Controller) ServerErrorDetected() bool {
	return c.cooldown.remaining() > 0
}

// ResetServerError ends any active server error cooldown.
func (c *Controller) ResetServerError() {
	c.cooldown.reset()
	c.logger.Info().Msg("server error state reset")
}

// Call executes req, refreshing the token and retrying as needed, and decodes
// the response into result. Every failure is an *apierrors.Error.
func (c *Controller) Call(ctx context.Context, req *api.Request, result any) error {
	if left := c.cooldown.remaining(); left > 0 {
		return &apierrors.Error{
			Kind:    apierrors.KindServer,
			Message: fmt.Sprintf("server error detected; avoiding requests for %s", left.Round(time.Second)),
			Method:  req.Method,
			Path:    req.Path,
		}
	}
	if req.RequiresAuth && !c.tokens.CanAuthenticate() {
		return &apierrors.Error{
			Kind:    apierrors.KindAuthentication,
			Message: "authentication required; call Login or Signup first",
			Method:  req.Method,
			Path:    req.Path,
			Err:     apierrors.ErrMissingCredentials,
		}
	}

	err := c.do(ctx, req, result)
	if apierrors.KindOf(err) == apierrors.KindServer && c.cooldown.period > 0 {
		c.cooldown.trip()
		c.logger.Warn().
			Str("path", req.Path).
			Dur("cooldown", c.cooldown.period).
			Msg("server error detected, pausing requests")
	}
	return err
}

// Login exchanges creds for a token, stores both, and returns the raw response.
func (c *Controller) Login(ctx context.Context, creds Credentials) (*TokenResponse, error) {
	c.tokens.SetCredentials(creds)

	resp, err := c.authenticate(ctx, creds)
	if err != nil {
		if apierrors.KindOf(err) == apierrors.KindAuthentication {
			c.tokens.Clear()
		}
		return nil, err
	}
	c.tokens.Set(resp.Token(c.now()))
	return resp, nil
}

// Exchange sends an unauthenticated request whose response carries a token,
// such as a signup, and stores that token. Like Login it is not subject to
// the server error cooldown.
func (c *Controller) Exchange(ctx context.Context, req *api.Request) (*TokenResponse, error) {
	var resp TokenResponse
	if err := c.do(ctx, req, &resp); err != nil {
		return nil, err
	}
	c.tokens.Set(resp.Token(c.now()))
	return &resp, nil
}

func (c *Controller) refreshLogin(ctx context.Context, creds Credentials) (Token, error) {
	resp, err := c.authenticate(ctx, creds)
	if err != nil {
		return Token{}, err
	}
	tok := resp.Token(c.now())
	c.logger.Info().Time("expires", tok.Expiry).Msg("token refreshed")
	return tok, nil
}

func (c *Controller) authenticate(ctx context.Context, creds Credentials) (*TokenResponse, error) {
	req := &api.Request{
		Method:     http.MethodPost,
		Path:       c.loginPath,
		Body:       loginRequest{Email: creds.Login, Password: creds.Password},
		Idempotent: true,
	}
	var resp TokenResponse
	if err := c.do(ctx, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// do runs the attempt loop for one call. n counts attempts for the backoff
// policy; the single auth refresh-and-retry reruns attempt n without
// consuming one.
func (c *Controller) do(ctx context.Context, req *api.Request, result any) error {
	var (
		n           = 1
		attempts    int
		authRetried bool
	)

	for {
		var token string
		if req.RequiresAuth {
			tok, err := c.tokens.Ensure(ctx)
			if err != nil {
				return withAttempts(err, attempts)
			}
			token = tok.Value
		}

		attempts++
		c.logger.Debug().
			Str("method", req.Method).
			Str("path", req.Path).
			Int("attempt", attempts).
			Msg("executing request")

		err := c.exec.Execute(ctx, req, token, result)
		if err == nil {
			return nil
		}
		kind := apierrors.KindOf(err)

		if kind == apierrors.KindAuthentication && req.RequiresAuth && !authRetried {
			authRetried = true
			c.logger.Warn().Str("path", req.Path).Msg("token rejected, refreshing")
			c.tokens.Invalidate(token)
			continue
		}

		if !req.Retryable() || ctx.Err() != nil || !c.retry.ShouldRetry(n, kind) {
			return withAttempts(err, attempts)
		}

		delay := c.retry.Delay(n)
		c.logger.Warn().
			Str("path", req.Path).
			Str("kind", kind.String()).
			Int("attempt", n).
			Int("max_attempts", c.retry.MaxAttempts).
			Dur("delay", delay).
			Msg("retrying request")

		if sleepErr := c.sleep(ctx, delay); sleepErr != nil {
			abandoned := apierrors.FromContext(sleepErr, fmt.Sprintf("retry abandoned: %v", err))
			abandoned.Method, abandoned.Path = req.Method, req.Path
			return withAttempts(abandoned, attempts)
		}
		n++
	}
}

// withAttempts returns a copy of err with the attempt count recorded.
// Errors may be shared between callers of a deduplicated refresh, so the
// original is never modified.
func withAttempts(err error, attempts int) error {
	var apiErr *apierrors.Error
	if !errors.As(err, &apiErr) {
		return apierrors.Wrap(apierrors.KindConnection, err, "unclassified failure")
	}
	if apiErr.Attempts != 0 || attempts == 0 {
		return apiErr
	}
	cp := *apiErr
	cp.Attempts = attempts
	return &cp
}
