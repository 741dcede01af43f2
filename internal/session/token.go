package session

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/nsgifts/client-go/internal/apierrors"
)

// DefaultSafetyMargin is how long before expiry a token stops being used.
const DefaultSafetyMargin = 5 * time.Minute

// Credentials identify the account used to obtain tokens.
type Credentials struct {
	Login    string // e-mail or nickname
	Password string
}

func (c Credentials) complete() bool {
	return c.Login != "" && c.Password != ""
}

// Token is a bearer token and its absolute expiry.
type Token struct {
	Value  string
	Expiry time.Time
}

// LoginFunc exchanges credentials for a token.
type LoginFunc func(ctx context.Context, creds Credentials) (Token, error)

// TokenStore holds the current token and the credentials needed to refresh it.
// It is safe for concurrent use; overlapping refreshes share one login call.
type TokenStore struct {
	mu       sync.RWMutex
	token    *Token
	creds    *Credentials
	margin   time.Duration
	login    LoginFunc
	now      func() time.Time
	inflight singleflight.Group
	// closed stops a refresh still in flight from storing its token.
	closed bool
}

// NewTokenStore creates a store that refreshes through login.
func NewTokenStore(login LoginFunc, margin time.Duration) *TokenStore {
	if margin < 0 {
		margin = 0
	}
	return &TokenStore{
		margin: margin,
		login:  login,
		now:    time.Now,
	}
}

// SetLogin replaces the function used to refresh tokens.
func (s *TokenStore) SetLogin(login LoginFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.login = login
}

// SetCredentials stores the credentials used for later refreshes.
func (s *TokenStore) SetCredentials(creds Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = &creds
}

// Credentials returns the stored credentials, if any.
func (s *TokenStore) Credentials() (Credentials, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.creds == nil {
		return Credentials{}, false
	}
	return *s.creds, true
}

// CanAuthenticate reports whether a token is held or could be obtained.
func (s *TokenStore) CanAuthenticate() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != nil || (s.creds != nil && s.creds.complete())
}

// Current returns the held token if it is still valid.
func (s *TokenStore) Current() (Token, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.validLocked()
}

func (s *TokenStore) validLocked() (Token, bool) {
	if s.token == nil {
		return Token{}, false
	}
	if !s.now().Before(s.token.Expiry.Add(-s.margin)) {
		return Token{}, false
	}
	return *s.token, true
}

// Set replaces the held token. It does nothing once the store is closed.
func (s *TokenStore) Set(tok Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.token = &tok
}

// Close drops the held token and credentials. Tokens from refreshes that
// finish later are discarded.
func (s *TokenStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.token = nil
	s.creds = nil
}

// Clear drops the held token.
func (s *TokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = nil
}

// Invalidate drops the held token only if it is still the one with the given
// value. It reports whether a token was dropped.
func (s *TokenStore) Invalidate(value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == nil || s.token.Value != value {
		return false
	}
	s.token = nil
	return true
}

// Ensure returns a valid token, refreshing when none is held.
func (s *TokenStore) Ensure(ctx context.Context) (Token, error) {
	if tok, ok := s.Current(); ok {
		return tok, nil
	}
	return s.Refresh(ctx)
}

// Refresh logs in with the stored credentials and stores the new token.
// Concurrent callers share a single login; a caller whose ctx ends stops
// waiting without cancelling the login for the others.
func (s *TokenStore) Refresh(ctx context.Context) (Token, error) {
	if err := ctx.Err(); err != nil {
		return Token{}, apierrors.FromContext(err, "token refresh abandoned")
	}
	ch := s.inflight.DoChan("refresh", func() (any, error) {
		return s.refresh(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return Token{}, apierrors.FromContext(ctx.Err(), "token refresh abandoned")
	case res := <-ch:
		if res.Err != nil {
			return Token{}, res.Err
		}
		return res.Val.(Token), nil
	}
}

func (s *TokenStore) refresh(ctx context.Context) (Token, error) {
	s.mu.RLock()
	// A refresh that finished just before this one started already did the work.
	if tok, ok := s.validLocked(); ok {
		s.mu.RUnlock()
		return tok, nil
	}
	login := s.login
	var creds Credentials
	if s.creds != nil {
		creds = *s.creds
	}
	s.mu.RUnlock()

	if !creds.complete() {
		return Token{}, apierrors.Wrap(apierrors.KindAuthentication, apierrors.ErrMissingCredentials,
			"token expired and credentials are not set; call Login first")
	}
	if login == nil {
		return Token{}, apierrors.New(apierrors.KindClient, "no login function configured")
	}

	tok, err := login(ctx, creds)
	if err != nil {
		if apierrors.KindOf(err) == apierrors.KindAuthentication {
			s.Clear()
		}
		return Token{}, err
	}

	s.Set(tok)
	return tok, nil
}
