package session

import (
	"errors"
	"math"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenLifetime is assumed when the server reports no expiry.
const DefaultTokenLifetime = 90 * time.Minute

// loginRequest is the body of the token endpoint.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is returned by the login and signup endpoints.
type TokenResponse struct {
	AccessToken string  `json:"access_token"`
	ValidThru   float64 `json:"valid_thru,omitempty"` // unix seconds
}

// Validate implements api.Validator.
func (r *TokenResponse) Validate() error {
	if r.AccessToken == "" {
		return errors.New("missing access_token")
	}
	if r.ValidThru < 0 {
		return errors.New("negative valid_thru")
	}
	return nil
}

// Token converts the response into a Token. The expiry comes from valid_thru,
// else from the JWT exp claim, else now plus DefaultTokenLifetime.
func (r *TokenResponse) Token(now time.Time) Token {
	return Token{Value: r.AccessToken, Expiry: r.expiry(now)}
}

func (r *TokenResponse) expiry(now time.Time) time.Time {
	if r.ValidThru > 0 {
		sec, frac := math.Modf(r.ValidThru)
		return time.Unix(int64(sec), int64(frac*1e9))
	}
	if exp, ok := jwtExpiry(r.AccessToken); ok {
		return exp
	}
	return now.Add(DefaultTokenLifetime)
}

// jwtExpiry reads the exp claim without verifying the signature.
func jwtExpiry(raw string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
