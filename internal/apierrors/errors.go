// Package apierrors provides shared error types for the NS Gifts client.
package apierrors

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a failed call. Every *Error carries exactly one Kind.
type Kind int

const (
	// KindUnknown is the zero value and never produced by the client.
	KindUnknown Kind = iota
	// KindConnection is a transport-level failure (DNS, refused, reset).
	KindConnection
	// KindTimeout means no response arrived within the request deadline.
	KindTimeout
	// KindAuthentication is HTTP 401/403, a rejected token or a failed login.
	KindAuthentication
	// KindClient is any other HTTP 4xx or a locally rejected request.
	KindClient
	// KindServer is HTTP 5xx.
	KindServer
	// KindProtocol means the response could not be parsed into the expected shape.
	KindProtocol
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindTimeout:
		return "timeout"
	case KindAuthentication:
		return "authentication"
	case KindClient:
		return "client"
	case KindServer:
		return "server"
	case KindProtocol:
		return "protocol"
	default:
		return "unknown"
	}
}

// Retryable reports whether failures of this kind are transient.
func (k Kind) Retryable() bool {
	switch k {
	case KindConnection, KindTimeout, KindServer:
		return true
	}
	return false
}

// Sentinel errors for errors.Is() checks, one per Kind.
var (
	ErrConnection     = errors.New("connection error")
	ErrTimeout        = errors.New("request timeout")
	ErrAuthentication = errors.New("authentication failed")
	ErrClient         = errors.New("client error")
	ErrServer         = errors.New("server error")
	ErrProtocol       = errors.New("protocol error")
)

// Sentinels wrapped by KindClient and KindAuthentication errors raised locally.
var (
	// ErrClientClosed is returned when operations are attempted on a closed client.
	ErrClientClosed = errors.New("client has been closed")

	// ErrMissingCredentials is returned when a token is needed but no
	// credentials are available to obtain one.
	ErrMissingCredentials = errors.New("credentials are not set")

	// ErrInvalidParams is returned when endpoint parameters fail local validation.
	ErrInvalidParams = errors.New("invalid request parameters")
)

var kindSentinels = map[Kind]error{
	KindConnection:     ErrConnection,
	KindTimeout:        ErrTimeout,
	KindAuthentication: ErrAuthentication,
	KindClient:         ErrClient,
	KindServer:         ErrServer,
	KindProtocol:       ErrProtocol,
}

// maxBodySnippet bounds the response body kept on an error.
const maxBodySnippet = 512

// Error is the single failure type surfaced by the client.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int    // 0 when no HTTP response was received
	Body       string // truncated raw response body
	Method     string
	Path       string
	Attempts   int // network attempts made by the call, 0 if none
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = kindSentinels[e.Kind].Error()
	}
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s error %d: %s", e.Kind, e.StatusCode, msg)
	} else {
		msg = fmt.Sprintf("%s error: %s", e.Kind, msg)
	}
	if e.Path != "" {
		msg += fmt.Sprintf(" (%s %s)", e.Method, e.Path)
	}
	if e.Attempts > 1 {
		msg += fmt.Sprintf(" after %d attempts", e.Attempts)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
// Only the sentinel of the error's own kind matches.
func (e *Error) Is(target error) bool {
	s, ok := kindSentinels[e.Kind]
	return ok && target == s
}

// Retryable reports whether the error is of a transient kind.
func (e *Error) Retryable() bool {
	return e.Kind.Retryable()
}

// New returns an error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an error of the given kind wrapping err.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// FromContext classifies a context error: an expired deadline is a timeout,
// anything else (cancellation) is a connection failure.
func FromContext(err error, message string) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(KindTimeout, err, message)
	}
	return Wrap(KindConnection, err, message)
}

// KindOf returns the Kind of err, or KindUnknown if err is not an *Error.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// Snippet truncates a response body for inclusion in an error.
func Snippet(body []byte) string {
	if len(body) <= maxBodySnippet {
		return string(body)
	}
	return string(body[:maxBodySnippet]) + "..."
}
