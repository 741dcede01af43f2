package nsgifts

import (
	"errors"

	"github.com/nsgifts/client-go/internal/apierrors"
)

// Error is returned for every failed call. Match broadly with errors.As or
// narrowly with errors.Is against the kind sentinels:
//
//	var apiErr *nsgifts.Error
//	if errors.As(err, &apiErr) {
//	    log.Printf("status=%d attempts=%d body=%s", apiErr.StatusCode, apiErr.Attempts, apiErr.Body)
//	}
//	if errors.Is(err, nsgifts.ErrTimeout) {
//	    // ...
//	}
type Error = apierrors.Error

// Kind classifies an Error.
type Kind = apierrors.Kind

// Error kinds.
const (
	KindConnection     = apierrors.KindConnection
	KindTimeout        = apierrors.KindTimeout
	KindAuthentication = apierrors.KindAuthentication
	KindClient         = apierrors.KindClient
	KindServer         = apierrors.KindServer
	KindProtocol       = apierrors.KindProtocol
)

// Sentinel errors for errors.Is() checks
var (
	// ErrConnection matches transport-level failures.
	ErrConnection = apierrors.ErrConnection

	// ErrTimeout matches requests that got no response within the deadline.
	ErrTimeout = apierrors.ErrTimeout

	// ErrAuthentication matches HTTP 401/403 and failed logins.
	ErrAuthentication = apierrors.ErrAuthentication

	// ErrClient matches other HTTP 4xx responses and locally rejected requests.
	ErrClient = apierrors.ErrClient

	// ErrServer matches HTTP 5xx responses and the server error cooldown.
	ErrServer = apierrors.ErrServer

	// ErrProtocol matches responses that could not be parsed.
	ErrProtocol = apierrors.ErrProtocol

	// ErrClientClosed is returned when operations are attempted on a closed client.
	ErrClientClosed = apierrors.ErrClientClosed

	// ErrMissingCredentials is returned when a token is needed and no
	// credentials are set.
	ErrMissingCredentials = apierrors.ErrMissingCredentials

	// ErrInvalidParams is returned when endpoint parameters fail validation.
	ErrInvalidParams = apierrors.ErrInvalidParams

	// ErrInvalidConfig is returned by New and LoadConfig for unusable settings.
	ErrInvalidConfig = errors.New("invalid client configuration")
)

// invalidParams reports a parameter validation failure as a client error.
func invalidParams(msg string) error {
	return apierrors.Wrap(apierrors.KindClient, apierrors.ErrInvalidParams, msg)
}
