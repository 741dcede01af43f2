// Package api provides the HTTP request executor and retry policy for the
// NS Gifts API client.
//
// # Request Execution
//
// [Client.Execute] performs exactly one network attempt for a [Request]. It
// attaches the bearer token when the request requires authentication, applies
// the per-attempt timeout, and maps the outcome onto the error taxonomy in
// internal/apierrors:
//
//   - transport failure: KindConnection
//   - deadline exceeded: KindTimeout
//   - 401 Unauthorized, 403 Forbidden: KindAuthentication
//   - any other 4xx: KindClient
//   - 5xx: KindServer
//   - 2xx with an empty, malformed or invalid body: KindProtocol
//
// The executor has no token or retry knowledge. Those belong to the session
// controller in internal/session.
//
// # Retry Behavior
//
// [RetryConfig] computes exponential backoff delays:
//
//	delay(n) = min(MaxDelay, BaseDelay * 2^(n-1))
//
// jittered by up to ±Jitter (20% by default). [RetryConfig.ShouldRetry] allows
// another attempt only for connection, timeout and server errors, and only
// while the attempt count is below MaxAttempts.
//
// # Thread Safety
//
// [Client] is safe for concurrent use. Multiple goroutines may call Execute
// on a single Client simultaneously.
package api
