// Package session keeps the bearer token for the NS Gifts API and drives
// the retry loop around the request executor.
//
// [Controller.Call] is the single entry point used by every endpoint method.
// For one call it:
//
//  1. obtains a valid token from the [TokenStore], logging in when none is held;
//  2. executes the request;
//  3. on an authentication failure, drops the rejected token, refreshes once
//     and retries once;
//  4. on a connection, timeout or server failure, waits according to the
//     backoff policy and tries again, up to the configured attempt limit.
//
// Requests that are neither idempotent nor carry a deduplication key are never
// retried after a transient failure, since the server may already have applied
// them.
//
// [TokenStore] serializes access to the token. Callers that observe a missing
// or expired token at the same time share one login request.
package session
