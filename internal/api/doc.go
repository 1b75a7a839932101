// Package api contains the Park-IT backend client.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface) covering
//     every backend operation: provider sign-in, token refresh, logout,
//     profile, parking sessions, status preview, history, saved locations,
//     notification settings, and a liveness probe.
//  2. A concrete JSON-over-HTTP implementation (see HTTPClient) that injects
//     the bearer token on every authenticated request, transparently
//     refreshes an expired access token exactly once per logical request,
//     and maps transport and HTTP failures to sentinel errors.
//  3. The TokenStore capability through which the client reads and writes
//     the persisted token pair. The client owns no storage of its own.
//
// # Token Refresh
//
// A 401 response triggers one refresh-and-retry cycle. Concurrent requests
// hitting 401 at the same time share a single in-flight refresh, so the
// rotated refresh token is never consumed twice. When the refresh itself
// fails, the stored pair is cleared and ErrUnauthorized is returned.
//
// # Error Handling
//
// Common conditions are exposed as sentinel errors that callers can match
// with errors.Is: ErrUnavailable (transport failure), ErrUnauthorized
// (authentication required), ErrNotFound (missing resource, including the
// "no active session" reply). Other non-2xx responses surface as *APIError
// carrying the status code and the backend's detail message.
//
// # Concurrency & Contexts
//
// HTTPClient is safe for concurrent use. All operations accept
// context.Context and honor cancellation/timeouts.
package api
