// Package common contains shared constants and sentinel errors used across
// Park-IT client components.
package common

// RequestIDHeaderName is the HTTP header used to carry a per-request
// correlation id on outbound requests.
const RequestIDHeaderName = "X-Request-Id"
