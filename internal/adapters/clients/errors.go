// Package clients provides the outbound HTTP client used to reach the remote quote feed.
package clients

import "errors"

// Transport-level failures. Adapters translate them into domain errors.
var (
	// ErrCircuitOpen is returned without contacting the remote while the breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrMaxRetriesExceeded wraps the last attempt's error once retries run out.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)
