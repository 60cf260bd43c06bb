package rocketreach

import (
	"errors"
	"fmt"
)

// ErrRetriesExhausted indicates every allowed attempt hit a retryable
// condition (429, 503, or a transport failure).
var ErrRetriesExhausted = errors.New("rocketreach: retries exhausted")

// TerminalError is a non-retryable API response: any status outside 2xx that
// is not a throttle or temporary-unavailable signal. The body is truncated to
// keep logs and stored usage records bounded.
type TerminalError struct {
	Status int
	Body   string
}

func (e *TerminalError) Error() string {
	return fmt.Sprintf("rocketreach: api error %d: %s", e.Status, e.Body)
}

// maxBodySnippet bounds how much of an error response body is retained.
const maxBodySnippet = 512

func snippet(b []byte) string {
	if len(b) > maxBodySnippet {
		return string(b[:maxBodySnippet])
	}
	return string(b)
}
