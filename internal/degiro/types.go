// Package degiro provides a client for the Degiro trading platform API,
// including the Refinitiv company profile and ratios endpoints exposed
// through it. This package centralizes all Degiro API interactions for the
// application.
package degiro

import (
	"fmt"
	"time"
)

// APIError represents an error from the Degiro API.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Degiro API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// AuthenticationError indicates a failed or expired login session.
type AuthenticationError struct {
	Reason string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("Degiro authentication failed: %s", e.Reason)
}

// RateLimitError represents a rate limit error.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("Degiro rate limit exceeded, retry after %v", e.RetryAfter)
}
