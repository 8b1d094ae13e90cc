package github

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnavailable reports a transport failure or a 5xx answer from GitHub.
	ErrUnavailable = errors.New("github: service unavailable")
	// ErrInvalidToken reports that GitHub rejected the owner's token.
	ErrInvalidToken = errors.New("github: token rejected")
)

// RateLimitError is returned when GitHub answers 403 or 429 on a call subject to rate limiting.
type RateLimitError struct {
	Status  int
	ResetAt time.Time // zero when GitHub did not say
}

func (e *RateLimitError) Error() string {
	if e.ResetAt.IsZero() {
		return fmt.Sprintf("github: rate limited (status %d)", e.Status)
	}
	return fmt.Sprintf("github: rate limited (status %d) until %s", e.Status, e.ResetAt.UTC().Format(time.RFC3339))
}

// APIError carries an unexpected GitHub answer and its message verbatim.
type APIError struct {
	Operation string
	Status    int
	Message   string
	Errors    []string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("github: %s: unexpected status %d", e.Operation, e.Status)
	}
	return fmt.Sprintf("github: %s: status %d: %s", e.Operation, e.Status, e.Message)
}

// Unwrap lets errors.Is(err, ErrUnavailable) match server side failures.
func (e *APIError) Unwrap() error {
	if e.Status >= 500 {
		return ErrUnavailable
	}
	return nil
}

// IsRateLimited reports whether err carries a RateLimitError.
func IsRateLimited(err error) (*RateLimitError, bool) {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return rl, true
	}
	return nil, false
}
