// Package errors holds error types shared by the provider adapters and the engine.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// RateLimitError is returned when an upstream answers 429 Too Many Requests.
type RateLimitError struct {
	Provider string
	// RetryAfter is the wait the upstream asked for, zero if it gave none.
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s rate limited, retry after %s", e.Provider, e.RetryAfter)
	}
	return fmt.Sprintf("%s rate limited", e.Provider)
}

// NewRateLimitError builds a RateLimitError from a 429 response's headers.
func NewRateLimitError(provider string, header http.Header) *RateLimitError {
	err := &RateLimitError{Provider: provider}
	if secs, convErr := strconv.Atoi(header.Get("Retry-After")); convErr == nil && secs > 0 {
		err.RetryAfter = time.Duration(secs) * time.Second
	}
	return err
}

// IsRateLimitError reports whether err is a RateLimitError (even when wrapped).
func IsRateLimitError(err error) bool {
	var rlErr *RateLimitError
	return errors.As(err, &rlErr)
}
