package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestRateLimitError(t *testing.T) {
	header := http.Header{}
	header.Set("Retry-After", "30")
	err := NewRateLimitError("gb", header)

	if err.RetryAfter != 30*time.Second {
		t.Fatalf("RetryAfter = %v, want 30s", err.RetryAfter)
	}
	if err.Error() != "gb rate limited, retry after 30s" {
		t.Fatalf("Error message = %q", err.Error())
	}

	if !IsRateLimitError(err) {
		t.Fatalf("IsRateLimitError returned false for RateLimitError")
	}

	wrapped := fmt.Errorf("google books: %w", err)
	if !IsRateLimitError(wrapped) {
		t.Fatalf("IsRateLimitError returned false for wrapped RateLimitError")
	}
}

func TestRateLimitErrorWithoutRetryAfter(t *testing.T) {
	err := NewRateLimitError("ol", http.Header{"Retry-After": []string{"Wed, 21 Oct 2015 07:28:00 GMT"}})

	if err.RetryAfter != 0 {
		t.Fatalf("RetryAfter = %v, want 0", err.RetryAfter)
	}
	if err.Error() != "ol rate limited" {
		t.Fatalf("Error message = %q", err.Error())
	}
}

func TestIsRateLimitErrorRejectsOtherErrors(t *testing.T) {
	if IsRateLimitError(stdErrors.New("boom")) {
		t.Fatalf("IsRateLimitError returned true for plain error")
	}
	if IsRateLimitError(nil) {
		t.Fatalf("IsRateLimitError returned true for nil")
	}
}
