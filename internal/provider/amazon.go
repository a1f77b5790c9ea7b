package provider

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/lepinkainen/coce/internal/config"
	coceerrors "github.com/lepinkainen/coce/internal/errors"
	"github.com/lepinkainen/coce/internal/ratelimit"
)

const (
	amazonBaseURL      = "https://images-na.ssl-images-amazon.com"
	defaultAmazonDelay = 30 * time.Millisecond
)

// Amazon probes Amazon's direct image URLs. The upstream has no batch API,
// so identifiers are checked one at a time with a pause between probes.
type Amazon struct {
	base
}

// Compile-time check that Amazon implements Adapter.
var _ Adapter = (*Amazon)(nil)

// NewAmazon creates a new Amazon adapter waiting delay between probes.
func NewAmazon(delay time.Duration, opts ...Option) *Amazon {
	if delay <= 0 {
		delay = defaultAmazonDelay
	}
	return &Amazon{
		base: newBase(config.Amazon, amazonBaseURL, ratelimit.NewWithInterval("Amazon", delay), opts),
	}
}

// Name returns the provider tag.
func (a *Amazon) Name() string {
	return config.Amazon
}

// ImageURL returns the direct image URL probed for id.
func (a *Amazon) ImageURL(id string) string {
	isbn, _ := ISBN13To10(id)
	return fmt.Sprintf("%s/images/P/%s.01.MZZZZZZZZZ.jpg", a.baseURL, url.PathEscape(isbn))
}

// Fetch probes every identifier in order. A failed probe only drops that
// identifier; a cancelled context or a 429 stops the loop and returns what
// was found.
func (a *Amazon) Fetch(ctx context.Context, ids []string) (map[string]string, error) {
	found := make(map[string]string)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return found, fmt.Errorf("amazon: %w", err)
		}

		imageURL := a.ImageURL(id)
		resp, err := a.do(ctx, http.MethodHead, imageURL, nil)
		if err != nil {
			slog.Debug("Amazon probe failed", "id", id, "error", err)
			continue
		}
		_ = resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			return found, fmt.Errorf("amazon: %w", coceerrors.NewRateLimitError(a.name, resp.Header))
		}

		// A 403 is what Amazon answers for existing images requested without a session.
		if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusForbidden {
			found[id] = imageURL
		}
	}
	return found, nil
}
