package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	coceerrors "github.com/lepinkainen/coce/internal/errors"
	"github.com/lepinkainen/coce/internal/ratelimit"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	maxBodySize        = 4 << 20
	userAgent          = "Mozilla/5.0"
)

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// base carries the transport settings every adapter shares.
type base struct {
	name       string
	baseURL    string
	httpClient HTTPDoer
	limiter    *ratelimit.Limiter
}

// Option is a functional option for configuring an adapter.
type Option func(*base)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c HTTPDoer) Option {
	return func(b *base) {
		if c != nil {
			b.httpClient = c
		}
	}
}

// WithBaseURL points the adapter at another upstream host.
func WithBaseURL(u string) Option {
	return func(b *base) {
		if u != "" {
			b.baseURL = strings.TrimSuffix(u, "/")
		}
	}
}

// WithRateLimiter replaces the adapter's rate limiter. nil disables limiting.
func WithRateLimiter(l *ratelimit.Limiter) Option {
	return func(b *base) {
		b.limiter = l
	}
}

func newBase(name, baseURL string, limiter *ratelimit.Limiter, opts []Option) base {
	b := base{
		name:       name,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		limiter:    limiter,
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// do sends a body-less request after waiting for the rate limiter.
func (b *base) do(ctx context.Context, method, endpoint string, prepare func(*http.Request)) (*http.Response, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if prepare != nil {
		prepare(req)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request: %w", err)
	}
	return resp, nil
}

// getBody performs a GET and returns the body of a 2xx response.
func (b *base) getBody(ctx context.Context, endpoint string, prepare func(*http.Request)) ([]byte, error) {
	resp, err := b.do(ctx, http.MethodGet, endpoint, prepare)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, coceerrors.NewRateLimitError(b.name, resp.Header)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w %d: %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, nil
}

// jsonPayload extracts the JSON object from a body that may be wrapped in a
// script assignment such as `_GBSBookInfo = {...};`. The script is never
// evaluated; anything but that exact shape is rejected.
func jsonPayload(body []byte, variable string) ([]byte, error) {
	s := bytes.TrimSpace(body)
	if len(s) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}
	if s[0] == '{' {
		return s, nil
	}

	s = bytes.TrimPrefix(s, []byte("var "))
	rest, ok := bytes.CutPrefix(s, []byte(variable))
	if !ok {
		return nil, fmt.Errorf("%w: expected %s assignment", ErrMalformedResponse, variable)
	}
	rest, ok = bytes.CutPrefix(bytes.TrimSpace(rest), []byte("="))
	if !ok {
		return nil, fmt.Errorf("%w: expected %s assignment", ErrMalformedResponse, variable)
	}
	rest = bytes.TrimSpace(rest)
	rest = bytes.TrimSpace(bytes.TrimSuffix(rest, []byte(";")))
	if len(rest) == 0 || rest[0] != '{' {
		return nil, fmt.Errorf("%w: %s is not an object", ErrMalformedResponse, variable)
	}
	return rest, nil
}
