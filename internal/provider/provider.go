// Package provider contains the adapters that look up cover image URLs
// at upstream services.
package provider

import (
	"context"
	"errors"
)

var (
	// ErrUnexpectedStatus is returned when an upstream answers with a non-2xx status.
	ErrUnexpectedStatus = errors.New("unexpected status")
	// ErrMalformedResponse is returned when an upstream payload cannot be parsed.
	ErrMalformedResponse = errors.New("malformed response")
)

// Adapter looks up cover URLs for a batch of identifiers at one upstream.
//
// Fetch returns a URL for every identifier it found. Identifiers without a
// cover are simply absent from the map. A returned error describes a failed
// call; the map may still carry the URLs found before the failure.
type Adapter interface {
	// Name returns the provider tag (e.g. "gb").
	Name() string

	// Fetch resolves ids. It is only called with a non-empty batch.
	Fetch(ctx context.Context, ids []string) (map[string]string, error)
}
