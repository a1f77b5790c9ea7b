package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/lepinkainen/coce/internal/config"
	"github.com/lepinkainen/coce/internal/ratelimit"
)

const (
	openLibraryBaseURL = "https://openlibrary.org"
	openLibraryRPS     = 1
)

// OpenLibrary looks up covers through the Open Library books API.
type OpenLibrary struct {
	base
	imageSize string
}

// Compile-time check that OpenLibrary implements Adapter.
var _ Adapter = (*OpenLibrary)(nil)

// NewOpenLibrary creates a new Open Library adapter returning covers of the
// given size (small, medium or large).
func NewOpenLibrary(imageSize string, opts ...Option) *OpenLibrary {
	if imageSize == "" {
		imageSize = "medium"
	}
	return &OpenLibrary{
		base:      newBase(config.OpenLibrary, openLibraryBaseURL, ratelimit.New("OpenLibrary", openLibraryRPS), opts),
		imageSize: imageSize,
	}
}

// Name returns the provider tag.
func (o *OpenLibrary) Name() string {
	return config.OpenLibrary
}

// openLibraryBook is the part of a jscmd=data record we read.
type openLibraryBook struct {
	Cover map[string]string `json:"cover"`
}

// Fetch resolves the batch with a single books API request.
func (o *OpenLibrary) Fetch(ctx context.Context, ids []string) (map[string]string, error) {
	query := url.Values{}
	query.Set("bibkeys", strings.Join(ids, ","))
	query.Set("jscmd", "data")
	query.Set("format", "json")

	body, err := o.getBody(ctx, o.baseURL+"/api/books?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("openlibrary: %w", err)
	}

	found, err := parseOpenLibrary(body, o.imageSize)
	if err != nil {
		return nil, fmt.Errorf("openlibrary: %w", err)
	}
	return found, nil
}

func parseOpenLibrary(body []byte, imageSize string) (map[string]string, error) {
	payload, err := jsonPayload(body, "_OLBookInfo")
	if err != nil {
		return nil, err
	}

	var result map[string]openLibraryBook
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	found := make(map[string]string, len(result))
	for id, book := range result {
		if u := book.Cover[imageSize]; u != "" {
			found[id] = u
		}
	}
	return found, nil
}
