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
	googleBooksBaseURL = "https://books.google.com"
	googleBooksRPS     = 5
)

// GoogleBooks looks up covers through the Google Books dynamic links API.
// One request covers the whole batch.
type GoogleBooks struct {
	base
}

// Compile-time check that GoogleBooks implements Adapter.
var _ Adapter = (*GoogleBooks)(nil)

// NewGoogleBooks creates a new Google Books adapter.
func NewGoogleBooks(opts ...Option) *GoogleBooks {
	return &GoogleBooks{
		base: newBase(config.GoogleBooks, googleBooksBaseURL, ratelimit.New("GoogleBooks", googleBooksRPS), opts),
	}
}

// Name returns the provider tag.
func (g *GoogleBooks) Name() string {
	return config.GoogleBooks
}

// googleBooksItem is one entry of the _GBSBookInfo object.
type googleBooksItem struct {
	BibKey       string `json:"bib_key"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// Fetch resolves the batch with a single viewapi request.
func (g *GoogleBooks) Fetch(ctx context.Context, ids []string) (map[string]string, error) {
	query := url.Values{}
	query.Set("bibkeys", strings.Join(ids, ","))
	query.Set("jscmd", "viewapi")
	query.Set("hl", "en")

	body, err := g.getBody(ctx, g.baseURL+"/books?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("google books: %w", err)
	}

	found, err := parseGoogleBooks(body)
	if err != nil {
		return nil, fmt.Errorf("google books: %w", err)
	}
	return found, nil
}

func parseGoogleBooks(body []byte) (map[string]string, error) {
	payload, err := jsonPayload(body, "_GBSBookInfo")
	if err != nil {
		return nil, err
	}

	var info map[string]googleBooksItem
	if err := json.Unmarshal(payload, &info); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	found := make(map[string]string, len(info))
	for key, item := range info {
		if item.ThumbnailURL == "" {
			continue
		}
		id := item.BibKey
		if id == "" {
			id = key
		}
		// Medium size instead of the tiny default thumbnail
		found[id] = strings.ReplaceAll(item.ThumbnailURL, "zoom=5", "zoom=1")
	}
	return found, nil
}
