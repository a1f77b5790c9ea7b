package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/lepinkainen/coce/internal/config"
	"github.com/lepinkainen/coce/internal/ratelimit"
)

const (
	orbBaseURL = "https://api.base-orb.fr"
	orbRPS     = 2
)

// ORB looks up covers in the ORB product database (EAN keyed, basic auth).
type ORB struct {
	base
	user string
	key  string
}

// Compile-time check that ORB implements Adapter.
var _ Adapter = (*ORB)(nil)

// NewORB creates a new ORB adapter.
func NewORB(user, key string, opts ...Option) *ORB {
	return &ORB{
		base: newBase(config.ORB, orbBaseURL, ratelimit.New("ORB", orbRPS), opts),
		user: user,
		key:  key,
	}
}

// Name returns the provider tag.
func (o *ORB) Name() string {
	return config.ORB
}

type orbResponse struct {
	Data []struct {
		EAN13  string `json:"ean13"`
		Images struct {
			Front struct {
				Thumbnail struct {
					Src string `json:"src"`
				} `json:"thumbnail"`
			} `json:"front"`
		} `json:"images"`
	} `json:"data"`
}

// Fetch resolves the batch with a single products request.
func (o *ORB) Fetch(ctx context.Context, ids []string) (map[string]string, error) {
	query := url.Values{}
	query.Set("eans", strings.Join(ids, ","))
	query.Set("sort", "ean_asc")

	body, err := o.getBody(ctx, o.baseURL+"/v1/products?"+query.Encode(), func(req *http.Request) {
		req.SetBasicAuth(o.user, o.key)
	})
	if err != nil {
		return nil, fmt.Errorf("orb: %w", err)
	}

	found, err := parseORB(body)
	if err != nil {
		return nil, fmt.Errorf("orb: %w", err)
	}
	return found, nil
}

func parseORB(body []byte) (map[string]string, error) {
	var result orbResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	found := make(map[string]string, len(result.Data))
	for _, item := range result.Data {
		src := item.Images.Front.Thumbnail.Src
		if item.EAN13 == "" || src == "" {
			continue
		}
		found[item.EAN13] = src
	}
	return found, nil
}
