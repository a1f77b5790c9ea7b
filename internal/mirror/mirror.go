// Package mirror keeps local copies of cover images found by a provider and
// hands out URLs pointing at those copies.
package mirror

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"github.com/lepinkainen/coce/internal/provider"
)

const (
	defaultMaxWidth = 1000
	downloadTimeout = 30 * time.Second
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// Option is a functional option for configuring a mirroring adapter.
type Option func(*adapter)

// WithHTTPClient sets the client used to download images.
func WithHTTPClient(c provider.HTTPDoer) Option {
	return func(a *adapter) {
		if c != nil {
			a.httpClient = c
		}
	}
}

// WithMaxWidth sets the width images are downsized to.
func WithMaxWidth(w int) Option {
	return func(a *adapter) {
		if w > 0 {
			a.maxWidth = w
		}
	}
}

// WithRefresh re-downloads images that already exist locally.
func WithRefresh(refresh bool) Option {
	return func(a *adapter) {
		a.refresh = refresh
	}
}

type adapter struct {
	provider.Adapter
	dir        string
	baseURL    string
	httpClient provider.HTTPDoer
	maxWidth   int
	refresh    bool
}

// Wrap decorates inner so that every URL it finds is downloaded into
// <dir>/<provider>/<id>.jpg and replaced by <baseURL>/<provider>/<id>.jpg.
// An image that cannot be mirrored keeps its upstream URL.
func Wrap(inner provider.Adapter, dir, baseURL string, opts ...Option) provider.Adapter {
	a := &adapter{
		Adapter:    inner,
		dir:        dir,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: downloadTimeout},
		maxWidth:   defaultMaxWidth,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Fetch resolves ids with the wrapped adapter and mirrors the results.
func (a *adapter) Fetch(ctx context.Context, ids []string) (map[string]string, error) {
	found, err := a.Adapter.Fetch(ctx, ids)

	for id, imageURL := range found {
		local, mirrorErr := a.store(ctx, id, imageURL)
		if mirrorErr != nil {
			slog.Warn("Failed to mirror cover, keeping upstream URL",
				"provider", a.Name(), "id", id, "url", imageURL, "error", mirrorErr)
			continue
		}
		found[id] = local
	}
	return found, err
}

// store downloads imageURL unless a local copy exists and returns the public URL.
func (a *adapter) store(ctx context.Context, id, imageURL string) (string, error) {
	filename := unsafeChars.ReplaceAllString(id, "_") + ".jpg"
	savePath := filepath.Join(a.dir, a.Name(), filename)
	publicURL := fmt.Sprintf("%s/%s/%s", a.baseURL, a.Name(), filename)

	if !a.refresh && fileExists(savePath) {
		slog.Debug("Cover already mirrored, skipping download", "path", savePath)
		return publicURL, nil
	}

	if err := a.download(ctx, imageURL, savePath); err != nil {
		return "", err
	}

	slog.Debug("Mirrored cover", "path", savePath)
	return publicURL, nil
}

func (a *adapter) download(ctx context.Context, imageURL, savePath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return err
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download cover: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d downloading cover", resp.StatusCode)
	}

	img, err := imaging.Decode(resp.Body, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("failed to decode cover: %w", err)
	}

	if img.Bounds().Dx() > a.maxWidth {
		img = imaging.Resize(img, a.maxWidth, 0, imaging.Lanczos)
	}

	if err := os.MkdirAll(filepath.Dir(savePath), 0o755); err != nil {
		return fmt.Errorf("failed to create mirror directory: %w", err)
	}

	return saveJPEG(img, savePath)
}

// saveJPEG encodes img into a temp file next to path and renames it into
// place, so readers never see a partially written image.
func saveJPEG(img image.Image, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".cover-*.jpg")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if err := imaging.Encode(tmp, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to encode cover: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write cover: %w", err)
	}
	// CreateTemp uses 0600; covers are served as static files.
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("failed to set cover permissions: %w", err)
	}
	return os.Rename(tmpPath, path)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
