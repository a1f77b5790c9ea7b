// Package fetcher resolves cover URLs for a batch of identifiers by querying
// several providers concurrently behind a shared cache.
//
// A Fetch starts one resolver per requested provider. Each resolver answers
// what it can from the cache, fences the misses with negative entries, asks
// its adapter for the misses in one batch and writes the answers back.
// The calling goroutine collects the resolvers' reports and returns either
// when every (identifier, provider) pair is settled or when the deadline
// fires, whichever comes first.
package fetcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/lepinkainen/coce/internal/cache"
	"github.com/lepinkainen/coce/internal/metrics"
	"github.com/lepinkainen/coce/internal/provider"
)

const (
	defaultTimeout        = 8 * time.Second
	defaultCacheTimeout   = 200 * time.Millisecond
	defaultAdapterTimeout = 30 * time.Second
	defaultTTL            = 24 * time.Hour
)

// Source is a configured provider: its adapter and the TTL of its cache entries.
type Source struct {
	Adapter provider.Adapter
	TTL     time.Duration
}

// Fetcher is safe for concurrent use. It holds no per-call state.
type Fetcher struct {
	store          cache.Store
	sources        map[string]Source
	timeout        time.Duration
	cacheTimeout   time.Duration
	adapterTimeout time.Duration
}

// Option is a functional option for configuring the Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the deadline used when Fetch is given none.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithCacheTimeout bounds the wait for cache replies. Keys whose reply has
// not arrived by then are treated as misses.
func WithCacheTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.cacheTimeout = d
		}
	}
}

// WithAdapterTimeout bounds a single adapter call. It is independent of the
// Fetch deadline: adapter calls outlive the deadline to fill the cache.
func WithAdapterTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.adapterTimeout = d
		}
	}
}

// New creates a Fetcher over store for the given sources. A source without a
// TTL gets the 24h default.
func New(store cache.Store, sources []Source, opts ...Option) *Fetcher {
	f := &Fetcher{
		store:          store,
		sources:        make(map[string]Source, len(sources)),
		timeout:        defaultTimeout,
		cacheTimeout:   defaultCacheTimeout,
		adapterTimeout: defaultAdapterTimeout,
	}
	for _, src := range sources {
		if src.TTL <= 0 {
			src.TTL = defaultTTL
		}
		f.sources[src.Adapter.Name()] = src
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Providers returns the configured provider tags.
func (f *Fetcher) Providers() []string {
	names := make([]string, 0, len(f.sources))
	for name := range f.sources {
		names = append(names, name)
	}
	return names
}

// workUnit is one (identifier, provider) pair tracked for completion.
type workUnit struct {
	id       string
	provider string
}

// report is what a resolver sends back: the URLs it found and the
// identifiers it settled, found or not.
type report struct {
	provider string
	urls     map[string]string
	done     []string
}

// Fetch looks up every identifier at every requested provider and returns
// what is known when all lookups settled or deadline elapsed. A deadline
// <= 0 uses the configured timeout.
//
// Only a bad provider list is an error; it is reported before any cache or
// network access. A deadline hit returns the partial result with a nil error.
// If ctx is cancelled the partial result is returned together with ctx.Err().
// Lookups still running when Fetch returns keep going and fill the cache.
func (f *Fetcher) Fetch(ctx context.Context, ids, providers []string, deadline time.Duration) (Result, error) {
	sources, err := f.selectSources(providers)
	if err != nil {
		metrics.IncFetch(metrics.FetchConfigError)
		return nil, err
	}

	ids = uniqueIDs(ids)
	result := make(Result)
	if len(ids) == 0 {
		return result, nil
	}
	if deadline <= 0 {
		deadline = f.timeout
	}

	total := len(ids) * len(sources)
	reports := make(chan report, len(sources))
	stop := make(chan struct{})
	defer close(stop)

	emit := func(r report) {
		select {
		case reports <- r:
		case <-stop:
		}
	}

	// Resolvers must not die with the caller's request.
	workCtx := context.WithoutCancel(ctx)
	for _, src := range sources {
		go f.resolve(workCtx, src, ids, emit)
	}

	timer := time.NewTimer(deadline)
	defer timer.Stop()

	done := make(map[workUnit]struct{}, total)
	for len(done) < total {
		select {
		case r := <-reports:
			result.merge(r)
			for _, id := range r.done {
				done[workUnit{id: id, provider: r.provider}] = struct{}{}
			}
		case <-timer.C:
			slog.Debug("Fetch deadline reached, returning partial result",
				"settled", len(done), "expected", total, "deadline", deadline)
			metrics.IncFetch(metrics.FetchPartial)
			return result, nil
		case <-ctx.Done():
			metrics.IncFetch(metrics.FetchPartial)
			return result, ctx.Err()
		}
	}

	metrics.IncFetch(metrics.FetchComplete)
	return result, nil
}

func (f *Fetcher) selectSources(providers []string) ([]Source, error) {
	if len(providers) == 0 {
		return nil, &ConfigError{Kind: NoProviderRequested}
	}

	seen := make(map[string]bool, len(providers))
	sources := make([]Source, 0, len(providers))
	for _, name := range providers {
		src, ok := f.sources[name]
		if !ok {
			return nil, &ConfigError{Kind: UnknownProvider, Provider: name}
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		sources = append(sources, src)
	}
	return sources, nil
}

// uniqueIDs drops empty and repeated identifiers, keeping the first occurrence.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
