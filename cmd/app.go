package cmd

import (
	"errors"
	"fmt"

	"github.com/lepinkainen/coce/internal/cache"
	"github.com/lepinkainen/coce/internal/config"
	"github.com/lepinkainen/coce/internal/fetcher"
	"github.com/lepinkainen/coce/internal/mirror"
	"github.com/lepinkainen/coce/internal/provider"
)

// app holds the components shared by the serve and lookup commands.
type app struct {
	store   cache.Store
	fetcher *fetcher.Fetcher
	// mirrors is true when at least one provider mirrors images.
	mirrors bool
}

// newAdapters is swapped in tests to avoid real upstream calls.
var newAdapters = provider.FromConfig

func newApp(cfg *config.Config) (*app, error) {
	store, err := cache.Open(cfg.Cache.Backend, cfg.Cache.DBFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	adapters, err := newAdapters(cfg)
	if err != nil {
		return nil, errors.Join(err, store.Close())
	}

	a := &app{store: store}
	sources := make([]fetcher.Source, 0, len(adapters))
	for _, adapter := range adapters {
		settings := cfg.Provider(adapter.Name())
		if settings.Mirror {
			adapter = mirror.Wrap(adapter, cfg.Cache.Path, cfg.Cache.URL)
			a.mirrors = true
		}
		sources = append(sources, fetcher.Source{Adapter: adapter, TTL: settings.TTL})
	}

	a.fetcher = fetcher.New(store, sources,
		fetcher.WithTimeout(cfg.Timeout),
		fetcher.WithCacheTimeout(cfg.Cache.Timeout),
		fetcher.WithAdapterTimeout(cfg.AdapterTimeout),
	)
	return a, nil
}

func (a *app) Close() error {
	return a.store.Close()
}
