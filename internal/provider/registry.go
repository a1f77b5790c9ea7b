package provider

import (
	"fmt"

	"github.com/lepinkainen/coce/internal/config"
)

// New builds the adapter for the provider tag name.
func New(name string, cfg *config.Config, opts ...Option) (Adapter, error) {
	switch name {
	case config.GoogleBooks:
		return NewGoogleBooks(opts...), nil
	case config.Amazon:
		return NewAmazon(cfg.Amazon.Delay, opts...), nil
	case config.OpenLibrary:
		return NewOpenLibrary(cfg.OpenLibrary.ImageSize, opts...), nil
	case config.ORB:
		return NewORB(cfg.ORB.User, cfg.ORB.Key, opts...), nil
	default:
		return nil, fmt.Errorf("no adapter for provider %q", name)
	}
}

// FromConfig builds one adapter per configured provider, in configuration order.
func FromConfig(cfg *config.Config) ([]Adapter, error) {
	adapters := make([]Adapter, 0, len(cfg.Providers))
	for _, name := range cfg.Providers {
		a, err := New(name, cfg)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
	}
	return adapters, nil
}
