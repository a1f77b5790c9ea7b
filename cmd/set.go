package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/lepinkainen/coce/internal/cache"
	"github.com/lepinkainen/coce/internal/config"
)

// SetCmd represents the set command. It stores a long-lived URL for one
// identifier, bypassing the provider.
type SetCmd struct {
	Provider string `arg:"" help:"Provider tag: gb, aws, ol, orb"`
	ID       string `arg:"" name:"id" help:"Book identifier"`
	URL      string `arg:"" name:"url" help:"Cover image URL"`
}

func (s *SetCmd) Run(cfg *config.Config) error {
	if !slices.Contains(config.KnownProviders, s.Provider) {
		return fmt.Errorf("invalid provider '%s'; valid providers are: %s", s.Provider, strings.Join(config.KnownProviders, ", "))
	}

	// A memory store would drop the override as soon as this process exits.
	store, err := cache.OpenSQLite(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := cache.Override(context.Background(), store, s.Provider, s.ID, s.URL); err != nil {
		return err
	}

	slog.Info("Cover URL set", "provider", s.Provider, "id", s.ID, "url", s.URL)
	return nil
}
