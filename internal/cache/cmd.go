package cache

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/lepinkainen/coce/internal/config"
)

// Cmd groups the cache administration subcommands.
type Cmd struct {
	Invalidate InvalidateCmd `cmd:"" help:"Delete every cached entry of one provider"`
	Purge      PurgeCmd      `cmd:"" help:"Delete expired cache entries"`
}

// InvalidateCmd represents the cache invalidate subcommand
type InvalidateCmd struct {
	Provider string `arg:"" help:"Provider whose entries to delete: gb, aws, ol, orb" required:""`
}

func (i *InvalidateCmd) Run(cfg *config.Config) error {
	if !slices.Contains(config.KnownProviders, i.Provider) {
		return fmt.Errorf("invalid provider '%s'; valid providers are: %s", i.Provider, strings.Join(config.KnownProviders, ", "))
	}

	db, err := OpenSQLite(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("Invalidating cache", "provider", i.Provider, "database", db.Path())

	rowsDeleted, err := db.InvalidateProvider(context.Background(), i.Provider)
	if err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}

	slog.Info("Cache invalidated", "provider", i.Provider, "rows_deleted", rowsDeleted)
	return nil
}

// PurgeCmd represents the cache purge subcommand
type PurgeCmd struct{}

func (p *PurgeCmd) Run(cfg *config.Config) error {
	db, err := OpenSQLite(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := db.ClearExpired(context.Background())
	if err != nil {
		return err
	}

	slog.Info("Cache purged", "database", db.Path(), "rows_deleted", rows)
	return nil
}

// OpenSQLite opens the configured database. Administration and manual
// overrides only make sense for the persistent backend.
func OpenSQLite(cfg *config.Config) (*CacheDB, error) {
	if cfg.Cache.Backend != "" && cfg.Cache.Backend != BackendSQLite {
		return nil, fmt.Errorf("cache administration requires the sqlite backend, configured: %s", cfg.Cache.Backend)
	}
	db, err := NewCacheDB(cfg.Cache.DBFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	return db, nil
}
