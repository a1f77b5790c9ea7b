package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lepinkainen/coce/internal/config"
	"github.com/lepinkainen/coce/internal/server"
)

// stdout is where lookup writes its results.
var stdout io.Writer = os.Stdout

// LookupCmd represents the lookup command
type LookupCmd struct {
	IDs      []string      `arg:"" name:"id" help:"Book identifiers (ISBN-10, ISBN-13 or other alphanumeric ids)"`
	Provider []string      `short:"p" help:"Providers to query, in priority order (default: configured providers)"`
	Timeout  time.Duration `short:"t" help:"Deadline for the lookup (default: configured timeout)"`
	All      bool          `help:"Print every provider's URL instead of the preferred one"`
	Format   string        `short:"F" help:"Output format" enum:"json,yaml" default:"json"`
}

func (l *LookupCmd) Run(cfg *config.Config) error {
	for _, id := range l.IDs {
		if !server.IsValidISBNFormat(id) {
			return fmt.Errorf("invalid ID format: %s", id)
		}
	}

	providers := l.Provider
	if len(providers) == 0 {
		providers = cfg.Providers
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.fetcher.Fetch(context.Background(), l.IDs, providers, l.Timeout)
	if err != nil {
		return err
	}

	var out any = result.Preferred(providers)
	if l.All {
		out = result
	}
	return writeOutput(stdout, out, l.Format)
}

func writeOutput(w io.Writer, v any, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		return nil
	}
}
