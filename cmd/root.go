package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/lepinkainen/humanlog"
	"github.com/spf13/viper"

	"github.com/lepinkainen/coce/internal/cache"
	"github.com/lepinkainen/coce/internal/config"
)

// CLI represents the complete command structure for the coce application
type CLI struct {
	// Global flags
	Config      string `help:"Path to the YAML config file (default: ./config.yaml or /etc/coce/config.yaml)" type:"path"`
	LogLevel    string `help:"Log level: debug, info, warn, error"`
	CacheDBFile string `help:"Path to cache SQLite database file"`

	Serve  ServeCmd  `cmd:"" help:"Run the cover URL web service"`
	Lookup LookupCmd `cmd:"" help:"Resolve cover URLs for identifiers and print them"`
	Set    SetCmd    `cmd:"" help:"Manually set the cover URL of an identifier"`
	Cache  cache.Cmd `cmd:"" help:"Cache administration"`
}

// Execute runs the Kong-based CLI
func Execute() {
	var cli CLI

	// Flags are parsed first: they select the config file and override it
	ctx := kong.Parse(&cli,
		kong.Name("coce"),
		kong.Description("A cover URL aggregation service for book identifiers."),
		kong.UsageOnError(),
	)

	cfg, err := initConfig(&cli)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	initLogging(cfg.Log.Level)

	// Execute the selected command
	if err := ctx.Run(cfg); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func initConfig(cli *CLI) (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	v := viper.New()
	config.SetDefaults(v)

	// Enable environment variable support: COCE_CACHE_DBFILE -> cache.dbfile
	v.SetEnvPrefix("COCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cli.Config != "" {
		v.SetConfigFile(cli.Config)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/coce")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		slog.Debug("Config file not found, using defaults")
	}

	applyFlags(v, cli)
	return config.Load(v)
}

// applyFlags overrides config values with the global flags that were given.
func applyFlags(v *viper.Viper, cli *CLI) {
	if cli.LogLevel != "" {
		v.Set("log.level", cli.LogLevel)
	}
	if cli.CacheDBFile != "" {
		v.Set("cache.dbfile", cli.CacheDBFile)
	}
}

func initLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}

	// Logs go to stderr so lookup output on stdout stays machine readable
	handler := humanlog.NewHandler(os.Stderr, &humanlog.Options{
		Level: lvl,
	})

	// Set the default logger
	slog.SetDefault(slog.New(handler))
}
