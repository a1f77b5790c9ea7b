// Package config loads service settings through viper.
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Provider tags known to the service.
const (
	GoogleBooks = "gb"
	Amazon      = "aws"
	OpenLibrary = "ol"
	ORB         = "orb"
)

// KnownProviders lists every provider tag that has an adapter.
var KnownProviders = []string{GoogleBooks, Amazon, OpenLibrary, ORB}

const (
	defaultPort           = 8080
	defaultTimeout        = 8 * time.Second
	defaultCacheTimeout   = 200 * time.Millisecond
	defaultAdapterTimeout = 30 * time.Second
	defaultProviderTTL    = 24 * time.Hour
	defaultAmazonDelay    = 30 * time.Millisecond
)

// ProviderConfig holds the settings every provider shares.
type ProviderConfig struct {
	// TTL is how long positive and negative lookups stay cached.
	TTL time.Duration `mapstructure:"ttl"`
	// Mirror stores a local copy of found images and serves that URL instead.
	Mirror bool `mapstructure:"mirror"`
}

// AmazonConfig configures the direct image probe.
type AmazonConfig struct {
	ProviderConfig `mapstructure:",squash"`
	// Delay is the pause between two probes.
	Delay time.Duration `mapstructure:"delay"`
}

// OpenLibraryConfig configures the Open Library adapter.
type OpenLibraryConfig struct {
	ProviderConfig `mapstructure:",squash"`
	// ImageSize selects small, medium or large covers.
	ImageSize string `mapstructure:"imagesize"`
}

// ORBConfig configures the ORB adapter.
type ORBConfig struct {
	ProviderConfig `mapstructure:",squash"`
	User           string `mapstructure:"user"`
	Key            string `mapstructure:"key"`
}

// CacheConfig configures the cache store and the image mirror location.
type CacheConfig struct {
	Backend string `mapstructure:"backend"`
	DBFile  string `mapstructure:"dbfile"`
	// Timeout bounds the wait for cache replies before treating keys as misses.
	Timeout time.Duration `mapstructure:"timeout"`
	// Path is the directory mirrored images are written to.
	Path string `mapstructure:"path"`
	// URL is the public base URL Path is served under.
	URL string `mapstructure:"url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Config is the complete service configuration.
type Config struct {
	Port           int               `mapstructure:"port"`
	Providers      []string          `mapstructure:"providers"`
	Timeout        time.Duration     `mapstructure:"timeout"`
	AdapterTimeout time.Duration     `mapstructure:"adapter_timeout"`
	Cache          CacheConfig       `mapstructure:"cache"`
	Log            LogConfig         `mapstructure:"log"`
	GoogleBooks    ProviderConfig    `mapstructure:"gb"`
	Amazon         AmazonConfig      `mapstructure:"aws"`
	OpenLibrary    OpenLibraryConfig `mapstructure:"ol"`
	ORB            ORBConfig         `mapstructure:"orb"`
}

// SetDefaults registers the default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", defaultPort)
	v.SetDefault("providers", []string{GoogleBooks, Amazon, OpenLibrary})
	v.SetDefault("timeout", defaultTimeout)
	v.SetDefault("adapter_timeout", defaultAdapterTimeout)

	// Cache defaults
	v.SetDefault("cache.backend", "sqlite")
	v.SetDefault("cache.dbfile", "./cache.db")
	v.SetDefault("cache.timeout", defaultCacheTimeout)
	v.SetDefault("cache.path", "./covers")
	v.SetDefault("cache.url", "http://localhost:8080/covers")

	v.SetDefault("log.level", "info")

	for _, name := range KnownProviders {
		v.SetDefault(name+".ttl", defaultProviderTTL)
		v.SetDefault(name+".mirror", false)
	}
	v.SetDefault("aws.delay", defaultAmazonDelay)
	v.SetDefault("ol.imagesize", "medium")
	v.SetDefault("orb.user", "")
	v.SetDefault("orb.key", "")
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Providers = splitList(cfg.Providers)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if len(c.Providers) == 0 {
		return fmt.Errorf("at least one provider must be configured")
	}
	for _, name := range c.Providers {
		if !slices.Contains(KnownProviders, name) {
			return fmt.Errorf("unknown provider %q in config, available: %s", name, strings.Join(KnownProviders, ", "))
		}
		if c.Provider(name).TTL <= 0 {
			return fmt.Errorf("%s.ttl must be positive", name)
		}
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.Cache.Timeout <= 0 {
		return fmt.Errorf("cache.timeout must be positive")
	}
	if c.AdapterTimeout <= 0 {
		return fmt.Errorf("adapter_timeout must be positive")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	switch c.OpenLibrary.ImageSize {
	case "small", "medium", "large":
	default:
		return fmt.Errorf("ol.imagesize must be small, medium or large, got %q", c.OpenLibrary.ImageSize)
	}
	if slices.Contains(c.Providers, ORB) && (c.ORB.User == "" || c.ORB.Key == "") {
		return fmt.Errorf("orb.user and orb.key are required when the orb provider is enabled")
	}
	return nil
}

// Provider returns the shared settings of the named provider.
func (c *Config) Provider(name string) ProviderConfig {
	switch name {
	case GoogleBooks:
		return c.GoogleBooks
	case Amazon:
		return c.Amazon.ProviderConfig
	case OpenLibrary:
		return c.OpenLibrary.ProviderConfig
	case ORB:
		return c.ORB.ProviderConfig
	}
	return ProviderConfig{}
}

// splitList accepts both YAML lists and comma separated env values.
func splitList(items []string) []string {
	var out []string
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
