package testutil

import (
	"testing"

	"github.com/lepinkainen/coce/internal/config"
	"github.com/spf13/viper"
)

// NewTestConfig returns the default configuration with the cache redirected
// into the test sandbox. opts may adjust the viper instance before loading.
func NewTestConfig(t *testing.T, opts ...func(v *viper.Viper)) *config.Config {
	t.Helper()

	env := NewTestEnv(t)
	v := viper.New()
	config.SetDefaults(v)
	v.Set("cache.dbfile", env.Path("cache.db"))
	v.Set("cache.path", env.Path("covers"))
	for _, opt := range opts {
		opt(v)
	}

	cfg, err := config.Load(v)
	if err != nil {
		t.Fatalf("failed to load test config: %v", err)
	}
	return cfg
}
