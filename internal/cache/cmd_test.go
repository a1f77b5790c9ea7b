package cache

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/coce/internal/testutil"
)

func TestInvalidateCmd(t *testing.T) {
	cfg := testutil.NewTestConfig(t)
	ctx := context.Background()

	db, err := NewCacheDB(cfg.Cache.DBFile)
	require.NoError(t, err)
	require.NoError(t, db.SetWithTTL(ctx, "ol.1", "https://ol/1", time.Hour))
	require.NoError(t, db.SetWithTTL(ctx, "gb.1", "https://gb/1", time.Hour))
	require.NoError(t, db.Close())

	cmd := &InvalidateCmd{Provider: "ol"}
	require.NoError(t, cmd.Run(cfg))

	db, err = NewCacheDB(cfg.Cache.DBFile)
	require.NoError(t, err)
	defer db.Close()
	assert.False(t, db.CacheExists(ctx, "ol.1"))
	assert.True(t, db.CacheExists(ctx, "gb.1"))
}

func TestInvalidateCmdRejectsUnknownProvider(t *testing.T) {
	cfg := testutil.NewTestConfig(t)

	err := (&InvalidateCmd{Provider: "tmdb"}).Run(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid provider 'tmdb'")
}

func TestPurgeCmd(t *testing.T) {
	cfg := testutil.NewTestConfig(t)
	ctx := context.Background()

	db, err := NewCacheDB(cfg.Cache.DBFile)
	require.NoError(t, err)
	past := time.Now().Add(-time.Hour)
	db.now = func() time.Time { return past }
	require.NoError(t, db.SetWithTTL(ctx, "gb.old", "", time.Minute))
	db.now = time.Now
	require.NoError(t, db.SetWithTTL(ctx, "gb.new", "", time.Hour))
	require.NoError(t, db.Close())

	require.NoError(t, (&PurgeCmd{}).Run(cfg))

	db, err = NewCacheDB(cfg.Cache.DBFile)
	require.NoError(t, err)
	defer db.Close()
	assert.False(t, db.CacheExists(ctx, "gb.old"))
	assert.True(t, db.CacheExists(ctx, "gb.new"))
}

func TestAdminRequiresSQLite(t *testing.T) {
	cfg := testutil.NewTestConfig(t, func(v *viper.Viper) {
		v.Set("cache.backend", BackendMemory)
	})

	err := (&PurgeCmd{}).Run(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires the sqlite backend")
}
