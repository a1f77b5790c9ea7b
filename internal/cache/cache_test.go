package cache

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/coce/internal/testutil"
)

func newTestCacheDB(t *testing.T) *CacheDB {
	t.Helper()

	env := testutil.NewTestEnv(t)
	db, err := NewCacheDB(env.Path("cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// stores returns every backend so the Store contract is checked against both.
func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		BackendSQLite: newTestCacheDB(t),
		BackendMemory: NewMemory(),
	}
}

func TestStoreContract(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			entry, err := store.Get(ctx, "gb.9780306406157")
			require.NoError(t, err)
			assert.Equal(t, Absent, entry.Status)

			require.NoError(t, store.SetWithTTL(ctx, "gb.9780306406157", "", time.Hour))
			entry, err = store.Get(ctx, "gb.9780306406157")
			require.NoError(t, err)
			assert.Equal(t, Entry{Status: Negative}, entry)

			require.NoError(t, store.SetWithTTL(ctx, "gb.9780306406157", "https://example.org/a.jpg", time.Hour))
			entry, err = store.Get(ctx, "gb.9780306406157")
			require.NoError(t, err)
			assert.Equal(t, Entry{Status: Positive, URL: "https://example.org/a.jpg"}, entry)

			// Keys are exact and case sensitive.
			entry, err = store.Get(ctx, "GB.9780306406157")
			require.NoError(t, err)
			assert.Equal(t, Absent, entry.Status)
		})
	}
}

func TestStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	db := newTestCacheDB(t)
	db.now = clock
	mem := NewMemory()
	mem.now = clock

	for name, store := range map[string]Store{BackendSQLite: db, BackendMemory: mem} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.SetWithTTL(ctx, "ol.1", "https://example.org/1.jpg", time.Minute))

			entry, err := store.Get(ctx, "ol.1")
			require.NoError(t, err)
			assert.Equal(t, Positive, entry.Status)
		})
	}

	now = now.Add(2 * time.Minute)

	for name, store := range map[string]Store{BackendSQLite: db, BackendMemory: mem} {
		t.Run(name+" expired", func(t *testing.T) {
			entry, err := store.Get(ctx, "ol.1")
			require.NoError(t, err)
			assert.Equal(t, Absent, entry.Status)
		})
	}

	assert.True(t, db.CacheExists(ctx, "ol.1"), "expired rows stay until purged")
	rows, err := db.ClearExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)
	assert.False(t, db.CacheExists(ctx, "ol.1"))
}

func TestOverride(t *testing.T) {
	ctx := context.Background()
	db := newTestCacheDB(t)
	now := time.Now()
	db.now = func() time.Time { return now }

	require.NoError(t, db.SetWithTTL(ctx, Key("aws", "123"), "", time.Hour))
	require.NoError(t, Override(ctx, db, "aws", "123", "https://example.org/fixed.jpg"))

	// Still valid long after any provider TTL.
	now = now.Add(5 * 365 * 24 * time.Hour)
	entry, err := db.Get(ctx, "aws.123")
	require.NoError(t, err)
	assert.Equal(t, Entry{Status: Positive, URL: "https://example.org/fixed.jpg"}, entry)
}

func TestOverrideValidation(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	require.Error(t, Override(ctx, store, "", "123", "https://example.org"))
	require.Error(t, Override(ctx, store, "gb", "", "https://example.org"))
	require.Error(t, Override(ctx, store, "gb", "123", ""))
	assert.Zero(t, store.Len())
}

func TestInvalidateProvider(t *testing.T) {
	ctx := context.Background()
	db := newTestCacheDB(t)

	require.NoError(t, db.SetWithTTL(ctx, "gb.1", "https://gb/1", time.Hour))
	require.NoError(t, db.SetWithTTL(ctx, "gb.2", "", time.Hour))
	require.NoError(t, db.SetWithTTL(ctx, "gbx.1", "https://gbx/1", time.Hour))
	require.NoError(t, db.SetWithTTL(ctx, "ol.1", "https://ol/1", time.Hour))

	rows, err := db.InvalidateProvider(ctx, "gb")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rows)

	assert.False(t, db.CacheExists(ctx, "gb.1"))
	assert.True(t, db.CacheExists(ctx, "gbx.1"))
	assert.True(t, db.CacheExists(ctx, "ol.1"))

	_, err = db.InvalidateProvider(ctx, "%")
	require.Error(t, err)
	assert.True(t, db.CacheExists(ctx, "ol.1"))
}

func TestConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	db := newTestCacheDB(t)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			url := ""
			if i%2 == 0 {
				url = "https://example.org/cover.jpg"
			}
			assert.NoError(t, db.SetWithTTL(ctx, "gb.same", url, time.Hour))
		}(i)
	}
	wg.Wait()

	entry, err := db.Get(ctx, "gb.same")
	require.NoError(t, err)
	assert.NotEqual(t, Absent, entry.Status)
}

func TestOpen(t *testing.T) {
	store, err := Open(BackendMemory, "")
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, store)

	path := filepath.Join(t.TempDir(), "open.db")
	store, err = Open(BackendSQLite, path)
	require.NoError(t, err)
	require.IsType(t, &CacheDB{}, store)
	assert.Equal(t, path, store.(*CacheDB).Path())
	require.NoError(t, store.Close())

	_, err = Open("redis", "")
	require.Error(t, err)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "gb.9780306406157", Key("gb", "9780306406157"))
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "absent", Absent.String())
	assert.Equal(t, "negative", Negative.String())
	assert.Equal(t, "positive", Positive.String())
}
