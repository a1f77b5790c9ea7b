package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// CacheDB is a Store backed by a SQLite database.
type CacheDB struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string
	now  func() time.Time
}

// Compile-time check that CacheDB implements Store.
var _ Store = (*CacheDB)(nil)

// NewCacheDB opens the database at dbPath and creates the cache tables.
func NewCacheDB(dbPath string) (*CacheDB, error) {
	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	if err := db.Ping(); err != nil {
		closeErr := db.Close()
		return nil, errors.Join(fmt.Errorf("failed to connect to cache database: %w", err), closeErr)
	}

	c := &CacheDB{
		db:   db,
		path: dbPath,
		now:  time.Now,
	}

	for _, schema := range AllCacheSchemas {
		if err := c.CreateTable(schema); err != nil {
			closeErr := db.Close()
			return nil, errors.Join(err, closeErr)
		}
	}

	return c, nil
}

// dsn appends a busy timeout so concurrent writers wait instead of failing.
func dsn(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + "_pragma=busy_timeout(5000)"
}

// CreateTable creates a table using the provided schema
func (c *CacheDB) CreateTable(schema string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// Path returns the database file path.
func (c *CacheDB) Path() string {
	return c.path
}

// Close closes the database connection
func (c *CacheDB) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Get looks up key. Expired rows are reported as Absent.
func (c *CacheDB) Get(ctx context.Context, key string) (Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var url string
	var expiresAt int64
	err := c.db.QueryRowContext(ctx, `
		SELECT url, expires_at
		FROM cover_cache
		WHERE cache_key = ?
	`, key).Scan(&url, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{Status: Absent}, nil
	}
	if err != nil {
		return Entry{}, fmt.Errorf("failed to query cache: %w", err)
	}

	if c.now().UnixMilli() >= expiresAt {
		slog.Debug("Cache expired", "key", key)
		return Entry{Status: Absent}, nil
	}

	return entryFromValue(url), nil
}

// SetWithTTL stores url under key. Last write wins.
func (c *CacheDB) SetWithTTL(ctx context.Context, key, url string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(ttl).UnixMilli()
	_, err := c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO cover_cache (cache_key, url, expires_at)
		VALUES (?, ?, ?)
	`, key, url, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}

	return nil
}

// InvalidateProvider deletes every entry belonging to provider.
// Returns the number of rows deleted
func (c *CacheDB) InvalidateProvider(ctx context.Context, provider string) (int64, error) {
	if provider == "" || strings.ContainsAny(provider, "%_.") {
		return 0, fmt.Errorf("invalid provider name: %q", provider)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	result, err := c.db.ExecContext(ctx, `DELETE FROM cover_cache WHERE cache_key LIKE ?`, provider+".%")
	if err != nil {
		return 0, fmt.Errorf("failed to delete cache entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	slog.Debug("Cache entries cleared", "provider", provider, "rows_deleted", rowsAffected)
	return rowsAffected, nil
}

// ClearExpired removes expired cache entries
func (c *CacheDB) ClearExpired(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	result, err := c.db.ExecContext(ctx, `DELETE FROM cover_cache WHERE expires_at <= ?`, c.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to clear expired cache: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows > 0 {
		slog.Info("Cleared expired cache entries", "count", rows)
	}

	return rows, nil
}

// CacheExists checks if a row exists for the given key, expired or not.
func (c *CacheDB) CacheExists(ctx context.Context, key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var exists int
	err := c.db.QueryRowContext(ctx, `SELECT 1 FROM cover_cache WHERE cache_key = ? LIMIT 1`, key).Scan(&exists)
	return err == nil
}
