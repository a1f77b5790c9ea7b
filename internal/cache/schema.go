package cache

// CoverCacheSchema defines the table holding provider lookups.
// An empty url column marks a negative entry. expires_at is unix milliseconds.
const CoverCacheSchema = `
CREATE TABLE IF NOT EXISTS cover_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	url TEXT NOT NULL DEFAULT '',
	expires_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cover_expires_at ON cover_cache(expires_at);
`

// AllCacheSchemas contains all cache table schemas for easy initialization
var AllCacheSchemas = []string{
	CoverCacheSchema,
}
