package cache

import (
	"context"
	"fmt"
	"time"
)

// OverrideTTL is the lifetime of manually written entries (10 years).
const OverrideTTL = 315360000 * time.Second

// Status classifies a cache lookup.
type Status int

const (
	// Absent means there is no live entry for the key.
	Absent Status = iota
	// Negative means the key was looked up before and no URL was found.
	Negative
	// Positive means a URL is cached for the key.
	Positive
)

func (s Status) String() string {
	switch s {
	case Negative:
		return "negative"
	case Positive:
		return "positive"
	default:
		return "absent"
	}
}

// Entry is the result of a cache lookup.
type Entry struct {
	Status Status
	URL    string
}

// Store is a TTL key-value store shared by concurrent lookups.
// An empty URL written with SetWithTTL is stored as a negative entry.
type Store interface {
	Get(ctx context.Context, key string) (Entry, error)
	SetWithTTL(ctx context.Context, key, url string, ttl time.Duration) error
	Close() error
}

// Key builds the cache key for a provider/identifier pair.
func Key(provider, id string) string {
	return provider + "." + id
}

// Override writes a long-lived positive entry, bypassing any provider lookup.
// It is used to correct bad upstream data by hand.
func Override(ctx context.Context, store Store, provider, id, url string) error {
	if provider == "" || id == "" {
		return fmt.Errorf("provider and identifier are required")
	}
	if url == "" {
		return fmt.Errorf("override URL is required")
	}
	if err := store.SetWithTTL(ctx, Key(provider, id), url, OverrideTTL); err != nil {
		return fmt.Errorf("failed to write override for %s: %w", Key(provider, id), err)
	}
	return nil
}

func entryFromValue(url string) Entry {
	if url == "" {
		return Entry{Status: Negative}
	}
	return Entry{Status: Positive, URL: url}
}

// Supported store backends.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Open creates the store for backend. dbPath is only used by the SQLite backend.
func Open(backend, dbPath string) (Store, error) {
	switch backend {
	case "", BackendSQLite:
		return NewCacheDB(dbPath)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", backend)
	}
}
