package cache

import (
	"context"
	"sync"
	"time"
)

type memoryItem struct {
	url       string
	expiresAt time.Time
}

// Memory is an in-process Store. Entries do not survive a restart.
type Memory struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	now   func() time.Time
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		items: make(map[string]memoryItem),
		now:   time.Now,
	}
}

// Get retrieves a value if it exists and hasn't expired.
func (m *Memory) Get(_ context.Context, key string) (Entry, error) {
	m.mu.RLock()
	item, ok := m.items[key]
	m.mu.RUnlock()
	if !ok || !m.now().Before(item.expiresAt) {
		return Entry{Status: Absent}, nil
	}
	return entryFromValue(item.url), nil
}

// SetWithTTL stores a value with a specific TTL.
func (m *Memory) SetWithTTL(_ context.Context, key, url string, ttl time.Duration) error {
	m.mu.Lock()
	m.items[key] = memoryItem{url: url, expiresAt: m.now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, including expired ones.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Close drops all entries.
func (m *Memory) Close() error {
	m.mu.Lock()
	m.items = make(map[string]memoryItem)
	m.mu.Unlock()
	return nil
}
