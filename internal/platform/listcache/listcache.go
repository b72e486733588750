// Package listcache caches list-query results per entity type.
//
// The consistency contract is invalidation-on-mutation: every successful
// create/update/delete against an entity drops all cached lists for that
// entity, so subsequent reads are fresh. Single entity reads are never
// cached.
package listcache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// Store is a cache backend keyed by "<entity>:<query>".
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	// Invalidate removes every key with the given prefix.
	Invalidate(ctx context.Context, prefix string)
}

// Cache wraps a Store with JSON serialization and per-entity namespacing.
// A nil *Cache is valid and disables caching.
type Cache struct {
	store Store
	ttl   time.Duration
}

func New(store Store, ttl time.Duration) *Cache {
	return &Cache{store: store, ttl: ttl}
}

// GetList looks up a cached list result and unmarshals it into dest.
func (c *Cache) GetList(ctx context.Context, entity, query string, dest interface{}) bool {
	if c == nil {
		return false
	}
	data, ok := c.store.Get(ctx, entity+":"+query)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		// A corrupt entry behaves like a miss; it will be overwritten.
		return false
	}
	return true
}

// PutList stores a list result under the entity namespace.
func (c *Cache) PutList(ctx context.Context, entity, query string, v interface{}) {
	if c == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.store.Set(ctx, entity+":"+query, data, c.ttl)
}

// InvalidateEntity drops every cached list for the entity. Called after each
// successful mutation.
func (c *Cache) InvalidateEntity(ctx context.Context, entity string) {
	if c == nil {
		return
	}
	c.store.Invalidate(ctx, entity+":")
}

// ---------------------------------------------------------------------------
// Memory store
// ---------------------------------------------------------------------------

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// Memory is a thread-safe in-process Store with lazy expiration.
type Memory struct {
	entries map[string]*memoryEntry
	mu      sync.RWMutex
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]*memoryEntry)}
}

func (s *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, false
	}
	return entry.data, true
}

func (s *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = &memoryEntry{
		data:      value,
		expiresAt: time.Now().Add(ttl),
	}
}

func (s *Memory) Invalidate(_ context.Context, prefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.entries {
		if strings.HasPrefix(k, prefix) {
			delete(s.entries, k)
		}
	}
}

// StartCleanup runs a background goroutine that periodically removes expired
// entries. It stops when the context is cancelled.
func (s *Memory) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.mu.Lock()
				now := time.Now()
				for k, v := range s.entries {
					if now.After(v.expiresAt) {
						delete(s.entries, k)
					}
				}
				s.mu.Unlock()
			}
		}
	}()
}
