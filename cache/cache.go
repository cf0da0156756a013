// This package contains the snapshot [Cache] and the [Storage] interface it is built on.
//
// Backends live in subpackages, except for the in-memory one returned by [Memory].
package cache

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrClosed is returned by Storage methods when the storage has been closed.
	ErrClosed = errors.New("storage is closed")
)

// Entry is a stored value together with the time it was stored.
type Entry struct {
	Data     []byte
	StoredAt time.Time
}

// Storage is a key-value backend for a [Cache].
//
// Implementations must be safe for concurrent use.
type Storage interface {
	// Get returns the entry stored under key. The boolean is false if there is none.
	Get(key string) (Entry, bool, error)
	// Set stores the entry under key, overwriting any previous one.
	Set(key string, entry Entry) error
	// Delete removes the entry stored under key. Deleting a missing key is not an error.
	Delete(key string) error
	// Clear removes all entries.
	Clear() error
	// Close releases the resources held by the storage.
	Close() error
}

// Cache stores snapshots in a [Storage] and expires them after a TTL.
type Cache struct {
	storage Storage
	ttl     time.Duration
}

// New returns a cache on top of storage. Entries older than ttl are treated as absent. A zero ttl
// means entries never expire.
func New(storage Storage, ttl time.Duration) *Cache {
	if storage == nil {
		panic("storage can't be nil")
	}
	if ttl < 0 {
		panic("ttl can't be < 0")
	}
	return &Cache{
		storage: storage,
		ttl:     ttl,
	}
}

// Get returns the data stored under key if it exists and is fresh. Stale entries are deleted.
func (c *Cache) Get(key string) ([]byte, bool, error) {
	key = normalize(key)
	entry, ok, err := c.storage.Get(key)
	if err != nil {
		return nil, false, fmt.Errorf("get %q: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}
	if !Fresh(entry, c.ttl, time.Now()) {
		if err := c.storage.Delete(key); err != nil {
			return nil, false, fmt.Errorf("delete stale %q: %w", key, err)
		}
		return nil, false, nil
	}
	return entry.Data, true, nil
}

// Set stores data under key with the current time.
func (c *Cache) Set(key string, data []byte) error {
	key = normalize(key)
	if err := c.storage.Set(key, Entry{Data: data, StoredAt: time.Now()}); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (c *Cache) Delete(key string) error {
	key = normalize(key)
	if err := c.storage.Delete(key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

func (c *Cache) Clear() error {
	return c.storage.Clear()
}

func (c *Cache) Close() error {
	return c.storage.Close()
}

// TTL returns the cache's time to live.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Fresh reports whether entry is still valid at now under ttl. A zero ttl never expires.
func Fresh(entry Entry, ttl time.Duration, now time.Time) bool {
	if ttl == 0 {
		return true
	}
	return now.Sub(entry.StoredAt) < ttl
}

func normalize(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		panic("key can't be blank")
	}
	return key
}
