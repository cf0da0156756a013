package cache

import (
	"bytes"
	"sync"
)

var _ Storage = (*MemoryStorage)(nil)

// MemoryStorage is a map-backed [Storage].
type MemoryStorage struct {
	mu      sync.Mutex
	entries map[string]Entry
	closed  bool
}

func Memory() *MemoryStorage {
	return &MemoryStorage{
		entries: make(map[string]Entry),
	}
}

func (s *MemoryStorage) Get(key string) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Entry{}, false, ErrClosed
	}
	entry, ok := s.entries[key]
	if !ok {
		return Entry{}, false, nil
	}
	entry.Data = bytes.Clone(entry.Data)
	return entry, true, nil
}

func (s *MemoryStorage) Set(key string, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	entry.Data = bytes.Clone(entry.Data)
	s.entries[key] = entry
	return nil
}

func (s *MemoryStorage) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	delete(s.entries, key)
	return nil
}

func (s *MemoryStorage) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	clear(s.entries)
	return nil
}

func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.closed = true
	s.entries = nil
	return nil
}
