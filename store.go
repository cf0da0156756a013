// Package rolling maintains rolling windows of streamed update events.
//
// A [Store] keeps at most a fixed number of items, sorted by a comparator and deduplicated by a
// key, and notifies its subscribers whenever its contents change.
package rolling

import (
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/teenjuna/rolling/buffer"
	"github.com/teenjuna/rolling/codec"
	"github.com/teenjuna/rolling/codec/json"
)

// Store is a thread-safe window of items with change notifications.
type Store[Item any] struct {
	mu        sync.Mutex
	cfg       *Config[Item]
	window    buffer.Window[Item]
	codec     codec.Codec[Item]
	listeners []listener
	nextID    uint64
	evictions int
	metrics   *metrics
	logger    *zap.Logger
}

type listener struct {
	id uint64
	fn func()
}

// New creates a store holding at most maxSize items, identified by keyFunc and ordered by
// compareFunc. When the store is over capacity, the items that sort last are evicted.
//
// If a cache is configured, New restores the cached snapshot and returns an error if it can't be
// read or decoded.
func New[Item any](
	maxSize int,
	keyFunc func(Item) string,
	compareFunc func(Item, Item) int,
	configFuncs ...func(*Config[Item]),
) (*Store[Item], error) {
	cfg := &Config[Item]{}
	cfg.Codec(json.New[Item]())
	cfg.Logger(zap.NewNop())
	cfg.Prometheus(Prometheus(nil))
	for _, cf := range configFuncs {
		cf(cfg)
	}

	var window buffer.Window[Item]
	if cfg.degree != 0 {
		tree := buffer.Tree(cfg.degree, maxSize, keyFunc, compareFunc)
		if cfg.replaceFunc != nil {
			tree.WithReplace(cfg.replaceFunc)
		}
		window = tree
	} else {
		bounded := buffer.Bounded(maxSize, keyFunc, compareFunc)
		if cfg.replaceFunc != nil {
			bounded.WithReplace(cfg.replaceFunc)
		}
		window = bounded
	}

	store := Store[Item]{
		cfg:     cfg,
		window:  window,
		codec:   cfg.codec.Derive(),
		metrics: cfg.prometheus.metrics(),
		logger:  cfg.logger,
	}

	if cfg.cache != nil {
		if err := store.restore(); err != nil {
			return nil, fmt.Errorf("restore snapshot: %w", err)
		}
	}

	return &store, nil
}

// Add merges items into the store and reports whether its contents changed. Subscribers are
// notified only when it returns true.
func (s *Store[Item]) Add(items ...Item) bool {
	s.mu.Lock()
	changed := s.window.Add(items...)
	s.metrics.itemsPushed.Add(float64(len(items)))
	if !changed {
		s.mu.Unlock()
		return false
	}
	s.changed("add")
	s.persist()
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	notify(listeners)
	return true
}

// Clear removes all items from the store and the cache. Subscribers are notified if the store
// wasn't empty.
func (s *Store[Item]) Clear() {
	s.mu.Lock()
	wasEmpty := s.window.Size() == 0
	s.window.Clear()
	if s.cfg.cache != nil {
		if err := s.cfg.cache.Delete(s.cfg.cacheKey); err != nil {
			s.metrics.persistErrors.Inc()
			s.logger.Warn("delete snapshot", zap.String("key", s.cfg.cacheKey), zap.Error(err))
		}
	}
	if wasEmpty {
		s.mu.Unlock()
		return
	}
	s.changed("clear")
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	notify(listeners)
}

// Snapshot returns the current items in sort order.
//
// The returned slice must not be modified. Until the next change, every call returns the same
// slice, so consumers can detect changes by comparing slices' data pointers.
func (s *Store[Item]) Snapshot() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.window.Items()
}

// Size returns the number of items in the store.
func (s *Store[Item]) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.window.Size()
}

// Subscribe registers fn to be called after every change. Listeners are called
// synchronously, in subscription order, from the goroutine that made the change, and without the
// store's lock held, so they may call Snapshot.
//
// The returned function removes fn. Calling it more than once is a no-op.
func (s *Store[Item]) Subscribe(fn func()) (unsubscribe func()) {
	if fn == nil {
		panic("listener can't be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID += 1
	id := s.nextID
	s.listeners = append(s.listeners, listener{id: id, fn: fn})
	s.metrics.listeners.Set(float64(len(s.listeners)))

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.listeners = slices.DeleteFunc(s.listeners, func(l listener) bool { return l.id == id })
			s.metrics.listeners.Set(float64(len(s.listeners)))
		})
	}
}

func (s *Store[Item]) changed(kind string) {
	s.metrics.changes.WithLabelValues(kind).Inc()
	s.metrics.items.Set(float64(s.window.Size()))
	if evictions := s.window.Evictions(); evictions != s.evictions {
		s.metrics.itemsEvicted.Add(float64(evictions - s.evictions))
		s.evictions = evictions
	}
}

func (s *Store[Item]) snapshotListeners() []listener {
	if len(s.listeners) == 0 {
		return nil
	}
	return slices.Clone(s.listeners)
}

func (s *Store[Item]) persist() {
	if s.cfg.cache == nil {
		return
	}

	items := s.window.Items()
	data, err := s.codec.Encode(slices.Values(items))
	if err != nil {
		s.metrics.persistErrors.Inc()
		s.logger.Warn("encode snapshot", zap.String("key", s.cfg.cacheKey), zap.Error(err))
		return
	}

	if err := s.cfg.cache.Set(s.cfg.cacheKey, data); err != nil {
		s.metrics.persistErrors.Inc()
		s.logger.Warn("persist snapshot", zap.String("key", s.cfg.cacheKey), zap.Error(err))
		return
	}

	s.logger.Debug(
		"snapshot persisted",
		zap.String("key", s.cfg.cacheKey),
		zap.Int("items", len(items)),
		zap.Int("bytes", len(data)),
	)
}

func (s *Store[Item]) restore() error {
	data, ok, err := s.cfg.cache.Get(s.cfg.cacheKey)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	var items []Item
	if err := s.codec.Decode(data, func(item Item) { items = append(items, item) }); err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	if s.window.Add(items...) {
		s.changed("restore")
	}

	s.logger.Info(
		"snapshot restored",
		zap.String("key", s.cfg.cacheKey),
		zap.Int("items", s.window.Size()),
	)

	return nil
}

func notify(listeners []listener) {
	for _, l := range listeners {
		l.fn()
	}
}
