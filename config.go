package rolling

import (
	"strings"

	"go.uber.org/zap"

	"github.com/teenjuna/rolling/cache"
	"github.com/teenjuna/rolling/codec"
)

// Config is a configuration of the [Store]. It can only be changed by the configuration functions
// passed to [New].
type Config[Item any] struct {
	replaceFunc func(existing, incoming Item) bool
	degree      int
	codec       codec.Codec[Item]
	cache       *cache.Cache
	cacheKey    string
	logger      *zap.Logger
	prometheus  *PrometheusConfig
}

// Replace sets the policy applied when an incoming item has the key of a stored one. Without it,
// the first item seen for a key is kept.
func (c *Config[Item]) Replace(replaceFunc func(existing, incoming Item) bool) {
	if replaceFunc == nil {
		panic("replace func can't be nil")
	}
	c.replaceFunc = replaceFunc
}

// Tree makes the store keep its items in a B-tree of the given degree instead of a sorted slice.
// Worth it for windows of thousands of items.
func (c *Config[Item]) Tree(degree int) {
	if degree < 2 {
		panic("degree can't be < 2")
	}
	c.degree = degree
}

// Codec sets the codec used to persist snapshots. The default is JSON.
func (c *Config[Item]) Codec(codec codec.Codec[Item]) {
	if codec == nil {
		panic("codec can't be nil")
	}
	c.codec = codec
}

// Cache makes the store persist its snapshot under key after every change and restore it on
// creation.
func (c *Config[Item]) Cache(cache *cache.Cache, key string) {
	if cache == nil {
		panic("cache can't be nil")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		panic("cache key can't be blank")
	}
	c.cache = cache
	c.cacheKey = key
}

func (c *Config[Item]) Logger(logger *zap.Logger) {
	if logger == nil {
		panic("logger can't be nil")
	}
	c.logger = logger
}

// Prometheus sets the metrics configuration. See [Prometheus].
func (c *Config[Item]) Prometheus(prometheus *PrometheusConfig) {
	if prometheus == nil {
		panic("prometheus can't be nil")
	}
	c.prometheus = prometheus
}
