package feed

import (
	"time"

	"go.uber.org/zap"

	"github.com/teenjuna/rolling/buffer"
	"github.com/teenjuna/rolling/retry"
)

// Config is a configuration of the [Feed]. It can only be changed by the configuration functions
// passed to [New].
type Config[Item any] struct {
	maxPayload     int
	flushSize      int
	flushTimeout   time.Duration
	retryPolicy    retry.Policy
	buffer         buffer.Buffer[Item]
	subscription   []byte
	resetOnConnect bool
	logger         *zap.Logger
	prometheus     *PrometheusConfig
}

// MaxPayload sets the size limit of a frame in bytes. Larger frames are read to the end and
// dropped, the connection stays open.
func (c *Config[Item]) MaxPayload(maxPayload int) {
	if maxPayload < 1 {
		panic("max payload can't be < 1")
	}
	c.maxPayload = maxPayload
}

// FlushSize sets the number of buffered items that triggers a flush to the sink.
func (c *Config[Item]) FlushSize(flushSize int) {
	if flushSize < 1 {
		panic("flush size can't be < 1")
	}
	c.flushSize = flushSize
}

// FlushTimeout sets the interval of flushes to the sink. Zero means that the items of every frame
// are flushed as soon as the frame is decoded.
func (c *Config[Item]) FlushTimeout(flushTimeout time.Duration) {
	if flushTimeout < 0 {
		panic("flush timeout can't be < 0")
	}
	c.flushTimeout = flushTimeout
}

// RetryPolicy sets the policy gating every dial. Each [Feed.Run] derives its own instance.
func (c *Config[Item]) RetryPolicy(policy retry.Policy) {
	if policy == nil {
		panic("policy can't be nil")
	}
	c.retryPolicy = policy
}

// Buffer sets the buffer accumulating items between flushes. [buffer.Merging] coalesces updates of
// the same entity before they reach the sink.
func (c *Config[Item]) Buffer(buffer buffer.Buffer[Item]) {
	if buffer == nil {
		panic("buffer can't be nil")
	}
	c.buffer = buffer
}

// Subscribe sets the message sent as a text frame right after every successful dial.
func (c *Config[Item]) Subscribe(message []byte) {
	if len(message) == 0 {
		panic("subscription can't be empty")
	}
	c.subscription = message
}

// ResetOnConnect makes the feed clear the sink after every successful subscription, for servers
// that replay a snapshot on every connect.
func (c *Config[Item]) ResetOnConnect() {
	c.resetOnConnect = true
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
