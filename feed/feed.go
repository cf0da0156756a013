// Package feed subscribes to a WebSocket feed and hands the decoded items to a sink.
//
// A [Feed] dials, optionally sends a subscription message, then reads frames until the connection
// fails. Frames are decoded by a [codec.Codec], accumulated in a [buffer.Buffer] and flushed to the
// sink in batches. Failed sessions are retried according to a [retry.Policy].
package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/teenjuna/rolling/buffer"
	"github.com/teenjuna/rolling/codec"
	"github.com/teenjuna/rolling/retry"
)

var (
	ErrExhausted = errors.New("retry policy is exhausted")
)

// Sink receives the decoded items. [rolling.Store] is a sink.
type Sink[Item any] interface {
	Add(items ...Item) bool
	Clear()
}

type Feed[Item any] struct {
	url     string
	cfg     *Config[Item]
	codec   codec.Codec[Item]
	sink    Sink[Item]
	metrics *metrics
	logger  *zap.Logger
}

// New creates a feed reading url. It doesn't connect until [Feed.Run] is called.
func New[Item any](
	url string,
	codec codec.Codec[Item],
	sink Sink[Item],
	configFuncs ...func(*Config[Item]),
) *Feed[Item] {
	if strings.TrimSpace(url) == "" {
		panic("url can't be blank")
	}
	if codec == nil {
		panic("codec can't be nil")
	}
	if sink == nil {
		panic("sink can't be nil")
	}

	cfg := &Config[Item]{}
	cfg.MaxPayload(1 << 20)
	cfg.FlushSize(1000)
	cfg.FlushTimeout(0)
	cfg.RetryPolicy(retry.Exponential(0, 500*time.Millisecond, 30*time.Second).
		WithResetAfter(time.Minute))
	cfg.Buffer(buffer.Appending[Item]())
	cfg.Logger(zap.NewNop())
	cfg.Prometheus(Prometheus(nil))
	for _, cf := range configFuncs {
		cf(cfg)
	}

	return &Feed[Item]{
		url:     url,
		cfg:     cfg,
		codec:   codec,
		sink:    sink,
		metrics: cfg.prometheus.metrics(),
		logger:  cfg.logger.With(zap.String("url", url)),
	}
}

// Run reads the feed until ctx is done, reconnecting after every failed session. A session that
// delivered at least one frame and lasted at least the policy's reset duration resets the retry
// policy.
//
// Run returns nil when ctx is done, or an error wrapping [ErrExhausted] and the last session error
// when the retry policy has no attempts left. It must not be called concurrently.
func (f *Feed[Item]) Run(ctx context.Context) error {
	var (
		policy  = f.cfg.retryPolicy.Derive()
		lastErr error
	)
	for {
		if !policy.Attempt(ctx) {
			if ctx.Err() != nil {
				return nil
			}
			if lastErr == nil {
				return ErrExhausted
			}
			return fmt.Errorf("%w: %w", ErrExhausted, lastErr)
		}

		var (
			logger = f.logger.With(zap.String("session", uuid.NewString()))
			start  = time.Now()
		)

		frames, err := f.session(ctx, logger)
		if ctx.Err() != nil {
			logger.Info("session stopped", zap.Int("frames", frames))
			return nil
		}

		duration := time.Since(start)
		f.metrics.sessionErrors.Inc()
		logger.Warn(
			"session ended",
			zap.Error(err),
			zap.Int("frames", frames),
			zap.Duration("duration", duration),
		)

		lastErr = err
		if frames > 0 && duration >= policy.ResetAfter() {
			policy = f.cfg.retryPolicy.Derive()
		}
	}
}

func (f *Feed[Item]) session(ctx context.Context, logger *zap.Logger) (int, error) {
	conn, _, err := websocket.Dial(ctx, f.url, nil)
	if err != nil {
		return 0, fmt.Errorf("dial: %w", err)
	}
	defer conn.CloseNow()

	// The payload guard is applied per frame in read, so the connection itself is unlimited.
	conn.SetReadLimit(-1)

	f.metrics.sessions.Inc()
	logger.Info("session started")

	if f.cfg.subscription != nil {
		if err := conn.Write(ctx, websocket.MessageText, f.cfg.subscription); err != nil {
			return 0, fmt.Errorf("write subscription: %w", err)
		}
	}
	if f.cfg.resetOnConnect {
		f.sink.Clear()
	}

	var (
		frames          int
		decoded         = make(chan []Item)
		group, groupCtx = errgroup.WithContext(ctx)
	)

	group.Go(func() error {
		defer close(decoded)

		codec := f.codec.Derive()
		for {
			items, err := f.read(groupCtx, conn, codec, logger)
			if err != nil {
				return err
			}
			frames += 1
			if len(items) == 0 {
				continue
			}
			select {
			case decoded <- items:
			case <-groupCtx.Done():
				return groupCtx.Err()
			}
		}
	})

	group.Go(func() error {
		return f.flushWorker(decoded, logger)
	})

	err = group.Wait()
	return frames, err
}

// read reads the next frame. Frames that are too large or malformed are dropped and yield no
// items.
func (f *Feed[Item]) read(
	ctx context.Context,
	conn *websocket.Conn,
	codec codec.Codec[Item],
	logger *zap.Logger,
) ([]Item, error) {
	_, r, err := conn.Reader(ctx)
	if err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}

	data, err := io.ReadAll(io.LimitReader(r, int64(f.cfg.maxPayload)+1))
	if err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}
	f.metrics.frames.Inc()

	if len(data) > f.cfg.maxPayload {
		rest, err := io.Copy(io.Discard, r)
		if err != nil {
			return nil, fmt.Errorf("drain frame: %w", err)
		}
		f.metrics.droppedFrames.WithLabelValues("oversized").Inc()
		logger.Warn(
			"dropped oversized frame",
			zap.Int64("size", int64(len(data))+rest),
			zap.Int("max_payload", f.cfg.maxPayload),
		)
		return nil, nil
	}

	var items []Item
	if err := codec.Decode(data, func(item Item) { items = append(items, item) }); err != nil {
		f.metrics.droppedFrames.WithLabelValues("malformed").Inc()
		logger.Warn("dropped malformed frame", zap.Error(err), zap.Int("size", len(data)))
		return nil, nil
	}
	f.metrics.items.Add(float64(len(items)))

	return items, nil
}

func (f *Feed[Item]) flushWorker(decoded <-chan []Item, logger *zap.Logger) error {
	var (
		buffer = f.cfg.buffer.Derive()
		tick   = ticker(f.cfg.flushTimeout)
	)
	for {
		select {
		case items, ok := <-decoded:
			if !ok {
				f.flush(buffer, logger)
				return nil
			}
			for _, item := range items {
				buffer.Push(item)
			}
			if f.cfg.flushTimeout == 0 || buffer.Size() >= f.cfg.flushSize {
				f.flush(buffer, logger)
			}
		case <-tick:
			f.flush(buffer, logger)
		}
	}
}

func (f *Feed[Item]) flush(buffer buffer.Buffer[Item], logger *zap.Logger) {
	if buffer.Size() == 0 {
		return
	}
	changed := f.sink.Add(slices.Collect(buffer.Iter())...)
	logger.Debug(
		"flushed items",
		zap.Int("items", buffer.Size()),
		zap.Int("pushes", buffer.Pushes()),
		zap.Bool("changed", changed),
	)
	buffer.Reset()
}

func ticker(d time.Duration) <-chan time.Time {
	if d <= 0 {
		return make(<-chan time.Time)
	}
	return time.Tick(d)
}
