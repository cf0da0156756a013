// Command twaptail tails the TWAP history of a user and logs a summary of its latest orders on
// every change.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/teenjuna/rolling"
	"github.com/teenjuna/rolling/cache"
	"github.com/teenjuna/rolling/cache/bolt"
	"github.com/teenjuna/rolling/cache/sqlite"
	"github.com/teenjuna/rolling/codec/msgp"
	"github.com/teenjuna/rolling/feed"
	"github.com/teenjuna/rolling/retry"
	"github.com/teenjuna/rolling/twap"
)

type options struct {
	url        string
	user       string
	max        int
	maxPayload int
	cache      string
	cacheTTL   time.Duration
	metrics    string
}

func main() {
	var opts options
	flag.StringVar(&opts.url, "url", "wss://api.hyperliquid.xyz/ws", "feed URL")
	flag.StringVar(&opts.user, "user", "", "address of the user whose TWAP history is tailed")
	flag.IntVar(&opts.max, "max", 100, "number of orders kept")
	flag.IntVar(&opts.maxPayload, "max-payload", 1<<20, "size limit of a frame in bytes")
	flag.StringVar(&opts.cache, "cache", "", "snapshot cache file, bbolt if it ends with .bolt and sqlite otherwise")
	flag.DurationVar(&opts.cacheTTL, "cache-ttl", time.Hour, "age after which a cached snapshot is ignored, 0 to keep forever")
	flag.StringVar(&opts.metrics, "metrics", "", "listen address of the /metrics endpoint")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if opts.user == "" {
		logger.Fatal("user is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, logger); err != nil {
		logger.Fatal("run", zap.Error(err))
	}
}

func run(ctx context.Context, opts options, logger *zap.Logger) (err error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	configFuncs := []func(*rolling.Config[twap.Fill]){
		func(c *rolling.Config[twap.Fill]) {
			c.Logger(logger.Named("history"))
			c.Prometheus(rolling.Prometheus(registry, func(c *rolling.PrometheusConfig) {
				c.Subsystem = "twap"
			}))
		},
	}

	if opts.cache != "" {
		c, cacheErr := openCache(opts.cache, opts.cacheTTL)
		if cacheErr != nil {
			return fmt.Errorf("open cache: %w", cacheErr)
		}
		defer func() {
			err = errors.Join(err, c.Close())
		}()

		configFuncs = append(configFuncs, func(cfg *rolling.Config[twap.Fill]) {
			cfg.Codec(msgp.New[twap.Fill]())
			cfg.Cache(c, "twap:"+opts.user)
		})
	}

	history, err := twap.NewHistory(opts.max, configFuncs...)
	if err != nil {
		return fmt.Errorf("create history: %w", err)
	}

	unsubscribe := history.Subscribe(func() {
		summary := twap.Summarize(history.Snapshot())
		logger.Info(
			"history changed",
			zap.Int("orders", history.Size()),
			zap.Int("fills", summary.Fills),
			zap.Stringer("size", summary.Size),
			zap.Stringer("notional", summary.Notional),
			zap.Stringer("vwap", summary.VWAP),
		)
	})
	defer unsubscribe()

	f := feed.New(opts.url, twap.NewCodec(), feed.Sink[twap.Fill](history), func(c *feed.Config[twap.Fill]) {
		c.MaxPayload(opts.maxPayload)
		c.Subscribe(twap.Subscription(opts.user))
		c.ResetOnConnect()
		c.RetryPolicy(retry.Exponential(0, time.Second, time.Minute).WithResetAfter(time.Minute))
		c.Logger(logger.Named("feed"))
		c.Prometheus(feed.Prometheus(registry, func(c *feed.PrometheusConfig) {
			c.Subsystem = "twap_feed"
		}))
	})

	group, ctx := errgroup.WithContext(ctx)

	if opts.metrics != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		server := &http.Server{
			Addr:              opts.metrics,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		group.Go(func() error {
			logger.Info("serving metrics", zap.String("addr", opts.metrics))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve metrics: %w", err)
			}
			return nil
		})
		group.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	group.Go(func() error {
		if err := f.Run(ctx); err != nil {
			return fmt.Errorf("run feed: %w", err)
		}
		return nil
	})

	return group.Wait()
}

func openCache(file string, ttl time.Duration) (*cache.Cache, error) {
	if filepath.Ext(file) == ".bolt" {
		storage, err := bolt.Open(file, time.Second)
		if err != nil {
			return nil, fmt.Errorf("open bolt: %w", err)
		}
		return cache.New(storage, ttl), nil
	}

	storage, err := sqlite.New(func(c *sqlite.Config) {
		c.File(file)
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return cache.New(storage, ttl), nil
}
