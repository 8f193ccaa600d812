package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/Astrocyte74/jeopardy-sub000/internal/config"
	"github.com/Astrocyte74/jeopardy-sub000/internal/database"
	"github.com/Astrocyte74/jeopardy-sub000/internal/library"
	"github.com/Astrocyte74/jeopardy-sub000/internal/llm"
	"github.com/Astrocyte74/jeopardy-sub000/internal/ratelimit"
	"github.com/Astrocyte74/jeopardy-sub000/internal/server"
	"github.com/Astrocyte74/jeopardy-sub000/internal/snapshot"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	dbPath, err := database.PathIn(cfg.DBDir)
	if err != nil {
		return err
	}
	db, err := database.Open(ctx, dbPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	lib, err := library.NewStore(ctx, db)
	if err != nil {
		db.Close()
		return fmt.Errorf("preparing library: %w", err)
	}
	defer lib.Close()
	logger.Info("connected to sqlite", "path", dbPath)

	if cfg.SeedDemo {
		if err := library.SeedDemo(ctx, logger, lib); err != nil {
			return fmt.Errorf("seeding library: %w", err)
		}
	}

	// --- Rate limiting ---
	deps := server.Deps{
		Library:        lib,
		AutosaveDelay:  cfg.AutosaveDelay,
		PreviewTimeout: cfg.PreviewTimeout,
		StaticDir:      cfg.StaticDir,
	}
	var window *ratelimit.Window
	if cfg.RedisURL != "" {
		rdb, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()
		logger.Info("connected to redis")
		deps.Limiter = ratelimit.NewRedisWindow(rdb, cfg.RateLimitPerMinute, time.Minute)
		deps.Redis = redisPinger{rdb}
	} else {
		window = ratelimit.NewWindow(cfg.RateLimitPerMinute, time.Minute)
		deps.Limiter = window
	}

	// --- Model API ---
	gen, err := llm.NewClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model,
		llm.WithHTTPClient(&http.Client{Timeout: cfg.LLM.Timeout}),
		llm.WithMaxTokens(cfg.LLM.MaxTokens),
		llm.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("creating model client: %w", err)
	}
	deps.Generator = gen

	// --- Snapshots ---
	snapshots := snapshot.NewStore(cfg.SnapshotTTL)
	deps.Snapshots = snapshots

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, deps)

	janitor := snapshot.NewJanitor(snapshots, cfg.SweepInterval, logger)
	janitor.OnSweep(srv.ObserveSweep)

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		return janitor.Run(gctx)
	})

	if window != nil {
		g.Go(func() error {
			pruneWindow(gctx, window, cfg.SweepInterval, logger)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

// pruneWindow drops idle client entries from the in-process limiter.
func pruneWindow(ctx context.Context, w *ratelimit.Window, every time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := w.Prune(); n > 0 {
				logger.Debug("rate limit entries pruned", "count", n)
			}
		}
	}
}

// redisPinger adapts *redis.Client to server.Pinger.
type redisPinger struct{ client *redis.Client }

func (r redisPinger) Ping(ctx context.Context) error { return r.client.Ping(ctx).Err() }
