package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/couchcryptid/quake-feed/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/quake-feed/internal/adapter/kafka"
	redisadapter "github.com/couchcryptid/quake-feed/internal/adapter/redis"
	"github.com/couchcryptid/quake-feed/internal/adapter/usgs"
	"github.com/couchcryptid/quake-feed/internal/alerting"
	"github.com/couchcryptid/quake-feed/internal/config"
	"github.com/couchcryptid/quake-feed/internal/observability"
	"github.com/couchcryptid/quake-feed/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	client := usgs.NewClient(cfg.USGSBaseURL, cfg.USGSTimeout, cfg.USGSRateLimit, cfg.USGSRateBurst, logger, metrics)
	source, err := usgs.NewCachedSource(client, cfg.DetailCacheSize, metrics)
	if err != nil {
		logger.Error("failed to create detail cache", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := []store.Option{store.WithInitialFilters(cfg.DefaultFilters)}

	// Snapshot persistence (feature-flagged via REDIS_ADDR).
	var closeRedis func() error
	if cfg.RedisAddr != "" {
		rdb, err := redisadapter.Connect(ctx, cfg, logger)
		if err != nil {
			logger.Error("redis unavailable, continuing without snapshots", "error", err)
		} else {
			closeRedis = rdb.Close
			opts = append(opts, store.WithSnapshotCache(redisadapter.NewSnapshotCache(rdb, cfg.SnapshotTTL)))
			logger.Info("snapshot persistence enabled", "ttl", cfg.SnapshotTTL)
		}
	} else {
		logger.Info("snapshot persistence disabled")
	}

	st := store.New(source, logger, metrics, opts...)
	if err := st.Warm(ctx); err != nil {
		logger.Warn("snapshot warm failed", "error", err)
	}

	// Alert publishing (feature-flagged via ALERTS_ENABLED / KAFKA_ENABLED).
	var publisher alerting.Publisher = alerting.NewLogPublisher(logger)
	var alertWriter *kafkaadapter.AlertWriter
	if cfg.Alerts.Enabled && cfg.KafkaEnabled {
		alertWriter = kafkaadapter.NewAlertWriter(cfg, logger)
		publisher = alertWriter
		logger.Info("kafka alert publishing enabled", "topic", cfg.KafkaAlertTopic, "brokers", cfg.KafkaBrokers)
	}
	watcher := alerting.NewWatcher(st, publisher, cfg.Alerts, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, st, logger)

	var wg sync.WaitGroup

	// Start HTTP server.
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// Initial load, then periodic refresh if configured.
	wg.Add(1)
	go func() {
		defer wg.Done()
		st.Refresh(ctx)
		st.Poll(ctx, cfg.RefreshInterval)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := watcher.Run(ctx); err != nil {
			logger.Error("alert watcher error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	wg.Wait()

	if alertWriter != nil {
		if err := alertWriter.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if closeRedis != nil {
		if err := closeRedis(); err != nil {
			logger.Error("redis close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
