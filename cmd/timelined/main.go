package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/devrev/timeline/internal/config"
	"github.com/devrev/timeline/internal/health"
	"github.com/devrev/timeline/internal/metrics"
	"github.com/devrev/timeline/internal/service"
	"github.com/devrev/timeline/internal/store"
)

func main() {
	// Bootstrap logger until the configured one is built
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting timeline service")

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	if configured, err := buildLogger(cfg.Logging); err != nil {
		logger.Warn("Failed to build configured logger, keeping default", zap.Error(err))
	} else {
		logger = configured
		defer logger.Sync()
	}

	logger.Info("Configuration loaded",
		zap.String("redis_host", cfg.Redis.Host),
		zap.Int("redis_port", cfg.Redis.Port),
		zap.Bool("replay_enabled", cfg.Replay.Enabled),
		zap.Bool("retention_enabled", cfg.Retention.Enabled))

	// Initialize metrics
	m := metrics.NewMetrics()
	logger.Info("Metrics initialized")

	// One shared Redis client backs the sorted-set store, the event stream
	// and the pending-event queue
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxRetries:   cfg.Redis.MaxRetries,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	})

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := client.Ping(pingCtx).Err(); err != nil {
		cancelPing()
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	cancelPing()
	defer client.Close()

	recordStore := store.NewRedisSortedStoreWithClient(client, logger)
	eventStream := store.NewRedisEventStreamWithClient(client, cfg.Stream.MaxLen, logger)
	pendingStore := store.NewRedisPendingStore(client, cfg.Replay.QueueKey, logger)
	logger.Info("Stores initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start failed-notification redelivery
	if cfg.Replay.Enabled {
		replayService := service.NewReplayService(pendingStore, eventStream, cfg.Replay.Interval, m, logger)
		go replayService.Run(ctx)
	}

	// Start retention sweeps
	var retentionService *service.RetentionService
	if cfg.Retention.Enabled {
		retentionService = service.NewRetentionService(
			recordStore,
			cfg.Retention.Scopes,
			cfg.Retention.MaxAge,
			cfg.Retention.Interval,
			m,
			logger,
		)
		go retentionService.Run(ctx)
	}

	// Start metrics server
	if cfg.Metrics.Enabled {
		go func() {
			mux := http.NewServeMux()
			mux.Handle(cfg.Metrics.Path, promhttp.Handler())
			addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
			logger.Info("Starting metrics server", zap.String("address", addr))
			if err := http.ListenAndServe(addr, mux); err != nil {
				logger.Error("Metrics server failed", zap.Error(err))
			}
		}()
	}

	// Start health check server
	healthChecker := health.NewHealthChecker(recordStore, eventStream, logger)
	go func() {
		if err := health.StartHealthServer(healthChecker, cfg.Health.Port, logger); err != nil {
			logger.Error("Health check server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("Received signal", zap.String("signal", sig.String()))

	// Graceful shutdown
	logger.Info("Shutting down gracefully")
	cancel()

	if retentionService != nil {
		if err := retentionService.Stop(10 * time.Second); err != nil {
			logger.Warn("Retention service stop timed out", zap.Error(err))
		}
	}

	logger.Info("Timeline service stopped")
}

// buildLogger builds a zap logger from the logging configuration
func buildLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	zapCfg.Level = level

	return zapCfg.Build()
}
