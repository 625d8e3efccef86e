package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tasksync/internal/api"
	"tasksync/internal/config"
	"tasksync/internal/database"
	"tasksync/internal/events"
	"tasksync/internal/logging"
	"tasksync/internal/metrics"
	"tasksync/internal/repository"
	"tasksync/internal/service"
	"tasksync/internal/syncer"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}
	stateRepo := initStateRepository(redisClient, &logger)

	eventBus := events.NewEventBus()
	subscribeSyncEvents(eventBus, &logger)

	taskService := service.NewTaskService(db, eventBus, &logger)

	prober := syncer.NewProber(cfg.Remote.BaseURL, cfg.Remote.ProbeTimeout, &logger)
	client := syncer.NewClient(cfg.Remote.BaseURL, cfg.Remote.RequestTimeout, db, &logger)
	retries := syncer.NewRetryManager(db, redisClient, eventBus, cfg.Sync.MaxRetries, &logger)
	orch := syncer.NewOrchestrator(db, prober, client, retries, stateRepo, eventBus, cfg.Sync.BatchSize, &logger)

	if cfg.Sync.Auto {
		loop := syncer.NewLoop(orch, cfg.Sync.Interval, syncer.RetryPolicy{}, &logger)
		go loop.Start(ctx)
	}

	startMetrics(ctx, cfg, &logger)

	srv := api.NewServer(cfg, taskService, db, orch, prober, stateRepo, &logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	logger.Info().Msg("node stopped")
	return nil
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := logging.Component(baseLogger, "api-main")

	return cfg, logger, closer, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = redisClient.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// initStateRepository prefers redis but keeps an in-memory copy so the
// status endpoint stays live through redis outages.
func initStateRepository(redisClient *redis.Client, logger *zerolog.Logger) *repository.FailoverStateRepository {
	primary := repository.NewRedisStateRepository(redisClient)
	fallback := repository.NewMemoryStateRepository()
	return repository.NewFailoverStateRepository(primary, fallback, logger)
}

func subscribeSyncEvents(bus *events.EventBus, logger *zerolog.Logger) {
	bus.Subscribe(events.EventEntryDeadLettered, func(ev *events.Event) error {
		var payload events.DeadLetterEventPayload
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			logger.Error().Err(err).Str("event", ev.Type).Msg("event bus: decode payload")
			return nil
		}
		logger.Warn().
			Str("entry_id", payload.EntryID).
			Str("task_id", payload.TaskID).
			Str("operation", payload.Operation).
			Str("error", payload.Error).
			Msg("mutation dead-lettered")
		return nil
	})
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
