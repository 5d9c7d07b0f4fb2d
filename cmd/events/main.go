package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eventmesh-lab/events-service/internal/app"
	"github.com/eventmesh-lab/events-service/internal/clock"
	"github.com/eventmesh-lab/events-service/internal/config"
	"github.com/eventmesh-lab/events-service/internal/logger"
	"github.com/eventmesh-lab/events-service/internal/messaging"
	"github.com/eventmesh-lab/events-service/internal/messaging/kafka"
	"github.com/eventmesh-lab/events-service/internal/metrics"
	"github.com/eventmesh-lab/events-service/internal/storage/cache"
	"github.com/eventmesh-lab/events-service/internal/storage/postgres"
	"github.com/eventmesh-lab/events-service/internal/tracing"
	transporthttp "github.com/eventmesh-lab/events-service/internal/transport/http"
	"github.com/eventmesh-lab/events-service/migrations"
)

const startupTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "events-service: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, logCloser, err := logger.New(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() {
		_ = log.Sync()
		_ = logCloser.Close()
	}()

	if cfg.EnvFile != "" {
		log.Info("loaded env file", zap.String("path", cfg.EnvFile))
	} else {
		log.Warn(".env not found in current or parent directories, using environment and defaults")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startupCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to db: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(startupCtx); err != nil {
		return fmt.Errorf("db ping: %w", err)
	}
	applied, err := migrations.Apply(startupCtx, pool)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	log.Info("migrations applied", zap.Strings("applied", applied))

	if cfg.TracingEnabled {
		tp, err := tracing.NewProvider(os.Stdout)
		if err != nil {
			return err
		}
		otel.SetTracerProvider(tp)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				log.Warn("tracer shutdown", zap.Error(err))
			}
		}()
	}

	m := metrics.New()
	clk := clock.NewSystem()

	transport, err := kafka.New(kafka.Config{
		Brokers:           cfg.Kafka.Brokers,
		Topic:             cfg.Kafka.Topic,
		Partitions:        cfg.Kafka.Partitions,
		ReplicationFactor: cfg.Kafka.ReplicationFactor,
		CreateTopic:       cfg.Kafka.CreateTopic,
		WriteTimeout:      cfg.Kafka.WriteTimeout,
	}, kafka.WithLogger(log))
	if err != nil {
		return err
	}
	defer func() {
		if err := transport.Close(); err != nil {
			log.Warn("close kafka transport", zap.Error(err))
		}
	}()
	publisher := messaging.NewPublisher(transport, clk, messaging.WithLogger(log), messaging.WithRecorder(m))

	var repo app.EventRepository = postgres.NewEventRepository(pool)
	readiness := []transporthttp.ReadinessCheck{{Name: "postgres", Check: pool.Ping}}

	if cfg.Redis.Addr != "" {
		client, err := cache.Connect(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer client.Close()
		repo = cache.NewEventRepository(repo, client, cfg.Redis.TTL, log)
		readiness = append(readiness, transporthttp.ReadinessCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return client.Ping(ctx).Err() },
		})
		log.Info("event read cache enabled", zap.Duration("ttl", cfg.Redis.TTL))
	}

	svc := app.NewEventService(repo, publisher, app.NewRequestValidator(clk), clk, app.WithLogger(log))

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: transporthttp.NewRouter(transporthttp.RouterConfig{
			Service:     svc,
			Logger:      log,
			Observer:    m,
			Metrics:     m.Handler(),
			CORSOrigins: cfg.CORSOrigins,
			Readiness:   readiness,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("api listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, stopping server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	err = g.Wait()
	log.Info("server stopped")
	return err
}
