package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/localpro/marketplace/internal/config"
	"github.com/localpro/marketplace/pkg/database"
	"github.com/localpro/marketplace/pkg/health"
	pkgkafka "github.com/localpro/marketplace/pkg/kafka"
)

// processedEventTTL bounds how long processed event IDs are remembered.
const processedEventTTL = 24 * time.Hour

// App wires together all dependencies and runs the notifier.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	redis      *redis.Client
	dlq        *pkgkafka.DLQProducer
	consumers  []*pkgkafka.Consumer
	httpServer *http.Server
}

// NewApp creates a new notifier instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Redis backs the cross-restart idempotency store.
	redisClient, err := database.NewRedisClient(ctx, database.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis", slog.String("host", cfg.RedisHost), slog.Int("port", cfg.RedisPort))

	// Delivery target. Without a webhook URL, notifications go to the log.
	var sender Sender
	if cfg.WebhookURL != "" {
		sender = NewWebhookSender(cfg.WebhookURL, logger)
		logger.Info("webhook delivery enabled", slog.String("url", cfg.WebhookURL))
	} else {
		sender = NewLogSender(logger)
		logger.Info("no webhook URL configured, logging notifications")
	}

	// Kafka consumers with idempotency and DLQ.
	store := NewRedisIdempotencyStore(redisClient, processedEventTTL)
	dlq := pkgkafka.NewDLQProducer(cfg.KafkaBrokers, logger)
	handler := NewConsumerHandler(sender, logger)
	consumers := NewConsumers(cfg.KafkaBrokers, handler, store, dlq, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return pkgkafka.PingBrokers(ctx, cfg.KafkaBrokers)
	})

	r := chi.NewRouter()
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		promhttp.Handler().ServeHTTP(w, req)
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.NotifierHTTPPort),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		redis:      redisClient,
		dlq:        dlq,
		consumers:  consumers,
		httpServer: httpServer,
	}, nil
}

// Run starts the Kafka consumers and the health HTTP server, then blocks
// until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	for _, consumer := range a.consumers {
		c := consumer
		go func() {
			if err := c.Start(ctx); err != nil {
				a.logger.Error("kafka consumer error", slog.String("error", err.Error()))
			}
		}()
	}

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down notifier...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	for _, consumer := range a.consumers {
		if err := consumer.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
		}
	}

	if err := a.dlq.Close(); err != nil {
		a.logger.Error("dlq producer close error", slog.String("error", err.Error()))
	}

	if err := a.redis.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
	}

	a.logger.Info("notifier shutdown complete")
	return nil
}
