package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	"github.com/seu-repo/outlet-kpi/internal/adapter/cache"
	"github.com/seu-repo/outlet-kpi/internal/adapter/export"
	"github.com/seu-repo/outlet-kpi/internal/adapter/http/fiber/handlers"
	"github.com/seu-repo/outlet-kpi/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/outlet-kpi/internal/adapter/ingest"
	"github.com/seu-repo/outlet-kpi/internal/adapter/queue"
	"github.com/seu-repo/outlet-kpi/internal/adapter/storage/session"
	"github.com/seu-repo/outlet-kpi/internal/domain"
	"github.com/seu-repo/outlet-kpi/internal/observability/telemetry"
	"github.com/seu-repo/outlet-kpi/internal/ports"
	"github.com/seu-repo/outlet-kpi/internal/service/health"
	"github.com/seu-repo/outlet-kpi/internal/service/report"
	"github.com/seu-repo/outlet-kpi/pkg/config"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	// 2. Initialize Logger
	logger, err := telemetry.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatal("Failed to initialize logger: ", err)
	}
	defer logger.Sync()

	logger.Info("Starting outlet KPI service",
		zap.String("service", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	// 3. Initialize OpenTelemetry (Distributed Tracing)
	if cfg.OpenTelemetry.Enabled {
		tracerProvider, err := telemetry.InitTracer(context.Background(), cfg.OpenTelemetry, cfg.App.Version)
		if err != nil {
			logger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			if err := tracerProvider.Shutdown(context.Background()); err != nil {
				logger.Error("Error shutting down tracer provider", zap.Error(err))
			}
		}()
	}

	// 4. Initialize Session Store
	store, err := newSessionStore(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize session store", zap.Error(err))
	}
	defer store.Close()
	sessions := session.NewRepository(store, cfg.Redis.KeyPrefix, cfg.Session.TTL, logger)

	// 5. Initialize Message Queue
	messageQueue, err := queue.New(cfg.Events, logger)
	if err != nil {
		logger.Fatal("Failed to connect to events broker", zap.Error(err))
	}
	defer messageQueue.Close()
	if err := queue.SubscribeSessionEvents(messageQueue, cfg.Events.Subject, auditSessionEvent(logger), logger); err != nil {
		logger.Warn("Session event audit disabled", zap.Error(err))
	}

	// 6. Initialize Services
	opts, err := report.OptionsFromConfig(cfg)
	if err != nil {
		logger.Fatal("Invalid report configuration", zap.Error(err))
	}
	reportService := report.NewService(
		sessions,
		queue.NewEventPublisher(messageQueue, cfg.Events.Subject, logger),
		export.NewXLSXEncoder(logger),
		opts,
		logger,
	)
	healthService := health.NewService(health.Config{
		Version:      cfg.App.Version,
		StoreBackend: cfg.Session.Store,
		SessionStore: store,
		Events:       messageQueue,
	}, logger)

	// 7. Initialize Fiber HTTP Server
	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		ServerHeader:          cfg.App.Name,
		DisableStartupMessage: true,
		BodyLimit:             cfg.HTTP.BodyLimit,
		ReadTimeout:           cfg.HTTP.ReadTimeout,
		WriteTimeout:          cfg.HTTP.WriteTimeout,
		IdleTimeout:           cfg.HTTP.IdleTimeout,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	// Global Middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New())
	if cfg.CORS.Enabled {
		app.Use(middleware.NewCORS(cfg.CORS))
	}
	app.Use(middleware.CircuitBreaker(cfg.CircuitBreaker, logger))

	// Health Check Endpoints
	health.NewFiberHandler(healthService).RegisterRoutes(app)

	// Metrics endpoint for Prometheus
	if cfg.Prometheus.Enabled {
		metrics := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
		app.Get(cfg.Prometheus.Path, func(c *fiber.Ctx) error {
			metrics(c.Context())
			return nil
		})
	}

	// API v1 Routes
	v1 := app.Group("/api/v1")
	handlers.NewSessionHandler(
		reportService,
		ingest.NewReader(int64(cfg.Limits.MaxUploadBytes), logger),
		cfg.Report,
		logger,
	).RegisterRoutes(v1)

	// 8. Start HTTP Server
	go func() {
		logger.Info("Starting HTTP Server", zap.Int("port", cfg.HTTP.Port))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil {
			logger.Fatal("HTTP Server failed", zap.Error(err))
		}
	}()

	// 9. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited gracefully")
}

// newSessionStore picks the cache backing upload sessions.
func newSessionStore(cfg *config.Config, logger *zap.Logger) (ports.Cache, error) {
	switch cfg.Session.Store {
	case "redis":
		return cache.NewRedisCache(cfg.Redis, cfg.CircuitBreaker, logger)
	case "", "memory":
		store := cache.NewLocalCache(cfg.Session.CleanupInterval, cfg.Session.MaxSessions, logger)
		if cfg.Prometheus.Enabled {
			prometheus.MustRegister(telemetry.NewSessionGauge(store.Len))
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Session.Store)
	}
}

// auditSessionEvent logs every computed session seen on the events subject,
// including those computed by other replicas.
func auditSessionEvent(logger *zap.Logger) func(domain.SessionEvent) error {
	return func(ev domain.SessionEvent) error {
		logger.Info("Session event",
			zap.String("type", ev.Type),
			zap.String("session_id", ev.SessionID),
			zap.String("week_policy", ev.WeekPolicy),
			zap.Int("matched_events", ev.Stats.MatchedEvents),
			zap.Int("unmatched_events", ev.Stats.UnmatchedEvents),
		)
		return nil
	}
}
