package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/quick-ledger/ottero/internal/application/billing"
	domain "github.com/quick-ledger/ottero/internal/domain/billing"
	"github.com/quick-ledger/ottero/internal/infrastructure/auth"
	"github.com/quick-ledger/ottero/internal/infrastructure/cache"
	"github.com/quick-ledger/ottero/internal/infrastructure/config"
	"github.com/quick-ledger/ottero/internal/infrastructure/event"
	"github.com/quick-ledger/ottero/internal/infrastructure/logger"
	"github.com/quick-ledger/ottero/internal/infrastructure/persistence"
	"github.com/quick-ledger/ottero/internal/infrastructure/telemetry"
	"github.com/quick-ledger/ottero/internal/interfaces/http/handler"
	"github.com/quick-ledger/ottero/internal/interfaces/http/middleware"
	"github.com/quick-ledger/ottero/internal/interfaces/http/router"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// .env is optional; real environment variables win over it
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		panic("Failed to read .env: " + err.Error())
	}

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: logger.DefaultTimeFormat,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting billing service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.TracerConfig(cfg.Telemetry), log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MeterConfig(cfg.Telemetry), log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	meter := meterProvider.Meter("ottero.billing")

	// Database
	dbOpts := []persistence.Option{
		persistence.WithLogger(logger.NewGormLogger(log, logger.GormLevel(cfg.Log.Level),
			logger.WithSlowThreshold(cfg.Database.SlowQueryThresh))),
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		dbOpts = append(dbOpts, persistence.WithTracing(cfg.Telemetry.DBLogFullSQL))
	}
	db, err := persistence.NewDatabase(&cfg.Database, dbOpts...)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.DBName),
	)

	// Redis is optional
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	}

	dbSequence := persistence.NewGormNumberSequence(db.DB)
	var sequence domain.NumberSequence = dbSequence
	if cfg.Billing.SequenceBackend == config.SequenceBackendRedis {
		if redisClient == nil {
			log.Fatal("Redis sequence backend requires redis.enabled")
		}
		redisSequence := cache.NewRedisNumberSequence(redisClient, cache.DefaultSequenceKeyPrefix)
		// counters must start above every number the database already issued
		seeded, err := cache.SeedSequences(ctx, dbSequence, redisSequence)
		if err != nil {
			log.Fatal("Failed to seed redis sequences", zap.Error(err))
		}
		log.Info("Redis sequences seeded", zap.Int("counters", seeded))
		sequence = redisSequence
	}
	log.Info("Document numbering configured", zap.String("backend", cfg.Billing.SequenceBackend))

	formatter, err := billing.NewAmountFormatter(cfg.Billing.Currency, cfg.Billing.Locale)
	if err != nil {
		log.Fatal("Invalid billing display settings", zap.Error(err))
	}

	documentService := billing.NewDocumentService(
		persistence.NewGormDocumentRepository(db.DB),
		sequence,
		billing.WithNumberFormat(domain.NumberFormat{
			QuotePrefix:   cfg.Billing.QuotePrefix,
			InvoicePrefix: cfg.Billing.InvoicePrefix,
			Width:         cfg.Billing.NumberWidth,
		}),
		billing.WithConflictRetries(cfg.Billing.MaxConflictRetries),
		billing.WithAmountFormatter(formatter),
		billing.WithLogger(log),
	)

	// Domain events
	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(billing.NewAuditLogHandler(log, billing.WithAuditFormatter(formatter)))

	documentMetrics, err := telemetry.NewDocumentMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create document metrics", zap.Error(err))
	}
	bus.Subscribe(documentMetrics)

	var forwarder *event.KafkaForwarder
	if cfg.Events.KafkaEnabled {
		writer := event.NewKafkaWriter(event.KafkaWriterConfig{
			Brokers:      cfg.Events.KafkaBrokers,
			Topic:        cfg.Events.KafkaTopic,
			WriteTimeout: cfg.Events.WriteTimeout,
		})
		forwarder = event.NewKafkaForwarder(writer, log, event.WithWriteTimeout(cfg.Events.WriteTimeout))
		bus.Subscribe(forwarder)
		log.Info("Kafka event forwarding enabled",
			zap.Strings("brokers", cfg.Events.KafkaBrokers),
			zap.String("topic", cfg.Events.KafkaTopic),
		)
	}
	documentService.SetEventPublisher(bus)
	if err := bus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// HTTP
	engine, err := newEngine(cfg, log, meter)
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}
	engine.GET("/health", healthHandler(db, redisClient))

	var verifier middleware.CompanyVerifier
	if cfg.JWT.Enabled {
		verifier = auth.NewTokenVerifier(cfg.JWT)
	} else {
		log.Warn("JWT verification disabled; company is read from the " + middleware.CompanyIDHeader + " header")
	}

	billingRoutes := handler.NewDocumentHandler(documentService).
		Routes(middleware.CompanyScope(verifier), middleware.SpanAttributes())
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(billingRoutes).Setup()
	log.Info("Routes registered",
		zap.String("base_path", r.BasePath()),
		zap.Int("billing_routes", len(billingRoutes.Routes())),
	)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := bus.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}
	if forwarder != nil {
		if err := forwarder.Close(); err != nil {
			log.Error("Error closing kafka writer", zap.Error(err))
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Error closing redis", zap.Error(err))
		}
	}
	if err := db.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
