package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quick-ledger/ottero/internal/infrastructure/cache"
	"github.com/quick-ledger/ottero/internal/infrastructure/config"
	"github.com/quick-ledger/ottero/internal/infrastructure/logger"
	"github.com/quick-ledger/ottero/internal/infrastructure/persistence"
	"github.com/quick-ledger/ottero/internal/interfaces/http/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// newEngine builds the gin engine with the global middleware chain:
// recovery, request id, access log, security headers, CORS, body limit,
// tracing and HTTP metrics. Company scoping is applied per route group.
func newEngine(cfg *config.Config, log *zap.Logger, meter metric.Meter) (*gin.Engine, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	httpMetrics, err := middleware.HTTPMetrics(meter)
	if err != nil {
		return nil, err
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders

	security := middleware.DefaultSecurityConfig()
	security.HSTSEnabled = cfg.IsProduction()

	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		logger.GinMiddleware(log),
		middleware.Secure(security),
		middleware.CORSWithConfig(cors),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
		middleware.Tracing(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		httpMetrics,
	)
	return engine, nil
}

// healthHandler reports database and, when configured, redis health
func healthHandler(db *persistence.Database, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.FromGin(c)
		status := http.StatusOK
		body := gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		}

		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.String("component", "database"), zap.Error(err))
			status = http.StatusServiceUnavailable
			body["database"] = "error"
		}
		if stats, err := db.Stats(); err == nil {
			body["db_open_connections"] = stats.OpenConnections
		}

		if redisClient != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			body["redis"] = "ok"
			if err := cache.Ping(ctx, redisClient); err != nil {
				reqLog.Warn("Health check failed", zap.String("component", "redis"), zap.Error(err))
				status = http.StatusServiceUnavailable
				body["redis"] = "error"
			}
		}

		if status != http.StatusOK {
			body["status"] = "unhealthy"
		}
		c.JSON(status, body)
	}
}
