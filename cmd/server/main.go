package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	taxapp "github.com/mirumee/avatax-excise/internal/application/tax"
	"github.com/mirumee/avatax-excise/internal/infrastructure/avatax"
	"github.com/mirumee/avatax-excise/internal/infrastructure/cache"
	"github.com/mirumee/avatax-excise/internal/infrastructure/config"
	"github.com/mirumee/avatax-excise/internal/infrastructure/logger"
	"github.com/mirumee/avatax-excise/internal/infrastructure/persistence"
	"github.com/mirumee/avatax-excise/internal/infrastructure/telemetry"
	"github.com/mirumee/avatax-excise/internal/infrastructure/worker"
	"github.com/mirumee/avatax-excise/internal/interfaces/http/handler"
	"github.com/mirumee/avatax-excise/internal/interfaces/http/middleware"
	"github.com/mirumee/avatax-excise/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting AvaTax Excise Bridge",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.Bool("sandbox", cfg.Avatax.Sandbox),
	)

	// Initialize tracing
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Initialize database connection with zap-backed query logging
	db, err := persistence.NewDatabaseWithZap(&cfg.Database, log, cfg.Log.Level)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to migrate database schema", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Initialize the response cache; Redis when reachable, in-memory otherwise
	cacheFactory := cache.NewResponseCacheFactory(cfg.Redis, cache.WithLogger(log))
	responseCache, err := cacheFactory.CreateCache()
	if err != nil {
		log.Fatal("Failed to initialize response cache", zap.Error(err))
	}

	// Initialize the excise service adapter
	var exciseConfig *avatax.ExciseConfig
	if cfg.Avatax.Sandbox {
		exciseConfig = avatax.NewSandboxExciseConfig(cfg.Avatax.Username, cfg.Avatax.Password, cfg.Avatax.CompanyID)
	} else {
		exciseConfig = avatax.NewExciseConfig(cfg.Avatax.Username, cfg.Avatax.Password, cfg.Avatax.CompanyID)
	}
	exciseConfig.Autocommit = cfg.Avatax.Autocommit
	if cfg.Avatax.FreightProductCode != "" {
		exciseConfig.FreightProductCode = cfg.Avatax.FreightProductCode
	}
	exciseConfig.TimeoutSeconds = cfg.Avatax.TimeoutSeconds

	calculator, err := avatax.NewExciseAdapter(exciseConfig)
	if err != nil {
		log.Fatal("Failed to initialize excise adapter", zap.Error(err))
	}

	// Transaction journal
	journal := persistence.NewGormTransactionJournal(db.DB)

	// Start the background order submission worker
	submissionWorker := worker.NewSubmissionWorker(calculator, journal, worker.SubmissionWorkerConfig{
		QueueSize:    cfg.Worker.QueueSize,
		MaxAttempts:  cfg.Worker.MaxAttempts,
		RetryBackoff: cfg.Worker.RetryBackoff,
		Autocommit:   cfg.Avatax.Autocommit,
	}, log)
	if err := submissionWorker.Start(context.Background()); err != nil {
		log.Fatal("Failed to start submission worker", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := submissionWorker.Stop(ctx); err != nil {
			log.Error("Error stopping submission worker", zap.Error(err))
		}
	}()

	// Tax application service
	taxService := taxapp.NewService(
		calculator,
		calculator,
		responseCache,
		journal,
		submissionWorker,
		taxapp.Config{
			CheckoutTTL: cfg.Cache.CheckoutTTL,
			FailureTTL:  cfg.Cache.FailureTTL,
		},
		log,
	)

	// Initialize HTTP handlers
	taxHandler := handler.NewTaxHandler(taxService, log)
	systemHandler := handler.NewSystemHandler(map[string]handler.HealthChecker{
		"database": handler.HealthCheckFunc(func(_ context.Context) error { return db.Ping() }),
	})

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Tracing - OpenTelemetry spans per request
	// 5. Security - Add security headers
	// 6. BodyLimit - Limit request body size
	// 7. RateLimit - Throttle per client IP
	// 8. SecretKeyAuth - Authenticate storefront callbacks
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.TraceRequestID())
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.Secure())
	engine.Use(middleware.BodyLimit(2 << 20)) // 2 MB is plenty for a checkout payload

	// Health check endpoint registered before rate limiting and
	// authentication so orchestrator probes are never throttled or rejected
	engine.GET("/health", healthHandler(db))

	engine.Use(middleware.RateLimit(middleware.NewRateLimiter(300, time.Minute)))
	engine.Use(middleware.SecretKeyAuth(cfg.App.SecretKey))

	// Setup API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(taxHandler).
		Register(systemHandler)
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
