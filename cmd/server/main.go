package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/genrelay/api/internal/config"
	"github.com/genrelay/api/internal/eventbus"
	"github.com/genrelay/api/internal/gemini"
	"github.com/genrelay/api/internal/generator"
	"github.com/genrelay/api/internal/handlers"
	"github.com/genrelay/api/internal/metrics"
	"github.com/genrelay/api/internal/middleware"
	"github.com/genrelay/api/internal/telemetry"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	_ "github.com/genrelay/api/docs" // Swagger docs
)

// @title Gemini Relay API
// @version 0.1.0
// @description Relays text and image prompts to the Gemini generative model.
// @host localhost:8080
// @BasePath /
// @schemes http
func main() {
	// Initialize logger with stdout sync
	zapConfig := zap.NewProductionConfig()
	zapConfig.OutputPaths = []string{"stdout"}
	zapConfig.ErrorOutputPaths = []string{"stderr"}
	logger, err := zapConfig.Build()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if err := run(logger); err != nil {
		logger.Error("server exited with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	logger.Info("server exited gracefully")
}

func run(logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Loading configuration...")
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger.Info("genrelay API starting...",
		zap.String("version", handlers.ServiceVersion),
		zap.String("environment", cfg.Environment),
		zap.Strings("allowed_origins", cfg.AllowedOrigins),
		zap.Duration("provider_timeout", cfg.ProviderTimeout),
	)

	logger.Info("Initializing telemetry...")
	tracingStatus := "not configured"
	shutdownTelemetry, err := telemetry.InitTracer(ctx, handlers.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		// Log but don't fail, as collector might be down
		logger.Error("failed to initialize telemetry", zap.Error(err))
		tracingStatus = "unhealthy: " + err.Error()
	} else {
		if cfg.OTLPEndpoint != "" {
			tracingStatus = "healthy"
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTelemetry(shutdownCtx); err != nil {
				logger.Error("failed to shutdown telemetry", zap.Error(err))
			}
		}()
	}

	m := metrics.New()
	genOpts := []generator.Option{
		generator.WithTimeout(cfg.ProviderTimeout),
		generator.WithMetrics(m),
	}

	healthDeps := map[string]handlers.StatusReporter{
		"tracing": handlers.StatusFunc(func() string { return tracingStatus }),
		"nats":    nil,
	}

	if cfg.NATSURL != "" {
		logger.Info("Initializing NATS...")
		publisher, err := eventbus.Connect(cfg.NATSURL, logger)
		if err != nil {
			// Generation events are optional
			logger.Error("failed to connect to NATS", zap.Error(err))
		} else {
			defer publisher.Close()
			logger.Info("connected to NATS")
			genOpts = append(genOpts, generator.WithPublisher(publisher))
			healthDeps["nats"] = publisher
		}
	}

	logger.Info("Initializing Gemini client...")
	provider, err := gemini.NewProvider(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return err
	}
	healthDeps["provider"] = provider

	gen, err := generator.New(provider, logger, genOpts...)
	if err != nil {
		return err
	}

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	var cb *middleware.CircuitBreaker
	if cfg.CircuitBreakerEnabled {
		cb = middleware.NewCircuitBreaker()
		cb.OnStateChange = func(from, to middleware.CircuitState) {
			logger.Warn("provider circuit state changed",
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		}
	}

	router := newRouter(routerDeps{
		logger:         logger,
		metrics:        m,
		generation:     handlers.NewGenerationHandler(gen, logger),
		health:         handlers.NewHealthHandler(healthDeps),
		allowedOrigins: cfg.AllowedOrigins,
		bodyLimit:      cfg.BodyLimitBytes,
		circuitBreaker: cb,
		enableDocs:     !cfg.IsProduction(),
	})

	// Create HTTP server. WriteTimeout leaves room for the provider call.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      cfg.ProviderTimeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	if cfg.ProviderTimeout == 0 {
		srv.WriteTimeout = 0
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
