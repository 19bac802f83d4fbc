package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/trajectory/internal/bootstrap"
	"github.com/benvon/trajectory/internal/config"
	"github.com/benvon/trajectory/internal/handlers"
	"github.com/benvon/trajectory/internal/logger"
	"github.com/benvon/trajectory/internal/middleware"
	"github.com/benvon/trajectory/internal/session"
	"github.com/benvon/trajectory/internal/storage"
	"github.com/benvon/trajectory/internal/telemetry"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Set at build time with -ldflags
var (
	version = "dev"
	commit  = ""
)

func main() {
	// Parse command-line flags
	debugFlag := flag.Bool("debug", false, "Enable debug mode for LLM API logging")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		// Sync fails on stderr for some platforms; nothing to do about it here
		_ = logger.Sync(zapLogger)
	}()

	zapLogger.Info("starting_server",
		zap.String("version", version),
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.String("store_backend", cfg.StoreBackend),
		zap.String("ai_provider", cfg.AIProvider),
		zap.Bool("ai_enabled", cfg.AIEnabled()),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	ctx := context.Background()

	shutdownTracer, err := telemetry.Setup(ctx, cfg.OTELEnabled, cfg.OTELEndpoint)
	if err != nil {
		zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		cfg.OTELEnabled = false
		shutdownTracer = func(context.Context) error { return nil }
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
		}
	}()

	store, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		zapLogger.Fatal("failed_to_open_store", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			zapLogger.Warn("failed_to_close_store", zap.Error(err))
		}
	}()
	zapLogger.Info("store_opened", zap.String("backend", cfg.StoreBackend))

	publisher, err := bootstrap.NewPublisher(ctx, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq_after_retries", zap.Error(err))
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()

	analyzer, err := bootstrap.NewAnalyzer(ctx, cfg, zapLogger, debugMode)
	if err != nil {
		zapLogger.Warn("failed_to_create_ai_provider_ai_features_disabled", zap.Error(err))
		analyzer = nil
	}

	sess, err := session.Open(ctx,
		session.WithStore(store),
		session.WithKey(cfg.StoreKey),
		session.WithAnalyzer(analyzer),
		session.WithPublisher(publisher),
		session.WithLogger(zapLogger),
	)
	if err != nil {
		zapLogger.Fatal("failed_to_restore_registry", zap.Error(err))
	}

	// The rate limiter shares the store's Redis client when there is one
	var limiterClient *redis.Client
	if rs, ok := store.(*storage.RedisStore); ok {
		limiterClient = rs.Client()
	}
	rateLimitMW, err := middleware.RateLimit(cfg.RateLimit, limiterClient)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
	}

	habitHandler := handlers.NewHabitHandler(sess, zapLogger)
	momentumHandler := handlers.NewMomentumHandler(sess, zapLogger, handlers.WithAnalysisTimeout(cfg.AITimeout))
	healthChecker := handlers.NewHealthChecker(store, publisher)

	r := mux.NewRouter()

	// Middleware registered first is outermost
	if cfg.OTELEnabled {
		r.Use(telemetry.Middleware())
		zapLogger.Info("otel_middleware_enabled")
	}
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.CORS(cfg.FrontendURL))
	r.Use(middleware.RequestID)
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Logging(zapLogger))

	// Public routes, not rate limited
	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")
	r.HandleFunc("/version", handlers.VersionHandler(version, commit)).Methods("GET")
	handlers.NewOpenAPIHandler().RegisterRoutes(r)

	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(rateLimitMW)
	habitHandler.RegisterRoutes(apiRouter.PathPrefix("/habits").Subrouter())
	momentumHandler.RegisterRoutes(apiRouter)

	// Preflight requests are answered by the CORS middleware; this keeps unmatched ones from 405ing
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   35 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}
	if err := sess.Shutdown(shutdownCtx); err != nil {
		zapLogger.Warn("analysis_did_not_stop_in_time", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}
