package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/benvon/trajectory/internal/bootstrap"
	"github.com/benvon/trajectory/internal/config"
	"github.com/benvon/trajectory/internal/logger"
	"github.com/benvon/trajectory/internal/queue"
	"github.com/benvon/trajectory/internal/workers"
	"go.uber.org/zap"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	pattern := flag.String("pattern", queue.AllEvents, "Topic pattern to record, e.g. habit.#")
	prefetch := flag.Int("prefetch", 10, "RabbitMQ prefetch count")
	limit := flag.Int("limit", workers.DefaultJournalLimit, "Number of events the journal keeps")
	flag.Parse()

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
		_ = logger.Sync(zapLogger)
	}()

	if cfg.RabbitMQURL == "" {
		zapLogger.Fatal("rabbitmq_url_not_configured")
	}

	zapLogger.Info("starting_worker",
		zap.Bool("debug_mode", debugMode),
		zap.String("store_backend", cfg.StoreBackend),
		zap.String("pattern", *pattern),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		zapLogger.Fatal("failed_to_open_store", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			zapLogger.Warn("failed_to_close_store", zap.Error(err))
		}
	}()

	feed, err := bootstrap.ConnectPublisher(ctx, cfg.RabbitMQURL, bootstrap.DefaultConnectAttempts, nil, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq_after_retries", zap.Error(err))
	}
	defer func() {
		if err := feed.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()

	msgs, errs, err := feed.Consume(ctx, *pattern, *prefetch)
	if err != nil {
		zapLogger.Fatal("failed_to_start_consuming_events", zap.Error(err))
	}

	recorder := workers.NewEventRecorder(store, "", *limit, zapLogger)

	done := make(chan struct{})
	go func() {
		defer close(done)
		recorder.Run(ctx, msgs, errs)
	}()

	zapLogger.Info("worker_started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		zapLogger.Info("shutdown_signal_received")
	case <-done:
		zapLogger.Warn("event_feed_closed")
	}

	cancel()
	<-done

	zapLogger.Info("worker_stopped")
}
