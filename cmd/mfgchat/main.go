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

	"go.uber.org/zap"

	"github.com/kailas-cloud/mfgchat/internal/app"
	"github.com/kailas-cloud/mfgchat/internal/config"
	logpkg "github.com/kailas-cloud/mfgchat/internal/logger"
	"github.com/kailas-cloud/mfgchat/internal/metrics"
	chiTransport "github.com/kailas-cloud/mfgchat/internal/transport/chi"
	"github.com/kailas-cloud/mfgchat/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting mfgchat API server",
		zap.String("version", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.String("llm_model", cfg.LLM.Model),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := app.OpenStore(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer store.Close()
	logger.Info("Connected to database")

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterRAGMetrics()

	svcs, err := app.Build(ctx, cfg, store, logger)
	if err != nil {
		logger.Fatal("Failed to build services", zap.Error(err))
	}

	if cfg.Ingest.OnStartup {
		if err := app.Sync(ctx, svcs.Ingest, true, true, cfg.Ingest.RebuildServices, logger); err != nil {
			logger.Fatal("Startup sync failed", zap.Error(err))
		}
	}

	server := chiTransport.NewServer(svcs.Chat, svcs.Ingest, svcs.Health, logger).
		WithMaxQueryLength(cfg.Chat.MaxQueryLength)
	handler := chiTransport.NewRouter(server, chiTransport.RouterOptions{
		APIKeys:       cfg.Auth.APIKeys,
		ChatRateLimit: cfg.Chat.RateLimitRPS,
		ChatRateBurst: cfg.Chat.RateLimitBurst,
		Logger:        logger,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
