// Command mfgsync loads the source tables into the vector store once and exits.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/kailas-cloud/mfgchat/internal/app"
	"github.com/kailas-cloud/mfgchat/internal/config"
	logpkg "github.com/kailas-cloud/mfgchat/internal/logger"
	"github.com/kailas-cloud/mfgchat/internal/metrics"
)

func main() {
	projects := flag.Bool("projects", true, "sync the project table")
	services := flag.Bool("services", true, "sync the service table")
	rebuild := flag.Bool("rebuild", false, "drop the service collection before loading it")
	flag.Parse()

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := app.OpenStore(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer store.Close()

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterRAGMetrics()

	embs := app.BuildEmbedders(cfg.Embedding, store, logger)
	svc := app.BuildIngest(cfg, store, embs.Document, logger)

	logger.Info("Sync started",
		zap.Bool("projects", *projects),
		zap.Bool("services", *services),
		zap.Bool("rebuild", *rebuild),
	)
	if err := app.Sync(ctx, svc, *projects, *services, *rebuild, logger); err != nil {
		logger.Error("Sync failed", zap.Error(err))
		store.Close()
		_ = logger.Sync()
		os.Exit(1)
	}
	logger.Info("Sync finished")
}
