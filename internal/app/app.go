// Package app assembles the store, the embedder chain and the use cases
// from configuration. Both binaries share it.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/mfgchat/internal/config"
	"github.com/kailas-cloud/mfgchat/internal/db"
	"github.com/kailas-cloud/mfgchat/internal/db/memory"
	dbRedis "github.com/kailas-cloud/mfgchat/internal/db/redis"
	"github.com/kailas-cloud/mfgchat/internal/domain"
	"github.com/kailas-cloud/mfgchat/internal/metrics"
	"github.com/kailas-cloud/mfgchat/internal/prompt"
	collectionrepo "github.com/kailas-cloud/mfgchat/internal/repository/collection"
	documentrepo "github.com/kailas-cloud/mfgchat/internal/repository/document"
	"github.com/kailas-cloud/mfgchat/internal/repository/embcache"
	searchrepo "github.com/kailas-cloud/mfgchat/internal/repository/search"
	openaiTransport "github.com/kailas-cloud/mfgchat/internal/transport/openai"
	chatuc "github.com/kailas-cloud/mfgchat/internal/usecase/chat"
	embeddinguc "github.com/kailas-cloud/mfgchat/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/mfgchat/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/mfgchat/internal/usecase/ingest"
	retrievaluc "github.com/kailas-cloud/mfgchat/internal/usecase/retrieval"
)

// OpenStore creates the configured vector store and waits until it answers.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig) (db.Store, error) {
	var (
		store db.Store
		err   error
	)
	switch cfg.Driver {
	case "memory":
		store = memory.NewStore()
	case "valkey", "redis":
		flavor := dbRedis.FlavorValkey
		if cfg.Driver == "redis" {
			flavor = dbRedis.FlavorRedis
		}
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
			Flavor:   flavor,
		})
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s store: %w", cfg.Driver, err)
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	return store, nil
}

// Embedders is the shared embedding chain with its two instruction views.
type Embedders struct {
	// Base talks to the embedding service directly; used for health checks.
	Base *openaiTransport.Embedder
	// Document embeds stored entries, Query embeds questions.
	Document domain.Embedder
	Query    domain.Embedder
}

// BuildEmbedders assembles the chain: OpenAI -> Cached -> Instrumented -> Instruction.
// The cache sits under the instruction prefix, so its keys include it.
func BuildEmbedders(cfg config.EmbeddingConfig, store db.Store, logger *zap.Logger) Embedders {
	sent := 0
	if cfg.SendDimensions {
		sent = cfg.Dimensions
	}
	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: sent,
		Provider:   cfg.Provider,
		Logger:     logger,
	})

	var emb domain.Embedder = base
	if cfg.Cache.Enabled && store != nil {
		emb = embcache.New(base, store, cfg.Model, time.Duration(cfg.Cache.TTLSec)*time.Second,
			metrics.EmbeddingCacheTotal, logger)
	}
	emb = embeddinguc.NewInstrumentedEmbedder(emb, cfg.Provider, cfg.Model, logger)

	return Embedders{
		Base:     base,
		Document: domain.WithInstruction(emb, cfg.DocumentInstruction),
		Query:    domain.WithInstruction(emb, cfg.QueryInstruction),
	}
}

// BuildIngest wires the ingestion service over store.
func BuildIngest(cfg config.Config, store db.Store, emb domain.Embedder, logger *zap.Logger) *ingestuc.Service {
	collRepo := collectionrepo.New(store).WithHNSW(collectionrepo.HNSWConfig{
		M:           cfg.Index.HNSWM,
		EFConstruct: cfg.Index.HNSWEFConstruct,
	})
	return ingestuc.New(collRepo, documentrepo.New(store), emb, ingestuc.Config{
		ProjectPath: cfg.Sources.ProjectPath,
		ServicePath: cfg.Sources.ServicePath,
		VectorDim:   cfg.Embedding.Dimensions,
		BatchSize:   cfg.Embedding.BatchSize,
	}, logger)
}

// RetrievalConfig converts the per-mode settings.
func RetrievalConfig(cfg config.RetrievalConfig) retrievaluc.Config {
	return retrievaluc.Config{
		Recommend: retrievaluc.Settings{K: cfg.Recommend.K, Threshold: cfg.Recommend.ScoreThreshold},
		Explain:   retrievaluc.Settings{K: cfg.Explain.K, Threshold: cfg.Explain.ScoreThreshold},
	}
}

// LoadPrompts returns a store holding the configured template file, or the
// built-in templates when no path is set. With watch enabled the file is
// reloaded on change until ctx is done.
func LoadPrompts(ctx context.Context, cfg config.PromptsConfig, logger *zap.Logger) (*prompt.Store, error) {
	if cfg.Path == "" {
		return prompt.NewStore(prompt.Default()), nil
	}
	set, err := prompt.LoadFile(cfg.Path)
	if err != nil {
		return nil, err
	}
	st := prompt.NewStore(set)
	if cfg.Watch {
		if err := prompt.Watch(ctx, st, cfg.Path, logger); err != nil {
			return nil, err
		}
	}
	return st, nil
}

// Services is everything the HTTP server needs.
type Services struct {
	Ingest *ingestuc.Service
	Chat   *chatuc.Service
	Health *healthuc.Service
}

// Build wires the use cases of the API server over store.
func Build(ctx context.Context, cfg config.Config, store db.Store, logger *zap.Logger) (Services, error) {
	embs := BuildEmbedders(cfg.Embedding, store, logger)

	llm := openaiTransport.NewCompleter(&openaiTransport.CompleterConfig{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     time.Duration(cfg.LLM.TimeoutSec) * time.Second,
		Logger:      logger,
	})

	factory, err := retrievaluc.NewFactory(searchrepo.New(store), embs.Query, RetrievalConfig(cfg.Retrieval), logger)
	if err != nil {
		return Services{}, err
	}

	prompts, err := LoadPrompts(ctx, cfg.Prompts, logger)
	if err != nil {
		return Services{}, fmt.Errorf("load prompts: %w", err)
	}

	health := healthuc.New(store,
		healthuc.Component{Name: healthuc.ComponentEmbedding, Checker: embs.Base},
		healthuc.Component{Name: healthuc.ComponentLLM, Checker: llm},
	)

	return Services{
		Ingest: BuildIngest(cfg, store, embs.Document, logger),
		Chat:   chatuc.New(factory, prompts, llm, time.Duration(cfg.Chat.RequestTimeoutSec)*time.Second),
		Health: health,
	}, nil
}

// Sync runs the startup synchronizations. A missing source is not an error.
func Sync(ctx context.Context, svc *ingestuc.Service, projects, services, rebuild bool, logger *zap.Logger) error {
	var errs []error
	if projects {
		rep, err := svc.SyncProjects(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("sync projects: %w", err))
		} else {
			logger.Info("Projects synced", zap.Int("inserted", rep.Inserted), zap.Int("total", rep.Total),
				zap.Bool("source_missing", rep.SourceMissing))
		}
	}
	if services {
		rep, err := svc.SyncServices(ctx, rebuild)
		if err != nil {
			errs = append(errs, fmt.Errorf("sync services: %w", err))
		} else {
			logger.Info("Services synced", zap.Int("inserted", rep.Inserted), zap.Int("total", rep.Total),
				zap.Bool("rebuilt", rep.Rebuilt), zap.Bool("source_missing", rep.SourceMissing))
		}
	}
	return errors.Join(errs...)
}
