package mfgchat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/mfgchat/internal/db"
	"github.com/kailas-cloud/mfgchat/internal/db/memory"
	dbRedis "github.com/kailas-cloud/mfgchat/internal/db/redis"
	"github.com/kailas-cloud/mfgchat/internal/domain"
	"github.com/kailas-cloud/mfgchat/internal/domain/project"
	"github.com/kailas-cloud/mfgchat/internal/domain/search/mode"
	"github.com/kailas-cloud/mfgchat/internal/domain/search/result"
	"github.com/kailas-cloud/mfgchat/internal/prompt"
	collectionrepo "github.com/kailas-cloud/mfgchat/internal/repository/collection"
	documentrepo "github.com/kailas-cloud/mfgchat/internal/repository/document"
	searchrepo "github.com/kailas-cloud/mfgchat/internal/repository/search"
	chatuc "github.com/kailas-cloud/mfgchat/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/mfgchat/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/mfgchat/internal/usecase/ingest"
	retrievaluc "github.com/kailas-cloud/mfgchat/internal/usecase/retrieval"
)

const defaultReadinessTimeout = 10 * time.Second

// Default source table locations, relative to the working directory.
const (
	DefaultProjectPath = "data/manufacturing_dataset.csv"
	DefaultServicePath = "data/service_definitions.csv"
)

type ingestUseCase interface {
	SyncProjects(ctx context.Context) (ingestuc.Report, error)
	SyncServices(ctx context.Context, rebuild bool) (ingestuc.Report, error)
	AddProject(ctx context.Context, rec project.Record) (bool, error)
	GetProject(ctx context.Context, id string) (project.Record, error)
}

type retrievalUseCase interface {
	Retrieve(ctx context.Context, m mode.Mode, query string) ([]result.Result, error)
}

type chatUseCase interface {
	Respond(ctx context.Context, m mode.Mode, query string) (chatuc.Response, error)
}

// Manager runs the chatbot in-process: it owns the vector store, syncs the
// source tables and answers questions.
type Manager struct {
	store     db.Store
	ingestSvc ingestUseCase
	retrieval retrievalUseCase
	chatSvc   chatUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Manager and connects to the store.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Manager, error) {
	cfg := &managerConfig{
		vectorDimensions: domain.DefaultVectorConfig().Dimensions,
		projectPath:      DefaultProjectPath,
		servicePath:      DefaultServicePath,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.driver == "" {
		return nil, errors.New("mfgchat: store required (use WithValkey, WithRedis or WithMemory)")
	}
	if cfg.embedder == nil {
		return nil, errors.New("mfgchat: embedder required (use WithEmbedder)")
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("mfgchat: store not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}
	m, err := wireManager(store, cfg, obs)
	if err != nil {
		store.Close()
		return nil, err
	}
	return m, nil
}

func createStore(cfg *managerConfig) (db.Store, error) {
	switch cfg.driver {
	case "memory":
		return memory.NewStore(), nil
	case "valkey", "redis":
		flavor := dbRedis.FlavorValkey
		if cfg.driver == "redis" {
			flavor = dbRedis.FlavorRedis
		}
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
			Flavor:   flavor,
		})
		if err != nil {
			return nil, fmt.Errorf("mfgchat: create %s store: %w", cfg.driver, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("mfgchat: unknown driver %q", cfg.driver)
	}
}

func wireManager(store db.Store, cfg *managerConfig, obs *observer) (*Manager, error) {
	log := zap.NewNop()

	collRepo := collectionrepo.New(store).WithHNSW(collectionrepo.HNSWConfig{
		M:           cfg.hnswM,
		EFConstruct: cfg.hnswEFConstruct,
	})
	docRepo := documentrepo.New(store)
	searchRepo := searchrepo.New(store)

	emb := adaptEmbedder(cfg.embedder)

	ingestSvc := ingestuc.New(collRepo, docRepo, emb, ingestuc.Config{
		ProjectPath: cfg.projectPath,
		ServicePath: cfg.servicePath,
		VectorDim:   cfg.vectorDimensions,
		BatchSize:   cfg.batchSize,
	}, log)

	rcfg := retrievaluc.DefaultConfig()
	if cfg.recommendK > 0 {
		rcfg.Recommend = retrievaluc.Settings{K: cfg.recommendK, Threshold: cfg.recommendThreshold}
	}
	if cfg.explainK > 0 {
		rcfg.Explain = retrievaluc.Settings{K: cfg.explainK, Threshold: cfg.explainThreshold}
	}
	factory, err := retrievaluc.NewFactory(searchRepo, emb, rcfg, log)
	if err != nil {
		return nil, fmt.Errorf("mfgchat: %w", err)
	}

	set := prompt.Default()
	if cfg.promptPath != "" {
		if set, err = prompt.LoadFile(cfg.promptPath); err != nil {
			return nil, fmt.Errorf("mfgchat: %w", err)
		}
	}

	var llm domain.Completer = noopCompleter{}
	if cfg.completer != nil {
		llm = &completerAdapter{inner: cfg.completer}
	}

	healthSvc := healthuc.New(store,
		healthuc.Component{Name: healthuc.ComponentEmbedding, Checker: checkerOf(cfg.embedder)},
		healthuc.Component{Name: healthuc.ComponentLLM, Checker: checkerOf(cfg.completer)},
	)

	return &Manager{
		store:     store,
		ingestSvc: ingestSvc,
		retrieval: factory,
		chatSvc:   chatuc.New(factory, prompt.NewStore(set), llm, 0),
		healthSvc: healthSvc,
		obs:       obs,
	}, nil
}

// Close releases all resources.
func (m *Manager) Close() {
	if m.store != nil {
		m.store.Close()
	}
}

// Ping checks store connectivity.
func (m *Manager) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { m.obs.observe("ping", start, err) }()

	if err = m.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// SyncProjects inserts every project row not stored yet. A missing table is
// reported with SourceMissing and no error.
func (m *Manager) SyncProjects(ctx context.Context) (_ SyncReport, err error) {
	start := time.Now()
	defer func() { m.obs.observe("sync_projects", start, err) }()

	rep, err := m.ingestSvc.SyncProjects(ctx)
	if err != nil {
		return SyncReport{}, fmt.Errorf("sync projects: %w", err)
	}
	return toSyncReport(rep), nil
}

// SyncServices appends the service table, or drops the collection first when rebuild is set.
func (m *Manager) SyncServices(ctx context.Context, rebuild bool) (_ SyncReport, err error) {
	start := time.Now()
	defer func() { m.obs.observe("sync_services", start, err, "rebuild", rebuild) }()

	rep, err := m.ingestSvc.SyncServices(ctx, rebuild)
	if err != nil {
		return SyncReport{}, fmt.Errorf("sync services: %w", err)
	}
	return toSyncReport(rep), nil
}

// AddProject stores one project unless an identical one exists.
// It returns the project identity and whether it was inserted.
func (m *Manager) AddProject(ctx context.Context, p Project) (id string, created bool, err error) {
	start := time.Now()
	defer func() { m.obs.observe("add_project", start, err, "created", created) }()

	rec, err := project.New(p.Description, p.MainService, p.SubService, p.Material)
	if err != nil {
		return "", false, err
	}
	created, err = m.ingestSvc.AddProject(ctx, rec)
	if err != nil {
		return "", false, fmt.Errorf("add project: %w", err)
	}
	return rec.ID(), created, nil
}

// GetProject returns the stored project with identity id. A missing project yields ErrNotFound.
func (m *Manager) GetProject(ctx context.Context, id string) (_ Project, err error) {
	start := time.Now()
	defer func() { m.obs.observe("get_project", start, err) }()

	rec, err := m.ingestSvc.GetProject(ctx, id)
	if err != nil {
		return Project{}, err
	}
	return Project{
		Description: rec.Description,
		MainService: rec.MainService,
		SubService:  rec.SubService,
		Material:    rec.Material,
	}, nil
}

// Modes lists the supported modes in menu order with their opening lines.
func (m *Manager) Modes() []ModeInfo {
	return modeInfos()
}

func modeInfos() []ModeInfo {
	all := mode.All()
	out := make([]ModeInfo, len(all))
	for i, md := range all {
		out[i] = ModeInfo{Mode: Mode(md), Greeting: md.Greeting()}
	}
	return out
}

// Retrieve returns the qualifying entries for query, best first, without
// calling the language model.
func (m *Manager) Retrieve(ctx context.Context, md Mode, query string) (_ []Hit, err error) {
	start := time.Now()
	defer func() { m.obs.observe("retrieve", start, err, "mode", string(md)) }()

	hits, err := m.retrieval.Retrieve(ctx, mode.Mode(md), query)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	return toHits(hits), nil
}

// Respond answers query in mode md. An unknown mode yields ErrInvalidMode;
// no qualifying entry yields the fixed no-result answer.
func (m *Manager) Respond(ctx context.Context, md Mode, query string) (_ Answer, err error) {
	start := time.Now()
	defer func() { m.obs.observe("respond", start, err, "mode", string(md)) }()

	resp, err := m.chatSvc.Respond(ctx, mode.Mode(md), query)
	if err != nil {
		return Answer{}, fmt.Errorf("respond: %w", err)
	}
	return Answer{
		Text:          resp.Answer,
		Mode:          Mode(resp.Mode),
		PromptVersion: resp.PromptVersion,
		Sources:       toHits(resp.Sources),
		Model:         resp.Model,
	}, nil
}

func toSyncReport(r ingestuc.Report) SyncReport {
	return SyncReport{
		RunID:         r.RunID,
		Collection:    string(r.Collection),
		Source:        r.Source,
		SourceMissing: r.SourceMissing,
		Rebuilt:       r.Rebuilt,
		Removed:       r.Removed,
		Read:          r.Read,
		Invalid:       r.Invalid,
		Existing:      r.Existing,
		Inserted:      r.Inserted,
		Total:         r.Total,
		Duration:      r.Duration,
	}
}

func toHits(rs []result.Result) []Hit {
	out := make([]Hit, len(rs))
	for i := range rs {
		out[i] = Hit{
			ID:       rs[i].ID(),
			Score:    rs[i].Score(),
			Content:  rs[i].Content(),
			Metadata: rs[i].Metadata(),
		}
	}
	return out
}

// checkerOf returns v as a health checker, or nil so the component is skipped.
func checkerOf(v any) healthuc.Checker {
	if c, ok := v.(healthuc.Checker); ok {
		return c
	}
	return nil
}

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// batchEmbedderAdapter also exposes the native batch path.
type batchEmbedderAdapter struct {
	embedderAdapter
	batch BatchEmbedder
}

func (a *batchEmbedderAdapter) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	r, err := a.batch.BatchEmbed(ctx, texts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed: %w", err)
	}
	return domain.BatchEmbeddingResult{
		Embeddings:   r.Embeddings,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

func adaptEmbedder(e Embedder) domain.Embedder {
	base := embedderAdapter{inner: e}
	if be, ok := e.(BatchEmbedder); ok {
		return &batchEmbedderAdapter{embedderAdapter: base, batch: be}
	}
	return &base
}

type completerAdapter struct {
	inner Completer
}

func (a *completerAdapter) Complete(ctx context.Context, p string) (domain.Completion, error) {
	c, err := a.inner.Complete(ctx, p)
	if err != nil {
		return domain.Completion{}, err
	}
	return domain.Completion{
		Text:             c.Text,
		Model:            c.Model,
		PromptTokens:     c.PromptTokens,
		CompletionTokens: c.CompletionTokens,
	}, nil
}

// noopCompleter fails every call (used when no completer is configured).
type noopCompleter struct{}

func (noopCompleter) Complete(context.Context, string) (domain.Completion, error) {
	return domain.Completion{}, domain.NewCollaboratorError(domain.CollaboratorLLM,
		errors.New("completer not configured (use WithCompleter)"))
}
