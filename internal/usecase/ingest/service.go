// Package ingest loads the project and service tables into their vector
// collections. Projects are synced incrementally by content identity;
// services are appended or rebuilt from scratch.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/mfgchat/internal/domain"
	domcol "github.com/kailas-cloud/mfgchat/internal/domain/collection"
	domdoc "github.com/kailas-cloud/mfgchat/internal/domain/document"
	"github.com/kailas-cloud/mfgchat/internal/domain/project"
	"github.com/kailas-cloud/mfgchat/internal/domain/service"
	"github.com/kailas-cloud/mfgchat/internal/metrics"
)

// DefaultBatchSize is how many texts go to the embedder per call.
const DefaultBatchSize = 64

// Config holds source locations and embedding shape.
type Config struct {
	ProjectPath string
	ServicePath string
	VectorDim   int
	BatchSize   int
}

// Service runs ingestion. Runs are serialized: one writer at a time.
type Service struct {
	colls   CollectionManager
	docs    DocumentStore
	embed   domain.Embedder
	sources SourceReader
	cfg     Config
	logger  *zap.Logger
	newKey  func() string
	mu      sync.Mutex
}

// New creates an ingestion service reading sources from the filesystem.
func New(
	colls CollectionManager, docs DocumentStore, embed domain.Embedder,
	cfg Config, logger *zap.Logger,
) *Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	return &Service{
		colls:   colls,
		docs:    docs,
		embed:   embed,
		sources: Files{},
		cfg:     cfg,
		logger:  logger,
		newKey:  uuid.NewString,
	}
}

// WithSources replaces the source reader.
func (s *Service) WithSources(r SourceReader) *Service {
	s.sources = r
	return s
}

// SyncProjects inserts every project row whose identity is not stored yet.
// Rows repeated within the table are inserted once. A missing source file is
// logged and reported, not returned as an error.
func (s *Service) SyncProjects(ctx context.Context) (Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rep := s.newReport(domcol.Projects, s.cfg.ProjectPath)
	start := time.Now()
	log := s.logger.With(zap.String("run_id", rep.RunID), zap.String("collection", string(domcol.Projects)))

	src, err := s.sources.LoadProjects(s.cfg.ProjectPath)
	if errors.Is(err, domain.ErrSourceNotFound) {
		log.Warn("Project source not found, nothing to sync", zap.String("path", s.cfg.ProjectPath))
		rep.SourceMissing = true
		rep.Duration = time.Since(start)
		metrics.IngestRunsTotal.WithLabelValues(string(domcol.Projects), "source_missing").Inc()
		return rep, nil
	}
	if err != nil {
		return s.fail(rep, fmt.Errorf("load projects: %w", err))
	}
	rep.Read = len(src.Records) + len(src.Skipped)
	rep.Invalid = len(src.Skipped)
	for _, re := range src.Skipped {
		log.Warn("Skipping invalid project row", zap.Int("row", re.Row), zap.Error(re.Err))
	}

	col, err := s.ensure(ctx, domcol.Projects)
	if err != nil {
		return s.fail(rep, err)
	}
	existing, err := s.docs.IDs(ctx, col.Name())
	if err != nil {
		return s.fail(rep, fmt.Errorf("load existing identities: %w", err))
	}
	if existing == nil {
		existing = make(map[string]struct{})
	}

	fresh := make([]project.Record, 0, len(src.Records))
	for _, rec := range src.Records {
		id := rec.ID()
		if _, ok := existing[id]; ok {
			rep.Existing++
			continue
		}
		existing[id] = struct{}{}
		fresh = append(fresh, rec)
	}

	if err := s.insertProjects(ctx, fresh); err != nil {
		return s.fail(rep, err)
	}
	rep.Inserted = len(fresh)

	return s.finish(ctx, rep, start, log)
}

// AddProject stores a single project. It returns false when an identical
// project is already stored; that is not an error.
func (s *Service) AddProject(ctx context.Context, rec project.Record) (bool, error) {
	if _, err := project.New(rec.Description, rec.MainService, rec.SubService, rec.Material); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	col, err := s.ensure(ctx, domcol.Projects)
	if err != nil {
		return false, err
	}
	exists, err := s.docs.Exists(ctx, col.Name(), rec.ID())
	if err != nil {
		return false, fmt.Errorf("check project %s: %w", rec.ID(), err)
	}
	if exists {
		metrics.IngestDocumentsTotal.WithLabelValues(string(domcol.Projects), "existing").Inc()
		return false, nil
	}

	if err := s.insertProjects(ctx, []project.Record{rec}); err != nil {
		return false, err
	}
	s.logger.Info("Project added", zap.String("id", rec.ID()), zap.String("main_service", rec.MainService))
	return true, nil
}

// GetProject returns the stored project with identity id, or domain.ErrNotFound.
func (s *Service) GetProject(ctx context.Context, id string) (project.Record, error) {
	doc, err := s.docs.Get(ctx, domcol.Projects, id)
	if err != nil {
		return project.Record{}, fmt.Errorf("get project %s: %w", id, err)
	}
	return project.FromMetadata(doc.Metadata()), nil
}

// SyncServices loads the service table. With rebuild the collection is
// dropped and recreated before the source is read; without it rows are
// appended as-is, so re-running appends duplicates.
func (s *Service) SyncServices(ctx context.Context, rebuild bool) (Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rep := s.newReport(domcol.Services, s.cfg.ServicePath)
	rep.Rebuilt = rebuild
	start := time.Now()
	log := s.logger.With(zap.String("run_id", rep.RunID), zap.String("collection", string(domcol.Services)))

	col, err := domcol.New(domcol.Services, s.cfg.VectorDim)
	if err != nil {
		return s.fail(rep, err)
	}
	if rebuild {
		removed, err := s.colls.Reset(ctx, col)
		if err != nil {
			return s.fail(rep, fmt.Errorf("rebuild services: %w", err))
		}
		rep.Removed = removed
		log.Info("Service collection rebuilt", zap.Int("removed", removed))
	} else if _, err := s.colls.Ensure(ctx, col); err != nil {
		return s.fail(rep, fmt.Errorf("ensure services: %w", err))
	}

	defs, err := s.sources.LoadServices(s.cfg.ServicePath)
	if errors.Is(err, domain.ErrSourceNotFound) {
		log.Warn("Service source not found, nothing to sync", zap.String("path", s.cfg.ServicePath))
		rep.SourceMissing = true
		rep.Duration = time.Since(start)
		metrics.IngestRunsTotal.WithLabelValues(string(domcol.Services), "source_missing").Inc()
		return rep, nil
	}
	if err != nil {
		return s.fail(rep, fmt.Errorf("load services: %w", err))
	}
	rep.Read = len(defs)

	if err := s.insertServices(ctx, defs); err != nil {
		return s.fail(rep, err)
	}
	rep.Inserted = len(defs)

	return s.finish(ctx, rep, start, log)
}

func (s *Service) insertProjects(ctx context.Context, recs []project.Record) error {
	for start := 0; start < len(recs); start += s.cfg.BatchSize {
		batch := recs[start:min(start+s.cfg.BatchSize, len(recs))]
		texts := make([]string, len(batch))
		for i, rec := range batch {
			texts[i] = rec.Sentence()
		}
		docs := make([]domdoc.Document, len(batch))
		for i, rec := range batch {
			doc, err := domdoc.New(rec.ID(), texts[i], rec.Metadata())
			if err != nil {
				return fmt.Errorf("project %s: %w", rec.ID(), err)
			}
			docs[i] = doc
		}
		if err := s.embedAndInsert(ctx, domcol.Projects, texts, docs); err != nil {
			return err
		}
	}
	metrics.IngestDocumentsTotal.WithLabelValues(string(domcol.Projects), "inserted").Add(float64(len(recs)))
	return nil
}

func (s *Service) insertServices(ctx context.Context, defs []service.Definition) error {
	for start := 0; start < len(defs); start += s.cfg.BatchSize {
		batch := defs[start:min(start+s.cfg.BatchSize, len(defs))]
		texts := make([]string, len(batch))
		docs := make([]domdoc.Document, len(batch))
		for i, def := range batch {
			texts[i] = def.Content()
			doc, err := domdoc.New(s.newKey(), texts[i], def.Metadata())
			if err != nil {
				return fmt.Errorf("service %q: %w", def.MainService, err)
			}
			docs[i] = doc
		}
		if err := s.embedAndInsert(ctx, domcol.Services, texts, docs); err != nil {
			return err
		}
	}
	metrics.IngestDocumentsTotal.WithLabelValues(string(domcol.Services), "inserted").Add(float64(len(defs)))
	return nil
}

func (s *Service) embedAndInsert(ctx context.Context, col domcol.Name, texts []string, docs []domdoc.Document) error {
	res, err := domain.EmbedAll(ctx, s.embed, texts)
	if err != nil {
		return fmt.Errorf("embed %d %s entries: %w", len(texts), col, err)
	}
	for i := range docs {
		vec := res.Embeddings[i]
		if len(vec) != s.cfg.VectorDim {
			return fmt.Errorf("%w: embedder returned %d dims, collection %s expects %d",
				domain.ErrVectorDimMismatch, len(vec), col, s.cfg.VectorDim)
		}
		docs[i].SetVector(vec)
	}
	if err := s.docs.InsertMany(ctx, col, docs); err != nil {
		return fmt.Errorf("insert %s entries: %w", col, err)
	}
	return nil
}

func (s *Service) ensure(ctx context.Context, name domcol.Name) (domcol.Collection, error) {
	col, err := domcol.New(name, s.cfg.VectorDim)
	if err != nil {
		return domcol.Collection{}, err
	}
	if _, err := s.colls.Ensure(ctx, col); err != nil {
		return domcol.Collection{}, fmt.Errorf("ensure %s: %w", name, err)
	}
	return col, nil
}

func (s *Service) newReport(col domcol.Name, path string) Report {
	return Report{RunID: uuid.NewString(), Collection: col, Source: path}
}

func (s *Service) finish(ctx context.Context, rep Report, start time.Time, log *zap.Logger) (Report, error) {
	total, err := s.docs.Count(ctx, rep.Collection)
	if err != nil {
		log.Warn("Failed to count collection after sync", zap.Error(err))
	}
	rep.Total = total
	rep.Duration = time.Since(start)

	colName := string(rep.Collection)
	metrics.IngestDocumentsTotal.WithLabelValues(colName, "existing").Add(float64(rep.Existing))
	metrics.IngestDocumentsTotal.WithLabelValues(colName, "invalid").Add(float64(rep.Invalid))
	metrics.IngestRunsTotal.WithLabelValues(colName, "ok").Inc()

	log.Info("Sync finished",
		zap.Int("read", rep.Read),
		zap.Int("inserted", rep.Inserted),
		zap.Int("existing", rep.Existing),
		zap.Int("invalid", rep.Invalid),
		zap.Int("total", rep.Total),
		zap.Duration("duration", rep.Duration),
	)
	return rep, nil
}

func (s *Service) fail(rep Report, err error) (Report, error) {
	metrics.IngestRunsTotal.WithLabelValues(string(rep.Collection), "error").Inc()
	return rep, err
}
