package collection

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/mfgchat/internal/db"
	"github.com/kailas-cloud/mfgchat/internal/domain"
	domcol "github.com/kailas-cloud/mfgchat/internal/domain/collection"
)

// store is the consumer interface for collections (ISP).
//
//nolint:interfacebloat // collection repo needs hash + index management operations
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) (int, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// HNSWConfig HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo owns the lifecycle of the vector collections: metadata hash plus FT index.
type Repo struct {
	store store
	hnsw  HNSWConfig
}

// New creates a collection repository.
func New(s store) *Repo {
	return &Repo{store: s, hnsw: HNSWConfig{M: 16, EFConstruct: 200}}
}

// WithHNSW configures HNSW index parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	if cfg.M > 0 {
		r.hnsw.M = cfg.M
	}
	if cfg.EFConstruct > 0 {
		r.hnsw.EFConstruct = cfg.EFConstruct
	}
	return r
}

// Ensure makes sure the collection exists with the expected dimension.
// It returns true when the collection was created by this call. An existing
// collection with a different dimension yields domain.ErrVectorDimMismatch:
// vectors from another embedding model cannot share the index.
func (r *Repo) Ensure(ctx context.Context, col domcol.Collection) (bool, error) {
	name := col.Name()
	idx := IndexName(name)

	existing, err := r.store.HGetAll(ctx, metaKey(name))
	if err != nil {
		return false, fmt.Errorf("hgetall collection %s: %w", name, err)
	}
	idxExists, err := r.store.IndexExists(ctx, idx)
	if err != nil {
		return false, fmt.Errorf("check index %s: %w", idx, err)
	}

	if len(existing) > 0 && idxExists {
		stored, err := collectionFromHash(existing)
		if err != nil {
			return false, fmt.Errorf("parse collection %s: %w", name, err)
		}
		if stored.VectorDim() != col.VectorDim() {
			return false, fmt.Errorf("%w: collection %s has dim %d, embedder produces %d",
				domain.ErrVectorDimMismatch, name, stored.VectorDim(), col.VectorDim())
		}
		return false, nil
	}

	if err := r.store.HSet(ctx, metaKey(name), collectionToHash(col)); err != nil {
		return false, fmt.Errorf("hset collection %s: %w", name, err)
	}
	if idxExists {
		// Index survived without its metadata; metadata is restored above.
		return false, nil
	}

	def, err := buildIndex(col, r.hnsw)
	if err != nil {
		return false, fmt.Errorf("build index: %w", err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return false, nil // lost a race with another process
		}
		cleanupErr := r.store.Del(ctx, metaKey(name))
		return false, errors.Join(err, cleanupErr)
	}
	return true, nil
}

// Reset drops the index, deletes every document and the metadata, then
// recreates the collection empty. It returns how many documents were removed.
func (r *Repo) Reset(ctx context.Context, col domcol.Collection) (int, error) {
	name := col.Name()
	idx := IndexName(name)

	if err := r.store.DropIndex(ctx, idx); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return 0, fmt.Errorf("drop index %s: %w", idx, err)
	}
	removed, err := r.store.DeletePrefix(ctx, DocPrefix(name))
	if err != nil {
		return removed, fmt.Errorf("delete documents of %s: %w", name, err)
	}
	if err := r.store.Del(ctx, metaKey(name)); err != nil {
		return removed, fmt.Errorf("del collection %s: %w", name, err)
	}
	if _, err := r.Ensure(ctx, col); err != nil {
		return removed, fmt.Errorf("recreate %s: %w", name, err)
	}
	return removed, nil
}

// Key layout: mfgchat:collection:{name}, mfgchat:{name}:idx, mfgchat:{name}:doc:{id}

func metaKey(name domcol.Name) string {
	return fmt.Sprintf("%scollection:%s", domain.KeyPrefix, name)
}

// IndexName returns the FT index name of a collection.
func IndexName(name domcol.Name) string {
	return db.IndexName(domain.KeyPrefix + string(name))
}

// DocPrefix returns the key prefix of a collection's documents.
func DocPrefix(name domcol.Name) string {
	return db.DocPrefix(IndexName(name))
}
