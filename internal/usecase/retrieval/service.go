// Package retrieval maps a query mode to its retriever: which collection is
// searched, how many hits are kept and the minimum similarity they need.
package retrieval

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/mfgchat/internal/db"
	"github.com/kailas-cloud/mfgchat/internal/domain"
	domcol "github.com/kailas-cloud/mfgchat/internal/domain/collection"
	"github.com/kailas-cloud/mfgchat/internal/domain/search/mode"
	"github.com/kailas-cloud/mfgchat/internal/domain/search/policy"
	"github.com/kailas-cloud/mfgchat/internal/domain/search/result"
	"github.com/kailas-cloud/mfgchat/internal/metrics"
)

// Settings is the retriever configuration of one mode. A nil Threshold keeps every hit.
type Settings struct {
	K         int
	Threshold *float64
}

// Config holds per-mode settings.
type Config struct {
	Recommend Settings
	Explain   Settings
}

// DefaultConfig returns 3 project hits at similarity >= 0.5 for recommend
// and the single closest service for explain.
func DefaultConfig() Config {
	return Config{
		Recommend: Settings{K: 3, Threshold: policy.Threshold(0.5)},
		Explain:   Settings{K: 1},
	}
}

// Factory builds retrievers from a fixed per-mode policy table.
type Factory struct {
	search   Searcher
	embed    domain.Embedder
	policies map[mode.Mode]policy.Policy
	logger   *zap.Logger
}

// NewFactory validates cfg and creates a factory.
func NewFactory(search Searcher, embed domain.Embedder, cfg Config, logger *zap.Logger) (*Factory, error) {
	rec, err := policy.New(mode.Recommend, domcol.Projects, cfg.Recommend.K, cfg.Recommend.Threshold)
	if err != nil {
		return nil, fmt.Errorf("recommend retriever: %w", err)
	}
	exp, err := policy.New(mode.Explain, domcol.Services, cfg.Explain.K, cfg.Explain.Threshold)
	if err != nil {
		return nil, fmt.Errorf("explain retriever: %w", err)
	}
	return &Factory{
		search:   search,
		embed:    embed,
		policies: map[mode.Mode]policy.Policy{mode.Recommend: rec, mode.Explain: exp},
		logger:   logger,
	}, nil
}

// Retriever returns the retriever of mode m, or domain.ErrInvalidMode.
func (f *Factory) Retriever(m mode.Mode) (*Retriever, error) {
	p, ok := f.policies[m]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidMode, m)
	}
	return &Retriever{policy: p, search: f.search, embed: f.embed, logger: f.logger}, nil
}

// Retrieve is Retriever(m) followed by Retrieve(query).
func (f *Factory) Retrieve(ctx context.Context, m mode.Mode, query string) ([]result.Result, error) {
	r, err := f.Retriever(m)
	if err != nil {
		return nil, err
	}
	return r.Retrieve(ctx, query)
}

// Retriever answers queries for one mode.
type Retriever struct {
	policy policy.Policy
	search Searcher
	embed  domain.Embedder
	logger *zap.Logger
}

// Policy returns the retriever configuration.
func (r *Retriever) Policy() policy.Policy { return r.policy }

// Retrieve embeds query and returns up to K hits, best first, dropping hits
// below the threshold. No qualifying hit is an empty result, not an error.
// A collection that was never synced also yields an empty result.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]result.Result, error) {
	label := string(r.policy.Mode)

	emb, err := r.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := r.search.SearchKNN(ctx, r.policy.Collection, emb.Embedding, r.policy.K)
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			r.logger.Warn("Collection is not indexed yet", zap.String("collection", string(r.policy.Collection)))
			metrics.RetrievalEmptyTotal.WithLabelValues(label).Inc()
			return nil, nil
		}
		return nil, fmt.Errorf("search %s: %w", r.policy.Collection, err)
	}

	kept := hits[:0]
	for _, h := range hits {
		if r.policy.Accepts(h.Score()) {
			kept = append(kept, h)
		}
	}
	if len(kept) > r.policy.K {
		kept = kept[:r.policy.K]
	}

	metrics.RetrievalHits.WithLabelValues(label).Observe(float64(len(kept)))
	if len(kept) == 0 {
		metrics.RetrievalEmptyTotal.WithLabelValues(label).Inc()
		return nil, nil
	}
	return kept, nil
}
