package ingest

import (
	"context"
	"crypto/sha256"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/mfgchat/internal/db/memory"
	"github.com/kailas-cloud/mfgchat/internal/domain"
	colrepo "github.com/kailas-cloud/mfgchat/internal/repository/collection"
	docrepo "github.com/kailas-cloud/mfgchat/internal/repository/document"
)

const testDim = 8

// hashEmbedder derives a stable vector from the SHA-256 of the text.
type hashEmbedder struct {
	dim   int
	calls int
	texts int
	err   error
}

func (e *hashEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := e.BatchEmbed(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{Embedding: res.Embeddings[0]}, nil
}

func (e *hashEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	e.calls++
	if e.err != nil {
		return domain.BatchEmbeddingResult{}, e.err
	}
	e.texts += len(texts)
	out := make([][]float32, len(texts))
	for i, t := range texts {
		h := sha256.Sum256([]byte(t))
		v := make([]float32, e.dim)
		for j := range v {
			v[j] = float32(h[j%len(h)]) + 1
		}
		out[i] = v
	}
	return domain.BatchEmbeddingResult{Embeddings: out}, nil
}

type fixture struct {
	store *memory.Store
	docs  *docrepo.Repo
	emb   *hashEmbedder
	svc   *Service
	dir   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	store := memory.NewStore()
	docs := docrepo.New(store)
	emb := &hashEmbedder{dim: testDim}
	svc := New(colrepo.New(store), docs, emb, Config{
		ProjectPath: filepath.Join(dir, "projects.csv"),
		ServicePath: filepath.Join(dir, "services.csv"),
		VectorDim:   testDim,
		BatchSize:   2,
	}, zap.NewNop())
	return &fixture{store: store, docs: docs, emb: emb, svc: svc, dir: dir}
}

func (f *fixture) write(t *testing.T, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(f.dir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}
