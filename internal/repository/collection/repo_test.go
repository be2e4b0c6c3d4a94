package collection

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/mfgchat/internal/db"
	"github.com/kailas-cloud/mfgchat/internal/domain"
	domcol "github.com/kailas-cloud/mfgchat/internal/domain/collection"
)

// --- Ensure ---

func TestEnsure_CreatesWhenMissing(t *testing.T) {
	repo, ms := newTestRepo(t)
	col := testCollection(t)

	var hsetKey string
	var def *db.IndexDefinition
	ms.hsetFn = func(_ context.Context, key string, fields map[string]string) error {
		hsetKey = key
		if fields["vector_dim"] != "768" {
			t.Errorf("unexpected vector_dim: %s", fields["vector_dim"])
		}
		return nil
	}
	ms.createIndexFn = func(_ context.Context, d *db.IndexDefinition) error {
		def = d
		return nil
	}

	created, err := repo.Ensure(context.Background(), col)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Error("expected created=true")
	}
	if hsetKey != "mfgchat:collection:project" {
		t.Errorf("unexpected meta key: %s", hsetKey)
	}
	if def == nil {
		t.Fatal("expected CreateIndex call")
	}
	if def.Name != "mfgchat:project:idx" {
		t.Errorf("unexpected index name: %s", def.Name)
	}
	if len(def.Prefixes) != 1 || def.Prefixes[0] != "mfgchat:project:doc:" {
		t.Errorf("unexpected prefixes: %v", def.Prefixes)
	}
	vf, ok := def.VectorField()
	if !ok || vf.VectorDim != testVectorDim || vf.VectorM != 16 || vf.VectorEFConstruct != 200 {
		t.Errorf("unexpected vector field: %+v", vf)
	}
	// 5 metadata tags + vector
	if len(def.Fields) != 6 {
		t.Errorf("expected 6 fields, got %d", len(def.Fields))
	}
}

func TestEnsure_ExistingSameDim(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.hgetAllFn = func(_ context.Context, _ string) (map[string]string, error) {
		return storedHash("768"), nil
	}
	ms.indexExistsFn = func(_ context.Context, _ string) (bool, error) { return true, nil }
	ms.hsetFn = func(_ context.Context, _ string, _ map[string]string) error {
		t.Error("HSet must not be called for an existing collection")
		return nil
	}
	ms.createIndexFn = func(_ context.Context, _ *db.IndexDefinition) error {
		t.Error("CreateIndex must not be called for an existing collection")
		return nil
	}

	created, err := repo.Ensure(context.Background(), testCollection(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Error("expected created=false")
	}
}

func TestEnsure_DimMismatch(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.hgetAllFn = func(_ context.Context, _ string) (map[string]string, error) {
		return storedHash("1024"), nil
	}
	ms.indexExistsFn = func(_ context.Context, _ string) (bool, error) { return true, nil }

	_, err := repo.Ensure(context.Background(), testCollection(t))
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestEnsure_IndexWithoutMeta(t *testing.T) {
	repo, ms := newTestRepo(t)

	var hsetCalled bool
	ms.indexExistsFn = func(_ context.Context, _ string) (bool, error) { return true, nil }
	ms.hsetFn = func(_ context.Context, _ string, _ map[string]string) error {
		hsetCalled = true
		return nil
	}
	ms.createIndexFn = func(_ context.Context, _ *db.IndexDefinition) error {
		t.Error("CreateIndex must not be called when the index exists")
		return nil
	}

	created, err := repo.Ensure(context.Background(), testCollection(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created || !hsetCalled {
		t.Errorf("expected metadata restore only, created=%v hset=%v", created, hsetCalled)
	}
}

func TestEnsure_RaceOnCreate(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.createIndexFn = func(_ context.Context, _ *db.IndexDefinition) error {
		return &db.Error{Op: db.OpCreateIndex, Err: db.ErrIndexExists}
	}
	ms.delFn = func(_ context.Context, _ string) error {
		t.Error("metadata must be kept when another process created the index")
		return nil
	}

	created, err := repo.Ensure(context.Background(), testCollection(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Error("expected created=false")
	}
}

func TestEnsure_CreateIndexError_Rollback(t *testing.T) {
	repo, ms := newTestRepo(t)

	var delKey string
	ms.createIndexFn = func(_ context.Context, _ *db.IndexDefinition) error {
		return errors.New("index limit reached")
	}
	ms.delFn = func(_ context.Context, key string) error {
		delKey = key
		return nil
	}

	_, err := repo.Ensure(context.Background(), testCollection(t))
	if err == nil {
		t.Fatal("expected error")
	}
	if delKey != "mfgchat:collection:project" {
		t.Errorf("expected rollback of meta key, got %q", delKey)
	}
}

func TestEnsure_CreateIndexError_RollbackFails(t *testing.T) {
	repo, ms := newTestRepo(t)

	createErr := errors.New("index limit reached")
	delErr := errors.New("connection lost")
	ms.createIndexFn = func(_ context.Context, _ *db.IndexDefinition) error { return createErr }
	ms.delFn = func(_ context.Context, _ string) error { return delErr }

	_, err := repo.Ensure(context.Background(), testCollection(t))
	if !errors.Is(err, createErr) || !errors.Is(err, delErr) {
		t.Fatalf("expected joined errors, got %v", err)
	}
}

func TestEnsure_HGetAllError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.hgetAllFn = func(_ context.Context, _ string) (map[string]string, error) {
		return nil, errors.New("connection refused")
	}

	if _, err := repo.Ensure(context.Background(), testCollection(t)); err == nil {
		t.Fatal("expected error")
	}
}

func TestEnsure_CustomHNSW(t *testing.T) {
	repo, ms := newTestRepo(t)
	repo.WithHNSW(HNSWConfig{M: 32, EFConstruct: 400})

	ms.createIndexFn = func(_ context.Context, def *db.IndexDefinition) error {
		vf, _ := def.VectorField()
		if vf.VectorM != 32 || vf.VectorEFConstruct != 400 {
			t.Errorf("unexpected HNSW params: M=%d EF=%d", vf.VectorM, vf.VectorEFConstruct)
		}
		return nil
	}

	if _, err := repo.Ensure(context.Background(), testCollection(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// --- Reset ---

func TestReset_DropsDeletesAndRecreates(t *testing.T) {
	repo, ms := newTestRepo(t)

	var calls []string
	ms.dropIndexFn = func(_ context.Context, name string) error {
		calls = append(calls, "drop:"+name)
		return nil
	}
	ms.deletePrefixFn = func(_ context.Context, prefix string) (int, error) {
		calls = append(calls, "delprefix:"+prefix)
		return 7, nil
	}
	ms.delFn = func(_ context.Context, key string) error {
		calls = append(calls, "del:"+key)
		return nil
	}
	ms.createIndexFn = func(_ context.Context, def *db.IndexDefinition) error {
		calls = append(calls, "create:"+def.Name)
		return nil
	}

	removed, err := repo.Reset(context.Background(), testCollection(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed != 7 {
		t.Errorf("expected 7 removed, got %d", removed)
	}
	want := []string{
		"drop:mfgchat:project:idx",
		"delprefix:mfgchat:project:doc:",
		"del:mfgchat:collection:project",
		"create:mfgchat:project:idx",
	}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d = %s, want %s", i, calls[i], want[i])
		}
	}
}

func TestReset_MissingIndexTolerated(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.dropIndexFn = func(_ context.Context, _ string) error {
		return &db.Error{Op: db.OpDropIndex, Err: db.ErrIndexNotFound}
	}

	if _, err := repo.Reset(context.Background(), testCollection(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReset_DeletePrefixError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.deletePrefixFn = func(_ context.Context, _ string) (int, error) {
		return 0, errors.New("connection lost")
	}
	ms.createIndexFn = func(_ context.Context, _ *db.IndexDefinition) error {
		t.Error("must not recreate after a failed delete")
		return nil
	}

	if _, err := repo.Reset(context.Background(), testCollection(t)); err == nil {
		t.Fatal("expected error")
	}
}
