package mfgchat

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// keywordEmbedder maps text onto a 3-dim space by keyword counts, so
// similarity in tests follows shared vocabulary.
type keywordEmbedder struct {
	calls int
}

func (e *keywordEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	e.calls++
	s := strings.ToLower(text)
	return EmbeddingResult{
		Embedding: []float32{
			float32(strings.Count(s, "aluminum")),
			float32(strings.Count(s, "plastic")),
			0.1,
		},
		PromptTokens: 1,
		TotalTokens:  1,
	}, nil
}

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

type mockBatchEmbedder struct {
	mockEmbedder
	batchFn func(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

func (m *mockBatchEmbedder) BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error) {
	return m.batchFn(ctx, texts)
}

type mockCompleter struct {
	prompts []string
	text    string
	err     error
}

func (m *mockCompleter) Complete(_ context.Context, prompt string) (Completion, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return Completion{}, m.err
	}
	return Completion{Text: m.text, Model: "test-model"}, nil
}

type healthyCompleter struct {
	mockCompleter
	healthErr error
}

func (h *healthyCompleter) HealthCheck(context.Context) error { return h.healthErr }

const testProjects = `project_description,main_service,sub_service,material
aluminum housing,cnc machining,anodizing,aluminum
plastic cover,injection molding,N/A,ABS
aluminum housing,cnc machining,anodizing,aluminum
`

const testServices = `main_service,sub_service,description
cnc machining,,cuts aluminum blocks
injection molding,overmolding,plastic over a core
`

func writeSources(t *testing.T) (projects, services string) {
	t.Helper()
	dir := t.TempDir()
	projects = filepath.Join(dir, "project_data.csv")
	services = filepath.Join(dir, "service_data.csv")
	if err := os.WriteFile(projects, []byte(testProjects), 0o600); err != nil {
		t.Fatalf("write projects: %v", err)
	}
	if err := os.WriteFile(services, []byte(testServices), 0o600); err != nil {
		t.Fatalf("write services: %v", err)
	}
	return projects, services
}

func newTestManager(t *testing.T, llm Completer, opts ...Option) *Manager {
	t.Helper()
	projects, services := writeSources(t)
	base := []Option{
		WithMemory(),
		WithEmbedder(&keywordEmbedder{}),
		WithVectorDimensions(3),
		WithSources(projects, services),
	}
	if llm != nil {
		base = append(base, WithCompleter(llm))
	}
	m, err := New(context.Background(), append(base, opts...)...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(m.Close)
	return m
}
