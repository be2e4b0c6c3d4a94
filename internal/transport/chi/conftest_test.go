package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/mfgchat/internal/domain/project"
	"github.com/kailas-cloud/mfgchat/internal/domain/search/mode"
	chatuc "github.com/kailas-cloud/mfgchat/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/mfgchat/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/mfgchat/internal/usecase/ingest"
)

type mockChatter struct {
	respondFn func(ctx context.Context, m mode.Mode, query string) (chatuc.Response, error)
}

func (m *mockChatter) Respond(ctx context.Context, md mode.Mode, query string) (chatuc.Response, error) {
	return m.respondFn(ctx, md, query)
}

type mockIngester struct {
	addFn          func(ctx context.Context, rec project.Record) (bool, error)
	getFn          func(ctx context.Context, id string) (project.Record, error)
	syncProjectsFn func(ctx context.Context) (ingestuc.Report, error)
	syncServicesFn func(ctx context.Context, rebuild bool) (ingestuc.Report, error)
}

func (m *mockIngester) AddProject(ctx context.Context, rec project.Record) (bool, error) {
	return m.addFn(ctx, rec)
}

func (m *mockIngester) GetProject(ctx context.Context, id string) (project.Record, error) {
	return m.getFn(ctx, id)
}

func (m *mockIngester) SyncProjects(ctx context.Context) (ingestuc.Report, error) {
	return m.syncProjectsFn(ctx)
}

func (m *mockIngester) SyncServices(ctx context.Context, rebuild bool) (ingestuc.Report, error) {
	return m.syncServicesFn(ctx, rebuild)
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

type fixture struct {
	chat    *mockChatter
	ingest  *mockIngester
	health  *mockHealth
	handler http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		chat:   &mockChatter{},
		ingest: &mockIngester{},
		health: &mockHealth{report: healthuc.Report{
			Status: healthuc.Healthy,
			Checks: map[string]healthuc.CheckResult{healthuc.ComponentDatabase: healthuc.CheckOK},
		}},
	}
	srv := NewServer(f.chat, f.ingest, f.health, zap.NewNop())
	f.handler = NewRouter(srv, RouterOptions{Logger: zap.NewNop()})
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}
