package mfgchat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...ClientOption) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", opts...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_Chat(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer k1" {
			t.Errorf("expected bearer key, got %q", got)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["mode"] != "explain" || body["query"] != "what is cnc?" {
			t.Errorf("unexpected body %v", body)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"answer":         "CNC is computer controlled cutting.",
			"mode":           "explain",
			"prompt_version": "v1",
			"sources":        []map[string]any{{"id": "s1", "score": 0.91, "metadata": map[string]string{"service_name": "cnc"}}},
		})
	}, WithAPIKey("k1"))

	ans, err := c.Chat(context.Background(), ModeExplain, "what is cnc?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ans.Text != "CNC is computer controlled cutting." || ans.Mode != ModeExplain || ans.PromptVersion != "v1" {
		t.Errorf("unexpected answer %+v", ans)
	}
	if len(ans.Sources) != 1 || ans.Sources[0].Metadata["service_name"] != "cnc" {
		t.Errorf("unexpected sources %+v", ans.Sources)
	}
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		code   string
		want   error
	}{
		{"invalid mode", http.StatusBadRequest, "invalid_mode", ErrInvalidMode},
		{"unauthorized", http.StatusUnauthorized, "unauthorized", ErrUnauthorized},
		{"rate limited", http.StatusTooManyRequests, "rate_limited", ErrRateLimited},
		{"collaborator", http.StatusBadGateway, "collaborator_unavailable", ErrCollaboratorUnavailable},
		{"dim mismatch", http.StatusConflict, "vector_dim_mismatch", ErrVectorDimMismatch},
		{"decode", http.StatusUnprocessableEntity, "source_decode_failed", ErrSourceDecode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, tt.status, map[string]string{"code": tt.code, "message": "nope"})
			})
			_, err := c.Chat(context.Background(), ModeRecommend, "q")
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) || apiErr.StatusCode != tt.status || apiErr.Message != "nope" {
				t.Errorf("unexpected APIError %+v", apiErr)
			}
		})
	}
}

func TestClient_RetryAfter(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "2")
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"code": "rate_limited", "message": "slow down"})
	})

	_, err := c.Chat(context.Background(), ModeRecommend, "q")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.RetryAfter != 2*time.Second {
		t.Errorf("expected 2s retry, got %v", apiErr.RetryAfter)
	}
}

func TestClient_NonJSONError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})

	_, err := c.SyncProjects(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != "http_502" || apiErr.Message != "bad gateway" {
		t.Errorf("unexpected APIError %+v", apiErr)
	}
	if errors.Unwrap(err) != nil {
		t.Error("unknown codes must not map to a sentinel")
	}
}

func TestClient_AddProject(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var p Project
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if p.Description != "bracket" || p.MainService != "sheet metal" {
			t.Errorf("unexpected project %+v", p)
		}
		writeJSON(w, http.StatusCreated, map[string]any{"id": "abc", "created": true})
	})

	id, created, err := c.AddProject(context.Background(), Project{Description: "bracket", MainService: "sheet metal"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "abc" || !created {
		t.Errorf("got id=%q created=%v", id, created)
	}
}

func TestClient_GetProject(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/projects/abc":
			writeJSON(w, http.StatusOK, map[string]any{
				"id": "abc", "project_description": "bracket", "main_service": "sheet metal",
				"sub_service": "N/A", "material": "steel",
			})
		default:
			writeJSON(w, http.StatusNotFound, map[string]string{"code": "not_found", "message": "not found"})
		}
	})

	p, err := c.GetProject(context.Background(), "abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Description != "bracket" || p.MainService != "sheet metal" || p.Material != "steel" {
		t.Errorf("unexpected project %+v", p)
	}

	if _, err := c.GetProject(context.Background(), "zzz"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_Modes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/modes" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		writeJSON(w, http.StatusOK, map[string]any{"modes": []map[string]string{
			{"mode": "recommend", "greeting": "hi"},
			{"mode": "explain", "greeting": "hello"},
		}})
	})

	modes, err := c.Modes(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(modes) != 2 || modes[0].Mode != ModeRecommend || modes[1].Greeting != "hello" {
		t.Errorf("unexpected modes %+v", modes)
	}
}

func TestClient_SyncServices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sync/services" || r.URL.Query().Get("rebuild") != "true" {
			t.Errorf("unexpected request %s", r.URL)
		}
		writeJSON(w, http.StatusOK, map[string]any{"collection": "services", "rebuilt": true, "inserted": 4, "total": 4})
	})

	rep, err := c.SyncServices(context.Background(), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.Collection != "services" || !rep.Rebuilt || rep.Inserted != 4 {
		t.Errorf("unexpected report %+v", rep)
	}
}

func TestClient_Health_Degraded(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "degraded",
			"checks": map[string]string{"database": "ok", "llm": "error"},
		})
	})

	h, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Healthy() || h.Checks["llm"] != "error" {
		t.Errorf("unexpected health %+v", h)
	}
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c := NewClient(srv.URL, WithHTTPClient(&http.Client{Timeout: time.Second}))
	if _, err := c.Health(context.Background()); err == nil {
		t.Fatal("expected error for a closed server")
	}
}
