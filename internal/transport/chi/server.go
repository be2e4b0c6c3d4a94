package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/mfgchat/internal/domain"
	"github.com/kailas-cloud/mfgchat/internal/domain/project"
	"github.com/kailas-cloud/mfgchat/internal/domain/search/mode"
	chatuc "github.com/kailas-cloud/mfgchat/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/mfgchat/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/mfgchat/internal/usecase/ingest"
)

// DefaultMaxQueryLength bounds the chat query in characters.
const DefaultMaxQueryLength = 2000

// Chatter answers user questions.
type Chatter interface {
	Respond(ctx context.Context, m mode.Mode, query string) (chatuc.Response, error)
}

// Ingester runs the collection synchronizations.
type Ingester interface {
	AddProject(ctx context.Context, rec project.Record) (bool, error)
	GetProject(ctx context.Context, id string) (project.Record, error)
	SyncProjects(ctx context.Context) (ingestuc.Report, error)
	SyncServices(ctx context.Context, rebuild bool) (ingestuc.Report, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers.
type Server struct {
	chat          Chatter
	ingest        Ingester
	health        HealthChecker
	logger        *zap.Logger
	maxQueryLen   int
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(chat Chatter, ingest Ingester, health HealthChecker, logger *zap.Logger) *Server {
	s := &Server{
		chat:        chat,
		ingest:      ingest,
		health:      health,
		logger:      logger,
		maxQueryLen: DefaultMaxQueryLength,
	}
	s.errorHandlers = []errorHandler{
		invalidModeHandler,
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrInvalidRecord, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusConflict, CodeVectorDimMismatch),
		sentinelHandler(domain.ErrSourceDecode, http.StatusUnprocessableEntity, CodeSourceDecodeFailed),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited),
		// A collaborator error may carry the expired deadline; the deadline wins.
		timeoutHandler,
		sentinelHandler(domain.ErrCollaboratorUnavailable, http.StatusBadGateway, CodeCollaboratorUnavailable),
	}
	return s
}

// WithMaxQueryLength overrides the chat query length limit.
func (s *Server) WithMaxQueryLength(n int) *Server {
	if n > 0 {
		s.maxQueryLen = n
	}
	return s
}

// Chat handles POST /chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "query is required")
		return
	}
	if utf8.RuneCountInString(query) > s.maxQueryLen {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "query is too long")
		return
	}

	resp, err := s.chat.Respond(r.Context(), mode.Mode(req.Mode), query)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	out := ChatResponse{
		Answer:        resp.Answer,
		Mode:          string(resp.Mode),
		PromptVersion: resp.PromptVersion,
	}
	for i := range resp.Sources {
		hit := &resp.Sources[i]
		out.Sources = append(out.Sources, Source{ID: hit.ID(), Score: hit.Score(), Metadata: hit.Metadata()})
	}
	writeJSON(w, http.StatusOK, out)
}

// AddProject handles POST /projects.
func (s *Server) AddProject(w http.ResponseWriter, r *http.Request) {
	var req AddProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	rec, err := project.New(req.ProjectDescription, req.MainService, req.SubService, req.Material)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, strings.TrimPrefix(
			err.Error(), domain.ErrInvalidRecord.Error()+": "))
		return
	}

	created, err := s.ingest.AddProject(r.Context(), rec)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, AddProjectResponse{ID: rec.ID(), Created: created})
}

// GetProject handles GET /projects/{id}.
func (s *Server) GetProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := s.ingest.GetProject(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ProjectResponse{
		ID:                 rec.ID(),
		ProjectDescription: rec.Description,
		MainService:        rec.MainService,
		SubService:         rec.SubService,
		Material:           rec.Material,
	})
}

// Modes handles GET /modes.
func (s *Server) Modes(w http.ResponseWriter, _ *http.Request) {
	all := mode.All()
	out := ModesResponse{Modes: make([]ModeInfo, 0, len(all))}
	for _, m := range all {
		out.Modes = append(out.Modes, ModeInfo{Mode: string(m), Greeting: m.Greeting()})
	}
	writeJSON(w, http.StatusOK, out)
}

// SyncProjects handles POST /sync/projects.
func (s *Server) SyncProjects(w http.ResponseWriter, r *http.Request) {
	rep, err := s.ingest.SyncProjects(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// SyncServices handles POST /sync/services?rebuild=bool.
func (s *Server) SyncServices(w http.ResponseWriter, r *http.Request) {
	var rebuild bool
	if err := runtime.BindQueryParameter("form", true, false, "rebuild", r.URL.Query(), &rebuild); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid format for parameter rebuild")
		return
	}

	rep, err := s.ingest.SyncServices(r.Context(), rebuild)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrInvalidRecord,
		domain.ErrVectorDimMismatch,
		domain.ErrSourceDecode,
		domain.ErrRateLimited,
		domain.ErrCollaboratorUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// invalidModeHandler answers with the user-facing invalid mode message.
func invalidModeHandler(w http.ResponseWriter, err error, _ string) bool {
	if !errors.Is(err, domain.ErrInvalidMode) {
		return false
	}
	writeError(w, http.StatusBadRequest, CodeInvalidMode, chatuc.InvalidModeAnswer)
	return true
}

// timeoutHandler maps an expired request deadline to 504.
func timeoutHandler(w http.ResponseWriter, err error, _ string) bool {
	if !errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	writeError(w, http.StatusGatewayTimeout, CodeCollaboratorUnavailable, "request timed out")
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
