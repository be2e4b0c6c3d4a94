package mfgchat

import (
	"context"

	healthuc "github.com/kailas-cloud/mfgchat/internal/usecase/health"
)

// HealthStatus is the aggregated state of the store and the model backends.
type HealthStatus struct {
	Status string            `json:"status"` // "ok", "degraded", "error"
	Checks map[string]string `json:"checks"` // component → "ok"/"error"
}

// Healthy reports whether every component answered.
func (h HealthStatus) Healthy() bool { return h.Status == string(healthuc.Healthy) }

// Health checks the store and, when they expose a HealthCheck method,
// the embedder and the completer.
func (m *Manager) Health(ctx context.Context) HealthStatus {
	report := m.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{Status: string(report.Status), Checks: checks}
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}
