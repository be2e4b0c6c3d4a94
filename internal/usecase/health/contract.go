package health

import "context"

// DBPinger checks vector store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// Checker checks availability of an external collaborator (embedding service, language model).
type Checker interface {
	HealthCheck(ctx context.Context) error
}
