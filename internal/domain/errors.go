package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists signals a duplicate resource.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidMode signals a query mode outside recommend/explain.
	ErrInvalidMode = errors.New("invalid mode")
	// ErrInvalidRecord signals a source record missing required fields.
	ErrInvalidRecord = errors.New("invalid record")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")

	// ErrCollaboratorUnavailable signals that the embedding or language model
	// service could not be reached or answered with a failure.
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")

	// ErrSourceNotFound signals a missing source table. Ingestion treats it as a no-op.
	ErrSourceNotFound = errors.New("source not found")
	// ErrSourceDecode signals a source table that is neither UTF-8 nor CP949.
	ErrSourceDecode = errors.New("source decode failed")
)

// Collaborator names used in CollaboratorError.
const (
	CollaboratorEmbedding = "embedding"
	CollaboratorLLM       = "llm"
)

// CollaboratorError ties an external service failure to ErrCollaboratorUnavailable
// while keeping the transport error reachable through errors.Is/As.
type CollaboratorError struct {
	Collaborator string
	Err          error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrCollaboratorUnavailable.Error(), e.Collaborator, e.Err)
}

func (e *CollaboratorError) Unwrap() []error { return []error{ErrCollaboratorUnavailable, e.Err} }

// NewCollaboratorError wraps err as an unavailable collaborator failure.
func NewCollaboratorError(collaborator string, err error) error {
	return &CollaboratorError{Collaborator: collaborator, Err: err}
}
