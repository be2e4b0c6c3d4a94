package mfgchat

import "github.com/kailas-cloud/mfgchat/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check. The HTTP Client maps server error codes onto the same values.
var (
	ErrNotFound                = domain.ErrNotFound
	ErrInvalidMode             = domain.ErrInvalidMode
	ErrInvalidRecord           = domain.ErrInvalidRecord
	ErrVectorDimMismatch       = domain.ErrVectorDimMismatch
	ErrRateLimited             = domain.ErrRateLimited
	ErrCollaboratorUnavailable = domain.ErrCollaboratorUnavailable
	ErrSourceNotFound          = domain.ErrSourceNotFound
	ErrSourceDecode            = domain.ErrSourceDecode
)
