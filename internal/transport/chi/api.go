package chi

// ErrorCode is the machine-readable error code in ErrorResponse.
type ErrorCode string

// Error codes returned by the API.
const (
	CodeBadRequest              ErrorCode = "bad_request"
	CodeValidationFailed        ErrorCode = "validation_failed"
	CodeInvalidMode             ErrorCode = "invalid_mode"
	CodeUnauthorized            ErrorCode = "unauthorized"
	CodeNotFound                ErrorCode = "not_found"
	CodeMethodNotAllowed        ErrorCode = "method_not_allowed"
	CodeRateLimited             ErrorCode = "rate_limited"
	CodeCollaboratorUnavailable ErrorCode = "collaborator_unavailable"
	CodeVectorDimMismatch       ErrorCode = "vector_dim_mismatch"
	CodeSourceDecodeFailed      ErrorCode = "source_decode_failed"
	CodeInternalError           ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Query string `json:"query"`
	Mode  string `json:"mode"`
}

// ChatResponse is the body of a successful POST /chat.
type ChatResponse struct {
	Answer        string   `json:"answer"`
	Mode          string   `json:"mode"`
	PromptVersion string   `json:"prompt_version,omitempty"`
	Sources       []Source `json:"sources,omitempty"`
}

// Source is a retrieved entry the answer was grounded on.
type Source struct {
	ID       string            `json:"id"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// AddProjectRequest is the body of POST /projects.
type AddProjectRequest struct {
	ProjectDescription string `json:"project_description"`
	MainService        string `json:"main_service"`
	SubService         string `json:"sub_service"`
	Material           string `json:"material"`
}

// ProjectResponse is the body of GET /projects/{id}.
type ProjectResponse struct {
	ID                 string `json:"id"`
	ProjectDescription string `json:"project_description"`
	MainService        string `json:"main_service"`
	SubService         string `json:"sub_service"`
	Material           string `json:"material"`
}

// ModeInfo describes a query mode and the assistant's opening line for it.
type ModeInfo struct {
	Mode     string `json:"mode"`
	Greeting string `json:"greeting"`
}

// ModesResponse is the body of GET /modes.
type ModesResponse struct {
	Modes []ModeInfo `json:"modes"`
}

// AddProjectResponse reports whether the project was new.
type AddProjectResponse struct {
	ID      string `json:"id"`
	Created bool   `json:"created"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
