package openai

import (
	"encoding/json"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/mfgchat/internal/domain"
)

func newClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

// collaboratorError extracts a readable message from the API error and wraps it
// as domain.ErrCollaboratorUnavailable for the 502 mapping.
func collaboratorError(collaborator string, err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return domain.NewCollaboratorError(collaborator,
			fmt.Errorf("API error %d: %s: %w", reqErr.HTTPStatusCode, detail, err))
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return domain.NewCollaboratorError(collaborator,
			fmt.Errorf("API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, err))
	}

	return domain.NewCollaboratorError(collaborator, err)
}

// extractDetail reads the "detail" (TEI, Nebius) or "error" string (Ollama) field of a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
		Error  any    `json:"error"`
	}
	if json.Unmarshal(body, &parsed) != nil {
		return ""
	}
	if parsed.Detail != "" {
		return parsed.Detail
	}
	if s, ok := parsed.Error.(string); ok {
		return s
	}
	return ""
}
