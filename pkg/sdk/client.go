package mfgchat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultHTTPTimeout = 90 * time.Second

// ErrUnauthorized is returned by Client when the server rejects the API key.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	// RetryAfter is set from the Retry-After header of 429 answers.
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mfgchat: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Unwrap maps the server error code onto the package sentinels.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case "invalid_mode":
		return ErrInvalidMode
	case "unauthorized":
		return ErrUnauthorized
	case "not_found":
		return ErrNotFound
	case "rate_limited":
		return ErrRateLimited
	case "collaborator_unavailable":
		return ErrCollaboratorUnavailable
	case "vector_dim_mismatch":
		return ErrVectorDimMismatch
	case "source_decode_failed":
		return ErrSourceDecode
	default:
		return nil
	}
}

// ClientOption configures the HTTP Client.
type ClientOption func(*Client)

// WithAPIKey sends key as a bearer token on every request.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// Client talks to a running mfgchat server.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a Client for the server at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Chat asks one question in mode md.
func (c *Client) Chat(ctx context.Context, md Mode, query string) (Answer, error) {
	var out Answer
	body := map[string]string{"query": query, "mode": string(md)}
	if err := c.do(ctx, http.MethodPost, "/chat", body, &out); err != nil {
		return Answer{}, err
	}
	return out, nil
}

// AddProject stores one project and reports whether it was new.
func (c *Client) AddProject(ctx context.Context, p Project) (id string, created bool, err error) {
	var out struct {
		ID      string `json:"id"`
		Created bool   `json:"created"`
	}
	if err := c.do(ctx, http.MethodPost, "/projects", p, &out); err != nil {
		return "", false, err
	}
	return out.ID, out.Created, nil
}

// GetProject fetches a stored project by identity.
func (c *Client) GetProject(ctx context.Context, id string) (Project, error) {
	var out Project
	if err := c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(id), nil, &out); err != nil {
		return Project{}, err
	}
	return out, nil
}

// Modes lists the modes the server supports with their opening lines.
func (c *Client) Modes(ctx context.Context) ([]ModeInfo, error) {
	var out struct {
		Modes []ModeInfo `json:"modes"`
	}
	if err := c.do(ctx, http.MethodGet, "/modes", nil, &out); err != nil {
		return nil, err
	}
	return out.Modes, nil
}

// SyncProjects triggers an incremental project sync.
func (c *Client) SyncProjects(ctx context.Context) (SyncReport, error) {
	var out SyncReport
	if err := c.do(ctx, http.MethodPost, "/sync/projects", nil, &out); err != nil {
		return SyncReport{}, err
	}
	return out, nil
}

// SyncServices triggers a service sync; rebuild drops the collection first.
func (c *Client) SyncServices(ctx context.Context, rebuild bool) (SyncReport, error) {
	var out SyncReport
	path := "/sync/services?" + url.Values{"rebuild": {strconv.FormatBool(rebuild)}}.Encode()
	if err := c.do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return SyncReport{}, err
	}
	return out, nil
}

// Health returns the server health. A degraded or failing server is not an error.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var out HealthStatus
	err := c.do(ctx, http.MethodGet, "/health", nil, &out)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusServiceUnavailable && out.Status != "" {
		return out, nil
	}
	if err != nil {
		return HealthStatus{}, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("mfgchat: encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("mfgchat: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("mfgchat: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("mfgchat: read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := decodeAPIError(resp, data)
		// /health answers 503 with a regular body.
		if resp.StatusCode == http.StatusServiceUnavailable && out != nil {
			_ = json.Unmarshal(data, out)
		}
		return apiErr
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("mfgchat: decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response, data []byte) *APIError {
	e := &APIError{StatusCode: resp.StatusCode}
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Code != "" {
		e.Code = body.Code
		e.Message = body.Message
	} else {
		e.Code = "http_" + strconv.Itoa(resp.StatusCode)
		e.Message = strings.TrimSpace(string(data))
	}
	if s := resp.Header.Get("Retry-After"); s != "" {
		if sec, err := strconv.Atoi(s); err == nil {
			e.RetryAfter = time.Duration(sec) * time.Second
		}
	}
	return e
}
