package tokentrim

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultTimeout is the default HTTP client timeout.
	DefaultTimeout = 30 * time.Second
	// DefaultBaseURL is the default tokentrim server URL.
	DefaultBaseURL = "http://localhost:8080"
)

// Client is the tokentrim SDK client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	headers    map[string]string
}

// ClientOption is a function that configures a Client.
type ClientOption func(*Client)

// WithBaseURL sets the base URL for the client.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithAPIKey sends the given API key with every request.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		if c.headers == nil {
			c.headers = make(map[string]string)
		}
		c.headers["X-API-Key"] = key
	}
}

// New creates a new tokentrim client with the given options.
func New(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		headers: make(map[string]string),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// do performs an HTTP request and decodes the response.
func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr APIError
		apiErr.StatusCode = resp.StatusCode
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Message != "" {
			return &apiErr
		}
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("server error: %s", string(respBody)),
		}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Health checks if the server is healthy.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Ready checks if the server is ready to serve requests.
func (c *Client) Ready(ctx context.Context) error {
	var resp struct {
		Status string `json:"status"`
	}
	return c.do(ctx, http.MethodGet, "/ready", nil, &resp)
}

// Optimize runs the optimization pipeline on a prompt.
func (c *Client) Optimize(ctx context.Context, input *OptimizeInput) (*OptimizeResult, error) {
	if input == nil {
		return nil, fmt.Errorf("input cannot be nil")
	}
	if input.Prompt == "" {
		return nil, fmt.Errorf("prompt is required")
	}

	var result OptimizeResult
	if err := c.do(ctx, http.MethodPost, "/v1/optimize", input, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SubmitFeedback records a decision about a proposed edit.
func (c *Client) SubmitFeedback(ctx context.Context, input *FeedbackInput) error {
	if input == nil {
		return fmt.Errorf("input cannot be nil")
	}
	if input.EditID == "" || input.Pattern == "" {
		return fmt.Errorf("edit_id and pattern are required")
	}
	return c.do(ctx, http.MethodPost, "/v1/feedback", input, nil)
}

// Patterns returns pattern statistics and stored rules.
func (c *Client) Patterns(ctx context.Context) (*PatternsResult, error) {
	var result PatternsResult
	if err := c.do(ctx, http.MethodGet, "/v1/patterns", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpsertConcept creates or updates a concept.
func (c *Client) UpsertConcept(ctx context.Context, input *Concept) (*Concept, error) {
	if input == nil {
		return nil, fmt.Errorf("input cannot be nil")
	}
	if input.Label == "" {
		return nil, fmt.Errorf("label is required")
	}

	var result Concept
	if err := c.do(ctx, http.MethodPost, "/v1/concepts", input, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetConcept retrieves a concept by ID.
func (c *Client) GetConcept(ctx context.Context, id string) (*Concept, error) {
	var result Concept
	if err := c.do(ctx, http.MethodGet, "/v1/concepts/"+url.PathEscape(id), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PutSurfaceForm records a surface form for a concept.
func (c *Client) PutSurfaceForm(ctx context.Context, conceptID string, form *SurfaceForm) (*SurfaceForm, error) {
	if form == nil {
		return nil, fmt.Errorf("form cannot be nil")
	}
	if form.Text == "" || form.TokenizerID == "" {
		return nil, fmt.Errorf("text and tokenizer_id are required")
	}

	var result SurfaceForm
	path := "/v1/concepts/" + url.PathEscape(conceptID) + "/forms"
	if err := c.do(ctx, http.MethodPost, path, form, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListSurfaceForms lists the forms stored for a concept under a tokenizer.
// An empty tokenizerID uses the server default.
func (c *Client) ListSurfaceForms(ctx context.Context, conceptID, tokenizerID string) ([]SurfaceForm, error) {
	path := "/v1/concepts/" + url.PathEscape(conceptID) + "/forms"
	if tokenizerID != "" {
		path += "?tokenizer=" + url.QueryEscape(tokenizerID)
	}

	var result struct {
		Forms []SurfaceForm `json:"forms"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result.Forms, nil
}

// Stats returns storage statistics.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	if err := c.do(ctx, http.MethodGet, "/v1/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
