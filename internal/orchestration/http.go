package orchestration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Iron-Ham/taskpanel/internal/errors"
	"github.com/Iron-Ham/taskpanel/internal/logging"
)

// DefaultTimeout bounds a single request when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 4 << 20

// HTTPClient talks to the orchestration server's REST API.
type HTTPClient struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	logger  *logging.Logger
}

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithTimeout sets the per-request timeout. Non-positive values keep the default.
func WithTimeout(d time.Duration) HTTPOption {
	return func(c *HTTPClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(c *HTTPClient) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger attaches a logger for request tracing.
func WithLogger(l *logging.Logger) HTTPOption {
	return func(c *HTTPClient) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewHTTPClient creates a client for the server at baseURL
// (for example "http://localhost:8000").
func NewHTTPClient(baseURL string, opts ...HTTPOption) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: DefaultTimeout,
		http:    &http.Client{},
		logger:  logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server address this client targets.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

type messageResponse struct {
	Message string `json:"message"`
}

type initProjectRequest struct {
	PlanFile string `json:"plan_file"`
}

// Health implements Client.
func (c *HTTPClient) Health(ctx context.Context) (Health, error) {
	var h Health
	err := c.do(ctx, http.MethodGet, "/health", nil, &h)
	return h, err
}

// Status implements Client.
func (c *HTTPClient) Status(ctx context.Context) (Snapshot, error) {
	var s Snapshot
	err := c.do(ctx, http.MethodGet, "/project/status", nil, &s)
	return s, err
}

// CurrentTask implements Client.
func (c *HTTPClient) CurrentTask(ctx context.Context) (*Task, error) {
	s, err := c.Status(ctx)
	if err != nil {
		return nil, err
	}
	return s.CurrentTask, nil
}

// PendingTasks implements Client.
func (c *HTTPClient) PendingTasks(ctx context.Context) ([]Task, error) {
	s, err := c.Status(ctx)
	if err != nil {
		return nil, err
	}
	return s.Pending(), nil
}

// CompletedTasks implements Client.
func (c *HTTPClient) CompletedTasks(ctx context.Context) ([]Task, error) {
	s, err := c.Status(ctx)
	if err != nil {
		return nil, err
	}
	return s.Completed(), nil
}

// PlanDocument implements Client.
func (c *HTTPClient) PlanDocument(ctx context.Context) (PlanDocument, error) {
	var doc PlanDocument
	err := c.do(ctx, http.MethodGet, "/tasks", nil, &doc)
	return doc, err
}

// InitProject implements Client.
func (c *HTTPClient) InitProject(ctx context.Context, planFile string) (string, error) {
	var resp messageResponse
	err := c.do(ctx, http.MethodPost, "/project/init", initProjectRequest{PlanFile: planFile}, &resp)
	return resp.Message, err
}

// RunOrchestration implements Client.
func (c *HTTPClient) RunOrchestration(ctx context.Context) (string, error) {
	var resp messageResponse
	err := c.do(ctx, http.MethodPost, "/orchestration/run", nil, &resp)
	return resp.Message, err
}

// ReportTask implements Client.
func (c *HTTPClient) ReportTask(ctx context.Context, report TaskReport) (string, error) {
	var resp messageResponse
	err := c.do(ctx, http.MethodPost, "/task/report", report, &resp)
	return resp.Message, err
}

// Logs implements Client. The server answers with a JSON string.
func (c *HTTPClient) Logs(ctx context.Context) (string, error) {
	var text string
	err := c.do(ctx, http.MethodGet, "/logs", nil, &text)
	return text, err
}

// do performs one request and decodes a JSON response into out.
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "encode %s body", path)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.NewOrchestrationError("build request", err).WithEndpoint(path)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("orchestration request failed", "method", method, "path", path, "error", err.Error())
		return c.classify(ctx, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return c.classify(ctx, method, path, err)
	}

	c.logger.Debug("orchestration request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.NewOrchestrationError(fmt.Sprintf("%s %s", method, path), errors.ErrServerRejected).
			WithEndpoint(path).
			WithStatusCode(resp.StatusCode).
			WithDetail(errorDetail(data)).
			WithRetryable(transientStatus(resp.StatusCode))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.NewMalformedResponseError(path, err)
	}
	return nil
}

// classify maps a transport failure onto the error taxonomy: deadline
// expiry becomes a TimeoutError, everything else an unavailable server.
func (c *HTTPClient) classify(ctx context.Context, method, path string, err error) error {
	op := fmt.Sprintf("%s %s", method, path)
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.NewTimeoutError(op, c.timeout).WithCause(err)
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return errors.Wrap(errors.ErrCanceled, op)
	}
	return errors.NewOrchestrationError(op, fmt.Errorf("%w: %v", errors.ErrServerUnavailable, err)).
		WithEndpoint(path)
}

// transientStatus reports whether a rejection came from a proxy or an
// overloaded server rather than from the request itself.
func transientStatus(code int) bool {
	switch code {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// errorDetail extracts FastAPI's {"detail": ...} field, falling back to the
// raw body text.
func errorDetail(body []byte) string {
	var payload struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != nil {
		if s, ok := payload.Detail.(string); ok {
			return s
		}
		if b, err := json.Marshal(payload.Detail); err == nil {
			return string(b)
		}
	}
	return strings.TrimSpace(string(body))
}
