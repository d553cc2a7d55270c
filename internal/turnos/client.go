package turnos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/wolfman30/turnos/internal/observability/metrics"
	"github.com/wolfman30/turnos/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 20
	maxErrorBody   = 300
)

var clientTracer = otel.Tracer("turnos.internal.turnos.client")

// Client wraps the REST calls of the remote appointment collection.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *logging.Logger
	metrics    *metrics.TurnosMetrics
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout. A client passed through
// WithHTTPClient is copied, never modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.httpClient
			hc.Timeout = d
			c.httpClient = &hc
		}
	}
}

// WithMetrics records every call in m.
func WithMetrics(m *metrics.TurnosMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient constructs a client for the collection rooted at baseURL
// (for example https://host/turnos).
func NewClient(baseURL string, logger *logging.Logger, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("turnos: invalid collection url %q", baseURL)
	}
	if logger == nil {
		logger = logging.Default()
	}
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    baseURL,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// List fetches the whole collection. Records that do not fit the schema are
// skipped and logged.
func (c *Client) List(ctx context.Context) ([]Turno, error) {
	var raw []json.RawMessage
	if err := c.do(ctx, "list", http.MethodGet, "", nil, &raw); err != nil {
		return nil, fmt.Errorf("list turnos: %w", err)
	}

	out := make([]Turno, 0, len(raw))
	for i, item := range raw {
		var t Turno
		err := json.Unmarshal(item, &t)
		if err == nil {
			err = checkRecord(t)
		} else {
			err = fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if err != nil {
			c.logger.Warn("skipping malformed turno", "index", i, "error", err)
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// Create persists a new appointment and returns the stored record.
func (c *Client) Create(ctx context.Context, f Fields) (Turno, error) {
	var t Turno
	if err := c.do(ctx, "create", http.MethodPost, "", f, &t); err != nil {
		return Turno{}, fmt.Errorf("create turno: %w", err)
	}
	if err := checkRecord(t); err != nil {
		return Turno{}, fmt.Errorf("create turno: %w", err)
	}
	return t, nil
}

// Update replaces the business fields of appointment id.
func (c *Client) Update(ctx context.Context, id string, f Fields) (Turno, error) {
	var t Turno
	if err := c.do(ctx, "update", http.MethodPut, itemPath(id), f, &t); err != nil {
		return Turno{}, fmt.Errorf("update turno %s: %w", id, err)
	}
	if err := checkRecord(t); err != nil {
		return Turno{}, fmt.Errorf("update turno %s: %w", id, err)
	}
	return t, nil
}

// Delete removes appointment id. The response body is ignored.
func (c *Client) Delete(ctx context.Context, id string) error {
	if err := c.do(ctx, "delete", http.MethodDelete, itemPath(id), nil, nil); err != nil {
		return fmt.Errorf("delete turno %s: %w", id, err)
	}
	return nil
}

// truncateBody cuts b to at most n bytes without splitting a rune.
func truncateBody(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	for n > 0 && !utf8.RuneStart(b[n]) {
		n--
	}
	return string(b[:n])
}

func itemPath(id string) string {
	return "/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) (err error) {
	ctx, span := clientTracer.Start(ctx, "turnos.remote."+op)
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("turnos.operation", op),
	)
	start := time.Now()
	defer func() {
		c.metrics.ObserveRemote(op, err, time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRemote, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrRemote, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := truncateBody(respBody, maxErrorBody)
		c.logger.Warn("turnos store non-2xx response", "status", resp.StatusCode, "operation", op, "body", msg)
		return fmt.Errorf("%w: %w", ErrRemote, &StatusError{Status: resp.StatusCode, Body: msg})
	}

	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(respBody)) == 0 {
		return fmt.Errorf("%w: empty response body", ErrMalformed)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrMalformed, err)
	}
	return nil
}
