package estoqueapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/lachiem1/estoque/internal/observability"
	"github.com/lachiem1/estoque/internal/resilience"
)

const (
	DefaultBaseURL = "http://localhost:3000"
	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 8 << 20
)

var tracer = otel.Tracer("estoqueapi")

func init() {
	// The API reads amounts as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Notifier receives API failures so the UI can surface them.
type Notifier interface {
	APIError(message string)
	Unauthorized()
}

// NotifierFuncs adapts plain functions to Notifier. Nil fields are skipped.
type NotifierFuncs struct {
	OnError        func(message string)
	OnUnauthorized func()
}

func (n NotifierFuncs) APIError(message string) {
	if n.OnError != nil {
		n.OnError(message)
	}
}

func (n NotifierFuncs) Unauthorized() {
	if n.OnUnauthorized != nil {
		n.OnUnauthorized()
	}
}

// Client talks to the store API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *resilience.Breaker
	logger     *zap.Logger
	metrics    *observability.Metrics
	notifier   Notifier
	requestID  func() string

	mu    sync.RWMutex
	token string
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func WithBreaker(b *resilience.Breaker) ClientOption {
	return func(c *Client) { c.breaker = b }
}

func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithMetrics(m *observability.Metrics) ClientOption {
	return func(c *Client) { c.metrics = m }
}

func WithNotifier(n Notifier) ClientOption {
	return func(c *Client) { c.notifier = n }
}

// New creates a client for baseURL. An empty token sends no Authorization
// header.
func New(baseURL, token string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     zap.NewNop(),
		requestID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetToken replaces the bearer token, e.g. after a login.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// BreakerState is "open", "closed", "half-open" or "disabled".
func (c *Client) BreakerState() string {
	return c.breaker.State()
}

type call struct {
	method string
	path   string
	query  url.Values
	body   any
	out    any
	// silent calls report failures only through the returned error.
	silent bool
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, call{method: http.MethodGet, path: path, query: query, out: out})
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, call{method: http.MethodPost, path: path, body: body, out: out})
}

func (c *Client) patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, call{method: http.MethodPatch, path: path, body: body, out: out})
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, call{method: http.MethodDelete, path: path})
}

func (c *Client) do(ctx context.Context, in call) error {
	route := routeTemplate(in.path)
	ctx, span := tracer.Start(ctx, in.method+" "+route)
	defer span.End()

	reqID := c.requestID()
	span.SetAttributes(
		attribute.String("http.method", in.method),
		attribute.String("http.route", route),
		attribute.String("request.id", reqID),
	)

	start := time.Now()
	err := c.breaker.Execute(func() error {
		return c.roundTrip(ctx, in, reqID)
	})
	elapsed := time.Since(start)
	c.metrics.RecordRequest(in.method, route, elapsed)

	fields := []zap.Field{
		zap.String("method", in.method),
		zap.String("route", route),
		zap.String("request_id", reqID),
		zap.Duration("latency", elapsed),
	}
	if err == nil {
		c.logger.Debug("api request", fields...)
		return nil
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	c.report(err, in.silent, fields)
	return err
}

func (c *Client) report(err error, silent bool, fields []zap.Field) {
	var apiErr *APIError
	var open *resilience.ErrCircuitOpen
	switch {
	case errors.As(err, &apiErr):
		c.metrics.IncrAPIError(apiErr.Status)
		fields = append(fields, zap.Int("status", apiErr.Status), zap.String("message", apiErr.Message))
		if apiErr.Status >= 500 {
			c.logger.Error("api request failed", fields...)
		} else {
			c.logger.Warn("api request rejected", fields...)
		}
		if silent || c.notifier == nil {
			return
		}
		c.notifier.APIError(apiErr.Message)
		if apiErr.Unauthorized() {
			c.notifier.Unauthorized()
		}
	case errors.Is(err, context.Canceled):
		c.logger.Debug("api request canceled", fields...)
	case errors.As(err, &open):
		c.logger.Warn("api request short-circuited", fields...)
		if !silent && c.notifier != nil {
			c.notifier.APIError("API indisponível no momento. Tente novamente em instantes.")
		}
	default:
		c.metrics.IncrAPIError(0)
		c.logger.Error("api request failed", append(fields, zap.Error(err))...)
		if !silent && c.notifier != nil {
			c.notifier.APIError("Não foi possível conectar à API.")
		}
	}
}

func (c *Client) roundTrip(ctx context.Context, in call, reqID string) error {
	endpoint := c.baseURL + in.path
	if len(in.query) > 0 {
		endpoint += "?" + in.query.Encode()
	}

	var reader io.Reader
	if in.body != nil {
		payload, err := json.Marshal(in.body)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", in.method, in.path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, in.method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build %s %s request: %w", in.method, in.path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("call %s %s: %w", in.method, in.path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read %s %s response: %w", in.method, in.path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, body)}
	}

	if in.out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, in.out); err != nil {
		// A 2xx with an unreadable body counts as empty.
		c.logger.Warn("api response not decoded",
			zap.String("path", in.path),
			zap.String("request_id", reqID),
			zap.Error(err),
		)
	}
	return nil
}

// breakerCountsAsFailure keeps client mistakes (4xx) from opening the
// breaker; only server and transport failures do.
func breakerCountsAsFailure(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500
	}
	return true
}

// NewBreaker returns the circuit breaker tuned for this client.
func NewBreaker() *resilience.Breaker {
	return resilience.NewCircuitBreaker("estoque-api", breakerCountsAsFailure)
}

var staticSegments = map[string]struct{}{
	"auth": {}, "login": {}, "me": {}, "logout": {},
	"dashboard": {}, "summary": {},
	"produtos": {}, "tipos": {}, "cores": {}, "materiais": {}, "tamanhos": {},
	"preco": {}, "historico": {}, "fornecedores": {},
	"clientes": {},
	"financeiro": {}, "tipos-pagamento": {}, "cartoes-contas": {}, "regras": {}, "pagamentos": {},
	"compras": {}, "gastos": {}, "vendas": {},
}

// routeTemplate replaces record IDs in path with {id} so metrics and spans
// group by endpoint.
func routeTemplate(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, seg := range segments {
		if _, ok := staticSegments[seg]; !ok && seg != "" {
			segments[i] = "{id}"
		}
	}
	return "/" + strings.Join(segments, "/")
}
