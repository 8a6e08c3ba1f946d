package client

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

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/stockroom/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Config holds common client configuration
type Config struct {
	ServerURL string
	Timeout   time.Duration // zero means no client imposed timeout
	Debug     bool
	HTTPCache bool
	CacheDir  string
	MaxTries  uint // attempts for idempotent requests, including the first
}

// DefaultConfig returns a default client configuration
func DefaultConfig() Config {
	return Config{
		ServerURL: "http://localhost:8080",
		MaxTries:  3,
	}
}

// CredentialSource provides the current credential and clears it when the
// server rejects it.
type CredentialSource interface {
	Credential(ctx context.Context) (string, bool)
	// Invalidate clears the session and reports whether there was one to clear.
	Invalidate(ctx context.Context) (bool, error)
}

// Invalidation is emitted when a 401 clears the session.
type Invalidation struct {
	Path    string
	Message string
}

// Client is the single call surface to the remote API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	creds      CredentialSource
	maxTries   uint
	newBackOff func() backoff.BackOff

	mu        sync.Mutex
	listeners map[uint64]func(Invalidation)
	nextID    uint64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client built from the config.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBackOff sets the retry schedule for idempotent requests.
func WithBackOff(fn func() backoff.BackOff) Option {
	return func(c *Client) {
		c.newBackOff = fn
	}
}

// New creates a client for the API at cfg.ServerURL.
func New(cfg Config, creds CredentialSource, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(cfg.ServerURL, "/"),
		creds:     creds,
		maxTries:  max(cfg.MaxTries, 1),
		listeners: make(map[uint64]func(Invalidation)),
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = NewHTTPClient(cfg)
	}

	return c
}

// OnInvalidated registers fn to be called after a 401 clears the session.
// The returned function removes the registration.
func (c *Client) OnInvalidated(fn func(Invalidation)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	c.listeners[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

type callOptions struct {
	auth    bool
	headers http.Header
	query   url.Values
}

// CallOption configures a single call.
type CallOption func(*callOptions)

// WithoutAuth sends the call without a credential.
func WithoutAuth() CallOption {
	return func(o *callOptions) {
		o.auth = false
	}
}

// WithHeader adds a request header. It cannot replace the Authorization header.
func WithHeader(key, value string) CallOption {
	return func(o *callOptions) {
		o.headers.Add(key, value)
	}
}

// WithQuery sets the query string.
func WithQuery(q url.Values) CallOption {
	return func(o *callOptions) {
		o.query = q
	}
}

// errorBody is the error shape returned by the API.
type errorBody struct {
	Message string `json:"message"`
}

type response struct {
	status int
	body   []byte
}

// Call issues method on path with body encoded as JSON and decodes a successful
// response into out. Calls are authenticated unless WithoutAuth is given.
func (c *Client) Call(ctx context.Context, method, path string, body, out any, opts ...CallOption) error {
	o := &callOptions{auth: true, headers: make(http.Header)}
	for _, opt := range opts {
		opt(o)
	}

	ctx, span := telemetry.Tracer().Start(ctx, method+" "+path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.Bool("authenticated", o.auth)),
	)
	defer span.End()

	m := telemetry.GetMetrics()
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
	)
	m.APICallsTotal.Add(ctx, 1, attrs)
	started := time.Now()
	defer func() {
		m.APICallDuration.Record(ctx, float64(time.Since(started).Milliseconds()), attrs)
	}()

	var token string
	if o.auth {
		t, ok := c.creds.Credential(ctx)
		if !ok {
			m.APICallErrorsTotal.Add(ctx, 1, attrs)
			return &Error{Kind: ErrAuthenticationRequired, Message: "No token found"}
		}
		token = t
	}

	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = data
	}

	target := c.baseURL + path
	if len(o.query) > 0 {
		target += "?" + o.query.Encode()
	}

	resp, err := c.send(ctx, method, target, payload, token, o.headers)
	if err != nil {
		m.APICallErrorsTotal.Add(ctx, 1, attrs)
		return err
	}

	if resp.status >= 200 && resp.status < 300 {
		if out == nil || len(resp.body) == 0 {
			return nil
		}
		if err := json.Unmarshal(resp.body, out); err != nil {
			m.APICallErrorsTotal.Add(ctx, 1, attrs)
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	}

	m.APICallErrorsTotal.Add(ctx, 1, attrs)

	var eb errorBody
	_ = json.Unmarshal(resp.body, &eb)

	apiErr := newStatusError(resp.status, eb.Message, o.auth)
	span.RecordError(apiErr)
	if errors.Is(apiErr, ErrSessionExpired) {
		c.invalidate(ctx, path, token, eb.Message)
	}

	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.status).
		Str("message", eb.Message).
		Msg("api call failed")

	return apiErr
}

// send performs the request, retrying idempotent requests on transport
// failures and gateway errors.
func (c *Client) send(ctx context.Context, method, target string, payload []byte, token string, headers http.Header) (*response, error) {
	idempotent := method == http.MethodGet || method == http.MethodHead
	tries := uint(1)
	if idempotent {
		tries = c.maxTries
	}

	attempt := 0
	op := func() (*response, error) {
		attempt++
		if attempt > 1 {
			telemetry.GetMetrics().APICallRetriesTotal.Add(ctx, 1)
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, target, reader)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}

		for k, v := range headers {
			req.Header[k] = v
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		if req.Header.Get("X-Request-Id") == "" {
			req.Header.Set("X-Request-Id", requestID())
		}
		// Set last so caller headers can never replace it
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		} else {
			req.Header.Del("Authorization")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if !idempotent || ctx.Err() != nil {
				return nil, backoff.Permanent(fmt.Errorf("request failed: %w", err))
			}
			return nil, fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("failed to read response: %w", err))
		}

		res := &response{status: resp.StatusCode, body: data}

		if idempotent && retryableStatus(resp.StatusCode) && attempt < int(tries) {
			return nil, fmt.Errorf("server returned %d", resp.StatusCode)
		}

		return res, nil
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(tries),
	)
}

// invalidate clears the session after a 401. It is safe to run concurrently:
// only the call that actually clears a session notifies listeners.
func (c *Client) invalidate(ctx context.Context, path, token, message string) {
	// A newer session may have been established while this call was in flight.
	if current, ok := c.creds.Credential(ctx); ok && current != token {
		log.Debug().Str("path", path).Msg("ignoring 401 for a replaced credential")
		return
	}

	cleared, err := c.creds.Invalidate(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to clear session after 401")
	}
	if !cleared {
		return
	}

	telemetry.GetMetrics().SessionInvalidationsTotal.Add(ctx, 1)
	log.Info().Str("path", path).Msg("session invalidated by server")

	c.mu.Lock()
	listeners := make([]func(Invalidation), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	ev := Invalidation{Path: path, Message: message}
	for _, fn := range listeners {
		fn(ev)
	}
}

func retryableStatus(status int) bool {
	switch status {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func requestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
