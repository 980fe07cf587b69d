// Package httpapi implements repository.DocumentRepository over the vault's
// REST + multipart API.
//
// Every request goes through Client.do, which attaches the session
// credential, records metrics, and turns any failure into a single
// *apperror.Error. A 401 from any endpoint clears the session there, so the
// contract is enforced in one place rather than per endpoint.
package httpapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"docvault/internal/apperror"
	"docvault/internal/logger"
	"docvault/internal/repository"
	"docvault/internal/session"
)

const (
	DefaultTimeout       = 30 * time.Second
	defaultRetryAttempts = 3
	defaultRetryDelay    = 200 * time.Millisecond
)

// Client talks to the document backend.
type Client struct {
	baseURL  *url.URL
	http     *http.Client
	session  *session.Manager
	log      *zap.Logger
	metrics  *Metrics
	tracing  bool
	attempts uint
	delay    time.Duration
}

var _ repository.DocumentRepository = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client. Its Timeout bounds
// every request.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithMetrics records request counts and latencies into m.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithTracing wraps the transport with OpenTelemetry instrumentation.
func WithTracing() Option {
	return func(c *Client) { c.tracing = true }
}

// WithRetry sets how many times idempotent reads are attempted.
// Attempts below one are treated as one.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(c *Client) {
		if attempts < 1 {
			attempts = 1
		}
		c.attempts = attempts
		c.delay = delay
	}
}

// New returns a Client for the API rooted at baseURL, e.g.
// "http://localhost:8080/api".
func New(baseURL string, sess *session.Manager, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must be http or https", baseURL)
	}
	if sess == nil {
		sess = session.NewManager()
	}

	c := &Client{
		baseURL:  u,
		http:     &http.Client{Timeout: DefaultTimeout},
		session:  sess,
		attempts: defaultRetryAttempts,
		delay:    defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = logger.OrNop(c.log).Named("httpapi")

	base := c.http.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	var rt http.RoundTripper = requestIDTransport{next: base}
	if c.tracing {
		rt = otelhttp.NewTransport(rt)
	}
	hc := *c.http
	hc.Transport = rt
	c.http = &hc

	return c, nil
}

// Session returns the session manager the client authenticates with.
func (c *Client) Session() *session.Manager {
	return c.session
}

func (c *Client) endpoint(elem ...string) string {
	escaped := make([]string, len(elem))
	for i, e := range elem {
		escaped[i] = url.PathEscape(e)
	}
	return c.baseURL.JoinPath(escaped...).String()
}

func (c *Client) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// do sends req and returns the response when its status is 2xx. Any other
// outcome is returned as an *apperror.Error and the body is closed.
func (c *Client) do(op operation, req *http.Request) (*http.Response, error) {
	c.session.Attach(req)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.observe(op.name, 0, time.Since(start))
		c.log.Warn("request failed",
			zap.String("op", op.name),
			zap.String("method", req.Method),
			zap.String("url", req.URL.Redacted()),
			zap.String("request_id", req.Header.Get(requestIDHeader)),
			zap.Error(err),
		)
		return nil, apperror.Wrap(apperror.KindTransportFailure, op.name, op.fallback, err)
	}
	c.metrics.observe(op.name, resp.StatusCode, time.Since(start))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	// A 401 always drops the session. Only a rejected credential counts as
	// an expiry; a failed login carried none.
	if resp.StatusCode == http.StatusUnauthorized {
		if req.Header.Get("Authorization") != "" {
			c.session.OnAuthenticationFailure()
		} else {
			c.session.ClearCredential()
		}
	}

	appErr := op.errorFor(resp)
	c.log.Warn("request rejected",
		zap.String("op", op.name),
		zap.String("method", req.Method),
		zap.String("url", req.URL.Redacted()),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", resp.Header.Get(requestIDHeader)),
		zap.String("kind", appErr.Kind.String()),
		zap.NamedError("cause", appErr.Err),
	)
	return nil, appErr
}
