package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"unicode"

	"github.com/google/uuid"

	"github.com/jonwraymond/storefront/observe"
	"github.com/jonwraymond/storefront/resilience"
	"github.com/jonwraymond/storefront/session"
)

// DefaultUserAgent is sent when no user agent is configured.
const DefaultUserAgent = "storefront-client"

// RequestIDHeader carries the per-request id.
const RequestIDHeader = "X-Request-ID"

const maxErrorBody = 64 << 10

// Client is the REST client of one actor.
type Client struct {
	actor     session.Actor
	base      *url.URL
	http      *http.Client
	exec      *resilience.Executor
	mw        *observe.Middleware
	logger    observe.Logger
	userAgent string

	mu    sync.RWMutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client. A client without a
// cookie jar gets its own.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithExecutor sets the resilience executor requests run through.
func WithExecutor(e *resilience.Executor) Option {
	return func(c *Client) { c.exec = e }
}

// WithMiddleware sets the observability middleware.
func WithMiddleware(mw *observe.Middleware) Option {
	return func(c *Client) { c.mw = mw }
}

// WithToken sets the initial bearer token, typically from a restored
// session.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates a client for actor against baseURL.
func New(baseURL string, actor session.Actor, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, ErrMissingBaseURL
	}
	if _, err := session.ParseActor(string(actor)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownActor, err)
	}
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("api: parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("api: base url %q must be absolute", baseURL)
	}

	c := &Client{actor: actor, base: base, userAgent: DefaultUserAgent}
	for _, opt := range opts {
		opt(c)
	}

	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("api: cookie jar: %w", err)
		}
		hc := *c.http
		hc.Jar = jar
		c.http = &hc
	}
	if c.exec == nil {
		c.exec = resilience.NewExecutor()
	}
	if c.mw == nil {
		c.mw = observe.NopMiddleware()
	}
	c.logger = c.mw.Logger().With(observe.F("component", "api"), observe.F("actor", string(actor)))
	return c, nil
}

// NewExecutor builds the executor for an actor's client. Only transport
// failures and 5xx responses count against the circuit breaker.
func NewExecutor(actor session.Actor, cfg resilience.Config, logger observe.Logger) *resilience.Executor {
	if logger == nil {
		logger = observe.NopLogger()
	}
	onChange := func(name string, from, to resilience.State) {
		logger.Warn(context.Background(), "circuit state changed",
			observe.F("backend", name),
			observe.F("from", from.String()),
			observe.F("to", to.String()),
		)
	}
	return resilience.NewExecutorFromConfig(string(actor), cfg, onChange, countsAsFailure)
}

// Actor returns the actor this client acts for.
func (c *Client) Actor() session.Actor { return c.actor }

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string { return c.base.String() }

// Executor returns the resilience executor.
func (c *Client) Executor() *resilience.Executor { return c.exec }

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken replaces the bearer token. An empty token stops sending the
// Authorization header.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Do sends a JSON request and decodes a JSON response into out. body and
// out may be nil. Non-2xx responses return *Error.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	return c.send(ctx, method, path, query, body, func(resp *http.Response) error {
		if out == nil || resp.StatusCode == http.StatusNoContent {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("api: decode %s %s: %w", method, path, err)
		}
		return nil
	})
}

// Blob is a binary response such as an invoice.
type Blob struct {
	Data        []byte
	ContentType string
	Filename    string
}

// Raw sends a request and returns the response body unparsed.
func (c *Client) Raw(ctx context.Context, method, path string, query url.Values) (*Blob, error) {
	var blob Blob
	err := c.send(ctx, method, path, query, nil, func(resp *http.Response) error {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("api: read %s %s: %w", method, path, err)
		}
		blob.Data = data
		blob.ContentType = resp.Header.Get("Content-Type")
		if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
			blob.Filename = params["filename"]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &blob, nil
}

// Ping checks that the backend answers at all. It bypasses the executor
// so an open circuit does not hide a recovered backend; any response
// below 500 counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.base.String(), nil)
	if err != nil {
		return fmt.Errorf("api: create ping request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("api: ping: %w", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return &Error{StatusCode: resp.StatusCode}
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body any, handle func(*http.Response) error) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("api: encode %s %s: %w", method, path, err)
		}
	}

	requestID := uuid.NewString()
	meta := observe.OperationMeta{
		Kind:     observe.KindHTTP,
		Name:     method + " " + routeOf(path),
		Resource: resourceOf(path),
		Actor:    string(c.actor),
	}
	return c.mw.Run(ctx, meta, func(ctx context.Context) error {
		return c.exec.Execute(ctx, func(ctx context.Context) error {
			req, err := c.newRequest(ctx, method, path, query, payload, requestID)
			if err != nil {
				return err
			}
			resp, err := c.http.Do(req)
			if err != nil {
				return fmt.Errorf("api: %s %s: %w", method, path, err)
			}
			defer func() { _ = resp.Body.Close() }()

			if resp.StatusCode >= http.StatusBadRequest {
				data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
				apiErr := parseError(resp.StatusCode, data, requestID)
				c.logger.Debug(ctx, "request failed",
					observe.F("method", method),
					observe.F("path", path),
					observe.F("status", resp.StatusCode),
					observe.F("request_id", requestID),
				)
				return apiErr
			}
			return handle(resp)
		})
	})
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, payload []byte, requestID string) (*http.Request, error) {
	u := c.base.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("api: create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(RequestIDHeader, requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// routeOf replaces path segments that look like identifiers with ":id"
// so operation names stay low-cardinality.
func routeOf(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, s := range segments {
		if strings.IndexFunc(s, unicode.IsDigit) >= 0 {
			segments[i] = ":id"
		}
	}
	return "/" + strings.Join(segments, "/")
}

func resourceOf(path string) string {
	trimmed := strings.Trim(path, "/")
	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		return trimmed[:i]
	}
	return trimmed
}
