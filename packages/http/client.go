package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 30 * time.Second
	// DefaultMaxRedirects is the maximum number of redirects to follow
	DefaultMaxRedirects = 10
	// DefaultIdleConnTimeout is how long idle connections stay open
	DefaultIdleConnTimeout = 90 * time.Second

	// RequestIDHeader carries the per-call id when WithRequestID is enabled
	RequestIDHeader = "X-Request-Id"
)

// Client executes RequestConfigs against a base URL. It owns its transport
// until Close is called and is meant for sequential use.
type Client struct {
	httpClient     *http.Client
	transport      *http.Transport
	baseURL        string
	timeout        time.Duration
	followRedirect bool
	maxRedirects   int
	validateSSL    bool
	proxyURL       string
	defaultHeaders map[string]string
	requestID      bool
	roundTripper   http.RoundTripper
	logger         zerolog.Logger
	closed         atomic.Bool
}

type ClientOption func(*Client)

// NewClient creates a client bound to baseURL, which must be an absolute
// http or https URL.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, &ConfigurationError{Field: "baseURL", Reason: "base URL is required"}
	}
	if err := ValidateURL(baseURL); err != nil {
		return nil, &ConfigurationError{Field: "baseURL", Reason: err.Error()}
	}

	c := &Client{
		baseURL:        baseURL,
		timeout:        DefaultTimeout,
		followRedirect: true,
		maxRedirects:   DefaultMaxRedirects,
		validateSSL:    true,
		defaultHeaders: make(map[string]string),
		logger:         zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	rt := c.roundTripper
	if rt == nil {
		c.transport = &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			IdleConnTimeout: DefaultIdleConnTimeout,
		}

		if !c.validateSSL {
			c.transport.TLSClientConfig = &tls.Config{
				InsecureSkipVerify: true,
			}
		}

		if c.proxyURL != "" {
			proxyURL, err := neturl.Parse(c.proxyURL)
			if err != nil {
				return nil, &ConfigurationError{Field: "proxy", Reason: err.Error()}
			}
			c.transport.Proxy = http.ProxyURL(proxyURL)
		}
		rt = c.transport
	}

	redirectPolicy := func(req *http.Request, via []*http.Request) error {
		if !c.followRedirect {
			return http.ErrUseLastResponse
		}
		if len(via) >= c.maxRedirects {
			return http.ErrUseLastResponse
		}
		return nil
	}

	c.httpClient = &http.Client{
		Transport:     rt,
		Timeout:       c.timeout,
		CheckRedirect: redirectPolicy,
	}

	return c, nil
}

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

func WithFollowRedirects(follow bool) ClientOption {
	return func(c *Client) {
		c.followRedirect = follow
	}
}

func WithMaxRedirects(max int) ClientOption {
	return func(c *Client) {
		c.maxRedirects = max
	}
}

func WithDefaultHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.defaultHeaders[key] = value
	}
}

// WithDefaultHeaders sets multiple default headers for all requests
func WithDefaultHeaders(headers map[string]string) ClientOption {
	return func(c *Client) {
		for k, v := range headers {
			c.defaultHeaders[k] = v
		}
	}
}

// WithValidateSSL enables or disables SSL certificate validation
func WithValidateSSL(validate bool) ClientOption {
	return func(c *Client) {
		c.validateSSL = validate
	}
}

// WithProxy sets the proxy URL for all requests
func WithProxy(proxyURL string) ClientOption {
	return func(c *Client) {
		c.proxyURL = proxyURL
	}
}

// WithRequestID tags every request with a fresh X-Request-Id.
func WithRequestID(enabled bool) ClientOption {
	return func(c *Client) {
		c.requestID = enabled
	}
}

// WithLogger sets the logger used for per-request debug traces.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTransport replaces the client's own transport. Close does not release
// a transport supplied this way.
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *Client) {
		c.roundTripper = rt
	}
}

// BaseURL returns the URL all builders created by this client are relative to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request starts a builder for method and resource relative to the client base URL.
func (c *Client) Request(method Method, resource string) *RequestBuilder {
	return NewRequestBuilder(c.baseURL, method, resource)
}

func (c *Client) Get(resource string) *RequestBuilder    { return c.Request(MethodGet, resource) }
func (c *Client) Post(resource string) *RequestBuilder   { return c.Request(MethodPost, resource) }
func (c *Client) Put(resource string) *RequestBuilder    { return c.Request(MethodPut, resource) }
func (c *Client) Patch(resource string) *RequestBuilder  { return c.Request(MethodPatch, resource) }
func (c *Client) Delete(resource string) *RequestBuilder { return c.Request(MethodDelete, resource) }

// Close releases the transport. It is safe to call more than once.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if c.transport != nil {
		c.transport.CloseIdleConnections()
	}
	return nil
}

// Execute sends the request and returns the response envelope whatever the
// status code. Errors are limited to configuration problems, a closed client
// and transport failures.
func (c *Client) Execute(ctx context.Context, cfg *RequestConfig) (*Response, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}
	if cfg == nil {
		return nil, &ConfigurationError{Reason: "request config is nil"}
	}

	target, err := cfg.ResolveURL()
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if cfg.body != nil {
		body = bytes.NewReader(cfg.body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, string(cfg.method), target, body)
	if err != nil {
		return nil, &ConfigurationError{Field: "resource", Reason: err.Error()}
	}

	for k, v := range c.defaultHeaders {
		httpReq.Header.Set(k, v)
	}

	for k, v := range cfg.headers {
		httpReq.Header.Set(k, v)
	}

	var requestID string
	if c.requestID {
		requestID = uuid.NewString()
		httpReq.Header.Set(RequestIDHeader, requestID)
	}

	if err := cfg.Authenticator().Apply(httpReq); err != nil {
		return nil, fmt.Errorf("applying authenticator: %w", err)
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	duration := time.Since(start)

	if err != nil {
		return nil, &TransportError{Method: httpReq.Method, URL: target, Err: err}
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &TransportError{Method: httpReq.Method, URL: target, Err: err}
	}

	headers := make(map[string]string)
	for k := range httpResp.Header {
		headers[k] = httpResp.Header.Get(k)
	}

	c.logger.Debug().
		Str("method", httpReq.Method).
		Str("url", target).
		Int("status", httpResp.StatusCode).
		Dur("duration", duration).
		Str("request_id", requestID).
		Msg("request completed")

	return &Response{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Headers:    headers,
		Body:       respBody,
		Duration:   duration,
		RequestID:  requestID,
		cookies:    httpResp.Cookies(),
	}, nil
}

// ExecuteAs executes cfg and additionally decodes the body into T. A body that
// does not decode leaves Data nil instead of failing the call.
func ExecuteAs[T any](ctx context.Context, c *Client, cfg *RequestConfig) (*TypedResponse[T], error) {
	resp, err := c.Execute(ctx, cfg)
	if err != nil {
		return nil, err
	}

	typed := &TypedResponse[T]{Response: resp}
	data, err := decode[T](resp.Body)
	if err != nil {
		typed.DecodeErr = err
		return typed, nil
	}
	typed.Data = data
	return typed, nil
}

// ExecuteExpecting executes cfg, requires the status to equal expected and
// returns the decoded body. An empty body yields the zero value of T.
func ExecuteExpecting[T any](ctx context.Context, c *Client, cfg *RequestConfig, expected int) (T, error) {
	var zero T

	resp, err := c.Execute(ctx, cfg)
	if err != nil {
		return zero, err
	}

	if resp.StatusCode != expected {
		return zero, &UnexpectedStatusError{
			Expected: expected,
			Actual:   resp.StatusCode,
			Body:     resp.BodyString(),
		}
	}

	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return zero, nil
	}

	data, err := decode[T](resp.Body)
	if err != nil {
		return zero, &DeserializationError{Target: fmt.Sprintf("%T", zero), Err: err}
	}
	return *data, nil
}

func decode[T any](body []byte) (*T, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, io.ErrUnexpectedEOF
	}
	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
