package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"strings"
)

// RequestBuilder accumulates the configuration of one call without doing any
// I/O. Every With* method returns the builder for chaining; setting a field
// twice keeps the last value.
//
// The first invalid input poisons the builder: later calls are ignored and
// Build returns that error.
type RequestBuilder struct {
	cfg     RequestConfig
	body    any
	hasBody bool
	err     error
}

// NewRequestBuilder starts a builder for method and resource relative to baseURL.
func NewRequestBuilder(baseURL string, method Method, resource string) *RequestBuilder {
	return &RequestBuilder{
		cfg: RequestConfig{
			method:      method,
			baseURL:     strings.TrimSpace(baseURL),
			resource:    resource,
			queryParams: make(map[string]string),
			urlSegments: make(map[string]string),
			headers:     make(map[string]string),
		},
	}
}

// Err returns the error recorded by an earlier With* call, if any.
func (b *RequestBuilder) Err() error {
	return b.err
}

func (b *RequestBuilder) fail(field, reason string) *RequestBuilder {
	if b.err == nil {
		b.err = &ConfigurationError{Field: field, Reason: reason}
	}
	return b
}

func (b *RequestBuilder) WithQueryParameter(name, value string) *RequestBuilder {
	if b.err != nil {
		return b
	}
	if name == "" {
		return b.fail("queryParams", "parameter name must not be empty")
	}
	b.cfg.queryParams[name] = value
	return b
}

// WithURLSegment registers the value substituted for {name} in the resource.
// Unknown placeholders are only detected when the request is executed.
func (b *RequestBuilder) WithURLSegment(name, value string) *RequestBuilder {
	if b.err != nil {
		return b
	}
	if name == "" {
		return b.fail("urlSegments", "segment name must not be empty")
	}
	b.cfg.urlSegments[name] = value
	return b
}

// WithJSONBody sets the request body, replacing any previous one. Strings,
// []byte and json.RawMessage are sent as-is; anything else is marshaled on Build.
func (b *RequestBuilder) WithJSONBody(value any) *RequestBuilder {
	if b.err != nil {
		return b
	}
	b.body = value
	b.hasBody = true
	return b
}

func (b *RequestBuilder) WithHeader(name, value string) *RequestBuilder {
	if b.err != nil {
		return b
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return b.fail("headers", "header name must not be empty")
	}
	if strings.ContainsAny(name, "\r\n") {
		return b.fail("headers", fmt.Sprintf("invalid header name %q", name))
	}
	if strings.ContainsAny(value, "\r\n") {
		return b.fail("headers", fmt.Sprintf("invalid value for header %s", name))
	}
	b.cfg.headers[http.CanonicalHeaderKey(name)] = value
	return b
}

// WithBasicAuthentication replaces the authenticator with HTTP basic auth.
func (b *RequestBuilder) WithBasicAuthentication(username, password string) *RequestBuilder {
	return b.WithAuthenticator(BasicAuth{Username: username, Password: password})
}

// WithCookieAuthentication authenticates with the last cookie named neededName
// in cookies. When none matches, an empty cookie authenticator is installed.
func (b *RequestBuilder) WithCookieAuthentication(cookies []*http.Cookie, neededName string) *RequestBuilder {
	return b.WithAuthenticator(SelectCookie(cookies, neededName))
}

func (b *RequestBuilder) WithAuthenticator(a Authenticator) *RequestBuilder {
	if b.err != nil {
		return b
	}
	b.cfg.authenticator = a
	return b
}

// Build validates the accumulated settings and returns an immutable snapshot.
// Placeholder coverage is not checked here; see RequestConfig.ResolveURL.
func (b *RequestBuilder) Build() (*RequestConfig, error) {
	if b.err != nil {
		return nil, b.err
	}
	if !b.cfg.method.valid() {
		return nil, &ConfigurationError{Field: "method", Reason: fmt.Sprintf("unsupported method %q", b.cfg.method)}
	}
	if b.cfg.baseURL == "" {
		return nil, &ConfigurationError{Field: "baseURL", Reason: "base URL is required"}
	}
	if err := ValidateURL(b.cfg.baseURL); err != nil {
		return nil, &ConfigurationError{Field: "baseURL", Reason: err.Error()}
	}
	if strings.TrimSpace(b.cfg.resource) == "" {
		return nil, &ConfigurationError{Field: "resource", Reason: "resource is required"}
	}

	snapshot := RequestConfig{
		method:        b.cfg.method,
		baseURL:       b.cfg.baseURL,
		resource:      b.cfg.resource,
		queryParams:   maps.Clone(b.cfg.queryParams),
		urlSegments:   maps.Clone(b.cfg.urlSegments),
		headers:       maps.Clone(b.cfg.headers),
		authenticator: b.cfg.authenticator,
	}

	if b.hasBody {
		body, err := encodeBody(b.body)
		if err != nil {
			return nil, err
		}
		snapshot.body = body
		if _, ok := snapshot.headers["Content-Type"]; !ok {
			snapshot.headers["Content-Type"] = "application/json"
		}
	}

	return &snapshot, nil
}

func encodeBody(value any) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return []byte("null"), nil
	case json.RawMessage:
		return bytes.Clone(v), nil
	case []byte:
		return bytes.Clone(v), nil
	case string:
		return []byte(v), nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, &ConfigurationError{Field: "body", Reason: err.Error()}
	}
	return data, nil
}
