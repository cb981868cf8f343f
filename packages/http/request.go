package http

import (
	"bytes"
	"fmt"
	"maps"
	"net/http"
	neturl "net/url"
	"regexp"
	"strings"
)

// Method is an HTTP verb accepted by the request builder.
type Method string

const (
	MethodGet    Method = http.MethodGet
	MethodPost   Method = http.MethodPost
	MethodPut    Method = http.MethodPut
	MethodPatch  Method = http.MethodPatch
	MethodDelete Method = http.MethodDelete
)

func (m Method) valid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete:
		return true
	}
	return false
}

var segmentPattern = regexp.MustCompile(`\{([^{}/]+)\}`)

// RequestConfig is an immutable description of one HTTP call, produced by
// RequestBuilder.Build. Accessors return copies.
type RequestConfig struct {
	method        Method
	baseURL       string
	resource      string
	queryParams   map[string]string
	urlSegments   map[string]string
	headers       map[string]string
	body          []byte
	authenticator Authenticator
}

func (c *RequestConfig) Method() Method   { return c.method }
func (c *RequestConfig) BaseURL() string  { return c.baseURL }
func (c *RequestConfig) Resource() string { return c.resource }

func (c *RequestConfig) QueryParams() map[string]string { return maps.Clone(c.queryParams) }
func (c *RequestConfig) URLSegments() map[string]string { return maps.Clone(c.urlSegments) }
func (c *RequestConfig) Headers() map[string]string     { return maps.Clone(c.headers) }

// Body returns a copy of the serialized JSON body, or nil when none was set.
func (c *RequestConfig) Body() []byte {
	if c.body == nil {
		return nil
	}
	return bytes.Clone(c.body)
}

// Authenticator returns the configured authenticator; NoAuth when none was set.
func (c *RequestConfig) Authenticator() Authenticator {
	if c.authenticator == nil {
		return NoAuth{}
	}
	return c.authenticator
}

// Placeholders lists the {name} placeholders of the resource template in order.
func (c *RequestConfig) Placeholders() []string {
	matches := segmentPattern.FindAllStringSubmatch(c.resource, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

// ResolveURL substitutes URL segments into the resource template, joins it to
// the base URL and appends the query parameters. Every placeholder must have a
// registered segment.
func (c *RequestConfig) ResolveURL() (string, error) {
	var missing []string
	resource := segmentPattern.ReplaceAllStringFunc(c.resource, func(match string) string {
		name := match[1 : len(match)-1]
		value, ok := c.urlSegments[name]
		if !ok {
			missing = append(missing, name)
			return match
		}
		return value
	})
	if len(missing) > 0 {
		return "", &ConfigurationError{
			Field:  "urlSegments",
			Reason: fmt.Sprintf("unresolved placeholder(s) %s in %q", strings.Join(missing, ", "), c.resource),
		}
	}

	full := joinURL(c.baseURL, resource)
	if len(c.queryParams) == 0 {
		return full, nil
	}

	u, err := neturl.Parse(full)
	if err != nil {
		return "", &ConfigurationError{Field: "resource", Reason: err.Error()}
	}
	q := u.Query()
	for k, v := range c.queryParams {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func joinURL(base, resource string) string {
	if resource == "" {
		return base
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(resource, "/")
}

// ValidateURL checks that a URL is well-formed and uses an allowed scheme
func ValidateURL(rawURL string) error {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %s (only http and https are allowed)", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}

	return nil
}
