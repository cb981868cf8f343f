package http

import (
	"net/http"
	"strings"
)

// Authenticator applies credentials to an outgoing request.
type Authenticator interface {
	Apply(req *http.Request) error
}

// NoAuth sends the request without credentials.
type NoAuth struct{}

func (NoAuth) Apply(*http.Request) error { return nil }

// BasicAuth sends an RFC 7617 Authorization header.
type BasicAuth struct {
	Username string
	Password string
}

func (a BasicAuth) Apply(req *http.Request) error {
	req.SetBasicAuth(a.Username, a.Password)
	return nil
}

// CookieAuth sends a single cookie. Path and Domain scope the cookie the way a
// cookie jar would: when set, the cookie is only attached to matching URLs.
type CookieAuth struct {
	Name   string
	Value  string
	Path   string
	Domain string
}

func (a CookieAuth) Apply(req *http.Request) error {
	// The zero value is what an unmatched cookie selection produces.
	if a.Name == "" {
		return nil
	}
	if a.Domain != "" && !domainMatches(req.URL.Hostname(), a.Domain) {
		return nil
	}
	if a.Path != "" && !pathMatches(req.URL.Path, a.Path) {
		return nil
	}
	req.AddCookie(&http.Cookie{Name: a.Name, Value: a.Value})
	return nil
}

// SelectCookie returns the last cookie in cookies whose name equals name.
// Later entries overwrite earlier ones, so duplicates resolve to the final
// occurrence. An empty CookieAuth is returned when nothing matches.
func SelectCookie(cookies []*http.Cookie, name string) CookieAuth {
	var selected CookieAuth
	for _, c := range cookies {
		if c == nil || c.Name != name {
			continue
		}
		selected = CookieAuth{
			Name:   c.Name,
			Value:  c.Value,
			Path:   c.Path,
			Domain: c.Domain,
		}
	}
	return selected
}

func domainMatches(host, domain string) bool {
	host = strings.ToLower(host)
	domain = strings.ToLower(strings.TrimPrefix(domain, "."))
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func pathMatches(requestPath, cookiePath string) bool {
	if requestPath == "" {
		requestPath = "/"
	}
	if requestPath == cookiePath {
		return true
	}
	if !strings.HasPrefix(requestPath, cookiePath) {
		return false
	}
	return strings.HasSuffix(cookiePath, "/") || requestPath[len(cookiePath)] == '/'
}
