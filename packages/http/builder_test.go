package http

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBase = "https://reqres.example.com"

func TestRequestBuilder_Build(t *testing.T) {
	cfg, err := NewRequestBuilder(testBase, MethodGet, "api/users").
		WithQueryParameter("page", "1").
		WithHeader("Accept", "application/json").
		Build()
	require.NoError(t, err)

	assert.Equal(t, MethodGet, cfg.Method())
	assert.Equal(t, testBase, cfg.BaseURL())
	assert.Equal(t, "api/users", cfg.Resource())
	assert.Equal(t, map[string]string{"page": "1"}, cfg.QueryParams())
	assert.Equal(t, map[string]string{"Accept": "application/json"}, cfg.Headers())
	assert.Nil(t, cfg.Body())
	assert.Equal(t, NoAuth{}, cfg.Authenticator())

	url, err := cfg.ResolveURL()
	require.NoError(t, err)
	assert.Equal(t, testBase+"/api/users?page=1", url)
}

func TestRequestBuilder_LastWriteWins(t *testing.T) {
	cfg, err := NewRequestBuilder(testBase, MethodPost, "api/users/{id}").
		WithQueryParameter("page", "1").
		WithQueryParameter("page", "2").
		WithURLSegment("id", "1").
		WithURLSegment("id", "7").
		WithHeader("X-Trace", "a").
		WithHeader("x-trace", "b").
		WithJSONBody(`{"first":true}`).
		WithJSONBody(map[string]int{"second": 2}).
		WithBasicAuthentication("eve", "secret").
		Build()
	require.NoError(t, err)

	assert.Equal(t, "2", cfg.QueryParams()["page"])
	assert.Equal(t, "7", cfg.URLSegments()["id"])
	assert.Equal(t, map[string]string{"X-Trace": "b", "Content-Type": "application/json"}, cfg.Headers())
	assert.JSONEq(t, `{"second":2}`, string(cfg.Body()))
	assert.Equal(t, BasicAuth{Username: "eve", Password: "secret"}, cfg.Authenticator())

	url, err := cfg.ResolveURL()
	require.NoError(t, err)
	assert.Equal(t, testBase+"/api/users/7?page=2", url)
}

func TestRequestBuilder_EmptyQueryParameterName(t *testing.T) {
	b := NewRequestBuilder(testBase, MethodGet, "api/users").
		WithQueryParameter("", "1").
		WithHeader("Accept", "application/json")

	var cfgErr *ConfigurationError
	require.ErrorAs(t, b.Err(), &cfgErr)
	assert.Equal(t, "queryParams", cfgErr.Field)

	cfg, err := b.Build()
	assert.Nil(t, cfg)
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "queryParams", cfgErr.Field, "the first error is kept")
}

func TestRequestBuilder_InvalidHeaders(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"empty name", "", "x"},
		{"blank name", "   ", "x"},
		{"newline in name", "X-\nBad", "x"},
		{"newline in value", "X-Bad", "a\r\nInjected: yes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRequestBuilder(testBase, MethodGet, "api").WithHeader(tt.key, tt.value).Build()
			var cfgErr *ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, "headers", cfgErr.Field)
		})
	}
}

func TestRequestBuilder_Validation(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		method   Method
		resource string
		field    string
	}{
		{"missing base", "", MethodGet, "api/users", "baseURL"},
		{"relative base", "reqres.in", MethodGet, "api/users", "baseURL"},
		{"bad method", testBase, Method("TRACE"), "api/users", "method"},
		{"missing resource", testBase, MethodGet, "", "resource"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRequestBuilder(tt.base, tt.method, tt.resource).Build()
			var cfgErr *ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestRequestBuilder_SnapshotIsImmutable(t *testing.T) {
	b := NewRequestBuilder(testBase, MethodGet, "api/users").WithQueryParameter("page", "1")
	cfg, err := b.Build()
	require.NoError(t, err)

	b.WithQueryParameter("page", "2")
	params := cfg.QueryParams()
	params["page"] = "3"

	assert.Equal(t, "1", cfg.QueryParams()["page"])
}

func TestRequestBuilder_JSONBody(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"string is raw json", `{"name":"morpheus"}`, `{"name":"morpheus"}`},
		{"bytes are raw json", []byte(`{"job":"leader"}`), `{"job":"leader"}`},
		{"raw message", json.RawMessage(`[1,2]`), `[1,2]`},
		{"struct is marshaled", struct {
			Name string `json:"name"`
		}{"neo"}, `{"name":"neo"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := NewRequestBuilder(testBase, MethodPost, "api/users").WithJSONBody(tt.value).Build()
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(cfg.Body()))
			assert.Equal(t, "application/json", cfg.Headers()["Content-Type"])
		})
	}

	t.Run("unmarshalable value", func(t *testing.T) {
		_, err := NewRequestBuilder(testBase, MethodPost, "api/users").WithJSONBody(make(chan int)).Build()
		var cfgErr *ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "body", cfgErr.Field)
	})

	t.Run("explicit content type is kept", func(t *testing.T) {
		cfg, err := NewRequestBuilder(testBase, MethodPost, "api/users").
			WithHeader("content-type", "application/vnd.api+json").
			WithJSONBody(`{}`).
			Build()
		require.NoError(t, err)
		assert.Equal(t, "application/vnd.api+json", cfg.Headers()["Content-Type"])
	})
}

func TestRequestConfig_ResolveURL(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		resource string
		segments map[string]string
		want     string
		wantErr  bool
	}{
		{"trailing slash base", testBase + "/", "api/users", nil, testBase + "/api/users", false},
		{"leading slash resource", testBase, "/api/users", nil, testBase + "/api/users", false},
		{"single segment", testBase, "api/users/{id}", map[string]string{"id": "23"}, testBase + "/api/users/23", false},
		{"two segments", testBase, "api/{kind}/{id}", map[string]string{"kind": "users", "id": "2"}, testBase + "/api/users/2", false},
		{"extra segment ignored", testBase, "api/users", map[string]string{"id": "2"}, testBase + "/api/users", false},
		{"missing segment", testBase, "api/users/{id}", nil, "", true},
		{"partially covered", testBase, "api/{kind}/{id}", map[string]string{"kind": "users"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewRequestBuilder(tt.base, MethodGet, tt.resource)
			for k, v := range tt.segments {
				b.WithURLSegment(k, v)
			}
			cfg, err := b.Build()
			require.NoError(t, err)

			got, err := cfg.ResolveURL()
			if tt.wantErr {
				var cfgErr *ConfigurationError
				require.ErrorAs(t, err, &cfgErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRequestConfig_Placeholders(t *testing.T) {
	cfg, err := NewRequestBuilder(testBase, MethodGet, "api/{kind}/{id}/avatar").Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"kind", "id"}, cfg.Placeholders())
}

func TestRequestBuilder_CookieAuthentication(t *testing.T) {
	cookies := []*http.Cookie{
		{Name: "A", Value: "1"},
		{Name: "B", Value: "2"},
		{Name: "A", Value: "3", Path: "/api", Domain: "reqres.example.com"},
	}

	b := NewRequestBuilder(testBase, MethodGet, "api/me").WithCookieAuthentication(cookies, "A")
	first, err := b.Build()
	require.NoError(t, err)

	b.WithCookieAuthentication(cookies, "A")
	second, err := b.Build()
	require.NoError(t, err)

	want := CookieAuth{Name: "A", Value: "3", Path: "/api", Domain: "reqres.example.com"}
	assert.Equal(t, want, first.Authenticator())
	assert.Equal(t, first.Authenticator(), second.Authenticator())
}
