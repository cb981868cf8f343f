package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type user struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
}

type singleUser struct {
	Data *user `json:"data"`
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...ClientOption) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, server
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient("")
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "baseURL", cfgErr.Field)

	_, err = NewClient("ftp://example.com")
	require.ErrorAs(t, err, &cfgErr)
}

func TestNewClient_InvalidProxy(t *testing.T) {
	_, err := NewClient("http://example.com", WithProxy("://bad"))
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "proxy", cfgErr.Field)
}

func TestClient_Execute_Get(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/api/users/2", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"data": {"id": 2, "email": "janet@example.com"}}`))
	})

	cfg, err := client.Get("api/users/{id}").
		WithURLSegment("id", "2").
		WithQueryParameter("page", "1").
		Build()
	require.NoError(t, err)

	resp, err := client.Execute(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.True(t, resp.IsSuccessful())
	assert.True(t, resp.IsJSON())
	assert.Equal(t, int64(2), resp.Get("data.id").Int())
}

func TestClient_Execute_NonSuccessIsNotAnError(t *testing.T) {
	statuses := []int{200, 201, 204, 299, 301, 400, 404, 500, 503}
	for _, status := range statuses {
		t.Run(strconv.Itoa(status), func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
			}, WithFollowRedirects(false))

			cfg, err := client.Get("anything").Build()
			require.NoError(t, err)

			resp, err := ExecuteAs[singleUser](context.Background(), client, cfg)
			require.NoError(t, err)
			assert.Equal(t, status, resp.StatusCode)
			assert.Equal(t, status >= 200 && status <= 299, resp.IsSuccessful())
		})
	}
}

func TestClient_Execute_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client, err := NewClient(url)
	require.NoError(t, err)
	defer client.Close()

	cfg, err := client.Get("api/users").Build()
	require.NoError(t, err)

	_, err = client.Execute(context.Background(), cfg)
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, "GET", transportErr.Method)
	assert.Contains(t, transportErr.URL, "/api/users")
}

func TestClient_Execute_UnresolvedPlaceholder(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
	})

	cfg, err := client.Get("api/users/{id}").Build()
	require.NoError(t, err, "placeholders are only checked at execution time")

	_, err = client.Execute(context.Background(), cfg)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Reason, "id")
	assert.Zero(t, calls)
}

func TestClient_WithTimeout(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}, WithTimeout(50*time.Millisecond))

	cfg, err := client.Get("slow").Build()
	require.NoError(t, err)

	_, err = client.Execute(context.Background(), cfg)
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Contains(t, err.Error(), "context deadline exceeded")
}

func TestClient_DefaultHeadersAndRequestID(t *testing.T) {
	var gotID string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "custom-agent", r.Header.Get("User-Agent"))
		assert.Equal(t, "override", r.Header.Get("X-Env"))
		gotID = r.Header.Get(RequestIDHeader)
		w.WriteHeader(http.StatusOK)
	}, WithDefaultHeaders(map[string]string{
		"User-Agent": "custom-agent",
		"X-Env":      "default",
	}), WithRequestID(true))

	cfg, err := client.Get("headers").WithHeader("x-env", "override").Build()
	require.NoError(t, err)

	resp, err := client.Execute(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotEmpty(t, gotID)
	assert.Equal(t, gotID, resp.RequestID)
}

func TestClient_PostJSONBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write(body)
	})

	cfg, err := client.Post("api/users").
		WithJSONBody(map[string]string{"name": "morpheus", "job": "leader"}).
		Build()
	require.NoError(t, err)

	created, err := ExecuteExpecting[map[string]string](context.Background(), client, cfg, http.StatusCreated)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"name": "morpheus", "job": "leader"}, created)
}

func TestClient_BasicAuthentication(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "eve" || pass != "cityslicka" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	cfg, err := client.Get("api/me").WithBasicAuthentication("eve", "cityslicka").Build()
	require.NoError(t, err)
	resp, err := client.Execute(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	cfg, err = client.Get("api/me").WithBasicAuthentication("eve", "wrong").Build()
	require.NoError(t, err)
	resp, err = client.Execute(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestClient_CookieAuthentication(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("session")
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(c.Value))
	})

	cookies := []*http.Cookie{
		{Name: "session", Value: "first"},
		{Name: "theme", Value: "dark"},
		{Name: "session", Value: "last"},
	}

	cfg, err := client.Get("api/me").WithCookieAuthentication(cookies, "session").Build()
	require.NoError(t, err)
	resp, err := client.Execute(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "last", resp.BodyString())

	cfg, err = client.Get("api/me").WithCookieAuthentication(cookies, "missing").Build()
	require.NoError(t, err)
	resp, err = client.Execute(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestClient_ResponseCookies(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
		w.WriteHeader(http.StatusOK)
	})

	cfg, err := client.Post("api/login").Build()
	require.NoError(t, err)
	resp, err := client.Execute(context.Background(), cfg)
	require.NoError(t, err)

	require.Len(t, resp.Cookies(), 1)
	assert.Equal(t, "abc", SelectCookie(resp.Cookies(), "session").Value)
}

func TestClient_FollowRedirects(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/final" {
			_, _ = w.Write([]byte(`final`))
			return
		}
		http.Redirect(w, r, "/final", http.StatusFound)
	})

	cfg, err := client.Get("redirect").Build()
	require.NoError(t, err)
	resp, err := client.Execute(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "final", resp.BodyString())
}

func TestClient_NoFollowRedirects(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusFound)
	}, WithFollowRedirects(false))

	cfg, err := client.Get("redirect").Build()
	require.NoError(t, err)
	resp, err := client.Execute(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 302, resp.StatusCode)
}

func TestClient_Close(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	cfg, err := client.Get("ping").Build()
	require.NoError(t, err)

	require.NoError(t, client.Close())
	require.NoError(t, client.Close(), "second Close must not fault")

	_, err = client.Execute(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrClientClosed)

	_, err = ExecuteAs[singleUser](context.Background(), client, cfg)
	var disposed *UseAfterDisposeError
	assert.ErrorAs(t, err, &disposed)

	_, err = ExecuteExpecting[singleUser](context.Background(), client, cfg, 200)
	assert.ErrorIs(t, err, ErrClientClosed)
}

func TestExecuteAs(t *testing.T) {
	t.Run("decodes body", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"data": {"id": 2, "email": "janet@example.com"}}`))
		})
		cfg, err := client.Get("api/users/2").Build()
		require.NoError(t, err)

		resp, err := ExecuteAs[singleUser](context.Background(), client, cfg)
		require.NoError(t, err)
		require.NotNil(t, resp.Data)
		require.NotNil(t, resp.Data.Data)
		assert.Equal(t, 2, resp.Data.Data.ID)
		assert.NoError(t, resp.DecodeErr)
	})

	t.Run("undecodable body leaves data absent", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>oops</html>`))
		})
		cfg, err := client.Get("api/users/2").Build()
		require.NoError(t, err)

		resp, err := ExecuteAs[singleUser](context.Background(), client, cfg)
		require.NoError(t, err)
		assert.Nil(t, resp.Data)
		assert.Error(t, resp.DecodeErr)
		assert.Equal(t, "<html>oops</html>", resp.BodyString())
	})

	t.Run("empty body leaves data absent", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		cfg, err := client.Get("api/users/23").Build()
		require.NoError(t, err)

		resp, err := ExecuteAs[singleUser](context.Background(), client, cfg)
		require.NoError(t, err)
		assert.Equal(t, 404, resp.StatusCode)
		assert.Nil(t, resp.Data)
	})
}

func TestExecuteExpecting(t *testing.T) {
	t.Run("matching status with empty body", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		cfg, err := client.Get("api/users/23").Build()
		require.NoError(t, err)

		got, err := ExecuteExpecting[singleUser](context.Background(), client, cfg, http.StatusNotFound)
		require.NoError(t, err)
		assert.Nil(t, got.Data)
	})

	t.Run("mismatched status", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"data": {"id": 2}}`))
		})
		cfg, err := client.Get("api/users/2").Build()
		require.NoError(t, err)

		_, err = ExecuteExpecting[singleUser](context.Background(), client, cfg, http.StatusNotFound)
		var statusErr *UnexpectedStatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, 404, statusErr.Expected)
		assert.Equal(t, 200, statusErr.Actual)
	})

	t.Run("undecodable body", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"data": "not an object"}`))
		})
		cfg, err := client.Get("api/users/2").Build()
		require.NoError(t, err)

		_, err = ExecuteExpecting[singleUser](context.Background(), client, cfg, http.StatusOK)
		var decodeErr *DeserializationError
		require.ErrorAs(t, err, &decodeErr)
		assert.Equal(t, "http.singleUser", decodeErr.Target)
		assert.False(t, errors.Is(err, ErrClientClosed))
	})
}

func TestResponse_HasValues(t *testing.T) {
	tests := []struct {
		body string
		want bool
	}{
		{"", false},
		{"{}", false},
		{"[]", false},
		{"null", false},
		{`{"a":1}`, true},
		{`[1]`, true},
	}
	for _, tt := range tests {
		r := &Response{Body: []byte(tt.body)}
		assert.Equal(t, tt.want, r.HasValues(), "body %q", tt.body)
	}
}
