package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Response is the envelope of one executed call. It is filled in for every
// status code; only transport failures prevent a Response from existing.
type Response struct {
	StatusCode int
	Status     string
	Headers    map[string]string
	Body       []byte
	Duration   time.Duration
	RequestID  string

	cookies []*http.Cookie
}

// TypedResponse carries the envelope plus the body decoded into T. Data is nil
// when the body could not be decoded; DecodeErr then holds the reason.
type TypedResponse[T any] struct {
	*Response
	Data      *T
	DecodeErr error
}

// IsSuccessful reports whether the status code is in the 2xx range.
func (r *Response) IsSuccessful() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response) BodyString() string {
	return string(r.Body)
}

func (r *Response) BodyJSON() (any, error) {
	var result any
	if err := json.Unmarshal(r.Body, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Get looks up a gjson path in the body.
func (r *Response) Get(path string) gjson.Result {
	return gjson.GetBytes(r.Body, path)
}

// HasValues reports whether the body is a JSON object or array with at least
// one element. Empty bodies, {} and [] all report false.
func (r *Response) HasValues() bool {
	parsed := gjson.ParseBytes(r.Body)
	if !parsed.IsObject() && !parsed.IsArray() {
		return false
	}
	found := false
	parsed.ForEach(func(_, _ gjson.Result) bool {
		found = true
		return false
	})
	return found
}

func (r *Response) Header(key string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

// Cookies returns the cookies set by the response.
func (r *Response) Cookies() []*http.Cookie {
	return r.cookies
}

func (r *Response) ContentType() string {
	return r.Header("Content-Type")
}

func (r *Response) IsJSON() bool {
	ct := r.ContentType()
	return strings.Contains(ct, "application/json")
}

func (r *Response) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

func (r *Response) IsServerError() bool {
	return r.StatusCode >= 500
}

func (r *Response) DurationMs() int64 {
	return r.Duration.Milliseconds()
}
