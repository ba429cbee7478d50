package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Request describes one call against an http.Handler
type Request struct {
	Method  string
	Path    string
	Body    any
	Headers map[string]string
	// Token is sent as a bearer access token
	Token string
	// CartSession identifies an anonymous cart
	CartSession string
}

// Envelope mirrors the API response body with a typed data field
type Envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta *struct {
		Total      int64 `json:"total"`
		Page       int   `json:"page"`
		PageSize   int   `json:"page_size"`
		TotalPages int   `json:"total_pages"`
	} `json:"meta"`
}

// Serve runs req through h and returns the recorded response
func Serve(t *testing.T, h http.Handler, req Request) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	if req.Body != nil {
		body = JSONBody(t, req.Body)
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	r := httptest.NewRequest(method, req.Path, body)
	if req.Body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if req.Token != "" {
		r.Header.Set("Authorization", "Bearer "+req.Token)
	}
	if req.CartSession != "" {
		r.Header.Set("X-Cart-Session", req.CartSession)
	}
	for k, v := range req.Headers {
		r.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

// Decode parses an API envelope from w
func Decode[T any](t *testing.T, w *httptest.ResponseRecorder) Envelope[T] {
	t.Helper()

	var env Envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "response is not an API envelope: %s", w.Body.String())
	return env
}

// AssertOK checks the status and success flag and returns the payload
func AssertOK[T any](t *testing.T, w *httptest.ResponseRecorder, status int) T {
	t.Helper()

	require.Equal(t, status, w.Code, w.Body.String())
	env := Decode[T](t, w)
	assert.True(t, env.Success)
	assert.Nil(t, env.Error)
	return env.Data
}

// AssertAPIError checks the status and ERR_* code of a failed response
func AssertAPIError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()

	assert.Equal(t, status, w.Code, w.Body.String())
	env := Decode[json.RawMessage](t, w)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error, "expected an error object")
	assert.Equal(t, code, env.Error.Code)
}

// JSONBody marshals v into a request body
func JSONBody(t *testing.T, v any) io.Reader {
	t.Helper()

	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(data)
}
