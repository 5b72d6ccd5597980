// Package helpers provides test doubles for the collaborator
// interfaces and utilities for building feature trees on disk
package helpers

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/kode4food/marmot/pkg/api"
)

type (
	// Request is an in-memory api.Request for exercising the pipeline
	// without an HTTP server
	Request struct {
		ctx     context.Context
		params  map[string]string
		query   map[string]string
		headers map[string]string
		method  api.Method
		path    string
		body    []byte
	}

	// Response is an in-memory api.Response recording what the
	// pipeline wrote
	Response struct {
		mu      sync.Mutex
		value   any
		headers map[string]string
		body    []byte
		status  int
		sent    bool
	}
)

// NewRequest creates a fake request for the given method and path
func NewRequest(method api.Method, path string) *Request {
	return &Request{
		ctx:     context.Background(),
		method:  method,
		path:    path,
		params:  map[string]string{},
		query:   map[string]string{},
		headers: map[string]string{},
	}
}

// WithParam binds a path parameter value
func (r *Request) WithParam(name, value string) *Request {
	r.params[name] = value
	return r
}

// WithQuery binds a query string value
func (r *Request) WithQuery(name, value string) *Request {
	r.query[name] = value
	return r
}

// WithBody sets the raw request body
func (r *Request) WithBody(body string) *Request {
	r.body = []byte(body)
	return r
}

// WithContext replaces the request-scoped context
func (r *Request) WithContext(ctx context.Context) *Request {
	r.ctx = ctx
	return r
}

func (r *Request) Method() api.Method        { return r.method }
func (r *Request) Path() string              { return r.path }
func (r *Request) Param(name string) string  { return r.params[name] }
func (r *Request) Query(name string) string  { return r.query[name] }
func (r *Request) Header(name string) string { return r.headers[name] }
func (r *Request) Body() []byte              { return r.body }
func (r *Request) Context() context.Context  { return r.ctx }

func (r *Request) JSON(path string) gjson.Result {
	return gjson.GetBytes(r.body, path)
}

// NewResponse creates an empty fake response
func NewResponse() *Response {
	return &Response{headers: map[string]string{}}
}

func (r *Response) Status(code int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = code
}

func (r *Response) Header(name, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.headers[name] = value
}

func (r *Response) Send(body []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sent {
		return
	}
	r.sent = true
	r.body = body
}

func (r *Response) JSON(v any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sent {
		return
	}
	r.sent = true
	r.value = v
	r.body, _ = json.Marshal(v)
}

func (r *Response) Sent() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sent
}

// StatusCode returns the last status set, defaulting to 200 when a
// terminal write happened without one
func (r *Response) StatusCode() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status == 0 && r.sent {
		return 200
	}
	return r.status
}

// BodyString returns the written body as a string
func (r *Response) BodyString() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return string(r.body)
}

// Value returns the value passed to JSON, if any
func (r *Response) Value() any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value
}

// WriteTree creates directories and files under root. Entries ending in
// "/" become directories; all other entries become empty marker files
// with parent directories created as needed
func WriteTree(t *testing.T, root string, entries ...string) {
	t.Helper()
	for _, entry := range entries {
		path := filepath.Join(root, filepath.FromSlash(entry))
		if strings.HasSuffix(entry, "/") {
			require.NoError(t, os.MkdirAll(path, 0o755))
			continue
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, nil, 0o644))
	}
}
