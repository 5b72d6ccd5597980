package server

import (
	"context"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"github.com/kode4food/marmot/pkg/api"
)

type (
	// request adapts a gin request to the collaborator contract. The
	// body is read once up front so steps can inspect it repeatedly
	request struct {
		c      *gin.Context
		method api.Method
		body   []byte
	}

	// response adapts gin's writer. The sent flag flips only on the
	// terminal writes, which is how the pipeline observes
	// "response sent"
	response struct {
		c      *gin.Context
		status atomic.Int32
		sent   atomic.Bool
	}
)

func newRequest(c *gin.Context) (*request, error) {
	var body []byte
	if c.Request.Body != nil {
		raw, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return nil, err
		}
		body = raw
	}
	method, err := api.ParseMethod(c.Request.Method)
	if err != nil {
		return nil, err
	}
	return &request{c: c, method: method, body: body}, nil
}

func (r *request) Method() api.Method {
	return r.method
}

func (r *request) Path() string {
	return r.c.Request.URL.Path
}

func (r *request) Param(name string) string {
	return r.c.Param(name)
}

func (r *request) Query(name string) string {
	return r.c.Query(name)
}

func (r *request) Header(name string) string {
	return r.c.GetHeader(name)
}

func (r *request) Body() []byte {
	return r.body
}

func (r *request) JSON(path string) gjson.Result {
	return gjson.GetBytes(r.body, path)
}

func (r *request) Context() context.Context {
	return r.c.Request.Context()
}

func newResponse(c *gin.Context) *response {
	return &response{c: c}
}

func (r *response) Status(code int) {
	r.status.Store(int32(code))
}

func (r *response) Header(name, value string) {
	r.c.Header(name, value)
}

func (r *response) Send(body []byte) {
	if !r.sent.CompareAndSwap(false, true) {
		return
	}
	contentType := r.c.Writer.Header().Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	r.c.Data(r.statusOr(http.StatusOK), contentType, body)
}

func (r *response) JSON(v any) {
	if !r.sent.CompareAndSwap(false, true) {
		return
	}
	r.c.JSON(r.statusOr(http.StatusOK), v)
}

func (r *response) Sent() bool {
	return r.sent.Load()
}

func (r *response) statusOr(fallback int) int {
	if code := r.status.Load(); code != 0 {
		return int(code)
	}
	return fallback
}
