package server_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	testify "github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/kode4food/marmot/internal/assert/helpers"
	"github.com/kode4food/marmot/internal/pipeline"
	"github.com/kode4food/marmot/internal/scanner"
	"github.com/kode4food/marmot/internal/server"
	"github.com/kode4food/marmot/internal/store"
	"github.com/kode4food/marmot/pkg/api"
	"github.com/kode4food/marmot/pkg/registry"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func startRuntime(t *testing.T) *server.Server {
	t.Helper()
	root := t.TempDir()
	helpers.WriteTree(t, root,
		"api/notes/@post/steps/100-validate.step",
		"api/notes/@post/steps/200-create.step",
		"api/notes/[id]/@get/steps/100-find.step",
		"api/broken/@get/steps/100-fail.step",
	)

	reg := registry.New()
	reg.RegisterStep("api/notes/@post/steps/100-validate", func(
		_ *api.Context, req api.Request, res api.Response,
	) (bool, error) {
		if !req.JSON("text").Exists() {
			res.Status(http.StatusBadRequest)
			res.JSON(api.ErrorResponse{
				Error:  "text is required",
				Status: http.StatusBadRequest,
			})
		}
		return true, nil
	})
	reg.RegisterStep("api/notes/@post/steps/200-create", func(
		ctx *api.Context, req api.Request, res api.Response,
	) (bool, error) {
		doc := api.Document{"id": "n-1", "text": req.JSON("text").String()}
		err := ctx.Store().Create(req.Context(), "notes", "n-1", doc)
		if err != nil {
			return false, err
		}
		res.Status(http.StatusCreated)
		res.JSON(doc)
		return true, nil
	})
	reg.RegisterStep("api/notes/[id]/@get/steps/100-find", func(
		ctx *api.Context, req api.Request, res api.Response,
	) (bool, error) {
		doc, err := ctx.Store().Find(req.Context(), "notes", req.Param("id"))
		if err != nil {
			res.Status(http.StatusNotFound)
			res.JSON(api.ErrorResponse{
				Error:  "note not found",
				Status: http.StatusNotFound,
			})
			return false, nil
		}
		res.JSON(doc)
		return true, nil
	})
	reg.RegisterStep("api/broken/@get/steps/100-fail", func(
		*api.Context, api.Request, api.Response,
	) (bool, error) {
		return false, api.ErrNotFound
	})

	features, err := scanner.New(reg).Scan(root)
	require.NoError(t, err)

	exec := pipeline.NewExecutor(&pipeline.Options{
		Store: store.NewMemory(),
	})
	s := server.NewServer(exec, nil)
	s.Mount(features)
	return s
}

func do(
	s *server.Server, method, path, body string,
) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestCreateAndFetch(t *testing.T) {
	s := startRuntime(t)

	rec := do(s, http.MethodPost, "/api/notes", `{"text":"hello"}`)
	testify.Equal(t, http.StatusCreated, rec.Code)
	testify.Equal(t, "hello", gjson.Get(rec.Body.String(), "text").String())

	rec = do(s, http.MethodGet, "/api/notes/n-1", "")
	testify.Equal(t, http.StatusOK, rec.Code)
	testify.Equal(t, "hello", gjson.Get(rec.Body.String(), "text").String())
}

func TestValidationShortCircuit(t *testing.T) {
	s := startRuntime(t)

	rec := do(s, http.MethodPost, "/api/notes", `{}`)
	testify.Equal(t, http.StatusBadRequest, rec.Code)
	testify.Contains(t, rec.Body.String(), "text is required")
}

func TestParamRouteMiss(t *testing.T) {
	s := startRuntime(t)

	rec := do(s, http.MethodGet, "/api/notes/missing", "")
	testify.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnhandledBecomes500(t *testing.T) {
	s := startRuntime(t)

	rec := do(s, http.MethodGet, "/api/broken", "")
	testify.Equal(t, http.StatusInternalServerError, rec.Code)
	testify.Contains(t, rec.Body.String(), "internal server error")
}

func TestUnmappedRoute(t *testing.T) {
	s := startRuntime(t)

	rec := do(s, http.MethodGet, "/api/nothing-here", "")
	testify.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthz(t *testing.T) {
	s := startRuntime(t)

	rec := do(s, http.MethodGet, "/healthz", "")
	testify.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	testify.Equal(t, "marmot", gjson.Get(body, "service").String())
	testify.Equal(t, int64(4), gjson.Get(body, "features").Int())
}

func TestRoutesListing(t *testing.T) {
	s := startRuntime(t)

	rec := do(s, http.MethodGet, "/routes", "")
	testify.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	testify.Equal(t, int64(4), gjson.Get(body, "count").Int())
	paths := gjson.Get(body, "routes.#.path").Array()
	found := false
	for _, p := range paths {
		if p.String() == "/api/notes/:id" {
			found = true
		}
	}
	testify.True(t, found)
}

func TestMountSwapsRoutes(t *testing.T) {
	s := startRuntime(t)

	rec := do(s, http.MethodGet, "/api/notes/n-1", "")
	testify.Equal(t, http.StatusNotFound, rec.Code)

	s.Mount([]*api.Feature{{
		Convention: api.Convention{Method: api.GET, Path: "/ping"},
		Dir:        "ping/@get",
		Steps: []*api.Step{{
			Order: 100,
			Name:  "pong",
			Handler: func(
				_ *api.Context, _ api.Request, res api.Response,
			) (bool, error) {
				res.Send([]byte("pong"))
				return true, nil
			},
		}},
	}})

	rec = do(s, http.MethodGet, "/ping", "")
	testify.Equal(t, http.StatusOK, rec.Code)
	testify.Equal(t, "pong", rec.Body.String())

	rec = do(s, http.MethodGet, "/api/notes/n-1", "")
	testify.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEmptyServerHealthy(t *testing.T) {
	s := server.NewServer(pipeline.NewExecutor(nil), nil)

	rec := do(s, http.MethodGet, "/healthz", "")
	testify.Equal(t, http.StatusOK, rec.Code)
	testify.Equal(t, int64(0),
		gjson.Get(rec.Body.String(), "features").Int())
}
