package server

import (
	"log/slog"
	"net/http"
	"sync/atomic"

	glog "github.com/gin-contrib/slog"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	app "github.com/kode4food/marmot"
	"github.com/kode4food/marmot/internal/pipeline"
	"github.com/kode4food/marmot/pkg/api"
	"github.com/kode4food/marmot/pkg/log"
)

// Server exposes scanned features over HTTP
type Server struct {
	exec     *pipeline.Executor
	gatherer prometheus.Gatherer
	router   atomic.Pointer[gin.Engine]
}

// NewServer creates a server that executes requests through exec. The
// gatherer backs the /metrics endpoint and may be nil to disable it
func NewServer(exec *pipeline.Executor, g prometheus.Gatherer) *Server {
	s := &Server{exec: exec, gatherer: g}
	s.router.Store(s.buildRouter(nil))
	return s
}

// Mount replaces the live routing table with one route per feature.
// In-flight requests finish against the routes they started with
func (s *Server) Mount(features []*api.Feature) {
	s.router.Store(s.buildRouter(features))
	for _, f := range features {
		slog.Info("Feature mounted",
			log.Method(f.Convention.Method),
			log.Route(f.Convention.Path),
			log.Dir(f.Dir),
			slog.Int("steps", len(f.Steps)),
			slog.Int("tasks", len(f.Tasks)))
	}
}

// ServeHTTP delegates to the currently mounted router
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.Load().ServeHTTP(w, r)
}

func (s *Server) buildRouter(features []*api.Feature) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(glog.SetLogger(
		glog.WithLogger(func(c *gin.Context, l *slog.Logger) *slog.Logger {
			return slog.Default()
		}),
	))

	router.GET("/healthz", handleHealth(len(features)))
	router.GET("/routes", handleRoutes(features))
	if s.gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(
			s.gatherer, promhttp.HandlerOpts{},
		)))
	}

	for _, f := range features {
		router.Handle(
			string(f.Convention.Method), f.Convention.Path,
			s.featureHandler(f),
		)
	}
	return router
}

// featureHandler adapts gin's (request, response) delivery to one
// Executor.Run invocation
func (s *Server) featureHandler(f *api.Feature) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, err := newRequest(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{
				Error:  "unreadable request body",
				Status: http.StatusBadRequest,
			})
			return
		}
		s.exec.Run(f, req, newResponse(c))
	}
}

func handleHealth(features int) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, api.HealthResponse{
			Service:  app.Name,
			Version:  app.Version,
			Features: features,
		})
	}
}

func handleRoutes(features []*api.Feature) gin.HandlerFunc {
	routes := make([]*api.RouteInfo, 0, len(features))
	for _, f := range features {
		routes = append(routes, &api.RouteInfo{
			Method: f.Convention.Method,
			Path:   f.Convention.Path,
			Dir:    f.Dir,
			Steps:  len(f.Steps),
			Tasks:  len(f.Tasks),
		})
	}
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, api.RoutesResponse{
			Routes: routes,
			Count:  len(routes),
		})
	}
}
