package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	app "github.com/kode4food/marmot"
	"github.com/kode4food/marmot/internal/config"
	"github.com/kode4food/marmot/internal/pipeline"
	"github.com/kode4food/marmot/internal/scanner"
	"github.com/kode4food/marmot/internal/server"
	"github.com/kode4food/marmot/internal/store"
	"github.com/kode4food/marmot/internal/telemetry"
	"github.com/kode4food/marmot/pkg/api"
	"github.com/kode4food/marmot/pkg/log"
	"github.com/kode4food/marmot/pkg/registry"
)

type marmot struct {
	cfg        *config.Config
	store      api.Store
	redis      *store.Redis
	registry   *registry.Registry
	scanner    *scanner.Scanner
	executor   *pipeline.Executor
	apiServer  *server.Server
	httpServer *http.Server
	watchStop  context.CancelFunc
	quit       chan os.Signal
}

var ErrConnectRedis = errors.New("failed to connect to redis")

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

func main() {
	cfg := config.NewDefaultConfig()
	if err := cfg.LoadFile("marmot.yml"); err != nil {
		slog.Error("Invalid configuration file", log.Error(err))
		os.Exit(1)
	}
	if err := cfg.LoadFromEnv(); err != nil {
		slog.Error("Invalid configuration", log.Error(err))
		os.Exit(1)
	}

	s := &marmot{
		cfg:  cfg,
		quit: make(chan os.Signal, 1),
	}
	s.setupLogging()

	if err := s.run(); err != nil {
		slog.Error("Failed to start application", log.Error(err))
		os.Exit(1)
	}
}

func (s *marmot) run() error {
	if err := s.initializeStore(); err != nil {
		return err
	}
	if err := s.initializeRuntime(); err != nil {
		return err
	}
	s.startServer()

	signal.Notify(s.quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(s.quit)
	<-s.quit

	s.shutdown()
	return nil
}

func (s *marmot) setupLogging() {
	level, ok := logLevels[s.cfg.LogLevel]
	if !ok {
		level = slog.LevelInfo
	}

	env := os.Getenv("ENV")
	logger := log.NewWithLevel(app.Name, env, app.Version, level)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level)

	slog.Info("Marmot starting",
		slog.String("log_level", s.cfg.LogLevel),
		slog.String("features_root", s.cfg.FeaturesRoot),
		slog.String("api_host", s.cfg.APIHost),
		slog.Int("api_port", s.cfg.APIPort))
}

func (s *marmot) initializeStore() error {
	if s.cfg.RedisAddr == "" {
		s.store = store.NewMemory()
		return nil
	}

	s.redis = store.NewRedis(&s.cfg.Redis)
	if err := s.redis.Ping(context.Background()); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectRedis, err)
	}
	s.store = s.redis
	slog.Info("Using Redis store",
		slog.String("addr", s.cfg.RedisAddr),
		slog.Int("db", s.cfg.RedisDB))
	return nil
}

func (s *marmot) initializeRuntime() error {
	s.registry = registry.New()
	registerDemoFeatures(s.registry)

	metrics := telemetry.New(prometheus.DefaultRegisterer)
	s.executor = pipeline.NewExecutor(&pipeline.Options{
		Store:            s.store,
		Metrics:          metrics,
		MaxRetryDelay:    s.cfg.MaxRetryDelay,
		MaxRetryAttempts: s.cfg.MaxRetryAttempts,
		OnUnhandled:      logUnhandled,
	})

	s.scanner = scanner.New(s.registry)
	features, err := s.scanner.Scan(s.cfg.FeaturesRoot)
	if err != nil {
		return err
	}

	s.apiServer = server.NewServer(s.executor, prometheus.DefaultGatherer)
	s.apiServer.Mount(features)

	if s.cfg.Watch {
		ctx, cancel := context.WithCancel(context.Background())
		s.watchStop = cancel
		go func() {
			err := s.scanner.Watch(
				ctx, s.cfg.FeaturesRoot, s.apiServer.Mount,
			)
			if err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("Feature watcher stopped", log.Error(err))
			}
		}()
	}
	return nil
}

func (s *marmot) startServer() {
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.cfg.APIHost, s.cfg.APIPort),
		Handler: s.apiServer,
	}

	go func() {
		slog.Info("HTTP server starting",
			slog.String("addr", s.httpServer.Addr))
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", log.Error(err))
		}
	}()
}

func (s *marmot) shutdown() {
	slog.Info("Shutting down")

	ctx, cancel := context.WithTimeout(
		context.Background(), s.cfg.ShutdownTimeout,
	)
	defer cancel()

	if s.watchStop != nil {
		s.watchStop()
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		slog.Error("Shutdown failed", log.Error(err))
	}
	if s.redis != nil {
		_ = s.redis.Close()
	}

	slog.Info("Server exited")
}

func logUnhandled(err error, req api.Request, _ api.Response) {
	slog.Error("Request failed",
		log.Method(req.Method()),
		log.Route(req.Path()),
		log.Error(err))
}
