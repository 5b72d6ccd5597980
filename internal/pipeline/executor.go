// Package pipeline executes a feature's step pipeline for one request
//
// Each incoming request gets a fresh Context and runs its steps strictly
// in order. Errors route through the feature's recovery hook, which may
// request a delayed re-run of the whole pipeline; once the response
// settles, the feature's async tasks are dispatched in the background.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/kode4food/marmot/internal/telemetry"
	"github.com/kode4food/marmot/pkg/api"
	"github.com/kode4food/marmot/pkg/log"
)

type (
	// Options configures an Executor
	Options struct {
		// Store is injected into every request Context; may be nil
		Store api.Store

		// OnUnhandled receives errors no feature recovered from. When
		// it returns without responding, the runtime writes a 500
		OnUnhandled api.GlobalErrorFunc

		// Metrics receives pipeline observations; may be nil
		Metrics *telemetry.Metrics

		// MaxRetryDelay caps the delay a retry signal may request;
		// zero means uncapped
		MaxRetryDelay time.Duration

		// MaxRetryAttempts caps re-runs per request regardless of what
		// retry signals ask for; zero means uncapped
		MaxRetryAttempts int
	}

	// Executor drives request pipelines. One Executor instance serves
	// all features and all concurrent requests
	Executor struct {
		store       api.Store
		onUnhandled api.GlobalErrorFunc
		metrics     *telemetry.Metrics
		maxDelay    time.Duration
		maxAttempts int
	}
)

var (
	ErrStepPanic    = errors.New("panic in step handler")
	ErrInitPanic    = errors.New("panic in context initializer")
	ErrOnErrorPanic = errors.New("panic in error handler")
)

// NewExecutor creates an executor with the provided options
func NewExecutor(opts *Options) *Executor {
	if opts == nil {
		opts = &Options{}
	}
	return &Executor{
		store:       opts.Store,
		onUnhandled: opts.OnUnhandled,
		metrics:     opts.Metrics,
		maxDelay:    opts.MaxRetryDelay,
		maxAttempts: opts.MaxRetryAttempts,
	}
}

// Run executes one request against a feature. It creates the request's
// Context, drives the step pipeline through any retries, and finally
// dispatches the feature's async tasks exactly once. Run never panics
// from handler code; panics are converted to pipeline errors
func (e *Executor) Run(f *api.Feature, req api.Request, res api.Response) {
	start := time.Now()
	ctx := api.NewContext(e.store)
	logger := slog.With(
		log.Feature(f.Convention.Route()),
		log.RequestID(ctx.RequestID()))

	outcome := e.execute(f, ctx, req, res, logger)

	e.metrics.ObserveRequest(
		string(f.Convention.Method), f.Convention.Path,
		string(outcome), time.Since(start))
	logger.Debug("Pipeline settled",
		slog.String("outcome", string(outcome)))

	e.dispatch(f, ctx, logger)
}

func (e *Executor) execute(
	f *api.Feature, ctx *api.Context, req api.Request, res api.Response,
	logger *slog.Logger,
) outcome {
	c := e.newCoordinator(f, logger)
	for {
		err := e.runPipeline(f, ctx, req, res, logger)
		if err == nil {
			return outcomeOK
		}

		switch d := c.resolve(err, ctx, req, res); d.kind {
		case decideRetry:
			e.metrics.CountRetry(f.Convention.Path)
			if !e.wait(req, d.delay) {
				logger.Warn("Request cancelled during retry wait",
					log.Error(req.Context().Err()))
				return outcomeAborted
			}

		case decideResponded:
			return outcomeResponded

		case decideUnhandled:
			e.unhandled(err, req, res, logger)
			return outcomeUnhandled
		}
	}
}

// runPipeline performs a single pass: initializer, then each step in
// ascending order. A nil result means the pipeline settled without
// error, whether by finishing, responding early, or a deliberate stop
func (e *Executor) runPipeline(
	f *api.Feature, ctx *api.Context, req api.Request, res api.Response,
	logger *slog.Logger,
) error {
	if f.Init != nil {
		if err := e.runInit(f, ctx, req, res); err != nil {
			return err
		}
	}

	for _, step := range f.Steps {
		cont, err := e.runStep(step, ctx, req, res)
		if err != nil {
			return fmt.Errorf("step %s: %w", step.Name, err)
		}
		if res.Sent() {
			// remaining steps never run once the response is out
			logger.Debug("Response sent; short-circuiting",
				log.Step(step.Name))
			return nil
		}
		if !cont {
			logger.Debug("Step stopped the pipeline", log.Step(step.Name))
			return nil
		}
	}

	// the runtime supplies no default body; an unsent response here is
	// the feature author's bug, not an error
	logger.Warn("Pipeline completed without sending a response")
	return nil
}

func (e *Executor) runInit(
	f *api.Feature, ctx *api.Context, req api.Request, res api.Response,
) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrInitPanic, r)
		}
	}()
	return f.Init(ctx, req, res)
}

func (e *Executor) runStep(
	step *api.Step, ctx *api.Context, req api.Request, res api.Response,
) (cont bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			cont = false
			err = fmt.Errorf("%w: %v", ErrStepPanic, r)
		}
	}()
	return step.Handler(ctx, req, res)
}

// wait blocks this request's pipeline for the retry delay without
// holding up any other in-flight request. It reports false when the
// request was cancelled before the delay elapsed
func (e *Executor) wait(req api.Request, delay time.Duration) bool {
	if delay <= 0 {
		return req.Context().Err() == nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-req.Context().Done():
		return false
	}
}

func (e *Executor) unhandled(
	err error, req api.Request, res api.Response, logger *slog.Logger,
) {
	logger.Error("Unhandled pipeline error", log.Error(err))
	if e.onUnhandled != nil {
		e.safeUnhandled(err, req, res, logger)
	}
	if !res.Sent() {
		res.Status(http.StatusInternalServerError)
		res.JSON(api.ErrorResponse{
			Error:  "internal server error",
			Status: http.StatusInternalServerError,
		})
	}
}

func (e *Executor) safeUnhandled(
	err error, req api.Request, res api.Response, logger *slog.Logger,
) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Global error handler panicked",
				slog.Any("panic", r))
		}
	}()
	e.onUnhandled(err, req, res)
}
