package pipeline

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kode4food/marmot/pkg/api"
	"github.com/kode4food/marmot/pkg/log"
)

type (
	// outcome classifies how a request's pipeline settled
	outcome string

	decisionKind uint8

	// decision is the coordinator's verdict for one pipeline error
	decision struct {
		kind  decisionKind
		delay time.Duration
	}

	// coordinator implements a feature's error recovery contract for a
	// single request. It interprets the error hook's return value as
	// retry, handled-response, or pass-through, and accounts for the
	// retries already spent on this request
	coordinator struct {
		feature *api.Feature
		logger  *slog.Logger
		exec    *Executor
		retries int
	}
)

const (
	outcomeOK        outcome = "ok"
	outcomeResponded outcome = "responded"
	outcomeUnhandled outcome = "unhandled"
	outcomeAborted   outcome = "aborted"
)

const (
	decideRetry decisionKind = iota
	decideResponded
	decideUnhandled
)

func (e *Executor) newCoordinator(
	f *api.Feature, logger *slog.Logger,
) *coordinator {
	return &coordinator{feature: f, logger: logger, exec: e}
}

// resolve runs the feature's error hook and decides what happens next.
// A feature without a hook passes every error through; a retry signal
// whose attempt budget is spent is treated the same as no signal at all
func (c *coordinator) resolve(
	err error, ctx *api.Context, req api.Request, res api.Response,
) decision {
	if c.feature.OnError == nil {
		return decision{kind: decideUnhandled}
	}

	c.logger.Debug("Handling pipeline error",
		log.Error(err), log.Attempt(c.retries))
	sig, hookErr := c.callOnError(err, ctx, req, res)
	if hookErr != nil {
		// a broken error hook must not mask the original failure
		c.logger.Error("Error handler failed", log.Error(hookErr))
		sig = nil
	}

	if sig != nil && c.mayRetry(sig) {
		c.retries++
		c.logger.Info("Retrying pipeline",
			log.Attempt(c.retries),
			slog.Duration("delay", c.delayFor(sig)))
		return decision{kind: decideRetry, delay: c.delayFor(sig)}
	}

	if res.Sent() {
		c.logger.Debug("Error handled with a response")
		return decision{kind: decideResponded}
	}
	return decision{kind: decideUnhandled}
}

// mayRetry enforces the signal's own attempt bound and the runtime-wide
// cap. Retries are counted as re-runs: maxAttempts of 3 yields three
// re-runs after the initial failure
func (c *coordinator) mayRetry(sig *api.RetrySignal) bool {
	if sig.MaxAttempts > 0 && c.retries >= sig.MaxAttempts {
		c.logger.Debug("Retry budget exhausted",
			log.Attempt(c.retries),
			slog.Int("max_attempts", sig.MaxAttempts))
		return false
	}
	if c.exec.maxAttempts > 0 && c.retries >= c.exec.maxAttempts {
		c.logger.Warn("Runtime retry cap reached",
			log.Attempt(c.retries),
			slog.Int("cap", c.exec.maxAttempts))
		return false
	}
	return true
}

func (c *coordinator) delayFor(sig *api.RetrySignal) time.Duration {
	if c.exec.maxDelay > 0 && sig.Delay > c.exec.maxDelay {
		return c.exec.maxDelay
	}
	return sig.Delay
}

func (c *coordinator) callOnError(
	err error, ctx *api.Context, req api.Request, res api.Response,
) (sig *api.RetrySignal, hookErr error) {
	defer func() {
		if r := recover(); r != nil {
			sig = nil
			hookErr = fmt.Errorf("%w: %v", ErrOnErrorPanic, r)
		}
	}()
	return c.feature.OnError(err, ctx, req, res), nil
}
