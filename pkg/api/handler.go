package api

import "time"

type (
	// StepFunc is one ordered unit of work within a feature's request
	// pipeline. Returning false stops the pipeline without error; a
	// returned error is routed to the feature's error handler
	StepFunc func(ctx *Context, req Request, res Response) (bool, error)

	// InitFunc seeds the per-request Context before any step runs. A
	// failure here is routed to the error handler and no steps run
	InitFunc func(ctx *Context, req Request, res Response) error

	// ErrorFunc is a feature's error hook. Returning a RetrySignal
	// requests that the pipeline be re-run after a delay; returning nil
	// after writing a response marks the error handled; returning nil
	// without responding passes the error to the global handler
	ErrorFunc func(err error, ctx *Context, req Request, res Response) *RetrySignal

	// TaskFunc is a detached background task run after the response
	// pipeline settles. Errors are recorded but never affect the
	// response or sibling tasks
	TaskFunc func(ctx *Context) error

	// GlobalErrorFunc is the application-wide fallback for errors no
	// feature handled
	GlobalErrorFunc func(err error, req Request, res Response)

	// RetrySignal is the only structured value an ErrorFunc may return
	// to request a retry. MaxAttempts bounds the number of re-runs for
	// one request; zero means unbounded
	RetrySignal struct {
		Delay       time.Duration `json:"delay"`
		MaxAttempts int           `json:"max_attempts,omitempty"`
	}
)

// Retry builds a retry signal with the given delay and no attempt bound
func Retry(delay time.Duration) *RetrySignal {
	return &RetrySignal{Delay: delay}
}

// RetryLimit builds a retry signal bounded to the given number of re-runs
func RetryLimit(delay time.Duration, maxAttempts int) *RetrySignal {
	return &RetrySignal{Delay: delay, MaxAttempts: maxAttempts}
}
