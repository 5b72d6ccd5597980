package assert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/marmot/pkg/api"
)

// Wrapper wraps testify assertions with runtime-specific helpers
type Wrapper struct {
	*testing.T
	*assert.Assertions
}

// DefaultRetryInterval is the polling interval for Eventually checks
const DefaultRetryInterval = 10 * time.Millisecond

// New creates a new test assertion wrapper
func New(t *testing.T) *Wrapper {
	return &Wrapper{
		T:          t,
		Assertions: assert.New(t),
	}
}

// FeatureValid asserts that a scanned feature is well-formed
func (w *Wrapper) FeatureValid(f *api.Feature) {
	w.Helper()
	w.NoError(f.Validate())
	w.True(f.Convention.Method.IsValid())
	w.NotEmpty(f.Convention.Path)
	for i := 1; i < len(f.Steps); i++ {
		w.Less(f.Steps[i-1].Order, f.Steps[i].Order,
			"steps must be strictly ordered")
	}
}

// EventuallyWithError runs a condition that returns an error until it
// succeeds or times out
func (w *Wrapper) EventuallyWithError(
	condition func() error, timeout time.Duration, msg string, args ...any,
) {
	w.Helper()
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		err := condition()
		if err == nil {
			return
		}
		lastErr = err
		time.Sleep(DefaultRetryInterval)
	}
	if lastErr != nil {
		w.Fail(msg+": last error: "+lastErr.Error(), args...)
		return
	}
	w.Fail(msg, args...)
}
