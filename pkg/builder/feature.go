package builder

import (
	"slices"

	"github.com/kode4food/marmot/pkg/api"
)

// Feature accumulates the explicit overrides of a feature module. The
// zero value of every field defers to convention-derived defaults
type Feature struct {
	init    api.InitFunc
	onError api.ErrorFunc
	method  api.Method
	path    string
	steps   []*api.Step
	tasks   []*api.Task
}

// NewFeature creates a new feature module builder
func NewFeature() *Feature {
	return &Feature{}
}

// WithMethod overrides the convention-inferred HTTP method
func (f *Feature) WithMethod(m api.Method) *Feature {
	res := *f
	res.method = m
	return &res
}

// WithPath overrides the convention-inferred route path
func (f *Feature) WithPath(path string) *Feature {
	res := *f
	res.path = path
	return &res
}

// WithInit sets the context initializer invoked before any step
func (f *Feature) WithInit(fn api.InitFunc) *Feature {
	res := *f
	res.init = fn
	return &res
}

// WithOnError sets the feature's error hook
func (f *Feature) WithOnError(fn api.ErrorFunc) *Feature {
	res := *f
	res.onError = fn
	return &res
}

// Step appends an inline pipeline step. Declaring any inline step
// suppresses enumeration of the feature's steps directory
func (f *Feature) Step(order int, name string, fn api.StepFunc) *Feature {
	res := *f
	res.steps = append(
		slices.Clone(f.steps),
		&api.Step{Order: order, Name: name, Handler: fn},
	)
	return &res
}

// Task appends an inline async task. Declaring any inline task
// suppresses enumeration of the feature's async-tasks directory
func (f *Feature) Task(name string, fn api.TaskFunc) *Feature {
	res := *f
	res.tasks = append(
		slices.Clone(f.tasks),
		&api.Task{Name: name, Handler: fn},
	)
	return &res
}

// Build produces the module record consumed by the scanner. Inline
// steps are sorted ascending by order
func (f *Feature) Build() *api.Module {
	steps := slices.Clone(f.steps)
	slices.SortStableFunc(steps, func(l, r *api.Step) int {
		return l.Order - r.Order
	})
	return &api.Module{
		Init:    f.init,
		OnError: f.onError,
		Method:  f.method,
		Path:    f.path,
		Steps:   steps,
		Tasks:   slices.Clone(f.tasks),
	}
}
