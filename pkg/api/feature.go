package api

import (
	"errors"
	"fmt"
	"slices"
)

type (
	// Step is one ordered pipeline entry. Order comes from the numeric
	// filename prefix of the step file that declared it
	Step struct {
		Handler StepFunc `json:"-"`
		Name    string   `json:"name"`
		Order   int      `json:"order"`
	}

	// Task is a detached background task. Tasks of one feature carry no
	// ordering guarantee relative to each other
	Task struct {
		Handler TaskFunc `json:"-"`
		Name    string   `json:"name"`
	}

	// Feature is one endpoint's full definition: routing convention,
	// ordered step pipeline, async tasks, and error policy. A Feature is
	// built once by the scanner and is read-only afterward; a single
	// instance serves unbounded concurrent requests
	Feature struct {
		Init       InitFunc   `json:"-"`
		OnError    ErrorFunc  `json:"-"`
		Convention Convention `json:"convention"`
		Dir        string     `json:"dir"`
		Steps      []*Step    `json:"steps"`
		Tasks      []*Task    `json:"async_tasks,omitempty"`
	}

	// Module is the explicit-override record a feature directory may
	// register in place of pure convention. Zero-valued fields fall back
	// to convention-derived defaults; inline Steps and Tasks suppress
	// directory enumeration entirely
	Module struct {
		Init    InitFunc
		OnError ErrorFunc
		Method  Method
		Path    string
		Steps   []*Step
		Tasks   []*Task
	}
)

var (
	ErrFeatureEmpty     = errors.New("feature has no steps and no initializer")
	ErrStepHandlerNil   = errors.New("step handler is nil")
	ErrStepNameEmpty    = errors.New("step name empty")
	ErrTaskHandlerNil   = errors.New("async task handler is nil")
	ErrTaskNameEmpty    = errors.New("async task name empty")
	ErrDuplicateOrder   = errors.New("ambiguous step order")
	ErrStepsOutOfOrder  = errors.New("steps not sorted by order")
	ErrInvalidMethod    = errors.New("invalid method")
	ErrPathNotAbsolute  = errors.New("path must begin with /")
	ErrDuplicateTaskKey = errors.New("duplicate async task name")
)

// Validate checks a feature descriptor for configuration errors. A
// feature with no steps must at least carry an initializer that is able
// to respond on its own
func (f *Feature) Validate() error {
	if !f.Convention.Method.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidMethod, f.Convention.Method)
	}
	if len(f.Convention.Path) == 0 || f.Convention.Path[0] != '/' {
		return fmt.Errorf("%w: %q", ErrPathNotAbsolute, f.Convention.Path)
	}
	if len(f.Steps) == 0 && f.Init == nil {
		return fmt.Errorf("%w: %s", ErrFeatureEmpty, f.Convention.Route())
	}
	if err := f.validateSteps(); err != nil {
		return err
	}
	return f.validateTasks()
}

func (f *Feature) validateSteps() error {
	seen := map[int]string{}
	for _, s := range f.Steps {
		if s.Name == "" {
			return ErrStepNameEmpty
		}
		if s.Handler == nil {
			return fmt.Errorf("%w: %s", ErrStepHandlerNil, s.Name)
		}
		if prev, ok := seen[s.Order]; ok {
			return fmt.Errorf(
				"%w: %d used by %s and %s", ErrDuplicateOrder,
				s.Order, prev, s.Name,
			)
		}
		seen[s.Order] = s.Name
	}
	sorted := slices.IsSortedFunc(f.Steps, func(l, r *Step) int {
		return l.Order - r.Order
	})
	if !sorted {
		return fmt.Errorf("%w: %s", ErrStepsOutOfOrder, f.Convention.Route())
	}
	return nil
}

func (f *Feature) validateTasks() error {
	seen := map[string]bool{}
	for _, t := range f.Tasks {
		if t.Name == "" {
			return ErrTaskNameEmpty
		}
		if t.Handler == nil {
			return fmt.Errorf("%w: %s", ErrTaskHandlerNil, t.Name)
		}
		if seen[t.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateTaskKey, t.Name)
		}
		seen[t.Name] = true
	}
	return nil
}
