// Package registry maps feature-tree file paths onto statically-typed
// handler functions. Applications register their handlers at startup;
// the scanner then resolves every discovered step, task, and feature
// module through a Registry instead of loading code from disk.
package registry

import (
	"fmt"
	"log/slog"
	"maps"
	"path"
	"slices"
	"strings"

	"github.com/kode4food/marmot/pkg/api"
)

// Registry holds the registered feature modules and handler functions
// for a single application instance. Keys are paths relative to the
// features root with any file extension stripped, for example
// "api/users/@post/steps/100-validate"
type Registry struct {
	features map[string]*api.Module
	steps    map[string]api.StepFunc
	tasks    map[string]api.TaskFunc
}

// New creates an empty Registry
func New() *Registry {
	return &Registry{
		features: map[string]*api.Module{},
		steps:    map[string]api.StepFunc{},
		tasks:    map[string]api.TaskFunc{},
	}
}

// RegisterFeature registers an explicit feature module for the feature
// directory at key. Registering the same key twice panics; that is a
// programming error caught at startup
func (r *Registry) RegisterFeature(key string, mod *api.Module) {
	key = Normalize(key)
	if _, ok := r.features[key]; ok {
		panic(fmt.Sprintf("feature module %q already registered", key))
	}
	slog.Debug("Registering feature module", slog.String("key", key))
	r.features[key] = mod
}

// RegisterStep registers a step handler for the step file at key
func (r *Registry) RegisterStep(key string, fn api.StepFunc) {
	key = Normalize(key)
	if _, ok := r.steps[key]; ok {
		panic(fmt.Sprintf("step handler %q already registered", key))
	}
	if fn == nil {
		panic(fmt.Sprintf("step handler %q is nil", key))
	}
	slog.Debug("Registering step handler", slog.String("key", key))
	r.steps[key] = fn
}

// RegisterTask registers an async task handler for the task file at key
func (r *Registry) RegisterTask(key string, fn api.TaskFunc) {
	key = Normalize(key)
	if _, ok := r.tasks[key]; ok {
		panic(fmt.Sprintf("task handler %q already registered", key))
	}
	if fn == nil {
		panic(fmt.Sprintf("task handler %q is nil", key))
	}
	slog.Debug("Registering task handler", slog.String("key", key))
	r.tasks[key] = fn
}

// Feature resolves the explicit module registered for a feature
// directory, if any
func (r *Registry) Feature(key string) (*api.Module, bool) {
	mod, ok := r.features[Normalize(key)]
	return mod, ok
}

// Step resolves the handler registered for a step file
func (r *Registry) Step(key string) (api.StepFunc, bool) {
	fn, ok := r.steps[Normalize(key)]
	return fn, ok
}

// Task resolves the handler registered for an async task file
func (r *Registry) Task(key string) (api.TaskFunc, bool) {
	fn, ok := r.tasks[Normalize(key)]
	return fn, ok
}

// StepKeys returns the sorted keys of all registered step handlers
func (r *Registry) StepKeys() []string {
	return slices.Sorted(maps.Keys(r.steps))
}

// Normalize canonicalizes a registration or lookup key: slashes are
// cleaned, a leading "./" is dropped, and any file extension on the
// final segment is stripped
func Normalize(key string) string {
	key = path.Clean(strings.ReplaceAll(key, "\\", "/"))
	key = strings.TrimPrefix(key, "./")
	if ext := path.Ext(key); ext != "" {
		key = strings.TrimSuffix(key, ext)
	}
	return key
}
