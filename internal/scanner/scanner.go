// Package scanner discovers features by walking a directory tree
//
// Every directory whose name declares a verb ("@get", "@post", ...)
// becomes one feature. Handlers are never loaded from disk; each
// discovered step, task, and feature module is resolved through the
// injected Loader, keyed by its path relative to the features root.
package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/kode4food/marmot/internal/convention"
	"github.com/kode4food/marmot/pkg/api"
)

type (
	// Loader resolves registered handlers for discovered files. The
	// boolean result reports whether a registration exists for the key
	Loader interface {
		// Feature resolves the explicit module for a feature directory
		Feature(key string) (*api.Module, bool)

		// Step resolves the handler for a step file
		Step(key string) (api.StepFunc, bool)

		// Task resolves the handler for an async task file
		Task(key string) (api.TaskFunc, bool)
	}

	// Scanner builds feature descriptors from a directory tree
	Scanner struct {
		loader Loader
	}
)

var (
	ErrNotDirectory      = errors.New("features root is not a directory")
	ErrDuplicateRoute    = errors.New("duplicate route")
	ErrBadStepFile       = errors.New("step file needs a numeric order prefix")
	ErrStepNotRegistered = errors.New("no handler registered for step file")
	ErrTaskNotRegistered = errors.New("no handler registered for task file")

	stepFile = regexp.MustCompile(`^(\d+)-(.+)$`)
)

// New creates a scanner resolving handlers through the provided loader
func New(loader Loader) *Scanner {
	return &Scanner{loader: loader}
}

// Scan walks root depth-first in lexicographic order and returns the
// discovered features. The walk order is deterministic, so repeated
// scans of an unchanged tree yield the same result and duplicate-route
// reporting is reproducible. Any scan error aborts the whole scan;
// partial feature sets are never returned
func (s *Scanner) Scan(root string) ([]*api.Feature, error) {
	root = filepath.Clean(root)
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}

	var features []*api.Feature
	routes := map[string]*api.Feature{}

	err = filepath.WalkDir(root, func(
		path string, d fs.DirEntry, err error,
	) error {
		if err != nil {
			return err
		}
		if !d.IsDir() || path == root {
			return nil
		}
		if hidden(d.Name()) {
			return filepath.SkipDir
		}
		if !convention.IsMethodSegment(d.Name()) {
			return nil
		}

		f, err := s.loadFeature(root, path)
		if err != nil {
			return err
		}
		route := f.Convention.Route()
		if prev, ok := routes[route]; ok {
			return fmt.Errorf(
				"%w: %s declared by %s and %s",
				ErrDuplicateRoute, route, prev.Dir, f.Dir,
			)
		}
		routes[route] = f
		features = append(features, f)

		// a feature's own subtree holds steps and tasks, never more
		// features
		return filepath.SkipDir
	})
	if err != nil {
		return nil, err
	}
	return features, nil
}

func (s *Scanner) loadFeature(root, dir string) (*api.Feature, error) {
	key := relKey(root, dir)

	// the scan root is the features base; passing it explicitly keeps
	// ancestor directory names from influencing the resolved path
	conv, err := convention.Resolve(dir, root)
	if err != nil {
		return nil, err
	}

	mod, _ := s.loader.Feature(key)
	if mod != nil {
		if mod.Method != "" {
			conv.Method = mod.Method
		}
		if mod.Path != "" {
			conv.Path = mod.Path
		}
	}

	f := &api.Feature{
		Convention: conv,
		Dir:        key,
	}
	if mod != nil {
		f.Init = mod.Init
		f.OnError = mod.OnError
	}

	if err := s.loadSteps(f, root, mod); err != nil {
		return nil, err
	}
	if err := s.loadTasks(f, root, mod); err != nil {
		return nil, err
	}

	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", dir, err)
	}
	return f, nil
}

func (s *Scanner) loadSteps(f *api.Feature, root string, mod *api.Module) error {
	if mod != nil && mod.Steps != nil {
		f.Steps = mod.Steps
		return nil
	}
	dir := f.Convention.StepsDir
	if dir == "" {
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	orders := map[int]string{}
	for _, e := range entries {
		if e.IsDir() || hidden(e.Name()) {
			continue
		}
		name := stem(e.Name())
		m := stepFile.FindStringSubmatch(name)
		if m == nil {
			return fmt.Errorf(
				"%w: %s", ErrBadStepFile, filepath.Join(dir, e.Name()),
			)
		}
		order, err := strconv.Atoi(m[1])
		if err != nil {
			return fmt.Errorf(
				"%w: %s", ErrBadStepFile, filepath.Join(dir, e.Name()),
			)
		}
		if prev, ok := orders[order]; ok {
			return fmt.Errorf(
				"%w: %d used by %s and %s in %s",
				api.ErrDuplicateOrder, order, prev, e.Name(), f.Dir,
			)
		}
		orders[order] = e.Name()

		handlerKey := relKey(root, filepath.Join(dir, name))
		fn, ok := s.loader.Step(handlerKey)
		if !ok {
			return fmt.Errorf("%w: %s", ErrStepNotRegistered, handlerKey)
		}
		f.Steps = append(f.Steps, &api.Step{
			Order:   order,
			Name:    m[2],
			Handler: fn,
		})
	}

	// ReadDir sorts lexically; "9-x" would sort after "100-x", so the
	// numeric prefix is authoritative
	slices.SortFunc(f.Steps, func(l, r *api.Step) int {
		return l.Order - r.Order
	})
	return nil
}

func (s *Scanner) loadTasks(f *api.Feature, root string, mod *api.Module) error {
	if mod != nil && mod.Tasks != nil {
		f.Tasks = mod.Tasks
		return nil
	}
	dir := f.Convention.AsyncTasksDir
	if dir == "" {
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() || hidden(e.Name()) {
			continue
		}
		name := stem(e.Name())
		handlerKey := relKey(root, filepath.Join(dir, name))
		fn, ok := s.loader.Task(handlerKey)
		if !ok {
			return fmt.Errorf("%w: %s", ErrTaskNotRegistered, handlerKey)
		}
		f.Tasks = append(f.Tasks, &api.Task{Name: name, Handler: fn})
	}
	return nil
}

func relKey(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}
