// Package convention derives HTTP routing information from feature
// directory structure
//
// A feature directory ends in an "@<method>" segment naming its verb.
// Path segments between the features base and that segment become the
// route path, with "[param]" segments mapping to ":param" parameters.
package convention

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kode4food/marmot/pkg/api"
)

const (
	// MethodPrefix marks a directory segment that declares a verb
	MethodPrefix = "@"

	// StepsDirName is the conventional step directory inside a feature
	StepsDirName = "steps"

	// TasksDirName is the conventional async task directory
	TasksDirName = "async-tasks"

	// FeaturesDirName is the ancestor name recognized as a features base
	FeaturesDirName = "features"
)

var (
	ErrNoMethodSegment = errors.New("no @method segment in feature path")
	ErrOutsideBase     = errors.New("feature directory not under base")
)

// Resolve derives a feature's routing convention from its directory.
// When featuresBase is empty it is inferred by walking upward from
// featureDir; callers that know the true base must pass it explicitly,
// because the inference fallback can pick a base that is too shallow
func Resolve(featureDir, featuresBase string) (api.Convention, error) {
	dir := filepath.Clean(featureDir)

	name, rest := filepath.Base(dir), filepath.Dir(dir)
	if !IsMethodSegment(name) {
		return api.Convention{}, fmt.Errorf(
			"%w: %s", ErrNoMethodSegment, featureDir,
		)
	}
	method, err := api.ParseMethod(strings.TrimPrefix(name, MethodPrefix))
	if err != nil {
		return api.Convention{}, fmt.Errorf("%s: %w", featureDir, err)
	}

	base := featuresBase
	if base == "" {
		base = InferFeaturesBase(dir)
	} else {
		base = filepath.Clean(base)
	}

	rel, err := filepath.Rel(base, rest)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return api.Convention{}, fmt.Errorf(
			"%w: %s is not under %s", ErrOutsideBase, featureDir, base,
		)
	}

	res := api.Convention{
		Method: method,
		Path:   routePath(rel),
	}
	if sub := filepath.Join(dir, StepsDirName); isDir(sub) {
		res.StepsDir = sub
	}
	if sub := filepath.Join(dir, TasksDirName); isDir(sub) {
		res.AsyncTasksDir = sub
	}
	return res, nil
}

// InferFeaturesBase walks upward from a feature directory looking for
// the closest ancestor literally named "features". When none exists it
// falls back to the immediate parent of the outermost recognized
// convention segment, which may be shallower than the caller intended
func InferFeaturesBase(featureDir string) string {
	dir := filepath.Clean(featureDir)

	for cur := dir; ; {
		if filepath.Base(cur) == FeaturesDirName {
			return cur
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}

	cur := dir
	if IsMethodSegment(filepath.Base(cur)) {
		cur = filepath.Dir(cur)
	}
	for IsParamSegment(filepath.Base(cur)) {
		cur = filepath.Dir(cur)
	}
	return cur
}

// IsMethodSegment reports whether a path segment declares a verb
func IsMethodSegment(seg string) bool {
	return strings.HasPrefix(seg, MethodPrefix)
}

// IsParamSegment reports whether a path segment is a "[param]" parameter
func IsParamSegment(seg string) bool {
	return len(seg) > 2 && seg[0] == '[' && seg[len(seg)-1] == ']'
}

// ParamName maps a "[param]" segment to its ":param" route form
func ParamName(seg string) string {
	return ":" + seg[1:len(seg)-1]
}

func routePath(rel string) string {
	if rel == "." || rel == "" {
		return "/"
	}
	segs := strings.Split(filepath.ToSlash(rel), "/")
	for i, seg := range segs {
		if IsParamSegment(seg) {
			segs[i] = ParamName(seg)
		}
	}
	return "/" + strings.Join(segs, "/")
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
