package registry_test

import (
	"testing"

	testify "github.com/stretchr/testify/assert"

	"github.com/kode4food/marmot/pkg/api"
	"github.com/kode4food/marmot/pkg/builder"
	"github.com/kode4food/marmot/pkg/registry"
)

func noopStep(*api.Context, api.Request, api.Response) (bool, error) {
	return true, nil
}

func noopTask(*api.Context) error {
	return nil
}

func TestRegisterAndResolve(t *testing.T) {
	r := registry.New()
	r.RegisterStep("api/users/@post/steps/100-validate", noopStep)
	r.RegisterTask("api/users/@post/async-tasks/audit", noopTask)
	r.RegisterFeature("api/users/@post", builder.NewFeature().Build())

	fn, ok := r.Step("api/users/@post/steps/100-validate")
	testify.True(t, ok)
	testify.NotNil(t, fn)

	task, ok := r.Task("api/users/@post/async-tasks/audit")
	testify.True(t, ok)
	testify.NotNil(t, task)

	mod, ok := r.Feature("api/users/@post")
	testify.True(t, ok)
	testify.NotNil(t, mod)

	_, ok = r.Step("api/users/@post/steps/999-missing")
	testify.False(t, ok)
}

func TestLookupNormalization(t *testing.T) {
	r := registry.New()
	r.RegisterStep("api/users/@post/steps/100-validate", noopStep)

	// extensions and platform separators are canonicalized away
	_, ok := r.Step("api/users/@post/steps/100-validate.step")
	testify.True(t, ok)
	_, ok = r.Step("./api/users/@post/steps/100-validate")
	testify.True(t, ok)
	_, ok = r.Step(`api\users\@post\steps\100-validate.js`)
	testify.True(t, ok)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, out string
	}{
		{"api/users/@post/steps/100-validate.step", "api/users/@post/steps/100-validate"},
		{"./api/@get", "api/@get"},
		{`api\@get`, "api/@get"},
		{"api//users/@get", "api/users/@get"},
		{"plain", "plain"},
	}
	for _, tc := range tests {
		testify.Equal(t, tc.out, registry.Normalize(tc.in), tc.in)
	}
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	r := registry.New()
	r.RegisterStep("a/@get/steps/100-x", noopStep)
	testify.Panics(t, func() {
		r.RegisterStep("a/@get/steps/100-x.step", noopStep)
	})

	r.RegisterTask("a/@get/async-tasks/t", noopTask)
	testify.Panics(t, func() {
		r.RegisterTask("a/@get/async-tasks/t", noopTask)
	})

	r.RegisterFeature("a/@get", builder.NewFeature().Build())
	testify.Panics(t, func() {
		r.RegisterFeature("a/@get", builder.NewFeature().Build())
	})
}

func TestNilHandlerPanics(t *testing.T) {
	r := registry.New()
	testify.Panics(t, func() {
		r.RegisterStep("a/@get/steps/100-x", nil)
	})
	testify.Panics(t, func() {
		r.RegisterTask("a/@get/async-tasks/t", nil)
	})
}

func TestStepKeysSorted(t *testing.T) {
	r := registry.New()
	r.RegisterStep("b/@get/steps/100-x", noopStep)
	r.RegisterStep("a/@get/steps/100-x", noopStep)

	testify.Equal(t, []string{
		"a/@get/steps/100-x", "b/@get/steps/100-x",
	}, r.StepKeys())
}
