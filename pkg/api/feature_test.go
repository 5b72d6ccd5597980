package api_test

import (
	"testing"

	testify "github.com/stretchr/testify/assert"

	"github.com/kode4food/marmot/pkg/api"
)

func noopStep(*api.Context, api.Request, api.Response) (bool, error) {
	return true, nil
}

func noopTask(*api.Context) error {
	return nil
}

func validFeature() *api.Feature {
	return &api.Feature{
		Convention: api.Convention{Method: api.GET, Path: "/things"},
		Steps: []*api.Step{
			{Order: 100, Name: "first", Handler: noopStep},
			{Order: 200, Name: "second", Handler: noopStep},
		},
	}
}

func TestValidateOK(t *testing.T) {
	testify.NoError(t, validFeature().Validate())
}

func TestValidateInitOnly(t *testing.T) {
	f := validFeature()
	f.Steps = nil
	f.Init = func(*api.Context, api.Request, api.Response) error {
		return nil
	}
	testify.NoError(t, f.Validate())
}

func TestValidateEmpty(t *testing.T) {
	f := validFeature()
	f.Steps = nil
	testify.ErrorIs(t, f.Validate(), api.ErrFeatureEmpty)
}

func TestValidateBadMethod(t *testing.T) {
	f := validFeature()
	f.Convention.Method = "OPTIONS"
	testify.ErrorIs(t, f.Validate(), api.ErrInvalidMethod)
}

func TestValidateBadPath(t *testing.T) {
	f := validFeature()
	f.Convention.Path = "things"
	testify.ErrorIs(t, f.Validate(), api.ErrPathNotAbsolute)

	f.Convention.Path = ""
	testify.ErrorIs(t, f.Validate(), api.ErrPathNotAbsolute)
}

func TestValidateStepProblems(t *testing.T) {
	f := validFeature()
	f.Steps[1].Name = ""
	testify.ErrorIs(t, f.Validate(), api.ErrStepNameEmpty)

	f = validFeature()
	f.Steps[1].Handler = nil
	testify.ErrorIs(t, f.Validate(), api.ErrStepHandlerNil)

	f = validFeature()
	f.Steps[1].Order = 100
	testify.ErrorIs(t, f.Validate(), api.ErrDuplicateOrder)

	f = validFeature()
	f.Steps[0], f.Steps[1] = f.Steps[1], f.Steps[0]
	testify.ErrorIs(t, f.Validate(), api.ErrStepsOutOfOrder)
}

func TestValidateTaskProblems(t *testing.T) {
	f := validFeature()
	f.Tasks = []*api.Task{{Name: "", Handler: noopTask}}
	testify.ErrorIs(t, f.Validate(), api.ErrTaskNameEmpty)

	f = validFeature()
	f.Tasks = []*api.Task{{Name: "audit", Handler: nil}}
	testify.ErrorIs(t, f.Validate(), api.ErrTaskHandlerNil)

	f = validFeature()
	f.Tasks = []*api.Task{
		{Name: "audit", Handler: noopTask},
		{Name: "audit", Handler: noopTask},
	}
	testify.ErrorIs(t, f.Validate(), api.ErrDuplicateTaskKey)
}

func TestRouteString(t *testing.T) {
	c := api.Convention{Method: api.DELETE, Path: "/api/users/:id"}
	testify.Equal(t, "DELETE /api/users/:id", c.Route())
}
