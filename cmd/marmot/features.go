package main

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/kode4food/marmot/pkg/api"
	"github.com/kode4food/marmot/pkg/builder"
	"github.com/kode4food/marmot/pkg/log"
	"github.com/kode4food/marmot/pkg/registry"
)

// the demo feature set serves a small users resource backed by the
// configured store; its directory layout lives under features/
const usersCollection = "users"

func registerDemoFeatures(r *registry.Registry) {
	r.RegisterFeature("api/users/@post", builder.NewFeature().
		WithOnError(userError).
		Build())

	r.RegisterStep("api/users/@post/steps/100-validate", validateUser)
	r.RegisterStep("api/users/@post/steps/200-create", createUser)
	r.RegisterTask("api/users/@post/async-tasks/audit", auditUser)

	r.RegisterStep("api/users/[id]/@get/steps/100-find", findUser)

	r.RegisterStep("api/users/[id]/@put/steps/100-validate", validateUser)
	r.RegisterStep("api/users/[id]/@put/steps/200-update", updateUser)

	r.RegisterStep("api/users/[id]/@delete/steps/100-delete", deleteUser)
}

func validateUser(
	ctx *api.Context, req api.Request, res api.Response,
) (bool, error) {
	name := req.JSON("name")
	if name.String() == "" {
		res.Status(http.StatusBadRequest)
		res.JSON(api.ErrorResponse{
			Error:  "name is required",
			Status: http.StatusBadRequest,
		})
		return false, nil
	}
	ctx.Set("name", name.String())
	return true, nil
}

func createUser(
	ctx *api.Context, req api.Request, res api.Response,
) (bool, error) {
	name, _ := api.GetAs[string](ctx, "name")
	doc := api.Document{
		"id":   uuid.New().String(),
		"name": name,
	}
	id := doc["id"].(string)
	err := ctx.Store().Create(req.Context(), usersCollection, id, doc)
	if err != nil {
		return false, err
	}
	ctx.Set("user", doc)
	res.Status(http.StatusCreated)
	res.JSON(doc)
	return true, nil
}

func findUser(
	ctx *api.Context, req api.Request, res api.Response,
) (bool, error) {
	doc, err := ctx.Store().Find(
		req.Context(), usersCollection, req.Param("id"),
	)
	if errors.Is(err, api.ErrNotFound) {
		res.Status(http.StatusNotFound)
		res.JSON(api.ErrorResponse{
			Error:  err.Error(),
			Status: http.StatusNotFound,
		})
		return false, nil
	}
	if err != nil {
		return false, err
	}
	res.JSON(doc)
	return true, nil
}

func updateUser(
	ctx *api.Context, req api.Request, res api.Response,
) (bool, error) {
	id := req.Param("id")
	name, _ := api.GetAs[string](ctx, "name")
	doc := api.Document{"id": id, "name": name}
	err := ctx.Store().Update(req.Context(), usersCollection, id, doc)
	if errors.Is(err, api.ErrNotFound) {
		res.Status(http.StatusNotFound)
		res.JSON(api.ErrorResponse{
			Error:  err.Error(),
			Status: http.StatusNotFound,
		})
		return false, nil
	}
	if err != nil {
		return false, err
	}
	res.JSON(doc)
	return true, nil
}

func deleteUser(
	ctx *api.Context, req api.Request, res api.Response,
) (bool, error) {
	id := req.Param("id")
	err := ctx.Store().Delete(req.Context(), usersCollection, id)
	if errors.Is(err, api.ErrNotFound) {
		res.Status(http.StatusNotFound)
		res.JSON(api.ErrorResponse{
			Error:  err.Error(),
			Status: http.StatusNotFound,
		})
		return false, nil
	}
	if err != nil {
		return false, err
	}
	res.Status(http.StatusNoContent)
	res.Send(nil)
	return true, nil
}

func userError(
	err error, _ *api.Context, _ api.Request, res api.Response,
) *api.RetrySignal {
	if errors.Is(err, api.ErrExists) {
		res.Status(http.StatusConflict)
		res.JSON(api.ErrorResponse{
			Error:  err.Error(),
			Status: http.StatusConflict,
		})
	}
	return nil
}

func auditUser(ctx *api.Context) error {
	doc, ok := api.GetAs[api.Document](ctx, "user")
	if !ok {
		return nil
	}
	slog.Info("User created",
		log.RequestID(ctx.RequestID()),
		slog.Any("user", doc))
	return nil
}
