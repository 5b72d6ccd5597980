package pipeline

import (
	"log/slog"

	"github.com/kode4food/marmot/internal/telemetry"
	"github.com/kode4food/marmot/pkg/api"
	"github.com/kode4food/marmot/pkg/log"
)

// dispatch launches a feature's async tasks after the pipeline settles.
// Tasks run concurrently and detached; the runtime offers no way to
// await or cancel them, and a process shutdown may abandon them. A
// failing task never affects its siblings or the already-sent response
func (e *Executor) dispatch(
	f *api.Feature, ctx *api.Context, logger *slog.Logger,
) {
	for _, t := range f.Tasks {
		go e.runTask(f, t, ctx, logger)
	}
}

func (e *Executor) runTask(
	f *api.Feature, t *api.Task, ctx *api.Context, logger *slog.Logger,
) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Async task panicked",
				log.Task(t.Name), slog.Any("panic", r))
			e.metrics.CountTask(f.Convention.Path, telemetry.TaskPanic)
		}
	}()

	if err := t.Handler(ctx); err != nil {
		logger.Error("Async task failed", log.Task(t.Name), log.Error(err))
		e.metrics.CountTask(f.Convention.Path, telemetry.TaskError)
		return
	}
	e.metrics.CountTask(f.Convention.Path, telemetry.TaskOK)
}
