package scanner

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kode4food/marmot/internal/util"
	"github.com/kode4food/marmot/pkg/api"
	"github.com/kode4food/marmot/pkg/log"
)

// DefaultDebounce coalesces bursts of file events into one rescan
const DefaultDebounce = 250 * time.Millisecond

// Watch observes the features root for changes and rescans after each
// burst of events, invoking onChange with the fresh feature set. A
// rescan failure keeps the previous feature set live and is only
// logged. Watch blocks until the context is cancelled
func (s *Scanner) Watch(
	ctx context.Context, root string, onChange func([]*api.Feature),
) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	watched := util.Set[string]{}
	if err := watchTree(w, root, watched); err != nil {
		return err
	}

	var pending <-chan time.Time
	debounce := time.NewTimer(DefaultDebounce)
	if !debounce.Stop() {
		<-debounce.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				// new directories need their own watches
				_ = watchTree(w, ev.Name, watched)
			}
			debounce.Reset(DefaultDebounce)
			pending = debounce.C

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Feature watcher error", log.Error(err))

		case <-pending:
			pending = nil
			features, err := s.Scan(root)
			if err != nil {
				slog.Error("Rescan failed; keeping previous features",
					log.Dir(root), log.Error(err))
				continue
			}
			slog.Info("Features rescanned",
				log.Dir(root), slog.Int("count", len(features)))
			onChange(features)
		}
	}
}

func watchTree(w *fsnotify.Watcher, root string, watched util.Set[string]) error {
	return filepath.WalkDir(root, func(
		path string, d fs.DirEntry, err error,
	) error {
		if err != nil {
			// the path may already be gone again
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if hidden(d.Name()) && path != root {
			return filepath.SkipDir
		}
		if watched.Contains(path) {
			return nil
		}
		if err := w.Add(path); err != nil {
			return err
		}
		watched.Add(path)
		return nil
	})
}
