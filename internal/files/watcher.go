package files

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"

	"creditfile/internal/validation"
)

// DefaultSettle is how long a workbook must stay unchanged before it is
// handed over
const DefaultSettle = 500 * time.Millisecond

// Handler receives a workbook that was created or rewritten
type Handler func(ctx context.Context, file FileInfo)

// Watcher reports workbooks written into a directory. Bursts of events
// for one file collapse into a single call once the file settles.
type Watcher struct {
	dir     string
	settle  time.Duration
	watcher *fsnotify.Watcher
	logger  *slog.Logger
}

type settled struct {
	path string
	gen  int
}

// NewWatcher starts watching dir. Events are buffered until Run is called.
func NewWatcher(dir string, settle time.Duration, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if settle <= 0 {
		settle = DefaultSettle
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	return &Watcher{
		dir:     dir,
		settle:  settle,
		watcher: fw,
		logger:  logger.With(slog.String("component", "watcher")),
	}, nil
}

// Run calls handle for every settled workbook until ctx is done. Handlers
// run one at a time on the caller's goroutine.
func (w *Watcher) Run(ctx context.Context, handle Handler) error {
	defer w.watcher.Close()

	w.logger.Info("Watching for reports", slog.String("directory", w.dir))

	generations := make(map[string]int)
	timers := make(map[string]*time.Timer)
	ready := make(chan settled)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if validation.CheckWorkbookName(ev.Name) != nil {
				continue
			}
			generations[ev.Name]++
			s := settled{path: ev.Name, gen: generations[ev.Name]}
			if t := timers[ev.Name]; t != nil {
				t.Stop()
			}
			timers[ev.Name] = time.AfterFunc(w.settle, func() {
				select {
				case ready <- s:
				case <-ctx.Done():
				}
			})

		case s := <-ready:
			if generations[s.path] != s.gen {
				continue
			}
			delete(generations, s.path)
			delete(timers, s.path)

			info, err := os.Stat(s.path)
			if err != nil || info.IsDir() {
				continue
			}
			w.logger.Debug("Report settled", slog.String("file", s.path))
			handle(ctx, newFileInfo(s.path, info))

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", slog.String("error", err.Error()))
		}
	}
}

// Close stops watching without running
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
