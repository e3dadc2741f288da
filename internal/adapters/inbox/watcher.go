// Package inbox imports quote files dropped into a watched directory.
//
// A file named *.json is handed to the importer once it has stopped changing.
// Afterwards it is renamed to *.json.imported, or *.json.failed when the
// payload was rejected, so it is never picked up twice.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jsamuelsen/quotebook/internal/app"
)

const (
	// DefaultSettle is how long a file must stay quiet before it is imported.
	DefaultSettle = 500 * time.Millisecond

	importedSuffix = ".imported"
	failedSuffix   = ".failed"
)

// Importer consumes one import payload.
type Importer interface {
	Import(ctx context.Context, r io.Reader) (app.ImportReport, error)
}

// Config contains the watcher settings.
type Config struct {
	// Dir is the inbox directory. Created when missing. Required.
	Dir string

	Importer Importer

	// Settle defaults to DefaultSettle.
	Settle time.Duration

	Logger *slog.Logger
}

// Watcher moves quote files from the inbox into the store.
type Watcher struct {
	dir      string
	importer Importer
	settle   time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	pending map[string]time.Time
}

// New creates a watcher. Panics if Dir or Importer is missing.
func New(cfg Config) *Watcher {
	if cfg.Dir == "" || cfg.Importer == nil {
		panic("inbox: Watcher requires a directory and an importer")
	}

	if cfg.Settle <= 0 {
		cfg.Settle = DefaultSettle
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Watcher{
		dir:      cfg.Dir,
		importer: cfg.Importer,
		settle:   cfg.Settle,
		logger:   cfg.Logger,
		pending:  make(map[string]time.Time),
	}
}

// Run watches the inbox until ctx is cancelled. Files already present when
// it starts are imported too.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o750); err != nil {
		return fmt.Errorf("creating inbox %s: %w", w.dir, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watching inbox %s: %w", w.dir, err)
	}

	w.logger.InfoContext(ctx, "inbox watcher started", slog.String("dir", w.dir))

	w.scan(ctx)

	ticker := time.NewTicker(w.settle / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "inbox watcher stopped")

			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}

			w.observe(event)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}

			w.logger.WarnContext(ctx, "inbox watcher error", slog.String("error", err.Error()))

		case <-ticker.C:
			w.flush(ctx, time.Now())
		}
	}
}

// scan imports the files present before the watch began.
func (w *Watcher) scan(ctx context.Context) {
	matches, err := filepath.Glob(filepath.Join(w.dir, "*.json"))
	if err != nil {
		return
	}

	for _, path := range matches {
		w.process(ctx, path)
	}
}

func (w *Watcher) observe(event fsnotify.Event) {
	if !isCandidate(event.Name) || (!event.Has(fsnotify.Create) && !event.Has(fsnotify.Write)) {
		return
	}

	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

// flush imports every pending file that has been quiet for the settle period.
func (w *Watcher) flush(ctx context.Context, now time.Time) {
	w.mu.Lock()

	var ready []string

	for path, seen := range w.pending {
		if now.Sub(seen) >= w.settle {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}

	w.mu.Unlock()

	for _, path := range ready {
		w.process(ctx, path)
	}
}

func (w *Watcher) process(ctx context.Context, path string) {
	logger := w.logger.With(slog.String("file", filepath.Base(path)))

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return
	}

	if err != nil {
		logger.WarnContext(ctx, "inbox file unreadable", slog.String("error", err.Error()))
		w.rename(ctx, path, failedSuffix)

		return
	}

	report, err := w.importer.Import(ctx, f)
	_ = f.Close()

	if err != nil {
		logger.WarnContext(ctx, "inbox file rejected", slog.String("error", err.Error()))
		w.rename(ctx, path, failedSuffix)

		return
	}

	logger.InfoContext(ctx, "inbox file imported",
		slog.Int("imported", report.Imported),
		slog.Int("skipped", report.Skipped),
	)
	w.rename(ctx, path, importedSuffix)
}

func (w *Watcher) rename(ctx context.Context, path, suffix string) {
	if err := os.Rename(path, path+suffix); err != nil {
		w.logger.ErrorContext(ctx, "inbox file could not be moved aside",
			slog.String("file", filepath.Base(path)),
			slog.String("error", err.Error()),
		)
	}
}

func isCandidate(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
