// Package watch scans video files as they settle in a directory.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/kikiluvv/framescan/internal/logging"
	"github.com/kikiluvv/framescan/internal/scanner"
	"github.com/kikiluvv/framescan/pkg/util"
)

// DefaultDebounce is how long a file must go without writes before it is scanned.
const DefaultDebounce = 2 * time.Second

// ScanFunc scans one settled file.
type ScanFunc func(ctx context.Context, path string) scanner.Result

// Report is one output line.
type Report struct {
	Path   string         `json:"path"`
	Result scanner.Result `json:"result"`
}

// Watcher watches a single directory, non-recursively.
type Watcher struct {
	logger   zerolog.Logger
	dir      string
	debounce time.Duration
	scan     ScanFunc
	fs       *fsnotify.Watcher

	mu  sync.Mutex
	enc *json.Encoder
}

// New starts watching dir. Reports are written to out as JSON lines.
func New(logger zerolog.Logger, dir string, debounce time.Duration, scan ScanFunc, out io.Writer) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fs.Add(dir); err != nil {
		fs.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	return &Watcher{
		logger:   logging.WithComponent(logger, "watch").With().Str("dir", dir).Logger(),
		dir:      dir,
		debounce: debounce,
		scan:     scan,
		fs:       fs,
		enc:      json.NewEncoder(out),
	}, nil
}

// Run processes events until ctx is done, then releases the watch.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(max(w.debounce/4, 10*time.Millisecond))
	defer ticker.Stop()

	w.logger.Info().Dur("debounce", w.debounce).Msg("watching for videos")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Int("pending", len(pending)).Msg("watch stopped")
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(event, pending)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("watch error")

		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) < w.debounce {
					continue
				}
				delete(pending, path)
				w.process(ctx, path)
			}
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event, pending map[string]time.Time) {
	if !util.IsVideoFile(event.Name) {
		return
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		delete(pending, event.Name)
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		pending[event.Name] = time.Now()
		w.logger.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("queued file event")
	}
}

func (w *Watcher) process(ctx context.Context, path string) {
	if !util.FileExists(path) {
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	res := w.scan(ctx, abs)
	if ctx.Err() != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enc.Encode(Report{Path: abs, Result: res.Normalize()}); err != nil {
		w.logger.Error().Err(err).Str("path", abs).Msg("failed to write report")
	}
}
