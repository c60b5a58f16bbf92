// SPDX-License-Identifier: MPL-2.0

// Package watch re-runs a project action when its inputs change.
//
// A Watcher monitors a project directory, filters filesystem events through
// doublestar glob patterns, and calls OnChange once per quiet period with
// every path that changed in it. kiln uses it to re-resolve when kiln.cue
// is edited and to republish snapshots when build outputs are rewritten.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when Config.Debounce is zero.
const DefaultDebounce = 500 * time.Millisecond

var (
	// ErrInvalidConfig is the sentinel wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid watch config")

	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("watcher already running")

	// defaultIgnores are VCS metadata, IDE and build-tool state, and editor
	// swap files.
	defaultIgnores = []string{
		"**/.git/**",
		"**/.gradle/**",
		"**/.idea/**",
		"**/*.swp",
		"**/*~",
		"**/.DS_Store",
		"**/.kiln-upload-*",
	}
)

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// Dir is the project directory. Empty means the working directory.
		Dir string
		// Patterns select the paths, relative to Dir, that trigger OnChange.
		// No patterns means every path that is not ignored.
		Patterns []string
		// Ignore is added to the default ignores.
		Ignore   []string
		Debounce time.Duration
		// OnChange receives the changed paths, relative to Dir and sorted.
		OnChange func(ctx context.Context, changed []string) error
		Logger   *slog.Logger
	}

	// InvalidConfigError lists the problems of a Config.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Watcher monitors a directory tree. Run must be called once.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		ignores  []string
		debounce time.Duration
		dir      string
		logger   *slog.Logger
		started  atomic.Bool
	}
)

// Validate checks the glob patterns and the debounce period.
func (c Config) Validate() error {
	var errs []error
	for _, p := range c.Patterns {
		if !doublestar.ValidatePattern(p) {
			errs = append(errs, fmt.Errorf("pattern %q is not a valid glob", p))
		}
	}
	for _, p := range c.Ignore {
		if !doublestar.ValidatePattern(p) {
			errs = append(errs, fmt.Errorf("ignore pattern %q is not a valid glob", p))
		}
	}
	if c.Debounce < 0 {
		errs = append(errs, fmt.Errorf("debounce %s is negative", c.Debounce))
	}
	if c.OnChange == nil {
		errs = append(errs, errors.New("no change callback"))
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid watch config: %v", errors.Join(e.FieldErrors...))
}

func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// New validates cfg and registers every directory under cfg.Dir that is
// not ignored.
func New(cfg Config) (*Watcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dir := cfg.Dir
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve watch directory: %w", err)
	}
	debounce := cfg.Debounce
	if debounce == 0 {
		debounce = DefaultDebounce
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		ignores:  append(slices.Clone(defaultIgnores), cfg.Ignore...),
		debounce: debounce,
		dir:      abs,
		logger:   logger,
	}
	if err := w.addTree(abs); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run dispatches debounced callbacks until ctx is canceled. A callback
// still running when the next quiet period ends delays that batch rather
// than running concurrently. Callback errors are logged, not returned.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		busy    atomic.Bool
	)

	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !busy.CompareAndSwap(false, true) {
			mu.Lock()
			timer.Reset(w.debounce)
			mu.Unlock()
			return
		}
		defer busy.Store(false)

		mu.Lock()
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()
		if len(changed) == 0 {
			return
		}
		w.logger.Debug("inputs changed", "paths", changed)
		if err := w.cfg.OnChange(ctx, changed); err != nil {
			w.logger.Warn("re-run failed", "error", err)
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("closing watcher failed", "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("fsnotify event channel closed")
			}
			rel, err := filepath.Rel(w.dir, evt.Name)
			if err != nil {
				rel = evt.Name
			}
			rel = filepath.ToSlash(rel)
			if w.ignored(rel) {
				continue
			}
			if evt.Has(fsnotify.Create) {
				w.addIfDir(evt.Name)
			}
			if !w.selected(rel) {
				continue
			}
			mu.Lock()
			pending[rel] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("fsnotify error channel closed")
			}
			if isFatal(err) {
				return fmt.Errorf("watching %s: %w", w.dir, err)
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) addTree(root string) error {
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("not watching inaccessible path", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if rel, relErr := filepath.Rel(w.dir, path); relErr == nil && rel != "." && w.ignored(filepath.ToSlash(rel)+"/") {
			return filepath.SkipDir
		}
		if addErr := w.fsw.Add(path); addErr != nil {
			return fmt.Errorf("watch %s: %w", path, addErr)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walking %s: %w", root, err)
	}
	return nil
}

// addIfDir extends the watch to directories created after New, such as a
// fresh build output directory.
func (w *Watcher) addIfDir(path string) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		if err := w.addTree(path); err != nil {
			w.logger.Warn("watching new directory failed", "path", path, "error", err)
		}
	}
}

func (w *Watcher) ignored(rel string) bool {
	return matchAny(w.ignores, rel)
}

func (w *Watcher) selected(rel string) bool {
	return len(w.cfg.Patterns) == 0 || matchAny(w.cfg.Patterns, rel)
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if doublestar.MatchUnvalidated(p, rel) {
			return true
		}
	}
	return false
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	return slices.Clone(defaultIgnores)
}
