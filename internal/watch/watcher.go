package watch

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
)

// RunFunc deploys the chart. changed lists the chart files touched since
// the previous run, relative to the chart directory; it is nil for the
// initial run.
type RunFunc func(ctx context.Context, changed []string) (*RunResult, error)

// RunResult summarizes one deployment triggered by the watcher.
type RunResult struct {
	// Action is what the run did, e.g. "installed" or "upgraded".
	Action    string
	Templates int
}

// Options configures the watch behaviour.
type Options struct {
	// ChartDir is the root chart directory to watch recursively.
	ChartDir string

	// ExtraFiles are additional files to watch.
	ExtraFiles []string

	// Debounce is the quiet period before triggering a run.
	Debounce time.Duration

	// Lint runs LintFn before every run and skips the run when it fails.
	Lint bool

	// LintFn checks the chart directory. If nil, linting is skipped even
	// when Lint is true.
	LintFn LintFunc

	// Logger is used for structured logging.
	Logger *slog.Logger

	// Out is the writer for user-facing status messages.
	Out io.Writer
}

// DefaultOptions returns sensible default watch options.
func DefaultOptions() Options {
	return Options{
		Debounce: 500 * time.Millisecond,
		Lint:     true,
		Logger:   slog.Default(),
		Out:      os.Stderr,
	}
}

// LintFunc checks a chart directory before it is deployed.
type LintFunc func(ctx context.Context, chartDir string) error

// Run starts the file watcher and blocks until the context is cancelled
// or a SIGINT/SIGTERM signal is received.
func Run(ctx context.Context, opts Options, runFn RunFunc) error {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.Out == nil {
		opts.Out = io.Discard
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	root, err := filepath.Abs(opts.ChartDir)
	if err != nil {
		return fmt.Errorf("resolving chart directory: %w", err)
	}

	if err := addRecursive(watcher, root); err != nil {
		return fmt.Errorf("watching chart directory: %w", err)
	}

	for _, f := range opts.ExtraFiles {
		abs, absErr := filepath.Abs(f)
		if absErr != nil {
			return fmt.Errorf("resolving extra file %q: %w", f, absErr)
		}

		if err := watcher.Add(abs); err != nil {
			return fmt.Errorf("watching file %q: %w", abs, err)
		}
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(opts.Out, "watching %s (debounce=%s, lint=%t)\n",
		opts.ChartDir, opts.Debounce, opts.Lint)

	doRun(sigCtx, opts, runFn, nil)

	// Runs are serialized: helm must not race itself on one release.
	var runMu sync.Mutex

	batch := newChangeBatch(opts.Debounce, opts.Logger, func(changed []string) {
		runMu.Lock()
		defer runMu.Unlock()

		doRun(sigCtx, opts, runFn, changed)
	})
	defer batch.stop()

	for {
		select {
		case <-sigCtx.Done():
			fmt.Fprintln(opts.Out, "\nshutting down watcher")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			rel := chartPath(root, event.Name)
			if !isRelevant(rel, event) {
				continue
			}

			if event.Has(fsnotify.Create) {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					_ = addRecursive(watcher, event.Name)
				}
			}

			opts.Logger.Debug("change detected", slog.String("path", rel), slog.String("op", event.Op.String()))
			batch.add(rel)

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			opts.Logger.Error("watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// doRun lints, runs and prints the status line.
func doRun(ctx context.Context, opts Options, runFn RunFunc, changed []string) {
	now := time.Now().Format("15:04:05")
	trigger := describe(changed)

	if opts.Lint && opts.LintFn != nil {
		if lintErr := opts.LintFn(ctx, opts.ChartDir); lintErr != nil {
			fmt.Fprintf(opts.Out, "[%s] %s → lint FAILED: %v\n", now, trigger, lintErr)
			return
		}
	}

	result, err := runFn(ctx, changed)
	if err != nil {
		fmt.Fprintf(opts.Out, "[%s] %s → ERROR: %v\n", now, trigger, err)
		return
	}

	fmt.Fprintf(opts.Out, "[%s] %s → %s (%d templates)\n",
		now, trigger, result.Action, result.Templates)
}

// describe renders the files behind a run for the status line.
func describe(changed []string) string {
	switch len(changed) {
	case 0:
		return "(initial)"
	case 1:
		return changed[0]
	default:
		return fmt.Sprintf("%s (+%d more)", changed[0], len(changed)-1)
	}
}

// addRecursive adds root and its directories to the watcher. Hidden
// directories and the vendored dependency directory are skipped.
func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() {
			return nil
		}

		if path != root && (strings.HasPrefix(d.Name(), ".") || d.Name() == dependencyDir) {
			return filepath.SkipDir
		}

		return watcher.Add(path)
	})
}

// dependencyDir holds subcharts fetched by "helm dependency update".
// Every deployment rewrites it, as it does Chart.lock.
const (
	dependencyDir = "charts"
	lockFile      = "Chart.lock"
)

// chartPath returns name relative to the chart root in slash form. Files
// outside the root (extra watched files) keep their absolute path.
func chartPath(root, name string) string {
	rel, err := filepath.Rel(root, name)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return name
	}

	return filepath.ToSlash(rel)
}

// isRelevant reports whether an event on rel should redeploy the chart.
func isRelevant(rel string, event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	if rel == lockFile || rel == dependencyDir || strings.HasPrefix(rel, dependencyDir+"/") {
		return false
	}

	name := filepath.Base(rel)

	// Editor temporaries and hidden files.
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") ||
		strings.HasSuffix(name, ".swp") || strings.HasPrefix(name, "#") {
		return false
	}

	return true
}
