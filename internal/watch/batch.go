package watch

import (
	"log/slog"
	"slices"
	"sync"
	"time"
)

// changeBatch collects the chart files touched while edits are still
// arriving and hands them over once the chart has been quiet for the
// configured interval.
type changeBatch struct {
	quiet  time.Duration
	flush  func(changed []string)
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
}

func newChangeBatch(quiet time.Duration, logger *slog.Logger, flush func(changed []string)) *changeBatch {
	return &changeBatch{
		quiet:   quiet,
		flush:   flush,
		logger:  logger,
		pending: make(map[string]struct{}),
	}
}

// add records a changed path and restarts the quiet period.
func (b *changeBatch) add(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pending[path] = struct{}{}

	if b.timer != nil {
		b.timer.Stop()
	}

	b.timer = time.AfterFunc(b.quiet, b.fire)
}

// fire drains the pending set. Paths arriving while flush runs start a
// new batch.
func (b *changeBatch) fire() {
	b.mu.Lock()
	changed := make([]string, 0, len(b.pending))

	for p := range b.pending {
		changed = append(changed, p)
	}

	clear(b.pending)
	b.timer = nil
	b.mu.Unlock()

	if len(changed) == 0 {
		return
	}

	slices.Sort(changed)

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("deployment panicked", slog.Any("changed", changed), slog.Any("error", r))
		}
	}()

	b.flush(changed)
}

// stop discards pending changes.
func (b *changeBatch) stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}

	clear(b.pending)
}
