// Package logging builds the [log/slog] logger from the application
// configuration and carries it through contexts. Release operations log
// through [ForRelease] so every record names the release it concerns.
package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/dmonroy/avionix/internal/config"
)

// outputTailLines bounds how much helm or kubectl output a log record
// carries. Errors keep the full text.
const outputTailLines = 5

type ctxKey struct{}

// New returns a logger configured by cfg writing to w.
func New(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.EffectiveLogLevel())}

	if cfg.LogFormat == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}

	return slog.New(slog.NewTextHandler(w, opts))
}

// Setup is New followed by slog.SetDefault, so packages that log through
// the default logger follow the configuration too.
func Setup(cfg *config.Config, w io.Writer) *slog.Logger {
	logger := New(cfg, w)
	slog.SetDefault(logger)

	return logger
}

// ParseLevel converts a configured level name to slog.Level.
func ParseLevel(level string) slog.Level {
	switch level {
	case config.LogLevelDebug:
		return slog.LevelDebug
	case config.LogLevelWarn:
		return slog.LevelWarn
	case config.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewContext returns a child context carrying logger.
func NewContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext extracts a logger from ctx, falling back to slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}

	return slog.Default()
}

// ForRelease returns logger annotated with the release it acts on.
func ForRelease(logger *slog.Logger, release, namespace string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}

	return logger.With(slog.String("release", release), slog.String("namespace", namespace))
}

// Output returns an attribute holding the last lines of a command's output.
func Output(key, text string) slog.Attr {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) > outputTailLines {
		lines = lines[len(lines)-outputTailLines:]
	}

	return slog.String(key, strings.Join(lines, "\n"))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
