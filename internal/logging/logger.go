package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog.Logger with tenant index field names.
type Logger struct {
	*slog.Logger
}

// New creates a Logger with the given handler. A nil handler logs text to
// stderr at info level.
func New(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewText creates a Logger writing human-readable text to w.
func NewText(w io.Writer, level slog.Level) *Logger {
	return New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewJSON creates a Logger writing JSON lines to w.
func NewJSON(w io.Writer, level slog.Level) *Logger {
	return New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// Noop creates a Logger that discards everything.
func Noop() *Logger {
	return New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(1000)}))
}

// Open builds a Logger from configuration names: format is "text" or "json",
// level is one of debug, info, warn, error.
func Open(w io.Writer, format, level string) (*Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(format) {
	case "", "text":
		return NewText(w, lvl), nil
	case "json":
		return NewJSON(w, lvl), nil
	}
	return nil, fmt.Errorf("logging: unknown format %q", format)
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	var lvl slog.Level
	if name == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo, fmt.Errorf("logging: %w", err)
	}
	return lvl, nil
}

// WithTenant adds a tenant field.
func (l *Logger) WithTenant(tenantID int64) *Logger {
	return &Logger{Logger: l.Logger.With("tenant", tenantID)}
}

// LogLoad logs which tier served an index.
func (l *Logger) LogLoad(ctx context.Context, tier string, count, dim int) {
	l.DebugContext(ctx, "index resolved",
		"tier", tier,
		"count", count,
		"dimension", dim,
	)
}

// LogRebuild logs a rebuild from the source store.
func (l *Logger) LogRebuild(ctx context.Context, records, skipped int, err error) {
	switch {
	case err != nil:
		l.ErrorContext(ctx, "rebuild failed",
			"records", records,
			"error", err,
		)
	case records-skipped == 0:
		l.InfoContext(ctx, "rebuild found no vectors",
			"records", records,
			"skipped", skipped,
		)
	default:
		l.InfoContext(ctx, "rebuild completed",
			"count", records-skipped,
			"skipped", skipped,
		)
	}
}

// LogPush logs an incremental insert.
func (l *Logger) LogPush(ctx context.Context, added, duplicates, total int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "push failed",
			"added", added,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "push completed",
		"added", added,
		"duplicates", duplicates,
		"count", total,
	)
}

// LogSearch logs a top-k search.
func (l *Logger) LogSearch(ctx context.Context, k, results int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"k", k,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "search completed",
		"k", k,
		"results", results,
	)
}

// LogSkip logs a source record left out of a rebuild.
func (l *Logger) LogSkip(ctx context.Context, recordID int64, reason error) {
	l.WarnContext(ctx, "skipping malformed record",
		"id", recordID,
		"error", reason,
	)
}

// LogCorrupt logs persisted files that could not be used.
func (l *Logger) LogCorrupt(ctx context.Context, path string, err error) {
	l.WarnContext(ctx, "persisted index unusable, rebuilding",
		"path", path,
		"error", err,
	)
}
