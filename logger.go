package mzcache

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger is the structured logger shared by the cache, the writer and the CLI.
// Field names are stable: path, kind, id, rt, delta_rt.
type Logger struct {
	*slog.Logger
}

// silent sits above every level slog defines.
const silent = slog.Level(1 << 10)

func stderrLogger(json bool, level slog.Level) *Logger {
	opts := &slog.HandlerOptions{Level: level}
	if json {
		return &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stderr, opts))}
	}
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, opts))}
}

// NewLogger wraps handler. A nil handler logs text at info level to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		return stderrLogger(false, slog.LevelInfo)
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger writes JSON lines to stderr at or above level.
func NewJSONLogger(level slog.Level) *Logger { return stderrLogger(true, level) }

// NewTextLogger writes logfmt-style text to stderr at or above level.
func NewTextLogger(level slog.Level) *Logger { return stderrLogger(false, level) }

// NoopLogger drops everything. It is the default for Open and Save.
func NoopLogger() *Logger { return stderrLogger(false, silent) }

// WithPath adds a path field to the logger.
func (l *Logger) WithPath(path string) *Logger {
	return &Logger{
		Logger: l.Logger.With("path", path),
	}
}

// WithKind adds a record kind field to the logger.
func (l *Logger) WithKind(kind RecordKind) *Logger {
	return &Logger{
		Logger: l.Logger.With("kind", string(kind)),
	}
}

// LogOpen logs opening a cache.
func (l *Logger) LogOpen(ctx context.Context, path string, spectra, chromatograms int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "open failed",
			"path", path,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "cache opened",
			"path", path,
			"spectra", spectra,
			"chromatograms", chromatograms,
		)
	}
}

// LogRead logs a record read.
func (l *Logger) LogRead(ctx context.Context, kind RecordKind, id, values int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "read failed",
			"kind", string(kind),
			"id", id,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "read completed",
			"kind", string(kind),
			"id", id,
			"values", values,
		)
	}
}

// LogRTQuery logs a retention-time window query.
func (l *Logger) LogRTQuery(ctx context.Context, rt, deltaRT float64, results int, err error) {
	if err != nil {
		l.WarnContext(ctx, "rt query rejected",
			"rt", rt,
			"delta_rt", deltaRT,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "rt query completed",
			"rt", rt,
			"delta_rt", deltaRT,
			"results", results,
		)
	}
}

// LogSave logs writing a run.
func (l *Logger) LogSave(ctx context.Context, basename string, spectra, chromatograms int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "save failed",
			"basename", basename,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "run saved",
			"basename", basename,
			"spectra", spectra,
			"chromatograms", chromatograms,
		)
	}
}

// LogPublish logs copying a run into a blob store.
func (l *Logger) LogPublish(ctx context.Context, name string, size int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "publish failed", "name", name, "error", err)
		return
	}
	l.InfoContext(ctx, "run published", "name", name, "size", size)
}

// LogVerify logs a verification pass.
func (l *Logger) LogVerify(ctx context.Context, path string, records int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "verify failed",
			"path", path,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "verify completed",
			"path", path,
			"records", records,
			"duration", elapsed,
		)
	}
}
