package stmregion

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with region-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithRoot adds a root ID field to the logger.
func (l *Logger) WithRoot(id uint64) *Logger {
	return &Logger{
		Logger: l.Logger.With("root", id),
	}
}

// WithRegion adds a region ID field to the logger.
func (l *Logger) WithRegion(id uint64) *Logger {
	return &Logger{
		Logger: l.Logger.With("region", id),
	}
}

// LogRecycle logs a completed recycle.
func (l *Logger) LogRecycle(region uint64, kind RecycleKind, legacy, pooled, spilled int) {
	l.DebugContext(context.Background(), "region recycled",
		"region", region,
		"kind", kind.String(),
		"legacy_pages", legacy,
		"pooled", pooled,
		"spilled", spilled,
	)
}

// LogDrain logs one drained expired descriptor.
func (l *Logger) LogDrain(region uint64, dc int64, recycled bool) {
	l.DebugContext(context.Background(), "expired descriptor drained",
		"region", region,
		"dc", dc,
		"recycled", recycled,
	)
}

// LogSpill logs pages returned to the OS because the pool was saturated.
func (l *Logger) LogSpill(region uint64, spilled, poolLen, poolLimit int) {
	l.DebugContext(context.Background(), "page pool saturated, spilled to OS",
		"region", region,
		"spilled", spilled,
		"pool", poolLen,
		"pool_limit", poolLimit,
	)
}

// LogFatal logs an invariant violation right before the abort.
func (l *Logger) LogFatal(err *InvariantError) {
	l.ErrorContext(context.Background(), "region invariant violated",
		"op", err.Op,
		"region", err.Region,
		"detail", err.Detail,
		"error", err,
	)
}
