package pebble

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// Logger routes pebble's internal logging to a [slog.Logger]. Assign it to
// [pebble.Options.LoggerAndTracer].
//
// Informational messages are logged at debug level, since pebble is chatty
// about compactions and flushes. Tracing is always disabled.
type Logger struct {
	logger *slog.Logger
}

// NewLogger returns a pebble logger that writes to l.
func NewLogger(l *slog.Logger) *Logger {
	return &Logger{logger: l}
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...), slog.String("component", "pebble"))
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...), slog.String("component", "pebble"))
}

func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...), slog.String("component", "pebble"))
	os.Exit(1)
}

func (l *Logger) Eventf(ctx context.Context, format string, args ...interface{}) {}

func (l *Logger) IsTracingEnabled(ctx context.Context) bool {
	return false
}
