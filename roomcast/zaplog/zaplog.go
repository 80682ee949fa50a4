// Package zaplog adapts a zap logger to the roomcast Logger interface.
package zaplog

import (
	"sort"

	"go.uber.org/zap"
)

// Logger forwards roomcast log entries to zap.
type Logger struct {
	z *zap.Logger
}

// New wraps an existing zap logger.
func New(z *zap.Logger) *Logger {
	return &Logger{z: z}
}

// NewDevelopment builds a logger with zap's development config, handy
// for examples and manual testing.
func NewDevelopment() (*Logger, error) {
	z, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}
	return &Logger{z: z}, nil
}

func (l *Logger) Debug(msg string, fields map[string]any) { l.z.Debug(msg, zapFields(fields)...) }
func (l *Logger) Info(msg string, fields map[string]any)  { l.z.Info(msg, zapFields(fields)...) }
func (l *Logger) Warn(msg string, fields map[string]any)  { l.z.Warn(msg, zapFields(fields)...) }
func (l *Logger) Error(msg string, fields map[string]any) { l.z.Error(msg, zapFields(fields)...) }

// Sync flushes buffered entries. Call on shutdown.
func (l *Logger) Sync() error {
	return l.z.Sync()
}

// zapFields converts the field map in stable key order so log lines
// stay diffable.
func zapFields(m map[string]any) []zap.Field {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fields := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, zap.Any(k, m[k]))
	}
	return fields
}
