// Package logging wraps go.uber.org/zap into the small Logger interfaces
// the pool and httpserver packages depend on, so neither of those
// packages has to import a concrete logging library itself.
package logging

import (
	"go.uber.org/zap"
)

// Logger adapts a *zap.SugaredLogger to satisfy pool.Logger and
// httpserver.Logger, both of which only need an Errorf method.
type Logger struct {
	sugar *zap.SugaredLogger
}

// New builds a production zap logger (JSON encoding) at the given level
// and wraps it. A level zap cannot parse leaves the default, info.
func New(level string) (*Logger, error) {
	cfg := zap.NewProductionConfig()
	if lvl, err := zap.ParseAtomicLevel(level); err == nil {
		cfg.Level = lvl
	}
	base, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{sugar: base.Sugar()}, nil
}

// Errorf logs a formatted error-level message.
func (l *Logger) Errorf(format string, args ...any) {
	l.sugar.Errorf(format, args...)
}

// Infof logs a formatted info-level message.
func (l *Logger) Infof(format string, args ...any) {
	l.sugar.Infof(format, args...)
}

// Sync flushes any buffered log entries. Callers should defer it from
// main.
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}
