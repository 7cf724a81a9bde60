package logger

import (
	"go.uber.org/zap"
)

// Logger wraps zap.Logger so that helper methods report the caller of the
// helper rather than the helper itself.
type Logger struct {
	*zap.Logger
}

// Wrap turns a zap.Logger into a Logger. A nil logger becomes a no-op logger.
func Wrap(zapLogger *zap.Logger) *Logger {
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	return &Logger{Logger: zapLogger}
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return Wrap(nil)
}

// Skip returns a Logger that skips the given number of extra stack frames.
func (l *Logger) Skip(skip int) *Logger {
	if skip <= 0 {
		return l
	}
	return &Logger{Logger: l.Logger.WithOptions(zap.AddCallerSkip(skip))}
}

func (l *Logger) Debug(msg string, fields ...zap.Field) {
	l.Logger.WithOptions(zap.AddCallerSkip(1)).Debug(msg, fields...)
}

func (l *Logger) Info(msg string, fields ...zap.Field) {
	l.Logger.WithOptions(zap.AddCallerSkip(1)).Info(msg, fields...)
}

func (l *Logger) Warn(msg string, fields ...zap.Field) {
	l.Logger.WithOptions(zap.AddCallerSkip(1)).Warn(msg, fields...)
}

func (l *Logger) Error(msg string, fields ...zap.Field) {
	l.Logger.WithOptions(zap.AddCallerSkip(1)).Error(msg, fields...)
}

// With adds fields and returns a new Logger.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{Logger: l.Logger.With(fields...)}
}

// Named adds a name segment and returns a new Logger.
func (l *Logger) Named(name string) *Logger {
	return &Logger{Logger: l.Logger.Named(name)}
}
