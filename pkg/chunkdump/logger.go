package chunkdump

import (
	"io"
	"log"

	"github.com/vnykmshr/chunkdump/internal/logging"
)

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, fields ...LogField)
	Info(msg string, fields ...LogField)
	Warn(msg string, fields ...LogField)
	Error(msg string, fields ...LogField)
}

// LogField represents a structured log field.
type LogField struct {
	Key   string
	Value interface{}
}

// LogLevel is the minimum severity a logger emits.
type LogLevel = logging.Level

// Log levels, lowest first.
const (
	LogLevelDebug = logging.LevelDebug
	LogLevelInfo  = logging.LevelInfo
	LogLevelWarn  = logging.LevelWarn
	LogLevelError = logging.LevelError
)

// NewLogger returns a Logger writing "[LEVEL] msg key=value" lines to w.
func NewLogger(w io.Writer, minLevel LogLevel) Logger {
	return &writerLogger{l: logging.NewWriterLogger(w, minLevel, log.LstdFlags)}
}

type writerLogger struct {
	l *logging.DefaultLogger
}

func (w *writerLogger) Debug(msg string, fields ...LogField) { w.l.Debug(msg, toInternal(fields)...) }
func (w *writerLogger) Info(msg string, fields ...LogField)  { w.l.Info(msg, toInternal(fields)...) }
func (w *writerLogger) Warn(msg string, fields ...LogField)  { w.l.Warn(msg, toInternal(fields)...) }
func (w *writerLogger) Error(msg string, fields ...LogField) { w.l.Error(msg, toInternal(fields)...) }

func toInternal(fields []LogField) []logging.Field {
	result := make([]logging.Field, len(fields))
	for i, f := range fields {
		result[i] = logging.F(f.Key, f.Value)
	}
	return result
}

func adaptLogger(l Logger) logging.Logger {
	if l == nil {
		return logging.NoopLogger{}
	}
	if w, ok := l.(*writerLogger); ok {
		return w.l
	}
	return &loggerAdapter{l: l}
}

// loggerAdapter adapts public Logger to internal logging.Logger
type loggerAdapter struct {
	l Logger
}

func (a *loggerAdapter) Debug(msg string, fields ...logging.Field) {
	a.l.Debug(msg, convertFields(fields)...)
}

func (a *loggerAdapter) Info(msg string, fields ...logging.Field) {
	a.l.Info(msg, convertFields(fields)...)
}

func (a *loggerAdapter) Warn(msg string, fields ...logging.Field) {
	a.l.Warn(msg, convertFields(fields)...)
}

func (a *loggerAdapter) Error(msg string, fields ...logging.Field) {
	a.l.Error(msg, convertFields(fields)...)
}

func convertFields(fields []logging.Field) []LogField {
	result := make([]LogField, len(fields))
	for i, f := range fields {
		result[i] = LogField{Key: f.Key, Value: f.Value}
	}
	return result
}
