package log

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
)

// Logger writes structured entries to its transporters through an async buffer.
// Child loggers created with With or Named share the parent's buffer.
type Logger struct {
	mu         sync.RWMutex
	level      Level
	name       string
	buffer     *Buffer
	baseFields map[string]any
}

// New creates a new logger with the given minimum level and transporters.
func New(level Level, transporters ...Transporter) *Logger {
	return &Logger{
		level:      level,
		buffer:     NewBuffer(1000, transporters...),
		baseFields: make(map[string]any),
	}
}

// SetLevel changes the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

// Enabled reports whether an entry at level would be written.
func (l *Logger) Enabled(level Level) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level.Enables(level)
}

// With creates a child logger with additional base fields.
func (l *Logger) With(keysAndValues ...any) *Logger {
	child := l.clone()
	putFields(child.baseFields, keysAndValues)
	return child
}

// Named creates a child logger whose entries carry a "component" field,
// e.g. Default().Named("scheduler").
func (l *Logger) Named(name string) *Logger {
	child := l.clone()
	child.name = name
	return child
}

func (l *Logger) clone() *Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()

	fields := make(map[string]any, len(l.baseFields))
	for k, v := range l.baseFields {
		fields[k] = v
	}
	return &Logger{
		level:      l.level,
		name:       l.name,
		buffer:     l.buffer,
		baseFields: fields,
	}
}

// Close shuts down the logger and flushes remaining entries.
func (l *Logger) Close() {
	l.buffer.Close()
}

// log builds the entry: base fields first, then context fields, then the
// call-site pairs, so later sources win on key clashes.
func (l *Logger) log(ctx context.Context, level Level, msg string, keysAndValues []any) {
	if !l.Enabled(level) {
		return
	}

	entry := NewEntry(level, msg)
	entry.Caller = caller(3)

	l.mu.RLock()
	entry.Component = l.name
	for k, v := range l.baseFields {
		entry.Fields[k] = v
	}
	l.mu.RUnlock()

	if ctx != nil {
		entry.RequestID = RequestIDFromContext(ctx)
		for k, v := range FieldsFromContext(ctx) {
			entry.Fields[k] = v
		}
	}

	putFields(entry.Fields, keysAndValues)
	l.buffer.Send(*entry)
}

// putFields copies alternating key/value pairs into dst. Non-string keys and
// a trailing key without a value are ignored.
func putFields(dst map[string]any, keysAndValues []any) {
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if key, ok := keysAndValues[i].(string); ok {
			dst[key] = keysAndValues[i+1]
		}
	}
}

func caller(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s:%d", filepath.Base(file), line)
}

func (l *Logger) Trace(msg string, keysAndValues ...any) { l.log(nil, Trace, msg, keysAndValues) }
func (l *Logger) Debug(msg string, keysAndValues ...any) { l.log(nil, Debug, msg, keysAndValues) }
func (l *Logger) Info(msg string, keysAndValues ...any)  { l.log(nil, Info, msg, keysAndValues) }
func (l *Logger) Warn(msg string, keysAndValues ...any)  { l.log(nil, Warn, msg, keysAndValues) }
func (l *Logger) Error(msg string, keysAndValues ...any) { l.log(nil, Error, msg, keysAndValues) }

// Fatal logs at Fatal level. It does not exit; that is the caller's call.
func (l *Logger) Fatal(msg string, keysAndValues ...any) { l.log(nil, Fatal, msg, keysAndValues) }

func (l *Logger) TraceCtx(ctx context.Context, msg string, keysAndValues ...any) {
	l.log(ctx, Trace, msg, keysAndValues)
}

func (l *Logger) DebugCtx(ctx context.Context, msg string, keysAndValues ...any) {
	l.log(ctx, Debug, msg, keysAndValues)
}

func (l *Logger) InfoCtx(ctx context.Context, msg string, keysAndValues ...any) {
	l.log(ctx, Info, msg, keysAndValues)
}

func (l *Logger) WarnCtx(ctx context.Context, msg string, keysAndValues ...any) {
	l.log(ctx, Warn, msg, keysAndValues)
}

func (l *Logger) ErrorCtx(ctx context.Context, msg string, keysAndValues ...any) {
	l.log(ctx, Error, msg, keysAndValues)
}

func (l *Logger) FatalCtx(ctx context.Context, msg string, keysAndValues ...any) {
	l.log(ctx, Fatal, msg, keysAndValues)
}

// --- Global Logger ---

var (
	globalLogger *Logger
	globalMu     sync.RWMutex

	discardOnce   sync.Once
	discardLogger *Logger
)

// SetDefault sets the global default logger. Passing nil restores the
// discarding logger.
func SetDefault(l *Logger) {
	globalMu.Lock()
	globalLogger = l
	globalMu.Unlock()
}

// Default returns the global logger, or a logger that discards everything
// if none was set.
func Default() *Logger {
	globalMu.RLock()
	l := globalLogger
	globalMu.RUnlock()

	if l != nil {
		return l
	}

	discardOnce.Do(func() {
		discardLogger = &Logger{
			level:      Fatal + 1,
			buffer:     NewBuffer(1, noopTransporter{}),
			baseFields: make(map[string]any),
		}
	})
	return discardLogger
}

type noopTransporter struct{}

func (noopTransporter) Name() string      { return "noop" }
func (noopTransporter) Write(Entry) error { return nil }
func (noopTransporter) Close() error      { return nil }

// The Global helpers log through Default().

func GlobalTrace(msg string, keysAndValues ...any) { Default().log(nil, Trace, msg, keysAndValues) }
func GlobalDebug(msg string, keysAndValues ...any) { Default().log(nil, Debug, msg, keysAndValues) }
func GlobalInfo(msg string, keysAndValues ...any)  { Default().log(nil, Info, msg, keysAndValues) }
func GlobalWarn(msg string, keysAndValues ...any)  { Default().log(nil, Warn, msg, keysAndValues) }
func GlobalError(msg string, keysAndValues ...any) { Default().log(nil, Error, msg, keysAndValues) }
func GlobalFatal(msg string, keysAndValues ...any) { Default().log(nil, Fatal, msg, keysAndValues) }

func GlobalTraceCtx(ctx context.Context, msg string, keysAndValues ...any) {
	Default().log(ctx, Trace, msg, keysAndValues)
}

func GlobalDebugCtx(ctx context.Context, msg string, keysAndValues ...any) {
	Default().log(ctx, Debug, msg, keysAndValues)
}

func GlobalInfoCtx(ctx context.Context, msg string, keysAndValues ...any) {
	Default().log(ctx, Info, msg, keysAndValues)
}

func GlobalWarnCtx(ctx context.Context, msg string, keysAndValues ...any) {
	Default().log(ctx, Warn, msg, keysAndValues)
}

func GlobalErrorCtx(ctx context.Context, msg string, keysAndValues ...any) {
	Default().log(ctx, Error, msg, keysAndValues)
}

func GlobalFatalCtx(ctx context.Context, msg string, keysAndValues ...any) {
	Default().log(ctx, Fatal, msg, keysAndValues)
}
