package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Log levels supported by the logger
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// LogFileName is the file NewLogger writes inside its directory.
const LogFileName = "roadmap.log"

// Logger provides structured logging with context propagation.
// It is safe for concurrent use.
type Logger struct {
	logger *slog.Logger
	writer *RotatingWriter // nil when logging to stderr
	attrs  []slog.Attr     // Persistent attributes (objective, node, batch)
}

// NewLogger creates a Logger that writes JSON lines to {dir}/roadmap.log,
// rotating the file with DefaultRotationConfig. If dir is empty, logs go to
// stderr.
//
// The level parameter controls which messages are logged:
//   - DEBUG: All messages
//   - INFO: Info, Warn, and Error messages
//   - WARN: Warn and Error messages
//   - ERROR: Only Error messages
func NewLogger(dir string, level string) (*Logger, error) {
	return NewLoggerWithRotation(dir, level, DefaultRotationConfig())
}

// NewLoggerWithRotation is NewLogger with an explicit rotation policy for
// the log file.
func NewLoggerWithRotation(dir string, level string, rotation RotationConfig) (*Logger, error) {
	var out io.Writer = os.Stderr
	var rw *RotatingWriter

	if dir != "" {
		var err error
		rw, err = NewRotatingWriter(filepath.Join(dir, LogFileName), rotation)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = rw
	}

	return New(out, level, rw), nil
}

// New creates a Logger writing to w. closer, when non-nil, is closed by
// Close.
func New(w io.Writer, level string, closer *RotatingWriter) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(level)})
	return &Logger{
		logger: slog.New(handler),
		writer: closer,
		attrs:  make([]slog.Attr, 0),
	}
}

// parseLevel converts a string log level to slog.Level.
// Defaults to INFO if the level string is not recognized.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithObjective returns a child Logger tagging entries with the document
// reference being worked on.
func (l *Logger) WithObjective(ref string) *Logger {
	return l.withAttr(slog.String("objective", ref))
}

// WithNode returns a child Logger tagging entries with a node ID.
func (l *Logger) WithNode(id string) *Logger {
	return l.withAttr(slog.String("node_id", id))
}

// WithBatch returns a child Logger tagging entries with a batch ID so every
// line of one batch can be correlated.
func (l *Logger) WithBatch(id string) *Logger {
	return l.withAttr(slog.String("batch_id", id))
}

// With returns a new Logger with arbitrary key-value attributes.
// Keys and values are provided as alternating arguments.
func (l *Logger) With(args ...any) *Logger {
	if len(args) == 0 {
		return l
	}

	newAttrs := make([]slog.Attr, 0, len(l.attrs)+len(args)/2)
	newAttrs = append(newAttrs, l.attrs...)
	for i := 0; i < len(args)-1; i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		newAttrs = append(newAttrs, slog.Any(key, args[i+1]))
	}

	return &Logger{logger: l.logger, writer: l.writer, attrs: newAttrs}
}

func (l *Logger) withAttr(attr slog.Attr) *Logger {
	newAttrs := make([]slog.Attr, len(l.attrs)+1)
	copy(newAttrs, l.attrs)
	newAttrs[len(l.attrs)] = attr
	return &Logger{logger: l.logger, writer: l.writer, attrs: newAttrs}
}

// Debug logs a message at DEBUG level with optional key-value pairs.
func (l *Logger) Debug(msg string, args ...any) {
	l.log(slog.LevelDebug, msg, args...)
}

// Info logs a message at INFO level with optional key-value pairs.
func (l *Logger) Info(msg string, args ...any) {
	l.log(slog.LevelInfo, msg, args...)
}

// Warn logs a message at WARN level with optional key-value pairs.
func (l *Logger) Warn(msg string, args ...any) {
	l.log(slog.LevelWarn, msg, args...)
}

// Error logs a message at ERROR level with optional key-value pairs.
func (l *Logger) Error(msg string, args ...any) {
	l.log(slog.LevelError, msg, args...)
}

func (l *Logger) log(level slog.Level, msg string, args ...any) {
	allArgs := make([]any, 0, len(l.attrs)*2+len(args))
	for _, attr := range l.attrs {
		allArgs = append(allArgs, attr.Key, attr.Value.Any())
	}
	allArgs = append(allArgs, args...)

	l.logger.Log(context.Background(), level, msg, allArgs...)
}

// Close flushes and closes the log file. It is a no-op for loggers writing
// to stderr.
func (l *Logger) Close() error {
	if l.writer == nil {
		return nil
	}
	return l.writer.Close()
}

// NopLogger returns a Logger that discards all log output.
func NopLogger() *Logger {
	return New(io.Discard, LevelError, nil)
}

// ParseLevel normalizes a level string. Unknown levels become LevelInfo.
func ParseLevel(level string) string {
	switch strings.ToUpper(level) {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
		return strings.ToUpper(level)
	default:
		return LevelInfo
	}
}

// ValidLevels returns the list of valid log level strings.
func ValidLevels() []string {
	return []string{LevelDebug, LevelInfo, LevelWarn, LevelError}
}
