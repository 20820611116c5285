package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects where and how much the service logs.
type Options struct {
	Level       string
	Environment string
	// File, when set, receives a rotated copy of every log line.
	File string
}

// StandardLogger provides a standardized logging interface
type StandardLogger struct {
	logger   *slog.Logger
	closers  []io.Closer
	shutdown func(context.Context) error
}

// NewStandardLogger creates a JSON logger on stdout, plus the optional file sink.
func NewStandardLogger(opts Options) *StandardLogger {
	return NewStandardLoggerTo(opts, os.Stdout)
}

// NewStandardLoggerTo is NewStandardLogger writing to out instead of stdout.
func NewStandardLoggerTo(opts Options, out io.Writer) *StandardLogger {
	l := &StandardLogger{}
	if opts.File != "" {
		file := NewFileWriter(opts.File)
		out = io.MultiWriter(out, file)
		l.closers = append(l.closers, file)
	}
	l.logger = slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: getSlogLevel(opts.Level),
	}))
	if opts.Environment != "" {
		l.logger = l.logger.With("environment", opts.Environment)
	}
	return l
}

// NewFileWriter returns a size-rotated log file.
func NewFileWriter(path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     28,
		Compress:   true,
	}
}

// Close flushes the OTLP exporter, if any, and closes the file sink.
func (l *StandardLogger) Close(ctx context.Context) error {
	var firstErr error
	if l.shutdown != nil {
		firstErr = l.shutdown(ctx)
	}
	for _, c := range l.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// WithComponent creates a logger with component context
func (l *StandardLogger) WithComponent(componentName string) *slog.Logger {
	return l.logger.With("component", componentName)
}

// WithRequestID creates a logger with request ID context
func (l *StandardLogger) WithRequestID(requestID string) *slog.Logger {
	return l.logger.With("request_id", requestID)
}

// WithExchange creates a logger with exchange context
func (l *StandardLogger) WithExchange(exchange string) *slog.Logger {
	return l.logger.With("exchange", exchange)
}

// WithSymbol creates a logger with symbol context
func (l *StandardLogger) WithSymbol(symbol string) *slog.Logger {
	return l.logger.With("symbol", symbol)
}

// WithError creates a logger with error context
func (l *StandardLogger) WithError(err error) *slog.Logger {
	return l.logger.With("error", err.Error())
}

// LogStartup logs application startup information
func (l *StandardLogger) LogStartup(serviceName string, version string, port int) {
	l.logger.Info("Application startup",
		"service", serviceName,
		"version", version,
		"port", port,
		"event", "startup",
	)
}

// LogShutdown logs application shutdown information
func (l *StandardLogger) LogShutdown(serviceName string, reason string) {
	l.logger.Info("Application shutdown",
		"service", serviceName,
		"reason", reason,
		"event", "shutdown",
	)
}

// LogAPIRequest logs API requests in a standardized format
func (l *StandardLogger) LogAPIRequest(method string, path string, statusCode int, durationMs int64, requestID string) {
	level := slog.LevelInfo
	if statusCode >= 500 {
		level = slog.LevelError
	}
	l.logger.Log(context.Background(), level, "API request",
		"method", method,
		"path", path,
		"status", statusCode,
		"duration_ms", durationMs,
		"request_id", requestID,
		"event", "api",
	)
}

// LogBusinessEvent logs business events in a standardized format
func (l *StandardLogger) LogBusinessEvent(eventType string, details map[string]interface{}) {
	fields := []interface{}{
		"event", "business",
		"event_type", eventType,
	}
	for k, v := range details {
		fields = append(fields, k, v)
	}
	l.logger.Info("Business event", fields...)
}

// Logger returns the underlying *slog.Logger
func (l *StandardLogger) Logger() *slog.Logger {
	return l.logger
}

// getSlogLevel converts string level to slog.Level
func getSlogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLogrusLevel converts string level to logrus.Level
func ParseLogrusLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// ConfigureLogrus points the package-level logrus logger, used by the
// storage layer, at the same level and file as the slog logger.
func ConfigureLogrus(opts Options) {
	logrus.SetLevel(ParseLogrusLevel(opts.Level))
	logrus.SetFormatter(&logrus.JSONFormatter{})
	if opts.File != "" {
		logrus.SetOutput(io.MultiWriter(os.Stdout, NewFileWriter(opts.File)))
	}
}
