// Package logging builds logrus loggers and carries request-scoped
// fields through contexts.
package logging

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"ontology/internal/httpx"
)

// Config selects level, output format and destination
type Config struct {
	Level  string
	Format string
	Writer io.Writer
}

type LogFormat string

const (
	FormatJSON LogFormat = "json"
	FormatText LogFormat = "text"
)

// New creates a logger from the configuration
func New(cfg Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(cfg.Writer)
	if cfg.Writer == nil {
		logger.SetOutput(os.Stdout)
	}
	logger.SetLevel(parseLevel(cfg.Level))

	switch LogFormat(strings.ToLower(strings.TrimSpace(cfg.Format))) {
	case FormatText:
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}

func parseLevel(level string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// WithComponent returns a logger annotated with the component field
func WithComponent(logger logrus.FieldLogger, component string) logrus.FieldLogger {
	if logger == nil {
		return nil
	}
	return logger.WithField("component", component)
}

// Discard returns a logger that writes nowhere, for tests and defaults
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type contextKey string

const requestIDKey contextKey = "request_id"

// ContextWithRequestID adds the request ID to the context when non-empty
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, trimmed)
}

// RequestIDFromContext extracts the request ID stored on the context
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	value, ok := ctx.Value(requestIDKey).(string)
	return value, ok && value != ""
}

// FromContext annotates the logger with the request ID held in ctx
func FromContext(ctx context.Context, logger logrus.FieldLogger) logrus.FieldLogger {
	if logger == nil {
		return nil
	}
	if id, ok := RequestIDFromContext(ctx); ok {
		return logger.WithField("request_id", id)
	}
	return logger
}

// RequestLogger returns middleware that logs one line per request with
// method, path, status, duration and remote address
func RequestLogger(logger logrus.FieldLogger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			recorder := httpx.NewResponseRecorder(w)
			start := time.Now()
			next.ServeHTTP(recorder, r)

			entry := FromContext(r.Context(), logger).WithFields(logrus.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      recorder.Status(),
				"duration_ms": time.Since(start).Milliseconds(),
				"remote_addr": r.RemoteAddr,
			})
			switch {
			case recorder.Status() >= 500:
				entry.Error("request completed")
			case recorder.Status() >= 400:
				entry.Warn("request completed")
			default:
				entry.Info("request completed")
			}
		})
	}
}
