// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog.Logger to provide specialized logging methods.
type Logger struct {
	*slog.Logger
}

// GlobalLogger is the default logger instance for the application.
var GlobalLogger *Logger

func init() {
	GlobalLogger = NewLogger(os.Getenv("APP_ENV"), os.Stdout)
}

// LogContextKey is a type for context keys used by the logging package.
type LogContextKey string

// Context keys for logging
const (
	RequestIDKey LogContextKey = "request_id"
	AccountIDKey LogContextKey = "account_id"
	TraceIDKey   LogContextKey = "trace_id"
)

// ctxHandler is a slog.Handler that adds context values to the log record.
type ctxHandler struct {
	slog.Handler
}

// Handle adds context values to the record before passing it to the underlying handler.
func (h *ctxHandler) Handle(ctx context.Context, r slog.Record) error {
	if rid, ok := ctx.Value(RequestIDKey).(string); ok {
		r.AddAttrs(slog.String("request_id", rid))
	}
	if aid, ok := ctx.Value(AccountIDKey).(uint); ok {
		r.AddAttrs(slog.Any("account_id", aid))
	}
	if tid, ok := ctx.Value(TraceIDKey).(string); ok {
		r.AddAttrs(slog.String("trace_id", tid))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ctxHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ctxHandler{h.Handler.WithAttrs(attrs)}
}

func (h *ctxHandler) WithGroup(name string) slog.Handler {
	return &ctxHandler{h.Handler.WithGroup(name)}
}

// NewLogger builds a context-aware logger. Production gets JSON, everything
// else gets text output.
func NewLogger(env string, w io.Writer) *Logger {
	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	if strings.EqualFold(env, "production") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return &Logger{Logger: slog.New(&ctxHandler{handler})}
}

// SetGlobalLogger replaces GlobalLogger and the slog default.
func SetGlobalLogger(l *Logger) {
	GlobalLogger = l
	slog.SetDefault(l.Logger)
}

// WithRequestID returns a new context carrying the request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// WithAccountID returns a new context carrying the acting account ID.
func WithAccountID(ctx context.Context, id uint) context.Context {
	return context.WithValue(ctx, AccountIDKey, id)
}

// WithTraceID returns a new context carrying the trace ID.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, TraceIDKey, id)
}

// ExtractRequestID returns the request ID from the context if set.
func ExtractRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// NetworkLogger tags every record with the network it belongs to.
type NetworkLogger struct {
	network string
	logger  *Logger
}

// NewNetworkLogger creates a NetworkLogger for the named network.
func NewNetworkLogger(network string) *NetworkLogger {
	return &NetworkLogger{network: network, logger: GlobalLogger}
}

// Event logs a successful engine event.
func (l *NetworkLogger) Event(ctx context.Context, msg string, attrs ...any) {
	l.logger.InfoContext(ctx, msg, append([]any{slog.String("network", l.network)}, attrs...)...)
}

// Rejected logs an operation refused with a domain error.
func (l *NetworkLogger) Rejected(ctx context.Context, operation string, err error) {
	l.logger.WarnContext(ctx, "operation rejected",
		slog.String("network", l.network),
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// SinkFailure logs a delivery sink error.
func (l *NetworkLogger) SinkFailure(ctx context.Context, sink string, err error) {
	l.logger.ErrorContext(ctx, "notification sink failed",
		slog.String("network", l.network),
		slog.String("sink", sink),
		slog.String("error", err.Error()),
	)
}
