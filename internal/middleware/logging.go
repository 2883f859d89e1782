// Package middleware provides HTTP middleware: structured logging, request
// context propagation, JWT auth and redis rate limiting.
package middleware

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/trace"
)

type ctxKey string

const (
	ctxKeyRequestID ctxKey = "request_id"
	ctxKeyUserID    ctxKey = "user_id"
)

// Logger is the process-wide structured logger. InitLogger must run before
// any request is served; until then it points at a plain text handler.
var Logger = slog.New(slog.NewTextHandler(os.Stdout, nil))

// ctxHandler decorates every record with request-scoped attributes pulled
// from the context: request id, authenticated user id and the active trace.
type ctxHandler struct {
	slog.Handler
}

func (h ctxHandler) Handle(ctx context.Context, r slog.Record) error {
	if reqID, ok := ctx.Value(ctxKeyRequestID).(string); ok && reqID != "" {
		r.AddAttrs(slog.String("request_id", reqID))
	}
	if userID, ok := ctx.Value(ctxKeyUserID).(uint); ok && userID != 0 {
		r.AddAttrs(slog.Uint64("user_id", uint64(userID)))
	}
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		r.AddAttrs(slog.String("trace_id", span.SpanContext().TraceID().String()))
	}
	return h.Handler.Handle(ctx, r)
}

func (h ctxHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return ctxHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h ctxHandler) WithGroup(name string) slog.Handler {
	return ctxHandler{Handler: h.Handler.WithGroup(name)}
}

// InitLogger configures the global logger: JSON in production, text with
// debug level elsewhere.
func InitLogger(env string) {
	var base slog.Handler
	if env == "production" {
		base = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		base = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	Logger = slog.New(ctxHandler{Handler: base})
	slog.SetDefault(Logger)
}

// ContextMiddleware copies the fiber request id and (once auth has run) the
// user id into the request context so ctxHandler can pick them up.
func ContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		if reqID, ok := c.Locals("requestid").(string); ok {
			ctx = context.WithValue(ctx, ctxKeyRequestID, reqID)
		}
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// WithUserID records the authenticated user in the request context.
func WithUserID(c *fiber.Ctx, userID uint) {
	c.SetUserContext(context.WithValue(c.UserContext(), ctxKeyUserID, userID))
}

// StructuredLogger logs one line per completed request.
func StructuredLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		attrs := []any{
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.Duration("duration", time.Since(start)),
			slog.String("ip", c.IP()),
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}

		switch {
		case status >= 500:
			Logger.ErrorContext(c.UserContext(), "request", attrs...)
		case status >= 400:
			Logger.WarnContext(c.UserContext(), "request", attrs...)
		default:
			Logger.InfoContext(c.UserContext(), "request", attrs...)
		}
		return err
	}
}
