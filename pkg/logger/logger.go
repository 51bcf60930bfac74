// Package logger provides a structured, levelled logger built on log/slog.
//
// The key extension over plain slog is WithCtx: it returns the logger the
// request middleware stored in ctx, already tagged with the request ID, so
// every log line from a handler is automatically correlated:
//
//	log := logger.WithCtx(r.Context())
//	log.Info("application submitted", "scholarship_id", id)
//	// → time=... level=INFO msg="application submitted" request_id=a1b2c3d4 scholarship_id=...
package logger

import (
	"context"
	"log/slog"
	"os"

	"github.com/scholarstream/scholarstream/config"
	"go.mongodb.org/mongo-driver/mongo"
)

var L *slog.Logger

func init() {
	L = slog.New(consoleHandler())
	slog.SetDefault(L)
}

// consoleHandler is JSON in production and text everywhere else.
func consoleHandler() slog.Handler {
	if config.IsProduction() {
		return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
}

// AttachMongo adds the asynchronous Mongo sink next to stdout. The returned
// func flushes pending records; call it before disconnecting the client.
func AttachMongo(client *mongo.Client, db string) func() {
	h := NewMongoHandler(client.Database(db).Collection(LogsCollection))
	L = slog.New(NewMultiHandler(consoleHandler(), h))
	slog.SetDefault(L)
	return h.Close
}

// ─────────────────────────────────────────────
// Context-aware logger
// ─────────────────────────────────────────────

type ctxKey struct{}

// WithCtx returns the per-request logger stored by InjectLogger, or the
// base logger when ctx carries none.
func WithCtx(ctx context.Context) *slog.Logger {
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores a *slog.Logger (pre-tagged with request_id) into ctx.
// Called by the Logger middleware.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// ─────────────────────────────────────────────
// Short-hand helpers (use base logger)
// ─────────────────────────────────────────────

func Debug(msg string, args ...any) { L.Debug(msg, args...) }
func Info(msg string, args ...any)  { L.Info(msg, args...) }
func Warn(msg string, args ...any)  { L.Warn(msg, args...) }
func Error(msg string, args ...any) { L.Error(msg, args...) }
