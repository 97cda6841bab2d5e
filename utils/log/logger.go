package log

import (
	"context"
	"os"

	"go.uber.org/zap"
)

type ctxKey string

const (
	sessionKey ctxKey = "session_id"
	turnKey    ctxKey = "turn_id"
	remoteKey  ctxKey = "remote_addr"
)

var logger *zap.Logger

func init() {
	if os.Getenv("DEBUG") == "true" {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
}

// SetLogger swaps the package logger. Used by the CLI when --debug is passed
// and by tests that want zap.NewNop.
func SetLogger(l *zap.Logger) {
	if l != nil {
		logger = l
	}
}

func Logger() *zap.Logger {
	return logger
}

func WithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey, sessionID)
}

func WithTurn(ctx context.Context, turnID string) context.Context {
	return context.WithValue(ctx, turnKey, turnID)
}

func WithRemote(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, remoteKey, addr)
}

// SessionID returns the session id stored by WithSession, or "".
func SessionID(ctx context.Context) string {
	v, _ := ctx.Value(sessionKey).(string)
	return v
}

func WithCtx(ctx context.Context) *zap.Logger {
	fields := []zap.Field{}

	for _, key := range []ctxKey{sessionKey, turnKey, remoteKey} {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			fields = append(fields, zap.String(string(key), v))
		}
	}

	return logger.With(fields...)
}

func With(fields ...zap.Field) *zap.Logger {
	return logger.With(fields...)
}
