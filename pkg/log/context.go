package log

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

// WithLogger returns a context carrying the given logger. Request-scoped
// loggers (request id, method, path) are injected by the gin middleware.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// Ctx returns the logger carried by the context, falling back to the global
// logger for background work (hub loop, cache fills).
func Ctx(ctx context.Context) zerolog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
		return l
	}
	return L()
}

// WithRoom returns a child of the context logger tagged with the room id,
// so every entry on a room's delivery path carries it.
func WithRoom(ctx context.Context, roomID string) zerolog.Logger {
	l := Ctx(ctx)
	return l.With().Str(FieldRoomID, roomID).Logger()
}
