package cache

import (
	"context"
	"errors"
	"time"

	"github.com/sasineelakandan/chatkaro-Entegation-Task/internal/domain"
)

var ErrCacheMiss = errors.New("cache miss")

// HistoryCache caches a room's message history between the store and the
// fetch path. Best-effort: failures are logged by callers and never surfaced.
type HistoryCache interface {
	BuildKey(roomID, forUser string) string
	Get(ctx context.Context, key string) ([]domain.Message, error)
	Set(ctx context.Context, key string, messages []domain.Message, ttl time.Duration) error
	// Invalidate drops every cached page for the room.
	Invalidate(ctx context.Context, roomID string) error
	Close() error
}
