package store

import (
	"context"
	"time"

	"github.com/sasineelakandan/chatkaro-Entegation-Task/internal/domain"
)

// RoomStore owns two-party room persistence.
type RoomStore interface {
	// GetOrCreate resolves the room for a pair of users, creating it when
	// absent. Idempotent and order-insensitive in its arguments.
	GetOrCreate(ctx context.Context, userA, userB string) (*domain.Room, error)
	GetByID(ctx context.Context, roomID string) (*domain.Room, error)
	SetPreview(ctx context.Context, roomID, preview string, at time.Time) error
}

// ReceiptKind distinguishes the per-message user sets.
type ReceiptKind string

const (
	ReceiptDelivered ReceiptKind = "delivered"
	ReceiptSeen      ReceiptKind = "seen"
	ReceiptDeleted   ReceiptKind = "deleted"
)

// MessageStore owns message persistence. The receipt operations are atomic,
// idempotent set-adds: concurrent calls for different users never lose
// updates, and repeats report added=false.
type MessageStore interface {
	Create(ctx context.Context, roomID, senderID string, msgType domain.MessageType, content, fileName string) (*domain.Message, error)
	AddDelivered(ctx context.Context, messageID, userID string) (added bool, err error)
	AddSeen(ctx context.Context, messageID, userID string) (added bool, err error)
	MarkDeleted(ctx context.Context, messageID, userID string) error
	// ListByRoom returns the room's messages in ascending creation order,
	// omitting messages the requesting user soft-deleted.
	ListByRoom(ctx context.Context, roomID, forUser string) ([]domain.Message, error)
}
