package service

import (
	"context"

	"github.com/sasineelakandan/chatkaro-Entegation-Task/internal/domain"
	"github.com/sasineelakandan/chatkaro-Entegation-Task/internal/hub"
)

// ChatService coordinates message delivery, presence and typing relay.
type ChatService interface {
	// Connection lifecycle
	HandleConnect(ctx context.Context, c *hub.Client, userID string) error
	HandleDisconnect(ctx context.Context, c *hub.Client) error
	HandleJoinRoom(ctx context.Context, c *hub.Client, roomID string) error

	// Delivery coordinator
	Submit(ctx context.Context, roomID, senderID, messageType, content, fileName string) (*domain.Message, error)
	MarkSeen(ctx context.Context, messageIDs []string, userID, roomID string) error

	// Typing relay
	StartTyping(ctx context.Context, c *hub.Client, roomID, userID string) error
	StopTyping(ctx context.Context, c *hub.Client, roomID, userID string) error

	// Room gateway + history fetch
	GetOrCreateRoom(ctx context.Context, userA, userB string) (*domain.Room, error)
	ListMessages(ctx context.Context, roomID, forUser string) ([]domain.Message, error)
	DeleteForUser(ctx context.Context, messageID, userID, roomID string) error
}
