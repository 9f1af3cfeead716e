package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sasineelakandan/chatkaro-Entegation-Task/internal/audit"
	"github.com/sasineelakandan/chatkaro-Entegation-Task/internal/cache"
	"github.com/sasineelakandan/chatkaro-Entegation-Task/internal/domain"
	"github.com/sasineelakandan/chatkaro-Entegation-Task/internal/hub"
	"github.com/sasineelakandan/chatkaro-Entegation-Task/internal/presence"
	"github.com/sasineelakandan/chatkaro-Entegation-Task/internal/store"
	"github.com/sasineelakandan/chatkaro-Entegation-Task/pkg/log"
)

type chatService struct {
	hub      *hub.Hub
	registry *presence.Registry
	rooms    store.RoomStore
	messages store.MessageStore
	history  cache.HistoryCache
	cacheTTL time.Duration
	sf       singleflight.Group
}

func NewChatService(
	h *hub.Hub,
	registry *presence.Registry,
	rooms store.RoomStore,
	messages store.MessageStore,
	history cache.HistoryCache,
	cacheTTL time.Duration,
) ChatService {
	return &chatService{
		hub:      h,
		registry: registry,
		rooms:    rooms,
		messages: messages,
		history:  history,
		cacheTTL: cacheTTL,
	}
}

// HandleConnect binds the connection to a user identity and announces the
// user online. A second connection for the same user overwrites the first
// (last-connection-wins); the replaced connection does not produce an
// offline broadcast.
func (s *chatService) HandleConnect(ctx context.Context, c *hub.Client, userID string) error {
	c.State.Announce(userID)
	s.registry.Register(userID, c)

	audit.Log(ctx, audit.ActionConnect, userID, "user connected")

	return s.hub.BroadcastToAll(&domain.UserOnlineStatusEvent{
		Type:     domain.EventUserOnlineStatus,
		UserID:   userID,
		IsOnline: true,
	})
}

// HandleDisconnect removes the presence mapping, but only when this
// connection is still the live one for the user. A delayed disconnect from
// an old connection never evicts a reconnect's registration.
func (s *chatService) HandleDisconnect(ctx context.Context, c *hub.Client) error {
	userID := c.State.UserID()
	if userID == "" {
		return nil
	}

	removed, ok := s.registry.Unregister(userID, c)
	if !ok {
		return nil
	}

	audit.Log(ctx, audit.ActionDisconnect, removed, "user disconnected")

	return s.hub.BroadcastToAll(&domain.UserOnlineStatusEvent{
		Type:     domain.EventUserOnlineStatus,
		UserID:   removed,
		IsOnline: false,
	})
}

func (s *chatService) HandleJoinRoom(ctx context.Context, c *hub.Client, roomID string) error {
	s.hub.JoinRoom(c, roomID)
	audit.LogWithDetail(ctx, audit.ActionJoinRoom, c.State.UserID(), roomID, "user joined room")
	return nil
}

// Submit moves a message from request to delivered/seen. The store write is
// authoritative: nothing is emitted until it succeeds, and event delivery
// failures are never rolled back into the store.
func (s *chatService) Submit(ctx context.Context, roomID, senderID, messageType, content, fileName string) (*domain.Message, error) {
	l := log.WithRoom(ctx, roomID)

	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.HasParticipant(senderID) {
		return nil, domain.ErrRoomNotFound
	}

	msgType, ok := domain.NormalizeMessageType(messageType)
	if !ok || content == "" {
		return nil, domain.ErrInvalidMessage
	}

	msg, err := s.messages.Create(ctx, roomID, senderID, msgType, content, fileName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	preview := msg.Preview()
	if err := s.rooms.SetPreview(ctx, roomID, preview, msg.CreatedAt); err != nil {
		l.Warn().Err(err).Msg("failed to update room preview")
	}
	s.invalidateHistory(ctx, roomID)

	// Persisted: fan out. Room scope first, so every subscriber observes
	// newMessage before any receipt event for the same message.
	s.hub.BroadcastToRoom(roomID, &domain.NewMessageEvent{
		Type:    domain.EventNewMessage,
		Message: msg,
	}, "")

	lastUpdate := &domain.LastMessageUpdateEvent{
		Type:        domain.EventLastMessageUpdate,
		ChatRoomID:  roomID,
		LastMessage: preview,
		Time:        msg.CreatedAt,
	}
	for _, participant := range room.Participants {
		s.sendToUser(participant, lastUpdate)
	}

	// Delivery is marked for every other participant whether or not they
	// are online right now: "delivered" means persisted and broadcast, not
	// a transport ack. Offline recipients reconcile via the history fetch.
	for _, participant := range room.Participants {
		if participant == senderID {
			continue
		}
		added, err := s.messages.AddDelivered(ctx, msg.ID, participant)
		if err != nil {
			l.Error().Err(err).Str(log.FieldMessageID, msg.ID).Str(log.FieldUserID, participant).Msg("failed to mark delivered")
			continue
		}
		if added {
			msg.DeliveredTo = append(msg.DeliveredTo, participant)
			s.hub.BroadcastToRoom(roomID, &domain.MessageDeliveredEvent{
				Type:      domain.EventMessageDelivered,
				MessageID: msg.ID,
				UserID:    participant,
			}, "")
		}
	}

	// The sender has trivially seen its own message; the read-receipt UI
	// relies on this entry.
	added, err := s.messages.AddSeen(ctx, msg.ID, senderID)
	if err != nil {
		l.Error().Err(err).Str(log.FieldMessageID, msg.ID).Msg("failed to mark sender seen")
	} else if added {
		msg.SeenBy = append(msg.SeenBy, senderID)
		s.hub.BroadcastToRoom(roomID, &domain.MessageSeenEvent{
			Type:      domain.EventMessageSeen,
			MessageID: msg.ID,
			UserID:    senderID,
		}, "")
	}

	audit.LogWithDetail(ctx, audit.ActionSendMessage, senderID, msg.ID, "message submitted")

	return msg, nil
}

// MarkSeen appends userID to each message's seen set. Idempotent: an id
// already seen by the user produces no event and no error.
func (s *chatService) MarkSeen(ctx context.Context, messageIDs []string, userID, roomID string) error {
	l := log.WithRoom(ctx, roomID)

	var seen int
	for _, messageID := range messageIDs {
		added, err := s.messages.AddSeen(ctx, messageID, userID)
		if err != nil {
			l.Error().Err(err).Str(log.FieldMessageID, messageID).Str(log.FieldUserID, userID).Msg("failed to mark seen")
			continue
		}
		if !added {
			continue
		}
		seen++
		s.hub.BroadcastToRoom(roomID, &domain.MessageSeenEvent{
			Type:      domain.EventMessageSeen,
			MessageID: messageID,
			UserID:    userID,
		}, "")
	}

	if seen > 0 {
		s.invalidateHistory(ctx, roomID)
		audit.LogWithDetail(ctx, audit.ActionMarkSeen, userID, roomID, "messages marked seen")
	}
	return nil
}

// StartTyping relays a typing signal to the other participants. Stateless:
// debounce and the inactivity window are the client's contract.
func (s *chatService) StartTyping(ctx context.Context, c *hub.Client, roomID, userID string) error {
	return s.hub.BroadcastToRoom(roomID, &domain.UserTypingEvent{
		Type:   domain.EventUserTyping,
		UserID: userID,
	}, c.ID)
}

func (s *chatService) StopTyping(ctx context.Context, c *hub.Client, roomID, userID string) error {
	return s.hub.BroadcastToRoom(roomID, &domain.UserTypingEvent{
		Type:   domain.EventUserStopTyping,
		UserID: userID,
	}, c.ID)
}

func (s *chatService) GetOrCreateRoom(ctx context.Context, userA, userB string) (*domain.Room, error) {
	room, err := s.rooms.GetOrCreate(ctx, userA, userB)
	if err != nil {
		return nil, err
	}
	audit.LogWithDetail(ctx, audit.ActionCreateRoom, userA, room.ID, "room resolved")
	return room, nil
}

// ListMessages is the history fetch recipients use to resynchronize.
// Concurrent fetches for the same key collapse into one store read.
func (s *chatService) ListMessages(ctx context.Context, roomID, forUser string) ([]domain.Message, error) {
	key := s.history.BuildKey(roomID, forUser)

	result, err, _ := s.sf.Do(key, func() (interface{}, error) {
		return s.fetchWithCache(ctx, roomID, forUser, key)
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Message), nil
}

func (s *chatService) DeleteForUser(ctx context.Context, messageID, userID, roomID string) error {
	if err := s.messages.MarkDeleted(ctx, messageID, userID); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	s.invalidateHistory(ctx, roomID)
	return nil
}

func (s *chatService) fetchWithCache(ctx context.Context, roomID, forUser, key string) ([]domain.Message, error) {
	l := log.Ctx(ctx)

	cached, err := s.history.Get(ctx, key)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		l.Warn().Err(err).Msg("history cache get error")
	}

	messages, err := s.messages.ListByRoom(ctx, roomID, forUser)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	// Fill the cache off the request path.
	go func() {
		cacheCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.history.Set(cacheCtx, key, messages, s.cacheTTL); err != nil {
			bg := log.L()
			bg.Warn().Err(err).Msg("history cache set error")
		}
	}()

	return messages, nil
}

// sendToUser publishes to a user's personal event scope: its single live
// connection. Offline users are a silent no-op.
func (s *chatService) sendToUser(userID string, event interface{}) {
	conn, ok := s.registry.Lookup(userID)
	if !ok {
		return
	}
	if err := conn.SendMessage(event); err != nil {
		l := log.L()
		l.Warn().Err(err).Str(log.FieldUserID, userID).Msg("failed to push user event")
	}
}

func (s *chatService) invalidateHistory(ctx context.Context, roomID string) {
	if err := s.history.Invalidate(ctx, roomID); err != nil {
		l := log.WithRoom(ctx, roomID)
		l.Warn().Err(err).Msg("failed to invalidate history cache")
	}
}
