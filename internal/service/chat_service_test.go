package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sasineelakandan/chatkaro-Entegation-Task/internal/cache"
	"github.com/sasineelakandan/chatkaro-Entegation-Task/internal/config"
	"github.com/sasineelakandan/chatkaro-Entegation-Task/internal/domain"
	"github.com/sasineelakandan/chatkaro-Entegation-Task/internal/hub"
	"github.com/sasineelakandan/chatkaro-Entegation-Task/internal/presence"
	"github.com/sasineelakandan/chatkaro-Entegation-Task/internal/store"
)

// noopCache misses on every read so the service always hits the store.
type noopCache struct{}

func (noopCache) BuildKey(roomID, forUser string) string { return roomID + ":" + forUser }
func (noopCache) Get(ctx context.Context, key string) ([]domain.Message, error) {
	return nil, cache.ErrCacheMiss
}
func (noopCache) Set(ctx context.Context, key string, messages []domain.Message, ttl time.Duration) error {
	return nil
}
func (noopCache) Invalidate(ctx context.Context, roomID string) error { return nil }
func (noopCache) Close() error                                        { return nil }

type fixture struct {
	svc      ChatService
	hub      *hub.Hub
	registry *presence.Registry
	rooms    store.RoomStore
	messages store.MessageStore
}

func wsConfig() config.WebSocketConfig {
	return config.WebSocketConfig{
		PingInterval:   30 * time.Second,
		PongWait:       60 * time.Second,
		WriteWait:      10 * time.Second,
		MaxMessageSize: 8192,
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&store.RoomModel{}, &store.MessageModel{}, &store.ReceiptModel{}))

	h := hub.NewHub(wsConfig())
	go h.Run()

	registry := presence.NewRegistry()
	rooms := store.NewGormRoomStore(db)
	messages := store.NewGormMessageStore(db)

	return &fixture{
		svc:      NewChatService(h, registry, rooms, messages, noopCache{}, time.Minute),
		hub:      h,
		registry: registry,
		rooms:    rooms,
		messages: messages,
	}
}

// announce creates a connection and binds it to a user identity. The online
// broadcast it triggers travels on a different hub channel than registration,
// so it may still land in any registered send buffer; the read helpers below
// skip presence events rather than relying on setup ordering.
func (f *fixture) announce(t *testing.T, connID, userID string) *hub.Client {
	t.Helper()

	c := hub.NewClient(connID, f.hub, nil, wsConfig())
	require.NoError(t, f.svc.HandleConnect(context.Background(), c, userID))
	return c
}

func (f *fixture) join(t *testing.T, c *hub.Client, roomID string) {
	t.Helper()

	f.hub.Register(c)
	require.NoError(t, f.svc.HandleJoinRoom(context.Background(), c, roomID))
}

// readEvents collects n events from the connection, skipping the presence
// announcements left over from fixture setup.
func readEvents(t *testing.T, c *hub.Client, n int) []map[string]interface{} {
	t.Helper()

	events := make([]map[string]interface{}, 0, n)
	for len(events) < n {
		select {
		case raw := <-c.Send:
			var evt map[string]interface{}
			require.NoError(t, json.Unmarshal(raw, &evt))
			if evt["type"] == domain.EventUserOnlineStatus {
				continue
			}
			events = append(events, evt)
		case <-time.After(time.Second):
			t.Fatalf("timed out after %d of %d events", len(events), n)
		}
	}
	return events
}

func expectNoEvent(t *testing.T, c *hub.Client) {
	t.Helper()

	deadline := time.After(50 * time.Millisecond)
	for {
		select {
		case raw := <-c.Send:
			var evt map[string]interface{}
			require.NoError(t, json.Unmarshal(raw, &evt))
			if evt["type"] == domain.EventUserOnlineStatus {
				continue
			}
			t.Fatalf("unexpected event: %s", raw)
		case <-deadline:
			return
		}
	}
}

func indexOfType(events []map[string]interface{}, eventType string) int {
	for i, evt := range events {
		if evt["type"] == eventType {
			return i
		}
	}
	return -1
}

func TestSubmitDeliveryFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room, err := f.svc.GetOrCreateRoom(ctx, "u1", "u2")
	require.NoError(t, err)

	sender := f.announce(t, "conn-1", "u1")
	recipient := f.announce(t, "conn-2", "u2")
	f.join(t, sender, room.ID)
	f.join(t, recipient, room.ID)

	msg, err := f.svc.Submit(ctx, room.ID, "u1", "text", "hi", "")
	require.NoError(t, err)
	require.Equal(t, []string{"u2"}, msg.DeliveredTo)
	require.Equal(t, []string{"u1"}, msg.SeenBy)

	for _, c := range []*hub.Client{sender, recipient} {
		events := readEvents(t, c, 4)

		newIdx := indexOfType(events, domain.EventNewMessage)
		deliveredIdx := indexOfType(events, domain.EventMessageDelivered)
		seenIdx := indexOfType(events, domain.EventMessageSeen)
		updateIdx := indexOfType(events, domain.EventLastMessageUpdate)
		require.NotEqual(t, -1, newIdx)
		require.NotEqual(t, -1, deliveredIdx)
		require.NotEqual(t, -1, seenIdx)
		require.NotEqual(t, -1, updateIdx)

		// Room-scope events arrive in emission order.
		require.Less(t, newIdx, deliveredIdx)
		require.Less(t, deliveredIdx, seenIdx)

		require.Equal(t, "u2", events[deliveredIdx]["userId"])
		require.Equal(t, "u1", events[seenIdx]["userId"])
		require.Equal(t, room.ID, events[updateIdx]["chatRoomId"])
		require.Equal(t, "hi", events[updateIdx]["lastMessage"])
	}

	got, err := f.rooms.GetByID(ctx, room.ID)
	require.NoError(t, err)
	require.Equal(t, "hi", got.LastMessage)
}

func TestSubmitOfflineRecipientStillDelivered(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room, err := f.svc.GetOrCreateRoom(ctx, "u1", "u2")
	require.NoError(t, err)
	sender := f.announce(t, "conn-1", "u1")
	f.join(t, sender, room.ID)

	msg, err := f.svc.Submit(ctx, room.ID, "u1", "text", "hello?", "")
	require.NoError(t, err)
	require.Equal(t, []string{"u2"}, msg.DeliveredTo)

	// The recipient reconciles via history on reconnect.
	history, err := f.svc.ListMessages(ctx, room.ID, "u2")
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, []string{"u2"}, history[0].DeliveredTo)
	require.Equal(t, []string{"u1"}, history[0].SeenBy)
}

func TestSubmitRejectsNonParticipant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room, err := f.svc.GetOrCreateRoom(ctx, "u1", "u2")
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, room.ID, "intruder", "text", "hi", "")
	require.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestSubmitUnknownRoom(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Submit(context.Background(), "no-such-room", "u1", "text", "hi", "")
	require.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestSubmitEmptyContent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room, err := f.svc.GetOrCreateRoom(ctx, "u1", "u2")
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, room.ID, "u1", "text", "", "")
	require.ErrorIs(t, err, domain.ErrInvalidMessage)

	_, err = f.svc.Submit(ctx, room.ID, "u1", "hologram", "hi", "")
	require.ErrorIs(t, err, domain.ErrInvalidMessage)
}

func TestMarkSeenEmitsOncePerMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room, err := f.svc.GetOrCreateRoom(ctx, "u1", "u2")
	require.NoError(t, err)
	sender := f.announce(t, "conn-1", "u1")
	f.join(t, sender, room.ID)

	msg, err := f.svc.Submit(ctx, room.ID, "u1", "text", "hi", "")
	require.NoError(t, err)
	readEvents(t, sender, 4)

	require.NoError(t, f.svc.MarkSeen(ctx, []string{msg.ID}, "u2", room.ID))
	events := readEvents(t, sender, 1)
	require.Equal(t, domain.EventMessageSeen, events[0]["type"])
	require.Equal(t, "u2", events[0]["userId"])
	require.Equal(t, msg.ID, events[0]["messageId"])

	// Repeats are absorbed: no second event, no error.
	require.NoError(t, f.svc.MarkSeen(ctx, []string{msg.ID}, "u2", room.ID))
	expectNoEvent(t, sender)
}

func TestTypingRelayExcludesTypist(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room, err := f.svc.GetOrCreateRoom(ctx, "u1", "u2")
	require.NoError(t, err)
	typist := f.announce(t, "conn-1", "u1")
	other := f.announce(t, "conn-2", "u2")
	f.join(t, typist, room.ID)
	f.join(t, other, room.ID)

	require.NoError(t, f.svc.StartTyping(ctx, typist, room.ID, "u1"))
	events := readEvents(t, other, 1)
	require.Equal(t, domain.EventUserTyping, events[0]["type"])
	require.Equal(t, "u1", events[0]["userId"])
	expectNoEvent(t, typist)

	require.NoError(t, f.svc.StopTyping(ctx, typist, room.ID, "u1"))
	events = readEvents(t, other, 1)
	require.Equal(t, domain.EventUserStopTyping, events[0]["type"])
}

// A reconnect registers a new connection before the old one's disconnect
// arrives. The late disconnect must not flip the user offline.
func TestDisconnectFromStaleConnectionKeepsUserOnline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	old := hub.NewClient("conn-old", f.hub, nil, wsConfig())
	fresh := hub.NewClient("conn-new", f.hub, nil, wsConfig())

	require.NoError(t, f.svc.HandleConnect(ctx, old, "u1"))
	require.NoError(t, f.svc.HandleConnect(ctx, fresh, "u1"))

	require.NoError(t, f.svc.HandleDisconnect(ctx, old))
	require.True(t, f.registry.Online("u1"))

	require.NoError(t, f.svc.HandleDisconnect(ctx, fresh))
	require.False(t, f.registry.Online("u1"))
}

func TestGetOrCreateRoomRejectsSelfChat(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetOrCreateRoom(context.Background(), "u1", "u1")
	require.ErrorIs(t, err, domain.ErrSameParticipant)
}

type recordingCache struct {
	noopCache
	invalidated []string
}

func (c *recordingCache) Invalidate(ctx context.Context, roomID string) error {
	c.invalidated = append(c.invalidated, roomID)
	return nil
}

func TestSubmitInvalidatesHistoryCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec := &recordingCache{}
	svc := NewChatService(f.hub, f.registry, f.rooms, f.messages, rec, time.Minute)

	room, err := svc.GetOrCreateRoom(ctx, "u1", "u2")
	require.NoError(t, err)

	_, err = svc.Submit(ctx, room.ID, "u1", "text", "hi", "")
	require.NoError(t, err)
	require.Equal(t, []string{room.ID}, rec.invalidated)
}

func TestDeleteForUserHidesMessageFromHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room, err := f.svc.GetOrCreateRoom(ctx, "u1", "u2")
	require.NoError(t, err)

	msg, err := f.svc.Submit(ctx, room.ID, "u1", "text", "oops", "")
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteForUser(ctx, msg.ID, "u1", room.ID))

	mine, err := f.svc.ListMessages(ctx, room.ID, "u1")
	require.NoError(t, err)
	require.Empty(t, mine)

	theirs, err := f.svc.ListMessages(ctx, room.ID, "u2")
	require.NoError(t, err)
	require.Len(t, theirs, 1)
}
