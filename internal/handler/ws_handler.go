package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/sasineelakandan/chatkaro-Entegation-Task/internal/config"
	"github.com/sasineelakandan/chatkaro-Entegation-Task/internal/domain"
	"github.com/sasineelakandan/chatkaro-Entegation-Task/internal/hub"
	"github.com/sasineelakandan/chatkaro-Entegation-Task/internal/service"
	"github.com/sasineelakandan/chatkaro-Entegation-Task/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WSHandler struct {
	hub     *hub.Hub
	service service.ChatService
	wsCfg   config.WebSocketConfig
}

func NewWSHandler(h *hub.Hub, svc service.ChatService, wsCfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		hub:     h,
		service: svc,
		wsCfg:   wsCfg,
	}
}

func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		l := log.L()
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.New().String(), h.hub, conn, h.wsCfg)

	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump(h.handleEvent, h.handleClose)
}

// handleClose runs when the read pump exits: connection loss is the only
// cancellation signal, and it drives presence unregistration.
func (h *WSHandler) handleClose(client *hub.Client) {
	if err := h.service.HandleDisconnect(context.Background(), client); err != nil {
		l := log.L()
		l.Warn().Err(err).Str(log.FieldConnID, client.ID).Msg("disconnect handling failed")
	}
}

func (h *WSHandler) handleEvent(client *hub.Client, message []byte) {
	var base domain.BaseEvent
	if err := json.Unmarshal(message, &base); err != nil {
		client.SendMessage(domain.NewErrorEvent(domain.ErrCodeBadRequest, "Invalid event format"))
		return
	}

	ctx := context.Background()
	l := log.L()

	switch base.Type {
	case domain.EventUserConnected:
		var evt domain.UserConnectedEvent
		if err := json.Unmarshal(message, &evt); err != nil || evt.UserID == "" {
			client.SendMessage(domain.NewErrorEvent(domain.ErrCodeBadRequest, "Invalid userConnected event"))
			return
		}
		if err := h.service.HandleConnect(ctx, client, evt.UserID); err != nil {
			l.Warn().Err(err).Str(log.FieldConnID, client.ID).Msg("connect handling failed")
		}

	case domain.EventJoinRoom:
		var evt domain.JoinRoomEvent
		if err := json.Unmarshal(message, &evt); err != nil || evt.RoomID == "" {
			client.SendMessage(domain.NewErrorEvent(domain.ErrCodeBadRequest, "Invalid joinRoom event"))
			return
		}
		if err := h.service.HandleJoinRoom(ctx, client, evt.RoomID); err != nil {
			l.Warn().Err(err).Str(log.FieldConnID, client.ID).Msg("join room failed")
		}

	case domain.EventSendMessage:
		var evt domain.SendMessageEvent
		if err := json.Unmarshal(message, &evt); err != nil {
			client.SendMessage(domain.NewErrorEvent(domain.ErrCodeBadRequest, "Invalid sendMessage event"))
			return
		}
		if _, err := h.service.Submit(ctx, evt.ChatRoom, evt.Sender, evt.MessageType, evt.Content, evt.FileName); err != nil {
			client.SendMessage(submitErrorEvent(err))
		}

	case domain.EventMarkMessagesAsSeen:
		var evt domain.MarkMessagesAsSeenEvent
		if err := json.Unmarshal(message, &evt); err != nil {
			client.SendMessage(domain.NewErrorEvent(domain.ErrCodeBadRequest, "Invalid markMessagesAsSeen event"))
			return
		}
		if err := h.service.MarkSeen(ctx, evt.MessageIDs, evt.UserID, evt.ChatRoomID); err != nil {
			l.Warn().Err(err).Str(log.FieldConnID, client.ID).Msg("mark seen failed")
		}

	case domain.EventStartTyping:
		var evt domain.TypingEvent
		if err := json.Unmarshal(message, &evt); err != nil {
			client.SendMessage(domain.NewErrorEvent(domain.ErrCodeBadRequest, "Invalid startTyping event"))
			return
		}
		h.service.StartTyping(ctx, client, evt.RoomID, evt.UserID)

	case domain.EventStopTyping:
		var evt domain.TypingEvent
		if err := json.Unmarshal(message, &evt); err != nil {
			client.SendMessage(domain.NewErrorEvent(domain.ErrCodeBadRequest, "Invalid stopTyping event"))
			return
		}
		h.service.StopTyping(ctx, client, evt.RoomID, evt.UserID)

	case domain.EventPing:
		client.SendMessage(map[string]string{"type": domain.EventPong})

	default:
		client.SendMessage(domain.NewErrorEvent(domain.ErrCodeBadRequest, "Unknown event type"))
	}
}

func submitErrorEvent(err error) *domain.ErrorEvent {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		return domain.NewErrorEvent(domain.ErrCodeRoomNotFound, "Room not found")
	case errors.Is(err, domain.ErrInvalidMessage):
		return domain.NewErrorEvent(domain.ErrCodeInvalidMessage, "Message content is required")
	case errors.Is(err, domain.ErrStoreUnavailable):
		return domain.NewErrorEvent(domain.ErrCodeStoreUnavailable, "Message could not be stored, retry")
	default:
		return domain.NewErrorEvent(domain.ErrCodeInternalError, "Failed to send message")
	}
}

func (h *WSHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", h.HandleWebSocket)
}
