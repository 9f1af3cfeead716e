package domain

import "time"

// WebSocket event types from client.
const (
	EventUserConnected      = "userConnected"
	EventJoinRoom           = "joinRoom"
	EventSendMessage        = "sendMessage"
	EventMarkMessagesAsSeen = "markMessagesAsSeen"
	EventStartTyping        = "startTyping"
	EventStopTyping         = "stopTyping"
	EventPing               = "ping"
)

// WebSocket event types to client.
const (
	EventNewMessage        = "newMessage"
	EventMessageDelivered  = "messageDelivered"
	EventMessageSeen       = "messageSeen"
	EventLastMessageUpdate = "lastMessageUpdate"
	EventUserTyping        = "userTyping"
	EventUserStopTyping    = "userStopTyping"
	EventUserOnlineStatus  = "userOnlineStatus"
	EventError             = "error"
	EventPong              = "pong"
)

// Error codes
const (
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeRoomNotFound     = "ROOM_NOT_FOUND"
	ErrCodeInvalidMessage   = "INVALID_MESSAGE"
	ErrCodeStoreUnavailable = "STORE_UNAVAILABLE"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// BaseEvent is the envelope shared by all WebSocket events.
type BaseEvent struct {
	Type string `json:"type"`
}

// Client -> Server events

type UserConnectedEvent struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

type JoinRoomEvent struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
}

type TypingEvent struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

type SendMessageEvent struct {
	Type        string `json:"type"`
	ChatRoom    string `json:"chatRoom"`
	Sender      string `json:"sender"`
	MessageType string `json:"messageType"`
	Content     string `json:"content"`
	FileName    string `json:"fileName,omitempty"`
}

type MarkMessagesAsSeenEvent struct {
	Type       string   `json:"type"`
	MessageIDs []string `json:"messageIds"`
	UserID     string   `json:"userId"`
	ChatRoomID string   `json:"chatRoomId"`
}

// Server -> Client events

type NewMessageEvent struct {
	Type    string   `json:"type"`
	Message *Message `json:"message"`
}

type MessageDeliveredEvent struct {
	Type      string `json:"type"`
	MessageID string `json:"messageId"`
	UserID    string `json:"userId"`
}

type MessageSeenEvent struct {
	Type      string `json:"type"`
	MessageID string `json:"messageId"`
	UserID    string `json:"userId"`
}

type LastMessageUpdateEvent struct {
	Type        string    `json:"type"`
	ChatRoomID  string    `json:"chatRoomId"`
	LastMessage string    `json:"lastMessage"`
	Time        time.Time `json:"time"`
}

type UserTypingEvent struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

type UserOnlineStatusEvent struct {
	Type     string `json:"type"`
	UserID   string `json:"userId"`
	IsOnline bool   `json:"isOnline"`
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewErrorEvent(code, message string) *ErrorEvent {
	return &ErrorEvent{
		Type:    EventError,
		Code:    code,
		Message: message,
	}
}
