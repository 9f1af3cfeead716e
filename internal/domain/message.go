package domain

import "time"

// MessageType classifies message content.
type MessageType string

const (
	MessageTypeText     MessageType = "text"
	MessageTypeImage    MessageType = "image"
	MessageTypeVideo    MessageType = "video"
	MessageTypeAudio    MessageType = "audio"
	MessageTypeDocument MessageType = "document"
)

// NormalizeMessageType maps legacy client values onto the supported set.
// The old clients sent "file" for documents and "emoji" for plain text.
func NormalizeMessageType(s string) (MessageType, bool) {
	switch MessageType(s) {
	case MessageTypeText, MessageTypeImage, MessageTypeVideo, MessageTypeAudio, MessageTypeDocument:
		return MessageType(s), true
	}
	switch s {
	case "file":
		return MessageTypeDocument, true
	case "emoji", "":
		return MessageTypeText, true
	}
	return "", false
}

// Message is a persisted chat message. DeliveredTo, SeenBy and DeletedFor
// are monotonically growing sets of user ids; entries are only ever added.
type Message struct {
	ID          string      `json:"id"`
	ChatRoom    string      `json:"chatRoom"`
	Sender      string      `json:"sender"`
	MessageType MessageType `json:"messageType"`
	Content     string      `json:"content"`
	FileName    string      `json:"fileName,omitempty"`
	DeliveredTo []string    `json:"deliveredTo"`
	SeenBy      []string    `json:"seenBy"`
	DeletedFor  []string    `json:"deletedFor"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// Preview returns the contact-list preview text for the message. Media
// messages preview as a typed placeholder instead of their URL.
func (m *Message) Preview() string {
	switch m.MessageType {
	case MessageTypeImage:
		return "[image]"
	case MessageTypeVideo:
		return "[video]"
	case MessageTypeAudio:
		return "[audio]"
	case MessageTypeDocument:
		return "[document]"
	default:
		return m.Content
	}
}
