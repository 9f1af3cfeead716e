package store

import (
	"time"

	"github.com/sasineelakandan/chatkaro-Entegation-Task/internal/domain"
)

// RoomModel is the GORM model for the chat_rooms table. ParticipantA and
// ParticipantB are stored in normalized (lexicographic) order; the unique
// index makes room creation idempotent per pair.
type RoomModel struct {
	ID            string `gorm:"type:varchar(36);primaryKey"`
	ParticipantA  string `gorm:"type:varchar(64);not null;uniqueIndex:idx_room_pair,priority:1;index"`
	ParticipantB  string `gorm:"type:varchar(64);not null;uniqueIndex:idx_room_pair,priority:2;index"`
	LastMessage   string `gorm:"type:varchar(255)"`
	LastMessageAt *time.Time
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

func (RoomModel) TableName() string {
	return "chat_rooms"
}

func (m *RoomModel) ToDomain() *domain.Room {
	r := &domain.Room{
		ID:           m.ID,
		Participants: [2]string{m.ParticipantA, m.ParticipantB},
		LastMessage:  m.LastMessage,
		CreatedAt:    m.CreatedAt,
	}
	if m.LastMessageAt != nil {
		r.LastMessageAt = *m.LastMessageAt
	}
	return r
}

// MessageModel is the GORM model for the messages table.
type MessageModel struct {
	ID          string    `gorm:"type:varchar(36);primaryKey"`
	RoomID      string    `gorm:"type:varchar(36);index;not null"`
	SenderID    string    `gorm:"type:varchar(64);not null"`
	MessageType string    `gorm:"type:varchar(16);not null;default:'text'"`
	Content     string    `gorm:"type:text;not null"`
	FileName    string    `gorm:"type:varchar(255)"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index"`

	Receipts []ReceiptModel `gorm:"foreignKey:MessageID"`
}

func (MessageModel) TableName() string {
	return "messages"
}

// ReceiptModel is one entry of a message's delivered/seen/deleted set.
// The composite primary key makes set insertion idempotent at the
// database level.
type ReceiptModel struct {
	MessageID string    `gorm:"type:varchar(36);primaryKey"`
	UserID    string    `gorm:"type:varchar(64);primaryKey"`
	Kind      string    `gorm:"type:varchar(16);primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (ReceiptModel) TableName() string {
	return "message_receipts"
}

func (m *MessageModel) ToDomain() *domain.Message {
	msg := &domain.Message{
		ID:          m.ID,
		ChatRoom:    m.RoomID,
		Sender:      m.SenderID,
		MessageType: domain.MessageType(m.MessageType),
		Content:     m.Content,
		FileName:    m.FileName,
		DeliveredTo: []string{},
		SeenBy:      []string{},
		DeletedFor:  []string{},
		CreatedAt:   m.CreatedAt,
	}
	for _, r := range m.Receipts {
		switch ReceiptKind(r.Kind) {
		case ReceiptDelivered:
			msg.DeliveredTo = append(msg.DeliveredTo, r.UserID)
		case ReceiptSeen:
			msg.SeenBy = append(msg.SeenBy, r.UserID)
		case ReceiptDeleted:
			msg.DeletedFor = append(msg.DeletedFor, r.UserID)
		}
	}
	return msg
}
