package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sasineelakandan/chatkaro-Entegation-Task/internal/domain"
	"github.com/sasineelakandan/chatkaro-Entegation-Task/pkg/log"
)

// GormMessageStore implements MessageStore using GORM. Delivered/seen/deleted
// sets are receipt rows with a composite unique index; set insertion is a
// single INSERT .. ON CONFLICT DO NOTHING, never a read-modify-write.
type GormMessageStore struct {
	db *gorm.DB
}

func NewGormMessageStore(db *gorm.DB) *GormMessageStore {
	return &GormMessageStore{db: db}
}

// Create persists a new message with empty delivered/seen sets.
func (s *GormMessageStore) Create(ctx context.Context, roomID, senderID string, msgType domain.MessageType, content, fileName string) (*domain.Message, error) {
	l := log.Ctx(ctx)

	model := MessageModel{
		ID:          uuid.New().String(),
		RoomID:      roomID,
		SenderID:    senderID,
		MessageType: string(msgType),
		Content:     content,
		FileName:    fileName,
	}
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		l.Error().Err(err).Str(log.FieldRoomID, roomID).Msg("failed to create message in db")
		return nil, err
	}

	l.Debug().Str(log.FieldMessageID, model.ID).Str(log.FieldRoomID, roomID).Msg("message created in db")
	return model.ToDomain(), nil
}

// AddDelivered adds userID to the message's delivered set.
func (s *GormMessageStore) AddDelivered(ctx context.Context, messageID, userID string) (bool, error) {
	return s.addReceipt(ctx, messageID, userID, ReceiptDelivered)
}

// AddSeen adds userID to the message's seen set.
func (s *GormMessageStore) AddSeen(ctx context.Context, messageID, userID string) (bool, error) {
	return s.addReceipt(ctx, messageID, userID, ReceiptSeen)
}

// MarkDeleted soft-deletes the message for userID only.
func (s *GormMessageStore) MarkDeleted(ctx context.Context, messageID, userID string) error {
	_, err := s.addReceipt(ctx, messageID, userID, ReceiptDeleted)
	return err
}

// addReceipt reports added=false when the entry already existed.
func (s *GormMessageStore) addReceipt(ctx context.Context, messageID, userID string, kind ReceiptKind) (bool, error) {
	l := log.Ctx(ctx)

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&ReceiptModel{
			MessageID: messageID,
			UserID:    userID,
			Kind:      string(kind),
		})
	if result.Error != nil {
		l.Error().Err(result.Error).
			Str(log.FieldMessageID, messageID).
			Str(log.FieldUserID, userID).
			Str("kind", string(kind)).
			Msg("failed to add message receipt")
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListByRoom returns the room's messages in ascending creation order with
// their receipt sets aggregated, omitting messages soft-deleted for forUser.
func (s *GormMessageStore) ListByRoom(ctx context.Context, roomID, forUser string) ([]domain.Message, error) {
	l := log.Ctx(ctx)

	var models []MessageModel
	err := s.db.WithContext(ctx).
		Preload("Receipts").
		Where("room_id = ?", roomID).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		l.Error().Err(err).Str(log.FieldRoomID, roomID).Msg("failed to list messages from db")
		return nil, err
	}

	messages := make([]domain.Message, 0, len(models))
	for i := range models {
		msg := models[i].ToDomain()
		if forUser != "" && contains(msg.DeletedFor, forUser) {
			continue
		}
		messages = append(messages, *msg)
	}
	return messages, nil
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
