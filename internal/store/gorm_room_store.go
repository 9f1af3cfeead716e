package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sasineelakandan/chatkaro-Entegation-Task/internal/domain"
	"github.com/sasineelakandan/chatkaro-Entegation-Task/pkg/log"
)

// GormRoomStore implements RoomStore using GORM.
type GormRoomStore struct {
	db *gorm.DB
}

func NewGormRoomStore(db *gorm.DB) *GormRoomStore {
	return &GormRoomStore{db: db}
}

// GetOrCreate resolves the room for a pair of users. The pair is normalized
// before lookup, so both argument orders hit the same row. A create that
// loses the race to a concurrent create re-fetches the winner's row.
func (s *GormRoomStore) GetOrCreate(ctx context.Context, userA, userB string) (*domain.Room, error) {
	l := log.Ctx(ctx)

	if userA == userB {
		return nil, domain.ErrSameParticipant
	}
	a, b := domain.NormalizePair(userA, userB)

	var model RoomModel
	err := s.db.WithContext(ctx).
		First(&model, "participant_a = ? AND participant_b = ?", a, b).Error
	if err == nil {
		return model.ToDomain(), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		l.Error().Err(err).Msg("failed to look up room by pair")
		return nil, err
	}

	model = RoomModel{
		ID:           uuid.New().String(),
		ParticipantA: a,
		ParticipantB: b,
	}
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			err = s.db.WithContext(ctx).
				First(&model, "participant_a = ? AND participant_b = ?", a, b).Error
			if err != nil {
				return nil, err
			}
			return model.ToDomain(), nil
		}
		l.Error().Err(err).Msg("failed to create room in db")
		return nil, err
	}

	l.Debug().Str(log.FieldRoomID, model.ID).Msg("room created in db")
	return model.ToDomain(), nil
}

// GetByID retrieves a room by ID.
func (s *GormRoomStore) GetByID(ctx context.Context, roomID string) (*domain.Room, error) {
	l := log.Ctx(ctx)

	var model RoomModel
	err := s.db.WithContext(ctx).First(&model, "id = ?", roomID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRoomNotFound
		}
		l.Error().Err(err).Str(log.FieldRoomID, roomID).Msg("failed to get room by id")
		return nil, err
	}
	return model.ToDomain(), nil
}

// SetPreview updates the room's contact-list preview.
func (s *GormRoomStore) SetPreview(ctx context.Context, roomID, preview string, at time.Time) error {
	l := log.Ctx(ctx)

	result := s.db.WithContext(ctx).Model(&RoomModel{}).
		Where("id = ?", roomID).
		Updates(map[string]interface{}{
			"last_message":    preview,
			"last_message_at": at,
		})
	if result.Error != nil {
		l.Error().Err(result.Error).Str(log.FieldRoomID, roomID).Msg("failed to update room preview")
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrRoomNotFound
	}
	return nil
}
