package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/questx-lab/rolebot/internal/entity"
	"github.com/questx-lab/rolebot/pkg/errorx"
	"github.com/questx-lab/rolebot/pkg/xcontext"
	"gorm.io/gorm"
)

type RoleReactionRepository interface {
	Create(ctx context.Context, data *entity.RoleReaction) error
	GetByMessageID(ctx context.Context, messageID string) ([]entity.RoleReaction, error)
	GetByMessageAndEmoji(ctx context.Context, messageID, emoji string) (*entity.RoleReaction, error)
	DeleteByID(ctx context.Context, id string) error
}

type roleReactionRepository struct{}

func NewRoleReactionRepository() *roleReactionRepository {
	return &roleReactionRepository{}
}

// Create stores a binding. A second binding for the same message and emoji
// is rejected with DuplicateBinding.
func (r *roleReactionRepository) Create(ctx context.Context, data *entity.RoleReaction) error {
	if data.ID == "" {
		data.ID = uuid.NewString()
	}

	return xcontext.DB(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&entity.RoleReaction{}).
			Where("message_id=? AND emoji=?", data.MessageID, data.Emoji).
			Count(&count).Error
		if err != nil {
			return err
		}

		if count > 0 {
			return errorx.New(errorx.DuplicateBinding,
				"Reaction role for %s already exists", data.Emoji)
		}

		return tx.Create(data).Error
	})
}

func (r *roleReactionRepository) GetByMessageID(ctx context.Context, messageID string) ([]entity.RoleReaction, error) {
	var result []entity.RoleReaction
	err := xcontext.DB(ctx).
		Where("message_id=?", messageID).
		Order("created_at ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *roleReactionRepository) GetByMessageAndEmoji(
	ctx context.Context, messageID, emoji string,
) (*entity.RoleReaction, error) {
	var result entity.RoleReaction
	err := xcontext.DB(ctx).
		Where("message_id=? AND emoji=?", messageID, emoji).
		Take(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleReactionNotFound
		}

		return nil, err
	}

	return &result, nil
}

func (r *roleReactionRepository) DeleteByID(ctx context.Context, id string) error {
	return xcontext.DB(ctx).Delete(&entity.RoleReaction{}, "id=?", id).Error
}
