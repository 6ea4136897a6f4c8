package repository

import (
	"context"
	"errors"

	"github.com/questx-lab/rolebot/internal/entity"
	"github.com/questx-lab/rolebot/pkg/xcontext"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TrackedMessageRepository holds at most one tracked message. Set replaces
// whatever was tracked before.
type TrackedMessageRepository interface {
	Set(ctx context.Context, data *entity.TrackedMessage) error
	Get(ctx context.Context) (*entity.TrackedMessage, error)
	Clear(ctx context.Context) error
}

type trackedMessageRepository struct{}

func NewTrackedMessageRepository() *trackedMessageRepository {
	return &trackedMessageRepository{}
}

func (r *trackedMessageRepository) Set(ctx context.Context, data *entity.TrackedMessage) error {
	data.Slot = entity.ActiveSlot
	return xcontext.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slot"}},
			UpdateAll: true,
		}).Create(data).Error
}

func (r *trackedMessageRepository) Get(ctx context.Context) (*entity.TrackedMessage, error) {
	var result entity.TrackedMessage
	err := xcontext.DB(ctx).Where("slot=?", entity.ActiveSlot).Take(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTrackedMessageNotFound
		}

		return nil, err
	}

	return &result, nil
}

func (r *trackedMessageRepository) Clear(ctx context.Context) error {
	return xcontext.DB(ctx).Delete(&entity.TrackedMessage{}, "slot=?", entity.ActiveSlot).Error
}
