package repository

import (
	"context"
	"errors"
	"time"

	"github.com/questx-lab/rolebot/internal/common"
	"github.com/questx-lab/rolebot/internal/entity"
	"github.com/questx-lab/rolebot/pkg/xredis"
	"github.com/redis/go-redis/v9"
)

type trackedMessageRedisRepository struct {
	redisClient xredis.Client
}

func NewTrackedMessageRedisRepository(redisClient xredis.Client) *trackedMessageRedisRepository {
	return &trackedMessageRedisRepository{redisClient: redisClient}
}

func (r *trackedMessageRedisRepository) Set(ctx context.Context, data *entity.TrackedMessage) error {
	data.Slot = entity.ActiveSlot
	data.UpdatedAt = time.Now()
	return r.redisClient.SetObj(ctx, common.RedisKeyTrackedMessage, data, 0)
}

func (r *trackedMessageRedisRepository) Get(ctx context.Context) (*entity.TrackedMessage, error) {
	var result entity.TrackedMessage
	if err := r.redisClient.GetObj(ctx, common.RedisKeyTrackedMessage, &result); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrTrackedMessageNotFound
		}

		return nil, err
	}

	return &result, nil
}

func (r *trackedMessageRedisRepository) Clear(ctx context.Context) error {
	err := r.redisClient.Del(ctx, common.RedisKeyTrackedMessage)
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	return nil
}
