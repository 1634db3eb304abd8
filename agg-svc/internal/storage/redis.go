package storage

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront/agg-svc/internal/domain"
)

const (
	// PopularityKey is the all-time ranking read by storefront-svc.
	PopularityKey = "popularity:dishes"

	dailyKeyPrefix     = "popularity:daily:"
	processedKeyPrefix = "popularity:processed:"
	retention          = 7 * 24 * time.Hour
)

type RedisStore struct {
	Client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{Client: client}
}

func DailyKey(day time.Time) string {
	return dailyKeyPrefix + day.UTC().Format("2006-01-02")
}

func (s *RedisStore) MarkProcessed(ctx context.Context, orderID int64) (bool, error) {
	key := processedKeyPrefix + strconv.FormatInt(orderID, 10)
	return s.Client.SetNX(ctx, key, 1, retention).Result()
}

// IncrementDishes bumps the all-time and daily rankings by each quantity.
// Daily rankings are kept for a week.
func (s *RedisStore) IncrementDishes(ctx context.Context, day time.Time, items []domain.OrderedDish) error {
	dailyKey := DailyKey(day)
	_, err := s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, item := range items {
			member := strconv.Itoa(item.DishID)
			pipe.ZIncrBy(ctx, PopularityKey, float64(item.Quantity), member)
			pipe.ZIncrBy(ctx, dailyKey, float64(item.Quantity), member)
		}
		pipe.Expire(ctx, dailyKey, retention)
		return nil
	})
	return err
}
