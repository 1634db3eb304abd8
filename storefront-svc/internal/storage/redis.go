package storage

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront/storefront-svc/internal/domain"
)

const (
	defaultStatePrefix = "storefront"
	PopularityKey      = "popularity:dishes"
)

// RedisStateStore keeps each document as a plain string value. A positive TTL
// is refreshed on every write, except for keys listed in Persistent.
type RedisStateStore struct {
	Client     *redis.Client
	TTL        time.Duration
	Prefix     string
	Persistent map[string]bool
}

func NewRedisStateStore(client *redis.Client, ttl time.Duration, persistent ...string) *RedisStateStore {
	keep := make(map[string]bool, len(persistent))
	for _, key := range persistent {
		keep[key] = true
	}
	return &RedisStateStore{Client: client, TTL: ttl, Prefix: defaultStatePrefix, Persistent: keep}
}

func (s *RedisStateStore) Key(namespace, key string) string {
	return s.Prefix + ":" + namespace + ":" + key
}

func (s *RedisStateStore) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	data, err := s.Client.Get(ctx, s.Key(namespace, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrStateNotFound
	}
	return data, err
}

func (s *RedisStateStore) Set(ctx context.Context, namespace, key string, value []byte) error {
	ttl := s.TTL
	if s.Persistent[key] {
		ttl = 0
	}
	return s.Client.Set(ctx, s.Key(namespace, key), value, ttl).Err()
}

func (s *RedisStateStore) Delete(ctx context.Context, namespace, key string) error {
	return s.Client.Del(ctx, s.Key(namespace, key)).Err()
}

// RedisPopularity reads the all-time dish ranking kept by the aggregator.
type RedisPopularity struct {
	Client *redis.Client
}

func NewRedisPopularity(client *redis.Client) *RedisPopularity {
	return &RedisPopularity{Client: client}
}

func (p *RedisPopularity) TopDishes(ctx context.Context, limit int) ([]domain.DishPopularity, error) {
	if limit <= 0 {
		return []domain.DishPopularity{}, nil
	}

	entries, err := p.Client.ZRevRangeWithScores(ctx, PopularityKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	ranked := make([]domain.DishPopularity, 0, len(entries))
	for _, z := range entries {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		dishID, err := strconv.Atoi(member)
		if err != nil {
			continue
		}
		ranked = append(ranked, domain.DishPopularity{DishID: dishID, Score: z.Score})
	}
	return ranked, nil
}
