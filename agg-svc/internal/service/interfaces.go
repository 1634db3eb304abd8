package service

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"storefront/agg-svc/internal/domain"
	"storefront/agg-svc/internal/storage"
)

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type PopularityStore interface {
	// MarkProcessed reports whether the order is seen for the first time.
	MarkProcessed(ctx context.Context, orderID int64) (bool, error)
	IncrementDishes(ctx context.Context, day time.Time, items []domain.OrderedDish) error
}

type DishCounter interface {
	RecordDishes(ctx context.Context, at time.Time, items []domain.OrderedDish) error
}

var (
	_ MessageReader   = (*kafka.Reader)(nil)
	_ PopularityStore = (*storage.RedisStore)(nil)
	_ DishCounter     = (*storage.PostgresCounter)(nil)
)
