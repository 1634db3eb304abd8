package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	log "github.com/sirupsen/logrus"

	"storefront/agg-svc/internal/domain"
	"storefront/metrics"
)

// Consumer folds confirmed order events into the dish popularity rankings
// that storefront-svc serves. Orders are counted at most once.
type Consumer struct {
	Reader  MessageReader
	Store   PopularityStore
	Counter DishCounter // optional
	Logger  log.FieldLogger
	Clock   func() time.Time

	// RetryDelay is the pause after a failed read.
	RetryDelay time.Duration
}

const defaultRetryDelay = 500 * time.Millisecond

func NewConsumer(reader MessageReader, store PopularityStore, logger log.FieldLogger) *Consumer {
	return &Consumer{
		Reader: reader,
		Store:  store,
		Logger: logger,
		Clock:  time.Now,

		RetryDelay: defaultRetryDelay,
	}
}

// Start reads until ctx is cancelled or the reader is closed. Bad payloads and
// processing errors are logged and skipped.
func (c *Consumer) Start(ctx context.Context) {
	c.Logger.Info("Starting popularity consumer")
	for {
		message, err := c.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.Logger.Info("Popularity consumer stopped")
				return
			}
			if errors.Is(err, io.EOF) {
				c.Logger.Info("Reader closed, popularity consumer stopped")
				return
			}
			c.Logger.WithError(err).Error("Error reading message")
			select {
			case <-ctx.Done():
				c.Logger.Info("Popularity consumer stopped")
				return
			case <-time.After(c.RetryDelay):
			}
			continue
		}

		var event domain.OrderEvent
		if err := json.Unmarshal(message.Value, &event); err != nil {
			c.Logger.WithError(err).WithField("offset", message.Offset).Warn("Error unmarshaling message")
			continue
		}

		if err := c.ProcessOrder(ctx, event); err != nil {
			c.Logger.WithError(err).WithField("order_id", event.OrderID).Error("Error processing order")
		}
	}
}

func (c *Consumer) ProcessOrder(ctx context.Context, event domain.OrderEvent) error {
	if event.Type != domain.OrderConfirmed {
		c.Logger.WithField("type", event.Type).Debug("Ignoring event")
		return nil
	}

	items := make([]domain.OrderedDish, 0, len(event.Items))
	for _, item := range event.Items {
		if item.Quantity > 0 {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return nil
	}

	fresh, err := c.Store.MarkProcessed(ctx, event.OrderID)
	if err != nil {
		return fmt.Errorf("mark order %d: %w", event.OrderID, err)
	}
	if !fresh {
		c.Logger.WithField("order_id", event.OrderID).Info("Order already counted")
		return nil
	}

	at := event.Timestamp
	if at.IsZero() {
		at = c.Clock()
	}
	if err := c.Store.IncrementDishes(ctx, at, items); err != nil {
		return fmt.Errorf("increment popularity: %w", err)
	}
	metrics.PopularityUpdates.Add(float64(len(items)))

	if c.Counter != nil {
		if err := c.Counter.RecordDishes(ctx, at, items); err != nil {
			return fmt.Errorf("record dish counts: %w", err)
		}
	}

	c.Logger.WithFields(log.Fields{
		"order_id": event.OrderID,
		"dishes":   len(items),
	}).Info("Order counted")
	return nil
}
