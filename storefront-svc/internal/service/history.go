package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"storefront/storefront-svc/internal/domain"
)

// OrderHistory is the newest-first list of confirmed orders for a device.
type OrderHistory struct {
	mu     sync.Mutex
	device string
	store  StateStore
	logger log.FieldLogger
}

func NewOrderHistory(device string, store StateStore, logger log.FieldLogger) *OrderHistory {
	return &OrderHistory{device: device, store: store, logger: logger}
}

// Append prepends order unless an order with the same id is already stored.
// It reports whether the order was added.
func (h *OrderHistory) Append(ctx context.Context, order domain.Order) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	orders, _, err := h.load(ctx)
	if err != nil {
		return false, err
	}
	for _, existing := range orders {
		if existing.ID == order.ID {
			h.logger.WithFields(log.Fields{"device": h.device, "order_id": order.ID}).Debug("Order already in history")
			return false, nil
		}
	}

	orders = append([]domain.Order{order}, orders...)
	if err := h.save(ctx, orders); err != nil {
		return false, err
	}
	return true, nil
}

// All returns the history with duplicate ids collapsed to their first
// occurrence. When duplicates were found the cleaned list is written back.
func (h *OrderHistory) All(ctx context.Context) ([]domain.Order, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	orders, dirty, err := h.load(ctx)
	if err != nil {
		return nil, err
	}
	if dirty {
		if err := h.save(ctx, orders); err != nil {
			h.logger.WithError(err).WithField("device", h.device).Warn("Failed to write back deduplicated history")
		}
	}
	return orders, nil
}

func (h *OrderHistory) Find(ctx context.Context, id int64) (*domain.Order, error) {
	orders, err := h.All(ctx)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if orders[i].ID == id {
			return &orders[i], nil
		}
	}
	return nil, ErrOrderNotFound
}

func (h *OrderHistory) Clear(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.store.Delete(ctx, h.device, KeyOrderHistory); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// load returns the deduplicated history and whether duplicates were dropped.
func (h *OrderHistory) load(ctx context.Context) ([]domain.Order, bool, error) {
	data, err := h.store.Get(ctx, h.device, KeyOrderHistory)
	if errors.Is(err, domain.ErrStateNotFound) {
		return []domain.Order{}, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load history: %w", err)
	}

	var stored []domain.Order
	if err := json.Unmarshal(data, &stored); err != nil {
		h.logger.WithError(err).WithField("device", h.device).Warn("Discarding malformed order history")
		return []domain.Order{}, false, nil
	}

	seen := make(map[int64]bool, len(stored))
	orders := make([]domain.Order, 0, len(stored))
	for _, order := range stored {
		if seen[order.ID] {
			continue
		}
		seen[order.ID] = true
		orders = append(orders, order)
	}
	return orders, len(orders) != len(stored), nil
}

func (h *OrderHistory) save(ctx context.Context, orders []domain.Order) error {
	data, err := json.Marshal(orders)
	if err != nil {
		return err
	}
	if err := h.store.Set(ctx, h.device, KeyOrderHistory, data); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}
