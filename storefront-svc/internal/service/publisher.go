package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"storefront/storefront-svc/internal/domain"
)

const OrderEventConfirmed = "order.confirmed"

// FanoutPublisher sends every event to each publisher and joins their errors.
type FanoutPublisher []OrderPublisher

func (f FanoutPublisher) PublishOrder(ctx context.Context, event domain.OrderEvent) error {
	var errs []error
	for _, p := range f {
		if err := p.PublishOrder(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func NewOrderEvent(order *domain.Order) domain.OrderEvent {
	items := make([]domain.OrderedDish, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, domain.OrderedDish{DishID: item.ID, Quantity: item.Quantity})
	}
	return domain.OrderEvent{
		Type:      OrderEventConfirmed,
		OrderID:   order.ID,
		Total:     order.Total,
		Items:     items,
		Timestamp: order.CreatedAt,
	}
}

// OrderIDs hands out time-based ids, bumping past the last one issued so two
// orders in the same millisecond never share an id.
type OrderIDs struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewOrderIDs(now func() time.Time) *OrderIDs {
	if now == nil {
		now = time.Now
	}
	return &OrderIDs{now: now}
}

func (g *OrderIDs) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}
