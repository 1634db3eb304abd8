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

// CartStore holds one device's line items. Every mutation is persisted before
// it becomes visible; a failed save leaves the cart unchanged.
type CartStore struct {
	mu       sync.RWMutex
	device   string
	store    StateStore
	identity IdentitySource
	calc     Calculator
	logger   log.FieldLogger
	items    []domain.LineItem
}

func NewCartStore(device string, store StateStore, identity IdentitySource, calc Calculator, logger log.FieldLogger) *CartStore {
	return &CartStore{
		device:   device,
		store:    store,
		identity: identity,
		calc:     calc,
		logger:   logger,
		items:    []domain.LineItem{},
	}
}

// Load replaces the in-memory cart with the persisted one. Absent or
// malformed state yields an empty cart.
func (c *CartStore) Load(ctx context.Context) error {
	data, err := c.store.Get(ctx, c.device, KeyCart)
	if errors.Is(err, domain.ErrStateNotFound) {
		c.replace([]domain.LineItem{})
		return nil
	}
	if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}

	var items []domain.LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		c.logger.WithError(err).WithField("device", c.device).Warn("Discarding malformed cart state")
		items = []domain.LineItem{}
	}
	if items == nil {
		items = []domain.LineItem{}
	}
	c.replace(items)
	return nil
}

// Add merges into an existing line for the same dish or appends a new one.
// It requires a signed-in user.
func (c *CartStore) Add(ctx context.Context, dish domain.Dish, restaurantName string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	user, err := c.identity.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotAuthenticated
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.snapshot()
	merged := false
	for i := range next {
		if next[i].ID == dish.ID {
			next[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		next = append(next, domain.LineItem{Dish: dish, RestaurantName: restaurantName, Quantity: quantity})
	}
	return c.commit(ctx, next)
}

func (c *CartStore) Remove(ctx context.Context, dishID int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := make([]domain.LineItem, 0, len(c.items))
	for _, item := range c.items {
		if item.ID != dishID {
			next = append(next, item)
		}
	}
	return c.commit(ctx, next)
}

// SetQuantity removes the line when quantity is zero or negative. Unknown
// dish ids leave the cart as it is.
func (c *CartStore) SetQuantity(ctx context.Context, dishID, quantity int) error {
	if quantity <= 0 {
		return c.Remove(ctx, dishID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.snapshot()
	for i := range next {
		if next[i].ID == dishID {
			next[i].Quantity = quantity
		}
	}
	return c.commit(ctx, next)
}

func (c *CartStore) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.commit(ctx, []domain.LineItem{})
}

// Items returns a deep copy of the cart lines.
func (c *CartStore) Items() []domain.LineItem {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.snapshot()
}

func (c *CartStore) Total() float64 {
	return c.calc.Subtotal(c.Items())
}

func (c *CartStore) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	count := 0
	for _, item := range c.items {
		count += item.Quantity
	}
	return count
}

func (c *CartStore) IsAuthenticated(ctx context.Context) bool {
	user, err := c.identity.CurrentUser(ctx)
	if err != nil {
		c.logger.WithError(err).WithField("device", c.device).Warn("Identity lookup failed")
		return false
	}
	return user != nil
}

// commit persists next and then makes it current. Callers hold c.mu.
func (c *CartStore) commit(ctx context.Context, next []domain.LineItem) error {
	if err := c.save(ctx, next); err != nil {
		return err
	}
	c.items = next
	return nil
}

func (c *CartStore) save(ctx context.Context, items []domain.LineItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	if err := c.store.Set(ctx, c.device, KeyCart, data); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (c *CartStore) snapshot() []domain.LineItem {
	out := make([]domain.LineItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *CartStore) replace(items []domain.LineItem) {
	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
}
