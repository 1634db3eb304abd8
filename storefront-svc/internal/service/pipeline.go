package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"storefront/metrics"
	"storefront/storefront-svc/internal/domain"
)

type CheckoutState string

const (
	StateIdle       CheckoutState = "idle"
	StateSubmitting CheckoutState = "submitting"
	StateSucceeded  CheckoutState = "succeeded"
	StateFailed     CheckoutState = "failed"
)

const (
	defaultDeliveryTime    = "25-30 mins"
	defaultDeliveryAddress = "123 MG Road, Mumbai, Maharashtra 400001"
	defaultPhone           = "+91 98765 43210"
	multipleRestaurants    = "Multiple Restaurants"
	guestName              = "Guest"
	guestEmail             = "guest@example.com"
)

// Navigation tells the caller which view comes next.
type Navigation struct {
	Redirect Redirect      `json:"redirect"`
	Order    *domain.Order `json:"order,omitempty"`
}

type CheckoutStatus struct {
	State   CheckoutState `json:"state"`
	OrderID int64         `json:"order_id,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// Submission is an in-flight checkout. It resolves once the payment settles
// and the pending order has been stored.
type Submission struct {
	OrderID int64
	Amount  float64

	task *PaymentTask
	done chan struct{}
	nav  Navigation
	err  error
}

func (s *Submission) Done() <-chan struct{} {
	return s.done
}

func (s *Submission) Cancel() {
	s.task.Cancel()
}

// Wait blocks until the submission resolves or ctx ends. Ending ctx leaves
// the payment running.
func (s *Submission) Wait(ctx context.Context) (Navigation, error) {
	select {
	case <-ctx.Done():
		return Navigation{}, ctx.Err()
	case <-s.done:
		return s.nav, s.err
	}
}

// Pipeline turns a device's cart into a confirmed order. At most one payment
// runs per device at a time.
type Pipeline struct {
	mu       sync.Mutex
	device   string
	cart     *CartStore
	history  *OrderHistory
	identity IdentitySource
	deps     Dependencies

	state       CheckoutState
	pending     *Submission
	lastOrderID int64
	lastErr     error
}

func NewPipeline(device string, cart *CartStore, history *OrderHistory, identity IdentitySource, deps Dependencies) *Pipeline {
	return &Pipeline{
		device:   device,
		cart:     cart,
		history:  history,
		identity: identity,
		deps:     deps,
		state:    StateIdle,
	}
}

// Breakdown prices the current cart.
func (p *Pipeline) Breakdown() domain.Breakdown {
	return p.deps.Calculator.Breakdown(p.cart.Items())
}

// Pay submits a checkout and waits for it to resolve.
func (p *Pipeline) Pay(ctx context.Context, method string) (Navigation, error) {
	sub, err := p.Submit(ctx, method)
	if err != nil {
		return Navigation{}, err
	}
	return sub.Wait(ctx)
}

// Submit validates the checkout and starts the payment. The payment is
// detached from ctx; use Submission.Cancel to stop it.
func (p *Pipeline) Submit(ctx context.Context, method string) (*Submission, error) {
	if !ValidPaymentMethod(method) {
		return nil, ErrUnsupportedPaymentMethod
	}
	user, err := p.identity.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &PreconditionError{Reason: ReasonNotSignedIn, Redirect: RedirectLogin}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateSubmitting {
		return nil, ErrPaymentInProgress
	}
	items := p.cart.Items()
	if len(items) == 0 {
		return nil, &PreconditionError{Reason: ReasonEmptyCart, Redirect: RedirectCart}
	}

	order := p.draftOrder(user, items, method)
	detached := context.WithoutCancel(ctx)
	sub := &Submission{
		OrderID: order.ID,
		Amount:  order.Total,
		done:    make(chan struct{}),
		task: StartPayment(detached, p.deps.Processor, PaymentRequest{
			OrderID: order.ID,
			Method:  method,
			Amount:  order.Total,
		}),
	}

	p.state = StateSubmitting
	p.pending = sub
	p.lastOrderID = order.ID
	p.lastErr = nil

	p.deps.Logger.WithFields(log.Fields{
		"device":   p.device,
		"order_id": order.ID,
		"method":   method,
		"amount":   order.Total,
	}).Info("Payment started")

	go p.settle(detached, sub, order)
	return sub, nil
}

// Cancel stops the in-flight payment, if any, and reports whether one existed.
func (p *Pipeline) Cancel() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateSubmitting || p.pending == nil {
		return false
	}
	p.pending.Cancel()
	return true
}

// Busy reports whether a payment is running.
func (p *Pipeline) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.state == StateSubmitting
}

func (p *Pipeline) Status() CheckoutStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	status := CheckoutStatus{State: p.state, OrderID: p.lastOrderID}
	if p.lastErr != nil {
		status.Error = p.lastErr.Error()
	}
	return status
}

// Confirm finalizes the pending order: it is added to history, the pending
// slot is emptied and the cart is cleared. ErrNoPendingOrder means there was
// nothing to confirm.
func (p *Pipeline) Confirm(ctx context.Context) (*domain.Order, error) {
	data, err := p.deps.Store.Get(ctx, p.device, KeyCurrentOrder)
	if errors.Is(err, domain.ErrStateNotFound) {
		return nil, ErrNoPendingOrder
	}
	if err != nil {
		return nil, fmt.Errorf("load current order: %w", err)
	}

	var order domain.Order
	if err := json.Unmarshal(data, &order); err != nil {
		p.deps.Logger.WithError(err).WithField("device", p.device).Warn("Discarding malformed pending order")
		if delErr := p.deps.Store.Delete(ctx, p.device, KeyCurrentOrder); delErr != nil {
			p.deps.Logger.WithError(delErr).Warn("Failed to drop malformed pending order")
		}
		return nil, ErrNoPendingOrder
	}

	appended, err := p.history.Append(ctx, order)
	if err != nil {
		return nil, err
	}
	if err := p.deps.Store.Delete(ctx, p.device, KeyCurrentOrder); err != nil {
		return nil, fmt.Errorf("delete current order: %w", err)
	}
	if err := p.cart.Clear(ctx); err != nil {
		return nil, err
	}

	p.mu.Lock()
	if p.state != StateSubmitting {
		p.state = StateIdle
	}
	p.mu.Unlock()

	if appended {
		metrics.OrdersTotal.WithLabelValues("confirmed").Inc()
		p.announce(ctx, &order)
	}
	return &order, nil
}

func (p *Pipeline) settle(ctx context.Context, sub *Submission, order domain.Order) {
	defer close(sub.done)

	result, err := sub.task.Wait(ctx)
	if err == nil {
		order.CreatedAt = p.deps.Clock().UTC()
		err = p.storePending(ctx, &order)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pending == sub {
		p.pending = nil
	}
	logger := p.deps.Logger.WithFields(log.Fields{"device": p.device, "order_id": order.ID})

	if err != nil {
		p.state = StateFailed
		p.lastErr = err
		if errors.Is(err, context.Canceled) {
			sub.err = fmt.Errorf("%w: %w", ErrPaymentCancelled, err)
			metrics.OrdersTotal.WithLabelValues("cancelled").Inc()
			logger.Info("Payment cancelled")
			return
		}
		sub.err = fmt.Errorf("payment failed: %w", err)
		metrics.OrdersTotal.WithLabelValues("failed").Inc()
		logger.WithError(err).Warn("Payment failed")
		return
	}

	p.state = StateSucceeded
	sub.nav = Navigation{Redirect: RedirectConfirmation, Order: &order}
	metrics.OrdersTotal.WithLabelValues("paid").Inc()
	metrics.PaymentAmount.Observe(order.Total)
	logger.WithField("transaction_id", result.TransactionID).Info("Payment completed")
}

func (p *Pipeline) storePending(ctx context.Context, order *domain.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return err
	}
	if err := p.deps.Store.Set(ctx, p.device, KeyCurrentOrder, data); err != nil {
		return fmt.Errorf("save current order: %w", err)
	}
	return nil
}

func (p *Pipeline) draftOrder(user *domain.User, items []domain.LineItem, method string) domain.Order {
	breakdown := p.deps.Calculator.Breakdown(items)

	restaurant := multipleRestaurants
	if items[0].RestaurantName != "" {
		restaurant = items[0].RestaurantName
	}
	name := user.Name
	if name == "" {
		name = guestName
	}
	email := user.Email
	if email == "" {
		email = guestEmail
	}

	return domain.Order{
		ID:              p.deps.OrderIDs.Next(),
		Items:           items,
		Total:           Round2(breakdown.Total),
		Status:          domain.OrderStatusConfirmed,
		DeliveryTime:    defaultDeliveryTime,
		RestaurantName:  restaurant,
		CustomerName:    name,
		CustomerEmail:   email,
		PaymentMethod:   method,
		DeliveryAddress: defaultDeliveryAddress,
		Phone:           defaultPhone,
	}
}

// announce hands a confirmed order to the event bus and the archive. Both are
// optional and their failures never undo the confirmation.
func (p *Pipeline) announce(ctx context.Context, order *domain.Order) {
	logger := p.deps.Logger.WithFields(log.Fields{"device": p.device, "order_id": order.ID})

	if p.deps.Publisher != nil {
		if err := p.deps.Publisher.PublishOrder(ctx, NewOrderEvent(order)); err != nil {
			logger.WithError(err).Warn("Failed to publish order event")
		}
	}
	if p.deps.Archive != nil {
		if err := p.deps.Archive.ArchiveOrder(ctx, order); err != nil {
			logger.WithError(err).Warn("Failed to archive order")
		}
	}
	logger.Info("Order confirmed")
}
