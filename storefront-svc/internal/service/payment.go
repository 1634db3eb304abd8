package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"storefront/storefront-svc/internal/domain"
)

const (
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

type PaymentRequest struct {
	OrderID int64
	Method  string
	Amount  float64
}

type PaymentResult struct {
	TransactionID string    `json:"transaction_id"`
	Method        string    `json:"method"`
	Amount        float64   `json:"amount"`
	Status        string    `json:"status"`
	ProcessedAt   time.Time `json:"processed_at"`
}

func ValidPaymentMethod(method string) bool {
	return method == domain.PaymentMethodCard || method == domain.PaymentMethodPayPal
}

// SimulatedProcessor approves every charge after a per-method delay.
type SimulatedProcessor struct {
	Delays map[string]time.Duration
}

func NewSimulatedProcessor(cardDelay, paypalDelay time.Duration) *SimulatedProcessor {
	return &SimulatedProcessor{
		Delays: map[string]time.Duration{
			domain.PaymentMethodCard:   cardDelay,
			domain.PaymentMethodPayPal: paypalDelay,
		},
	}
}

func (p *SimulatedProcessor) Charge(ctx context.Context, req PaymentRequest) (PaymentResult, error) {
	delay, ok := p.Delays[req.Method]
	if !ok {
		return PaymentResult{}, ErrUnsupportedPaymentMethod
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return PaymentResult{}, ctx.Err()
	case <-timer.C:
	}

	return PaymentResult{
		TransactionID: uuid.New().String(),
		Method:        req.Method,
		Amount:        req.Amount,
		Status:        PaymentStatusCompleted,
		ProcessedAt:   time.Now(),
	}, nil
}

// PaymentTask is a running charge that can be awaited or cancelled.
type PaymentTask struct {
	done   chan struct{}
	cancel context.CancelFunc
	result PaymentResult
	err    error
}

// StartPayment runs the charge in its own goroutine. The task outlives ctx
// only if ctx is detached by the caller.
func StartPayment(ctx context.Context, processor PaymentProcessor, req PaymentRequest) *PaymentTask {
	ctx, cancel := context.WithCancel(ctx)
	task := &PaymentTask{done: make(chan struct{}), cancel: cancel}

	go func() {
		defer close(task.done)
		defer cancel()
		task.result, task.err = processor.Charge(ctx, req)
	}()

	return task
}

func (t *PaymentTask) Done() <-chan struct{} {
	return t.done
}

func (t *PaymentTask) Cancel() {
	t.cancel()
}

// Wait blocks until the charge resolves or ctx ends. Ending ctx does not
// cancel the task.
func (t *PaymentTask) Wait(ctx context.Context) (PaymentResult, error) {
	select {
	case <-ctx.Done():
		return PaymentResult{}, ctx.Err()
	case <-t.done:
		return t.result, t.err
	}
}
