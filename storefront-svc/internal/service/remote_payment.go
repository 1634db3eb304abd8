package service

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

type chargeRequest struct {
	OrderID string  `json:"order_id"`
	Method  string  `json:"method"`
	Amount  float64 `json:"amount"`
}

type chargeResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	Message       string `json:"message,omitempty"`
}

// RemoteProcessor charges through an external payment gateway behind a
// circuit breaker.
type RemoteProcessor struct {
	client  *resty.Client
	breaker *CircuitBreaker
	baseURL string
}

func NewRemoteProcessor(baseURL string, timeout time.Duration, breaker *CircuitBreaker) *RemoteProcessor {
	return &RemoteProcessor{
		client: resty.New().
			SetTimeout(timeout).
			SetRetryCount(0),
		breaker: breaker,
		baseURL: baseURL,
	}
}

func (p *RemoteProcessor) Charge(ctx context.Context, req PaymentRequest) (PaymentResult, error) {
	if !ValidPaymentMethod(req.Method) {
		return PaymentResult{}, ErrUnsupportedPaymentMethod
	}

	out, err := p.breaker.Execute(func() (interface{}, error) {
		var response chargeResponse
		resp, httpErr := p.client.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(chargeRequest{
				OrderID: strconv.FormatInt(req.OrderID, 10),
				Method:  req.Method,
				Amount:  req.Amount,
			}).
			SetResult(&response).
			Post(p.baseURL + "/payment/charge")
		if httpErr != nil {
			return nil, httpErr
		}
		if resp.StatusCode() != http.StatusOK {
			return nil, fmt.Errorf("payment service returned status %d: %s", resp.StatusCode(), resp.String())
		}
		return &response, nil
	})
	if err != nil {
		return PaymentResult{}, formatBreakerError(p.breaker.name, err)
	}

	response := out.(*chargeResponse)
	if response.Status != PaymentStatusCompleted {
		return PaymentResult{}, fmt.Errorf("%w: %s", ErrPaymentDeclined, response.Message)
	}

	return PaymentResult{
		TransactionID: response.TransactionID,
		Method:        req.Method,
		Amount:        req.Amount,
		Status:        response.Status,
		ProcessedAt:   time.Now(),
	}, nil
}
