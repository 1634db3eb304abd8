package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotAuthenticated         = errors.New("please login to add items to cart")
	ErrInvalidQuantity          = errors.New("quantity must be positive")
	ErrInvalidIdentity          = errors.New("email is required")
	ErrPaymentInProgress        = errors.New("payment already in progress")
	ErrUnsupportedPaymentMethod = errors.New("unsupported payment method")
	ErrPaymentDeclined          = errors.New("payment declined")
	ErrPaymentCancelled         = errors.New("payment cancelled")
	ErrNoPendingOrder           = errors.New("no pending order")
	ErrOrderNotFound            = errors.New("order not found")
)

// Redirect names the view a caller should move to after an operation.
type Redirect string

const (
	RedirectLogin        Redirect = "/login"
	RedirectCart         Redirect = "/cart"
	RedirectDashboard    Redirect = "/dashboard"
	RedirectConfirmation Redirect = "/order-confirmation"
)

const (
	ReasonNotSignedIn = "not_logged_in"
	ReasonEmptyCart   = "empty_cart"
)

// PreconditionError rejects a checkout before any payment starts.
type PreconditionError struct {
	Reason   string
	Redirect Redirect
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("checkout precondition failed: %s", e.Reason)
}
