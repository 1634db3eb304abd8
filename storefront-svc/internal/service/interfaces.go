package service

import (
	"context"

	"storefront/storefront-svc/internal/domain"
)

// Keys under which a device's documents are persisted.
const (
	KeyCart         = "cart"
	KeyOrderHistory = "orderHistory"
	KeyCurrentOrder = "currentOrder"
	KeyUser         = "user"
)

// StateStore keeps whole JSON documents per device namespace. Set replaces
// the document atomically. Get returns domain.ErrStateNotFound for a missing key.
type StateStore interface {
	Get(ctx context.Context, namespace, key string) ([]byte, error)
	Set(ctx context.Context, namespace, key string, value []byte) error
	Delete(ctx context.Context, namespace, key string) error
}

// IdentitySource reports the signed-in user, or nil when there is none.
type IdentitySource interface {
	CurrentUser(ctx context.Context) (*domain.User, error)
}

type PaymentProcessor interface {
	Charge(ctx context.Context, req PaymentRequest) (PaymentResult, error)
}

type OrderPublisher interface {
	PublishOrder(ctx context.Context, event domain.OrderEvent) error
}

type OrderArchive interface {
	ArchiveOrder(ctx context.Context, order *domain.Order) error
}

type ReceiptGenerator interface {
	Generate(orderID int64) ([]byte, error)
}

// PopularityReader returns dish ids ranked by ordered quantity. DishName is
// left empty; PopularityService fills it from the catalog.
type PopularityReader interface {
	TopDishes(ctx context.Context, limit int) ([]domain.DishPopularity, error)
}

var (
	_ IdentitySource   = (*IdentityService)(nil)
	_ PaymentProcessor = (*SimulatedProcessor)(nil)
	_ PaymentProcessor = (*RemoteProcessor)(nil)
	_ ReceiptGenerator = QRReceiptGenerator{}
	_ OrderPublisher   = FanoutPublisher(nil)
)
