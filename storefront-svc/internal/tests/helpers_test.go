package tests

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"storefront/storefront-svc/internal/domain"
	"storefront/storefront-svc/internal/service"
	"storefront/storefront-svc/internal/storage"
)

const testDevice = "device-1"

func quietLogger() log.FieldLogger {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func newRedisStore(t *testing.T) (*storage.RedisStateStore, *miniredis.Miniredis) {
	t.Helper()
	client, mr := newRedis(t)
	return storage.NewRedisStateStore(client, time.Hour), mr
}

func newDeps(store service.StateStore, processor service.PaymentProcessor) service.Dependencies {
	return service.Dependencies{
		Store:      store,
		Calculator: service.NewCalculator(service.DefaultPolicy()),
		Processor:  processor,
		Logger:     quietLogger(),
		Clock:      time.Now,
	}
}

func fastProcessor() *service.SimulatedProcessor {
	return service.NewSimulatedProcessor(10*time.Millisecond, 5*time.Millisecond)
}

// staticIdentity is an IdentitySource that never touches storage.
type staticIdentity struct {
	user *domain.User
}

func (s staticIdentity) CurrentUser(ctx context.Context) (*domain.User, error) {
	return s.user, nil
}

func signedIn() staticIdentity {
	return staticIdentity{user: &domain.User{Name: "Asha", Email: "asha@example.com"}}
}

func line(id int, price float64, quantity int) domain.LineItem {
	return domain.LineItem{Dish: domain.Dish{ID: id, Name: "dish", Price: price}, Quantity: quantity}
}
