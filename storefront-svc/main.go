package main

import (
	"context"
	"database/sql"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"storefront/config"
	httpapi "storefront/storefront-svc/internal/api/http"
	"storefront/storefront-svc/internal/catalog"
	"storefront/storefront-svc/internal/service"
	"storefront/storefront-svc/internal/storage"
)

const (
	serviceName    = "storefront-svc"
	gatewayTimeout = 10 * time.Second
)

func newPolicy(s config.Settings) service.Policy {
	return service.Policy{
		TaxRate:               s.TaxRate,
		DeliveryFee:           s.DeliveryFee,
		FreeDeliveryThreshold: s.FreeDeliveryThreshold,
	}
}

// newProcessor prefers the external gateway when one is configured.
func newProcessor(s config.Settings) service.PaymentProcessor {
	if s.PaymentGatewayURL != "" {
		return service.NewRemoteProcessor(s.PaymentGatewayURL, gatewayTimeout, service.NewCircuitBreaker("Payment", serviceName))
	}
	return service.NewSimulatedProcessor(s.CardPaymentDelay, s.PayPalPaymentDelay)
}

func newStateStore(ctx context.Context, s config.Settings, rdb *redis.Client, db *sql.DB) (service.StateStore, error) {
	if s.StateBackend == "postgres" {
		store := storage.NewPostgresStateStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return store, nil
	}
	// Order history is append-only and never expires.
	return storage.NewRedisStateStore(rdb, s.StateTTL, service.KeyOrderHistory), nil
}

func newHandler(s config.Settings, deps service.Dependencies, rdb *redis.Client) *httpapi.Handler {
	c := catalog.Default()
	sessions := service.NewRegistry(deps)
	if s.SessionIdle > 0 {
		sessions.IdleTimeout = s.SessionIdle
	}
	return httpapi.NewHandler(
		c,
		sessions,
		service.NewPopularityService(storage.NewRedisPopularity(rdb), c),
		service.QRReceiptGenerator{BaseURL: s.ReceiptBaseURL},
		deps.Logger,
	)
}

func main() {
	settings := config.Load()
	config.ConfigureLogger(settings.LogLevel)
	logger := log.WithField("service", serviceName)
	ctx := context.Background()

	rdb := config.MustInitRedis()
	defer rdb.Close()

	var db *sql.DB
	if settings.PostgresEnabled || settings.StateBackend == "postgres" {
		db = config.MustInitPostgres()
		defer db.Close()
	}

	store, err := newStateStore(ctx, settings, rdb, db)
	if err != nil {
		log.Fatal("Failed to prepare state store: ", err)
	}

	deps := service.Dependencies{
		Store:      store,
		Calculator: service.NewCalculator(newPolicy(settings)),
		Processor:  newProcessor(settings),
		Logger:     logger,
		Clock:      time.Now,
	}

	if db != nil {
		archive := storage.NewPostgresOrderArchive(db)
		if err := archive.EnsureSchema(ctx); err != nil {
			log.Fatal("Failed to prepare order archive: ", err)
		}
		deps.Archive = archive
	}

	var publishers service.FanoutPublisher
	if settings.KafkaBroker != "" {
		writer := config.NewKafkaWriter(settings.KafkaBroker, settings.KafkaOrdersTopic)
		defer writer.Close()
		publishers = append(publishers, storage.NewKafkaPublisher(writer))
	}
	if settings.AMQPURL != "" {
		conn := config.MustDialRabbit(settings.AMQPURL)
		defer conn.Close()
		ch, err := conn.Channel()
		if err != nil {
			log.Fatal("Failed to open RabbitMQ channel: ", err)
		}
		defer ch.Close()
		rabbit, err := storage.NewRabbitPublisher(ch)
		if err != nil {
			log.Fatal("Failed to prepare RabbitMQ publisher: ", err)
		}
		publishers = append(publishers, rabbit)
	}
	if len(publishers) > 0 {
		deps.Publisher = publishers
	}

	logger.WithFields(log.Fields{
		"state_backend": settings.StateBackend,
		"archive":       deps.Archive != nil,
		"publishers":    len(publishers),
		"gateway":       settings.PaymentGatewayURL != "",
	}).Info("Dependencies ready")

	handler := newHandler(settings, deps, rdb)
	go handler.Sessions.Run(ctx, handler.Sessions.IdleTimeout/2)

	httpapi.StartServer(settings.HTTPAddr, httpapi.NewRouter(handler))
}
