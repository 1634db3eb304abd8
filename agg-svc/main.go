package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"storefront/agg-svc/internal/service"
	"storefront/agg-svc/internal/storage"
	"storefront/config"
	"storefront/metrics"
)

const serviceName = "agg-svc"

func newMetricsRouter() *mux.Router {
	r := mux.NewRouter()
	r.Use(metrics.Middleware(serviceName))
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status":    "healthy",
			"service":   serviceName,
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}).Methods("GET")
	return r
}

func main() {
	settings := config.Load()
	config.ConfigureLogger(settings.LogLevel)
	logger := log.WithField("service", serviceName)

	if settings.KafkaBroker == "" {
		log.Fatal("KAFKA_BROKER is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := config.MustInitRedis()
	defer rdb.Close()

	reader := config.NewKafkaReader(settings.KafkaBroker, settings.KafkaOrdersTopic, settings.KafkaGroupID)
	defer reader.Close()

	consumer := service.NewConsumer(reader, storage.NewRedisStore(rdb), logger)

	if settings.PostgresEnabled {
		db := config.MustInitPostgres()
		defer db.Close()
		counter := storage.NewPostgresCounter(db)
		if err := counter.EnsureSchema(ctx); err != nil {
			log.Fatal("Failed to prepare dish counts: ", err)
		}
		consumer.Counter = counter
	}

	go func() {
		logger.WithField("addr", settings.MetricsAddr).Info("Metrics listening")
		if err := http.ListenAndServe(settings.MetricsAddr, newMetricsRouter()); err != nil {
			logger.WithError(err).Error("Metrics server stopped")
		}
	}()

	consumer.Start(ctx)
}
