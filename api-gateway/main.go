package main

import (
	"net/http"
	"time"

	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"

	"storefront/api-gateway/internal/gateway"
	"storefront/config"
	"storefront/metrics"
)

const serviceName = "api-gateway"

func newServer(settings config.Settings, client gateway.HTTPClient) http.Handler {
	gw := gateway.NewGateway(gateway.Config{
		StorefrontURL: settings.StorefrontURL,
		AggregatorURL: settings.AggregatorURL,
		FrontendDir:   settings.FrontendDir,
	}, client, log.WithField("service", serviceName))

	r := gw.SetupRoutes()
	r.Use(metrics.Middleware(serviceName))

	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"X-Device-ID"},
	}).Handler(r)
}

func main() {
	settings := config.Load()
	config.ConfigureLogger(settings.LogLevel)

	handler := newServer(settings, &http.Client{Timeout: 30 * time.Second})

	log.WithField("addr", settings.GatewayAddr).Info("API Gateway starting")
	log.Fatal(http.ListenAndServe(settings.GatewayAddr, handler))
}
