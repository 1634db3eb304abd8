package httpapi

import (
	"context"
	"net/http"
	"regexp"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"

	"storefront/metrics"
)

const DeviceHeader = "X-Device-ID"

var validDeviceID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

type deviceKey struct{}

// DeviceMiddleware scopes the request to the device named in X-Device-ID.
// A request without one is issued a fresh id, echoed back in the response.
func DeviceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		device := r.Header.Get(DeviceHeader)
		if device == "" {
			device = uuid.New().String()
		} else if !validDeviceID.MatchString(device) {
			writeMessage(w, http.StatusBadRequest, "Invalid device ID")
			return
		}

		w.Header().Set(DeviceHeader, device)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), deviceKey{}, device)))
	})
}

func DeviceID(ctx context.Context) string {
	device, _ := ctx.Value(deviceKey{}).(string)
	return device
}

func NewRouter(handler *Handler) http.Handler {
	r := mux.NewRouter()
	r.Use(metrics.Middleware("storefront-svc"))
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	handler.RegisterRoutes(r)

	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", DeviceHeader},
		ExposedHeaders: []string{DeviceHeader},
	}).Handler(r)
}

func StartServer(addr string, handler http.Handler) {
	log.WithField("addr", addr).Info("Storefront service starting")
	log.Fatal(http.ListenAndServe(addr, handler))
}
