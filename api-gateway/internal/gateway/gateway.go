package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const healthTimeout = 2 * time.Second

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Config struct {
	StorefrontURL string
	AggregatorURL string
	FrontendDir   string
}

// Gateway fronts the storefront API and serves the single-page client.
type Gateway struct {
	config Config
	client HTTPClient
	logger log.FieldLogger
}

func NewGateway(config Config, client HTTPClient, logger log.FieldLogger) *Gateway {
	return &Gateway{
		config: config,
		client: client,
		logger: logger,
	}
}

// HealthCheck reports "degraded" when any upstream fails its own health check.
func (g *Gateway) HealthCheck(w http.ResponseWriter, r *http.Request) {
	upstreams := map[string]string{
		"storefront-svc": g.upstreamStatus(r.Context(), g.config.StorefrontURL),
		"agg-svc":        g.upstreamStatus(r.Context(), g.config.AggregatorURL),
	}

	status := "healthy"
	for _, s := range upstreams {
		if s != "healthy" {
			status = "degraded"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    status,
		"service":   "api-gateway",
		"upstreams": upstreams,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (g *Gateway) upstreamStatus(ctx context.Context, baseURL string) string {
	if baseURL == "" {
		return "unconfigured"
	}

	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return "unreachable"
	}
	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.WithError(err).WithField("upstream", baseURL).Warn("Upstream health check failed")
		return "unreachable"
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "unhealthy"
	}
	return "healthy"
}

func (g *Gateway) ProxyRequest(w http.ResponseWriter, r *http.Request, targetURL string) {
	g.logger.WithFields(log.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"target": targetURL,
	}).Debug("Proxying request")

	url := targetURL + r.URL.Path
	if r.URL.RawQuery != "" {
		url += "?" + r.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, url, r.Body)
	if err != nil {
		g.logger.WithError(err).Error("Failed to create request")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	for k, v := range r.Header {
		req.Header[k] = v
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.WithError(err).WithField("target", targetURL).Error("Failed to proxy")
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	for k, v := range resp.Header {
		w.Header()[k] = v
	}
	w.WriteHeader(resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		g.logger.WithError(err).Warn("Failed to copy response")
	}
}

func (g *Gateway) APIHandler(w http.ResponseWriter, r *http.Request) {
	g.ProxyRequest(w, r, g.config.StorefrontURL)
}

// ClientHandler serves files from the frontend directory. Client-side routes
// such as /cart or /restaurant/3 fall back to index.html.
func (g *Gateway) ClientHandler(w http.ResponseWriter, r *http.Request) {
	clean := filepath.Clean("/" + strings.TrimPrefix(r.URL.Path, "/"))
	path := filepath.Join(g.config.FrontendDir, clean)
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		http.ServeFile(w, r, path)
		return
	}
	http.ServeFile(w, r, filepath.Join(g.config.FrontendDir, "index.html"))
}

func (g *Gateway) SetupRoutes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", g.HealthCheck).Methods("GET")
	r.PathPrefix("/api/").HandlerFunc(g.APIHandler)
	r.PathPrefix("/").HandlerFunc(g.ClientHandler).Methods("GET")
	return r
}
