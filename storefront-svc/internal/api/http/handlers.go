package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"storefront/storefront-svc/internal/catalog"
	"storefront/storefront-svc/internal/domain"
	"storefront/storefront-svc/internal/service"
)

const (
	defaultPopularLimit = 5
	maxPopularLimit     = 50
)

type PopularityService interface {
	Top(ctx context.Context, limit int) ([]domain.DishPopularity, error)
}

type Handler struct {
	Catalog    *catalog.Catalog
	Sessions   *service.Registry
	Popularity PopularityService
	Receipts   service.ReceiptGenerator
	Logger     log.FieldLogger
}

// NewHandler wires the handler. popularity may be nil, in which case the
// popular-dishes endpoint returns an empty list.
func NewHandler(c *catalog.Catalog, sessions *service.Registry, popularity PopularityService, receipts service.ReceiptGenerator, logger log.FieldLogger) *Handler {
	return &Handler{
		Catalog:    c,
		Sessions:   sessions,
		Popularity: popularity,
		Receipts:   receipts,
		Logger:     logger,
	}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.healthCheck).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(DeviceMiddleware)

	api.HandleFunc("/catalog/restaurants", h.searchRestaurants).Methods("GET")
	api.HandleFunc("/catalog/restaurants/{id}", h.getRestaurant).Methods("GET")
	api.HandleFunc("/catalog/dishes/{dishId}", h.getDish).Methods("GET")
	api.HandleFunc("/catalog/categories", h.getCategories).Methods("GET")
	api.HandleFunc("/catalog/popular", h.getPopular).Methods("GET")

	api.HandleFunc("/auth/login", h.login).Methods("POST")
	api.HandleFunc("/auth/logout", h.logout).Methods("POST")
	api.HandleFunc("/auth/me", h.me).Methods("GET")

	api.HandleFunc("/cart", h.getCart).Methods("GET")
	api.HandleFunc("/cart", h.clearCart).Methods("DELETE")
	api.HandleFunc("/cart/items", h.addCartItem).Methods("POST")
	api.HandleFunc("/cart/items/{dishId}", h.updateCartItem).Methods("PUT")
	api.HandleFunc("/cart/items/{dishId}", h.removeCartItem).Methods("DELETE")

	api.HandleFunc("/checkout", h.getCheckout).Methods("GET")
	api.HandleFunc("/checkout/pay", h.pay).Methods("POST")
	api.HandleFunc("/checkout/cancel", h.cancelPayment).Methods("POST")
	api.HandleFunc("/checkout/status", h.checkoutStatus).Methods("GET")
	api.HandleFunc("/checkout/confirm", h.confirm).Methods("POST")

	api.HandleFunc("/orders", h.getOrders).Methods("GET")
	api.HandleFunc("/orders", h.clearOrders).Methods("DELETE")
	api.HandleFunc("/orders/{id}", h.getOrder).Methods("GET")
	api.HandleFunc("/orders/{id}/qrcode", h.getOrderQRCode).Methods("GET")
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "storefront-svc",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) searchRestaurants(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, h.Catalog.Search(q.Get("category"), q.Get("q")))
}

func (h *Handler) getRestaurant(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid restaurant ID")
		return
	}

	rest, err := h.Catalog.Restaurant(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rest)
}

func (h *Handler) getDish(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["dishId"])
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid dish ID")
		return
	}

	dish, restaurant, err := h.Catalog.Dish(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"dish":            dish,
		"restaurant_name": restaurant,
	})
}

func (h *Handler) getCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Catalog.Categories())
}

func (h *Handler) getPopular(w http.ResponseWriter, r *http.Request) {
	limit := defaultPopularLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeMessage(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = min(n, maxPopularLimit)
	}

	if h.Popularity == nil {
		writeJSON(w, http.StatusOK, []domain.DishPopularity{})
		return
	}
	top, err := h.Popularity.Top(r.Context(), limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, top)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	user, err := sess.Identity.Login(r.Context(), req.Name, req.Email)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.view(w, r)
	if !ok {
		return
	}
	if err := sess.Identity.Logout(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	h.Sessions.Close(sess.Device)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.view(w, r)
	if !ok {
		return
	}
	user, err := sess.Identity.CurrentUser(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"authenticated": user != nil,
		"user":          user,
	})
}

type cartView struct {
	Items         []domain.LineItem `json:"items"`
	Count         int               `json:"count"`
	Total         float64           `json:"total"`
	Breakdown     domain.Breakdown  `json:"breakdown"`
	Authenticated bool              `json:"authenticated"`
}

func (h *Handler) writeCart(w http.ResponseWriter, r *http.Request, sess *service.Session) {
	writeJSON(w, http.StatusOK, cartView{
		Items:         sess.Cart.Items(),
		Count:         sess.Cart.Count(),
		Total:         sess.Cart.Total(),
		Breakdown:     sess.Checkout.Breakdown(),
		Authenticated: sess.Cart.IsAuthenticated(r.Context()),
	})
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.view(w, r)
	if !ok {
		return
	}
	h.writeCart(w, r, sess)
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DishID   int `json:"dish_id"`
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	dish, restaurant, err := h.Catalog.Dish(req.DishID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := sess.Cart.Add(r.Context(), dish, restaurant, req.Quantity); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeCart(w, r, sess)
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	dishID, err := strconv.Atoi(mux.Vars(r)["dishId"])
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid dish ID")
		return
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := sess.Cart.SetQuantity(r.Context(), dishID, req.Quantity); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeCart(w, r, sess)
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	dishID, err := strconv.Atoi(mux.Vars(r)["dishId"])
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid dish ID")
		return
	}

	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := sess.Cart.Remove(r.Context(), dishID); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeCart(w, r, sess)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := sess.Cart.Clear(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeCart(w, r, sess)
}

func (h *Handler) getCheckout(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.view(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items":     sess.Cart.Items(),
		"breakdown": sess.Checkout.Breakdown(),
	})
}

// pay blocks until the payment settles unless ?async=true is given, in which
// case it answers 202 and the client polls the status endpoint.
func (h *Handler) pay(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PaymentMethod string `json:"payment_method"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	sub, err := sess.Checkout.Submit(r.Context(), req.PaymentMethod)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if r.URL.Query().Get("async") == "true" {
		writeJSON(w, http.StatusAccepted, map[string]interface{}{
			"order_id": sub.OrderID,
			"amount":   sub.Amount,
			"state":    service.StateSubmitting,
		})
		return
	}

	nav, err := sub.Wait(r.Context())
	if err != nil && r.Context().Err() != nil {
		h.Logger.WithField("order_id", sub.OrderID).Debug("Client left before payment settled")
		return
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nav)
}

func (h *Handler) cancelPayment(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.view(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"cancelled": sess.Checkout.Cancel()})
}

func (h *Handler) checkoutStatus(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.view(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Checkout.Status())
}

func (h *Handler) confirm(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	order, err := sess.Checkout.Confirm(r.Context())
	if errors.Is(err, service.ErrNoPendingOrder) {
		writeJSON(w, http.StatusOK, service.Navigation{Redirect: service.RedirectDashboard})
		return
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"order": order})
}

func (h *Handler) getOrders(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.view(w, r)
	if !ok {
		return
	}
	orders, err := sess.History.All(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) clearOrders(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := sess.History.Clear(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) findOrder(w http.ResponseWriter, r *http.Request) (*domain.Order, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid order ID")
		return nil, false
	}
	sess, ok := h.view(w, r)
	if !ok {
		return nil, false
	}
	order, err := sess.History.Find(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return nil, false
	}
	return order, true
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, ok := h.findOrder(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) getOrderQRCode(w http.ResponseWriter, r *http.Request) {
	order, ok := h.findOrder(w, r)
	if !ok {
		return
	}

	png, err := h.Receipts.Generate(order.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*service.Session, bool) {
	sess, err := h.Sessions.Session(r.Context(), DeviceID(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return nil, false
	}
	return sess, true
}

// view is session for handlers that never start a payment. It does not open
// a new live session for an unknown device.
func (h *Handler) view(w http.ResponseWriter, r *http.Request) (*service.Session, bool) {
	sess, err := h.Sessions.View(r.Context(), DeviceID(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return nil, false
	}
	return sess, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var precondition *service.PreconditionError
	switch {
	case errors.As(err, &precondition):
		writeJSON(w, http.StatusConflict, map[string]string{
			"error":    precondition.Reason,
			"redirect": string(precondition.Redirect),
		})
	case errors.Is(err, service.ErrNotAuthenticated):
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"error":    err.Error(),
			"redirect": string(service.RedirectLogin),
		})
	case errors.Is(err, service.ErrPaymentInProgress):
		writeMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrPaymentCancelled):
		writeMessage(w, http.StatusConflict, service.ErrPaymentCancelled.Error())
	case errors.Is(err, catalog.ErrDishNotFound),
		errors.Is(err, catalog.ErrRestaurantNotFound),
		errors.Is(err, service.ErrOrderNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrUnsupportedPaymentMethod),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidIdentity):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrPaymentDeclined):
		writeMessage(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		writeMessage(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.Logger.WithError(err).Error("Request failed")
		writeMessage(w, http.StatusInternalServerError, err.Error())
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
