package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	httpapi "storefront/storefront-svc/internal/api/http"
	"storefront/storefront-svc/internal/catalog"
	"storefront/storefront-svc/internal/domain"
	"storefront/storefront-svc/internal/mocks"
	"storefront/storefront-svc/internal/service"
	"storefront/storefront-svc/internal/storage"
)

func newTestRouter(t *testing.T) (http.Handler, *miniredis.Miniredis) {
	t.Helper()
	client, mr := newRedis(t)
	c := catalog.Default()
	handler := httpapi.NewHandler(
		c,
		service.NewRegistry(newDeps(storage.NewRedisStateStore(client, 0), fastProcessor())),
		service.NewPopularityService(storage.NewRedisPopularity(client), c),
		service.QRReceiptGenerator{BaseURL: "http://receipts.test"},
		quietLogger(),
	)
	return httpapi.NewRouter(handler), mr
}

func call(router http.Handler, method, path, device string, body interface{}) *httptest.ResponseRecorder {
	var payload bytes.Buffer
	switch v := body.(type) {
	case nil:
	case string:
		payload.WriteString(v)
	default:
		json.NewEncoder(&payload).Encode(v)
	}

	req := httptest.NewRequest(method, path, &payload)
	if device != "" {
		req.Header.Set(httpapi.DeviceHeader, device)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rr.Body).Decode(v))
}

func TestHandler_HealthCheck(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := call(router, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	var body map[string]interface{}
	decode(t, rr, &body)
	assert.Equal(t, "storefront-svc", body["service"])
	assert.Equal(t, "healthy", body["status"])
}

func TestHandler_Metrics(t *testing.T) {
	router, _ := newTestRouter(t)
	call(router, http.MethodGet, "/health", "", nil)

	rr := call(router, http.MethodGet, "/metrics", "", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "http_requests_total")
}

func TestHandler_DeviceID(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		name       string
		device     string
		wantStatus int
		wantEcho   string
	}{
		{name: "issued when missing", wantStatus: http.StatusOK},
		{name: "echoed when present", device: "my-phone_1", wantStatus: http.StatusOK, wantEcho: "my-phone_1"},
		{name: "rejected when malformed", device: "bad id!", wantStatus: http.StatusBadRequest},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			rr := call(router, http.MethodGet, "/api/cart", testCase.device, nil)

			assert.Equal(t, testCase.wantStatus, rr.Code)
			if testCase.wantStatus != http.StatusOK {
				return
			}
			echoed := rr.Header().Get(httpapi.DeviceHeader)
			assert.NotEmpty(t, echoed)
			if testCase.wantEcho != "" {
				assert.Equal(t, testCase.wantEcho, echoed)
			}
		})
	}
}

func TestHandler_Catalog(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		check      func(t *testing.T, rr *httptest.ResponseRecorder)
	}{
		{
			name:       "search by category",
			path:       "/api/catalog/restaurants?category=Seafood",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, rr *httptest.ResponseRecorder) {
				var restaurants []domain.Restaurant
				decode(t, rr, &restaurants)
				require.Len(t, restaurants, 1)
				assert.Equal(t, "Ocean Delights", restaurants[0].Name)
			},
		},
		{
			name:       "search with no match",
			path:       "/api/catalog/restaurants?q=zzz",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, rr *httptest.ResponseRecorder) {
				assert.JSONEq(t, `[]`, rr.Body.String())
			},
		},
		{name: "restaurant", path: "/api/catalog/restaurants/2", wantStatus: http.StatusOK},
		{name: "restaurant invalid id", path: "/api/catalog/restaurants/abc", wantStatus: http.StatusBadRequest},
		{name: "restaurant missing", path: "/api/catalog/restaurants/99", wantStatus: http.StatusNotFound},
		{
			name:       "dish",
			path:       "/api/catalog/dishes/13",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, rr *httptest.ResponseRecorder) {
				var body struct {
					Dish           domain.Dish `json:"dish"`
					RestaurantName string      `json:"restaurant_name"`
				}
				decode(t, rr, &body)
				assert.Equal(t, "Salmon Teriyaki", body.Dish.Name)
				assert.Equal(t, "Ocean Delights", body.RestaurantName)
			},
		},
		{name: "dish missing", path: "/api/catalog/dishes/404", wantStatus: http.StatusNotFound},
		{
			name:       "categories",
			path:       "/api/catalog/categories",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, rr *httptest.ResponseRecorder) {
				var categories []string
				decode(t, rr, &categories)
				assert.Equal(t, "All", categories[0])
				assert.Len(t, categories, 7)
			},
		},
		{name: "popular invalid limit", path: "/api/catalog/popular?limit=-1", wantStatus: http.StatusBadRequest},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			rr := call(router, http.MethodGet, testCase.path, testDevice, nil)

			assert.Equal(t, testCase.wantStatus, rr.Code)
			if testCase.check != nil {
				testCase.check(t, rr)
			}
		})
	}
}

func TestHandler_PopularDishes(t *testing.T) {
	router, mr := newTestRouter(t)
	_, err := mr.ZAdd(storage.PopularityKey, 3, "4")
	require.NoError(t, err)
	_, err = mr.ZAdd(storage.PopularityKey, 8, "17")
	require.NoError(t, err)

	rr := call(router, http.MethodGet, "/api/catalog/popular?limit=2", testDevice, nil)

	require.Equal(t, http.StatusOK, rr.Code)
	var top []domain.DishPopularity
	decode(t, rr, &top)
	assert.Equal(t, []domain.DishPopularity{
		{DishID: 17, DishName: "Tiramisu", Score: 8},
		{DishID: 4, DishName: "Chicken Tikka Masala", Score: 3},
	}, top)
}

func TestHandler_PopularDishesWithoutReader(t *testing.T) {
	client, _ := newRedis(t)
	handler := httpapi.NewHandler(
		catalog.Default(),
		service.NewRegistry(newDeps(storage.NewRedisStateStore(client, 0), fastProcessor())),
		nil,
		mocks.NewReceiptGenerator(t),
		quietLogger(),
	)

	rr := call(httpapi.NewRouter(handler), http.MethodGet, "/api/catalog/popular", testDevice, nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestHandler_CartRequiresLogin(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := call(router, http.MethodPost, "/api/cart/items", testDevice, map[string]int{"dish_id": 1})

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	var body map[string]string
	decode(t, rr, &body)
	assert.Equal(t, "/login", body["redirect"])
}

func TestHandler_BadRequests(t *testing.T) {
	router, _ := newTestRouter(t)
	call(router, http.MethodPost, "/api/auth/login", testDevice, map[string]string{"name": "Asha", "email": "asha@example.com"})

	tests := []struct {
		name       string
		method     string
		path       string
		body       interface{}
		wantStatus int
	}{
		{name: "login bad json", method: http.MethodPost, path: "/api/auth/login", body: "{", wantStatus: http.StatusBadRequest},
		{name: "login without email", method: http.MethodPost, path: "/api/auth/login", body: map[string]string{"name": "x"}, wantStatus: http.StatusBadRequest},
		{name: "add bad json", method: http.MethodPost, path: "/api/cart/items", body: "nope", wantStatus: http.StatusBadRequest},
		{name: "add unknown dish", method: http.MethodPost, path: "/api/cart/items", body: map[string]int{"dish_id": 404}, wantStatus: http.StatusNotFound},
		{name: "update invalid id", method: http.MethodPut, path: "/api/cart/items/x", body: map[string]int{"quantity": 1}, wantStatus: http.StatusBadRequest},
		{name: "pay bad json", method: http.MethodPost, path: "/api/checkout/pay", body: "[", wantStatus: http.StatusBadRequest},
		{name: "order invalid id", method: http.MethodGet, path: "/api/orders/abc", wantStatus: http.StatusBadRequest},
		{name: "order missing", method: http.MethodGet, path: "/api/orders/12345", wantStatus: http.StatusNotFound},
		{name: "receipt missing", method: http.MethodGet, path: "/api/orders/12345/qrcode", wantStatus: http.StatusNotFound},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			rr := call(router, testCase.method, testCase.path, testDevice, testCase.body)

			assert.Equal(t, testCase.wantStatus, rr.Code)
		})
	}
}

func TestHandler_CheckoutPreconditions(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := call(router, http.MethodPost, "/api/checkout/pay", testDevice, map[string]string{"payment_method": "card"})
	assert.Equal(t, http.StatusConflict, rr.Code)
	var body map[string]string
	decode(t, rr, &body)
	assert.Equal(t, "/login", body["redirect"])

	call(router, http.MethodPost, "/api/auth/login", testDevice, map[string]string{"name": "Asha", "email": "asha@example.com"})

	rr = call(router, http.MethodPost, "/api/checkout/pay", testDevice, map[string]string{"payment_method": "card"})
	assert.Equal(t, http.StatusConflict, rr.Code)
	decode(t, rr, &body)
	assert.Equal(t, "/cart", body["redirect"])
	assert.Equal(t, "empty_cart", body["error"])

	call(router, http.MethodPost, "/api/cart/items", testDevice, map[string]int{"dish_id": 1})
	rr = call(router, http.MethodPost, "/api/checkout/pay", testDevice, map[string]string{"payment_method": "cash"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_CheckoutFlow(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := call(router, http.MethodPost, "/api/auth/login", testDevice, map[string]string{"name": "Asha", "email": "asha@example.com"})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = call(router, http.MethodGet, "/api/auth/me", testDevice, nil)
	var me struct {
		Authenticated bool         `json:"authenticated"`
		User          *domain.User `json:"user"`
	}
	decode(t, rr, &me)
	assert.True(t, me.Authenticated)
	assert.Equal(t, "Asha", me.User.Name)

	rr = call(router, http.MethodPost, "/api/cart/items", testDevice, map[string]int{"dish_id": 1, "quantity": 2})
	require.Equal(t, http.StatusOK, rr.Code)
	rr = call(router, http.MethodPost, "/api/cart/items", testDevice, map[string]int{"dish_id": 16})
	require.Equal(t, http.StatusOK, rr.Code)
	rr = call(router, http.MethodPut, "/api/cart/items/16", testDevice, map[string]int{"quantity": 0})
	require.Equal(t, http.StatusOK, rr.Code)

	var cart struct {
		Items         []domain.LineItem `json:"items"`
		Count         int               `json:"count"`
		Total         float64           `json:"total"`
		Breakdown     domain.Breakdown  `json:"breakdown"`
		Authenticated bool              `json:"authenticated"`
	}
	decode(t, rr, &cart)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Count)
	assert.Equal(t, 37.98, cart.Total)
	assert.Equal(t, 3.99, cart.Breakdown.DeliveryFee)
	assert.True(t, cart.Authenticated)

	rr = call(router, http.MethodPost, "/api/checkout/pay", testDevice, map[string]string{"payment_method": "card"})
	require.Equal(t, http.StatusOK, rr.Code)
	var nav service.Navigation
	decode(t, rr, &nav)
	assert.Equal(t, service.RedirectConfirmation, nav.Redirect)
	require.NotNil(t, nav.Order)
	// 37.98 + 3.0384 tax + 3.99 delivery.
	assert.Equal(t, 45.01, nav.Order.Total)

	rr = call(router, http.MethodGet, "/api/checkout/status", testDevice, nil)
	var status service.CheckoutStatus
	decode(t, rr, &status)
	assert.Equal(t, service.StateSucceeded, status.State)
	assert.Equal(t, nav.Order.ID, status.OrderID)

	rr = call(router, http.MethodPost, "/api/checkout/confirm", testDevice, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var confirmed struct {
		Order domain.Order `json:"order"`
	}
	decode(t, rr, &confirmed)
	assert.Equal(t, nav.Order.ID, confirmed.Order.ID)

	rr = call(router, http.MethodGet, "/api/orders", testDevice, nil)
	var orders []domain.Order
	decode(t, rr, &orders)
	require.Len(t, orders, 1)

	rr = call(router, http.MethodGet, fmt.Sprintf("/api/orders/%d", nav.Order.ID), testDevice, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = call(router, http.MethodGet, fmt.Sprintf("/api/orders/%d/qrcode", nav.Order.ID), testDevice, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("\x89PNG")))

	rr = call(router, http.MethodGet, "/api/cart", testDevice, nil)
	decode(t, rr, &cart)
	assert.Empty(t, cart.Items)

	rr = call(router, http.MethodPost, "/api/checkout/confirm", testDevice, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	decode(t, rr, &nav)
	assert.Equal(t, service.RedirectDashboard, nav.Redirect)

	rr = call(router, http.MethodDelete, "/api/orders", testDevice, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = call(router, http.MethodGet, "/api/orders", testDevice, nil)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestHandler_CancelWithoutPayment(t *testing.T) {
	client, _ := newRedis(t)
	handler := httpapi.NewHandler(
		catalog.Default(),
		service.NewRegistry(newDeps(storage.NewRedisStateStore(client, 0), mocks.NewPaymentProcessor(t))),
		nil,
		service.QRReceiptGenerator{BaseURL: "http://receipts.test"},
		quietLogger(),
	)
	router := httpapi.NewRouter(handler)

	call(router, http.MethodPost, "/api/auth/login", testDevice, map[string]string{"name": "Asha", "email": "asha@example.com"})
	call(router, http.MethodPost, "/api/cart/items", testDevice, map[string]int{"dish_id": 2})

	rr := call(router, http.MethodPost, "/api/checkout/cancel", testDevice, nil)
	assert.JSONEq(t, `{"cancelled":false}`, rr.Body.String())
}

func TestHandler_AsyncPay(t *testing.T) {
	client, _ := newRedis(t)
	processor := mocks.NewPaymentProcessor(t)
	release := make(chan struct{})
	processor.On("Charge", mock.Anything, mock.Anything).Return(
		func(ctx context.Context, req service.PaymentRequest) (service.PaymentResult, error) {
			select {
			case <-release:
				return service.PaymentResult{Status: service.PaymentStatusCompleted}, nil
			case <-ctx.Done():
				return service.PaymentResult{}, ctx.Err()
			}
		}).Once()
	handler := httpapi.NewHandler(
		catalog.Default(),
		service.NewRegistry(newDeps(storage.NewRedisStateStore(client, 0), processor)),
		nil,
		service.QRReceiptGenerator{BaseURL: "http://receipts.test"},
		quietLogger(),
	)
	router := httpapi.NewRouter(handler)

	call(router, http.MethodPost, "/api/auth/login", testDevice, map[string]string{"name": "Asha", "email": "asha@example.com"})
	call(router, http.MethodPost, "/api/cart/items", testDevice, map[string]int{"dish_id": 2})

	rr := call(router, http.MethodPost, "/api/checkout/pay?async=true", testDevice, map[string]string{"payment_method": "paypal"})
	require.Equal(t, http.StatusAccepted, rr.Code)

	rr = call(router, http.MethodPost, "/api/checkout/pay", testDevice, map[string]string{"payment_method": "paypal"})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = call(router, http.MethodGet, "/api/checkout/status", testDevice, nil)
	var status service.CheckoutStatus
	decode(t, rr, &status)
	assert.Equal(t, service.StateSubmitting, status.State)

	rr = call(router, http.MethodPost, "/api/checkout/cancel", testDevice, nil)
	assert.JSONEq(t, `{"cancelled":true}`, rr.Body.String())
	close(release)

	assert.Eventually(t, func() bool {
		rr := call(router, http.MethodGet, "/api/checkout/status", testDevice, nil)
		var status service.CheckoutStatus
		json.NewDecoder(rr.Body).Decode(&status)
		return status.State != service.StateSubmitting
	}, time.Second, 5*time.Millisecond)
}

func TestHandler_LogoutKeepsCart(t *testing.T) {
	router, _ := newTestRouter(t)

	call(router, http.MethodPost, "/api/auth/login", testDevice, map[string]string{"name": "Asha", "email": "asha@example.com"})
	call(router, http.MethodPost, "/api/cart/items", testDevice, map[string]int{"dish_id": 5, "quantity": 2})

	rr := call(router, http.MethodPost, "/api/auth/logout", testDevice, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = call(router, http.MethodGet, "/api/cart", testDevice, nil)
	var cart struct {
		Count         int  `json:"count"`
		Authenticated bool `json:"authenticated"`
	}
	decode(t, rr, &cart)
	assert.Equal(t, 2, cart.Count)
	assert.False(t, cart.Authenticated)

	rr = call(router, http.MethodPost, "/api/cart/items", testDevice, map[string]int{"dish_id": 5})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestHandler_HeaderlessReadsKeepRegistryEmpty(t *testing.T) {
	client, _ := newRedis(t)
	registry := service.NewRegistry(newDeps(storage.NewRedisStateStore(client, 0), fastProcessor()))
	router := httpapi.NewRouter(httpapi.NewHandler(
		catalog.Default(),
		registry,
		nil,
		service.QRReceiptGenerator{BaseURL: "http://receipts.test"},
		quietLogger(),
	))

	for i := 0; i < 1000; i++ {
		rr := call(router, http.MethodGet, "/api/cart", "", nil)
		require.Equal(t, http.StatusOK, rr.Code)
	}
	for _, path := range []string{"/api/auth/me", "/api/orders", "/api/checkout", "/api/checkout/status"} {
		rr := call(router, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, rr.Code, path)
	}
	assert.Zero(t, registry.Len())

	call(router, http.MethodPost, "/api/auth/login", testDevice, map[string]string{"name": "Asha", "email": "asha@example.com"})
	assert.Equal(t, 1, registry.Len())
}

func TestHandler_SyncPayCancelled(t *testing.T) {
	client, _ := newRedis(t)
	handler := httpapi.NewHandler(
		catalog.Default(),
		service.NewRegistry(newDeps(storage.NewRedisStateStore(client, 0), blockingProcessor(t))),
		nil,
		service.QRReceiptGenerator{BaseURL: "http://receipts.test"},
		quietLogger(),
	)
	router := httpapi.NewRouter(handler)

	call(router, http.MethodPost, "/api/auth/login", testDevice, map[string]string{"name": "Asha", "email": "asha@example.com"})
	call(router, http.MethodPost, "/api/cart/items", testDevice, map[string]int{"dish_id": 2})

	paid := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		paid <- call(router, http.MethodPost, "/api/checkout/pay", testDevice, map[string]string{"payment_method": "card"})
	}()

	assert.Eventually(t, func() bool {
		rr := call(router, http.MethodGet, "/api/checkout/status", testDevice, nil)
		var status service.CheckoutStatus
		json.NewDecoder(rr.Body).Decode(&status)
		return status.State == service.StateSubmitting
	}, time.Second, 5*time.Millisecond)

	rr := call(router, http.MethodPost, "/api/checkout/cancel", testDevice, nil)
	assert.JSONEq(t, `{"cancelled":true}`, rr.Body.String())

	select {
	case rr = <-paid:
	case <-time.After(time.Second):
		t.Fatal("pay should return once cancelled")
	}
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.JSONEq(t, `{"error":"payment cancelled"}`, rr.Body.String())

	rr = call(router, http.MethodGet, "/api/cart", testDevice, nil)
	var cart struct {
		Count int `json:"count"`
	}
	decode(t, rr, &cart)
	assert.Equal(t, 1, cart.Count)
}
