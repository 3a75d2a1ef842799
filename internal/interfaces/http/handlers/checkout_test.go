// internal/interfaces/http/handlers/checkout_test.go
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/bookstore-storefront/internal/domain/cart"
	"github.com/your-org/bookstore-storefront/internal/domain/checkout"
	"github.com/your-org/bookstore-storefront/internal/domain/payment"
	"github.com/your-org/bookstore-storefront/internal/interfaces/http/middleware"
)

func newCheckoutRouter(t *testing.T) (*gin.Engine, *cart.Sessions) {
	t.Helper()

	paymentSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(paymentSrv.Close)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := testConfig()
	cfg.Upstream.APIBaseURL = paymentSrv.URL
	cfg.Auth.TokenSecret = "test-secret-key-at-least-32-chars-long"

	carts := cart.NewSessions(nil, time.Hour, logger)
	notifier := payment.NewNotifier(cfg, logger)
	service := checkout.NewService(carts, notifier, nil, cfg, logger)
	handler := NewCheckoutHandler(service, carts, cfg)

	router := gin.New()
	router.Use(middleware.Session(cfg))
	router.GET("/checkout", handler.Enter)
	router.POST("/checkout", handler.Submit)
	router.GET("/orders/:id", handler.GetOrder)

	return router, carts
}

func validSubmitBody() gin.H {
	return gin.H{
		"full_name":   "Jordan Reader",
		"email":       "jordan@example.com",
		"address":     "1 Library Lane",
		"city":        "Booktown",
		"postal_code": "12345",
		"card_number": "4242424242424242",
		"card_expiry": "12/30",
		"card_cvc":    "123",
	}
}

func TestEnterCheckoutEmptyCartRedirects(t *testing.T) {
	t.Parallel()

	router, _ := newCheckoutRouter(t)
	w := doJSON(t, router, http.MethodGet, "/checkout", nil)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/cart", w.Header().Get("Location"))
}

func TestEnterCheckoutRendersForm(t *testing.T) {
	t.Parallel()

	router, carts := newCheckoutRouter(t)
	carts.Get(context.Background(), "sess-1").AddItem(cart.Item{ID: "b1", Price: 1250})

	w := doJSON(t, router, http.MethodGet, "/checkout", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Subtotal       int64    `json:"subtotal"`
			Currency       string   `json:"currency"`
			RequiredFields []string `json:"required_fields"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1250), resp.Data.Subtotal)
	assert.Equal(t, "USD", resp.Data.Currency)
	assert.Contains(t, resp.Data.RequiredFields, "card_number")
}

func TestSubmitCheckoutMissingFields(t *testing.T) {
	t.Parallel()

	router, carts := newCheckoutRouter(t)
	carts.Get(context.Background(), "sess-1").AddItem(cart.Item{ID: "b1", Price: 1250})

	body := validSubmitBody()
	delete(body, "email")
	body["city"] = ""

	w := doJSON(t, router, http.MethodPost, "/checkout", body)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		MissingFields []string `json:"missing_fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.ElementsMatch(t, []string{"email", "city"}, resp.MissingFields)
}

func TestSubmitCheckoutEmptyCartRedirects(t *testing.T) {
	t.Parallel()

	router, _ := newCheckoutRouter(t)
	w := doJSON(t, router, http.MethodPost, "/checkout", validSubmitBody())

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/cart", w.Header().Get("Location"))
}

func TestSubmitCheckoutAndFetchOrder(t *testing.T) {
	t.Parallel()

	router, carts := newCheckoutRouter(t)
	carts.Get(context.Background(), "sess-1").AddItemQuantity(cart.Item{ID: "b1", Title: "Dune", Price: 1250}, 2)

	w := doJSON(t, router, http.MethodPost, "/checkout", validSubmitBody())
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Data     checkout.Confirmation `json:"data"`
		Redirect string                `json:"redirect"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(2500), resp.Data.Total)
	assert.Equal(t, "/orders/"+resp.Data.OrderID, resp.Redirect)

	// The cart is empty after submission
	assert.True(t, carts.Get(context.Background(), "sess-1").Snapshot().IsEmpty())

	// The confirmation view is reachable for this session
	w = doJSON(t, router, http.MethodGet, "/orders/"+resp.Data.OrderID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/orders/some-other-id", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
