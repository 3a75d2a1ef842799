// internal/domain/checkout/service_test.go
package checkout

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/bookstore-storefront/internal/config"
	"github.com/your-org/bookstore-storefront/internal/domain/cart"
	"github.com/your-org/bookstore-storefront/internal/domain/payment"
	"github.com/your-org/bookstore-storefront/internal/pkg/auth"
)

type fixture struct {
	service *Service
	carts   *cart.Sessions
	redis   *miniredis.Miniredis
}

func newFixture(t *testing.T, paymentHandler http.Handler) *fixture {
	t.Helper()

	srv := httptest.NewServer(paymentHandler)
	t.Cleanup(srv.Close)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := &config.Config{
		App: config.AppConfig{Name: "Bookstore Storefront"},
		Upstream: config.UpstreamConfig{
			APIBaseURL:     srv.URL,
			RequestTimeout: 5 * time.Second,
			Currency:       "USD",
		},
		Session: config.SessionConfig{TTL: time.Hour},
	}

	carts := cart.NewSessions(client, time.Hour, logger)
	notifier := payment.NewNotifier(cfg, logger)

	return &fixture{
		service: NewService(carts, notifier, client, cfg, logger),
		carts:   carts,
		redis:   mr,
	}
}

func acceptPayments() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
}

func validSubmit() *SubmitRequest {
	return &SubmitRequest{
		FullName:   "Jordan Reader",
		Email:      "jordan@example.com",
		Address:    "1 Library Lane",
		City:       "Booktown",
		PostalCode: "12345",
		CardNumber: "4242424242424242",
		CardExpiry: "12/30",
		CardCVC:    "123",
	}
}

func seedCart(t *testing.T, f *fixture, sessionID string) {
	t.Helper()

	store := f.carts.Get(context.Background(), sessionID)
	store.AddItemQuantity(cart.Item{ID: "b1", Title: "Dune", Price: 1250}, 2)
	store.AddItem(cart.Item{ID: "b2", Title: "Hyperion", Price: 900})
}

func TestEnter(t *testing.T) {
	t.Parallel()

	t.Run("empty cart is rejected", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, acceptPayments())
		err := f.service.Enter(context.Background(), "sess-1")
		assert.ErrorIs(t, err, ErrEmptyCart)
	})

	t.Run("closes the sidebar on entry", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, acceptPayments())
		seedCart(t, f, "sess-1")
		f.carts.Get(context.Background(), "sess-1").Toggle()

		require.NoError(t, f.service.Enter(context.Background(), "sess-1"))
		assert.False(t, f.carts.Get(context.Background(), "sess-1").Snapshot().IsOpen)
	})
}

func TestSubmitValidation(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	seedCart(t, f, "sess-1")

	req := validSubmit()
	req.Email = ""
	req.CardCVC = "   "

	_, err := f.service.Submit(context.Background(), "sess-1", auth.Anonymous(), req)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, []string{"email", "card_cvc"}, validationErr.Fields)

	// Rejection is local: no notification, cart untouched
	assert.Zero(t, calls.Load())
	assert.False(t, f.carts.Get(context.Background(), "sess-1").Snapshot().IsEmpty())
}

func TestSubmitEmptyCart(t *testing.T) {
	t.Parallel()

	f := newFixture(t, acceptPayments())
	_, err := f.service.Submit(context.Background(), "sess-1", auth.Anonymous(), validSubmit())
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestSubmitSuccess(t *testing.T) {
	t.Parallel()

	events := make(chan payment.Event, 1)
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/payments", r.URL.Path)

		var event payment.Event
		require.NoError(t, json.NewDecoder(r.Body).Decode(&event))
		events <- event
		w.WriteHeader(http.StatusCreated)
	}))
	seedCart(t, f, "sess-1")

	session := &auth.Session{User: &auth.User{ID: "u1", Email: "u1@example.com"}, Token: "t"}
	confirmation, err := f.service.Submit(context.Background(), "sess-1", session, validSubmit())
	require.NoError(t, err)

	assert.NotEmpty(t, confirmation.OrderID)
	assert.Equal(t, int64(2*1250+900), confirmation.Total)
	assert.Equal(t, "USD", confirmation.Currency)
	assert.Len(t, confirmation.Items, 2)
	assert.Equal(t, "jordan@example.com", confirmation.Email)

	// The cart is cleared and closed after the hand-off
	state := f.carts.Get(context.Background(), "sess-1").Snapshot()
	assert.True(t, state.IsEmpty())
	assert.False(t, state.IsOpen)

	event := <-events
	assert.Equal(t, confirmation.OrderID, event.Payment.OrderID)
	assert.Equal(t, confirmation.Total, event.Payment.Total)
	require.NotNil(t, event.User)
	assert.Equal(t, "u1", event.User.ID)
}

func TestSubmitTotalRecomputedAtSubmitTime(t *testing.T) {
	t.Parallel()

	f := newFixture(t, acceptPayments())
	seedCart(t, f, "sess-1")
	require.NoError(t, f.service.Enter(context.Background(), "sess-1"))

	// The cart changes between opening checkout and submitting
	f.carts.Get(context.Background(), "sess-1").UpdateQuantity("b1", 5)

	confirmation, err := f.service.Submit(context.Background(), "sess-1", auth.Anonymous(), validSubmit())
	require.NoError(t, err)
	assert.Equal(t, int64(5*1250+900), confirmation.Total)
}

func TestSubmitSurvivesNotificationFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	seedCart(t, f, "sess-1")

	confirmation, err := f.service.Submit(context.Background(), "sess-1", auth.Anonymous(), validSubmit())
	require.NoError(t, err, "a failed notification must not fail the checkout")
	assert.NotEmpty(t, confirmation.OrderID)
	assert.True(t, f.carts.Get(context.Background(), "sess-1").Snapshot().IsEmpty())
}

func TestSubmitAnonymousOmitsUser(t *testing.T) {
	t.Parallel()

	events := make(chan payment.Event, 1)
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var event payment.Event
		require.NoError(t, json.NewDecoder(r.Body).Decode(&event))
		events <- event
	}))
	seedCart(t, f, "sess-1")

	_, err := f.service.Submit(context.Background(), "sess-1", auth.Anonymous(), validSubmit())
	require.NoError(t, err)
	assert.Nil(t, (<-events).User)
}

func TestConfirmationLookup(t *testing.T) {
	t.Parallel()

	f := newFixture(t, acceptPayments())
	seedCart(t, f, "sess-1")

	confirmation, err := f.service.Submit(context.Background(), "sess-1", auth.Anonymous(), validSubmit())
	require.NoError(t, err)

	got, ok := f.service.Confirmation(context.Background(), "sess-1", confirmation.OrderID)
	require.True(t, ok)
	assert.Equal(t, confirmation.OrderID, got.OrderID)

	// Wrong order id or wrong session finds nothing
	_, ok = f.service.Confirmation(context.Background(), "sess-1", "other-order")
	assert.False(t, ok)
	_, ok = f.service.Confirmation(context.Background(), "sess-2", confirmation.OrderID)
	assert.False(t, ok)
}

func TestConfirmationRehydratesFromRedis(t *testing.T) {
	t.Parallel()

	f := newFixture(t, acceptPayments())
	seedCart(t, f, "sess-1")

	confirmation, err := f.service.Submit(context.Background(), "sess-1", auth.Anonymous(), validSubmit())
	require.NoError(t, err)

	// Simulate a restart by dropping the in-memory confirmation
	f.service.mu.Lock()
	delete(f.service.orders, "sess-1")
	f.service.mu.Unlock()

	got, ok := f.service.Confirmation(context.Background(), "sess-1", confirmation.OrderID)
	require.True(t, ok)
	assert.Equal(t, confirmation.Total, got.Total)
}
