// internal/domain/checkout/service.go
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/bookstore-storefront/internal/config"
	"github.com/your-org/bookstore-storefront/internal/domain/cart"
	"github.com/your-org/bookstore-storefront/internal/domain/payment"
	"github.com/your-org/bookstore-storefront/internal/pkg/auth"
)

// ErrEmptyCart rejects checkout entry or submission with no line items.
// Handlers translate it into a redirect back to the cart.
var ErrEmptyCart = errors.New("checkout: cart is empty")

// ValidationError lists required fields that were missing on submit.
// Rejection is local; the external API is never contacted.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("checkout: missing required fields: %s", strings.Join(e.Fields, ", "))
}

// SubmitRequest is the payment form. Validation is presence-only.
type SubmitRequest struct {
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	CardNumber string `json:"card_number"`
	CardExpiry string `json:"card_expiry"`
	CardCVC    string `json:"card_cvc"`
}

// Confirmation is the order summary produced by a completed checkout:
// a locally generated order id, the line items as of submission, and the
// total computed at submit time.
type Confirmation struct {
	OrderID  string      `json:"order_id"`
	Items    []cart.Item `json:"items"`
	Total    int64       `json:"total"`
	Currency string      `json:"currency"`
	Email    string      `json:"email"`
	PlacedAt time.Time   `json:"placed_at"`
}

// Service drives the cart to payment hand-off. The cart store stays the
// single source of truth until the moment of submission: totals are
// recomputed from the live store, never from a snapshot taken when the
// checkout view was opened.
type Service struct {
	carts       *cart.Sessions
	notifier    *payment.Notifier
	redisClient *redis.Client
	config      *config.Config
	logger      *logrus.Logger

	mu     sync.Mutex
	orders map[string]*Confirmation // last confirmation per session
}

// NewService creates a checkout service
func NewService(carts *cart.Sessions, notifier *payment.Notifier, redisClient *redis.Client, cfg *config.Config, logger *logrus.Logger) *Service {
	return &Service{
		carts:       carts,
		notifier:    notifier,
		redisClient: redisClient,
		config:      cfg,
		logger:      logger,
		orders:      make(map[string]*Confirmation),
	}
}

// Enter guards checkout entry. A session with an empty cart never sees
// the checkout form; the sidebar is closed on the way in.
func (s *Service) Enter(ctx context.Context, sessionID string) error {
	store := s.carts.Get(ctx, sessionID)
	if store.Snapshot().IsEmpty() {
		return ErrEmptyCart
	}

	store.Close()
	s.carts.Persist(ctx, sessionID)
	return nil
}

// Submit completes the purchase for a session.
//
// The flow is: validate field presence, recompute the authoritative total
// from the live cart, send the payment notification best-effort, then
// clear the cart and produce the confirmation. A failed notification is
// logged and discarded; it never blocks the success path.
func (s *Service) Submit(ctx context.Context, sessionID string, session *auth.Session, req *SubmitRequest) (*Confirmation, error) {
	if missing := missingFields(req); len(missing) > 0 {
		return nil, &ValidationError{Fields: missing}
	}

	store := s.carts.Get(ctx, sessionID)
	state := store.Snapshot()
	if state.IsEmpty() {
		return nil, ErrEmptyCart
	}

	totals := state.Totals()
	confirmation := &Confirmation{
		OrderID:  uuid.New().String(),
		Items:    state.Items,
		Total:    totals.Subtotal,
		Currency: s.config.Upstream.Currency,
		Email:    req.Email,
		PlacedAt: time.Now().UTC(),
	}

	s.notifyPayment(session, confirmation)

	store.Clear()
	store.Close()
	s.carts.Persist(ctx, sessionID)

	s.rememberConfirmation(ctx, sessionID, confirmation)

	s.logger.WithFields(logrus.Fields{
		"order_id":   confirmation.OrderID,
		"total":      confirmation.Total,
		"item_count": totals.ItemCount,
	}).Info("Checkout completed")

	return confirmation, nil
}

// Confirmation returns the session's confirmation for an order id
func (s *Service) Confirmation(ctx context.Context, sessionID, orderID string) (*Confirmation, bool) {
	s.mu.Lock()
	confirmation, ok := s.orders[sessionID]
	s.mu.Unlock()

	if !ok && s.redisClient != nil {
		confirmation = s.loadConfirmation(ctx, sessionID)
		ok = confirmation != nil
	}
	if !ok || confirmation.OrderID != orderID {
		return nil, false
	}
	return confirmation, true
}

// notifyPayment sends the payment event with a caught-and-discarded
// error. The call runs under its own deadline, detached from the request
// context, so a slow endpoint cannot stall the confirmation either.
func (s *Service) notifyPayment(session *auth.Session, confirmation *Confirmation) {
	items := make([]payment.EventItem, len(confirmation.Items))
	for i, item := range confirmation.Items {
		items[i] = payment.EventItem{
			ID:       item.ID,
			Title:    item.Title,
			Price:    item.Price,
			Quantity: item.Quantity,
		}
	}

	event := &payment.Event{
		Payment: payment.EventPayment{
			OrderID:  confirmation.OrderID,
			Total:    confirmation.Total,
			Currency: confirmation.Currency,
			Items:    items,
			Metadata: map[string]string{
				"source": s.config.App.Name,
			},
		},
	}
	if session.SignedIn() {
		event.User = session.User
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Upstream.RequestTimeout)
	defer cancel()

	if err := s.notifier.Notify(ctx, event); err != nil {
		// Logged only; the confirmation has already been produced
		s.logger.WithError(err).WithField("order_id", confirmation.OrderID).Warn("Payment notification failed")
	}
}

func (s *Service) rememberConfirmation(ctx context.Context, sessionID string, confirmation *Confirmation) {
	s.mu.Lock()
	s.orders[sessionID] = confirmation
	s.mu.Unlock()

	if s.redisClient == nil {
		return
	}
	data, err := json.Marshal(confirmation)
	if err != nil {
		return
	}
	if err := s.redisClient.Set(ctx, orderKey(sessionID), data, s.config.Session.TTL).Err(); err != nil {
		s.logger.WithError(err).WithField("order_id", confirmation.OrderID).Warn("Failed to persist order confirmation")
	}
}

func (s *Service) loadConfirmation(ctx context.Context, sessionID string) *Confirmation {
	data, err := s.redisClient.Get(ctx, orderKey(sessionID)).Result()
	if err != nil {
		return nil
	}

	var confirmation Confirmation
	if err := json.Unmarshal([]byte(data), &confirmation); err != nil {
		return nil
	}

	s.mu.Lock()
	s.orders[sessionID] = &confirmation
	s.mu.Unlock()
	return &confirmation
}

func missingFields(req *SubmitRequest) []string {
	var missing []string
	require := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}

	require("full_name", req.FullName)
	require("email", req.Email)
	require("address", req.Address)
	require("city", req.City)
	require("postal_code", req.PostalCode)
	require("card_number", req.CardNumber)
	require("card_expiry", req.CardExpiry)
	require("card_cvc", req.CardCVC)
	return missing
}

func orderKey(sessionID string) string {
	return fmt.Sprintf("order:last:%s", sessionID)
}
