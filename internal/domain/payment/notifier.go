// internal/domain/payment/notifier.go
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/your-org/bookstore-storefront/internal/config"
	"github.com/your-org/bookstore-storefront/internal/pkg/auth"
)

// EventItem is one order line in a payment notification
type EventItem struct {
	ID       string `json:"id"`
	Title    string `json:"title,omitempty"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

// Event is the payload posted to the external payment endpoint
type Event struct {
	Payment EventPayment `json:"payment"`
	User    *auth.User   `json:"user,omitempty"`
}

// EventPayment carries the order summary portion of the event
type EventPayment struct {
	OrderID  string            `json:"orderId"`
	Total    int64             `json:"total"`
	Currency string            `json:"currency"`
	Items    []EventItem       `json:"items"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Notifier posts payment events to the external endpoint. The call is
// best-effort: the response is drained and ignored, and a failure never
// alters the outcome of the checkout that triggered it.
type Notifier struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewNotifier creates a payment notifier against the configured API base
func NewNotifier(cfg *config.Config, logger *logrus.Logger) *Notifier {
	return &Notifier{
		baseURL: cfg.GetAPIBaseURL(),
		httpClient: &http.Client{
			Timeout: cfg.Upstream.RequestTimeout,
		},
		logger: logger,
	}
}

// Notify sends the payment event. The returned error exists for logging
// only; callers are expected to discard it.
func (n *Notifier) Notify(ctx context.Context, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode payment event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/payments", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("payment notification failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("payment notification rejected: status %d", resp.StatusCode)
	}

	n.logger.WithField("order_id", event.Payment.OrderID).Debug("Payment event delivered")
	return nil
}
