// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/bookstore-storefront/internal/config"
	"github.com/your-org/bookstore-storefront/internal/domain/cart"
	"github.com/your-org/bookstore-storefront/internal/domain/checkout"
	"github.com/your-org/bookstore-storefront/internal/interfaces/http/middleware"
)

// CheckoutHandler drives the checkout flow over the cart store
type CheckoutHandler struct {
	checkout *checkout.Service
	carts    *cart.Sessions
	config   *config.Config
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(service *checkout.Service, carts *cart.Sessions, cfg *config.Config) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: service,
		carts:    carts,
		config:   cfg,
	}
}

// Enter handles GET /checkout. An empty cart never sees the form: the
// request is redirected straight back to the cart.
func (h *CheckoutHandler) Enter(c *gin.Context) {
	sessionID := getOrCreateSessionID(c, h.config)

	if err := h.checkout.Enter(c.Request.Context(), sessionID); err != nil {
		c.Redirect(http.StatusSeeOther, "/cart")
		return
	}

	state := h.carts.Get(c.Request.Context(), sessionID).Snapshot()
	totals := state.Totals()

	c.JSON(http.StatusOK, gin.H{
		"message": "Checkout ready",
		"data": gin.H{
			"items":    state.Items,
			"subtotal": totals.Subtotal,
			"currency": h.config.Upstream.Currency,
			"required_fields": []string{
				"full_name", "email", "address", "city",
				"postal_code", "card_number", "card_expiry", "card_cvc",
			},
		},
	})
}

// Submit handles POST /checkout
func (h *CheckoutHandler) Submit(c *gin.Context) {
	sessionID := getOrCreateSessionID(c, h.config)
	session := middleware.GetSession(c)

	var req checkout.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	confirmation, err := h.checkout.Submit(c.Request.Context(), sessionID, session, &req)
	if err != nil {
		var validationErr *checkout.ValidationError
		switch {
		case errors.As(err, &validationErr):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":          "Please fill in all required fields",
				"missing_fields": validationErr.Fields,
			})
		case errors.Is(err, checkout.ErrEmptyCart):
			c.Redirect(http.StatusSeeOther, "/cart")
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Checkout failed",
			})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Order placed successfully",
		"data":     confirmation,
		"redirect": "/orders/" + confirmation.OrderID,
	})
}

// GetOrder handles GET /orders/:id, the order-confirmation view
func (h *CheckoutHandler) GetOrder(c *gin.Context) {
	sessionID := getOrCreateSessionID(c, h.config)

	confirmation, ok := h.checkout.Confirmation(c.Request.Context(), sessionID, c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Order not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order retrieved successfully",
		"data":    confirmation,
	})
}
