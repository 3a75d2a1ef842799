// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/your-org/bookstore-storefront/internal/config"
	"github.com/your-org/bookstore-storefront/internal/domain/cart"
	"github.com/your-org/bookstore-storefront/internal/domain/catalog"
)

// clearConfirmTTL bounds how long a pending clear-cart confirmation stays
// valid before the destructive action must be re-requested.
const clearConfirmTTL = 2 * time.Minute

// CartHandler renders the cart sidebar and turns user gestures into store
// transitions. It holds no copy of cart state: every response is built
// from a fresh store snapshot.
type CartHandler struct {
	carts  *cart.Sessions
	config *config.Config

	mu       sync.Mutex
	confirms map[string]clearConfirm // pending clear confirmations per session
}

type clearConfirm struct {
	token     string
	expiresAt time.Time
}

// NewCartHandler creates a new cart handler
func NewCartHandler(carts *cart.Sessions, cfg *config.Config) *CartHandler {
	return &CartHandler{
		carts:    carts,
		config:   cfg,
		confirms: make(map[string]clearConfirm),
	}
}

// CartLineView is one rendered sidebar line. CanDecrement mirrors the
// store's rejection of quantities below one, so the view can disable the
// control rather than silently ignore the click.
type CartLineView struct {
	cart.Item
	LineTotal    int64 `json:"line_total"`
	CanDecrement bool  `json:"can_decrement"`
}

// CartView is the sidebar view model
type CartView struct {
	Items           []CartLineView `json:"items"`
	Totals          cart.Totals    `json:"totals"`
	IsOpen          bool           `json:"is_open"`
	CheckoutEnabled bool           `json:"checkout_enabled"`
}

// AddItemRequest is the payload for adding a book to the cart
type AddItemRequest struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	ImageURL string        `json:"image_url"`
	Price    catalog.Price `json:"price"`
	Quantity int           `json:"quantity"`
}

// UpdateQuantityRequest is the payload for setting a line item quantity
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// ClearConfirmRequest carries the token issued by RequestClear
type ClearConfirmRequest struct {
	ConfirmToken string `json:"confirm_token" binding:"required"`
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	sessionID := getOrCreateSessionID(c, h.config)
	store := h.carts.Get(c.Request.Context(), sessionID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart retrieved successfully",
		"data":    buildCartView(store.Snapshot()),
	})
}

// AddItem handles POST /cart/items. A payload without an id is a silent
// no-op (the store guarantees it), so the response is still the current
// cart rather than an error.
func (h *CartHandler) AddItem(c *gin.Context) {
	sessionID := getOrCreateSessionID(c, h.config)
	store := h.carts.Get(c.Request.Context(), sessionID)

	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	item := cart.Item{
		ID:       req.ID,
		Title:    req.Title,
		ImageURL: req.ImageURL,
		Price:    req.Price.Cents(),
	}

	// An omitted quantity means one unit; anything below one falls through
	// to the store's no-op rule rather than being coerced upward.
	delta := req.Quantity
	if delta == 0 {
		delta = 1
	}
	store.AddItemQuantity(item, delta)
	h.carts.Persist(c.Request.Context(), sessionID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Item added to cart",
		"data":    buildCartView(store.Snapshot()),
	})
}

// UpdateQuantity handles PUT /cart/items/:id. Quantities below one are
// rejected without touching the store; removal is a separate gesture.
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	sessionID := getOrCreateSessionID(c, h.config)
	store := h.carts.Get(c.Request.Context(), sessionID)

	var req UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	if req.Quantity < 1 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "Quantity must be at least 1",
			"notice": "Use remove to delete an item from the cart",
			"data":   buildCartView(store.Snapshot()),
		})
		return
	}

	store.UpdateQuantity(c.Param("id"), req.Quantity)
	h.carts.Persist(c.Request.Context(), sessionID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart item updated",
		"data":    buildCartView(store.Snapshot()),
	})
}

// RemoveItem handles DELETE /cart/items/:id
func (h *CartHandler) RemoveItem(c *gin.Context) {
	sessionID := getOrCreateSessionID(c, h.config)
	store := h.carts.Get(c.Request.Context(), sessionID)

	store.RemoveItem(c.Param("id"))
	h.carts.Persist(c.Request.Context(), sessionID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Item removed from cart",
		"data":    buildCartView(store.Snapshot()),
	})
}

// RequestClear handles POST /cart/clear. Clearing is destructive, so the
// first request only issues a short-lived confirmation token; nothing is
// cleared until the token comes back.
func (h *CartHandler) RequestClear(c *gin.Context) {
	sessionID := getOrCreateSessionID(c, h.config)
	token := uuid.New().String()
	now := time.Now()

	h.mu.Lock()
	// Expired confirmations are dead weight; drop them while we hold the lock
	for id, pending := range h.confirms {
		if now.After(pending.expiresAt) {
			delete(h.confirms, id)
		}
	}
	h.confirms[sessionID] = clearConfirm{
		token:     token,
		expiresAt: now.Add(clearConfirmTTL),
	}
	h.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"message":       "Confirm to clear the cart",
		"confirm_token": token,
	})
}

// ConfirmClear handles POST /cart/clear/confirm
func (h *CartHandler) ConfirmClear(c *gin.Context) {
	sessionID := getOrCreateSessionID(c, h.config)
	store := h.carts.Get(c.Request.Context(), sessionID)

	var req ClearConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	h.mu.Lock()
	pending, ok := h.confirms[sessionID]
	if ok {
		delete(h.confirms, sessionID)
	}
	h.mu.Unlock()

	if !ok || pending.token != req.ConfirmToken || time.Now().After(pending.expiresAt) {
		c.JSON(http.StatusConflict, gin.H{
			"error":  "Clear cart was not confirmed",
			"notice": "Request a new confirmation and try again",
		})
		return
	}

	store.Clear()
	h.carts.Persist(c.Request.Context(), sessionID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared",
		"data":    buildCartView(store.Snapshot()),
	})
}

// Toggle handles POST /cart/toggle
func (h *CartHandler) Toggle(c *gin.Context) {
	sessionID := getOrCreateSessionID(c, h.config)
	store := h.carts.Get(c.Request.Context(), sessionID)

	isOpen := store.Toggle()
	h.carts.Persist(c.Request.Context(), sessionID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart toggled",
		"data":    gin.H{"is_open": isOpen},
	})
}

// BeginCheckout handles POST /cart/checkout. Checkout is only actionable
// with a non-empty cart; starting it closes the sidebar and the checkout
// flow reads everything else straight from the store.
func (h *CartHandler) BeginCheckout(c *gin.Context) {
	sessionID := getOrCreateSessionID(c, h.config)
	store := h.carts.Get(c.Request.Context(), sessionID)

	if store.Snapshot().IsEmpty() {
		c.JSON(http.StatusConflict, gin.H{
			"error":  "Cart is empty",
			"notice": "Add a book to the cart before checking out",
		})
		return
	}

	store.Close()
	h.carts.Persist(c.Request.Context(), sessionID)

	c.JSON(http.StatusOK, gin.H{
		"message":  "Proceed to checkout",
		"redirect": "/checkout",
	})
}

// GetCount handles GET /cart/count
func (h *CartHandler) GetCount(c *gin.Context) {
	sessionID := getOrCreateSessionID(c, h.config)
	store := h.carts.Get(c.Request.Context(), sessionID)

	totals := store.Snapshot().Totals()
	c.JSON(http.StatusOK, gin.H{
		"message": "Cart count retrieved",
		"data":    gin.H{"count": totals.ItemCount},
	})
}

// buildCartView renders a store snapshot into the sidebar view model
func buildCartView(state cart.State) CartView {
	lines := make([]CartLineView, len(state.Items))
	for i, item := range state.Items {
		lines[i] = CartLineView{
			Item:         item,
			LineTotal:    item.Price * int64(item.Quantity),
			CanDecrement: item.Quantity > 1,
		}
	}

	return CartView{
		Items:           lines,
		Totals:          state.Totals(),
		IsOpen:          state.IsOpen,
		CheckoutEnabled: !state.IsEmpty(),
	}
}
