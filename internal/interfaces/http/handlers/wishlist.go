// internal/interfaces/http/handlers/wishlist.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/bookstore-storefront/internal/config"
	"github.com/your-org/bookstore-storefront/internal/domain/catalog"
	"github.com/your-org/bookstore-storefront/internal/domain/wishlist"
	"github.com/your-org/bookstore-storefront/internal/interfaces/http/middleware"
)

// WishlistHandler handles wishlist endpoints. All routes sit behind
// RequireUser, so the sign-in precondition fails before any server call.
type WishlistHandler struct {
	wishlist *wishlist.Service
	config   *config.Config
}

// NewWishlistHandler creates a new wishlist handler
func NewWishlistHandler(service *wishlist.Service, cfg *config.Config) *WishlistHandler {
	return &WishlistHandler{
		wishlist: service,
		config:   cfg,
	}
}

// AddWishlistItemRequest is the payload for saving a book
type AddWishlistItemRequest struct {
	BookID   string        `json:"book_id" binding:"required"`
	Title    string        `json:"title"`
	ImageURL string        `json:"image_url"`
	Price    catalog.Price `json:"price"`
}

// GetWishlist handles GET /wishlist. The server is the source of truth:
// a refresh is attempted first, and only on failure is the local mirror
// served, marked with a retry notice.
func (h *WishlistHandler) GetWishlist(c *gin.Context) {
	session := middleware.GetSession(c)

	if err := h.wishlist.Refresh(c.Request.Context(), session); err != nil {
		c.JSON(http.StatusOK, gin.H{
			"message":   "Wishlist served from local mirror",
			"notice":    "Could not reach the wishlist server, showing last known state",
			"retryable": true,
			"data":      h.wishlist.Items(session.User.ID),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Wishlist retrieved successfully",
		"data":    h.wishlist.Items(session.User.ID),
	})
}

// AddItem handles POST /wishlist/items
func (h *WishlistHandler) AddItem(c *gin.Context) {
	session := middleware.GetSession(c)

	var req AddWishlistItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	item := wishlist.Item{
		BookID:   req.BookID,
		Title:    req.Title,
		ImageURL: req.ImageURL,
		Price:    req.Price.Cents(),
	}

	if err := h.wishlist.Add(c.Request.Context(), session, item); err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Book saved to wishlist",
		"data":    h.wishlist.Items(session.User.ID),
	})
}

// RemoveItem handles DELETE /wishlist/items/:id
func (h *WishlistHandler) RemoveItem(c *gin.Context) {
	session := middleware.GetSession(c)

	if err := h.wishlist.Remove(c.Request.Context(), session, c.Param("id")); err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Book removed from wishlist",
		"data":    h.wishlist.Items(session.User.ID),
	})
}

func (h *WishlistHandler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, wishlist.ErrSignInRequired):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":  "Sign-in required",
			"notice": "Please sign in to save books to your wishlist",
		})
	case errors.Is(err, wishlist.ErrSyncFailed):
		// The mirror was left unchanged; the failure is dismissible
		c.JSON(http.StatusBadGateway, gin.H{
			"error":  "Wishlist update failed",
			"notice": "Could not update your wishlist, please try again",
		})
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
	}
}
