// internal/interfaces/http/handlers/book.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/your-org/bookstore-storefront/internal/config"
	"github.com/your-org/bookstore-storefront/internal/domain/catalog"
)

// listerSweepEvery bounds how often idle session listers are swept out
const listerSweepEvery = 5 * time.Minute

// BookHandler serves book and category listings from the remote catalog.
// Category browsing goes through a per-session lister so that changing
// the filter cancels the previous fetch and stale responses are dropped.
type BookHandler struct {
	client *catalog.Client
	config *config.Config

	mu        sync.Mutex
	listers   map[string]*listerEntry
	lastSweep time.Time
}

type listerEntry struct {
	lister   *catalog.Lister
	lastSeen time.Time
}

// NewBookHandler creates a new book handler
func NewBookHandler(client *catalog.Client, cfg *config.Config) *BookHandler {
	return &BookHandler{
		client:  client,
		config:  cfg,
		listers: make(map[string]*listerEntry),
	}
}

// GetBooks handles GET /books
func (h *BookHandler) GetBooks(c *gin.Context) {
	books, err := h.client.ListBooks(c.Request.Context())
	if err != nil {
		h.renderListingError(c, err)
		return
	}

	page, limit := parsePageParams(c)
	window, pagination := catalog.Paginate(books, page, limit)

	c.JSON(http.StatusOK, gin.H{
		"message": "Books retrieved successfully",
		"data": gin.H{
			"books":      window,
			"pagination": pagination,
		},
	})
}

// GetBook handles GET /books/:id
func (h *BookHandler) GetBook(c *gin.Context) {
	book, err := h.client.GetBook(c.Request.Context(), c.Param("id"))
	if err != nil {
		if catalog.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Book not found",
			})
			return
		}
		h.renderListingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Book retrieved successfully",
		"data":    book,
	})
}

// GetCategoryBooks handles GET /categories/:name/books. A response that
// lost the race to a newer filter change carries no listing; the newer
// request is the one that renders.
func (h *BookHandler) GetCategoryBooks(c *gin.Context) {
	sessionID := getOrCreateSessionID(c, h.config)
	lister := h.listerFor(sessionID)

	books, err := lister.List(c.Request.Context(), c.Param("name"))
	if err != nil {
		if errors.Is(err, catalog.ErrStale) {
			c.Status(http.StatusNoContent)
			return
		}
		h.renderListingError(c, err)
		return
	}

	page, limit := parsePageParams(c)
	window, pagination := catalog.Paginate(books, page, limit)

	c.JSON(http.StatusOK, gin.H{
		"message": "Category books retrieved successfully",
		"data": gin.H{
			"category":   c.Param("name"),
			"books":      window,
			"pagination": pagination,
		},
	})
}

func (h *BookHandler) listerFor(sessionID string) *catalog.Lister {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Listers for sessions idle past the cookie TTL are dropped; a
	// returning session just gets a fresh one.
	now := time.Now()
	if now.Sub(h.lastSweep) >= listerSweepEvery {
		h.lastSweep = now
		for id, entry := range h.listers {
			if now.Sub(entry.lastSeen) > h.config.Session.TTL {
				delete(h.listers, id)
			}
		}
	}

	entry, ok := h.listers[sessionID]
	if !ok {
		entry = &listerEntry{lister: catalog.NewLister(h.client)}
		h.listers[sessionID] = entry
	}
	entry.lastSeen = now
	return entry.lister
}

// renderListingError surfaces a catalog failure as a dismissible,
// retryable notice rather than a hard failure.
func (h *BookHandler) renderListingError(c *gin.Context, err error) {
	c.JSON(http.StatusBadGateway, gin.H{
		"error":     "Failed to load books",
		"notice":    "Could not reach the book catalog, please retry",
		"retryable": true,
		"details":   err.Error(),
	})
}

func parsePageParams(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
