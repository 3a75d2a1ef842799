// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/bookstore-storefront/internal/config"
	"github.com/your-org/bookstore-storefront/internal/domain/cart"
	"github.com/your-org/bookstore-storefront/internal/domain/catalog"
	"github.com/your-org/bookstore-storefront/internal/domain/checkout"
	"github.com/your-org/bookstore-storefront/internal/domain/wishlist"
	"github.com/your-org/bookstore-storefront/internal/interfaces/http/handlers"
	"github.com/your-org/bookstore-storefront/internal/interfaces/http/middleware"
)

// Services bundles the domain services the routes dispatch into
type Services struct {
	Carts    *cart.Sessions
	Wishlist *wishlist.Service
	Catalog  *catalog.Client
	Checkout *checkout.Service
}

// SetupRoutes wires all storefront routes onto the router group
func SetupRoutes(rg *gin.RouterGroup, svc *Services, cfg *config.Config) {
	setupBookRoutes(rg, svc, cfg)
	setupCartRoutes(rg, svc, cfg)
	setupWishlistRoutes(rg, svc, cfg)
	setupCheckoutRoutes(rg, svc, cfg)
}

// setupBookRoutes sets up catalog browsing routes
func setupBookRoutes(rg *gin.RouterGroup, svc *Services, cfg *config.Config) {
	bookHandler := handlers.NewBookHandler(svc.Catalog, cfg)

	books := rg.Group("/books")
	{
		books.GET("", bookHandler.GetBooks)
		books.GET("/:id", bookHandler.GetBook)
	}

	rg.GET("/categories/:name/books", bookHandler.GetCategoryBooks)
}

// setupCartRoutes sets up cart sidebar routes. The cart works for guests
// and signed-in users alike.
func setupCartRoutes(rg *gin.RouterGroup, svc *Services, cfg *config.Config) {
	cartHandler := handlers.NewCartHandler(svc.Carts, cfg)

	cartGroup := rg.Group("/cart")
	{
		cartGroup.GET("", cartHandler.GetCart)
		cartGroup.GET("/count", cartHandler.GetCount)
		cartGroup.POST("/items", cartHandler.AddItem)
		cartGroup.PUT("/items/:id", cartHandler.UpdateQuantity)
		cartGroup.DELETE("/items/:id", cartHandler.RemoveItem)
		cartGroup.POST("/clear", cartHandler.RequestClear)
		cartGroup.POST("/clear/confirm", cartHandler.ConfirmClear)
		cartGroup.POST("/toggle", cartHandler.Toggle)
		cartGroup.POST("/checkout", cartHandler.BeginCheckout)
	}
}

// setupWishlistRoutes sets up wishlist routes. Every route requires a
// signed-in session so the precondition fails before any network call.
func setupWishlistRoutes(rg *gin.RouterGroup, svc *Services, cfg *config.Config) {
	wishlistHandler := handlers.NewWishlistHandler(svc.Wishlist, cfg)

	wishlistGroup := rg.Group("/wishlist")
	wishlistGroup.Use(middleware.RequireUser())
	{
		wishlistGroup.GET("", wishlistHandler.GetWishlist)
		wishlistGroup.POST("/items", wishlistHandler.AddItem)
		wishlistGroup.DELETE("/items/:id", wishlistHandler.RemoveItem)
	}
}

// setupCheckoutRoutes sets up checkout and order confirmation routes
func setupCheckoutRoutes(rg *gin.RouterGroup, svc *Services, cfg *config.Config) {
	checkoutHandler := handlers.NewCheckoutHandler(svc.Checkout, svc.Carts, cfg)

	rg.GET("/checkout", checkoutHandler.Enter)
	rg.POST("/checkout", checkoutHandler.Submit)
	rg.GET("/orders/:id", checkoutHandler.GetOrder)
}
