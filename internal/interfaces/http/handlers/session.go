// internal/interfaces/http/handlers/session.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/your-org/bookstore-storefront/internal/config"
)

// getOrCreateSessionID gets the browser session id from its cookie or
// creates a new one. The session id keys the cart and checkout state; it
// is independent of the auth session.
func getOrCreateSessionID(c *gin.Context, cfg *config.Config) string {
	sessionID, err := c.Cookie(cfg.Session.CookieName)
	if err != nil || sessionID == "" {
		sessionID = uuid.New().String()
		c.SetCookie(cfg.Session.CookieName, sessionID, int(cfg.Session.TTL.Seconds()), "/", "", false, true)
	}

	return sessionID
}
