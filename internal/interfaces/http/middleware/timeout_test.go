// internal/interfaces/http/middleware/timeout_test.go
package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestTimeoutSetsRequestDeadline(t *testing.T) {
	t.Parallel()

	router := gin.New()
	router.Use(Timeout(50 * time.Millisecond))
	router.GET("/", func(c *gin.Context) {
		deadline, ok := c.Request.Context().Deadline()
		require.True(t, ok, "handlers must see a deadline on the request context")
		assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, 40*time.Millisecond)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTimeoutCancelsDownstreamWork(t *testing.T) {
	t.Parallel()

	router := gin.New()
	router.Use(Timeout(20 * time.Millisecond))
	router.GET("/", func(c *gin.Context) {
		// Stand-in for an outbound call blocked on the request context
		<-c.Request.Context().Done()
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "upstream timed out"})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}
