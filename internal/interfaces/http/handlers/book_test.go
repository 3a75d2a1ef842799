// internal/interfaces/http/handlers/book_test.go
package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/bookstore-storefront/internal/domain/catalog"
)

func newBookRouter(t *testing.T, upstream http.Handler) *gin.Engine {
	t.Helper()

	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := testConfig()
	cfg.Upstream.APIBaseURL = srv.URL

	handler := NewBookHandler(catalog.NewClient(cfg, logger), cfg)

	router := gin.New()
	router.GET("/books", handler.GetBooks)
	router.GET("/books/:id", handler.GetBook)
	router.GET("/categories/:name/books", handler.GetCategoryBooks)

	return router
}

func TestGetBooksPaginated(t *testing.T) {
	t.Parallel()

	router := newBookRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		books := make([]gin.H, 25)
		for i := range books {
			books[i] = gin.H{"id": string(rune('a' + i)), "price": 9}
		}
		json.NewEncoder(w).Encode(gin.H{"books": books})
	}))

	w := doJSON(t, router, http.MethodGet, "/books?page=2&limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Books      []catalog.Book     `json:"books"`
			Pagination catalog.Pagination `json:"pagination"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data.Books, 10)
	assert.Equal(t, 25, resp.Data.Pagination.Total)
	assert.True(t, resp.Data.Pagination.HasPrev)
}

func TestGetBookNotFound(t *testing.T) {
	t.Parallel()

	router := newBookRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":"book not found"}`)
	}))

	w := doJSON(t, router, http.MethodGet, "/books/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetBooksUpstreamDown(t *testing.T) {
	t.Parallel()

	router := newBookRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	w := doJSON(t, router, http.MethodGet, "/books", nil)
	require.Equal(t, http.StatusBadGateway, w.Code)

	var resp struct {
		Retryable bool `json:"retryable"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Retryable)
}

func TestListerSweepEvictsIdleSessions(t *testing.T) {
	t.Parallel()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := testConfig()
	cfg.Upstream.APIBaseURL = "http://localhost:0"
	handler := NewBookHandler(catalog.NewClient(cfg, logger), cfg)

	handler.listerFor("idle")

	// Age the lister past the session TTL and rearm the sweep
	handler.mu.Lock()
	handler.listers["idle"].lastSeen = time.Now().Add(-2 * time.Hour)
	handler.lastSweep = time.Time{}
	handler.mu.Unlock()

	handler.listerFor("active")

	handler.mu.Lock()
	_, stillHeld := handler.listers["idle"]
	handler.mu.Unlock()
	assert.False(t, stillHeld, "idle session listers must be swept")
}

func TestGetCategoryBooks(t *testing.T) {
	t.Parallel()

	router := newBookRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/categories/fiction/books", r.URL.Path)
		io.WriteString(w, `[{"id":"b1","title":"Dune","category":"fiction","price":12.5}]`)
	}))

	w := doJSON(t, router, http.MethodGet, "/categories/fiction/books", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Category string         `json:"category"`
			Books    []catalog.Book `json:"books"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "fiction", resp.Data.Category)
	require.Len(t, resp.Data.Books, 1)
	assert.Equal(t, int64(1250), resp.Data.Books[0].Price.Cents())
}
