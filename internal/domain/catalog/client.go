// internal/domain/catalog/client.go
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/your-org/bookstore-storefront/internal/config"
)

// ErrStale marks a listing response that was superseded by a newer request
// before it resolved. Callers drop the result instead of rendering it.
var ErrStale = errors.New("catalog: listing superseded by a newer request")

// APIError represents a storefront API error response
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("catalog API: %s (status %d)", e.Message, e.Status)
}

// IsNotFound reports whether the error is a 404 from the remote API
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Client calls the remote book catalog over HTTP
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient constructs a catalog client against the configured API base
func NewClient(cfg *config.Config, logger *logrus.Logger) *Client {
	return &Client{
		baseURL: cfg.GetAPIBaseURL(),
		httpClient: &http.Client{
			Timeout: cfg.Upstream.RequestTimeout,
		},
		logger: logger,
	}
}

// ListBooks retrieves the full book listing
func (c *Client) ListBooks(ctx context.Context) ([]Book, error) {
	return c.fetchListing(ctx, c.baseURL+"/books")
}

// ListCategoryBooks retrieves the listing for a single category
func (c *Client) ListCategoryBooks(ctx context.Context, category string) ([]Book, error) {
	if strings.TrimSpace(category) == "" {
		return c.ListBooks(ctx)
	}
	path := fmt.Sprintf("%s/categories/%s/books", c.baseURL, url.PathEscape(category))
	return c.fetchListing(ctx, path)
}

// GetBook retrieves a single book by id
func (c *Client) GetBook(ctx context.Context, id string) (Book, error) {
	path := fmt.Sprintf("%s/books/%s", c.baseURL, url.PathEscape(id))

	var book Book
	if err := c.do(ctx, path, &book); err != nil {
		return Book{}, err
	}
	return book, nil
}

func (c *Client) fetchListing(ctx context.Context, path string) ([]Book, error) {
	var raw json.RawMessage
	if err := c.do(ctx, path, &raw); err != nil {
		return nil, err
	}

	books, err := decodeListing(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode book listing: %w", err)
	}
	return books, nil
}

func (c *Client) do(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		msg := errResp.Error
		if msg == "" {
			msg = errResp.Message
		}
		if msg == "" {
			msg = resp.Status
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// decodeListing accepts the three listing shapes the API is known to
// produce: a bare array, {"books": [...]}, or {"data": [...]}.
func decodeListing(raw json.RawMessage) ([]Book, error) {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var books []Book
		if err := json.Unmarshal(raw, &books); err != nil {
			return nil, err
		}
		return books, nil
	}

	var envelope struct {
		Books []Book `json:"books"`
		Data  []Book `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, err
	}
	if envelope.Books != nil {
		return envelope.Books, nil
	}
	if envelope.Data != nil {
		return envelope.Data, nil
	}
	return []Book{}, nil
}

// Lister serializes listing fetches for one consumer (one browsing
// session) and guards against the stale-response race: changing the
// filter cancels the in-flight fetch, and a response that lost the race
// to a newer request is reported as ErrStale rather than returned.
type Lister struct {
	client *Client

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
}

// NewLister creates a lister over the catalog client
func NewLister(client *Client) *Lister {
	return &Lister{client: client}
}

// List fetches the listing for the given category ("" for all books).
// Only the most recently dispatched request may deliver a result.
func (l *Lister) List(ctx context.Context, category string) ([]Book, error) {
	l.mu.Lock()
	l.generation++
	generation := l.generation
	if l.cancel != nil {
		l.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.mu.Unlock()

	books, err := l.client.ListCategoryBooks(fetchCtx, category)

	l.mu.Lock()
	current := generation == l.generation
	if current {
		cancel()
		l.cancel = nil
	}
	l.mu.Unlock()

	if !current {
		l.client.logger.WithFields(logrus.Fields{
			"category":   category,
			"generation": generation,
		}).Debug("Discarding stale catalog listing")
		return nil, ErrStale
	}
	if err != nil {
		return nil, err
	}
	return books, nil
}
