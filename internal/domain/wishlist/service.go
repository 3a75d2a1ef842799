// internal/domain/wishlist/service.go
package wishlist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/your-org/bookstore-storefront/internal/config"
	"github.com/your-org/bookstore-storefront/internal/pkg/auth"
)

// ErrSignInRequired rejects a wishlist mutation attempted without an
// authenticated session. The rejection happens before any network call
// and leaves the local mirror unchanged.
var ErrSignInRequired = errors.New("wishlist: please sign in to save books")

// ErrSyncFailed wraps a server-side failure. The local mirror is left
// unchanged so the next authoritative sync starts from a clean state.
var ErrSyncFailed = errors.New("wishlist: failed to update wishlist")

// Service mirrors server-side wishlist membership for fast UI feedback.
//
// Two update paths exist: SetWishlist is the authoritative replace applied
// whenever the server returns a full list, and the optimistic local insert
// is the fallback used only when a successful mutation response omits the
// list. Optimistic entries are superseded by the next authoritative sync.
type Service struct {
	mu     sync.RWMutex
	byUser map[string][]Item

	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewService creates a wishlist service against the configured API base
func NewService(cfg *config.Config, logger *logrus.Logger) *Service {
	return &Service{
		byUser:  make(map[string][]Item),
		baseURL: cfg.GetAPIBaseURL(),
		httpClient: &http.Client{
			Timeout: cfg.Upstream.RequestTimeout,
		},
		logger: logger,
	}
}

// Items returns a copy of the mirrored wishlist for a user
func (s *Service) Items(userID string) []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]Item, len(s.byUser[userID]))
	copy(items, s.byUser[userID])
	return items
}

// Contains reports whether a book is in the user's mirrored wishlist
func (s *Service) Contains(userID, bookID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.byUser[userID] {
		if item.BookID == bookID {
			return true
		}
	}
	return false
}

// SetWishlist fully replaces the local mirror from a server response.
// This is the authoritative sync point; duplicates are collapsed on the
// way in.
func (s *Service) SetWishlist(userID string, items []Item) {
	next := make([]Item, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if item.BookID == "" || seen[item.BookID] {
			continue
		}
		seen[item.BookID] = true
		next = append(next, item)
	}

	s.mu.Lock()
	s.byUser[userID] = next
	s.mu.Unlock()
}

// Refresh pulls the authoritative wishlist from the server for a
// signed-in user. Used at session load; failures leave the mirror as-is.
func (s *Service) Refresh(ctx context.Context, session *auth.Session) error {
	if !session.SignedIn() {
		return ErrSignInRequired
	}

	path := fmt.Sprintf("%s/users/%s/wishlist", s.baseURL, url.PathEscape(session.User.ID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	setAuthHeader(req, session.Token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSyncFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: status %d", ErrSyncFailed, resp.StatusCode)
	}

	var envelope wishlistEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("%w: %v", ErrSyncFailed, err)
	}

	s.SetWishlist(session.User.ID, envelope.list())
	return nil
}

// Add toggles a book into the user's wishlist on the server.
//
// The preferred path applies the server's returned list as an
// authoritative replace. When the mutation succeeds but the response has
// no list, the book is inserted optimistically and reconciled on the next
// Refresh.
func (s *Service) Add(ctx context.Context, session *auth.Session, item Item) error {
	if !session.SignedIn() {
		return ErrSignInRequired
	}
	if item.BookID == "" {
		return fmt.Errorf("wishlist: book id is required")
	}

	list, replaced, err := s.patch(ctx, session, mutationRequest{BookID: item.BookID, Book: &item})
	if err != nil {
		return err
	}

	if replaced {
		s.SetWishlist(session.User.ID, list)
		return nil
	}

	// Optimistic fallback: the server accepted the mutation but returned
	// no list.
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byUser[session.User.ID] {
		if existing.BookID == item.BookID {
			return nil
		}
	}
	s.byUser[session.User.ID] = append(s.byUser[session.User.ID], item)
	return nil
}

// Remove toggles a book out of the user's wishlist on the server
func (s *Service) Remove(ctx context.Context, session *auth.Session, bookID string) error {
	if !session.SignedIn() {
		return ErrSignInRequired
	}
	if bookID == "" {
		return fmt.Errorf("wishlist: book id is required")
	}

	list, replaced, err := s.patch(ctx, session, mutationRequest{BookID: bookID})
	if err != nil {
		return err
	}

	if replaced {
		s.SetWishlist(session.User.ID, list)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.byUser[session.User.ID]
	next := make([]Item, 0, len(current))
	for _, existing := range current {
		if existing.BookID != bookID {
			next = append(next, existing)
		}
	}
	s.byUser[session.User.ID] = next
	return nil
}

// Forget drops the local mirror for a user (sign-out)
func (s *Service) Forget(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byUser, userID)
}

type mutationRequest struct {
	BookID string `json:"bookId"`
	Book   *Item  `json:"book,omitempty"`
}

type wishlistEnvelope struct {
	Wishlist []Item `json:"wishlist"`
	Data     []Item `json:"data"`
}

func (e wishlistEnvelope) list() []Item {
	if e.Wishlist != nil {
		return e.Wishlist
	}
	return e.Data
}

// patch sends the wishlist mutation and reports whether the response
// carried an authoritative list.
func (s *Service) patch(ctx context.Context, session *auth.Session, mutation mutationRequest) ([]Item, bool, error) {
	body, err := json.Marshal(mutation)
	if err != nil {
		return nil, false, err
	}

	path := fmt.Sprintf("%s/users/%s/wishlist", s.baseURL, url.PathEscape(session.User.ID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, path, bytes.NewReader(body))
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Content-Type", "application/json")
	setAuthHeader(req, session.Token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.WithError(err).WithField("book_id", mutation.BookID).Warn("Wishlist sync request failed")
		return nil, false, fmt.Errorf("%w: %v", ErrSyncFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, false, fmt.Errorf("%w: status %d", ErrSyncFailed, resp.StatusCode)
	}

	var envelope wishlistEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		// Mutation succeeded; treat an unreadable body like a missing list
		return nil, false, nil
	}

	list := envelope.list()
	if list == nil {
		return nil, false, nil
	}
	return list, true, nil
}

func setAuthHeader(req *http.Request, token string) {
	if token == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)
}
