// internal/domain/cart/store.go
package cart

import "sync"

// Store is the single source of truth for one session's shopping cart.
//
// Every transition runs to completion under the store lock, so dispatches
// are applied atomically and in FIFO order. Transitions never fail: input
// that would violate an invariant (duplicate ids, quantity below one,
// missing id) leaves the state unchanged. Views read consistent copies via
// Snapshot and hold no state of their own.
type Store struct {
	mu     sync.Mutex
	items  []Item
	isOpen bool
}

// NewStore creates an empty, closed cart store
func NewStore() *Store {
	return &Store{items: []Item{}}
}

// Restore replaces the store contents from a persisted snapshot
func (s *Store) Restore(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = applyRestore(snapshot.Items)
	s.isOpen = snapshot.IsOpen
}

// AddItem adds an item with quantity one, merging into an existing line
// item with the same id. An item without an id is ignored.
func (s *Store) AddItem(item Item) {
	s.AddItemQuantity(item, 1)
}

// AddItemQuantity adds an item with the supplied quantity delta. Existing
// line items keep their position; merging increments quantity only. A
// missing id or non-positive delta is a no-op.
func (s *Store) AddItemQuantity(item Item, delta int) {
	if item.ID == "" || delta < 1 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = applyAdd(s.items, item, delta)
}

// RemoveItem removes the line item with the given id, if present
func (s *Store) RemoveItem(id string) {
	if id == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = applyRemove(s.items, id)
}

// UpdateQuantity sets the quantity for the matching line item. Quantities
// below one are rejected; removal goes through RemoveItem instead.
func (s *Store) UpdateQuantity(id string, quantity int) {
	if id == "" || quantity < 1 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = applyUpdateQuantity(s.items, id, quantity)
}

// Clear removes all line items. The sidebar flag is untouched.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = []Item{}
}

// Toggle flips the sidebar flag and returns the new value
func (s *Store) Toggle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isOpen = !s.isOpen
	return s.isOpen
}

// Close forces the sidebar closed. Checkout initiation and navigation away
// from the cart both end here.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isOpen = false
}

// Snapshot returns a consistent copy of the current state
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]Item, len(s.items))
	copy(items, s.items)
	return State{Items: items, IsOpen: s.isOpen}
}

// Pure transition helpers. Each takes the current item list and returns
// the next one; the store serializes their application under its lock.

func applyAdd(items []Item, item Item, delta int) []Item {
	for i := range items {
		if items[i].ID == item.ID {
			next := make([]Item, len(items))
			copy(next, items)
			next[i].Quantity += delta
			return next
		}
	}

	item.Quantity = delta
	next := make([]Item, len(items), len(items)+1)
	copy(next, items)
	return append(next, item)
}

func applyRemove(items []Item, id string) []Item {
	next := make([]Item, 0, len(items))
	for _, item := range items {
		if item.ID != id {
			next = append(next, item)
		}
	}
	return next
}

func applyUpdateQuantity(items []Item, id string, quantity int) []Item {
	next := make([]Item, len(items))
	copy(next, items)
	for i := range next {
		if next[i].ID == id {
			next[i].Quantity = quantity
			break
		}
	}
	return next
}

// applyRestore drops malformed persisted entries so a damaged snapshot can
// never violate the id-uniqueness invariant.
func applyRestore(items []Item) []Item {
	seen := make(map[string]bool, len(items))
	next := make([]Item, 0, len(items))
	for _, item := range items {
		if item.ID == "" || item.Quantity < 1 || item.Price < 0 || seen[item.ID] {
			continue
		}
		seen[item.ID] = true
		next = append(next, item)
	}
	return next
}
