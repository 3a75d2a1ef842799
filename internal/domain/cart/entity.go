// internal/domain/cart/entity.go
package cart

// Item represents a single line item in the shopping cart
type Item struct {
	ID       string `json:"id"`
	Title    string `json:"title,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	Price    int64  `json:"price"` // Price per unit in cents
	Quantity int    `json:"quantity"`
}

// State is an immutable snapshot of the cart taken under the store lock
type State struct {
	Items  []Item `json:"items"`
	IsOpen bool   `json:"is_open"`
}

// Totals represents calculated cart totals. They are derived from the
// snapshot on every read and never cached.
type Totals struct {
	ItemCount int   `json:"item_count"` // Sum of all quantities
	LineCount int   `json:"line_count"` // Number of distinct line items
	Subtotal  int64 `json:"subtotal"`   // Sum of price * quantity in cents
}

// Totals computes derived totals for the snapshot
func (s State) Totals() Totals {
	var totals Totals
	totals.LineCount = len(s.Items)
	for _, item := range s.Items {
		totals.ItemCount += item.Quantity
		totals.Subtotal += item.Price * int64(item.Quantity)
	}
	return totals
}

// IsEmpty reports whether the snapshot carries no line items
func (s State) IsEmpty() bool {
	return len(s.Items) == 0
}

// Find returns the line item with the given id, if present
func (s State) Find(id string) (Item, bool) {
	for _, item := range s.Items {
		if item.ID == id {
			return item, true
		}
	}
	return Item{}, false
}

// Snapshot represents the persisted form of a session cart
type Snapshot struct {
	SessionID string `json:"session_id"`
	Items     []Item `json:"items"`
	IsOpen    bool   `json:"is_open"`
	UpdatedAt int64  `json:"updated_at"`
}
