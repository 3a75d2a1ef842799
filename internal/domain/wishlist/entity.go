// internal/domain/wishlist/entity.go
package wishlist

// Item is a book reference saved in a user's wishlist. Only minimal
// display metadata is mirrored locally; the server remains the source
// of truth.
type Item struct {
	BookID   string `json:"book_id"`
	Title    string `json:"title,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	Price    int64  `json:"price,omitempty"` // In cents
}
