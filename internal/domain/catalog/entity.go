// internal/domain/catalog/entity.go
package catalog

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Book represents a catalog entry served by the remote storefront API
type Book struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author,omitempty"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	Category    string `json:"category,omitempty"`
	Price       Price  `json:"price"`
}

// Price is an amount in cents. The remote API is loose about number
// formats (decimal number, integer, or quoted string), so decoding
// normalizes all of them.
type Price int64

// UnmarshalJSON accepts a JSON number or a quoted decimal string. Amounts
// are major units ("12.50" becomes 1250 cents). Negative or non-numeric
// values are rejected.
func (p *Price) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*p = 0
		return nil
	}
	raw = strings.Trim(raw, `"`)
	if raw == "" {
		*p = 0
		return nil
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid price %q: %w", raw, err)
	}
	if value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("invalid price %q", raw)
	}

	*p = Price(math.Round(value * 100))
	return nil
}

// MarshalJSON renders the price back as a decimal amount
func (p Price) MarshalJSON() ([]byte, error) {
	return json.Marshal(float64(p) / 100)
}

// Cents returns the amount in cents
func (p Price) Cents() int64 {
	return int64(p)
}

// Pagination represents a listing window
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// Paginate slices a full listing into the requested window
func Paginate(books []Book, page, limit int) ([]Book, Pagination) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	total := len(books)
	totalPages := (total + limit - 1) / limit

	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	pagination := Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1 && total > 0,
	}

	return books[start:end], pagination
}
