package domain

import "time"

// LineItem is one product entry in the cart. The cart holds at most one
// line item per product id; quantities stay within [MinQuantity, MaxQuantity].
type LineItem struct {
	ProductID string    `json:"id"`
	Name      string    `json:"name"`
	UnitPrice float64   `json:"price"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"added_at"`
}

const (
	MinQuantity = 1
	MaxQuantity = 99
)

// CartSnapshot is an independent deep copy of the cart taken at a point in
// time. Later mutations of the live cart never show through a snapshot.
type CartSnapshot struct {
	Items      []LineItem `json:"items"`
	ItemCount  int        `json:"item_count"`
	Total      float64    `json:"total"`
	Currency   string     `json:"currency"`
	ExportedAt time.Time  `json:"exported_at"`
}
