// Package catalog holds the static product reference data of the demo
// store. Weights feed the delivery simulator's carrier and cost tiers.
package catalog

import "github.com/vrstore/storefront/internal/domain"

var products = []domain.Product{
	{ID: "laptop", Name: "Laptop Pro 15", Price: 899.99, Category: "electronics", WeightKg: 2.5, Dimensions: "35x25x2 cm", Description: "15-inch laptop with all-day battery"},
	{ID: "phone", Name: "Smartphone X", Price: 699.99, Category: "electronics", WeightKg: 0.2, Dimensions: "15x7x0.8 cm", Description: "Flagship smartphone"},
	{ID: "tshirt", Name: "Cotton T-Shirt", Price: 19.99, Category: "clothing", WeightKg: 0.2, Dimensions: "30x25x5 cm", Description: "Plain cotton t-shirt"},
	{ID: "jeans", Name: "Denim Jeans", Price: 49.99, Category: "clothing", WeightKg: 0.6, Dimensions: "35x30x5 cm", Description: "Classic straight-cut jeans"},
	{ID: "lamp", Name: "Desk Lamp", Price: 34.99, Category: "home", WeightKg: 1.5, Dimensions: "40x20x20 cm", Description: "Adjustable LED desk lamp"},
	{ID: "vase", Name: "Ceramic Vase", Price: 24.99, Category: "home", WeightKg: 1.2, Dimensions: "25x15x15 cm", Description: "Hand-glazed ceramic vase"},
	{ID: "coffee", Name: "Ground Coffee", Price: 12.99, Category: "food", WeightKg: 0.5, Dimensions: "20x10x10 cm", Description: "Arabica ground coffee, 500g"},
	{ID: "chocolate", Name: "Dark Chocolate", Price: 5.99, Category: "food", WeightKg: 0.2, Dimensions: "15x10x2 cm", Description: "70% dark chocolate bar"},
}

const (
	defaultWeightKg   = 1.0
	defaultDimensions = "20x20x10 cm"
)

// Catalog is a read-only product lookup.
type Catalog struct {
	byID map[string]domain.Product
	list []domain.Product
}

func New() *Catalog {
	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return &Catalog{byID: byID, list: products}
}

// Get looks a product up by id.
func (c *Catalog) Get(id string) (domain.Product, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// List returns every product in catalog order.
func (c *Catalog) List() []domain.Product {
	out := make([]domain.Product, len(c.list))
	copy(out, c.list)
	return out
}

// WeightKg returns the product's shipping weight, with a fallback for
// unknown ids so cost estimation never fails.
func (c *Catalog) WeightKg(id string) float64 {
	if p, ok := c.byID[id]; ok {
		return p.WeightKg
	}
	return defaultWeightKg
}

// Dimensions returns the product's packed dimensions, with a fallback for
// unknown ids.
func (c *Catalog) Dimensions(id string) string {
	if p, ok := c.byID[id]; ok {
		return p.Dimensions
	}
	return defaultDimensions
}
