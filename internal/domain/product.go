package domain

// Product is read-only catalog reference data, not user state.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	WeightKg    float64 `json:"weight_kg"`
	Dimensions  string  `json:"dimensions"`
	Description string  `json:"description"`
}
