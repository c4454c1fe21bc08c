package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusInTransit OrderStatus = "in_transit"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Customer holds the delivery details collected at checkout.
type Customer struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Phone      string `json:"phone"`
}

// Order is a finalized checkout. Once created it is immutable except for
// Status, which tracking updates may advance.
type Order struct {
	OrderNumber string      `json:"order_number"`
	Customer    Customer    `json:"customer"`
	Items       []LineItem  `json:"items"`
	Total       float64     `json:"total"`
	OrderDate   time.Time   `json:"order_date"`
	Status      OrderStatus `json:"status"`
}

// ItemCount sums the quantities across all line items.
func (o Order) ItemCount() int {
	var n int
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}
