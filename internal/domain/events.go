package domain

import "time"

// Event names published on the in-process bus.
const (
	EventStateChanged   = "state:changed"
	EventProductAdded   = "product:added"
	EventProductRemoved = "product:removed"
	EventCartUpdated    = "cart:updated"
	EventCartCleared    = "cart:cleared"
	EventOrderPlaced    = "order:placed"
	EventOrderConfirmed = "order:confirmed"
	EventNotification   = "ui:notification"
	EventFPSUpdate      = "perf:fps"
)

// StateChangedEvent is published by the scene state machine on every
// accepted transition.
type StateChangedEvent struct {
	OldState string `json:"old_state"`
	NewState string `json:"new_state"`
}

// CartUpdatedEvent carries the derived cart figures after a mutation.
type CartUpdatedEvent struct {
	ItemCount int     `json:"item_count"`
	Total     float64 `json:"total"`
}

// OrderPlacedEvent is published once checkout commits.
type OrderPlacedEvent struct {
	OrderNumber string     `json:"order_number"`
	Items       []LineItem `json:"items"`
	Total       float64    `json:"total"`
	Timestamp   time.Time  `json:"timestamp"`
}
