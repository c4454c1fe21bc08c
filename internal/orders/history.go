// Package orders holds the append-only order history log and the checkout
// processor that feeds it.
package orders

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/vrstore/storefront/internal/domain"
	"github.com/vrstore/storefront/internal/storage"
)

// ErrOrderNotFound marks lookups for order numbers the history never saw.
var ErrOrderNotFound = errors.New("order not found")

// History is the append-only log of finalized orders, persisted as a whole
// on every change. Orders are immutable once appended except for their
// status field.
type History struct {
	orders []domain.Order
	store  storage.Store
	logger *slog.Logger
}

func NewHistory(store storage.Store, logger *slog.Logger) *History {
	return &History{store: store, logger: logger}
}

// Load restores the persisted history.
func (h *History) Load(ctx context.Context) {
	raw, ok, err := h.store.Get(ctx, storage.OrdersKey)
	if err != nil {
		h.logger.Error("failed to load order history", "error", err)
		return
	}
	if !ok {
		return
	}

	var orders []domain.Order
	if err := json.Unmarshal([]byte(raw), &orders); err != nil {
		h.logger.Warn("discarding invalid persisted order history", "error", err)
		return
	}
	h.orders = orders
}

// Append records a finalized order. Persistence failure is logged but never
// rolls the order back; the in-memory log stays authoritative.
func (h *History) Append(ctx context.Context, order domain.Order) {
	h.orders = append(h.orders, order)
	h.persist(ctx)
}

// Get returns the order with the given number.
func (h *History) Get(orderNumber string) (domain.Order, bool) {
	for _, order := range h.orders {
		if order.OrderNumber == orderNumber {
			return order, true
		}
	}
	return domain.Order{}, false
}

// List returns the orders newest first.
func (h *History) List() []domain.Order {
	out := make([]domain.Order, len(h.orders))
	for i, order := range h.orders {
		out[len(h.orders)-1-i] = order
	}
	return out
}

// Len reports the number of recorded orders.
func (h *History) Len() int {
	return len(h.orders)
}

// UpdateStatus advances the status of an order, the only mutation allowed
// after creation. It reports whether the order was found.
func (h *History) UpdateStatus(ctx context.Context, orderNumber string, status domain.OrderStatus) bool {
	for i := range h.orders {
		if h.orders[i].OrderNumber == orderNumber {
			h.orders[i].Status = status
			h.persist(ctx)
			return true
		}
	}
	return false
}

// Delete removes an order from the history. It reports whether anything was
// removed.
func (h *History) Delete(ctx context.Context, orderNumber string) bool {
	for i := range h.orders {
		if h.orders[i].OrderNumber == orderNumber {
			h.orders = append(h.orders[:i], h.orders[i+1:]...)
			h.persist(ctx)
			return true
		}
	}
	return false
}

// ClearAll empties the history.
func (h *History) ClearAll(ctx context.Context) {
	h.orders = nil
	h.persist(ctx)
}

// Export serializes the full history as indented JSON, oldest first.
func (h *History) Export() ([]byte, error) {
	return json.MarshalIndent(h.orders, "", "  ")
}

// Statistics summarizes the recorded orders.
type Statistics struct {
	TotalOrders       int     `json:"total_orders"`
	TotalSpent        float64 `json:"total_spent"`
	TotalItems        int     `json:"total_items"`
	AverageOrderValue float64 `json:"average_order_value"`
}

func (h *History) Statistics() Statistics {
	stats := Statistics{TotalOrders: len(h.orders)}
	if len(h.orders) == 0 {
		return stats
	}
	for _, order := range h.orders {
		stats.TotalSpent += order.Total
		stats.TotalItems += order.ItemCount()
	}
	stats.AverageOrderValue = stats.TotalSpent / float64(stats.TotalOrders)
	return stats
}

func (h *History) persist(ctx context.Context) {
	data, err := json.Marshal(h.orders)
	if err != nil {
		h.logger.Error("failed to serialize order history", "error", err)
		return
	}
	if err := h.store.Set(ctx, storage.OrdersKey, string(data)); err != nil {
		h.logger.Error("failed to persist order history", "error", err)
	}
}
