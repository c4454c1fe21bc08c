// Package cart implements the shopping cart aggregate: an ordered list of
// line items, unique per product, with derived totals and write-through
// persistence. The in-memory state stays authoritative for the session even
// when a persistence write fails.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/vrstore/storefront/internal/domain"
	"github.com/vrstore/storefront/internal/events"
	"github.com/vrstore/storefront/internal/storage"
)

var (
	ErrMissingProductID = errors.New("missing product id")
	ErrMissingName      = errors.New("missing product name")
	ErrNegativePrice    = errors.New("price must be a non-negative number")
)

const msgQuantityLimit = "maximum quantity reached (99)"

// Config carries the tunables the cart needs.
type Config struct {
	MaxQuantity int
	ExpiryDays  int
	Currency    string
}

// Cart is the aggregate. It is not safe for concurrent use; the composition
// root serializes access (single logical writer).
type Cart struct {
	items  []domain.LineItem
	store  storage.Store
	bus    *events.Bus
	logger *slog.Logger
	cfg    Config
	now    func() time.Time
}

func New(store storage.Store, bus *events.Bus, logger *slog.Logger, cfg Config) *Cart {
	if cfg.MaxQuantity <= 0 {
		cfg.MaxQuantity = domain.MaxQuantity
	}
	if cfg.Currency == "" {
		cfg.Currency = "EUR"
	}
	return &Cart{
		store:  store,
		bus:    bus,
		logger: logger,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Load restores the persisted cart, discarding it entirely when the oldest
// item is past the configured expiry.
func (c *Cart) Load(ctx context.Context) {
	raw, ok, err := c.store.Get(ctx, storage.CartKey)
	if err != nil {
		c.reportStorageError("load cart", err)
		return
	}
	if !ok {
		return
	}

	var items []domain.LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		c.logger.Warn("discarding invalid persisted cart", "error", err)
		return
	}

	if c.expired(items) {
		c.logger.Info("persisted cart expired, clearing", "expiry_days", c.cfg.ExpiryDays)
		if err := c.store.Remove(ctx, storage.CartKey); err != nil {
			c.reportStorageError("clear expired cart", err)
		}
		return
	}

	c.items = items
}

func (c *Cart) expired(items []domain.LineItem) bool {
	if c.cfg.ExpiryDays <= 0 || len(items) == 0 {
		return false
	}
	oldest := items[0].AddedAt
	if oldest.IsZero() {
		return false
	}
	return c.now().Sub(oldest) > time.Duration(c.cfg.ExpiryDays)*24*time.Hour
}

// AddItem appends a new line item with quantity 1, or increments an existing
// one. Hitting the quantity cap is a no-op signalled by a ui:notification.
func (c *Cart) AddItem(ctx context.Context, id, name string, price float64) error {
	if id == "" {
		return ErrMissingProductID
	}
	if name == "" {
		return ErrMissingName
	}
	if price < 0 {
		return ErrNegativePrice
	}

	for i := range c.items {
		if c.items[i].ProductID != id {
			continue
		}
		if c.items[i].Quantity+1 > c.cfg.MaxQuantity {
			c.bus.Publish(domain.EventNotification, msgQuantityLimit)
			return nil
		}
		c.items[i].Quantity++
		c.persist(ctx)
		c.publishUpdated(domain.EventProductAdded, c.items[i])
		return nil
	}

	item := domain.LineItem{
		ProductID: id,
		Name:      name,
		UnitPrice: price,
		Quantity:  1,
		AddedAt:   c.now(),
	}
	c.items = append(c.items, item)
	c.persist(ctx)
	c.publishUpdated(domain.EventProductAdded, item)
	return nil
}

// RemoveItem drops the matching line item; removing an absent product is a
// no-op.
func (c *Cart) RemoveItem(ctx context.Context, id string) {
	for i := range c.items {
		if c.items[i].ProductID != id {
			continue
		}
		removed := c.items[i]
		c.items = append(c.items[:i], c.items[i+1:]...)
		c.persist(ctx)
		c.publishUpdated(domain.EventProductRemoved, removed)
		return
	}
}

// UpdateQuantity adjusts a line item's quantity by delta. Dropping to zero
// or below removes the item; exceeding the cap clamps and notifies.
func (c *Cart) UpdateQuantity(ctx context.Context, id string, delta int) {
	for i := range c.items {
		if c.items[i].ProductID != id {
			continue
		}
		next := c.items[i].Quantity + delta
		switch {
		case next < domain.MinQuantity:
			c.RemoveItem(ctx, id)
		case next > c.cfg.MaxQuantity:
			c.items[i].Quantity = c.cfg.MaxQuantity
			c.bus.Publish(domain.EventNotification, msgQuantityLimit)
			c.persist(ctx)
			c.publishUpdated("", domain.LineItem{})
		default:
			c.items[i].Quantity = next
			c.persist(ctx)
			c.publishUpdated("", domain.LineItem{})
		}
		return
	}
}

// Clear empties the cart.
func (c *Cart) Clear(ctx context.Context) {
	c.items = nil
	c.persist(ctx)
	c.bus.Publish(domain.EventCartCleared, nil)
}

// Total recomputes the price sum from the current line items.
func (c *Cart) Total() float64 {
	var total float64
	for _, item := range c.items {
		total += item.UnitPrice * float64(item.Quantity)
	}
	return total
}

// ItemCount sums quantities across line items.
func (c *Cart) ItemCount() int {
	var count int
	for _, item := range c.items {
		count += item.Quantity
	}
	return count
}

// Items returns a copy of the line items in insertion order.
func (c *Cart) Items() []domain.LineItem {
	out := make([]domain.LineItem, len(c.items))
	copy(out, c.items)
	return out
}

// Snapshot exports an independent deep copy of the cart with its derived
// figures. Later cart mutations never show through the snapshot.
func (c *Cart) Snapshot() domain.CartSnapshot {
	return domain.CartSnapshot{
		Items:      c.Items(),
		ItemCount:  c.ItemCount(),
		Total:      c.Total(),
		Currency:   c.cfg.Currency,
		ExportedAt: c.now(),
	}
}

func (c *Cart) persist(ctx context.Context) {
	data, err := json.Marshal(c.items)
	if err != nil {
		// Line items are plain values; this cannot realistically fail.
		c.logger.Error("failed to serialize cart", "error", err)
		return
	}
	if err := c.store.Set(ctx, storage.CartKey, string(data)); err != nil {
		c.reportStorageError("save cart", err)
	}
}

func (c *Cart) reportStorageError(op string, err error) {
	c.logger.Error("cart persistence failed", "op", op, "error", err)
	c.bus.Publish(domain.EventNotification, "failed to save your cart, changes are kept for this session")
}

func (c *Cart) publishUpdated(event string, item domain.LineItem) {
	if event != "" {
		c.bus.Publish(event, item)
	}
	c.bus.Publish(domain.EventCartUpdated, domain.CartUpdatedEvent{
		ItemCount: c.ItemCount(),
		Total:     c.Total(),
	})
}
