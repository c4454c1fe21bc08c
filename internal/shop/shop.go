// Package shop is the composition facade over the cart, order history,
// checkout and delivery pieces. It serializes access with a mutex so the
// HTTP surface and the frame loop can share one instance.
package shop

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/vrstore/storefront/internal/cart"
	"github.com/vrstore/storefront/internal/catalog"
	"github.com/vrstore/storefront/internal/delivery"
	"github.com/vrstore/storefront/internal/domain"
	"github.com/vrstore/storefront/internal/events"
	"github.com/vrstore/storefront/internal/orders"
	"github.com/vrstore/storefront/internal/storage"
	"github.com/vrstore/storefront/internal/validate"
)

// ErrClosed is returned from operations after Close.
var ErrClosed = errors.New("shop is closed")

// Config carries the store-level tunables.
type Config struct {
	Currency    string
	OrderPrefix string
	MaxQuantity int
	ExpiryDays  int
}

// TotalBreakdown is the cart total with shipping applied.
type TotalBreakdown struct {
	Subtotal float64 `json:"subtotal"`
	Shipping float64 `json:"shipping"`
	Total    float64 `json:"total"`
}

// Shop owns the storefront state. All exported methods are safe for
// concurrent use.
type Shop struct {
	mu        sync.Mutex
	cart      *cart.Cart
	history   *orders.History
	processor *orders.Processor
	catalog   *catalog.Catalog
	simulator *delivery.Simulator
	bus       *events.Bus
	logger    *slog.Logger

	itemsAdded   metric.Int64Counter
	ordersPlaced metric.Int64Counter

	closed        bool
	ctx           context.Context
	cancel        context.CancelFunc
	deliveries    sync.WaitGroup
	unsubscribers []func()
}

func New(store storage.Store, bus *events.Bus, cat *catalog.Catalog, sim *delivery.Simulator, rules validate.Rules, logger *slog.Logger, cfg Config) *Shop {
	s := &Shop{
		catalog:   cat,
		simulator: sim,
		bus:       bus,
		logger:    logger,
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	meter := otel.Meter("storefront/shop")
	s.itemsAdded, _ = meter.Int64Counter("storefront.cart.items_added",
		metric.WithDescription("Items added to the cart"))
	s.ordersPlaced, _ = meter.Int64Counter("storefront.orders.placed",
		metric.WithDescription("Orders committed at checkout"))

	s.cart = cart.New(store, bus, logger, cart.Config{
		MaxQuantity: cfg.MaxQuantity,
		ExpiryDays:  cfg.ExpiryDays,
		Currency:    cfg.Currency,
	})
	s.history = orders.NewHistory(store, logger)
	s.processor = orders.NewProcessor(s.cart, s.history, rules, bus, s.dispatchDelivery, logger, cfg.OrderPrefix)

	s.unsubscribers = append(s.unsubscribers,
		bus.Subscribe(domain.EventNotification, func(data any) {
			logger.Info("storefront notification", "message", data)
		}),
	)
	return s
}

// Load restores the persisted cart and order history.
func (s *Shop) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Load(ctx)
	s.history.Load(ctx)
}

// Products lists the catalog.
func (s *Shop) Products() []domain.Product {
	return s.catalog.List()
}

// Product looks up a single catalog entry.
func (s *Shop) Product(id string) (domain.Product, bool) {
	return s.catalog.Get(id)
}

// AddToCart adds one unit of a product to the cart.
func (s *Shop) AddToCart(ctx context.Context, productID, name string, price float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err := s.cart.AddItem(ctx, productID, name, price); err != nil {
		return err
	}
	s.itemsAdded.Add(ctx, 1)
	return nil
}

// RemoveFromCart removes a product line entirely.
func (s *Shop) RemoveFromCart(ctx context.Context, productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.cart.RemoveItem(ctx, productID)
}

// UpdateQuantity adjusts a line's quantity by delta; dropping to zero or
// below removes the line.
func (s *Shop) UpdateQuantity(ctx context.Context, productID string, delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.cart.UpdateQuantity(ctx, productID, delta)
}

// ClearCart empties the cart.
func (s *Shop) ClearCart(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.cart.Clear(ctx)
}

// Cart returns a snapshot of the current cart.
func (s *Shop) Cart() domain.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Snapshot()
}

// CalculateTotal quotes the cart with shipping applied.
func (s *Shop) CalculateTotal() TotalBreakdown {
	s.mu.Lock()
	defer s.mu.Unlock()

	subtotal := s.cart.Total()
	shipping := s.simulator.ShippingCost(s.cart.Items(), subtotal)
	return TotalBreakdown{
		Subtotal: subtotal,
		Shipping: shipping,
		Total:    subtotal + shipping,
	}
}

// Checkout validates the customer, commits the order and hands it to the
// delivery provider in the background. The returned order is pending until
// the provider confirms it.
func (s *Shop) Checkout(ctx context.Context, customer domain.Customer) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.Order{}, ErrClosed
	}
	order, err := s.processor.Checkout(ctx, customer)
	if err != nil {
		return domain.Order{}, err
	}
	s.ordersPlaced.Add(ctx, 1)
	return order, nil
}

// Orders lists the order history, newest first.
func (s *Shop) Orders() []domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.List()
}

// Order looks up one order by number.
func (s *Shop) Order(number string) (domain.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Get(number)
}

// Statistics aggregates the order history.
func (s *Shop) Statistics() orders.Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Statistics()
}

// ExportOrders renders the history as indented JSON.
func (s *Shop) ExportOrders() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Export()
}

// TrackOrder queries the delivery provider for an order's position.
func (s *Shop) TrackOrder(ctx context.Context, orderNumber string) (delivery.Tracking, error) {
	s.mu.Lock()
	_, known := s.history.Get(orderNumber)
	s.mu.Unlock()
	if !known {
		return delivery.Tracking{}, orders.ErrOrderNotFound
	}
	return s.simulator.TrackOrder(ctx, orderNumber)
}

// CancelOrder cancels an order with the provider and records the status.
func (s *Shop) CancelOrder(ctx context.Context, orderNumber, reason string) (delivery.Cancellation, error) {
	s.mu.Lock()
	_, known := s.history.Get(orderNumber)
	s.mu.Unlock()
	if !known {
		return delivery.Cancellation{}, orders.ErrOrderNotFound
	}

	cancellation, err := s.simulator.CancelOrder(ctx, orderNumber, reason)
	if err != nil {
		return delivery.Cancellation{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.history.UpdateStatus(ctx, orderNumber, domain.OrderStatusCancelled)
	return cancellation, nil
}

// EstimateDelivery quotes delivery time for a postal code.
func (s *Shop) EstimateDelivery(postalCode string) delivery.Estimate {
	return s.simulator.EstimateDelivery(postalCode)
}

// Close detaches event listeners and stops accepting operations. In-flight
// delivery dispatches finish in the background but no longer touch state.
func (s *Shop) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	unsubscribers := s.unsubscribers
	s.unsubscribers = nil
	s.mu.Unlock()

	s.cancel()
	for _, unsubscribe := range unsubscribers {
		unsubscribe()
	}
	s.logger.Info("shop closed")
}

// dispatchDelivery registers a committed order with the delivery provider
// without blocking checkout. Failures leave the order pending; it stays in
// the history either way.
func (s *Shop) dispatchDelivery(order domain.Order) {
	s.deliveries.Add(1)
	go func() {
		defer s.deliveries.Done()

		confirmation, err := s.simulator.CreateOrder(s.ctx, order)

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			return
		}

		if err != nil {
			s.logger.Error("delivery dispatch failed", "order_number", order.OrderNumber, "error", err)
			s.bus.Publish(domain.EventNotification, "order recorded, delivery confirmation pending")
			return
		}

		s.history.UpdateStatus(s.ctx, order.OrderNumber, domain.OrderStatusConfirmed)
		s.bus.Publish(domain.EventOrderConfirmed, confirmation)
		s.bus.Publish(domain.EventNotification, "order confirmed, tracking "+confirmation.TrackingNumber)
	}()
}

// waitForDeliveries blocks until in-flight dispatches complete. Test helper.
func (s *Shop) waitForDeliveries() {
	s.deliveries.Wait()
}
