package orders

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/vrstore/storefront/internal/cart"
	"github.com/vrstore/storefront/internal/domain"
	"github.com/vrstore/storefront/internal/events"
	"github.com/vrstore/storefront/internal/storage"
	"github.com/vrstore/storefront/internal/validate"
)

func validCustomer() domain.Customer {
	return domain.Customer{
		Name:       "Jean Dupont",
		Address:    "12 rue de la Paix",
		City:       "Paris",
		PostalCode: "75001",
		Phone:      "01 23 45 67 89",
	}
}

type checkoutFixture struct {
	cart       *cart.Cart
	history    *History
	processor  *Processor
	bus        *events.Bus
	dispatched []domain.Order
}

func newCheckoutFixture(t *testing.T, dispatch Dispatch) *checkoutFixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := events.NewBus(logger)
	store := storage.NewMemoryStore()

	f := &checkoutFixture{
		cart:    cart.New(store, bus, logger, cart.Config{MaxQuantity: 99, Currency: "EUR"}),
		history: NewHistory(store, logger),
		bus:     bus,
	}
	if dispatch == nil {
		dispatch = func(order domain.Order) { f.dispatched = append(f.dispatched, order) }
	}
	f.processor = NewProcessor(f.cart, f.history, validate.DefaultRules(), bus, dispatch, logger, "VR")
	return f
}

func TestProcessor_Checkout(t *testing.T) {
	ctx := context.Background()

	t.Run("empty cart creates no order and clears nothing", func(t *testing.T) {
		f := newCheckoutFixture(t, nil)

		_, err := f.processor.Checkout(ctx, validCustomer())

		if !errors.Is(err, ErrEmptyCart) {
			t.Fatalf("expected ErrEmptyCart, got %v", err)
		}
		if f.history.Len() != 0 {
			t.Fatal("expected no order to be created")
		}
		if len(f.dispatched) != 0 {
			t.Fatal("expected nothing dispatched")
		}
	})

	t.Run("invalid fields fail validation and leave the cart unchanged", func(t *testing.T) {
		f := newCheckoutFixture(t, nil)
		_ = f.cart.AddItem(ctx, "laptop", "Laptop Pro 15", 899.99)

		customer := validCustomer()
		customer.Name = "J"
		customer.PostalCode = "123"

		_, err := f.processor.Checkout(ctx, customer)

		var validationErr *validate.ValidationError
		if !errors.As(err, &validationErr) {
			t.Fatalf("expected *validate.ValidationError, got %v", err)
		}
		if _, ok := validationErr.Fields["name"]; !ok {
			t.Errorf("expected a name error, got %v", validationErr.Fields)
		}
		if _, ok := validationErr.Fields["postal_code"]; !ok {
			t.Errorf("expected a postal_code error, got %v", validationErr.Fields)
		}
		if f.history.Len() != 0 {
			t.Fatal("expected zero new orders")
		}
		if f.cart.ItemCount() != 1 {
			t.Fatal("expected cart to be unchanged")
		}
	})

	t.Run("successful checkout commits, dispatches and clears the cart", func(t *testing.T) {
		f := newCheckoutFixture(t, nil)
		_ = f.cart.AddItem(ctx, "laptop", "Laptop Pro 15", 899.99)
		_ = f.cart.AddItem(ctx, "coffee", "Ground Coffee", 12.99)

		var placed *domain.OrderPlacedEvent
		f.bus.Subscribe(domain.EventOrderPlaced, func(data any) {
			if event, ok := data.(domain.OrderPlacedEvent); ok {
				placed = &event
			}
		})

		order, err := f.processor.Checkout(ctx, validCustomer())
		if err != nil {
			t.Fatalf("checkout failed: %v", err)
		}

		if order.OrderNumber == "" {
			t.Fatal("expected an order number")
		}
		if order.Status != domain.OrderStatusPending {
			t.Fatalf("expected pending status, got %s", order.Status)
		}
		if math.Abs(order.Total-912.98) > 1e-9 {
			t.Fatalf("expected total 912.98, got %v", order.Total)
		}
		if f.cart.ItemCount() != 0 {
			t.Fatal("expected cart cleared after checkout")
		}
		if f.history.Len() != 1 {
			t.Fatalf("expected one order in history, got %d", f.history.Len())
		}
		if len(f.dispatched) != 1 || f.dispatched[0].OrderNumber != order.OrderNumber {
			t.Fatalf("expected order dispatched to delivery, got %v", f.dispatched)
		}
		if placed == nil || placed.OrderNumber != order.OrderNumber {
			t.Fatal("expected order:placed event")
		}
	})

	t.Run("order snapshot is immune to later cart mutations", func(t *testing.T) {
		f := newCheckoutFixture(t, nil)
		_ = f.cart.AddItem(ctx, "vase", "Ceramic Vase", 24.99)

		order, err := f.processor.Checkout(ctx, validCustomer())
		if err != nil {
			t.Fatalf("checkout failed: %v", err)
		}

		_ = f.cart.AddItem(ctx, "vase", "Ceramic Vase", 24.99)
		_ = f.cart.AddItem(ctx, "vase", "Ceramic Vase", 24.99)

		stored, ok := f.history.Get(order.OrderNumber)
		if !ok {
			t.Fatal("order not found in history")
		}
		if stored.Items[0].Quantity != 1 {
			t.Fatalf("expected order snapshot quantity 1, got %d", stored.Items[0].Quantity)
		}
	})

	t.Run("order numbers are unique across checkouts", func(t *testing.T) {
		f := newCheckoutFixture(t, nil)

		seen := make(map[string]bool)
		for i := 0; i < 50; i++ {
			_ = f.cart.AddItem(ctx, "chocolate", "Dark Chocolate", 5.99)
			order, err := f.processor.Checkout(ctx, validCustomer())
			if err != nil {
				t.Fatalf("checkout %d failed: %v", i, err)
			}
			if seen[order.OrderNumber] {
				t.Fatalf("duplicate order number %s", order.OrderNumber)
			}
			seen[order.OrderNumber] = true
		}
	})

	t.Run("panicking dispatch does not affect the committed order", func(t *testing.T) {
		f := newCheckoutFixture(t, func(domain.Order) { panic("delivery exploded") })
		_ = f.cart.AddItem(ctx, "lamp", "Desk Lamp", 34.99)

		order, err := f.processor.Checkout(ctx, validCustomer())
		if err != nil {
			t.Fatalf("checkout failed: %v", err)
		}
		if _, ok := f.history.Get(order.OrderNumber); !ok {
			t.Fatal("expected order recorded despite dispatch panic")
		}
		if f.cart.ItemCount() != 0 {
			t.Fatal("expected cart cleared despite dispatch panic")
		}
	})
}
