package orders

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vrstore/storefront/internal/cart"
	"github.com/vrstore/storefront/internal/domain"
	"github.com/vrstore/storefront/internal/events"
	"github.com/vrstore/storefront/internal/validate"
)

// ErrEmptyCart guards checkout: no order is ever created from an empty cart.
var ErrEmptyCart = errors.New("cart is empty")

// Dispatch hands a committed order to the delivery collaborator. It is
// fire-and-forget from checkout's perspective; its outcome never rolls the
// order back.
type Dispatch func(order domain.Order)

// Processor runs a single checkout attempt: guard, validate, materialize,
// persist, dispatch, commit.
type Processor struct {
	cart     *cart.Cart
	history  *History
	rules    validate.Rules
	bus      *events.Bus
	dispatch Dispatch
	logger   *slog.Logger
	prefix   string
	now      func() time.Time
}

func NewProcessor(c *cart.Cart, history *History, rules validate.Rules, bus *events.Bus, dispatch Dispatch, logger *slog.Logger, orderPrefix string) *Processor {
	return &Processor{
		cart:     c,
		history:  history,
		rules:    rules,
		bus:      bus,
		dispatch: dispatch,
		logger:   logger,
		prefix:   orderPrefix,
		now:      time.Now,
	}
}

// Checkout creates an order from the current cart and the submitted
// customer fields. On any failure before commit the cart is left untouched.
func (p *Processor) Checkout(ctx context.Context, customer domain.Customer) (domain.Order, error) {
	if p.cart.ItemCount() == 0 {
		return domain.Order{}, ErrEmptyCart
	}

	result := p.rules.Customer(customer)
	if !result.Valid {
		return domain.Order{}, &validate.ValidationError{Fields: result.Errors}
	}

	snapshot := p.cart.Snapshot()
	order := domain.Order{
		OrderNumber: p.prefix + "-" + uuid.NewString(),
		Customer:    customer,
		Items:       snapshot.Items,
		Total:       snapshot.Total,
		OrderDate:   p.now(),
		Status:      domain.OrderStatusPending,
	}

	// Persistence failure inside Append is logged and non-fatal; the order
	// is committed either way.
	p.history.Append(ctx, order)

	p.safeDispatch(order)

	p.cart.Clear(ctx)
	p.bus.Publish(domain.EventOrderPlaced, domain.OrderPlacedEvent{
		OrderNumber: order.OrderNumber,
		Items:       order.Items,
		Total:       order.Total,
		Timestamp:   order.OrderDate,
	})

	p.logger.Info("order placed", "order_number", order.OrderNumber, "total", order.Total, "items", order.ItemCount())
	return order, nil
}

// safeDispatch isolates delivery handoff failures from the already
// committed order.
func (p *Processor) safeDispatch(order domain.Order) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("delivery dispatch panicked", "order_number", order.OrderNumber, "panic", r)
		}
	}()
	p.dispatch(order)
}
