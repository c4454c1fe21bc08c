// Package messaging bridges the in-process event bus to Kafka so other
// systems can react to storefront orders.
package messaging

import (
	"context"
	"log/slog"
	"time"

	"github.com/vrstore/storefront/internal/domain"
	"github.com/vrstore/storefront/internal/events"
)

// Publisher is the outbound side the relay writes to.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// Relay forwards order lifecycle events from the bus onto a Kafka topic.
// Publishing happens on the caller's goroutine with a bounded timeout;
// broker failures are logged and never propagate back into checkout.
type Relay struct {
	publisher Publisher
	logger    *slog.Logger
	timeout   time.Duration

	unsubscribe func()
}

func NewRelay(publisher Publisher, logger *slog.Logger) *Relay {
	return &Relay{
		publisher: publisher,
		logger:    logger,
		timeout:   5 * time.Second,
	}
}

// Attach subscribes the relay to order placements on the bus.
func (r *Relay) Attach(bus *events.Bus) {
	r.unsubscribe = bus.Subscribe(domain.EventOrderPlaced, func(data any) {
		event, ok := data.(domain.OrderPlacedEvent)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		if err := r.publisher.Publish(ctx, event.OrderNumber, event); err != nil {
			r.logger.Error("failed to relay order placed event", "error", err, "order_number", event.OrderNumber)
			return
		}
		r.logger.Info("order placed event relayed", "order_number", event.OrderNumber)
	})
}

// Detach removes the bus subscription.
func (r *Relay) Detach() {
	if r.unsubscribe != nil {
		r.unsubscribe()
		r.unsubscribe = nil
	}
}
