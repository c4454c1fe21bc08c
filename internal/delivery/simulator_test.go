package delivery

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/vrstore/storefront/internal/catalog"
	"github.com/vrstore/storefront/internal/domain"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Backoff = 0
	cfg.CreateLatency = 0
	cfg.TrackLatency = 0
	return cfg
}

func newTestSimulator(t *testing.T, opts ...Option) *Simulator {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSimulator(testConfig(), catalog.New(), logger, opts...)
}

func lineItem(id string, quantity int, price float64) domain.LineItem {
	return domain.LineItem{ProductID: id, Name: id, UnitPrice: price, Quantity: quantity, AddedAt: time.Now()}
}

func TestSimulator_CreateOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("returns a confirmation with tracking data", func(t *testing.T) {
		sim := newTestSimulator(t)

		order := domain.Order{
			OrderNumber: "VR-1",
			Items:       []domain.LineItem{lineItem("phone", 1, 699.99)},
			Total:       699.99,
		}

		confirmation, err := sim.CreateOrder(ctx, order)
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if confirmation.OrderID != "VR-1" {
			t.Errorf("expected order id VR-1, got %s", confirmation.OrderID)
		}
		if len(confirmation.TrackingNumber) != 11 || confirmation.TrackingNumber[:2] != "FR" {
			t.Errorf("expected FR-prefixed 11-char tracking number, got %q", confirmation.TrackingNumber)
		}
		if confirmation.Carrier != CarrierColissimo {
			t.Errorf("expected Colissimo for a light parcel, got %s", confirmation.Carrier)
		}
		if confirmation.ShippingCost != 0 {
			t.Errorf("expected free shipping over threshold, got %v", confirmation.ShippingCost)
		}
		if !confirmation.RequiresSignature {
			t.Error("expected signature requirement above 500")
		}

		days := time.Until(confirmation.EstimatedDelivery)
		if days < 47*time.Hour || days > 97*time.Hour {
			t.Errorf("expected delivery estimate 2-4 days out, got %v", confirmation.EstimatedDelivery)
		}
	})

	t.Run("retries transient faults and succeeds", func(t *testing.T) {
		var attempts int
		sim := newTestSimulator(t, WithFault(func(attempt int) error {
			attempts = attempt
			if attempt < 3 {
				return errors.New("connection reset")
			}
			return nil
		}))

		order := domain.Order{OrderNumber: "VR-2", Items: []domain.LineItem{lineItem("phone", 1, 10)}, Total: 10}
		if _, err := sim.CreateOrder(ctx, order); err != nil {
			t.Fatalf("expected success on third attempt, got %v", err)
		}
		if attempts != 3 {
			t.Fatalf("expected 3 attempts, got %d", attempts)
		}
	})

	t.Run("exhausted retries fail with ErrDeliveryUnavailable", func(t *testing.T) {
		var attempts int
		sim := newTestSimulator(t, WithFault(func(attempt int) error {
			attempts++
			return errors.New("service down")
		}))

		order := domain.Order{OrderNumber: "VR-3", Items: []domain.LineItem{lineItem("phone", 1, 10)}, Total: 10}
		_, err := sim.CreateOrder(ctx, order)
		if !errors.Is(err, ErrDeliveryUnavailable) {
			t.Fatalf("expected ErrDeliveryUnavailable, got %v", err)
		}
		if attempts != 3 {
			t.Fatalf("expected exactly 3 attempts, got %d", attempts)
		}
	})

	t.Run("cancelled context stops retrying", func(t *testing.T) {
		cfg := testConfig()
		cfg.Backoff = time.Minute
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		sim := NewSimulator(cfg, catalog.New(), logger, WithFault(func(int) error {
			return errors.New("down")
		}))

		cancelCtx, cancel := context.WithCancel(ctx)
		cancel()

		order := domain.Order{OrderNumber: "VR-4", Items: []domain.LineItem{lineItem("phone", 1, 10)}, Total: 10}
		if _, err := sim.CreateOrder(cancelCtx, order); !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	})
}

func TestSimulator_CarrierTiers(t *testing.T) {
	sim := newTestSimulator(t)

	tests := []struct {
		name  string
		items []domain.LineItem
		want  Carrier
	}{
		{"light parcel goes Colissimo", []domain.LineItem{lineItem("chocolate", 2, 5.99)}, CarrierColissimo},
		{"mid weight goes Chronopost", []domain.LineItem{lineItem("laptop", 2, 899.99), lineItem("lamp", 1, 34.99)}, CarrierChronopost},
		{"heavy order goes DHL", []domain.LineItem{lineItem("laptop", 5, 899.99)}, CarrierDHL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sim.selectCarrier(tt.items); got != tt.want {
				t.Fatalf("expected %s, got %s (weight %.1fkg)", tt.want, got, sim.TotalWeightKg(tt.items))
			}
		})
	}
}

func TestSimulator_ShippingCost(t *testing.T) {
	sim := newTestSimulator(t)

	t.Run("order value at threshold ships free", func(t *testing.T) {
		items := []domain.LineItem{lineItem("laptop", 3, 50)}
		if cost := sim.ShippingCost(items, 150); cost != 0 {
			t.Fatalf("expected free shipping, got %v", cost)
		}
	})

	t.Run("weight above threshold pays the surcharge", func(t *testing.T) {
		// 6kg at 2.5kg each is 1kg over the 5kg threshold.
		items := []domain.LineItem{lineItem("laptop", 2, 20), lineItem("coffee", 2, 5)}
		weight := sim.TotalWeightKg(items)
		if math.Abs(weight-6.0) > 1e-9 {
			t.Fatalf("expected 6kg fixture, got %v", weight)
		}

		cost := sim.ShippingCost(items, 50)
		if math.Abs(cost-7.0) > 1e-9 {
			t.Fatalf("expected base 5 + 1kg surcharge 2 = 7, got %v", cost)
		}
	})

	t.Run("light cheap order pays base cost", func(t *testing.T) {
		items := []domain.LineItem{lineItem("chocolate", 1, 5.99)}
		if cost := sim.ShippingCost(items, 5.99); cost != 5 {
			t.Fatalf("expected base cost 5, got %v", cost)
		}
	})
}

func TestSimulator_TrackOrder(t *testing.T) {
	sim := newTestSimulator(t)

	tracking, err := sim.TrackOrder(context.Background(), "VR-1")
	if err != nil {
		t.Fatalf("track failed: %v", err)
	}
	if tracking.OrderID != "VR-1" {
		t.Errorf("expected order id VR-1, got %s", tracking.OrderID)
	}
	if tracking.Status != domain.OrderStatusInTransit {
		t.Errorf("expected in_transit, got %s", tracking.Status)
	}
	if len(tracking.History) != 2 {
		t.Errorf("expected 2 history entries, got %d", len(tracking.History))
	}
}

func TestSimulator_CancelOrder(t *testing.T) {
	sim := newTestSimulator(t)

	cancellation, err := sim.CancelOrder(context.Background(), "VR-1", "changed my mind")
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancellation.OrderID != "VR-1" || cancellation.Reason != "changed my mind" {
		t.Errorf("unexpected cancellation: %+v", cancellation)
	}
	if cancellation.Refund.Method != "original_payment" {
		t.Errorf("expected refund stub, got %+v", cancellation.Refund)
	}
}

func TestSimulator_EstimateDelivery(t *testing.T) {
	sim := newTestSimulator(t)

	if estimate := sim.EstimateDelivery("75001"); estimate.EstimatedDays != 1 {
		t.Errorf("expected 1 day for Paris, got %d", estimate.EstimatedDays)
	}
	if estimate := sim.EstimateDelivery("97400"); estimate.EstimatedDays != 7 {
		t.Errorf("expected 7 days for overseas, got %d", estimate.EstimatedDays)
	}
	if estimate := sim.EstimateDelivery("33000"); estimate.EstimatedDays != 3 {
		t.Errorf("expected default 3 days, got %d", estimate.EstimatedDays)
	}
}
