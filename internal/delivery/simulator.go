// Package delivery simulates the delivery provider the store hands orders
// to. All latency, failures and tracking data are artificial; the contract
// (retry with backoff, carrier tiers, cost tiers) mirrors what a real
// integration would expose.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/vrstore/storefront/internal/catalog"
	"github.com/vrstore/storefront/internal/domain"
)

// ErrDeliveryUnavailable is returned once every retry attempt is exhausted.
// The order stays recorded locally regardless.
var ErrDeliveryUnavailable = errors.New("delivery service unavailable")

type Carrier string

const (
	CarrierColissimo  Carrier = "Colissimo"
	CarrierChronopost Carrier = "Chronopost"
	CarrierDHL        Carrier = "DHL"
)

// Weight tiers for carrier selection, in kilograms.
const (
	chronopostThresholdKg = 5.0
	dhlThresholdKg        = 10.0
)

const signatureThreshold = 500.0

// Config carries the simulator tunables. Latency and backoff shrink to zero
// in tests.
type Config struct {
	MaxAttempts           int
	Backoff               time.Duration
	CreateLatency         time.Duration
	TrackLatency          time.Duration
	FreeShippingThreshold float64
	BaseCost              float64
	WeightThresholdKg     float64
	CostPerKg             float64
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts:           3,
		Backoff:               time.Second,
		CreateLatency:         500 * time.Millisecond,
		TrackLatency:          300 * time.Millisecond,
		FreeShippingThreshold: 100,
		BaseCost:              5,
		WeightThresholdKg:     5,
		CostPerKg:             2,
	}
}

// Confirmation is the simulated provider's answer to a created order.
type Confirmation struct {
	OrderID           string    `json:"order_id"`
	TrackingNumber    string    `json:"tracking_number"`
	Carrier           Carrier   `json:"carrier"`
	ShippingCost      float64   `json:"shipping_cost"`
	EstimatedDelivery time.Time `json:"estimated_delivery"`
	Status            string    `json:"status"`
	RequiresSignature bool      `json:"requires_signature"`
}

// TrackingUpdate is one movement in an order's simulated journey.
type TrackingUpdate struct {
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
	Location  string    `json:"location"`
}

// Tracking is the current simulated position of an order.
type Tracking struct {
	OrderID           string             `json:"order_id"`
	TrackingNumber    string             `json:"tracking_number"`
	Status            domain.OrderStatus `json:"status"`
	CurrentLocation   string             `json:"current_location"`
	EstimatedDelivery time.Time          `json:"estimated_delivery"`
	History           []TrackingUpdate   `json:"history"`
}

// Refund is the stub refund attached to a cancellation.
type Refund struct {
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	Method        string    `json:"method"`
	EstimatedDate time.Time `json:"estimated_date"`
}

// Cancellation acknowledges a cancel request; in this mock it always
// succeeds.
type Cancellation struct {
	OrderID string `json:"order_id"`
	Reason  string `json:"reason"`
	Refund  Refund `json:"refund"`
}

// Estimate is a delivery-time quote for an address.
type Estimate struct {
	EstimatedDays int       `json:"estimated_days"`
	EstimatedDate time.Time `json:"estimated_date"`
}

// Option tweaks a Simulator, mostly for tests.
type Option func(*Simulator)

// WithFault injects a transport fault checked once per attempt. Returning a
// non-nil error fails that attempt.
func WithFault(fault func(attempt int) error) Option {
	return func(s *Simulator) { s.fault = fault }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Simulator) { s.now = now }
}

type Simulator struct {
	cfg     Config
	catalog *catalog.Catalog
	logger  *slog.Logger
	now     func() time.Time
	fault   func(attempt int) error
}

func NewSimulator(cfg Config, cat *catalog.Catalog, logger *slog.Logger, opts ...Option) *Simulator {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	s := &Simulator{
		cfg:     cfg,
		catalog: cat,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOrder registers the order with the simulated provider. It retries
// with increasing backoff and gives up with ErrDeliveryUnavailable after the
// configured number of attempts.
func (s *Simulator) CreateOrder(ctx context.Context, order domain.Order) (Confirmation, error) {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		if err := s.sleep(ctx, s.cfg.CreateLatency); err != nil {
			return Confirmation{}, err
		}

		if s.fault != nil {
			if err := s.fault(attempt); err != nil {
				lastErr = err
				s.logger.Warn("delivery create attempt failed", "order_id", order.OrderNumber, "attempt", attempt, "error", err)
				if attempt < s.cfg.MaxAttempts {
					if err := s.sleep(ctx, time.Duration(attempt)*s.cfg.Backoff); err != nil {
						return Confirmation{}, err
					}
				}
				continue
			}
		}

		confirmation := Confirmation{
			OrderID:           order.OrderNumber,
			TrackingNumber:    trackingNumber(),
			Carrier:           s.selectCarrier(order.Items),
			ShippingCost:      s.ShippingCost(order.Items, order.Total),
			EstimatedDelivery: s.estimatedDelivery(),
			Status:            string(domain.OrderStatusPending),
			RequiresSignature: order.Total > signatureThreshold,
		}
		s.logger.Info("delivery order created",
			"order_id", confirmation.OrderID,
			"tracking_number", confirmation.TrackingNumber,
			"carrier", confirmation.Carrier,
			"shipping_cost", confirmation.ShippingCost)
		return confirmation, nil
	}

	return Confirmation{}, fmt.Errorf("%w after %d attempts: %w", ErrDeliveryUnavailable, s.cfg.MaxAttempts, lastErr)
}

// TrackOrder returns the simulated position of an order. Each call is
// independent and idempotent.
func (s *Simulator) TrackOrder(ctx context.Context, orderID string) (Tracking, error) {
	if err := s.sleep(ctx, s.cfg.TrackLatency); err != nil {
		return Tracking{}, err
	}

	now := s.now()
	return Tracking{
		OrderID:           orderID,
		TrackingNumber:    trackingNumber(),
		Status:            domain.OrderStatusInTransit,
		CurrentLocation:   "sorting center",
		EstimatedDelivery: s.estimatedDelivery(),
		History: []TrackingUpdate{
			{Timestamp: now.Add(-time.Hour), Status: "order_placed", Location: "VR store"},
			{Timestamp: now, Status: "dispatched", Location: "warehouse"},
		},
	}, nil
}

// CancelOrder always succeeds in this mock and returns a refund stub with a
// seven-day estimated refund date.
func (s *Simulator) CancelOrder(ctx context.Context, orderID, reason string) (Cancellation, error) {
	if err := s.sleep(ctx, s.cfg.TrackLatency); err != nil {
		return Cancellation{}, err
	}

	return Cancellation{
		OrderID: orderID,
		Reason:  reason,
		Refund: Refund{
			Amount:        0, // settled against the original payment later
			Currency:      "EUR",
			Method:        "original_payment",
			EstimatedDate: s.now().Add(7 * 24 * time.Hour),
		},
	}, nil
}

// EstimateDelivery quotes delivery time from the postal code: central Paris
// next day, overseas a week, everywhere else the default.
func (s *Simulator) EstimateDelivery(postalCode string) Estimate {
	days := 3
	switch {
	case strings.HasPrefix(postalCode, "75"):
		days = 1
	case strings.HasPrefix(postalCode, "9"):
		days = 7
	}
	return Estimate{
		EstimatedDays: days,
		EstimatedDate: s.now().Add(time.Duration(days) * 24 * time.Hour),
	}
}

// TotalWeightKg sums the catalog weights of the given line items.
func (s *Simulator) TotalWeightKg(items []domain.LineItem) float64 {
	var total float64
	for _, item := range items {
		total += s.catalog.WeightKg(item.ProductID) * float64(item.Quantity)
	}
	return total
}

func (s *Simulator) selectCarrier(items []domain.LineItem) Carrier {
	weight := s.TotalWeightKg(items)
	switch {
	case weight > dhlThresholdKg:
		return CarrierDHL
	case weight > chronopostThresholdKg:
		return CarrierChronopost
	default:
		return CarrierColissimo
	}
}

// ShippingCost applies the weight tier above the threshold, then the
// free-shipping rule on the order value.
func (s *Simulator) ShippingCost(items []domain.LineItem, orderTotal float64) float64 {
	if orderTotal >= s.cfg.FreeShippingThreshold {
		return 0
	}

	cost := s.cfg.BaseCost
	if weight := s.TotalWeightKg(items); weight > s.cfg.WeightThresholdKg {
		cost += (weight - s.cfg.WeightThresholdKg) * s.cfg.CostPerKg
	}
	return cost
}

func (s *Simulator) estimatedDelivery() time.Time {
	days := rand.IntN(3) + 2 // 2-4 days
	return s.now().Add(time.Duration(days) * 24 * time.Hour)
}

func trackingNumber() string {
	return fmt.Sprintf("FR%09d", rand.IntN(900000000)+100000000)
}

func (s *Simulator) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
