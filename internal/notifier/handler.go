// Package notifier consumes order placed events from Kafka and sends the
// customer-facing confirmation through the email service.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/vrstore/storefront/internal/domain"
)

type Handler struct {
	emailServiceURL string
	recipient       string
	httpClient      *http.Client
	logger          *slog.Logger
}

func NewHandler(emailServiceURL, recipient string, client *http.Client, logger *slog.Logger) *Handler {
	return &Handler{
		emailServiceURL: emailServiceURL,
		recipient:       recipient,
		httpClient:      client,
		logger:          logger,
	}
}

// Handle processes one order placed payload from the topic.
func (h *Handler) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderPlacedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order placed event: %w", err)
	}

	h.logger.Info("processing order placed event", "order_number", event.OrderNumber, "total", event.Total)

	if err := h.sendConfirmationEmail(ctx, event); err != nil {
		h.logger.Error("failed to send confirmation email", "error", err, "order_number", event.OrderNumber)
		return fmt.Errorf("send confirmation email: %w", err)
	}

	h.logger.Info("order confirmation sent", "order_number", event.OrderNumber)
	return nil
}

func (h *Handler) sendConfirmationEmail(ctx context.Context, event domain.OrderPlacedEvent) error {
	itemCount := 0
	for _, item := range event.Items {
		itemCount += item.Quantity
	}

	body := map[string]string{
		"to":      h.recipient,
		"subject": "Order Confirmation: " + event.OrderNumber,
		"body":    fmt.Sprintf("Your order %s with %d items (%.2f EUR) has been placed.", event.OrderNumber, itemCount, event.Total),
	}

	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.emailServiceURL+"/send", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("email service returned status %d", resp.StatusCode)
	}

	return nil
}
