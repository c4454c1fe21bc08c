// Package storefront exposes the shop over HTTP for the browser client.
package storefront

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/vrstore/storefront/internal/domain"
	"github.com/vrstore/storefront/internal/orders"
	"github.com/vrstore/storefront/internal/shop"
	"github.com/vrstore/storefront/internal/telemetry"
	"github.com/vrstore/storefront/internal/validate"
)

type Handler struct {
	shop   *shop.Shop
	logger *slog.Logger
}

func NewHandler(s *shop.Shop, logger *slog.Logger) *Handler {
	return &Handler{shop: s, logger: logger}
}

// Register wires all storefront routes onto the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /products", telemetry.WithHTTPRoute(h.HandleListProducts))
	mux.HandleFunc("GET /products/{id}", telemetry.WithHTTPRoute(h.HandleGetProduct))

	mux.HandleFunc("GET /cart", telemetry.WithHTTPRoute(h.HandleGetCart))
	mux.HandleFunc("POST /cart/items", telemetry.WithHTTPRoute(h.HandleAddItem))
	mux.HandleFunc("PATCH /cart/items/{id}", telemetry.WithHTTPRoute(h.HandleUpdateQuantity))
	mux.HandleFunc("DELETE /cart/items/{id}", telemetry.WithHTTPRoute(h.HandleRemoveItem))
	mux.HandleFunc("DELETE /cart", telemetry.WithHTTPRoute(h.HandleClearCart))
	mux.HandleFunc("GET /cart/total", telemetry.WithHTTPRoute(h.HandleCartTotal))

	mux.HandleFunc("POST /checkout", telemetry.WithHTTPRoute(h.HandleCheckout))

	mux.HandleFunc("GET /orders", telemetry.WithHTTPRoute(h.HandleListOrders))
	mux.HandleFunc("GET /orders/export", telemetry.WithHTTPRoute(h.HandleExportOrders))
	mux.HandleFunc("GET /orders/statistics", telemetry.WithHTTPRoute(h.HandleOrderStatistics))
	mux.HandleFunc("GET /orders/{number}", telemetry.WithHTTPRoute(h.HandleGetOrder))
	mux.HandleFunc("GET /orders/{number}/tracking", telemetry.WithHTTPRoute(h.HandleTrackOrder))
	mux.HandleFunc("POST /orders/{number}/cancel", telemetry.WithHTTPRoute(h.HandleCancelOrder))

	mux.HandleFunc("GET /delivery/estimate", telemetry.WithHTTPRoute(h.HandleEstimateDelivery))
}

func (h *Handler) HandleListProducts(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.shop.Products())
}

func (h *Handler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, ok := h.shop.Product(r.PathValue("id"))
	if !ok {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}
	h.writeJSON(w, http.StatusOK, product)
}

func (h *Handler) HandleGetCart(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.shop.Cart())
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
}

func (h *Handler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, ok := h.shop.Product(req.ProductID)
	if !ok {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	if err := h.shop.AddToCart(r.Context(), product.ID, product.Name, product.Price); err != nil {
		h.logger.Error("failed to add item", "error", err, "product_id", product.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("item added to cart", "product_id", product.ID)
	h.writeJSON(w, http.StatusOK, h.shop.Cart())
}

type updateQuantityRequest struct {
	Delta int `json:"delta"`
}

func (h *Handler) HandleUpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.shop.UpdateQuantity(r.Context(), r.PathValue("id"), req.Delta)
	h.writeJSON(w, http.StatusOK, h.shop.Cart())
}

func (h *Handler) HandleRemoveItem(w http.ResponseWriter, r *http.Request) {
	h.shop.RemoveFromCart(r.Context(), r.PathValue("id"))
	h.writeJSON(w, http.StatusOK, h.shop.Cart())
}

func (h *Handler) HandleClearCart(w http.ResponseWriter, r *http.Request) {
	h.shop.ClearCart(r.Context())
	h.writeJSON(w, http.StatusOK, h.shop.Cart())
}

func (h *Handler) HandleCartTotal(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.shop.CalculateTotal())
}

func (h *Handler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	var customer domain.Customer
	if err := json.NewDecoder(r.Body).Decode(&customer); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.shop.Checkout(r.Context(), customer)
	if err != nil {
		var validationErr *validate.ValidationError
		switch {
		case errors.As(err, &validationErr):
			h.writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":  "validation failed",
				"fields": validationErr.Fields,
			})
		case errors.Is(err, orders.ErrEmptyCart):
			h.writeError(w, http.StatusBadRequest, "cart is empty")
		default:
			h.logger.Error("checkout failed", "error", err)
			h.writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.logger.Info("checkout complete", "order_number", order.OrderNumber)
	h.writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) HandleListOrders(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.shop.Orders())
}

func (h *Handler) HandleGetOrder(w http.ResponseWriter, r *http.Request) {
	order, ok := h.shop.Order(r.PathValue("number"))
	if !ok {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}
	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) HandleExportOrders(w http.ResponseWriter, r *http.Request) {
	data, err := h.shop.ExportOrders()
	if err != nil {
		h.logger.Error("failed to export orders", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="orders.json"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Error("failed to write export", "error", err)
	}
}

func (h *Handler) HandleOrderStatistics(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.shop.Statistics())
}

func (h *Handler) HandleTrackOrder(w http.ResponseWriter, r *http.Request) {
	tracking, err := h.shop.TrackOrder(r.Context(), r.PathValue("number"))
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			h.writeError(w, http.StatusNotFound, "order not found")
			return
		}
		h.logger.Error("failed to track order", "error", err)
		h.writeError(w, http.StatusBadGateway, "delivery service unavailable")
		return
	}
	h.writeJSON(w, http.StatusOK, tracking)
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) HandleCancelOrder(w http.ResponseWriter, r *http.Request) {
	var req cancelOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cancellation, err := h.shop.CancelOrder(r.Context(), r.PathValue("number"), req.Reason)
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			h.writeError(w, http.StatusNotFound, "order not found")
			return
		}
		h.logger.Error("failed to cancel order", "error", err)
		h.writeError(w, http.StatusBadGateway, "delivery service unavailable")
		return
	}

	h.logger.Info("order cancelled", "order_number", cancellation.OrderID)
	h.writeJSON(w, http.StatusOK, cancellation)
}

func (h *Handler) HandleEstimateDelivery(w http.ResponseWriter, r *http.Request) {
	postalCode := r.URL.Query().Get("postal_code")
	if postalCode == "" {
		h.writeError(w, http.StatusBadRequest, "missing postal_code")
		return
	}
	h.writeJSON(w, http.StatusOK, h.shop.EstimateDelivery(postalCode))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
