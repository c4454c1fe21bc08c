package storefront

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vrstore/storefront/internal/catalog"
	"github.com/vrstore/storefront/internal/delivery"
	"github.com/vrstore/storefront/internal/domain"
	"github.com/vrstore/storefront/internal/events"
	"github.com/vrstore/storefront/internal/shop"
	"github.com/vrstore/storefront/internal/storage"
	"github.com/vrstore/storefront/internal/validate"
)

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cat := catalog.New()

	deliveryCfg := delivery.DefaultConfig()
	deliveryCfg.Backoff = 0
	deliveryCfg.CreateLatency = 0
	deliveryCfg.TrackLatency = 0

	s := shop.New(
		storage.NewMemoryStore(),
		events.NewBus(logger),
		cat,
		delivery.NewSimulator(deliveryCfg, cat, logger),
		validate.DefaultRules(),
		logger,
		shop.Config{Currency: "EUR", OrderPrefix: "VR", MaxQuantity: 99, ExpiryDays: 7},
	)
	t.Cleanup(s.Close)

	mux := http.NewServeMux()
	NewHandler(s, logger).Register(mux)
	return mux
}

func doRequest(t *testing.T, mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response: %v (%s)", err, rec.Body.String())
	}
	return out
}

func TestHandler_Products(t *testing.T) {
	mux := newTestMux(t)

	t.Run("lists the catalog", func(t *testing.T) {
		rec := doRequest(t, mux, http.MethodGet, "/products", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		products := decodeJSON[[]domain.Product](t, rec)
		if len(products) == 0 {
			t.Fatal("expected a non-empty catalog")
		}
	})

	t.Run("returns a single product", func(t *testing.T) {
		rec := doRequest(t, mux, http.MethodGet, "/products/laptop", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		product := decodeJSON[domain.Product](t, rec)
		if product.ID != "laptop" {
			t.Fatalf("expected laptop, got %s", product.ID)
		}
	})

	t.Run("unknown product is 404", func(t *testing.T) {
		rec := doRequest(t, mux, http.MethodGet, "/products/hoverboard", "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestHandler_CartFlow(t *testing.T) {
	mux := newTestMux(t)

	rec := doRequest(t, mux, http.MethodPost, "/cart/items", `{"product_id":"laptop"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	snapshot := decodeJSON[domain.CartSnapshot](t, rec)
	if snapshot.ItemCount != 1 {
		t.Fatalf("expected 1 item, got %d", snapshot.ItemCount)
	}

	t.Run("unknown product is rejected", func(t *testing.T) {
		rec := doRequest(t, mux, http.MethodPost, "/cart/items", `{"product_id":"hoverboard"}`)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("malformed body is rejected", func(t *testing.T) {
		rec := doRequest(t, mux, http.MethodPost, "/cart/items", `{`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("quantity can be adjusted", func(t *testing.T) {
		rec := doRequest(t, mux, http.MethodPatch, "/cart/items/laptop", `{"delta":2}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if snapshot := decodeJSON[domain.CartSnapshot](t, rec); snapshot.ItemCount != 3 {
			t.Fatalf("expected 3 items, got %d", snapshot.ItemCount)
		}
	})

	t.Run("total includes shipping", func(t *testing.T) {
		rec := doRequest(t, mux, http.MethodGet, "/cart/total", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		breakdown := decodeJSON[shop.TotalBreakdown](t, rec)
		if breakdown.Total != breakdown.Subtotal+breakdown.Shipping {
			t.Fatalf("inconsistent breakdown: %+v", breakdown)
		}
	})

	t.Run("items can be removed", func(t *testing.T) {
		rec := doRequest(t, mux, http.MethodDelete, "/cart/items/laptop", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if snapshot := decodeJSON[domain.CartSnapshot](t, rec); snapshot.ItemCount != 0 {
			t.Fatalf("expected empty cart, got %d items", snapshot.ItemCount)
		}
	})
}

func TestHandler_Checkout(t *testing.T) {
	customerJSON := `{
		"name": "Jean Dupont",
		"address": "12 rue de la Paix",
		"city": "Paris",
		"postal_code": "75001",
		"phone": "01 23 45 67 89"
	}`

	t.Run("empty cart is a bad request", func(t *testing.T) {
		mux := newTestMux(t)
		rec := doRequest(t, mux, http.MethodPost, "/checkout", customerJSON)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("invalid customer returns field errors", func(t *testing.T) {
		mux := newTestMux(t)
		doRequest(t, mux, http.MethodPost, "/cart/items", `{"product_id":"vase"}`)

		rec := doRequest(t, mux, http.MethodPost, "/checkout", `{"name":"J","address":"x","city":"","postal_code":"1","phone":"2"}`)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}

		var resp struct {
			Error  string            `json:"error"`
			Fields map[string]string `json:"fields"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if _, ok := resp.Fields["postal_code"]; !ok {
			t.Fatalf("expected postal_code error, got %v", resp.Fields)
		}
	})

	t.Run("valid checkout creates a pending order", func(t *testing.T) {
		mux := newTestMux(t)
		doRequest(t, mux, http.MethodPost, "/cart/items", `{"product_id":"phone"}`)

		rec := doRequest(t, mux, http.MethodPost, "/checkout", customerJSON)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}

		order := decodeJSON[domain.Order](t, rec)
		if !strings.HasPrefix(order.OrderNumber, "VR-") {
			t.Fatalf("expected VR- prefixed order number, got %s", order.OrderNumber)
		}
		if order.Status != domain.OrderStatusPending {
			t.Fatalf("expected pending, got %s", order.Status)
		}

		// The new order shows up in the history endpoints.
		listRec := doRequest(t, mux, http.MethodGet, "/orders", "")
		if list := decodeJSON[[]domain.Order](t, listRec); len(list) != 1 {
			t.Fatalf("expected 1 order, got %d", len(list))
		}
		getRec := doRequest(t, mux, http.MethodGet, "/orders/"+order.OrderNumber, "")
		if getRec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", getRec.Code)
		}
	})
}

func TestHandler_OrderEndpoints(t *testing.T) {
	mux := newTestMux(t)

	t.Run("unknown order lookups are 404", func(t *testing.T) {
		for _, path := range []string{"/orders/VR-404", "/orders/VR-404/tracking"} {
			if rec := doRequest(t, mux, http.MethodGet, path, ""); rec.Code != http.StatusNotFound {
				t.Errorf("expected 404 for %s, got %d", path, rec.Code)
			}
		}
		rec := doRequest(t, mux, http.MethodPost, "/orders/VR-404/cancel", `{"reason":"test"}`)
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404 for cancel, got %d", rec.Code)
		}
	})

	t.Run("statistics start empty", func(t *testing.T) {
		rec := doRequest(t, mux, http.MethodGet, "/orders/statistics", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("export is downloadable JSON", func(t *testing.T) {
		rec := doRequest(t, mux, http.MethodGet, "/orders/export", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if disposition := rec.Header().Get("Content-Disposition"); !strings.Contains(disposition, "orders.json") {
			t.Fatalf("expected attachment disposition, got %q", disposition)
		}
	})
}

func TestHandler_EstimateDelivery(t *testing.T) {
	mux := newTestMux(t)

	t.Run("missing postal code is rejected", func(t *testing.T) {
		rec := doRequest(t, mux, http.MethodGet, "/delivery/estimate", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("quotes by postal code", func(t *testing.T) {
		rec := doRequest(t, mux, http.MethodGet, "/delivery/estimate?postal_code=75001", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		estimate := decodeJSON[delivery.Estimate](t, rec)
		if estimate.EstimatedDays != 1 {
			t.Fatalf("expected 1 day for Paris, got %d", estimate.EstimatedDays)
		}
	})
}
