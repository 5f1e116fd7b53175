package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wovenworks/storefront/internal/catalog"
	"github.com/wovenworks/storefront/internal/shipping"
	"github.com/wovenworks/storefront/internal/tax"
	"github.com/wovenworks/storefront/internal/wholesale"
)

// QuoteHandler serves the pre-checkout quoting endpoints. None of them
// mutate anything; the client polls them freely while the shopper edits.
type QuoteHandler struct {
	Shipping *shipping.RateProvider
	Tax      *tax.Calculator
	Catalog  catalog.Catalog
}

func (h *QuoteHandler) Register(r chi.Router) {
	r.Post("/shipping/quote", h.shippingQuote)
	r.Post("/tax/quote", h.taxQuote)
	r.Post("/wholesale/quote", h.wholesaleQuote)
}

func (h *QuoteHandler) shippingQuote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Destination shipping.Destination `json:"destination"`
		Items       []shipping.Item      `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "validation", "malformed JSON body")
		return
	}
	opts, err := h.Shipping.Quote(req.Destination, req.Items)
	switch {
	case errors.Is(err, shipping.ErrIncompleteInput):
		writeErr(w, http.StatusBadRequest, "validation", err.Error())
	case errors.Is(err, shipping.ErrUnsupportedDestination):
		// not an error to the client: the list is empty and the reason says why
		writeJSON(w, http.StatusOK, map[string]any{"options": []shipping.Option{}, "reason": err.Error()})
	case err != nil:
		writeErr(w, http.StatusInternalServerError, "internal", "quote failed")
	default:
		writeJSON(w, http.StatusOK, map[string]any{"options": opts})
	}
}

func (h *QuoteHandler) taxQuote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SubtotalCents int64  `json:"subtotal_cents"`
		ShippingCents int64  `json:"shipping_cents"`
		Country       string `json:"country"`
		State         string `json:"state"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "validation", "malformed JSON body")
		return
	}
	if req.SubtotalCents < 0 || req.ShippingCents < 0 {
		writeErr(w, http.StatusBadRequest, "validation", "amounts must be non-negative")
		return
	}
	writeJSON(w, http.StatusOK, h.Tax.Compute(req.SubtotalCents, req.ShippingCents, req.Country, req.State))
}

func (h *QuoteHandler) wholesaleQuote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"product_id"`
		Qty       int    `json:"qty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "validation", "malformed JSON body")
		return
	}
	if req.Qty <= 0 {
		writeErr(w, http.StatusBadRequest, "validation", "qty must be a positive integer")
		return
	}
	prod, err := h.Catalog.Product(r.Context(), req.ProductID)
	if errors.Is(err, catalog.ErrProductNotFound) {
		writeErr(w, http.StatusNotFound, "not_found", "unknown product")
		return
	}
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "internal", "catalog lookup failed")
		return
	}

	total, percent, eligible := wholesale.QuoteTotal(req.Qty, prod.UnitPriceCents)
	writeJSON(w, http.StatusOK, map[string]any{
		"eligible":         eligible,
		"min_qty":          wholesale.MinQty,
		"discount_percent": percent,
		"qty":              req.Qty,
		"unit_price_cents": prod.UnitPriceCents,
		"total_cents":      total,
		"currency":         prod.Currency,
	})
}
