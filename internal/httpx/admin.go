package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/wovenworks/storefront/internal/catalog"
	"github.com/wovenworks/storefront/internal/checkout"
	"github.com/wovenworks/storefront/internal/inventory"
	"github.com/wovenworks/storefront/internal/lifecycle"
	"github.com/wovenworks/storefront/internal/orders"
	"github.com/wovenworks/storefront/internal/redisx"
)

// AdminHandler is the back-office surface: order inspection, status changes,
// cancellation, the fulfillment checklist, and in-person sale recording.
// Authentication sits in front of this router; the actor header only labels
// history entries.
type AdminHandler struct {
	Store       orders.Store
	Lifecycle   *lifecycle.Manager
	Fulfillment *lifecycle.Workflow
	Ledger      inventory.Ledger
	Catalog     catalog.Catalog
	R           *redis.Client
}

// invalidateStatus drops the cached status projection after a mutation so the
// tracking endpoint never serves the old status for a full TTL.
func (h *AdminHandler) invalidateStatus(ctx context.Context, orderID string) {
	if h.R == nil {
		return
	}
	_ = h.R.Del(ctx, fmt.Sprintf(redisx.KeyOrderStatus, orderID)).Err()
}

func (h *AdminHandler) Register(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Get("/orders/{id}", h.getOrder)
		r.Patch("/orders/{id}", h.updateStatus)
		r.Post("/orders/{id}/cancel", h.cancelOrder)
		r.Post("/orders/{id}/fulfillment/{step}", h.fulfillmentStep)
		r.Post("/products/{id}/sale", h.recordSale)
	})
}

func actor(r *http.Request) string {
	if a := r.Header.Get("X-Admin-Actor"); a != "" {
		return a
	}
	return "admin"
}

func (h *AdminHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, orders.ErrNotFound) {
		writeErr(w, http.StatusNotFound, "not_found", "order not found")
		return
	}
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "internal", "order load failed")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// updateStatus drives forward transitions. shipped is special: it goes
// through the fulfillment workflow so the checklist and tracking rules apply
// no matter which endpoint the operator used.
func (h *AdminHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		Status         string `json:"status"`
		TrackingNumber string `json:"tracking_number"`
		Note           string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "validation", "malformed JSON body")
		return
	}
	if req.Status == "" {
		writeErr(w, http.StatusBadRequest, "validation", "status is required",
			checkout.FieldError{Path: "status", Message: "required"})
		return
	}

	if req.Status == string(orders.StatusShipped) {
		if err := h.Fulfillment.Ship(r.Context(), id, req.TrackingNumber, actor(r)); err != nil {
			writeLifecycleErr(w, err)
			return
		}
	} else {
		next, err := orders.ParseStatus(req.Status)
		if err != nil {
			writeErr(w, http.StatusBadRequest, "validation", err.Error(),
				checkout.FieldError{Path: "status", Message: err.Error()})
			return
		}
		if err := h.Lifecycle.Transition(r.Context(), id, next, actor(r), req.Note); err != nil {
			writeLifecycleErr(w, err)
			return
		}
	}

	h.invalidateStatus(r.Context(), id)
	o, err := h.Store.Get(r.Context(), id)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "internal", "order reload failed")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *AdminHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		Reason string `json:"reason"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, "validation", "malformed JSON body")
			return
		}
	}

	res, err := h.Lifecycle.Cancel(r.Context(), id, req.Reason, actor(r))
	if err != nil {
		writeLifecycleErr(w, err)
		return
	}
	h.invalidateStatus(r.Context(), id)
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         orders.StatusCancelled,
		"refund_id":      res.RefundID,
		"refunded":       res.RefundID != "",
		"refund_pending": res.RefundErr != nil,
		"email_sent":     res.EmailSent,
	})
}

func (h *AdminHandler) fulfillmentStep(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	step := chi.URLParam(r, "step")

	if step == lifecycle.StepShip {
		var req struct {
			TrackingNumber string `json:"tracking_number"`
		}
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeErr(w, http.StatusBadRequest, "validation", "malformed JSON body")
				return
			}
		}
		if err := h.Fulfillment.Ship(r.Context(), id, req.TrackingNumber, actor(r)); err != nil {
			writeLifecycleErr(w, err)
			return
		}
		h.invalidateStatus(r.Context(), id)
	} else if err := h.Fulfillment.Complete(r.Context(), id, step); err != nil {
		writeLifecycleErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order_id": id, "step": step, "done": true})
}

// recordSale decrements stock for an over-the-counter sale. The batch is
// all-or-nothing: one short line rejects every line with per-line detail.
func (h *AdminHandler) recordSale(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")
	var req struct {
		Lines []inventory.AdjustLine `json:"lines"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "validation", "malformed JSON body")
		return
	}
	if len(req.Lines) == 0 {
		writeErr(w, http.StatusBadRequest, "validation", "lines must not be empty",
			checkout.FieldError{Path: "lines", Message: "required"})
		return
	}
	for _, line := range req.Lines {
		if line.Qty <= 0 {
			writeErr(w, http.StatusBadRequest, "validation", "qty must be a positive integer",
				checkout.FieldError{Path: "lines", Message: "qty must be a positive integer"})
			return
		}
	}

	prod, err := h.Catalog.Product(r.Context(), productID)
	if errors.Is(err, catalog.ErrProductNotFound) {
		writeErr(w, http.StatusNotFound, "not_found", "unknown product")
		return
	}
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "internal", "catalog lookup failed")
		return
	}

	results, err := h.Ledger.Adjust(r.Context(), productID, req.Lines)
	if err != nil {
		var adjErr *inventory.AdjustError
		switch {
		case errors.As(err, &adjErr):
			fields := make([]checkout.FieldError, 0, len(adjErr.Shortfalls))
			for _, s := range adjErr.Shortfalls {
				fields = append(fields, checkout.FieldError{Path: "lines", Message: s.Error()})
			}
			writeErr(w, http.StatusConflict, "inventory_unavailable", adjErr.Error(), fields...)
		case errors.Is(err, inventory.ErrVariantNotFound):
			writeErr(w, http.StatusBadRequest, "validation", "unknown size/color variant for this product")
		default:
			writeErr(w, http.StatusInternalServerError, "internal", "sale could not be recorded")
		}
		return
	}

	var total int64
	for _, line := range req.Lines {
		total += int64(line.Qty) * prod.UnitPriceCents
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"product_id":  productID,
		"lines":       results,
		"total_cents": total,
		"currency":    prod.Currency,
	})
}
