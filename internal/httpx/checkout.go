package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/wovenworks/storefront/internal/checkout"
	"github.com/wovenworks/storefront/internal/orders"
	"github.com/wovenworks/storefront/internal/redisx"
)

// CheckoutHandler exposes checkout submission. R is optional: with redis
// available a resubmitted attempt short-circuits before the orchestrator;
// without it the store's attempt lookup still guarantees idempotency.
type CheckoutHandler struct {
	Orchestrator *checkout.Orchestrator
	Store        orders.Store
	R            *redis.Client
}

func (h *CheckoutHandler) Register(r chi.Router) {
	r.Post("/checkout", h.placeOrder)
	r.Get("/orders/{id}/status", h.orderStatus)
}

type orderResponse struct {
	Order      *orders.Order `json:"order"`
	Idempotent bool          `json:"idempotent"`
}

func (h *CheckoutHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var snap checkout.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		writeErr(w, http.StatusBadRequest, "validation", "malformed JSON body")
		return
	}
	if snap.CapturedAt.IsZero() {
		snap.CapturedAt = time.Now().UTC()
	}
	ctx := r.Context()

	// Fast path: this attempt already resolved to an order.
	if h.R != nil && snap.AttemptID != "" {
		if id, err := h.R.Get(ctx, fmt.Sprintf(redisx.KeyIdemCheckout, snap.AttemptID)).Result(); err == nil {
			if o, gerr := h.Store.Get(ctx, id); gerr == nil {
				writeJSON(w, http.StatusOK, orderResponse{Order: o, Idempotent: true})
				return
			}
		}
	}

	o, existed, err := h.Orchestrator.PlaceOrder(ctx, snap)
	if err != nil {
		writeCheckoutErr(w, err)
		return
	}
	h.cache(ctx, snap.AttemptID, o)

	code := http.StatusCreated
	if existed {
		code = http.StatusOK
	}
	writeJSON(w, code, orderResponse{Order: o, Idempotent: existed})
}

// orderStatus is the polled tracking endpoint: cache hit skips the store.
func (h *CheckoutHandler) orderStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := r.Context()

	if h.R != nil {
		if raw, err := h.R.Get(ctx, fmt.Sprintf(redisx.KeyOrderStatus, id)).Bytes(); err == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(raw)
			return
		}
	}

	o, err := h.Store.Get(ctx, id)
	if errors.Is(err, orders.ErrNotFound) {
		writeErr(w, http.StatusNotFound, "not_found", "order not found")
		return
	}
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "internal", "order load failed")
		return
	}

	payload := map[string]any{"status": o.Status, "tracking_number": o.TrackingNumber}
	if h.R != nil {
		if err := h.R.Set(ctx, fmt.Sprintf(redisx.KeyOrderStatus, id), mustJSON(payload), redisx.TTLStatusCache).Err(); err != nil {
			slog.Warn("status cache write failed", "order_id", id, "err", err)
		}
	}
	writeJSON(w, http.StatusOK, payload)
}

func mustJSON(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}

func (h *CheckoutHandler) cache(ctx context.Context, attemptID string, o *orders.Order) {
	if h.R == nil {
		return
	}
	if err := h.R.Set(ctx, fmt.Sprintf(redisx.KeyIdemCheckout, attemptID), o.ID, redisx.TTLIdempotency).Err(); err != nil {
		slog.Warn("idempotency cache write failed", "attempt_id", attemptID, "err", err)
	}
	payload, _ := json.Marshal(map[string]any{"status": o.Status, "tracking_number": o.TrackingNumber})
	if err := h.R.Set(ctx, fmt.Sprintf(redisx.KeyOrderStatus, o.ID), payload, redisx.TTLStatusCache).Err(); err != nil {
		slog.Warn("status cache write failed", "order_id", o.ID, "err", err)
	}
}
