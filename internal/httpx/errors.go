package httpx

import (
	"errors"
	"net/http"

	"github.com/wovenworks/storefront/internal/checkout"
	"github.com/wovenworks/storefront/internal/lifecycle"
	"github.com/wovenworks/storefront/internal/orders"
	"github.com/wovenworks/storefront/internal/payment"
)

// errorBody is the machine-readable error envelope: a stable kind for
// clients to branch on, a human message, and offending field paths for
// validation failures.
type errorBody struct {
	Kind    string                `json:"kind"`
	Message string                `json:"message"`
	Fields  []checkout.FieldError `json:"fields,omitempty"`
}

func writeErr(w http.ResponseWriter, code int, kind, message string, fields ...checkout.FieldError) {
	writeJSON(w, code, map[string]any{"error": errorBody{Kind: kind, Message: message, Fields: fields}})
}

// writeCheckoutErr maps the checkout error taxonomy onto HTTP. Declines get
// their own kind so the client can offer the retry-with-different-card flow;
// network errors are the retriable class.
func writeCheckoutErr(w http.ResponseWriter, err error) {
	var verr *checkout.ValidationError
	if errors.As(err, &verr) {
		writeErr(w, http.StatusBadRequest, "validation", "invalid checkout request", verr.Fields...)
		return
	}
	var unavail *checkout.InventoryUnavailableError
	if errors.As(err, &unavail) {
		fields := make([]checkout.FieldError, 0, len(unavail.Shortfalls))
		for _, s := range unavail.Shortfalls {
			fields = append(fields, checkout.FieldError{Path: "items", Message: s.Error()})
		}
		writeErr(w, http.StatusConflict, "inventory_unavailable", "one or more items are out of stock", fields...)
		return
	}
	var declined *payment.DeclinedError
	if errors.As(err, &declined) {
		writeErr(w, http.StatusPaymentRequired, "payment_declined", declined.Reason)
		return
	}
	if errors.Is(err, payment.ErrNetwork) {
		writeErr(w, http.StatusBadGateway, "payment_network", "payment provider unreachable, retry the same attempt")
		return
	}
	writeErr(w, http.StatusInternalServerError, "internal", "checkout failed")
}

func writeLifecycleErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orders.ErrNotFound):
		writeErr(w, http.StatusNotFound, "not_found", "order not found")
	case errors.Is(err, lifecycle.ErrAlreadyCancelled):
		writeErr(w, http.StatusConflict, "already_cancelled", "order is already cancelled")
	case errors.Is(err, lifecycle.ErrAlreadyDelivered):
		writeErr(w, http.StatusConflict, "already_delivered", "a delivered order cannot be cancelled")
	case errors.Is(err, lifecycle.ErrAlreadyShipped):
		writeErr(w, http.StatusConflict, "already_shipped", "a shipped order cannot be cancelled")
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		writeErr(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, lifecycle.ErrTrackingRequired):
		writeErr(w, http.StatusBadRequest, "validation", "carrier tracking number is required to ship")
	case errors.Is(err, lifecycle.ErrChecklistIncomplete),
		errors.Is(err, lifecycle.ErrStepOutOfOrder):
		writeErr(w, http.StatusConflict, "checklist", err.Error())
	case errors.Is(err, lifecycle.ErrUnknownStep):
		writeErr(w, http.StatusBadRequest, "validation", err.Error())
	default:
		writeErr(w, http.StatusInternalServerError, "internal", "operation failed")
	}
}
