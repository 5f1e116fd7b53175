package checkout

import (
	"time"

	"github.com/wovenworks/storefront/internal/orders"
	"github.com/wovenworks/storefront/internal/shipping"
)

// Line is one cart line as submitted by the client. UnitPriceCents is the
// price the client quoted; the server verifies it against the catalog before
// freezing it onto the order.
type Line struct {
	ProductID      string `json:"product_id"`
	Size           string `json:"size"`
	Color          string `json:"color,omitempty"`
	Qty            int    `json:"qty"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

// Snapshot is the immutable cart state handed to the orchestrator at
// submission time. The orchestrator never reads ambient client state; this
// payload is everything it sees.
type Snapshot struct {
	// AttemptID identifies the checkout attempt. It is both the HTTP
	// idempotency key and the charge reference passed to the gateway.
	AttemptID string `json:"attempt_id"`

	Customer orders.Customer `json:"customer"`
	Address  orders.Address  `json:"address"`
	Items    []Line          `json:"items"`
	Currency string          `json:"currency"`

	SelectedShipping shipping.Option `json:"selected_shipping"`
	PaymentToken     string          `json:"payment_token"`

	// Client-computed display totals. Hints only; the server recomputes.
	ClientSubtotalCents int64 `json:"client_subtotal_cents"`
	ClientShippingCents int64 `json:"client_shipping_cents"`
	ClientTaxCents      int64 `json:"client_tax_cents"`
	ClientTotalCents    int64 `json:"client_total_cents"`

	CapturedAt time.Time `json:"captured_at"`
}
