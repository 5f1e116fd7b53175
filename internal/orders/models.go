package orders

import "time"

type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	Country    string `json:"country"`
	PostalCode string `json:"postal_code"`
}

// Complete reports whether the address can be shipped to.
func (a Address) Complete() bool {
	return a.Line1 != "" && a.City != "" && a.Country != ""
}

// Item is one ordered line. UnitPriceCents is the price frozen at purchase
// time; it is never recomputed from the current catalog price.
type Item struct {
	ProductID      string `json:"product_id"`
	SKU            string `json:"sku"`
	Size           string `json:"size"`
	Color          string `json:"color,omitempty"`
	Qty            int    `json:"qty"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

// HistoryEntry is append-only: entries are never mutated or deleted.
type HistoryEntry struct {
	Status Status    `json:"status"`
	At     time.Time `json:"at"`
	Note   string    `json:"note,omitempty"`
	Actor  string    `json:"actor"`
}

// RefundRecord is attached to an order at most once (idempotency key is the
// order id itself).
type RefundRecord struct {
	ID          string    `json:"id"`
	AmountCents int64     `json:"amount_cents"`
	At          time.Time `json:"at"`
}

type Order struct {
	ID       string   `json:"id"`
	Customer Customer `json:"customer"`
	Address  Address  `json:"address"`
	Items    []Item   `json:"items"`

	Currency      string `json:"currency"`
	SubtotalCents int64  `json:"subtotal_cents"`
	ShippingCents int64  `json:"shipping_cents"`
	TaxCents      int64  `json:"tax_cents"`
	TotalCents    int64  `json:"total_cents"`

	ShippingCarrier string `json:"shipping_carrier"`
	ShippingService string `json:"shipping_service"`

	Status         Status         `json:"status"`
	History        []HistoryEntry `json:"history"`
	TrackingNumber string         `json:"tracking_number,omitempty"`
	Refund         *RefundRecord  `json:"refund,omitempty"`

	// AttemptID ties the order to its checkout attempt; a resubmitted attempt
	// resolves to the same order. ChargeID is the gateway charge.
	AttemptID string `json:"attempt_id"`
	ChargeID  string `json:"charge_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
