package inventory

import (
	"context"
	"errors"
	"fmt"
)

// Variant is the stock-keeping unit of the ledger: one (product, size, color)
// combination. Products without color variants use an empty Color.
type Variant struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Color     string `json:"color,omitempty"`
}

func (v Variant) String() string {
	if v.Color == "" {
		return v.ProductID + "/" + v.Size
	}
	return v.ProductID + "/" + v.Size + "/" + v.Color
}

var ErrVariantNotFound = errors.New("variant not found")

// InsufficientStockError reports a conditional decrement that did not match.
type InsufficientStockError struct {
	Variant   Variant
	Required  int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: required %d, available %d",
		e.Variant, e.Required, e.Available)
}

// AdjustLine is one line of an in-person sale batch.
type AdjustLine struct {
	Size  string `json:"size"`
	Color string `json:"color,omitempty"`
	Qty   int    `json:"qty"`
}

// LineResult reports remaining stock for one applied adjust line.
type LineResult struct {
	Variant   Variant `json:"variant"`
	Remaining int     `json:"remaining"`
}

// AdjustError aggregates every line of a batch that failed validation.
// No line of the batch has been applied when this is returned.
type AdjustError struct {
	Shortfalls []InsufficientStockError
}

func (e *AdjustError) Error() string {
	return fmt.Sprintf("adjust rejected: %d line(s) short of stock", len(e.Shortfalls))
}

// Ledger is the only component allowed to mutate stock. Decrement and release
// are atomic conditional operations; callers never hold a lock across them.
type Ledger interface {
	// ReserveAndDecrement decrements stock by qty iff stock >= qty, as one
	// indivisible operation, and returns the new stock level.
	ReserveAndDecrement(ctx context.Context, v Variant, qty int) (int, error)

	// Release adds qty back. Always safe; idempotence per cancellation is
	// enforced by the order-level cancellation claim, not here.
	Release(ctx context.Context, v Variant, qty int) error

	// Adjust applies an in-person sale batch for one product. Every line is
	// validated against its own stock before any line is applied; any
	// shortfall rejects the whole batch with per-line detail.
	Adjust(ctx context.Context, productID string, lines []AdjustLine) ([]LineResult, error)

	Stock(ctx context.Context, v Variant) (int, error)
}
