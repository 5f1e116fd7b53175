// Package payment abstracts the external card gateway. Tokenization happens
// client-side; the server only ever sees an opaque single-use token. Two
// provider integrations implement the same contract, and callers are written
// against the contract only.
package payment

import (
	"context"
	"errors"
	"fmt"
)

// ErrNetwork marks gateway-unreachable and timeout failures. These are safe
// to retry with the same reference; the provider recognizes the reference and
// will not charge twice.
var ErrNetwork = errors.New("payment network error")

// ErrRefundFailed marks a refund the provider rejected or could not process.
var ErrRefundFailed = errors.New("refund failed")

// DeclinedError is the user-actionable class: the provider processed the
// request and said no. Distinct from ErrNetwork so the client can offer a
// retry-with-different-card path.
type DeclinedError struct {
	Code   string
	Reason string
}

func (e *DeclinedError) Error() string {
	return fmt.Sprintf("payment declined (%s): %s", e.Code, e.Reason)
}

type Gateway interface {
	// Charge exchanges a client-side token for a charge. reference is the
	// idempotency key tied to the checkout attempt: a retried charge with the
	// same reference is recognized as the same charge.
	Charge(ctx context.Context, token string, amountCents int64, currency, reference string) (chargeID string, err error)

	// Refund reverses a charge in full and returns the provider refund id.
	Refund(ctx context.Context, chargeID string) (refundID string, err error)
}
