package orders

import (
	"context"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("order not found")

// ErrDuplicateAttempt reports a Create that lost the race for an attempt id:
// another order for the same checkout attempt was inserted first.
var ErrDuplicateAttempt = errors.New("attempt already has an order")

// ConflictError reports a guarded transition that found the order in a state
// outside the allowed set at mutation time.
type ConflictError struct {
	Current Status
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("order is %s", e.Current)
}

// TransitionUpdate describes one guarded status mutation. Tracking is set on
// the order only when non-empty (the shipped transition records it
// atomically with the status change).
type TransitionUpdate struct {
	To       Status
	Entry    HistoryEntry
	Tracking string
}

// Store persists orders. Orders are created exactly once, mutated only
// through guarded transitions and refund attachment, and never deleted.
type Store interface {
	// Create inserts the order. The attempt id is unique across orders;
	// a second insert for the same attempt fails with ErrDuplicateAttempt.
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)

	// FindByAttemptID resolves a checkout attempt to its order, if one was
	// already created for it (idempotent resubmission).
	FindByAttemptID(ctx context.Context, attemptID string) (*Order, error)

	// Transition applies upd iff the order's live status is in `from`,
	// appending the history entry in the same atomic mutation. A status
	// outside `from` yields *ConflictError carrying the current status.
	Transition(ctx context.Context, id string, from []Status, upd TransitionUpdate) error

	// AttachRefund records the refund at most once per order.
	AttachRefund(ctx context.Context, id string, r RefundRecord) error
}
