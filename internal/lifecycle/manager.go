// Package lifecycle governs an order after creation: the forward transitions,
// cancellation with compensating stock release and refund, and the
// fulfillment checklist gating the shipped transition.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/wovenworks/storefront/internal/inventory"
	"github.com/wovenworks/storefront/internal/notify"
	"github.com/wovenworks/storefront/internal/orders"
	"github.com/wovenworks/storefront/internal/payment"
)

var (
	ErrAlreadyCancelled  = errors.New("order already cancelled")
	ErrAlreadyDelivered  = errors.New("order already delivered")
	ErrAlreadyShipped    = errors.New("order already shipped")
	ErrInvalidTransition = errors.New("invalid status transition")
)

type Manager struct {
	Store    orders.Store
	Ledger   inventory.Ledger
	Gateway  payment.Gateway
	Notifier notify.Notifier
}

// Transition applies a caller-requested status change. The requested status
// is validated against the closed table and the guard condition is the live
// row status, never a snapshot.
func (m *Manager) Transition(ctx context.Context, id string, next orders.Status, actor, note string) error {
	from := orders.Predecessors(next)
	if len(from) == 0 {
		return fmt.Errorf("%w: nothing transitions to %s", ErrInvalidTransition, next)
	}
	err := m.Store.Transition(ctx, id, from, orders.TransitionUpdate{
		To:    next,
		Entry: orders.HistoryEntry{Status: next, At: time.Now().UTC(), Actor: actor, Note: note},
	})
	var conflict *orders.ConflictError
	if errors.As(err, &conflict) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, conflict.Current, next)
	}
	return err
}

// CancelResult reports what the cancellation accomplished. RefundErr is
// non-nil when the refund failed; the cancellation itself still stands and
// the refund is re-driven out of band.
type CancelResult struct {
	RefundID  string
	RefundErr error
	EmailSent bool
}

// Cancel is idempotent and race-free: the guarded transition to cancelled is
// the claim. Exactly one caller wins it; everyone else gets the guard result
// for the live status, so stock is never double-released and a refund is
// never issued twice. Compensation (release, refund) runs only after the
// claim succeeds.
func (m *Manager) Cancel(ctx context.Context, id, reason, actor string) (*CancelResult, error) {
	order, err := m.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	note := reason
	if note == "" {
		note = "cancelled"
	}
	err = m.Store.Transition(ctx, id, []orders.Status{orders.StatusPending, orders.StatusProcessing},
		orders.TransitionUpdate{
			To:    orders.StatusCancelled,
			Entry: orders.HistoryEntry{Status: orders.StatusCancelled, At: time.Now().UTC(), Actor: actor, Note: note},
		})
	if err != nil {
		var conflict *orders.ConflictError
		if errors.As(err, &conflict) {
			switch conflict.Current {
			case orders.StatusCancelled:
				return nil, ErrAlreadyCancelled
			case orders.StatusDelivered:
				return nil, ErrAlreadyDelivered
			case orders.StatusShipped:
				return nil, ErrAlreadyShipped
			}
		}
		return nil, err
	}

	// Claim won. Items were frozen at creation, so the loaded copy is safe to
	// compensate from.
	for _, it := range order.Items {
		v := inventory.Variant{ProductID: it.ProductID, Size: it.Size, Color: it.Color}
		if rerr := m.Ledger.Release(ctx, v, it.Qty); rerr != nil {
			slog.Error("cancel: stock release failed", "order_id", id, "variant", v.String(), "err", rerr)
		}
	}

	res := &CancelResult{}
	if order.ChargeID != "" && order.Refund == nil {
		refundID, rerr := m.Gateway.Refund(ctx, order.ChargeID)
		if rerr != nil {
			// non-blocking: the status transition stands, the refund is
			// escalated for out-of-band retry
			slog.Error("cancel: refund failed", "order_id", id, "charge_id", order.ChargeID, "err", rerr)
			res.RefundErr = rerr
		} else {
			res.RefundID = refundID
			rec := orders.RefundRecord{ID: refundID, AmountCents: order.TotalCents, At: time.Now().UTC()}
			if aerr := m.Store.AttachRefund(ctx, id, rec); aerr != nil {
				slog.Error("cancel: refund record attach failed", "order_id", id, "refund_id", refundID, "err", aerr)
			}
		}
	}

	if nerr := m.Notifier.OrderCancelled(ctx, order, reason, res.RefundID); nerr != nil {
		slog.Warn("cancel: notification failed", "order_id", id, "err", nerr)
	} else {
		res.EmailSent = true
	}
	return res, nil
}
