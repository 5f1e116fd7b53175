package notify

import (
	"context"
	"errors"
	"sync"

	"github.com/wovenworks/storefront/internal/orders"
)

// Recorder is an in-process Notifier for tests and broker-less development.
// It records every dispatch and can be told to fail, which exercises the
// "notification failure is non-fatal" paths.
type Recorder struct {
	mu        sync.Mutex
	Fail      bool
	Confirmed []string
	Cancelled []string
	ShippedTo []string
}

var _ Notifier = (*Recorder)(nil)

var errSendFailed = errors.New("notification send failed")

func (r *Recorder) OrderConfirmed(_ context.Context, o *orders.Order) error {
	return r.record(&r.Confirmed, o.ID)
}

func (r *Recorder) OrderCancelled(_ context.Context, o *orders.Order, _, _ string) error {
	return r.record(&r.Cancelled, o.ID)
}

func (r *Recorder) OrderShipped(_ context.Context, o *orders.Order) error {
	return r.record(&r.ShippedTo, o.ID)
}

func (r *Recorder) record(dst *[]string, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Fail {
		return errSendFailed
	}
	*dst = append(*dst, id)
	return nil
}
