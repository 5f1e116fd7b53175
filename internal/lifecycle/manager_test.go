package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/wovenworks/storefront/internal/inventory"
	"github.com/wovenworks/storefront/internal/notify"
	"github.com/wovenworks/storefront/internal/orders"
	"github.com/wovenworks/storefront/internal/payment"
)

type fakeGateway struct {
	mu         sync.Mutex
	refundFail bool
	refunds    []string
}

func (g *fakeGateway) Charge(context.Context, string, int64, string, string) (string, error) {
	return "", errors.New("not used")
}

func (g *fakeGateway) Refund(_ context.Context, chargeID string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.refundFail {
		return "", fmt.Errorf("%w: provider rejected", payment.ErrRefundFailed)
	}
	g.refunds = append(g.refunds, chargeID)
	return "rf_" + chargeID, nil
}

func seedOrder(t *testing.T, store orders.Store, ledger *inventory.MemoryLedger, status orders.Status) *orders.Order {
	t.Helper()
	now := time.Now().UTC()
	o := &orders.Order{
		ID:       "ord-1",
		Customer: orders.Customer{Name: "Ada Obi", Email: "ada@example.com"},
		Address:  orders.Address{Line1: "14 Adeola Odeku St", City: "Lagos", Country: "NG"},
		Items: []orders.Item{
			{ProductID: "tee-1", SKU: "TEE-001", Size: "M", Color: "black", Qty: 2, UnitPriceCents: 1200000},
		},
		Currency:      "NGN",
		SubtotalCents: 2400000, ShippingCents: 200000, TaxCents: 195000, TotalCents: 2795000,
		Status:    status,
		History:   []orders.HistoryEntry{{Status: orders.StatusPending, At: now, Actor: "customer"}},
		AttemptID: "att-1",
		ChargeID:  "ch_att-1",
		CreatedAt: now, UpdatedAt: now,
	}
	if err := store.Create(context.Background(), o); err != nil {
		t.Fatalf("seed order: %v", err)
	}
	// stock as it stands after the checkout decrement
	ledger.Seed(inventory.Variant{ProductID: "tee-1", Size: "M", Color: "black"}, 8)
	return o
}

func newManager(store orders.Store, ledger *inventory.MemoryLedger, g *fakeGateway, n *notify.Recorder) *Manager {
	return &Manager{Store: store, Ledger: ledger, Gateway: g, Notifier: n}
}

func TestCancelReleasesRefundsAndRecordsHistory(t *testing.T) {
	ctx := context.Background()
	store := orders.NewMemoryStore()
	ledger := inventory.NewMemoryLedger()
	gw := &fakeGateway{}
	rec := &notify.Recorder{}
	seedOrder(t, store, ledger, orders.StatusPending)
	m := newManager(store, ledger, gw, rec)

	res, err := m.Cancel(ctx, "ord-1", "changed my mind", "customer")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if res.RefundID != "rf_ch_att-1" || !res.EmailSent {
		t.Fatalf("result = %+v", res)
	}

	// stock back to its pre-checkout value
	if s, _ := ledger.Stock(ctx, inventory.Variant{ProductID: "tee-1", Size: "M", Color: "black"}); s != 10 {
		t.Fatalf("stock = %d, want 10", s)
	}

	o, _ := store.Get(ctx, "ord-1")
	if o.Status != orders.StatusCancelled {
		t.Fatalf("status = %s", o.Status)
	}
	if o.Refund == nil || o.Refund.ID != "rf_ch_att-1" || o.Refund.AmountCents != 2795000 {
		t.Fatalf("refund record = %+v", o.Refund)
	}
	// history shows pending -> cancelled with the right actor
	if len(o.History) != 2 {
		t.Fatalf("history = %+v", o.History)
	}
	last := o.History[len(o.History)-1]
	if last.Status != orders.StatusCancelled || last.Actor != "customer" || last.Note != "changed my mind" {
		t.Fatalf("last history entry = %+v", last)
	}
}

func TestCancelTwiceIsNoOp(t *testing.T) {
	ctx := context.Background()
	store := orders.NewMemoryStore()
	ledger := inventory.NewMemoryLedger()
	gw := &fakeGateway{}
	seedOrder(t, store, ledger, orders.StatusPending)
	m := newManager(store, ledger, gw, &notify.Recorder{})

	if _, err := m.Cancel(ctx, "ord-1", "", "admin"); err != nil {
		t.Fatalf("first cancel: %v", err)
	}
	_, err := m.Cancel(ctx, "ord-1", "", "admin")
	if !errors.Is(err, ErrAlreadyCancelled) {
		t.Fatalf("second cancel: got %v, want ErrAlreadyCancelled", err)
	}

	// no double release, no double refund
	if s, _ := ledger.Stock(ctx, inventory.Variant{ProductID: "tee-1", Size: "M", Color: "black"}); s != 10 {
		t.Fatalf("stock = %d, double release detected", s)
	}
	if len(gw.refunds) != 1 {
		t.Fatalf("refunds = %v, want exactly one", gw.refunds)
	}
}

func TestCancelConcurrentOnlyOneClaims(t *testing.T) {
	ctx := context.Background()
	store := orders.NewMemoryStore()
	ledger := inventory.NewMemoryLedger()
	gw := &fakeGateway{}
	seedOrder(t, store, ledger, orders.StatusPending)
	m := newManager(store, ledger, gw, &notify.Recorder{})

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.Cancel(ctx, "ord-1", "race", "admin")
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else if !errors.Is(err, ErrAlreadyCancelled) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("winners = %d, want exactly 1", winners)
	}
	if s, _ := ledger.Stock(ctx, inventory.Variant{ProductID: "tee-1", Size: "M", Color: "black"}); s != 10 {
		t.Fatalf("stock = %d, concurrent cancels double-released", s)
	}
	if len(gw.refunds) != 1 {
		t.Fatalf("refunds = %v", gw.refunds)
	}
}

func TestCancelDeliveredRejected(t *testing.T) {
	ctx := context.Background()
	store := orders.NewMemoryStore()
	ledger := inventory.NewMemoryLedger()
	gw := &fakeGateway{}
	seedOrder(t, store, ledger, orders.StatusDelivered)
	m := newManager(store, ledger, gw, &notify.Recorder{})

	_, err := m.Cancel(ctx, "ord-1", "", "customer")
	if !errors.Is(err, ErrAlreadyDelivered) {
		t.Fatalf("got %v, want ErrAlreadyDelivered", err)
	}
	if s, _ := ledger.Stock(ctx, inventory.Variant{ProductID: "tee-1", Size: "M", Color: "black"}); s != 8 {
		t.Fatal("delivered cancel must not touch stock")
	}
}

func TestCancelShippedRejected(t *testing.T) {
	ctx := context.Background()
	store := orders.NewMemoryStore()
	ledger := inventory.NewMemoryLedger()
	seedOrder(t, store, ledger, orders.StatusShipped)
	m := newManager(store, ledger, &fakeGateway{}, &notify.Recorder{})

	if _, err := m.Cancel(ctx, "ord-1", "", "customer"); !errors.Is(err, ErrAlreadyShipped) {
		t.Fatalf("got %v, want ErrAlreadyShipped", err)
	}
}

func TestCancelUnknownOrder(t *testing.T) {
	m := newManager(orders.NewMemoryStore(), inventory.NewMemoryLedger(), &fakeGateway{}, &notify.Recorder{})
	if _, err := m.Cancel(context.Background(), "nope", "", "admin"); !errors.Is(err, orders.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

// A refund failure is reported but does not block the cancellation: stock
// release and the status change are the primary guarantee.
func TestCancelRefundFailureIsNonBlocking(t *testing.T) {
	ctx := context.Background()
	store := orders.NewMemoryStore()
	ledger := inventory.NewMemoryLedger()
	gw := &fakeGateway{refundFail: true}
	seedOrder(t, store, ledger, orders.StatusProcessing)
	m := newManager(store, ledger, gw, &notify.Recorder{})

	res, err := m.Cancel(ctx, "ord-1", "", "admin")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if res.RefundErr == nil || res.RefundID != "" {
		t.Fatalf("result = %+v, want reported refund failure", res)
	}
	o, _ := store.Get(ctx, "ord-1")
	if o.Status != orders.StatusCancelled {
		t.Fatalf("status = %s, cancellation must stand", o.Status)
	}
	if o.Refund != nil {
		t.Fatal("no refund record may be attached for a failed refund")
	}
	if s, _ := ledger.Stock(ctx, inventory.Variant{ProductID: "tee-1", Size: "M", Color: "black"}); s != 10 {
		t.Fatal("stock must be released even when the refund fails")
	}
}

func TestTransitionTableEnforced(t *testing.T) {
	ctx := context.Background()
	store := orders.NewMemoryStore()
	ledger := inventory.NewMemoryLedger()
	seedOrder(t, store, ledger, orders.StatusPending)
	m := newManager(store, ledger, &fakeGateway{}, &notify.Recorder{})

	if err := m.Transition(ctx, "ord-1", orders.StatusProcessing, "admin", ""); err != nil {
		t.Fatalf("pending -> processing: %v", err)
	}
	// delivered straight from processing is not in the table
	if err := m.Transition(ctx, "ord-1", orders.StatusDelivered, "admin", ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("processing -> delivered: got %v, want ErrInvalidTransition", err)
	}
	// caller-supplied junk status
	if err := m.Transition(ctx, "ord-1", orders.Status("returned"), "admin", ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("junk status: got %v, want ErrInvalidTransition", err)
	}
}
