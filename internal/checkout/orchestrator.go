package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/wovenworks/storefront/internal/catalog"
	"github.com/wovenworks/storefront/internal/inventory"
	"github.com/wovenworks/storefront/internal/orders"
	"github.com/wovenworks/storefront/internal/payment"
	"github.com/wovenworks/storefront/internal/shipping"
	"github.com/wovenworks/storefront/internal/tax"
)

// Quoter is the shipping surface the orchestrator needs.
type Quoter interface {
	Quote(dest shipping.Destination, items []shipping.Item) ([]shipping.Option, error)
}

// Orchestrator runs checkout as a saga: there is no transaction spanning the
// ledger, the gateway and the order store, so each step that succeeds
// registers a compensating action to run if a later step fails.
type Orchestrator struct {
	Catalog  catalog.Catalog
	Ledger   inventory.Ledger
	Shipping Quoter
	Tax      *tax.Calculator
	Gateway  payment.Gateway
	Store    orders.Store
	Notifier interface {
		OrderConfirmed(ctx context.Context, o *orders.Order) error
	}
}

// PlaceOrder converts a validated snapshot into a persisted pending order.
// existed is true when the attempt already produced an order and the original
// is returned instead of charging again.
func (o *Orchestrator) PlaceOrder(ctx context.Context, snap Snapshot) (ord *orders.Order, existed bool, err error) {
	// idempotent resubmission: the attempt already has an order
	if prev, err := o.Store.FindByAttemptID(ctx, snap.AttemptID); err == nil {
		return prev, true, nil
	} else if !errors.Is(err, orders.ErrNotFound) {
		return nil, false, fmt.Errorf("%w: attempt lookup: %v", ErrInternal, err)
	}

	items, subtotal, verr := o.validate(ctx, snap)
	if verr != nil {
		return nil, false, verr
	}

	taxRes := o.Tax.Compute(subtotal, snap.SelectedShipping.CostCents, snap.Address.Country, snap.Address.State)
	total := subtotal + snap.SelectedShipping.CostCents + taxRes.AmountCents
	if verr := checkClientTotals(snap, subtotal, taxRes.AmountCents, total); verr != nil {
		return nil, false, verr
	}

	// Release compensations run LIFO when a later step fails.
	var releases []func()
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}

	// Reserve every line before any money moves. A single failed line aborts
	// the attempt and rolls back the lines reserved before it.
	for _, it := range items {
		v := inventory.Variant{ProductID: it.ProductID, Size: it.Size, Color: it.Color}
		qty := it.Qty
		if _, err := o.Ledger.ReserveAndDecrement(ctx, v, qty); err != nil {
			releaseAll()
			var short *inventory.InsufficientStockError
			if errors.As(err, &short) {
				return nil, false, &InventoryUnavailableError{Shortfalls: []inventory.InsufficientStockError{*short}}
			}
			if errors.Is(err, inventory.ErrVariantNotFound) {
				return nil, false, &ValidationError{Fields: []FieldError{{Path: "items", Message: "unknown variant " + v.String()}}}
			}
			return nil, false, fmt.Errorf("%w: reserve %s: %v", ErrInternal, v, err)
		}
		releases = append(releases, func() {
			if rerr := o.Ledger.Release(context.WithoutCancel(ctx), v, qty); rerr != nil {
				slog.Error("compensation release failed", "variant", v.String(), "qty", qty, "err", rerr)
			}
		})
	}

	// Charge only after every line is reserved. The attempt id is the charge
	// reference, so a retried attempt cannot double-bill.
	chargeID, err := o.Gateway.Charge(ctx, snap.PaymentToken, total, snap.Currency, snap.AttemptID)
	if err != nil {
		releaseAll()
		return nil, false, err
	}

	now := time.Now().UTC()
	order := &orders.Order{
		ID:              uuid.NewString(),
		Customer:        snap.Customer,
		Address:         snap.Address,
		Items:           items,
		Currency:        snap.Currency,
		SubtotalCents:   subtotal,
		ShippingCents:   snap.SelectedShipping.CostCents,
		TaxCents:        taxRes.AmountCents,
		TotalCents:      total,
		ShippingCarrier: snap.SelectedShipping.Carrier,
		ShippingService: snap.SelectedShipping.Service,
		Status:          orders.StatusPending,
		History: []orders.HistoryEntry{{
			Status: orders.StatusPending, At: now, Actor: "customer", Note: "order placed",
		}},
		AttemptID: snap.AttemptID,
		ChargeID:  chargeID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := o.Store.Create(ctx, order); err != nil {
		// A concurrent submission of the same attempt won the insert. Its
		// order stands and the charge reference is shared (one logical charge
		// at the gateway), so release this branch's surplus reservations and
		// return the winner's order. Refunding here would strip payment from
		// the persisted order.
		if errors.Is(err, orders.ErrDuplicateAttempt) {
			releaseAll()
			prev, ferr := o.Store.FindByAttemptID(ctx, snap.AttemptID)
			if ferr != nil {
				return nil, false, fmt.Errorf("%w: attempt lookup after duplicate insert: %v", ErrInternal, ferr)
			}
			return prev, true, nil
		}

		// The one genuinely dangerous window: money moved but nothing
		// recorded. Refund the charge and release the stock before surfacing
		// a generic internal error.
		slog.Error("order persist failed after charge, compensating",
			"attempt_id", snap.AttemptID, "charge_id", chargeID, "err", err)
		if _, rerr := o.Gateway.Refund(context.WithoutCancel(ctx), chargeID); rerr != nil {
			slog.Error("compensation refund failed", "charge_id", chargeID, "err", rerr,
				"incident", "charged-without-order")
		}
		releaseAll()
		return nil, false, fmt.Errorf("%w: persist order: %v", ErrInternal, err)
	}

	if nerr := o.Notifier.OrderConfirmed(ctx, order); nerr != nil {
		slog.Warn("confirmation notification failed", "order_id", order.ID, "err", nerr)
	}
	return order, false, nil
}

// validate re-checks everything server-side: the client is untrusted. Prices
// come from the catalog, the shipping selection must exist in a fresh quote
// for the submitted address.
func (o *Orchestrator) validate(ctx context.Context, snap Snapshot) ([]orders.Item, int64, error) {
	verr := &ValidationError{}

	if snap.AttemptID == "" {
		verr.add("attempt_id", "required")
	}
	if snap.PaymentToken == "" {
		verr.add("payment_token", "required")
	}
	if snap.Customer.Email == "" {
		verr.add("customer.email", "required")
	}
	if snap.Currency == "" {
		verr.add("currency", "required")
	}
	if !snap.Address.Complete() {
		verr.add("address", "incomplete shipping address")
	}
	if len(snap.Items) == 0 {
		verr.add("items", "cart is empty")
	}
	if len(verr.Fields) > 0 {
		return nil, 0, verr
	}

	items := make([]orders.Item, 0, len(snap.Items))
	var subtotal int64
	for i, line := range snap.Items {
		path := fmt.Sprintf("items[%d]", i)
		if line.Qty <= 0 {
			verr.add(path+".qty", "must be a positive integer")
			continue
		}
		if line.UnitPriceCents < 0 {
			verr.add(path+".unit_price_cents", "must be non-negative")
			continue
		}
		prod, err := o.Catalog.Product(ctx, line.ProductID)
		if errors.Is(err, catalog.ErrProductNotFound) {
			verr.add(path+".product_id", "unknown product")
			continue
		}
		if err != nil {
			return nil, 0, fmt.Errorf("%w: catalog lookup: %v", ErrInternal, err)
		}
		if prod.UnitPriceCents != line.UnitPriceCents {
			verr.add(path+".unit_price_cents", "price changed, refresh the cart")
			continue
		}
		if prod.Currency != snap.Currency {
			verr.add(path+".product_id", "product not sold in "+snap.Currency)
			continue
		}
		items = append(items, orders.Item{
			ProductID:      line.ProductID,
			SKU:            prod.SKU,
			Size:           line.Size,
			Color:          line.Color,
			Qty:            line.Qty,
			UnitPriceCents: prod.UnitPriceCents,
		})
		subtotal += prod.UnitPriceCents * int64(line.Qty)
	}
	if len(verr.Fields) > 0 {
		return nil, 0, verr
	}

	// The selected option must appear in a fresh quote for this address:
	// an address edit after options were fetched invalidates the selection.
	shipItems := make([]shipping.Item, 0, len(snap.Items))
	for _, line := range snap.Items {
		shipItems = append(shipItems, shipping.Item{ProductID: line.ProductID, Qty: line.Qty})
	}
	dest := shipping.Destination{
		Country: snap.Address.Country, State: snap.Address.State,
		City: snap.Address.City, PostalCode: snap.Address.PostalCode,
	}
	opts, err := o.Shipping.Quote(dest, shipItems)
	if err != nil {
		verr.add("address.country", "shipping unavailable: "+err.Error())
		return nil, 0, verr
	}
	found := false
	for _, opt := range opts {
		if opt.Carrier == snap.SelectedShipping.Carrier &&
			opt.Service == snap.SelectedShipping.Service &&
			opt.CostCents == snap.SelectedShipping.CostCents {
			found = true
			break
		}
	}
	if !found {
		verr.add("selected_shipping", "selection is stale for this address, re-quote and choose again")
		return nil, 0, verr
	}

	return items, subtotal, nil
}

func checkClientTotals(snap Snapshot, subtotal, taxCents, total int64) *ValidationError {
	verr := &ValidationError{}
	if snap.ClientSubtotalCents != subtotal {
		verr.add("client_subtotal_cents", fmt.Sprintf("expected %d", subtotal))
	}
	if snap.ClientShippingCents != snap.SelectedShipping.CostCents {
		verr.add("client_shipping_cents", fmt.Sprintf("expected %d", snap.SelectedShipping.CostCents))
	}
	if snap.ClientTaxCents != taxCents {
		verr.add("client_tax_cents", fmt.Sprintf("expected %d", taxCents))
	}
	if snap.ClientTotalCents != total {
		verr.add("client_total_cents", fmt.Sprintf("expected %d", total))
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}
