package orders

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore keeps orders across three tables: orders, order_items and
// order_history. History rows are insert-only.
type PGStore struct{ DB *pgxpool.Pool }

var _ Store = (*PGStore)(nil)

func (s *PGStore) Create(ctx context.Context, o *Order) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO orders(
			id, attempt_id, charge_id,
			customer_name, customer_email, customer_phone,
			addr_line1, addr_line2, addr_city, addr_state, addr_country, addr_postal,
			currency, subtotal_cents, shipping_cents, tax_cents, total_cents,
			shipping_carrier, shipping_service,
			status, tracking_number, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$22)`,
		o.ID, o.AttemptID, o.ChargeID,
		o.Customer.Name, o.Customer.Email, o.Customer.Phone,
		o.Address.Line1, o.Address.Line2, o.Address.City, o.Address.State, o.Address.Country, o.Address.PostalCode,
		o.Currency, o.SubtotalCents, o.ShippingCents, o.TaxCents, o.TotalCents,
		o.ShippingCarrier, o.ShippingService,
		string(o.Status), o.TrackingNumber, o.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && strings.Contains(pgErr.ConstraintName, "attempt") {
			return ErrDuplicateAttempt
		}
		return err
	}

	for _, it := range o.Items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(order_id, product_id, sku, size, color, qty, unit_price_cents)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			o.ID, it.ProductID, it.SKU, it.Size, it.Color, it.Qty, it.UnitPriceCents); err != nil {
			return err
		}
	}
	for _, h := range o.History {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_history(order_id, status, at, note, actor)
			VALUES ($1,$2,$3,$4,$5)`,
			o.ID, string(h.Status), h.At, h.Note, h.Actor); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *PGStore) Get(ctx context.Context, id string) (*Order, error) {
	var o Order
	var status string
	var refundID *string
	var refundAmount *int64
	var refundedAt *time.Time
	err := s.DB.QueryRow(ctx, `
		SELECT id, attempt_id, charge_id,
		       customer_name, customer_email, customer_phone,
		       addr_line1, addr_line2, addr_city, addr_state, addr_country, addr_postal,
		       currency, subtotal_cents, shipping_cents, tax_cents, total_cents,
		       shipping_carrier, shipping_service,
		       status, tracking_number,
		       refund_id, refund_amount_cents, refunded_at,
		       created_at, updated_at
		FROM orders WHERE id = $1`, id).Scan(
		&o.ID, &o.AttemptID, &o.ChargeID,
		&o.Customer.Name, &o.Customer.Email, &o.Customer.Phone,
		&o.Address.Line1, &o.Address.Line2, &o.Address.City, &o.Address.State, &o.Address.Country, &o.Address.PostalCode,
		&o.Currency, &o.SubtotalCents, &o.ShippingCents, &o.TaxCents, &o.TotalCents,
		&o.ShippingCarrier, &o.ShippingService,
		&status, &o.TrackingNumber,
		&refundID, &refundAmount, &refundedAt,
		&o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	o.Status = Status(status)
	if refundID != nil {
		o.Refund = &RefundRecord{ID: *refundID, AmountCents: *refundAmount, At: *refundedAt}
	}

	rows, err := s.DB.Query(ctx, `
		SELECT product_id, sku, size, color, qty, unit_price_cents
		FROM order_items WHERE order_id = $1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.SKU, &it.Size, &it.Color, &it.Qty, &it.UnitPriceCents); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	hrows, err := s.DB.Query(ctx, `
		SELECT status, at, note, actor FROM order_history
		WHERE order_id = $1 ORDER BY at`, id)
	if err != nil {
		return nil, err
	}
	defer hrows.Close()
	for hrows.Next() {
		var h HistoryEntry
		var hs string
		if err := hrows.Scan(&hs, &h.At, &h.Note, &h.Actor); err != nil {
			return nil, err
		}
		h.Status = Status(hs)
		o.History = append(o.History, h)
	}
	return &o, hrows.Err()
}

func (s *PGStore) FindByAttemptID(ctx context.Context, attemptID string) (*Order, error) {
	var id string
	err := s.DB.QueryRow(ctx, `SELECT id FROM orders WHERE attempt_id = $1`, attemptID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Transition is the guarded conditional update: the status check and the
// mutation are one statement, so a concurrent transition cannot slip between
// them.
func (s *PGStore) Transition(ctx context.Context, id string, from []Status, upd TransitionUpdate) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	allowed := make([]string, len(from))
	for i, st := range from {
		allowed[i] = string(st)
	}
	ct, err := tx.Exec(ctx, `
		UPDATE orders
		SET status = $2,
		    tracking_number = CASE WHEN $3 <> '' THEN $3 ELSE tracking_number END,
		    updated_at = now()
		WHERE id = $1 AND status = ANY($4)`,
		id, string(upd.To), upd.Tracking, allowed)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		var current string
		err := s.DB.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1`, id).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return &ConflictError{Current: Status(current)}
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO order_history(order_id, status, at, note, actor)
		VALUES ($1,$2,$3,$4,$5)`,
		id, string(upd.Entry.Status), upd.Entry.At, upd.Entry.Note, upd.Entry.Actor); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PGStore) AttachRefund(ctx context.Context, id string, r RefundRecord) error {
	ct, err := s.DB.Exec(ctx, `
		UPDATE orders
		SET refund_id = $2, refund_amount_cents = $3, refunded_at = $4, updated_at = now()
		WHERE id = $1 AND refund_id IS NULL`,
		id, r.ID, r.AmountCents, r.At)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		// either missing or already refunded; attach-once means this is a no-op
		var exists bool
		if err := s.DB.QueryRow(ctx, `SELECT true FROM orders WHERE id = $1`, id).Scan(&exists); errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
	}
	return nil
}
