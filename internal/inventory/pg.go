package inventory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGLedger stores stock in the inventory table, keyed by the full variant
// tuple. All mutations are conditional UPDATEs so concurrent checkouts
// against the same variant serialize at the row level.
type PGLedger struct{ DB *pgxpool.Pool }

var _ Ledger = (*PGLedger)(nil)

func (l *PGLedger) ReserveAndDecrement(ctx context.Context, v Variant, qty int) (int, error) {
	var remaining int
	err := l.DB.QueryRow(ctx, `
		UPDATE inventory SET stock = stock - $4, updated_at = now()
		WHERE product_id = $1 AND size = $2 AND color = $3 AND stock >= $4
		RETURNING stock`,
		v.ProductID, v.Size, v.Color, qty).Scan(&remaining)
	if err == nil {
		return remaining, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}
	// The condition did not match: distinguish missing variant from shortage.
	var available int
	err = l.DB.QueryRow(ctx, `
		SELECT stock FROM inventory
		WHERE product_id = $1 AND size = $2 AND color = $3`,
		v.ProductID, v.Size, v.Color).Scan(&available)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrVariantNotFound
	}
	if err != nil {
		return 0, err
	}
	return 0, &InsufficientStockError{Variant: v, Required: qty, Available: available}
}

func (l *PGLedger) Release(ctx context.Context, v Variant, qty int) error {
	ct, err := l.DB.Exec(ctx, `
		UPDATE inventory SET stock = stock + $4, updated_at = now()
		WHERE product_id = $1 AND size = $2 AND color = $3`,
		v.ProductID, v.Size, v.Color, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrVariantNotFound
	}
	return nil
}

// Adjust locks each variant row, validates every line, then applies all
// decrements in one transaction. Any shortfall rolls the whole batch back.
func (l *PGLedger) Adjust(ctx context.Context, productID string, lines []AdjustLine) ([]LineResult, error) {
	tx, err := l.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Lock and validate each distinct variant once, against the batch total:
	// duplicate lines for one variant must not each pass against the same
	// locked stock.
	need := make(map[Variant]int, len(lines))
	variants := make([]Variant, 0, len(lines))
	for _, line := range lines {
		v := Variant{ProductID: productID, Size: line.Size, Color: line.Color}
		if _, seen := need[v]; !seen {
			variants = append(variants, v)
		}
		need[v] += line.Qty
	}

	var shortfalls []InsufficientStockError
	remaining := make(map[Variant]int, len(variants))
	for _, v := range variants {
		var stock int
		err := tx.QueryRow(ctx, `
			SELECT stock FROM inventory
			WHERE product_id = $1 AND size = $2 AND color = $3
			FOR UPDATE`,
			v.ProductID, v.Size, v.Color).Scan(&stock)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVariantNotFound
		}
		if err != nil {
			return nil, err
		}
		if stock < need[v] {
			shortfalls = append(shortfalls, InsufficientStockError{
				Variant: v, Required: need[v], Available: stock,
			})
			continue
		}
		remaining[v] = stock
	}
	if len(shortfalls) > 0 {
		return nil, &AdjustError{Shortfalls: shortfalls}
	}

	results := make([]LineResult, 0, len(lines))
	for _, line := range lines {
		v := Variant{ProductID: productID, Size: line.Size, Color: line.Color}
		if _, err := tx.Exec(ctx, `
			UPDATE inventory SET stock = stock - $4, updated_at = now()
			WHERE product_id = $1 AND size = $2 AND color = $3`,
			v.ProductID, v.Size, v.Color, line.Qty); err != nil {
			return nil, err
		}
		remaining[v] -= line.Qty
		results = append(results, LineResult{Variant: v, Remaining: remaining[v]})
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return results, nil
}

func (l *PGLedger) Stock(ctx context.Context, v Variant) (int, error) {
	var stock int
	err := l.DB.QueryRow(ctx, `
		SELECT stock FROM inventory
		WHERE product_id = $1 AND size = $2 AND color = $3`,
		v.ProductID, v.Size, v.Color).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrVariantNotFound
	}
	return stock, err
}
