package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGCatalog struct{ DB *pgxpool.Pool }

var _ Catalog = (*PGCatalog)(nil)

func (c *PGCatalog) Product(ctx context.Context, id string) (*Product, error) {
	var p Product
	err := c.DB.QueryRow(ctx, `
		SELECT id, name, sku, price_cents, currency FROM products WHERE id = $1`,
		id).Scan(&p.ID, &p.Name, &p.SKU, &p.UnitPriceCents, &p.Currency)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
