// Package catalog is the read-only boundary to the product catalog. Product
// authoring, browsing and presentation live outside the transactional core;
// checkout and in-person sales only need the authoritative unit price.
package catalog

import (
	"context"
	"errors"
)

type Product struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	SKU            string `json:"sku"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Currency       string `json:"currency"`
}

var ErrProductNotFound = errors.New("product not found")

type Catalog interface {
	Product(ctx context.Context, id string) (*Product, error)
}
