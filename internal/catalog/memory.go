package catalog

import (
	"context"
	"sync"
)

type MemoryCatalog struct {
	mu       sync.RWMutex
	products map[string]Product
}

var _ Catalog = (*MemoryCatalog)(nil)

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{products: make(map[string]Product)}
}

func (c *MemoryCatalog) Put(p Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[p.ID] = p
}

func (c *MemoryCatalog) Product(_ context.Context, id string) (*Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	cp := p
	return &cp, nil
}
