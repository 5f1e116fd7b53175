package inventory

import (
	"context"
	"sync"
)

// MemoryLedger is the in-process Ledger used by tests and dependency-free
// development. The mutex gives the same matched/not-matched semantics as the
// conditional UPDATE in PGLedger.
type MemoryLedger struct {
	mu    sync.Mutex
	stock map[Variant]int
}

var _ Ledger = (*MemoryLedger)(nil)

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{stock: make(map[Variant]int)}
}

// Seed sets the stock level for a variant. Not part of the Ledger contract;
// variant rows are created at product-authoring time.
func (l *MemoryLedger) Seed(v Variant, qty int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stock[v] = qty
}

func (l *MemoryLedger) ReserveAndDecrement(_ context.Context, v Variant, qty int) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	stock, ok := l.stock[v]
	if !ok {
		return 0, ErrVariantNotFound
	}
	if stock < qty {
		return 0, &InsufficientStockError{Variant: v, Required: qty, Available: stock}
	}
	l.stock[v] = stock - qty
	return stock - qty, nil
}

func (l *MemoryLedger) Release(_ context.Context, v Variant, qty int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	stock, ok := l.stock[v]
	if !ok {
		return ErrVariantNotFound
	}
	l.stock[v] = stock + qty
	return nil
}

func (l *MemoryLedger) Adjust(_ context.Context, productID string, lines []AdjustLine) ([]LineResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Validate each variant against the batch total, not per line: duplicate
	// lines for one variant must not each pass against the same stock.
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
	for _, v := range variants {
		stock, ok := l.stock[v]
		if !ok {
			return nil, ErrVariantNotFound
		}
		if stock < need[v] {
			shortfalls = append(shortfalls, InsufficientStockError{
				Variant: v, Required: need[v], Available: stock,
			})
		}
	}
	if len(shortfalls) > 0 {
		return nil, &AdjustError{Shortfalls: shortfalls}
	}

	results := make([]LineResult, 0, len(lines))
	for _, line := range lines {
		v := Variant{ProductID: productID, Size: line.Size, Color: line.Color}
		l.stock[v] -= line.Qty
		results = append(results, LineResult{Variant: v, Remaining: l.stock[v]})
	}
	return results, nil
}

func (l *MemoryLedger) Stock(_ context.Context, v Variant) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	stock, ok := l.stock[v]
	if !ok {
		return 0, ErrVariantNotFound
	}
	return stock, nil
}
