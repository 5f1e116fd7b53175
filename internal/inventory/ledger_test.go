package inventory

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestReserveAndDecrement(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	v := Variant{ProductID: "tee-1", Size: "M", Color: "black"}
	l.Seed(v, 3)

	remaining, err := l.ReserveAndDecrement(ctx, v, 2)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if remaining != 1 {
		t.Fatalf("remaining = %d, want 1", remaining)
	}

	_, err = l.ReserveAndDecrement(ctx, v, 2)
	var short *InsufficientStockError
	if !errors.As(err, &short) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if short.Required != 2 || short.Available != 1 {
		t.Fatalf("shortfall detail = %+v", short)
	}

	// failed attempt must not have touched stock
	if s, _ := l.Stock(ctx, v); s != 1 {
		t.Fatalf("stock = %d after failed reserve, want 1", s)
	}
}

func TestReserveUnknownVariant(t *testing.T) {
	l := NewMemoryLedger()
	_, err := l.ReserveAndDecrement(context.Background(), Variant{ProductID: "x", Size: "S"}, 1)
	if !errors.Is(err, ErrVariantNotFound) {
		t.Fatalf("expected ErrVariantNotFound, got %v", err)
	}
}

// Concurrent reservations summing past the available stock must succeed
// exactly stock/qty times: no oversell.
func TestConcurrentReserveNoOversell(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	v := Variant{ProductID: "hoodie-9", Size: "L"}
	const stock = 7
	const attempts = 50
	l.Seed(v, stock)

	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.ReserveAndDecrement(ctx, v, 1)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	ok, short := 0, 0
	for err := range results {
		switch {
		case err == nil:
			ok++
		default:
			var ise *InsufficientStockError
			if !errors.As(err, &ise) {
				t.Fatalf("unexpected error: %v", err)
			}
			short++
		}
	}
	if ok != stock {
		t.Fatalf("%d reservations succeeded, want exactly %d", ok, stock)
	}
	if short != attempts-stock {
		t.Fatalf("%d rejections, want %d", short, attempts-stock)
	}
	if s, _ := l.Stock(ctx, v); s != 0 {
		t.Fatalf("final stock = %d, want 0", s)
	}
}

func TestRelease(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	v := Variant{ProductID: "tee-1", Size: "S"}
	l.Seed(v, 1)

	if _, err := l.ReserveAndDecrement(ctx, v, 1); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := l.Release(ctx, v, 1); err != nil {
		t.Fatalf("release: %v", err)
	}
	if s, _ := l.Stock(ctx, v); s != 1 {
		t.Fatalf("stock = %d after release, want 1", s)
	}
}

func TestAdjustBatchAllOrNothing(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	l.Seed(Variant{ProductID: "tee-1", Size: "S"}, 5)
	l.Seed(Variant{ProductID: "tee-1", Size: "M"}, 1)

	// second line is short: nothing may be applied
	_, err := l.Adjust(ctx, "tee-1", []AdjustLine{
		{Size: "S", Qty: 2},
		{Size: "M", Qty: 3},
	})
	var adjErr *AdjustError
	if !errors.As(err, &adjErr) {
		t.Fatalf("expected AdjustError, got %v", err)
	}
	if len(adjErr.Shortfalls) != 1 || adjErr.Shortfalls[0].Variant.Size != "M" {
		t.Fatalf("shortfalls = %+v", adjErr.Shortfalls)
	}
	if s, _ := l.Stock(ctx, Variant{ProductID: "tee-1", Size: "S"}); s != 5 {
		t.Fatalf("size S stock = %d, batch must not partially apply", s)
	}

	// valid batch applies every line and reports remaining per line
	results, err := l.Adjust(ctx, "tee-1", []AdjustLine{
		{Size: "S", Qty: 2},
		{Size: "M", Qty: 1},
	})
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if results[0].Remaining != 3 || results[1].Remaining != 0 {
		t.Fatalf("results = %+v", results)
	}
}

// Two lines for the same variant must be validated against their sum, not
// each against the starting stock: stock can never go negative.
func TestAdjustDuplicateVariantLines(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	v := Variant{ProductID: "tee-1", Size: "M"}
	l.Seed(v, 5)

	_, err := l.Adjust(ctx, "tee-1", []AdjustLine{
		{Size: "M", Qty: 3},
		{Size: "M", Qty: 3},
	})
	var adjErr *AdjustError
	if !errors.As(err, &adjErr) {
		t.Fatalf("expected AdjustError, got %v", err)
	}
	if len(adjErr.Shortfalls) != 1 {
		t.Fatalf("shortfalls = %+v", adjErr.Shortfalls)
	}
	if s := adjErr.Shortfalls[0]; s.Required != 6 || s.Available != 5 {
		t.Fatalf("shortfall detail = %+v", s)
	}
	if s, _ := l.Stock(ctx, v); s != 5 {
		t.Fatalf("stock = %d after rejected batch, want 5", s)
	}

	// duplicates that fit within stock apply sequentially
	results, err := l.Adjust(ctx, "tee-1", []AdjustLine{
		{Size: "M", Qty: 2},
		{Size: "M", Qty: 2},
	})
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if results[0].Remaining != 3 || results[1].Remaining != 1 {
		t.Fatalf("results = %+v", results)
	}
	if s, _ := l.Stock(ctx, v); s != 1 {
		t.Fatalf("stock = %d, want 1", s)
	}
}
