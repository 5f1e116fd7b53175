package shipping

import (
	"errors"
	"testing"
)

func TestQuoteAscendingByCost(t *testing.T) {
	p := NewRateProvider()
	opts, err := p.Quote(Destination{Country: "NG", City: "Lagos"}, []Item{
		{ProductID: "tee-1", Qty: 2},
		{ProductID: "hoodie-9", Qty: 1, WeightGrams: 800},
	})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if len(opts) < 2 {
		t.Fatalf("expected multiple options, got %d", len(opts))
	}
	for i := 1; i < len(opts); i++ {
		if opts[i].CostCents < opts[i-1].CostCents {
			t.Fatalf("options not ascending: %+v", opts)
		}
	}
	for _, o := range opts {
		if o.EstimateDaysMin <= 0 || o.EstimateDaysMax < o.EstimateDaysMin {
			t.Fatalf("bad estimate range: %+v", o)
		}
	}
}

func TestQuoteUnsupportedDestination(t *testing.T) {
	p := NewRateProvider()
	opts, err := p.Quote(Destination{Country: "AQ"}, []Item{{ProductID: "tee-1", Qty: 1}})
	if !errors.Is(err, ErrUnsupportedDestination) {
		t.Fatalf("expected ErrUnsupportedDestination, got %v", err)
	}
	if len(opts) != 0 {
		t.Fatalf("expected empty list, got %v", opts)
	}
}

func TestQuoteIncompleteInput(t *testing.T) {
	p := NewRateProvider()
	if _, err := p.Quote(Destination{}, []Item{{ProductID: "tee-1", Qty: 1}}); !errors.Is(err, ErrIncompleteInput) {
		t.Fatalf("missing country: got %v", err)
	}
	if _, err := p.Quote(Destination{Country: "NG"}, nil); !errors.Is(err, ErrIncompleteInput) {
		t.Fatalf("empty items: got %v", err)
	}
	if _, err := p.Quote(Destination{Country: "NG"}, []Item{{ProductID: "x", Qty: 0}}); !errors.Is(err, ErrIncompleteInput) {
		t.Fatalf("zero qty: got %v", err)
	}
}

func TestQuoteIsPure(t *testing.T) {
	p := NewRateProvider()
	dest := Destination{Country: "NG"}
	items := []Item{{ProductID: "tee-1", Qty: 3}}
	a, _ := p.Quote(dest, items)
	b, _ := p.Quote(dest, items)
	if len(a) != len(b) {
		t.Fatal("repeated quotes differ")
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("repeated quotes differ at %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}
