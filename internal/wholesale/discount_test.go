package wholesale

import "testing"

func TestDiscountBoundaries(t *testing.T) {
	cases := []struct {
		qty      int
		percent  int
		eligible bool
	}{
		{11, 0, false},
		{12, 30, true},
		{23, 30, true},
		{24, 40, true},
		{47, 40, true},
		{48, 50, true},
		{500, 50, true},
		{0, 0, false},
	}
	for _, tc := range cases {
		pct, ok := Discount(tc.qty)
		if pct != tc.percent || ok != tc.eligible {
			t.Errorf("Discount(%d) = (%d, %v), want (%d, %v)", tc.qty, pct, ok, tc.percent, tc.eligible)
		}
	}
}

func TestQuoteTotal(t *testing.T) {
	total, pct, ok := QuoteTotal(24, 10000)
	if !ok || pct != 40 {
		t.Fatalf("pct = %d, eligible = %v", pct, ok)
	}
	if total != 144000 { // 24 * 10000 * 0.6
		t.Fatalf("total = %d, want 144000", total)
	}

	if _, _, ok := QuoteTotal(5, 10000); ok {
		t.Fatal("below minimum must not be eligible")
	}
}
