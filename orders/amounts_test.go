package orders

import (
	"testing"

	"karigar/models"
)

func TestComputeSplitSpec(t *testing.T) {
	initial, final := ComputeSplit(1000)
	if initial != 400 || final != 600 {
		t.Fatalf("split of 1000: got %d/%d, want 400/600", initial, final)
	}
}

func TestComputeSplitAlwaysSumsToTotal(t *testing.T) {
	for _, total := range []int64{7, 99, 999, 1001, 123457, 9999999} {
		initial, final := ComputeSplit(total)
		if initial+final != total {
			t.Fatalf("split of %d: %d + %d != %d", total, initial, final, total)
		}
		if initial <= 0 || final < 0 {
			t.Fatalf("split of %d produced non-positive part: %d/%d", total, initial, final)
		}
	}
}

func TestComputeTotals(t *testing.T) {
	items := []models.OrderItem{
		{DesignID: "d1", Quantity: 2, UnitPrice: 10000},
		{DesignID: "d2", Quantity: 1, UnitPrice: 5000},
	}
	totals := ComputeTotals(items)

	if totals.Subtotal != 25000 {
		t.Fatalf("subtotal: got %d, want 25000", totals.Subtotal)
	}
	if totals.Total != totals.Subtotal+totals.Tax+totals.Shipping {
		t.Fatalf("total %d does not equal subtotal+tax+shipping", totals.Total)
	}
	if totals.Tax < 0 || totals.Shipping < 0 {
		t.Fatalf("negative charge in totals: %+v", totals)
	}
}
