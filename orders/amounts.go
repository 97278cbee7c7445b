package orders

import (
	"math"
	"os"
	"strconv"

	"karigar/models"
)

// Pricing knobs are fixed at the configuration level and read once.
// The deposit ratio is deliberately global, not per design.
var (
	DepositPercent  = envFloat("DEPOSIT_PERCENT", 40)
	TaxPercent      = envFloat("TAX_PERCENT", 5)
	ShippingFlat    = int64(envFloat("SHIPPING_FLAT", 5000)) // paise
	DefaultCurrency = "INR"
)

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

// ComputeTotals derives the frozen totals block from snapshotted line
// items. Called once, at order creation.
func ComputeTotals(items []models.OrderItem) models.Totals {
	var subtotal int64
	for _, it := range items {
		subtotal += it.UnitPrice * int64(it.Quantity)
	}
	tax := int64(math.Round(float64(subtotal) * TaxPercent / 100))
	return models.Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: ShippingFlat,
		Total:    subtotal + tax + ShippingFlat,
	}
}

// ComputeSplit fixes the two phase amounts. The final amount is the
// remainder, so the two always sum to the exact total.
func ComputeSplit(total int64) (initial, final int64) {
	initial = int64(math.Round(float64(total) * DepositPercent / 100))
	final = total - initial
	return initial, final
}
