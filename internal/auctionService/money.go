package auction

import (
	"math"

	"github.com/shopspring/decimal"
)

const monetaryPrecision int32 = 2 // prices are compared in whole cents

// exceeds reports whether amount is strictly above price once both are rounded
// to monetaryPrecision, so float noise can neither create nor hide a raise.
func exceeds(amount, price float64) bool {
	amountDecimal := decimal.NewFromFloat(amount).Round(monetaryPrecision)
	priceDecimal := decimal.NewFromFloat(price).Round(monetaryPrecision)

	return amountDecimal.GreaterThan(priceDecimal)
}

func validAmount(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
