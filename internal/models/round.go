package models

import (
	"math"

	"github.com/shopspring/decimal"
)

// Finite returns v, or 0 when v is NaN or infinite
func Finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Round rounds half away from zero to the given number of decimal places
func Round(v float64, places int32) float64 {
	v = Finite(v)
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// SafeDiv returns num/den, or 0 when den is zero or the result is not finite
func SafeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return Finite(num / den)
}
