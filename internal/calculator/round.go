package calculator

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round rounds x half away from zero to the given number of decimal places.
func Round(x float64, places int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	return decimal.NewFromFloat(x).Round(int32(places)).InexactFloat64()
}

// RoundAll rounds every value in place and returns the slice.
func RoundAll(values []float64, places int) []float64 {
	for i, v := range values {
		values[i] = Round(v, places)
	}
	return values
}
