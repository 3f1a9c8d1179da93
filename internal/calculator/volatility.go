package calculator

import (
	"errors"
	"math"
)

// TradingDaysPerYear is the annualization factor for daily series.
const TradingDaysPerYear = 252

var ErrNotEnoughData = errors.New("not enough data")

// PctChange returns simple returns p[i]/p[i-1]-1 for i >= 1.
func PctChange(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	out := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		out = append(out, prices[i]/prices[i-1]-1)
	}
	return out
}

// PopulationStdDev is the standard deviation with divisor n.
func PopulationStdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := Mean(values)
	ss := 0.0
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)))
}

// AnnualizedVolatility returns the population std of simple returns scaled by sqrt(252).
// Requires at least two prices.
func AnnualizedVolatility(prices []float64) (float64, error) {
	if len(prices) < 2 {
		return 0, ErrNotEnoughData
	}
	vol := PopulationStdDev(PctChange(prices)) * math.Sqrt(TradingDaysPerYear)
	if math.IsNaN(vol) || math.IsInf(vol, 0) {
		return 0, errors.New("volatility is not finite")
	}
	return vol, nil
}
