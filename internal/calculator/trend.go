package calculator

import (
	"errors"
	"math"
)

// LinearSlope fits y = a*x + b by least squares with x = 0..n-1 and returns a.
func LinearSlope(y []float64) (float64, error) {
	n := len(y)
	if n < 2 {
		return 0, ErrNotEnoughData
	}
	xMean := float64(n-1) / 2
	yMean := Mean(y)
	var num, den float64
	for i, v := range y {
		dx := float64(i) - xMean
		num += dx * (v - yMean)
		den += dx * dx
	}
	return num / den, nil
}

// AnnualizedTrend is the fitted daily slope times 252, normalized by the mean price.
func AnnualizedTrend(prices []float64) (float64, error) {
	slope, err := LinearSlope(prices)
	if err != nil {
		return 0, err
	}
	mean := Mean(prices)
	if mean == 0 {
		return 0, errors.New("mean price is zero")
	}
	trend := slope * TradingDaysPerYear / mean
	if math.IsNaN(trend) || math.IsInf(trend, 0) {
		return 0, errors.New("trend is not finite")
	}
	return trend, nil
}
