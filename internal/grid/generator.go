package grid

import (
	"GridSentinel/internal/calculator"
	"GridSentinel/internal/model"
)

// Fixed grid shape.
const (
	LowerRatio  = 0.9
	UpperRatio  = 1.1
	Count       = 20
	SpacingMode = "FIXED_%"
	SpacingPct  = 1.5
)

// Generator derives a symmetric price grid around a current price.
type Generator struct {
	Symbol       string
	CurrentPrice float64
}

func NewGenerator(symbol string, currentPrice float64) *Generator {
	return &Generator{Symbol: symbol, CurrentPrice: currentPrice}
}

// Generate returns Count+1 evenly spaced levels from lower to upper bound.
// Non-positive prices produce a degenerate grid rather than an error.
func (g *Generator) Generate() model.GridConfig {
	lower := g.CurrentPrice * LowerRatio
	upper := g.CurrentPrice * UpperRatio
	step := (upper - lower) / Count

	levels := make([]float64, Count+1)
	for i := range levels {
		levels[i] = lower + float64(i)*step
	}
	calculator.RoundAll(levels, 2)
	// pin the endpoints so accumulated float error never leaks past the bounds
	levels[0] = calculator.Round(lower, 2)
	levels[Count] = calculator.Round(upper, 2)

	return model.GridConfig{
		LowerBound:      calculator.Round(lower, 2),
		UpperBound:      calculator.Round(upper, 2),
		GridCount:       Count,
		GridSpacingMode: SpacingMode,
		GridSpacingPct:  SpacingPct,
		CurrentPrice:    calculator.Round(g.CurrentPrice, 2),
		GridLevels:      levels,
	}
}
