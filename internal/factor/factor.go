package factor

import (
	"GridSentinel/internal/calculator"
	"GridSentinel/internal/model"
)

// Factor scores one market characteristic against configured thresholds.
// Calculate never fails: missing input yields a non-passing result with a nil value.
type Factor interface {
	Name() string
	DisplayName() string
	Calculate(data model.MarketData) model.FactorResult
}

// Constructor builds a factor bound to the thresholds in cfg.
type Constructor func(cfg *Config) Factor

type base struct {
	name    string
	display string
}

func (b base) Name() string        { return b.name }
func (b base) DisplayName() string { return b.display }

// result builds a FactorResult, rounding value to places decimals.
func (b base) result(value float64, places int, threshold, conclusion string, passed bool) model.FactorResult {
	return model.FactorResult{
		Factor:      b.name,
		DisplayName: b.display,
		Value:       model.Float(calculator.Round(value, places)),
		Threshold:   threshold,
		Conclusion:  conclusion,
		IsPassed:    passed,
	}
}

// missing builds the result for absent or insufficient input.
func (b base) missing(threshold, conclusion string) model.FactorResult {
	return model.FactorResult{
		Factor:      b.name,
		DisplayName: b.display,
		Threshold:   threshold,
		Conclusion:  conclusion,
	}
}

func between(v, lo, hi float64) bool { return lo <= v && v <= hi }
