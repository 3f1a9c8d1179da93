package factor

import (
	"fmt"

	"GridSentinel/internal/calculator"
	"GridSentinel/internal/model"
)

// Trend passes when the annualized linear trend is weak enough for a ranging market.
type Trend struct {
	base
	cfg TrendConfig
}

func NewTrend(cfg *Config) Factor {
	return &Trend{base: base{NameTrend, "趋势"}, cfg: cfg.Trend}
}

func (f *Trend) Calculate(data model.MarketData) model.FactorResult {
	threshold := fmt.Sprintf("%g ~ %g", f.cfg.MinTrend, f.cfg.MaxTrend)
	trend, err := calculator.AnnualizedTrend(calculator.Tail(data.Prices, f.cfg.LookbackDays))
	if err != nil {
		return f.missing(threshold, "数据不足，无法计算趋势")
	}
	if between(trend, f.cfg.MinTrend, f.cfg.MaxTrend) {
		return f.result(trend, 4, threshold, "处于震荡区间", true)
	}
	return f.result(trend, 4, threshold, "趋势过强，不适合网格", false)
}
