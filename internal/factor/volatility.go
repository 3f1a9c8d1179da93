package factor

import (
	"fmt"

	"GridSentinel/internal/calculator"
	"GridSentinel/internal/model"
)

// Volatility passes when the annualized volatility of recent returns sits inside the band.
type Volatility struct {
	base
	cfg VolatilityConfig
}

func NewVolatility(cfg *Config) Factor {
	return &Volatility{base: base{NameVolatility, "波动率"}, cfg: cfg.Volatility}
}

func (f *Volatility) Calculate(data model.MarketData) model.FactorResult {
	threshold := fmt.Sprintf("%.2f - %.2f", f.cfg.MinVolatility, f.cfg.MaxVolatility)
	prices := calculator.Tail(data.Prices, f.cfg.LookbackDays)
	vol, err := calculator.AnnualizedVolatility(prices)
	if err != nil {
		return f.missing(threshold, "数据不足，无法计算波动率")
	}
	if between(vol, f.cfg.MinVolatility, f.cfg.MaxVolatility) {
		return f.result(vol, 4, threshold, "适中，适合网格", true)
	}
	return f.result(vol, 4, threshold, "波动率过低或过高，不适合网格", false)
}
