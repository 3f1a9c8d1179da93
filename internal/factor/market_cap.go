package factor

import (
	"fmt"

	"GridSentinel/internal/model"
)

// hundredMillion converts raw currency units to 亿.
const hundredMillion = 1e8

// MarketCap passes when market capitalization, in 亿, sits inside the band.
type MarketCap struct {
	base
	cfg MarketCapConfig
}

func NewMarketCap(cfg *Config) Factor {
	return &MarketCap{base: base{NameMarketCap, "市值"}, cfg: cfg.MarketCap}
}

func (f *MarketCap) Calculate(data model.MarketData) model.FactorResult {
	threshold := fmt.Sprintf("%g亿 ~ %g亿", f.cfg.MinMarketCap, f.cfg.MaxMarketCap)
	if data.MarketCap == nil {
		return f.missing(threshold, "缺少市值数据")
	}
	capYi := *data.MarketCap / hundredMillion
	if between(capYi, f.cfg.MinMarketCap, f.cfg.MaxMarketCap) {
		return f.result(capYi, 2, threshold, "市值适中", true)
	}
	return f.result(capYi, 2, threshold, "市值过高或过低", false)
}
