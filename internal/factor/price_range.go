package factor

import (
	"fmt"

	"GridSentinel/internal/model"
)

// PriceRange passes when the latest price sits inside the configured band.
type PriceRange struct {
	base
	cfg PriceRangeConfig
}

func NewPriceRange(cfg *Config) Factor {
	return &PriceRange{base: base{NamePriceRange, "价格区间"}, cfg: cfg.PriceRange}
}

func (f *PriceRange) Calculate(data model.MarketData) model.FactorResult {
	threshold := fmt.Sprintf("%g ~ %g", f.cfg.MinPrice, f.cfg.MaxPrice)
	price, ok := data.LatestPrice()
	if !ok {
		return f.missing(threshold, "无法获取当前价格")
	}
	if between(price, f.cfg.MinPrice, f.cfg.MaxPrice) {
		return f.result(price, 2, threshold, "价格适中", true)
	}
	return f.result(price, 2, threshold, "价格过高或过低", false)
}
