package factor

import (
	"fmt"

	"GridSentinel/internal/model"
)

// PERatio passes when the price/earnings ratio is below MaxPE.
type PERatio struct {
	base
	cfg PERatioConfig
}

func NewPERatio(cfg *Config) Factor {
	return &PERatio{base: base{NamePERatio, "市盈率"}, cfg: cfg.PERatio}
}

func (f *PERatio) Calculate(data model.MarketData) model.FactorResult {
	threshold := fmt.Sprintf("< %g", f.cfg.MaxPE)
	if data.PE == nil {
		return f.missing(threshold, "缺少市盈率数据")
	}
	pe := *data.PE
	if pe < f.cfg.MaxPE {
		return f.result(pe, 2, threshold, "估值合理", true)
	}
	return f.result(pe, 2, threshold, "估值过高", false)
}
