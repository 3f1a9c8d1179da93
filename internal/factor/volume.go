package factor

import (
	"fmt"

	"GridSentinel/internal/calculator"
	"GridSentinel/internal/model"
)

// Volume passes when average daily volume, in lots of 100, reaches MinVolume.
type Volume struct {
	base
	cfg VolumeConfig
}

func NewVolume(cfg *Config) Factor {
	return &Volume{base: base{NameVolume, "成交量"}, cfg: cfg.Volume}
}

func (f *Volume) Calculate(data model.MarketData) model.FactorResult {
	threshold := fmt.Sprintf("> %d手", f.cfg.MinVolume)
	if len(data.Volumes) == 0 {
		return f.missing(threshold, "数据不足，无法计算平均成交量")
	}
	avg := calculator.Mean(calculator.Tail(data.Volumes, f.cfg.LookbackDays)) / 100
	if avg >= float64(f.cfg.MinVolume) {
		return f.result(avg, 2, threshold, "流动性充足", true)
	}
	return f.result(avg, 2, threshold, "流动性不足", false)
}
