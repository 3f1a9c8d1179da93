package factor

import (
	"fmt"

	"GridSentinel/internal/calculator"
	"GridSentinel/internal/model"
)

// Turnover passes when average turnover sits inside the band. The reported value is a percentage.
type Turnover struct {
	base
	cfg TurnoverConfig
}

func NewTurnover(cfg *Config) Factor {
	return &Turnover{base: base{NameTurnover, "换手率"}, cfg: cfg.Turnover}
}

func (f *Turnover) Calculate(data model.MarketData) model.FactorResult {
	threshold := fmt.Sprintf("%g%% ~ %g%%",
		calculator.Round(f.cfg.MinTurnover*100, 4), calculator.Round(f.cfg.MaxTurnover*100, 4))
	if len(data.Turnovers) == 0 {
		return f.missing(threshold, "数据不足，无法计算平均换手率")
	}
	avg := calculator.Mean(calculator.Tail(data.Turnovers, f.cfg.LookbackDays))
	if between(avg, f.cfg.MinTurnover, f.cfg.MaxTurnover) {
		return f.result(avg*100, 2, threshold, "换手率适中", true)
	}
	return f.result(avg*100, 2, threshold, "换手率过高或过低", false)
}
