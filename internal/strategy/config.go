package strategy

import (
	"errors"
	"fmt"

	"GridSentinel/internal/model"
)

// DefaultMaxOpenOrders caps resting orders when Config.MaxOpenOrders is unset.
const DefaultMaxOpenOrders = 1000

// ErrInvalidGrid is returned for bounds or grid counts that cannot form a grid.
var ErrInvalidGrid = errors.New("invalid grid")

// ErrGridMismatch is returned when a snapshot was taken on a different grid.
var ErrGridMismatch = errors.New("snapshot grid mismatch")

// Config holds the grid strategy parameters.
type Config struct {
	Symbol             string  `yaml:"symbol" json:"symbol"`
	LowerBound         float64 `yaml:"lower_bound" json:"lower_bound"`
	UpperBound         float64 `yaml:"upper_bound" json:"upper_bound"`
	GridCount          int     `yaml:"grid_count" json:"grid_count"`
	AllocateQuote      float64 `yaml:"allocate_quote" json:"allocate_quote"`
	FeeRate            float64 `yaml:"fee_rate" json:"fee_rate"`
	StopLossPctBelow   float64 `yaml:"stop_loss_pct_below" json:"stop_loss_pct_below"`
	TakeProfitBreakout bool    `yaml:"take_profit_breakout" json:"take_profit_breakout"`
	CapitalReservePct  float64 `yaml:"capital_reserve_pct" json:"capital_reserve_pct"`
	MaxOpenOrders      int     `yaml:"max_open_orders" json:"max_open_orders"`
}

// Validate checks that the bounds and grid count describe a usable grid.
func (c Config) Validate() error {
	if c.UpperBound <= c.LowerBound {
		return fmt.Errorf("%w: upper_bound %g must exceed lower_bound %g", ErrInvalidGrid, c.UpperBound, c.LowerBound)
	}
	if c.GridCount <= 0 {
		return fmt.Errorf("%w: grid_count must be positive, got %d", ErrInvalidGrid, c.GridCount)
	}
	return nil
}

// Levels returns GridCount+1 evenly spaced prices from LowerBound to UpperBound.
func (c Config) Levels() []float64 {
	step := (c.UpperBound - c.LowerBound) / float64(c.GridCount)
	levels := make([]float64, c.GridCount+1)
	for i := range levels {
		levels[i] = c.LowerBound + float64(i)*step
	}
	return levels
}

func (c Config) maxOpenOrders() int {
	if c.MaxOpenOrders <= 0 {
		return DefaultMaxOpenOrders
	}
	return c.MaxOpenOrders
}

// FromGrid copies the bounds and count of a generated grid onto base.
func FromGrid(base Config, gc model.GridConfig) Config {
	base.LowerBound = gc.LowerBound
	base.UpperBound = gc.UpperBound
	base.GridCount = gc.GridCount
	return base
}
