package model

import "time"

// LotSnapshot is the persisted form of an inventory lot.
type LotSnapshot struct {
	LevelIdx int     `json:"level_idx"`
	Price    float64 `json:"price"`
	Size     float64 `json:"size"`
}

// StrategySnapshot is the persisted view of a running grid strategy.
type StrategySnapshot struct {
	Symbol           string        `json:"symbol"`
	Mode             string        `json:"mode"`
	LowerBound       float64       `json:"lower_bound"`
	UpperBound       float64       `json:"upper_bound"`
	GridCount        int           `json:"grid_count"`
	TickID           int64         `json:"tick_id"`
	LastPrice        float64       `json:"last_price"`
	CashQuote        float64       `json:"cash_quote"`
	InventoryBase    float64       `json:"inventory_base"`
	RealizedPnLQuote float64       `json:"realized_pnl_quote"`
	OpenOrders       int           `json:"open_orders"`
	Lots             []LotSnapshot `json:"lots"`
	ExitReason       string        `json:"exit_reason,omitempty"`
	UpdatedAt        time.Time     `json:"updated_at"`
}
