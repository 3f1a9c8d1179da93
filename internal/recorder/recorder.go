package recorder

import (
	"time"

	"GridSentinel/internal/model"
)

// FillEvent records one execution applied to a strategy.
type FillEvent struct {
	Symbol  string
	OrderID string
	Side    string // "buy" or "sell"
	Price   float64
	Size    float64
	Fee     float64
}

// StrategyEvent records a strategy lifecycle change.
type StrategyEvent struct {
	EventType   string // "START", "EXIT", "STOP"
	Symbol      string
	Reason      string
	CashQuote   float64
	Inventory   float64
	RealizedPnL float64
	LastPrice   float64
}

// EvaluationRecord is a stored evaluation with its factor rows.
type EvaluationRecord struct {
	ID          int64
	Timestamp   time.Time
	Symbol      string
	IsSupported bool
	Total       int
	Passed      int
	Factors     []model.FactorResult
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordEvaluation(res *model.EvaluationResult) error
	RecordFill(evt *FillEvent) error
	RecordStrategyEvent(evt *StrategyEvent) error
	ListEvaluations(symbol string, limit int) ([]EvaluationRecord, error)
	Close() error
}
