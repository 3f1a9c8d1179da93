package collector

import (
	"context"

	"GridSentinel/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchDailyBars returns up to days daily bars, oldest first.
	FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error)
	FetchFundamentals(ctx context.Context, symbol string) (model.Fundamentals, error)
	Name() string
}
