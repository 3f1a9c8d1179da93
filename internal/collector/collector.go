package collector

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"GridSentinel/internal/logger"
	"GridSentinel/internal/model"
)

// DefaultHistoryDays covers the default factor lookback.
const DefaultHistoryDays = 180

// Collector turns fetcher output into the MarketData bag used by factors.
type Collector struct {
	Fetcher Fetcher
	Days    int
	log     *logrus.Entry
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, days int) *Collector {
	if days <= 0 {
		days = DefaultHistoryDays
	}
	return &Collector{
		Fetcher: fetcher,
		Days:    days,
		log:     logger.Default().WithComponent("collector").WithField("source", fetcher.Name()),
	}
}

// Collect fetches bars and fundamentals for symbol. Fetcher errors are
// returned wrapped and never retried.
func (c *Collector) Collect(ctx context.Context, symbol string) (model.MarketData, error) {
	bars, err := c.Fetcher.FetchDailyBars(ctx, symbol, c.Days)
	if err != nil {
		return model.MarketData{}, fmt.Errorf("fetch daily bars: %w", err)
	}

	f, err := c.Fetcher.FetchFundamentals(ctx, symbol)
	if err != nil {
		return model.MarketData{}, fmt.Errorf("fetch fundamentals: %w", err)
	}

	data := model.NewMarketData(symbol, bars, f)
	if !hasTurnover(data.Turnovers) && f.SharesOutstanding != nil && *f.SharesOutstanding > 0 {
		for i, v := range data.Volumes {
			data.Turnovers[i] = v / *f.SharesOutstanding
		}
	}

	c.log.WithFields(logrus.Fields{
		"symbol": symbol,
		"bars":   len(bars),
	}).Debug("market data collected")
	return data, nil
}

func hasTurnover(values []float64) bool {
	for _, v := range values {
		if v != 0 {
			return true
		}
	}
	return false
}
