package collector

import (
	"context"
	"math/rand/v2"
	"time"

	"GridSentinel/internal/model"
)

// MockFetcher returns a deterministic random walk for development and testing.
type MockFetcher struct {
	Seed      uint64
	BasePrice float64
	Sigma     float64
	PE        *float64
	MarketCap *float64

	// DailyData, when set, is returned verbatim.
	DailyData []model.OHLCV
}

// NewMockFetcher returns the stand-in source: seed 0, base price 100 and
// daily returns drawn from N(0, 0.01).
func NewMockFetcher() *MockFetcher {
	return &MockFetcher{
		BasePrice: 100,
		Sigma:     0.01,
		PE:        model.Float(25),
		MarketCap: model.Float(2e10),
	}
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(ctx context.Context, _ string, days int) ([]model.OHLCV, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.DailyData != nil {
		return m.DailyData, nil
	}
	return generateMockBars(m.Seed, m.BasePrice, m.Sigma, days), nil
}

func (m *MockFetcher) FetchFundamentals(ctx context.Context, _ string) (model.Fundamentals, error) {
	if err := ctx.Err(); err != nil {
		return model.Fundamentals{}, err
	}
	return model.Fundamentals{PE: m.PE, MarketCap: m.MarketCap}, nil
}

func generateMockBars(seed uint64, basePrice, sigma float64, count int) []model.OHLCV {
	rng := rand.New(rand.NewPCG(seed, 0))
	today := time.Now().UTC().Truncate(24 * time.Hour)
	bars := make([]model.OHLCV, count)
	p := basePrice
	for i := 0; i < count; i++ {
		prev := p
		p *= 1 + rng.NormFloat64()*sigma
		bars[i] = model.OHLCV{
			Time:     today.AddDate(0, 0, -(count - i)),
			Open:     prev,
			High:     max(prev, p) * 1.005,
			Low:      min(prev, p) * 0.995,
			Close:    p,
			Volume:   1_000_000 * (1 + 0.2*rng.Float64()),
			Turnover: 0.015 + 0.01*rng.Float64(),
		}
	}
	return bars
}
