package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GridSentinel/internal/collector"
	"GridSentinel/internal/factor"
	"GridSentinel/internal/model"
)

type stubFetcher struct {
	bars []model.OHLCV
	f    model.Fundamentals
	err  error
}

func (s *stubFetcher) Name() string { return "stub" }
func (s *stubFetcher) FetchDailyBars(context.Context, string, int) ([]model.OHLCV, error) {
	return s.bars, s.err
}
func (s *stubFetcher) FetchFundamentals(context.Context, string) (model.Fundamentals, error) {
	return s.f, nil
}

// oscillating closes around 50 with about 16% annualized volatility and no trend.
func calmBars(n int) []model.OHLCV {
	bars := make([]model.OHLCV, n)
	for i := range bars {
		c := 50.0
		if i%2 == 1 {
			c = 50.5
		}
		bars[i] = model.OHLCV{Close: c, Volume: 1_000_000, Turnover: 0.02}
	}
	return bars
}

func newService(f collector.Fetcher, cfg *factor.Config) *StockEvaluationService {
	return New(collector.NewCollector(f, 60), cfg)
}

func TestCategoryOf(t *testing.T) {
	assert.Equal(t, model.CategoryTechnical, CategoryOf("volatility"))
	assert.Equal(t, model.CategoryTechnical, CategoryOf("volume"))
	assert.Equal(t, model.CategoryFundamental, CategoryOf("pe_ratio"))
	for _, n := range []string{"trend", "price_range", "market_cap", "turnover", "momentum"} {
		assert.Equal(t, model.CategorySentiment, CategoryOf(n), n)
	}
	for _, n := range factor.Names() {
		_, ok := Buckets[n]
		assert.True(t, ok, "factor %s has no explicit bucket", n)
	}
}

func TestEvaluateSymbol_Supported(t *testing.T) {
	stub := &stubFetcher{
		bars: calmBars(60),
		f:    model.Fundamentals{PE: model.Float(15), MarketCap: model.Float(2e10)},
	}
	res, err := newService(stub, factor.Defaults()).EvaluateSymbol(context.Background(), "600000")
	require.NoError(t, err)

	for _, fr := range res.AllFactors() {
		assert.True(t, fr.IsPassed, "%s: %s", fr.Factor, fr.Conclusion)
	}
	assert.True(t, res.IsSupported)
	assert.Len(t, res.Reason[model.CategoryTechnical], 2)
	assert.Len(t, res.Reason[model.CategoryFundamental], 1)
	assert.Len(t, res.Reason[model.CategorySentiment], 4)

	require.NotNil(t, res.GridConfig)
	assert.Equal(t, 50.5, res.GridConfig.CurrentPrice)
	assert.Len(t, res.GridConfig.GridLevels, 21)
}

func TestEvaluateSymbol_NotSupported(t *testing.T) {
	stub := &stubFetcher{bars: calmBars(60), f: model.Fundamentals{PE: model.Float(80)}}
	res, err := newService(stub, factor.Defaults()).EvaluateSymbol(context.Background(), "X")
	require.NoError(t, err)
	assert.False(t, res.IsSupported)
	assert.Nil(t, res.GridConfig)
	assert.Len(t, res.AllFactors(), 7)
}

func TestEvaluateSymbol_NoFactorsIsSupported(t *testing.T) {
	cfg := factor.Defaults()
	cfg.EnabledFactors = nil
	run, res, err := newService(&stubFetcher{bars: calmBars(30)}, cfg).EvaluateDetailed(context.Background(), "X")
	require.NoError(t, err)
	assert.Empty(t, res.AllFactors())
	assert.Equal(t, 0.0, run.PassRate())
	assert.True(t, res.IsSupported)
	require.NotNil(t, res.GridConfig)
	assert.Equal(t, 50.5, res.GridConfig.CurrentPrice)
}

func TestEvaluateSymbol_UnknownFactorBucketsAsSentiment(t *testing.T) {
	cfg := factor.Defaults()
	cfg.EnabledFactors = []string{"momentum", "pe_ratio"}
	stub := &stubFetcher{bars: calmBars(30), f: model.Fundamentals{PE: model.Float(10)}}

	run, res, err := newService(stub, cfg).EvaluateDetailed(context.Background(), "X")
	require.NoError(t, err)
	require.Len(t, res.Reason[model.CategorySentiment], 1)
	assert.Equal(t, "momentum", res.Reason[model.CategorySentiment][0].Factor)
	assert.False(t, res.IsSupported)
	assert.Equal(t, 0.5, run.PassRate())
}

func TestEvaluateSymbol_PropagatesFetchError(t *testing.T) {
	boom := errors.New("upstream down")
	_, err := newService(&stubFetcher{err: boom}, factor.Defaults()).EvaluateSymbol(context.Background(), "X")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}
