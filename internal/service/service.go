package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"GridSentinel/internal/collector"
	"GridSentinel/internal/evaluator"
	"GridSentinel/internal/factor"
	"GridSentinel/internal/grid"
	"GridSentinel/internal/logger"
	"GridSentinel/internal/model"
)

// Buckets assigns factor names to report categories. Names not listed here
// fall into CategorySentiment.
var Buckets = map[string]model.Category{
	factor.NameVolatility: model.CategoryTechnical,
	factor.NameVolume:     model.CategoryTechnical,
	factor.NamePERatio:    model.CategoryFundamental,
	factor.NameTrend:      model.CategorySentiment,
	factor.NamePriceRange: model.CategorySentiment,
	factor.NameMarketCap:  model.CategorySentiment,
	factor.NameTurnover:   model.CategorySentiment,
}

// CategoryOf returns the report category for a factor name.
func CategoryOf(name string) model.Category {
	if c, ok := Buckets[name]; ok {
		return c
	}
	return model.CategorySentiment
}

// StockEvaluationService decides whether a symbol suits grid trading.
type StockEvaluationService struct {
	Collector *collector.Collector
	Config    *factor.Config
	log       *logrus.Entry
}

// New creates the service. A nil cfg uses the process-wide factor config.
func New(c *collector.Collector, cfg *factor.Config) *StockEvaluationService {
	return &StockEvaluationService{
		Collector: c,
		Config:    cfg,
		log:       logger.Default().WithComponent("service"),
	}
}

// EvaluateSymbol runs every enabled factor for symbol and, when all of them
// pass, attaches a grid around the latest price.
func (s *StockEvaluationService) EvaluateSymbol(ctx context.Context, symbol string) (*model.EvaluationResult, error) {
	_, res, err := s.evaluate(ctx, symbol)
	return res, err
}

// EvaluateDetailed is EvaluateSymbol plus the evaluator run it was built from.
func (s *StockEvaluationService) EvaluateDetailed(ctx context.Context, symbol string) (*evaluator.Result, *model.EvaluationResult, error) {
	return s.evaluate(ctx, symbol)
}

func (s *StockEvaluationService) evaluate(ctx context.Context, symbol string) (*evaluator.Result, *model.EvaluationResult, error) {
	data, err := s.Collector.Collect(ctx, symbol)
	if err != nil {
		return nil, nil, fmt.Errorf("collect %s: %w", symbol, err)
	}

	cfg := s.Config
	if cfg == nil {
		cfg = factor.Default()
	}
	ev, err := evaluator.New(symbol, evaluator.WithConfig(cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("create evaluator: %w", err)
	}
	run := ev.Run(data)

	reason := map[model.Category][]model.FactorResult{
		model.CategoryTechnical:   {},
		model.CategoryFundamental: {},
		model.CategorySentiment:   {},
	}
	for _, fr := range run.Factors() {
		c := CategoryOf(fr.Factor)
		reason[c] = append(reason[c], fr)
	}

	res := &model.EvaluationResult{
		Symbol:      symbol,
		IsSupported: run.AllPassed(),
		Reason:      reason,
	}
	if res.IsSupported {
		if price, ok := data.LatestPrice(); ok {
			gc := grid.NewGenerator(symbol, price).Generate()
			res.GridConfig = &gc
		}
	}

	s.log.WithFields(logrus.Fields{
		"symbol":    symbol,
		"supported": res.IsSupported,
		"pass_rate": run.PassRate(),
	}).Info("symbol evaluated")
	return run, res, nil
}
