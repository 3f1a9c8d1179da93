package evaluator

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"GridSentinel/internal/factor"
	"GridSentinel/internal/logger"
	"GridSentinel/internal/model"
)

// Display name and conclusions for results the registry cannot produce.
const (
	UnknownFactorName     = "未知因子"
	UnregisteredFactor    = "unregistered factor"
	DisabledFactorName    = "未启用因子"
	DisabledFactorVerdict = "因子未启用"
)

// Evaluator runs the enabled factors for one symbol.
type Evaluator struct {
	Symbol string
	Config *factor.Config
	log    *logrus.Entry
}

// Option selects the configuration source.
type Option func(*options) error

type options struct {
	cfg *factor.Config
}

// WithConfig evaluates against an explicit configuration.
func WithConfig(cfg *factor.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return fmt.Errorf("nil factor config")
		}
		o.cfg = cfg
		return nil
	}
}

// WithConfigPath loads the configuration starting from path.
func WithConfigPath(path string) Option {
	return func(o *options) error {
		cfg, err := factor.LoadFromFile(path)
		if err != nil {
			return err
		}
		o.cfg = cfg
		return nil
	}
}

// New creates an Evaluator. Without options the process-wide configuration is used.
func New(symbol string, opts ...Option) (*Evaluator, error) {
	var o options
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, fmt.Errorf("configure evaluator: %w", err)
		}
	}
	if o.cfg == nil {
		o.cfg = factor.Default()
	}
	return &Evaluator{
		Symbol: symbol,
		Config: o.cfg,
		log:    logger.Default().WithComponent("evaluator").WithField("symbol", symbol),
	}, nil
}

// EvaluateFactor runs a single factor by name.
func (e *Evaluator) EvaluateFactor(name string, data model.MarketData) model.FactorResult {
	if !e.Config.IsFactorEnabled(name) {
		e.log.WithField("factor", name).Debug("factor disabled, skipping")
		return model.FactorResult{Factor: name, DisplayName: DisabledFactorName, Conclusion: DisabledFactorVerdict}
	}
	return e.evaluate(name, data)
}

func (e *Evaluator) evaluate(name string, data model.MarketData) model.FactorResult {
	ctor, ok := factor.Get(name)
	if !ok {
		e.log.WithField("factor", name).Warn("factor not registered")
		return model.FactorResult{Factor: name, DisplayName: UnknownFactorName, Conclusion: UnregisteredFactor}
	}
	r := ctor(e.Config).Calculate(data)
	e.log.WithFields(logrus.Fields{
		"factor": name,
		"passed": r.IsPassed,
	}).Debug(r.Conclusion)
	return r
}

// Run evaluates every enabled factor in configured order.
func (e *Evaluator) Run(data model.MarketData) *Result {
	results := make([]model.FactorResult, 0, len(e.Config.EnabledFactors))
	for _, name := range e.Config.EnabledFactors {
		results = append(results, e.evaluate(name, data))
	}
	res := NewResult(e.Symbol, results)
	e.log.WithFields(logrus.Fields{
		"total":  res.Total(),
		"passed": res.Passed(),
	}).Info("factor evaluation finished")
	return res
}
