package trader

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"GridSentinel/internal/broker"
	"GridSentinel/internal/feed"
	"GridSentinel/internal/ledger"
	"GridSentinel/internal/logger"
	"GridSentinel/internal/model"
	"GridSentinel/internal/recorder"
	"GridSentinel/internal/strategy"
)

// Strategy event types.
const (
	EventStart = "START"
	EventExit  = "EXIT"
	EventStop  = "STOP"
)

// Runner drives a GridStrategy from a bar feed against a paper broker.
type Runner struct {
	Strategy *strategy.GridStrategy
	Broker   *broker.Paper
	Feed     feed.Feed
	Recorder recorder.Recorder
	Ledger   *ledger.Ledger // optional

	// OnExit is called once when the strategy leaves RUNNING.
	OnExit func(model.StrategySnapshot)

	log *logrus.Entry
}

func NewRunner(s *strategy.GridStrategy, b *broker.Paper, f feed.Feed, rec recorder.Recorder, l *ledger.Ledger) *Runner {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Runner{
		Strategy: s,
		Broker:   b,
		Feed:     f,
		Recorder: rec,
		Ledger:   l,
		log:      logger.Default().WithComponent("trader").WithField("symbol", s.Config().Symbol),
	}
}

// Run processes bars until the feed ends, the strategy exits or ctx is
// canceled, and returns the final snapshot.
func (r *Runner) Run(ctx context.Context) (model.StrategySnapshot, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	bars := make(chan model.OHLCV)
	feedErr := make(chan error, 1)
	go func() { feedErr <- r.Feed.Run(ctx, bars) }()

	r.event(EventStart, "")
	r.log.Info("paper trading started")

	for {
		select {
		case <-ctx.Done():
			r.event(EventStop, "canceled")
			return r.Strategy.Snapshot(), ctx.Err()

		case err := <-feedErr:
			if ctx.Err() != nil {
				r.event(EventStop, "canceled")
				return r.Strategy.Snapshot(), ctx.Err()
			}
			if err != nil {
				r.event(EventStop, "feed error")
				return r.Strategy.Snapshot(), fmt.Errorf("feed: %w", err)
			}
			r.event(EventStop, "feed finished")
			return r.Strategy.Snapshot(), nil

		case bar := <-bars:
			if err := r.Step(bar); err != nil {
				r.event(EventStop, "error")
				return r.Strategy.Snapshot(), err
			}
			if r.Strategy.Mode() != strategy.ModeRunning {
				snap := r.Strategy.Snapshot()
				r.event(EventExit, snap.ExitReason)
				if r.OnExit != nil {
					r.OnExit(snap)
				}
				return snap, nil
			}
		}
	}
}

// Step matches resting orders against bar, applies the fills and then
// advances the strategy.
func (r *Runner) Step(bar model.OHLCV) error {
	symbol := r.Strategy.Config().Symbol
	orders := make(map[string]strategy.Side)
	for _, o := range r.Strategy.OpenOrders() {
		orders[o.ID] = o.Side
	}

	for _, f := range r.Broker.Match(bar) {
		r.Strategy.OnFill(f)
		if err := r.Recorder.RecordFill(&recorder.FillEvent{
			Symbol:  symbol,
			OrderID: f.OrderID,
			Side:    string(orders[f.OrderID]),
			Price:   f.Price,
			Size:    f.Size,
			Fee:     f.Fee,
		}); err != nil {
			r.log.WithError(err).Warn("record fill failed")
		}
	}

	if err := r.Strategy.OnBar(bar.Open, bar.High, bar.Low, bar.Close); err != nil {
		return fmt.Errorf("on bar: %w", err)
	}

	if r.Ledger != nil {
		if err := r.Ledger.Save(r.Strategy.Snapshot()); err != nil {
			r.log.WithError(err).Warn("save snapshot failed")
		}
	}
	return nil
}

func (r *Runner) event(eventType, reason string) {
	snap := r.Strategy.Snapshot()
	if err := r.Recorder.RecordStrategyEvent(&recorder.StrategyEvent{
		EventType:   eventType,
		Symbol:      snap.Symbol,
		Reason:      reason,
		CashQuote:   snap.CashQuote,
		Inventory:   snap.InventoryBase,
		RealizedPnL: snap.RealizedPnLQuote,
		LastPrice:   snap.LastPrice,
	}); err != nil {
		r.log.WithError(err).Warn("record strategy event failed")
	}
}
