package feed

import (
	"context"

	"GridSentinel/internal/model"
)

// Feed delivers bars to out until the source ends or ctx is canceled.
type Feed interface {
	Run(ctx context.Context, out chan<- model.OHLCV) error
}

// Replay plays back a fixed series of bars.
type Replay struct {
	Bars []model.OHLCV
}

func NewReplay(bars []model.OHLCV) *Replay { return &Replay{Bars: bars} }

func (r *Replay) Run(ctx context.Context, out chan<- model.OHLCV) error {
	for _, b := range r.Bars {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case out <- b:
		}
	}
	return nil
}
