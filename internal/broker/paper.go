package broker

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"GridSentinel/internal/logger"
	"GridSentinel/internal/model"
	"GridSentinel/internal/strategy"
)

// ErrUnknownOrder is returned when canceling an order the broker is not holding.
var ErrUnknownOrder = errors.New("unknown order")

type resting struct {
	id    string
	side  strategy.Side
	price float64
	size  float64
}

// Paper is an in-memory broker that fills resting limit orders when a bar
// trades through their price. Fills execute at the limit price.
type Paper struct {
	FeeRate float64

	mu     sync.Mutex
	orders []resting
	log    *logrus.Entry
}

func NewPaper(feeRate float64) *Paper {
	return &Paper{
		FeeRate: feeRate,
		log:     logger.Default().WithComponent("paper_broker"),
	}
}

func (p *Paper) PlaceLimit(side strategy.Side, price, size float64) (string, error) {
	if price <= 0 || size <= 0 {
		return "", fmt.Errorf("invalid order: price %g size %g", price, size)
	}
	if side != strategy.SideBuy && side != strategy.SideSell {
		return "", fmt.Errorf("invalid side %q", side)
	}
	id := uuid.NewString()

	p.mu.Lock()
	p.orders = append(p.orders, resting{id: id, side: side, price: price, size: size})
	p.mu.Unlock()
	return id, nil
}

func (p *Paper) Cancel(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, o := range p.orders {
		if o.id == id {
			p.orders = append(p.orders[:i], p.orders[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("cancel %s: %w", id, ErrUnknownOrder)
}

// Match fills every resting order the bar crossed, in placement order.
// Buys fill when the low reaches the limit, sells when the high does.
func (p *Paper) Match(bar model.OHLCV) []strategy.Fill {
	p.mu.Lock()
	defer p.mu.Unlock()

	var fills []strategy.Fill
	kept := p.orders[:0]
	for _, o := range p.orders {
		crossed := (o.side == strategy.SideBuy && bar.Low <= o.price) ||
			(o.side == strategy.SideSell && bar.High >= o.price)
		if !crossed {
			kept = append(kept, o)
			continue
		}
		fills = append(fills, strategy.Fill{
			OrderID: o.id,
			Price:   o.price,
			Size:    o.size,
			Fee:     o.price * o.size * p.FeeRate,
		})
	}
	p.orders = kept

	if len(fills) > 0 {
		p.log.WithFields(logrus.Fields{
			"fills": len(fills),
			"low":   bar.Low,
			"high":  bar.High,
		}).Debug("orders matched")
	}
	return fills
}

// Resting returns the number of orders waiting for a fill.
func (p *Paper) Resting() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.orders)
}
