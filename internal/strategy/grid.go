package strategy

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"GridSentinel/internal/logger"
	"GridSentinel/internal/model"
)

// Exit reasons recorded in State.ExitReason.
const (
	ReasonStopLoss   = "stop_loss_breakdown"
	ReasonTakeProfit = "take_profit_breakout"
)

const minOrderSize = 1e-8

// GridStrategy manages a ladder of limit orders between two bounds and
// tracks inventory lots and realized P&L. It is not safe for concurrent use.
type GridStrategy struct {
	cfg    Config
	broker Broker
	levels []float64
	state  State
	seq    []string // order ids in placement order
	log    *logrus.Entry
}

// New validates cfg and builds the grid levels. Cash starts at AllocateQuote.
func New(cfg Config, broker Broker) (*GridStrategy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if broker == nil {
		return nil, errors.New("nil broker")
	}
	return &GridStrategy{
		cfg:    cfg,
		broker: broker,
		levels: cfg.Levels(),
		state: State{
			Orders:    make(map[string]*Order),
			CashQuote: cfg.AllocateQuote,
			Mode:      ModeRunning,
		},
		log: logger.Default().WithComponent("strategy").WithField("symbol", cfg.Symbol),
	}, nil
}

// OnBar advances the strategy by one bar. It does nothing unless the strategy is running.
// Only the close is used.
func (g *GridStrategy) OnBar(o, h, l, c float64) error {
	if g.state.Mode != ModeRunning {
		return nil
	}
	g.state.TickID++
	g.state.LastPrice = &c

	if g.cfg.StopLossPctBelow > 0 && c < g.cfg.LowerBound*(1-g.cfg.StopLossPctBelow) {
		return g.exitAll(ReasonStopLoss)
	}
	if g.cfg.TakeProfitBreakout && c > g.cfg.UpperBound {
		return g.exitAll(ReasonTakeProfit)
	}

	if err := g.manageGridOrders(c); err != nil {
		return err
	}
	return g.enforceLimits()
}

func (g *GridStrategy) manageGridOrders(price float64) error {
	for i, lvl := range g.levels {
		// buys rest at every level at or above the close
		if price <= lvl {
			if err := g.ensureBuy(i, lvl, price); err != nil {
				return err
			}
		}
	}

	top := len(g.levels) - 1
	for _, lot := range append([]Lot(nil), g.state.Lots...) {
		idx := min(lot.LevelIdx+1, top)
		if err := g.ensureSell(idx, g.levels[idx], lot.Size); err != nil {
			return err
		}
	}
	return nil
}

func (g *GridStrategy) hasOpen(levelIdx int, side Side) bool {
	for _, o := range g.state.Orders {
		if o.Status == StatusOpen && o.Side == side && o.LevelIdx != nil && *o.LevelIdx == levelIdx {
			return true
		}
	}
	return false
}

func (g *GridStrategy) ensureBuy(levelIdx int, levelPrice, price float64) error {
	if g.hasOpen(levelIdx, SideBuy) {
		return nil
	}

	budget := g.cfg.AllocateQuote * (1 - g.cfg.CapitalReservePct)
	active := 0
	for _, v := range g.levels {
		if price <= v {
			active++
		}
	}
	active = max(1, active)
	size := math.Max(minOrderSize, budget/float64(active)/levelPrice)
	notional := levelPrice * size
	if g.state.CashQuote < notional+notional*g.cfg.FeeRate {
		return nil
	}
	return g.place(SideBuy, levelIdx, levelPrice, size)
}

func (g *GridStrategy) ensureSell(levelIdx int, levelPrice, size float64) error {
	if size <= 0 || g.hasOpen(levelIdx, SideSell) {
		return nil
	}
	return g.place(SideSell, levelIdx, levelPrice, size)
}

func (g *GridStrategy) place(side Side, levelIdx int, price, size float64) error {
	id, err := g.broker.PlaceLimit(side, price, size)
	if err != nil {
		return fmt.Errorf("place %s at level %d: %w", side, levelIdx, err)
	}
	idx := levelIdx
	g.state.Orders[id] = &Order{ID: id, Side: side, Price: price, Size: size, Status: StatusOpen, LevelIdx: &idx}
	g.seq = append(g.seq, id)
	g.log.WithFields(logrus.Fields{
		"order_id": id,
		"side":     side,
		"level":    levelIdx,
		"price":    price,
		"size":     size,
	}).Debug("order placed")
	return nil
}

// OnFill applies an execution. Fills for unknown orders are ignored.
func (g *GridStrategy) OnFill(f Fill) {
	o, ok := g.state.Orders[f.OrderID]
	if !ok {
		return
	}
	o.Status = StatusFilled

	if o.Side == SideBuy {
		g.state.CashQuote -= f.Price*f.Size + f.Fee
		g.state.InventoryBase += f.Size
		lvl := 0
		if o.LevelIdx != nil {
			lvl = *o.LevelIdx
		}
		g.state.Lots = append(g.state.Lots, Lot{LevelIdx: lvl, Price: f.Price, Size: f.Size})
	} else {
		g.state.CashQuote += f.Price*f.Size - f.Fee
		g.state.InventoryBase -= f.Size

		realized := 0.0
		remaining := f.Size
		kept := make([]Lot, 0, len(g.state.Lots))
		for _, lot := range g.state.Lots {
			if remaining <= 0 {
				kept = append(kept, lot)
				continue
			}
			use := math.Min(remaining, lot.Size)
			realized += (f.Price - lot.Price) * use
			if lot.Size > use {
				lot.Size -= use
				kept = append(kept, lot)
			}
			remaining -= use
		}
		g.state.Lots = kept
		g.state.RealizedPnLQuote += realized
	}

	g.log.WithFields(logrus.Fields{
		"order_id": f.OrderID,
		"side":     o.Side,
		"price":    f.Price,
		"size":     f.Size,
		"fee":      f.Fee,
	}).Info("fill applied")
}

// Exit cancels every open order, liquidates inventory and pauses the strategy.
func (g *GridStrategy) Exit(reason string) error {
	return g.exitAll(reason)
}

func (g *GridStrategy) exitAll(reason string) error {
	var errs []error
	for _, id := range g.seq {
		o := g.state.Orders[id]
		if o.Status != StatusOpen {
			continue
		}
		if err := g.broker.Cancel(id); err != nil {
			errs = append(errs, fmt.Errorf("cancel %s: %w", id, err))
			continue
		}
		o.Status = StatusCanceled
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	mid := (g.levels[0] + g.levels[len(g.levels)-1]) / 2
	if g.state.LastPrice != nil && *g.state.LastPrice != 0 {
		mid = *g.state.LastPrice
	}
	if g.state.InventoryBase > 0 {
		gross := mid * g.state.InventoryBase
		g.state.CashQuote += gross - gross*g.cfg.FeeRate
		var cost, size float64
		for _, l := range g.state.Lots {
			cost += l.Price * l.Size
			size += l.Size
		}
		if size > 0 {
			g.state.RealizedPnLQuote += (mid - cost/size) * size
		}
		g.state.InventoryBase = 0
		g.state.Lots = nil
	}
	g.state.Mode = ModePaused
	g.state.ExitReason = reason

	g.log.WithFields(logrus.Fields{
		"reason":       reason,
		"price":        mid,
		"cash":         g.state.CashQuote,
		"realized_pnl": g.state.RealizedPnLQuote,
	}).Warn("strategy exited")
	return nil
}

// enforceLimits cancels the open orders farthest from the last price until
// at most MaxOpenOrders remain.
func (g *GridStrategy) enforceLimits() error {
	limit := g.cfg.maxOpenOrders()
	open := g.openOrders()
	if len(open) <= limit {
		return nil
	}

	price := 0.0
	if g.state.LastPrice != nil {
		price = *g.state.LastPrice
	}
	sort.SliceStable(open, func(i, j int) bool {
		return math.Abs(open[i].Price-price) > math.Abs(open[j].Price-price)
	})
	for _, o := range open[:len(open)-limit] {
		if err := g.broker.Cancel(o.ID); err != nil {
			return fmt.Errorf("cancel %s: %w", o.ID, err)
		}
		o.Status = StatusCanceled
	}
	return nil
}

func (g *GridStrategy) openOrders() []*Order {
	var open []*Order
	for _, id := range g.seq {
		if o := g.state.Orders[id]; o.Status == StatusOpen {
			open = append(open, o)
		}
	}
	return open
}

// OpenOrders returns copies of the open orders in placement order.
func (g *GridStrategy) OpenOrders() []Order {
	open := g.openOrders()
	out := make([]Order, len(open))
	for i, o := range open {
		out[i] = *o
	}
	return out
}

// Levels returns the grid prices.
func (g *GridStrategy) Levels() []float64 {
	return append([]float64(nil), g.levels...)
}

func (g *GridStrategy) Config() Config { return g.cfg }

func (g *GridStrategy) Mode() Mode { return g.state.Mode }

// State returns a copy of the strategy book.
func (g *GridStrategy) State() State {
	s := g.state
	s.Orders = make(map[string]*Order, len(g.state.Orders))
	for id, o := range g.state.Orders {
		cp := *o
		s.Orders[id] = &cp
	}
	s.Lots = append([]Lot(nil), g.state.Lots...)
	if g.state.LastPrice != nil {
		p := *g.state.LastPrice
		s.LastPrice = &p
	}
	return s
}

// Snapshot returns the persisted view of the strategy.
func (g *GridStrategy) Snapshot() model.StrategySnapshot {
	lots := make([]model.LotSnapshot, len(g.state.Lots))
	for i, l := range g.state.Lots {
		lots[i] = model.LotSnapshot{LevelIdx: l.LevelIdx, Price: l.Price, Size: l.Size}
	}
	snap := model.StrategySnapshot{
		Symbol:           g.cfg.Symbol,
		Mode:             string(g.state.Mode),
		LowerBound:       g.cfg.LowerBound,
		UpperBound:       g.cfg.UpperBound,
		GridCount:        g.cfg.GridCount,
		TickID:           g.state.TickID,
		CashQuote:        g.state.CashQuote,
		InventoryBase:    g.state.InventoryBase,
		RealizedPnLQuote: g.state.RealizedPnLQuote,
		OpenOrders:       len(g.openOrders()),
		Lots:             lots,
		ExitReason:       g.state.ExitReason,
		UpdatedAt:        time.Now(),
	}
	if g.state.LastPrice != nil {
		snap.LastPrice = *g.state.LastPrice
	}
	return snap
}

// Restore loads balances, lots and mode from a snapshot. Resting orders are
// not restored; the next bar places them again. Lots are keyed by level
// index, so a snapshot from another grid is refused and state is untouched.
func (g *GridStrategy) Restore(snap model.StrategySnapshot) error {
	if snap.GridCount != g.cfg.GridCount || snap.LowerBound != g.cfg.LowerBound || snap.UpperBound != g.cfg.UpperBound {
		return fmt.Errorf("%w: snapshot %g..%g/%d, strategy %g..%g/%d", ErrGridMismatch,
			snap.LowerBound, snap.UpperBound, snap.GridCount,
			g.cfg.LowerBound, g.cfg.UpperBound, g.cfg.GridCount)
	}
	if snap.Mode != "" {
		g.state.Mode = Mode(snap.Mode)
	}
	g.state.TickID = snap.TickID
	g.state.CashQuote = snap.CashQuote
	g.state.InventoryBase = snap.InventoryBase
	g.state.RealizedPnLQuote = snap.RealizedPnLQuote
	g.state.ExitReason = snap.ExitReason
	g.state.Lots = make([]Lot, len(snap.Lots))
	for i, l := range snap.Lots {
		g.state.Lots[i] = Lot{LevelIdx: l.LevelIdx, Price: l.Price, Size: l.Size}
	}
	if snap.LastPrice != 0 {
		p := snap.LastPrice
		g.state.LastPrice = &p
	}
	return nil
}
