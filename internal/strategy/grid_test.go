package strategy

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GridSentinel/internal/model"
)

type placed struct {
	id    string
	side  Side
	price float64
	size  float64
}

type fakeBroker struct {
	n         int
	placed    []placed
	canceled  []string
	placeErr  error
	cancelErr error
}

func (b *fakeBroker) PlaceLimit(side Side, price, size float64) (string, error) {
	if b.placeErr != nil {
		return "", b.placeErr
	}
	b.n++
	id := fmt.Sprintf("o%d", b.n)
	b.placed = append(b.placed, placed{id, side, price, size})
	return id, nil
}

func (b *fakeBroker) Cancel(id string) error {
	if b.cancelErr != nil {
		return b.cancelErr
	}
	b.canceled = append(b.canceled, id)
	return nil
}

func baseConfig() Config {
	return Config{
		Symbol:        "X",
		LowerBound:    90,
		UpperBound:    110,
		GridCount:     2,
		AllocateQuote: 10000,
	}
}

func newStrategy(t *testing.T, cfg Config) (*GridStrategy, *fakeBroker) {
	t.Helper()
	b := &fakeBroker{}
	g, err := New(cfg, b)
	require.NoError(t, err)
	return g, b
}

func lotSum(s State) float64 {
	total := 0.0
	for _, l := range s.Lots {
		total += l.Size
	}
	return total
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"upper equals lower", Config{LowerBound: 100, UpperBound: 100, GridCount: 5}},
		{"upper below lower", Config{LowerBound: 110, UpperBound: 90, GridCount: 5}},
		{"zero grid count", Config{LowerBound: 90, UpperBound: 110}},
		{"negative grid count", Config{LowerBound: 90, UpperBound: 110, GridCount: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg, &fakeBroker{})
			assert.ErrorIs(t, err, ErrInvalidGrid)
		})
	}

	_, err := New(baseConfig(), nil)
	assert.Error(t, err)
}

func TestNew_Levels(t *testing.T) {
	cfg := baseConfig()
	cfg.GridCount = 4
	g, _ := newStrategy(t, cfg)
	assert.Equal(t, []float64{90, 95, 100, 105, 110}, g.Levels())

	s := g.State()
	assert.Equal(t, 10000.0, s.CashQuote)
	assert.Equal(t, ModeRunning, s.Mode)
	assert.Nil(t, s.LastPrice)
}

func TestOnBar_PlacesBuysAtOrAboveClose(t *testing.T) {
	cfg := baseConfig()
	cfg.GridCount = 4
	g, b := newStrategy(t, cfg)

	require.NoError(t, g.OnBar(100, 100, 100, 100))
	require.Len(t, b.placed, 3)
	for i, want := range []float64{100, 105, 110} {
		assert.Equal(t, SideBuy, b.placed[i].side)
		assert.Equal(t, want, b.placed[i].price)
		assert.InDelta(t, 10000.0/3/want, b.placed[i].size, 1e-9)
	}

	// second bar at the same price finds every level covered
	require.NoError(t, g.OnBar(100, 100, 100, 100))
	assert.Len(t, b.placed, 3)
	assert.Equal(t, int64(2), g.State().TickID)
}

func TestOnBar_SkipsBuyWhenCashShort(t *testing.T) {
	cfg := baseConfig()
	cfg.GridCount = 1
	cfg.FeeRate = 0.001
	g, b := newStrategy(t, cfg)

	require.NoError(t, g.OnBar(110, 110, 110, 110))
	assert.Empty(t, b.placed)
	assert.Empty(t, g.OpenOrders())
}

func TestOnBar_CapitalReserve(t *testing.T) {
	cfg := baseConfig()
	cfg.GridCount = 1
	cfg.CapitalReservePct = 0.5
	g, b := newStrategy(t, cfg)

	require.NoError(t, g.OnBar(110, 110, 110, 110))
	require.Len(t, b.placed, 1)
	assert.InDelta(t, 5000.0/110, b.placed[0].size, 1e-9)
}

func TestFills_BuyThenSellRealizesPnL(t *testing.T) {
	g, b := newStrategy(t, baseConfig())

	require.NoError(t, g.OnBar(90, 90, 90, 90))
	require.Len(t, b.placed, 3)
	buyID := b.placed[0].id
	assert.Equal(t, 90.0, b.placed[0].price)

	g.OnFill(Fill{OrderID: buyID, Price: 90, Size: 10})
	s := g.State()
	assert.Equal(t, StatusFilled, s.Orders[buyID].Status)
	assert.Equal(t, 10.0, s.InventoryBase)
	assert.Equal(t, 9100.0, s.CashQuote)
	require.Len(t, s.Lots, 1)
	assert.Equal(t, Lot{LevelIdx: 0, Price: 90, Size: 10}, s.Lots[0])

	require.NoError(t, g.OnBar(95, 95, 95, 95))
	last := b.placed[len(b.placed)-1]
	assert.Equal(t, SideSell, last.side)
	assert.Equal(t, 100.0, last.price)
	assert.Equal(t, 10.0, last.size)

	g.OnFill(Fill{OrderID: last.id, Price: 110, Size: 10})
	s = g.State()
	assert.Equal(t, 200.0, s.RealizedPnLQuote)
	assert.Empty(t, s.Lots)
	assert.Equal(t, 0.0, s.InventoryBase)
	assert.Equal(t, 10200.0, s.CashQuote)
}

func TestOnFill_FIFOPartialMatch(t *testing.T) {
	g, b := newStrategy(t, baseConfig())
	require.NoError(t, g.OnBar(90, 90, 90, 90))

	g.OnFill(Fill{OrderID: b.placed[0].id, Price: 90, Size: 10})
	g.OnFill(Fill{OrderID: b.placed[1].id, Price: 100, Size: 5, Fee: 1})
	s := g.State()
	assert.Equal(t, 15.0, s.InventoryBase)
	assert.Equal(t, lotSum(s), s.InventoryBase)
	assert.Equal(t, 10000.0-900-500-1, s.CashQuote)

	require.NoError(t, g.OnBar(95, 95, 95, 95))
	var sellID string
	for _, o := range g.OpenOrders() {
		if o.Side == SideSell && *o.LevelIdx == 1 {
			sellID = o.ID
		}
	}
	require.NotEmpty(t, sellID)

	g.OnFill(Fill{OrderID: sellID, Price: 110, Size: 12, Fee: 2})
	s = g.State()
	assert.Equal(t, 220.0, s.RealizedPnLQuote)
	require.Len(t, s.Lots, 1)
	assert.Equal(t, Lot{LevelIdx: 1, Price: 100, Size: 3}, s.Lots[0])
	assert.Equal(t, 3.0, s.InventoryBase)
	assert.Equal(t, lotSum(s), s.InventoryBase)
}

func TestOnFill_UnknownOrderIsNoop(t *testing.T) {
	g, _ := newStrategy(t, baseConfig())
	require.NoError(t, g.OnBar(90, 90, 90, 90))
	before := g.State()

	g.OnFill(Fill{OrderID: "nope", Price: 90, Size: 10})
	assert.Equal(t, before, g.State())
}

func TestOnBar_StopLoss(t *testing.T) {
	cfg := baseConfig()
	cfg.StopLossPctBelow = 0.05
	g, b := newStrategy(t, cfg)

	require.NoError(t, g.OnBar(95, 95, 95, 95))
	open := g.OpenOrders()
	require.NotEmpty(t, open)
	g.OnFill(Fill{OrderID: open[0].ID, Price: 100, Size: 10})

	// 85.5 is the trigger; 86 holds
	require.NoError(t, g.OnBar(86, 86, 86, 86))
	assert.Equal(t, ModeRunning, g.Mode())

	require.NoError(t, g.OnBar(80, 80, 80, 80))
	s := g.State()
	assert.Equal(t, ModePaused, s.Mode)
	assert.Equal(t, ReasonStopLoss, s.ExitReason)
	assert.Empty(t, g.OpenOrders())
	for _, o := range s.Orders {
		assert.NotEqual(t, StatusOpen, o.Status)
	}
	assert.Equal(t, 0.0, s.InventoryBase)
	assert.Empty(t, s.Lots)
	assert.Equal(t, -200.0, s.RealizedPnLQuote)
	assert.Equal(t, 10000.0-1000+800, s.CashQuote)

	placedBefore, canceledBefore := len(b.placed), len(b.canceled)
	tick := s.TickID
	require.NoError(t, g.OnBar(100, 100, 100, 100))
	assert.Len(t, b.placed, placedBefore)
	assert.Len(t, b.canceled, canceledBefore)
	assert.Equal(t, tick, g.State().TickID)
}

func TestOnBar_TakeProfit(t *testing.T) {
	cfg := baseConfig()
	cfg.TakeProfitBreakout = true
	g, _ := newStrategy(t, cfg)

	require.NoError(t, g.OnBar(110, 110, 110, 110))
	assert.Equal(t, ModeRunning, g.Mode())

	require.NoError(t, g.OnBar(111, 111, 111, 111))
	s := g.State()
	assert.Equal(t, ModePaused, s.Mode)
	assert.Equal(t, ReasonTakeProfit, s.ExitReason)
	assert.Equal(t, 10000.0, s.CashQuote)
}

func TestOnBar_NoExitRulesWhenDisabled(t *testing.T) {
	g, _ := newStrategy(t, baseConfig())
	require.NoError(t, g.OnBar(10, 10, 10, 10))
	require.NoError(t, g.OnBar(500, 500, 500, 500))
	assert.Equal(t, ModeRunning, g.Mode())
}

func TestExit_LiquidatesAtLastPrice(t *testing.T) {
	g, b := newStrategy(t, baseConfig())
	require.NoError(t, g.OnBar(90, 90, 90, 90))
	g.OnFill(Fill{OrderID: b.placed[0].id, Price: 90, Size: 10})
	g.OnFill(Fill{OrderID: b.placed[1].id, Price: 100, Size: 10})
	require.NoError(t, g.OnBar(105, 105, 105, 105))

	require.NoError(t, g.Exit("manual"))
	s := g.State()
	assert.Equal(t, ModePaused, s.Mode)
	assert.Equal(t, "manual", s.ExitReason)
	assert.InDelta(t, 200.0, s.RealizedPnLQuote, 1e-9)
	assert.InDelta(t, 10200.0, s.CashQuote, 1e-9)
	assert.Empty(t, g.OpenOrders())
}

func TestExit_MidpointWithoutPriceAndFee(t *testing.T) {
	cfg := baseConfig()
	cfg.FeeRate = 0.01
	g, _ := newStrategy(t, cfg)

	// inject a lot directly; no bar has been seen
	g.state.InventoryBase = 10
	g.state.Lots = []Lot{{LevelIdx: 0, Price: 90, Size: 10}}

	require.NoError(t, g.Exit("manual"))
	s := g.State()
	assert.InDelta(t, 100.0, s.RealizedPnLQuote, 1e-9)
	assert.InDelta(t, 10000.0+1000-10, s.CashQuote, 1e-9)
}

func TestExit_CancelErrorKeepsRunning(t *testing.T) {
	g, b := newStrategy(t, baseConfig())
	require.NoError(t, g.OnBar(90, 90, 90, 90))

	boom := errors.New("gateway down")
	b.cancelErr = boom
	err := g.Exit("manual")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, ModeRunning, g.Mode())
	assert.Len(t, g.OpenOrders(), 3)
}

func TestEnforceLimits_CancelsFarthestFirst(t *testing.T) {
	cfg := baseConfig()
	cfg.GridCount = 4
	cfg.MaxOpenOrders = 2
	g, b := newStrategy(t, cfg)

	require.NoError(t, g.OnBar(90, 90, 90, 90))
	require.Len(t, b.placed, 5)
	assert.Equal(t, []string{"o5", "o4", "o3"}, b.canceled)

	open := g.OpenOrders()
	require.Len(t, open, 2)
	assert.Equal(t, 90.0, open[0].Price)
	assert.Equal(t, 95.0, open[1].Price)

	// canceled orders stay in the book
	assert.Len(t, g.State().Orders, 5)
}

func TestOnBar_PlaceErrorPropagates(t *testing.T) {
	g, b := newStrategy(t, baseConfig())
	boom := errors.New("rejected")
	b.placeErr = boom
	err := g.OnBar(90, 90, 90, 90)
	assert.ErrorIs(t, err, boom)
}

func TestLotSumInvariant(t *testing.T) {
	cfg := baseConfig()
	cfg.GridCount = 10
	g, b := newStrategy(t, cfg)

	prices := []float64{100, 96, 92, 98, 104, 108, 101, 94, 99, 106}
	for _, p := range prices {
		// fill everything the last bar crossed
		for _, o := range g.OpenOrders() {
			if (o.Side == SideBuy && o.Price >= p) || (o.Side == SideSell && o.Price <= p) {
				g.OnFill(Fill{OrderID: o.ID, Price: o.Price, Size: o.Size * 0.75})
			}
		}
		require.NoError(t, g.OnBar(p, p, p, p))
		s := g.State()
		assert.InDelta(t, s.InventoryBase, lotSum(s), 1e-9, "price %v", p)
		assert.GreaterOrEqual(t, s.InventoryBase, -1e-9)
	}
	assert.NotEmpty(t, b.placed)
}

func TestSnapshotRestore(t *testing.T) {
	g, b := newStrategy(t, baseConfig())
	require.NoError(t, g.OnBar(90, 90, 90, 90))
	g.OnFill(Fill{OrderID: b.placed[0].id, Price: 90, Size: 10})

	snap := g.Snapshot()
	assert.Equal(t, "X", snap.Symbol)
	assert.Equal(t, "RUNNING", snap.Mode)
	assert.Equal(t, 90.0, snap.LowerBound)
	assert.Equal(t, 110.0, snap.UpperBound)
	assert.Equal(t, 2, snap.GridCount)
	assert.Equal(t, 90.0, snap.LastPrice)
	assert.Equal(t, 2, snap.OpenOrders)
	require.Len(t, snap.Lots, 1)

	h, _ := newStrategy(t, baseConfig())
	require.NoError(t, h.Restore(snap))
	s := h.State()
	assert.Equal(t, 10.0, s.InventoryBase)
	assert.Equal(t, 9100.0, s.CashQuote)
	assert.Equal(t, int64(1), s.TickID)
	require.NotNil(t, s.LastPrice)
	assert.Equal(t, 90.0, *s.LastPrice)
	assert.Empty(t, h.OpenOrders())
}

func TestRestore_ShiftedGridRefused(t *testing.T) {
	g, b := newStrategy(t, baseConfig())
	require.NoError(t, g.OnBar(90, 90, 90, 90))
	g.OnFill(Fill{OrderID: b.placed[0].id, Price: 90, Size: 10})
	snap := g.Snapshot()

	shifted := baseConfig()
	shifted.LowerBound, shifted.UpperBound = 72, 88
	h, _ := newStrategy(t, shifted)
	before := h.State()

	err := h.Restore(snap)
	require.ErrorIs(t, err, ErrGridMismatch)
	assert.Equal(t, before, h.State())

	recount := baseConfig()
	recount.GridCount = 4
	k, _ := newStrategy(t, recount)
	assert.ErrorIs(t, k.Restore(snap), ErrGridMismatch)
	assert.Empty(t, k.State().Lots)
}

func TestFromGrid(t *testing.T) {
	cfg := FromGrid(Config{AllocateQuote: 5000, FeeRate: 0.001}, model.GridConfig{LowerBound: 90, UpperBound: 110, GridCount: 20})
	assert.Equal(t, 90.0, cfg.LowerBound)
	assert.Equal(t, 110.0, cfg.UpperBound)
	assert.Equal(t, 20, cfg.GridCount)
	assert.Equal(t, 5000.0, cfg.AllocateQuote)
	assert.NoError(t, cfg.Validate())
}
