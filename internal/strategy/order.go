package strategy

// Side is the direction of an order.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusOpen     Status = "open"
	StatusFilled   Status = "filled"
	StatusCanceled Status = "canceled"
)

// Mode is the run state of a strategy.
type Mode string

const (
	ModeRunning Mode = "RUNNING"
	ModePaused  Mode = "PAUSED"
	// ModeExiting is never entered; exits go straight to ModePaused.
	ModeExiting Mode = "EXITING"
)

// Order is a limit order placed through the broker.
type Order struct {
	ID       string
	Side     Side
	Price    float64
	Size     float64
	Status   Status
	LevelIdx *int
}

// Fill is one execution reported by the broker.
type Fill struct {
	OrderID string
	Price   float64
	Size    float64
	Fee     float64
}

// Lot is a unit of bought inventory awaiting a matching sale.
type Lot struct {
	LevelIdx int
	Price    float64
	Size     float64
}

// State is the mutable book of a GridStrategy. Orders keep terminal entries.
type State struct {
	Orders           map[string]*Order
	InventoryBase    float64
	CashQuote        float64
	RealizedPnLQuote float64
	Lots             []Lot
	Mode             Mode
	LastPrice        *float64
	TickID           int64
	ExitReason       string
}

// Broker places and cancels limit orders. Calls must complete before returning.
type Broker interface {
	PlaceLimit(side Side, price, size float64) (string, error)
	Cancel(id string) error
}
