package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time     time.Time `json:"time"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
	Turnover float64   `json:"turnover"` // fraction, 0.02 == 2%
}

// Fundamentals holds scalar valuation data for a symbol. Nil means unknown.
type Fundamentals struct {
	PE                *float64
	MarketCap         *float64 // raw currency units
	SharesOutstanding *float64
}

// MarketData is the input bag handed to every factor.
type MarketData struct {
	Symbol    string
	Prices    []float64
	Volumes   []float64
	Turnovers []float64
	PE        *float64
	MarketCap *float64
	FetchedAt time.Time
}

// LatestPrice returns the last price of the series.
func (d MarketData) LatestPrice() (float64, bool) {
	if len(d.Prices) == 0 {
		return 0, false
	}
	return d.Prices[len(d.Prices)-1], true
}

// NewMarketData splits bars into the per-field series used by factors.
func NewMarketData(symbol string, bars []OHLCV, f Fundamentals) MarketData {
	d := MarketData{
		Symbol:    symbol,
		Prices:    make([]float64, len(bars)),
		Volumes:   make([]float64, len(bars)),
		Turnovers: make([]float64, len(bars)),
		PE:        f.PE,
		MarketCap: f.MarketCap,
		FetchedAt: time.Now(),
	}
	for i, b := range bars {
		d.Prices[i] = b.Close
		d.Volumes[i] = b.Volume
		d.Turnovers[i] = b.Turnover
	}
	return d
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }
