package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"GridSentinel/internal/logger"
	"GridSentinel/internal/model"
)

// BarMessage is the JSON frame carrying one bar.
type BarMessage struct {
	Symbol string  `json:"symbol"`
	Time   int64   `json:"time"` // unix seconds
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// valid reports whether the frame carries a usable price bar. Control frames
// such as subscribe acks and heartbeats decode with zero prices.
func (m BarMessage) valid() bool {
	if m.Open <= 0 || m.High <= 0 || m.Low <= 0 || m.Close <= 0 {
		return false
	}
	return m.Low <= m.High && m.Low <= m.Close && m.Close <= m.High
}

type subscribeMessage struct {
	Op     string `json:"op"`
	Symbol string `json:"symbol"`
}

// WebSocket streams bars for one symbol and reconnects with exponential
// backoff when the connection drops.
type WebSocket struct {
	URL    string
	Symbol string

	ReconnectMin time.Duration
	ReconnectMax time.Duration

	log *logrus.Entry
}

func NewWebSocket(url, symbol string) *WebSocket {
	return &WebSocket{
		URL:          url,
		Symbol:       symbol,
		ReconnectMin: 1 * time.Second,
		ReconnectMax: 30 * time.Second,
		log:          logger.Default().WithComponent("ws_feed").WithField("symbol", symbol),
	}
}

// Run blocks until ctx is canceled and returns ctx.Err().
func (w *WebSocket) Run(ctx context.Context, out chan<- model.OHLCV) error {
	backoff := w.ReconnectMin
	for {
		conn, err := w.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.log.WithError(err).Warn("ws connect failed")
			if err := sleep(ctx, backoff); err != nil {
				return err
			}
			backoff = w.nextBackoff(backoff)
			continue
		}
		backoff = w.ReconnectMin

		err = w.readLoop(ctx, conn, out)
		conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		w.log.WithError(err).Warn("ws read failed, reconnecting")
		if err := sleep(ctx, backoff); err != nil {
			return err
		}
	}
}

func (w *WebSocket) connect(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", w.URL, err)
	}
	conn.SetReadLimit(1 << 20)

	if w.Symbol != "" {
		if err := conn.WriteJSON(subscribeMessage{Op: "subscribe", Symbol: w.Symbol}); err != nil {
			conn.Close()
			return nil, fmt.Errorf("subscribe: %w", err)
		}
	}
	w.log.WithField("url", w.URL).Info("ws connected")
	return conn, nil
}

func (w *WebSocket) readLoop(ctx context.Context, conn *websocket.Conn, out chan<- model.OHLCV) error {
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var msg BarMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			w.log.WithError(err).Debug("skipping malformed frame")
			continue
		}
		if w.Symbol != "" && msg.Symbol != w.Symbol {
			continue
		}
		if !msg.valid() {
			w.log.WithField("frame", string(data)).Debug("skipping malformed frame")
			continue
		}
		bar := model.OHLCV{
			Time:   time.Unix(msg.Time, 0),
			Open:   msg.Open,
			High:   msg.High,
			Low:    msg.Low,
			Close:  msg.Close,
			Volume: msg.Volume,
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case out <- bar:
		}
	}
}

func (w *WebSocket) nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > w.ReconnectMax {
		return w.ReconnectMax
	}
	return next
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
