package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GridSentinel/internal/model"
)

func TestReplay(t *testing.T) {
	bars := []model.OHLCV{{Close: 1}, {Close: 2}, {Close: 3}}
	out := make(chan model.OHLCV, len(bars))
	require.NoError(t, NewReplay(bars).Run(context.Background(), out))
	close(out)

	var got []float64
	for b := range out {
		got = append(got, b.Close)
	}
	assert.Equal(t, []float64{1, 2, 3}, got)
}

func TestReplay_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewReplay([]model.OHLCV{{Close: 1}}).Run(ctx, make(chan model.OHLCV))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWebSocket_StreamsAndReconnects(t *testing.T) {
	var conns atomic.Int32
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		n := conns.Add(1)

		var sub subscribeMessage
		if err := conn.ReadJSON(&sub); err != nil || sub.Symbol != "600000" {
			return
		}
		frames := []BarMessage{
			{Symbol: "600000", Time: 1700000000, Open: 10, High: 11, Low: 9, Close: 10.5},
			{Symbol: "OTHER", Close: 99},
		}
		if n == 1 {
			frames = append(frames, BarMessage{Symbol: "600000", Open: 10.5, High: 11, Low: 10.5, Close: 11})
		} else {
			frames = append(frames, BarMessage{Symbol: "600000", Open: 11, High: 12, Low: 11, Close: 12})
		}
		conn.WriteMessage(websocket.TextMessage, []byte("not json"))
		for _, f := range frames {
			conn.WriteJSON(f)
		}
		if n > 1 {
			// keep the second session open until the client leaves
			conn.ReadMessage()
		}
	}))
	defer srv.Close()

	w := NewWebSocket("ws"+strings.TrimPrefix(srv.URL, "http"), "600000")
	w.ReconnectMin = 10 * time.Millisecond
	w.ReconnectMax = 20 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	out := make(chan model.OHLCV)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, out) }()

	var got []float64
	for len(got) < 4 {
		select {
		case b := <-out:
			got = append(got, b.Close)
		case <-ctx.Done():
			t.Fatalf("timed out after %v", got)
		}
	}
	assert.Equal(t, []float64{10.5, 11, 10.5, 12}, got)
	assert.GreaterOrEqual(t, conns.Load(), int32(2))

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("feed did not stop")
	}
}

func TestWebSocket_SkipsControlFrames(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		conn.WriteMessage(websocket.TextMessage, []byte(`{"op":"subscribe","symbol":"X","success":true}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"op":"ping","symbol":"X"}`))
		conn.WriteJSON(BarMessage{Symbol: "X", Open: 10, High: 9, Low: 11, Close: 10})
		conn.WriteJSON(BarMessage{Symbol: "X", Open: 10, High: 11, Low: 9, Close: 10.5})
		conn.ReadMessage()
	}))
	defer srv.Close()

	w := NewWebSocket("ws"+strings.TrimPrefix(srv.URL, "http"), "X")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	out := make(chan model.OHLCV)
	go w.Run(ctx, out)

	select {
	case b := <-out:
		assert.Equal(t, model.OHLCV{Time: time.Unix(0, 0), Open: 10, High: 11, Low: 9, Close: 10.5}, b)
	case <-ctx.Done():
		t.Fatal("no bar received")
	}
}

func TestBarMessage_Valid(t *testing.T) {
	tests := []struct {
		name string
		msg  BarMessage
		want bool
	}{
		{"full bar", BarMessage{Open: 10, High: 11, Low: 9, Close: 10}, true},
		{"flat bar", BarMessage{Open: 10, High: 10, Low: 10, Close: 10}, true},
		{"ack", BarMessage{Symbol: "X"}, false},
		{"close only", BarMessage{Close: 11}, false},
		{"inverted range", BarMessage{Open: 10, High: 9, Low: 11, Close: 10}, false},
		{"close above high", BarMessage{Open: 10, High: 11, Low: 9, Close: 12}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.msg.valid())
		})
	}
}

func TestNextBackoff(t *testing.T) {
	w := NewWebSocket("ws://unused", "X")
	assert.Equal(t, 2*time.Second, w.nextBackoff(time.Second))
	assert.Equal(t, 30*time.Second, w.nextBackoff(20*time.Second))
}
