package collector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	_ "modernc.org/sqlite"

	"GridSentinel/internal/model"
)

// DefaultAdjust selects forward-adjusted history rows.
const DefaultAdjust = "qfq"

// SQLiteHistory reads daily bars from a synced stock_history_data table and
// fundamentals from stock_spot_data. Volumes are stored in lots of 100 shares
// and turnover in percent.
type SQLiteHistory struct {
	db     *sql.DB
	Adjust string
}

// NewSQLiteHistory opens the history database at dbPath.
func NewSQLiteHistory(dbPath string) (*SQLiteHistory, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &SQLiteHistory{db: db, Adjust: DefaultAdjust}, nil
}

func (h *SQLiteHistory) Name() string { return "sqlite" }

func (h *SQLiteHistory) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	rows, err := h.db.QueryContext(ctx, `SELECT date, open, high, low, close, volume, turnover
		FROM stock_history_data
		WHERE symbol = ? AND adjust = ?
		ORDER BY date DESC
		LIMIT ?`, symbol, h.Adjust, days)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var bars []model.OHLCV
	for rows.Next() {
		var (
			date                         string
			o, hi, lo, c, vol, turnover sql.NullFloat64
		)
		if err := rows.Scan(&date, &o, &hi, &lo, &c, &vol, &turnover); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		t, err := parseDate(date)
		if err != nil {
			return nil, fmt.Errorf("parse date %q: %w", date, err)
		}
		bars = append(bars, model.OHLCV{
			Time:     t,
			Open:     o.Float64,
			High:     hi.Float64,
			Low:      lo.Float64,
			Close:    c.Float64,
			Volume:   vol.Float64 * 100,
			Turnover: turnover.Float64 / 100,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	slices.Reverse(bars)
	return bars, nil
}

// FetchFundamentals returns empty fundamentals when the symbol has no spot row.
func (h *SQLiteHistory) FetchFundamentals(ctx context.Context, symbol string) (model.Fundamentals, error) {
	var pe, mcap sql.NullFloat64
	err := h.db.QueryRowContext(ctx,
		`SELECT pe_ratio, market_cap FROM stock_spot_data WHERE symbol = ?`, symbol).Scan(&pe, &mcap)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Fundamentals{}, nil
	}
	if err != nil {
		return model.Fundamentals{}, fmt.Errorf("query spot: %w", err)
	}
	var f model.Fundamentals
	if pe.Valid {
		f.PE = model.Float(pe.Float64)
	}
	if mcap.Valid {
		f.MarketCap = model.Float(mcap.Float64)
	}
	return f, nil
}

func (h *SQLiteHistory) Close() error { return h.db.Close() }

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{time.DateOnly, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unknown date layout")
}
