package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"GridSentinel/internal/logger"
	"GridSentinel/internal/model"
)

// SQLiteRecorder persists historical data to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log *logrus.Entry
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so readers do not block the writer.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: logger.Default().WithComponent("recorder")}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.WithField("path", dbPath).Info("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS evaluations (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			symbol       TEXT NOT NULL,
			is_supported INTEGER NOT NULL,
			total        INTEGER,
			passed       INTEGER,
			pass_rate    REAL,
			grid_lower   REAL,
			grid_upper   REAL,
			grid_count   INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_eval_symbol_ts ON evaluations(symbol, timestamp)`,

		`CREATE TABLE IF NOT EXISTS factor_results (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			evaluation_id INTEGER NOT NULL REFERENCES evaluations(id),
			position      INTEGER NOT NULL,
			category      TEXT,
			factor        TEXT,
			name          TEXT,
			value         REAL,
			threshold     TEXT,
			conclusion    TEXT,
			is_passed     INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_factor_eval ON factor_results(evaluation_id)`,

		`CREATE TABLE IF NOT EXISTS fills (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			symbol    TEXT,
			order_id  TEXT,
			side      TEXT,
			price     REAL,
			size      REAL,
			fee       REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fills_ts ON fills(timestamp)`,

		`CREATE TABLE IF NOT EXISTS strategy_events (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			event_type   TEXT,
			symbol       TEXT,
			reason       TEXT,
			cash         REAL,
			inventory    REAL,
			realized_pnl REAL,
			last_price   REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_strategy_ts ON strategy_events(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

var categoryOrder = []model.Category{model.CategoryTechnical, model.CategoryFundamental, model.CategorySentiment}

func (r *SQLiteRecorder) RecordEvaluation(res *model.EvaluationResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := res.AllFactors()
	passed := 0
	for _, fr := range all {
		if fr.IsPassed {
			passed++
		}
	}
	rate := 0.0
	if len(all) > 0 {
		rate = float64(passed) / float64(len(all))
	}
	var lower, upper sql.NullFloat64
	var count sql.NullInt64
	if gc := res.GridConfig; gc != nil {
		lower = sql.NullFloat64{Float64: gc.LowerBound, Valid: true}
		upper = sql.NullFloat64{Float64: gc.UpperBound, Valid: true}
		count = sql.NullInt64{Int64: int64(gc.GridCount), Valid: true}
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	out, err := tx.Exec(`INSERT INTO evaluations
		(timestamp, symbol, is_supported, total, passed, pass_rate, grid_lower, grid_upper, grid_count)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), res.Symbol, res.IsSupported, len(all), passed, rate, lower, upper, count,
	)
	if err != nil {
		return fmt.Errorf("insert evaluation: %w", err)
	}
	evalID, err := out.LastInsertId()
	if err != nil {
		return fmt.Errorf("evaluation id: %w", err)
	}

	pos := 0
	for _, c := range categoryOrder {
		for _, fr := range res.Reason[c] {
			var value sql.NullFloat64
			if fr.Value != nil {
				value = sql.NullFloat64{Float64: *fr.Value, Valid: true}
			}
			if _, err := tx.Exec(`INSERT INTO factor_results
				(evaluation_id, position, category, factor, name, value, threshold, conclusion, is_passed)
				VALUES (?,?,?,?,?,?,?,?,?)`,
				evalID, pos, string(c), fr.Factor, fr.DisplayName, value, fr.Threshold, fr.Conclusion, fr.IsPassed,
			); err != nil {
				return fmt.Errorf("insert factor %s: %w", fr.Factor, err)
			}
			pos++
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordFill(evt *FillEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO fills
		(timestamp, symbol, order_id, side, price, size, fee)
		VALUES (?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.Symbol, evt.OrderID, evt.Side, evt.Price, evt.Size, evt.Fee,
	)
	return err
}

func (r *SQLiteRecorder) RecordStrategyEvent(evt *StrategyEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO strategy_events
		(timestamp, event_type, symbol, reason, cash, inventory, realized_pnl, last_price)
		VALUES (?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.EventType, evt.Symbol, evt.Reason,
		evt.CashQuote, evt.Inventory, evt.RealizedPnL, evt.LastPrice,
	)
	return err
}

// ListEvaluations returns the newest evaluations for symbol, newest first.
// An empty symbol matches every symbol.
func (r *SQLiteRecorder) ListEvaluations(symbol string, limit int) ([]EvaluationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(`SELECT id, timestamp, symbol, is_supported, total, passed
		FROM evaluations
		WHERE ? = '' OR symbol = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`, symbol, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query evaluations: %w", err)
	}
	var recs []EvaluationRecord
	for rows.Next() {
		var rec EvaluationRecord
		var ts int64
		if err := rows.Scan(&rec.ID, &ts, &rec.Symbol, &rec.IsSupported, &rec.Total, &rec.Passed); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan evaluation: %w", err)
		}
		rec.Timestamp = time.Unix(ts, 0)
		recs = append(recs, rec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate evaluations: %w", err)
	}

	for i := range recs {
		factors, err := r.factorsFor(recs[i].ID)
		if err != nil {
			return nil, err
		}
		recs[i].Factors = factors
	}
	return recs, nil
}

func (r *SQLiteRecorder) factorsFor(evalID int64) ([]model.FactorResult, error) {
	rows, err := r.db.Query(`SELECT factor, name, value, threshold, conclusion, is_passed
		FROM factor_results WHERE evaluation_id = ? ORDER BY position`, evalID)
	if err != nil {
		return nil, fmt.Errorf("query factors: %w", err)
	}
	defer rows.Close()

	var out []model.FactorResult
	for rows.Next() {
		var fr model.FactorResult
		var value sql.NullFloat64
		if err := rows.Scan(&fr.Factor, &fr.DisplayName, &value, &fr.Threshold, &fr.Conclusion, &fr.IsPassed); err != nil {
			return nil, fmt.Errorf("scan factor: %w", err)
		}
		if value.Valid {
			fr.Value = model.Float(value.Float64)
		}
		out = append(out, fr)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info("closing sqlite recorder")
	return r.db.Close()
}
