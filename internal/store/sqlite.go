package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"dip-trader/internal/models"
)

// SQLiteStore implements DataStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based data store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Sessions: one row per monitoring run
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		symbol TEXT NOT NULL,
		benchmark_symbol TEXT NOT NULL,
		mode TEXT NOT NULL,
		baseline_price REAL,
		final_price REAL,
		total_decline_pct REAL,
		total_trades INTEGER NOT NULL,
		entry_price REAL,
		started_at DATETIME NOT NULL,
		ended_at DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Trade records: append-only, one row per executed trade
	CREATE TABLE IF NOT EXISTS trade_records (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		symbol TEXT NOT NULL,
		price REAL NOT NULL,
		quantity INTEGER NOT NULL,
		total_cost REAL NOT NULL,
		decline_pct REAL NOT NULL,
		screenshot_path TEXT,
		is_paper INTEGER DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (session_id) REFERENCES sessions(id)
	);

	CREATE INDEX IF NOT EXISTS idx_trade_records_symbol ON trade_records(symbol);
	CREATE INDEX IF NOT EXISTS idx_trade_records_session ON trade_records(session_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveSession inserts or replaces a session summary.
func (s *SQLiteStore) SaveSession(ctx context.Context, sum models.TradingSummary) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO sessions
		(id, symbol, benchmark_symbol, mode, baseline_price, final_price,
		 total_decline_pct, total_trades, entry_price, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sum.SessionID, sum.Symbol, sum.BenchmarkSymbol, string(sum.Mode),
		sum.BaselinePrice, sum.FinalPrice, sum.TotalDeclinePct,
		sum.TotalTrades, sum.EntryPrice, sum.StartedAt, nullableTime(sum.EndedAt))
	if err != nil {
		return fmt.Errorf("saving session %s: %w", sum.SessionID, err)
	}
	return nil
}

// GetSessions returns sessions newest first. A non-positive limit returns
// all of them.
func (s *SQLiteStore) GetSessions(ctx context.Context, limit int) ([]models.TradingSummary, error) {
	query := `
		SELECT id, symbol, benchmark_symbol, mode, baseline_price, final_price,
		       total_decline_pct, total_trades, entry_price, started_at, ended_at
		FROM sessions ORDER BY started_at DESC`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var out []models.TradingSummary
	for rows.Next() {
		var sum models.TradingSummary
		var mode string
		var baseline, final, decline, entry sql.NullFloat64
		var ended sql.NullTime
		if err := rows.Scan(&sum.SessionID, &sum.Symbol, &sum.BenchmarkSymbol, &mode,
			&baseline, &final, &decline, &sum.TotalTrades, &entry,
			&sum.StartedAt, &ended); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sum.Mode = models.TradingMode(mode)
		sum.BaselinePrice = baseline.Float64
		sum.FinalPrice = final.Float64
		sum.TotalDeclinePct = decline.Float64
		sum.EntryPrice = entry.Float64
		if ended.Valid {
			sum.EndedAt = ended.Time
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// SaveTradeRecord appends a trade record. Records are immutable: an existing
// ID is never updated.
func (s *SQLiteStore) SaveTradeRecord(ctx context.Context, rec models.TradeRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trade_records
		(id, session_id, timestamp, symbol, price, quantity, total_cost,
		 decline_pct, screenshot_path, is_paper)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SessionID, rec.Timestamp, rec.Symbol, rec.Price,
		rec.Quantity, rec.TotalCost, rec.DeclinePct, rec.ScreenshotPath,
		boolToInt(rec.IsPaper))
	if err != nil {
		return fmt.Errorf("saving trade record %s: %w", rec.ID, err)
	}
	return nil
}

// GetTradeRecords returns trade records matching the filter, newest first.
func (s *SQLiteStore) GetTradeRecords(ctx context.Context, filter RecordFilter) ([]models.TradeRecord, error) {
	query := `SELECT id, session_id, timestamp, symbol, price, quantity,
	          total_cost, decline_pct, screenshot_path, is_paper
	          FROM trade_records WHERE 1=1`
	var args []interface{}

	if filter.Symbol != "" {
		query += " AND symbol = ?"
		args = append(args, filter.Symbol)
	}
	if filter.SessionID != "" {
		query += " AND session_id = ?"
		args = append(args, filter.SessionID)
	}
	if !filter.StartDate.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, filter.StartDate)
	}
	if !filter.EndDate.IsZero() {
		query += " AND timestamp <= ?"
		args = append(args, filter.EndDate)
	}
	if filter.IsPaper != nil {
		query += " AND is_paper = ?"
		args = append(args, boolToInt(*filter.IsPaper))
	}
	query += " ORDER BY timestamp DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying trade records: %w", err)
	}
	defer rows.Close()

	var out []models.TradeRecord
	for rows.Next() {
		var rec models.TradeRecord
		var screenshot sql.NullString
		var isPaper int
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Timestamp, &rec.Symbol,
			&rec.Price, &rec.Quantity, &rec.TotalCost, &rec.DeclinePct,
			&screenshot, &isPaper); err != nil {
			return nil, fmt.Errorf("scanning trade record: %w", err)
		}
		rec.ScreenshotPath = screenshot.String
		rec.IsPaper = isPaper != 0
		rec.Date = rec.Timestamp.Format("2006-01-02 15:04:05")
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
