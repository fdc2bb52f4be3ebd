package storage

// sqlite.go: persistencia de resultados de backtests.
//
// Estrategia:
//   - `backtests`: una fila por backtest con las métricas agregadas y los
//     diagnósticos. La calibración va como JSON: son 4 bins fijos y solo se
//     leen junto con el resumen.
//   - `backtest_trades`: una fila por trade, en orden cronológico (seq).
//   - Prune automático al arrancar: backtests > 90d (y sus trades).

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alejandrodnm/walkforward/internal/domain"
	"github.com/alejandrodnm/walkforward/internal/ports"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS backtests (
    id              TEXT PRIMARY KEY,
    strategy        TEXT    NOT NULL,
    pair_filter     TEXT    NOT NULL,
    horizon_hours   REAL    NOT NULL,
    total_trades    INTEGER NOT NULL DEFAULT 0,
    correct_trades  INTEGER NOT NULL DEFAULT 0,
    accuracy        REAL,
    sharpe          REAL,
    max_drawdown    REAL    NOT NULL DEFAULT 0,
    profit_factor   REAL    NOT NULL DEFAULT 0,
    max_win_streak  INTEGER NOT NULL DEFAULT 0,
    max_loss_streak INTEGER NOT NULL DEFAULT 0,
    calibration     TEXT    NOT NULL DEFAULT '[]',
    evaluated       INTEGER NOT NULL DEFAULT 0,
    signaled        INTEGER NOT NULL DEFAULT 0,
    null_strategy   INTEGER NOT NULL DEFAULT 0,
    no_future_data  INTEGER NOT NULL DEFAULT 0,
    skipped_sparse  INTEGER NOT NULL DEFAULT 0,
    skipped_thin    INTEGER NOT NULL DEFAULT 0,
    skipped_dup     INTEGER NOT NULL DEFAULT 0,
    reason          TEXT    NOT NULL DEFAULT '',
    created_at      INTEGER NOT NULL -- epoch ms
);

CREATE TABLE IF NOT EXISTS backtest_trades (
    backtest_id  TEXT    NOT NULL,
    seq          INTEGER NOT NULL,
    time_ms      INTEGER NOT NULL,
    timestamp    TEXT    NOT NULL,
    future_ms    INTEGER NOT NULL,
    entry_price  REAL    NOT NULL,
    future_price REAL    NOT NULL,
    direction    TEXT    NOT NULL,
    threshold    REAL    NOT NULL,
    confidence   REAL    NOT NULL,
    correct      INTEGER NOT NULL,
    pct_change   REAL    NOT NULL,
    strategy     TEXT    NOT NULL,
    PRIMARY KEY (backtest_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_backtests_strategy ON backtests(strategy);
CREATE INDEX IF NOT EXISTS idx_backtests_created  ON backtests(created_at DESC);
`

const retentionBacktests = 90 * 24 * time.Hour

// Compile-time interface checks.
var (
	_ ports.ResultStore   = (*SQLiteStorage)(nil)
	_ ports.PriceProvider = (*SQLiteStorage)(nil)
	_ ports.PriceArchive  = (*SQLiteStorage)(nil)
)

// SQLiteStorage implementa ports.ResultStore y el historial de precios
// usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
// Aplica el schema y limpia datos antiguos.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	for _, ddl := range []string{schema, priceSchema} {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
		}
	}

	s := &SQLiteStorage{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// SaveBacktest persiste el resumen y los trades en una sola transacción.
func (s *SQLiteStorage) SaveBacktest(ctx context.Context, summary domain.BacktestSummary, trades []domain.Trade) error {
	calibration, err := json.Marshal(summary.Calibration)
	if err != nil {
		return fmt.Errorf("storage.SaveBacktest: marshal calibration: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveBacktest: begin tx: %w", err)
	}
	defer tx.Rollback()

	d := summary.Diagnostics
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO backtests
			(id, strategy, pair_filter, horizon_hours, total_trades, correct_trades,
			 accuracy, sharpe, max_drawdown, profit_factor, max_win_streak, max_loss_streak,
			 calibration, evaluated, signaled, null_strategy, no_future_data,
			 skipped_sparse, skipped_thin, skipped_dup, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		summary.ID, summary.Strategy, summary.PairFilter, summary.HorizonHours,
		summary.TotalTrades, summary.CorrectTrades,
		nullable(summary.Accuracy), nullable(summary.Sharpe),
		summary.MaxDrawdown, summary.ProfitFactor, summary.MaxWinStreak, summary.MaxLossStreak,
		string(calibration), d.Evaluated, d.Signaled, d.NullStrategy, d.NoFutureData,
		d.SkippedSparse, d.SkippedThinLookback, d.SkippedDuplicate, d.Reason,
		summary.CreatedAt.UTC().UnixMilli(),
	); err != nil {
		return fmt.Errorf("storage.SaveBacktest: insert %s: %w", summary.ID, err)
	}

	if len(trades) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO backtest_trades
				(backtest_id, seq, time_ms, timestamp, future_ms, entry_price, future_price,
				 direction, threshold, confidence, correct, pct_change, strategy)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("storage.SaveBacktest: prepare: %w", err)
		}
		defer stmt.Close()

		for i, t := range trades {
			correct := 0
			if t.Correct {
				correct = 1
			}
			if _, err := stmt.ExecContext(ctx,
				summary.ID, i, t.Time, t.Timestamp, t.FutureTime, t.EntryPrice, t.FuturePrice,
				string(t.Direction), t.Threshold, t.Confidence, correct, t.PctChange, t.Strategy,
			); err != nil {
				return fmt.Errorf("storage.SaveBacktest: insert trade %d: %w", i, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveBacktest: commit: %w", err)
	}
	return nil
}

// ListBacktests devuelve los resúmenes más recientes primero.
func (s *SQLiteStorage) ListBacktests(ctx context.Context, strategy string) ([]domain.BacktestSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, strategy, pair_filter, horizon_hours, total_trades, correct_trades,
		       accuracy, sharpe, max_drawdown, profit_factor, max_win_streak, max_loss_streak,
		       calibration, evaluated, signaled, null_strategy, no_future_data,
		       skipped_sparse, skipped_thin, skipped_dup, reason, created_at
		FROM backtests
		WHERE ? = '' OR strategy = ?
		ORDER BY created_at DESC, id
	`, strategy, strategy)
	if err != nil {
		return nil, fmt.Errorf("storage.ListBacktests: query: %w", err)
	}
	defer rows.Close()

	var out []domain.BacktestSummary
	for rows.Next() {
		var sum domain.BacktestSummary
		var accuracy, sharpe sql.NullFloat64
		var calibration string
		var createdAt int64
		d := &sum.Diagnostics

		if err := rows.Scan(
			&sum.ID, &sum.Strategy, &sum.PairFilter, &sum.HorizonHours,
			&sum.TotalTrades, &sum.CorrectTrades,
			&accuracy, &sharpe,
			&sum.MaxDrawdown, &sum.ProfitFactor, &sum.MaxWinStreak, &sum.MaxLossStreak,
			&calibration, &d.Evaluated, &d.Signaled, &d.NullStrategy, &d.NoFutureData,
			&d.SkippedSparse, &d.SkippedThinLookback, &d.SkippedDuplicate, &d.Reason,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("storage.ListBacktests: scan row: %w", err)
		}
		if err := json.Unmarshal([]byte(calibration), &sum.Calibration); err != nil {
			return nil, fmt.Errorf("storage.ListBacktests: calibration %s: %w", sum.ID, err)
		}

		sum.Accuracy = fromNullable(accuracy)
		sum.Sharpe = fromNullable(sharpe)
		sum.CreatedAt = time.UnixMilli(createdAt).UTC()
		out = append(out, sum)
	}
	return out, rows.Err()
}

// GetBacktestTrades devuelve los trades de un backtest en orden cronológico.
func (s *SQLiteStorage) GetBacktestTrades(ctx context.Context, id string) ([]domain.Trade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT time_ms, timestamp, future_ms, entry_price, future_price,
		       direction, threshold, confidence, correct, pct_change, strategy
		FROM backtest_trades
		WHERE backtest_id = ?
		ORDER BY seq
	`, id)
	if err != nil {
		return nil, fmt.Errorf("storage.GetBacktestTrades: query: %w", err)
	}
	defer rows.Close()

	var trades []domain.Trade
	for rows.Next() {
		var t domain.Trade
		var dir string
		var correct int
		if err := rows.Scan(
			&t.Time, &t.Timestamp, &t.FutureTime, &t.EntryPrice, &t.FuturePrice,
			&dir, &t.Threshold, &t.Confidence, &correct, &t.PctChange, &t.Strategy,
		); err != nil {
			return nil, fmt.Errorf("storage.GetBacktestTrades: scan row: %w", err)
		}
		t.Direction = domain.Direction(dir)
		t.Correct = correct == 1
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

// pruneOld elimina backtests antiguos para mantener la DB ligera.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retentionBacktests).UnixMilli()
	s.db.ExecContext(ctx, `DELETE FROM backtest_trades WHERE backtest_id IN (SELECT id FROM backtests WHERE created_at < ?)`, cutoff)
	s.db.ExecContext(ctx, `DELETE FROM backtests WHERE created_at < ?`, cutoff)
}

func nullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func fromNullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
