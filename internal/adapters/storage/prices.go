package storage

import (
	"context"
	"fmt"

	"github.com/alejandrodnm/walkforward/internal/domain"
)

// price_history guarda snapshots del feed para backtests offline, tal cual
// llegaron: los registros con timestamp inválido también se guardan y es el
// índice de backtest quien los descarta.
const priceSchema = `
CREATE TABLE IF NOT EXISTS price_history (
    pair      TEXT    NOT NULL,
    seq       INTEGER NOT NULL, -- posición en el snapshot, 0 = más reciente
    timestamp TEXT    NOT NULL,
    price     REAL    NOT NULL,
    oracle    TEXT    NOT NULL DEFAULT '',
    PRIMARY KEY (pair, seq)
);
`

// SavePrices reemplaza el historial guardado del par. prices llega newest-first.
func (s *SQLiteStorage) SavePrices(ctx context.Context, pair string, prices []domain.RawPrice) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SavePrices: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM price_history WHERE pair = ?`, pair); err != nil {
		return fmt.Errorf("storage.SavePrices: clear %s: %w", pair, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO price_history (pair, seq, timestamp, price, oracle)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("storage.SavePrices: prepare: %w", err)
	}
	defer stmt.Close()

	for i, p := range prices {
		if _, err := stmt.ExecContext(ctx, pair, i, p.Timestamp, p.Price, p.Oracle); err != nil {
			return fmt.Errorf("storage.SavePrices: insert %s #%d: %w", pair, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SavePrices: commit: %w", err)
	}
	return nil
}

// FetchHistory implementa ports.PriceProvider: newest-first, hasta limit.
func (s *SQLiteStorage) FetchHistory(ctx context.Context, pair string, limit int) ([]domain.RawPrice, error) {
	if limit <= 0 {
		limit = -1 // sin límite en SQLite
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, price, oracle
		FROM price_history
		WHERE pair = ?
		ORDER BY seq
		LIMIT ?
	`, pair, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.FetchHistory: query %s: %w", pair, err)
	}
	defer rows.Close()

	var out []domain.RawPrice
	for rows.Next() {
		var p domain.RawPrice
		if err := rows.Scan(&p.Timestamp, &p.Price, &p.Oracle); err != nil {
			return nil, fmt.Errorf("storage.FetchHistory: scan row: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListPairs implementa ports.PriceProvider.
func (s *SQLiteStorage) ListPairs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT pair FROM price_history ORDER BY pair`)
	if err != nil {
		return nil, fmt.Errorf("storage.ListPairs: query: %w", err)
	}
	defer rows.Close()

	var pairs []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("storage.ListPairs: scan row: %w", err)
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}
