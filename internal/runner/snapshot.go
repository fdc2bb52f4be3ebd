package runner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/walkforward/internal/ports"
)

// Snapshot copia el historial de src a dst para poder repetir backtests
// offline sobre exactamente los mismos datos. Si pairs está vacío usa
// src.ListPairs. Devuelve el total de registros copiados.
func Snapshot(ctx context.Context, src ports.PriceProvider, dst ports.PriceArchive, pairs []string, limit int) (int, error) {
	if len(pairs) == 0 {
		listed, err := src.ListPairs(ctx)
		if err != nil {
			return 0, fmt.Errorf("runner.Snapshot: list pairs: %w", err)
		}
		pairs = listed
	}

	total := 0
	for _, pair := range pairs {
		prices, err := src.FetchHistory(ctx, pair, limit)
		if err != nil {
			return total, fmt.Errorf("runner.Snapshot: fetch %s: %w", pair, err)
		}
		if err := dst.SavePrices(ctx, pair, prices); err != nil {
			return total, fmt.Errorf("runner.Snapshot: save %s: %w", pair, err)
		}
		total += len(prices)
		slog.Info("snapshot saved", "pair", pair, "records", len(prices))
	}
	return total, nil
}
