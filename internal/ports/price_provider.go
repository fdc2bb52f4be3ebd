package ports

import (
	"context"

	"github.com/alejandrodnm/walkforward/internal/domain"
)

// PriceProvider devuelve el historial de precios de un par.
type PriceProvider interface {
	// FetchHistory devuelve hasta limit registros, newest-first.
	// limit <= 0 significa sin límite.
	FetchHistory(ctx context.Context, pair string, limit int) ([]domain.RawPrice, error)

	// ListPairs devuelve los pares disponibles, ordenados.
	ListPairs(ctx context.Context) ([]string, error)
}

// PriceArchive persiste snapshots de historial para backtests offline.
type PriceArchive interface {
	// SavePrices reemplaza el historial guardado del par. prices llega newest-first.
	SavePrices(ctx context.Context, pair string, prices []domain.RawPrice) error
}
