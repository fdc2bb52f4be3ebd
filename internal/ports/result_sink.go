package ports

import (
	"context"

	"github.com/alejandrodnm/walkforward/internal/domain"
)

// ResultSink persiste el resumen de un backtest completado.
type ResultSink interface {
	// SaveBacktest guarda el resumen y sus trades de forma atómica.
	SaveBacktest(ctx context.Context, summary domain.BacktestSummary, trades []domain.Trade) error
}

// ResultStore además permite consultar lo persistido.
type ResultStore interface {
	ResultSink

	// ListBacktests devuelve los resúmenes más recientes primero.
	// strategy vacío devuelve todos.
	ListBacktests(ctx context.Context, strategy string) ([]domain.BacktestSummary, error)

	// GetBacktestTrades devuelve los trades de un backtest en orden cronológico.
	GetBacktestTrades(ctx context.Context, id string) ([]domain.Trade, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
