package ports

import (
	"context"

	"github.com/alejandrodnm/walkforward/internal/domain"
)

// Reporter presenta los resultados de una tanda de backtests al usuario.
type Reporter interface {
	Report(ctx context.Context, results []domain.BacktestResult) error
}
