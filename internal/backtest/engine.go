package backtest

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/alejandrodnm/walkforward/internal/domain"
	"github.com/alejandrodnm/walkforward/internal/strategy"
)

const (
	// minPoints es el mínimo de puntos válidos para intentar un backtest.
	minPoints = 20
	// minLookback es el mínimo de historia que recibe una estrategia, y el
	// mínimo para incluir un par en AllPrices.
	minLookback = 5

	warmupMs  = int64(30 * time.Minute / time.Millisecond)
	minStepMs = int64(5 * time.Minute / time.Millisecond)
	// stepPerHorizonHour escala el paso con el horizonte para no evaluar
	// predicciones casi idénticas cuando el horizonte es largo.
	stepPerHorizonHour = float64(15 * time.Minute / time.Millisecond)
	msPerHour          = float64(time.Hour / time.Millisecond)
)

var (
	// ErrInvalidHorizon indica un horizonte no positivo o no finito.
	ErrInvalidHorizon = errors.New("invalid horizon")
	// ErrNilStrategy indica que no se pasó estrategia.
	ErrNilStrategy = errors.New("nil strategy")
)

// Options son las entradas opcionales de Run.
type Options struct {
	// AllPrices contiene las series newest-first de otros pares, para
	// estrategias cross-asset. La entrada del propio par se ignora.
	AllPrices map[string][]domain.RawPrice
}

// Run ejecuta un backtest walk-forward de s sobre series (newest-first).
//
// Datos insuficientes no son un error: el resultado vuelve sin trades y con
// Diagnostics.Reason. Solo se devuelve error por violaciones de contrato de
// la estrategia o del proveedor de precios.
func Run(s strategy.Strategy, pair string, horizonHours float64, series []domain.RawPrice, opts Options) (domain.BacktestResult, error) {
	index, err := BuildIndex(series)
	if err != nil {
		return domain.BacktestResult{}, fmt.Errorf("backtest.Run %s: %w", pair, err)
	}

	siblings := make(map[string]*TimeIndex, len(opts.AllPrices))
	for other, raw := range opts.AllPrices {
		if other == pair {
			continue
		}
		ix, err := BuildIndex(raw)
		if err != nil {
			return domain.BacktestResult{}, fmt.Errorf("backtest.Run %s: sibling %s: %w", pair, other, err)
		}
		siblings[other] = ix
	}

	return RunIndexed(s, pair, horizonHours, index, siblings)
}

// RunIndexed es Run sobre índices ya construidos. Los índices no se
// modifican, así que varios backtests pueden compartirlos.
func RunIndexed(s strategy.Strategy, pair string, horizonHours float64, index *TimeIndex, siblings map[string]*TimeIndex) (domain.BacktestResult, error) {
	if s == nil {
		return domain.BacktestResult{}, fmt.Errorf("backtest.RunIndexed: %w", ErrNilStrategy)
	}
	if math.IsNaN(horizonHours) || math.IsInf(horizonHours, 0) || horizonHours <= 0 {
		return domain.BacktestResult{}, fmt.Errorf("backtest.RunIndexed: %v hours: %w", horizonHours, ErrInvalidHorizon)
	}

	result := domain.BacktestResult{
		Strategy:     s.Name(),
		Pair:         pair,
		HorizonHours: horizonHours,
		SeriesStart:  index.Start(),
		SeriesEnd:    index.End(),
	}

	switch {
	case index.RawCount() < minPoints:
		return degenerate(result, domain.ReasonInsufficientData), nil
	case index.Len() < minPoints:
		return degenerate(result, domain.ReasonInvalidTimestamps), nil
	}

	horizonMs := HorizonMs(horizonHours)
	if index.End()-index.Start() < 2*horizonMs {
		return degenerate(result, domain.ReasonSpanTooShort), nil
	}

	result.StepMs = StepMs(horizonHours)

	own := siblings
	if _, ok := siblings[pair]; ok {
		own = make(map[string]*TimeIndex, len(siblings))
		for p, ix := range siblings {
			if p != pair {
				own[p] = ix
			}
		}
	}

	st := &stepper{
		strategy:     s,
		pair:         pair,
		horizonHours: horizonHours,
		horizonMs:    horizonMs,
		stepMs:       result.StepMs,
		index:        index,
		siblings:     own,
	}
	if err := st.run(); err != nil {
		return domain.BacktestResult{}, fmt.Errorf("backtest.RunIndexed %s: %w", pair, err)
	}

	result.Diagnostics = st.diag
	applyMetrics(&result, Aggregate(st.trades))

	slog.Debug("backtest complete",
		"strategy", result.Strategy,
		"pair", pair,
		"horizon_h", horizonHours,
		"evaluated", st.diag.Evaluated,
		"signaled", st.diag.Signaled,
		"trades", result.TotalTrades,
	)
	return result, nil
}

// HorizonMs convierte el horizonte en horas a milisegundos.
func HorizonMs(horizonHours float64) int64 {
	return int64(math.Round(horizonHours * msPerHour))
}

// StepMs devuelve el paso del reloj virtual: max(5 min, horizonte × 15 min).
func StepMs(horizonHours float64) int64 {
	return max(minStepMs, int64(math.Round(horizonHours*stepPerHorizonHour)))
}

// degenerate devuelve el resultado sin trades para datos que no alcanzan.
func degenerate(result domain.BacktestResult, reason string) domain.BacktestResult {
	result.Diagnostics.Reason = reason
	applyMetrics(&result, Aggregate(nil))
	return result
}

func applyMetrics(result *domain.BacktestResult, m Metrics) {
	result.TotalTrades = m.TotalTrades
	result.CorrectTrades = m.CorrectTrades
	result.Accuracy = m.Accuracy
	result.Sharpe = m.Sharpe
	result.MaxDrawdown = m.MaxDrawdown
	result.ProfitFactor = m.ProfitFactor
	result.MaxWinStreak = m.MaxWinStreak
	result.MaxLossStreak = m.MaxLossStreak
	result.ConfidenceCalibration = m.Calibration
	result.Trades = m.Trades
}
