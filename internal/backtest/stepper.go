package backtest

// stepper.go: el loop walk-forward. Avanza un reloj virtual por el índice,
// arma la vista as-of de cada instante, invoca la estrategia y resuelve la
// señal contra el precio al horizonte.

import (
	"fmt"

	"github.com/alejandrodnm/walkforward/internal/domain"
	"github.com/alejandrodnm/walkforward/internal/strategy"
)

type stepper struct {
	strategy     strategy.Strategy
	pair         string
	horizonHours float64
	horizonMs    int64
	stepMs       int64
	index        *TimeIndex
	siblings     map[string]*TimeIndex

	diag   domain.Diagnostics
	trades []domain.Trade
}

// run recorre la serie desde start+warmup hasta end-horizon.
// Solo devuelve error si la estrategia falla o rompe el contrato de Signal.
func (s *stepper) run() error {
	points := s.index.points
	stop := s.index.End() - s.horizonMs

	// Tiempo de la última muestra evaluada. Dos pasos que caen sobre la misma
	// muestra la evaluarían dos veces.
	var lastEvaluated int64

	for evalTime := s.index.Start() + warmupMs; evalTime < stop; evalTime += s.stepMs {
		i, ok := s.index.nearest(evalTime, s.stepMs)
		if !ok {
			s.diag.SkippedSparse++
			continue
		}
		sample := points[i]
		if sample.Time <= lastEvaluated {
			s.diag.SkippedDuplicate++
			continue
		}
		if i+1 < minLookback {
			s.diag.SkippedThinLookback++
			continue
		}

		ec := domain.EvaluationContext{
			Pair:         s.pair,
			CurrentPrice: sample.Price,
			PriceHistory: newestFirst(points[:i+1]),
			HorizonHours: s.horizonHours,
			AllPrices:    crossAssetView(s.siblings, sample.Time),
		}

		s.diag.Evaluated++
		lastEvaluated = sample.Time

		sig, err := s.strategy.Evaluate(ec)
		if err != nil {
			return fmt.Errorf("strategy %q at %s: %w", s.strategy.Name(), sample.Timestamp, err)
		}
		if sig == nil {
			s.diag.NullStrategy++
			continue
		}
		if err := validateSignal(*sig); err != nil {
			return fmt.Errorf("strategy %q at %s: %w", s.strategy.Name(), sample.Timestamp, err)
		}
		s.diag.Signaled++

		j, ok := s.index.resolveFuture(i, s.horizonMs)
		if !ok {
			s.diag.NoFutureData++
			continue
		}

		signal := *sig
		if signal.Strategy == "" {
			signal.Strategy = s.strategy.Name()
		}
		s.trades = append(s.trades, scoreTrade(sample, points[j], signal))
	}
	return nil
}
