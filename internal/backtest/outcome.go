package backtest

import (
	"errors"
	"fmt"
	"math"

	"github.com/alejandrodnm/walkforward/internal/domain"
)

// ErrInvalidSignal indica que la estrategia devolvió una señal mal formada.
var ErrInvalidSignal = errors.New("invalid signal")

// futureTolerance es la fracción del horizonte dentro de la cual se acepta
// el precio realizado.
const futureTolerance = 0.3

// resolveFuture busca, entre los puntos estrictamente posteriores a i, el más
// cercano a Time(i)+horizon. Devuelve false si ninguno cae dentro de
// futureTolerance×horizon.
func (ix *TimeIndex) resolveFuture(i int, horizonMs int64) (int, bool) {
	sampleTime := ix.points[i].Time
	target := sampleTime + horizonMs
	tolerance := futureTolerance * float64(horizonMs)

	// Con tiempos enteros, |t-target| <= tol ⇔ t >= target-floor(tol)
	start := max(i+1, ix.firstAtOrAfter(target-int64(math.Floor(tolerance))))

	best := -1
	var bestDelta float64
	for j := start; j < len(ix.points); j++ {
		t := ix.points[j].Time
		if float64(t) > float64(target)+tolerance {
			break
		}
		if t <= sampleTime {
			continue
		}
		d := math.Abs(float64(t - target))
		if best < 0 || d < bestDelta {
			best, bestDelta = j, d
		}
	}

	if best < 0 || bestDelta > tolerance {
		return -1, false
	}
	return best, true
}

// scoreTrade puntúa la señal contra el precio realizado. El test es de umbral
// y de un solo lado: "up" acierta si future >= threshold, "down" si
// future <= threshold, ambos inclusivos.
func scoreTrade(entry, future domain.PricePoint, sig domain.Signal) domain.Trade {
	var correct bool
	switch sig.Direction {
	case domain.DirectionUp:
		correct = future.Price >= sig.Threshold
	case domain.DirectionDown:
		correct = future.Price <= sig.Threshold
	}

	return domain.Trade{
		Time:        entry.Time,
		Timestamp:   entry.Timestamp,
		FutureTime:  future.Time,
		EntryPrice:  entry.Price,
		FuturePrice: future.Price,
		Direction:   sig.Direction,
		Threshold:   sig.Threshold,
		Confidence:  sig.Confidence,
		Correct:     correct,
		PctChange:   (future.Price - entry.Price) / entry.Price * 100,
		Strategy:    sig.Strategy,
	}
}

// validateSignal rechaza señales a las que les falta un campo requerido o
// traen valores no finitos.
func validateSignal(sig domain.Signal) error {
	if !sig.Direction.Valid() {
		return fmt.Errorf("direction %q: %w", sig.Direction, ErrInvalidSignal)
	}
	if math.IsNaN(sig.Threshold) || math.IsInf(sig.Threshold, 0) || sig.Threshold <= 0 {
		return fmt.Errorf("threshold %v: %w", sig.Threshold, ErrInvalidSignal)
	}
	if math.IsNaN(sig.Confidence) || sig.Confidence < 0 || sig.Confidence > 1 {
		return fmt.Errorf("confidence %v: %w", sig.Confidence, ErrInvalidSignal)
	}
	return nil
}
