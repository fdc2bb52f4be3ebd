package strategy

import (
	"math"

	"github.com/alejandrodnm/walkforward/internal/domain"
)

// windowReturn devuelve el retorno (fracción) entre el punto más reciente y
// el que está lookback posiciones atrás. history es newest-first.
func windowReturn(history []domain.PricePoint, lookback int) (float64, bool) {
	if lookback <= 0 || len(history) <= lookback {
		return 0, false
	}
	past := history[lookback].Price
	if past <= 0 {
		return 0, false
	}
	return (history[0].Price - past) / past, true
}

// meanStd devuelve media y desviación estándar poblacional.
func meanStd(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mu := sum / float64(len(xs))

	var sq float64
	for _, x := range xs {
		sq += (x - mu) * (x - mu)
	}
	return mu, math.Sqrt(sq / float64(len(xs)))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
