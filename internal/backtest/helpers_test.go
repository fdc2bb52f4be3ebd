package backtest

import (
	"time"

	"github.com/alejandrodnm/walkforward/internal/domain"
)

var t0 = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

// makeSeries genera n puntos cada interval desde start, newest-first como
// los devuelve un proveedor.
func makeSeries(start time.Time, n int, interval time.Duration, price func(i int) float64) []domain.RawPrice {
	out := make([]domain.RawPrice, n)
	for i := 0; i < n; i++ {
		ts := start.Add(time.Duration(i) * interval)
		out[n-1-i] = domain.RawPrice{
			Timestamp: ts.Format(time.RFC3339),
			Price:     price(i),
			Oracle:    "pyth",
		}
	}
	return out
}

func flat(p float64) func(int) float64 {
	return func(int) float64 { return p }
}

func ramp(base, step float64) func(int) float64 {
	return func(i int) float64 { return base + step*float64(i) }
}

func pts(times ...int64) []domain.PricePoint {
	out := make([]domain.PricePoint, len(times))
	for i, t := range times {
		out[i] = domain.PricePoint{Time: t, Price: 100 + float64(i)}
	}
	return out
}

// funcStrategy adapta una función a strategy.Strategy.
type funcStrategy struct {
	name string
	fn   func(ec domain.EvaluationContext) (*domain.Signal, error)
}

func (f funcStrategy) Name() string { return f.name }

func (f funcStrategy) Evaluate(ec domain.EvaluationContext) (*domain.Signal, error) {
	return f.fn(ec)
}

func nullStrategy() funcStrategy {
	return funcStrategy{name: "null", fn: func(domain.EvaluationContext) (*domain.Signal, error) {
		return nil, nil
	}}
}

func alwaysUp(threshold, confidence float64) funcStrategy {
	return funcStrategy{name: "always_up", fn: func(domain.EvaluationContext) (*domain.Signal, error) {
		return &domain.Signal{Direction: domain.DirectionUp, Threshold: threshold, Confidence: confidence}, nil
	}}
}

// recordingStrategy guarda cada contexto recibido y emite "up" al precio actual.
type recordingStrategy struct {
	contexts []domain.EvaluationContext
}

func (r *recordingStrategy) Name() string { return "recording" }

func (r *recordingStrategy) Evaluate(ec domain.EvaluationContext) (*domain.Signal, error) {
	r.contexts = append(r.contexts, ec)
	return &domain.Signal{
		Direction:  domain.DirectionUp,
		Threshold:  ec.CurrentPrice,
		Confidence: 0.7,
		Strategy:   "recording",
	}, nil
}
