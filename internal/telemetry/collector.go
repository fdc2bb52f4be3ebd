// Package telemetry exporta los contadores de diagnóstico de los backtests
// como métricas Prometheus sobre un registry propio.
package telemetry

import (
	"net/http"
	"time"

	"github.com/alejandrodnm/walkforward/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcomes de backtest_runs_total.
const (
	OutcomeOK         = "ok"
	OutcomeDegenerate = "degenerate"
	OutcomeError      = "error"
)

// Collector agrupa las métricas de backtest. Es seguro para uso concurrente.
type Collector struct {
	registry *prometheus.Registry

	Evaluations  *prometheus.CounterVec
	Signals      *prometheus.CounterVec
	NullSignals  *prometheus.CounterVec
	NoFutureData *prometheus.CounterVec
	Trades       *prometheus.CounterVec
	Runs         *prometheus.CounterVec
	RunDuration  *prometheus.HistogramVec
}

// NewCollector crea el collector y registra todas las métricas en un
// registry nuevo.
func NewCollector() *Collector {
	pairLabels := []string{"strategy", "pair"}
	c := &Collector{
		registry: prometheus.NewRegistry(),

		Evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backtest_evaluations_total",
			Help: "Strategy invocations during walk-forward backtests",
		}, pairLabels),
		Signals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backtest_signals_total",
			Help: "Non-null signals returned by strategies",
		}, pairLabels),
		NullSignals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backtest_null_signals_total",
			Help: "Evaluations where the strategy declined to predict",
		}, pairLabels),
		NoFutureData: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backtest_no_future_data_total",
			Help: "Signals dropped because no price was found at the horizon",
		}, pairLabels),
		Trades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backtest_trades_total",
			Help: "Scored trades by strategy and pair",
		}, pairLabels),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backtest_runs_total",
			Help: "Completed backtests by outcome (ok, degenerate, error)",
		}, []string{"strategy", "pair", "outcome"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "backtest_run_duration_seconds",
			Help:    "Wall time of a single backtest",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		}, []string{"strategy"}),
	}

	c.registry.MustRegister(
		c.Evaluations,
		c.Signals,
		c.NullSignals,
		c.NoFutureData,
		c.Trades,
		c.Runs,
		c.RunDuration,
	)
	return c
}

// Observe registra los diagnósticos de un backtest terminado.
func (c *Collector) Observe(r domain.BacktestResult, elapsed time.Duration) {
	c.RunDuration.WithLabelValues(r.Strategy).Observe(elapsed.Seconds())

	if r.Degenerate() {
		c.Runs.WithLabelValues(r.Strategy, r.Pair, OutcomeDegenerate).Inc()
		return
	}

	d := r.Diagnostics
	c.Evaluations.WithLabelValues(r.Strategy, r.Pair).Add(float64(d.Evaluated))
	c.Signals.WithLabelValues(r.Strategy, r.Pair).Add(float64(d.Signaled))
	c.NullSignals.WithLabelValues(r.Strategy, r.Pair).Add(float64(d.NullStrategy))
	c.NoFutureData.WithLabelValues(r.Strategy, r.Pair).Add(float64(d.NoFutureData))
	c.Trades.WithLabelValues(r.Strategy, r.Pair).Add(float64(r.TotalTrades))
	c.Runs.WithLabelValues(r.Strategy, r.Pair, OutcomeOK).Inc()
}

// ObserveError registra un backtest que terminó con error.
func (c *Collector) ObserveError(strategy, pair string) {
	c.Runs.WithLabelValues(strategy, pair, OutcomeError).Inc()
}

// Registry devuelve el registry con las métricas de backtest.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler devuelve el handler HTTP de /metrics para este registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
