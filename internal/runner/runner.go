// Package runner orquesta la matriz estrategia × par × horizonte: carga los
// precios una vez, corre los backtests en paralelo, persiste los resúmenes y
// entrega los resultados al reporter.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/alejandrodnm/walkforward/internal/domain"
	"github.com/alejandrodnm/walkforward/internal/ports"
	"github.com/alejandrodnm/walkforward/internal/strategy"
	"github.com/alejandrodnm/walkforward/internal/telemetry"
	"github.com/google/uuid"
)

// Job es un backtest de la matriz.
type Job struct {
	Strategy     string
	Pair         string
	HorizonHours float64
}

func (j Job) String() string {
	return fmt.Sprintf("%s/%s/%gh", j.Strategy, j.Pair, j.HorizonHours)
}

// Config contiene la configuración del runner.
type Config struct {
	Workers      int  // goroutines para backtests (0 = NumCPU)
	HistoryLimit int  // registros por par a pedir al provider (0 = todos)
	DryRun       bool // no persiste resultados
}

// DefaultConfig devuelve la configuración por defecto.
func DefaultConfig() Config {
	return Config{HistoryLimit: 5000}
}

// Runner es el orquestador de backtests.
type Runner struct {
	cfg      Config
	prices   ports.PriceProvider
	registry strategy.Registry
	sink     ports.ResultSink
	reporter ports.Reporter
	metrics  *telemetry.Collector
	now      func() time.Time
}

// New crea un Runner con todas las dependencias inyectadas. sink, reporter y
// metrics pueden ser nil.
func New(
	cfg Config,
	prices ports.PriceProvider,
	registry strategy.Registry,
	sink ports.ResultSink,
	reporter ports.Reporter,
	metrics *telemetry.Collector,
) *Runner {
	return &Runner{
		cfg:      cfg,
		prices:   prices,
		registry: registry,
		sink:     sink,
		reporter: reporter,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Jobs arma el producto cartesiano estrategias × pares × horizontes.
func Jobs(strategies, pairs []string, horizons []float64) []Job {
	jobs := make([]Job, 0, len(strategies)*len(pairs)*len(horizons))
	for _, s := range strategies {
		for _, p := range pairs {
			for _, h := range horizons {
				jobs = append(jobs, Job{Strategy: s, Pair: p, HorizonHours: h})
			}
		}
	}
	return jobs
}

// RunMatrix corre todos los jobs y devuelve los resultados ordenados por
// estrategia, par y horizonte.
//
// Un nombre de estrategia desconocido aborta antes de cargar precios. Un job
// que falla no frena al resto: se loguea y su error vuelve unido en el error
// final junto a los resultados que sí terminaron.
func (r *Runner) RunMatrix(ctx context.Context, jobs []Job) ([]domain.BacktestResult, error) {
	start := time.Now()

	strategies := make(map[string]strategy.Strategy)
	var pairs []string
	seenPair := make(map[string]bool)
	for _, job := range jobs {
		if _, ok := strategies[job.Strategy]; !ok {
			s, err := r.registry.Resolve(job.Strategy)
			if err != nil {
				return nil, fmt.Errorf("runner.RunMatrix: %w", err)
			}
			strategies[job.Strategy] = s
		}
		if !seenPair[job.Pair] {
			seenPair[job.Pair] = true
			pairs = append(pairs, job.Pair)
		}
	}

	book, err := LoadPriceBook(ctx, r.prices, pairs, r.cfg.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("runner.RunMatrix: %w", err)
	}

	slog.Info("backtest matrix starting",
		"jobs", len(jobs),
		"pairs", len(pairs),
		"strategies", len(strategies),
		"workers", r.cfg.Workers,
	)

	outcomes := runJobsConcurrent(ctx, book, strategies, jobs, r.cfg.Workers)

	var errs []error
	results := make([]domain.BacktestResult, 0, len(outcomes))
	for _, o := range outcomes {
		if o.err != nil {
			slog.Warn("backtest failed", "job", o.job.String(), "err", o.err)
			errs = append(errs, fmt.Errorf("%s: %w", o.job, o.err))
			if r.metrics != nil {
				r.metrics.ObserveError(o.job.Strategy, o.job.Pair)
			}
			continue
		}
		if r.metrics != nil {
			r.metrics.Observe(o.result, o.elapsed)
		}
		results = append(results, o.result)
	}

	sortResults(results)
	r.record(ctx, results)

	if r.reporter != nil {
		if err := r.reporter.Report(ctx, results); err != nil {
			slog.Warn("reporter error", "err", err)
		}
	}

	slog.Info("backtest matrix complete",
		"results", len(results),
		"failed", len(errs),
		"duration", time.Since(start).Round(time.Millisecond),
	)

	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	return results, errors.Join(errs...)
}

// record persiste cada resultado con un ID nuevo. Los errores de storage se
// loguean y no cortan la corrida.
func (r *Runner) record(ctx context.Context, results []domain.BacktestResult) {
	if r.sink == nil || r.cfg.DryRun {
		return
	}
	for _, res := range results {
		summary := domain.NewBacktestSummary(uuid.New().String(), res, r.now().UTC())
		if err := r.sink.SaveBacktest(ctx, summary, res.Trades); err != nil {
			slog.Warn("storage error",
				"strategy", res.Strategy,
				"pair", res.Pair,
				"err", err,
			)
		}
	}
}

func sortResults(results []domain.BacktestResult) {
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Strategy != b.Strategy {
			return a.Strategy < b.Strategy
		}
		if a.Pair != b.Pair {
			return a.Pair < b.Pair
		}
		return a.HorizonHours < b.HorizonHours
	})
}
