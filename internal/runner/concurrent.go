package runner

// concurrent.go: worker pool para correr la matriz de backtests en paralelo.
// Los backtests son CPU-bound e independientes entre sí; comparten solo el
// PriceBook, que es de solo lectura.

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/alejandrodnm/walkforward/internal/backtest"
	"github.com/alejandrodnm/walkforward/internal/domain"
	"github.com/alejandrodnm/walkforward/internal/strategy"
)

// outcome es el resultado de un job: un result o un error, nunca ambos.
type outcome struct {
	job     Job
	result  domain.BacktestResult
	elapsed time.Duration
	err     error
}

// runJobsConcurrent ejecuta los jobs con un pool de workers. Si el contexto se
// cancela deja de encolar; los jobs ya tomados terminan.
//
// Si workers <= 0 usa runtime.NumCPU().
func runJobsConcurrent(
	ctx context.Context,
	book *PriceBook,
	strategies map[string]strategy.Strategy,
	jobs []Job,
	workers int,
) []outcome {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, max(len(jobs), 1))

	workCh := make(chan Job, len(jobs))
	resultCh := make(chan outcome, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range workCh {
				resultCh <- runJob(book, strategies[job.Strategy], job)
			}
		}()
	}

	queued := 0
feed:
	for _, job := range jobs {
		// workCh tiene buffer para todos los jobs: sin este chequeo el select
		// podría elegir el envío aun con el contexto cancelado.
		if ctx.Err() != nil {
			slog.Warn("backtest matrix cancelled", "queued", queued, "total", len(jobs))
			break feed
		}
		select {
		case <-ctx.Done():
			slog.Warn("backtest matrix cancelled", "queued", queued, "total", len(jobs))
			break feed
		case workCh <- job:
			queued++
		}
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	out := make([]outcome, 0, queued)
	for o := range resultCh {
		out = append(out, o)
	}

	slog.Debug("concurrent backtests complete",
		"jobs_queued", queued,
		"workers", workers,
	)
	return out
}

func runJob(book *PriceBook, s strategy.Strategy, job Job) outcome {
	start := time.Now()
	o := outcome{job: job}

	index, err := book.Index(job.Pair)
	if err != nil {
		o.err = err
		return o
	}

	o.result, o.err = backtest.RunIndexed(s, job.Pair, job.HorizonHours, index, book.Siblings(job.Pair))
	o.elapsed = time.Since(start)
	return o
}
