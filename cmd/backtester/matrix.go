package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/alejandrodnm/walkforward/config"
	"github.com/alejandrodnm/walkforward/internal/adapters/archive"
	"github.com/alejandrodnm/walkforward/internal/adapters/pricefeed"
	"github.com/alejandrodnm/walkforward/internal/adapters/storage"
	"github.com/alejandrodnm/walkforward/internal/ports"
	"github.com/alejandrodnm/walkforward/internal/runner"
	"github.com/alejandrodnm/walkforward/internal/strategy"
)

// applyFlags pisa la sección backtest del config con los flags no vacíos.
func applyFlags(cfg *config.Config, strategies, pairs, horizons, source string, workers int) error {
	if strategies != "" {
		cfg.Backtest.Strategies = splitList(strategies)
	}
	if pairs != "" {
		cfg.Backtest.Pairs = splitList(pairs)
	}
	if horizons != "" {
		hs, err := parseHorizons(horizons)
		if err != nil {
			return err
		}
		cfg.Backtest.HorizonsHours = hs
	}
	if source != "" {
		cfg.Backtest.Source = source
	}
	if workers >= 0 {
		cfg.Backtest.Workers = workers
	}
	return cfg.Validate()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseHorizons(s string) ([]float64, error) {
	var out []float64
	for _, part := range splitList(s) {
		h, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("horizon %q: %w", part, err)
		}
		out = append(out, h)
	}
	return out, nil
}

// newFeedClient crea el cliente HTTP del feed a partir del config.
func newFeedClient(cfg *config.Config) *pricefeed.Client {
	return pricefeed.NewClient(pricefeed.Config{
		BaseURL:    cfg.PriceFeed.BaseURL,
		RatePerSec: cfg.PriceFeed.RatePerSec,
		Burst:      cfg.PriceFeed.Burst,
		Timeout:    cfg.FeedTimeout(),
	})
}

// priceSource elige el provider de historial según backtest.source.
func priceSource(cfg *config.Config, store *storage.SQLiteStorage) ports.PriceProvider {
	switch cfg.Backtest.Source {
	case config.SourceParquet:
		return archive.NewPriceStore(cfg.Parquet.DataDir)
	case config.SourceFeed:
		return newFeedClient(cfg)
	default:
		return store
	}
}

// buildJobs completa estrategias y pares vacíos y arma la matriz.
func buildJobs(ctx context.Context, cfg *config.Config, registry strategy.Registry, prices ports.PriceProvider) ([]runner.Job, error) {
	strategies := cfg.Backtest.Strategies
	if len(strategies) == 0 {
		strategies = registry.List()
	}

	pairs := cfg.Backtest.Pairs
	if len(pairs) == 0 {
		listed, err := prices.ListPairs(ctx)
		if err != nil {
			return nil, fmt.Errorf("list pairs: %w", err)
		}
		pairs = listed
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("no pairs available from source %q", cfg.Backtest.Source)
	}

	return runner.Jobs(strategies, pairs, cfg.Backtest.HorizonsHours), nil
}
