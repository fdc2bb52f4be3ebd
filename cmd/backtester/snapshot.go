package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/walkforward/config"
	"github.com/alejandrodnm/walkforward/internal/adapters/archive"
	"github.com/alejandrodnm/walkforward/internal/adapters/notify"
	"github.com/alejandrodnm/walkforward/internal/adapters/storage"
	"github.com/alejandrodnm/walkforward/internal/ports"
	"github.com/alejandrodnm/walkforward/internal/runner"
)

// runSnapshot copia el feed al archivo indicado por backtest.source
// (parquet, o sqlite por defecto).
func runSnapshot(ctx context.Context, cfg *config.Config, store *storage.SQLiteStorage) error {
	var dst ports.PriceArchive = store
	if cfg.Backtest.Source == config.SourceParquet {
		dst = archive.NewPriceStore(cfg.Parquet.DataDir)
	}

	slog.Info("=== SNAPSHOT MODE: feed → archive ===", "dest", cfg.Backtest.Source)

	n, err := runner.Snapshot(ctx, newFeedClient(cfg), dst, cfg.Backtest.Pairs, cfg.Backtest.HistoryLimit)
	if err != nil {
		return err
	}
	slog.Info("snapshot complete", "records", n)
	return nil
}

// runList imprime los backtests guardados, opcionalmente filtrados por
// estrategia.
func runList(ctx context.Context, store ports.ResultStore, console *notify.Console, strategies []string) error {
	filters := strategies
	if len(filters) == 0 {
		filters = []string{""}
	}

	for _, s := range filters {
		summaries, err := store.ListBacktests(ctx, s)
		if err != nil {
			return fmt.Errorf("list backtests %q: %w", s, err)
		}
		console.PrintHistory(summaries)
	}
	return nil
}
