package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/walkforward/config"
	"github.com/alejandrodnm/walkforward/internal/adapters/notify"
	"github.com/alejandrodnm/walkforward/internal/adapters/storage"
	"github.com/alejandrodnm/walkforward/internal/runner"
	"github.com/alejandrodnm/walkforward/internal/strategy"
	"github.com/alejandrodnm/walkforward/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	strategies := flag.String("strategy", "", "comma-separated strategies (overrides config; default: all)")
	pairs := flag.String("pair", "", "comma-separated pairs (overrides config; default: all from source)")
	horizons := flag.String("horizon", "", "comma-separated horizons in hours (overrides config)")
	source := flag.String("source", "", "price source: sqlite|parquet|feed (overrides config)")
	workers := flag.Int("workers", -1, "backtest goroutines (overrides config; 0 = NumCPU)")
	snapshot := flag.Bool("snapshot", false, "copy price history from the feed into the sqlite/parquet archive and exit")
	list := flag.Bool("list", false, "list saved backtests (filtered by -strategy) and exit")
	dryRun := flag.Bool("dry-run", false, "run backtests without saving results")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full tables + calibration (default: compact 1-line)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if err := applyFlags(cfg, *strategies, *pairs, *horizons, *source, *workers); err != nil {
		slog.Error("invalid flags", "err", err)
		os.Exit(2)
	}
	setupLogger(cfg.Log)

	slog.Info("backtester starting",
		"config", *configPath,
		"source", cfg.Backtest.Source,
		"dry_run", *dryRun,
		"snapshot", *snapshot,
		"list", *list,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	console := notify.NewConsole(*table, 10)

	switch {
	case *list:
		if err := runList(ctx, store, console, cfg.Backtest.Strategies); err != nil {
			slog.Error("list failed", "err", err)
			os.Exit(1)
		}
		return
	case *snapshot:
		if err := runSnapshot(ctx, cfg, store); err != nil {
			slog.Error("snapshot failed", "err", err)
			os.Exit(1)
		}
		return
	}

	metrics := telemetry.NewCollector()
	stopMetrics := serveMetrics(cfg.Metrics, metrics)
	defer stopMetrics()

	prices := priceSource(cfg, store)
	registry := strategy.Default()

	jobs, err := buildJobs(ctx, cfg, registry, prices)
	if err != nil {
		slog.Error("failed to build backtest matrix", "err", err)
		os.Exit(1)
	}

	runCfg := runner.DefaultConfig()
	runCfg.Workers = cfg.Backtest.Workers
	runCfg.HistoryLimit = cfg.Backtest.HistoryLimit
	runCfg.DryRun = *dryRun

	r := runner.New(runCfg, prices, registry, store, console, metrics)
	if _, err := r.RunMatrix(ctx, jobs); err != nil {
		slog.Error("backtests finished with errors", "err", err)
		stopMetrics()
		os.Exit(1)
	}

	slog.Info("backtester stopped cleanly")
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
