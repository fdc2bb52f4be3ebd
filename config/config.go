package config

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Fuentes de precios soportadas.
const (
	SourceSQLite  = "sqlite"
	SourceParquet = "parquet"
	SourceFeed    = "feed"
)

// Config es la configuración completa del backtester.
type Config struct {
	Backtest  BacktestConfig  `yaml:"backtest"`
	PriceFeed PriceFeedConfig `yaml:"pricefeed"`
	Storage   StorageConfig   `yaml:"storage"`
	Parquet   ParquetConfig   `yaml:"parquet"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Log       LogConfig       `yaml:"log"`
}

// BacktestConfig define la matriz de backtests a correr.
type BacktestConfig struct {
	Strategies    []string  `yaml:"strategies"`     // vacío = todas las registradas
	Pairs         []string  `yaml:"pairs"`          // vacío = todos los del provider
	HorizonsHours []float64 `yaml:"horizons_hours"`
	HistoryLimit  int       `yaml:"history_limit"` // registros por par (0 = todos)
	Workers       int       `yaml:"workers"`       // 0 = NumCPU
	Source        string    `yaml:"source"`        // sqlite | parquet | feed
}

// PriceFeedConfig configura el cliente HTTP del feed de precios.
type PriceFeedConfig struct {
	BaseURL        string  `yaml:"base_url"`
	RatePerSec     float64 `yaml:"rate_per_sec"`
	Burst          int     `yaml:"burst"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// ParquetConfig controla dónde vive el archivo de snapshots Parquet.
type ParquetConfig struct {
	DataDir string `yaml:"data_dir"`
}

// MetricsConfig controla el endpoint Prometheus. Vacío = deshabilitado.
type MetricsConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// Validate revisa los valores que no tienen un default razonable.
func (c *Config) Validate() error {
	switch c.Backtest.Source {
	case SourceSQLite, SourceParquet, SourceFeed:
	default:
		return fmt.Errorf("backtest.source %q: want sqlite, parquet or feed", c.Backtest.Source)
	}
	for _, h := range c.Backtest.HorizonsHours {
		if math.IsNaN(h) || math.IsInf(h, 0) || h <= 0 {
			return fmt.Errorf("backtest.horizons_hours: %v is not a positive finite number", h)
		}
	}
	if c.Backtest.HistoryLimit < 0 {
		return fmt.Errorf("backtest.history_limit: %d is negative", c.Backtest.HistoryLimit)
	}
	return nil
}

// FeedTimeout devuelve el timeout HTTP del feed como time.Duration.
func (c *Config) FeedTimeout() time.Duration {
	return time.Duration(c.PriceFeed.TimeoutSeconds) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("PRICEFEED_BASE"); v != "" {
		cfg.PriceFeed.BaseURL = v
	}
	if v := os.Getenv("BACKTEST_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if len(cfg.Backtest.HorizonsHours) == 0 {
		cfg.Backtest.HorizonsHours = []float64{1}
	}
	if cfg.Backtest.Source == "" {
		cfg.Backtest.Source = SourceSQLite
	}
	if cfg.PriceFeed.BaseURL == "" {
		cfg.PriceFeed.BaseURL = "https://oracle-prices.example.com"
	}
	if cfg.PriceFeed.RatePerSec <= 0 {
		cfg.PriceFeed.RatePerSec = 30
	}
	if cfg.PriceFeed.Burst <= 0 {
		cfg.PriceFeed.Burst = 5
	}
	if cfg.PriceFeed.TimeoutSeconds <= 0 {
		cfg.PriceFeed.TimeoutSeconds = 10
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "walkforward.db"
	}
	if cfg.Parquet.DataDir == "" {
		cfg.Parquet.DataDir = "data"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
