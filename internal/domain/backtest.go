package domain

import "time"

// Trade es el resultado resuelto de una señal: precio de entrada, precio al
// horizonte y si la predicción se cumplió.
type Trade struct {
	Time        int64  // instante de emisión, epoch ms
	Timestamp   string // timestamp original del punto de emisión
	FutureTime  int64  // instante del punto usado para puntuar
	EntryPrice  float64
	FuturePrice float64
	Direction   Direction
	Threshold   float64
	Confidence  float64
	Correct     bool
	PctChange   float64 // (future - entry) / entry × 100
	Strategy    string
}

// Diagnostics cuenta qué pasó en cada paso del walk-forward.
type Diagnostics struct {
	Evaluated    int // veces que se invocó la estrategia
	Signaled     int // señales no nulas
	NullStrategy int // la estrategia no tuvo opinión
	NoFutureData int // señales descartadas: no hay precio dentro de tolerancia al horizonte

	SkippedSparse       int // sin punto dentro de 2×step del reloj virtual
	SkippedThinLookback int // menos de 5 puntos de historia
	SkippedDuplicate    int // el punto más cercano ya fue evaluado

	// Reason explica un resultado sin trades por datos insuficientes.
	// Vacío cuando el backtest corrió.
	Reason string
}

// Motivos de un backtest que no se puede ejecutar.
const (
	ReasonInsufficientData  = "insufficient data"
	ReasonInvalidTimestamps = "invalid timestamps"
	ReasonSpanTooShort      = "time span too short"
)

// CalibrationBin agrupa trades por rango de confianza declarada.
type CalibrationBin struct {
	Label    string
	Min      float64
	Max      float64 // exclusivo, salvo el último bin
	Total    int
	Correct  int
	Accuracy *float64 // nil si Total == 0
}

// BacktestResult es el agregado de un backtest completo.
type BacktestResult struct {
	Strategy     string
	Pair         string
	HorizonHours float64
	StepMs       int64
	SeriesStart  int64
	SeriesEnd    int64

	TotalTrades           int
	CorrectTrades         int
	Accuracy              *float64 // nil sin trades
	Sharpe                *float64 // nil con < 5 trades o desviación cero
	MaxDrawdown           float64  // porcentaje positivo
	ProfitFactor          float64
	MaxWinStreak          int
	MaxLossStreak         int
	ConfidenceCalibration []CalibrationBin
	Trades                []Trade
	Diagnostics           Diagnostics
}

// Degenerate devuelve true si el backtest no se pudo ejecutar por los datos.
func (r BacktestResult) Degenerate() bool {
	return r.Diagnostics.Reason != ""
}

// BacktestSummary es lo que se persiste de un backtest en el ResultSink.
type BacktestSummary struct {
	ID            string
	Strategy      string
	PairFilter    string
	HorizonHours  float64
	TotalTrades   int
	CorrectTrades int
	Accuracy      *float64
	Sharpe        *float64
	MaxDrawdown   float64
	ProfitFactor  float64
	MaxWinStreak  int
	MaxLossStreak int
	Calibration   []CalibrationBin
	Diagnostics   Diagnostics
	CreatedAt     time.Time
}

// NewBacktestSummary construye el resumen persistible de un resultado.
func NewBacktestSummary(id string, r BacktestResult, createdAt time.Time) BacktestSummary {
	return BacktestSummary{
		ID:            id,
		Strategy:      r.Strategy,
		PairFilter:    r.Pair,
		HorizonHours:  r.HorizonHours,
		TotalTrades:   r.TotalTrades,
		CorrectTrades: r.CorrectTrades,
		Accuracy:      r.Accuracy,
		Sharpe:        r.Sharpe,
		MaxDrawdown:   r.MaxDrawdown,
		ProfitFactor:  r.ProfitFactor,
		MaxWinStreak:  r.MaxWinStreak,
		MaxLossStreak: r.MaxLossStreak,
		Calibration:   r.ConfidenceCalibration,
		Diagnostics:   r.Diagnostics,
		CreatedAt:     createdAt,
	}
}
