package backtest

// metrics.go: agregación sobre la lista completa de trades. Es una función
// pura de la lista: misma lista, mismas métricas.

import (
	"math"

	"github.com/alejandrodnm/walkforward/internal/domain"
)

const (
	// minSharpeTrades es el mínimo de trades para calcular la serie de retornos.
	minSharpeTrades = 5
	// profitFactorCap reemplaza a +Inf cuando no hay pérdidas.
	profitFactorCap = 99.9
)

// annualization es el factor de días hábiles. Se aplica igual sea cual sea la
// cadencia real de evaluación, así que el Sharpe sirve para comparar
// estrategias entre sí, no como valor absoluto.
var annualization = math.Sqrt(252)

// calibrationBins son los rangos fijos de confianza. El último incluye 1.0.
var calibrationBins = []struct {
	label    string
	min, max float64
}{
	{"0-40%", 0, 0.4},
	{"40-60%", 0.4, 0.6},
	{"60-80%", 0.6, 0.8},
	{"80-100%", 0.8, 1.0},
}

// Metrics es el resultado del agregador.
type Metrics struct {
	TotalTrades   int
	CorrectTrades int
	Accuracy      *float64
	Sharpe        *float64
	MaxDrawdown   float64
	ProfitFactor  float64
	MaxWinStreak  int
	MaxLossStreak int
	Calibration   []domain.CalibrationBin
	Trades        []domain.Trade
}

// Aggregate calcula todas las métricas sobre trades en orden cronológico.
func Aggregate(trades []domain.Trade) Metrics {
	correct := 0
	for _, t := range trades {
		if t.Correct {
			correct++
		}
	}

	win, loss := streaks(trades)
	return Metrics{
		TotalTrades:   len(trades),
		CorrectTrades: correct,
		Accuracy:      accuracy(correct, len(trades)),
		Sharpe:        sharpe(directionalReturns(trades)),
		MaxDrawdown:   maxDrawdown(trades),
		ProfitFactor:  profitFactor(trades),
		MaxWinStreak:  win,
		MaxLossStreak: loss,
		Calibration:   calibrate(trades),
		Trades:        append(make([]domain.Trade, 0, len(trades)), trades...),
	}
}

func accuracy(correct, total int) *float64 {
	if total == 0 {
		return nil
	}
	v := round(float64(correct)/float64(total)*100, 1)
	return &v
}

// directionalReturns devuelve el retorno de cada predicción (no del activo):
// un "down" gana cuando el precio baja. nil con menos de minSharpeTrades.
func directionalReturns(trades []domain.Trade) []float64 {
	if len(trades) < minSharpeTrades {
		return nil
	}
	returns := make([]float64, len(trades))
	for i, t := range trades {
		r := t.PctChange / 100
		if t.Direction == domain.DirectionDown {
			r = -r
		}
		returns[i] = r
	}
	return returns
}

// sharpe = mean/stdDev × sqrt(252), desviación poblacional.
func sharpe(returns []float64) *float64 {
	if len(returns) < minSharpeTrades {
		return nil
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var sq float64
	for _, r := range returns {
		sq += (r - mean) * (r - mean)
	}
	std := math.Sqrt(sq / float64(len(returns)))
	if std == 0 {
		return nil
	}

	v := round(mean/std*annualization, 2)
	return &v
}

// maxDrawdown recorre el retorno acumulado (+|pct| si acierta, -|pct| si no)
// y devuelve la mayor caída desde un pico, en porcentaje positivo.
func maxDrawdown(trades []domain.Trade) float64 {
	if len(trades) < 2 {
		return 0
	}

	var cum, peak, maxDD float64
	for _, t := range trades {
		move := math.Abs(t.PctChange) / 100
		if !t.Correct {
			move = -move
		}
		cum += move
		if cum > peak {
			peak = cum
		}
		if dd := peak - cum; dd > maxDD {
			maxDD = dd
		}
	}
	return round(maxDD*100, 2)
}

// profitFactor = suma |pct| de aciertos / suma |pct| de fallos.
func profitFactor(trades []domain.Trade) float64 {
	var gross, loss float64
	for _, t := range trades {
		if t.Correct {
			gross += math.Abs(t.PctChange)
		} else {
			loss += math.Abs(t.PctChange)
		}
	}

	switch {
	case loss == 0 && gross > 0:
		return profitFactorCap
	case loss == 0:
		return 0
	}
	return round(gross/loss, 2)
}

// streaks devuelve la racha más larga de aciertos y de fallos.
func streaks(trades []domain.Trade) (maxWin, maxLoss int) {
	var win, loss int
	for _, t := range trades {
		if t.Correct {
			win++
			loss = 0
		} else {
			loss++
			win = 0
		}
		maxWin = max(maxWin, win)
		maxLoss = max(maxLoss, loss)
	}
	return maxWin, maxLoss
}

// calibrate reparte los trades en los bins de confianza. Cada trade cae en el
// primer bin que contiene su confianza; el último bin recoge el resto.
func calibrate(trades []domain.Trade) []domain.CalibrationBin {
	bins := make([]domain.CalibrationBin, len(calibrationBins))
	for i, b := range calibrationBins {
		bins[i] = domain.CalibrationBin{Label: b.label, Min: b.min, Max: b.max}
	}

	last := len(bins) - 1
	for _, t := range trades {
		k := last
		for i := 0; i < last; i++ {
			if t.Confidence >= bins[i].Min && t.Confidence < bins[i].Max {
				k = i
				break
			}
		}
		bins[k].Total++
		if t.Correct {
			bins[k].Correct++
		}
	}

	for i := range bins {
		bins[i].Accuracy = accuracy(bins[i].Correct, bins[i].Total)
	}
	return bins
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
