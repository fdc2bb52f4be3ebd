package backtest

import (
	"testing"

	"github.com/alejandrodnm/walkforward/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trade(dir domain.Direction, pct float64, correct bool, conf float64) domain.Trade {
	return domain.Trade{
		Direction:  dir,
		PctChange:  pct,
		Correct:    correct,
		Confidence: conf,
		EntryPrice: 100,
	}
}

func TestAggregate_Empty(t *testing.T) {
	m := Aggregate(nil)

	assert.Equal(t, 0, m.TotalTrades)
	assert.Nil(t, m.Accuracy)
	assert.Nil(t, m.Sharpe)
	assert.Equal(t, 0.0, m.MaxDrawdown)
	assert.Equal(t, 0.0, m.ProfitFactor)
	assert.NotNil(t, m.Trades)
	require.Len(t, m.Calibration, 4)
	for _, b := range m.Calibration {
		assert.Equal(t, 0, b.Total)
		assert.Nil(t, b.Accuracy)
	}
}

func TestAggregate_ProfitFactorAndStreaks(t *testing.T) {
	trades := []domain.Trade{
		trade(domain.DirectionUp, 2, true, 0.5),
		trade(domain.DirectionUp, 3, true, 0.5),
		trade(domain.DirectionUp, -1, false, 0.5),
	}

	m := Aggregate(trades)
	assert.Equal(t, 5.0, m.ProfitFactor)
	assert.Equal(t, 2, m.MaxWinStreak)
	assert.Equal(t, 1, m.MaxLossStreak)
	assert.Equal(t, 3, m.TotalTrades)
	assert.Equal(t, 2, m.CorrectTrades)
	require.NotNil(t, m.Accuracy)
	assert.Equal(t, 66.7, *m.Accuracy)
	assert.Nil(t, m.Sharpe, "menos de 5 trades")
	// acumulado: 2% → 5% → 4%
	assert.Equal(t, 1.0, m.MaxDrawdown)
}

func TestProfitFactor_Sentinels(t *testing.T) {
	allWins := []domain.Trade{trade(domain.DirectionUp, 1, true, 0.5)}
	assert.Equal(t, 99.9, profitFactor(allWins))

	flat := []domain.Trade{trade(domain.DirectionUp, 0, true, 0.5), trade(domain.DirectionUp, 0, false, 0.5)}
	assert.Equal(t, 0.0, profitFactor(flat))
}

func TestStreaks(t *testing.T) {
	outcomes := []bool{true, false, false, true, true, true, false, false, false, false, true}
	trades := make([]domain.Trade, len(outcomes))
	for i, ok := range outcomes {
		trades[i] = trade(domain.DirectionUp, 1, ok, 0.5)
	}

	win, loss := streaks(trades)
	assert.Equal(t, 3, win)
	assert.Equal(t, 4, loss)
}

func TestSharpe_Known(t *testing.T) {
	var trades []domain.Trade
	for _, pct := range []float64{1, 2, 3, 4, 5} {
		trades = append(trades, trade(domain.DirectionUp, pct, true, 0.5))
	}

	s := sharpe(directionalReturns(trades))
	require.NotNil(t, s)
	assert.Equal(t, 33.67, *s)
}

func TestSharpe_DownIsSignFlipped(t *testing.T) {
	var trades []domain.Trade
	for _, pct := range []float64{-1, -2, -3, -4, -5} {
		trades = append(trades, trade(domain.DirectionDown, pct, true, 0.5))
	}

	s := sharpe(directionalReturns(trades))
	require.NotNil(t, s)
	assert.Equal(t, 33.67, *s)
}

func TestSharpe_NilCases(t *testing.T) {
	var four []domain.Trade
	for i := 0; i < 4; i++ {
		four = append(four, trade(domain.DirectionUp, float64(i), true, 0.5))
	}
	assert.Nil(t, directionalReturns(four))
	assert.Nil(t, sharpe(directionalReturns(four)))

	var constant []domain.Trade
	for i := 0; i < 6; i++ {
		constant = append(constant, trade(domain.DirectionUp, 1, true, 0.5))
	}
	assert.Nil(t, sharpe(directionalReturns(constant)), "desviación cero")
}

func TestMaxDrawdown(t *testing.T) {
	assert.Equal(t, 0.0, maxDrawdown([]domain.Trade{trade(domain.DirectionUp, 5, false, 0.5)}), "requiere 2 trades")

	// -1 -2 +4 -3: acumulado -1, -3, +1, -2 → pico 1, valle -2 → 3%
	trades := []domain.Trade{
		trade(domain.DirectionUp, 1, false, 0.5),
		trade(domain.DirectionUp, -2, false, 0.5),
		trade(domain.DirectionUp, 4, true, 0.5),
		trade(domain.DirectionDown, 3, false, 0.5),
	}
	assert.Equal(t, 3.0, maxDrawdown(trades))
}

func TestCalibrate_BinEdges(t *testing.T) {
	trades := []domain.Trade{
		trade(domain.DirectionUp, 1, true, 0),
		trade(domain.DirectionUp, 1, false, 0.3999),
		trade(domain.DirectionUp, 1, true, 0.4),
		trade(domain.DirectionUp, 1, true, 0.6),
		trade(domain.DirectionUp, 1, false, 0.79),
		trade(domain.DirectionUp, 1, true, 0.8),
		trade(domain.DirectionUp, 1, true, 1.0),
	}

	bins := calibrate(trades)
	require.Len(t, bins, 4)
	assert.Equal(t, []int{2, 1, 2, 2}, []int{bins[0].Total, bins[1].Total, bins[2].Total, bins[3].Total})

	require.NotNil(t, bins[0].Accuracy)
	assert.Equal(t, 50.0, *bins[0].Accuracy)
	assert.Equal(t, 100.0, *bins[1].Accuracy)
	assert.Equal(t, 50.0, *bins[2].Accuracy)
	assert.Equal(t, 100.0, *bins[3].Accuracy)

	sum := 0
	for _, b := range bins {
		sum += b.Total
	}
	assert.Equal(t, len(trades), sum)
}

func TestAggregate_Idempotent(t *testing.T) {
	trades := []domain.Trade{
		trade(domain.DirectionUp, 2, true, 0.9),
		trade(domain.DirectionDown, 1, false, 0.2),
		trade(domain.DirectionDown, -3, true, 0.55),
		trade(domain.DirectionUp, -0.5, false, 0.65),
		trade(domain.DirectionUp, 1.5, true, 0.45),
		trade(domain.DirectionDown, -0.2, true, 0.85),
	}

	assert.Equal(t, Aggregate(trades), Aggregate(trades))
}
