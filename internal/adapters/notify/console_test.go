package notify_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/walkforward/internal/adapters/notify"
	"github.com/alejandrodnm/walkforward/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func makeResult(strategy, pair string, trades int) domain.BacktestResult {
	r := domain.BacktestResult{
		Strategy:      strategy,
		Pair:          pair,
		HorizonHours:  1,
		StepMs:        int64(15 * time.Minute / time.Millisecond),
		SeriesStart:   1_700_000_000_000,
		SeriesEnd:     1_700_172_800_000,
		TotalTrades:   trades,
		CorrectTrades: trades / 2,
		Accuracy:      ptr(50),
		Sharpe:        ptr(1.23),
		MaxDrawdown:   2.5,
		ProfitFactor:  1.75,
		ConfidenceCalibration: []domain.CalibrationBin{
			{Label: "0-40%", Min: 0, Max: 0.4},
			{Label: "40-60%", Min: 0.4, Max: 0.6, Total: trades, Correct: trades / 2, Accuracy: ptr(50)},
			{Label: "60-80%", Min: 0.6, Max: 0.8},
			{Label: "80-100%", Min: 0.8, Max: 1},
		},
		Diagnostics: domain.Diagnostics{Evaluated: 40, Signaled: trades + 1, NullStrategy: 39 - trades, NoFutureData: 1},
	}
	for i := 0; i < trades; i++ {
		r.Trades = append(r.Trades, domain.Trade{
			Time:        r.SeriesStart + int64(i)*r.StepMs,
			Direction:   domain.DirectionUp,
			Threshold:   100,
			Confidence:  0.5,
			EntryPrice:  100,
			FuturePrice: 101,
			PctChange:   1,
			Correct:     i%2 == 0,
			Strategy:    strategy,
		})
	}
	return r
}

func TestConsole_Report_Table(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, true)

	err := c.Report(context.Background(), []domain.BacktestResult{makeResult("momentum", "BTC/USD", 8)})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "momentum")
	assert.Contains(t, out, "BTC/USD")
	assert.Contains(t, out, "4/8")
	assert.Contains(t, out, "50.0%")
	assert.Contains(t, out, "1.23")
	assert.Contains(t, out, "40-60%")
	assert.Contains(t, out, "... 3 more")
}

func TestConsole_Report_Compact(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, false)

	err := c.Report(context.Background(), []domain.BacktestResult{
		makeResult("momentum", "BTC/USD", 6),
		{Strategy: "mean_reversion", Pair: "ETH/USD", HorizonHours: 4,
			Diagnostics: domain.Diagnostics{Reason: domain.ReasonInsufficientData}},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "trades:6 acc:50.0% sharpe:1.23")
	assert.Contains(t, out, "eval:40 sig:7")
	assert.Contains(t, out, "mean_reversion ETH/USD 4h | skipped: "+domain.ReasonInsufficientData)
}

func TestConsole_Report_Empty(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, true)

	require.NoError(t, c.Report(context.Background(), nil))
	assert.Contains(t, buf.String(), "no backtest results")
}

func TestConsole_Report_NilMetricsShowDash(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, false)

	r := makeResult("momentum", "BTC/USD", 3)
	r.Sharpe = nil
	r.ProfitFactor = 99.9
	require.NoError(t, c.Report(context.Background(), []domain.BacktestResult{r}))

	assert.Contains(t, buf.String(), "sharpe:-")
	assert.Contains(t, buf.String(), "pf:INF")
}

func TestConsole_PrintHistory(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, true)

	c.PrintHistory([]domain.BacktestSummary{{
		ID:           "0123456789abcdef",
		Strategy:     "relative_strength",
		PairFilter:   "SOL/USD",
		HorizonHours: 2,
		TotalTrades:  10,
		Accuracy:     ptr(70),
		CreatedAt:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}})

	out := buf.String()
	assert.Contains(t, out, "01234567")
	assert.Contains(t, out, "relative_strength")
	assert.Contains(t, out, "2024-03-01 12:00")
	assert.Contains(t, out, "70.0%")
}
