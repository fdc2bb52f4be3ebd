package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alejandrodnm/walkforward/internal/domain"
	"github.com/alejandrodnm/walkforward/internal/ports"
	"github.com/olekukonko/tablewriter"
)

var _ ports.Reporter = (*Console)(nil)

// Console implementa ports.Reporter.
type Console struct {
	out    io.Writer
	table  bool
	trades int // trades a listar por resultado en modo tabla
}

// NewConsole crea un reporter que escribe a stdout.
func NewConsole(table bool, trades int) *Console {
	return &Console{out: os.Stdout, table: table, trades: trades}
}

// NewConsoleWriter crea un reporter para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table, trades: 5}
}

// Report imprime los resultados en el modo configurado.
func (c *Console) Report(_ context.Context, results []domain.BacktestResult) error {
	if len(results) == 0 {
		fmt.Fprintf(c.out, "[%s] no backtest results\n", time.Now().Format("15:04:05"))
		return nil
	}

	if c.table {
		c.printFull(results)
	} else {
		c.printCompact(results)
	}
	return nil
}

// printCompact imprime una línea por resultado.
func (c *Console) printCompact(results []domain.BacktestResult) {
	now := time.Now().Format("15:04:05")
	for _, r := range results {
		var sb strings.Builder
		fmt.Fprintf(&sb, "[%s] %s %s %gh", now, r.Strategy, r.Pair, r.HorizonHours)

		if r.Degenerate() {
			fmt.Fprintf(&sb, " | skipped: %s", r.Diagnostics.Reason)
			fmt.Fprintln(c.out, sb.String())
			continue
		}

		fmt.Fprintf(&sb, " | trades:%d acc:%s sharpe:%s dd:%.2f%% pf:%s",
			r.TotalTrades, accuracyLabel(r.Accuracy), sharpeLabel(r.Sharpe),
			r.MaxDrawdown, pfLabel(r.ProfitFactor))
		fmt.Fprintf(&sb, " | eval:%d sig:%d null:%d nofut:%d",
			r.Diagnostics.Evaluated, r.Diagnostics.Signaled,
			r.Diagnostics.NullStrategy, r.Diagnostics.NoFutureData)
		fmt.Fprintln(c.out, sb.String())
	}
}

// printFull imprime la tabla resumen, la calibración y los primeros trades.
func (c *Console) printFull(results []domain.BacktestResult) {
	now := time.Now().Format("15:04:05")
	fmt.Fprintf(c.out, "\n[%s] %d backtests\n", now, len(results))

	c.printSummaryTable(results)

	for _, r := range results {
		if r.Degenerate() || r.TotalTrades == 0 {
			continue
		}
		fmt.Fprintf(c.out, "\n--- %s %s %gh (step %s) ---\n",
			r.Strategy, r.Pair, r.HorizonHours, time.Duration(r.StepMs)*time.Millisecond)
		fmt.Fprintf(c.out, "  Series:  %s → %s\n", msLabel(r.SeriesStart), msLabel(r.SeriesEnd))
		fmt.Fprintf(c.out, "  Streaks: win %d / loss %d\n", r.MaxWinStreak, r.MaxLossStreak)
		c.printCalibration(r.ConfidenceCalibration)
		c.printTrades(r.Trades)
	}
	fmt.Fprintln(c.out)
}

// printSummaryTable imprime una fila por backtest con métricas y diagnósticos.
func (c *Console) printSummaryTable(results []domain.BacktestResult) {
	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Strategy", "Pair", "H", "Trades", "Acc", "Sharpe", "MaxDD", "PF", "Eval", "Sig", "Null", "NoFut", "Note")

	for i, r := range results {
		note := ""
		if r.Degenerate() {
			note = r.Diagnostics.Reason
		}
		d := r.Diagnostics
		table.Append(
			fmt.Sprintf("%d", i+1),
			r.Strategy,
			r.Pair,
			fmt.Sprintf("%gh", r.HorizonHours),
			fmt.Sprintf("%d/%d", r.CorrectTrades, r.TotalTrades),
			accuracyLabel(r.Accuracy),
			sharpeLabel(r.Sharpe),
			fmt.Sprintf("%.2f%%", r.MaxDrawdown),
			pfLabel(r.ProfitFactor),
			fmt.Sprintf("%d", d.Evaluated),
			fmt.Sprintf("%d", d.Signaled),
			fmt.Sprintf("%d", d.NullStrategy),
			fmt.Sprintf("%d", d.NoFutureData),
			note,
		)
	}
	table.Render()

	fmt.Fprintln(c.out, "  Acc = aciertos/trades | Sharpe = retornos direccionales × sqrt(252)")
	fmt.Fprintln(c.out, "  MaxDD = mayor caída del retorno acumulado | PF = ganancias/pérdidas (99.9 = sin pérdidas)")
}

// printCalibration imprime accuracy por bin de confianza.
func (c *Console) printCalibration(bins []domain.CalibrationBin) {
	table := tablewriter.NewWriter(c.out)
	table.Header("Confidence", "Trades", "Correct", "Acc")
	for _, b := range bins {
		table.Append(
			b.Label,
			fmt.Sprintf("%d", b.Total),
			fmt.Sprintf("%d", b.Correct),
			accuracyLabel(b.Accuracy),
		)
	}
	table.Render()
}

// printTrades imprime los primeros c.trades trades.
func (c *Console) printTrades(trades []domain.Trade) {
	if c.trades <= 0 {
		return
	}
	shown := trades
	if len(shown) > c.trades {
		shown = shown[:c.trades]
	}
	for _, t := range shown {
		mark := "✗"
		if t.Correct {
			mark = "✓"
		}
		fmt.Fprintf(c.out, "  %s %-4s thr=%.4f conf=%.2f entry=%.4f → %.4f (%+.3f%%) %s\n",
			msLabel(t.Time), t.Direction, t.Threshold, t.Confidence,
			t.EntryPrice, t.FuturePrice, t.PctChange, mark)
	}
	if len(trades) > len(shown) {
		fmt.Fprintf(c.out, "  ... %d more\n", len(trades)-len(shown))
	}
}

// PrintHistory imprime backtests guardados (flag -list).
func (c *Console) PrintHistory(summaries []domain.BacktestSummary) {
	if len(summaries) == 0 {
		fmt.Fprintln(c.out, "\n  No saved backtests.")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Created", "ID", "Strategy", "Pair", "H", "Trades", "Acc", "Sharpe", "MaxDD", "PF")
	for _, s := range summaries {
		table.Append(
			s.CreatedAt.Format("2006-01-02 15:04"),
			truncate(s.ID, 8),
			s.Strategy,
			s.PairFilter,
			fmt.Sprintf("%gh", s.HorizonHours),
			fmt.Sprintf("%d/%d", s.CorrectTrades, s.TotalTrades),
			accuracyLabel(s.Accuracy),
			sharpeLabel(s.Sharpe),
			fmt.Sprintf("%.2f%%", s.MaxDrawdown),
			pfLabel(s.ProfitFactor),
		)
	}
	table.Render()
}

// --- helpers ---

func accuracyLabel(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", *v)
}

func sharpeLabel(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

func pfLabel(v float64) string {
	if v >= 99.9 {
		return "INF"
	}
	return fmt.Sprintf("%.2f", v)
}

func msLabel(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).UTC().Format("2006-01-02 15:04")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
