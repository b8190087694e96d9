package backtest

import (
	"fmt"
	"io"
	"time"
)

// Summary is the performance report for one run, derived once from the full
// equity curve and trade log. Monetary and percentage fields are formatted
// two-decimal strings (percentages with a trailing %) because downstream
// renderers key on that exact shape.
type Summary struct {
	InitialCapital  float64        `json:"initialCapital"`
	FinalEquity     string         `json:"finalEquity"`
	TotalReturn     string         `json:"totalReturn"`
	ReturnPercent   string         `json:"returnPercent"`
	TotalTrades     int            `json:"totalTrades"`
	CompletedTrades int            `json:"completedTrades"`
	WinningTrades   int            `json:"winningTrades"`
	LosingTrades    int            `json:"losingTrades"`
	WinRate         string         `json:"winRate"`
	AvgWin          string         `json:"avgWin"`
	AvgLoss         string         `json:"avgLoss"`
	ProfitFactor    string         `json:"profitFactor"`
	MaxDrawdown     string         `json:"maxDrawdown"`
	EquityCurve     []EquitySample `json:"equityCurve"`

	// Wall-clock diagnostic only; not a performance signal.
	ExecutionTimeMs int64 `json:"executionTime"`
}

// summarize derives all metrics from the equity curve and trade log. The
// curve always has at least the seeded starting sample.
func summarize(initialCapital float64, equity []EquitySample, trades []*Trade) *Summary {
	finalEquity := equity[len(equity)-1].Equity
	totalReturn := finalEquity - initialCapital
	returnPercent := totalReturn / initialCapital * 100

	completed := 0
	winners, losers := 0, 0
	var winSum, lossSum float64
	for _, t := range trades {
		if t.Action != ActionSell || t.PnL == nil {
			continue
		}
		completed++
		switch {
		case *t.PnL > 0:
			winners++
			winSum += *t.PnL
		case *t.PnL < 0:
			losers++
			lossSum += *t.PnL
		}
	}

	winRate := 0.0
	if completed > 0 {
		winRate = float64(winners) / float64(completed) * 100
	}

	avgWin := 0.0
	if winners > 0 {
		avgWin = winSum / float64(winners)
	}
	avgLoss := 0.0
	if losers > 0 {
		avgLoss = lossSum / float64(losers)
	}

	// avgLoss is negative or zero; guard the zero to avoid dividing by it.
	profitFactor := 0.0
	if avgLoss != 0 {
		profitFactor = avgWin / avgLoss
		if profitFactor < 0 {
			profitFactor = -profitFactor
		}
	}

	return &Summary{
		InitialCapital:  initialCapital,
		FinalEquity:     fmt.Sprintf("%.2f", finalEquity),
		TotalReturn:     fmt.Sprintf("%.2f", totalReturn),
		ReturnPercent:   fmt.Sprintf("%.2f%%", returnPercent),
		TotalTrades:     len(trades),
		CompletedTrades: completed,
		WinningTrades:   winners,
		LosingTrades:    losers,
		WinRate:         fmt.Sprintf("%.2f%%", winRate),
		AvgWin:          fmt.Sprintf("%.2f", avgWin),
		AvgLoss:         fmt.Sprintf("%.2f", avgLoss),
		ProfitFactor:    fmt.Sprintf("%.2f", profitFactor),
		MaxDrawdown:     fmt.Sprintf("%.2f%%", maxDrawdown(equity)),
		EquityCurve:     equity,
	}
}

// maxDrawdown is the largest percentage decline from a running equity peak.
func maxDrawdown(equity []EquitySample) float64 {
	if len(equity) == 0 {
		return 0
	}
	peak := equity[0].Equity
	worst := 0.0
	for _, s := range equity {
		if s.Equity > peak {
			peak = s.Equity
		}
		if peak > 0 {
			if dd := (peak - s.Equity) / peak * 100; dd > worst {
				worst = dd
			}
		}
	}
	return worst
}

// PrintSummary writes a human-readable report for a completed run.
func PrintSummary(w io.Writer, s *Summary) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Initial Capital: %.2f\n", s.InitialCapital)
	fmt.Fprintf(w, "Final Equity:    %s\n", s.FinalEquity)
	fmt.Fprintf(w, "Total Return:    %s (%s)\n", s.TotalReturn, s.ReturnPercent)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:          %d (%d completed)\n", s.TotalTrades, s.CompletedTrades)
	fmt.Fprintf(w, "Wins:            %d\n", s.WinningTrades)
	fmt.Fprintf(w, "Losses:          %d\n", s.LosingTrades)
	fmt.Fprintf(w, "Win Rate:        %s\n", s.WinRate)
	fmt.Fprintf(w, "Avg Win:         %s\n", s.AvgWin)
	fmt.Fprintf(w, "Avg Loss:        %s\n", s.AvgLoss)
	fmt.Fprintf(w, "Profit Factor:   %s\n", s.ProfitFactor)
	fmt.Fprintf(w, "Max Drawdown:    %s\n", s.MaxDrawdown)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Bars:            %d\n", len(s.EquityCurve)-1)
	fmt.Fprintf(w, "Execution Time:  %s\n", time.Duration(s.ExecutionTimeMs)*time.Millisecond)
}
