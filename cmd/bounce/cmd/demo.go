package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/bounce/classifier"
	"github.com/rustyeddy/bounce/detector"
	"github.com/rustyeddy/bounce/paper"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the live pipeline against scripted ticks",
	Long: `Demo feeds a scripted price/volume stream through the full live pipeline:

  detector -> classifier -> paper ledger

It trains the classifier on a few labeled bounces first, then trades the
signals the classifier passes and prints the resulting account performance.`,
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

func runDemo(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Bounce Pipeline Demo ===")
	fmt.Println()

	det := detector.New(detector.Config{})
	clf := classifier.NewSeeded(classifier.Config{}, 1)
	acct := paper.NewAccount(paper.Config{})

	// Warm the classifier up: strong bounces are labeled tradeable, weak ones
	// not. A real deployment would label from realized trade outcomes.
	var trainSignals []detector.Signal
	var labels []int
	for i := 0; i < 25; i++ {
		trainSignals = append(trainSignals,
			detector.Signal{Kind: detector.SignalBounce, BouncePercent: 12, VolumeRatio: 3.0, Strength: 90},
			detector.Signal{Kind: detector.SignalBounce, BouncePercent: 5, VolumeRatio: 1.5, Strength: 30},
		)
		labels = append(labels, 1, 0)
	}
	if err := clf.Train(trainSignals, labels); err != nil {
		return err
	}
	fmt.Printf("Classifier trained on %d labeled signals\n\n", clf.TrainedSamples())

	// A scripted MEME stream: dip, rebound on volume, rally.
	ticks := []struct {
		price, volume float64
	}{
		{1.00, 1000},
		{0.95, 1100},
		{0.85, 1300},
		{0.70, 1500},
		{1.05, 6000}, // the bounce
		{1.10, 2500},
		{1.18, 2000},
	}

	const symbol = "MEME"
	var holding bool

	for i, tick := range ticks {
		ts := int64(i+1) * 1000
		sig := det.AddObservation(tick.price, tick.volume, ts)
		if sig == nil {
			continue
		}

		fmt.Printf("SIGNAL t=%d price=%.2f bounce=%.1f%% volume=%.1fx strength=%d\n",
			sig.Timestamp, sig.Price, sig.BouncePercent, sig.VolumeRatio, sig.Strength)

		pred := clf.Predict(*sig)
		fmt.Printf("  classifier: p=%.3f shouldTrade=%v\n", pred.Probability, pred.ShouldTrade)

		if !pred.ShouldTrade || holding {
			continue
		}

		trade, err := acct.Buy(symbol, 100, sig.Price)
		if err != nil {
			fmt.Printf("  buy rejected: %v\n", err)
			continue
		}
		holding = true
		fmt.Printf("  BUY  %s id=%s qty=%.0f @ %.2f cost=%.2f\n",
			symbol, trade.ID, trade.Quantity, trade.Price, trade.NetAmount)
	}

	// Close out at the last price.
	if holding {
		last := ticks[len(ticks)-1].price
		if pos, ok := acct.Position(symbol); ok {
			trade, err := acct.Sell(symbol, pos.Quantity, last)
			if err != nil {
				return err
			}
			fmt.Printf("  SELL %s id=%s qty=%.0f @ %.2f pnl=%.2f\n",
				symbol, trade.ID, trade.Quantity, trade.Price, *trade.PnL)
		}
	}

	fmt.Println()
	if m := clf.Metrics(); m != nil {
		fmt.Printf("Classifier: %d predictions, avg confidence %s, filter rate %s\n",
			m.TotalPredictions, m.AvgConfidence, m.FilterRate)
	}
	st := det.Stats()
	fmt.Printf("Detector:   %d signals from %d windowed points\n", st.TotalSignals, st.DataPoints)

	perf := acct.Performance()
	fmt.Println()
	fmt.Println("Account Performance")
	fmt.Println("--------------------------------------------------")
	fmt.Printf("Initial Balance: %.2f\n", perf.InitialBalance)
	fmt.Printf("Current Equity:  %.2f\n", perf.CurrentEquity)
	fmt.Printf("Total P/L:       %.2f\n", perf.TotalPnL)
	fmt.Printf("Return:          %s\n", perf.ReturnPercent)
	fmt.Printf("Trades:          %d\n", perf.TotalTrades)
	fmt.Printf("Win Rate:        %s\n", perf.WinRate)

	return nil
}
