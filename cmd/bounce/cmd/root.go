package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "bounce",
	Short: "Bounce-signal detection, paper trading, and backtesting",
	Long: `Bounce detects price rebounds off recent lows confirmed by volume spikes,
scores them with a small online classifier, and executes against either a
paper-trading ledger or a historical backtest.

It provides tools for:
  - Backtesting bounce (and baseline) strategies over CSV tick data
  - Scoring signals with a trainable logistic-regression filter
  - Paper trading with commission and slippage accounting
  - Performance reporting: win rate, profit factor, max drawdown`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
