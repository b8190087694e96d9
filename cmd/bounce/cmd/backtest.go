package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/bounce/backtest"
	"github.com/rustyeddy/bounce/config"
	"github.com/rustyeddy/bounce/feed"
	"github.com/rustyeddy/bounce/strategies"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run a strategy against historical CSV tick data",
	Long: `Backtest replays a strategy over a CSV tick file and prints a performance
summary (return, win rate, profit factor, max drawdown).

The CSV format is: timestamp_ms,symbol,price[,volume] with an optional header
row. Rows sharing a timestamp become one bar quoting several symbols.

Supported strategies:
  - noop:     does nothing (baseline)
  - buy-once: buys on the first bar and holds
  - bounce:   enters on detected bounces, exits on take-profit/stop-loss

Example:
  bounce backtest --data ticks.csv --strategy bounce --symbol MEME`,
	RunE: runBacktest,
}

var (
	btDataPath   string
	btConfigPath string
	btStrategy   string
	btSymbol     string
	btQuantity   float64
	btCapital    float64
	btCommission float64
	btSlippage   float64
	btTakeProfit float64
	btStopLoss   float64
	btMaxHoldMs  int64
	btShowSkips  bool
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btDataPath, "data", "d", "", "path to tick CSV (timestamp_ms,symbol,price[,volume]) (required)")
	backtestCmd.Flags().StringVarP(&btConfigPath, "config", "c", "", "path to YAML/JSON config file")
	backtestCmd.Flags().StringVarP(&btStrategy, "strategy", "s", "bounce", "strategy name (noop, buy-once, bounce)")
	backtestCmd.Flags().StringVar(&btSymbol, "symbol", "MEME", "symbol to trade")
	backtestCmd.Flags().Float64VarP(&btQuantity, "quantity", "q", 0, "order quantity (0 sizes buys at 10% of capital)")
	backtestCmd.Flags().Float64Var(&btCapital, "capital", backtest.DefaultInitialCapital, "starting capital")
	backtestCmd.Flags().Float64Var(&btCommission, "commission", backtest.DefaultCommissionRate, "commission rate (0.001 = 0.1%)")
	backtestCmd.Flags().Float64Var(&btSlippage, "slippage", backtest.DefaultSlippageRate, "slippage rate (0.002 = 0.2%)")
	backtestCmd.Flags().Float64Var(&btTakeProfit, "take-profit", strategies.DefaultTakeProfitPct, "bounce: take profit percent")
	backtestCmd.Flags().Float64Var(&btStopLoss, "stop-loss", strategies.DefaultStopLossPct, "bounce: stop loss percent")
	backtestCmd.Flags().Int64Var(&btMaxHoldMs, "max-hold-ms", 0, "bounce: max position hold time in ms (0 disables)")
	backtestCmd.Flags().BoolVar(&btShowSkips, "show-skips", false, "print rejected instructions")

	backtestCmd.MarkFlagRequired("data")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if btConfigPath != "" {
		loaded, err := config.LoadFromFile(btConfigPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	// Flags override the config file where explicitly set.
	flagged := func(name string) bool { return cmd.Flags().Changed(name) }
	if flagged("strategy") || cfg.Strategy.Name == "" {
		cfg.Strategy.Name = btStrategy
	}
	if flagged("symbol") || cfg.Strategy.Symbol == "" {
		cfg.Strategy.Symbol = btSymbol
	}
	if flagged("quantity") {
		cfg.Strategy.Quantity = btQuantity
	}
	if flagged("capital") {
		cfg.Backtest.InitialCapital = btCapital
	}
	if flagged("commission") {
		cfg.Backtest.CommissionRate = btCommission
	}
	if flagged("slippage") {
		cfg.Backtest.SlippageRate = btSlippage
	}
	if flagged("take-profit") {
		cfg.Strategy.TakeProfitPct = btTakeProfit
	}
	if flagged("stop-loss") {
		cfg.Strategy.StopLossPct = btStopLoss
	}
	if flagged("max-hold-ms") {
		cfg.Strategy.MaxHoldMs = btMaxHoldMs
	}

	series, err := feed.LoadSeries(btDataPath)
	if err != nil {
		return fmt.Errorf("load series: %w", err)
	}
	if len(series) == 0 {
		return fmt.Errorf("no data points in %s", btDataPath)
	}

	strat, err := strategies.ByName(cfg.Strategy.Name, cfg.BounceConfig())
	if err != nil {
		return fmt.Errorf("strategy: %w", err)
	}

	fmt.Printf("Running backtest with strategy: %s\n", cfg.Strategy.Name)
	fmt.Printf("  Data:   %s (%d bars)\n", btDataPath, len(series))
	fmt.Printf("  Symbol: %s\n\n", cfg.Strategy.Symbol)

	runner := backtest.NewRunner(cfg.Backtest)
	summary, err := runner.Run(context.Background(), strat, series)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	backtest.PrintSummary(os.Stdout, summary)

	if btShowSkips {
		skips := runner.Skips()
		fmt.Printf("\nSkipped instructions: %d\n", len(skips))
		for _, s := range skips {
			fmt.Printf("  t=%d %s: %s\n", s.Timestamp, s.Symbol, s.Reason)
		}
	}

	return nil
}
