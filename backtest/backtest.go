// Package backtest replays a strategy against a historical price series under
// the same commission+slippage cost model as the paper ledger. The cost-model
// code is duplicated here on purpose: replay and live paper trading stay
// independently testable against one economic model.
package backtest

const (
	DefaultInitialCapital = 10_000.0
	DefaultCommissionRate = 0.001
	DefaultSlippageRate   = 0.002

	// Fraction of capital committed when a BUY instruction omits quantity.
	defaultPositionFraction = 0.1
)

const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
)

// DataPoint is one bar of the historical series. Volumes are optional; they
// exist so tick-driven strategies (bounce detection) can run under the
// backtester, and absent entries read as zero.
type DataPoint struct {
	Timestamp int64              `json:"timestamp"`
	Prices    map[string]float64 `json:"prices"`
	Volumes   map[string]float64 `json:"volumes,omitempty"`
}

// Instruction is what a strategy wants done on this bar. Quantity and Price
// are optional: a zero quantity means "size it for me" on buys and "the whole
// position" on sells, and Price is only consulted when the series carries no
// price for the symbol.
type Instruction struct {
	Action   string  `json:"action"`
	Symbol   string  `json:"symbol"`
	Quantity float64 `json:"quantity,omitempty"`
	Price    float64 `json:"price,omitempty"`
}

// Strategy is the single capability the runner requires. Evaluate receives
// the current bar and a read-only snapshot of open positions and returns an
// instruction, or nil to do nothing. The runner holds no opinion on strategy
// internals.
type Strategy interface {
	Evaluate(dp DataPoint, positions map[string]Position) *Instruction
}

// StrategyFunc adapts a plain function to the Strategy interface.
type StrategyFunc func(dp DataPoint, positions map[string]Position) *Instruction

func (f StrategyFunc) Evaluate(dp DataPoint, positions map[string]Position) *Instruction {
	return f(dp, positions)
}

// Position is an open holding inside a backtest run.
type Position struct {
	Symbol      string  `json:"symbol"`
	Quantity    float64 `json:"quantity"`
	AverageCost float64 `json:"entryPrice"`
	OpenedAt    int64   `json:"entryTime"`
}

// Trade is one executed instruction. PnL and HoldTimeMs are set on sells.
type Trade struct {
	ID         string   `json:"id"`
	Action     string   `json:"action"`
	Symbol     string   `json:"symbol"`
	Quantity   float64  `json:"quantity"`
	Price      float64  `json:"price"`
	Commission float64  `json:"commission"`
	Slippage   float64  `json:"slippage"`
	NetAmount  float64  `json:"netAmount"`
	PnL        *float64 `json:"profit,omitempty"`
	HoldTimeMs int64    `json:"holdTime,omitempty"`
	Timestamp  int64    `json:"timestamp"`
}

// EquitySample is one point on the backtest equity curve.
type EquitySample struct {
	Timestamp int64   `json:"timestamp"`
	Equity    float64 `json:"value"`
}

// Skip records an instruction the runner rejected. Rejections never surface
// as errors; the tick is simply passed over, and this log exists so tests and
// diagnostics can still see why.
type Skip struct {
	Timestamp int64  `json:"timestamp"`
	Symbol    string `json:"symbol"`
	Reason    string `json:"reason"`
}

// Config holds backtest parameters. Zero values fall back to defaults.
type Config struct {
	InitialCapital float64 `json:"initial_capital" yaml:"initial_capital"`
	CommissionRate float64 `json:"commission_rate" yaml:"commission_rate"`
	SlippageRate   float64 `json:"slippage_rate" yaml:"slippage_rate"`
}

func (c *Config) applyDefaults() {
	if c.InitialCapital == 0 {
		c.InitialCapital = DefaultInitialCapital
	}
	if c.CommissionRate == 0 {
		c.CommissionRate = DefaultCommissionRate
	}
	if c.SlippageRate == 0 {
		c.SlippageRate = DefaultSlippageRate
	}
}
