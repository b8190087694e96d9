package backtest

import (
	"context"
	"math"
	"time"

	"github.com/rustyeddy/bounce/internal/id"
)

// cancelCheckEvery bounds how often Run polls its context. Correctness does
// not depend on where the poll lands; the loop touches no shared state.
const cancelCheckEvery = 256

// Runner replays strategies over historical series. A Runner may be reused;
// each Run starts from a clean capital/position state.
type Runner struct {
	cfg     Config
	trades  []*Trade
	skips   []Skip
	results *Summary
}

func NewRunner(cfg Config) *Runner {
	cfg.applyDefaults()
	return &Runner{cfg: cfg}
}

// Config returns the effective configuration after defaulting.
func (r *Runner) Config() Config { return r.cfg }

// Run replays the strategy over the series in order, one deterministic pass.
// Execution price for an instruction is the series price for its symbol,
// falling back to the instruction's own price. Instructions the cost model
// rejects are skipped silently (see Skips). The returned summary is derived
// once from the full equity curve and trade log.
func (r *Runner) Run(ctx context.Context, strat Strategy, series []DataPoint) (*Summary, error) {
	start := time.Now()
	r.trades = nil
	r.skips = nil
	r.results = nil

	capital := r.cfg.InitialCapital
	positions := make(map[string]*Position)

	equity := make([]EquitySample, 0, len(series)+1)
	var firstTs int64
	if len(series) > 0 {
		firstTs = series[0].Timestamp
	}
	equity = append(equity, EquitySample{Timestamp: firstTs, Equity: capital})

	for i, dp := range series {
		if i%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		instr := strat.Evaluate(dp, snapshot(positions))
		if instr != nil && instr.Action != "" {
			capital = r.execute(instr, dp, capital, positions)
		}

		equity = append(equity, EquitySample{
			Timestamp: dp.Timestamp,
			Equity:    capital + markValue(positions, dp.Prices),
		})
	}

	summary := summarize(r.cfg.InitialCapital, equity, r.trades)
	summary.ExecutionTimeMs = time.Since(start).Milliseconds()
	r.results = summary
	return summary, nil
}

// execute applies one instruction to local capital/positions and returns the
// new capital. Rejections record a Skip and change nothing.
func (r *Runner) execute(instr *Instruction, dp DataPoint, capital float64, positions map[string]*Position) float64 {
	price := dp.Prices[instr.Symbol]
	if price == 0 {
		price = instr.Price
	}
	if price <= 0 {
		r.skip(dp.Timestamp, instr.Symbol, "no execution price")
		return capital
	}

	switch instr.Action {
	case ActionBuy:
		quantity := instr.Quantity
		if quantity <= 0 {
			quantity = positionSize(capital, price)
		}
		if quantity <= 0 {
			r.skip(dp.Timestamp, instr.Symbol, "zero quantity")
			return capital
		}

		notional := quantity * price
		commission := notional * r.cfg.CommissionRate
		slippage := notional * r.cfg.SlippageRate
		totalCost := notional + commission + slippage

		if totalCost > capital {
			r.skip(dp.Timestamp, instr.Symbol, "insufficient capital")
			return capital
		}

		capital -= totalCost
		if pos, ok := positions[instr.Symbol]; ok {
			totalQty := pos.Quantity + quantity
			pos.AverageCost = (pos.AverageCost*pos.Quantity + price*quantity) / totalQty
			pos.Quantity = totalQty
		} else {
			positions[instr.Symbol] = &Position{
				Symbol:      instr.Symbol,
				Quantity:    quantity,
				AverageCost: price,
				OpenedAt:    dp.Timestamp,
			}
		}

		r.trades = append(r.trades, &Trade{
			ID:         id.New(),
			Action:     ActionBuy,
			Symbol:     instr.Symbol,
			Quantity:   quantity,
			Price:      price,
			Commission: commission,
			Slippage:   slippage,
			NetAmount:  totalCost,
			Timestamp:  dp.Timestamp,
		})

	case ActionSell:
		pos, ok := positions[instr.Symbol]
		if !ok {
			r.skip(dp.Timestamp, instr.Symbol, "no position")
			return capital
		}
		quantity := instr.Quantity
		if quantity <= 0 {
			quantity = pos.Quantity
		}
		if quantity > pos.Quantity {
			r.skip(dp.Timestamp, instr.Symbol, "insufficient quantity")
			return capital
		}

		notional := quantity * price
		commission := notional * r.cfg.CommissionRate
		slippage := notional * r.cfg.SlippageRate
		netRevenue := notional - commission - slippage
		pnl := (price-pos.AverageCost)*quantity - commission - slippage

		capital += netRevenue
		holdTime := dp.Timestamp - pos.OpenedAt
		if quantity == pos.Quantity {
			delete(positions, instr.Symbol)
		} else {
			pos.Quantity -= quantity
		}

		r.trades = append(r.trades, &Trade{
			ID:         id.New(),
			Action:     ActionSell,
			Symbol:     instr.Symbol,
			Quantity:   quantity,
			Price:      price,
			Commission: commission,
			Slippage:   slippage,
			NetAmount:  netRevenue,
			PnL:        &pnl,
			HoldTimeMs: holdTime,
			Timestamp:  dp.Timestamp,
		})

	default:
		r.skip(dp.Timestamp, instr.Symbol, "invalid action")
	}

	return capital
}

func (r *Runner) skip(ts int64, symbol, reason string) {
	r.skips = append(r.skips, Skip{Timestamp: ts, Symbol: symbol, Reason: reason})
}

// positionSize commits a fixed fraction of capital, in whole units.
func positionSize(capital, price float64) float64 {
	return math.Floor(capital * defaultPositionFraction / price)
}

// markValue values open positions at current series prices, falling back to
// entry cost for symbols the bar does not quote.
func markValue(positions map[string]*Position, prices map[string]float64) float64 {
	var total float64
	for sym, pos := range positions {
		mark := pos.AverageCost
		if p, ok := prices[sym]; ok && p > 0 {
			mark = p
		}
		total += pos.Quantity * mark
	}
	return total
}

// snapshot copies positions for the strategy's read-only view.
func snapshot(positions map[string]*Position) map[string]Position {
	out := make(map[string]Position, len(positions))
	for sym, pos := range positions {
		out[sym] = *pos
	}
	return out
}

// TradeHistory returns the trade log from the most recent run.
func (r *Runner) TradeHistory() []*Trade {
	out := make([]*Trade, len(r.trades))
	copy(out, r.trades)
	return out
}

// Skips returns the rejected-instruction log from the most recent run.
func (r *Runner) Skips() []Skip {
	out := make([]Skip, len(r.skips))
	copy(out, r.skips)
	return out
}

// Results returns the summary from the most recent run, or nil.
func (r *Runner) Results() *Summary { return r.results }
