// Package paper implements the paper-trading ledger: virtual cash, average-cost
// positions, a commission+slippage cost model, and an equity curve. It has no
// live price feed; open positions are valued at cost basis unless the caller
// supplies marks.
package paper

import (
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/bounce/internal/id"
)

const (
	DefaultInitialBalance = 10_000.0
	DefaultCommissionRate = 0.001 // 0.1%
	DefaultSlippageRate   = 0.002 // 0.2%
)

const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// The only ways an order can fail. Every rejection leaves the account
// untouched; there is no partial mutation.
var (
	ErrInsufficientBalance  = errors.New("paper: insufficient balance")
	ErrNoPosition           = errors.New("paper: no position for symbol")
	ErrInsufficientQuantity = errors.New("paper: insufficient position quantity")
)

// Config holds account parameters. Zero values fall back to defaults.
type Config struct {
	InitialBalance float64 `json:"initial_balance" yaml:"initial_balance"`
	CommissionRate float64 `json:"commission_rate" yaml:"commission_rate"`
	SlippageRate   float64 `json:"slippage_rate" yaml:"slippage_rate"`
}

func (c *Config) applyDefaults() {
	if c.InitialBalance == 0 {
		c.InitialBalance = DefaultInitialBalance
	}
	if c.CommissionRate == 0 {
		c.CommissionRate = DefaultCommissionRate
	}
	if c.SlippageRate == 0 {
		c.SlippageRate = DefaultSlippageRate
	}
}

// Position is an open holding. Quantity is strictly positive while the
// position exists; selling it down to zero removes it.
type Position struct {
	Symbol      string  `json:"symbol"`
	Quantity    float64 `json:"quantity"`
	AverageCost float64 `json:"averagePrice"`
	OpenedAt    int64   `json:"entryTime"`
}

// Trade is an immutable execution record. PnL and PnLPercent are set on sells
// only.
type Trade struct {
	ID         string   `json:"id"`
	Side       string   `json:"type"`
	Symbol     string   `json:"symbol"`
	Quantity   float64  `json:"quantity"`
	Price      float64  `json:"price"`
	Commission float64  `json:"commission"`
	Slippage   float64  `json:"slippage"`
	NetAmount  float64  `json:"netAmount"`
	PnL        *float64 `json:"pnl,omitempty"`
	PnLPercent string   `json:"pnlPercent,omitempty"`
	Timestamp  int64    `json:"timestamp"`
}

// EquitySample is one point on the account equity curve.
type EquitySample struct {
	Timestamp int64   `json:"timestamp"`
	Equity    float64 `json:"equity"`
}

// State is a point-in-time account snapshot.
type State struct {
	Balance       float64 `json:"balance"`
	PositionValue float64 `json:"positionValue"`
	TotalEquity   float64 `json:"totalEquity"`
	Positions     int     `json:"positions"`
	Trades        int     `json:"trades"`
}

// Performance is derived on demand from the trade log and equity curve.
// Percentage fields are formatted two-decimal strings with a trailing %,
// matching what downstream renderers expect.
type Performance struct {
	InitialBalance float64 `json:"initialBalance"`
	CurrentEquity  float64 `json:"currentEquity"`
	TotalPnL       float64 `json:"totalPnL"`
	ReturnPercent  string  `json:"returnPercent"`
	TotalTrades    int     `json:"totalTrades"`
	WinningTrades  int     `json:"winningTrades"`
	LosingTrades   int     `json:"losingTrades"`
	WinRate        string  `json:"winRate"`
}

// Account is the paper-trading ledger. Single-writer: callers must serialize
// access externally, one event-loop task per tick or a mutex around the whole
// account.
type Account struct {
	cfg       Config
	balance   float64
	positions map[string]*Position
	trades    []*Trade
	equity    []EquitySample

	// now supplies millisecond timestamps for trades and equity samples.
	// Overridable in tests for determinism.
	now func() int64
}

func NewAccount(cfg Config) *Account {
	cfg.applyDefaults()
	a := &Account{
		cfg:       cfg,
		balance:   cfg.InitialBalance,
		positions: make(map[string]*Position),
		now:       func() int64 { return time.Now().UnixMilli() },
	}
	a.equity = append(a.equity, EquitySample{Timestamp: a.now(), Equity: a.balance})
	return a
}

// Config returns the effective configuration after defaulting.
func (a *Account) Config() Config { return a.cfg }

// Balance returns available cash.
func (a *Account) Balance() float64 { return a.balance }

// Buy executes a market buy at the given price. The full cost including
// commission and slippage must be covered by cash or the order is rejected
// with ErrInsufficientBalance before any state changes.
func (a *Account) Buy(symbol string, quantity, price float64) (*Trade, error) {
	notional := quantity * price
	commission := notional * a.cfg.CommissionRate
	slippage := notional * a.cfg.SlippageRate
	totalCost := notional + commission + slippage

	if totalCost > a.balance {
		return nil, fmt.Errorf("%w: need %.2f, have %.2f", ErrInsufficientBalance, totalCost, a.balance)
	}

	a.balance -= totalCost
	ts := a.now()

	if pos, ok := a.positions[symbol]; ok {
		totalQty := pos.Quantity + quantity
		pos.AverageCost = (pos.AverageCost*pos.Quantity + price*quantity) / totalQty
		pos.Quantity = totalQty
	} else {
		a.positions[symbol] = &Position{
			Symbol:      symbol,
			Quantity:    quantity,
			AverageCost: price,
			OpenedAt:    ts,
		}
	}

	trade := &Trade{
		ID:         id.New(),
		Side:       SideBuy,
		Symbol:     symbol,
		Quantity:   quantity,
		Price:      price,
		Commission: commission,
		Slippage:   slippage,
		NetAmount:  totalCost,
		Timestamp:  ts,
	}
	a.trades = append(a.trades, trade)
	a.recordEquity(ts)

	return trade, nil
}

// Sell executes a market sell against an existing position. Realized P&L is
// computed against the position's average cost, net of commission and
// slippage.
func (a *Account) Sell(symbol string, quantity, price float64) (*Trade, error) {
	pos, ok := a.positions[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoPosition, symbol)
	}
	if quantity > pos.Quantity {
		return nil, fmt.Errorf("%w: have %.8f, asked %.8f", ErrInsufficientQuantity, pos.Quantity, quantity)
	}

	notional := quantity * price
	commission := notional * a.cfg.CommissionRate
	slippage := notional * a.cfg.SlippageRate
	netRevenue := notional - commission - slippage
	pnl := (price-pos.AverageCost)*quantity - commission - slippage

	a.balance += netRevenue
	ts := a.now()

	if quantity == pos.Quantity {
		delete(a.positions, symbol)
	} else {
		pos.Quantity -= quantity
	}

	trade := &Trade{
		ID:         id.New(),
		Side:       SideSell,
		Symbol:     symbol,
		Quantity:   quantity,
		Price:      price,
		Commission: commission,
		Slippage:   slippage,
		NetAmount:  netRevenue,
		PnL:        &pnl,
		PnLPercent: fmt.Sprintf("%.2f", pnl/(pos.AverageCost*quantity)*100),
		Timestamp:  ts,
	}
	a.trades = append(a.trades, trade)
	a.recordEquity(ts)

	return trade, nil
}

// PositionValue values open positions at the supplied marks, falling back to
// average cost for symbols without a mark. A nil map values everything at
// cost basis.
func (a *Account) PositionValue(prices map[string]float64) float64 {
	var total float64
	for sym, pos := range a.positions {
		mark := pos.AverageCost
		if p, ok := prices[sym]; ok {
			mark = p
		}
		total += pos.Quantity * mark
	}
	return total
}

func (a *Account) recordEquity(ts int64) {
	a.equity = append(a.equity, EquitySample{
		Timestamp: ts,
		Equity:    a.balance + a.PositionValue(nil),
	})
}

// State snapshots the account. Equity is mark-to-cost: the ledger carries no
// live feed.
func (a *Account) State() State {
	pv := a.PositionValue(nil)
	return State{
		Balance:       a.balance,
		PositionValue: pv,
		TotalEquity:   a.balance + pv,
		Positions:     len(a.positions),
		Trades:        len(a.trades),
	}
}

// Position returns a copy of the open position for symbol, if any.
func (a *Account) Position(symbol string) (Position, bool) {
	pos, ok := a.positions[symbol]
	if !ok {
		return Position{}, false
	}
	return *pos, true
}

// Trades returns the append-only trade log.
func (a *Account) Trades() []*Trade {
	out := make([]*Trade, len(a.trades))
	copy(out, a.trades)
	return out
}

// Equity returns the recorded equity curve.
func (a *Account) Equity() []EquitySample {
	out := make([]EquitySample, len(a.equity))
	copy(out, a.equity)
	return out
}

// Performance derives summary metrics without mutating any state. Win rate
// counts completed (sell) trades only; break-even sells count as neither win
// nor loss.
func (a *Account) Performance() Performance {
	equity := a.balance + a.PositionValue(nil)
	totalPnL := equity - a.cfg.InitialBalance

	winners, losers := 0, 0
	for _, t := range a.trades {
		if t.Side != SideSell || t.PnL == nil {
			continue
		}
		switch {
		case *t.PnL > 0:
			winners++
		case *t.PnL < 0:
			losers++
		}
	}

	winRate := 0.0
	if winners+losers > 0 {
		winRate = float64(winners) / float64(winners+losers) * 100
	}

	return Performance{
		InitialBalance: a.cfg.InitialBalance,
		CurrentEquity:  equity,
		TotalPnL:       totalPnL,
		ReturnPercent:  fmt.Sprintf("%.2f%%", totalPnL/a.cfg.InitialBalance*100),
		TotalTrades:    len(a.trades),
		WinningTrades:  winners,
		LosingTrades:   losers,
		WinRate:        fmt.Sprintf("%.2f%%", winRate),
	}
}

// Reset restores the account to its initial state, reseeding the equity
// curve with the starting balance.
func (a *Account) Reset() {
	a.balance = a.cfg.InitialBalance
	a.positions = make(map[string]*Position)
	a.trades = nil
	a.equity = []EquitySample{{Timestamp: a.now(), Equity: a.balance}}
}
