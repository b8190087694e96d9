package strategies

import (
	"github.com/rustyeddy/bounce/backtest"
	"github.com/rustyeddy/bounce/classifier"
	"github.com/rustyeddy/bounce/detector"
)

const (
	DefaultTakeProfitPct = 10.0
	DefaultStopLossPct   = 5.0
)

// BounceConfig parameterizes the bounce pipeline strategy.
type BounceConfig struct {
	Symbol   string  `json:"symbol" yaml:"symbol"`
	Quantity float64 `json:"quantity" yaml:"quantity"` // 0 lets the runner size buys

	// Exit rules, as percentages of entry cost. MaxHoldMs of 0 disables the
	// time-based exit.
	TakeProfitPct float64 `json:"take_profit_pct" yaml:"take_profit_pct"`
	StopLossPct   float64 `json:"stop_loss_pct" yaml:"stop_loss_pct"`
	MaxHoldMs     int64   `json:"max_hold_ms" yaml:"max_hold_ms"`

	Detector detector.Config `json:"detector" yaml:"detector"`
}

func (c *BounceConfig) applyDefaults() {
	if c.TakeProfitPct == 0 {
		c.TakeProfitPct = DefaultTakeProfitPct
	}
	if c.StopLossPct == 0 {
		c.StopLossPct = DefaultStopLossPct
	}
}

// Bounce enters when the detector fires a bounce signal and exits on a fixed
// take-profit, stop-loss, or hold-time rule. An optional classifier gates
// entries: when set, only signals it scores as trade-worthy are taken.
//
// One position at a time; re-entry only after the previous position closes.
type Bounce struct {
	cfg BounceConfig
	det *detector.Detector
	clf *classifier.Classifier
}

func NewBounce(cfg BounceConfig) *Bounce {
	cfg.applyDefaults()
	return &Bounce{
		cfg: cfg,
		det: detector.New(cfg.Detector),
	}
}

// SetClassifier installs a (typically pre-trained) classifier as an entry
// gate. Passing nil removes the gate.
func (s *Bounce) SetClassifier(c *classifier.Classifier) { s.clf = c }

// Detector exposes the strategy's detector, mainly so callers can inspect
// signal stats after a run.
func (s *Bounce) Detector() *detector.Detector { return s.det }

func (s *Bounce) Evaluate(dp backtest.DataPoint, positions map[string]backtest.Position) *backtest.Instruction {
	price, ok := dp.Prices[s.cfg.Symbol]
	if !ok || price <= 0 {
		return nil
	}

	sig := s.det.AddObservation(price, dp.Volumes[s.cfg.Symbol], dp.Timestamp)

	if pos, held := positions[s.cfg.Symbol]; held {
		if s.shouldExit(pos, price, dp.Timestamp) {
			return &backtest.Instruction{Action: backtest.ActionSell, Symbol: s.cfg.Symbol}
		}
		return nil
	}

	if sig == nil {
		return nil
	}
	if s.clf != nil {
		if pred := s.clf.Predict(*sig); !pred.ShouldTrade {
			return nil
		}
	}
	return &backtest.Instruction{
		Action:   backtest.ActionBuy,
		Symbol:   s.cfg.Symbol,
		Quantity: s.cfg.Quantity,
	}
}

func (s *Bounce) shouldExit(pos backtest.Position, price float64, now int64) bool {
	if price >= pos.AverageCost*(1+s.cfg.TakeProfitPct/100) {
		return true
	}
	if price <= pos.AverageCost*(1-s.cfg.StopLossPct/100) {
		return true
	}
	if s.cfg.MaxHoldMs > 0 && now-pos.OpenedAt >= s.cfg.MaxHoldMs {
		return true
	}
	return false
}
