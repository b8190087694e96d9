// Package strategies provides backtest.Strategy implementations and a
// name-based factory for CLI wiring.
package strategies

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/bounce/backtest"
)

var registry = make(map[string]backtest.Strategy)

// Register adds a strategy under a name for later lookup.
func Register(name string, strat backtest.Strategy) {
	registry[name] = strat
}

// Get returns a registered strategy, or nil.
func Get(name string) backtest.Strategy {
	return registry[name]
}

// ByName constructs one of the built-in strategies. cfg carries the
// per-strategy knobs; strategies ignore fields they do not use.
func ByName(name string, cfg BounceConfig) (backtest.Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "noop", "none":
		return Noop{}, nil

	case "buy-once", "buyonce":
		return &BuyOnce{Symbol: cfg.Symbol, Quantity: cfg.Quantity}, nil

	case "bounce":
		return NewBounce(cfg), nil

	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: noop, buy-once, bounce)", name)
	}
}
