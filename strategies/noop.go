package strategies

import "github.com/rustyeddy/bounce/backtest"

// Noop never trades. Useful as a baseline: the equity curve should stay flat
// at initial capital.
type Noop struct{}

func (Noop) Evaluate(backtest.DataPoint, map[string]backtest.Position) *backtest.Instruction {
	return nil
}
