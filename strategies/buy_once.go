package strategies

import "github.com/rustyeddy/bounce/backtest"

// BuyOnce buys a single position on the first bar that quotes its symbol and
// then holds to the end of the series. A buy-and-hold baseline.
type BuyOnce struct {
	Symbol   string
	Quantity float64 // 0 lets the runner size the position

	bought bool
}

func (s *BuyOnce) Evaluate(dp backtest.DataPoint, _ map[string]backtest.Position) *backtest.Instruction {
	if s.bought {
		return nil
	}
	if _, ok := dp.Prices[s.Symbol]; !ok {
		return nil
	}
	s.bought = true
	return &backtest.Instruction{
		Action:   backtest.ActionBuy,
		Symbol:   s.Symbol,
		Quantity: s.Quantity,
	}
}
