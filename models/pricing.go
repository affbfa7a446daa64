package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// InsufficientMarketDepthError is returned when a requested amount exceeds
// the total depth available on the relevant side of the book. It is
// deterministic given the inputs and is never retried.
type InsufficientMarketDepthError struct {
	Action Action
	Amount decimal.Decimal
}

func (e *InsufficientMarketDepthError) Error() string {
	return fmt.Sprintf("not enough depth in order book to %s %s volume", e.Action, e.Amount)
}

// side selects the book side an action consumes: a buy eats into asks, a
// sell into bids. Asks are stored descending, so a buy walk reverses them
// to consume the cheapest levels first; bids are already best-first.
func side(action Action, book *OrderBook) ([]Level, error) {
	if !IsValidAction(action) {
		return nil, fmt.Errorf("invalid action %q, expected %q or %q", action, ActionBuy, ActionSell)
	}
	if action == ActionBuy {
		reversed := make([]Level, len(book.Asks))
		for i, level := range book.Asks {
			reversed[len(book.Asks)-1-i] = level
		}
		return reversed, nil
	}
	levels := make([]Level, len(book.Bids))
	copy(levels, book.Bids)
	return levels, nil
}

func totalDepth(levels []Level) decimal.Decimal {
	total := decimal.Zero
	for _, level := range levels {
		total = total.Add(level.Amount)
	}
	return total
}

// VolumeWeightedAveragePrice estimates the average execution price of a
// hypothetical order of the given amount, walking the book from best to
// worst price. The final touched level contributes only the unfilled
// remainder to the weighted sum.
func VolumeWeightedAveragePrice(action Action, book *OrderBook, amount decimal.Decimal) (decimal.Decimal, error) {
	levels, err := side(action, book)
	if err != nil {
		return decimal.Zero, err
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("invalid amount %s, expected a positive value", amount)
	}
	if amount.GreaterThan(totalDepth(levels)) {
		return decimal.Zero, &InsufficientMarketDepthError{Action: action, Amount: amount}
	}

	var (
		weighted = decimal.Zero
		consumed = decimal.Zero
		accum    = decimal.Zero
		rest     = amount
	)
	for _, level := range levels {
		accum = accum.Add(level.Amount)
		if accum.GreaterThanOrEqual(amount) {
			// partially consumed final level
			weighted = weighted.Add(level.Price.Mul(rest))
			consumed = consumed.Add(rest)
			break
		}
		weighted = weighted.Add(level.Price.Mul(level.Amount))
		consumed = consumed.Add(level.Amount)
		rest = rest.Sub(level.Amount)
	}
	return weighted.Div(consumed), nil
}

// WorstOrderPrice returns the price of the last (worst) level needed to
// fully fill the given amount, i.e. the limit price that would guarantee a
// complete fill at that size.
func WorstOrderPrice(action Action, book *OrderBook, amount decimal.Decimal) (decimal.Decimal, error) {
	levels, err := side(action, book)
	if err != nil {
		return decimal.Zero, err
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("invalid amount %s, expected a positive value", amount)
	}
	if amount.GreaterThan(totalDepth(levels)) {
		return decimal.Zero, &InsufficientMarketDepthError{Action: action, Amount: amount}
	}

	accum := decimal.Zero
	for _, level := range levels {
		accum = accum.Add(level.Amount)
		if accum.GreaterThanOrEqual(amount) {
			return level.Price, nil
		}
	}
	// unreachable: the depth check above guarantees the walk terminates
	return decimal.Zero, &InsufficientMarketDepthError{Action: action, Amount: amount}
}
