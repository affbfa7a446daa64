package models

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrAmountTooSmall is returned when a crypto amount is below the notional
// of a single contract and therefore cannot be expressed as a whole number
// of contracts.
var ErrAmountTooSmall = errors.New("amount too small to express as whole contracts")

// ContractsToCrypto converts a contract amount to the equivalent crypto
// amount. unitAmount is the fixed USD notional of one contract.
//
//	amountInCrypto = amountInContracts * (unitAmount / lastPrice)
func ContractsToCrypto(amountInContracts, lastPrice, unitAmount decimal.Decimal) decimal.Decimal {
	return amountInContracts.Mul(unitAmount.Div(lastPrice))
}

// CryptoToContracts converts a crypto amount to a whole number of
// contracts, truncating toward zero since partial contracts cannot be
// traded. ErrAmountTooSmall is returned when the amount does not cover a
// single contract.
//
//	amountInContracts = floor((amountInCrypto * lastPrice) / unitAmount)
func CryptoToContracts(amountInCrypto, lastPrice, unitAmount decimal.Decimal) (decimal.Decimal, error) {
	contracts := amountInCrypto.Mul(lastPrice).Div(unitAmount).Truncate(0)
	if contracts.IsZero() {
		return decimal.Zero, ErrAmountTooSmall
	}
	return contracts, nil
}
