package goxchange

import (
	"github.com/shopspring/decimal"

	"github.com/evdnx/goxchange/currency"
	common "github.com/evdnx/goxchange/exchange/common"
	"github.com/evdnx/goxchange/models"
)

type (
	// Re-export domain types so consumers can use goxchange.Order, etc.
	// without importing the inner packages.
	Symbol         = currency.Symbol
	Pair           = currency.Pair
	Action         = models.Action
	OrderType      = models.OrderType
	OrderStatus    = models.OrderStatus
	Ticker         = models.Ticker
	Level          = models.Level
	OrderBook      = models.OrderBook
	AccountBalance = models.AccountBalance
	Order          = models.Order
	Position       = models.Position
	FieldMap       = models.FieldMap
	ErrorType      = common.ErrorType
	ExchangeError  = common.ExchangeError
	ExchangeClient = common.ExchangeClient
	OrderRequest   = common.OrderRequest
	BaseClient     = common.BaseClient
)

const (
	ActionBuy  = models.ActionBuy
	ActionSell = models.ActionSell

	OrderTypeLimit  = models.OrderTypeLimit
	OrderTypeMarket = models.OrderTypeMarket

	OrderStatusOpen   = models.OrderStatusOpen
	OrderStatusClosed = models.OrderStatusClosed

	ErrorTypeHTTP           = common.ErrorTypeHTTP
	ErrorTypeNetwork        = common.ErrorTypeNetwork
	ErrorTypeRateLimit      = common.ErrorTypeRateLimit
	ErrorTypeAuthentication = common.ErrorTypeAuthentication
	ErrorTypeParsing        = common.ErrorTypeParsing
	ErrorTypeValidation     = common.ErrorTypeValidation
	ErrorTypeNormalization  = common.ErrorTypeNormalization
	ErrorTypeExchange       = common.ErrorTypeExchange
	ErrorTypeUnknown        = common.ErrorTypeUnknown
)

var (
	ErrNotImplemented = common.ErrNotImplemented
	ErrAmountTooSmall = models.ErrAmountTooSmall
)

// NormalizeSymbol resolves any known spelling of a currency to its
// canonical symbol.
func NormalizeSymbol(raw string) (Symbol, error) {
	return currency.NormalizeSymbol(raw)
}

// NormalizePair resolves any known spelling of a currency pair to its
// canonical form.
func NormalizePair(raw string) (Pair, error) {
	return currency.NormalizePair(raw)
}

// VolumeWeightedAveragePrice estimates the average fill price of a market
// order of the given size against the book.
func VolumeWeightedAveragePrice(action Action, book *OrderBook, amount decimal.Decimal) (decimal.Decimal, error) {
	return models.VolumeWeightedAveragePrice(action, book, amount)
}

// WorstOrderPrice returns the price of the deepest level a market order of
// the given size would reach.
func WorstOrderPrice(action Action, book *OrderBook, amount decimal.Decimal) (decimal.Decimal, error) {
	return models.WorstOrderPrice(action, book, amount)
}

// ContractsToCrypto converts a futures contract amount to crypto.
func ContractsToCrypto(amountInContracts, lastPrice, unitAmount decimal.Decimal) decimal.Decimal {
	return models.ContractsToCrypto(amountInContracts, lastPrice, unitAmount)
}

// CryptoToContracts converts a crypto amount to whole futures contracts.
func CryptoToContracts(amountInCrypto, lastPrice, unitAmount decimal.Decimal) (decimal.Decimal, error) {
	return models.CryptoToContracts(amountInCrypto, lastPrice, unitAmount)
}

// NewExchangeError creates a typed exchange error
func NewExchangeError(errType ErrorType, code string, message string, cause error) *ExchangeError {
	return common.NewExchangeError(errType, code, message, cause)
}

// NewExchangeHTTPError creates an error from an HTTP status and body
func NewExchangeHTTPError(statusCode int, body []byte, message string) *ExchangeError {
	return common.NewExchangeHTTPError(statusCode, body, message)
}

// NewValidationError creates a local argument validation error
func NewValidationError(code string, message string) *ExchangeError {
	return common.NewValidationError(code, message)
}

// NewNormalizationError creates an error for a response that failed normalization
func NewNormalizationError(message string, cause error) *ExchangeError {
	return common.NewNormalizationError(message, cause)
}

// IsHTTPError reports whether an error is an HTTP transport error
func IsHTTPError(err error) bool {
	return common.IsHTTPError(err)
}

// IsRateLimitError reports whether an error is a rate limit rejection
func IsRateLimitError(err error) bool {
	return common.IsRateLimitError(err)
}

// IsAuthenticationError reports whether an error is an authentication failure
func IsAuthenticationError(err error) bool {
	return common.IsAuthenticationError(err)
}

// IsParsingError reports whether an error is a response parsing failure
func IsParsingError(err error) bool {
	return common.IsParsingError(err)
}

// IsValidationError reports whether an error is a local validation failure
func IsValidationError(err error) bool {
	return common.IsValidationError(err)
}

// IsNormalizationError reports whether an error is a normalization failure
func IsNormalizationError(err error) bool {
	return common.IsNormalizationError(err)
}

// IsUpstreamError reports whether an error is an exchange-reported failure
func IsUpstreamError(err error) bool {
	return common.IsUpstreamError(err)
}

// IsTimeoutError reports whether an error is a request timeout
func IsTimeoutError(err error) bool {
	return common.IsTimeoutError(err)
}

// IsRetriable reports whether retrying the failed operation could help
func IsRetriable(err error) bool {
	return common.IsRetriable(err)
}
