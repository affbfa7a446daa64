package common

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/evdnx/goxchange/currency"
	"github.com/evdnx/goxchange/models"
)

// ExchangeClient defines the normalized interface every exchange adapter
// implements. Raw exchange responses never leak through it: each operation
// yields canonical entities or a typed error.
type ExchangeClient interface {
	GetName() string

	// public endpoints
	GetTicker(pair currency.Pair) (*models.Ticker, error)
	GetOrderBook(pair currency.Pair) (*models.OrderBook, error)

	// authenticated endpoints
	GetAccountBalances() ([]*models.AccountBalance, error)
	GetAccountBalance(symbol currency.Symbol) (*models.AccountBalance, error)
	GetOpenOrders(pair currency.Pair) ([]*models.Order, error)
	OpenOrder(req OrderRequest) (*models.Order, error)
	CancelOrder(orderID string) error
	CancelAllOrders(pair currency.Pair) error
	GetOpenPositions(pair currency.Pair) ([]*models.Position, error)
	ClosePosition(positionID string, pair currency.Pair) error
	CloseAllPositions(pair currency.Pair) error

	IsHealthy() bool
}

// OrderRequest carries the canonical parameters of an outgoing order.
// Adapters denormalize it into exchange wire parameters, including unit
// reconversion on derivative exchanges.
type OrderRequest struct {
	Action Action
	Amount decimal.Decimal
	Pair   currency.Pair
	Price  decimal.Decimal
	Type   OrderType
}

// Aliases so adapters and callers share one vocabulary with the models
// package.
type (
	Action      = models.Action
	OrderType   = models.OrderType
	OrderStatus = models.OrderStatus
)

// Re-exported canonical constants.
const (
	ActionBuy  = models.ActionBuy
	ActionSell = models.ActionSell

	OrderTypeLimit  = models.OrderTypeLimit
	OrderTypeMarket = models.OrderTypeMarket

	OrderStatusOpen   = models.OrderStatusOpen
	OrderStatusClosed = models.OrderStatusClosed
)

// Validate checks every argument against its enumerated or numeric domain
// before any network work happens. Validation errors are always locally
// recoverable by fixing the input.
func (r OrderRequest) Validate() error {
	if err := ValidateAction(r.Action); err != nil {
		return err
	}
	if err := ValidateAmount(r.Amount); err != nil {
		return err
	}
	if err := ValidatePair(r.Pair); err != nil {
		return err
	}
	if err := ValidatePrice(r.Price); err != nil {
		return err
	}
	return ValidateOrderType(r.Type)
}

// ValidateAction rejects anything outside the buy/sell vocabulary.
func ValidateAction(action Action) error {
	if !models.IsValidAction(action) {
		return NewValidationError("invalid_action",
			"invalid action \""+action.String()+"\", expected \"buy\" or \"sell\"")
	}
	return nil
}

// ValidateOrderType rejects anything outside the limit/market vocabulary.
func ValidateOrderType(orderType OrderType) error {
	if !models.IsValidOrderType(orderType) {
		return NewValidationError("invalid_order_type",
			"invalid order type \""+orderType.String()+"\", expected \"limit\" or \"market\"")
	}
	return nil
}

// ValidatePair rejects pairs outside the canonical enumerated set.
func ValidatePair(pair currency.Pair) error {
	if !currency.IsValidPair(pair) {
		return NewValidationError("invalid_symbol_pair",
			"invalid symbol pair \""+pair.String()+"\"")
	}
	return nil
}

// ValidateSymbol rejects symbols outside the canonical enumerated set.
func ValidateSymbol(symbol currency.Symbol) error {
	if !currency.IsValidSymbol(symbol) {
		return NewValidationError("invalid_symbol",
			"invalid symbol \""+symbol.String()+"\"")
	}
	return nil
}

// ValidateAmount rejects non-positive volumes.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return NewValidationError("invalid_amount",
			"order amount must be greater than 0, got "+amount.String())
	}
	return nil
}

// ValidatePrice rejects negative prices. Zero is allowed because market
// orders carry no meaningful price.
func ValidatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return NewValidationError("invalid_price",
			"order price must not be negative, got "+price.String())
	}
	return nil
}

// BaseClient carries the identity and credential state shared by every
// exchange adapter.
type BaseClient struct {
	name      string
	apiKey    string
	apiSecret string
	healthy   bool
}

// NewBaseClient creates a new base client
func NewBaseClient(name, apiKey, apiSecret string) *BaseClient {
	return &BaseClient{
		name:      name,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		healthy:   true,
	}
}

// GetName returns the name of the exchange
func (c *BaseClient) GetName() string { return c.name }

// APIKey returns the configured API key.
func (c *BaseClient) APIKey() string { return c.apiKey }

// APISecret returns the configured API secret.
func (c *BaseClient) APISecret() string { return c.apiSecret }

// IsHealthy returns true if the exchange is healthy
func (c *BaseClient) IsHealthy() bool { return c.healthy }

// SetHealth sets the health status of the exchange
func (c *BaseClient) SetHealth(healthy bool) { c.healthy = healthy }

// ErrNotImplemented is returned when an exchange does not support an operation
var ErrNotImplemented = errors.New("method not implemented")
