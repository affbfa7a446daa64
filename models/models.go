// Package models holds the canonical entities every exchange response is
// normalized into, the schema machinery that validates and casts raw
// fields, and the pure pricing and unit-conversion functions that operate
// on those entities. Everything here is immutable after construction and
// uses exact decimal arithmetic.
package models

import (
	"github.com/shopspring/decimal"

	"github.com/evdnx/goxchange/currency"
)

// Action is the canonical side of an order or position.
type Action string

const (
	// ActionBuy represents a buy.
	ActionBuy Action = "buy"
	// ActionSell represents a sell.
	ActionSell Action = "sell"
)

// String returns the action as a plain string.
func (a Action) String() string { return string(a) }

// Opposite returns the reverse action, used when closing positions.
func (a Action) Opposite() Action {
	if a == ActionBuy {
		return ActionSell
	}
	return ActionBuy
}

// IsValidAction reports whether a is a canonical action.
func IsValidAction(a Action) bool { return a == ActionBuy || a == ActionSell }

// OrderType is the canonical order type vocabulary.
type OrderType string

const (
	// OrderTypeLimit represents a limit order.
	OrderTypeLimit OrderType = "limit"
	// OrderTypeMarket represents a market order.
	OrderTypeMarket OrderType = "market"
)

// String returns the order type as a plain string.
func (t OrderType) String() string { return string(t) }

// IsValidOrderType reports whether t is a canonical order type.
func IsValidOrderType(t OrderType) bool { return t == OrderTypeLimit || t == OrderTypeMarket }

// OrderStatus is the canonical status vocabulary. Exchange-specific
// liveness flags and numeric codes collapse onto exactly these two values.
type OrderStatus string

const (
	// OrderStatusOpen represents an order still resting on the book.
	OrderStatusOpen OrderStatus = "open"
	// OrderStatusClosed represents a filled or cancelled order.
	OrderStatusClosed OrderStatus = "closed"
)

// String returns the status as a plain string.
func (s OrderStatus) String() string { return string(s) }

// Ticker is an immutable market snapshot for a pair.
type Ticker struct {
	Ask    decimal.Decimal
	Bid    decimal.Decimal
	Low    decimal.Decimal
	High   decimal.Decimal
	Last   decimal.Decimal
	Volume decimal.Decimal
}

var tickerSchema = Schema{
	"ask":    castDecimal,
	"bid":    castDecimal,
	"low":    castDecimal,
	"high":   castDecimal,
	"last":   castDecimal,
	"volume": castDecimal,
}

// NewTicker builds a Ticker from a flat field map. Every schema field must
// be present and decimal-castable.
func NewTicker(fields FieldMap) (*Ticker, error) {
	cast, err := tickerSchema.Apply("Ticker", fields)
	if err != nil {
		return nil, err
	}
	if err := requireFields("Ticker", cast, "ask", "bid", "low", "high", "last", "volume"); err != nil {
		return nil, err
	}
	return &Ticker{
		Ask:    fieldDecimal(cast, "ask"),
		Bid:    fieldDecimal(cast, "bid"),
		Low:    fieldDecimal(cast, "low"),
		High:   fieldDecimal(cast, "high"),
		Last:   fieldDecimal(cast, "last"),
		Volume: fieldDecimal(cast, "volume"),
	}, nil
}

// Level is one resting price level of an order book. Amount is always in
// the base crypto unit; derivative exchanges convert contracts before a
// Level is built.
type Level struct {
	Price  decimal.Decimal
	Amount decimal.Decimal
}

// OrderBook is the normalized market depth for a pair. Both sides are
// sorted descending by price: best bid first on the bid side, and the
// cheapest ask LAST on the ask side.
type OrderBook struct {
	Asks []Level
	Bids []Level
}

var orderBookSchema = Schema{
	"asks": castLevelsDesc,
	"bids": castLevelsDesc,
}

// NewOrderBook builds an OrderBook from a flat field map, re-sorting both
// sides descending regardless of the exchange's native order.
func NewOrderBook(fields FieldMap) (*OrderBook, error) {
	cast, err := orderBookSchema.Apply("OrderBook", fields)
	if err != nil {
		return nil, err
	}
	if err := requireFields("OrderBook", cast, "asks", "bids"); err != nil {
		return nil, err
	}
	asks, _ := cast["asks"].([]Level)
	bids, _ := cast["bids"].([]Level)
	return &OrderBook{Asks: asks, Bids: bids}, nil
}

// AccountBalance is the held amount of one currency. Zero amounts are
// valid and are not omitted.
type AccountBalance struct {
	Symbol currency.Symbol
	Amount decimal.Decimal
}

var accountBalanceSchema = Schema{
	"symbol": castSymbol,
	"amount": castDecimal,
}

// NewAccountBalance builds an AccountBalance from a flat field map.
func NewAccountBalance(fields FieldMap) (*AccountBalance, error) {
	cast, err := accountBalanceSchema.Apply("AccountBalance", fields)
	if err != nil {
		return nil, err
	}
	if err := requireFields("AccountBalance", cast, "symbol", "amount"); err != nil {
		return nil, err
	}
	symbol, _ := cast["symbol"].(currency.Symbol)
	return &AccountBalance{
		Symbol: symbol,
		Amount: fieldDecimal(cast, "amount"),
	}, nil
}

// ZeroBalance returns a synthesized zero-amount balance for a symbol the
// account does not hold.
func ZeroBalance(symbol currency.Symbol) *AccountBalance {
	return &AccountBalance{Symbol: symbol, Amount: decimal.Zero}
}

// Order is a canonical exchange order. Status is derived from each
// exchange's liveness or fill flags, never copied verbatim.
type Order struct {
	ID     string
	Action Action
	Amount decimal.Decimal
	Price  decimal.Decimal
	Pair   currency.Pair
	Type   OrderType
	Status OrderStatus
}

var orderSchema = Schema{
	"id":          castString,
	"action":      restrictedTo("sell", "buy"),
	"amount":      castDecimal,
	"price":       castDecimal,
	"symbol_pair": castPair,
	"type":        restrictedTo("limit", "market"),
	"status":      restrictedTo("open", "closed"),
}

// NewOrder builds an Order from a flat field map. Some exchanges answer
// order creation with only an ID; all other fields are required only when
// present in the payload.
func NewOrder(fields FieldMap) (*Order, error) {
	cast, err := orderSchema.Apply("Order", fields)
	if err != nil {
		return nil, err
	}
	if err := requireFields("Order", cast, "id"); err != nil {
		return nil, err
	}
	pair, _ := cast["symbol_pair"].(currency.Pair)
	return &Order{
		ID:     fieldString(cast, "id"),
		Action: Action(fieldString(cast, "action")),
		Amount: fieldDecimal(cast, "amount"),
		Price:  fieldDecimal(cast, "price"),
		Pair:   pair,
		Type:   OrderType(fieldString(cast, "type")),
		Status: OrderStatus(fieldString(cast, "status")),
	}, nil
}

// Position is a canonical open position. Amount is always positive; the
// exchange's sign convention is folded into Action. ID is nil when the
// exchange's position API has no identifier (OKEx).
type Position struct {
	ID         *string
	Action     Action
	Amount     decimal.Decimal
	Price      decimal.Decimal
	Pair       currency.Pair
	ProfitLoss decimal.Decimal
}

var positionSchema = Schema{
	"id":          castOptionalString,
	"action":      restrictedTo("sell", "buy"),
	"amount":      castDecimal,
	"price":       castDecimal,
	"symbol_pair": castPair,
	"profit_loss": castDecimal,
}

// NewPosition builds a Position from a flat field map.
func NewPosition(fields FieldMap) (*Position, error) {
	cast, err := positionSchema.Apply("Position", fields)
	if err != nil {
		return nil, err
	}
	if err := requireFields("Position", cast, "action", "amount", "price", "symbol_pair", "profit_loss"); err != nil {
		return nil, err
	}
	id, _ := cast["id"].(*string)
	pair, _ := cast["symbol_pair"].(currency.Pair)
	return &Position{
		ID:         id,
		Action:     Action(fieldString(cast, "action")),
		Amount:     fieldDecimal(cast, "amount"),
		Price:      fieldDecimal(cast, "price"),
		Pair:       pair,
		ProfitLoss: fieldDecimal(cast, "profit_loss"),
	}, nil
}
