package exchange

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/evdnx/gohttpcl"
	metrics "github.com/evdnx/gotrademetrics"
	"github.com/shopspring/decimal"

	"github.com/evdnx/goxchange/currency"
	common "github.com/evdnx/goxchange/exchange/common"
	"github.com/evdnx/goxchange/models"
)

// BitfinexClient implements the ExchangeClient interface for Bitfinex
// margin trading. Bitfinex quotes amounts in base crypto directly, so no
// unit conversion is involved.
type BitfinexClient struct {
	*common.BaseClient
	httpClient  *gohttpcl.Client
	httpTimeout time.Duration
	baseURL     string
}

const bitfinexHTTPTimeout = 10 * time.Second

// bitfinexPairs maps canonical pairs to Bitfinex wire spellings.
var bitfinexPairs = map[currency.Pair]string{
	currency.BTCUSD: "btcusd",
	currency.ETHUSD: "ethusd",
	currency.LTCUSD: "ltcusd",
}

// NewBitfinexClient creates a new Bitfinex client
func NewBitfinexClient(apiKey, apiSecret string, m *metrics.Metrics) *BitfinexClient {
	return NewBitfinexClientWithOptions(apiKey, apiSecret, Options{Metrics: m})
}

// NewBitfinexClientWithOptions creates a Bitfinex client with explicit
// timeout and retry settings
func NewBitfinexClientWithOptions(apiKey, apiSecret string, opts Options) *BitfinexClient {
	timeout := opts.timeoutOr(bitfinexHTTPTimeout)
	return &BitfinexClient{
		BaseClient:  common.NewBaseClient("Bitfinex", apiKey, apiSecret),
		httpClient:  newHTTPClient(timeout, opts.retries(), opts.Metrics, "Bitfinex"),
		httpTimeout: timeout,
		baseURL:     "https://api.bitfinex.com",
	}
}

func (c *BitfinexClient) wirePair(pair currency.Pair) (string, error) {
	if err := common.ValidatePair(pair); err != nil {
		return "", err
	}
	wire, ok := bitfinexPairs[pair]
	if !ok {
		return "", common.NewValidationError("unsupported_symbol_pair",
			fmt.Sprintf("symbol pair %q is not traded on Bitfinex", pair))
	}
	return wire, nil
}

// signPayload produces the signed header set Bitfinex expects: the JSON
// payload base64-encoded and HMAC-SHA384 signed with the API secret.
func (c *BitfinexClient) signPayload(payload map[string]interface{}) (map[string]string, error) {
	dump, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	encoded := base64.StdEncoding.EncodeToString(dump)
	mac := hmac.New(sha512.New384, []byte(c.APISecret()))
	mac.Write([]byte(encoded))
	return map[string]string{
		"X-BFX-APIKEY":    c.APIKey(),
		"X-BFX-PAYLOAD":   encoded,
		"X-BFX-SIGNATURE": hex.EncodeToString(mac.Sum(nil)),
	}, nil
}

func bitfinexNonce() string {
	return strconv.FormatFloat(float64(time.Now().UnixNano())/1e9, 'f', 6, 64)
}

func (c *BitfinexClient) get(path string) ([]byte, error) {
	payload, err := doRequest(c.httpClient, nil, http.MethodGet, c.baseURL+path, nil, nil, c.httpTimeout)
	if err != nil {
		return nil, err
	}
	if err := checkEmbeddedError(c.GetName(), payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (c *BitfinexClient) signedPost(path string, extra map[string]interface{}) ([]byte, error) {
	payload := map[string]interface{}{
		"request": path,
		"nonce":   bitfinexNonce(),
	}
	for k, v := range extra {
		payload[k] = v
	}
	headers, err := c.signPayload(payload)
	if err != nil {
		return nil, err
	}
	body, err := doRequest(c.httpClient, nil, http.MethodPost, c.baseURL+path, nil, headers, c.httpTimeout)
	if err != nil {
		return nil, err
	}
	if err := checkEmbeddedError(c.GetName(), body); err != nil {
		return nil, err
	}
	return body, nil
}

// --- raw payloads ----------------------------------------------------------

type bitfinexTicker struct {
	Ask       string `json:"ask"`
	Bid       string `json:"bid"`
	Low       string `json:"low"`
	High      string `json:"high"`
	LastPrice string `json:"last_price"`
	Volume    string `json:"volume"`
}

type bitfinexBookEntry struct {
	Price  string `json:"price"`
	Amount string `json:"amount"`
}

type bitfinexBook struct {
	Asks []bitfinexBookEntry `json:"asks"`
	Bids []bitfinexBookEntry `json:"bids"`
}

type bitfinexBalance struct {
	Amount    string `json:"amount"`
	Available string `json:"available"`
	Currency  string `json:"currency"`
	Type      string `json:"type"`
}

type bitfinexOrder struct {
	ID             json.Number `json:"id"`
	Side           string      `json:"side"`
	OriginalAmount string      `json:"original_amount"`
	Price          string      `json:"price"`
	Symbol         string      `json:"symbol"`
	Type           string      `json:"type"`
	IsLive         bool        `json:"is_live"`
}

type bitfinexPosition struct {
	ID         json.Number `json:"id"`
	Amount     string      `json:"amount"`
	Base       string      `json:"base"`
	ProfitLoss string      `json:"pl"`
	Symbol     string      `json:"symbol"`
}

// --- normalizers -----------------------------------------------------------

func normalizeBitfinexTicker(raw bitfinexTicker) (*models.Ticker, error) {
	ticker, err := models.NewTicker(models.FieldMap{
		"ask":    raw.Ask,
		"bid":    raw.Bid,
		"low":    raw.Low,
		"high":   raw.High,
		"last":   raw.LastPrice,
		"volume": raw.Volume,
	})
	if err != nil {
		return nil, common.NewNormalizationError("could not normalize Bitfinex ticker", err)
	}
	return ticker, nil
}

func bitfinexLevels(entries []bitfinexBookEntry) ([]models.Level, error) {
	levels := make([]models.Level, len(entries))
	for i, entry := range entries {
		price, err := decimal.NewFromString(entry.Price)
		if err != nil {
			return nil, err
		}
		amount, err := decimal.NewFromString(entry.Amount)
		if err != nil {
			return nil, err
		}
		levels[i] = models.Level{Price: price, Amount: amount}
	}
	return levels, nil
}

func normalizeBitfinexOrderBook(raw bitfinexBook) (*models.OrderBook, error) {
	asks, err := bitfinexLevels(raw.Asks)
	if err != nil {
		return nil, common.NewNormalizationError("could not normalize Bitfinex order book asks", err)
	}
	bids, err := bitfinexLevels(raw.Bids)
	if err != nil {
		return nil, common.NewNormalizationError("could not normalize Bitfinex order book bids", err)
	}
	book, err := models.NewOrderBook(models.FieldMap{"asks": asks, "bids": bids})
	if err != nil {
		return nil, common.NewNormalizationError("could not normalize Bitfinex order book", err)
	}
	return book, nil
}

func normalizeBitfinexBalance(raw bitfinexBalance) (*models.AccountBalance, error) {
	balance, err := models.NewAccountBalance(models.FieldMap{
		"symbol": raw.Currency,
		"amount": raw.Available,
	})
	if err != nil {
		return nil, common.NewNormalizationError("could not normalize Bitfinex balance", err)
	}
	return balance, nil
}

// normalizeBitfinexOrder derives the canonical status from the is_live
// flag; Bitfinex has no status string of its own.
func normalizeBitfinexOrder(raw bitfinexOrder) (*models.Order, error) {
	status := "closed"
	if raw.IsLive {
		status = "open"
	}
	order, err := models.NewOrder(models.FieldMap{
		"id":          raw.ID,
		"action":      raw.Side,
		"amount":      raw.OriginalAmount,
		"price":       raw.Price,
		"symbol_pair": raw.Symbol,
		"type":        raw.Type,
		"status":      status,
	})
	if err != nil {
		return nil, common.NewNormalizationError("could not normalize Bitfinex order", err)
	}
	return order, nil
}

// normalizeBitfinexPosition folds the amount's sign into the action:
// negative means sell. The exchange's own type string is not trusted.
func normalizeBitfinexPosition(raw bitfinexPosition) (*models.Position, error) {
	amount, err := decimal.NewFromString(raw.Amount)
	if err != nil {
		return nil, common.NewNormalizationError("could not normalize Bitfinex position amount", err)
	}
	action := "buy"
	if amount.IsNegative() {
		action = "sell"
	}
	position, err := models.NewPosition(models.FieldMap{
		"id":          raw.ID,
		"action":      action,
		"amount":      amount.Abs(),
		"price":       raw.Base,
		"symbol_pair": raw.Symbol,
		"profit_loss": raw.ProfitLoss,
	})
	if err != nil {
		return nil, common.NewNormalizationError("could not normalize Bitfinex position", err)
	}
	return position, nil
}

// --- public endpoints ------------------------------------------------------

// GetTicker returns the normalized ticker for a pair
func (c *BitfinexClient) GetTicker(pair currency.Pair) (*models.Ticker, error) {
	wire, err := c.wirePair(pair)
	if err != nil {
		return nil, err
	}
	payload, err := c.get("/v1/pubticker/" + wire)
	if err != nil {
		return nil, err
	}
	var raw bitfinexTicker
	if err := decodeJSON(payload, &raw); err != nil {
		return nil, err
	}
	return normalizeBitfinexTicker(raw)
}

// GetOrderBook returns the normalized order book for a pair
func (c *BitfinexClient) GetOrderBook(pair currency.Pair) (*models.OrderBook, error) {
	wire, err := c.wirePair(pair)
	if err != nil {
		return nil, err
	}
	payload, err := c.get("/v1/book/" + wire)
	if err != nil {
		return nil, err
	}
	var raw bitfinexBook
	if err := decodeJSON(payload, &raw); err != nil {
		return nil, err
	}
	return normalizeBitfinexOrderBook(raw)
}

// --- authenticated endpoints -----------------------------------------------

// GetAccountBalances returns one balance per currency held in the trading
// wallet. Deposit and exchange wallets are ignored.
func (c *BitfinexClient) GetAccountBalances() ([]*models.AccountBalance, error) {
	payload, err := c.signedPost("/v1/balances", nil)
	if err != nil {
		return nil, err
	}
	var raws []bitfinexBalance
	if err := decodeJSON(payload, &raws); err != nil {
		return nil, err
	}
	balances := make([]*models.AccountBalance, 0, len(raws))
	for _, raw := range raws {
		if raw.Type != "trading" {
			continue
		}
		balance, err := normalizeBitfinexBalance(raw)
		if err != nil {
			return nil, err
		}
		balances = append(balances, balance)
	}
	return balances, nil
}

// GetAccountBalance returns the balance for one symbol, synthesizing a
// zero-amount balance when the account does not hold it.
func (c *BitfinexClient) GetAccountBalance(symbol currency.Symbol) (*models.AccountBalance, error) {
	if err := common.ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	balances, err := c.GetAccountBalances()
	if err != nil {
		return nil, err
	}
	for _, balance := range balances {
		if balance.Symbol == symbol {
			return balance, nil
		}
	}
	return models.ZeroBalance(symbol), nil
}

// GetOpenOrders returns normalized open orders for a pair
func (c *BitfinexClient) GetOpenOrders(pair currency.Pair) ([]*models.Order, error) {
	if err := common.ValidatePair(pair); err != nil {
		return nil, err
	}
	payload, err := c.signedPost("/v1/orders", nil)
	if err != nil {
		return nil, err
	}
	var raws []bitfinexOrder
	if err := decodeJSON(payload, &raws); err != nil {
		return nil, err
	}
	return normalizeBitfinexOrders(raws, pair)
}

// normalizeBitfinexOrders normalizes a batch of orders, keeping only those
// on the given pair. One bad element fails the whole batch.
func normalizeBitfinexOrders(raws []bitfinexOrder, pair currency.Pair) ([]*models.Order, error) {
	orders := make([]*models.Order, 0, len(raws))
	for _, raw := range raws {
		order, err := normalizeBitfinexOrder(raw)
		if err != nil {
			return nil, err
		}
		if order.Pair == pair {
			orders = append(orders, order)
		}
	}
	return orders, nil
}

// OpenOrder places a new order and returns its normalized form
func (c *BitfinexClient) OpenOrder(req common.OrderRequest) (*models.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	wire, err := c.wirePair(req.Pair)
	if err != nil {
		return nil, err
	}
	payload, err := c.signedPost("/v1/order/new", map[string]interface{}{
		"side":   req.Action.String(),
		"amount": req.Amount.String(),
		"symbol": wire,
		"price":  req.Price.String(),
		"type":   req.Type.String(),
	})
	if err != nil {
		return nil, err
	}
	var raw bitfinexOrder
	if err := decodeJSON(payload, &raw); err != nil {
		return nil, err
	}
	return normalizeBitfinexOrder(raw)
}

// CancelOrder cancels a single order by ID
func (c *BitfinexClient) CancelOrder(orderID string) error {
	id, err := strconv.ParseInt(orderID, 10, 64)
	if err != nil {
		return common.NewValidationError("invalid_order_id",
			fmt.Sprintf("order ID %q is not numeric", orderID))
	}
	_, err = c.signedPost("/v1/order/cancel", map[string]interface{}{"order_id": id})
	return err
}

// CancelAllOrders cancels every open order. Bitfinex has no per-pair
// cancel endpoint, so the pair argument is validated and all orders go.
func (c *BitfinexClient) CancelAllOrders(pair currency.Pair) error {
	if err := common.ValidatePair(pair); err != nil {
		return err
	}
	_, err := c.signedPost("/v1/order/cancel/all", nil)
	return err
}

// GetOpenPositions returns normalized open positions for a pair
func (c *BitfinexClient) GetOpenPositions(pair currency.Pair) ([]*models.Position, error) {
	if err := common.ValidatePair(pair); err != nil {
		return nil, err
	}
	payload, err := c.signedPost("/v1/positions", nil)
	if err != nil {
		return nil, err
	}
	var raws []bitfinexPosition
	if err := decodeJSON(payload, &raws); err != nil {
		return nil, err
	}
	positions := make([]*models.Position, 0, len(raws))
	for _, raw := range raws {
		position, err := normalizeBitfinexPosition(raw)
		if err != nil {
			return nil, err
		}
		if position.Pair == pair {
			positions = append(positions, position)
		}
	}
	return positions, nil
}

// ClosePosition closes a single position by opening an opposite market
// order for the same amount.
func (c *BitfinexClient) ClosePosition(positionID string, pair currency.Pair) error {
	positions, err := c.GetOpenPositions(pair)
	if err != nil {
		return err
	}
	for _, position := range positions {
		if position.ID == nil || *position.ID != positionID {
			continue
		}
		_, err := c.OpenOrder(common.OrderRequest{
			Action: position.Action.Opposite(),
			Amount: position.Amount,
			Pair:   position.Pair,
			Price:  position.Price,
			Type:   common.OrderTypeMarket,
		})
		return err
	}
	return common.NewValidationError("unknown_position",
		fmt.Sprintf("could not find position with ID %q", positionID))
}

// CloseAllPositions closes every open position on the pair by opening
// opposite market orders.
func (c *BitfinexClient) CloseAllPositions(pair currency.Pair) error {
	positions, err := c.GetOpenPositions(pair)
	if err != nil {
		return err
	}
	for _, position := range positions {
		_, err := c.OpenOrder(common.OrderRequest{
			Action: position.Action.Opposite(),
			Amount: position.Amount,
			Pair:   position.Pair,
			Price:  position.Price,
			Type:   common.OrderTypeMarket,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
