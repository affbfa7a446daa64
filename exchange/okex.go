package exchange

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/evdnx/gohttpcl"
	metrics "github.com/evdnx/gotrademetrics"
	"github.com/shopspring/decimal"

	"github.com/evdnx/goxchange/cache"
	"github.com/evdnx/goxchange/currency"
	common "github.com/evdnx/goxchange/exchange/common"
	"github.com/evdnx/goxchange/models"
)

// OKExClient implements the ExchangeClient interface for OKEx quarterly
// futures. Amounts on the wire are whole contracts, not crypto; the client
// converts in both directions using the contract unit amount and a cached
// last ticker price.
type OKExClient struct {
	*common.BaseClient
	httpClient  *gohttpcl.Client
	httpTimeout time.Duration
	baseURL     string
	tickers     *cache.TickerCache
}

const (
	okexHTTPTimeout  = 10 * time.Second
	okexContractType = "quarter"
	okexLeverRate    = "10"
)

// okexActionCodes are the numeric order types OKEx expects: opening and
// closing a position are different actions on the same side.
const (
	okexOpenLong   = 1
	okexOpenShort  = 2
	okexCloseLong  = 3
	okexCloseShort = 4
)

// okexActions collapses the four wire action codes back to buy/sell.
var okexActions = map[int64]string{
	okexOpenLong:   "buy",
	okexOpenShort:  "sell",
	okexCloseLong:  "buy",
	okexCloseShort: "sell",
}

// okexOrderStatus collapses OKEx's five order states onto open/closed:
// cancelled and fully filled are closed, everything else is still open.
var okexOrderStatus = map[int64]string{
	-1: "closed",
	0:  "open",
	1:  "open",
	2:  "closed",
	4:  "open",
}

// okexPairs holds every pair tradeable on OKEx futures. The wire spelling
// matches the canonical one.
var okexPairs = map[currency.Pair]string{
	currency.BTCUSD: "btc_usd",
	currency.ETHUSD: "eth_usd",
	currency.ETCUSD: "etc_usd",
	currency.LTCUSD: "ltc_usd",
	currency.BCHUSD: "bch_usd",
	currency.XRPUSD: "xrp_usd",
	currency.EOSUSD: "eos_usd",
	currency.BTGUSD: "btg_usd",
}

// okexUnitAmounts gives the USD value of one contract per pair.
var okexUnitAmounts = map[currency.Pair]decimal.Decimal{
	currency.BTCUSD: decimal.NewFromInt(100),
	currency.ETHUSD: decimal.NewFromInt(10),
	currency.ETCUSD: decimal.NewFromInt(10),
	currency.LTCUSD: decimal.NewFromInt(10),
	currency.BCHUSD: decimal.NewFromInt(10),
	currency.XRPUSD: decimal.NewFromInt(10),
	currency.EOSUSD: decimal.NewFromInt(10),
	currency.BTGUSD: decimal.NewFromInt(10),
}

// NewOKExClient creates a new OKEx client
func NewOKExClient(apiKey, apiSecret string, m *metrics.Metrics) *OKExClient {
	return NewOKExClientWithOptions(apiKey, apiSecret, Options{Metrics: m})
}

// NewOKExClientWithOptions creates an OKEx client with explicit timeout
// and retry settings
func NewOKExClientWithOptions(apiKey, apiSecret string, opts Options) *OKExClient {
	timeout := opts.timeoutOr(okexHTTPTimeout)
	return &OKExClient{
		BaseClient:  common.NewBaseClient("OKEx", apiKey, apiSecret),
		httpClient:  newHTTPClient(timeout, opts.retries(), opts.Metrics, "OKEx"),
		httpTimeout: timeout,
		baseURL:     "https://www.okex.com/api",
		tickers:     cache.NewTickerCache(),
	}
}

// Close releases the ticker cache's background sweeper
func (c *OKExClient) Close() {
	c.tickers.Stop()
}

func (c *OKExClient) wirePair(pair currency.Pair) (string, error) {
	if err := common.ValidatePair(pair); err != nil {
		return "", err
	}
	wire, ok := okexPairs[pair]
	if !ok {
		return "", common.NewValidationError("unsupported_symbol_pair",
			fmt.Sprintf("symbol pair %q is not traded on OKEx", pair))
	}
	return wire, nil
}

// signParams computes the request signature: the parameters concatenated
// in key order, the secret appended, MD5 hashed and upper-cased. That is
// what the v1 futures API verifies.
func (c *OKExClient) signParams(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var sign strings.Builder
	for _, key := range keys {
		sign.WriteString(key)
		sign.WriteString("=")
		sign.WriteString(params[key])
		sign.WriteString("&")
	}
	sign.WriteString("secret_key=")
	sign.WriteString(c.APISecret())
	digest := md5.Sum([]byte(sign.String()))
	return strings.ToUpper(hex.EncodeToString(digest[:]))
}

func (c *OKExClient) get(path string, params url.Values) ([]byte, error) {
	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	payload, err := doRequest(c.httpClient, nil, http.MethodGet, target, nil, nil, c.httpTimeout)
	if err != nil {
		return nil, err
	}
	if err := checkEmbeddedError(c.GetName(), payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (c *OKExClient) signedPost(path string, params map[string]string) ([]byte, error) {
	if params == nil {
		params = map[string]string{}
	}
	params["api_key"] = c.APIKey()
	params["sign"] = c.signParams(params)
	form := url.Values{}
	for key, value := range params {
		form.Set(key, value)
	}
	headers := map[string]string{"Content-Type": "application/x-www-form-urlencoded"}
	payload, err := doRequest(c.httpClient, nil, http.MethodPost, c.baseURL+path,
		[]byte(form.Encode()), headers, c.httpTimeout)
	if err != nil {
		return nil, err
	}
	if err := checkEmbeddedError(c.GetName(), payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// --- raw payloads ----------------------------------------------------------

type okexTickerInfo struct {
	Sell json.Number `json:"sell"`
	Buy  json.Number `json:"buy"`
	Low  json.Number `json:"low"`
	High json.Number `json:"high"`
	Last json.Number `json:"last"`
	Vol  json.Number `json:"vol"`
}

type okexTicker struct {
	Ticker okexTickerInfo `json:"ticker"`
}

type okexBook struct {
	Asks [][]json.Number `json:"asks"`
	Bids [][]json.Number `json:"bids"`
}

type okexBalanceInfo struct {
	AccountRights json.Number `json:"account_rights"`
}

type okexUserInfo struct {
	Info map[string]okexBalanceInfo `json:"info"`
}

type okexOrder struct {
	OrderID json.Number `json:"order_id"`
	Type    json.Number `json:"type"`
	Amount  json.Number `json:"amount"`
	Price   json.Number `json:"price"`
	Symbol  string      `json:"symbol"`
	Status  json.Number `json:"status"`
}

type okexOrders struct {
	Orders []okexOrder `json:"orders"`
}

type okexNewOrder struct {
	OrderID json.Number `json:"order_id"`
}

type okexHolding struct {
	BuyAmount      json.Number `json:"buy_amount"`
	BuyPriceCost   json.Number `json:"buy_price_cost"`
	BuyProfitReal  json.Number `json:"buy_profit_real"`
	SellAmount     json.Number `json:"sell_amount"`
	SellPriceCost  json.Number `json:"sell_price_cost"`
	SellProfitReal json.Number `json:"sell_profit_real"`
	Symbol         string      `json:"symbol"`
}

type okexPositions struct {
	Holding []okexHolding `json:"holding"`
}

// --- normalizers -----------------------------------------------------------

func normalizeOKExTicker(raw okexTicker) (*models.Ticker, error) {
	ticker, err := models.NewTicker(models.FieldMap{
		"ask":    raw.Ticker.Sell,
		"bid":    raw.Ticker.Buy,
		"low":    raw.Ticker.Low,
		"high":   raw.Ticker.High,
		"last":   raw.Ticker.Last,
		"volume": raw.Ticker.Vol,
	})
	if err != nil {
		return nil, common.NewNormalizationError("could not normalize OKEx ticker", err)
	}
	return ticker, nil
}

// okexLevels converts [price, contracts] pairs to levels, translating the
// contract counts to crypto amounts with the given last price and unit.
func okexLevels(entries [][]json.Number, lastPrice, unitAmount decimal.Decimal) ([]models.Level, error) {
	levels := make([]models.Level, len(entries))
	for i, entry := range entries {
		if len(entry) < 2 {
			return nil, fmt.Errorf("order book level %v has fewer than two elements", entry)
		}
		price, err := decimal.NewFromString(entry[0].String())
		if err != nil {
			return nil, err
		}
		contracts, err := decimal.NewFromString(entry[1].String())
		if err != nil {
			return nil, err
		}
		levels[i] = models.Level{
			Price:  price,
			Amount: models.ContractsToCrypto(contracts, lastPrice, unitAmount),
		}
	}
	return levels, nil
}

// normalizeOKExOrderBook takes the last price and contract unit amount as
// explicit arguments; the caller decides how fresh the price has to be.
func normalizeOKExOrderBook(raw okexBook, lastPrice, unitAmount decimal.Decimal) (*models.OrderBook, error) {
	asks, err := okexLevels(raw.Asks, lastPrice, unitAmount)
	if err != nil {
		return nil, common.NewNormalizationError("could not normalize OKEx order book asks", err)
	}
	bids, err := okexLevels(raw.Bids, lastPrice, unitAmount)
	if err != nil {
		return nil, common.NewNormalizationError("could not normalize OKEx order book bids", err)
	}
	book, err := models.NewOrderBook(models.FieldMap{"asks": asks, "bids": bids})
	if err != nil {
		return nil, common.NewNormalizationError("could not normalize OKEx order book", err)
	}
	return book, nil
}

func normalizeOKExBalance(wireSymbol string, raw okexBalanceInfo) (*models.AccountBalance, error) {
	balance, err := models.NewAccountBalance(models.FieldMap{
		"symbol": wireSymbol,
		"amount": raw.AccountRights,
	})
	if err != nil {
		return nil, common.NewNormalizationError("could not normalize OKEx balance", err)
	}
	return balance, nil
}

// normalizeOKExOrder maps the numeric action and status codes onto the
// canonical values. Unknown codes fail the whole normalization rather
// than being guessed at.
func normalizeOKExOrder(raw okexOrder) (*models.Order, error) {
	typeCode, err := raw.Type.Int64()
	if err != nil {
		return nil, common.NewNormalizationError("could not normalize OKEx order type code", err)
	}
	action, ok := okexActions[typeCode]
	if !ok {
		return nil, common.NewNormalizationError(
			fmt.Sprintf("unknown OKEx order type code %d", typeCode), nil)
	}
	statusCode, err := raw.Status.Int64()
	if err != nil {
		return nil, common.NewNormalizationError("could not normalize OKEx order status code", err)
	}
	status, ok := okexOrderStatus[statusCode]
	if !ok {
		return nil, common.NewNormalizationError(
			fmt.Sprintf("unknown OKEx order status code %d", statusCode), nil)
	}
	order, err := models.NewOrder(models.FieldMap{
		"id":          raw.OrderID,
		"action":      action,
		"amount":      raw.Amount,
		"price":       raw.Price,
		"symbol_pair": raw.Symbol,
		"type":        "limit",
		"status":      status,
	})
	if err != nil {
		return nil, common.NewNormalizationError("could not normalize OKEx order", err)
	}
	return order, nil
}

// normalizeOKExPositions splits a holding into up to two positions, one
// per side with a non-zero amount. OKEx has no position IDs, so ID stays
// nil.
func normalizeOKExPositions(raw okexPositions) ([]*models.Position, error) {
	if len(raw.Holding) == 0 {
		return []*models.Position{}, nil
	}
	holding := raw.Holding[0]
	sides := []struct {
		action     string
		amount     json.Number
		price      json.Number
		profitLoss json.Number
	}{
		{"buy", holding.BuyAmount, holding.BuyPriceCost, holding.BuyProfitReal},
		{"sell", holding.SellAmount, holding.SellPriceCost, holding.SellProfitReal},
	}
	positions := make([]*models.Position, 0, 2)
	for _, side := range sides {
		amount, err := decimal.NewFromString(side.amount.String())
		if err != nil {
			return nil, common.NewNormalizationError("could not normalize OKEx position amount", err)
		}
		if amount.IsZero() {
			continue
		}
		position, err := models.NewPosition(models.FieldMap{
			"id":          nil,
			"action":      side.action,
			"amount":      amount,
			"price":       side.price,
			"symbol_pair": holding.Symbol,
			"profit_loss": side.profitLoss,
		})
		if err != nil {
			return nil, common.NewNormalizationError("could not normalize OKEx position", err)
		}
		positions = append(positions, position)
	}
	return positions, nil
}

// lastTicker returns a cached ticker for the pair, fetching a fresh one
// only when the cache has expired.
func (c *OKExClient) lastTicker(pair currency.Pair) (*models.Ticker, error) {
	if ticker, ok := c.tickers.Get(c.GetName(), pair); ok {
		return ticker, nil
	}
	return c.GetTicker(pair)
}

// --- public endpoints ------------------------------------------------------

// GetTicker returns the normalized ticker for a pair and refreshes the
// ticker cache.
func (c *OKExClient) GetTicker(pair currency.Pair) (*models.Ticker, error) {
	wire, err := c.wirePair(pair)
	if err != nil {
		return nil, err
	}
	payload, err := c.get("/v1/future_ticker.do", url.Values{
		"symbol":        {wire},
		"contract_type": {okexContractType},
	})
	if err != nil {
		return nil, err
	}
	var raw okexTicker
	if err := decodeJSON(payload, &raw); err != nil {
		return nil, err
	}
	ticker, err := normalizeOKExTicker(raw)
	if err != nil {
		return nil, err
	}
	c.tickers.Set(c.GetName(), pair, ticker)
	return ticker, nil
}

// GetOrderBook returns the normalized order book for a pair. Contract
// counts are converted to crypto amounts using the cached last price.
func (c *OKExClient) GetOrderBook(pair currency.Pair) (*models.OrderBook, error) {
	wire, err := c.wirePair(pair)
	if err != nil {
		return nil, err
	}
	ticker, err := c.lastTicker(pair)
	if err != nil {
		return nil, err
	}
	if ticker.Last.IsZero() {
		return nil, common.NewNormalizationError(
			fmt.Sprintf("OKEx last price for %s is zero, cannot convert contract amounts", pair), nil)
	}
	payload, err := c.get("/v1/future_depth.do", url.Values{
		"symbol":        {wire},
		"contract_type": {okexContractType},
		"size":          {"100"},
	})
	if err != nil {
		return nil, err
	}
	var raw okexBook
	if err := decodeJSON(payload, &raw); err != nil {
		return nil, err
	}
	return normalizeOKExOrderBook(raw, ticker.Last, okexUnitAmounts[pair])
}

// --- authenticated endpoints -----------------------------------------------

// GetAccountBalances returns one balance per currency in the futures
// account, using each currency's account rights as the amount.
func (c *OKExClient) GetAccountBalances() ([]*models.AccountBalance, error) {
	payload, err := c.signedPost("/v1/future_userinfo.do", nil)
	if err != nil {
		return nil, err
	}
	var raw okexUserInfo
	if err := decodeJSON(payload, &raw); err != nil {
		return nil, err
	}
	symbols := make([]string, 0, len(raw.Info))
	for symbol := range raw.Info {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	balances := make([]*models.AccountBalance, 0, len(symbols))
	for _, symbol := range symbols {
		balance, err := normalizeOKExBalance(symbol, raw.Info[symbol])
		if err != nil {
			return nil, err
		}
		balances = append(balances, balance)
	}
	return balances, nil
}

// GetAccountBalance returns the balance for one symbol, synthesizing a
// zero-amount balance when the account does not hold it.
func (c *OKExClient) GetAccountBalance(symbol currency.Symbol) (*models.AccountBalance, error) {
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

// GetOpenOrders returns normalized unfilled orders for a pair
func (c *OKExClient) GetOpenOrders(pair currency.Pair) ([]*models.Order, error) {
	wire, err := c.wirePair(pair)
	if err != nil {
		return nil, err
	}
	payload, err := c.signedPost("/v1/future_order_info.do", map[string]string{
		"symbol":        wire,
		"contract_type": okexContractType,
		"status":        "1", // unfilled
		"order_id":      "-1",
		"current_page":  "1",
		"page_length":   "50",
	})
	if err != nil {
		return nil, err
	}
	var raw okexOrders
	if err := decodeJSON(payload, &raw); err != nil {
		return nil, err
	}
	return normalizeOKExOrders(raw.Orders, pair)
}

// normalizeOKExOrders normalizes a batch of orders, keeping only those on
// the given pair. One bad element fails the whole batch.
func normalizeOKExOrders(raws []okexOrder, pair currency.Pair) ([]*models.Order, error) {
	orders := make([]*models.Order, 0, len(raws))
	for _, rawOrder := range raws {
		order, err := normalizeOKExOrder(rawOrder)
		if err != nil {
			return nil, err
		}
		if order.Pair == pair {
			orders = append(orders, order)
		}
	}
	return orders, nil
}

// OpenOrder places a new order. The amount is given in crypto and
// converted to whole contracts before hitting the wire.
func (c *OKExClient) OpenOrder(req common.OrderRequest) (*models.Order, error) {
	return c.openOrder(req, false, false)
}

func (c *OKExClient) openOrder(req common.OrderRequest, amountInContracts, closing bool) (*models.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	wire, err := c.wirePair(req.Pair)
	if err != nil {
		return nil, err
	}

	var actionCode int
	switch {
	case closing && req.Action == common.ActionSell:
		actionCode = okexCloseLong
	case closing:
		actionCode = okexCloseShort
	case req.Action == common.ActionSell:
		actionCode = okexOpenShort
	default:
		actionCode = okexOpenLong
	}

	contracts := req.Amount
	if amountInContracts {
		if !contracts.Equal(contracts.Truncate(0)) || contracts.LessThan(decimal.NewFromInt(1)) {
			return nil, common.NewValidationError("invalid_amount",
				"contract amounts must be whole numbers greater or equal to 1")
		}
	} else {
		ticker, err := c.lastTicker(req.Pair)
		if err != nil {
			return nil, err
		}
		contracts, err = models.CryptoToContracts(req.Amount, ticker.Last, okexUnitAmounts[req.Pair])
		if err != nil {
			return nil, err
		}
	}

	matchPrice := "0"
	if req.Type == common.OrderTypeMarket {
		// with match_price=1 the price field is ignored upstream
		matchPrice = "1"
	}

	payload, err := c.signedPost("/v1/future_trade.do", map[string]string{
		"symbol":        wire,
		"contract_type": okexContractType,
		"price":         req.Price.String(),
		"match_price":   matchPrice,
		"amount":        contracts.String(),
		"type":          strconv.Itoa(actionCode),
		"lever_rate":    okexLeverRate,
	})
	if err != nil {
		return nil, err
	}
	var raw okexNewOrder
	if err := decodeJSON(payload, &raw); err != nil {
		return nil, err
	}
	order, err := models.NewOrder(models.FieldMap{"id": raw.OrderID})
	if err != nil {
		return nil, common.NewNormalizationError("could not normalize OKEx order", err)
	}
	order.Action = req.Action
	order.Amount = contracts
	order.Price = req.Price
	order.Pair = req.Pair
	order.Type = req.Type
	order.Status = models.OrderStatusOpen
	return order, nil
}

// CancelOrder cancels a single order by ID. The API scopes cancellation
// to a pair, so the order is located by scanning every pair's open
// orders first.
func (c *OKExClient) CancelOrder(orderID string) error {
	if _, err := strconv.ParseInt(orderID, 10, 64); err != nil {
		return common.NewValidationError("invalid_order_id",
			fmt.Sprintf("order ID %q is not numeric", orderID))
	}
	pairs := make([]string, 0, len(okexPairs))
	for pair := range okexPairs {
		pairs = append(pairs, string(pair))
	}
	sort.Strings(pairs)
	for _, key := range pairs {
		pair := currency.Pair(key)
		orders, err := c.GetOpenOrders(pair)
		if err != nil {
			return err
		}
		for _, order := range orders {
			if order.ID != orderID {
				continue
			}
			_, err := c.signedPost("/v1/future_cancel.do", map[string]string{
				"symbol":        okexPairs[pair],
				"contract_type": okexContractType,
				"order_id":      orderID,
			})
			return err
		}
	}
	return common.NewValidationError("unknown_order",
		fmt.Sprintf("could not find order with ID %q", orderID))
}

// CancelAllOrders cancels every open order on a pair in one batched call
func (c *OKExClient) CancelAllOrders(pair currency.Pair) error {
	orders, err := c.GetOpenOrders(pair)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	for i, order := range orders {
		ids[i] = order.ID
	}
	_, err = c.signedPost("/v1/future_cancel.do", map[string]string{
		"symbol":        okexPairs[pair],
		"contract_type": okexContractType,
		"order_id":      strings.Join(ids, ","),
	})
	return err
}

// GetOpenPositions returns normalized open positions for a pair. Amounts
// stay in contracts; callers closing them pass the amounts back as is.
func (c *OKExClient) GetOpenPositions(pair currency.Pair) ([]*models.Position, error) {
	wire, err := c.wirePair(pair)
	if err != nil {
		return nil, err
	}
	payload, err := c.signedPost("/v1/future_position.do", map[string]string{
		"symbol":        wire,
		"contract_type": okexContractType,
	})
	if err != nil {
		return nil, err
	}
	var raw okexPositions
	if err := decodeJSON(payload, &raw); err != nil {
		return nil, err
	}
	return normalizeOKExPositions(raw)
}

// ClosePosition is not supported: the OKEx API does not expose position IDs
func (c *OKExClient) ClosePosition(positionID string, pair currency.Pair) error {
	return common.NewValidationError("unsupported_operation",
		"the OKEx API does not support position IDs")
}

// CloseAllPositions closes every open position on the pair with opposite
// market orders, amounts already expressed in contracts.
func (c *OKExClient) CloseAllPositions(pair currency.Pair) error {
	positions, err := c.GetOpenPositions(pair)
	if err != nil {
		return err
	}
	for _, position := range positions {
		_, err := c.openOrder(common.OrderRequest{
			Action: position.Action.Opposite(),
			Amount: position.Amount,
			Pair:   position.Pair,
			Price:  position.Price,
			Type:   common.OrderTypeMarket,
		}, true, true)
		if err != nil {
			return err
		}
	}
	return nil
}
