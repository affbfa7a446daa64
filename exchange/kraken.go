package exchange

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/evdnx/gohttpcl"
	metrics "github.com/evdnx/gotrademetrics"
	"github.com/shopspring/decimal"

	"github.com/evdnx/goxchange/currency"
	common "github.com/evdnx/goxchange/exchange/common"
	"github.com/evdnx/goxchange/models"
)

// KrakenClient implements the ExchangeClient interface for Kraken margin
// trading. Every order is tagged with a deterministic per-pair userref so
// that CancelAllOrders can cancel a whole pair in one call.
type KrakenClient struct {
	*common.BaseClient
	httpClient  *gohttpcl.Client
	httpTimeout time.Duration
	baseURL     string
}

const (
	krakenHTTPTimeout = 10 * time.Second
	krakenLeverage    = "2"
	// krakenUserrefBase seeds the per-pair userref tags. Any fixed value
	// works as long as it stays stable across orders.
	krakenUserrefBase = 7886259
)

// krakenPairs maps canonical pairs to the spellings Kraken accepts in
// requests. Responses may come back in the older X/Z notation instead
// (XXBTZUSD); normalization handles both.
var krakenPairs = map[currency.Pair]string{
	currency.BTCUSD: "XBTUSD",
	currency.ETHUSD: "ETHUSD",
	currency.ETCUSD: "ETCUSD",
	currency.LTCUSD: "LTCUSD",
	currency.BCHUSD: "BCHUSD",
	currency.XRPUSD: "XRPUSD",
	currency.EOSUSD: "EOSUSD",
}

// NewKrakenClient creates a new Kraken client
func NewKrakenClient(apiKey, apiSecret string, m *metrics.Metrics) *KrakenClient {
	return NewKrakenClientWithOptions(apiKey, apiSecret, Options{Metrics: m})
}

// NewKrakenClientWithOptions creates a Kraken client with explicit timeout
// and retry settings
func NewKrakenClientWithOptions(apiKey, apiSecret string, opts Options) *KrakenClient {
	timeout := opts.timeoutOr(krakenHTTPTimeout)
	return &KrakenClient{
		BaseClient:  common.NewBaseClient("Kraken", apiKey, apiSecret),
		httpClient:  newHTTPClient(timeout, opts.retries(), opts.Metrics, "Kraken"),
		httpTimeout: timeout,
		baseURL:     "https://api.kraken.com",
	}
}

func (c *KrakenClient) wirePair(pair currency.Pair) (string, error) {
	if err := common.ValidatePair(pair); err != nil {
		return "", err
	}
	wire, ok := krakenPairs[pair]
	if !ok {
		return "", common.NewValidationError("unsupported_symbol_pair",
			fmt.Sprintf("symbol pair %q is not traded on Kraken", pair))
	}
	return wire, nil
}

// userref returns the order tag for a pair: the shared base with the
// pair's position in the sorted pair list appended.
func (c *KrakenClient) userref(pair currency.Pair) (string, error) {
	if _, err := c.wirePair(pair); err != nil {
		return "", err
	}
	keys := make([]string, 0, len(krakenPairs))
	for p := range krakenPairs {
		keys = append(keys, string(p))
	}
	sort.Strings(keys)
	for i, key := range keys {
		if key == string(pair) {
			return fmt.Sprintf("%d%d", krakenUserrefBase, i), nil
		}
	}
	return "", common.NewValidationError("unsupported_symbol_pair",
		fmt.Sprintf("symbol pair %q is not traded on Kraken", pair))
}

// signPayload computes the API-Sign header: HMAC-SHA512 over the URL path
// concatenated with SHA256(nonce + form body), keyed with the base64
// decoded API secret.
func (c *KrakenClient) signPayload(path string, form url.Values) (string, error) {
	secret, err := base64.StdEncoding.DecodeString(c.APISecret())
	if err != nil {
		return "", common.NewAuthenticationError("Kraken API secret is not valid base64")
	}
	postdata := form.Encode()
	digest := sha256.Sum256([]byte(form.Get("nonce") + postdata))
	mac := hmac.New(sha512.New, secret)
	mac.Write([]byte(path))
	mac.Write(digest[:])
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

func krakenNonce() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10)
}

// krakenEnvelope is the outer shape of every Kraken response.
type krakenEnvelope struct {
	Error  []string        `json:"error"`
	Result json.RawMessage `json:"result"`
}

// krakenResult unwraps the response envelope. A non-empty error list is an
// upstream failure; a missing result key means the response cannot be used
// even when the error list is empty.
func krakenResult(exchangeName string, payload []byte) (json.RawMessage, error) {
	var envelope krakenEnvelope
	if err := decodeJSON(payload, &envelope); err != nil {
		return nil, err
	}
	if len(envelope.Error) > 0 {
		return nil, common.NewUpstreamError(exchangeName, payload)
	}
	if len(envelope.Result) == 0 {
		return nil, common.NewParsingError("Kraken response has no result key", nil, payload)
	}
	return envelope.Result, nil
}

func (c *KrakenClient) get(path string, params url.Values) (json.RawMessage, error) {
	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	payload, err := doRequest(c.httpClient, nil, http.MethodGet, target, nil, nil, c.httpTimeout)
	if err != nil {
		return nil, err
	}
	return krakenResult(c.GetName(), payload)
}

func (c *KrakenClient) signedPost(path string, form url.Values) (json.RawMessage, error) {
	if form == nil {
		form = url.Values{}
	}
	form.Set("nonce", krakenNonce())
	signature, err := c.signPayload(path, form)
	if err != nil {
		return nil, err
	}
	headers := map[string]string{
		"API-Key":      c.APIKey(),
		"API-Sign":     signature,
		"Content-Type": "application/x-www-form-urlencoded",
	}
	payload, err := doRequest(c.httpClient, nil, http.MethodPost, c.baseURL+path,
		[]byte(form.Encode()), headers, c.httpTimeout)
	if err != nil {
		return nil, err
	}
	return krakenResult(c.GetName(), payload)
}

// --- raw payloads ----------------------------------------------------------

// krakenTicker carries the fields used from Kraken's ticker arrays:
// a = ask, b = bid, c = last trade, h = high, l = low, v = volume.
type krakenTicker struct {
	Ask    []string `json:"a"`
	Bid    []string `json:"b"`
	Last   []string `json:"c"`
	High   []string `json:"h"`
	Low    []string `json:"l"`
	Volume []string `json:"v"`
}

type krakenBook struct {
	Asks [][]interface{} `json:"asks"`
	Bids [][]interface{} `json:"bids"`
}

type krakenOrderDescr struct {
	Type      string `json:"type"`
	OrderType string `json:"ordertype"`
	Pair      string `json:"pair"`
	Price     string `json:"price"`
}

type krakenOrderInfo struct {
	Descr  krakenOrderDescr `json:"descr"`
	Volume string           `json:"vol"`
	Status string           `json:"status"`
}

type krakenNewOrder struct {
	TxIDs []string `json:"txid"`
}

type krakenPositionInfo struct {
	Type   string `json:"type"`
	Volume string `json:"vol"`
	Cost   string `json:"cost"`
	Pair   string `json:"pair"`
	Net    string `json:"net"`
}

// --- normalizers -----------------------------------------------------------

func firstElement(values []string) (string, error) {
	if len(values) == 0 {
		return "", fmt.Errorf("expected a non-empty array")
	}
	return values[0], nil
}

func normalizeKrakenTicker(raw krakenTicker) (*models.Ticker, error) {
	fields := models.FieldMap{}
	for key, values := range map[string][]string{
		"ask":    raw.Ask,
		"bid":    raw.Bid,
		"last":   raw.Last,
		"high":   raw.High,
		"low":    raw.Low,
		"volume": raw.Volume,
	} {
		value, err := firstElement(values)
		if err != nil {
			return nil, common.NewNormalizationError(
				fmt.Sprintf("could not normalize Kraken ticker field %q", key), err)
		}
		fields[key] = value
	}
	ticker, err := models.NewTicker(fields)
	if err != nil {
		return nil, common.NewNormalizationError("could not normalize Kraken ticker", err)
	}
	return ticker, nil
}

// krakenLevels converts [price, volume, timestamp] triples. Prices and
// volumes arrive as strings, timestamps as numbers; only the first two
// entries matter.
func krakenLevels(entries [][]interface{}) ([]models.Level, error) {
	levels := make([]models.Level, len(entries))
	for i, entry := range entries {
		if len(entry) < 2 {
			return nil, fmt.Errorf("order book level %v has fewer than two elements", entry)
		}
		price, err := decimalFromAny(entry[0])
		if err != nil {
			return nil, err
		}
		amount, err := decimalFromAny(entry[1])
		if err != nil {
			return nil, err
		}
		levels[i] = models.Level{Price: price, Amount: amount}
	}
	return levels, nil
}

func decimalFromAny(value interface{}) (decimal.Decimal, error) {
	switch v := value.(type) {
	case string:
		return decimal.NewFromString(v)
	case json.Number:
		return decimal.NewFromString(v.String())
	default:
		return decimal.Decimal{}, fmt.Errorf("cannot convert %T to decimal", value)
	}
}

func normalizeKrakenOrderBook(raw krakenBook) (*models.OrderBook, error) {
	asks, err := krakenLevels(raw.Asks)
	if err != nil {
		return nil, common.NewNormalizationError("could not normalize Kraken order book asks", err)
	}
	bids, err := krakenLevels(raw.Bids)
	if err != nil {
		return nil, common.NewNormalizationError("could not normalize Kraken order book bids", err)
	}
	book, err := models.NewOrderBook(models.FieldMap{"asks": asks, "bids": bids})
	if err != nil {
		return nil, common.NewNormalizationError("could not normalize Kraken order book", err)
	}
	return book, nil
}

func normalizeKrakenBalance(wireSymbol, amount string) (*models.AccountBalance, error) {
	balance, err := models.NewAccountBalance(models.FieldMap{
		"symbol": wireSymbol,
		"amount": amount,
	})
	if err != nil {
		return nil, common.NewNormalizationError("could not normalize Kraken balance", err)
	}
	return balance, nil
}

func normalizeKrakenOrder(id string, raw krakenOrderInfo, status string) (*models.Order, error) {
	if raw.Status != "" {
		status = raw.Status
	}
	order, err := models.NewOrder(models.FieldMap{
		"id":          id,
		"action":      raw.Descr.Type,
		"amount":      raw.Volume,
		"price":       raw.Descr.Price,
		"symbol_pair": raw.Descr.Pair,
		"type":        raw.Descr.OrderType,
		"status":      status,
	})
	if err != nil {
		return nil, common.NewNormalizationError("could not normalize Kraken order", err)
	}
	return order, nil
}

// normalizeKrakenPosition derives the entry price from cost divided by
// volume; Kraken does not report it directly.
func normalizeKrakenPosition(id string, raw krakenPositionInfo) (*models.Position, error) {
	cost, err := decimal.NewFromString(raw.Cost)
	if err != nil {
		return nil, common.NewNormalizationError("could not normalize Kraken position cost", err)
	}
	volume, err := decimal.NewFromString(raw.Volume)
	if err != nil {
		return nil, common.NewNormalizationError("could not normalize Kraken position volume", err)
	}
	if volume.IsZero() {
		return nil, common.NewNormalizationError("Kraken position has zero volume", nil)
	}
	position, err := models.NewPosition(models.FieldMap{
		"id":          id,
		"action":      raw.Type,
		"amount":      raw.Volume,
		"price":       cost.Div(volume),
		"symbol_pair": raw.Pair,
		"profit_loss": raw.Net,
	})
	if err != nil {
		return nil, common.NewNormalizationError("could not normalize Kraken position", err)
	}
	return position, nil
}

// --- public endpoints ------------------------------------------------------

// GetTicker returns the normalized ticker for a pair
func (c *KrakenClient) GetTicker(pair currency.Pair) (*models.Ticker, error) {
	wire, err := c.wirePair(pair)
	if err != nil {
		return nil, err
	}
	result, err := c.get("/0/public/Ticker", url.Values{"pair": {wire}})
	if err != nil {
		return nil, err
	}
	// The result is keyed by Kraken's own pair spelling, which may differ
	// from the one requested. Only one entry ever comes back.
	var byPair map[string]krakenTicker
	if err := decodeJSON(result, &byPair); err != nil {
		return nil, err
	}
	for _, raw := range byPair {
		return normalizeKrakenTicker(raw)
	}
	return nil, common.NewNormalizationError("Kraken ticker response is empty", nil)
}

// GetOrderBook returns the normalized order book for a pair
func (c *KrakenClient) GetOrderBook(pair currency.Pair) (*models.OrderBook, error) {
	wire, err := c.wirePair(pair)
	if err != nil {
		return nil, err
	}
	result, err := c.get("/0/public/Depth", url.Values{"pair": {wire}})
	if err != nil {
		return nil, err
	}
	var byPair map[string]krakenBook
	if err := decodeJSON(result, &byPair); err != nil {
		return nil, err
	}
	for _, raw := range byPair {
		return normalizeKrakenOrderBook(raw)
	}
	return nil, common.NewNormalizationError("Kraken order book response is empty", nil)
}

// --- authenticated endpoints -----------------------------------------------

// GetAccountBalances returns one balance per currency in the account.
// Kraken spells currencies in its legacy notation (XXBT, ZUSD); they are
// normalized to canonical symbols.
func (c *KrakenClient) GetAccountBalances() ([]*models.AccountBalance, error) {
	result, err := c.signedPost("/0/private/Balance", nil)
	if err != nil {
		return nil, err
	}
	var bySymbol map[string]string
	if err := decodeJSON(result, &bySymbol); err != nil {
		return nil, err
	}
	symbols := make([]string, 0, len(bySymbol))
	for symbol := range bySymbol {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	balances := make([]*models.AccountBalance, 0, len(symbols))
	for _, symbol := range symbols {
		balance, err := normalizeKrakenBalance(symbol, bySymbol[symbol])
		if err != nil {
			return nil, err
		}
		balances = append(balances, balance)
	}
	return balances, nil
}

// GetAccountBalance returns the balance for one symbol, synthesizing a
// zero-amount balance when the account does not hold it.
func (c *KrakenClient) GetAccountBalance(symbol currency.Symbol) (*models.AccountBalance, error) {
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
func (c *KrakenClient) GetOpenOrders(pair currency.Pair) ([]*models.Order, error) {
	if err := common.ValidatePair(pair); err != nil {
		return nil, err
	}
	result, err := c.signedPost("/0/private/OpenOrders", nil)
	if err != nil {
		return nil, err
	}
	// The result groups orders by status: {"open": {txid: {...}}}.
	var byStatus map[string]map[string]krakenOrderInfo
	if err := decodeJSON(result, &byStatus); err != nil {
		return nil, err
	}
	return normalizeKrakenOrders(byStatus, pair)
}

// normalizeKrakenOrders normalizes the status-grouped order listing in a
// deterministic id order, keeping only orders on the given pair. One bad
// element fails the whole batch.
func normalizeKrakenOrders(byStatus map[string]map[string]krakenOrderInfo, pair currency.Pair) ([]*models.Order, error) {
	statuses := make([]string, 0, len(byStatus))
	for status := range byStatus {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)
	var orders []*models.Order
	for _, status := range statuses {
		ids := make([]string, 0, len(byStatus[status]))
		for id := range byStatus[status] {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			order, err := normalizeKrakenOrder(id, byStatus[status][id], status)
			if err != nil {
				return nil, err
			}
			if order.Pair == pair {
				orders = append(orders, order)
			}
		}
	}
	return orders, nil
}

// OpenOrder places a new order. Kraken only returns the transaction ID, so
// the returned Order carries the ID and echoes of the request.
func (c *KrakenClient) OpenOrder(req common.OrderRequest) (*models.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	wire, err := c.wirePair(req.Pair)
	if err != nil {
		return nil, err
	}
	userref, err := c.userref(req.Pair)
	if err != nil {
		return nil, err
	}
	result, err := c.signedPost("/0/private/AddOrder", url.Values{
		"pair":      {wire},
		"type":      {req.Action.String()},
		"ordertype": {req.Type.String()},
		"price":     {req.Price.String()},
		"volume":    {req.Amount.String()},
		"leverage":  {krakenLeverage},
		"userref":   {userref},
	})
	if err != nil {
		return nil, err
	}
	var raw krakenNewOrder
	if err := decodeJSON(result, &raw); err != nil {
		return nil, err
	}
	if len(raw.TxIDs) == 0 {
		return nil, common.NewNormalizationError("Kraken AddOrder response has no transaction ID", nil)
	}
	order, err := models.NewOrder(models.FieldMap{"id": raw.TxIDs[0]})
	if err != nil {
		return nil, common.NewNormalizationError("could not normalize Kraken order", err)
	}
	order.Action = req.Action
	order.Amount = req.Amount
	order.Price = req.Price
	order.Pair = req.Pair
	order.Type = req.Type
	order.Status = models.OrderStatusOpen
	return order, nil
}

// CancelOrder cancels a single order by transaction ID
func (c *KrakenClient) CancelOrder(orderID string) error {
	if orderID == "" {
		return common.NewValidationError("invalid_order_id", "order ID must not be empty")
	}
	_, err := c.signedPost("/0/private/CancelOrder", url.Values{"txid": {orderID}})
	return err
}

// CancelAllOrders cancels every open order on a pair in one call by
// passing the pair's userref tag as the txid.
func (c *KrakenClient) CancelAllOrders(pair currency.Pair) error {
	userref, err := c.userref(pair)
	if err != nil {
		return err
	}
	_, err = c.signedPost("/0/private/CancelOrder", url.Values{"txid": {userref}})
	return err
}

// GetOpenPositions returns normalized open positions for a pair
func (c *KrakenClient) GetOpenPositions(pair currency.Pair) ([]*models.Position, error) {
	if err := common.ValidatePair(pair); err != nil {
		return nil, err
	}
	result, err := c.signedPost("/0/private/OpenPositions", url.Values{"docalcs": {"true"}})
	if err != nil {
		return nil, err
	}
	var byID map[string]krakenPositionInfo
	if err := decodeJSON(result, &byID); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	positions := make([]*models.Position, 0, len(ids))
	for _, id := range ids {
		position, err := normalizeKrakenPosition(id, byID[id])
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
func (c *KrakenClient) ClosePosition(positionID string, pair currency.Pair) error {
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

// CloseAllPositions closes every open position on the pair
func (c *KrakenClient) CloseAllPositions(pair currency.Pair) error {
	positions, err := c.GetOpenPositions(pair)
	if err != nil {
		return err
	}
	for _, position := range positions {
		if position.ID == nil {
			continue
		}
		if err := c.ClosePosition(*position.ID, position.Pair); err != nil {
			return err
		}
	}
	return nil
}
