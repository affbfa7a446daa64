package exchange

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/evdnx/goxchange/currency"
	common "github.com/evdnx/goxchange/exchange/common"
	"github.com/evdnx/goxchange/models"
)

func TestBitfinexSignPayload(t *testing.T) {
	client := NewBitfinexClient("mykey", "topsecret", nil)
	headers, err := client.signPayload(map[string]interface{}{
		"request": "/v1/balances",
		"nonce":   "1.000000",
	})
	if err != nil {
		t.Fatalf("signPayload failed: %v", err)
	}
	if headers["X-BFX-APIKEY"] != "mykey" {
		t.Errorf("unexpected API key header: %s", headers["X-BFX-APIKEY"])
	}
	wantPayload := "eyJub25jZSI6IjEuMDAwMDAwIiwicmVxdWVzdCI6Ii92MS9iYWxhbmNlcyJ9"
	if headers["X-BFX-PAYLOAD"] != wantPayload {
		t.Errorf("unexpected payload header: %s", headers["X-BFX-PAYLOAD"])
	}
	wantSig := "6707a190055fa4e58c823c2dba11a57a2b46b1b3e6e16b031b8d5658081f3d52c62fbab09e8930abd53d8c098faca425"
	if headers["X-BFX-SIGNATURE"] != wantSig {
		t.Errorf("unexpected signature: %s", headers["X-BFX-SIGNATURE"])
	}
}

func TestBitfinexWirePair(t *testing.T) {
	client := NewBitfinexClient("", "", nil)

	wire, err := client.wirePair(currency.BTCUSD)
	if err != nil {
		t.Fatalf("wirePair failed: %v", err)
	}
	if wire != "btcusd" {
		t.Errorf("expected btcusd, got %s", wire)
	}

	// Bitfinex only trades three of the canonical pairs
	_, err = client.wirePair(currency.XRPUSD)
	if !common.IsValidationError(err) {
		t.Fatalf("expected validation error for unsupported pair, got %v", err)
	}
}

func TestNormalizeBitfinexTicker(t *testing.T) {
	payload := []byte(`{
		"mid": "244.755",
		"bid": "244.75",
		"ask": "244.76",
		"last_price": "244.82",
		"low": "244.2",
		"high": "248.19",
		"volume": "7842.11542563",
		"timestamp": "1444253422.348340958"
	}`)
	var raw bitfinexTicker
	if err := decodeJSON(payload, &raw); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	ticker, err := normalizeBitfinexTicker(raw)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if !ticker.Last.Equal(decimal.RequireFromString("244.82")) {
		t.Errorf("unexpected last price: %s", ticker.Last)
	}
	if !ticker.Ask.Equal(decimal.RequireFromString("244.76")) {
		t.Errorf("unexpected ask: %s", ticker.Ask)
	}
}

func TestNormalizeBitfinexOrderBook(t *testing.T) {
	payload := []byte(`{
		"asks": [
			{"price": "7000", "amount": "0.3", "timestamp": "1505613250.0"},
			{"price": "9000", "amount": "0.1", "timestamp": "1505613250.0"},
			{"price": "8000", "amount": "0.4", "timestamp": "1505613250.0"}
		],
		"bids": [
			{"price": "6800", "amount": "0.5", "timestamp": "1505613250.0"},
			{"price": "6900", "amount": "0.2", "timestamp": "1505613250.0"}
		]
	}`)
	var raw bitfinexBook
	if err := decodeJSON(payload, &raw); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	book, err := normalizeBitfinexOrderBook(raw)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if !book.Asks[0].Price.Equal(decimal.NewFromInt(9000)) {
		t.Errorf("asks not sorted descending: first is %s", book.Asks[0].Price)
	}
	if !book.Bids[0].Price.Equal(decimal.NewFromInt(6900)) {
		t.Errorf("bids not sorted descending: first is %s", book.Bids[0].Price)
	}
}

func TestNormalizeBitfinexOrderStatus(t *testing.T) {
	raw := bitfinexOrder{
		ID:             "448364249",
		Side:           "buy",
		OriginalAmount: "0.01",
		Price:          "0.01",
		Symbol:         "btcusd",
		Type:           "limit",
		IsLive:         true,
	}
	order, err := normalizeBitfinexOrder(raw)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if order.Status != models.OrderStatusOpen {
		t.Errorf("live order should be open, got %s", order.Status)
	}
	if order.Pair != currency.BTCUSD {
		t.Errorf("expected btc_usd, got %s", order.Pair)
	}

	raw.IsLive = false
	order, err = normalizeBitfinexOrder(raw)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if order.Status != models.OrderStatusClosed {
		t.Errorf("dead order should be closed, got %s", order.Status)
	}
}

func TestNormalizeBitfinexPositionSign(t *testing.T) {
	raw := bitfinexPosition{
		ID:         "943715",
		Amount:     "-0.05",
		Base:       "246.94",
		ProfitLoss: "-0.0306",
		Symbol:     "btcusd",
	}
	position, err := normalizeBitfinexPosition(raw)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if position.Action != models.ActionSell {
		t.Errorf("negative amount should map to sell, got %s", position.Action)
	}
	if !position.Amount.Equal(decimal.RequireFromString("0.05")) {
		t.Errorf("amount should be absolute, got %s", position.Amount)
	}
	if position.ID == nil || *position.ID != "943715" {
		t.Errorf("unexpected position ID: %v", position.ID)
	}
}

func TestNormalizeBitfinexOrdersBatchFailsOnOneBadOrder(t *testing.T) {
	good := bitfinexOrder{
		ID:             "448364249",
		Side:           "buy",
		OriginalAmount: "0.01",
		Price:          "7800",
		Symbol:         "btcusd",
		Type:           "limit",
		IsLive:         true,
	}
	bad := good
	bad.ID = "448364250"
	bad.Symbol = "dogeusd"

	orders, err := normalizeBitfinexOrders([]bitfinexOrder{good}, currency.BTCUSD)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(orders))
	}

	orders, err = normalizeBitfinexOrders([]bitfinexOrder{good, bad}, currency.BTCUSD)
	if err == nil {
		t.Fatal("one bad order must fail the whole batch")
	}
	if orders != nil {
		t.Errorf("failed batch must not return partial results, got %d orders", len(orders))
	}
}
