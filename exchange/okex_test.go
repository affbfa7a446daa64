package exchange

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/evdnx/goxchange/currency"
	common "github.com/evdnx/goxchange/exchange/common"
	"github.com/evdnx/goxchange/models"
)

func TestOKExSignParams(t *testing.T) {
	client := NewOKExClient("mykey", "mysecret", nil)
	defer client.Close()

	sig := client.signParams(map[string]string{
		"api_key": "mykey",
		"symbol":  "btc_usd",
	})
	if sig != "27719B669DFB5C02A09692684CA8933F" {
		t.Errorf("unexpected signature: %s", sig)
	}
}

func TestNormalizeOKExTicker(t *testing.T) {
	payload := []byte(`{
		"date": "1506170137",
		"ticker": {
			"buy": 3740.31,
			"contract_id": 20171229012,
			"high": 3785.06,
			"last": 3740.31,
			"low": 3453.04,
			"sell": 3742.24,
			"unit_amount": 100,
			"vol": 3181196
		}
	}`)
	var raw okexTicker
	if err := decodeJSON(payload, &raw); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	ticker, err := normalizeOKExTicker(raw)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if !ticker.Ask.Equal(decimal.RequireFromString("3742.24")) {
		t.Errorf("unexpected ask: %s", ticker.Ask)
	}
	if !ticker.Bid.Equal(decimal.RequireFromString("3740.31")) {
		t.Errorf("unexpected bid: %s", ticker.Bid)
	}
}

func TestNormalizeOKExOrderBookConvertsContracts(t *testing.T) {
	payload := []byte(`{
		"asks": [[8100, 6], [8050, 4]],
		"bids": [[7900, 12], [7950, 3]]
	}`)
	var raw okexBook
	if err := decodeJSON(payload, &raw); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	lastPrice := decimal.NewFromInt(8000)
	unitAmount := decimal.NewFromInt(100)
	book, err := normalizeOKExOrderBook(raw, lastPrice, unitAmount)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	// 6 contracts of 100 USD at 8000 USD/BTC is 0.075 BTC, and the level
	// ends up first because asks sort descending
	if !book.Asks[0].Price.Equal(decimal.NewFromInt(8100)) {
		t.Errorf("asks not sorted descending: first is %s", book.Asks[0].Price)
	}
	if !book.Asks[0].Amount.Equal(decimal.RequireFromString("0.075")) {
		t.Errorf("expected amount 0.075, got %s", book.Asks[0].Amount)
	}
	if !book.Bids[0].Price.Equal(decimal.NewFromInt(7950)) {
		t.Errorf("bids not sorted descending: first is %s", book.Bids[0].Price)
	}
}

func TestNormalizeOKExOrderStatusTable(t *testing.T) {
	cases := map[string]models.OrderStatus{
		"-1": models.OrderStatusClosed,
		"0":  models.OrderStatusOpen,
		"1":  models.OrderStatusOpen,
		"2":  models.OrderStatusClosed,
		"4":  models.OrderStatusOpen,
	}
	for code, want := range cases {
		order, err := normalizeOKExOrder(okexOrder{
			OrderID: "10602289748",
			Type:    "1",
			Amount:  "1",
			Price:   "3000",
			Symbol:  "btc_usd",
			Status:  json.Number(code),
		})
		if err != nil {
			t.Fatalf("status %s: normalize failed: %v", code, err)
		}
		if order.Status != want {
			t.Errorf("status %s: expected %s, got %s", code, want, order.Status)
		}
	}
}

func TestNormalizeOKExOrderUnknownCodes(t *testing.T) {
	_, err := normalizeOKExOrder(okexOrder{
		OrderID: "1", Type: "1", Amount: "1", Price: "1", Symbol: "btc_usd",
		Status: "3",
	})
	if !common.IsNormalizationError(err) {
		t.Fatalf("expected normalization error for status 3, got %v", err)
	}

	_, err = normalizeOKExOrder(okexOrder{
		OrderID: "1", Type: "9", Amount: "1", Price: "1", Symbol: "btc_usd",
		Status: "0",
	})
	if !common.IsNormalizationError(err) {
		t.Fatalf("expected normalization error for type 9, got %v", err)
	}
}

func TestNormalizeOKExOrderActionTable(t *testing.T) {
	cases := map[string]models.Action{
		"1": models.ActionBuy,
		"2": models.ActionSell,
		"3": models.ActionBuy,
		"4": models.ActionSell,
	}
	for code, want := range cases {
		order, err := normalizeOKExOrder(okexOrder{
			OrderID: "1", Type: json.Number(code), Amount: "1", Price: "1",
			Symbol: "btc_usd", Status: "0",
		})
		if err != nil {
			t.Fatalf("type %s: normalize failed: %v", code, err)
		}
		if order.Action != want {
			t.Errorf("type %s: expected %s, got %s", code, want, order.Action)
		}
	}
}

func TestNormalizeOKExPositionsSplitsSides(t *testing.T) {
	payload := []byte(`{
		"force_liqu_price": "0.00",
		"holding": [{
			"buy_amount": 1,
			"buy_price_cost": 4269.38,
			"buy_profit_real": -0.00000703,
			"contract_type": "quarter",
			"sell_amount": 2,
			"sell_price_cost": 4266.363325,
			"sell_profit_real": -0.00005432,
			"symbol": "btc_usd"
		}],
		"result": true
	}`)
	var raw okexPositions
	if err := decodeJSON(payload, &raw); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	positions, err := normalizeOKExPositions(raw)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if len(positions) != 2 {
		t.Fatalf("expected 2 positions, got %d", len(positions))
	}
	if positions[0].Action != models.ActionBuy || positions[1].Action != models.ActionSell {
		t.Errorf("unexpected sides: %s, %s", positions[0].Action, positions[1].Action)
	}
	for _, position := range positions {
		if position.ID != nil {
			t.Errorf("OKEx positions have no IDs, got %v", *position.ID)
		}
		if position.Pair != currency.BTCUSD {
			t.Errorf("expected btc_usd, got %s", position.Pair)
		}
	}
}

func TestNormalizeOKExPositionsSkipsZeroSides(t *testing.T) {
	positions, err := normalizeOKExPositions(okexPositions{
		Holding: []okexHolding{{
			BuyAmount: "0", BuyPriceCost: "0", BuyProfitReal: "0",
			SellAmount: "3", SellPriceCost: "3930.07", SellProfitReal: "0",
			Symbol: "btc_usd",
		}},
	})
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if len(positions) != 1 {
		t.Fatalf("expected 1 position, got %d", len(positions))
	}
	if positions[0].Action != models.ActionSell {
		t.Errorf("expected sell, got %s", positions[0].Action)
	}
}

func TestNormalizeOKExPositionsEmptyHolding(t *testing.T) {
	positions, err := normalizeOKExPositions(okexPositions{})
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if len(positions) != 0 {
		t.Fatalf("expected no positions, got %d", len(positions))
	}
}

func TestOKExClosePositionUnsupported(t *testing.T) {
	client := NewOKExClient("", "", nil)
	defer client.Close()

	err := client.ClosePosition("123", currency.BTCUSD)
	if !common.IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNormalizeOKExOrdersBatchFailsOnOneBadOrder(t *testing.T) {
	good := okexOrder{
		OrderID: "10602289748",
		Type:    "1",
		Amount:  "1",
		Price:   "3000",
		Symbol:  "btc_usd",
		Status:  "0",
	}
	bad := good
	bad.OrderID = "10602289749"
	bad.Status = "3" // unknown status code

	orders, err := normalizeOKExOrders([]okexOrder{good}, currency.BTCUSD)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(orders))
	}

	orders, err = normalizeOKExOrders([]okexOrder{good, bad}, currency.BTCUSD)
	if err == nil {
		t.Fatal("one bad order must fail the whole batch")
	}
	if orders != nil {
		t.Errorf("failed batch must not return partial results, got %d orders", len(orders))
	}
}
