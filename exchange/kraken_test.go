package exchange

import (
	"net/url"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/evdnx/goxchange/currency"
	common "github.com/evdnx/goxchange/exchange/common"
	"github.com/evdnx/goxchange/models"
)

// Vector from the Kraken REST API documentation.
func TestKrakenSignPayload(t *testing.T) {
	client := NewKrakenClient("key",
		"kQH5HW/8p1uGOVjbgWA7FunAmGO8lsSUXNsu3eow76sz84Q18fWxnyRzBHCd3pd5nE9qa99HAZtuZuj6F1huXg==", nil)
	form := url.Values{
		"nonce":     {"1616492376594"},
		"ordertype": {"limit"},
		"pair":      {"XBTUSD"},
		"price":     {"37500"},
		"type":      {"buy"},
		"volume":    {"1.25"},
	}
	sig, err := client.signPayload("/0/private/AddOrder", form)
	if err != nil {
		t.Fatalf("signPayload failed: %v", err)
	}
	want := "4/dpxb3iT4tp/ZCVEwSnEsLxx0bqyhLpdfOpc6fn7OR8+UClSV5n9E6aSS8MPtnRfp32bAb0nmbRn6H8ndwLUQ=="
	if sig != want {
		t.Errorf("unexpected signature:\n got %s\nwant %s", sig, want)
	}
}

func TestKrakenSignPayloadBadSecret(t *testing.T) {
	client := NewKrakenClient("key", "not base64!!!", nil)
	_, err := client.signPayload("/0/private/Balance", url.Values{"nonce": {"1"}})
	if !common.IsAuthenticationError(err) {
		t.Fatalf("expected authentication error, got %v", err)
	}
}

func TestKrakenUserref(t *testing.T) {
	client := NewKrakenClient("", "", nil)

	// pair index in the sorted pair list, appended to the shared base
	cases := map[currency.Pair]string{
		currency.BCHUSD: "78862590",
		currency.BTCUSD: "78862591",
		currency.EOSUSD: "78862592",
		currency.ETCUSD: "78862593",
		currency.ETHUSD: "78862594",
		currency.LTCUSD: "78862595",
		currency.XRPUSD: "78862596",
	}
	for pair, want := range cases {
		got, err := client.userref(pair)
		if err != nil {
			t.Fatalf("userref(%s) failed: %v", pair, err)
		}
		if got != want {
			t.Errorf("userref(%s) = %s, want %s", pair, got, want)
		}
	}

	if _, err := client.userref(currency.BTGUSD); !common.IsValidationError(err) {
		t.Errorf("expected validation error for unsupported pair, got %v", err)
	}
}

func TestKrakenResultEnvelope(t *testing.T) {
	result, err := krakenResult("Kraken", []byte(`{"error":[],"result":{"XXBT":"0.01"}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result) != `{"XXBT":"0.01"}` {
		t.Errorf("unexpected result: %s", result)
	}

	_, err = krakenResult("Kraken", []byte(`{"error":["EGeneral:Invalid arguments"]}`))
	if !common.IsUpstreamError(err) {
		t.Errorf("expected upstream error, got %v", err)
	}

	// an empty error list without a result key is unusable
	_, err = krakenResult("Kraken", []byte(`{"error":[]}`))
	if !common.IsParsingError(err) {
		t.Errorf("expected parsing error for missing result, got %v", err)
	}
}

func TestNormalizeKrakenTicker(t *testing.T) {
	payload := []byte(`{
		"a": ["3809.00000", "1", "1.000"],
		"b": ["3803.60000", "1", "1.000"],
		"c": ["3809.30000", "0.08000000"],
		"h": ["3830.30000", "3830.30000"],
		"l": ["3570.10000", "3525.10000"],
		"o": "3606.80000",
		"p": ["3717.00933", "3650.22371"],
		"t": [6565, 14224],
		"v": ["2204.84583619", "4523.49526430"]
	}`)
	var raw krakenTicker
	if err := decodeJSON(payload, &raw); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	ticker, err := normalizeKrakenTicker(raw)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if !ticker.Ask.Equal(decimal.RequireFromString("3809.00000")) {
		t.Errorf("unexpected ask: %s", ticker.Ask)
	}
	if !ticker.Last.Equal(decimal.RequireFromString("3809.30000")) {
		t.Errorf("unexpected last: %s", ticker.Last)
	}
	if !ticker.Volume.Equal(decimal.RequireFromString("2204.84583619")) {
		t.Errorf("unexpected volume: %s", ticker.Volume)
	}
}

func TestNormalizeKrakenTickerEmptyArray(t *testing.T) {
	_, err := normalizeKrakenTicker(krakenTicker{})
	if !common.IsNormalizationError(err) {
		t.Fatalf("expected normalization error, got %v", err)
	}
}

func TestNormalizeKrakenOrderBook(t *testing.T) {
	payload := []byte(`{
		"asks": [
			["4626.12300", "0.014", 1504020172],
			["4628.80800", "0.100", 1504020185]
		],
		"bids": [
			["4626.00600", "0.003", 1504020190],
			["4626.00000", "1.410", 1504020191]
		]
	}`)
	var raw krakenBook
	if err := decodeJSON(payload, &raw); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	book, err := normalizeKrakenOrderBook(raw)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if !book.Asks[0].Price.Equal(decimal.RequireFromString("4628.80800")) {
		t.Errorf("asks not sorted descending: first is %s", book.Asks[0].Price)
	}
	if !book.Bids[0].Price.Equal(decimal.RequireFromString("4626.00600")) {
		t.Errorf("bids not sorted descending: first is %s", book.Bids[0].Price)
	}
}

func TestNormalizeKrakenOrder(t *testing.T) {
	order, err := normalizeKrakenOrder("OGYUJ3-LSWJV-4OD4DU", krakenOrderInfo{
		Descr: krakenOrderDescr{
			Type:      "sell",
			OrderType: "limit",
			Pair:      "XBTUSD",
			Price:     "5000.0",
		},
		Volume: "0.00500000",
		Status: "open",
	}, "open")
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if order.ID != "OGYUJ3-LSWJV-4OD4DU" {
		t.Errorf("unexpected ID: %s", order.ID)
	}
	if order.Pair != currency.BTCUSD {
		t.Errorf("expected btc_usd, got %s", order.Pair)
	}
	if order.Action != models.ActionSell {
		t.Errorf("expected sell, got %s", order.Action)
	}
}

func TestNormalizeKrakenPositionPrice(t *testing.T) {
	position, err := normalizeKrakenPosition("TZNYBD-GOE2N-4LTHWQ", krakenPositionInfo{
		Type:   "sell",
		Volume: "0.00500000",
		Cost:   "18.67650",
		Pair:   "XXBTZUSD",
		Net:    "+0.0352",
	})
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	// entry price is cost divided by volume
	want := decimal.RequireFromString("18.67650").Div(decimal.RequireFromString("0.005"))
	if !position.Price.Equal(want) {
		t.Errorf("expected price %s, got %s", want, position.Price)
	}
	if position.Pair != currency.BTCUSD {
		t.Errorf("expected btc_usd, got %s", position.Pair)
	}
	if position.ID == nil || *position.ID != "TZNYBD-GOE2N-4LTHWQ" {
		t.Errorf("unexpected ID: %v", position.ID)
	}
}

func TestNormalizeKrakenPositionZeroVolume(t *testing.T) {
	_, err := normalizeKrakenPosition("X", krakenPositionInfo{
		Type: "buy", Volume: "0", Cost: "1", Pair: "XBTUSD", Net: "0",
	})
	if !common.IsNormalizationError(err) {
		t.Fatalf("expected normalization error, got %v", err)
	}
}

func TestNormalizeKrakenOrdersBatchFailsOnOneBadOrder(t *testing.T) {
	good := krakenOrderInfo{
		Descr: krakenOrderDescr{
			Type:      "sell",
			OrderType: "limit",
			Pair:      "XBTUSD",
			Price:     "5000.0",
		},
		Volume: "0.00500000",
		Status: "open",
	}
	bad := good
	bad.Descr.Pair = "DOGEUSD"

	byStatus := map[string]map[string]krakenOrderInfo{
		"open": {"OGYUJ3-LSWJV-4OD4DU": good},
	}
	orders, err := normalizeKrakenOrders(byStatus, currency.BTCUSD)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(orders))
	}

	byStatus["open"]["OHYUJ3-LSWJV-4OD4DV"] = bad
	orders, err = normalizeKrakenOrders(byStatus, currency.BTCUSD)
	if err == nil {
		t.Fatal("one bad order must fail the whole batch")
	}
	if orders != nil {
		t.Errorf("failed batch must not return partial results, got %d orders", len(orders))
	}
}
